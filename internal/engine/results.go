// Package engine implements the backtest (synchronous replay) and
// paper (asynchronous live) orchestrators: they dispatch events,
// invoke strategies, submit resulting orders, and record results.
package engine

import (
	"time"

	"github.com/predictsim/core/internal/portfolio"
)

// Results is the serializable record the engine produces at the end
// of a run: period bounds, capital, returns, metrics, execution
// stats, and per-strategy/per-platform breakdowns.
type Results struct {
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	InitialCapital float64   `json:"initial_capital"`
	FinalValue     float64   `json:"final_value"`
	TotalReturn    float64   `json:"total_return"`

	Metrics     portfolio.Metrics       `json:"metrics"`
	Trades      []portfolio.Trade       `json:"trades"`
	Resolutions []portfolio.Resolution  `json:"resolutions"`
	EquityCurve []portfolio.EquityPoint `json:"equity_curve"`

	FilledCount   int `json:"filled_count"`
	PartialCount  int `json:"partial_count"`
	RejectedCount int `json:"rejected_count"`

	TotalFees       float64 `json:"total_fees"`
	AverageSlippage float64 `json:"average_slippage"`

	TradesByStrategy map[string]int     `json:"trades_by_strategy"`
	TradesByPlatform map[string]int     `json:"trades_by_platform"`
	VolumeByPlatform map[string]float64 `json:"volume_by_platform"`
	FeesByPlatform   map[string]float64 `json:"fees_by_platform"`
}

// execStats accumulates the fill/fee/slippage counters the engine
// updates as orders are submitted, independent of the final portfolio
// state.
type execStats struct {
	filled, partial, rejected int
	totalFees                 float64
	totalSlippage             float64
	slippageSamples           int

	tradesByStrategy map[string]int
	tradesByPlatform map[string]int
	volumeByPlatform map[string]float64
	feesByPlatform   map[string]float64
}

func newExecStats() *execStats {
	return &execStats{
		tradesByStrategy: make(map[string]int),
		tradesByPlatform: make(map[string]int),
		volumeByPlatform: make(map[string]float64),
		feesByPlatform:   make(map[string]float64),
	}
}

func (s *execStats) averageSlippage() float64 {
	if s.slippageSamples == 0 {
		return 0
	}
	return s.totalSlippage / float64(s.slippageSamples)
}
