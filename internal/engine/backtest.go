package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/predictsim/core/internal/exchange"
	"github.com/predictsim/core/internal/model"
	"github.com/predictsim/core/internal/portfolio"
	"github.com/predictsim/core/internal/risk"
	"github.com/predictsim/core/internal/strategy"
)

// Backtest is the strictly single-threaded, deterministic replay
// orchestrator: given the same event source and the same random seed
// in the exchange's fill/latency models, two runs produce
// bit-for-bit-identical trades, equity curve, and metrics.
type Backtest struct {
	core *core

	source               Source
	recordEquityInterval time.Duration
}

// Source is the subset of eventsource.Source the backtest engine
// depends on, kept narrow to avoid coupling the engine package to the
// event source's live-feed machinery.
type Source interface {
	Next(ctx context.Context) (model.SimEvent, bool, error)
	Reset() error
}

// NewBacktest constructs a backtest engine.
func NewBacktest(ex *exchange.Exchange, pf *portfolio.Portfolio, strategies []strategy.Strategy, source Source, initialCapital float64, recordEquityInterval time.Duration) *Backtest {
	return &Backtest{
		core:                 newCore(ex, pf, strategies, initialCapital),
		source:               source,
		recordEquityInterval: recordEquityInterval,
	}
}

// WithMetrics attaches a Prometheus recorder; trades, fills, and the
// equity/drawdown gauges are reported through it as the run proceeds.
func (b *Backtest) WithMetrics(m *MetricsRecorder) *Backtest {
	b.core.metrics = m
	return b
}

// WithState attaches a StateView so the dashboard API can observe
// this engine's lifecycle.
func (b *Backtest) WithState(v *StateView) *Backtest {
	b.core.state = v
	return b
}

// WithRisk attaches a risk manager; every buy signal is checked
// against its limits before being submitted to the exchange.
func (b *Backtest) WithRisk(r *risk.Manager) *Backtest {
	b.core.risk = r
	return b
}

// Run sequentially pulls events from the source, updating exchange
// and portfolio state and invoking strategies as each event's
// timestamp becomes the simulation's current_time. Orders produced
// while handling one event are executed at that event's timestamp;
// the engine never reorders across future events.
func (b *Backtest) Run(ctx context.Context) (*Results, error) {
	var currentTime time.Time
	first := true

	if b.core.state != nil {
		b.core.state.SetRunning(true)
		defer b.core.state.SetRunning(false)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		event, ok, err := b.source.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("engine: backtest source: %w", err)
		}
		if !ok {
			break
		}

		currentTime = event.EventTimestamp()
		if first {
			b.core.startTime = currentTime
			first = false
		}

		switch ev := event.(type) {
		case model.MarketUpdateEvent:
			b.core.handleMarketUpdate(ev.Snapshot, currentTime)
		case model.OrderBookUpdateEvent:
			b.core.handleOrderBookUpdate(ev.Book)
		case model.ResolutionEvent:
			b.core.handleResolution(ev.Resolution)
		case model.NewsEvent:
			// No built-in strategy currently consumes news events; the
			// dispatch is still exhaustive over the sum type.
		}

		if b.core.dueForEquityRecord(currentTime, b.recordEquityInterval) {
			b.core.recordEquity(currentTime)
		}
	}

	return b.core.finalize(currentTime), nil
}
