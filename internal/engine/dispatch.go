package engine

import (
	"fmt"
	"log"
	"time"

	"github.com/predictsim/core/internal/exchange"
	"github.com/predictsim/core/internal/model"
	"github.com/predictsim/core/internal/portfolio"
	"github.com/predictsim/core/internal/risk"
	"github.com/predictsim/core/internal/strategy"
)

// core holds the state and dispatch logic shared by Backtest and
// Paper: both engines own the exchange and portfolio exclusively and
// route events through the same strategy-callback-then-submit path.
type core struct {
	exchange   *exchange.Exchange
	portfolio  *portfolio.Portfolio
	strategies []strategy.Strategy
	stats      *execStats

	initialCapital float64
	startTime      time.Time
	lastEquityTime time.Time

	metrics *MetricsRecorder
	state   *StateView
	risk    *risk.Manager

	// resolutions records every resolution event handled, including
	// markets the portfolio held no position in (PnL 0).
	resolutions []portfolio.Resolution
	// orderSeq numbers submitted orders so that order IDs are the same
	// across identical runs.
	orderSeq int
}

func newCore(ex *exchange.Exchange, pf *portfolio.Portfolio, strategies []strategy.Strategy, initialCapital float64) *core {
	return &core{
		exchange:       ex,
		portfolio:      pf,
		strategies:     strategies,
		stats:          newExecStats(),
		initialCapital: initialCapital,
	}
}

// handleMarketUpdate updates exchange state, then gives every
// strategy a chance to react. A strategy that panics is caught,
// logged by name, and does not stop the remaining strategies.
func (c *core) handleMarketUpdate(snap model.MarketSnapshot, ts time.Time) {
	c.exchange.UpdateMarket(snap)
	book, _ := c.exchange.OrderBook(snap.MarketID)
	var bookPtr *model.OrderBookSnapshot
	if book.MarketID != "" {
		bookPtr = &book
	}

	for _, s := range c.strategies {
		signals := c.callStrategy(s, snap, bookPtr)
		for _, sig := range signals {
			c.submitSignal(s.Name(), sig, ts)
		}
	}
}

func (c *core) callStrategy(s strategy.Strategy, snap model.MarketSnapshot, book *model.OrderBookSnapshot) (signals []strategy.Signal) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engine: strategy %q panicked on market update: %v", s.Name(), r)
			signals = nil
		}
	}()
	return s.OnMarketUpdate(snap, book, c.portfolio)
}

func (c *core) handleOrderBookUpdate(book model.OrderBookSnapshot) {
	c.exchange.UpdateOrderBook(book)
}

// handleResolution settles the position, records the resolution in
// the run's results (PnL 0 when no position was held), then notifies
// every strategy so it can drop per-market state.
func (c *core) handleResolution(res model.MarketResolution) {
	pnl := c.portfolio.ResolvePosition(res.MarketID, res.Platform, res.Outcome, res.Question, res.Timestamp)
	c.resolutions = append(c.resolutions, portfolio.Resolution{
		MarketID: res.MarketID, Platform: res.Platform, Timestamp: res.Timestamp,
		Outcome: res.Outcome, Question: res.Question, PnL: pnl,
	})
	if c.risk != nil {
		c.risk.RecordResolution(res.MarketID, pnl)
	}
	for _, s := range c.strategies {
		c.notifyResolution(s, res)
	}
}

func (c *core) notifyResolution(s strategy.Strategy, res model.MarketResolution) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engine: strategy %q panicked on resolution: %v", s.Name(), r)
		}
	}()
	s.OnResolution(res)
}

// submitSignal converts a strategy signal into an order, submits it
// to the exchange, and on a fill applies it to the portfolio.
// Insufficient-funds and invalid-order rejections are silently
// absorbed here: they are already reflected in the fill-result
// counters and never panic or stop the run.
func (c *core) submitSignal(strategyName string, sig strategy.Signal, ts time.Time) {
	c.orderSeq++
	order := model.Order{
		OrderID:     fmt.Sprintf("%s-%d", strategyName, c.orderSeq),
		MarketID:    sig.MarketID,
		Platform:    sig.Platform,
		Side:        sig.Side,
		Type:        sig.Type,
		Size:        sig.Size,
		LimitPrice:  sig.LimitPrice,
		CreatedAt:   ts,
		StrategyTag: strategyName,
	}

	if c.risk != nil && order.Side.IsBuy() {
		estPrice, _ := c.exchange.GetMarketPrice(order.MarketID, order.Side)
		portfolioValue := c.portfolio.GetPortfolioValue(c.exchange.AllYesPrices())
		if err := c.risk.Allow(order.MarketID, order.Size*estPrice, portfolioValue); err != nil {
			log.Printf("engine: order from %q blocked: %v", strategyName, err)
			c.stats.rejected++
			c.observeFill("risk_blocked")
			return
		}
	}

	result := c.exchange.SubmitOrder(order)

	switch result.Status {
	case model.FillFilled:
		c.stats.filled++
	case model.FillPartial:
		c.stats.partial++
	case model.FillRejected:
		c.stats.rejected++
		c.observeFill(string(result.Status))
		return
	}
	c.observeFill(string(result.Status))

	ok := c.portfolio.ExecuteTrade(order.OrderID, order.MarketID, order.Platform, order.Side, result.FilledSize, result.FillPrice, result.Fees, ts)
	if !ok {
		c.stats.rejected++
		return
	}

	c.stats.totalFees += result.Fees
	c.stats.totalSlippage += result.Slippage
	c.stats.slippageSamples++
	c.stats.tradesByStrategy[strategyName]++
	c.stats.tradesByPlatform[string(order.Platform)]++
	c.stats.volumeByPlatform[string(order.Platform)] += result.FilledSize * result.FillPrice
	c.stats.feesByPlatform[string(order.Platform)] += result.Fees

	if c.risk != nil {
		value := result.FilledSize * result.FillPrice
		if !order.Side.IsBuy() {
			value = -value
		}
		c.risk.RecordFill(order.MarketID, value)
	}

	if c.metrics != nil {
		c.metrics.ObserveTrade(strategyName, string(order.Platform))
	}
}

func (c *core) observeFill(status string) {
	if c.metrics != nil {
		c.metrics.ObserveFill(status)
	}
}

// recordEquity snapshots the portfolio's mark-to-market value using
// the exchange's current prices.
func (c *core) recordEquity(ts time.Time) {
	c.portfolio.RecordEquity(ts, c.exchange.AllYesPrices())
	c.lastEquityTime = ts

	if c.metrics == nil {
		return
	}
	value := c.portfolio.GetPortfolioValue(c.exchange.AllYesPrices())
	c.metrics.SetEquity(value)
	c.metrics.SetDrawdown(c.portfolio.CurrentDrawdownPct())
}

func (c *core) dueForEquityRecord(ts time.Time, interval time.Duration) bool {
	if c.lastEquityTime.IsZero() {
		return true
	}
	return ts.Sub(c.lastEquityTime) >= interval
}

func (c *core) finalize(endTime time.Time) *Results {
	c.recordEquity(endTime)

	finalValue := c.portfolio.GetPortfolioValue(c.exchange.AllYesPrices())
	totalReturn := 0.0
	if c.initialCapital > 0 {
		totalReturn = (finalValue - c.initialCapital) / c.initialCapital
	}

	return &Results{
		StartTime:        c.startTime,
		EndTime:          endTime,
		InitialCapital:   c.initialCapital,
		FinalValue:       finalValue,
		TotalReturn:      totalReturn,
		Metrics:          c.portfolio.GetMetrics(),
		Trades:           c.portfolio.Trades(),
		Resolutions:      append([]portfolio.Resolution{}, c.resolutions...),
		EquityCurve:      c.portfolio.EquityCurve(),
		FilledCount:      c.stats.filled,
		PartialCount:     c.stats.partial,
		RejectedCount:    c.stats.rejected,
		TotalFees:        c.stats.totalFees,
		AverageSlippage:  c.stats.averageSlippage(),
		TradesByStrategy: c.stats.tradesByStrategy,
		TradesByPlatform: c.stats.tradesByPlatform,
		VolumeByPlatform: c.stats.volumeByPlatform,
		FeesByPlatform:   c.stats.feesByPlatform,
	}
}
