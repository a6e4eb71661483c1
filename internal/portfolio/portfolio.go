// Package portfolio implements the single-writer cash/position ledger:
// dual-sided YES/NO position accounting, resolution payouts, the
// equity curve, and the derived performance metrics.
package portfolio

import (
	"math"
	"sync"
	"time"

	"github.com/predictsim/core/internal/model"
)

// Trade is an appended record of one filled order.
type Trade struct {
	TradeID   string          `json:"trade_id"`
	MarketID  string          `json:"market_id"`
	Platform  model.Platform  `json:"platform"`
	Timestamp time.Time       `json:"timestamp"`
	Side      model.OrderSide `json:"side"`
	Size      float64         `json:"size"`
	Price     float64         `json:"price"`
	Fees      float64         `json:"fees"`
}

// Resolution is an appended record of a market settling.
type Resolution struct {
	MarketID  string                   `json:"market_id"`
	Platform  model.Platform           `json:"platform"`
	Timestamp time.Time                `json:"timestamp"`
	Outcome   model.ResolutionOutcome  `json:"outcome"`
	Question  string                   `json:"question,omitempty"`
	PnL       float64                  `json:"pnl"`
}

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Equity    float64   `json:"equity"`
}

// Portfolio is the engine's exclusive owner of cash, positions, and
// the trade/resolution/equity history. It is not safe to share across
// goroutines concurrently mutating it; the engine is its single writer,
// and the mutex here only protects read-only snapshot access such as
// the API server's status handlers.
type Portfolio struct {
	mu sync.Mutex

	initialCapital float64
	cash           float64

	positions map[string]*model.Position

	trades      []Trade
	resolutions []Resolution
	equityCurve []EquityPoint

	peakEquity     float64
	maxDrawdownPct float64

	// periodsPerYear derives the annualization factor for Sharpe/Sortino
	// from the configured equity-sampling interval (record_equity_interval
	// minutes), rather than assuming a fixed daily period.
	periodsPerYear float64
}

// New constructs a Portfolio seeded with initialCapital. recordEquityIntervalMinutes
// is the configured sampling cadence, used to derive the Sharpe/Sortino
// annualization factor; pass 1440 (one day) if unspecified.
func New(initialCapital float64, recordEquityIntervalMinutes float64) *Portfolio {
	if recordEquityIntervalMinutes <= 0 {
		recordEquityIntervalMinutes = 1440
	}
	periodsPerYear := (365.25 * 24 * 60) / recordEquityIntervalMinutes
	return &Portfolio{
		initialCapital: initialCapital,
		cash:           initialCapital,
		positions:      make(map[string]*model.Position),
		peakEquity:     initialCapital,
		periodsPerYear: periodsPerYear,
	}
}

// ExecuteTrade applies a fill to cash and the relevant position. It
// returns false (with no mutation) if a buy would overdraw cash.
func (p *Portfolio) ExecuteTrade(tradeID, marketID string, platform model.Platform, side model.OrderSide, size, price, fees float64, ts time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if size <= 0 || price < 0 || price > 1 {
		return false
	}

	pos, ok := p.positions[marketID]
	if !ok {
		pos = &model.Position{MarketID: marketID, Platform: platform, OpenedAt: ts}
		p.positions[marketID] = pos
	}

	if side.IsBuy() {
		cost := size*price + fees
		if p.cash < cost {
			if !ok {
				delete(p.positions, marketID)
			}
			return false
		}
		p.cash -= cost
		if side.IsYes() {
			applyBuy(&pos.YesShares, &pos.YesAvgPrice, &pos.YesCostBasis, size, price, fees)
		} else {
			applyBuy(&pos.NoShares, &pos.NoAvgPrice, &pos.NoCostBasis, size, price, fees)
		}
	} else {
		proceeds := size*price - fees
		p.cash += proceeds
		if side.IsYes() {
			applySell(&pos.YesShares, &pos.YesCostBasis, size)
		} else {
			applySell(&pos.NoShares, &pos.NoCostBasis, size)
		}
	}

	pos.LastUpdated = ts
	if pos.IsEmpty() {
		delete(p.positions, marketID)
	}

	p.trades = append(p.trades, Trade{
		TradeID:   tradeID,
		MarketID:  marketID,
		Platform:  platform,
		Timestamp: ts,
		Side:      side,
		Size:      size,
		Price:     price,
		Fees:      fees,
	})
	return true
}

// applyBuy updates one side of a position (shares, avg price, cost
// basis) using a weighted-average cost basis.
func applyBuy(shares, avgPrice, costBasis *float64, n, price, fees float64) {
	*avgPrice = (*shares**avgPrice + n*price) / (*shares + n)
	*costBasis += n*price + fees
	*shares += n
}

// applySell reduces shares and proportionally reduces cost basis.
func applySell(shares, costBasis *float64, n float64) {
	before := *shares
	if before <= 0 {
		return
	}
	if n > before {
		n = before
	}
	ratio := n / before
	*costBasis -= *costBasis * ratio
	*shares = math.Max(0, before-n)
}

// ResolvePosition settles a market: YES shares pay $1 on YES, NO
// shares pay $1 on NO, CANCELLED refunds the total cost basis,
// AMBIGUOUS pays nothing. Returns the realized PnL, or 0 if no
// position existed (a no-op).
func (p *Portfolio) ResolvePosition(marketID string, platform model.Platform, outcome model.ResolutionOutcome, question string, ts time.Time) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos, ok := p.positions[marketID]
	if !ok {
		return 0
	}

	var payout float64
	switch outcome {
	case model.OutcomeYes:
		payout = pos.YesShares
	case model.OutcomeNo:
		payout = pos.NoShares
	case model.OutcomeCancelled:
		payout = pos.TotalCostBasis()
	default:
		payout = 0
	}

	pnl := payout - pos.TotalCostBasis()
	p.cash += payout
	delete(p.positions, marketID)

	p.resolutions = append(p.resolutions, Resolution{
		MarketID:  marketID,
		Platform:  platform,
		Timestamp: ts,
		Outcome:   outcome,
		Question:  question,
		PnL:       pnl,
	})
	return pnl
}

// GetPortfolioValue returns cash plus the mark-to-market value of all
// open positions. currentPrices maps market_id to the current YES
// price; a market missing from it marks at the position's own
// yes_avg_price.
func (p *Portfolio) GetPortfolioValue(currentPrices map[string]float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.portfolioValueLocked(currentPrices)
}

func (p *Portfolio) portfolioValueLocked(currentPrices map[string]float64) float64 {
	total := p.cash
	for id, pos := range p.positions {
		yesPrice := pos.YesAvgPrice
		if currentPrices != nil {
			if px, ok := currentPrices[id]; ok {
				yesPrice = px
			}
		}
		total += pos.MarketValue(yesPrice)
	}
	return total
}

// GetUnrealizedPnL sums mark-to-market value minus cost basis across
// all open positions.
func (p *Portfolio) GetUnrealizedPnL(currentPrices map[string]float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	var total float64
	for id, pos := range p.positions {
		yesPrice := pos.YesAvgPrice
		if currentPrices != nil {
			if px, ok := currentPrices[id]; ok {
				yesPrice = px
			}
		}
		total += pos.MarketValue(yesPrice) - pos.TotalCostBasis()
	}
	return total
}

// GetRealizedPnL sums the PnL of every resolution recorded so far.
func (p *Portfolio) GetRealizedPnL() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	var total float64
	for _, r := range p.resolutions {
		total += r.PnL
	}
	return total
}

// RecordEquity appends a (timestamp, equity) sample and updates the
// running peak and max drawdown.
func (p *Portfolio) RecordEquity(ts time.Time, currentPrices map[string]float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	equity := p.portfolioValueLocked(currentPrices)
	p.equityCurve = append(p.equityCurve, EquityPoint{Timestamp: ts, Equity: equity})
	if equity > p.peakEquity {
		p.peakEquity = equity
	}
	if p.peakEquity > 0 {
		dd := (p.peakEquity - equity) / p.peakEquity
		if dd > p.maxDrawdownPct {
			p.maxDrawdownPct = dd
		}
	}
}

// CurrentDrawdownPct returns the running maximum drawdown observed
// across the recorded equity curve so far.
func (p *Portfolio) CurrentDrawdownPct() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxDrawdownPct
}

// Cash returns the current cash balance.
func (p *Portfolio) Cash() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cash
}

// Position returns a value-copy snapshot of a market's position, if
// one is currently open.
func (p *Portfolio) Position(marketID string) (model.Position, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pos, ok := p.positions[marketID]
	if !ok {
		return model.Position{}, false
	}
	return *pos, true
}

// Positions returns a value-copy snapshot of every open position.
func (p *Portfolio) Positions() []model.Position {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Position, 0, len(p.positions))
	for _, pos := range p.positions {
		out = append(out, *pos)
	}
	return out
}

// Trades returns a copy of the trade ledger.
func (p *Portfolio) Trades() []Trade {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Trade, len(p.trades))
	copy(out, p.trades)
	return out
}

// Resolutions returns a copy of the resolution ledger.
func (p *Portfolio) Resolutions() []Resolution {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Resolution, len(p.resolutions))
	copy(out, p.resolutions)
	return out
}

// EquityCurve returns a copy of the recorded equity samples.
func (p *Portfolio) EquityCurve() []EquityPoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EquityPoint, len(p.equityCurve))
	copy(out, p.equityCurve)
	return out
}

// Reset restores the portfolio to its freshly-constructed state.
func (p *Portfolio) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cash = p.initialCapital
	p.positions = make(map[string]*model.Position)
	p.trades = nil
	p.resolutions = nil
	p.equityCurve = nil
	p.peakEquity = p.initialCapital
	p.maxDrawdownPct = 0
}
