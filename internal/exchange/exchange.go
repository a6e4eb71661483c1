// Package exchange implements the simulated matching venue: market
// and order-book state, a pluggable fill model, a latency model, and
// platform fee schedules.
package exchange

import (
	"sync"

	"github.com/predictsim/core/internal/model"
)

// HistoryEntry pairs a submitted order with its fill result, in the
// order submitted.
type HistoryEntry struct {
	Order  model.Order
	Result model.FillResult
}

// Exchange owns market snapshots, order books, and execution history
// for a single simulation run. It is owned exclusively by the engine;
// strategies only ever see read-only views.
type Exchange struct {
	mu sync.Mutex

	markets    map[string]model.MarketSnapshot
	orderBooks map[string]model.OrderBookSnapshot
	history    []HistoryEntry

	fillModel    *FillModel
	latencyModel *LatencyModel
	feeModel     *FeeModel
}

// New constructs an Exchange with the given pluggable models.
func New(fillModel *FillModel, latencyModel *LatencyModel, feeModel *FeeModel) *Exchange {
	return &Exchange{
		markets:      make(map[string]model.MarketSnapshot),
		orderBooks:   make(map[string]model.OrderBookSnapshot),
		fillModel:    fillModel,
		latencyModel: latencyModel,
		feeModel:     feeModel,
	}
}

// UpdateMarket replaces the stored snapshot for a market_id.
func (e *Exchange) UpdateMarket(snap model.MarketSnapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.markets[snap.MarketID] = snap
}

// UpdateOrderBook replaces the stored order book for a market_id.
func (e *Exchange) UpdateOrderBook(book model.OrderBookSnapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orderBooks[book.MarketID] = book
}

// Market returns the current snapshot for a market, if known.
func (e *Exchange) Market(marketID string) (model.MarketSnapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.markets[marketID]
	return m, ok
}

// OrderBook returns the current order book for a market, if known.
func (e *Exchange) OrderBook(marketID string) (model.OrderBookSnapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.orderBooks[marketID]
	return b, ok
}

// GetMarketPrice returns the side-appropriate reference price: YES
// sides read yes_price, NO sides read no_price.
func (e *Exchange) GetMarketPrice(marketID string, side model.OrderSide) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.markets[marketID]
	if !ok {
		return 0, false
	}
	if side.IsYes() {
		return m.YesPrice, true
	}
	return m.NoPrice, true
}

// GetAvailableLiquidity prefers summing the taking side's order-book
// depth (asks for buys, bids for sells); absent a book, it falls back
// to the market's liquidity figure.
func (e *Exchange) GetAvailableLiquidity(marketID string, side model.OrderSide) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if book, ok := e.orderBooks[marketID]; ok {
		var levels []model.OrderBookLevel
		if side.IsBuy() {
			levels = book.Asks
		} else {
			levels = book.Bids
		}
		if len(levels) > 0 {
			var total float64
			for _, l := range levels {
				total += l.Size
			}
			return total
		}
	}
	if m, ok := e.markets[marketID]; ok {
		return m.Liquidity
	}
	return 0
}

// SubmitOrder runs the full submission sequence: reject unknown
// markets, run the fill model, stamp latency regardless of outcome,
// compute fees on fill, and append to history.
func (e *Exchange) SubmitOrder(order model.Order) model.FillResult {
	price, ok := e.GetMarketPrice(order.MarketID, order.Side)
	if !ok {
		result := model.FillResult{Status: model.FillRejected, Reason: "market_not_found"}
		result.LatencyMs = e.latencyModel.Sample()
		e.appendHistory(order, result)
		return result
	}

	liquidity := e.GetAvailableLiquidity(order.MarketID, order.Side)
	book, hasBook := e.OrderBook(order.MarketID)
	var bookPtr *model.OrderBookSnapshot
	if hasBook {
		bookPtr = &book
	}

	result := e.fillModel.Fill(order, price, liquidity, bookPtr)
	result.LatencyMs = e.latencyModel.Sample()

	if result.Status == model.FillFilled || result.Status == model.FillPartial {
		isMaker := order.Type == model.OrderLimit
		result.Fees = e.feeModel.Fees(order.Platform, result.FilledSize, result.FillPrice, isMaker)
	}

	e.appendHistory(order, result)
	return result
}

func (e *Exchange) appendHistory(order model.Order, result model.FillResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = append(e.history, HistoryEntry{Order: order, Result: result})
}

// CancelOrder marks the first history entry for order_id as
// cancelled and reports whether the order_id was ever seen. The
// simulator has no resting book of its own orders (all fills are
// synchronous), so the entry stays in history and any fill it
// already produced is not undone.
func (e *Exchange) CancelOrder(orderID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, h := range e.history {
		if h.Order.OrderID == orderID {
			e.history[i].Result.Status = model.FillCanceled
			return true
		}
	}
	return false
}

// History returns a copy of the submitted-order/fill-result log.
func (e *Exchange) History() []HistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]HistoryEntry, len(e.history))
	copy(out, e.history)
	return out
}

// AllYesPrices returns the current YES price of every known market,
// suitable for marking a portfolio's positions to market.
func (e *Exchange) AllYesPrices() map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]float64, len(e.markets))
	for id, m := range e.markets {
		out[id] = m.YesPrice
	}
	return out
}

// Reset clears all market, book, and history state.
func (e *Exchange) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.markets = make(map[string]model.MarketSnapshot)
	e.orderBooks = make(map[string]model.OrderBookSnapshot)
	e.history = nil
}
