// Package strategy implements the built-in trading strategies: mean
// reversion, momentum, spike detection, cross-platform arbitrage, and
// market making. Strategies are pure with respect to the engine: they
// read a snapshot of the portfolio and emit signals, but never mutate
// portfolio or exchange state directly.
package strategy

import "github.com/predictsim/core/internal/model"

// PortfolioView is the read-only slice of the portfolio a strategy is
// allowed to observe during a callback.
type PortfolioView interface {
	Position(marketID string) (model.Position, bool)
	Cash() float64
}

// Signal is a strategy's richer order intent: it carries confidence
// and optional stop/target hints in addition to the bare order shape
// a backtest order needs. The engine converts a Signal into a
// model.Order when submitting it to the exchange.
type Signal struct {
	MarketID    string
	Platform    model.Platform
	Side        model.OrderSide
	Type        model.OrderType
	Size        float64
	LimitPrice  *float64
	Confidence  float64
	StopPrice   *float64
	TargetPrice *float64
	Tag         string
}

// Strategy reacts to market-update and resolution events and emits
// zero or more signals. Implementations must be safe to call
// repeatedly from a single-threaded engine loop; no implementation in
// this package retains external I/O state.
type Strategy interface {
	Name() string
	OnMarketUpdate(snap model.MarketSnapshot, book *model.OrderBookSnapshot, portfolio PortfolioView) []Signal
	OnResolution(res model.MarketResolution)
}
