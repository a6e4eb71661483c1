// Package store persists and reads back market snapshots, order
// books, trades, and resolutions for historical replay.
package store

import (
	"time"

	"github.com/predictsim/core/internal/model"
)

// Store is the backtest data-provider's persistence contract: append
// writers plus read-back filtered to one market_id and a time window.
// Loads return rows in stored order and do not sort them; callers
// that need timestamp order (HistoricalSource) sort themselves.
type Store interface {
	SaveSnapshots(snaps []model.MarketSnapshot) error
	SaveOrderBooks(books []model.OrderBookSnapshot) error
	SaveTrades(trades []model.TradeEvent) error
	SaveResolutions(resolutions []model.MarketResolution) error

	LoadSnapshots(marketID string, start, end time.Time) ([]model.MarketSnapshot, error)
	LoadOrderBooks(marketID string, start, end time.Time) ([]model.OrderBookSnapshot, error)
	LoadTrades(marketID string, start, end time.Time) ([]model.TradeEvent, error)
	LoadResolutions(marketID string, start, end time.Time) ([]model.MarketResolution, error)
}

func inWindow(ts, start, end time.Time) bool {
	if !start.IsZero() && ts.Before(start) {
		return false
	}
	if !end.IsZero() && ts.After(end) {
		return false
	}
	return true
}
