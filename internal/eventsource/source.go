// Package eventsource provides the simulator's chronological event
// streams: a historical replay source backed by internal/store, a
// synthetic mock source for tests, and a live push source for paper
// trading.
package eventsource

import (
	"context"

	"github.com/predictsim/core/internal/model"
)

// Source is a lazily-produced, non-decreasing-timestamp stream of
// simulation events bounded to a configured time window.
// Implementations must be restartable via Reset so the same run can
// be replayed for reproducibility tests. The implementations in this
// package select events by market ID only; none filters by platform.
type Source interface {
	// Next returns the next event, or ok=false once the stream is
	// exhausted.
	Next(ctx context.Context) (event model.SimEvent, ok bool, err error)
	// Reset rewinds the source to its initial position.
	Reset() error
}

// DataProvider is the paper-mode push-source contract: connect,
// disconnect, and register a callback invoked once per update in real
// wall-clock arrival order.
type DataProvider interface {
	Connect(ctx context.Context) error
	Disconnect() error
	OnUpdate(callback func(model.SimEvent))
}
