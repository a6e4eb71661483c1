package eventsource

import (
	"context"
	"sort"
	"time"

	"github.com/predictsim/core/internal/model"
	"github.com/predictsim/core/internal/store"
)

// eventPriority orders simultaneous events within one tick: market
// updates, then book updates, then resolutions (per the intra-tick
// ordering historical replay guarantees).
var eventPriority = map[model.EventKind]int{
	model.EventMarketUpdate:    0,
	model.EventOrderBookUpdate: 1,
	model.EventResolution:      2,
	model.EventNews:            3,
}

// HistoricalSource reads snapshots, order books, and resolutions from
// a Store for a fixed set of markets and a time window, and replays
// them in strict timestamp order.
type HistoricalSource struct {
	events []model.SimEvent
	idx    int
}

// NewHistoricalSource loads and merges every entity the store holds
// for marketIDs within [start, end] into one chronologically sorted
// stream.
func NewHistoricalSource(st store.Store, marketIDs []string, start, end time.Time) (*HistoricalSource, error) {
	var events []model.SimEvent
	for _, marketID := range marketIDs {
		snaps, err := st.LoadSnapshots(marketID, start, end)
		if err != nil {
			return nil, err
		}
		for _, snap := range snaps {
			events = append(events, model.MarketUpdateEvent{Snapshot: snap})
		}

		books, err := st.LoadOrderBooks(marketID, start, end)
		if err != nil {
			return nil, err
		}
		for _, book := range books {
			events = append(events, model.OrderBookUpdateEvent{Book: book})
		}

		resolutions, err := st.LoadResolutions(marketID, start, end)
		if err != nil {
			return nil, err
		}
		for _, res := range resolutions {
			events = append(events, model.ResolutionEvent{Resolution: res})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		ti, tj := events[i].EventTimestamp(), events[j].EventTimestamp()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return eventPriority[events[i].Kind()] < eventPriority[events[j].Kind()]
	})

	return &HistoricalSource{events: events}, nil
}

func (h *HistoricalSource) Next(ctx context.Context) (model.SimEvent, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if h.idx >= len(h.events) {
		return nil, false, nil
	}
	e := h.events[h.idx]
	h.idx++
	return e, true, nil
}

func (h *HistoricalSource) Reset() error {
	h.idx = 0
	return nil
}
