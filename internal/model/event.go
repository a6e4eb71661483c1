package model

import "time"

// EventKind is the closed tag set dispatch switches exhaustively on.
type EventKind string

const (
	EventMarketUpdate    EventKind = "market_update"
	EventOrderBookUpdate EventKind = "order_book_update"
	EventResolution      EventKind = "resolution"
	EventNews            EventKind = "news"
)

// SimEvent is the sum type carried by the event source: every variant
// sorts by its own timestamp in the global replay sequence.
type SimEvent interface {
	Kind() EventKind
	EventTimestamp() time.Time
}

// MarketUpdateEvent carries a new market price/volume snapshot.
type MarketUpdateEvent struct {
	Snapshot MarketSnapshot
}

func (e MarketUpdateEvent) Kind() EventKind          { return EventMarketUpdate }
func (e MarketUpdateEvent) EventTimestamp() time.Time { return e.Snapshot.Timestamp }

// OrderBookUpdateEvent carries a new order-book depth snapshot.
type OrderBookUpdateEvent struct {
	Book OrderBookSnapshot
}

func (e OrderBookUpdateEvent) Kind() EventKind          { return EventOrderBookUpdate }
func (e OrderBookUpdateEvent) EventTimestamp() time.Time { return e.Book.Timestamp }

// ResolutionEvent carries a market settling.
type ResolutionEvent struct {
	Resolution MarketResolution
}

func (e ResolutionEvent) Kind() EventKind          { return EventResolution }
func (e ResolutionEvent) EventTimestamp() time.Time { return e.Resolution.Timestamp }

// NewsEvent is an out-of-band informational event; no built-in
// strategy currently reacts to it, but the engine dispatches it
// exhaustively alongside the other three variants.
type NewsEvent struct {
	MarketID  string
	Platform  Platform
	Timestamp time.Time
	Headline  string
	Sentiment float64
}

func (e NewsEvent) Kind() EventKind          { return EventNews }
func (e NewsEvent) EventTimestamp() time.Time { return e.Timestamp }
