// Package model defines the shared data types for the simulator:
// markets, order books, trades, resolutions, orders, and the sum-typed
// simulation events that carry them.
package model

import "time"

// Platform identifies a prediction-market venue.
type Platform string

const (
	Polymarket Platform = "polymarket"
	Kalshi     Platform = "kalshi"
	Manifold   Platform = "manifold"
)

// OrderSide is a closed tag set for binary-market order directions.
type OrderSide string

const (
	BuyYes  OrderSide = "buy_yes"
	BuyNo   OrderSide = "buy_no"
	SellYes OrderSide = "sell_yes"
	SellNo  OrderSide = "sell_no"
)

// IsBuy reports whether the side opens/increases a position.
func (s OrderSide) IsBuy() bool {
	return s == BuyYes || s == BuyNo
}

// IsYes reports whether the side acts on the YES token.
func (s OrderSide) IsYes() bool {
	return s == BuyYes || s == SellYes
}

// OrderType selects the execution semantics of an order.
type OrderType string

const (
	OrderMarket OrderType = "market"
	OrderLimit  OrderType = "limit"
	OrderIOC    OrderType = "ioc"
	OrderFOK    OrderType = "fok"
)

// MarketStatus is a closed tag set for a market's lifecycle state.
type MarketStatus string

const (
	MarketActive    MarketStatus = "active"
	MarketClosed    MarketStatus = "closed"
	MarketResolved  MarketStatus = "resolved"
	MarketCancelled MarketStatus = "cancelled"
)

// ResolutionOutcome is the terminal settlement outcome of a market.
type ResolutionOutcome string

const (
	OutcomeYes       ResolutionOutcome = "yes"
	OutcomeNo        ResolutionOutcome = "no"
	OutcomeCancelled ResolutionOutcome = "cancelled"
	OutcomeAmbiguous ResolutionOutcome = "ambiguous"
)

// FillStatus describes the disposition of a submitted order.
type FillStatus string

const (
	FillFilled   FillStatus = "filled"
	FillPartial  FillStatus = "partial"
	FillRejected FillStatus = "rejected"
	FillCanceled FillStatus = "cancelled"
)

// MarketSnapshot is a point-in-time view of a binary market's pricing.
type MarketSnapshot struct {
	MarketID       string            `json:"market_id" yaml:"market_id"`
	Platform       Platform          `json:"platform" yaml:"platform"`
	Timestamp      time.Time         `json:"timestamp" yaml:"timestamp"`
	Question       string            `json:"question" yaml:"question"`
	YesPrice       float64           `json:"yes_price" yaml:"yes_price"`
	NoPrice        float64           `json:"no_price" yaml:"no_price"`
	Volume24h      float64           `json:"volume_24h" yaml:"volume_24h"`
	Liquidity      float64           `json:"liquidity" yaml:"liquidity"`
	ResolutionDate *time.Time        `json:"resolution_date,omitempty" yaml:"resolution_date,omitempty"`
	Status         MarketStatus      `json:"status" yaml:"status"`
	Tags           []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// OrderBookLevel is a single price/size rung of a book side.
type OrderBookLevel struct {
	Price      float64 `json:"price"`
	Size       float64 `json:"size"`
	OrderCount int     `json:"order_count"`
}

// OrderBookSnapshot is a market's full book at a point in time.
// Bids are expected sorted descending by price and asks ascending;
// the type does not sort them, and BestBid/BestAsk read the first
// level of each side.
type OrderBookSnapshot struct {
	MarketID  string           `json:"market_id"`
	Platform  Platform         `json:"platform"`
	Timestamp time.Time        `json:"timestamp"`
	Bids      []OrderBookLevel `json:"bids"`
	Asks      []OrderBookLevel `json:"asks"`
}

// BestBid returns the highest bid level, or false if the book is empty.
func (b OrderBookSnapshot) BestBid() (OrderBookLevel, bool) {
	if len(b.Bids) == 0 {
		return OrderBookLevel{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the lowest ask level, or false if the book is empty.
func (b OrderBookSnapshot) BestAsk() (OrderBookLevel, bool) {
	if len(b.Asks) == 0 {
		return OrderBookLevel{}, false
	}
	return b.Asks[0], true
}

// TradeEvent is a single executed trade observed on a venue.
type TradeEvent struct {
	TradeID   string    `json:"trade_id"`
	MarketID  string    `json:"market_id"`
	Platform  Platform  `json:"platform"`
	Timestamp time.Time `json:"timestamp"`
	Side      OrderSide `json:"side"`
	Price     float64   `json:"price"`
	Size      float64   `json:"size"`
	IsTaker   bool      `json:"is_taker"`
	Fees      float64   `json:"fees"`
}

// MarketResolution is the terminal settlement event for a market.
type MarketResolution struct {
	MarketID  string            `json:"market_id"`
	Platform  Platform          `json:"platform"`
	Timestamp time.Time         `json:"timestamp"`
	Outcome   ResolutionOutcome `json:"outcome"`
	Question  string            `json:"question"`
}

// Order is a strategy-submitted instruction to trade a market.
type Order struct {
	OrderID     string     `json:"order_id"`
	MarketID    string     `json:"market_id"`
	Platform    Platform   `json:"platform"`
	Side        OrderSide  `json:"side"`
	Type        OrderType  `json:"type"`
	Size        float64    `json:"size"`
	LimitPrice  *float64   `json:"limit_price,omitempty"`
	TIF         string     `json:"tif,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StrategyTag string     `json:"strategy,omitempty"`
}

// Validate reports the invalid_order conditions: non-positive size, a
// limit order without a price, or a limit price outside [0,1].
func (o Order) Validate() error {
	if o.Size <= 0 {
		return ErrInvalidOrder("size must be positive")
	}
	if o.Type == OrderLimit {
		if o.LimitPrice == nil {
			return ErrInvalidOrder("limit order requires limit_price")
		}
		if *o.LimitPrice < 0 || *o.LimitPrice > 1 {
			return ErrInvalidOrder("limit_price must be in [0,1]")
		}
	}
	return nil
}

// ErrInvalidOrder is a plain string error identifying the invalid_order
// rejection reason.
type ErrInvalidOrder string

func (e ErrInvalidOrder) Error() string { return "invalid order: " + string(e) }

// Position tracks dual-sided YES/NO holdings for one market.
type Position struct {
	MarketID      string    `json:"market_id"`
	Platform      Platform  `json:"platform"`
	YesShares     float64   `json:"yes_shares"`
	NoShares      float64   `json:"no_shares"`
	YesAvgPrice   float64   `json:"yes_avg_price"`
	NoAvgPrice    float64   `json:"no_avg_price"`
	YesCostBasis  float64   `json:"yes_cost_basis"`
	NoCostBasis   float64   `json:"no_cost_basis"`
	OpenedAt      time.Time `json:"opened_at"`
	LastUpdated   time.Time `json:"last_updated"`
}

// TotalCostBasis is the sum of both sides' cost basis, used as the
// CANCELLED-outcome resolution payout.
func (p Position) TotalCostBasis() float64 {
	return p.YesCostBasis + p.NoCostBasis
}

// IsEmpty reports whether both sides have been fully closed.
func (p Position) IsEmpty() bool {
	return p.YesShares <= 0 && p.NoShares <= 0
}

// MarketValue computes the mark-to-market value of the position at the
// given YES price (NO is valued at 1-yesPrice).
func (p Position) MarketValue(yesPrice float64) float64 {
	return p.YesShares*yesPrice + p.NoShares*(1-yesPrice)
}

// FillResult is the outcome of submitting an order to the exchange.
type FillResult struct {
	Status     FillStatus `json:"status"`
	FilledSize float64    `json:"filled_size"`
	FillPrice  float64    `json:"fill_price"`
	Fees       float64    `json:"fees"`
	Slippage   float64    `json:"slippage"`
	LatencyMs  float64    `json:"latency_ms"`
	Reason     string     `json:"reason,omitempty"`
}
