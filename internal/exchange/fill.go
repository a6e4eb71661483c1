package exchange

import (
	"math"
	"math/rand"

	"github.com/predictsim/core/internal/model"
)

// FillModelType selects between the probabilistic basic model and the
// order-book-walk model.
type FillModelType string

const (
	FillBasic     FillModelType = "basic"
	FillRealistic FillModelType = "realistic"
)

// FillModelConfig parameterizes the basic fill model's stochastic
// slippage and limit-crossing behavior.
type FillModelConfig struct {
	Type              FillModelType
	ProbFillOnLimit   float64
	ProbSlippage      float64
	MaxSlippageBps    float64
	PriceImpactFactor float64
	RandomSeed        int64
}

// FillModel produces FillResults from orders against the exchange's
// known market price, available liquidity, and (when present) order
// book depth.
type FillModel struct {
	cfg FillModelConfig
	rng *rand.Rand
}

// NewFillModel constructs a fill model from config. A zero RandomSeed
// sources from global entropy.
func NewFillModel(cfg FillModelConfig) *FillModel {
	src := rand.NewSource(cfg.RandomSeed)
	if cfg.RandomSeed == 0 {
		src = rand.NewSource(rand.Int63())
	}
	return &FillModel{cfg: cfg, rng: rand.New(src)}
}

func clampPrice(p float64) float64 {
	if p < 0.01 {
		p = 0.01
	}
	if p > 0.99 {
		p = 0.99
	}
	return math.Round(p*10000) / 10000
}

// Fill runs the configured fill model. book is nil for the basic
// model; when non-nil and cfg.Type is FillRealistic, the order-book
// walk is used instead.
func (fm *FillModel) Fill(order model.Order, marketPrice, liquidity float64, book *model.OrderBookSnapshot) model.FillResult {
	if err := order.Validate(); err != nil {
		return model.FillResult{Status: model.FillRejected, Reason: "invalid_order"}
	}
	if liquidity <= 0 {
		return model.FillResult{Status: model.FillRejected, Reason: "no_liquidity"}
	}
	if fm.cfg.Type == FillRealistic && book != nil {
		return fm.fillBook(order, marketPrice, book)
	}
	return fm.fillBasic(order, marketPrice, liquidity)
}

func (fm *FillModel) fillBasic(order model.Order, marketPrice, liquidity float64) model.FillResult {
	fillSize := math.Min(order.Size, liquidity)

	fillPrice := marketPrice
	if fm.rng.Float64() < fm.cfg.ProbSlippage {
		factor := math.Min(fillSize/liquidity, 0.5) * 2
		maxSlip := (fm.cfg.MaxSlippageBps / 10000) * factor * fm.cfg.PriceImpactFactor
		if fm.cfg.PriceImpactFactor == 0 {
			maxSlip = (fm.cfg.MaxSlippageBps / 10000) * factor
		}
		slip := fm.rng.Float64() * maxSlip
		if order.Side.IsBuy() {
			fillPrice += slip
		} else {
			fillPrice -= slip
		}
	}
	fillPrice = clampPrice(fillPrice)

	if order.Type == model.OrderLimit {
		limit := *order.LimitPrice
		crossedAdversely := (order.Side.IsBuy() && fillPrice > limit) || (!order.Side.IsBuy() && fillPrice < limit)
		if crossedAdversely {
			if fm.rng.Float64() < fm.cfg.ProbFillOnLimit {
				fillPrice = limit
			} else {
				reason := "price_above_limit"
				if !order.Side.IsBuy() {
					reason = "price_below_limit"
				}
				return model.FillResult{Status: model.FillRejected, Reason: reason}
			}
		}
	}

	status := statusFor(fillSize, order.Size)
	return model.FillResult{
		Status:     status,
		FilledSize: fillSize,
		FillPrice:  fillPrice,
		Slippage:   math.Abs(fillPrice - marketPrice),
	}
}

// fillBook walks the book on the taking side, filling against each
// level in turn. Slippage is measured against the book's own best
// level, not the passed-in market snapshot price, since the two can
// diverge.
func (fm *FillModel) fillBook(order model.Order, _ float64, book *model.OrderBookSnapshot) model.FillResult {
	var levels []model.OrderBookLevel
	if order.Side.IsBuy() {
		levels = book.Asks
	} else {
		levels = book.Bids
	}

	remaining := order.Size
	var filledSize, cost float64
	for _, lvl := range levels {
		if remaining <= 0 {
			break
		}
		if order.Type == model.OrderLimit {
			limit := *order.LimitPrice
			if order.Side.IsBuy() && lvl.Price > limit {
				break
			}
			if !order.Side.IsBuy() && lvl.Price < limit {
				break
			}
		}
		take := math.Min(remaining, lvl.Size)
		filledSize += take
		cost += take * lvl.Price
		remaining -= take
	}

	if filledSize <= 0 {
		return model.FillResult{Status: model.FillRejected, Reason: "no_liquidity"}
	}

	avgPrice := cost / filledSize
	status := statusFor(filledSize, order.Size)
	return model.FillResult{
		Status:     status,
		FilledSize: filledSize,
		FillPrice:  math.Round(avgPrice*10000) / 10000,
		Slippage:   math.Abs(avgPrice - levels[0].Price),
	}
}

func statusFor(filled, requested float64) model.FillStatus {
	switch {
	case filled >= requested:
		return model.FillFilled
	case filled > 0:
		return model.FillPartial
	default:
		return model.FillRejected
	}
}
