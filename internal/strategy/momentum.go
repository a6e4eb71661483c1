package strategy

import (
	"sync"

	"github.com/predictsim/core/internal/model"
)

// MomentumConfig parameterizes the RSI + trend-strength strategy.
type MomentumConfig struct {
	RSIPeriod        int
	MomentumPeriod   int
	MinTrendStrength float64
	EntryThreshold   float64
	Overbought       float64
	Oversold         float64
	Size             float64
}

type momentumDirection string

const (
	dirBullish momentumDirection = "bullish"
	dirBearish momentumDirection = "bearish"
	dirNeutral momentumDirection = "neutral"
)

type momentumState struct {
	prices []float64
}

// Momentum trades continuation: it enters YES on a bullish
// RSI+momentum reading with sufficient trend strength, NO on a
// symmetric bearish reading, and cross-exits the opposite side on a
// signal flip.
type Momentum struct {
	cfg MomentumConfig

	mu    sync.Mutex
	state map[string]*momentumState
}

// NewMomentum constructs a momentum strategy from config.
func NewMomentum(cfg MomentumConfig) *Momentum {
	if cfg.Oversold == 0 {
		cfg.Oversold = 100 - cfg.Overbought
	}
	return &Momentum{cfg: cfg, state: make(map[string]*momentumState)}
}

func (mo *Momentum) Name() string { return "momentum" }

func (mo *Momentum) maxHistory() int {
	n := mo.cfg.RSIPeriod
	if mo.cfg.MomentumPeriod > n {
		n = mo.cfg.MomentumPeriod
	}
	return n + 1
}

func (mo *Momentum) OnMarketUpdate(snap model.MarketSnapshot, book *model.OrderBookSnapshot, portfolio PortfolioView) []Signal {
	mo.mu.Lock()
	defer mo.mu.Unlock()

	st, ok := mo.state[snap.MarketID]
	if !ok {
		st = &momentumState{}
		mo.state[snap.MarketID] = st
	}
	st.prices = append(st.prices, snap.YesPrice)
	cap := mo.maxHistory()
	if len(st.prices) > cap {
		st.prices = st.prices[len(st.prices)-cap:]
	}

	rsi := computeRSI(st.prices, mo.cfg.RSIPeriod)
	mom := computeMomentum(st.prices, mo.cfg.MomentumPeriod)
	trendStrength := computeTrendStrength(st.prices)

	direction := dirNeutral
	switch {
	case rsi > 50 && mom > 0:
		direction = dirBullish
	case rsi < 50 && mom < 0:
		direction = dirBearish
	}

	if trendStrength < mo.cfg.MinTrendStrength {
		return nil
	}

	var signals []Signal
	pos, hasPos := portfolio.Position(snap.MarketID)

	if direction == dirBullish && mom > mo.cfg.EntryThreshold && rsi < mo.cfg.Overbought {
		signals = append(signals, Signal{
			MarketID: snap.MarketID, Platform: snap.Platform,
			Side: model.BuyYes, Type: model.OrderMarket, Size: mo.cfg.Size,
			Confidence: trendStrength, Tag: mo.Name(),
		})
		if hasPos && pos.NoShares > 0 {
			signals = append(signals, Signal{
				MarketID: snap.MarketID, Platform: snap.Platform,
				Side: model.SellNo, Type: model.OrderMarket, Size: pos.NoShares,
				Tag: mo.Name(),
			})
		}
	} else if direction == dirBearish && mom < -mo.cfg.EntryThreshold && rsi > mo.cfg.Oversold {
		signals = append(signals, Signal{
			MarketID: snap.MarketID, Platform: snap.Platform,
			Side: model.BuyNo, Type: model.OrderMarket, Size: mo.cfg.Size,
			Confidence: trendStrength, Tag: mo.Name(),
		})
		if hasPos && pos.YesShares > 0 {
			signals = append(signals, Signal{
				MarketID: snap.MarketID, Platform: snap.Platform,
				Side: model.SellYes, Type: model.OrderMarket, Size: pos.YesShares,
				Tag: mo.Name(),
			})
		}
	}

	return signals
}

func (mo *Momentum) OnResolution(res model.MarketResolution) {
	mo.mu.Lock()
	defer mo.mu.Unlock()
	delete(mo.state, res.MarketID)
}

// computeRSI returns 50 when there isn't enough history, 100 when
// there were no losing periods at all, and the standard
// 100-100/(1+RS) formula otherwise.
func computeRSI(prices []float64, period int) float64 {
	if len(prices) < period+1 {
		return 50
	}
	window := prices[len(prices)-period-1:]
	var gainSum, lossSum float64
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum += -delta
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

func computeMomentum(prices []float64, period int) float64 {
	if len(prices) < period+1 {
		return 0
	}
	past := prices[len(prices)-period-1]
	now := prices[len(prices)-1]
	if past == 0 {
		return 0
	}
	return (now - past) / past
}

// computeTrendStrength is the R^2 of an OLS fit of price on index,
// i.e. how well a straight line explains the recent price path.
func computeTrendStrength(prices []float64) float64 {
	n := len(prices)
	if n < 3 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range prices {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	nf := float64(n)
	denom := nf*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	slope := (nf*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / nf

	meanY := sumY / nf
	var ssTot, ssRes float64
	for i, y := range prices {
		x := float64(i)
		pred := slope*x + intercept
		ssRes += (y - pred) * (y - pred)
		ssTot += (y - meanY) * (y - meanY)
	}
	if ssTot == 0 {
		return 0
	}
	r2 := 1 - ssRes/ssTot
	if r2 < 0 {
		return 0
	}
	return r2
}
