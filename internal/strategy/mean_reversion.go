package strategy

import (
	"math"
	"sync"
	"time"

	"github.com/predictsim/core/internal/model"
)

// MeanReversionConfig parameterizes the z-score/Bollinger strategy.
type MeanReversionConfig struct {
	Lookback        int
	EntryThreshold  float64
	ExitThreshold   float64
	HoldPeriodHours float64
	BollingerK      float64
	Size            float64
}

type meanReversionState struct {
	prices       []float64
	yesEntryTime time.Time
	noEntryTime  time.Time
}

// MeanReversion enters a long YES position when price is
// statistically far below its rolling mean, a long NO position when
// far above, and exits either side once the z-score reverts inside
// the exit band or the configured hold period elapses.
type MeanReversion struct {
	cfg MeanReversionConfig

	mu    sync.Mutex
	state map[string]*meanReversionState
}

// NewMeanReversion constructs a mean-reversion strategy from config.
func NewMeanReversion(cfg MeanReversionConfig) *MeanReversion {
	return &MeanReversion{cfg: cfg, state: make(map[string]*meanReversionState)}
}

func (m *MeanReversion) Name() string { return "mean_reversion" }

func (m *MeanReversion) stateFor(marketID string) *meanReversionState {
	st, ok := m.state[marketID]
	if !ok {
		st = &meanReversionState{}
		m.state[marketID] = st
	}
	return st
}

func (m *MeanReversion) OnMarketUpdate(snap model.MarketSnapshot, book *model.OrderBookSnapshot, portfolio PortfolioView) []Signal {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.stateFor(snap.MarketID)
	st.prices = append(st.prices, snap.YesPrice)
	if len(st.prices) > m.cfg.Lookback {
		st.prices = st.prices[len(st.prices)-m.cfg.Lookback:]
	}
	if len(st.prices) < 2 {
		return nil
	}

	mu, sigma := meanStdev(st.prices)
	if sigma == 0 {
		return nil
	}
	z := (snap.YesPrice - mu) / sigma

	upper := mu + m.cfg.BollingerK*sigma
	lower := mu - m.cfg.BollingerK*sigma

	var signals []Signal
	pos, hasPos := portfolio.Position(snap.MarketID)

	if z < -m.cfg.EntryThreshold && st.yesEntryTime.IsZero() {
		conf := math.Min(1, math.Abs(z)/m.cfg.EntryThreshold)
		signals = append(signals, Signal{
			MarketID: snap.MarketID, Platform: snap.Platform,
			Side: model.BuyYes, Type: model.OrderMarket, Size: m.cfg.Size,
			Confidence: conf, StopPrice: ptr(lower), TargetPrice: ptr(upper),
			Tag: m.Name(),
		})
		st.yesEntryTime = snap.Timestamp
	} else if z > m.cfg.EntryThreshold && st.noEntryTime.IsZero() {
		conf := math.Min(1, math.Abs(z)/m.cfg.EntryThreshold)
		signals = append(signals, Signal{
			MarketID: snap.MarketID, Platform: snap.Platform,
			Side: model.BuyNo, Type: model.OrderMarket, Size: m.cfg.Size,
			Confidence: conf, StopPrice: ptr(upper), TargetPrice: ptr(lower),
			Tag: m.Name(),
		})
		st.noEntryTime = snap.Timestamp
	}

	if hasPos && pos.YesShares > 0 && !st.yesEntryTime.IsZero() {
		held := snap.Timestamp.Sub(st.yesEntryTime).Hours()
		if math.Abs(z) < m.cfg.ExitThreshold || (m.cfg.HoldPeriodHours > 0 && held > m.cfg.HoldPeriodHours) {
			signals = append(signals, Signal{
				MarketID: snap.MarketID, Platform: snap.Platform,
				Side: model.SellYes, Type: model.OrderMarket, Size: pos.YesShares,
				Tag: m.Name(),
			})
			st.yesEntryTime = time.Time{}
		}
	}
	if hasPos && pos.NoShares > 0 && !st.noEntryTime.IsZero() {
		held := snap.Timestamp.Sub(st.noEntryTime).Hours()
		if math.Abs(z) < m.cfg.ExitThreshold || (m.cfg.HoldPeriodHours > 0 && held > m.cfg.HoldPeriodHours) {
			signals = append(signals, Signal{
				MarketID: snap.MarketID, Platform: snap.Platform,
				Side: model.SellNo, Type: model.OrderMarket, Size: pos.NoShares,
				Tag: m.Name(),
			})
			st.noEntryTime = time.Time{}
		}
	}

	return signals
}

func (m *MeanReversion) OnResolution(res model.MarketResolution) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state, res.MarketID)
}

func meanStdev(xs []float64) (mean, stdev float64) {
	n := float64(len(xs))
	if n == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean = sum / n
	if n < 2 {
		return mean, 0
	}
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	stdev = math.Sqrt(ss / (n - 1))
	return mean, stdev
}

func ptr(f float64) *float64 { return &f }
