package strategy

import (
	"math"
	"sync"
	"time"

	"github.com/predictsim/core/internal/model"
)

// SpikeMode selects whether a detected spike is traded with the
// direction of the move or against it.
type SpikeMode string

const (
	SpikeModeMomentum      SpikeMode = "momentum"
	SpikeModeMeanReversion SpikeMode = "mean_reversion"
)

// SpikeConfig parameterizes the price+volume spike detector.
type SpikeConfig struct {
	Lookback        int
	SpikeThreshold  float64
	MinVolumeSpike  float64
	CooldownMinutes float64
	Mode            SpikeMode
	Size            float64
}

type pricePoint struct {
	Timestamp time.Time
	Price     float64
	Volume    float64
}

type spikeState struct {
	points       []pricePoint
	lastSpikeAt  time.Time
}

// SpikeDetector flags a coincident price and volume surge and either
// follows the move (momentum mode) or fades it (mean_reversion mode),
// subject to a per-market cooldown.
type SpikeDetector struct {
	cfg SpikeConfig

	mu    sync.Mutex
	state map[string]*spikeState
}

// NewSpikeDetector constructs a spike detector from config.
func NewSpikeDetector(cfg SpikeConfig) *SpikeDetector {
	return &SpikeDetector{cfg: cfg, state: make(map[string]*spikeState)}
}

func (s *SpikeDetector) Name() string { return "spike_detector" }

func (s *SpikeDetector) OnMarketUpdate(snap model.MarketSnapshot, book *model.OrderBookSnapshot, portfolio PortfolioView) []Signal {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.state[snap.MarketID]
	if !ok {
		st = &spikeState{}
		s.state[snap.MarketID] = st
	}

	current := pricePoint{Timestamp: snap.Timestamp, Price: snap.YesPrice, Volume: snap.Volume24h}

	if len(st.points) == 0 {
		st.points = append(st.points, current)
		return nil
	}

	avgPrice, avgVolume := averagePricePoints(st.points)
	st.points = append(st.points, current)
	if len(st.points) > s.cfg.Lookback {
		st.points = st.points[len(st.points)-s.cfg.Lookback:]
	}

	if avgPrice == 0 {
		return nil
	}

	priceChangeRatio := (current.Price - avgPrice) / avgPrice
	// With no volume history the volume condition holds only when no
	// minimum surge is configured.
	volumeOK := s.cfg.MinVolumeSpike <= 0
	if avgVolume > 0 {
		volumeOK = current.Volume/avgVolume >= s.cfg.MinVolumeSpike
	}

	isSpike := math.Abs(priceChangeRatio) >= s.cfg.SpikeThreshold && volumeOK
	if !isSpike {
		return nil
	}

	if !st.lastSpikeAt.IsZero() {
		elapsed := snap.Timestamp.Sub(st.lastSpikeAt).Minutes()
		if elapsed < s.cfg.CooldownMinutes {
			return nil
		}
	}
	st.lastSpikeAt = snap.Timestamp

	confidence := math.Min(1, math.Abs(priceChangeRatio)/(2*s.cfg.SpikeThreshold))
	target := avgPrice

	spikedUp := priceChangeRatio > 0
	followUp := (s.cfg.Mode == SpikeModeMomentum && spikedUp) || (s.cfg.Mode == SpikeModeMeanReversion && !spikedUp)

	side := model.BuyNo
	if followUp {
		side = model.BuyYes
	}

	return []Signal{{
		MarketID: snap.MarketID, Platform: snap.Platform,
		Side: side, Type: model.OrderMarket, Size: s.cfg.Size,
		Confidence: confidence, TargetPrice: ptr(target), Tag: s.Name(),
	}}
}

func (s *SpikeDetector) OnResolution(res model.MarketResolution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state, res.MarketID)
}

func averagePricePoints(points []pricePoint) (avgPrice, avgVolume float64) {
	n := float64(len(points))
	if n == 0 {
		return 0, 0
	}
	var sumPrice, sumVolume float64
	for _, p := range points {
		sumPrice += p.Price
		sumVolume += p.Volume
	}
	return sumPrice / n, sumVolume / n
}
