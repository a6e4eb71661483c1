package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/predictsim/core/internal/model"
)

type fakePortfolio struct {
	positions map[string]model.Position
}

func (f fakePortfolio) Position(marketID string) (model.Position, bool) {
	p, ok := f.positions[marketID]
	return p, ok
}

func (f fakePortfolio) Cash() float64 { return 10000 }

func snapAt(marketID string, platform model.Platform, question string, yesPrice, volume, liquidity float64, t time.Time) model.MarketSnapshot {
	return model.MarketSnapshot{
		MarketID: marketID, Platform: platform, Question: question,
		YesPrice: yesPrice, NoPrice: 1 - yesPrice, Volume24h: volume, Liquidity: liquidity,
		Timestamp: t, Status: model.MarketActive,
	}
}

func TestSpikeMeanReversionScenario(t *testing.T) {
	sd := NewSpikeDetector(SpikeConfig{
		Lookback: 20, SpikeThreshold: 0.05, MinVolumeSpike: 2.0,
		CooldownMinutes: 5, Mode: SpikeModeMeanReversion, Size: 10,
	})
	portfolio := fakePortfolio{positions: map[string]model.Position{}}
	base := time.Now()

	for i := 0; i < 10; i++ {
		snap := snapAt("m1", model.Polymarket, "Will X happen", 0.50, 1000, 5000, base.Add(time.Duration(i)*time.Minute))
		sd.OnMarketUpdate(snap, nil, portfolio)
	}

	spikeSnap := snapAt("m1", model.Polymarket, "Will X happen", 0.58, 2500, 5000, base.Add(10*time.Minute))
	signals := sd.OnMarketUpdate(spikeSnap, nil, portfolio)

	if len(signals) != 1 {
		t.Fatalf("expected one signal, got %d", len(signals))
	}
	sig := signals[0]
	if sig.Side != model.BuyNo {
		t.Fatalf("side = %v, want buy_no", sig.Side)
	}
	if math.Abs(sig.Confidence-1.0) > 1e-9 {
		t.Fatalf("confidence = %v, want 1.0", sig.Confidence)
	}
	if sig.TargetPrice == nil || math.Abs(*sig.TargetPrice-0.50) > 1e-9 {
		t.Fatalf("target = %v, want ~0.50", sig.TargetPrice)
	}
}

func TestArbitrageScenario(t *testing.T) {
	arb := NewArbitrage(ArbitrageConfig{MinSpread: 0.02, MaxSpread: 0.20, MinLiquidity: 1000, Size: 100})
	portfolio := fakePortfolio{positions: map[string]model.Position{}}
	now := time.Now()

	arb.OnMarketUpdate(snapAt("m_poly", model.Polymarket, "Will X happen by 2026?", 0.40, 0, 5000, now), nil, portfolio)
	signals := arb.OnMarketUpdate(snapAt("m_kalshi", model.Kalshi, "Will X happen by 2026?", 0.50, 0, 5000, now), nil, portfolio)

	if len(signals) != 1 {
		t.Fatalf("expected exactly one signal (buy only, no existing position to sell), got %d: %+v", len(signals), signals)
	}
	if signals[0].MarketID != "m_poly" || signals[0].Side != model.BuyYes {
		t.Fatalf("expected BUY_YES on m_poly, got %+v", signals[0])
	}
}

func TestMeanReversionEntersOnLowZScore(t *testing.T) {
	mr := NewMeanReversion(MeanReversionConfig{
		Lookback: 20, EntryThreshold: 1.5, ExitThreshold: 0.5, BollingerK: 2, Size: 10,
	})
	portfolio := fakePortfolio{positions: map[string]model.Position{}}
	base := time.Now()

	var lastSignals []Signal
	prices := []float64{0.50, 0.51, 0.49, 0.50, 0.50, 0.51, 0.49, 0.50, 0.50, 0.20}
	for i, p := range prices {
		snap := snapAt("m1", model.Polymarket, "q", p, 0, 1000, base.Add(time.Duration(i)*time.Hour))
		lastSignals = mr.OnMarketUpdate(snap, nil, portfolio)
	}

	found := false
	for _, s := range lastSignals {
		if s.Side == model.BuyYes {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a BUY_YES entry signal on a sharp downward deviation, got %+v", lastSignals)
	}
}

func TestMomentumComputesNeutralWithInsufficientHistory(t *testing.T) {
	mom := NewMomentum(MomentumConfig{RSIPeriod: 14, MomentumPeriod: 10, MinTrendStrength: 0.3, EntryThreshold: 0.02, Overbought: 70})
	portfolio := fakePortfolio{positions: map[string]model.Position{}}
	snap := snapAt("m1", model.Polymarket, "q", 0.5, 0, 1000, time.Now())
	signals := mom.OnMarketUpdate(snap, nil, portfolio)
	if len(signals) != 0 {
		t.Fatalf("expected no signals with insufficient history, got %+v", signals)
	}
}

func TestMarketMakerQuotesBothSidesAsBuys(t *testing.T) {
	mm := NewMarketMaker(MarketMakerConfig{
		Alpha: 0.3, TargetSpread: 0.04, MinSpread: 0.01, InventorySkew: 0.1,
		MaxInventory: 1000, RefreshIntervalSeconds: 0, MinEdge: 0, Size: 50,
	})
	portfolio := fakePortfolio{positions: map[string]model.Position{}}
	snap := snapAt("m1", model.Polymarket, "q", 0.50, 0, 1000, time.Now())

	signals := mm.OnMarketUpdate(snap, nil, portfolio)
	if len(signals) != 2 {
		t.Fatalf("expected two quotes (yes+no), got %d: %+v", len(signals), signals)
	}
	for _, s := range signals {
		if s.Side != model.BuyYes && s.Side != model.BuyNo {
			t.Fatalf("market maker should only submit buys, got %v", s.Side)
		}
	}
}
