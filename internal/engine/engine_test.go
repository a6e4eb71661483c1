package engine

import (
	"context"
	"testing"
	"time"

	"github.com/predictsim/core/internal/eventsource"
	"github.com/predictsim/core/internal/exchange"
	"github.com/predictsim/core/internal/model"
	"github.com/predictsim/core/internal/portfolio"
	"github.com/predictsim/core/internal/risk"
	"github.com/predictsim/core/internal/strategy"
)

func newTestExchange(seed int64) *exchange.Exchange {
	fm := exchange.NewFillModel(exchange.FillModelConfig{
		Type: exchange.FillBasic, ProbFillOnLimit: 1, ProbSlippage: 0,
		MaxSlippageBps: 0, RandomSeed: seed,
	})
	lm := exchange.NewLatencyModel(50, 10, 10, 200, seed)
	return exchange.New(fm, lm, exchange.NewFeeModel(false, nil))
}

func TestBacktestNoTradesPreservesCapital(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	src := eventsource.NewMockSource(eventsource.MockConfig{
		MarketIDs: []string{"m1"}, Platform: model.Polymarket,
		StartTime: t0, StepInterval: time.Hour, Steps: 1,
		InitialPrice: 0.5, Volatility: 0, Liquidity: 1000, ResolveAtEnd: true, Seed: 1,
	})

	ex := newTestExchange(1)
	pf := portfolio.New(10000, 1440)
	bt := NewBacktest(ex, pf, nil, src, 10000, 24*time.Hour)

	results, err := bt.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if results.FinalValue != 10000 {
		t.Fatalf("final_value = %v, want 10000", results.FinalValue)
	}
	if results.TotalReturn != 0 {
		t.Fatalf("total_return = %v, want 0", results.TotalReturn)
	}
	if len(results.Trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(results.Trades))
	}
	if len(results.Resolutions) != 1 || results.Resolutions[0].PnL != 0 {
		t.Fatalf("expected one no-op resolution, got %+v", results.Resolutions)
	}
}

func TestBacktestIsDeterministicForSameSeed(t *testing.T) {
	build := func() *Results {
		t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		src := eventsource.NewMockSource(eventsource.MockConfig{
			MarketIDs: []string{"m1"}, Platform: model.Polymarket,
			StartTime: t0, StepInterval: time.Hour, Steps: 50,
			InitialPrice: 0.5, Volatility: 0.03, Liquidity: 1000, Seed: 99,
		})
		ex := newTestExchange(42)
		pf := portfolio.New(10000, 1440)
		spike := strategy.NewSpikeDetector(strategy.SpikeConfig{
			Lookback: 10, SpikeThreshold: 0.02, MinVolumeSpike: 0, CooldownMinutes: 0,
			Mode: strategy.SpikeModeMomentum, Size: 5,
		})
		bt := NewBacktest(ex, pf, []strategy.Strategy{spike}, src, 10000, 6*time.Hour)
		results, err := bt.Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return results
	}

	a := build()
	b := build()

	if len(a.Trades) != len(b.Trades) {
		t.Fatalf("trade count differs: %d vs %d", len(a.Trades), len(b.Trades))
	}
	for i := range a.Trades {
		if a.Trades[i] != b.Trades[i] {
			t.Fatalf("trade %d differs: %+v vs %+v", i, a.Trades[i], b.Trades[i])
		}
	}
	if a.FinalValue != b.FinalValue {
		t.Fatalf("final value differs: %v vs %v", a.FinalValue, b.FinalValue)
	}
}

func TestBacktestExhaustiveDispatchIncludesOrderBookAndNews(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ex := newTestExchange(1)
	pf := portfolio.New(10000, 1440)

	events := []model.SimEvent{
		model.MarketUpdateEvent{Snapshot: model.MarketSnapshot{MarketID: "m1", Timestamp: t0, YesPrice: 0.5, NoPrice: 0.5, Liquidity: 100, Status: model.MarketActive}},
		model.OrderBookUpdateEvent{Book: model.OrderBookSnapshot{MarketID: "m1", Timestamp: t0.Add(time.Minute)}},
		model.NewsEvent{MarketID: "m1", Timestamp: t0.Add(2 * time.Minute), Headline: "update"},
	}
	src := &staticSource{events: events}

	bt := NewBacktest(ex, pf, nil, src, 10000, 24*time.Hour)
	if _, err := bt.Run(context.Background()); err != nil {
		t.Fatalf("Run should tolerate all event kinds including News: %v", err)
	}
}

func TestBacktestRiskLimitBlocksOversizedOrder(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	src := eventsource.NewMockSource(eventsource.MockConfig{
		MarketIDs: []string{"m1"}, Platform: model.Polymarket,
		StartTime: t0, StepInterval: time.Hour, Steps: 50,
		InitialPrice: 0.5, Volatility: 0.03, Liquidity: 1000, Seed: 7,
	})
	ex := newTestExchange(7)
	pf := portfolio.New(10000, 1440)
	spike := strategy.NewSpikeDetector(strategy.SpikeConfig{
		Lookback: 10, SpikeThreshold: 0.02, MinVolumeSpike: 0, CooldownMinutes: 0,
		Mode: strategy.SpikeModeMomentum, Size: 5,
	})
	rm := risk.New(risk.Config{MaxPositionSize: 0.0001})

	bt := NewBacktest(ex, pf, []strategy.Strategy{spike}, src, 10000, 6*time.Hour).WithRisk(rm)
	results, err := bt.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(results.Trades) != 0 {
		t.Fatalf("expected the tiny position-size limit to block every buy, got %d trades", len(results.Trades))
	}
	if results.RejectedCount == 0 {
		t.Fatal("expected rejected_count to reflect risk-blocked orders")
	}
}

type staticSource struct {
	events []model.SimEvent
	idx    int
}

func (s *staticSource) Next(ctx context.Context) (model.SimEvent, bool, error) {
	if s.idx >= len(s.events) {
		return nil, false, nil
	}
	e := s.events[s.idx]
	s.idx++
	return e, true, nil
}

func (s *staticSource) Reset() error {
	s.idx = 0
	return nil
}
