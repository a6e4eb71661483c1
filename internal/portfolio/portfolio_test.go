package portfolio

import (
	"math"
	"testing"
	"time"

	"github.com/predictsim/core/internal/model"
)

func TestNoTradesPreservesCapital(t *testing.T) {
	p := New(10000, 1440)
	p.ResolvePosition("m1", model.Polymarket, model.OutcomeYes, "", time.Now())

	if got := p.GetPortfolioValue(nil); got != 10000 {
		t.Fatalf("final_value = %v, want 10000", got)
	}
	if len(p.Trades()) != 0 {
		t.Fatalf("expected no trades, got %d", len(p.Trades()))
	}
	res := p.Resolutions()
	if len(res) != 1 || res[0].PnL != 0 {
		t.Fatalf("expected one no-op resolution with pnl=0, got %+v", res)
	}
}

func TestSingleWinningYes(t *testing.T) {
	p := New(10000, 1440)
	ts := time.Now()

	ok := p.ExecuteTrade("t1", "m1", model.Polymarket, model.BuyYes, 100, 0.40, 0, ts)
	if !ok {
		t.Fatalf("expected buy to succeed")
	}
	if got := p.Cash(); math.Abs(got-9960) > 1e-9 {
		t.Fatalf("cash after buy = %v, want 9960", got)
	}

	pnl := p.ResolvePosition("m1", model.Polymarket, model.OutcomeYes, "", ts)
	if math.Abs(pnl-60) > 1e-9 {
		t.Fatalf("realized_pnl = %v, want 60", pnl)
	}
	if got := p.Cash(); math.Abs(got-10060) > 1e-9 {
		t.Fatalf("cash after resolution = %v, want 10060", got)
	}
	if _, ok := p.Position("m1"); ok {
		t.Fatalf("position should be removed after resolution")
	}
}

func TestInsufficientFundsRejectsWithoutMutation(t *testing.T) {
	p := New(100, 1440)
	ts := time.Now()

	ok := p.ExecuteTrade("t1", "m1", model.Polymarket, model.BuyYes, 1000, 0.90, 0, ts)
	if ok {
		t.Fatalf("expected buy to be rejected on insufficient funds")
	}
	if got := p.Cash(); got != 100 {
		t.Fatalf("cash mutated on rejected buy: got %v, want 100", got)
	}
	if _, ok := p.Position("m1"); ok {
		t.Fatalf("no position should be created on a rejected buy")
	}
}

func TestSellReducesCostBasisProportionally(t *testing.T) {
	p := New(10000, 1440)
	ts := time.Now()

	p.ExecuteTrade("t1", "m1", model.Polymarket, model.BuyYes, 100, 0.40, 0, ts)
	p.ExecuteTrade("t2", "m1", model.Polymarket, model.SellYes, 50, 0.45, 0, ts)

	pos, ok := p.Position("m1")
	if !ok {
		t.Fatalf("expected position to remain open")
	}
	if math.Abs(pos.YesShares-50) > 1e-9 {
		t.Fatalf("yes_shares = %v, want 50", pos.YesShares)
	}
	// cost basis was 40; selling half of shares reduces it by half.
	if math.Abs(pos.YesCostBasis-20) > 1e-9 {
		t.Fatalf("yes_cost_basis = %v, want 20", pos.YesCostBasis)
	}
}

func TestDrawdownTracking(t *testing.T) {
	p := New(10000, 1440)
	base := time.Now()
	curve := []float64{10000, 12000, 9000, 11000}
	for i, eq := range curve {
		// Force the equity curve by directly manipulating cash via a
		// synthetic trade-free path: since RecordEquity reads cash plus
		// mark-to-market positions, with no positions cash IS equity.
		p.cash = eq
		p.RecordEquity(base.Add(time.Duration(i)*time.Hour), nil)
	}

	m := p.GetMetrics()
	want := (12000.0 - 9000.0) / 12000.0
	if math.Abs(m.MaxDrawdownPct-want) > 1e-9 {
		t.Fatalf("max_drawdown_pct = %v, want %v", m.MaxDrawdownPct, want)
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	p := New(5000, 1440)
	ts := time.Now()
	p.ExecuteTrade("t1", "m1", model.Polymarket, model.BuyYes, 10, 0.5, 0, ts)
	p.Reset()

	if got := p.Cash(); got != 5000 {
		t.Fatalf("cash after reset = %v, want 5000", got)
	}
	if len(p.Trades()) != 0 {
		t.Fatalf("expected trades cleared after reset")
	}
	if len(p.Positions()) != 0 {
		t.Fatalf("expected positions cleared after reset")
	}
}
