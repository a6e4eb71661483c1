package eventsource

import (
	"context"
	"testing"
	"time"

	"github.com/predictsim/core/internal/model"
	"github.com/predictsim/core/internal/store"
)

func TestHistoricalSourceOrdersByTimestampThenKind(t *testing.T) {
	dir := t.TempDir()
	st, err := store.NewCSVStore(dir)
	if err != nil {
		t.Fatalf("NewCSVStore: %v", err)
	}

	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	st.SaveResolutions([]model.MarketResolution{{MarketID: "m1", Timestamp: ts, Outcome: model.OutcomeYes}})
	st.SaveSnapshots([]model.MarketSnapshot{{MarketID: "m1", Timestamp: ts, Status: model.MarketActive}})
	st.SaveOrderBooks([]model.OrderBookSnapshot{{MarketID: "m1", Timestamp: ts}})

	src, err := NewHistoricalSource(st, []string{"m1"}, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("NewHistoricalSource: %v", err)
	}

	var kinds []model.EventKind
	for {
		e, ok, err := src.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		kinds = append(kinds, e.Kind())
	}

	want := []model.EventKind{model.EventMarketUpdate, model.EventOrderBookUpdate, model.EventResolution}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("position %d: got %v, want %v (full: %v)", i, kinds[i], want[i], kinds)
		}
	}
}

func TestHistoricalSourceResetRewinds(t *testing.T) {
	dir := t.TempDir()
	st, _ := store.NewCSVStore(dir)
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	st.SaveSnapshots([]model.MarketSnapshot{{MarketID: "m1", Timestamp: ts}})

	src, _ := NewHistoricalSource(st, []string{"m1"}, time.Time{}, time.Time{})
	src.Next(context.Background())
	if _, ok, _ := src.Next(context.Background()); ok {
		t.Fatalf("expected stream exhausted after one event")
	}

	src.Reset()
	if _, ok, _ := src.Next(context.Background()); !ok {
		t.Fatalf("expected an event after reset")
	}
}

func TestLiveSourceAcceptsFiltersByMarketID(t *testing.T) {
	open := NewLiveSource(LiveSourceConfig{URL: "nats://unused", Subject: "updates"})
	if !open.accepts("anything") {
		t.Fatal("an empty MarketIDs allow-list should accept every market")
	}

	filtered := NewLiveSource(LiveSourceConfig{URL: "nats://unused", Subject: "updates", MarketIDs: []string{"m1", "m2"}})
	if !filtered.accepts("m1") || !filtered.accepts("m2") {
		t.Fatal("expected configured market IDs to be accepted")
	}
	if filtered.accepts("m3") {
		t.Fatal("expected an unconfigured market ID to be rejected")
	}
}

func TestMockSourceIsDeterministicForSameSeed(t *testing.T) {
	cfg := MockConfig{
		MarketIDs: []string{"m1"}, Platform: model.Polymarket,
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), StepInterval: time.Hour,
		Steps: 20, InitialPrice: 0.5, Volatility: 0.02, Liquidity: 1000, Seed: 7,
	}

	a := NewMockSource(cfg)
	b := NewMockSource(cfg)

	for {
		ea, okA, _ := a.Next(context.Background())
		eb, okB, _ := b.Next(context.Background())
		if okA != okB {
			t.Fatalf("stream length mismatch")
		}
		if !okA {
			break
		}
		ua := ea.(model.MarketUpdateEvent)
		ub := eb.(model.MarketUpdateEvent)
		if ua.Snapshot.YesPrice != ub.Snapshot.YesPrice {
			t.Fatalf("same seed produced different prices: %v vs %v", ua.Snapshot.YesPrice, ub.Snapshot.YesPrice)
		}
	}
}

func TestMockSourceResetReproducesSequence(t *testing.T) {
	cfg := MockConfig{
		MarketIDs: []string{"m1"}, Platform: model.Polymarket,
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), StepInterval: time.Hour,
		Steps: 5, InitialPrice: 0.5, Volatility: 0.02, Liquidity: 1000, Seed: 3,
	}
	src := NewMockSource(cfg)

	var first []float64
	for {
		e, ok, _ := src.Next(context.Background())
		if !ok {
			break
		}
		first = append(first, e.(model.MarketUpdateEvent).Snapshot.YesPrice)
	}

	src.Reset()
	var second []float64
	for {
		e, ok, _ := src.Next(context.Background())
		if !ok {
			break
		}
		second = append(second, e.(model.MarketUpdateEvent).Snapshot.YesPrice)
	}

	if len(first) != len(second) {
		t.Fatalf("length mismatch after reset")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("index %d: %v != %v after reset", i, first[i], second[i])
		}
	}
}
