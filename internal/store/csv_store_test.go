package store

import (
	"testing"
	"time"

	"github.com/predictsim/core/internal/model"
)

func TestCSVStoreSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVStore(dir)
	if err != nil {
		t.Fatalf("NewCSVStore: %v", err)
	}

	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := model.MarketSnapshot{
		MarketID: "m1", Platform: model.Polymarket, Timestamp: ts, Question: "will it rain",
		YesPrice: 0.4, NoPrice: 0.6, Volume24h: 1000, Liquidity: 5000, Status: model.MarketActive,
	}
	if err := s.SaveSnapshots([]model.MarketSnapshot{snap}); err != nil {
		t.Fatalf("SaveSnapshots: %v", err)
	}

	got, err := s.LoadSnapshots("m1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("LoadSnapshots: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(got))
	}
	if got[0].YesPrice != 0.4 || got[0].Question != "will it rain" {
		t.Fatalf("round-tripped snapshot mismatch: %+v", got[0])
	}
}

func TestCSVStoreOrderBookRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVStore(dir)
	if err != nil {
		t.Fatalf("NewCSVStore: %v", err)
	}

	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	book := model.OrderBookSnapshot{
		MarketID: "m1", Platform: model.Polymarket, Timestamp: ts,
		Bids: []model.OrderBookLevel{{Price: 0.5, Size: 10, OrderCount: 2}},
		Asks: []model.OrderBookLevel{{Price: 0.6, Size: 20, OrderCount: 3}},
	}
	if err := s.SaveOrderBooks([]model.OrderBookSnapshot{book}); err != nil {
		t.Fatalf("SaveOrderBooks: %v", err)
	}

	got, err := s.LoadOrderBooks("m1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("LoadOrderBooks: %v", err)
	}
	if len(got) != 1 || len(got[0].Bids) != 1 || got[0].Bids[0].Price != 0.5 {
		t.Fatalf("round-tripped book mismatch: %+v", got)
	}
}

func TestCSVStoreWindowFiltering(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVStore(dir)
	if err != nil {
		t.Fatalf("NewCSVStore: %v", err)
	}

	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	s.SaveSnapshots([]model.MarketSnapshot{
		{MarketID: "m1", Timestamp: early, Status: model.MarketActive},
		{MarketID: "m1", Timestamp: late, Status: model.MarketActive},
	})

	got, err := s.LoadSnapshots("m1", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), time.Time{})
	if err != nil {
		t.Fatalf("LoadSnapshots: %v", err)
	}
	if len(got) != 1 || !got[0].Timestamp.Equal(late) {
		t.Fatalf("expected only the late snapshot, got %+v", got)
	}
}
