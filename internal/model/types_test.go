package model

import "testing"

func TestOrderValidateRejectsNonPositiveSize(t *testing.T) {
	o := Order{Size: 0, Type: OrderMarket}
	if err := o.Validate(); err == nil {
		t.Fatalf("expected error for zero size")
	}
}

func TestOrderValidateRequiresLimitPrice(t *testing.T) {
	o := Order{Size: 10, Type: OrderLimit}
	if err := o.Validate(); err == nil {
		t.Fatalf("expected error for missing limit_price")
	}
}

func TestOrderValidateRejectsOutOfRangeLimitPrice(t *testing.T) {
	bad := 1.5
	o := Order{Size: 10, Type: OrderLimit, LimitPrice: &bad}
	if err := o.Validate(); err == nil {
		t.Fatalf("expected error for out-of-range limit_price")
	}
}

func TestOrderValidateAcceptsWellFormedLimit(t *testing.T) {
	price := 0.45
	o := Order{Size: 10, Type: OrderLimit, LimitPrice: &price}
	if err := o.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPositionMarketValue(t *testing.T) {
	p := Position{YesShares: 100, NoShares: 50}
	got := p.MarketValue(0.4)
	want := 100*0.4 + 50*0.6
	if got != want {
		t.Fatalf("market value = %v, want %v", got, want)
	}
}

func TestPositionIsEmpty(t *testing.T) {
	p := Position{YesShares: 0, NoShares: 0}
	if !p.IsEmpty() {
		t.Fatalf("expected empty position")
	}
	p.YesShares = 1
	if p.IsEmpty() {
		t.Fatalf("expected non-empty position")
	}
}

func TestOrderBookSnapshotBestLevels(t *testing.T) {
	b := OrderBookSnapshot{
		Bids: []OrderBookLevel{{Price: 0.5, Size: 10}, {Price: 0.4, Size: 5}},
		Asks: []OrderBookLevel{{Price: 0.6, Size: 10}, {Price: 0.7, Size: 5}},
	}
	bid, ok := b.BestBid()
	if !ok || bid.Price != 0.5 {
		t.Fatalf("best bid = %+v, ok=%v", bid, ok)
	}
	ask, ok := b.BestAsk()
	if !ok || ask.Price != 0.6 {
		t.Fatalf("best ask = %+v, ok=%v", ask, ok)
	}
}

func TestOrderBookSnapshotEmptyBook(t *testing.T) {
	var b OrderBookSnapshot
	if _, ok := b.BestBid(); ok {
		t.Fatalf("expected no best bid on empty book")
	}
	if _, ok := b.BestAsk(); ok {
		t.Fatalf("expected no best ask on empty book")
	}
}
