package exchange

import (
	"math"
	"testing"

	"github.com/predictsim/core/internal/model"
)

func newTestExchange() *Exchange {
	fm := NewFillModel(FillModelConfig{
		Type:            FillBasic,
		ProbFillOnLimit: 1,
		ProbSlippage:    0,
		MaxSlippageBps:  50,
		RandomSeed:      42,
	})
	lm := NewLatencyModel(50, 10, 10, 200, 42)
	feeModel := NewFeeModel(true, nil)
	return New(fm, lm, feeModel)
}

func TestMarketNotFoundRejects(t *testing.T) {
	ex := newTestExchange()
	limit := 0.5
	order := model.Order{OrderID: "o1", MarketID: "missing", Platform: model.Polymarket, Side: model.BuyYes, Type: model.OrderLimit, Size: 10, LimitPrice: &limit}
	result := ex.SubmitOrder(order)
	if result.Status != model.FillRejected || result.Reason != "market_not_found" {
		t.Fatalf("got %+v, want rejected/market_not_found", result)
	}
}

func TestZeroLiquidityRejects(t *testing.T) {
	ex := newTestExchange()
	ex.UpdateMarket(model.MarketSnapshot{MarketID: "m1", Platform: model.Polymarket, YesPrice: 0.4, NoPrice: 0.6, Liquidity: 0, Status: model.MarketActive})

	order := model.Order{OrderID: "o1", MarketID: "m1", Platform: model.Polymarket, Side: model.BuyYes, Type: model.OrderMarket, Size: 10}
	result := ex.SubmitOrder(order)
	if result.Status != model.FillRejected || result.Reason != "no_liquidity" {
		t.Fatalf("got %+v, want rejected/no_liquidity", result)
	}
}

func TestLimitAtMarketPriceFillsWithoutSlippage(t *testing.T) {
	ex := newTestExchange()
	ex.UpdateMarket(model.MarketSnapshot{MarketID: "m1", Platform: model.Polymarket, YesPrice: 0.4, NoPrice: 0.6, Liquidity: 1000, Status: model.MarketActive})

	limit := 0.4
	order := model.Order{OrderID: "o1", MarketID: "m1", Platform: model.Polymarket, Side: model.BuyYes, Type: model.OrderLimit, Size: 10, LimitPrice: &limit}
	result := ex.SubmitOrder(order)
	if result.Status != model.FillFilled {
		t.Fatalf("expected filled, got %+v", result)
	}
	if math.Abs(result.FillPrice-0.4) > 1e-9 {
		t.Fatalf("fill_price = %v, want 0.4", result.FillPrice)
	}
}

func TestKalshiFeeCap(t *testing.T) {
	ex := newTestExchange()
	ex.UpdateMarket(model.MarketSnapshot{MarketID: "m1", Platform: model.Kalshi, YesPrice: 0.10, NoPrice: 0.90, Liquidity: 2_000_000, Status: model.MarketActive})

	order := model.Order{OrderID: "o1", MarketID: "m1", Platform: model.Kalshi, Side: model.BuyYes, Type: model.OrderMarket, Size: 1_000_000}
	result := ex.SubmitOrder(order)
	if result.Status != model.FillFilled {
		t.Fatalf("expected filled, got %+v", result)
	}
	if result.Fees > 0.07*1_000_000 {
		t.Fatalf("fees = %v, want <= %v", result.Fees, 0.07*1_000_000)
	}
}

func TestOrderBookWalkPartialFill(t *testing.T) {
	fm := NewFillModel(FillModelConfig{Type: FillRealistic, RandomSeed: 1})
	lm := NewLatencyModel(50, 10, 10, 200, 1)
	ex := New(fm, lm, NewFeeModel(false, nil))

	ex.UpdateMarket(model.MarketSnapshot{MarketID: "m1", Platform: model.Polymarket, YesPrice: 0.50, NoPrice: 0.50, Liquidity: 1000, Status: model.MarketActive})
	ex.UpdateOrderBook(model.OrderBookSnapshot{
		MarketID: "m1",
		Asks: []model.OrderBookLevel{
			{Price: 0.50, Size: 30},
			{Price: 0.52, Size: 50},
		},
	})

	order := model.Order{OrderID: "o1", MarketID: "m1", Platform: model.Polymarket, Side: model.BuyYes, Type: model.OrderMarket, Size: 100}
	result := ex.SubmitOrder(order)

	if result.Status != model.FillPartial {
		t.Fatalf("expected partial, got %+v", result)
	}
	if math.Abs(result.FilledSize-80) > 1e-9 {
		t.Fatalf("filled_size = %v, want 80", result.FilledSize)
	}
	wantAvg := (0.50*30 + 0.52*50) / 80
	if math.Abs(result.FillPrice-wantAvg) > 1e-4 {
		t.Fatalf("fill_price = %v, want %v", result.FillPrice, wantAvg)
	}
	wantSlip := math.Abs(wantAvg - 0.50)
	if math.Abs(result.Slippage-wantSlip) > 1e-4 {
		t.Fatalf("slippage = %v, want %v", result.Slippage, wantSlip)
	}
}

func TestInvalidOrderRejects(t *testing.T) {
	ex := newTestExchange()
	ex.UpdateMarket(model.MarketSnapshot{MarketID: "m1", YesPrice: 0.4, NoPrice: 0.6, Liquidity: 1000})

	order := model.Order{OrderID: "o1", MarketID: "m1", Side: model.BuyYes, Type: model.OrderMarket, Size: -5}
	result := ex.SubmitOrder(order)
	if result.Status != model.FillRejected || result.Reason != "invalid_order" {
		t.Fatalf("got %+v, want rejected/invalid_order", result)
	}
}
