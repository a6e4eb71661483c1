package strategy

import (
	"sync"
	"time"

	"github.com/predictsim/core/internal/model"
)

// MarketMakerConfig parameterizes the EMA-fair-value, inventory-skewed
// two-sided quoting strategy.
type MarketMakerConfig struct {
	Alpha                  float64
	TargetSpread           float64
	MinSpread              float64
	InventorySkew          float64
	MaxInventory           float64
	RefreshIntervalSeconds float64
	MinEdge                float64
	Size                   float64
}

type makerState struct {
	fairValue     float64
	initialized   bool
	lastQuoteTime time.Time
}

// MarketMaker quotes both sides of a market around an EMA-smoothed
// fair value, shifting both quotes against inventory (the spread
// itself does not widen with inventory). Per the
// two-sided quoting semantics it implements, both legs are buys: a
// BUY_YES at its bid price, and a BUY_NO at the complement of its ask
// price, each bounded by remaining inventory room.
type MarketMaker struct {
	cfg MarketMakerConfig

	mu    sync.Mutex
	state map[string]*makerState
}

// NewMarketMaker constructs a market-making strategy from config.
func NewMarketMaker(cfg MarketMakerConfig) *MarketMaker {
	return &MarketMaker{cfg: cfg, state: make(map[string]*makerState)}
}

func (mm *MarketMaker) Name() string { return "market_maker" }

func (mm *MarketMaker) OnMarketUpdate(snap model.MarketSnapshot, book *model.OrderBookSnapshot, portfolio PortfolioView) []Signal {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	st, ok := mm.state[snap.MarketID]
	if !ok {
		st = &makerState{}
		mm.state[snap.MarketID] = st
	}

	mid := snap.YesPrice
	if book != nil {
		if bestBid, okB := book.BestBid(); okB {
			if bestAsk, okA := book.BestAsk(); okA {
				mid = (bestBid.Price + bestAsk.Price) / 2
			}
		}
	}

	if !st.initialized {
		st.fairValue = mid
		st.initialized = true
	} else {
		st.fairValue = mm.cfg.Alpha*mid + (1-mm.cfg.Alpha)*st.fairValue
	}

	if !st.lastQuoteTime.IsZero() {
		elapsed := snap.Timestamp.Sub(st.lastQuoteTime).Seconds()
		if elapsed < mm.cfg.RefreshIntervalSeconds {
			return nil
		}
	}
	if absFloat(st.fairValue-mid) < mm.cfg.MinEdge {
		return nil
	}
	st.lastQuoteTime = snap.Timestamp

	pos, _ := portfolio.Position(snap.MarketID)
	netPosition := pos.YesShares - pos.NoShares

	half := mm.cfg.TargetSpread / 2
	bid := st.fairValue - half
	ask := st.fairValue + half

	invAdj := 0.0
	if mm.cfg.MaxInventory > 0 {
		invAdj = clamp(netPosition/mm.cfg.MaxInventory, -1, 1) * mm.cfg.InventorySkew * mm.cfg.TargetSpread
	}
	bid -= invAdj
	ask -= invAdj

	if ask-bid < mm.cfg.MinSpread {
		mid2 := (ask + bid) / 2
		bid = mid2 - mm.cfg.MinSpread/2
		ask = mid2 + mm.cfg.MinSpread/2
	}

	bid = clamp(bid, 0.01, 0.98)
	ask = clamp(ask, 0.02, 0.99)
	if ask <= bid {
		ask = bid + 0.01
	}

	var signals []Signal

	yesRoom := mm.cfg.MaxInventory - pos.YesShares
	if yesRoom > 0 {
		size := mm.cfg.Size
		if size > yesRoom {
			size = yesRoom
		}
		limitBid := bid
		signals = append(signals, Signal{
			MarketID: snap.MarketID, Platform: snap.Platform,
			Side: model.BuyYes, Type: model.OrderLimit, Size: size,
			LimitPrice: &limitBid, Tag: mm.Name(),
		})
	}

	noRoom := mm.cfg.MaxInventory - pos.NoShares
	if noRoom > 0 {
		size := mm.cfg.Size
		if size > noRoom {
			size = noRoom
		}
		limitAskComplement := 1 - ask
		signals = append(signals, Signal{
			MarketID: snap.MarketID, Platform: snap.Platform,
			Side: model.BuyNo, Type: model.OrderLimit, Size: size,
			LimitPrice: &limitAskComplement, Tag: mm.Name(),
		})
	}

	return signals
}

func (mm *MarketMaker) OnResolution(res model.MarketResolution) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	delete(mm.state, res.MarketID)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
