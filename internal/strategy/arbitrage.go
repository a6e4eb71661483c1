package strategy

import (
	"math"
	"strings"
	"sync"

	"github.com/predictsim/core/internal/model"
)

// ArbitrageConfig parameterizes the cross-platform arbitrage strategy.
type ArbitrageConfig struct {
	MinSpread    float64
	MaxSpread    float64
	MinLiquidity float64
	Size         float64
}

// Arbitrage watches for the same question listed on multiple
// platforms and trades the spread between them when it falls inside
// the configured band. Question matching is an exact match on the
// normalized question (lowercased, one leading "will/is/does/can "
// stripped), not a semantic matcher; questions that differ in any
// other way are not paired.
type Arbitrage struct {
	cfg ArbitrageConfig

	mu sync.Mutex
	// byQuestion maps a normalized question to the set of markets
	// known to be quoting it, keyed by platform.
	byQuestion map[string]map[model.Platform]string
	// latest caches the most recent snapshot for every tracked market,
	// so that an update to one platform's market can be compared
	// against another platform's last-known price without waiting for
	// its next update.
	latest map[string]model.MarketSnapshot
}

// NewArbitrage constructs a cross-platform arbitrage strategy.
func NewArbitrage(cfg ArbitrageConfig) *Arbitrage {
	return &Arbitrage{
		cfg:        cfg,
		byQuestion: make(map[string]map[model.Platform]string),
		latest:     make(map[string]model.MarketSnapshot),
	}
}

func (a *Arbitrage) Name() string { return "arbitrage" }

// normalizeQuestion lowercases and strips a leading interrogative
// word, matching the heuristic used across the observed markets.
func normalizeQuestion(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	for _, prefix := range []string{"will ", "is ", "does ", "can "} {
		if strings.HasPrefix(q, prefix) {
			q = strings.TrimPrefix(q, prefix)
			break
		}
	}
	return strings.TrimSpace(q)
}

func (a *Arbitrage) OnMarketUpdate(snap model.MarketSnapshot, book *model.OrderBookSnapshot, portfolio PortfolioView) []Signal {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.latest[snap.MarketID] = snap

	norm := normalizeQuestion(snap.Question)
	platforms, ok := a.byQuestion[norm]
	if !ok {
		platforms = make(map[model.Platform]string)
		a.byQuestion[norm] = platforms
	}
	platforms[snap.Platform] = snap.MarketID

	var signals []Signal
	for platform, marketID := range platforms {
		if platform == snap.Platform {
			continue
		}
		other, ok := a.latest[marketID]
		if !ok {
			continue
		}

		spread := math.Abs(snap.YesPrice - other.YesPrice)
		if spread < a.cfg.MinSpread || spread > a.cfg.MaxSpread {
			continue
		}
		if snap.Liquidity < a.cfg.MinLiquidity || other.Liquidity < a.cfg.MinLiquidity {
			continue
		}

		confidence := math.Min(1, spread/a.cfg.MinSpread)

		cheap, expensive := snap, other
		if other.YesPrice < snap.YesPrice {
			cheap, expensive = other, snap
		}

		signals = append(signals, Signal{
			MarketID: cheap.MarketID, Platform: cheap.Platform,
			Side: model.BuyYes, Type: model.OrderMarket, Size: a.cfg.Size * confidence,
			Confidence: confidence, Tag: a.Name(),
		})

		if pos, hasPos := portfolio.Position(expensive.MarketID); hasPos && pos.YesShares > 0 {
			signals = append(signals, Signal{
				MarketID: expensive.MarketID, Platform: expensive.Platform,
				Side: model.SellYes, Type: model.OrderMarket, Size: pos.YesShares,
				Confidence: confidence, Tag: a.Name(),
			})
		}
	}

	return signals
}

func (a *Arbitrage) OnResolution(res model.MarketResolution) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.latest, res.MarketID)
	norm := normalizeQuestion(res.Question)
	if platforms, ok := a.byQuestion[norm]; ok {
		delete(platforms, res.Platform)
		if len(platforms) == 0 {
			delete(a.byQuestion, norm)
		}
	}
}
