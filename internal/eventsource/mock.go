package eventsource

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/predictsim/core/internal/model"
)

// MockConfig parameterizes the synthetic random-walk feed used by
// unit tests and strategy development.
type MockConfig struct {
	MarketIDs    []string
	Platform     model.Platform
	StartTime    time.Time
	StepInterval time.Duration
	Steps        int
	InitialPrice float64
	Volatility   float64
	Liquidity    float64
	ResolveAtEnd bool
	Seed         int64
}

// MockSource synthesizes a random-walk YES price per configured
// market, optionally followed by a resolution, all regenerated
// identically on Reset for a given seed.
type MockSource struct {
	cfg    MockConfig
	events []model.SimEvent
	idx    int
}

// NewMockSource constructs and generates a mock event stream.
func NewMockSource(cfg MockConfig) *MockSource {
	m := &MockSource{cfg: cfg}
	m.generate()
	return m
}

func (m *MockSource) generate() {
	rng := rand.New(rand.NewSource(m.cfg.Seed))
	var events []model.SimEvent

	for _, marketID := range m.cfg.MarketIDs {
		price := m.cfg.InitialPrice
		ts := m.cfg.StartTime
		for i := 0; i < m.cfg.Steps; i++ {
			delta := rng.NormFloat64() * m.cfg.Volatility
			price = clampUnit(price + delta)
			events = append(events, model.MarketUpdateEvent{Snapshot: model.MarketSnapshot{
				MarketID: marketID, Platform: m.cfg.Platform, Timestamp: ts,
				YesPrice: price, NoPrice: 1 - price, Liquidity: m.cfg.Liquidity,
				Status: model.MarketActive,
			}})
			ts = ts.Add(m.cfg.StepInterval)
		}
		if m.cfg.ResolveAtEnd {
			outcome := model.OutcomeNo
			if price >= 0.5 {
				outcome = model.OutcomeYes
			}
			events = append(events, model.ResolutionEvent{Resolution: model.MarketResolution{
				MarketID: marketID, Platform: m.cfg.Platform, Timestamp: ts, Outcome: outcome,
			}})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		ti, tj := events[i].EventTimestamp(), events[j].EventTimestamp()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return eventPriority[events[i].Kind()] < eventPriority[events[j].Kind()]
	})

	m.events = events
	m.idx = 0
}

func clampUnit(p float64) float64 {
	if p < 0.01 {
		return 0.01
	}
	if p > 0.99 {
		return 0.99
	}
	return p
}

func (m *MockSource) Next(ctx context.Context) (model.SimEvent, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if m.idx >= len(m.events) {
		return nil, false, nil
	}
	e := m.events[m.idx]
	m.idx++
	return e, true, nil
}

func (m *MockSource) Reset() error {
	m.generate()
	return nil
}
