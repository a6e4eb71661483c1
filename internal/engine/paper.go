package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/predictsim/core/internal/eventsource"
	"github.com/predictsim/core/internal/exchange"
	"github.com/predictsim/core/internal/model"
	"github.com/predictsim/core/internal/portfolio"
	"github.com/predictsim/core/internal/risk"
	"github.com/predictsim/core/internal/strategy"
)

// Paper is the asynchronous live-trading orchestrator: one or more
// data providers push market updates onto a single dispatcher loop,
// which is the sole mutator of portfolio and exchange state. Provider
// callbacks and the periodic equity-recording tick share that loop's
// serial execution, so no additional locking is needed here.
type Paper struct {
	core *core

	providers            []eventsource.DataProvider
	recordEquityInterval time.Duration

	eventCh chan model.SimEvent
}

// NewPaper constructs a paper-trading engine over the given data
// providers.
func NewPaper(ex *exchange.Exchange, pf *portfolio.Portfolio, strategies []strategy.Strategy, providers []eventsource.DataProvider, initialCapital float64, recordEquityInterval time.Duration) *Paper {
	return &Paper{
		core:                 newCore(ex, pf, strategies, initialCapital),
		providers:            providers,
		recordEquityInterval: recordEquityInterval,
		eventCh:              make(chan model.SimEvent, 256),
	}
}

// WithMetrics attaches a Prometheus recorder; trades, fills, and the
// equity/drawdown gauges are reported through it as the run proceeds.
func (p *Paper) WithMetrics(m *MetricsRecorder) *Paper {
	p.core.metrics = m
	return p
}

// WithState attaches a StateView so the dashboard API can observe
// this engine's lifecycle.
func (p *Paper) WithState(v *StateView) *Paper {
	p.core.state = v
	return p
}

// WithRisk attaches a risk manager; every buy signal is checked
// against its limits before being submitted to the exchange.
func (p *Paper) WithRisk(r *risk.Manager) *Paper {
	p.core.risk = r
	return p
}

// Run connects every provider and serially dispatches whatever
// arrives: market updates, order book updates, resolutions, and a
// periodic equity-recording tick. Cancelling ctx cooperatively stops
// provider tasks, drains any in-flight callback send, and finalizes
// results; that is the engine's only cancellation path.
func (p *Paper) Run(ctx context.Context) (*Results, error) {
	p.core.startTime = time.Now()

	if p.core.state != nil {
		p.core.state.SetRunning(true)
		defer p.core.state.SetRunning(false)
	}

	for _, provider := range p.providers {
		provider.OnUpdate(func(e model.SimEvent) {
			select {
			case p.eventCh <- e:
			case <-ctx.Done():
			}
		})
		if err := provider.Connect(ctx); err != nil {
			return nil, fmt.Errorf("engine: connect provider: %w", err)
		}
	}
	defer p.disconnectAll()

	equityTicker := time.NewTicker(p.recordEquityInterval)
	defer equityTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return p.core.finalize(time.Now()), ctx.Err()

		case event := <-p.eventCh:
			p.dispatch(event)

		case tick := <-equityTicker.C:
			p.core.recordEquity(tick)
		}
	}
}

func (p *Paper) dispatch(event model.SimEvent) {
	now := time.Now()
	switch ev := event.(type) {
	case model.MarketUpdateEvent:
		p.core.handleMarketUpdate(ev.Snapshot, now)
	case model.OrderBookUpdateEvent:
		p.core.handleOrderBookUpdate(ev.Book)
	case model.ResolutionEvent:
		p.core.handleResolution(ev.Resolution)
	case model.NewsEvent:
	default:
		log.Printf("engine: paper dispatch received unknown event kind %T", ev)
	}
}

func (p *Paper) disconnectAll() {
	for _, provider := range p.providers {
		if err := provider.Disconnect(); err != nil {
			log.Printf("engine: provider disconnect error: %v", err)
		}
	}
}
