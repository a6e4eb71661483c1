package engine

import (
	"sync/atomic"

	"github.com/predictsim/core/internal/exchange"
	"github.com/predictsim/core/internal/model"
	"github.com/predictsim/core/internal/portfolio"
)

// StateView adapts a running engine's exchange and portfolio into the
// narrow read-only surface the dashboard API consumes, resolving
// mark-to-market prices from the exchange on every call.
type StateView struct {
	exchange  *exchange.Exchange
	portfolio *portfolio.Portfolio
	mode      string
	running   int32
}

// NewStateView wraps an exchange/portfolio pair for the API server.
func NewStateView(ex *exchange.Exchange, pf *portfolio.Portfolio, mode string) *StateView {
	return &StateView{exchange: ex, portfolio: pf, mode: mode}
}

// SetRunning flips the running flag; engines call this at the start
// and end of Run so /api/status reflects the current lifecycle state.
func (v *StateView) SetRunning(running bool) {
	if running {
		atomic.StoreInt32(&v.running, 1)
	} else {
		atomic.StoreInt32(&v.running, 0)
	}
}

func (v *StateView) IsRunning() bool { return atomic.LoadInt32(&v.running) == 1 }
func (v *StateView) Mode() string    { return v.mode }

func (v *StateView) Cash() float64                       { return v.portfolio.Cash() }
func (v *StateView) Positions() []model.Position         { return v.portfolio.Positions() }
func (v *StateView) Trades() []portfolio.Trade           { return v.portfolio.Trades() }
func (v *StateView) Resolutions() []portfolio.Resolution { return v.portfolio.Resolutions() }
func (v *StateView) EquityCurve() []portfolio.EquityPoint { return v.portfolio.EquityCurve() }
func (v *StateView) GetMetrics() portfolio.Metrics         { return v.portfolio.GetMetrics() }

func (v *StateView) GetPortfolioValue() float64 {
	return v.portfolio.GetPortfolioValue(v.exchange.AllYesPrices())
}
