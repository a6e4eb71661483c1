package portfolio

import "math"

// Metrics is the derived performance/risk summary computed from the
// resolution ledger (win/loss statistics) and the equity curve (risk
// statistics). Every denominator-zero path yields 0 rather than NaN
// or an error.
type Metrics struct {
	WinRate          float64 `json:"win_rate"`
	AvgWin           float64 `json:"avg_win"`
	AvgLoss          float64 `json:"avg_loss"`
	ProfitFactor     float64 `json:"profit_factor"`
	Expectancy       float64 `json:"expectancy"`
	Sharpe           float64 `json:"sharpe"`
	Sortino          float64 `json:"sortino"`
	MaxDrawdownPct   float64 `json:"max_drawdown_pct"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	Calmar           float64 `json:"calmar"`
	TotalReturnPct   float64 `json:"total_return_pct"`
	AnnualizedReturn float64 `json:"annualized_return"`
	ResolvedMarkets  int     `json:"resolved_markets"`
}

// GetMetrics computes the full metrics set from the current
// resolution ledger and equity curve.
func (p *Portfolio) GetMetrics() Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()

	var m Metrics
	m.ResolvedMarkets = len(p.resolutions)

	var wins, losses []float64
	for _, r := range p.resolutions {
		if r.PnL > 0 {
			wins = append(wins, r.PnL)
		} else if r.PnL < 0 {
			losses = append(losses, r.PnL)
		}
	}

	if m.ResolvedMarkets > 0 {
		m.WinRate = float64(len(wins)) / float64(m.ResolvedMarkets)
	}
	m.AvgWin = mean(wins)
	m.AvgLoss = math.Abs(mean(losses))

	sumWins := sum(wins)
	sumLosses := math.Abs(sum(losses))
	if sumLosses > 0 {
		m.ProfitFactor = sumWins / sumLosses
	}

	m.Expectancy = m.WinRate*m.AvgWin - (1-m.WinRate)*m.AvgLoss

	returns := periodReturns(p.equityCurve)
	meanR := mean(returns)
	sd := stdev(returns, meanR)
	if sd > 0 {
		m.Sharpe = (meanR / sd) * math.Sqrt(p.periodsPerYear)
	}

	var negReturns []float64
	for _, r := range returns {
		if r < 0 {
			negReturns = append(negReturns, r)
		}
	}
	downsideSD := stdev(negReturns, 0)
	if downsideSD > 0 {
		m.Sortino = (meanR / downsideSD) * math.Sqrt(p.periodsPerYear)
	}

	m.MaxDrawdownPct = p.maxDrawdownPct
	m.MaxDrawdown = p.maxDrawdownPct * p.peakEquity

	if len(p.equityCurve) > 0 && p.initialCapital > 0 {
		final := p.equityCurve[len(p.equityCurve)-1].Equity
		m.TotalReturnPct = (final - p.initialCapital) / p.initialCapital
	}

	if m.MaxDrawdownPct > 0 {
		m.Calmar = m.TotalReturnPct / m.MaxDrawdownPct
	}

	if len(p.equityCurve) >= 2 {
		first := p.equityCurve[0].Timestamp
		last := p.equityCurve[len(p.equityCurve)-1].Timestamp
		days := last.Sub(first).Hours() / 24
		if days > 0 {
			m.AnnualizedReturn = math.Pow(1+m.TotalReturnPct, 365.25/days) - 1
		}
	}

	return m
}

func periodReturns(curve []EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (curve[i].Equity-prev)/prev)
	}
	return out
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return sum(xs) / float64(len(xs))
}

// stdev computes the population standard deviation of xs around the
// supplied mean (pass 0 for the downside-deviation variant, which
// measures dispersion around zero rather than the sample mean).
func stdev(xs []float64, aroundMean float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var ss float64
	for _, x := range xs {
		d := x - aroundMean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}
