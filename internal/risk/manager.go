// Package risk enforces the engine-level position and loss limits a
// strategy's order flow must stay inside, independent of whatever
// individual risk hints a strategy signal carries.
package risk

import (
	"fmt"
	"sync"
)

// Config mirrors internal/config.RiskLimits: the engine-wide bounds
// every buy order is checked against before it reaches the exchange.
// Sell orders are not checked.
type Config struct {
	MaxPositionSize  float64
	MaxDailyLoss     float64
	MaxOpenPositions int
	MaxPositionPct   float64
	StopLossPct      float64
}

// Manager tracks exposure per market and cumulative daily PnL, and
// rejects orders that would breach the configured limits.
type Manager struct {
	mu sync.RWMutex

	cfg      Config
	exposure map[string]float64
	dailyPnL float64
}

// New constructs a risk manager from the given limits.
func New(cfg Config) *Manager {
	return &Manager{cfg: cfg, exposure: make(map[string]float64)}
}

// Allow returns an error naming the breached limit if submitting an
// order of orderValue (size*price, in portfolio currency) against
// marketID would exceed any configured bound; nil otherwise.
func (m *Manager) Allow(marketID string, orderValue, portfolioValue float64) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.cfg.MaxDailyLoss > 0 && m.dailyPnL <= -m.cfg.MaxDailyLoss {
		return fmt.Errorf("risk: daily loss limit reached: %.2f/%.2f", m.dailyPnL, -m.cfg.MaxDailyLoss)
	}

	current, open := m.exposure[marketID]
	if !open && m.cfg.MaxOpenPositions > 0 && len(m.exposure) >= m.cfg.MaxOpenPositions {
		return fmt.Errorf("risk: max open positions reached: %d/%d", len(m.exposure), m.cfg.MaxOpenPositions)
	}

	projected := current + orderValue
	if m.cfg.MaxPositionSize > 0 && projected > m.cfg.MaxPositionSize {
		return fmt.Errorf("risk: position size limit for %s: %.2f > %.2f", marketID, projected, m.cfg.MaxPositionSize)
	}
	if m.cfg.MaxPositionPct > 0 && portfolioValue > 0 {
		pct := projected / portfolioValue
		if pct > m.cfg.MaxPositionPct {
			return fmt.Errorf("risk: position pct limit for %s: %.4f > %.4f", marketID, pct, m.cfg.MaxPositionPct)
		}
	}
	return nil
}

// RecordFill adds value to a market's tracked exposure.
func (m *Manager) RecordFill(marketID string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exposure[marketID] += value
}

// RecordResolution clears a market's exposure and applies its
// realized PnL to the daily total.
func (m *Manager) RecordResolution(marketID string, pnl float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.exposure, marketID)
	m.dailyPnL += pnl
}

// ShouldStopLoss reports whether a position's current loss ratio
// (positive means losing) breaches the configured per-position
// stop-loss percentage. A non-positive StopLossPct disables the check.
func (m *Manager) ShouldStopLoss(lossRatio float64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cfg.StopLossPct <= 0 {
		return false
	}
	return lossRatio >= m.cfg.StopLossPct
}

// ResetDaily clears the cumulative daily PnL counter.
func (m *Manager) ResetDaily() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dailyPnL = 0
}

// DailyPnL returns the cumulative realized PnL recorded since the
// last ResetDaily.
func (m *Manager) DailyPnL() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dailyPnL
}

// OpenPositions returns the number of markets currently carrying
// tracked exposure.
func (m *Manager) OpenPositions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.exposure)
}
