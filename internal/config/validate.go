package config

import "fmt"

// Validate checks range and presence invariants across the config,
// naming the offending field in any returned error. A malformed
// config is a fatal, not a recoverable, condition — the engine
// refuses to start rather than run with guessed defaults.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeBacktest, ModePaper, ModeSandbox:
	default:
		return fmt.Errorf("config: mode must be one of backtest|paper|sandbox, got %q", c.Mode)
	}

	if c.Mode == ModeBacktest {
		if c.Backtest.InitialCapital <= 0 {
			return fmt.Errorf("config: backtest.initial_capital must be positive")
		}
		if c.Backtest.TimeStepMinutes <= 0 {
			return fmt.Errorf("config: backtest.time_step_minutes must be positive")
		}
		if c.Backtest.RecordEquityInterval <= 0 {
			return fmt.Errorf("config: backtest.record_equity_interval must be positive")
		}
		if len(c.Backtest.Platforms) == 0 {
			return fmt.Errorf("config: backtest.platforms must not be empty")
		}
		if len(c.Backtest.MarketIDs) == 0 {
			return fmt.Errorf("config: backtest.market_ids must not be empty")
		}
	}

	if c.Mode == ModePaper || c.Mode == ModeSandbox {
		if c.PaperTrading.InitialCapital <= 0 {
			return fmt.Errorf("config: paper_trading.initial_capital must be positive")
		}
		if c.PaperTrading.RecordEquityInterval <= 0 {
			return fmt.Errorf("config: paper_trading.record_equity_interval must be positive")
		}
		if c.PaperTrading.DataRefreshSeconds <= 0 {
			return fmt.Errorf("config: paper_trading.data_refresh_seconds must be positive")
		}
	}

	switch c.Exchange.FillModel.Type {
	case "basic", "realistic":
	default:
		return fmt.Errorf("config: exchange.fill_model.type must be basic|realistic, got %q", c.Exchange.FillModel.Type)
	}
	if c.Exchange.FillModel.ProbFillOnLimit < 0 || c.Exchange.FillModel.ProbFillOnLimit > 1 {
		return fmt.Errorf("config: exchange.fill_model.prob_fill_on_limit must be in [0,1]")
	}
	if c.Exchange.FillModel.ProbSlippage < 0 || c.Exchange.FillModel.ProbSlippage > 1 {
		return fmt.Errorf("config: exchange.fill_model.prob_slippage must be in [0,1]")
	}
	if c.Exchange.FillModel.MaxSlippageBps < 0 {
		return fmt.Errorf("config: exchange.fill_model.max_slippage_bps must be non-negative")
	}

	if c.Exchange.LatencyModel.MinMs < 0 || c.Exchange.LatencyModel.MaxMs < c.Exchange.LatencyModel.MinMs {
		return fmt.Errorf("config: exchange.latency_model.min_ms/max_ms must satisfy 0 <= min_ms <= max_ms")
	}
	if c.Exchange.LatencyModel.StdMs < 0 {
		return fmt.Errorf("config: exchange.latency_model.std_ms must be non-negative")
	}

	if c.RiskLimits.MaxPositionSize <= 0 {
		return fmt.Errorf("config: risk_limits.max_position_size must be positive")
	}
	if c.RiskLimits.MaxOpenPositions <= 0 {
		return fmt.Errorf("config: risk_limits.max_open_positions must be positive")
	}
	if c.RiskLimits.MaxPositionPct <= 0 || c.RiskLimits.MaxPositionPct > 1 {
		return fmt.Errorf("config: risk_limits.max_position_pct must be in (0,1]")
	}
	if c.RiskLimits.StopLossPct != nil && (*c.RiskLimits.StopLossPct <= 0 || *c.RiskLimits.StopLossPct > 1) {
		return fmt.Errorf("config: risk_limits.stop_loss_pct must be in (0,1]")
	}

	return nil
}
