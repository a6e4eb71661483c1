// Package config loads and validates the simulator's YAML
// configuration: run mode, backtest/paper-trading parameters, the
// exchange's fill/latency/fee model knobs, and risk limits.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Mode selects which engine orchestrator the CLI constructs.
type Mode string

const (
	ModeBacktest Mode = "backtest"
	ModePaper    Mode = "paper"
	ModeSandbox  Mode = "sandbox"
)

// BacktestConfig configures a synchronous historical replay run.
type BacktestConfig struct {
	StartDate            string   `yaml:"start_date"`
	EndDate              string   `yaml:"end_date"`
	InitialCapital       float64  `yaml:"initial_capital"`
	Platforms            []string `yaml:"platforms"`
	MarketIDs            []string `yaml:"market_ids"`
	TimeStepMinutes      float64  `yaml:"time_step_minutes"`
	RecordEquityInterval float64  `yaml:"record_equity_interval"`
	DataPath             string   `yaml:"data_path,omitempty"`
}

// PaperTradingConfig configures the asynchronous live-feed run.
type PaperTradingConfig struct {
	InitialCapital       float64  `yaml:"initial_capital"`
	Platforms            []string `yaml:"platforms"`
	MarketIDs            []string `yaml:"market_ids"`
	RealTimeData         bool     `yaml:"real_time_data"`
	DataRefreshSeconds   float64  `yaml:"data_refresh_seconds"`
	RecordEquityInterval float64  `yaml:"record_equity_interval"`
}

// FillModelConfig configures the exchange's probabilistic or
// order-book-walk fill model.
type FillModelConfig struct {
	Type              string  `yaml:"type"`
	ProbFillOnLimit   float64 `yaml:"prob_fill_on_limit"`
	ProbSlippage      float64 `yaml:"prob_slippage"`
	MaxSlippageBps    float64 `yaml:"max_slippage_bps"`
	PriceImpactFactor float64 `yaml:"price_impact_factor"`
	RandomSeed        int64   `yaml:"random_seed,omitempty"`
}

// LatencyModelConfig configures the exchange's latency injection.
type LatencyModelConfig struct {
	MeanMs     float64 `yaml:"mean_ms"`
	StdMs      float64 `yaml:"std_ms"`
	MinMs      float64 `yaml:"min_ms"`
	MaxMs      float64 `yaml:"max_ms"`
	RandomSeed int64   `yaml:"random_seed,omitempty"`
}

// CustomFeeSchedule overrides a platform's fee shape.
type CustomFeeSchedule struct {
	TakerRate      float64 `yaml:"taker_rate"`
	MakerRate      float64 `yaml:"maker_rate"`
	PerContract    bool    `yaml:"per_contract,omitempty"`
	CapPerContract float64 `yaml:"cap_per_contract,omitempty"`
}

// FeeModelConfig configures the exchange's fee schedule.
type FeeModelConfig struct {
	UsePlatformFees bool                         `yaml:"use_platform_fees"`
	CustomFees      map[string]CustomFeeSchedule `yaml:"custom_fees,omitempty"`
}

// ExchangeConfig groups the simulated exchange's pluggable models.
type ExchangeConfig struct {
	FillModel    FillModelConfig    `yaml:"fill_model"`
	LatencyModel LatencyModelConfig `yaml:"latency_model"`
	FeeModel     FeeModelConfig     `yaml:"fee_model"`
}

// RiskLimits bounds strategy order flow at the engine level.
type RiskLimits struct {
	MaxPositionSize  float64  `yaml:"max_position_size"`
	MaxDailyLoss     float64  `yaml:"max_daily_loss"`
	MaxOpenPositions int      `yaml:"max_open_positions"`
	MaxPositionPct   float64  `yaml:"max_position_pct"`
	StopLossPct      *float64 `yaml:"stop_loss_pct,omitempty"`
}

// StoreConfig configures the snapshot/trade/resolution persistence
// layer that backtest mode replays from. Paper and sandbox modes do
// not use it.
type StoreConfig struct {
	Type string `yaml:"type"` // csv | parquet
	Path string `yaml:"path"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// APIConfig configures the read-only dashboard/status HTTP server.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// NATSConfig configures the paper-mode live feed transport.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// StrategiesConfig toggles and parameterizes the five built-in
// strategies.
type StrategiesConfig struct {
	MeanReversion *MeanReversionParams `yaml:"mean_reversion,omitempty"`
	Momentum      *MomentumParams      `yaml:"momentum,omitempty"`
	SpikeDetector *SpikeParams         `yaml:"spike_detector,omitempty"`
	Arbitrage     *ArbitrageParams     `yaml:"arbitrage,omitempty"`
	MarketMaker   *MarketMakerParams   `yaml:"market_maker,omitempty"`
}

type MeanReversionParams struct {
	Lookback        int     `yaml:"lookback"`
	EntryThreshold  float64 `yaml:"entry_threshold"`
	ExitThreshold   float64 `yaml:"exit_threshold"`
	HoldPeriodHours float64 `yaml:"hold_period_hours"`
	BollingerK      float64 `yaml:"bollinger_k"`
	Size            float64 `yaml:"size"`
}

type MomentumParams struct {
	RSIPeriod        int     `yaml:"rsi_period"`
	MomentumPeriod   int     `yaml:"momentum_period"`
	MinTrendStrength float64 `yaml:"min_trend_strength"`
	EntryThreshold   float64 `yaml:"entry_threshold"`
	Overbought       float64 `yaml:"overbought"`
	Oversold         float64 `yaml:"oversold,omitempty"`
	Size             float64 `yaml:"size"`
}

type SpikeParams struct {
	Lookback        int     `yaml:"lookback"`
	SpikeThreshold  float64 `yaml:"spike_threshold"`
	MinVolumeSpike  float64 `yaml:"min_volume_spike"`
	CooldownMinutes float64 `yaml:"cooldown_minutes"`
	Mode            string  `yaml:"mode"`
	Size            float64 `yaml:"size"`
}

type ArbitrageParams struct {
	MinSpread    float64 `yaml:"min_spread"`
	MaxSpread    float64 `yaml:"max_spread"`
	MinLiquidity float64 `yaml:"min_liquidity"`
	Size         float64 `yaml:"size"`
}

type MarketMakerParams struct {
	Alpha                  float64 `yaml:"alpha"`
	TargetSpread           float64 `yaml:"target_spread"`
	MinSpread              float64 `yaml:"min_spread"`
	InventorySkew          float64 `yaml:"inventory_skew"`
	MaxInventory           float64 `yaml:"max_inventory"`
	RefreshIntervalSeconds float64 `yaml:"refresh_interval_seconds"`
	MinEdge                float64 `yaml:"min_edge"`
	Size                   float64 `yaml:"size"`
}

// Config is the full simulator configuration, loaded before engine
// construction.
type Config struct {
	Mode          Mode                `yaml:"mode"`
	Backtest      BacktestConfig      `yaml:"backtest"`
	PaperTrading  PaperTradingConfig  `yaml:"paper_trading"`
	Exchange      ExchangeConfig      `yaml:"exchange"`
	RiskLimits    RiskLimits          `yaml:"risk_limits"`
	Store         StoreConfig         `yaml:"store"`
	Metrics       MetricsConfig       `yaml:"metrics"`
	API           APIConfig           `yaml:"api"`
	NATS          NATSConfig          `yaml:"nats"`
	Strategies    StrategiesConfig    `yaml:"strategies"`
}

// Default returns a configuration populated with the reference
// defaults for every subsystem.
func Default() *Config {
	return &Config{
		Mode: ModeBacktest,
		Backtest: BacktestConfig{
			InitialCapital:       10000,
			Platforms:            []string{"polymarket", "kalshi", "manifold"},
			MarketIDs:            []string{"default-market"},
			TimeStepMinutes:      60,
			RecordEquityInterval: 1440,
		},
		PaperTrading: PaperTradingConfig{
			InitialCapital:       10000,
			Platforms:            []string{"polymarket", "kalshi", "manifold"},
			MarketIDs:            []string{},
			RealTimeData:         true,
			DataRefreshSeconds:   30,
			RecordEquityInterval: 60,
		},
		Exchange: ExchangeConfig{
			FillModel: FillModelConfig{
				Type:              "basic",
				ProbFillOnLimit:   0.8,
				ProbSlippage:      0.3,
				MaxSlippageBps:    50,
				PriceImpactFactor: 1,
			},
			LatencyModel: LatencyModelConfig{
				MeanMs: 150, StdMs: 50, MinMs: 10, MaxMs: 2000,
			},
			FeeModel: FeeModelConfig{UsePlatformFees: true},
		},
		RiskLimits: RiskLimits{
			MaxPositionSize:  1000,
			MaxDailyLoss:     500,
			MaxOpenPositions: 20,
			MaxPositionPct:   0.1,
		},
		Store: StoreConfig{Type: "csv", Path: "./data"},
		Metrics: MetricsConfig{
			Enabled: true, Addr: ":9090",
		},
		API: APIConfig{
			Enabled: true, Addr: ":8080",
		},
		NATS: NATSConfig{
			URL: "nats://127.0.0.1:4222", Subject: "predictsim.market_updates",
		},
		Strategies: StrategiesConfig{
			MeanReversion: &MeanReversionParams{Lookback: 20, EntryThreshold: 2, ExitThreshold: 0.5, HoldPeriodHours: 48, BollingerK: 2, Size: 50},
			Momentum:      &MomentumParams{RSIPeriod: 14, MomentumPeriod: 10, MinTrendStrength: 0.3, EntryThreshold: 0.02, Overbought: 70, Size: 50},
			SpikeDetector: &SpikeParams{Lookback: 20, SpikeThreshold: 0.05, MinVolumeSpike: 2.0, CooldownMinutes: 30, Mode: "mean_reversion", Size: 50},
			Arbitrage:     &ArbitrageParams{MinSpread: 0.02, MaxSpread: 0.20, MinLiquidity: 1000, Size: 100},
			MarketMaker:   &MarketMakerParams{Alpha: 0.3, TargetSpread: 0.04, MinSpread: 0.01, InventorySkew: 0.3, MaxInventory: 500, RefreshIntervalSeconds: 30, MinEdge: 0.005, Size: 25},
		},
	}
}

// LoadFile reads and strictly decodes a YAML config file, rejecting
// unknown keys at parse time rather than silently dropping them.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays environment-variable overrides onto the config.
// Only a small, explicit set of secrets/paths are sourced from the
// environment; everything else comes from the YAML file.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PREDICTSIM_NATS_URL"); v != "" {
		c.NATS.URL = v
	}
	if v := os.Getenv("PREDICTSIM_DATA_PATH"); v != "" {
		c.Backtest.DataPath = v
		c.Store.Path = v
	}
}
