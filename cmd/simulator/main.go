package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/predictsim/core/internal/api"
	"github.com/predictsim/core/internal/config"
	"github.com/predictsim/core/internal/engine"
	"github.com/predictsim/core/internal/eventsource"
	"github.com/predictsim/core/internal/exchange"
	"github.com/predictsim/core/internal/model"
	"github.com/predictsim/core/internal/portfolio"
	"github.com/predictsim/core/internal/risk"
	"github.com/predictsim/core/internal/store"
	"github.com/predictsim/core/internal/strategy"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	modeOverride := flag.String("mode", "", "override the configured run mode (backtest|paper|sandbox)")
	outPath := flag.String("out", "results.json", "where to write the run's results as JSON (backtest only)")
	flag.Parse()

	cfg, err := config.LoadFile(*cfgPath)
	if err != nil {
		log.Printf("warning: config file: %v, using defaults", err)
		cfg = config.Default()
	}
	cfg.ApplyEnv()
	if *modeOverride != "" {
		cfg.Mode = config.Mode(*modeOverride)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	log.Printf("predictsim starting (mode=%s)", cfg.Mode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	ex := buildExchange(cfg)
	strategies := buildStrategies(cfg)

	var recorder *engine.MetricsRecorder
	if cfg.Metrics.Enabled && (cfg.Mode == config.ModePaper || cfg.Mode == config.ModeSandbox) {
		registry := prometheus.NewRegistry()
		recorder = engine.NewMetricsRecorder(registry)
		srv := engine.ServeMetrics(cfg.Metrics.Addr, registry)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := engine.ShutdownMetrics(ctx, srv); err != nil {
				log.Printf("metrics server shutdown: %v", err)
			}
		}()
		log.Printf("metrics listening on %s/metrics", cfg.Metrics.Addr)
	}

	runWithMode(ctx, cfg, ex, strategies, recorder, *outPath)
}

// httpServer adapts a graceful-shutdown closure to a deferrable Close.
type httpServer struct {
	shutdown func(context.Context) error
}

func (h *httpServer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.shutdown(ctx); err != nil {
		log.Printf("api server shutdown: %v", err)
	}
}

func runWithMode(ctx context.Context, cfg *config.Config, ex *exchange.Exchange, strategies []strategy.Strategy, recorder *engine.MetricsRecorder, outPath string) {
	switch cfg.Mode {
	case config.ModePaper, config.ModeSandbox:
		runPaper(ctx, cfg, ex, strategies, recorder)
	default:
		runBacktest(ctx, cfg, ex, strategies, recorder, outPath)
	}
}

func buildExchange(cfg *config.Config) *exchange.Exchange {
	if cfg.Mode == config.ModeSandbox {
		return buildRiskFreeExchange(cfg)
	}

	fmCfg := cfg.Exchange.FillModel
	fillModel := exchange.NewFillModel(exchange.FillModelConfig{
		Type:              exchange.FillModelType(fmCfg.Type),
		ProbFillOnLimit:   fmCfg.ProbFillOnLimit,
		ProbSlippage:      fmCfg.ProbSlippage,
		MaxSlippageBps:    fmCfg.MaxSlippageBps,
		PriceImpactFactor: fmCfg.PriceImpactFactor,
		RandomSeed:        fmCfg.RandomSeed,
	})

	lmCfg := cfg.Exchange.LatencyModel
	latencyModel := exchange.NewLatencyModel(lmCfg.MeanMs, lmCfg.StdMs, lmCfg.MinMs, lmCfg.MaxMs, lmCfg.RandomSeed)

	custom := make(map[model.Platform]exchange.FeeSchedule, len(cfg.Exchange.FeeModel.CustomFees))
	for platform, sched := range cfg.Exchange.FeeModel.CustomFees {
		custom[model.Platform(platform)] = exchange.FeeSchedule{
			TakerRate:      sched.TakerRate,
			MakerRate:      sched.MakerRate,
			PerContract:    sched.PerContract,
			CapPerContract: sched.CapPerContract,
		}
	}
	feeModel := exchange.NewFeeModel(cfg.Exchange.FeeModel.UsePlatformFees, custom)

	return exchange.New(fillModel, latencyModel, feeModel)
}

// buildRiskFreeExchange builds the exchange sandbox mode runs against:
// every order fills in full at the quoted price, with no slippage, no
// latency, and no fees, so a strategy can be exercised against the
// live feed without any of the cost/risk modeling a real paper or
// backtest run applies.
func buildRiskFreeExchange(cfg *config.Config) *exchange.Exchange {
	fillModel := exchange.NewFillModel(exchange.FillModelConfig{
		Type:            exchange.FillBasic,
		ProbFillOnLimit: 1,
		ProbSlippage:    0,
		MaxSlippageBps:  0,
		RandomSeed:      cfg.Exchange.FillModel.RandomSeed,
	})
	latencyModel := exchange.NewLatencyModel(0, 0, 0, 0, cfg.Exchange.LatencyModel.RandomSeed)
	feeModel := exchange.NewFeeModel(false, nil)
	return exchange.New(fillModel, latencyModel, feeModel)
}

func buildStrategies(cfg *config.Config) []strategy.Strategy {
	var strategies []strategy.Strategy
	s := cfg.Strategies

	if p := s.MeanReversion; p != nil {
		strategies = append(strategies, strategy.NewMeanReversion(strategy.MeanReversionConfig{
			Lookback: p.Lookback, EntryThreshold: p.EntryThreshold, ExitThreshold: p.ExitThreshold,
			HoldPeriodHours: p.HoldPeriodHours, BollingerK: p.BollingerK, Size: p.Size,
		}))
	}
	if p := s.Momentum; p != nil {
		strategies = append(strategies, strategy.NewMomentum(strategy.MomentumConfig{
			RSIPeriod: p.RSIPeriod, MomentumPeriod: p.MomentumPeriod, MinTrendStrength: p.MinTrendStrength,
			EntryThreshold: p.EntryThreshold, Overbought: p.Overbought, Oversold: p.Oversold, Size: p.Size,
		}))
	}
	if p := s.SpikeDetector; p != nil {
		strategies = append(strategies, strategy.NewSpikeDetector(strategy.SpikeConfig{
			Lookback: p.Lookback, SpikeThreshold: p.SpikeThreshold, MinVolumeSpike: p.MinVolumeSpike,
			CooldownMinutes: p.CooldownMinutes, Mode: strategy.SpikeMode(p.Mode), Size: p.Size,
		}))
	}
	if p := s.Arbitrage; p != nil {
		strategies = append(strategies, strategy.NewArbitrage(strategy.ArbitrageConfig{
			MinSpread: p.MinSpread, MaxSpread: p.MaxSpread, MinLiquidity: p.MinLiquidity, Size: p.Size,
		}))
	}
	if p := s.MarketMaker; p != nil {
		strategies = append(strategies, strategy.NewMarketMaker(strategy.MarketMakerConfig{
			Alpha: p.Alpha, TargetSpread: p.TargetSpread, MinSpread: p.MinSpread,
			InventorySkew: p.InventorySkew, MaxInventory: p.MaxInventory, MinEdge: p.MinEdge, Size: p.Size,
		}))
	}
	return strategies
}

func buildRisk(cfg *config.Config) *risk.Manager {
	limits := cfg.RiskLimits
	stopLoss := 0.0
	if limits.StopLossPct != nil {
		stopLoss = *limits.StopLossPct
	}
	return risk.New(risk.Config{
		MaxPositionSize:  limits.MaxPositionSize,
		MaxDailyLoss:     limits.MaxDailyLoss,
		MaxOpenPositions: limits.MaxOpenPositions,
		MaxPositionPct:   limits.MaxPositionPct,
		StopLossPct:      stopLoss,
	})
}

func buildStore(cfg *config.Config) (store.Store, error) {
	if cfg.Store.Type == "parquet" {
		return store.NewParquetStore(cfg.Store.Path)
	}
	return store.NewCSVStore(cfg.Store.Path)
}

func runBacktest(ctx context.Context, cfg *config.Config, ex *exchange.Exchange, strategies []strategy.Strategy, recorder *engine.MetricsRecorder, outPath string) {
	st, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}

	start, end := parseWindow(cfg.Backtest.StartDate, cfg.Backtest.EndDate)
	src, err := eventsource.NewHistoricalSource(st, cfg.Backtest.MarketIDs, start, end)
	if err != nil {
		log.Fatalf("eventsource: %v", err)
	}

	pf := portfolio.New(cfg.Backtest.InitialCapital, cfg.Backtest.RecordEquityInterval)
	interval := time.Duration(cfg.Backtest.RecordEquityInterval) * time.Minute

	bt := engine.NewBacktest(ex, pf, strategies, src, cfg.Backtest.InitialCapital, interval)
	bt = bt.WithRisk(buildRisk(cfg))
	if recorder != nil {
		bt = bt.WithMetrics(recorder)
	}

	if cfg.API.Enabled {
		view := engine.NewStateView(ex, pf, string(cfg.Mode))
		bt = bt.WithState(view)
		server := startAPIServer(ctx, cfg.API.Addr, view)
		defer server.Close()
	}

	results, err := bt.Run(ctx)
	if err != nil && ctx.Err() == nil {
		log.Fatalf("backtest: %v", err)
	}

	log.Printf("backtest complete: final_value=%.2f total_return=%.4f trades=%d",
		results.FinalValue, results.TotalReturn, len(results.Trades))

	if err := writeResults(outPath, results); err != nil {
		log.Printf("warning: write results: %v", err)
	}
}

func runPaper(ctx context.Context, cfg *config.Config, ex *exchange.Exchange, strategies []strategy.Strategy, recorder *engine.MetricsRecorder) {
	provider := eventsource.NewLiveSource(eventsource.LiveSourceConfig{
		URL: cfg.NATS.URL, Subject: cfg.NATS.Subject, MarketIDs: cfg.PaperTrading.MarketIDs,
	})

	pf := portfolio.New(cfg.PaperTrading.InitialCapital, cfg.PaperTrading.RecordEquityInterval)
	interval := time.Duration(cfg.PaperTrading.RecordEquityInterval) * time.Minute

	p := engine.NewPaper(ex, pf, strategies, []eventsource.DataProvider{provider}, cfg.PaperTrading.InitialCapital, interval)
	p = p.WithRisk(buildRisk(cfg))
	if recorder != nil {
		p = p.WithMetrics(recorder)
	}

	if cfg.API.Enabled {
		view := engine.NewStateView(ex, pf, string(cfg.Mode))
		p = p.WithState(view)
		server := startAPIServer(ctx, cfg.API.Addr, view)
		defer server.Close()
	}

	results, err := p.Run(ctx)
	if err != nil && ctx.Err() == nil {
		log.Fatalf("paper trading: %v", err)
	}
	log.Printf("paper session ended: final_value=%.2f trades=%d", results.FinalValue, len(results.Trades))
}

func parseWindow(startDate, endDate string) (time.Time, time.Time) {
	const layout = "2006-01-02"
	start, err := time.Parse(layout, startDate)
	if err != nil {
		start = time.Time{}
	}
	end, err := time.Parse(layout, endDate)
	if err != nil {
		end = time.Time{}
	}
	return start, end
}

func startAPIServer(ctx context.Context, addr string, view *engine.StateView) *httpServer {
	srv := api.NewServer(addr, view)
	if err := srv.Start(ctx); err != nil {
		log.Printf("warning: api server: %v", err)
		return &httpServer{shutdown: func(context.Context) error { return nil }}
	}
	log.Printf("dashboard api listening on %s", addr)
	return &httpServer{shutdown: srv.Shutdown}
}

func writeResults(path string, results *engine.Results) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
