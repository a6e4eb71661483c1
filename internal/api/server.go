// Package api implements the read-only HTTP dashboard exposed
// alongside a running simulation: status, portfolio, trades,
// positions, the equity curve, and derived metrics.
package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/predictsim/core/internal/model"
	"github.com/predictsim/core/internal/portfolio"
)

// EngineState exposes the running simulation's state to the API
// layer. Both Backtest and Paper expose this surface through the
// portfolio and exchange they own.
type EngineState interface {
	Cash() float64
	Positions() []model.Position
	Trades() []portfolio.Trade
	Resolutions() []portfolio.Resolution
	EquityCurve() []portfolio.EquityPoint
	GetMetrics() portfolio.Metrics
	GetPortfolioValue() float64
	Mode() string
	IsRunning() bool
}

// Server is a lightweight read-only HTTP API for the simulator
// dashboard.
type Server struct {
	httpServer *http.Server
	state      EngineState
	startedAt  time.Time
}

// NewServer creates a new API server bound to addr.
func NewServer(addr string, state EngineState) *Server {
	s := &Server{
		state:     state,
		startedAt: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/portfolio", s.handlePortfolio)
	mux.HandleFunc("/api/positions", s.handlePositions)
	mux.HandleFunc("/api/trades", s.handleTrades)
	mux.HandleFunc("/api/resolutions", s.handleResolutions)
	mux.HandleFunc("/api/equity-curve", s.handleEquityCurve)
	mux.HandleFunc("/api/metrics", s.handleMetrics)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start begins serving HTTP requests in the background.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	go func() {
		_ = s.httpServer.Serve(ln)
	}()
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GET /health — liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"ok":       true,
		"uptime_s": time.Since(s.startedAt).Seconds(),
	})
}

// GET /api/status — overall run status.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"mode":      s.state.Mode(),
		"running":   s.state.IsRunning(),
		"uptime_s":  time.Since(s.startedAt).Seconds(),
		"cash":      s.state.Cash(),
		"portfolio": s.state.GetPortfolioValue(),
	})
}

// GET /api/portfolio — cash plus mark-to-market value.
func (s *Server) handlePortfolio(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"cash":            s.state.Cash(),
		"portfolio_value": s.state.GetPortfolioValue(),
		"positions":       s.state.Positions(),
	})
}

// GET /api/positions — currently open positions.
func (s *Server) handlePositions(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]interface{}{"positions": s.state.Positions()})
}

// GET /api/trades — the full trade ledger.
func (s *Server) handleTrades(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]interface{}{"trades": s.state.Trades()})
}

// GET /api/resolutions — the full resolution ledger.
func (s *Server) handleResolutions(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]interface{}{"resolutions": s.state.Resolutions()})
}

// GET /api/equity-curve — recorded equity samples.
func (s *Server) handleEquityCurve(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]interface{}{"equity_curve": s.state.EquityCurve()})
}

// GET /api/metrics — derived performance/risk metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.state.GetMetrics())
}
