package engine

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsRecorder exports run-time engine counters to Prometheus:
// trades, fills/rejections, and the live equity/drawdown gauges.
type MetricsRecorder struct {
	tradesTotal   *prometheus.CounterVec
	fillsTotal    *prometheus.CounterVec
	equityGauge   prometheus.Gauge
	drawdownGauge prometheus.Gauge
}

// NewMetricsRecorder registers the engine's metric families on
// registry and returns a recorder bound to them.
func NewMetricsRecorder(registry *prometheus.Registry) *MetricsRecorder {
	m := &MetricsRecorder{
		tradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "predictsim_trades_total",
			Help: "Number of executed trades, by strategy and platform.",
		}, []string{"strategy", "platform"}),
		fillsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "predictsim_fills_total",
			Help: "Number of order submissions, by fill status.",
		}, []string{"status"}),
		equityGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "predictsim_equity",
			Help: "Current mark-to-market portfolio value.",
		}),
		drawdownGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "predictsim_drawdown_pct",
			Help: "Largest drawdown from the running equity peak recorded so far.",
		}),
	}
	registry.MustRegister(m.tradesTotal, m.fillsTotal, m.equityGauge, m.drawdownGauge)
	return m
}

// ObserveTrade increments the trade counter for one strategy/platform pair.
func (m *MetricsRecorder) ObserveTrade(strategyName, platform string) {
	m.tradesTotal.WithLabelValues(strategyName, platform).Inc()
}

// ObserveFill increments the fill-status counter.
func (m *MetricsRecorder) ObserveFill(status string) {
	m.fillsTotal.WithLabelValues(status).Inc()
}

// SetEquity updates the live equity gauge.
func (m *MetricsRecorder) SetEquity(value float64) {
	m.equityGauge.Set(value)
}

// SetDrawdown updates the live drawdown gauge.
func (m *MetricsRecorder) SetDrawdown(pct float64) {
	m.drawdownGauge.Set(pct)
}

// ServeMetrics starts an HTTP server exposing registry on /metrics,
// serving in a background goroutine, and returns it so the caller
// controls its lifecycle via Shutdown, matching the graceful-server
// pattern used by the dashboard API server. A listen error is not
// reported to the caller.
func ServeMetrics(addr string, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		_ = srv.ListenAndServe()
	}()
	return srv
}

// ShutdownMetrics gracefully stops a server started by ServeMetrics.
func ShutdownMetrics(ctx context.Context, srv *http.Server) error {
	return srv.Shutdown(ctx)
}
