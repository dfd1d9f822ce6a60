// Package metrics exposes processing counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/invoice-watch/internal/core"
)

// Metrics implements core.Observer on its own registry.
type Metrics struct {
	Registry *prometheus.Registry

	files      *prometheus.CounterVec
	ledgerRows prometheus.Gauge
	extract    prometheus.Histogram
	confidence prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "invoice_watch_files_total",
			Help: "Files handled by the per-file routine, by outcome.",
		}, []string{"outcome"}),
		ledgerRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "invoice_watch_ledger_rows",
			Help: "Rows currently in the ledger.",
		}),
		extract: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "invoice_watch_extract_seconds",
			Help:    "Time spent extracting text from a PDF.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "invoice_watch_text_confidence",
			Help:    "How much extracted text looks like an invoice, 0 to 1.",
			Buckets: []float64{0.2, 0.4, 0.5, 0.6, 0.8, 1},
		}),
	}
	m.Registry.MustRegister(m.files, m.ledgerRows, m.extract, m.confidence)
	for _, o := range core.Outcomes() {
		m.files.WithLabelValues(string(o))
	}
	return m
}

func (m *Metrics) ObserveOutcome(o core.Outcome) {
	m.files.WithLabelValues(string(o)).Inc()
}

func (m *Metrics) ObserveExtract(d time.Duration) {
	m.extract.Observe(d.Seconds())
}

func (m *Metrics) ObserveConfidence(score float32) {
	m.confidence.Observe(float64(score))
}

func (m *Metrics) SetLedgerRows(n int) {
	m.ledgerRows.Set(float64(n))
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve listens on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	logger.Info("metrics server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", "error", err)
		return err
	}
	logger.Info("metrics server stopped")
	return nil
}
