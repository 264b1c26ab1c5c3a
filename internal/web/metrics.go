package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nconklindev/tally/internal/consolidator"
	"github.com/nconklindev/tally/internal/types"
)

// Run outcomes recorded in tally_runs_total.
const (
	outcomeSuccess = "success"
	outcomeInvalid = "invalid"
	outcomeNoInput = "no_input"
	outcomeError   = "error"
)

// Metrics holds the server's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry
	runs     *prometheus.CounterVec
	files    prometheus.Counter
	skipped  prometheus.Counter
	rows     prometheus.Counter
	duration prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tally",
			Name:      "runs_total",
			Help:      "Consolidation runs by outcome.",
		}, []string{"outcome"}),
		files: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tally",
			Name:      "files_consolidated_total",
			Help:      "Source workbooks that contributed rows.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tally",
			Name:      "files_skipped_total",
			Help:      "Source workbooks skipped under the skip policy.",
		}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tally",
			Name:      "rows_consolidated_total",
			Help:      "Rows written to the consolidated workbook.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tally",
			Name:      "run_duration_seconds",
			Help:      "Wall time of consolidation runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}

	m.registry.MustRegister(
		m.runs, m.files, m.skipped, m.rows, m.duration,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observe(res *types.Result, err error, took time.Duration) {
	m.duration.Observe(took.Seconds())
	m.runs.WithLabelValues(outcome(err)).Inc()
	if err != nil || res == nil {
		return
	}
	m.files.Add(float64(len(res.Files)))
	m.skipped.Add(float64(len(res.Skipped)))
	if res.Table != nil {
		m.rows.Add(float64(len(res.Table.Rows)))
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case consolidator.IsValidation(err), errors.Is(err, consolidator.ErrDirectory):
		return outcomeInvalid
	case errors.Is(err, consolidator.ErrNoInput):
		return outcomeNoInput
	default:
		return outcomeError
	}
}
