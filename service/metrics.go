package service

import (
	"time"

	"github.com/AnTengye/recscan/model"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts scanned rows and completion calls. A nil *Metrics is a no-op.
type Metrics struct {
	rows        *prometheus.CounterVec
	rowDuration *prometheus.HistogramVec
	completions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recscan_rows_total",
			Help: "Project rows scanned, by strategy and outcome status.",
		}, []string{"strategy", "status"}),
		rowDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recscan_row_duration_seconds",
			Help:    "Time spent resolving, reading and analysing one project row.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"strategy"}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recscan_completions_total",
			Help: "Completion service calls, by provider and outcome.",
		}, []string{"provider", "outcome"}),
	}
	reg.MustRegister(m.rows, m.rowDuration, m.completions)
	return m
}

func (m *Metrics) ObserveRow(strategy string, status model.Status, d time.Duration) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(strategy, string(status)).Inc()
	m.rowDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

// Completion outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeRejected    = "rejected"
	OutcomeRateLimited = "rate_limited"
)

func (m *Metrics) ObserveCompletion(provider, outcome string) {
	if m == nil {
		return
	}
	m.completions.WithLabelValues(provider, outcome).Inc()
}
