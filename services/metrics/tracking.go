// Package metricsvc exposes the tracking activity as Prometheus metrics.
package metricsvc

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/classfence/core/tracking"
)

// TrackingMetrics records ingestions and alerts.
type TrackingMetrics struct {
	IngestTotal    *prometheus.CounterVec
	IngestDuration *prometheus.HistogramVec
	AlertTotal     *prometheus.CounterVec
}

var _ tracking.MetricsRecorder = (*TrackingMetrics)(nil)

// NewTrackingMetrics creates the tracking metrics and registers them with registry.
func NewTrackingMetrics(registry prometheus.Registerer) (*TrackingMetrics, error) {
	m := &TrackingMetrics{
		IngestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classfence_ingest_total",
				Help: "Total number of location samples received, by outcome and resulting boundary status.",
			},
			[]string{"outcome", "status"},
		),
		IngestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "classfence_ingest_duration_seconds",
				Help:    "Time taken to ingest a location sample.",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
			},
			[]string{"outcome"},
		),
		AlertTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classfence_alerts_total",
				Help: "Total number of alerts raised, by type.",
			},
			[]string{"type"},
		),
	}

	for _, c := range []prometheus.Collector{m.IngestTotal, m.IngestDuration, m.AlertTotal} {
		if err := registry.Register(c); err != nil {
			return nil, errors.Wrap(err, "registering tracking metrics")
		}
	}
	return m, nil
}

func (m *TrackingMetrics) ObserveIngest(outcome string, status tracking.Status, took time.Duration) {
	if status == "" {
		status = "none"
	}
	m.IngestTotal.WithLabelValues(outcome, string(status)).Inc()
	m.IngestDuration.WithLabelValues(outcome).Observe(took.Seconds())
}

func (m *TrackingMetrics) IncAlert(typ tracking.AlertType) {
	m.AlertTotal.WithLabelValues(string(typ)).Inc()
}
