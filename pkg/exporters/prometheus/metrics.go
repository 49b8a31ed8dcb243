// Package prometheus exports remediation outcomes as Prometheus metrics so
// repeated runs (e.g. triggered by a GUI shell through the HTTP API) can be
// observed over time.
package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the Prometheus metrics published by App Doctor.
type Metrics struct {
	// StepsTotal counts step results by target and outcome.
	StepsTotal *prometheus.CounterVec

	// RunsTotal counts completed runs by target and overall status.
	RunsTotal *prometheus.CounterVec

	// RunDuration observes wall-clock run duration per target.
	RunDuration *prometheus.HistogramVec
}

// NewMetrics creates the metric definitions under the given namespace.
func NewMetrics(namespace string) (*Metrics, error) {
	if namespace == "" {
		namespace = "app_doctor"
	}

	m := &Metrics{
		StepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "steps_total",
				Help:      "Total fix step results by target and outcome",
			},
			[]string{"target", "outcome"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total remediation runs by target and status",
			},
			[]string{"target", "status"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall-clock duration of remediation runs",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
			},
			[]string{"target"},
		),
	}
	return m, nil
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(registry *prometheus.Registry) error {
	for _, c := range []prometheus.Collector{m.StepsTotal, m.RunsTotal, m.RunDuration} {
		if err := registry.Register(c); err != nil {
			return fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return nil
}
