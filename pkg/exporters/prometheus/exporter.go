package prometheus

import (
	"context"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sysoptim/app-doctor/pkg/types"
)

// Exporter publishes execution reports as Prometheus metrics.
// It implements types.ReportExporter.
type Exporter struct {
	registry *prometheus.Registry
	metrics  *Metrics
}

// NewExporter creates an exporter with a dedicated registry, separate from
// the global default registry to avoid collisions, including Go runtime and
// process collectors.
func NewExporter(namespace string) (*Exporter, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	metrics, err := NewMetrics(namespace)
	if err != nil {
		return nil, err
	}
	if err := metrics.Register(registry); err != nil {
		return nil, err
	}

	return &Exporter{registry: registry, metrics: metrics}, nil
}

// ExportReport records the report's outcomes.
func (e *Exporter) ExportReport(_ context.Context, report *types.ExecutionReport) error {
	for _, res := range report.Results {
		e.metrics.StepsTotal.WithLabelValues(report.Target, outcomeLabel(res.Outcome)).Inc()
	}

	status := "ok"
	if report.Failed() {
		status = "with_failures"
	}
	e.metrics.RunsTotal.WithLabelValues(report.Target, status).Inc()
	e.metrics.RunDuration.WithLabelValues(report.Target).Observe(report.Duration().Seconds())
	return nil
}

// Handler returns the HTTP handler serving this exporter's registry.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// outcomeLabel maps a step outcome to a stable lowercase label value.
func outcomeLabel(o types.StepOutcome) string {
	switch o {
	case types.StepSucceeded:
		return "succeeded"
	case types.StepSkippedNotFound:
		return "skipped_not_found"
	case types.StepFailed:
		return "failed"
	default:
		return strings.ToLower(string(o))
	}
}
