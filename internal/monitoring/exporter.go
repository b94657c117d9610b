package monitoring

import (
	"errors"
	"fmt"

	tserrors "github.com/paveg/tsprep/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Exporter holds Prometheus metrics for node executions on its own registry,
// so several exporters can coexist in one process.
type Exporter struct {
	registry *prometheus.Registry

	ExecutionsTotal   *prometheus.CounterVec
	ExecutionDuration *prometheus.HistogramVec
	RowsProcessed     *prometheus.CounterVec
	RowsEmitted       *prometheus.CounterVec
	ErrorsTotal       *prometheus.CounterVec
}

// NewExporter creates an exporter with metrics under the given namespace
func NewExporter(namespace string) *Exporter {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Exporter{
		registry: reg,

		ExecutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_executions_total",
				Help:      "Total number of node executions by node and status",
			},
			[]string{"node", "status"},
		),

		ExecutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "node_execution_duration_seconds",
				Help:      "Node execution duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
			},
			[]string{"node"},
		),

		RowsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_rows_in_total",
				Help:      "Total number of input rows processed by node",
			},
			[]string{"node"},
		),

		RowsEmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_rows_out_total",
				Help:      "Total number of output rows produced by node",
			},
			[]string{"node"},
		),

		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_errors_total",
				Help:      "Total number of failed node executions by node and error phase",
			},
			[]string{"node", "phase"},
		),
	}
}

// Registry returns the registry the metrics are registered on
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Observe records one execution
func (e *Exporter) Observe(m OperationMetrics) {
	e.ExecutionsTotal.WithLabelValues(m.Node, m.Status()).Inc()
	e.ExecutionDuration.WithLabelValues(m.Node).Observe(m.Duration.Seconds())
	e.RowsProcessed.WithLabelValues(m.Node).Add(float64(m.RowsIn))
	e.RowsEmitted.WithLabelValues(m.Node).Add(float64(m.RowsOut))
	if m.Failed {
		e.ErrorsTotal.WithLabelValues(m.Node, m.ErrorPhase).Inc()
	}
}

// WriteToTextfile writes all metrics to path in the Prometheus text format,
// suitable for the node exporter textfile collector.
func (e *Exporter) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

// errorPhase labels an error with the phase that raised it
func errorPhase(err error) string {
	var nodeErr *tserrors.NodeError
	if errors.As(err, &nodeErr) {
		return nodeErr.Kind.String()
	}
	return tserrors.KindInternal.String()
}
