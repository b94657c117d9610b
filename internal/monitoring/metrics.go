// Package monitoring records node execution metrics and exports them in the
// Prometheus text format.
package monitoring

import (
	"sync"
	"time"
)

// OperationMetrics represents the metrics of a single node execution.
type OperationMetrics struct {
	RunID      string        `json:"run_id"`
	Node       string        `json:"node"`
	Duration   time.Duration `json:"duration"`
	RowsIn     int64         `json:"rows_in"`
	RowsOut    int64         `json:"rows_out"`
	Failed     bool          `json:"failed"`
	ErrorPhase string        `json:"error_phase,omitempty"`
}

// Status returns the execution status label: "ok" or "error".
func (m OperationMetrics) Status() string {
	if m.Failed {
		return "error"
	}
	return "ok"
}

// MetricsCollector collects and stores node execution metrics.
type MetricsCollector struct {
	mu       sync.RWMutex
	metrics  []OperationMetrics
	enabled  bool
	exporter *Exporter
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(enabled bool) *MetricsCollector {
	return &MetricsCollector{
		metrics: make([]OperationMetrics, 0),
		enabled: enabled,
	}
}

// WithExporter mirrors every recorded execution into the Prometheus exporter.
func (mc *MetricsCollector) WithExporter(e *Exporter) *MetricsCollector {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.exporter = e
	return mc
}

// Exporter returns the attached exporter, nil if none.
func (mc *MetricsCollector) Exporter() *Exporter {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.exporter
}

// IsEnabled returns whether metrics collection is enabled.
func (mc *MetricsCollector) IsEnabled() bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.enabled
}

// Record stores the metrics of a finished execution.
func (mc *MetricsCollector) Record(m OperationMetrics) {
	if !mc.IsEnabled() {
		return
	}

	mc.mu.Lock()
	mc.metrics = append(mc.metrics, m)
	exporter := mc.exporter
	mc.mu.Unlock()

	if exporter != nil {
		exporter.Observe(m)
	}
}

// RecordOperation executes fn, timing it, and records the execution of node.
// fn reports the output row count; its error marks the execution as failed.
func (mc *MetricsCollector) RecordOperation(runID, node string, rowsIn int, fn func() (int, error)) error {
	if !mc.IsEnabled() {
		_, err := fn()
		return err
	}

	start := time.Now()
	rowsOut, err := fn()

	m := OperationMetrics{
		RunID:    runID,
		Node:     node,
		Duration: time.Since(start),
		RowsIn:   int64(rowsIn),
		RowsOut:  int64(rowsOut),
		Failed:   err != nil,
	}
	if err != nil {
		m.ErrorPhase = errorPhase(err)
	}
	mc.Record(m)

	return err
}

// GetMetrics returns a copy of all collected metrics.
func (mc *MetricsCollector) GetMetrics() []OperationMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	// Return a copy to avoid race conditions
	result := make([]OperationMetrics, len(mc.metrics))
	copy(result, mc.metrics)
	return result
}

// Clear removes all collected metrics.
func (mc *MetricsCollector) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.metrics = mc.metrics[:0]
}

// SetEnabled enables or disables metrics collection.
func (mc *MetricsCollector) SetEnabled(enabled bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.enabled = enabled
}

// GetSummary returns a summary of collected metrics.
func (mc *MetricsCollector) GetSummary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if len(mc.metrics) == 0 {
		return MetricsSummary{}
	}

	var totalDuration time.Duration
	var totalRows int64
	failures := 0
	nodeCounts := make(map[string]int)

	for _, metric := range mc.metrics {
		totalDuration += metric.Duration
		totalRows += metric.RowsIn
		nodeCounts[metric.Node]++
		if metric.Failed {
			failures++
		}
	}

	return MetricsSummary{
		TotalExecutions: len(mc.metrics),
		Failures:        failures,
		TotalDuration:   totalDuration,
		TotalRows:       totalRows,
		NodeCounts:      nodeCounts,
		AverageDuration: totalDuration / time.Duration(len(mc.metrics)),
	}
}

// MetricsSummary provides aggregate statistics for collected metrics.
type MetricsSummary struct {
	TotalExecutions int            `json:"total_executions"`
	Failures        int            `json:"failures"`
	TotalDuration   time.Duration  `json:"total_duration"`
	TotalRows       int64          `json:"total_rows"`
	NodeCounts      map[string]int `json:"node_counts"`
	AverageDuration time.Duration  `json:"average_duration"`
}
