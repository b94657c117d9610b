package monitoring

import (
	"sync"
)

//nolint:gochecknoglobals // Required for singleton pattern in monitoring system
var (
	globalCollector *MetricsCollector
	globalMutex     sync.RWMutex
)

// SetGlobalCollector sets the global metrics collector.
func SetGlobalCollector(collector *MetricsCollector) {
	globalMutex.Lock()
	defer globalMutex.Unlock()
	globalCollector = collector
}

// GetGlobalCollector returns the global metrics collector.
// Returns nil if no global collector has been set.
func GetGlobalCollector() *MetricsCollector {
	globalMutex.RLock()
	defer globalMutex.RUnlock()
	return globalCollector
}

// RecordGlobalOperation records a node execution using the global collector.
// If no global collector is set, fn is executed without recording metrics.
func RecordGlobalOperation(runID, node string, rowsIn int, fn func() (int, error)) error {
	collector := GetGlobalCollector()
	if collector == nil {
		_, err := fn()
		return err
	}
	return collector.RecordOperation(runID, node, rowsIn, fn)
}

// IsGlobalMonitoringEnabled returns true if global monitoring is enabled.
func IsGlobalMonitoringEnabled() bool {
	collector := GetGlobalCollector()
	return collector != nil && collector.IsEnabled()
}

// EnableGlobalMonitoring creates and sets a global metrics collector
// exporting under the given Prometheus namespace.
func EnableGlobalMonitoring(namespace string) *MetricsCollector {
	collector := NewMetricsCollector(true).WithExporter(NewExporter(namespace))
	SetGlobalCollector(collector)
	return collector
}

// DisableGlobalMonitoring disables the global metrics collector.
func DisableGlobalMonitoring() {
	collector := GetGlobalCollector()
	if collector != nil {
		collector.SetEnabled(false)
	}
}

// GetGlobalSummary returns a summary from the global collector.
func GetGlobalSummary() MetricsSummary {
	collector := GetGlobalCollector()
	if collector == nil {
		return MetricsSummary{}
	}
	return collector.GetSummary()
}
