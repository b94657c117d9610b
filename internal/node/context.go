package node

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/paveg/tsprep/internal/config"
	"github.com/rs/zerolog"
)

// ConfigurationContext collects the warnings raised while a node is configured
type ConfigurationContext struct {
	logger   zerolog.Logger
	warnings []string
}

// NewConfigurationContext creates a configuration context logging to logger
func NewConfigurationContext(logger zerolog.Logger) *ConfigurationContext {
	return &ConfigurationContext{logger: logger}
}

// SetWarning records a non-fatal message for the operator
func (c *ConfigurationContext) SetWarning(msg string) {
	c.warnings = append(c.warnings, msg)
	c.logger.Warn().Msg(msg)
}

// Warnings returns the warnings recorded so far
func (c *ConfigurationContext) Warnings() []string {
	return append([]string(nil), c.warnings...)
}

// ProgressFunc receives progress updates as a fraction in [0, 1]
type ProgressFunc func(fraction float64, message string)

// ExecutionContext carries per-execution state: the run id, the engine
// configuration, a logger tagged with both and the progress sink.
type ExecutionContext struct {
	RunID  string
	Config config.Config
	Logger zerolog.Logger

	progress ProgressFunc
}

// NewExecutionContext creates the context of one node execution with a fresh run id
func NewExecutionContext(cfg config.Config, logger zerolog.Logger, nodeID string, progress ProgressFunc) *ExecutionContext {
	runID := uuid.NewString()
	return &ExecutionContext{
		RunID:    runID,
		Config:   cfg,
		Logger:   logger.With().Str("run_id", runID).Str("node", nodeID).Logger(),
		progress: progress,
	}
}

// SetProgress reports advisory progress. Values are clamped to [0, 1].
func (e *ExecutionContext) SetProgress(fraction float64, message string) {
	switch {
	case fraction < 0:
		fraction = 0
	case fraction > 1:
		fraction = 1
	}
	e.Logger.Debug().Float64("progress", fraction).Msg(message)
	if e.progress != nil {
		e.progress(fraction, message)
	}
}

// CheckCanceled returns an error once ctx is done
func (e *ExecutionContext) CheckCanceled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("execution canceled: %w", err)
	}
	return nil
}
