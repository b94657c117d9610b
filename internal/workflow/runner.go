package workflow

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/paveg/tsprep/internal/config"
	"github.com/paveg/tsprep/internal/dataframe"
	"github.com/paveg/tsprep/internal/logging"
	"github.com/paveg/tsprep/internal/monitoring"
	"github.com/paveg/tsprep/internal/node"
	"github.com/rs/zerolog"
)

// Runner executes workflows against a node registry
type Runner struct {
	registry  *node.Registry
	cfg       config.Config
	logger    zerolog.Logger
	collector *monitoring.MetricsCollector
	progress  node.ProgressFunc
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithConfig sets the engine configuration passed to every node
func WithConfig(cfg config.Config) RunnerOption {
	return func(r *Runner) {
		r.cfg = cfg
	}
}

// WithLogger replaces the component logger
func WithLogger(logger zerolog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithCollector records node executions in c instead of the global collector
func WithCollector(c *monitoring.MetricsCollector) RunnerOption {
	return func(r *Runner) {
		r.collector = c
	}
}

// WithProgress receives the overall workflow progress
func WithProgress(fn node.ProgressFunc) RunnerOption {
	return func(r *Runner) {
		r.progress = fn
	}
}

// NewRunner creates a runner using the global configuration unless overridden
func NewRunner(registry *node.Registry, opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: registry,
		cfg:      config.GetGlobalConfig(),
		logger:   logging.Get("workflow"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Plan is a configured workflow: the nodes of every step with the schema
// each one will produce.
type Plan struct {
	Steps    []Step
	Nodes    []node.Node
	Schemas  []dataframe.Schema
	Warnings []string
}

// Output returns the schema of the last step
func (p *Plan) Output() dataframe.Schema {
	return p.Schemas[len(p.Schemas)-1]
}

// Configure instantiates and configures every step, feeding each the schema
// produced by the previous one. No data is read.
func (r *Runner) Configure(wf *Workflow, input dataframe.Schema) (*Plan, error) {
	nodes, err := wf.Instantiate(r.registry)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Steps: wf.Steps, Nodes: nodes, Schemas: make([]dataframe.Schema, 0, len(nodes))}
	schema := input
	for i, n := range nodes {
		label := wf.Steps[i].Label()
		cctx := node.NewConfigurationContext(r.logger.With().Str("step", label).Logger())
		schema, err = n.Configure(cctx, schema)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, label, err)
		}
		for _, w := range cctx.Warnings() {
			plan.Warnings = append(plan.Warnings, fmt.Sprintf("%s: %s", label, w))
		}
		plan.Schemas = append(plan.Schemas, schema)
	}
	return plan, nil
}

// Run configures the workflow on the schema of df and executes every step.
// df is not released; intermediate tables are.
func (r *Runner) Run(ctx context.Context, wf *Workflow, df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	plan, err := r.Configure(wf, df.Schema())
	if err != nil {
		return nil, err
	}
	return r.Execute(ctx, plan, df)
}

// Execute runs a configured plan
func (r *Runner) Execute(ctx context.Context, plan *Plan, df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	workflowID := uuid.NewString()
	logger := r.logger.With().Str("workflow_id", workflowID).Logger()
	logger.Info().Int("steps", len(plan.Nodes)).Int("rows", df.Len()).Msg("workflow started")

	current := df
	total := float64(len(plan.Nodes))
	for i, n := range plan.Nodes {
		label := plan.Steps[i].Label()
		step := float64(i)
		progress := func(fraction float64, message string) {
			if r.progress != nil {
				r.progress((step+fraction)/total, label+": "+message)
			}
		}
		ectx := node.NewExecutionContext(r.cfg, logger, n.Metadata().ID, progress)

		var out *dataframe.DataFrame
		run := func() (int, error) {
			var err error
			out, err = n.Execute(ctx, ectx, current)
			if err != nil {
				return 0, err
			}
			return out.Len(), nil
		}

		var err error
		rowsIn := current.Len()
		if r.collector != nil {
			err = r.collector.RecordOperation(ectx.RunID, n.Metadata().ID, rowsIn, run)
		} else {
			err = monitoring.RecordGlobalOperation(ectx.RunID, n.Metadata().ID, rowsIn, run)
		}
		if current != df {
			current.Release()
		}
		if err != nil {
			logger.Error().Err(err).Str("step", label).Msg("step failed")
			return nil, fmt.Errorf("step %d (%s): %w", i+1, label, err)
		}

		if got := out.Schema().Names(); !slices.Equal(got, plan.Schemas[i].Names()) {
			logger.Warn().Str("step", label).Strs("configured", plan.Schemas[i].Names()).Strs("produced", got).
				Msg("output columns differ from configured schema")
		}
		current = out
	}

	logger.Info().Int("rows", current.Len()).Int("columns", current.Width()).Msg("workflow finished")
	return current, nil
}
