// Package tsprep normalizes timestamp columns of tabular data and runs them
// through a workflow of preprocessing nodes: granularity aggregation,
// timestamp alignment and differencing.
//
// This package is the public API of the module. Tables are read from and
// written to CSV or Parquet files; a workflow is a YAML document listing the
// nodes to apply in order.
package tsprep

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tsprep/internal/config"
	"github.com/paveg/tsprep/internal/dataframe"
	tsio "github.com/paveg/tsprep/internal/io"
	"github.com/paveg/tsprep/internal/monitoring"
	"github.com/paveg/tsprep/internal/node"
	"github.com/paveg/tsprep/internal/nodes"
	"github.com/paveg/tsprep/internal/workflow"
	"github.com/rs/zerolog"
)

type (
	// DataFrame is an Arrow-backed table
	DataFrame = dataframe.DataFrame
	// Schema describes the columns of a DataFrame
	Schema = dataframe.Schema
	// Workflow is an ordered list of node steps
	Workflow = workflow.Workflow
	// Plan is a workflow configured against an input schema
	Plan = workflow.Plan
	// Config is the engine configuration shared by all nodes
	Config = config.Config
	// Registry maps node ids to factories
	Registry = node.Registry
	// NodeMetadata describes a registered node
	NodeMetadata = node.Metadata
	// RunnerOption configures workflow execution
	RunnerOption = workflow.RunnerOption
)

// NewRegistry returns a registry holding every built-in node
func NewRegistry() *Registry {
	return nodes.NewRegistry()
}

// Nodes lists the built-in nodes sorted by id
func Nodes() []NodeMetadata {
	return NewRegistry().List()
}

// LoadConfig reads the engine configuration from an optional file and
// TSPREP_* environment variables.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// LoadWorkflow parses a YAML workflow document
func LoadWorkflow(r io.Reader) (*Workflow, error) {
	return workflow.Load(r)
}

// LoadWorkflowFile parses the YAML workflow document at path
func LoadWorkflowFile(path string) (*Workflow, error) {
	return workflow.LoadFile(path)
}

// ReadFile reads a CSV or Parquet file, chosen by extension
func ReadFile(path string) (*DataFrame, error) {
	return tsio.ReadFile(path, memory.NewGoAllocator())
}

// WriteFile writes df as CSV or Parquet, chosen by extension
func WriteFile(path string, df *DataFrame) error {
	return tsio.WriteFile(path, df)
}

// WithConfig sets the engine configuration
func WithConfig(cfg Config) RunnerOption {
	return workflow.WithConfig(cfg)
}

// WithLogger sets the logger used by the runner and the nodes
func WithLogger(logger zerolog.Logger) RunnerOption {
	return workflow.WithLogger(logger)
}

// WithMetrics records every node execution in collector
func WithMetrics(collector *monitoring.MetricsCollector) RunnerOption {
	return workflow.WithCollector(collector)
}

// WithProgress receives the overall progress in [0, 1]
func WithProgress(fn func(fraction float64, message string)) RunnerOption {
	return workflow.WithProgress(fn)
}

// Run applies wf to df with the built-in nodes. The caller keeps ownership
// of df and owns the result.
func Run(ctx context.Context, wf *Workflow, df *DataFrame, opts ...RunnerOption) (*DataFrame, error) {
	return workflow.NewRunner(NewRegistry(), opts...).Run(ctx, wf, df)
}

// Job names the files of one batch run
type Job struct {
	Workflow string
	Input    string
	Output   string
}

// Result summarizes a finished job
type Result struct {
	Rows     int
	Columns  []string
	Warnings []string
}

// RunJob reads the input table, runs the workflow on it and writes the
// output table. Configuration warnings are returned even though the job
// succeeded.
func RunJob(ctx context.Context, job Job, opts ...RunnerOption) (*Result, error) {
	wf, err := LoadWorkflowFile(job.Workflow)
	if err != nil {
		return nil, err
	}

	df, err := ReadFile(job.Input)
	if err != nil {
		return nil, err
	}
	defer df.Release()

	runner := workflow.NewRunner(NewRegistry(), opts...)
	plan, err := runner.Configure(wf, df.Schema())
	if err != nil {
		return nil, fmt.Errorf("configuring workflow: %w", err)
	}

	out, err := runner.Execute(ctx, plan, df)
	if err != nil {
		return nil, fmt.Errorf("executing workflow: %w", err)
	}
	defer out.Release()

	if err := WriteFile(job.Output, out); err != nil {
		return nil, err
	}

	return &Result{
		Rows:     out.Len(),
		Columns:  out.Columns(),
		Warnings: plan.Warnings,
	}, nil
}
