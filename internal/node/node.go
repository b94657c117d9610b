// Package node defines the contract between the workflow host and the
// preprocessing nodes: metadata, settings, the configure phase that checks
// settings against a schema and the execute phase that transforms a table.
package node

import (
	"context"

	"github.com/paveg/tsprep/internal/dataframe"
)

// Port describes a table input or output of a node
type Port struct {
	Name        string
	Description string
}

// Metadata describes a node to the host
type Metadata struct {
	ID          string
	Name        string
	Category    string
	Description string
	Inputs      []Port
	Outputs     []Port
}

// Node is a unit of work in a workflow. The host calls Configure once with
// the input schema before any data exists, then Execute with the data.
type Node interface {
	// Metadata describes the node
	Metadata() Metadata
	// Settings returns a pointer to the settings struct the host decodes into
	Settings() any
	// Configure validates the settings against the input schema and returns the output schema
	Configure(cctx *ConfigurationContext, schema dataframe.Schema) (dataframe.Schema, error)
	// Execute transforms the input table. The caller owns both the input and the result.
	Execute(ctx context.Context, ectx *ExecutionContext, input *dataframe.DataFrame) (*dataframe.DataFrame, error)
}

// Factory creates a node with default settings
type Factory func() Node
