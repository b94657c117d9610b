// Package testutil provides common testing utilities for node and workflow tests:
//   - memory allocator setup and cleanup
//   - timestamp table construction
//   - running a node through configure and execute
//   - reading columns back for assertions
package testutil

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tsprep/internal/config"
	"github.com/paveg/tsprep/internal/dataframe"
	"github.com/paveg/tsprep/internal/node"
	"github.com/paveg/tsprep/internal/series"
	"github.com/paveg/tsprep/internal/temporal"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryContext provides memory allocator with automatic cleanup.
type TestMemoryContext struct {
	Allocator memory.Allocator
	cleanup   func()
}

// Release performs cleanup of the memory context.
func (tmc *TestMemoryContext) Release() {
	if tmc.cleanup != nil {
		tmc.cleanup()
	}
}

// SetupMemoryTest creates a memory allocator for tests. Release it with defer.
//
// Example usage:
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
func SetupMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	allocator := memory.NewGoAllocator()

	return &TestMemoryContext{
		Allocator: allocator,
		cleanup: func() {
			// Go allocator memory is reclaimed by the GC
		},
	}
}

// TableOption adds a column to a test table.
type TableOption func(memory.Allocator) dataframe.ISeries

// WithFloats adds a Float64 column.
func WithFloats(name string, values ...float64) TableOption {
	return func(mem memory.Allocator) dataframe.ISeries {
		return series.New(name, values, mem)
	}
}

// WithInts adds an Int64 column.
func WithInts(name string, values ...int64) TableOption {
	return func(mem memory.Allocator) dataframe.ISeries {
		return series.New(name, values, mem)
	}
}

// WithStrings adds an untagged string column.
func WithStrings(name string, values ...string) TableOption {
	return func(mem memory.Allocator) dataframe.ISeries {
		return series.New(name, values, mem)
	}
}

// WithTimestamps adds a string column tagged with the descriptor of kind.
func WithTimestamps(name string, kind temporal.Kind, values ...string) TableOption {
	return func(mem memory.Allocator) dataframe.ISeries {
		return series.New(name, values, mem).WithLogicalType(kind.Descriptor())
	}
}

// WithArray adds a column over the array returned by build, for Arrow types
// the series constructors do not cover.
func WithArray(name string, build func(memory.Allocator) arrow.Array) TableOption {
	return func(mem memory.Allocator) dataframe.ISeries {
		arr := build(mem)
		defer arr.Release()
		return dataframe.Wrap(name, "", arr)
	}
}

// CreateTable builds a table from the given columns in order.
//
// Example usage:
//
//	df := testutil.CreateTable(mem.Allocator,
//		testutil.WithTimestamps("ts", temporal.KindDateTime, "2024-01-01 10:00:00"),
//		testutil.WithFloats("value", 5),
//	)
//	defer df.Release()
func CreateTable(allocator memory.Allocator, opts ...TableOption) *dataframe.DataFrame {
	columns := make([]dataframe.ISeries, 0, len(opts))
	for _, opt := range opts {
		columns = append(columns, opt(allocator))
	}
	return dataframe.New(columns...)
}

// RunNode configures n on the schema of df and executes it with a quiet logger.
// The configured output schema is returned alongside the result.
func RunNode(tb testing.TB, n node.Node, df *dataframe.DataFrame) (*dataframe.DataFrame, dataframe.Schema, error) {
	tb.Helper()

	cctx := node.NewConfigurationContext(zerolog.Nop())
	schema, err := n.Configure(cctx, df.Schema())
	if err != nil {
		return nil, nil, err
	}

	ectx := node.NewExecutionContext(config.NewConfig(), zerolog.Nop(), n.Metadata().ID, nil)
	out, err := n.Execute(context.Background(), ectx, df)
	if err != nil {
		return nil, schema, err
	}
	return out, schema, nil
}

// ColumnStrings returns every cell of a column as written by sinks, "" for nulls.
func ColumnStrings(tb testing.TB, df *dataframe.DataFrame, name string) []string {
	tb.Helper()

	col, ok := df.Column(name)
	require.True(tb, ok, "column %s should exist", name)
	out := make([]string, col.Len())
	for i := range out {
		out[i] = col.GetAsString(i)
	}
	return out
}

// ColumnNulls returns a slice where true marks a null row.
func ColumnNulls(tb testing.TB, df *dataframe.DataFrame, name string) []bool {
	tb.Helper()

	col, ok := df.Column(name)
	require.True(tb, ok, "column %s should exist", name)
	out := make([]bool, col.Len())
	for i := range out {
		out[i] = col.IsNull(i)
	}
	return out
}

// AssertSchemaMatches checks that df has exactly the names, Arrow types and
// logical types of the configured schema.
func AssertSchemaMatches(tb testing.TB, expected dataframe.Schema, df *dataframe.DataFrame) {
	tb.Helper()

	require.NotNil(tb, df, "DataFrame should not be nil")
	actual := df.Schema()
	require.Equal(tb, expected.Names(), actual.Names(), "column names should match")
	for i := range expected {
		assert.Equal(tb, expected[i].Type.ID(), actual[i].Type.ID(), "type of %s", expected[i].Name)
		assert.Equal(tb, expected[i].LogicalType, actual[i].LogicalType, "logical type of %s", expected[i].Name)
	}
}

// AssertDataFrameHasColumns verifies that a DataFrame has exactly the expected columns in order.
func AssertDataFrameHasColumns(tb testing.TB, df *dataframe.DataFrame, expectedColumns []string) {
	tb.Helper()

	require.NotNil(tb, df, "DataFrame should not be nil")
	assert.Equal(tb, expectedColumns, df.Columns(), "columns should match")
}
