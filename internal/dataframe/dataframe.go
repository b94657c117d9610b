// Package dataframe provides the rectangular tables exchanged between the
// host and the nodes: ordered, named, Arrow-backed columns of equal length.
package dataframe

import (
	"context"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tsprep/internal/errors"
)

// DataFrame represents a table of data with typed columns
type DataFrame struct {
	columns map[string]ISeries
	order   []string // Maintains column order
}

// New creates a new DataFrame from a slice of ISeries.
// The DataFrame takes ownership of the series.
func New(series ...ISeries) *DataFrame {
	columns := make(map[string]ISeries)
	order := make([]string, 0, len(series))

	for _, s := range series {
		name := s.Name()
		if _, exists := columns[name]; !exists {
			order = append(order, name)
		}
		columns[name] = s
	}

	return &DataFrame{
		columns: columns,
		order:   order,
	}
}

// Columns returns the names of all columns in order
func (df *DataFrame) Columns() []string {
	if len(df.order) == 0 {
		return []string{}
	}
	return append([]string(nil), df.order...)
}

// Len returns the number of rows (assumes all columns have same length)
func (df *DataFrame) Len() int {
	if len(df.order) == 0 {
		return 0
	}
	return df.columns[df.order[0]].Len()
}

// Width returns the number of columns
func (df *DataFrame) Width() int {
	return len(df.columns)
}

// Column returns the series for the given column name
func (df *DataFrame) Column(name string) (ISeries, bool) {
	series, exists := df.columns[name]
	return series, exists
}

// HasColumn checks if a column exists
func (df *DataFrame) HasColumn(name string) bool {
	_, exists := df.columns[name]
	return exists
}

// Schema describes the columns of the DataFrame without touching data
func (df *DataFrame) Schema() Schema {
	schema := make(Schema, 0, len(df.order))
	for _, name := range df.order {
		s := df.columns[name]
		schema = append(schema, Field{Name: name, Type: s.DataType(), LogicalType: s.LogicalType()})
	}
	return schema
}

// Select returns a new DataFrame with only the specified columns.
// Missing names are skipped.
func (df *DataFrame) Select(names ...string) *DataFrame {
	selected := make([]ISeries, 0, len(names))
	for _, name := range names {
		if s, exists := df.columns[name]; exists {
			selected = append(selected, retain(s, name))
		}
	}
	return New(selected...)
}

// Drop returns a new DataFrame without the specified columns
func (df *DataFrame) Drop(names ...string) *DataFrame {
	dropSet := make(map[string]bool)
	for _, name := range names {
		dropSet[name] = true
	}

	kept := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		if !dropSet[name] {
			kept = append(kept, retain(df.columns[name], name))
		}
	}
	return New(kept...)
}

// Rename returns a new DataFrame where column oldName is called newName.
// Column order is preserved; an existing column named newName is replaced.
func (df *DataFrame) Rename(oldName, newName string) (*DataFrame, error) {
	if !df.HasColumn(oldName) {
		return nil, errors.NewColumnNotFoundError("rename", oldName)
	}

	renamed := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		switch name {
		case oldName:
			renamed = append(renamed, retain(df.columns[name], newName))
		case newName:
			// replaced by the renamed column
		default:
			renamed = append(renamed, retain(df.columns[name], name))
		}
	}
	return New(renamed...), nil
}

// WithColumn returns a new DataFrame with s appended, or replacing the column
// of the same name in place. The new DataFrame takes ownership of s.
func (df *DataFrame) WithColumn(s ISeries) (*DataFrame, error) {
	if df.Width() > 0 && s.Len() != df.Len() {
		return nil, errors.ErrMismatchedLength
	}

	result := make([]ISeries, 0, len(df.order)+1)
	replaced := false
	for _, name := range df.order {
		if name == s.Name() {
			result = append(result, s)
			replaced = true
			continue
		}
		result = append(result, retain(df.columns[name], name))
	}
	if !replaced {
		result = append(result, s)
	}
	return New(result...), nil
}

// Take gathers rows by position. An index of -1 produces a null row in every column.
func (df *DataFrame) Take(indices []int) (*DataFrame, error) {
	mem := memory.NewGoAllocator()

	taken := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		s := df.columns[name]
		arr := s.Array()
		out, err := takeArray(arr, indices, mem)
		arr.Release()
		if err != nil {
			for _, t := range taken {
				t.Release()
			}
			return nil, fmt.Errorf("taking rows of column %s: %w", name, err)
		}
		taken = append(taken, Wrap(name, s.LogicalType(), out))
		out.Release()
	}
	return New(taken...), nil
}

// String returns a string representation of the DataFrame
func (df *DataFrame) String() string {
	if len(df.columns) == 0 {
		return "DataFrame[empty]"
	}

	parts := []string{fmt.Sprintf("DataFrame[%dx%d]", df.Len(), df.Width())}

	for _, name := range df.order {
		series := df.columns[name]
		parts = append(parts, fmt.Sprintf("  %s: %s", name, series.DataType().String()))
	}

	return strings.Join(parts, "\n")
}

// Release releases all underlying Arrow memory
func (df *DataFrame) Release() {
	for _, series := range df.columns {
		series.Release()
	}
}

// takeArray gathers the selected rows of arr into a new array of the same
// type. Negative indices are null in the index array, which the take kernel
// turns into null rows.
func takeArray(arr arrow.Array, indices []int, mem memory.Allocator) (arrow.Array, error) {
	builder := array.NewInt64Builder(mem)
	defer builder.Release()
	builder.Reserve(len(indices))

	for _, idx := range indices {
		if idx >= arr.Len() {
			return nil, errors.ErrInvalidIndex
		}
		if idx < 0 {
			builder.AppendNull()
			continue
		}
		builder.Append(int64(idx))
	}
	idxArr := builder.NewArray()
	defer idxArr.Release()

	ctx := compute.WithAllocator(context.Background(), mem)
	return compute.TakeArray(ctx, arr, idxArr)
}
