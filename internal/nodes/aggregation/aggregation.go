// Package aggregation implements the Aggregation Granularity node: it reduces
// a timestamp column to a granularity and aggregates a numeric column per
// reduced period.
package aggregation

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tsprep/internal/aggregate"
	"github.com/paveg/tsprep/internal/dataframe"
	tserrors "github.com/paveg/tsprep/internal/errors"
	"github.com/paveg/tsprep/internal/node"
	"github.com/paveg/tsprep/internal/series"
	"github.com/paveg/tsprep/internal/temporal"
)

// ID is the registry id of the node
const ID = "aggregation_granularity"

// Settings configures the node
type Settings struct {
	DatetimeColumn    string `yaml:"datetime_column" json:"datetime_column"`
	AggregationColumn string `yaml:"aggregation_column" json:"aggregation_column"`
	Granularity       string `yaml:"granularity" json:"granularity"`
	Method            string `yaml:"method" json:"method"`
}

// DefaultSettings returns the settings of a freshly created node
func DefaultSettings() Settings {
	return Settings{
		Granularity: temporal.GranularityDay.String(),
		Method:      aggregate.MethodMean.String(),
	}
}

// Node is the Aggregation Granularity node
type Node struct {
	settings Settings

	// resolved by Configure
	datetimeColumn    string
	aggregationColumn string
	kind              temporal.Kind
	granularity       temporal.Granularity
	method            aggregate.Method
	// exact keeps integer input as Int64 for methods with an integer form
	exact      bool
	configured bool
}

// New creates the node with default settings
func New() node.Node {
	return &Node{settings: DefaultSettings()}
}

// NewWithSettings creates the node with the given settings
func NewWithSettings(s Settings) *Node {
	return &Node{settings: s}
}

// Metadata describes the node
func (n *Node) Metadata() node.Metadata {
	return node.Metadata{
		ID:       ID,
		Name:     "Aggregation Granularity",
		Category: "Preprocessing",
		Description: "Aggregates a numeric column per period of a timestamp column. " +
			"Granularities: year, quarter, month, week, day, hour, minute, second. " +
			"Methods: mode, min, max, sum, variance, count, mean. Mode returns the first mode in row order.",
		Inputs: []node.Port{{
			Name:        "Input Data",
			Description: "Table containing the timestamp column and the numeric column to aggregate",
		}},
		Outputs: []node.Port{{
			Name:        "Aggregated Output",
			Description: "The timestamp reduced to the granularity and the aggregated numeric column",
		}},
	}
}

// Settings returns the settings for decoding
func (n *Node) Settings() any {
	return &n.settings
}

// Configure resolves the columns and checks the granularity against the timestamp kind
func (n *Node) Configure(cctx *node.ConfigurationContext, schema dataframe.Schema) (dataframe.Schema, error) {
	const op = ID + ".configure"

	datetimeColumn, err := node.ColumnExistsOrPreset(cctx, op, n.settings.DatetimeColumn, schema, node.IsTimestampColumn, "")
	if err != nil {
		return nil, err
	}
	aggregationColumn, err := node.ColumnExistsOrPreset(cctx, op, n.settings.AggregationColumn, schema, node.IsNumericColumn, "")
	if err != nil {
		return nil, err
	}

	granularity, err := temporal.ParseGranularity(n.settings.Granularity)
	if err != nil {
		return nil, tserrors.NewValidationError(op, "", err.Error())
	}
	method, err := aggregate.ParseMethod(n.settings.Method)
	if err != nil {
		return nil, tserrors.NewValidationError(op, "", err.Error())
	}

	field, _ := schema.Field(datetimeColumn)
	kind, _ := node.TimestampKind(field)
	if err := temporal.ValidateGranularity(op, datetimeColumn, kind, granularity); err != nil {
		return nil, err
	}

	n.settings.DatetimeColumn = datetimeColumn
	n.settings.AggregationColumn = aggregationColumn
	n.datetimeColumn = datetimeColumn
	n.aggregationColumn = aggregationColumn
	n.kind = kind
	n.granularity = granularity
	n.method = method
	valueField, _ := schema.Field(aggregationColumn)
	n.exact = method.KeepsInteger() && aggregate.IsExactInteger(valueField.Type)
	n.configured = true

	return n.outputSchema(), nil
}

func (n *Node) outputSchema() dataframe.Schema {
	var ts dataframe.Field
	switch {
	case n.granularity.CollapsesToYear():
		ts = dataframe.Field{Name: n.datetimeColumn, Type: arrow.PrimitiveTypes.Int64}
	case n.granularity == temporal.GranularityDay:
		ts = dataframe.Field{Name: n.datetimeColumn, Type: arrow.BinaryTypes.String, LogicalType: temporal.DateDescriptor}
	default:
		ts = dataframe.Field{Name: n.datetimeColumn, Type: arrow.BinaryTypes.String, LogicalType: n.kind.Descriptor()}
	}

	schema := dataframe.Schema{ts}
	if keepsSubfield(n.granularity) {
		schema = append(schema, dataframe.Field{Name: string(n.granularity.Subfield()), Type: arrow.PrimitiveTypes.Int64})
	}

	valueType := arrow.DataType(arrow.PrimitiveTypes.Float64)
	if n.method.IntegerResult() || n.exact {
		valueType = arrow.PrimitiveTypes.Int64
	}
	return append(schema, dataframe.Field{Name: n.aggregationColumn, Type: valueType})
}

// keepsSubfield reports whether the output carries the subfield column. For
// quarter, month and week the reduced year alone does not identify the period.
func keepsSubfield(g temporal.Granularity) bool {
	switch g {
	case temporal.GranularityQuarter, temporal.GranularityMonth, temporal.GranularityWeek:
		return true
	}
	return false
}

// Execute aggregates the input table
func (n *Node) Execute(ctx context.Context, ectx *node.ExecutionContext, input *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	const op = ID + ".execute"

	if !n.configured {
		cctx := node.NewConfigurationContext(ectx.Logger)
		if _, err := n.Configure(cctx, input.Schema()); err != nil {
			return nil, err
		}
	}
	ectx.SetProgress(0, "casting timestamp column")

	tsCol, ok := input.Column(n.datetimeColumn)
	if !ok {
		return nil, tserrors.NewColumnNotFoundError(op, n.datetimeColumn)
	}
	valueCol, ok := input.Column(n.aggregationColumn)
	if !ok {
		return nil, tserrors.NewColumnNotFoundError(op, n.aggregationColumn)
	}

	cast, err := temporal.NewCaster(ectx.Config).Cast(ctx, tsCol, n.kind)
	if err != nil {
		return nil, err
	}
	if err := ectx.CheckCanceled(ctx); err != nil {
		return nil, err
	}
	ectx.SetProgress(0.25, "reducing timestamps")

	reduced, err := temporal.Reduce(temporal.ExtractFields(cast), n.granularity)
	if err != nil {
		return nil, err
	}
	ectx.SetProgress(0.5, "grouping")

	arr := valueCol.Array()
	defer arr.Release()
	keys := groupKeys(reduced)

	var out *dataframe.DataFrame
	var groupCount int
	if n.exact {
		values, valid, ok := aggregate.Int64s(arr)
		if !ok {
			return nil, tserrors.NewExecutionError(op, n.aggregationColumn,
				"expected an integer column, got "+arr.DataType().String(), nil)
		}
		groups, err := aggregate.GroupByInt(keys, values, valid, n.method)
		if err != nil {
			return nil, tserrors.NewInternalError(op, err)
		}
		if err := ectx.CheckCanceled(ctx); err != nil {
			return nil, err
		}
		ectx.SetProgress(0.75, "building output")
		groupCount = len(groups)
		out, err = buildOutput(reduced, groups, n.datetimeColumn, n.aggregationColumn, false)
		if err != nil {
			return nil, err
		}
	} else {
		values, valid, err := aggregate.Float64s(arr)
		if err != nil {
			return nil, tserrors.NewExecutionError(op, n.aggregationColumn, "non-numeric value", err)
		}
		groups, err := aggregate.GroupBy(keys, values, valid, n.method)
		if err != nil {
			return nil, tserrors.NewInternalError(op, err)
		}
		if err := ectx.CheckCanceled(ctx); err != nil {
			return nil, err
		}
		ectx.SetProgress(0.75, "building output")
		groupCount = len(groups)
		out, err = buildOutput(reduced, groups, n.datetimeColumn, n.aggregationColumn, n.method.IntegerResult())
		if err != nil {
			return nil, err
		}
	}

	ectx.Logger.Info().
		Str("granularity", n.granularity.String()).
		Str("method", n.method.String()).
		Int("rows_in", input.Len()).
		Int("groups", groupCount).
		Msg("aggregated")
	ectx.SetProgress(1, "done")
	return out, nil
}

// groupKeys builds the grouping key of every row: the reduced year or
// instant, plus the raw subfield for granularities that collapse to a year
// but need it to tell periods apart.
func groupKeys(r *temporal.ReducedTable) []aggregate.Key {
	keys := make([]aggregate.Key, r.Len())
	if keepsSubfield(r.Granularity()) {
		for i, sub := range r.Keys() {
			keys[i].Secondary = int64(sub)
		}
	}

	if years := r.Years(); years != nil {
		for i, y := range years {
			keys[i].Primary = int64(y)
		}
		return keys
	}

	for i, t := range r.Zoned() {
		keys[i].Primary = t.UnixNano()
	}
	return keys
}

// buildOutput writes one row per group: the reduced timestamp, the
// subfield when kept and the aggregated value. counts converts float
// results to Int64.
func buildOutput[T aggregate.Number](r *temporal.ReducedTable, groups []aggregate.Group[T], datetimeColumn, aggregationColumn string, counts bool) (*dataframe.DataFrame, error) {
	mem := memory.NewGoAllocator()
	columns := make([]dataframe.ISeries, 0, 3)

	if r.Granularity().CollapsesToYear() {
		years := make([]int64, len(groups))
		for i, g := range groups {
			years[i] = g.Key.Primary
		}
		columns = append(columns, series.New(datetimeColumn, years, mem))
	} else {
		reduced, _ := r.Series()
		stamps := make([]string, len(groups))
		for i, g := range groups {
			stamps[i] = reduced.Format(g.FirstRow)
		}
		columns = append(columns, series.New(datetimeColumn, stamps, mem).WithLogicalType(reduced.Kind.Descriptor()))
	}

	if keepsSubfield(r.Granularity()) {
		sub := make([]int64, len(groups))
		for i, g := range groups {
			sub[i] = g.Key.Secondary
		}
		columns = append(columns, series.New(string(r.Granularity().Subfield()), sub, mem))
	}

	valid := make([]bool, len(groups))
	for i, g := range groups {
		valid[i] = g.Valid
	}

	var values dataframe.ISeries
	var err error
	if counts {
		ints := make([]int64, len(groups))
		for i, g := range groups {
			ints[i] = int64(g.Value)
		}
		values, err = series.NewNullable(aggregationColumn, ints, valid, mem)
	} else {
		vals := make([]T, len(groups))
		for i, g := range groups {
			vals[i] = g.Value
		}
		values, err = series.NewNullable(aggregationColumn, vals, valid, mem)
	}
	if err != nil {
		for _, c := range columns {
			c.Release()
		}
		return nil, fmt.Errorf("building %s column: %w", aggregationColumn, err)
	}

	return dataframe.New(append(columns, values)...), nil
}
