// Package differencing implements the Differencer node, which subtracts from
// every row of a numeric column the value a fixed number of rows earlier.
package differencing

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tsprep/internal/aggregate"
	"github.com/paveg/tsprep/internal/dataframe"
	tserrors "github.com/paveg/tsprep/internal/errors"
	"github.com/paveg/tsprep/internal/node"
	"github.com/paveg/tsprep/internal/series"
	"golang.org/x/exp/constraints"
)

// ID is the registry id of the node
const ID = "differencing"

// Settings configures the node
type Settings struct {
	TargetColumn string `yaml:"target_column" json:"target_column"`
	Lags         int    `yaml:"lags" json:"lags"`
}

// DefaultSettings returns the settings of a freshly created node
func DefaultSettings() Settings {
	return Settings{Lags: 1}
}

// Node is the Differencer node
type Node struct {
	settings   Settings
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
		Name:     "Differencer",
		Category: "Preprocessing",
		Description: "Differences a column by subtracting from each row the value of a prior row. " +
			"A lag of 1 subtracts the previous row, a lag of 2 the row before the previous.",
		Inputs: []node.Port{{
			Name:        "Input Data",
			Description: "Table containing the numeric column to apply differencing",
		}},
		Outputs: []node.Port{{
			Name:        "Input Data with Differenced Column",
			Description: "The input table with the differenced column appended",
		}},
	}
}

// Settings returns the settings for decoding
func (n *Node) Settings() any {
	return &n.settings
}

// OutputColumn names the differenced column, for example "sales(-1)"
func OutputColumn(target string, lags int) string {
	return fmt.Sprintf("%s(%d)", target, -lags)
}

// Configure resolves the target column and appends the differenced column
func (n *Node) Configure(cctx *node.ConfigurationContext, schema dataframe.Schema) (dataframe.Schema, error) {
	const op = ID + ".configure"

	column, err := node.ColumnExistsOrPreset(cctx, op, n.settings.TargetColumn, schema, node.IsNumericColumn, "")
	if err != nil {
		return nil, err
	}
	if n.settings.Lags < 1 {
		return nil, tserrors.NewValidationError(op, column, fmt.Sprintf("lags must be at least 1, got %d", n.settings.Lags))
	}

	n.settings.TargetColumn = column
	n.configured = true
	return schema.With(dataframe.Field{
		Name: OutputColumn(column, n.settings.Lags),
		Type: arrow.PrimitiveTypes.Float64,
	}), nil
}

// Execute appends the differenced column to the input table
func (n *Node) Execute(ctx context.Context, ectx *node.ExecutionContext, input *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	const op = ID + ".execute"

	if !n.configured {
		cctx := node.NewConfigurationContext(ectx.Logger)
		if _, err := n.Configure(cctx, input.Schema()); err != nil {
			return nil, err
		}
	}
	ectx.SetProgress(0, "differencing")

	col, ok := input.Column(n.settings.TargetColumn)
	if !ok {
		return nil, tserrors.NewColumnNotFoundError(op, n.settings.TargetColumn)
	}
	arr := col.Array()
	defer arr.Release()

	var (
		values []float64
		valid  []bool
	)
	switch a := arr.(type) {
	case *array.Int64:
		values, valid = difference(a.Int64Values(), validity(a), n.settings.Lags)
	case *array.Int32:
		values, valid = difference(a.Int32Values(), validity(a), n.settings.Lags)
	case *array.Float64:
		values, valid = difference(a.Float64Values(), validity(a), n.settings.Lags)
	case *array.Float32:
		values, valid = difference(a.Float32Values(), validity(a), n.settings.Lags)
	default:
		raw, rawValid, err := aggregate.Float64s(arr)
		if err != nil {
			return nil, tserrors.NewExecutionError(op, n.settings.TargetColumn, "non-numeric value", err)
		}
		values, valid = difference(raw, rawValid, n.settings.Lags)
	}
	if err := ectx.CheckCanceled(ctx); err != nil {
		return nil, err
	}

	diffed, err := series.NewNullable(OutputColumn(n.settings.TargetColumn, n.settings.Lags), values, valid, memory.NewGoAllocator())
	if err != nil {
		return nil, tserrors.NewInternalError(op, err)
	}
	out, err := input.WithColumn(diffed)
	if err != nil {
		diffed.Release()
		return nil, tserrors.NewInternalError(op, err)
	}

	ectx.Logger.Info().Int("lags", n.settings.Lags).Int("rows", input.Len()).Msg("differenced")
	ectx.SetProgress(1, "done")
	return out, nil
}

func validity(arr arrow.Array) []bool {
	if arr.NullN() == 0 {
		return nil
	}
	valid := make([]bool, arr.Len())
	for i := range valid {
		valid[i] = arr.IsValid(i)
	}
	return valid
}

// difference returns values[i] - values[i-lags] as float64. The first lags
// rows and rows where either operand is null are invalid.
func difference[T constraints.Integer | constraints.Float](values []T, valid []bool, lags int) ([]float64, []bool) {
	out := make([]float64, len(values))
	outValid := make([]bool, len(values))
	for i := lags; i < len(values); i++ {
		if valid != nil && (!valid[i] || !valid[i-lags]) {
			continue
		}
		out[i] = float64(values[i]) - float64(values[i-lags])
		outValid[i] = true
	}
	return out, outValid
}
