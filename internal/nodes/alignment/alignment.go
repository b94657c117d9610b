// Package alignment implements the Timestamp Alignment node: it inserts a
// row for every timestamp missing from the regular sequence between the
// minimum and maximum of a timestamp column.
package alignment

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tsprep/internal/dataframe"
	tserrors "github.com/paveg/tsprep/internal/errors"
	"github.com/paveg/tsprep/internal/node"
	"github.com/paveg/tsprep/internal/series"
	"github.com/paveg/tsprep/internal/temporal"
)

// ID is the registry id of the node
const ID = "timestamp_alignment"

// NewColumnSuffix is appended to the timestamp column name for the aligned column
const NewColumnSuffix = " (New)"

// Settings configures the node
type Settings struct {
	DatetimeColumn  string `yaml:"datetime_column" json:"datetime_column"`
	ReplaceOriginal bool   `yaml:"replace_original" json:"replace_original"`
	Period          string `yaml:"period" json:"period"`
}

// DefaultSettings returns the settings of a freshly created node
func DefaultSettings() Settings {
	return Settings{
		ReplaceOriginal: true,
		Period:          temporal.PeriodHour.String(),
	}
}

// Node is the Timestamp Alignment node
type Node struct {
	settings Settings

	column     string
	kind       temporal.Kind
	period     temporal.Period
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
		Name:     "Timestamp Alignment",
		Category: "Preprocessing",
		Description: "Aligns a timestamp column to a period by inserting the timestamps missing between " +
			"its minimum and maximum. Inserted rows are missing in every other column.",
		Inputs: []node.Port{{
			Name:        "Input Data",
			Description: "Table containing the timestamp column to align",
		}},
		Outputs: []node.Port{{
			Name:        "Aligned Timestamp",
			Description: "The input rows plus one row per missing timestamp, sorted by the aligned column",
		}},
	}
}

// Settings returns the settings for decoding
func (n *Node) Settings() any {
	return &n.settings
}

// alignedName names the aligned column until it replaces the original
func (n *Node) alignedName() string {
	return n.column + NewColumnSuffix
}

// Configure resolves the timestamp column and checks the period against its kind
func (n *Node) Configure(cctx *node.ConfigurationContext, schema dataframe.Schema) (dataframe.Schema, error) {
	const op = ID + ".configure"

	column, err := node.ColumnExistsOrPreset(cctx, op, n.settings.DatetimeColumn, schema, node.IsTimestampColumn, "")
	if err != nil {
		return nil, err
	}
	period, err := temporal.ParsePeriod(n.settings.Period)
	if err != nil {
		return nil, tserrors.NewValidationError(op, "", err.Error())
	}

	field, _ := schema.Field(column)
	kind, _ := node.TimestampKind(field)
	if err := temporal.ValidatePeriod(op, column, kind, period); err != nil {
		return nil, err
	}

	n.settings.DatetimeColumn = column
	n.column = column
	n.kind = kind
	n.period = period
	n.configured = true

	alignedName := n.alignedName()
	aligned := dataframe.Field{Name: alignedName, Type: arrow.BinaryTypes.String, LogicalType: kind.Descriptor()}
	out := make(dataframe.Schema, 0, len(schema)+1)
	// an existing column of the new name is replaced
	for _, f := range schema.Without(alignedName) {
		out = append(out, f)
		if f.Name == column {
			out = append(out, aligned)
		}
	}
	if !n.settings.ReplaceOriginal {
		return out, nil
	}
	out = out.Without(column)
	for i := range out {
		if out[i].Name == alignedName {
			out[i].Name = column
		}
	}
	return out, nil
}

// Execute aligns the input table
func (n *Node) Execute(ctx context.Context, ectx *node.ExecutionContext, input *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	const op = ID + ".execute"

	if !n.configured {
		cctx := node.NewConfigurationContext(ectx.Logger)
		if _, err := n.Configure(cctx, input.Schema()); err != nil {
			return nil, err
		}
	}
	ectx.SetProgress(0, "casting timestamp column")

	col, ok := input.Column(n.column)
	if !ok {
		return nil, tserrors.NewColumnNotFoundError(op, n.column)
	}
	cast, err := temporal.NewCaster(ectx.Config).Cast(ctx, col, n.kind)
	if err != nil {
		return nil, err
	}
	if err := ectx.CheckCanceled(ctx); err != nil {
		return nil, err
	}
	ectx.SetProgress(0.3, "generating sequence")

	mapping, err := temporal.NewAligner(ectx.Config.MaxAlignmentRows).Align(cast, n.period)
	if err != nil {
		return nil, err
	}
	if mapping.Kind == temporal.KindZonedDateTime {
		ectx.Logger.Debug().Str("zone", temporal.OffsetString(mapping.Offset)).Msg("single zone in column")
	}
	if err := ectx.CheckCanceled(ctx); err != nil {
		return nil, err
	}
	ectx.SetProgress(0.6, "gathering rows")

	out, err := n.buildOutput(input, mapping)
	if err != nil {
		return nil, err
	}

	ectx.Logger.Info().
		Str("period", n.period.String()).
		Int("rows_in", input.Len()).
		Int("inserted", mapping.Inserted).
		Msg("aligned")
	ectx.SetProgress(1, "done")
	return out, nil
}

func (n *Node) buildOutput(input *dataframe.DataFrame, mapping *temporal.GapFilledMapping) (*dataframe.DataFrame, error) {
	const op = ID + ".execute"

	stamps := make([]string, mapping.Len())
	for i := range stamps {
		stamps[i] = mapping.Format(i)
	}
	alignedName := n.alignedName()
	aligned := series.New(alignedName, stamps, memory.NewGoAllocator()).
		WithLogicalType(mapping.Kind.Descriptor())

	gathered, err := input.Take(mapping.Source)
	if err != nil {
		aligned.Release()
		return nil, tserrors.NewInternalError(op, err)
	}
	base := gathered.Drop(alignedName)
	gathered.Release()
	defer base.Release()

	names := make([]string, 0, base.Width()+1)
	for _, name := range base.Columns() {
		names = append(names, name)
		if name == n.column {
			names = append(names, alignedName)
		}
	}

	withAligned, err := base.WithColumn(aligned)
	if err != nil {
		aligned.Release()
		return nil, tserrors.NewInternalError(op, err)
	}
	ordered := withAligned.Select(names...)
	withAligned.Release()
	if !n.settings.ReplaceOriginal {
		return ordered, nil
	}

	defer ordered.Release()
	replaced, err := ordered.Rename(alignedName, n.column)
	if err != nil {
		return nil, tserrors.NewInternalError(op, err)
	}
	return replaced, nil
}
