package node

import (
	"fmt"

	"github.com/paveg/tsprep/internal/dataframe"
	tserrors "github.com/paveg/tsprep/internal/errors"
	"github.com/paveg/tsprep/internal/temporal"
)

// NoCompatibleColumnMessage is reported when no column is configured and none fits
const NoCompatibleColumnMessage = "No compatible column found in input table"

// ColumnFilter accepts the columns a setting may refer to
type ColumnFilter func(dataframe.Field) bool

// ColumnExistsOrPreset resolves a column setting. An empty setting presets
// the first accepted column of the schema and records a warning. A configured
// column must exist and be accepted by the filter.
func ColumnExistsOrPreset(cctx *ConfigurationContext, op, column string, schema dataframe.Schema, accept ColumnFilter, noneMessage string) (string, error) {
	if noneMessage == "" {
		noneMessage = NoCompatibleColumnMessage
	}

	if column == "" {
		for _, f := range schema {
			if accept == nil || accept(f) {
				cctx.SetWarning(fmt.Sprintf("Preset column to: %s", f.Name))
				return f.Name, nil
			}
		}
		return "", tserrors.NewNoCompatibleColumnError(op, noneMessage)
	}

	f, ok := schema.Field(column)
	if !ok {
		return "", tserrors.NewColumnNotFoundError(op, column)
	}
	if accept != nil && !accept(f) {
		return "", tserrors.NewIncompatibleColumnError(op, column)
	}
	return column, nil
}

// TimestampKind returns the timestamp kind of a column, from its host logical
// type when present and from its Arrow type otherwise.
func TimestampKind(f dataframe.Field) (temporal.Kind, bool) {
	if kind, ok := temporal.Classify(f.LogicalType); ok {
		return kind, true
	}
	return temporal.KindForArrowType(f.Type)
}

// IsTimestampColumn accepts columns of any timestamp kind
func IsTimestampColumn(f dataframe.Field) bool {
	_, ok := TimestampKind(f)
	return ok
}

// IsNumericColumn accepts integer and floating point columns
func IsNumericColumn(f dataframe.Field) bool {
	return f.IsNumeric()
}
