package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/paveg/tsprep/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestNodeError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *errors.NodeError
		expected string
	}{
		{
			name: "Error with column",
			err: &errors.NodeError{
				Op:      "cast",
				Column:  "ts",
				Message: "row 2: cannot parse \"x\"",
			},
			expected: "cast operation failed on column 'ts': row 2: cannot parse \"x\"",
		},
		{
			name: "Error without column",
			err: &errors.NodeError{
				Op:      "align",
				Message: "multiple zones not supported",
			},
			expected: "align operation failed: multiple zones not supported",
		},
		{
			name:     "Error with cause",
			err:      errors.NewInternalError("alignment.execute", stderrors.New("index out of range")),
			expected: "alignment.execute operation failed: internal error occurred: index out of range",
		},
		{
			name: "Parse error with cause",
			err: errors.NewParseError("cast", "ts", 3, "2024-13-01",
				stderrors.New("month out of range")),
			expected: "cast operation failed on column 'ts': row 3: cannot parse \"2024-13-01\": month out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestNodeError_Unwrap(t *testing.T) {
	cause := stderrors.New("parsing time")
	err := errors.NewParseError("cast", "ts", 3, "2024-13-01", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.ErrorIs(t, err, cause)
}

func TestNodeError_IsKind(t *testing.T) {
	cfg := errors.NewValidationError("configure", "ts", "no second field")
	exec := errors.NewExecutionError("align", "ts", "multiple zones not supported", nil)

	assert.ErrorIs(t, cfg, errors.ErrConfiguration)
	assert.NotErrorIs(t, cfg, errors.ErrExecution)
	assert.ErrorIs(t, exec, errors.ErrExecution)

	wrapped := fmt.Errorf("step 1: %w", exec)
	assert.ErrorIs(t, wrapped, errors.ErrExecution)
}

func TestNodeError_IsEquality(t *testing.T) {
	err1 := errors.NewColumnNotFoundError("configure", "ts")
	err2 := errors.NewColumnNotFoundError("configure", "ts")
	err3 := errors.NewColumnNotFoundError("configure", "other")

	assert.True(t, err1.Is(err2))
	assert.False(t, err1.Is(err3))
	assert.False(t, err1.Is(stderrors.New("different error")))
}

func TestConstructorsKinds(t *testing.T) {
	tests := []struct {
		name string
		err  *errors.NodeError
		kind errors.Kind
	}{
		{"column not found", errors.NewColumnNotFoundError("op", "c"), errors.KindConfiguration},
		{"incompatible", errors.NewIncompatibleColumnError("op", "c"), errors.KindConfiguration},
		{"no compatible", errors.NewNoCompatibleColumnError("op", "none"), errors.KindConfiguration},
		{"validation", errors.NewValidationError("op", "c", "bad"), errors.KindConfiguration},
		{"execution", errors.NewExecutionError("op", "c", "bad", nil), errors.KindExecution},
		{"parse", errors.NewParseError("op", "c", 0, "v", nil), errors.KindExecution},
		{"unsupported", errors.NewUnsupportedTypeError("op", "[]complex128"), errors.KindInternal},
		{"internal", errors.NewInternalError("op", nil), errors.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Kind)
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "configuration", errors.KindConfiguration.String())
	assert.Equal(t, "execution", errors.KindExecution.String())
	assert.Equal(t, "internal", errors.KindInternal.String())
	assert.Equal(t, "Kind(9)", errors.Kind(9).String())
}
