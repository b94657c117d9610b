// Package series provides data structures for column operations
package series

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tsprep/internal/errors"
)

// TimestampType is the Arrow type used for time.Time values.
// Values are stored as UTC nanoseconds; the host logical type says how to read them.
var TimestampType = &arrow.TimestampType{Unit: arrow.Nanosecond, TimeZone: "UTC"}

// Series represents a typed data column with Apache Arrow backend.
// A series optionally carries the logical type descriptor the host attached
// to the column (for example the value factory of a timestamp column).
type Series[T any] struct {
	name        string
	logicalType string
	array       arrow.Array
}

// New creates a new Series from a slice of values. It panics on unsupported
// element types; use NewSafe when the type is not known at compile time.
func New[T any](name string, values []T, mem memory.Allocator) *Series[T] {
	s, err := NewSafe(name, values, mem)
	if err != nil {
		panic(err.Error())
	}
	return s
}

// NewSafe creates a new Series from a slice of values, returning an error for unsupported types
func NewSafe[T any](name string, values []T, mem memory.Allocator) (*Series[T], error) {
	return NewNullable(name, values, nil, mem)
}

// NewNullable creates a new Series where valid[i] == false marks row i as null.
// A nil valid slice means every row is valid.
func NewNullable[T any](name string, values []T, valid []bool, mem memory.Allocator) (*Series[T], error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	if valid != nil && len(valid) != len(values) {
		return nil, errors.ErrMismatchedLength
	}

	var arr arrow.Array

	// Use type switching to create appropriate Arrow array
	switch v := any(values).(type) {
	case []string:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		arr = builder.NewArray()
	case []int64:
		builder := array.NewInt64Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		arr = builder.NewArray()
	case []int32:
		builder := array.NewInt32Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		arr = builder.NewArray()
	case []float64:
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		arr = builder.NewArray()
	case []float32:
		builder := array.NewFloat32Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		arr = builder.NewArray()
	case []bool:
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		arr = builder.NewArray()
	case []time.Time:
		builder := array.NewTimestampBuilder(mem, TimestampType)
		defer builder.Release()
		for i, val := range v {
			if valid != nil && !valid[i] {
				builder.AppendNull()
				continue
			}
			builder.Append(arrow.Timestamp(val.UnixNano()))
		}
		arr = builder.NewArray()
	default:
		return nil, errors.NewUnsupportedTypeError("series creation", fmt.Sprintf("%T", values))
	}

	return &Series[T]{
		name:  name,
		array: arr,
	}, nil
}

// FromArray wraps an existing Arrow array. The array is retained; the caller
// keeps its own reference.
func FromArray[T any](name string, arr arrow.Array) *Series[T] {
	arr.Retain()
	return &Series[T]{
		name:  name,
		array: arr,
	}
}

// WithLogicalType sets the host logical type descriptor and returns the series
func (s *Series[T]) WithLogicalType(logicalType string) *Series[T] {
	s.logicalType = logicalType
	return s
}

// Name returns the column name
func (s *Series[T]) Name() string {
	return s.name
}

// LogicalType returns the host logical type descriptor, or "" when none is attached
func (s *Series[T]) LogicalType() string {
	return s.logicalType
}

// Rename returns a series sharing the same data under a new name
func (s *Series[T]) Rename(name string) *Series[T] {
	s.array.Retain()
	return &Series[T]{
		name:        name,
		logicalType: s.logicalType,
		array:       s.array,
	}
}

// Len returns the length of the series
func (s *Series[T]) Len() int {
	return s.array.Len()
}

// Values returns the data as a Go slice. Null slots hold the zero value.
func (s *Series[T]) Values() []T {
	result := make([]T, s.array.Len())
	for i := range result {
		result[i] = s.Value(i)
	}
	return result
}

// Valid returns a slice where false marks a null row
func (s *Series[T]) Valid() []bool {
	valid := make([]bool, s.array.Len())
	for i := range valid {
		valid[i] = s.array.IsValid(i)
	}
	return valid
}

// Value returns the value at the given index
func (s *Series[T]) Value(index int) T {
	var result T
	if index < 0 || index >= s.array.Len() || s.array.IsNull(index) {
		return result
	}

	switch arr := s.array.(type) {
	case *array.String:
		if v, ok := any(&result).(*string); ok {
			*v = arr.Value(index)
		}
	case *array.Int64:
		if v, ok := any(&result).(*int64); ok {
			*v = arr.Value(index)
		}
	case *array.Int32:
		if v, ok := any(&result).(*int32); ok {
			*v = arr.Value(index)
		}
	case *array.Float64:
		if v, ok := any(&result).(*float64); ok {
			*v = arr.Value(index)
		}
	case *array.Float32:
		if v, ok := any(&result).(*float32); ok {
			*v = arr.Value(index)
		}
	case *array.Boolean:
		if v, ok := any(&result).(*bool); ok {
			*v = arr.Value(index)
		}
	case *array.Timestamp, *array.Date32, *array.Date64, *array.Time32, *array.Time64:
		if v, ok := any(&result).(*time.Time); ok {
			*v, _ = TimeAt(arr, index)
		}
	}

	return result
}

// TimeAt converts a temporal Arrow array element to time.Time in UTC.
// The boolean is false when the array is not temporal.
func TimeAt(arr arrow.Array, index int) (time.Time, bool) {
	switch a := arr.(type) {
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(index).ToTime(unit).UTC(), true
	case *array.Date32:
		return a.Value(index).ToTime().UTC(), true
	case *array.Date64:
		return a.Value(index).ToTime().UTC(), true
	case *array.Time32:
		unit := a.DataType().(*arrow.Time32Type).Unit
		return a.Value(index).ToTime(unit).UTC(), true
	case *array.Time64:
		unit := a.DataType().(*arrow.Time64Type).Unit
		return a.Value(index).ToTime(unit).UTC(), true
	}
	return time.Time{}, false
}

// GetAsString returns the value at index formatted as a string, "" for nulls
func (s *Series[T]) GetAsString(index int) string {
	return FormatValue(s.array, index)
}

// FormatValue formats a single Arrow array element the way sinks write it
func FormatValue(arr arrow.Array, index int) string {
	if index < 0 || index >= arr.Len() || arr.IsNull(index) {
		return ""
	}

	switch a := arr.(type) {
	case *array.String:
		return a.Value(index)
	case *array.Int64:
		return strconv.FormatInt(a.Value(index), 10)
	case *array.Int32:
		return strconv.FormatInt(int64(a.Value(index)), 10)
	case *array.Float64:
		return strconv.FormatFloat(a.Value(index), 'g', -1, 64)
	case *array.Float32:
		return strconv.FormatFloat(float64(a.Value(index)), 'g', -1, 32)
	case *array.Boolean:
		return strconv.FormatBool(a.Value(index))
	}

	if t, ok := TimeAt(arr, index); ok {
		return t.Format(time.RFC3339Nano)
	}
	return arr.ValueStr(index)
}

// DataType returns the Arrow data type
func (s *Series[T]) DataType() arrow.DataType {
	return s.array.DataType()
}

// IsNull checks if the value at index is null
func (s *Series[T]) IsNull(index int) bool {
	return s.array.IsNull(index)
}

// NullN returns the number of null rows
func (s *Series[T]) NullN() int {
	return s.array.NullN()
}

// String returns a string representation of the series
func (s *Series[T]) String() string {
	return fmt.Sprintf("Series[%s]: %s (len=%d)",
		reflect.TypeOf(new(T)).Elem().Name(),
		s.name,
		s.Len())
}

// Array returns the underlying Arrow array (retains a reference)
func (s *Series[T]) Array() arrow.Array {
	if s.array != nil {
		s.array.Retain()
		return s.array
	}
	return nil
}

// Release releases the underlying Arrow memory
func (s *Series[T]) Release() {
	if s.array != nil {
		s.array.Release()
	}
}
