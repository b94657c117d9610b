package dataframe

import (
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paveg/tsprep/internal/series"
)

// ISeries provides a type-erased interface for Series of any type
type ISeries interface {
	Name() string
	LogicalType() string
	Len() int
	DataType() arrow.DataType
	IsNull(index int) bool
	String() string
	Array() arrow.Array
	Release()
	GetAsString(index int) string
}

// Wrap builds a series over an existing Arrow array, picking the Go element
// type from the array type. The array is retained.
func Wrap(name, logicalType string, arr arrow.Array) ISeries {
	switch arr.(type) {
	case *array.String:
		return series.FromArray[string](name, arr).WithLogicalType(logicalType)
	case *array.Int64:
		return series.FromArray[int64](name, arr).WithLogicalType(logicalType)
	case *array.Int32:
		return series.FromArray[int32](name, arr).WithLogicalType(logicalType)
	case *array.Float64:
		return series.FromArray[float64](name, arr).WithLogicalType(logicalType)
	case *array.Float32:
		return series.FromArray[float32](name, arr).WithLogicalType(logicalType)
	case *array.Boolean:
		return series.FromArray[bool](name, arr).WithLogicalType(logicalType)
	case *array.Timestamp, *array.Date32, *array.Date64, *array.Time32, *array.Time64:
		return series.FromArray[time.Time](name, arr).WithLogicalType(logicalType)
	default:
		return series.FromArray[any](name, arr).WithLogicalType(logicalType)
	}
}

// retain returns an independently releasable handle on s, optionally renamed
func retain(s ISeries, name string) ISeries {
	arr := s.Array()
	defer arr.Release()
	return Wrap(name, s.LogicalType(), arr)
}
