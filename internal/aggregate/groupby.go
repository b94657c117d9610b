package aggregate

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/cespare/xxhash/v2"
	"github.com/spf13/cast"
	"golang.org/x/exp/constraints"
)

// Key identifies a group: the reduced timestamp (a year or a Unix
// nanosecond instant) and the raw subfield at the requested granularity.
type Key struct {
	Primary   int64
	Secondary int64
}

// Compare orders keys by primary then secondary component
func (k Key) Compare(other Key) int {
	switch {
	case k.Primary < other.Primary:
		return -1
	case k.Primary > other.Primary:
		return 1
	case k.Secondary < other.Secondary:
		return -1
	case k.Secondary > other.Secondary:
		return 1
	}
	return 0
}

func (k Key) hash() uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(k.Primary))
	binary.LittleEndian.PutUint64(buf[8:], uint64(k.Secondary))
	return xxhash.Sum64(buf[:])
}

// Number is the element type a group can be reduced over
type Number interface {
	constraints.Integer | constraints.Float
}

// Group is one output row of a grouped aggregation
type Group[T Number] struct {
	Key Key
	// FirstRow is the first input row of the group
	FirstRow int
	// Rows counts the input rows of the group, nulls included
	Rows  int
	Value T
	Valid bool
}

// GroupBy groups values by key and reduces every group with the method.
// Null values (valid[i] == false) are skipped by every reducer; a nil valid
// slice means no nulls. Groups are returned in ascending key order.
func GroupBy(keys []Key, values []float64, valid []bool, method Method) ([]Group[float64], error) {
	return groupBy(keys, values, valid, method.Reducer())
}

// GroupByInt is GroupBy over integer values for the methods that keep the
// integer type, so large values are not rounded through float64.
func GroupByInt(keys []Key, values []int64, valid []bool, method Method) ([]Group[int64], error) {
	reduce, ok := method.IntReducer()
	if !ok {
		return nil, fmt.Errorf("group by: %s has no integer form", method)
	}
	return groupBy(keys, values, valid, reduce)
}

func groupBy[T Number](keys []Key, values []T, valid []bool, reduce func([]T) (T, bool)) ([]Group[T], error) {
	if len(keys) != len(values) {
		return nil, fmt.Errorf("group by: %d keys for %d values", len(keys), len(values))
	}
	if valid != nil && len(valid) != len(values) {
		return nil, fmt.Errorf("group by: %d validity flags for %d values", len(valid), len(values))
	}

	buckets := make(map[uint64][]int) // hash -> group indices
	var groups []Group[T]
	var members [][]T

	for i, k := range keys {
		h := k.hash()
		idx := -1
		for _, candidate := range buckets[h] {
			if groups[candidate].Key == k {
				idx = candidate
				break
			}
		}
		if idx < 0 {
			idx = len(groups)
			buckets[h] = append(buckets[h], idx)
			groups = append(groups, Group[T]{Key: k, FirstRow: i})
			members = append(members, nil)
		}
		groups[idx].Rows++
		if valid == nil || valid[i] {
			members[idx] = append(members[idx], values[i])
		}
	}

	for i := range groups {
		groups[i].Value, groups[i].Valid = reduce(members[i])
	}

	slices.SortStableFunc(groups, func(a, b Group[T]) int {
		return a.Key.Compare(b.Key)
	})
	return groups, nil
}

// Float64s reads a numeric Arrow column as float64 values with validity
func Float64s(arr arrow.Array) ([]float64, []bool, error) {
	values := make([]float64, arr.Len())
	valid := make([]bool, arr.Len())
	for i := range values {
		if arr.IsNull(i) {
			continue
		}
		if f16, ok := arr.(*array.Float16); ok {
			values[i] = float64(f16.Value(i).Float32())
			valid[i] = true
			continue
		}
		v, err := cast.ToFloat64E(arr.GetOneForMarshal(i))
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i, err)
		}
		values[i] = v
		valid[i] = true
	}
	return values, valid, nil
}

// IsExactInteger reports whether every value of the type fits an int64
func IsExactInteger(dt arrow.DataType) bool {
	if dt == nil {
		return false
	}
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32:
		return true
	}
	return false
}

// Int64s reads an integer Arrow column as int64 values with validity. The
// boolean is false when the column type is not an exact integer type.
func Int64s(arr arrow.Array) ([]int64, []bool, bool) {
	switch a := arr.(type) {
	case *array.Int8:
		return widen(a, a.Value)
	case *array.Int16:
		return widen(a, a.Value)
	case *array.Int32:
		return widen(a, a.Value)
	case *array.Int64:
		return widen(a, a.Value)
	case *array.Uint8:
		return widen(a, a.Value)
	case *array.Uint16:
		return widen(a, a.Value)
	case *array.Uint32:
		return widen(a, a.Value)
	}
	return nil, nil, false
}

func widen[T constraints.Integer](arr arrow.Array, value func(int) T) ([]int64, []bool, bool) {
	values := make([]int64, arr.Len())
	valid := make([]bool, arr.Len())
	for i := range values {
		if arr.IsNull(i) {
			continue
		}
		values[i] = int64(value(i))
		valid[i] = true
	}
	return values, valid, true
}
