// Package aggregate groups numeric values by reduced timestamp keys and
// reduces every group with one of the aggregation methods.
package aggregate

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Method is an aggregation method
type Method int

// Aggregation methods
const (
	MethodMode Method = iota
	MethodMin
	MethodMax
	MethodSum
	MethodVariance
	MethodCount
	MethodMean
)

// Methods lists every aggregation method
var Methods = []Method{MethodMode, MethodMin, MethodMax, MethodSum, MethodVariance, MethodCount, MethodMean}

// Reducer folds the non-null values of a group into one value. The boolean
// is false when the group yields null.
type Reducer func(values []float64) (float64, bool)

// ParseMethod parses a method name such as "MEAN", case-insensitively
func ParseMethod(s string) (Method, error) {
	for _, m := range Methods {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown aggregation method %q", s)
}

// String returns the method name
func (m Method) String() string {
	switch m {
	case MethodMode:
		return "MODE"
	case MethodMin:
		return "MIN"
	case MethodMax:
		return "MAX"
	case MethodSum:
		return "SUM"
	case MethodVariance:
		return "VARIANCE"
	case MethodCount:
		return "COUNT"
	case MethodMean:
		return "MEAN"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Reducer returns the reducer bound to the method
func (m Method) Reducer() Reducer {
	switch m {
	case MethodMode:
		return mode
	case MethodMin:
		return nonEmpty(floats.Min)
	case MethodMax:
		return nonEmpty(floats.Max)
	case MethodSum:
		return nonEmpty(floats.Sum)
	case MethodVariance:
		return nonEmpty(func(v []float64) float64 { return stat.Variance(v, nil) })
	case MethodCount:
		return count
	case MethodMean:
		return nonEmpty(func(v []float64) float64 { return stat.Mean(v, nil) })
	}
	panic(fmt.Sprintf("aggregate: no reducer for %s", m))
}

// IntegerResult reports whether the method always produces whole numbers
func (m Method) IntegerResult() bool {
	return m == MethodCount
}

func nonEmpty(fn func([]float64) float64) Reducer {
	return func(values []float64) (float64, bool) {
		if len(values) == 0 {
			return 0, false
		}
		return fn(values), true
	}
}

func count(values []float64) (float64, bool) {
	return float64(len(values)), true
}

// IntReducer returns the integer reducer of the methods whose result is
// one of the values or their sum. Other methods report false.
func (m Method) IntReducer() (func([]int64) (int64, bool), bool) {
	switch m {
	case MethodMode:
		return func(values []int64) (int64, bool) {
			return firstMode(values, func(v int64) int64 { return v })
		}, true
	case MethodMin:
		return nonEmptyInt(func(v []int64) int64 { return slices.Min(v) }), true
	case MethodMax:
		return nonEmptyInt(func(v []int64) int64 { return slices.Max(v) }), true
	case MethodSum:
		return nonEmptyInt(func(v []int64) int64 {
			var sum int64
			for _, x := range v {
				sum += x
			}
			return sum
		}), true
	case MethodVariance, MethodCount, MethodMean:
		return nil, false
	}
	return nil, false
}

// KeepsInteger reports whether the method has an integer form
func (m Method) KeepsInteger() bool {
	_, ok := m.IntReducer()
	return ok
}

func nonEmptyInt(fn func([]int64) int64) func([]int64) (int64, bool) {
	return func(values []int64) (int64, bool) {
		if len(values) == 0 {
			return 0, false
		}
		return fn(values), true
	}
}

// mode returns the most frequent value. Ties go to the value that appears
// first in row order. NaN values count as one value.
func mode(values []float64) (float64, bool) {
	return firstMode(values, func(v float64) uint64 {
		if math.IsNaN(v) {
			return math.Float64bits(math.NaN())
		}
		if v == 0 {
			return 0 // fold -0 into 0
		}
		return math.Float64bits(v)
	})
}

// firstMode returns the value with the highest count under key, the first
// one in row order on ties
func firstMode[T any, K comparable](values []T, key func(T) K) (T, bool) {
	var zero T
	if len(values) == 0 {
		return zero, false
	}

	counts := make(map[K]int, len(values))
	best := 0
	for _, v := range values {
		k := key(v)
		counts[k]++
		if counts[k] > best {
			best = counts[k]
		}
	}
	for _, v := range values {
		if counts[key(v)] == best {
			return v, true
		}
	}
	return values[0], true
}
