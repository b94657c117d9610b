package aggregate_test

import (
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tsprep/internal/aggregate"
	"github.com/paveg/tsprep/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	for _, m := range aggregate.Methods {
		parsed, err := aggregate.ParseMethod(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}

	m, err := aggregate.ParseMethod("variance")
	require.NoError(t, err)
	assert.Equal(t, aggregate.MethodVariance, m)

	_, err = aggregate.ParseMethod("median")
	assert.Error(t, err)
}

func TestReducers(t *testing.T) {
	values := []float64{4, 1, 3, 1, 6}

	tests := []struct {
		method   aggregate.Method
		expected float64
	}{
		{aggregate.MethodMode, 1},
		{aggregate.MethodMin, 1},
		{aggregate.MethodMax, 6},
		{aggregate.MethodSum, 15},
		{aggregate.MethodVariance, 4.5},
		{aggregate.MethodCount, 5},
		{aggregate.MethodMean, 3},
	}

	for _, tt := range tests {
		t.Run(tt.method.String(), func(t *testing.T) {
			got, ok := tt.method.Reducer()(values)
			require.True(t, ok)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestReducersEmptyGroup(t *testing.T) {
	for _, m := range aggregate.Methods {
		got, ok := m.Reducer()(nil)
		if m == aggregate.MethodCount {
			assert.True(t, ok)
			assert.Zero(t, got)
			continue
		}
		assert.False(t, ok, m.String())
	}
}

func TestModeFirstEncountered(t *testing.T) {
	got, ok := aggregate.MethodMode.Reducer()([]float64{1, 1, 2, 2, 3})
	require.True(t, ok)
	assert.Equal(t, 1.0, got)

	// first in row order, not the smallest value
	got, _ = aggregate.MethodMode.Reducer()([]float64{5, 2, 2, 5})
	assert.Equal(t, 5.0, got)

	got, _ = aggregate.MethodMode.Reducer()([]float64{7})
	assert.Equal(t, 7.0, got)
}

func TestVarianceSingleValueIsNaN(t *testing.T) {
	got, ok := aggregate.MethodVariance.Reducer()([]float64{3})
	require.True(t, ok)
	assert.True(t, math.IsNaN(got))
}

func TestGroupBy(t *testing.T) {
	day1 := int64(1704067200) // 2024-01-01
	day2 := int64(1704153600) // 2024-01-02

	keys := []aggregate.Key{
		{Primary: day2, Secondary: 2},
		{Primary: day1, Secondary: 1},
		{Primary: day1, Secondary: 1},
		{Primary: day2, Secondary: 2},
	}
	values := []float64{3, 5, 7, 10}
	valid := []bool{true, true, true, false}

	groups, err := aggregate.GroupBy(keys, values, valid, aggregate.MethodSum)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, aggregate.Key{Primary: day1, Secondary: 1}, groups[0].Key)
	assert.Equal(t, 12.0, groups[0].Value)
	assert.True(t, groups[0].Valid)
	assert.Equal(t, 1, groups[0].FirstRow)
	assert.Equal(t, 2, groups[0].Rows)

	assert.Equal(t, 3.0, groups[1].Value)
	assert.Equal(t, 0, groups[1].FirstRow)
	assert.Equal(t, 2, groups[1].Rows)
}

func TestGroupBySecondaryKeySeparatesPeriods(t *testing.T) {
	// two months of the same year reduce to the same year value
	keys := []aggregate.Key{
		{Primary: 2024, Secondary: 3},
		{Primary: 2024, Secondary: 1},
		{Primary: 2023, Secondary: 12},
		{Primary: 2024, Secondary: 1},
	}
	groups, err := aggregate.GroupBy(keys, []float64{1, 2, 3, 4}, nil, aggregate.MethodCount)
	require.NoError(t, err)

	require.Len(t, groups, 3)
	assert.Equal(t, aggregate.Key{Primary: 2023, Secondary: 12}, groups[0].Key)
	assert.Equal(t, aggregate.Key{Primary: 2024, Secondary: 1}, groups[1].Key)
	assert.Equal(t, 2.0, groups[1].Value)
	assert.Equal(t, aggregate.Key{Primary: 2024, Secondary: 3}, groups[2].Key)
}

func TestGroupByAllNull(t *testing.T) {
	keys := []aggregate.Key{{Primary: 1}, {Primary: 1}}

	groups, err := aggregate.GroupBy(keys, []float64{0, 0}, []bool{false, false}, aggregate.MethodMean)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.False(t, groups[0].Valid)

	groups, err = aggregate.GroupBy(keys, []float64{0, 0}, []bool{false, false}, aggregate.MethodCount)
	require.NoError(t, err)
	assert.True(t, groups[0].Valid)
	assert.Zero(t, groups[0].Value)
}

func TestGroupByLengthMismatch(t *testing.T) {
	_, err := aggregate.GroupBy([]aggregate.Key{{}}, nil, nil, aggregate.MethodSum)
	assert.Error(t, err)

	_, err = aggregate.GroupBy([]aggregate.Key{{}}, []float64{1}, []bool{}, aggregate.MethodSum)
	assert.Error(t, err)
}

func TestFloat64s(t *testing.T) {
	mem := memory.NewGoAllocator()

	ints, err := series.NewNullable("v", []int64{1, 2, 3}, []bool{true, false, true}, mem)
	require.NoError(t, err)
	defer ints.Release()

	arr := ints.Array()
	defer arr.Release()

	values, valid, err := aggregate.Float64s(arr)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 3}, values)
	assert.Equal(t, []bool{true, false, true}, valid)

	floats32 := series.New("f", []float32{1.5, 2.5}, mem)
	defer floats32.Release()
	farr := floats32.Array()
	defer farr.Release()

	values, _, err = aggregate.Float64s(farr)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5}, values)

	strs := series.New("s", []string{"1.25", "oops"}, mem)
	defer strs.Release()
	sarr := strs.Array()
	defer sarr.Release()

	_, _, err = aggregate.Float64s(sarr)
	assert.ErrorContains(t, err, "row 1")
}

func TestIntReducers(t *testing.T) {
	values := []int64{4, 1, 3, 1, 9007199254740993}

	tests := []struct {
		method   aggregate.Method
		expected int64
	}{
		{aggregate.MethodMode, 1},
		{aggregate.MethodMin, 1},
		{aggregate.MethodMax, 9007199254740993},
		{aggregate.MethodSum, 9007199254741002},
	}

	for _, tt := range tests {
		t.Run(tt.method.String(), func(t *testing.T) {
			reduce, ok := tt.method.IntReducer()
			require.True(t, ok)
			got, valid := reduce(values)
			assert.True(t, valid)
			assert.Equal(t, tt.expected, got)

			_, valid = reduce(nil)
			assert.False(t, valid)
		})
	}

	for _, m := range []aggregate.Method{aggregate.MethodVariance, aggregate.MethodCount, aggregate.MethodMean} {
		assert.False(t, m.KeepsInteger(), m.String())
	}
}

func TestGroupByInt(t *testing.T) {
	keys := []aggregate.Key{{Primary: 2}, {Primary: 1}, {Primary: 2}, {Primary: 1}}
	values := []int64{9007199254740993, 5, 2, 0}
	valid := []bool{true, true, true, false}

	groups, err := aggregate.GroupByInt(keys, values, valid, aggregate.MethodSum)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, int64(5), groups[0].Value)
	assert.Equal(t, 2, groups[0].Rows)
	assert.Equal(t, int64(9007199254740995), groups[1].Value)
	assert.True(t, groups[1].Valid)

	_, err = aggregate.GroupByInt(keys, values, valid, aggregate.MethodMean)
	assert.Error(t, err)
}

func TestInt64s(t *testing.T) {
	mem := memory.NewGoAllocator()

	ints, err := series.NewNullable("v", []int32{-7, 0, 3}, []bool{true, false, true}, mem)
	require.NoError(t, err)
	defer ints.Release()
	arr := ints.Array()
	defer arr.Release()

	assert.True(t, aggregate.IsExactInteger(arr.DataType()))
	values, valid, ok := aggregate.Int64s(arr)
	require.True(t, ok)
	assert.Equal(t, []int64{-7, 0, 3}, values)
	assert.Equal(t, []bool{true, false, true}, valid)

	floats := series.New("f", []float64{1.5}, mem)
	defer floats.Release()
	farr := floats.Array()
	defer farr.Release()

	assert.False(t, aggregate.IsExactInteger(farr.DataType()))
	_, _, ok = aggregate.Int64s(farr)
	assert.False(t, ok)
}
