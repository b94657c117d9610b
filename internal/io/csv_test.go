package io_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tsprep/internal/dataframe"
	"github.com/paveg/tsprep/internal/io"
	"github.com/paveg/tsprep/internal/series"
	"github.com/paveg/tsprep/internal/temporal"
	"github.com/paveg/tsprep/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVReader(t *testing.T) {
	mem := memory.NewGoAllocator()

	t.Run("reads simple CSV with headers", func(t *testing.T) {
		csvData := `name,age,salary
Alice,25,50000.5
Bob,30,60000`

		reader := io.NewCSVReader(strings.NewReader(csvData), io.DefaultCSVOptions(), mem)
		df, err := reader.Read()
		require.NoError(t, err)
		defer df.Release()

		assert.Equal(t, 2, df.Len())
		assert.Equal(t, []string{"name", "age", "salary"}, df.Columns())

		ageCol, exists := df.Column("age")
		require.True(t, exists)
		ageArray := ageCol.Array()
		defer ageArray.Release()
		assert.Equal(t, int64(25), ageArray.(*array.Int64).Value(0))

		salaryCol, _ := df.Column("salary")
		assert.Equal(t, arrow.FLOAT64, salaryCol.DataType().ID())
	})

	t.Run("reads CSV without headers", func(t *testing.T) {
		options := io.DefaultCSVOptions()
		options.Header = false

		reader := io.NewCSVReader(strings.NewReader("Alice,25\nBob,30"), options, mem)
		df, err := reader.Read()
		require.NoError(t, err)
		defer df.Release()

		assert.Equal(t, []string{"column_0", "column_1"}, df.Columns())
		assert.Equal(t, 2, df.Len())
	})

	t.Run("reads CSV with custom delimiter", func(t *testing.T) {
		options := io.DefaultCSVOptions()
		options.Delimiter = ';'

		reader := io.NewCSVReader(strings.NewReader("name;flag\nAlice;true\nBob;FALSE"), options, mem)
		df, err := reader.Read()
		require.NoError(t, err)
		defer df.Release()

		assert.Equal(t, []string{"true", "false"}, testutil.ColumnStrings(t, df, "flag"))
	})

	t.Run("empty input", func(t *testing.T) {
		df, err := io.NewCSVReader(strings.NewReader(""), io.DefaultCSVOptions(), mem).Read()
		require.NoError(t, err)
		defer df.Release()
		assert.Equal(t, 0, df.Width())
	})

	t.Run("header only", func(t *testing.T) {
		df, err := io.NewCSVReader(strings.NewReader("ts,value\n"), io.DefaultCSVOptions(), mem).Read()
		require.NoError(t, err)
		defer df.Release()
		assert.Equal(t, []string{"ts", "value"}, df.Columns())
		assert.Equal(t, 0, df.Len())
	})

	t.Run("empty cells become nulls", func(t *testing.T) {
		df, err := io.NewCSVReader(strings.NewReader("value\n1.5\n\n2"), io.DefaultCSVOptions(), mem).Read()
		require.NoError(t, err)
		defer df.Release()

		// encoding/csv skips the blank line
		assert.Equal(t, 2, df.Len())

		df2, err := io.NewCSVReader(strings.NewReader("a,value\nx,1.5\ny,\nz,2"), io.DefaultCSVOptions(), mem).Read()
		require.NoError(t, err)
		defer df2.Release()
		assert.Equal(t, []bool{false, true, false}, testutil.ColumnNulls(t, df2, "value"))
	})

	t.Run("malformed CSV", func(t *testing.T) {
		_, err := io.NewCSVReader(strings.NewReader("a,b\n\"unterminated,1"), io.DefaultCSVOptions(), mem).Read()
		assert.Error(t, err)
	})
}

func TestCSVTimestampInference(t *testing.T) {
	mem := memory.NewGoAllocator()

	csvData := `date,time,datetime,zoned,label
2024-01-01,10:00:00,2024-01-01 10:00:00,2024-01-01 10:00:00+01:00,a
2024-01-02,11:30,2024-01-01T11:00,2024-01-01 11:00:00Z,b
,,,,c`

	df, err := io.NewCSVReader(strings.NewReader(csvData), io.DefaultCSVOptions(), mem).Read()
	require.NoError(t, err)
	defer df.Release()

	schema := df.Schema()
	expected := map[string]string{
		"date":     temporal.DateDescriptor,
		"time":     temporal.TimeDescriptor,
		"datetime": temporal.DateTimeDescriptor,
		"zoned":    temporal.ZonedDateTimeDescriptor,
		"label":    "",
	}
	for name, descriptor := range expected {
		f, ok := schema.Field(name)
		require.True(t, ok, name)
		assert.Equal(t, descriptor, f.LogicalType, name)
		assert.Equal(t, arrow.STRING, f.Type.ID(), name)
	}
	assert.Equal(t, []bool{false, false, true}, testutil.ColumnNulls(t, df, "date"))

	t.Run("inference disabled", func(t *testing.T) {
		options := io.DefaultCSVOptions()
		options.InferTimestamps = false
		plain, err := io.NewCSVReader(strings.NewReader(csvData), options, mem).Read()
		require.NoError(t, err)
		defer plain.Release()
		f, _ := plain.Schema().Field("date")
		assert.Empty(t, f.LogicalType)
	})

	t.Run("mixed kinds stay strings", func(t *testing.T) {
		mixed, err := io.NewCSVReader(strings.NewReader("ts\n2024-01-01\n10:00:00"), io.DefaultCSVOptions(), mem).Read()
		require.NoError(t, err)
		defer mixed.Release()
		f, _ := mixed.Schema().Field("ts")
		assert.Empty(t, f.LogicalType)
	})
}

func TestCSVWriter(t *testing.T) {
	mem := memory.NewGoAllocator()

	values, err := series.NewNullable("value", []float64{1.5, 0}, []bool{true, false}, mem)
	require.NoError(t, err)
	df := dataframe.New(
		series.New("ts", []string{"2024-01-01", "2024-01-02"}, mem).WithLogicalType(temporal.DateDescriptor),
		values,
		series.New("count", []int64{3, 4}, mem),
	)
	defer df.Release()

	var buf bytes.Buffer
	require.NoError(t, io.NewCSVWriter(&buf, io.DefaultCSVOptions()).Write(df))
	assert.Equal(t, "ts,value,count\n2024-01-01,1.5,3\n2024-01-02,,4\n", buf.String())

	t.Run("round trip keeps timestamp tag and nulls", func(t *testing.T) {
		back, err := io.NewCSVReader(strings.NewReader(buf.String()), io.DefaultCSVOptions(), mem).Read()
		require.NoError(t, err)
		defer back.Release()

		testutil.AssertSchemaMatches(t, df.Schema(), back)
		assert.Equal(t, []bool{false, true}, testutil.ColumnNulls(t, back, "value"))
	})

	t.Run("without header", func(t *testing.T) {
		options := io.DefaultCSVOptions()
		options.Header = false
		var out bytes.Buffer
		require.NoError(t, io.NewCSVWriter(&out, options).Write(df))
		assert.Equal(t, "2024-01-01,1.5,3\n2024-01-02,,4\n", out.String())
	})
}
