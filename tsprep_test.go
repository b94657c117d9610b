package tsprep_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paveg/tsprep"
	"github.com/paveg/tsprep/internal/monitoring"
	"github.com/paveg/tsprep/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gapCSV = `ts,value
2024-01-01 00:00:00,1
2024-01-01 02:00:00,3
`

var quiet = tsprep.WithLogger(zerolog.Nop())

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNodes(t *testing.T) {
	ids := make([]string, 0, 3)
	for _, m := range tsprep.Nodes() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"aggregation_granularity", "differencing", "timestamp_alignment"}, ids)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	df, err := tsprep.ReadFile(writeFile(t, dir, "in.csv", gapCSV))
	require.NoError(t, err)
	defer df.Release()

	wf, err := tsprep.LoadWorkflow(strings.NewReader(`
steps:
  - node: timestamp_alignment
    settings:
      datetime_column: ts
      period: HOUR
`))
	require.NoError(t, err)

	var last float64
	out, err := tsprep.Run(t.Context(), wf, df, quiet, tsprep.WithProgress(func(fraction float64, _ string) {
		last = fraction
	}))
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, []string{"2024-01-01 00:00:00", "2024-01-01 01:00:00", "2024-01-01 02:00:00"},
		testutil.ColumnStrings(t, out, "ts"))
	assert.Equal(t, []bool{false, true, false}, testutil.ColumnNulls(t, out, "value"))
	assert.InDelta(t, 1.0, last, 1e-9)
	// input is untouched
	assert.Equal(t, 2, df.Len())
}

func TestRunJob(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "in.csv", gapCSV)
	wfPath := writeFile(t, dir, "wf.yaml", `
steps:
  - node: timestamp_alignment
    settings:
      period: HOUR
  - node: aggregation_granularity
    name: daily
    settings:
      datetime_column: ts
      aggregation_column: value
      granularity: DAY
      method: COUNT
`)

	for _, output := range []string{"out.csv", "out.parquet"} {
		t.Run(output, func(t *testing.T) {
			collector := monitoring.NewMetricsCollector(true)
			result, err := tsprep.RunJob(context.Background(), tsprep.Job{
				Workflow: wfPath,
				Input:    input,
				Output:   filepath.Join(dir, output),
			}, quiet, tsprep.WithMetrics(collector))
			require.NoError(t, err)

			assert.Equal(t, 1, result.Rows)
			assert.Equal(t, []string{"ts", "value"}, result.Columns)
			assert.Equal(t, []string{"timestamp_alignment: Preset column to: ts"}, result.Warnings)
			assert.Len(t, collector.GetMetrics(), 2)

			back, err := tsprep.ReadFile(filepath.Join(dir, output))
			require.NoError(t, err)
			defer back.Release()
			assert.Equal(t, []string{"2024-01-01"}, testutil.ColumnStrings(t, back, "ts"))
			// the null value row is not counted
			assert.Equal(t, []string{"2"}, testutil.ColumnStrings(t, back, "value"))
		})
	}
}

func TestRunJobErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "in.csv", gapCSV)
	badStep := writeFile(t, dir, "bad.yaml", `
steps:
  - node: differencing
    settings:
      target_column: value
      lags: 0
`)

	tests := []struct {
		name     string
		job      tsprep.Job
		contains string
	}{
		{"missing workflow", tsprep.Job{Workflow: filepath.Join(dir, "none.yaml"), Input: input, Output: filepath.Join(dir, "o.csv")}, "none.yaml"},
		{"missing input", tsprep.Job{Workflow: badStep, Input: filepath.Join(dir, "none.csv"), Output: filepath.Join(dir, "o.csv")}, "none.csv"},
		{"configuration", tsprep.Job{Workflow: badStep, Input: input, Output: filepath.Join(dir, "o.csv")}, "configuring workflow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tsprep.RunJob(context.Background(), tt.job, quiet)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}

	_, err := os.Stat(filepath.Join(dir, "o.csv"))
	assert.True(t, os.IsNotExist(err), "no output is written on failure")
}
