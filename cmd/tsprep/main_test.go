package main

import (
	"bytes"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("tsprep", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseFlags(t *testing.T) {
	t.Run("required files", func(t *testing.T) {
		_, err := parseFlags(newFlagSet(), []string{"--workflow", "wf.yaml", "--input", "in.csv"})
		require.ErrorIs(t, err, errUsage)
	})

	t.Run("version needs nothing else", func(t *testing.T) {
		o, err := parseFlags(newFlagSet(), []string{"-v"})
		require.NoError(t, err)
		assert.True(t, o.version)
	})

	t.Run("all flags", func(t *testing.T) {
		o, err := parseFlags(newFlagSet(), []string{
			"--workflow", "wf.yaml", "--input", "in.csv", "--output", "out.parquet",
			"--config", "tsprep.yaml", "--log-level", "debug", "--log-format", "console",
			"--metrics-file", "m.prom",
		})
		require.NoError(t, err)
		assert.Equal(t, options{
			workflow: "wf.yaml", input: "in.csv", output: "out.parquet",
			configFile: "tsprep.yaml", logLevel: "debug", logFormat: "console", metricsFile: "m.prom",
		}, o)
	})

	t.Run("unknown flag", func(t *testing.T) {
		_, err := parseFlags(newFlagSet(), []string{"--demo"})
		assert.Error(t, err)
	})
}

func TestRunVersionAndListNodes(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(t.Context(), options{version: true}, &out))
	assert.Contains(t, out.String(), "tsprep time-series preprocessing")

	out.Reset()
	require.NoError(t, run(t.Context(), options{listNodes: true}, &out))
	assert.Contains(t, out.String(), "aggregation_granularity")
	assert.Contains(t, out.String(), "timestamp_alignment")
	assert.Contains(t, out.String(), "differencing")
}

func TestRunJobWithMetrics(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(input, []byte("ts,value\n2024-01-01,1\n2024-01-02,4\n"), 0o600))
	wf := filepath.Join(dir, "wf.yaml")
	require.NoError(t, os.WriteFile(wf, []byte(`
steps:
  - node: differencing
    settings:
      target_column: value
`), 0o600))

	o := options{
		workflow:    wf,
		input:       input,
		output:      filepath.Join(dir, "out.csv"),
		logLevel:    "disabled",
		metricsFile: filepath.Join(dir, "run.prom"),
	}
	require.NoError(t, run(t.Context(), o, io.Discard))

	written, err := os.ReadFile(o.output)
	require.NoError(t, err)
	assert.Equal(t, "ts,value,value(-1)\n2024-01-01,1,\n2024-01-02,4,3\n", string(written))

	metrics, err := os.ReadFile(o.metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `tsprep_node_executions_total{node="differencing",status="ok"} 1`)

	t.Run("failed run still writes metrics", func(t *testing.T) {
		o := o
		o.input = filepath.Join(dir, "missing.csv")
		o.metricsFile = filepath.Join(dir, "failed.prom")
		assert.Error(t, run(t.Context(), o, io.Discard))
		_, err := os.Stat(o.metricsFile)
		assert.NoError(t, err)
	})
}
