package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/paveg/tsprep"
	"github.com/paveg/tsprep/internal/config"
	"github.com/paveg/tsprep/internal/logging"
	"github.com/paveg/tsprep/internal/monitoring"
	"github.com/paveg/tsprep/internal/version"
)

const metricsNamespace = "tsprep"

var errUsage = errors.New("usage")

func customUsage() {
	fmt.Fprintf(os.Stderr, "tsprep time-series preprocessing (version %s)\n\n", version.Version)
	fmt.Fprintf(os.Stderr, "Usage: tsprep --workflow wf.yaml --input in.csv --output out.parquet [options]\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	fmt.Fprintf(os.Stderr, "  --workflow FILE\n\t\tYAML workflow listing the nodes to apply\n")
	fmt.Fprintf(os.Stderr, "  --input FILE\n\t\tInput table (.csv, .parquet)\n")
	fmt.Fprintf(os.Stderr, "  --output FILE\n\t\tOutput table (.csv, .parquet)\n")
	fmt.Fprintf(os.Stderr, "  --config FILE\n\t\tEngine configuration (yaml, json or toml); TSPREP_* variables override it\n")
	fmt.Fprintf(os.Stderr, "  --log-level LEVEL\n\t\tdebug, info, warn, error (default from config)\n")
	fmt.Fprintf(os.Stderr, "  --log-format FORMAT\n\t\tjson or console (default from config)\n")
	fmt.Fprintf(os.Stderr, "  --metrics-file FILE\n\t\tWrite Prometheus metrics of the run to FILE\n")
	fmt.Fprintf(os.Stderr, "  --list-nodes\n\t\tList available nodes and exit\n")
	fmt.Fprintf(os.Stderr, "  -v, --version\n\t\tPrint version information and exit\n")
	fmt.Fprintf(os.Stderr, "  -h, --help\n\t\tShow this help message and exit\n")
}

type options struct {
	workflow    string
	input       string
	output      string
	configFile  string
	logLevel    string
	logFormat   string
	metricsFile string
	listNodes   bool
	version     bool
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var o options
	fs.BoolVar(&o.version, "v", false, "Print version and exit")
	fs.BoolVar(&o.version, "version", false, "Print version and exit") // alias
	fs.StringVar(&o.workflow, "workflow", "", "Workflow file")
	fs.StringVar(&o.input, "input", "", "Input table")
	fs.StringVar(&o.output, "output", "", "Output table")
	fs.StringVar(&o.configFile, "config", "", "Engine configuration file")
	fs.StringVar(&o.logLevel, "log-level", "", "Log level")
	fs.StringVar(&o.logFormat, "log-format", "", "Log format")
	fs.StringVar(&o.metricsFile, "metrics-file", "", "Prometheus metrics output file")
	fs.BoolVar(&o.listNodes, "list-nodes", false, "List available nodes and exit")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.version || o.listNodes {
		return o, nil
	}
	if o.workflow == "" || o.input == "" || o.output == "" {
		return o, fmt.Errorf("%w: --workflow, --input and --output are required", errUsage)
	}
	return o, nil
}

func main() {
	//nolint:reassign // Standard Go pattern for customizing flag usage message
	flag.Usage = customUsage

	o, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "tsprep: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, stdout io.Writer) error {
	switch {
	case o.version:
		fmt.Fprint(stdout, version.Info().String())
		return nil
	case o.listNodes:
		for _, m := range tsprep.Nodes() {
			fmt.Fprintf(stdout, "%-24s %-24s %s\n", m.ID, m.Name, m.Description)
		}
		return nil
	}

	cfg, err := tsprep.LoadConfig(o.configFile)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat, nil)
	config.SetGlobalConfig(cfg)
	logger := logging.Get("cli")
	logger.Debug().Str("version", version.Version).Bool("release", version.IsRelease()).Msg("starting")

	opts := []tsprep.RunnerOption{tsprep.WithConfig(cfg), tsprep.WithLogger(logging.Get("workflow"))}
	var collector *monitoring.MetricsCollector
	if o.metricsFile != "" || cfg.MetricsCollection {
		collector = monitoring.EnableGlobalMonitoring(metricsNamespace)
		defer monitoring.DisableGlobalMonitoring()
		opts = append(opts, tsprep.WithMetrics(collector))
	}

	result, runErr := tsprep.RunJob(ctx, tsprep.Job{Workflow: o.workflow, Input: o.input, Output: o.output}, opts...)

	// metrics of a failed run are still written
	if o.metricsFile != "" {
		if err := collector.Exporter().WriteToTextfile(o.metricsFile); err != nil {
			logger.Error().Err(err).Msg("writing metrics")
		}
	}
	if runErr != nil {
		return runErr
	}

	for _, w := range result.Warnings {
		logger.Warn().Msg(w)
	}
	logger.Info().
		Str("output", o.output).
		Int("rows", result.Rows).
		Strs("columns", result.Columns).
		Msg("wrote output")

	if collector != nil {
		summary := collector.GetSummary()
		logger.Debug().Interface("summary", summary).Msg("metrics")
	}
	return nil
}
