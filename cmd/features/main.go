// Command features runs the feature pipeline over one standardized price file,
// or over every file in a directory with -dir.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"nepsecli/internal/config"
	"nepsecli/internal/features"
	"nepsecli/internal/files"
	"nepsecli/internal/infrastructure"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configPath string
	in         string
	dir        string
	out        string
	tail       int
	sma        int
	rsi        int
	fast       int
	slow       int
	signal     int
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("features", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "path to config.yaml (defaults to the usual search locations)")
	fs.StringVar(&o.in, "in", "", "standardized input file for a single symbol")
	fs.StringVar(&o.dir, "dir", "", "batch mode: enrich every file in this directory")
	fs.StringVar(&o.out, "out", "", "output file (single) or directory (batch); defaults to paths.output_dir")
	fs.IntVar(&o.tail, "tail", 0, "print the last N enriched rows")
	fs.IntVar(&o.sma, "sma", 0, "SMA window (defaults to indicators.sma_window)")
	fs.IntVar(&o.rsi, "rsi", 0, "RSI window (defaults to indicators.rsi_window)")
	fs.IntVar(&o.fast, "fast", 0, "fast EMA span (defaults to indicators.fast_span)")
	fs.IntVar(&o.slow, "slow", 0, "slow EMA span (defaults to indicators.slow_span)")
	fs.IntVar(&o.signal, "signal", 0, "MACD signal span (defaults to indicators.signal_span)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if (o.in == "") == (o.dir == "") {
		fmt.Fprintln(stderr, "exactly one of -in or -dir is required")
		return nil, flag.ErrHelp
	}
	if o.tail < 0 {
		fmt.Fprintln(stderr, "-tail must be >= 0")
		return nil, flag.ErrHelp
	}
	return o, nil
}

// pipelineOptions overlays non-zero flags onto the configured windows.
func (o *options) pipelineOptions(cfg config.IndicatorConfig) features.Options {
	opts := features.OptionsFromConfig(cfg)
	for _, f := range []struct {
		flag int
		dst  *int
	}{
		{o.sma, &opts.SMAWindow},
		{o.rsi, &opts.RSIWindow},
		{o.fast, &opts.FastSpan},
		{o.slow, &opts.SlowSpan},
		{o.signal, &opts.SignalSpan},
	} {
		if f.flag > 0 {
			*f.dst = f.flag
		}
	}
	return opts
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer infrastructure.CloseLogFile()

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		logger.Error("Failed to resolve paths", slog.String("error", err.Error()))
		return 1
	}

	pipeline, err := features.NewPipeline(o.pipelineOptions(cfg.Indicators), logger)
	if err != nil {
		fmt.Fprintf(stderr, "invalid indicator settings: %v\n", err)
		return 2
	}

	if o.dir != "" {
		return runBatch(ctx, o, pipeline, cfg.Indicators.Workers, paths, logger, stdout)
	}
	return runSingle(ctx, o, pipeline, paths, logger, stdout)
}

func runSingle(ctx context.Context, o *options, pipeline *features.Pipeline, paths *config.Paths, logger *slog.Logger, stdout io.Writer) int {
	series, err := pipeline.Run(ctx, o.in)
	if err != nil {
		logger.Error("Feature pipeline failed",
			slog.String("input", o.in),
			slog.String("error", err.Error()))
		return 1
	}

	out := o.out
	if out == "" {
		out = paths.GetFeaturePath(files.SymbolFromPath(o.in))
	}
	if err := features.WriteCSV(out, series); err != nil {
		logger.Error("Failed to write features",
			slog.String("output", out),
			slog.String("error", err.Error()))
		return 1
	}

	fmt.Fprintf(stdout, "%s: %d rows written to %s\n", series.Symbol(), series.Len(), out)
	if o.tail > 0 {
		printTail(stdout, series, o.tail)
	}
	return 0
}

func runBatch(ctx context.Context, o *options, pipeline *features.Pipeline, workers int, paths *config.Paths, logger *slog.Logger, stdout io.Writer) int {
	out := o.out
	if out == "" {
		out = paths.OutputDir
	}

	report, err := features.NewBatch(pipeline, workers, nil, logger).Run(ctx, o.dir, out)
	if err != nil {
		logger.Error("Feature batch failed", slog.String("error", err.Error()))
		return 1
	}
	if report.NoFiles {
		fmt.Fprintf(stdout, "no tabular files found in %s\n", o.dir)
		return 0
	}

	for _, r := range report.Results {
		if r.Err != nil {
			fmt.Fprintf(stdout, "failed     %s: %s\n", r.Symbol, r.Error)
			continue
		}
		fmt.Fprintf(stdout, "written    %s (%d rows) -> %s\n", r.Symbol, r.Rows, r.Output)
	}
	fmt.Fprintf(stdout, "%d of %d symbols enriched\n", report.Succeeded(), len(report.Results))

	if report.Succeeded() < len(report.Results) {
		return 1
	}
	return 0
}

func printTail(w io.Writer, s *features.Series, n int) {
	t := s.Table()
	start := 0
	if n < len(t.Rows) {
		start = len(t.Rows) - n
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeRow(tw, t.Header)
	for _, row := range t.Rows[start:] {
		writeRow(tw, row)
	}
	tw.Flush()
}

func writeRow(w io.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		if c == "" {
			c = "-"
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}
