// Command standardize rewrites every raw price file in a directory so that it
// carries only the canonical columns.
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

	"nepsecli/internal/config"
	"nepsecli/internal/infrastructure"
	"nepsecli/internal/standardizer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("standardize", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config.yaml (defaults to the usual search locations)")
	dir := fs.String("dir", "", "directory of raw per-symbol files (defaults to paths.data_dir)")
	workers := fs.Int("workers", 0, "files processed concurrently (defaults to standardizer.workers)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
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

	if *dir == "" {
		paths, err := config.ResolvePaths(cfg.Paths)
		if err != nil {
			logger.Error("Failed to resolve paths", slog.String("error", err.Error()))
			return 1
		}
		*dir = paths.DataDir
	}
	if *workers <= 0 {
		*workers = cfg.Standardizer.Workers
	}

	logger.Info("Starting standardization",
		slog.String("dir", *dir),
		slog.Int("workers", *workers))

	report, err := standardizer.New(standardizer.Options{Workers: *workers}, logger).Run(ctx, *dir)
	if err != nil {
		logger.Error("Standardization failed", slog.String("error", err.Error()))
		return 1
	}

	if report.NoFiles {
		fmt.Fprintf(stdout, "no tabular files found in %s\n", *dir)
		return 0
	}

	for _, f := range report.Files {
		if f.Err != nil {
			fmt.Fprintf(stdout, "%-10s %s: %s\n", f.Status, f.Name, f.Error)
			continue
		}
		fmt.Fprintf(stdout, "%-10s %s (%d rows)\n", f.Status, f.Name, f.Rows)
	}
	fmt.Fprintf(stdout, "%d standardized, %d unchanged, %d failed\n",
		report.Count(standardizer.StatusStandardized),
		report.Count(standardizer.StatusUnchanged),
		report.Count(standardizer.StatusFailed))
	return 0
}
