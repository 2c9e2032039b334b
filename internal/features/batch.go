package features

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"nepsecli/internal/config"
	apperrors "nepsecli/internal/errors"
	"nepsecli/internal/files"
	"nepsecli/internal/infrastructure"
)

// Notifier receives one update per processed symbol.
type Notifier interface {
	BroadcastUpdate(eventType, subtype, action string, data interface{})
}

// BatchResult is the outcome for one symbol
type BatchResult struct {
	Symbol string `json:"symbol"`
	Input  string `json:"input"`
	Output string `json:"output,omitempty"`
	Rows   int    `json:"rows"`
	Err    error  `json:"-"`
	Error  string `json:"error,omitempty"`
}

// BatchReport aggregates a batch run
type BatchReport struct {
	InDir    string        `json:"in_dir"`
	OutDir   string        `json:"out_dir"`
	NoFiles  bool          `json:"no_files"`
	Results  []BatchResult `json:"results"`
	Duration time.Duration `json:"duration_ns"`
}

// Succeeded returns the number of symbols written without error.
func (r *BatchReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Batch runs the pipeline over every symbol file in a directory concurrently.
type Batch struct {
	pipeline  *Pipeline
	workers   int
	notifier  Notifier
	discovery *files.Discovery
	logger    *slog.Logger
}

// NewBatch creates a batch runner around p.
func NewBatch(p *Pipeline, workers int, notifier Notifier, logger *slog.Logger) *Batch {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if workers < 1 {
		workers = 1
	}
	return &Batch{
		pipeline:  p,
		workers:   workers,
		notifier:  notifier,
		discovery: files.NewDiscovery(""),
		logger:    infrastructure.WithComponent(logger, "features-batch"),
	}
}

// OutputPath returns the feature file path for input inside outDir.
func OutputPath(outDir, input string) string {
	return filepath.Join(outDir, files.SymbolFromPath(input)+config.FeatureFileSuffix)
}

// Run enriches every tabular file in inDir and writes <SYMBOL>_features.csv
// files into outDir. Per-symbol failures are recorded, not returned.
func (b *Batch) Run(ctx context.Context, inDir, outDir string) (*BatchReport, error) {
	start := time.Now()
	report := &BatchReport{InDir: inDir, OutDir: outDir}

	found, err := b.discovery.FindTabularFiles(inDir)
	if err != nil {
		return nil, apperrors.NewIOError("failed to read input directory", err).WithContext("dir", inDir)
	}

	var inputs []files.FileInfo
	for _, f := range found {
		// Outputs written into the input directory are not inputs.
		if strings.HasSuffix(f.Name, config.FeatureFileSuffix) {
			continue
		}
		inputs = append(inputs, f)
	}

	if len(inputs) == 0 {
		b.logger.WarnContext(ctx, "No input files found", slog.String("dir", inDir))
		report.NoFiles = true
		return report, nil
	}

	report.Results = make([]BatchResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, f := range inputs {
		g.Go(func() error {
			report.Results[i] = b.RunFile(gctx, f.Path, outDir)
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(start)
	b.logger.InfoContext(ctx, "Feature batch complete",
		slog.String("in_dir", inDir),
		slog.String("out_dir", outDir),
		slog.Int("symbols", len(inputs)),
		slog.Int("succeeded", report.Succeeded()),
		slog.Duration("duration", report.Duration))

	return report, nil
}

// RunFile enriches a single input and writes its feature file into outDir.
func (b *Batch) RunFile(ctx context.Context, input, outDir string) BatchResult {
	res := BatchResult{Symbol: files.SymbolFromPath(input), Input: input}

	series, err := b.pipeline.Run(ctx, input)
	if err == nil {
		res.Rows = series.Len()
		res.Output = OutputPath(outDir, input)
		err = WriteCSV(res.Output, series)
	}

	action := "completed"
	if err != nil {
		b.logger.ErrorContext(ctx, "Failed to build features",
			slog.String("symbol", res.Symbol),
			slog.String("error", err.Error()))
		res.Output = ""
		res.Err = err
		res.Error = err.Error()
		action = "failed"
	}

	if b.notifier != nil {
		b.notifier.BroadcastUpdate("features", "symbol", action, res)
	}
	return res
}
