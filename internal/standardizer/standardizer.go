// Package standardizer rewrites raw per-symbol price files in place so that
// every file carries only the canonical columns, in canonical order.
package standardizer

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"nepsecli/internal/config"
	apperrors "nepsecli/internal/errors"
	"nepsecli/internal/files"
	"nepsecli/internal/infrastructure"
	"nepsecli/internal/table"
)

// File outcomes
const (
	StatusStandardized = "standardized"
	StatusUnchanged    = "unchanged"
	StatusFailed       = "failed"
)

// Notifier receives one update per processed file.
type Notifier interface {
	BroadcastUpdate(eventType, subtype, action string, data interface{})
}

// Options configures a Standardizer
type Options struct {
	Workers  int
	Notifier Notifier
}

// FileResult is the outcome for one file
type FileResult struct {
	Path     string        `json:"path"`
	Name     string        `json:"name"`
	Status   string        `json:"status"`
	Columns  []string      `json:"columns,omitempty"`
	Rows     int           `json:"rows"`
	Duration time.Duration `json:"duration_ns"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
}

// Report aggregates a directory run
type Report struct {
	Dir      string        `json:"dir"`
	NoFiles  bool          `json:"no_files"`
	Files    []FileResult  `json:"files"`
	Duration time.Duration `json:"duration_ns"`
}

// Count returns the number of files that ended with status.
func (r *Report) Count(status string) int {
	n := 0
	for _, f := range r.Files {
		if f.Status == status {
			n++
		}
	}
	return n
}

// Failed returns the results that carry an error.
func (r *Report) Failed() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// Standardizer normalizes every tabular file in a directory.
type Standardizer struct {
	workers   int
	notifier  Notifier
	discovery *files.Discovery
	logger    *slog.Logger
}

// New creates a Standardizer. A nil logger falls back to the global one.
func New(opts Options, logger *slog.Logger) *Standardizer {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Standardizer{
		workers:   opts.Workers,
		notifier:  opts.Notifier,
		discovery: files.NewDiscovery(""),
		logger:    infrastructure.WithComponent(logger, "standardizer"),
	}
}

// Run standardizes every recognized file directly inside dir. Files are
// independent: a failure is logged and recorded in the report, and the
// remaining files are still processed. An empty directory yields a report
// with NoFiles set. Only an unreadable directory is returned as an error.
func (s *Standardizer) Run(ctx context.Context, dir string) (*Report, error) {
	ctx, span := infrastructure.Tracer().Start(ctx, "standardizer.run",
		trace.WithAttributes(attribute.String("dir", dir)))
	defer span.End()

	start := time.Now()
	report := &Report{Dir: dir}

	all, err := s.discovery.FindTabularFiles(dir)
	if err != nil {
		appErr := apperrors.NewIOError("failed to read data directory", err).WithContext("dir", dir)
		infrastructure.RecordError(ctx, appErr)
		return nil, appErr
	}

	// Enriched outputs carry derived columns the projection would drop.
	var found []files.FileInfo
	for _, f := range all {
		if !strings.HasSuffix(f.Name, config.FeatureFileSuffix) {
			found = append(found, f)
		}
	}

	if len(found) == 0 {
		s.logger.WarnContext(ctx, "No tabular files found", slog.String("dir", dir))
		report.NoFiles = true
		return report, nil
	}

	s.logger.InfoContext(ctx, "Standardizing files",
		slog.String("dir", dir),
		slog.Int("files", len(found)),
		slog.Int("workers", s.workers))

	report.Files = make([]FileResult, len(found))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, f := range found {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				report.Files[i] = FileResult{Path: f.Path, Name: f.Name, Status: StatusFailed, Err: err, Error: err.Error()}
				return nil
			}
			report.Files[i] = s.StandardizeFile(gctx, f.Path)
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(start)

	s.logger.InfoContext(ctx, "Standardization complete",
		slog.String("dir", dir),
		slog.Int("standardized", report.Count(StatusStandardized)),
		slog.Int("unchanged", report.Count(StatusUnchanged)),
		slog.Int("failed", report.Count(StatusFailed)),
		slog.Duration("duration", report.Duration))

	return report, nil
}

// StandardizeFile loads one file, projects it onto the canonical schema and
// atomically writes it back. A file already in canonical form is not rewritten.
func (s *Standardizer) StandardizeFile(ctx context.Context, path string) (result FileResult) {
	ctx, span := infrastructure.Tracer().Start(ctx, "standardizer.file",
		trace.WithAttributes(attribute.String("file", filepath.Base(path))))
	defer span.End()

	start := time.Now()
	result = FileResult{Path: path, Name: filepath.Base(path)}

	defer func() {
		result.Duration = time.Since(start)
		infrastructure.RecordFile(ctx, infrastructure.Metrics().StandardizerFiles, result.Status)
		if s.notifier != nil {
			s.notifier.BroadcastUpdate("standardizer", "file", result.Status, result)
		}
	}()

	fail := func(err error) FileResult {
		s.logger.ErrorContext(ctx, "Failed to standardize file",
			slog.String("file", result.Name),
			slog.String("error", err.Error()))
		infrastructure.RecordError(ctx, err)
		result.Status = StatusFailed
		result.Err = err
		result.Error = err.Error()
		return result
	}

	loaded, err := table.Read(path)
	if err != nil {
		return fail(err)
	}

	standardized := Standardize(loaded)
	result.Columns = standardized.Header
	result.Rows = standardized.Len()

	if standardized.Equal(loaded) {
		s.logger.DebugContext(ctx, "File already standardized", slog.String("file", result.Name))
		result.Status = StatusUnchanged
		return result
	}

	if err := table.Write(path, standardized); err != nil {
		return fail(err)
	}

	s.logger.InfoContext(ctx, "Standardized file",
		slog.String("file", result.Name),
		slog.Int("columns", len(standardized.Header)),
		slog.Int("dropped_columns", len(loaded.Header)-len(standardized.Header)),
		slog.Int("rows", result.Rows))

	result.Status = StatusStandardized
	return result
}
