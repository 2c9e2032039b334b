package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"nepsecli/internal/config"
	"nepsecli/internal/features"
	"nepsecli/internal/infrastructure"
	"nepsecli/internal/standardizer"
)

// Broadcaster publishes run events
type Broadcaster interface {
	BroadcastUpdate(eventType, subtype, action string, data interface{})
}

// RunReport is the outcome of a full standardize-then-enrich run
type RunReport struct {
	Trigger      string                `json:"trigger"`
	StartedAt    time.Time             `json:"started_at"`
	Duration     time.Duration         `json:"duration_ns"`
	Standardizer *standardizer.Report  `json:"standardizer"`
	Features     *features.BatchReport `json:"features,omitempty"`
}

// PipelineService serializes standardizer and feature runs over the data directory.
type PipelineService struct {
	paths        *config.Paths
	standardizer *standardizer.Standardizer
	batch        *features.Batch
	broadcaster  Broadcaster
	logger       *slog.Logger

	mu sync.Mutex
}

// NewPipelineService wires a service around the given components. Pass an
// untyped nil broadcaster to run without events.
func NewPipelineService(paths *config.Paths, std *standardizer.Standardizer, batch *features.Batch, broadcaster Broadcaster, logger *slog.Logger) *PipelineService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &PipelineService{
		paths:        paths,
		standardizer: std,
		batch:        batch,
		broadcaster:  broadcaster,
		logger:       infrastructure.WithComponent(logger, "pipeline-service"),
	}
}

// Standardize runs the standardizer over the data directory.
func (s *PipelineService) Standardize(ctx context.Context, trigger string) (*standardizer.Report, error) {
	if !s.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.mu.Unlock()

	start := time.Now()
	report, err := s.standardizer.Run(ctx, s.paths.DataDir)
	infrastructure.Metrics().RecordRun(ctx, trigger, time.Since(start), err)
	return report, err
}

// StandardizeFile standardizes a single file, waiting for any running batch.
func (s *PipelineService) StandardizeFile(ctx context.Context, path string) standardizer.FileResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.standardizer.StandardizeFile(ctx, path)
}

// EnrichFile rebuilds the feature file for one source file.
func (s *PipelineService) EnrichFile(ctx context.Context, path, trigger string) (features.BatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	res := s.batch.RunFile(ctx, path, s.paths.OutputDir)
	infrastructure.Metrics().RecordRun(ctx, trigger, time.Since(start), res.Err)
	return res, res.Err
}

// RunAll standardizes the data directory and then writes feature files for
// every symbol into the output directory.
func (s *PipelineService) RunAll(ctx context.Context, trigger string) (*RunReport, error) {
	if !s.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.mu.Unlock()

	report := &RunReport{Trigger: trigger, StartedAt: time.Now()}
	s.notify("started", report)

	err := s.runAll(ctx, report)
	report.Duration = time.Since(report.StartedAt)
	infrastructure.Metrics().RecordRun(ctx, trigger, report.Duration, err)

	if err != nil {
		s.logger.ErrorContext(ctx, "Pipeline run failed",
			slog.String("trigger", trigger),
			slog.String("error", err.Error()))
		s.notify("failed", map[string]string{"trigger": trigger, "error": err.Error()})
		return nil, err
	}

	s.logger.InfoContext(ctx, "Pipeline run complete",
		slog.String("trigger", trigger),
		slog.Duration("duration", report.Duration))
	s.notify("completed", report)
	return report, nil
}

func (s *PipelineService) runAll(ctx context.Context, report *RunReport) error {
	stdReport, err := s.standardizer.Run(ctx, s.paths.DataDir)
	if err != nil {
		return err
	}
	report.Standardizer = stdReport
	if stdReport.NoFiles {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	batchReport, err := s.batch.Run(ctx, s.paths.DataDir, s.paths.OutputDir)
	if err != nil {
		return err
	}
	report.Features = batchReport
	return nil
}

func (s *PipelineService) notify(action string, data interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastUpdate("pipeline", "run", action, data)
	}
}
