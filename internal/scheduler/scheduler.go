// Package scheduler runs the standardize-and-enrich job on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"nepsecli/internal/infrastructure"
)

// Job is the unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler manages the cron entry for the pipeline job.
type Scheduler struct {
	cron    *cron.Cron
	job     Job
	spec    string
	entryID cron.EntryID
	ctx     context.Context
	logger  *slog.Logger
}

// New parses spec (six fields, seconds first) and registers job. A run that
// is still in progress when the next tick fires causes that tick to be skipped.
func New(ctx context.Context, spec string, job Job, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = infrastructure.WithComponent(logger, "scheduler")

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))

	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		job:    job,
		spec:   spec,
		ctx:    ctx,
		logger: logger,
	}

	id, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		return nil, fmt.Errorf("register pipeline job %q: %w", spec, err)
	}
	s.entryID = id
	return s, nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started",
		slog.String("spec", s.spec),
		slog.Time("next_run", s.Next()))
}

// Stop stops the scheduler and waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out with a job still running")
	}
	s.logger.Info("Scheduler stopped")
}

// Next returns the next scheduled run time.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entryID).Next
}

// RunNow executes the job synchronously, outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context) error {
	return s.run(ctx, "manual")
}

func (s *Scheduler) tick() {
	_ = s.run(s.ctx, "cron")
}

func (s *Scheduler) run(ctx context.Context, trigger string) error {
	ctx = infrastructure.EnsureTraceID(ctx)
	s.logger.InfoContext(ctx, "Running scheduled job", slog.String("trigger", trigger))

	start := time.Now()
	err := s.job(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Scheduled job failed",
			slog.String("trigger", trigger),
			slog.String("error", err.Error()))
		return err
	}

	s.logger.InfoContext(ctx, "Scheduled job finished",
		slog.String("trigger", trigger),
		slog.Duration("duration", time.Since(start)))
	return nil
}
