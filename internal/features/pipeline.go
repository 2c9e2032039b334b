// Package features turns one standardized price file into a date-ordered
// series enriched with moving averages, RSI and MACD.
package features

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"nepsecli/internal/config"
	apperrors "nepsecli/internal/errors"
	"nepsecli/internal/indicators"
	"nepsecli/internal/infrastructure"
	"nepsecli/internal/table"
)

// Derived column names that do not depend on configuration
const (
	ColRSI        = "RSI"
	ColMACD       = "MACD"
	ColMACDSignal = "MACD_Signal"
	ColMACDHist   = "MACD_Hist"
)

// SMAColumn names the simple moving average column for window.
func SMAColumn(window int) string { return fmt.Sprintf("SMA_%d", window) }

// EMAColumn names the exponential moving average column for span.
func EMAColumn(span int) string { return fmt.Sprintf("EMA_%d", span) }

// Options holds indicator windows and spans.
type Options struct {
	SMAWindow  int
	RSIWindow  int
	FastSpan   int
	SlowSpan   int
	SignalSpan int
}

// DefaultOptions returns SMA 20, RSI 14 and MACD 12/26/9.
func DefaultOptions() Options {
	return Options{
		SMAWindow:  config.DefaultSMAWindow,
		RSIWindow:  config.DefaultRSIWindow,
		FastSpan:   config.DefaultFastSpan,
		SlowSpan:   config.DefaultSlowSpan,
		SignalSpan: config.DefaultSignalSpan,
	}
}

// OptionsFromConfig maps the indicators configuration section.
func OptionsFromConfig(cfg config.IndicatorConfig) Options {
	return Options{
		SMAWindow:  cfg.SMAWindow,
		RSIWindow:  cfg.RSIWindow,
		FastSpan:   cfg.FastSpan,
		SlowSpan:   cfg.SlowSpan,
		SignalSpan: cfg.SignalSpan,
	}
}

// Validate checks that every window is positive and the fast span is shorter.
func (o Options) Validate() error {
	for name, v := range map[string]int{
		"sma window":  o.SMAWindow,
		"rsi window":  o.RSIWindow,
		"fast span":   o.FastSpan,
		"slow span":   o.SlowSpan,
		"signal span": o.SignalSpan,
	} {
		if v <= 0 {
			return apperrors.NewValidationError(fmt.Sprintf("%s must be positive, got %d", name, v))
		}
	}
	if o.FastSpan >= o.SlowSpan {
		return apperrors.NewValidationError(
			fmt.Sprintf("fast span (%d) must be less than slow span (%d)", o.FastSpan, o.SlowSpan))
	}
	return nil
}

// Pipeline runs ingest, moving averages, RSI and MACD over one file.
// A Pipeline holds no per-run state and may be shared between goroutines.
type Pipeline struct {
	opts   Options
	logger *slog.Logger
}

// NewPipeline validates opts and returns a pipeline.
func NewPipeline(opts Options, logger *slog.Logger) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Pipeline{opts: opts, logger: infrastructure.WithComponent(logger, "features")}, nil
}

// Options returns the pipeline's configuration
func (p *Pipeline) Options() Options { return p.opts }

type step struct {
	name string
	fn   func(*Series) error
}

// Run executes every step in order over the file at path. Any failure aborts
// the run and no series is returned.
func (p *Pipeline) Run(ctx context.Context, path string) (series *Series, err error) {
	ctx, span := infrastructure.Tracer().Start(ctx, "features.run",
		trace.WithAttributes(attribute.String("file", filepath.Base(path))))
	defer span.End()

	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			infrastructure.RecordError(ctx, err)
		}
		infrastructure.RecordFile(ctx, infrastructure.Metrics().FeatureFiles, status)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s, err := ingest(path)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to load series",
			slog.String("file", filepath.Base(path)),
			slog.String("error", err.Error()))
		return nil, err
	}

	if err := p.enrich(ctx, s); err != nil {
		p.logger.ErrorContext(ctx, "Feature computation failed",
			slog.String("file", filepath.Base(path)),
			slog.String("error", err.Error()))
		return nil, err
	}

	p.logger.InfoContext(ctx, "Features computed",
		slog.String("symbol", s.Symbol()),
		slog.Int("rows", s.Len()),
		slog.Duration("duration", time.Since(start)))

	return s, nil
}

// RunTable runs the pipeline over an already loaded table.
func (p *Pipeline) RunTable(ctx context.Context, t *table.Table, symbol string) (*Series, error) {
	s, err := clean(t, symbol)
	if err != nil {
		return nil, err
	}
	if err := p.enrich(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *Pipeline) enrich(ctx context.Context, s *Series) error {
	steps := []step{
		{"moving_averages", p.addMovingAverages},
		{"rsi", p.addRSI},
		{"macd", p.addMACD},
	}
	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := st.fn(s); err != nil {
			return fmt.Errorf("%s: %w", st.name, err)
		}
	}
	return nil
}

func (p *Pipeline) addMovingAverages(s *Series) error {
	sma, err := indicators.SMA(s.close(), p.opts.SMAWindow)
	if err != nil {
		return err
	}
	fast, err := indicators.EMA(s.close(), p.opts.FastSpan)
	if err != nil {
		return err
	}
	slow, err := indicators.EMA(s.close(), p.opts.SlowSpan)
	if err != nil {
		return err
	}

	s.setDerived(SMAColumn(p.opts.SMAWindow), sma)
	s.setDerived(EMAColumn(p.opts.FastSpan), fast)
	s.setDerived(EMAColumn(p.opts.SlowSpan), slow)
	return nil
}

func (p *Pipeline) addRSI(s *Series) error {
	rsi, err := indicators.RSI(s.close(), p.opts.RSIWindow)
	if err != nil {
		return err
	}
	s.setDerived(ColRSI, rsi)
	return nil
}

func (p *Pipeline) addMACD(s *Series) error {
	res, err := indicators.MACD(s.close(),
		s.numeric[EMAColumn(p.opts.FastSpan)],
		s.numeric[EMAColumn(p.opts.SlowSpan)],
		p.opts.FastSpan, p.opts.SlowSpan, p.opts.SignalSpan)
	if err != nil {
		return err
	}
	s.setDerived(ColMACD, res.MACD)
	s.setDerived(ColMACDSignal, res.Signal)
	s.setDerived(ColMACDHist, res.Hist)
	return nil
}

// WriteCSV persists the series as a comma-delimited file, atomically.
func WriteCSV(path string, s *Series) error {
	return table.Write(path, s.Table())
}
