package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"nepsecli/internal/config"
	apperrors "nepsecli/internal/errors"
	"nepsecli/internal/features"
	"nepsecli/internal/infrastructure"
	customMiddleware "nepsecli/internal/middleware"
	"nepsecli/internal/scheduler"
	"nepsecli/internal/services"
	"nepsecli/internal/standardizer"
	handlers "nepsecli/internal/transport/http"
	"nepsecli/internal/watcher"
	ws "nepsecli/internal/websocket"
)

// Run triggers
const (
	TriggerCron  = "cron"
	TriggerWatch = "watch"
)

// Application holds every long-lived component of the web service
type Application struct {
	Config          *config.Config
	Paths           *config.Paths
	Logger          *slog.Logger
	OTelProviders   *infrastructure.OTelProviders
	Router          *chi.Mux
	Server          *http.Server
	WebSocketHub    *ws.Hub
	PipelineService *services.PipelineService
	DataService     *services.DataService
	HealthService   *services.HealthService
	Scheduler       *scheduler.Scheduler
}

// NewApplication builds the application from cfg. Nothing is started until Run.
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := a.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	a.setupRouter()
	a.createServer()
	return a, nil
}

func (a *Application) initializeServices() error {
	a.WebSocketHub = ws.NewHub(a.Logger)

	pipeline, err := features.NewPipeline(features.OptionsFromConfig(a.Config.Indicators), a.Logger)
	if err != nil {
		return err
	}

	std := standardizer.New(standardizer.Options{
		Workers:  a.Config.Standardizer.Workers,
		Notifier: a.WebSocketHub,
	}, a.Logger)
	batch := features.NewBatch(pipeline, a.Config.Indicators.Workers, a.WebSocketHub, a.Logger)

	a.PipelineService = services.NewPipelineService(a.Paths, std, batch, a.WebSocketHub, a.Logger)

	a.DataService, err = services.NewDataService(a.Paths, pipeline, a.Config.Server.CacheSize, a.Logger)
	if err != nil {
		return err
	}

	a.HealthService = services.NewHealthService(config.AppVersion, a.Paths.DataDir, a.WebSocketHub)
	return nil
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Outermost middleware does not wrap the writer, so /ws can hijack it
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.Recoverer(a.Logger))

	r.HandleFunc("/ws", a.handleWebSocket)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	errorHandler := apperrors.NewErrorHandler(a.Logger, customMiddleware.GetRequestID, false)
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	dataHandler := handlers.NewDataHandler(a.DataService, a.Logger, errorHandler)
	pipelineHandler := handlers.NewPipelineHandler(a.PipelineService, a.Logger, errorHandler)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.Telemetry)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		if rl := a.Config.Server.RateLimit; rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger).Handler)
		}

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Get("/health", healthHandler.HealthCheck)

			r.Route("/v1", func(r chi.Router) {
				dataHandler.Register(r)
				pipelineHandler.Register(r)
			})
		})
	})

	a.Router = r
}

func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	a.Logger.DebugContext(r.Context(), "WebSocket upgrade attempt",
		slog.String("origin", r.Header.Get("Origin")),
		slog.String("remote_addr", r.RemoteAddr))
	ws.ServeWS(a.WebSocketHub, w, r)
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run starts the background components and the HTTP server, blocks until ctx
// is done or the server fails, and then shuts everything down.
func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Build everything that can fail before starting anything.
	var sched *scheduler.Scheduler
	if a.Config.Schedule.Enabled {
		var err error
		sched, err = scheduler.New(ctx, a.Config.Schedule.Cron, a.runScheduled, a.Logger)
		if err != nil {
			return err
		}
	}

	var w *watcher.Watcher
	if a.Config.Watch.Enabled {
		var err error
		w, err = watcher.New(a.Paths.DataDir, a.Config.Watch.Debounce, a.onFileSettled, a.Logger)
		if err != nil {
			return err
		}
	}

	a.WebSocketHub.Start()

	if sched != nil {
		a.Scheduler = sched
		sched.Start()
		a.Logger.InfoContext(ctx, "Scheduler started",
			slog.String("cron", a.Config.Schedule.Cron),
			slog.Time("next", sched.Next()))
	}

	watchDone := make(chan error, 1)
	if w != nil {
		go func() { watchDone <- w.Run(ctx) }()
	} else {
		close(watchDone)
	}

	serverErr := make(chan error, 1)
	go func() {
		a.Logger.InfoContext(ctx, "HTTP server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Shutdown requested")
	case err, ok := <-serverErr:
		if ok {
			runErr = fmt.Errorf("server error: %w", err)
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
		}
	}

	cancel()
	if err := a.Stop(context.Background()); err != nil && runErr == nil {
		runErr = err
	}
	if err := <-watchDone; err != nil {
		a.Logger.Warn("Watcher stopped with error", slog.String("error", err.Error()))
	}
	return runErr
}

// Stop shuts the server down and releases background components.
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if a.Scheduler != nil {
		a.Scheduler.Stop(shutdownCtx)
	}
	a.WebSocketHub.Stop()

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.Info("Application shutdown complete")
	return errors.Join(errs...)
}

func (a *Application) runScheduled(ctx context.Context) error {
	_, err := a.PipelineService.RunAll(ctx, TriggerCron)
	if errors.Is(err, services.ErrRunInProgress) {
		a.Logger.InfoContext(ctx, "Scheduled run skipped, another run is active")
		return nil
	}
	return err
}

// onFileSettled standardizes a changed source file and refreshes its features.
func (a *Application) onFileSettled(ctx context.Context, path string) {
	if strings.HasSuffix(path, config.FeatureFileSuffix) {
		return
	}
	res := a.PipelineService.StandardizeFile(ctx, path)
	if res.Status == standardizer.StatusFailed {
		return
	}
	if _, err := a.PipelineService.EnrichFile(ctx, path, TriggerWatch); err != nil {
		a.Logger.WarnContext(ctx, "Feature refresh failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
}
