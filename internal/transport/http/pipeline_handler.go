package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "nepsecli/internal/errors"
)

// TriggerAPI labels runs started over HTTP
const TriggerAPI = "api"

// PipelineHandler starts standardizer and feature runs
type PipelineHandler struct {
	service      PipelineServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(service PipelineServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PipelineHandler {
	return &PipelineHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "pipeline")),
		errorHandler: errorHandler,
	}
}

// Register adds the pipeline routes to r
func (h *PipelineHandler) Register(r chi.Router) {
	r.Post("/standardize", h.Standardize)
	r.Post("/run", h.Run)
}

// Standardize handles POST /api/v1/standardize
func (h *PipelineHandler) Standardize(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Standardize(r.Context(), TriggerAPI)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Standardize requested",
		slog.Int("files", len(report.Files)),
		slog.Bool("no_files", report.NoFiles))
	render.JSON(w, r, report)
}

// Run handles POST /api/v1/run
func (h *PipelineHandler) Run(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.RunAll(r.Context(), TriggerAPI)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}
