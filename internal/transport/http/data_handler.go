package http

import (
	"log/slog"
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "nepsecli/internal/errors"
)

var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,31}$`)

// DataHandler serves symbols and feature series
type DataHandler struct {
	service      DataServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler
func NewDataHandler(service DataServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Register adds the data routes to r
func (h *DataHandler) Register(r chi.Router) {
	r.Get("/symbols", h.GetSymbols)
	r.With(h.SymbolCtx).Get("/features/{symbol}", h.GetFeatures)
}

// SymbolCtx rejects symbols that cannot name a data file.
func (h *DataHandler) SymbolCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol := chi.URLParam(r, "symbol")
		if !symbolPattern.MatchString(symbol) {
			h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("symbol", symbol))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetSymbols handles GET /api/v1/symbols
func (h *DataHandler) GetSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.service.Symbols(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"count":   len(symbols),
		"symbols": symbols,
	})
}

// GetFeatures handles GET /api/v1/features/{symbol}?tail=N
func (h *DataHandler) GetFeatures(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	tail := 0
	if raw := r.URL.Query().Get("tail"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("tail", raw))
			return
		}
		tail = n
	}

	resp, err := h.service.Features(r.Context(), symbol, tail)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}
