package errors

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Problem types following RFC 7807
const (
	TypeValidation  = "/errors/validation"
	TypeNotFound    = "/errors/not-found"
	TypeSchema      = "/errors/data/schema"
	TypeParsing     = "/errors/data/parsing"
	TypeConflict    = "/errors/conflict"
	TypeRateLimit   = "/errors/rate-limit-exceeded"
	TypeTimeout     = "/errors/timeout"
	TypeInternal    = "/errors/internal"
	TypeServiceDown = "/errors/service-unavailable"
)

// ProblemDetails is an RFC 7807 problem body
type ProblemDetails struct {
	Type       string                 `json:"type"`
	Title      string                 `json:"title"`
	Status     int                    `json:"status"`
	Detail     string                 `json:"detail,omitempty"`
	Instance   string                 `json:"instance,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// NewProblemDetails creates a problem for the given request path
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:     problemType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	}
}

// WithExtension adds a member to the problem
func (p *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	if p.Extensions == nil {
		p.Extensions = make(map[string]interface{})
	}
	p.Extensions[key] = value
	return p
}

// Write sends the problem as application/problem+json
func (p *ProblemDetails) Write(w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	return json.NewEncoder(w).Encode(p)
}

// TraceIDFunc extracts a correlation ID from a request context
type TraceIDFunc func(ctx context.Context) string

// ErrorHandler turns service errors into problem responses
type ErrorHandler struct {
	logger       *slog.Logger
	traceID      TraceIDFunc
	includeStack bool
}

// NewErrorHandler creates an error handler. traceID may be nil.
func NewErrorHandler(logger *slog.Logger, traceID TraceIDFunc, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		traceID:      traceID,
		includeStack: includeStack,
	}
}

// HandleError logs err and writes the matching problem response.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	problem := ErrorToProblem(err, r.URL.Path)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	if h.traceID != nil {
		if id := h.traceID(r.Context()); id != "" {
			problem.WithExtension("trace_id", id)
		}
	}
	if h.includeStack && problem.Status >= http.StatusInternalServerError {
		problem.WithExtension("stack", string(debug.Stack()))
	}

	_ = problem.Write(w)
}

// ErrorToProblem maps err onto problem details for instance.
func ErrorToProblem(err error, instance string) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(http.StatusGatewayTimeout, TypeTimeout, "Request Timeout",
			"The request was cancelled before it completed", instance)
	}

	apiErr := FromError(err)
	problemType := TypeInternal
	title := "Internal Server Error"
	switch TypeOf(err) {
	case ErrTypeIO, ErrTypeNotFound:
		problemType, title = TypeNotFound, "Resource Not Found"
	case ErrTypeSchema:
		problemType, title = TypeSchema, "Invalid Source Schema"
	case ErrTypeParsing:
		problemType, title = TypeParsing, "Unparseable Source Data"
	case ErrTypeValidation:
		problemType, title = TypeValidation, "Validation Failed"
	case ErrTypeConflict:
		problemType, title = TypeConflict, "Conflict"
	default:
		var direct *APIError
		if errors.As(err, &direct) {
			problemType, title = problemTypeForStatus(direct.StatusCode), direct.Message
		}
	}

	problem := NewProblemDetails(apiErr.StatusCode, problemType, title, err.Error(), instance)
	if apiErr.Details != nil && apiErr.StatusCode < http.StatusInternalServerError && TypeOf(err) == "" {
		problem.WithExtension("details", apiErr.Details)
	}
	return problem
}

func problemTypeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return TypeValidation
	case http.StatusNotFound:
		return TypeNotFound
	case http.StatusConflict:
		return TypeConflict
	case http.StatusTooManyRequests:
		return TypeRateLimit
	case http.StatusServiceUnavailable:
		return TypeServiceDown
	default:
		return TypeInternal
	}
}
