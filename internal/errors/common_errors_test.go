package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name: "error without cause",
			appError: &AppError{
				Type:    ErrTypeSchema,
				Message: "required column \"Close\" is missing",
			},
			wantMessage: "[SCHEMA] required column \"Close\" is missing",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeIO,
				Message: "failed to open AHPC.csv",
				Cause:   fmt.Errorf("permission denied"),
			},
			wantMessage: "[IO] failed to open AHPC.csv: permission denied",
		},
		{
			name: "error with empty message",
			appError: &AppError{
				Type: ErrTypeValidation,
			},
			wantMessage: "[VALIDATION] ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_UnwrapAndAs(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := fmt.Errorf("load NABIL.csv: %w", NewParsingError("malformed row", cause))

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrTypeParsing, appErr.Type)
	assert.True(t, errors.Is(err, cause))
}

func TestAppError_WithContext(t *testing.T) {
	appErr := &AppError{Type: ErrTypeParsing, Message: "bad date"}
	appErr.WithContext("row", 7).WithContext("value", "2024-13-45")

	assert.Equal(t, 7, appErr.Context["row"])
	assert.Equal(t, "2024-13-45", appErr.Context["value"])
}

func TestNewSchemaError(t *testing.T) {
	err := NewSchemaError("Close")

	assert.Equal(t, ErrTypeSchema, err.Type)
	assert.Contains(t, err.Error(), "Close")
	assert.Equal(t, "Close", err.Context["column"])
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil error", nil, ""},
		{"plain error", errors.New("boom"), ""},
		{"io error", NewIOError("missing", nil), ErrTypeIO},
		{"wrapped not found", fmt.Errorf("lookup: %w", NewNotFoundError("metadata file")), ErrTypeNotFound},
		{"config error", NewConfigError("bad cron", nil), ErrTypeConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
			if tt.want != "" {
				assert.True(t, IsType(tt.err, tt.want))
			}
		})
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"io maps to 404", NewIOError("no file", nil), http.StatusNotFound, "NOT_FOUND"},
		{"schema maps to 422", NewSchemaError("Date"), http.StatusUnprocessableEntity, "SCHEMA_ERROR"},
		{"parsing maps to 422", NewParsingError("bad date", nil), http.StatusUnprocessableEntity, "PARSING_ERROR"},
		{"validation maps to 400", NewValidationError("tail must be positive"), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown maps to 500", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{"api error passes through", ErrRateLimitExceeded, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := FromError(tt.err)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
		})
	}
}
