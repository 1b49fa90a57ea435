package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hapo/redmine-reminder/internal/models"
	"github.com/hapo/redmine-reminder/internal/scheduler"
)

// Envelope is the standard API response wrapper.
type Envelope struct {
	Data  any       `json:"data,omitempty"`
	Error *APIError `json:"error,omitempty"`
}

// APIError represents an error in the API response.
type APIError struct {
	Code    string                    `json:"code"`
	Message string                    `json:"message"`
	Details []*models.ValidationError `json:"details,omitempty"`
}

// WriteJSON writes data wrapped in the standard envelope.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, Envelope{Data: data})
}

// WriteError maps err to a status code and writes it as an API error.
func WriteError(w http.ResponseWriter, err error) {
	status, apiErr := mapError(err)
	writeEnvelope(w, status, Envelope{Error: &apiErr})
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("failed to send response", "error", err)
	}
}

func mapError(err error) (int, APIError) {
	var validationErrs models.ValidationErrors
	if errors.As(err, &validationErrs) {
		return http.StatusBadRequest, APIError{
			Code:    "validation_error",
			Message: "Validation failed",
			Details: validationErrs,
		}
	}
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, APIError{
			Code:    "validation_error",
			Message: "Validation failed",
			Details: []*models.ValidationError{validationErr},
		}
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "The requested resource was not found",
		}
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized, APIError{
			Code:    "unauthorized",
			Message: "Authentication is required",
		}
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest, APIError{
			Code:    "invalid_input",
			Message: "The request body is invalid",
		}
	case errors.Is(err, scheduler.ErrScanInProgress):
		return http.StatusConflict, APIError{
			Code:    "scan_in_progress",
			Message: "A reminder scan is already running",
		}
	default:
		slog.Error("unhandled error", "error", err)
		return http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "An unexpected error occurred",
		}
	}
}
