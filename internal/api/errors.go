package api

import (
	"errors"
	"net/http"

	"github.com/lowaak/interval-split/internal/engine"
	"github.com/lowaak/interval-split/internal/interval"
	"github.com/lowaak/interval-split/internal/storage"
)

// APIError represents a structured API error
type APIError struct {
	HTTPStatus int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// API error codes
const (
	ErrCodeInvalidJSON   = "INVALID_JSON"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	ErrCodeRunInProgress = "RUN_IN_PROGRESS"
	ErrCodeUnavailable   = "UNAVAILABLE"
	ErrCodeStoreError    = "STORE_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Predefined API errors
var (
	ErrInvalidJSON = &APIError{
		HTTPStatus: http.StatusBadRequest,
		Code:       ErrCodeInvalidJSON,
		Message:    "Invalid JSON body",
	}
	ErrInvalidDate = &APIError{
		HTTPStatus: http.StatusBadRequest,
		Code:       ErrCodeValidation,
		Message:    "date must be YYYY-MM-DD",
	}
	ErrRecordNotFound = &APIError{
		HTTPStatus: http.StatusNotFound,
		Code:       ErrCodeNotFound,
		Message:    "Record not found",
	}
	ErrRecordExists = &APIError{
		HTTPStatus: http.StatusConflict,
		Code:       ErrCodeAlreadyExists,
		Message:    "Record already exists",
	}
	ErrRunInProgress = &APIError{
		HTTPStatus: http.StatusConflict,
		Code:       ErrCodeRunInProgress,
		Message:    "A run is in progress, reset it first",
	}
	ErrTimerUnavailable = &APIError{
		HTTPStatus: http.StatusServiceUnavailable,
		Code:       ErrCodeUnavailable,
		Message:    "Timer is shutting down",
	}
	ErrInternalError = &APIError{
		HTTPStatus: http.StatusInternalServerError,
		Code:       ErrCodeInternalError,
		Message:    "Internal server error",
	}
)

// NewValidationError creates a validation error with a custom message
func NewValidationError(message string) *APIError {
	return &APIError{
		HTTPStatus: http.StatusBadRequest,
		Code:       ErrCodeValidation,
		Message:    message,
	}
}

// MapDomainError maps domain errors to API errors
func MapDomainError(err error) *APIError {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, storage.ErrRecordNotFound):
		return ErrRecordNotFound
	case errors.Is(err, storage.ErrRecordExists):
		return ErrRecordExists
	case errors.Is(err, engine.ErrRunInProgress):
		return ErrRunInProgress
	case errors.Is(err, engine.ErrRunnerStopped):
		return ErrTimerUnavailable
	case errors.Is(err, interval.ErrInvalidPlan):
		return NewValidationError(err.Error())
	default:
		return ErrInternalError
	}
}
