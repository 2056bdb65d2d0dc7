package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Authentication (AUTH) ----

func ErrUnauthorized() *AppError {
	return New("AUTH_001", "Missing or invalid cron secret", http.StatusUnauthorized)
}

// ---- Scheduled Jobs (JOB) ----

func ErrUnknownTask(task string) *AppError {
	return New("JOB_001", fmt.Sprintf("unknown task %q", task), http.StatusNotFound)
}

func ErrCandidateQuery(err error) *AppError {
	return Wrap("JOB_002", "Failed to enumerate candidates", http.StatusInternalServerError, err)
}

// ---- External Providers (PRV) ----

func ErrProviderRequest(err error) *AppError {
	return Wrap("PRV_001", "Payment provider request failed", http.StatusBadGateway, err)
}

func ErrProviderMalformed(err error) *AppError {
	return Wrap("PRV_002", "Payment provider returned a malformed response", http.StatusBadGateway, err)
}

func ErrProviderNotFound(providerPaymentID string) *AppError {
	return New("PRV_003", fmt.Sprintf("provider payment %s not found", providerPaymentID), http.StatusNotFound)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
