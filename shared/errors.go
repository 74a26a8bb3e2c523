package shared

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the only error type that crosses the handler boundary with a
// caller-visible status and message. Anything else is sanitized to a 500.
type AppError struct {
	StatusCode int         `json:"code"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

func NewAppError(statusCode int, message string) *AppError {
	return &AppError{StatusCode: statusCode, Message: message}
}

func NewAppErrorWithData(statusCode int, message string, data interface{}) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Data: data}
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func ErrUnauthorized(message string) *AppError {
	if message == "" {
		message = "Unauthorized"
	}
	return NewAppError(http.StatusUnauthorized, message)
}

func ErrForbidden(message string) *AppError {
	if message == "" {
		message = "Forbidden"
	}
	return NewAppError(http.StatusForbidden, message)
}

func ErrNotFound(message string) *AppError {
	if message == "" {
		message = "Not Found"
	}
	return NewAppError(http.StatusNotFound, message)
}

func ErrConflict(message string) *AppError {
	return NewAppError(http.StatusConflict, message)
}

func ErrValidation(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message)
}

func ErrRateLimited(message string) *AppError {
	if message == "" {
		message = "Too many requests. Please try again later."
	}
	return NewAppError(http.StatusTooManyRequests, message)
}

func ErrUpstreamUnavailable(message string) *AppError {
	if message == "" {
		message = "Service temporarily unavailable. Please try again shortly."
	}
	return NewAppError(http.StatusServiceUnavailable, message)
}
