// Package apperrors provides the typed error taxonomy shared by
// controllers and services.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// Code represents standardized internal error codes.
type Code string

const (
	CodeValidation           Code = "VALIDATION_ERROR"
	CodeInvalidState         Code = "INVALID_STATE"
	CodeUniqueConstraint     Code = "UNIQUE_CONSTRAINT"
	CodeReferentialIntegrity Code = "REFERENTIAL_INTEGRITY"
	CodeExternalService      Code = "EXTERNAL_SERVICE"
	CodeTimeout              Code = "TIMEOUT"
	CodeNotFound             Code = "NOT_FOUND"
	CodeForbidden            Code = "FORBIDDEN"
)

// AppError is a structured application error.
type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

func NewInvalidStateError(message string) *AppError {
	return &AppError{Code: CodeInvalidState, Message: message}
}

func NewUniqueConstraintError(message string) *AppError {
	return &AppError{Code: CodeUniqueConstraint, Message: message}
}

func NewReferentialIntegrityError(message string) *AppError {
	return &AppError{Code: CodeReferentialIntegrity, Message: message}
}

func NewExternalServiceError(service string, err error) *AppError {
	return &AppError{Code: CodeExternalService, Message: service + " call failed", Details: err.Error()}
}

func NewTimeoutError(message string) *AppError {
	return &AppError{Code: CodeTimeout, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

// CodeOf extracts the Code from err, or "" when err is not an AppError.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsUniqueConstraint reports whether err is a duplicate-key violation,
// either our own taxonomy value or a driver-level error (postgres, mysql
// and sqlite phrase these differently).
func IsUniqueConstraint(err error) bool {
	if err == nil {
		return false
	}
	if CodeOf(err) == CodeUniqueConstraint {
		return true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "Duplicate entry")
}

// HTTPStatus maps an error to the status code the API responds with.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeInvalidState:
		return http.StatusConflict
	case CodeUniqueConstraint:
		return http.StatusConflict
	case CodeReferentialIntegrity:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeExternalService:
		return http.StatusBadGateway
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
