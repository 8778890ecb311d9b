// Package errors provides application-level error types and utilities.
// It defines the error classes used across the cadastre core (validation,
// conflict, state, not found, forbidden) and the stable reason codes callers
// match on.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation_error"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeState        ErrorType = "invalid_state"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeInternal     ErrorType = "internal_error"
	ErrorTypeBadRequest   ErrorType = "bad_request"
)

// Reason is a stable, machine-readable code identifying a specific failure.
type Reason string

const (
	ReasonInvalidShare       Reason = "INVALID_SHARE"
	ReasonInvalidArea        Reason = "INVALID_AREA"
	ReasonAreaExceeded       Reason = "AREA_EXCEEDED"
	ReasonDuplicateChildUPIN Reason = "DUPLICATE_CHILD_UPIN"
	ReasonNotReady           Reason = "NOT_READY"
	ReasonInvalidPayload     Reason = "INVALID_PAYLOAD"

	ReasonOverAllocation     Reason = "OVER_ALLOCATION"
	ReasonInsufficientShare  Reason = "INSUFFICIENT_SHARE"
	ReasonDuplicateRequest   Reason = "DUPLICATE_REQUEST"
	ReasonStaleRequest       Reason = "STALE_REQUEST"
	ReasonExpired            Reason = "EXPIRED"
	ReasonDuplicateUPIN      Reason = "DUPLICATE_UPIN"
	ReasonDuplicateOwnership Reason = "DUPLICATE_OWNERSHIP"
	ReasonVersionConflict    Reason = "VERSION_CONFLICT"

	ReasonInvalidState Reason = "INVALID_STATE"
	ReasonNotFound     Reason = "NOT_FOUND"
	ReasonForbidden    Reason = "FORBIDDEN"
)

// AppError represents an application error with additional context
type AppError struct {
	Type    ErrorType `json:"type"`
	Reason  Reason    `json:"reason,omitempty"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// WithReason returns a copy of the error tagged with reason.
func (e *AppError) WithReason(reason Reason) *AppError {
	cp := *e
	cp.Reason = reason
	return &cp
}

func newAppError(t ErrorType, code int, message string, details []string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:    t,
		Message: message,
		Code:    code,
		Details: detail,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeValidation, http.StatusBadRequest, message, details)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeNotFound, http.StatusNotFound, message, details).WithReason(ReasonNotFound)
}

// NewConflictError creates a new conflict error
func NewConflictError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeConflict, http.StatusConflict, message, details)
}

// NewStateError creates an error for an operation that is illegal in the
// entity's current lifecycle position.
func NewStateError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeState, http.StatusConflict, message, details).WithReason(ReasonInvalidState)
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeUnauthorized, http.StatusUnauthorized, message, details)
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeForbidden, http.StatusForbidden, message, details).WithReason(ReasonForbidden)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeInternal, http.StatusInternalServerError, message, details)
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeBadRequest, http.StatusBadRequest, message, details)
}

// Domain constructors. Each carries its reason so callers can match on it.

func InvalidShare(message string, details ...string) *AppError {
	return NewValidationError(message, details...).WithReason(ReasonInvalidShare)
}

func InvalidArea(message string, details ...string) *AppError {
	return NewValidationError(message, details...).WithReason(ReasonInvalidArea)
}

func AreaExceeded(message string, details ...string) *AppError {
	return NewValidationError(message, details...).WithReason(ReasonAreaExceeded)
}

func DuplicateChildUPIN(message string, details ...string) *AppError {
	return NewValidationError(message, details...).WithReason(ReasonDuplicateChildUPIN)
}

func NotReady(message string, details ...string) *AppError {
	e := newAppError(ErrorTypeValidation, http.StatusUnprocessableEntity, message, details)
	return e.WithReason(ReasonNotReady)
}

func InvalidPayload(message string, details ...string) *AppError {
	return NewValidationError(message, details...).WithReason(ReasonInvalidPayload)
}

func OverAllocation(message string, details ...string) *AppError {
	return NewConflictError(message, details...).WithReason(ReasonOverAllocation)
}

func InsufficientShare(message string, details ...string) *AppError {
	return NewConflictError(message, details...).WithReason(ReasonInsufficientShare)
}

func DuplicateRequest(message string, details ...string) *AppError {
	return NewConflictError(message, details...).WithReason(ReasonDuplicateRequest)
}

func StaleRequest(message string, details ...string) *AppError {
	return NewConflictError(message, details...).WithReason(ReasonStaleRequest)
}

func Expired(message string, details ...string) *AppError {
	e := newAppError(ErrorTypeConflict, http.StatusGone, message, details)
	return e.WithReason(ReasonExpired)
}

func DuplicateUPIN(message string, details ...string) *AppError {
	return NewConflictError(message, details...).WithReason(ReasonDuplicateUPIN)
}

func DuplicateOwnership(message string, details ...string) *AppError {
	return NewConflictError(message, details...).WithReason(ReasonDuplicateOwnership)
}

func VersionConflict(message string, details ...string) *AppError {
	return NewConflictError(message, details...).WithReason(ReasonVersionConflict)
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HasReason reports whether err (or anything it wraps) is an AppError with reason.
func HasReason(err error, reason Reason) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Reason == reason
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == ErrorTypeConflict
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == ErrorTypeNotFound
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == ErrorTypeValidation
}

// IsBusinessRuleError reports whether err is a caller-facing rule violation
// (validation, conflict or state) as opposed to an infrastructure failure.
func IsBusinessRuleError(err error) bool {
	appErr := GetAppError(err)
	if appErr == nil {
		return false
	}
	switch appErr.Type {
	case ErrorTypeValidation, ErrorTypeConflict, ErrorTypeState, ErrorTypeNotFound:
		return true
	}
	return false
}

// IsDuplicateError checks if the error is a database duplicate key error
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// MySQL duplicate entry error
	if strings.Contains(errStr, "Duplicate entry") || strings.Contains(errStr, "duplicate key") {
		return true
	}
	// PostgreSQL / SQLite unique violation
	if strings.Contains(errStr, "unique constraint") || strings.Contains(errStr, "UNIQUE constraint failed") {
		return true
	}
	return false
}
