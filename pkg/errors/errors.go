package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound          = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict          = New("CONFLICT", http.StatusBadRequest, "conflict")
	ErrValidation        = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInvalidTimeFormat = New("INVALID_TIME_FORMAT", http.StatusBadRequest, "invalid time format")
	ErrInternal          = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrForbidden         = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrCacheMiss         = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Attendance, leave and payroll specific errors.
var (
	ErrEmployeeNotFound = New("EMPLOYEE_NOT_FOUND", http.StatusNotFound, "employee not found")
	ErrEmployeeInactive = New("EMPLOYEE_INACTIVE", http.StatusBadRequest, "employee is inactive")
	ErrAlreadyCheckedIn = New("ALREADY_CHECKED_IN", http.StatusBadRequest, "already checked in today")
	ErrNoCheckIn        = New("NO_CHECK_IN", http.StatusBadRequest, "check-in first before checkout")
	ErrDuplicateHoliday = New("DUPLICATE_HOLIDAY", http.StatusBadRequest, "a holiday already exists on this date")
	ErrDuplicateEmail   = New("DUPLICATE_EMAIL", http.StatusBadRequest, "email already in use")
	ErrRequestDecided   = New("REQUEST_DECIDED", http.StatusBadRequest, "request has already been decided")
	ErrRecordExists     = New("RECORD_EXISTS", http.StatusBadRequest, "attendance already recorded for this date")
)

// IsKind reports whether err carries the same code as kind.
func IsKind(err error, kind *Error) bool {
	if err == nil || kind == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code == kind.Code
	}
	return false
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
