package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeNotFound          ErrorType = "NOT_FOUND"
	ErrTypeUnsupportedFormat ErrorType = "UNSUPPORTED_FORMAT"
	ErrTypeParse             ErrorType = "PARSE"
	ErrTypeNotLoaded         ErrorType = "NOT_LOADED"
	ErrTypeMissingColumn     ErrorType = "MISSING_COLUMN"
	ErrTypeEmptyResult       ErrorType = "EMPTY_RESULT"
	ErrTypeRange             ErrorType = "RANGE"
	ErrTypeInsufficientData  ErrorType = "INSUFFICIENT_DATA"
	ErrTypeUnavailableMethod ErrorType = "UNAVAILABLE_METHOD"
	ErrTypeUnsupportedValue  ErrorType = "UNSUPPORTED_VALUE"
	ErrTypeConfig            ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// ErrorTypeName returns the error type as a plain string for metric labels
func (e *AppError) ErrorTypeName() string {
	return string(e.Type)
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// IsType reports whether err, or any error it wraps, is an AppError of the
// given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// TypeOf returns the AppError type carried by err, or "" when there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// Helper functions for common error types

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil).
		WithContext("resource", resource)
}

// NewUnsupportedFormatError creates an error for an input file extension the
// loader cannot read
func NewUnsupportedFormatError(ext string) *AppError {
	return NewAppError(ErrTypeUnsupportedFormat, fmt.Sprintf("unsupported file format %q", ext), nil).
		WithContext("extension", ext)
}

// NewParseError creates a column coercion error. Row is 1-based; zero means
// the failure is not tied to a single row.
func NewParseError(column string, row int, cause error) *AppError {
	msg := fmt.Sprintf("cannot parse column %q", column)
	if row > 0 {
		msg = fmt.Sprintf("cannot parse column %q at row %d", column, row)
	}
	return NewAppError(ErrTypeParse, msg, cause).
		WithContext("column", column).
		WithContext("row", row)
}

// NewNotLoadedError creates an error for an operation invoked before a dataset was loaded
func NewNotLoadedError(operation string) *AppError {
	return NewAppError(ErrTypeNotLoaded, fmt.Sprintf("%s: no dataset loaded", operation), nil).
		WithContext("operation", operation)
}

// NewMissingColumnError lists the required columns absent from the dataset
func NewMissingColumnError(columns ...string) *AppError {
	return NewAppError(ErrTypeMissingColumn,
		fmt.Sprintf("missing required columns: %s", strings.Join(columns, ", ")), nil).
		WithContext("columns", columns)
}

// NewEmptyResultError creates an error for a grouping or filter that produced zero rows
func NewEmptyResultError(message string) *AppError {
	return NewAppError(ErrTypeEmptyResult, message, nil)
}

// NewRangeError creates a parameter bounds error
func NewRangeError(param string, value, min, max int) *AppError {
	var msg string
	if max > 0 {
		msg = fmt.Sprintf("%s must be between %d and %d, got %d", param, min, max, value)
	} else {
		msg = fmt.Sprintf("%s must be at least %d, got %d", param, min, value)
	}
	return NewAppError(ErrTypeRange, msg, nil).
		WithContext("parameter", param).
		WithContext("value", value)
}

// NewInsufficientDataError creates an error for inputs too small for the requested algorithm
func NewInsufficientDataError(message string, have, need int) *AppError {
	return NewAppError(ErrTypeInsufficientData, fmt.Sprintf("%s: have %d, need %d", message, have, need), nil).
		WithContext("have", have).
		WithContext("need", need)
}

// NewUnavailableMethodError creates an error for a forecasting method not compiled into this build
func NewUnavailableMethodError(method string) *AppError {
	return NewAppError(ErrTypeUnavailableMethod, fmt.Sprintf("forecast method %q is not available in this build", method), nil).
		WithContext("method", method)
}

// NewUnsupportedValueError creates an error for an unknown enum value
func NewUnsupportedValueError(param, value string) *AppError {
	return NewAppError(ErrTypeUnsupportedValue, fmt.Sprintf("unsupported %s %q", param, value), nil).
		WithContext("parameter", param).
		WithContext("value", value)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
