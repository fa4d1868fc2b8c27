package errors

import (
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeDiscovery   ErrorType = "DISCOVERY"
	ErrTypeDecode      ErrorType = "DECODE"
	ErrTypeEmptyResult ErrorType = "EMPTY_RESULT"
	ErrTypeParsing     ErrorType = "PARSING"
	ErrTypeStorage     ErrorType = "STORAGE"
	ErrTypeValidation  ErrorType = "VALIDATION"
	ErrTypeConfig      ErrorType = "CONFIG"
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

// Is reports a match against another AppError of the same type, so callers
// can test with the package sentinels regardless of message or context.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type && t.Message == "" && t.Cause == nil
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

// NewDiscoveryError reports that no input file matched the pattern
func NewDiscoveryError(pattern string) *AppError {
	return NewAppError(ErrTypeDiscovery, fmt.Sprintf("no files match pattern %q", pattern), nil).
		WithContext("pattern", pattern)
}

// NewDecodeError reports a file that could not be read with any encoding
func NewDecodeError(path string, cause error) *AppError {
	return NewAppError(ErrTypeDecode, fmt.Sprintf("cannot decode %s", path), cause).
		WithContext("path", path)
}

// NewEmptyResultError reports that every discovered file failed to load
func NewEmptyResultError(attempted int) *AppError {
	return NewAppError(ErrTypeEmptyResult, "no files were successfully read", nil).
		WithContext("attempted", attempted)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
