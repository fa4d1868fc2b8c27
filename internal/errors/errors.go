package errors

import (
	stderrors "errors"
)

// Sentinels for the fatal pipeline conditions. Match with errors.Is.
var (
	ErrNoMatchingFiles = &AppError{Type: ErrTypeDiscovery}
	ErrNoFilesLoaded   = &AppError{Type: ErrTypeEmptyResult}
	ErrDecode          = &AppError{Type: ErrTypeDecode}
)

// Is is a passthrough to the standard library so callers only import one
// errors package.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As is a passthrough to the standard library.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsFatal reports whether err should stop a run before the write stage.
func IsFatal(err error) bool {
	switch TypeOf(err) {
	case ErrTypeDiscovery, ErrTypeEmptyResult, ErrTypeConfig:
		return true
	}
	return false
}
