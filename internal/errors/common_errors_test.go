package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{name: "discovery", errType: ErrTypeDiscovery, expected: "DISCOVERY"},
		{name: "decode", errType: ErrTypeDecode, expected: "DECODE"},
		{name: "empty result", errType: ErrTypeEmptyResult, expected: "EMPTY_RESULT"},
		{name: "parsing", errType: ErrTypeParsing, expected: "PARSING"},
		{name: "storage", errType: ErrTypeStorage, expected: "STORAGE"},
		{name: "validation", errType: ErrTypeValidation, expected: "VALIDATION"},
		{name: "config", errType: ErrTypeConfig, expected: "CONFIG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    &AppError{Type: ErrTypeDiscovery, Message: `no files match pattern "*.csv"`},
			wantMessage: `[DISCOVERY] no files match pattern "*.csv"`,
		},
		{
			name:        "error with cause",
			appError:    &AppError{Type: ErrTypeDecode, Message: "cannot decode a.csv", Cause: fmt.Errorf("invalid UTF-8")},
			wantMessage: "[DECODE] cannot decode a.csv: invalid UTF-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("write failed", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestAppError_WithContext(t *testing.T) {
	err := &AppError{Type: ErrTypeParsing, Message: "bad row"}
	require.Nil(t, err.Context)

	got := err.WithContext("line", 7).WithContext("file", "a.csv")

	assert.Same(t, err, got)
	assert.Equal(t, 7, err.Context["line"])
	assert.Equal(t, "a.csv", err.Context["file"])
}

func TestConstructors(t *testing.T) {
	t.Run("discovery", func(t *testing.T) {
		err := NewDiscoveryError("*.csv")
		assert.Equal(t, ErrTypeDiscovery, err.Type)
		assert.Equal(t, "*.csv", err.Context["pattern"])
		assert.True(t, errors.Is(err, ErrNoMatchingFiles))
		assert.False(t, errors.Is(err, ErrNoFilesLoaded))
	})

	t.Run("decode", func(t *testing.T) {
		cause := errors.New("boom")
		err := NewDecodeError("x.csv", cause)
		assert.Equal(t, "x.csv", err.Context["path"])
		assert.True(t, errors.Is(err, ErrDecode))
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("empty result", func(t *testing.T) {
		err := NewEmptyResultError(3)
		assert.Equal(t, 3, err.Context["attempted"])
		assert.True(t, errors.Is(err, ErrNoFilesLoaded))
	})

	t.Run("config", func(t *testing.T) {
		err := NewConfigError("bad level", nil)
		assert.Equal(t, "[CONFIG] bad level", err.Error())
	})

	t.Run("validation", func(t *testing.T) {
		err := NewValidationError("missing column")
		assert.Equal(t, ErrTypeValidation, err.Type)
	})

	t.Run("parsing", func(t *testing.T) {
		err := NewParsingError("bad csv", errors.New("quote"))
		assert.Equal(t, ErrTypeParsing, err.Type)
	})
}
