// Package errors provides standardized error handling for the content
// generation pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInputInvalid     ErrorCode = "INPUT_INVALID"
	ErrCodeImageUnreadable  ErrorCode = "IMAGE_UNREADABLE"
	ErrCodeAssetMissing     ErrorCode = "ASSET_MISSING"
	ErrCodeTranscriptFailed ErrorCode = "TRANSCRIPT_FAILED"
	ErrCodeSpeechFailed     ErrorCode = "SPEECH_FAILED"
	ErrCodeEncodeFailed     ErrorCode = "ENCODE_FAILED"
	ErrCodeStoreTransient   ErrorCode = "STORE_TRANSIENT"
	ErrCodeStorePermanent   ErrorCode = "STORE_PERMANENT"
)

// GenerationError represents a structured pipeline error.
type GenerationError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *GenerationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("GenerationError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("GenerationError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewInputInvalidError creates a non-retryable input error.
func NewInputInvalidError(details string) *GenerationError {
	return &GenerationError{
		Code:      ErrCodeInputInvalid,
		Message:   "Item input is invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewImageUnreadableError creates a non-retryable image decode error.
func NewImageUnreadableError(source string, err error) *GenerationError {
	return &GenerationError{
		Code:      ErrCodeImageUnreadable,
		Message:   "Source image could not be decoded",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAssetMissingError creates a non-retryable asset resolution error.
func NewAssetMissingError(details string) *GenerationError {
	return &GenerationError{
		Code:      ErrCodeAssetMissing,
		Message:   "Required asset missing or corrupt",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTranscriptFailedError creates a non-retryable transcript generation error.
func NewTranscriptFailedError(err error) *GenerationError {
	return &GenerationError{
		Code:      ErrCodeTranscriptFailed,
		Message:   "Transcript generation failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSpeechFailedError creates a non-retryable speech synthesis error.
func NewSpeechFailedError(details string) *GenerationError {
	return &GenerationError{
		Code:      ErrCodeSpeechFailed,
		Message:   "Speech synthesis failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEncodeFailedError creates a non-retryable video encode error.
func NewEncodeFailedError(err error) *GenerationError {
	return &GenerationError{
		Code:      ErrCodeEncodeFailed,
		Message:   "Video encode failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreTransientError creates a retryable blob store error.
func NewStoreTransientError(operation string, err error) *GenerationError {
	return &GenerationError{
		Code:      ErrCodeStoreTransient,
		Message:   "Blob store operation failed transiently",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStorePermanentError creates a non-retryable blob store error.
func NewStorePermanentError(operation string, err error) *GenerationError {
	return &GenerationError{
		Code:      ErrCodeStorePermanent,
		Message:   "Blob store operation failed permanently",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Retry Policy
// ==========================

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreTransient:
		return 3
	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// ==========================
// 4. Utility Functions
// ==========================

// AsGenerationError unwraps err into a *GenerationError if possible.
func AsGenerationError(err error) (*GenerationError, bool) {
	var genErr *GenerationError
	if stderrors.As(err, &genErr) {
		return genErr, true
	}
	return nil, false
}

// CodeOf returns the error code carried by err, or empty when err is not a
// GenerationError.
func CodeOf(err error) ErrorCode {
	if genErr, ok := AsGenerationError(err); ok {
		return genErr.Code
	}
	return ""
}

// IsFatalForItem reports whether err should fail the current item. Every
// GenerationError is fatal for its item once surfaced by a stage.
func IsFatalForItem(err error) bool {
	_, ok := AsGenerationError(err)
	return ok
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INPUT") || strings.Contains(codeStr, "IMAGE"):
		return "INPUT"
	case strings.Contains(codeStr, "ASSET"):
		return "ASSET"
	case strings.Contains(codeStr, "TRANSCRIPT") || strings.Contains(codeStr, "SPEECH"):
		return "UPSTREAM"
	case strings.Contains(codeStr, "ENCODE"):
		return "ENCODE"
	case strings.Contains(codeStr, "STORE"):
		return "STORE"
	default:
		return "OTHER"
	}
}
