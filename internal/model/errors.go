package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies analysis failures for callers and transports
type ErrorKind string

const (
	KindInvalidInput   ErrorKind = "INVALID_INPUT"         // Empty or too-short document, malformed request
	KindTextProcessing ErrorKind = "TEXT_PROCESSING_ERROR" // Chunking failure
	KindAPI            ErrorKind = "API_ERROR"             // AI service returned nothing, invalid JSON or wrong shape
	KindConfiguration  ErrorKind = "CONFIGURATION_ERROR"   // Missing or invalid model config or prompt template
	KindUnknown        ErrorKind = "UNKNOWN_ERROR"         // Catch-all
)

// AnalysisError is the error type surfaced by every analysis component
type AnalysisError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface
func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// NewError creates an AnalysisError without a cause
func NewError(kind ErrorKind, message string) *AnalysisError {
	return &AnalysisError{Kind: kind, Message: message}
}

// WrapError creates an AnalysisError around an underlying cause
func WrapError(kind ErrorKind, message string, err error) *AnalysisError {
	return &AnalysisError{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind of err, or KindUnknown when err is not an AnalysisError
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var analysisErr *AnalysisError
	if errors.As(err, &analysisErr) {
		return analysisErr.Kind
	}
	return KindUnknown
}

// EnsureKind returns err unchanged when it already carries a kind,
// otherwise wraps it with the given kind and message.
func EnsureKind(err error, kind ErrorKind, message string) error {
	if err == nil {
		return nil
	}
	var analysisErr *AnalysisError
	if errors.As(err, &analysisErr) {
		return err
	}
	return WrapError(kind, message, err)
}
