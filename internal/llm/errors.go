package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidRequest marks failures that repeating the request cannot fix
	ErrInvalidRequest = errors.New("invalid completion request")

	// ErrNoCompletion is returned when the provider answered without content
	ErrNoCompletion = errors.New("no completion returned")

	// ErrCircuitOpen is returned while the circuit breaker rejects calls
	ErrCircuitOpen = errors.New("completion service unavailable: circuit open")
)

// StatusError is a non-2xx response from a provider API
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// Unwrap exposes ErrInvalidRequest for client errors that are not worth retrying
func (e *StatusError) Unwrap() error {
	if !retryableStatus(e.StatusCode) {
		return ErrInvalidRequest
	}
	return nil
}

// retryableStatus reports whether a response status is transient
func retryableStatus(code int) bool {
	switch {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return true
	case code >= 500:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether err is a transient failure: network errors,
// timeouts, 408, 429 and 5xx responses.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrCircuitOpen) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return retryableStatus(statusErr.StatusCode)
	}
	return true
}
