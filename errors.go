package tindak

import (
	"errors"
	"fmt"
	"time"
)

// Error type constants used in ClientError.Type. They mirror the failure
// classification producers are expected to report.
const (
	// ErrorTypeTransport marks connectivity-level failures (DNS, timeout,
	// connection reset). Never retried by the engine.
	ErrorTypeTransport = "Transport"

	// ErrorTypeAuthentication marks a failed token refresh. Fatal; surfaced
	// immediately without retry.
	ErrorTypeAuthentication = "Authentication"

	// ErrorTypeRateLimited marks a 429 from the remote service. Retried by
	// the engine until the policy says otherwise.
	ErrorTypeRateLimited = "RateLimited"

	// ErrorTypeBadRequest marks a 400 the caller can do nothing about at
	// runtime.
	ErrorTypeBadRequest = "BadRequest"

	// ErrorTypeRemote marks any other non-2xx response. Passed through
	// verbatim.
	ErrorTypeRemote = "Remote"

	// ErrorTypeValidation marks invalid client configuration.
	ErrorTypeValidation = "Validation"
)

// Sentinel errors for common failure scenarios.
var (
	// ErrRateLimited is returned when retries are exhausted or retrying is
	// disabled and the remote service reported rate limiting.
	ErrRateLimited = errors.New("tindak: rate limited")

	// ErrAuthentication is returned when a token refresh fails.
	ErrAuthentication = errors.New("tindak: authentication failed")

	// ErrNoRefresher is returned by EnsureValid when the guard has an
	// expired token and no way to refresh it.
	ErrNoRefresher = errors.New("tindak: no refresher configured")
)

// ClientError is the error type produced by the engine and by classified
// producer failures.
type ClientError struct {
	Type       string
	Message    string
	Cause      error
	StatusCode int
	Body       string
	RetryAfter time.Duration
	// RetryAfterHeader keeps the raw Retry-After value when the producer saw
	// one, so the rate-limit policy can apply its own parsing rules.
	RetryAfterHeader string
	RequestID        string
	Endpoint         string
	Attempt          int
	MaxRetries       int
	Timestamp        time.Time
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	if e.Attempt > 0 {
		msg = fmt.Sprintf("%s (attempt %d/%d)", msg, e.Attempt, e.MaxRetries)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is. Two ClientErrors match when their
// Type fields match; the sentinels map to their corresponding types.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrRateLimited:
		return e.Type == ErrorTypeRateLimited
	case ErrAuthentication:
		return e.Type == ErrorTypeAuthentication
	}
	if targetErr, ok := target.(*ClientError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// NewRateLimitedError builds the classified failure a producer reports when
// the remote service answered 429. retryAfter carries the parsed Retry-After
// hint, zero when absent.
func NewRateLimitedError(retryAfter time.Duration) *ClientError {
	return &ClientError{
		Type:       ErrorTypeRateLimited,
		Message:    "remote service rate limited the request",
		StatusCode: 429,
		RetryAfter: retryAfter,
		Timestamp:  time.Now(),
	}
}

// NewUnauthorizedError builds the classified failure for a 401 response.
func NewUnauthorizedError(body string) *ClientError {
	return &ClientError{
		Type:       ErrorTypeAuthentication,
		Message:    "remote service rejected the credentials",
		StatusCode: 401,
		Body:       body,
		Timestamp:  time.Now(),
	}
}

// NewBadRequestError builds the classified failure for a 400 response.
func NewBadRequestError(detail string) *ClientError {
	return &ClientError{
		Type:       ErrorTypeBadRequest,
		Message:    "remote service rejected the request",
		StatusCode: 400,
		Body:       detail,
		Timestamp:  time.Now(),
	}
}

// NewRemoteError builds the classified failure for any other non-2xx status.
func NewRemoteError(status int, body string) *ClientError {
	return &ClientError{
		Type:       ErrorTypeRemote,
		Message:    fmt.Sprintf("remote service answered %d", status),
		StatusCode: status,
		Body:       body,
		Timestamp:  time.Now(),
	}
}

// NewTransportError wraps a connectivity-level failure from the underlying
// HTTP client.
func NewTransportError(cause error) *ClientError {
	return &ClientError{
		Type:      ErrorTypeTransport,
		Message:   "request transport failed",
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// IsRateLimited reports whether err is a rate-limit classification.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsAuthentication reports whether err is an authentication failure.
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrAuthentication)
}

// IsTransport reports whether err is a connectivity-level failure.
func IsTransport(err error) bool {
	var clientErr *ClientError
	return errors.As(err, &clientErr) && clientErr.Type == ErrorTypeTransport
}

// AsRateLimited extracts the rate-limit classification from err, if any.
// Used by the action pipeline to read the Retry-After hint.
func AsRateLimited(err error) (*ClientError, bool) {
	var clientErr *ClientError
	if errors.As(err, &clientErr) && clientErr.Type == ErrorTypeRateLimited {
		return clientErr, true
	}
	return nil, false
}
