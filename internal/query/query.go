// Package query performs single calls to the remote language-model service.
// It holds no retry or concurrency logic; failures come back as *Error tagged
// with a Status so callers can tell rate limits apart from other failures.
package query

import (
	"context"
	"errors"
	"fmt"
)

// Client sends one rendered prompt and returns the raw model output.
type Client interface {
	Query(ctx context.Context, prompt string) (string, error)
}

// Status tags a failed call.
type Status int

const (
	// StatusFailed is any failure other than a rate limit.
	StatusFailed Status = iota
	// StatusRateLimited means the service rejected the call with a rate limit.
	StatusRateLimited
)

func (s Status) String() string {
	switch s {
	case StatusRateLimited:
		return "rate_limited"
	default:
		return "failed"
	}
}

// Error is the failure variant returned by Client implementations.
type Error struct {
	Status Status
	// Kind names the failure, e.g. "RateLimitError" or "AuthenticationError".
	Kind string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("query %s: %s", e.Status, e.Kind)
	}
	return fmt.Sprintf("query %s: %s: %v", e.Status, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// RateLimited builds a rate-limit failure.
func RateLimited(err error) *Error {
	return &Error{Status: StatusRateLimited, Kind: "RateLimitError", Err: err}
}

// Failed builds a non-retryable failure of the given kind.
func Failed(kind string, err error) *Error {
	return &Error{Status: StatusFailed, Kind: kind, Err: err}
}

// AsError extracts the *Error from err's chain. Untagged errors are reported
// as StatusFailed with kind "UnknownError".
func AsError(err error) *Error {
	var qe *Error
	if errors.As(err, &qe) {
		return qe
	}
	return Failed("UnknownError", err)
}

// IsRateLimited reports whether err is a rate-limit failure.
func IsRateLimited(err error) bool {
	var qe *Error
	return errors.As(err, &qe) && qe.Status == StatusRateLimited
}
