package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Error kinds reported for failed remote calls.
const (
	KindRateLimit        = "RateLimitError"
	KindBadRequest       = "BadRequestError"
	KindAuthentication   = "AuthenticationError"
	KindPermissionDenied = "PermissionDeniedError"
	KindNotFound         = "NotFoundError"
	KindConflict         = "ConflictError"
	KindUnprocessable    = "UnprocessableEntityError"
	KindInternalServer   = "InternalServerError"
	KindAPIStatus        = "APIStatusError"
	KindTimeout          = "APITimeoutError"
	KindConnection       = "APIConnectionError"
	KindCanceled         = "Canceled"
	KindUnknown          = "UnknownError"
)

// IsTransient returns true if the error (or any error in its chain) matches
// common transient network patterns (timeouts, connection resets, DNS
// failures).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// Check for network-level transient errors.
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// Connection reset / refused / DNS.
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"connection refused",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, // Request Timeout
		429, // Too Many Requests
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}

// KindForStatus maps an HTTP status code from the model API to an error kind.
func KindForStatus(statusCode int) string {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return KindRateLimit
	case statusCode == http.StatusBadRequest:
		return KindBadRequest
	case statusCode == http.StatusUnauthorized:
		return KindAuthentication
	case statusCode == http.StatusForbidden:
		return KindPermissionDenied
	case statusCode == http.StatusNotFound:
		return KindNotFound
	case statusCode == http.StatusConflict:
		return KindConflict
	case statusCode == http.StatusUnprocessableEntity:
		return KindUnprocessable
	case statusCode == http.StatusRequestTimeout:
		return KindTimeout
	case statusCode >= 500:
		return KindInternalServer
	default:
		return KindAPIStatus
	}
}

// KindForError classifies an error that carries no HTTP status.
func KindForError(err error) string {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	if IsTransient(err) {
		return KindConnection
	}
	return KindUnknown
}
