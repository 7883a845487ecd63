package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// TransportError reports a failure to reach the upstream API: DNS, connect,
// reset, timeout or a truncated response body.
type TransportError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("llm transport: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying network error.
func (e *TransportError) Unwrap() error { return e.Err }

// Transient reports whether the failure is worth a single retry.
func (e *TransportError) Transient() bool {
	if errors.Is(e.Err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(e.Err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(e.Err, syscall.ECONNRESET) ||
		errors.Is(e.Err, syscall.ECONNREFUSED) ||
		errors.Is(e.Err, syscall.EPIPE) ||
		errors.Is(e.Err, io.EOF) ||
		errors.Is(e.Err, io.ErrUnexpectedEOF)
}

// UpstreamError reports a non-success status or an unusable response body.
type UpstreamError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return "llm upstream: " + e.Message
	}
	return fmt.Sprintf("llm upstream: status %d: %s", e.StatusCode, e.Message)
}

// AuthError reports a missing API key or one rejected by the upstream.
type AuthError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.StatusCode == 0 {
		return "llm auth: " + e.Message
	}
	return fmt.Sprintf("llm auth: status %d: %s", e.StatusCode, e.Message)
}

// IsTransport reports whether err is or wraps a *TransportError.
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IsUpstream reports whether err is or wraps an *UpstreamError.
func IsUpstream(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}

// IsAuth reports whether err is or wraps an *AuthError.
func IsAuth(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

// Kind returns a short label for err, used in logs and exchange records.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsAuth(err):
		return "auth"
	case IsTransport(err):
		return "transport"
	case IsUpstream(err):
		return "upstream"
	default:
		return "unknown"
	}
}
