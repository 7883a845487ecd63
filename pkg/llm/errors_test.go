package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestTransportError_Transient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"timeout", timeoutErr{}, true},
		{"deadline", context.DeadlineExceeded, true},
		{"reset", syscall.ECONNRESET, true},
		{"refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"eof", io.EOF, true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"canceled", context.Canceled, false},
		{"dns", errors.New("no such host"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := &TransportError{Op: "POST", Err: tt.err}
			assert.Equal(t, tt.want, te.Transient())
		})
	}
}

func TestErrorHelpers(t *testing.T) {
	transport := fmt.Errorf("wrapped: %w", &TransportError{Op: "POST", Err: io.EOF})
	upstream := &UpstreamError{StatusCode: 500, Message: "boom"}
	auth := &AuthError{Message: "missing"}

	assert.True(t, IsTransport(transport))
	assert.False(t, IsUpstream(transport))
	assert.True(t, IsUpstream(upstream))
	assert.True(t, IsAuth(auth))

	assert.Equal(t, "transport", Kind(transport))
	assert.Equal(t, "upstream", Kind(upstream))
	assert.Equal(t, "auth", Kind(auth))
	assert.Equal(t, "unknown", Kind(errors.New("x")))
	assert.Empty(t, Kind(nil))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "llm upstream: status 502: bad gateway", (&UpstreamError{StatusCode: 502, Message: "bad gateway"}).Error())
	assert.Equal(t, "llm upstream: no choices", (&UpstreamError{Message: "no choices"}).Error())
	assert.Equal(t, "llm auth: api key is not configured", (&AuthError{Message: "api key is not configured"}).Error())
	assert.Equal(t, "llm auth: status 401: nope", (&AuthError{StatusCode: 401, Message: "nope"}).Error())
	assert.Equal(t, "llm transport: POST: EOF", (&TransportError{Op: "POST", Err: io.EOF}).Error())
}
