// Package transcript records chat exchanges for later review.
package transcript

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrRecorderDisabled is returned by Query when no durable store is configured.
var ErrRecorderDisabled = errors.New("transcript: recording is disabled")

// Recorder persists exchanges.
type Recorder interface {
	// Record stores one exchange.
	Record(ctx context.Context, ex Exchange) error

	// Query returns exchanges matching the filter, newest first.
	Query(ctx context.Context, filter Filter) ([]Exchange, error)

	// Count returns the number of exchanges matching the filter, ignoring
	// Limit and Offset.
	Count(ctx context.Context, filter Filter) (int, error)

	// Close releases resources.
	Close() error
}

// Exchange is one handled user message and its reply. Message texts are
// only populated when the recorder is configured to store them.
type Exchange struct {
	ID                     string    `json:"id"`
	SessionID              string    `json:"session_id"`
	RequestID              string    `json:"request_id,omitempty"`
	Timestamp              time.Time `json:"timestamp"`
	DurationMS             int64     `json:"duration_ms"`
	Emotion                string    `json:"emotion"`
	RawLabel               string    `json:"raw_label,omitempty"`
	RiskLevel              string    `json:"risk_level"`
	ClassificationDegraded string    `json:"classification_error,omitempty"`
	ReplyDegraded          string    `json:"reply_error,omitempty"`
	MessageChars           int       `json:"message_chars"`
	ReplyChars             int       `json:"reply_chars"`
	UserText               string    `json:"user_text,omitempty"`
	ReplyText              string    `json:"reply_text,omitempty"`
}

// Degraded reports whether either gateway call fell back.
func (e Exchange) Degraded() bool {
	return e.ClassificationDegraded != "" || e.ReplyDegraded != ""
}

// NewExchange creates an exchange with a fresh id stamped at now.
func NewExchange(sessionID string) Exchange {
	return Exchange{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
	}
}

// Filter selects exchanges.
type Filter struct {
	SessionID string
	StartTime *time.Time
	EndTime   *time.Time
	Degraded  *bool
	Limit     int
	Offset    int
}

// Config configures exchange recording.
type Config struct {
	Enabled       bool `yaml:"enabled"`
	StoreText     bool `yaml:"store_text"`
	RetentionDays int  `yaml:"retention_days"`
}

// Noop discards exchanges. It is used when no database is configured.
type Noop struct{}

// Record does nothing.
func (Noop) Record(context.Context, Exchange) error { return nil }

// Query always fails with ErrRecorderDisabled.
func (Noop) Query(context.Context, Filter) ([]Exchange, error) {
	return nil, ErrRecorderDisabled
}

// Count always fails with ErrRecorderDisabled.
func (Noop) Count(context.Context, Filter) (int, error) {
	return 0, ErrRecorderDisabled
}

// Close does nothing.
func (Noop) Close() error { return nil }

var _ Recorder = (*Noop)(nil)

type requestIDKey struct{}

// WithRequestID attaches a request id to ctx so recorded exchanges can be
// correlated with access logs.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id attached to ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
