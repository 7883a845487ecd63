package transcript

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExchange(t *testing.T) {
	before := time.Now().UTC()
	ex := NewExchange("sess-1")

	_, err := uuid.Parse(ex.ID)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", ex.SessionID)
	assert.False(t, ex.Timestamp.Before(before))
	assert.NotEqual(t, ex.ID, NewExchange("sess-1").ID)
}

func TestExchange_Degraded(t *testing.T) {
	assert.False(t, Exchange{}.Degraded())
	assert.True(t, Exchange{ClassificationDegraded: "transport"}.Degraded())
	assert.True(t, Exchange{ReplyDegraded: "upstream"}.Degraded())
}

func TestNoop(t *testing.T) {
	var r Recorder = Noop{}

	assert.NoError(t, r.Record(context.Background(), NewExchange("s")))
	_, err := r.Query(context.Background(), Filter{})
	assert.ErrorIs(t, err, ErrRecorderDisabled)
	_, err = r.Count(context.Background(), Filter{})
	assert.ErrorIs(t, err, ErrRecorderDisabled)
	assert.NoError(t, r.Close())
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))

	ctx := WithRequestID(context.Background(), "req-42")
	assert.Equal(t, "req-42", RequestID(ctx))
}
