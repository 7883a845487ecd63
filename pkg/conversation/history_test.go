package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/moodchat/pkg/emotion"
)

func userTurn(text string, c emotion.Category) Turn {
	return Turn{Role: RoleUser, Text: text, Emotion: c}
}

// recount tallies the emotions of the retained turns from scratch.
func recount(h *History) map[emotion.Category]int {
	out := make(map[emotion.Category]int)
	for _, t := range h.Turns() {
		if t.Emotion != "" {
			out[t.Emotion]++
		}
	}
	return out
}

func TestNewHistory_DefaultLimit(t *testing.T) {
	assert.Equal(t, DefaultWindowSize, NewHistory(0).Limit())
	assert.Equal(t, DefaultWindowSize, NewHistory(-3).Limit())
	assert.Equal(t, 4, NewHistory(4).Limit())
}

func TestHistory_FiveAppendsCapThree(t *testing.T) {
	h := NewHistory(3)
	h.Append(userTurn("one", emotion.Anxiety))
	h.Append(userTurn("two", emotion.Anxiety))
	h.Append(userTurn("three", emotion.Positive))
	h.Append(userTurn("four", emotion.Neutral))
	dropped := h.Append(userTurn("five", emotion.Positive))

	require.Equal(t, 3, h.Len())
	texts := make([]string, 0, 3)
	for _, turn := range h.Turns() {
		texts = append(texts, turn.Text)
	}
	assert.Equal(t, []string{"three", "four", "five"}, texts)
	assert.Len(t, dropped, 1)
	assert.Equal(t, "two", dropped[0].Text)

	assert.Equal(t, map[emotion.Category]int{
		emotion.Positive: 2,
		emotion.Neutral:  1,
	}, h.Tally())
}

func TestHistory_TallyNeverDrifts(t *testing.T) {
	cats := []emotion.Category{emotion.Anxiety, emotion.Positive, "", emotion.Anger, emotion.Neutral, emotion.Depression}
	for limit := 1; limit <= 7; limit++ {
		h := NewHistory(limit)
		for i := 0; i < 50; i++ {
			h.Append(Turn{Role: RoleUser, Text: "x", Emotion: cats[(i*7+limit)%len(cats)]})
			require.LessOrEqual(t, h.Len(), limit)
			require.Equal(t, recount(h), h.Tally(), "limit=%d step=%d", limit, i)
		}
	}
}

func TestHistory_AssistantTurnsNotTallied(t *testing.T) {
	h := NewHistory(4)
	h.Append(userTurn("hi", emotion.Positive))
	h.Append(Turn{Role: RoleAssistant, Text: "hello"})

	assert.Equal(t, map[emotion.Category]int{emotion.Positive: 1}, h.Tally())
	assert.Equal(t, 2, h.Len())
}

func TestHistory_AppendSetsTimestamp(t *testing.T) {
	h := NewHistory(2)
	before := time.Now()
	h.Append(userTurn("hi", emotion.Neutral))

	ts := h.Turns()[0].Timestamp
	assert.False(t, ts.Before(before))

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	h.Append(Turn{Role: RoleUser, Text: "later", Timestamp: fixed})
	assert.Equal(t, fixed, h.Turns()[1].Timestamp)
}

func TestHistory_Recent(t *testing.T) {
	h := NewHistory(5)
	for _, s := range []string{"a", "b", "c"} {
		h.Append(userTurn(s, emotion.Neutral))
	}

	assert.Nil(t, h.Recent(0))
	got := h.Recent(2)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Text)
	assert.Equal(t, "c", got[1].Text)
	assert.Len(t, h.Recent(10), 3)
}

func TestHistory_CopiesAreIndependent(t *testing.T) {
	h := NewHistory(3)
	h.Append(userTurn("a", emotion.Anger))

	turns := h.Turns()
	turns[0].Text = "mutated"
	tally := h.Tally()
	tally[emotion.Anger] = 99

	assert.Equal(t, "a", h.Turns()[0].Text)
	assert.Equal(t, 1, h.Tally()[emotion.Anger])
}

func TestHistory_LastEmotion(t *testing.T) {
	h := NewHistory(4)
	_, ok := h.LastEmotion()
	assert.False(t, ok)

	h.Append(userTurn("a", emotion.Anger))
	h.Append(Turn{Role: RoleAssistant, Text: "b"})
	c, ok := h.LastEmotion()
	assert.True(t, ok)
	assert.Equal(t, emotion.Anger, c)
}
