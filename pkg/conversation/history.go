// Package conversation tracks per-session chat history and derives mood
// insights from it.
//
// A History is a bounded sliding window of turns with an emotion tally that
// always matches the retained turns. A Store owns one History per session
// and serializes access to it with a per-session lock.
package conversation

import (
	"time"

	"github.com/txn2/moodchat/pkg/emotion"
)

// Role identifies who produced a turn.
type Role string

const (
	// RoleUser is a message written by the end user.
	RoleUser Role = "user"

	// RoleAssistant is a reply produced by the chatbot.
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a conversation.
type Turn struct {
	Role      Role             `json:"role"`
	Text      string           `json:"text"`
	Emotion   emotion.Category `json:"emotion,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// DefaultWindowSize is the number of turns kept when no size is configured:
// five user/assistant exchanges.
const DefaultWindowSize = 10

// History is a bounded, ordered list of turns plus a running emotion tally.
// It is not safe for concurrent use; the Store guards it.
type History struct {
	turns []Turn
	limit int
	tally map[emotion.Category]int
}

// NewHistory creates a History that retains at most limit turns.
// A non-positive limit uses DefaultWindowSize.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultWindowSize
	}
	return &History{
		turns: make([]Turn, 0, limit),
		limit: limit,
		tally: make(map[emotion.Category]int),
	}
}

// Append adds a turn, dropping the oldest turns once the limit is exceeded.
// Dropped turns are removed from the tally. It returns the dropped turns.
func (h *History) Append(t Turn) []Turn {
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}
	h.turns = append(h.turns, t)
	h.count(t.Emotion, 1)

	overflow := len(h.turns) - h.limit
	if overflow <= 0 {
		return nil
	}

	dropped := make([]Turn, overflow)
	copy(dropped, h.turns[:overflow])
	for _, d := range dropped {
		h.count(d.Emotion, -1)
	}

	kept := make([]Turn, len(h.turns)-overflow, h.limit)
	copy(kept, h.turns[overflow:])
	h.turns = kept
	return dropped
}

func (h *History) count(c emotion.Category, delta int) {
	if c == "" {
		return
	}
	n := h.tally[c] + delta
	if n <= 0 {
		delete(h.tally, c)
		return
	}
	h.tally[c] = n
}

// Len returns the number of retained turns.
func (h *History) Len() int { return len(h.turns) }

// Limit returns the maximum number of retained turns.
func (h *History) Limit() int { return h.limit }

// Turns returns a copy of the retained turns, oldest first.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Recent returns a copy of the last n turns, oldest first.
func (h *History) Recent(n int) []Turn {
	if n <= 0 {
		return nil
	}
	if n > len(h.turns) {
		n = len(h.turns)
	}
	out := make([]Turn, n)
	copy(out, h.turns[len(h.turns)-n:])
	return out
}

// Tally returns a copy of the emotion counts over the retained turns.
func (h *History) Tally() map[emotion.Category]int {
	out := make(map[emotion.Category]int, len(h.tally))
	for c, n := range h.tally {
		out[c] = n
	}
	return out
}

// LastEmotion returns the emotion of the most recent turn that has one.
func (h *History) LastEmotion() (emotion.Category, bool) {
	for i := len(h.turns) - 1; i >= 0; i-- {
		if h.turns[i].Emotion != "" {
			return h.turns[i].Emotion, true
		}
	}
	return "", false
}

// emotions returns the emotions of the retained turns that carry one,
// oldest first.
func (h *History) emotions() []emotion.Category {
	out := make([]emotion.Category, 0, len(h.turns))
	for _, t := range h.turns {
		if t.Emotion != "" {
			out = append(out, t.Emotion)
		}
	}
	return out
}
