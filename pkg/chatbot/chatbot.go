// Package chatbot handles one user message end to end: it classifies the
// message, generates a reply, updates the session history and computes the
// session's mood insight. Gateway failures degrade the response instead of
// failing the request.
package chatbot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/txn2/moodchat/pkg/conversation"
	"github.com/txn2/moodchat/pkg/emotion"
	"github.com/txn2/moodchat/pkg/llm"
	"github.com/txn2/moodchat/pkg/transcript"
)

// FallbackReply is returned to the user when reply generation fails.
const FallbackReply = "I'm having trouble generating a response right now. Please try again later."

// Defaults applied by New.
const (
	DefaultMaxMessageChars = 4000
	DefaultSession         = "default"
)

// Gateway is the LLM surface the orchestrator depends on. *llm.Client
// satisfies it.
type Gateway interface {
	ClassifyEmotion(ctx context.Context, text string) (string, error)
	GenerateReply(ctx context.Context, req llm.ReplyRequest) (string, error)
}

// ValidationError reports user input that cannot be handled.
type ValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string { return e.Message }

// Config configures the orchestrator.
type Config struct {
	MaxMessageChars int    `yaml:"max_message_chars"`
	DefaultSession  string `yaml:"default_session"`
}

// Stats describes the session after the exchange.
type Stats struct {
	MessageCount    int    `json:"message_count"`
	SessionDuration string `json:"session_duration"`
}

// Result is the outcome of one handled message.
type Result struct {
	SessionID string
	Reply     string
	Emotion   emotion.Category
	RawLabel  string
	Insight   conversation.MoodInsight
	Stats     Stats

	// ClassificationErr and ReplyErr hold the gateway failures that were
	// replaced by the default category or FallbackReply.
	ClassificationErr error
	ReplyErr          error
}

// Degraded reports whether any part of the response is a fallback.
func (r *Result) Degraded() bool {
	return r.ClassificationErr != nil || r.ReplyErr != nil
}

// Orchestrator coordinates the gateway, the conversation store and the
// exchange recorder.
type Orchestrator struct {
	gateway  Gateway
	store    *conversation.Store
	recorder transcript.Recorder
	cfg      Config
	now      func() time.Time
}

// New creates an orchestrator. A nil recorder discards exchanges.
func New(gateway Gateway, store *conversation.Store, recorder transcript.Recorder, cfg Config) *Orchestrator {
	if cfg.MaxMessageChars <= 0 {
		cfg.MaxMessageChars = DefaultMaxMessageChars
	}
	if strings.TrimSpace(cfg.DefaultSession) == "" {
		cfg.DefaultSession = DefaultSession
	}
	if recorder == nil {
		recorder = transcript.Noop{}
	}
	return &Orchestrator{
		gateway:  gateway,
		store:    store,
		recorder: recorder,
		cfg:      cfg,
		now:      time.Now,
	}
}

// SessionKey returns key, or the default session when key is blank.
func (o *Orchestrator) SessionKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return o.cfg.DefaultSession
	}
	return key
}

// HandleMessage processes one user message for the session. Only invalid
// input produces an error; gateway failures are reported on the Result.
// Messages for the same session are handled one at a time.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionKey, userText string) (*Result, error) {
	text := strings.TrimSpace(userText)
	if text == "" {
		return nil, &ValidationError{Message: "message is required"}
	}
	if n := utf8.RuneCountInString(text); n > o.cfg.MaxMessageChars {
		return nil, &ValidationError{
			Message: fmt.Sprintf("message is too long: %d characters, limit is %d", n, o.cfg.MaxMessageChars),
		}
	}

	key := o.SessionKey(sessionKey)
	set := o.store.Emotions()
	started := o.now()
	res := &Result{SessionID: key}

	err := o.store.Do(key, func(sess *conversation.Session) error {
		history := sess.History()
		prior := contextTurns(history.Turns())

		raw, err := o.gateway.ClassifyEmotion(ctx, text)
		if err != nil {
			res.ClassificationErr = err
			res.Emotion = set.Default()
			logGatewayFailure("emotion classification failed", key, err)
		} else {
			res.RawLabel = raw
			res.Emotion = set.Normalize(raw)
		}

		sess.Append(conversation.Turn{
			Role:      conversation.RoleUser,
			Text:      text,
			Emotion:   res.Emotion,
			Timestamp: o.now(),
		})

		reply, err := o.gateway.GenerateReply(ctx, llm.ReplyRequest{
			Text:    text,
			Emotion: string(res.Emotion),
			History: prior,
		})
		if err != nil {
			res.ReplyErr = err
			reply = FallbackReply
			logGatewayFailure("reply generation failed", key, err)
		}
		res.Reply = reply

		sess.Append(conversation.Turn{
			Role:      conversation.RoleAssistant,
			Text:      reply,
			Timestamp: o.now(),
		})

		res.Insight = conversation.Analyze(history, set)
		info := sess.Info()
		res.Stats = Stats{
			MessageCount:    info.MessageCount,
			SessionDuration: FormatDuration(info.Duration(o.now())),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("handling message: %w", err)
	}

	if res.Insight.UrgentInterventionNeeded {
		slog.Warn("crisis indicators detected", "session_id", key, "emotion", res.Emotion)
	}

	o.record(ctx, res, text, o.now().Sub(started))
	return res, nil
}

func (o *Orchestrator) record(ctx context.Context, res *Result, text string, elapsed time.Duration) {
	ex := transcript.NewExchange(res.SessionID)
	ex.RequestID = transcript.RequestID(ctx)
	ex.DurationMS = elapsed.Milliseconds()
	ex.Emotion = string(res.Emotion)
	ex.RawLabel = res.RawLabel
	ex.RiskLevel = string(res.Insight.RiskLevel)
	ex.ClassificationDegraded = llm.Kind(res.ClassificationErr)
	ex.ReplyDegraded = llm.Kind(res.ReplyErr)
	ex.MessageChars = utf8.RuneCountInString(text)
	ex.ReplyChars = utf8.RuneCountInString(res.Reply)
	ex.UserText = text
	ex.ReplyText = res.Reply

	// The exchange outlives a canceled request.
	if err := o.recorder.Record(context.WithoutCancel(ctx), ex); err != nil {
		slog.Error("failed to record exchange", "session_id", res.SessionID, "error", err)
	}
}

// Insights returns the mood insight for a session without creating it.
func (o *Orchestrator) Insights(sessionKey string) conversation.MoodInsight {
	return o.store.Snapshot(o.SessionKey(sessionKey))
}

// SessionStats returns the stats of an existing session.
func (o *Orchestrator) SessionStats(sessionKey string) (Stats, error) {
	info, err := o.store.Info(o.SessionKey(sessionKey))
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		MessageCount:    info.MessageCount,
		SessionDuration: FormatDuration(info.Duration(o.now())),
	}, nil
}

// Reset discards a session's history. It reports whether the session existed.
func (o *Orchestrator) Reset(_ context.Context, sessionKey string) bool {
	key := o.SessionKey(sessionKey)
	existed := o.store.Reset(key)
	slog.Info("session reset", "session_id", key, "existed", existed)
	return existed
}

// Store returns the conversation store.
func (o *Orchestrator) Store() *conversation.Store { return o.store }

// Recorder returns the exchange recorder.
func (o *Orchestrator) Recorder() transcript.Recorder { return o.recorder }

// FormatDuration renders d as h:mm:ss, truncated to whole seconds.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

func contextTurns(turns []conversation.Turn) []llm.ContextTurn {
	out := make([]llm.ContextTurn, 0, len(turns))
	for _, t := range turns {
		role := llm.RoleUser
		if t.Role == conversation.RoleAssistant {
			role = llm.RoleAssistant
		}
		out = append(out, llm.ContextTurn{Role: role, Text: t.Text})
	}
	return out
}

func logGatewayFailure(msg, session string, err error) {
	if llm.IsAuth(err) {
		slog.Error(msg+": credential rejected", "session_id", session, "error", err)
		return
	}
	slog.Warn(msg, "session_id", session, "kind", llm.Kind(err), "error", err)
}
