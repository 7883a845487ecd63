package conversation

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/txn2/moodchat/pkg/emotion"
)

// ErrSessionNotFound is returned when an operation targets an unknown session.
var ErrSessionNotFound = errors.New("conversation: session not found")

// Config configures a Store.
type Config struct {
	// WindowSize is the maximum number of turns retained per session.
	WindowSize int `yaml:"history_window_size"`

	// IdleTTL evicts sessions that have been inactive for longer than this.
	// Zero keeps sessions for the lifetime of the process.
	IdleTTL time.Duration `yaml:"idle_ttl"`

	// CleanupInterval is how often idle sessions are swept when IdleTTL is set.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// Session is one user's conversation. Its history is only reachable through
// Store.Do, which holds the session lock for the duration of the callback.
type Session struct {
	mu      sync.Mutex
	key     string
	history *History
	created time.Time

	lastActive atomic.Int64 // unix nanoseconds
	messages   atomic.Int64
}

// Key returns the session key.
func (s *Session) Key() string { return s.key }

// History returns the session history. Only valid inside Store.Do.
func (s *Session) History() *History { return s.history }

// Append adds a turn to the history. User turns count as messages.
// Only valid inside Store.Do.
func (s *Session) Append(t Turn) []Turn {
	if t.Role == RoleUser {
		s.messages.Add(1)
	}
	return s.history.Append(t)
}

// Info returns a snapshot of the session's metadata.
func (s *Session) Info() Info {
	return Info{
		Key:          s.key,
		CreatedAt:    s.created,
		LastActiveAt: time.Unix(0, s.lastActive.Load()),
		MessageCount: int(s.messages.Load()),
	}
}

// Info describes a session without exposing its history.
type Info struct {
	Key          string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
	MessageCount int       `json:"message_count"`
}

// Duration is the time elapsed between session creation and now.
func (i Info) Duration(now time.Time) time.Duration {
	return now.Sub(i.CreatedAt)
}

// Context is a copy of a session's conversation state.
type Context struct {
	Info
	Turns []Turn                   `json:"turns"`
	Tally map[emotion.Category]int `json:"tally"`
}

// Stats summarizes the store.
type Stats struct {
	Sessions   int           `json:"sessions"`
	WindowSize int           `json:"history_window_size"`
	IdleTTL    time.Duration `json:"idle_ttl_ns"`
}

// Store keeps one Session per key in memory. Different sessions never share
// a lock; the store-wide mutex only guards the session map.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	cfg      Config
	set      *emotion.Set
	now      func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewStore creates an in-memory conversation store.
func NewStore(cfg Config, set *emotion.Set) *Store {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if set == nil {
		set = emotion.MustDefaultSet()
	}
	return &Store{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		set:      set,
		now:      time.Now,
	}
}

// Emotions returns the category set used for snapshots.
func (s *Store) Emotions() *emotion.Set { return s.set }

// session returns the session for key, creating it if needed. The session is
// marked active under s.mu so Cleanup cannot evict it before the caller locks
// it.
func (s *Store) session(key string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess, ok := s.sessions[key]
	if !ok {
		sess = &Session{
			key:     key,
			history: NewHistory(s.cfg.WindowSize),
			created: now,
		}
		s.sessions[key] = sess
	}
	sess.lastActive.Store(now.UnixNano())
	return sess
}

func (s *Store) lookup(key string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[key]
	return sess, ok
}

// GetOrCreate returns a copy of the session's context, creating the session
// if it does not exist yet.
func (s *Store) GetOrCreate(key string) Context {
	sess := s.session(key)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return Context{
		Info:  sess.Info(),
		Turns: sess.history.Turns(),
		Tally: sess.history.Tally(),
	}
}

// Do runs fn while holding the session's lock, creating the session if
// needed. Calls for the same key are serialized; calls for different keys
// run concurrently.
func (s *Store) Do(key string, fn func(*Session) error) error {
	sess := s.session(key)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.lastActive.Store(s.now().UnixNano())
	return fn(sess)
}

// Append adds a turn to the session, enforcing the window limit.
func (s *Store) Append(key string, t Turn) {
	_ = s.Do(key, func(sess *Session) error {
		sess.Append(t)
		return nil
	})
}

// Snapshot computes the mood insight for a session. Unknown sessions yield
// the empty insight.
func (s *Store) Snapshot(key string) MoodInsight {
	sess, ok := s.lookup(key)
	if !ok {
		return Analyze(NewHistory(s.cfg.WindowSize), s.set)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return Analyze(sess.history, s.set)
}

// Info returns the metadata of an existing session.
func (s *Store) Info(key string) (Info, error) {
	sess, ok := s.lookup(key)
	if !ok {
		return Info{}, ErrSessionNotFound
	}
	return sess.Info(), nil
}

// Reset removes a session. It reports whether the session existed. A call
// already running inside Do for that key finishes on the detached session.
func (s *Store) Reset(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[key]
	delete(s.sessions, key)
	return ok
}

// List returns the metadata of all sessions ordered by key.
func (s *Store) List() []Info {
	s.mu.Lock()
	out := make([]Info, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Info())
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Stats returns store-level counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Sessions:   len(s.sessions),
		WindowSize: s.cfg.WindowSize,
		IdleTTL:    s.cfg.IdleTTL,
	}
}

// Cleanup evicts sessions idle for longer than IdleTTL and returns how many
// were removed. Sessions with a call in flight are skipped.
func (s *Store) Cleanup() int {
	if s.cfg.IdleTTL <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.cfg.IdleTTL).UnixNano()
	removed := 0
	for key, sess := range s.sessions {
		if sess.lastActive.Load() > cutoff {
			continue
		}
		if !sess.mu.TryLock() {
			continue
		}
		delete(s.sessions, key)
		sess.mu.Unlock()
		removed++
	}
	return removed
}

// StartCleanupRoutine starts a goroutine that periodically evicts idle
// sessions. It does nothing when IdleTTL is zero. Close stops it.
func (s *Store) StartCleanupRoutine(interval time.Duration) {
	if s.cfg.IdleTTL <= 0 || s.cancel != nil {
		return
	}
	if interval <= 0 {
		interval = s.cfg.IdleTTL / 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Close stops the cleanup goroutine and waits for it to exit.
// It is safe to call Close even if StartCleanupRoutine was never called.
func (s *Store) Close() error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
		s.cancel = nil
	}
	return nil
}
