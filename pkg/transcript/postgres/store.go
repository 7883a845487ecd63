// Package postgres provides PostgreSQL storage for chat exchanges.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/txn2/moodchat/pkg/transcript"
)

const (
	defaultRetentionDays = 30
	defaultQueryLimit    = 50
	maxQueryLimit        = 1000
)

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// exchangeColumns lists the columns written and read, in scan order.
var exchangeColumns = []string{
	"id", "session_id", "request_id", "timestamp", "duration_ms",
	"emotion", "raw_label", "risk_level",
	"classification_error", "reply_error",
	"message_chars", "reply_chars", "user_text", "reply_text",
}

// Config configures the PostgreSQL exchange store.
type Config struct {
	RetentionDays int
	StoreText     bool
}

// Store implements transcript.Recorder using PostgreSQL.
type Store struct {
	db            *sql.DB
	retentionDays int
	storeText     bool
	cancel        context.CancelFunc
	done          chan struct{}
}

// New creates a PostgreSQL exchange store. The schema is created by the
// migrate package.
func New(db *sql.DB, cfg Config) *Store {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = defaultRetentionDays
	}
	return &Store{
		db:            db,
		retentionDays: cfg.RetentionDays,
		storeText:     cfg.StoreText,
	}
}

// Record inserts an exchange. Message texts are dropped unless the store
// was configured with StoreText.
func (s *Store) Record(ctx context.Context, ex transcript.Exchange) error {
	if !s.storeText {
		ex.UserText = ""
		ex.ReplyText = ""
	}

	query, args, err := psq.Insert("exchanges").
		Columns(exchangeColumns...).
		Values(
			ex.ID, ex.SessionID, ex.RequestID, ex.Timestamp, ex.DurationMS,
			ex.Emotion, ex.RawLabel, ex.RiskLevel,
			ex.ClassificationDegraded, ex.ReplyDegraded,
			ex.MessageChars, ex.ReplyChars, ex.UserText, ex.ReplyText,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("building exchange insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting exchange: %w", err)
	}
	return nil
}

func applyFilter(qb sq.SelectBuilder, filter transcript.Filter) sq.SelectBuilder {
	if filter.SessionID != "" {
		qb = qb.Where(sq.Eq{"session_id": filter.SessionID})
	}
	if filter.StartTime != nil {
		qb = qb.Where(sq.GtOrEq{"timestamp": *filter.StartTime})
	}
	if filter.EndTime != nil {
		qb = qb.Where(sq.LtOrEq{"timestamp": *filter.EndTime})
	}
	if filter.Degraded != nil {
		if *filter.Degraded {
			qb = qb.Where(sq.Or{
				sq.NotEq{"classification_error": ""},
				sq.NotEq{"reply_error": ""},
			})
		} else {
			qb = qb.Where(sq.Eq{"classification_error": "", "reply_error": ""})
		}
	}
	return qb
}

// Query returns exchanges matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter transcript.Filter) ([]transcript.Exchange, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	qb := applyFilter(psq.Select(exchangeColumns...).From("exchanges"), filter).
		OrderBy("timestamp DESC").
		Limit(uint64(limit)) // #nosec G115 -- bounded above
	if filter.Offset > 0 {
		qb = qb.Offset(uint64(filter.Offset)) // #nosec G115 -- checked positive
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building exchange query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying exchanges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]transcript.Exchange, 0, limit)
	for rows.Next() {
		var ex transcript.Exchange
		if err := rows.Scan(
			&ex.ID, &ex.SessionID, &ex.RequestID, &ex.Timestamp, &ex.DurationMS,
			&ex.Emotion, &ex.RawLabel, &ex.RiskLevel,
			&ex.ClassificationDegraded, &ex.ReplyDegraded,
			&ex.MessageChars, &ex.ReplyChars, &ex.UserText, &ex.ReplyText,
		); err != nil {
			return nil, fmt.Errorf("scanning exchange row: %w", err)
		}
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating exchange rows: %w", err)
	}
	return out, nil
}

// Count returns the number of exchanges matching the filter.
func (s *Store) Count(ctx context.Context, filter transcript.Filter) (int, error) {
	query, args, err := applyFilter(psq.Select("COUNT(*)").From("exchanges"), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting exchanges: %w", err)
	}
	return count, nil
}

// Cleanup removes exchanges older than the retention period.
func (s *Store) Cleanup(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM exchanges WHERE timestamp < $1`, cutoff); err != nil {
		return fmt.Errorf("cleaning up exchanges: %w", err)
	}
	return nil
}

// StartCleanupRoutine periodically deletes expired exchanges until Close.
func (s *Store) StartCleanupRoutine(interval time.Duration) {
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
				if err := s.Cleanup(ctx); err != nil && ctx.Err() == nil {
					slog.Warn("exchange cleanup failed", "error", err)
				}
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

var _ transcript.Recorder = (*Store)(nil)
