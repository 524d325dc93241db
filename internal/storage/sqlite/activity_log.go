package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/lexiquest/internal/domain"
)

// ActivityEntry is one recorded domain event.
type ActivityEntry struct {
	ID        int64     `db:"id" json:"id"`
	EventID   string    `db:"event_id" json:"event_id"`
	EventType string    `db:"event_type" json:"event_type"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	Data      string    `db:"data" json:"data"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ActivityLog keeps a journal of domain events next to the key-value data.
type ActivityLog struct {
	db *DB
}

// NewActivityLog creates an activity log on a migrated database.
func NewActivityLog(db *DB) *ActivityLog {
	return &ActivityLog{db: db}
}

// Record stores e. Recording the same event twice is a no-op.
func (l *ActivityLog) Record(ctx context.Context, e domain.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", e.EventType(), err)
	}

	var userID *string
	if id := e.AggregateID(); id != uuid.Nil {
		s := id.String()
		userID = &s
	}

	_, err = l.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO activity_events (event_id, event_type, user_id, data, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.EventID().String(), e.EventType(), userID, string(payload), e.OccurredAt().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert activity event: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (l *ActivityLog) Recent(ctx context.Context, limit int) ([]ActivityEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	var entries []ActivityEntry
	err := l.db.SelectContext(ctx, &entries,
		`SELECT id, event_id, event_type, user_id, data, created_at
		 FROM activity_events ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent activity: %w", err)
	}
	return entries, nil
}

// Query returns entries of eventType, optionally bounded by since and until, newest first.
func (l *ActivityLog) Query(ctx context.Context, eventType string, since, until time.Time) ([]ActivityEntry, error) {
	query := "SELECT id, event_id, event_type, user_id, data, created_at FROM activity_events WHERE event_type = ?"
	args := []any{eventType}

	if !since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, since.UTC())
	}
	if !until.IsZero() {
		query += " AND created_at <= ?"
		args = append(args, until.UTC())
	}
	query += " ORDER BY created_at DESC, id DESC"

	var entries []ActivityEntry
	if err := l.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	return entries, nil
}

// Count returns the number of entries of eventType.
func (l *ActivityLog) Count(ctx context.Context, eventType string) (int, error) {
	var count int
	err := l.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM activity_events WHERE event_type = ?", eventType)
	if err != nil {
		return 0, fmt.Errorf("count activity: %w", err)
	}
	return count, nil
}

// Prune deletes entries recorded before cutoff.
func (l *ActivityLog) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := l.db.ExecContext(ctx, "DELETE FROM activity_events WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune activity: %w", err)
	}
	return result.RowsAffected()
}

// Clear deletes every entry.
func (l *ActivityLog) Clear(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, "DELETE FROM activity_events"); err != nil {
		return fmt.Errorf("clear activity: %w", err)
	}
	return nil
}
