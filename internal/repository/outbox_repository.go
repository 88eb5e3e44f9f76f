package repository

import (
	"context"
	"database/sql"
	"time"
)

// OutboxEvent is one domain event waiting to be published to the
// broker.  Events are appended by OwnershipStore.SaveAggregate inside
// the same transaction as the aggregate write; the drainer publishes
// them afterwards and marks them published.  An event is therefore
// never visible on the broker before the state change that produced it
// is durable.
type OutboxEvent struct {
	ID        string    // outbox_events.id (uuid)
	SongID    uint64    // outbox_events.song_id
	EventType string    // outbox_events.event_type (broker routing key)
	Payload   []byte    // outbox_events.payload (json)
	CreatedAt time.Time // outbox_events.created_at
}

// OutboxRepo provides the drainer's view of the outbox table.
type OutboxRepo struct {
	db *sql.DB
}

// NewOutboxRepo returns an OutboxRepo bound to the given database.
func NewOutboxRepo(db *sql.DB) *OutboxRepo { return &OutboxRepo{db: db} }

// ListUnpublished returns up to limit events not yet handed to the
// broker, in append order.
func (r *OutboxRepo) ListUnpublished(ctx context.Context, limit int) ([]OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, song_id, event_type, payload, created_at
		 FROM outbox_events
		 WHERE published_at IS NULL
		 ORDER BY created_at, id
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]OutboxEvent, 0)
	for rows.Next() {
		var ev OutboxEvent
		if err := rows.Scan(&ev.ID, &ev.SongID, &ev.EventType, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// MarkPublished stamps the event after a successful broker publish.
// Publishing is at-least-once: a crash between publish and stamp means
// the event goes out again, so consumers must tolerate duplicates.
func (r *OutboxRepo) MarkPublished(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events SET published_at=UTC_TIMESTAMP() WHERE id=? AND published_at IS NULL`, id)
	return err
}
