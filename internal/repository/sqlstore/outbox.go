package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-workflow/internal/model"
	"github.com/jwalitptl/clinic-workflow/internal/repository"
)

const outboxColumns = `id, event_type, payload, status, error_message, retry_count, retry_at, created_at, processed_at, updated_at`

type outboxRepository struct {
	db *sqlx.DB
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}

// GetPending returns events due for delivery, oldest first. Delivery assumes a
// single processor per store.
func (r *outboxRepository) GetPending(ctx context.Context, limit int, now time.Time) ([]*model.OutboxEvent, error) {
	query := r.db.Rebind(`
		SELECT ` + outboxColumns + `
		FROM outbox_events
		WHERE status IN (?, ?)
		AND (retry_at IS NULL OR retry_at <= ?)
		ORDER BY created_at ASC
		LIMIT ?
	`)

	events := []*model.OutboxEvent{}
	err := r.db.SelectContext(ctx, &events, query,
		string(model.OutboxStatusPending),
		string(model.OutboxStatusRetry),
		now.UTC(),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", err)
	}
	return events, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := r.db.Rebind(`
		UPDATE outbox_events
		SET status = ?, error_message = NULL, processed_at = ?, updated_at = ?
		WHERE id = ?
	`)
	if _, err := r.db.ExecContext(ctx, query, string(model.OutboxStatusProcessed), at.UTC(), at.UTC(), id); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage string, retryAt *time.Time) error {
	query := r.db.Rebind(`
		UPDATE outbox_events
		SET status = ?, error_message = ?, retry_at = ?, retry_count = retry_count + 1, updated_at = ?
		WHERE id = ?
	`)

	var next interface{}
	if retryAt != nil {
		next = retryAt.UTC()
	}
	if _, err := r.db.ExecContext(ctx, query, string(status), errorMessage, next, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to mark event failed: %w", err)
	}
	return nil
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := r.db.Rebind(`
		DELETE FROM outbox_events
		WHERE status = ?
		AND processed_at < ?
	`)
	result, err := r.db.ExecContext(ctx, query, string(model.OutboxStatusProcessed), before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed events: %w", err)
	}

	return result.RowsAffected()
}

func (w *txWriter) InsertOutboxEvent(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil || event.Payload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}

	query := `
		INSERT INTO outbox_events (id, event_type, payload, status, retry_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := w.exec(ctx, query,
		event.ID,
		event.EventType,
		event.Payload,
		string(event.Status),
		event.RetryCount,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}
