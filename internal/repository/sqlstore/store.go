package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-workflow/internal/repository"
	apperrors "github.com/jwalitptl/clinic-workflow/pkg/errors"
)

// Store is the transactional write side of the entity store
type Store struct {
	BaseRepository
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{NewBaseRepository(db)}
}

// WithinTx implements repository.UnitOfWork
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.WriteTx) error) error {
	return s.WithTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&txWriter{tx: tx})
	})
}

type txWriter struct {
	tx *sqlx.Tx
}

func (w *txWriter) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return w.tx.ExecContext(ctx, w.tx.Rebind(query), args...)
}

// compareAndSetStatus moves a row from one status to another and fails with
// a stale-state conflict if the row is no longer in the expected status.
func (w *txWriter) compareAndSetStatus(ctx context.Context, table, resource string, id uuid.UUID, from, to string) error {
	query := `UPDATE ` + table + ` SET status = ? WHERE id = ? AND status = ?`
	result, err := w.exec(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update %s status: %w", resource, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return apperrors.ErrStaleState.WithMessage(fmt.Sprintf("%s %s is no longer %s", resource, id, from))
	}
	return nil
}
