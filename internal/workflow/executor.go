package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/clinic-workflow/internal/model"
	"github.com/jwalitptl/clinic-workflow/internal/repository"
	apperrors "github.com/jwalitptl/clinic-workflow/pkg/errors"
	"github.com/jwalitptl/clinic-workflow/pkg/logger"
	"github.com/jwalitptl/clinic-workflow/pkg/metrics"
)

// Executor persists allowed write-sets, each inside one transaction
type Executor struct {
	uow     repository.UnitOfWork
	outbox  bool
	now     func() time.Time
	logger  *logger.Logger
	metrics *metrics.Metrics
}

type ExecutorOption func(*Executor)

// WithOutbox records a transition event in the same transaction as the write-set
func WithOutbox(enabled bool) ExecutorOption {
	return func(e *Executor) {
		e.outbox = enabled
	}
}

func WithClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) {
		e.now = now
	}
}

func NewExecutor(uow repository.UnitOfWork, logger *logger.Logger, metrics *metrics.Metrics, opts ...ExecutorOption) *Executor {
	e := &Executor{
		uow:     uow,
		outbox:  true,
		now:     time.Now,
		logger:  logger,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the current time from the executor's clock
func (e *Executor) Now() time.Time {
	return e.now()
}

// Execute applies every write of ws atomically. Store conflicts (duplicate
// consultation, stale status), missing rows and broken references keep their
// typed error; any other failure is reported as a persistence error.
// Nothing is committed when an error is returned.
func (e *Executor) Execute(ctx context.Context, ws WriteSet) error {
	if len(ws.Writes) == 0 {
		return nil
	}

	var event *model.OutboxEvent
	if e.outbox {
		var err error
		if event, err = ws.Event(stamp(e.now())); err != nil {
			return apperrors.Persistence(err)
		}
	}

	started := time.Now()
	err := e.uow.WithinTx(ctx, func(tx repository.WriteTx) error {
		for _, w := range ws.Writes {
			if err := w.Apply(ctx, tx); err != nil {
				return err
			}
		}
		if event != nil {
			if err := tx.InsertOutboxEvent(ctx, event); err != nil {
				return fmt.Errorf("failed to record %s event: %w", ws.Operation, err)
			}
		}
		return nil
	})
	if err != nil {
		switch apperrors.KindOf(err) {
		case apperrors.KindConflict, apperrors.KindNotFound:
			e.logger.Warn("Write-set rejected by store",
				"operation", string(ws.Operation),
				"code", string(apperrors.CodeOf(err)))
			return err
		case apperrors.KindInconsistent:
			e.logger.Error(err, "Store reported inconsistent state", "operation", string(ws.Operation))
			return err
		}
		e.logger.Error(err, "Write-set rolled back", "operation", string(ws.Operation))
		return apperrors.Persistence(err)
	}

	e.metrics.ObserveCommit(string(ws.Operation), started)
	return nil
}
