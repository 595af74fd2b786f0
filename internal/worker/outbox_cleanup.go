package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/clinic-workflow/internal/repository"
	"github.com/jwalitptl/clinic-workflow/pkg/logger"
	"github.com/jwalitptl/clinic-workflow/pkg/metrics"
)

// OutboxCleanupWorker deletes published outbox events once they are older
// than the retention period
type OutboxCleanupWorker struct {
	repo            repository.OutboxRepository
	retention       time.Duration
	cleanupInterval time.Duration
	logger          *logger.Logger
	metrics         *metrics.Metrics
	now             func() time.Time
}

func NewOutboxCleanupWorker(repo repository.OutboxRepository, retention, cleanupInterval time.Duration, logger *logger.Logger, metrics *metrics.Metrics) *OutboxCleanupWorker {
	return &OutboxCleanupWorker{
		repo:            repo,
		retention:       retention,
		cleanupInterval: cleanupInterval,
		logger:          logger,
		metrics:         metrics,
		now:             time.Now,
	}
}

func (w *OutboxCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.cleanup(ctx); err != nil {
				// Log error but continue
				w.logger.Error(err, "Outbox cleanup failed")
			}
		}
	}
}

func (w *OutboxCleanupWorker) cleanup(ctx context.Context) error {
	cutoff := w.now().Add(-w.retention)

	rows, err := w.repo.DeleteProcessedBefore(ctx, cutoff)
	w.metrics.ObserveDatabase("delete_processed_events", err)
	if err != nil {
		return fmt.Errorf("failed to cleanup outbox events: %w", err)
	}

	if w.metrics != nil {
		w.metrics.OutboxEventsDeleted.Add(float64(rows))
	}
	w.logger.Debug("Cleaned up outbox events", "deleted", rows, "cutoff", cutoff.Format(time.RFC3339))
	return nil
}
