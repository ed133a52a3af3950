package scheduler

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	syncapp "github.com/shopsync/backend/internal/application/sync"
	"github.com/shopsync/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// CatalogSyncExecutorImpl
// ---------------------------------------------------------------------------

// CatalogSyncRunner is the slice of the sync application service the executor
// drives. *sync.Service satisfies it.
type CatalogSyncRunner interface {
	SyncAll(ctx context.Context, opts syncapp.SyncOptions) (*syncapp.RunReport, error)
}

// CatalogSyncExecutorImpl implements CatalogSyncExecutor on top of the sync service
type CatalogSyncExecutorImpl struct {
	runner CatalogSyncRunner
	logger *zap.Logger

	// Callback handler (optional, for extending functionality)
	onSyncCompleted func(ctx context.Context, job *CatalogSyncJob) error
}

// NewCatalogSyncExecutor creates a new catalog sync executor
func NewCatalogSyncExecutor(runner CatalogSyncRunner, logger *zap.Logger) *CatalogSyncExecutorImpl {
	return &CatalogSyncExecutorImpl{
		runner: runner,
		logger: logger,
	}
}

// SetOnSyncCompletedCallback sets the callback for when a sync completes
func (e *CatalogSyncExecutorImpl) SetOnSyncCompletedCallback(cb func(ctx context.Context, job *CatalogSyncJob) error) {
	e.onSyncCompleted = cb
}

// Execute runs a full catalog reconcile and copies the run outcome onto the job
func (e *CatalogSyncExecutorImpl) Execute(ctx context.Context, job *CatalogSyncJob) error {
	e.logger.Info("Starting scheduled catalog sync",
		zap.String("job_id", job.ID.String()),
		zap.String("trigger", string(job.Trigger)),
		zap.Bool("delete_orphans", job.DeleteOrphans),
	)

	report, err := e.runner.SyncAll(ctx, syncapp.SyncOptions{
		DeleteOrphans: job.DeleteOrphans,
	})
	if err != nil {
		// An empty source catalog is a state, not a failure. Retrying
		// cannot change it, so the job completes with zero counters.
		if errors.Is(err, syncapp.ErrNoSourceProducts) {
			e.logger.Warn("Source database has no products, nothing to sync",
				zap.String("job_id", job.ID.String()),
			)
			job.Complete(0, 0, 0, 0, 0, 0)
			return nil
		}

		switch {
		case errors.Is(err, integration.ErrSyncInProgress):
			// Another run holds the lock, likely a manual sync. The retry
			// backoff tries again once it has finished.
			e.logger.Warn("Catalog sync already in progress, job will retry",
				zap.String("job_id", job.ID.String()),
			)
		case integration.IsRetryable(err):
			e.logger.Warn("Catalog sync hit a transient platform error",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
		default:
			e.logger.Error("Catalog sync failed",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
		}
		return fmt.Errorf("%w: %v", ErrCatalogSyncFailed, err)
	}

	job.RunID = report.RunID
	job.Complete(report.TotalProducts, report.Created, report.Updated, report.Deleted, report.Skipped, report.Failed)

	// Call completion callback if set
	if e.onSyncCompleted != nil {
		if err := e.onSyncCompleted(ctx, job); err != nil {
			e.logger.Warn("Sync completed callback failed",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
		}
	}

	e.logger.Info("Scheduled catalog sync completed",
		zap.String("job_id", job.ID.String()),
		zap.String("run_id", job.RunID),
		zap.String("status", string(job.Status)),
		zap.Int("total_products", job.TotalProducts),
		zap.Int("created", job.CreatedCount),
		zap.Int("updated", job.UpdatedCount),
		zap.Int("deleted", job.DeletedCount),
		zap.Int("failed", job.FailedCount),
	)

	return nil
}

// Ensure CatalogSyncExecutorImpl implements CatalogSyncExecutor
var _ CatalogSyncExecutor = (*CatalogSyncExecutorImpl)(nil)
