package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/infrastructure/telemetry"
)

// ErrNoSourceProducts is returned when a sync finds no matching rows in the
// source database.
var ErrNoSourceProducts = errors.New("sync: no matching source products")

// fullSyncLockKey serializes full reconcile runs across processes.
const fullSyncLockKey = "shopsync:run:full"

// RunLock serializes overlapping sync runs. Acquire returns false when the
// key is already held.
type RunLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Config carries the sync tuning knobs.
type Config struct {
	// CreateBatchSize is the number of concurrent create calls per batch.
	CreateBatchSize int
	// BatchPause is the wait between consecutive batches.
	BatchPause time.Duration
	// LockTTL bounds how long a crashed run can hold the full-sync lock.
	LockTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.CreateBatchSize <= 0 {
		c.CreateBatchSize = 2
	}
	if c.BatchPause <= 0 {
		c.BatchPause = time.Second
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 30 * time.Minute
	}
	return c
}

// Service orchestrates catalog synchronization: it loads source rows, builds
// the desired state, diffs it against the remote catalog and applies the
// resulting plan through the gateway.
type Service struct {
	products    catalog.ProductRepository
	images      catalog.ImageRepository
	warranties  catalog.WarrantyRepository
	runs        catalog.SyncRunRepository
	gateway     integration.CatalogGateway
	lock        RunLock
	transformer *Transformer
	logger      *zap.Logger
	cfg         Config
	syncMetrics *telemetry.SyncMetrics
}

// NewService creates a new sync Service. The run lock may be nil, in which
// case overlapping full runs are not prevented.
func NewService(
	products catalog.ProductRepository,
	images catalog.ImageRepository,
	warranties catalog.WarrantyRepository,
	runs catalog.SyncRunRepository,
	gateway integration.CatalogGateway,
	lock RunLock,
	logger *zap.Logger,
	cfg Config,
) *Service {
	return &Service{
		products:    products,
		images:      images,
		warranties:  warranties,
		runs:        runs,
		gateway:     gateway,
		lock:        lock,
		transformer: NewTransformer(logger),
		logger:      logger,
		cfg:         cfg.withDefaults(),
	}
}

// SetSyncMetrics sets the sync metrics collector.
func (s *Service) SetSyncMetrics(m *telemetry.SyncMetrics) {
	s.syncMetrics = m
}

// ---------------------------------------------------------------------------
// Full reconcile
// ---------------------------------------------------------------------------

// SyncAll reconciles the whole catalog: desired state from the database,
// actual state from a bulk export, then create/update per the plan. Remote
// products without a source row are reported and only deleted when
// opts.DeleteOrphans is set.
func (s *Service) SyncAll(ctx context.Context, opts SyncOptions) (*RunReport, error) {
	start := time.Now()

	ctx, span := telemetry.StartServiceSpan(ctx, "catalog_sync", "sync_all")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrDryRun, opts.DryRun,
		telemetry.SpanAttrOrphans, opts.DeleteOrphans,
	)

	if s.lock != nil {
		ok, err := s.lock.Acquire(ctx, fullSyncLockKey, s.cfg.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire sync lock: %w", err)
		}
		if !ok {
			telemetry.RecordError(span, integration.ErrSyncInProgress)
			return nil, integration.ErrSyncInProgress
		}
		defer func() {
			if err := s.lock.Release(ctx, fullSyncLockKey); err != nil {
				s.logger.Warn("Could not release sync lock", zap.Error(err))
			}
		}()
	}

	desired, _, err := s.buildDesiredState(ctx, nil)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	run := s.beginRun(ctx, catalog.RunModeFull, opts.DryRun)
	telemetry.SetAttribute(span, telemetry.SpanAttrRunID, run.ID.String())

	actual, err := s.gateway.ExportProducts(ctx)
	if err != nil {
		err = s.abortRun(ctx, run, fmt.Errorf("export remote catalog: %w", err))
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrProductCount, len(actual))
	if s.syncMetrics != nil {
		s.syncMetrics.RecordCatalogSize(ctx, int64(len(actual)))
	}

	plan := BuildPlan(desired, actual)
	summary := SummarizePlan(&plan)
	s.logger.Info("Computed sync plan",
		zap.Int("create", len(plan.ToCreate)),
		zap.Int("update", len(plan.ToUpdate)),
		zap.Int("orphaned", len(plan.ToDelete)),
		zap.Int("unchanged", len(plan.Unchanged)))

	if opts.DryRun {
		run.TotalItems = plan.TotalOperations()
		s.finishRun(ctx, run, nil)
		report := s.report(run, desired, nil, start)
		report.Plan = summary
		report.Message = "Sync analysis completed (dry run)"
		return report, nil
	}

	if !opts.DeleteOrphans {
		plan.ToDelete = nil
	}

	results := s.applyPlan(ctx, &plan, opts.BatchSize)
	s.finishRun(ctx, run, results)

	report := s.report(run, desired, results, start)
	report.Plan = summary
	report.Message = fmt.Sprintf("Sync completed: %d created, %d updated, %d deleted, %d failed",
		run.CreatedCount, run.UpdatedCount, run.DeletedCount, run.FailedCount)
	return report, nil
}

// UploadAll pushes every source product as a create, without diffing against
// the remote state.
func (s *Service) UploadAll(ctx context.Context, opts SyncOptions) (*RunReport, error) {
	start := time.Now()

	desired, _, err := s.buildDesiredState(ctx, nil)
	if err != nil {
		return nil, err
	}

	run := s.beginRun(ctx, catalog.RunModeUpload, opts.DryRun)

	if opts.DryRun {
		run.TotalItems = len(desired)
		s.finishRun(ctx, run, nil)
		report := s.report(run, desired, nil, start)
		report.Message = fmt.Sprintf("Dry run: %d products ready for upload", len(desired))
		return report, nil
	}

	results := s.createBatch(ctx, desired, opts.BatchSize)
	s.finishRun(ctx, run, results)

	report := s.report(run, desired, results, start)
	report.Message = fmt.Sprintf("Upload completed: %d successful, %d failed",
		run.CreatedCount, run.FailedCount)
	return report, nil
}

// ---------------------------------------------------------------------------
// Targeted operations
// ---------------------------------------------------------------------------

// SyncByIDs synchronizes the given products: existing remote products are
// updated, missing ones are created when opts.CreateIfMissing is set and
// skipped otherwise. Identifiers may be passed with or without the handle
// prefix.
func (s *Service) SyncByIDs(ctx context.Context, ids []string, opts SyncOptions) (*RunReport, error) {
	start := time.Now()

	desired, missing, err := s.buildDesiredState(ctx, ids)
	if err != nil {
		return nil, err
	}

	run := s.beginRun(ctx, catalog.RunModeByIDs, opts.DryRun)

	if opts.DryRun {
		run.TotalItems = len(desired)
		s.finishRun(ctx, run, nil)
		report := s.report(run, desired, nil, start)
		report.Missing = missing
		report.Message = fmt.Sprintf("Dry run analysis: %d products ready for sync", len(desired))
		return report, nil
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = s.cfg.CreateBatchSize
	}

	results := make([]integration.ItemResult, 0, len(desired))
	for i := range desired {
		if i > 0 && i%batchSize == 0 {
			if err := s.pause(ctx); err != nil {
				results = append(results, integration.ErrorResult(desired[i].Handle, integration.ItemActionUpdate, err))
				break
			}
		}
		results = append(results, s.syncOne(ctx, desired[i], opts.CreateIfMissing))
	}
	s.finishRun(ctx, run, results)

	report := s.report(run, desired, results, start)
	report.Missing = missing
	report.Message = fmt.Sprintf("Sync completed: %d successful, %d failed",
		run.CreatedCount+run.UpdatedCount, run.FailedCount)
	return report, nil
}

// CreateByIDs creates the given products remotely in concurrent batches.
func (s *Service) CreateByIDs(ctx context.Context, ids []string, opts SyncOptions) (*RunReport, error) {
	start := time.Now()

	desired, missing, err := s.buildDesiredState(ctx, ids)
	if err != nil {
		return nil, err
	}

	run := s.beginRun(ctx, catalog.RunModeCreate, false)
	results := s.createBatch(ctx, desired, opts.BatchSize)
	s.finishRun(ctx, run, results)

	report := s.report(run, desired, results, start)
	report.Missing = missing
	report.Message = fmt.Sprintf("Create completed for %d products", len(desired))
	return report, nil
}

// UpdateByIDs updates the given products remotely, one at a time. Identifiers
// without a source row yield a skipped result.
func (s *Service) UpdateByIDs(ctx context.Context, ids []string, opts SyncOptions) (*RunReport, error) {
	start := time.Now()

	desired, _, err := s.buildDesiredState(ctx, ids)
	if err != nil {
		return nil, err
	}

	desiredByHandle := make(map[string]integration.RemoteProduct, len(desired))
	for _, d := range desired {
		desiredByHandle[d.Handle] = d
	}

	run := s.beginRun(ctx, catalog.RunModeUpdate, false)

	results := make([]integration.ItemResult, 0, len(ids))
	for _, id := range CleanProductIDs(ids) {
		handle := catalog.HandlePrefix + id
		d, ok := desiredByHandle[handle]
		if !ok {
			results = append(results, integration.SkippedResult(handle, integration.ItemActionUpdate, "not in database"))
			continue
		}
		results = append(results, s.updateOne(ctx, handle, d))
	}
	s.finishRun(ctx, run, results)

	report := s.report(run, desired, results, start)
	report.TotalProducts = len(ids)
	report.Message = fmt.Sprintf("Update completed for %d products", len(ids))
	return report, nil
}

// DeleteByIDs deletes the given products remotely. Unknown handles yield a
// skipped result.
func (s *Service) DeleteByIDs(ctx context.Context, ids []string) (*RunReport, error) {
	start := time.Now()

	run := s.beginRun(ctx, catalog.RunModeDelete, false)

	clean := CleanProductIDs(ids)
	results := make([]integration.ItemResult, 0, len(clean))
	for _, id := range clean {
		handle := catalog.HandlePrefix + id
		remote, err := s.gateway.GetProductByHandle(ctx, handle)
		if errors.Is(err, integration.ErrProductNotFound) {
			results = append(results, integration.SkippedResult(handle, integration.ItemActionDelete, "not found"))
			continue
		}
		if err != nil {
			results = append(results, integration.ErrorResult(handle, integration.ItemActionDelete, err))
			continue
		}
		results = append(results, s.deleteOne(ctx, *remote))
	}
	s.finishRun(ctx, run, results)

	report := s.report(run, nil, results, start)
	report.TotalProducts = len(clean)
	report.Message = fmt.Sprintf("Delete completed for %d products", len(clean))
	return report, nil
}

// DeleteAll removes every product from the remote catalog. The product set
// is taken from a bulk export so the operation is not capped by pagination.
func (s *Service) DeleteAll(ctx context.Context) (*RunReport, error) {
	start := time.Now()

	ctx, span := telemetry.StartServiceSpan(ctx, "catalog_sync", "delete_all")
	defer span.End()

	run := s.beginRun(ctx, catalog.RunModeDeleteAll, false)
	telemetry.SetAttribute(span, telemetry.SpanAttrRunID, run.ID.String())

	actual, err := s.gateway.ExportProducts(ctx)
	if err != nil {
		err = s.abortRun(ctx, run, fmt.Errorf("export remote catalog: %w", err))
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrProductCount, len(actual))

	results := make([]integration.ItemResult, 0, len(actual))
	for i := range actual {
		results = append(results, s.deleteOne(ctx, actual[i]))
	}
	s.finishRun(ctx, run, results)

	report := s.report(run, nil, results, start)
	report.TotalProducts = len(actual)
	report.Message = fmt.Sprintf("Deleted %d products; %d failed", run.DeletedCount, run.FailedCount)
	return report, nil
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Runs returns the most recent sync runs, newest first.
func (s *Service) Runs(ctx context.Context, limit int) ([]catalog.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.runs.FindRecent(ctx, limit)
}

// Run returns a single sync run by its identifier.
func (s *Service) Run(ctx context.Context, id uuid.UUID) (*catalog.SyncRun, error) {
	return s.runs.FindByID(ctx, id)
}

// ---------------------------------------------------------------------------
// Desired state
// ---------------------------------------------------------------------------

// buildDesiredState loads source rows and transforms them into desired
// payloads. A nil id list loads the full catalog; otherwise rows are fetched
// by identifier batch and the second return value lists requested ids with no
// source row.
func (s *Service) buildDesiredState(ctx context.Context, ids []string) ([]integration.RemoteProduct, []string, error) {
	var (
		products []catalog.Product
		missing  []string
		err      error
	)

	if ids == nil {
		products, err = s.products.FindAll(ctx)
	} else {
		clean := CleanProductIDs(ids)
		products, err = s.products.FindByIDs(ctx, clean)
		if err == nil {
			found := make(map[string]struct{}, len(products))
			for _, p := range products {
				found[p.ProductID] = struct{}{}
			}
			for _, id := range clean {
				if _, ok := found[id]; !ok {
					missing = append(missing, id)
				}
			}
			if len(missing) > 0 {
				s.logger.Warn("Products not found in database", zap.Strings("product_ids", missing))
			}
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("fetch products: %w", err)
	}
	if len(products) == 0 {
		return nil, nil, ErrNoSourceProducts
	}

	var images []catalog.ProductImage
	var warranties []catalog.WarrantyOption
	if ids == nil {
		if images, err = s.images.FindAll(ctx); err != nil {
			return nil, nil, fmt.Errorf("fetch images: %w", err)
		}
		if warranties, err = s.warranties.FindAll(ctx); err != nil {
			return nil, nil, fmt.Errorf("fetch warranties: %w", err)
		}
	} else {
		productIDs := make([]string, 0, len(products))
		groupSet := make(map[int]struct{})
		for _, p := range products {
			productIDs = append(productIDs, p.ProductID)
			if p.HasWarrantyGroup() {
				groupSet[p.WarrantyGroup] = struct{}{}
			}
		}
		if images, err = s.images.FindByProductIDs(ctx, productIDs); err != nil {
			return nil, nil, fmt.Errorf("fetch images: %w", err)
		}
		if len(groupSet) > 0 {
			groups := make([]int, 0, len(groupSet))
			for g := range groupSet {
				groups = append(groups, g)
			}
			if warranties, err = s.warranties.FindByGroups(ctx, groups); err != nil {
				return nil, nil, fmt.Errorf("fetch warranties: %w", err)
			}
		}
	}

	rows := MergeRecords(products, images, warranties)
	return s.transformer.Build(rows), missing, nil
}

// CleanProductIDs strips the handle prefix from identifiers that carry it.
func CleanProductIDs(ids []string) []string {
	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		clean = append(clean, catalog.ProductIDFromHandle(id))
	}
	return clean
}

// ---------------------------------------------------------------------------
// Run lifecycle
// ---------------------------------------------------------------------------

// beginRun persists and starts a run. Persistence failures are logged, not
// fatal: run history must never block the sync itself.
func (s *Service) beginRun(ctx context.Context, mode catalog.RunMode, dryRun bool) *catalog.SyncRun {
	run := catalog.NewSyncRun(mode, dryRun)
	if err := s.runs.Create(ctx, run); err != nil {
		s.logger.Warn("Could not persist sync run", zap.String("run_id", run.ID.String()), zap.Error(err))
	}
	run.Start()
	if err := s.runs.Update(ctx, run); err != nil {
		s.logger.Warn("Could not update sync run", zap.String("run_id", run.ID.String()), zap.Error(err))
	}
	s.logger.Info("Sync run started",
		zap.String("run_id", run.ID.String()),
		zap.String("mode", string(mode)),
		zap.Bool("dry_run", dryRun))
	return run
}

// finishRun tallies per-item results into the run counters and completes it.
func (s *Service) finishRun(ctx context.Context, run *catalog.SyncRun, results []integration.ItemResult) {
	if results != nil {
		run.TotalItems = len(results)
		for _, r := range results {
			switch r.Status {
			case integration.ItemStatusError:
				run.FailedCount++
			case integration.ItemStatusSkipped:
				run.SkippedCount++
			case integration.ItemStatusSuccess:
				switch r.Action {
				case integration.ItemActionCreate:
					run.CreatedCount++
				case integration.ItemActionUpdate:
					run.UpdatedCount++
				case integration.ItemActionDelete:
					run.DeletedCount++
				}
			}
		}
	}
	run.Complete()
	if err := s.runs.Update(ctx, run); err != nil {
		s.logger.Warn("Could not update sync run", zap.String("run_id", run.ID.String()), zap.Error(err))
	}
	if s.syncMetrics != nil {
		s.syncMetrics.RecordRun(ctx, string(run.Mode), string(run.Status), run.Duration())
		s.syncMetrics.RecordRunItems(ctx, string(run.Mode),
			run.CreatedCount, run.UpdatedCount, run.DeletedCount, run.SkippedCount, run.FailedCount)
	}
	s.logger.Info("Sync run finished",
		zap.String("run_id", run.ID.String()),
		zap.String("status", string(run.Status)),
		zap.Int("created", run.CreatedCount),
		zap.Int("updated", run.UpdatedCount),
		zap.Int("deleted", run.DeletedCount),
		zap.Int("skipped", run.SkippedCount),
		zap.Int("failed", run.FailedCount),
		zap.Duration("duration", run.Duration()))
}

// abortRun fails the run with a whole-run error and returns that error.
func (s *Service) abortRun(ctx context.Context, run *catalog.SyncRun, err error) error {
	run.Fail(err)
	if updateErr := s.runs.Update(ctx, run); updateErr != nil {
		s.logger.Warn("Could not update sync run", zap.String("run_id", run.ID.String()), zap.Error(updateErr))
	}
	if s.syncMetrics != nil {
		s.syncMetrics.RecordRun(ctx, string(run.Mode), string(run.Status), run.Duration())
	}
	s.logger.Error("Sync run aborted", zap.String("run_id", run.ID.String()), zap.Error(err))
	return err
}

// report assembles the response for a finished run.
func (s *Service) report(run *catalog.SyncRun, desired []integration.RemoteProduct, results []integration.ItemResult, start time.Time) *RunReport {
	return &RunReport{
		RunID:         run.ID.String(),
		Status:        strings.ToLower(string(run.Status)),
		TotalProducts: len(desired),
		Created:       run.CreatedCount,
		Updated:       run.UpdatedCount,
		Deleted:       run.DeletedCount,
		Skipped:       run.SkippedCount,
		Failed:        run.FailedCount,
		ExecutionTime: time.Since(start).Seconds(),
		Results:       results,
	}
}
