package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Catalog Sync Job Types
// ---------------------------------------------------------------------------

// CatalogSyncJobStatus represents the status of a catalog sync job
type CatalogSyncJobStatus string

const (
	CatalogSyncJobStatusPending CatalogSyncJobStatus = "PENDING"
	CatalogSyncJobStatusRunning CatalogSyncJobStatus = "RUNNING"
	CatalogSyncJobStatusSuccess CatalogSyncJobStatus = "SUCCESS"
	CatalogSyncJobStatusPartial CatalogSyncJobStatus = "PARTIAL"
	CatalogSyncJobStatusFailed  CatalogSyncJobStatus = "FAILED"
)

// CatalogSyncTrigger records what started a job.
type CatalogSyncTrigger string

const (
	CatalogSyncTriggerInterval CatalogSyncTrigger = "INTERVAL"
	CatalogSyncTriggerManual   CatalogSyncTrigger = "MANUAL"
)

// CatalogSyncJob represents one scheduled full reconcile of the catalog
type CatalogSyncJob struct {
	ID            uuid.UUID
	Trigger       CatalogSyncTrigger
	DeleteOrphans bool
	Status        CatalogSyncJobStatus
	Error         string
	StartedAt     *time.Time
	CompletedAt   *time.Time
	RetryCount    int
	MaxRetries    int
	NextRetryAt   *time.Time

	// Sync results
	RunID         string
	TotalProducts int
	CreatedCount  int
	UpdatedCount  int
	DeletedCount  int
	SkippedCount  int
	FailedCount   int
}

// NewCatalogSyncJob creates a new catalog sync job
func NewCatalogSyncJob(trigger CatalogSyncTrigger, deleteOrphans bool, maxRetries int) *CatalogSyncJob {
	return &CatalogSyncJob{
		ID:            uuid.New(),
		Trigger:       trigger,
		DeleteOrphans: deleteOrphans,
		Status:        CatalogSyncJobStatusPending,
		MaxRetries:    maxRetries,
	}
}

// Start marks the job as running
func (j *CatalogSyncJob) Start() {
	now := time.Now()
	j.Status = CatalogSyncJobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete records the run counters and derives the final status: no failures
// is SUCCESS, failures with at least one handled product is PARTIAL, and
// everything failed is FAILED.
func (j *CatalogSyncJob) Complete(total, created, updated, deleted, skipped, failed int) {
	now := time.Now()
	j.TotalProducts = total
	j.CreatedCount = created
	j.UpdatedCount = updated
	j.DeletedCount = deleted
	j.SkippedCount = skipped
	j.FailedCount = failed
	j.CompletedAt = &now

	handled := created + updated + deleted + skipped
	if failed == 0 {
		j.Status = CatalogSyncJobStatusSuccess
	} else if handled > 0 {
		j.Status = CatalogSyncJobStatusPartial
	} else {
		j.Status = CatalogSyncJobStatusFailed
	}
}

// Fail marks the job as failed
func (j *CatalogSyncJob) Fail(err string) {
	now := time.Now()
	j.Status = CatalogSyncJobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried
func (j *CatalogSyncJob) ShouldRetry() bool {
	return j.Status == CatalogSyncJobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry schedules the job for retry with exponential backoff
func (j *CatalogSyncJob) ScheduleRetry(baseDelay time.Duration) {
	j.RetryCount++
	j.Status = CatalogSyncJobStatusPending
	// Exponential backoff: baseDelay * 2^(retryCount-1)
	delay := baseDelay * time.Duration(1<<(j.RetryCount-1))
	if delay > 30*time.Minute {
		delay = 30 * time.Minute // Cap at 30 minutes
	}
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
}

// ---------------------------------------------------------------------------
// CatalogSyncExecutor Interface
// ---------------------------------------------------------------------------

// CatalogSyncExecutor executes catalog sync jobs
type CatalogSyncExecutor interface {
	// Execute runs the full catalog reconcile and records the outcome on the job
	Execute(ctx context.Context, job *CatalogSyncJob) error
}

// ---------------------------------------------------------------------------
// CatalogSyncSchedulerConfig
// ---------------------------------------------------------------------------

// CatalogSyncSchedulerConfig holds configuration for the catalog sync scheduler
type CatalogSyncSchedulerConfig struct {
	// MaxConcurrentJobs is the number of workers draining the job queue
	MaxConcurrentJobs int
	// JobTimeout is the maximum time a job can run
	JobTimeout time.Duration
	// RetryAttempts is the number of retry attempts for failed jobs
	RetryAttempts int
	// RetryDelay is the base delay between retries (with exponential backoff)
	RetryDelay time.Duration
	// HistoryLimit caps the in-memory job history
	HistoryLimit int
}

// DefaultCatalogSyncSchedulerConfig returns default configuration. One worker
// is the default: full runs contend on the run lock, so concurrent jobs would
// only fail against each other.
func DefaultCatalogSyncSchedulerConfig() CatalogSyncSchedulerConfig {
	return CatalogSyncSchedulerConfig{
		MaxConcurrentJobs: 1,
		JobTimeout:        30 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        5 * time.Minute,
		HistoryLimit:      20,
	}
}

// Validate validates the configuration
func (c *CatalogSyncSchedulerConfig) Validate() error {
	if c.MaxConcurrentJobs <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.RetryAttempts < 0 {
		return ErrInvalidConfig
	}
	if c.HistoryLimit <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// CatalogSyncScheduler
// ---------------------------------------------------------------------------

// CatalogSyncScheduler manages queued catalog sync jobs
type CatalogSyncScheduler struct {
	config   CatalogSyncSchedulerConfig
	executor CatalogSyncExecutor
	logger   *zap.Logger

	jobs      chan *CatalogSyncJob
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	// Job history for monitoring (in-memory, limited size)
	historyMu sync.RWMutex
	history   []*CatalogSyncJob
}

// NewCatalogSyncScheduler creates a new catalog sync scheduler
func NewCatalogSyncScheduler(config CatalogSyncSchedulerConfig, executor CatalogSyncExecutor, logger *zap.Logger) (*CatalogSyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &CatalogSyncScheduler{
		config:   config,
		executor: executor,
		logger:   logger,
		jobs:     make(chan *CatalogSyncJob, 16),
		history:  make([]*CatalogSyncJob, 0, config.HistoryLimit),
	}, nil
}

// Start starts the scheduler
func (s *CatalogSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	// Start worker pool
	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Catalog sync scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *CatalogSyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	// The jobs channel stays open: a worker retrying a failed job may still
	// submit to it. Workers exit through context cancellation instead.

	// Wait for workers to finish with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Catalog sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Catalog sync scheduler stop timed out")
		return ctx.Err()
	}
}

// SubmitJob submits a job for execution
func (s *CatalogSyncScheduler) SubmitJob(job *CatalogSyncJob) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	select {
	case s.jobs <- job:
		s.logger.Debug("Catalog sync job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("trigger", string(job.Trigger)),
			zap.Bool("delete_orphans", job.DeleteOrphans),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// ScheduleFullSync creates a job with the configured retry budget and queues it
func (s *CatalogSyncScheduler) ScheduleFullSync(trigger CatalogSyncTrigger, deleteOrphans bool) error {
	job := NewCatalogSyncJob(trigger, deleteOrphans, s.config.RetryAttempts)
	return s.SubmitJob(job)
}

// worker processes jobs from the queue
func (s *CatalogSyncScheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	s.logger.Debug("Catalog sync worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Catalog sync worker stopping", zap.Int("worker_id", workerID))
			return
		case job := <-s.jobs:
			s.processJob(ctx, job, workerID)
		}
	}
}

// processJob executes a single job
func (s *CatalogSyncScheduler) processJob(ctx context.Context, job *CatalogSyncJob, workerID int) {
	// Honor the retry backoff before running again
	if job.NextRetryAt != nil {
		if wait := time.Until(*job.NextRetryAt); wait > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}

	job.Start()
	s.logger.Info("Processing catalog sync job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("trigger", string(job.Trigger)),
		zap.Bool("delete_orphans", job.DeleteOrphans),
	)

	// Create context with timeout
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	// Execute the job
	err := s.executor.Execute(jobCtx, job)
	if err != nil {
		job.Fail(err.Error())
		s.logger.Error("Catalog sync job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("trigger", string(job.Trigger)),
			zap.Error(err),
		)

		// Check if should retry
		if job.ShouldRetry() {
			job.ScheduleRetry(s.config.RetryDelay)
			s.logger.Info("Catalog sync job scheduled for retry",
				zap.String("job_id", job.ID.String()),
				zap.Int("retry_count", job.RetryCount),
				zap.Int("max_retries", job.MaxRetries),
				zap.Time("next_retry_at", *job.NextRetryAt),
			)
			// Re-submit job
			select {
			case s.jobs <- job:
			default:
				s.logger.Warn("Failed to re-queue catalog sync job for retry",
					zap.String("job_id", job.ID.String()),
				)
			}
		}

		// Add to history
		s.addToHistory(job)
		return
	}

	s.logger.Info("Catalog sync job completed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("run_id", job.RunID),
		zap.String("status", string(job.Status)),
		zap.Int("total_products", job.TotalProducts),
		zap.Int("created", job.CreatedCount),
		zap.Int("updated", job.UpdatedCount),
		zap.Int("deleted", job.DeletedCount),
		zap.Int("skipped", job.SkippedCount),
		zap.Int("failed", job.FailedCount),
	)

	// Add to history
	s.addToHistory(job)
}

// addToHistory adds a completed job to history
func (s *CatalogSyncScheduler) addToHistory(job *CatalogSyncJob) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	// Add to front
	s.history = append([]*CatalogSyncJob{job}, s.history...)

	// Trim if over limit
	if len(s.history) > s.config.HistoryLimit {
		s.history = s.history[:s.config.HistoryLimit]
	}
}

// GetJobHistory returns recent job history, newest first
func (s *CatalogSyncScheduler) GetJobHistory(limit int) []*CatalogSyncJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}

	result := make([]*CatalogSyncJob, limit)
	copy(result, s.history[:limit])
	return result
}

// ---------------------------------------------------------------------------
// CatalogSyncIntervalTrigger
// ---------------------------------------------------------------------------

// CatalogSyncIntervalTriggerConfig holds configuration for the interval trigger
type CatalogSyncIntervalTriggerConfig struct {
	// Interval is the time between scheduled full syncs
	Interval time.Duration
	// DeleteOrphans propagates to every scheduled run
	DeleteOrphans bool
}

// DefaultCatalogSyncIntervalTriggerConfig returns default configuration
func DefaultCatalogSyncIntervalTriggerConfig() CatalogSyncIntervalTriggerConfig {
	return CatalogSyncIntervalTriggerConfig{
		Interval:      6 * time.Hour,
		DeleteOrphans: false,
	}
}

// CatalogSyncIntervalTrigger schedules a full sync on a fixed interval
type CatalogSyncIntervalTrigger struct {
	config    CatalogSyncIntervalTriggerConfig
	scheduler *CatalogSyncScheduler
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewCatalogSyncIntervalTrigger creates a new interval trigger
func NewCatalogSyncIntervalTrigger(config CatalogSyncIntervalTriggerConfig, scheduler *CatalogSyncScheduler, logger *zap.Logger) *CatalogSyncIntervalTrigger {
	return &CatalogSyncIntervalTrigger{
		config:    config,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Start starts the trigger loop
func (c *CatalogSyncIntervalTrigger) Start(ctx context.Context) error {
	if c.config.Interval <= 0 {
		return ErrInvalidConfig
	}

	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Catalog sync interval trigger started",
		zap.Duration("interval", c.config.Interval),
		zap.Bool("delete_orphans", c.config.DeleteOrphans),
	)

	return nil
}

// Stop stops the trigger loop
func (c *CatalogSyncIntervalTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Catalog sync interval trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop schedules a sync run on every tick. The first run happens one full
// interval after startup: a process restart must not push the whole catalog.
func (c *CatalogSyncIntervalTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.logger.Info("Scheduling catalog sync run",
				zap.Bool("delete_orphans", c.config.DeleteOrphans),
			)
			if err := c.scheduler.ScheduleFullSync(CatalogSyncTriggerInterval, c.config.DeleteOrphans); err != nil {
				c.logger.Error("Failed to schedule catalog sync run", zap.Error(err))
			}
		}
	}
}
