package catalog

import (
	"time"

	"github.com/google/uuid"
)

// RunMode identifies which sync operation a run executed.
type RunMode string

const (
	RunModeFull      RunMode = "FULL"
	RunModeByIDs     RunMode = "BY_IDS"
	RunModeUpload    RunMode = "UPLOAD_ALL"
	RunModeCreate    RunMode = "CREATE_BY_IDS"
	RunModeUpdate    RunMode = "UPDATE_BY_IDS"
	RunModeDelete    RunMode = "DELETE_BY_IDS"
	RunModeDeleteAll RunMode = "DELETE_ALL"
)

// RunStatus is the lifecycle state of a sync run.
type RunStatus string

const (
	RunStatusPending RunStatus = "PENDING"
	RunStatusRunning RunStatus = "RUNNING"
	RunStatusSuccess RunStatus = "SUCCESS"
	RunStatusPartial RunStatus = "PARTIAL"
	RunStatusFailed  RunStatus = "FAILED"
)

// IsValid returns true if the status is valid
func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusPending, RunStatusRunning, RunStatusSuccess, RunStatusPartial, RunStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true once the run can no longer change state.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSuccess, RunStatusPartial, RunStatusFailed:
		return true
	default:
		return false
	}
}

// SyncRun records one execution of a sync operation and its per-item outcome
// counters. Runs are persisted so operators can inspect recent history.
type SyncRun struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Mode         RunMode    `gorm:"type:varchar(20);not null" json:"mode"`
	Status       RunStatus  `gorm:"type:varchar(20);not null;index" json:"status"`
	DryRun       bool       `gorm:"not null" json:"dry_run"`
	TotalItems   int        `gorm:"not null" json:"total_items"`
	CreatedCount int        `gorm:"not null" json:"created_count"`
	UpdatedCount int        `gorm:"not null" json:"updated_count"`
	DeletedCount int        `gorm:"not null" json:"deleted_count"`
	SkippedCount int        `gorm:"not null" json:"skipped_count"`
	FailedCount  int        `gorm:"not null" json:"failed_count"`
	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName returns the table name for GORM
func (SyncRun) TableName() string {
	return "sync_runs"
}

// NewSyncRun creates a pending run for the given mode.
func NewSyncRun(mode RunMode, dryRun bool) *SyncRun {
	now := time.Now()
	return &SyncRun{
		ID:        uuid.New(),
		Mode:      mode,
		Status:    RunStatusPending,
		DryRun:    dryRun,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Start transitions the run to RUNNING.
func (r *SyncRun) Start() {
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
	r.UpdatedAt = now
}

// Complete finishes the run and derives the final status from the counters:
// no failures is SUCCESS, failures with at least one applied change is
// PARTIAL, everything failed is FAILED.
func (r *SyncRun) Complete() {
	now := time.Now()
	r.FinishedAt = &now
	r.UpdatedAt = now

	applied := r.CreatedCount + r.UpdatedCount + r.DeletedCount + r.SkippedCount
	switch {
	case r.FailedCount == 0:
		r.Status = RunStatusSuccess
	case applied > 0:
		r.Status = RunStatusPartial
	default:
		r.Status = RunStatusFailed
	}
}

// Fail terminates the run with a whole-run error, e.g. a failed bulk export.
func (r *SyncRun) Fail(err error) {
	now := time.Now()
	r.Status = RunStatusFailed
	if err != nil {
		r.ErrorMessage = err.Error()
	}
	r.FinishedAt = &now
	r.UpdatedAt = now
}

// Duration returns the wall-clock run time, or zero while the run is pending.
func (r *SyncRun) Duration() time.Duration {
	if r.StartedAt == nil {
		return 0
	}
	if r.FinishedAt == nil {
		return time.Since(*r.StartedAt)
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}
