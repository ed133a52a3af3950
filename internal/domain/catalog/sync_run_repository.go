package catalog

import (
	"context"

	"github.com/google/uuid"
)

// SyncRunRepository defines the interface for sync run persistence
type SyncRunRepository interface {
	// Create persists a new run
	Create(ctx context.Context, run *SyncRun) error

	// Update persists run state changes
	Update(ctx context.Context, run *SyncRun) error

	// FindByID finds a run by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*SyncRun, error)

	// FindRecent returns the most recent runs, newest first
	FindRecent(ctx context.Context, limit int) ([]SyncRun, error)
}
