package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormSyncRunRepository implements SyncRunRepository using GORM
type GormSyncRunRepository struct {
	db *gorm.DB
}

// NewGormSyncRunRepository creates a new GormSyncRunRepository
func NewGormSyncRunRepository(db *gorm.DB) *GormSyncRunRepository {
	return &GormSyncRunRepository{db: db}
}

// Create persists a new run
func (r *GormSyncRunRepository) Create(ctx context.Context, run *catalog.SyncRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Update persists run state changes
func (r *GormSyncRunRepository) Update(ctx context.Context, run *catalog.SyncRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// FindByID finds a run by its ID
func (r *GormSyncRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.SyncRun, error) {
	var run catalog.SyncRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// FindRecent returns the most recent runs, newest first
func (r *GormSyncRunRepository) FindRecent(ctx context.Context, limit int) ([]catalog.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}

	var runs []catalog.SyncRun
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// Ensure GormSyncRunRepository implements SyncRunRepository
var _ catalog.SyncRunRepository = (*GormSyncRunRepository)(nil)
