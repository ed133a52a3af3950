package persistence

import (
	"context"

	"github.com/shopsync/backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// GormWarrantyRepository implements WarrantyRepository using GORM
type GormWarrantyRepository struct {
	db *gorm.DB
}

// NewGormWarrantyRepository creates a new GormWarrantyRepository
func NewGormWarrantyRepository(db *gorm.DB) *GormWarrantyRepository {
	return &GormWarrantyRepository{db: db}
}

// FindAll returns all warranty options ordered by ID
func (r *GormWarrantyRepository) FindAll(ctx context.Context) ([]catalog.WarrantyOption, error) {
	var options []catalog.WarrantyOption
	if err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&options).Error; err != nil {
		return nil, err
	}
	return options, nil
}

// FindByGroups finds the options belonging to the given warranty groups
func (r *GormWarrantyRepository) FindByGroups(ctx context.Context, groups []int) ([]catalog.WarrantyOption, error) {
	if len(groups) == 0 {
		return []catalog.WarrantyOption{}, nil
	}

	var options []catalog.WarrantyOption
	if err := r.db.WithContext(ctx).
		Where("warranty_group IN ?", groups).
		Order("id ASC").
		Find(&options).Error; err != nil {
		return nil, err
	}
	return options, nil
}

// Ensure GormWarrantyRepository implements WarrantyRepository
var _ catalog.WarrantyRepository = (*GormWarrantyRepository)(nil)
