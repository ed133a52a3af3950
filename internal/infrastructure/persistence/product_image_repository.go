package persistence

import (
	"context"

	"github.com/shopsync/backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// GormProductImageRepository implements ImageRepository using GORM
type GormProductImageRepository struct {
	db *gorm.DB
}

// NewGormProductImageRepository creates a new GormProductImageRepository
func NewGormProductImageRepository(db *gorm.DB) *GormProductImageRepository {
	return &GormProductImageRepository{db: db}
}

// FindAll returns all image rows ordered by row ID so repeated runs see the
// same image sequence per product.
func (r *GormProductImageRepository) FindAll(ctx context.Context) ([]catalog.ProductImage, error) {
	var images []catalog.ProductImage
	if err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

// FindByProductIDs finds the images owned by the given products
func (r *GormProductImageRepository) FindByProductIDs(ctx context.Context, productIDs []string) ([]catalog.ProductImage, error) {
	if len(productIDs) == 0 {
		return []catalog.ProductImage{}, nil
	}

	var images []catalog.ProductImage
	if err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Order("id ASC").
		Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

// Ensure GormProductImageRepository implements ImageRepository
var _ catalog.ImageRepository = (*GormProductImageRepository)(nil)
