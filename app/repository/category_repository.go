package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelBlog/app/models"
)

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository instance
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint64) (*models.BlogCategory, error) {
	var category models.BlogCategory
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BlogCategory{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
