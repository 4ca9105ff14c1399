package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelBlog/app/models"
)

const (
	summaryColumns = "p.id, p.title, p.slug, p.is_published, p.published_at, " +
		"COALESCE(u.name, '') AS user_name, COALESCE(c.title, '') AS category_title"
	detailColumns = "p.id, p.title, p.slug, p.content_raw, p.excerpt, p.is_published, p.published_at, p.category_id, " +
		"COALESCE(u.name, '') AS user_name, COALESCE(c.title, '') AS category_title"
)

// postRepository implements the PostRepository interface
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository instance
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// joined selects from blog_posts with the author and category projections attached
func (r *postRepository) joined(ctx context.Context, columns string) *gorm.DB {
	return r.db.WithContext(ctx).
		Table(models.BlogPost{}.TableName() + " AS p").
		Select(columns).
		Joins("LEFT JOIN " + models.User{}.TableName() + " u ON u.id = p.user_id").
		Joins("LEFT JOIN " + models.BlogCategory{}.TableName() + " c ON c.id = p.category_id")
}

// Create inserts a new post; the store assigns the ID
func (r *postRepository) Create(ctx context.Context, post *models.BlogPost) error {
	return r.db.WithContext(ctx).Omit("Category", "User").Create(post).Error
}

// GetByID retrieves a post row without relations
func (r *postRepository) GetByID(ctx context.Context, id uint64) (*models.BlogPost, error) {
	var post models.BlogPost
	err := r.db.WithContext(ctx).First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetDetail retrieves a post with author name and category title
func (r *postRepository) GetDetail(ctx context.Context, id uint64) (*PostDetailRow, error) {
	var row PostDetailRow
	res := r.joined(ctx, detailColumns).Where("p.id = ?", id).Limit(1).Scan(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

// ListSummaries retrieves one page of posts, newest ID first
func (r *postRepository) ListSummaries(ctx context.Context, offset, limit int) ([]PostSummaryRow, error) {
	var rows []PostSummaryRow
	err := r.joined(ctx, summaryColumns).
		Order("p.id DESC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// Count returns the total number of posts
func (r *postRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BlogPost{}).Count(&count).Error
	return count, err
}

// Update writes every column of an existing post. It never inserts, so a
// post deleted in the meantime stays deleted.
func (r *postRepository) Update(ctx context.Context, post *models.BlogPost) error {
	db := r.db.WithContext(ctx)
	res := db.Model(post).Select("*").Omit("ID", "Category", "User", "CreatedAt").Updates(post)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// MySQL reports zero affected rows for an unchanged row as well
	var count int64
	if err := db.Model(&models.BlogPost{}).Where("id = ?", post.ID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete permanently removes a post by its ID
func (r *postRepository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&models.BlogPost{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SlugExists checks if a slug already exists
func (r *postRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BlogPost{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// SlugExistsExceptID checks if a slug exists excluding a specific ID
func (r *postRepository) SlugExistsExceptID(ctx context.Context, slug string, id uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BlogPost{}).Where("slug = ? AND id != ?", slug, id).Count(&count).Error
	return count > 0, err
}
