package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelBlog/app/models"
)

// PostRepository defines the interface for blog post database operations
type PostRepository interface {
	Create(ctx context.Context, post *models.BlogPost) error
	GetByID(ctx context.Context, id uint64) (*models.BlogPost, error)
	GetDetail(ctx context.Context, id uint64) (*PostDetailRow, error)
	ListSummaries(ctx context.Context, offset, limit int) ([]PostSummaryRow, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, post *models.BlogPost) error
	Delete(ctx context.Context, id uint64) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	SlugExistsExceptID(ctx context.Context, slug string, id uint64) (bool, error)
}

// CategoryRepository defines the read-only category lookups used by the post API
type CategoryRepository interface {
	GetByID(ctx context.Context, id uint64) (*models.BlogCategory, error)
	Exists(ctx context.Context, id uint64) (bool, error)
}

// UserRepository defines the user lookups needed for API key authentication
type UserRepository interface {
	GetByID(ctx context.Context, id uint64) (*models.User, error)
	GetByAPIKeyHash(ctx context.Context, hash string) (*models.User, error)
	TouchAPIKeyUsage(ctx context.Context, id uint64, at time.Time) error
}

// PostSummaryRow is one row of the post listing joined with author and category
type PostSummaryRow struct {
	ID            uint64
	Title         string
	Slug          string
	IsPublished   bool
	PublishedAt   *time.Time
	UserName      string
	CategoryTitle string
}

// PostDetailRow is a single post joined with author name and category title
type PostDetailRow struct {
	ID            uint64
	Title         string
	Slug          string
	ContentRaw    *string
	Excerpt       *string
	IsPublished   bool
	PublishedAt   *time.Time
	CategoryID    uint64
	UserName      string
	CategoryTitle string
}

// Repositories struct holds all repository instances
type Repositories struct {
	Post     PostRepository
	Category CategoryRepository
	User     UserRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Post:     NewPostRepository(db),
		Category: NewCategoryRepository(db),
		User:     NewUserRepository(db),
	}
}
