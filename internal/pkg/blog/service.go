// Package blog implements the blog post operations on top of the repositories.
package blog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelBlog/app/models"
	"github.com/ManuelReschke/PixelBlog/app/repository"
	"github.com/ManuelReschke/PixelBlog/internal/pkg/slug"
)

// Notifier is told about every committed post. Implementations must not block.
type Notifier interface {
	NotifyPostCreated(postID uint64) error
}

// Service handles listing, creating, reading, updating and deleting posts
type Service struct {
	posts      repository.PostRepository
	categories repository.CategoryRepository
	notifier   Notifier
	now        func() time.Time
}

// NewService creates a post service. notifier may be nil.
func NewService(posts repository.PostRepository, categories repository.CategoryRepository, notifier Notifier) *Service {
	return &Service{
		posts:      posts,
		categories: categories,
		notifier:   notifier,
		now:        time.Now,
	}
}

// NewServiceFromRepositories wires the service from a repository set
func NewServiceFromRepositories(repos *repository.Repositories, notifier Notifier) *Service {
	return NewService(repos.Post, repos.Category, notifier)
}

type UserName struct {
	Name string `json:"name"`
}

type CategoryTitle struct {
	Title string `json:"title"`
}

type CategoryRef struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
}

// PostSummary is the compact listing entry
type PostSummary struct {
	ID          uint64        `json:"id"`
	Title       string        `json:"title"`
	Slug        string        `json:"slug"`
	IsPublished bool          `json:"is_published"`
	PublishedAt *time.Time    `json:"published_at"`
	User        UserName      `json:"user"`
	Category    CategoryTitle `json:"category"`
}

// PostDetail is a single post with its author and category projections
type PostDetail struct {
	ID          uint64      `json:"id"`
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	ContentRaw  *string     `json:"content_raw"`
	Excerpt     *string     `json:"excerpt"`
	IsPublished bool        `json:"is_published"`
	PublishedAt *time.Time  `json:"published_at"`
	CategoryID  uint64      `json:"category_id"`
	User        UserName    `json:"user"`
	Category    CategoryRef `json:"category"`
}

type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
}

type PostPage struct {
	Data []PostSummary `json:"data"`
	Meta PageMeta      `json:"meta"`
}

// List returns one page of posts, newest id first
func (s *Service) List(ctx context.Context, page, perPage int) (*PostPage, error) {
	page, perPage = clampPagination(page, perPage)

	total, err := s.posts.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	result := &PostPage{
		Data: make([]PostSummary, 0),
		Meta: PageMeta{
			CurrentPage: page,
			LastPage:    lastPage(total, perPage),
			PerPage:     perPage,
			Total:       total,
		},
	}

	// compare page counts first so (page-1)*perPage cannot overflow
	pages := (total + int64(perPage) - 1) / int64(perPage)
	if int64(page-1) >= pages {
		return result, nil
	}
	offset := (page - 1) * perPage

	rows, err := s.posts.ListSummaries(ctx, offset, perPage)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	for _, row := range rows {
		result.Data = append(result.Data, PostSummary{
			ID:          row.ID,
			Title:       row.Title,
			Slug:        row.Slug,
			IsPublished: row.IsPublished,
			PublishedAt: row.PublishedAt,
			User:        UserName{Name: row.UserName},
			Category:    CategoryTitle{Title: row.CategoryTitle},
		})
	}
	return result, nil
}

// Create validates the payload and stores a new post authored by authorID.
// published_at is stored as supplied.
func (s *Service) Create(ctx context.Context, authorID uint64, in *PostInput) (*models.BlogPost, error) {
	if err := s.validateInput(ctx, in); err != nil {
		return nil, err
	}

	postSlug, err := s.resolveSlug(ctx, in.Slug, *in.Title, 0)
	if err != nil {
		return nil, err
	}

	post := &models.BlogPost{
		CategoryID:  *in.CategoryID,
		UserID:      authorID,
		Slug:        postSlug,
		Title:       *in.Title,
		Excerpt:     in.Excerpt,
		ContentRaw:  in.ContentRaw,
		IsPublished: in.IsPublished != nil && *in.IsPublished,
		PublishedAt: in.PublishedAt,
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyPostCreated(post.ID); err != nil {
			log.Errorf("[BlogService] Failed to dispatch post created notification for post %d: %v", post.ID, err)
		}
	}

	return post, nil
}

// Show returns a post with its author and category projections
func (s *Service) Show(ctx context.Context, id uint64) (*PostDetail, error) {
	row, err := s.posts.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to load post %d: %w", id, err)
	}

	return &PostDetail{
		ID:          row.ID,
		Title:       row.Title,
		Slug:        row.Slug,
		ContentRaw:  row.ContentRaw,
		Excerpt:     row.Excerpt,
		IsPublished: row.IsPublished,
		PublishedAt: row.PublishedAt,
		CategoryID:  row.CategoryID,
		User:        UserName{Name: row.UserName},
		Category:    CategoryRef{ID: row.CategoryID, Title: row.CategoryTitle},
	}, nil
}

// Update replaces every editable field of the post. Absent optional fields
// are cleared and the author never changes.
func (s *Service) Update(ctx context.Context, id uint64, in *PostInput) (*models.BlogPost, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to load post %d: %w", id, err)
	}

	if err := s.validateInput(ctx, in); err != nil {
		return nil, err
	}

	postSlug, err := s.resolveSlug(ctx, in.Slug, *in.Title, post.ID)
	if err != nil {
		return nil, err
	}

	post.Title = *in.Title
	post.Slug = postSlug
	post.CategoryID = *in.CategoryID
	post.Excerpt = in.Excerpt
	post.ContentRaw = in.ContentRaw

	// A supplied published_at is ignored here; the timestamp follows the flag.
	if in.IsPublished != nil && *in.IsPublished {
		post.Publish(s.now())
	} else {
		post.Unpublish()
	}

	if err := s.posts.Update(ctx, post); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to update post %d: %w", id, err)
	}
	return post, nil
}

// Destroy permanently deletes the post
func (s *Service) Destroy(ctx context.Context, id uint64) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("failed to delete post %d: %w", id, err)
	}
	return nil
}

// resolveSlug uses the supplied slug or derives one from the title. A slug
// taken by another post gets the current unix time appended.
func (s *Service) resolveSlug(ctx context.Context, supplied *string, title string, ownID uint64) (string, error) {
	var candidate string
	if supplied != nil {
		candidate = *supplied
	} else {
		generated, err := slug.Generate(title)
		if err != nil {
			return "", fmt.Errorf("failed to generate slug: %w", err)
		}
		candidate = generated
	}

	var taken bool
	var err error
	if ownID == 0 {
		taken, err = s.posts.SlugExists(ctx, candidate)
	} else {
		taken, err = s.posts.SlugExistsExceptID(ctx, candidate, ownID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to check slug: %w", err)
	}

	if taken {
		candidate = slug.WithSuffix(candidate, strconv.FormatInt(s.now().Unix(), 10))
	}
	return candidate, nil
}
