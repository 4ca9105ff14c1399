package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelBlog/app/models"
	"github.com/ManuelReschke/PixelBlog/app/repository"
)

// Store is an in-memory stand-in for the blog tables. Its repositories share
// the same maps so joined projections behave like the SQL implementation.
type Store struct {
	mutex      sync.RWMutex
	posts      map[uint64]*models.BlogPost
	categories map[uint64]*models.BlogCategory
	users      map[uint64]*models.User
	nextPostID uint64

	// FailWith, when set, is returned by every post write
	FailWith error
}

func NewStore() *Store {
	return &Store{
		posts:      make(map[uint64]*models.BlogPost),
		categories: make(map[uint64]*models.BlogCategory),
		users:      make(map[uint64]*models.User),
		nextPostID: 1,
	}
}

// Repositories exposes the store through the repository interfaces
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Post:     &PostRepository{store: s},
		Category: &CategoryRepository{store: s},
		User:     &UserRepository{store: s},
	}
}

func (s *Store) AddCategory(c *models.BlogCategory) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.categories[c.ID] = c
}

func (s *Store) AddUser(u *models.User) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.users[u.ID] = u
}

// Post returns a copy of the stored post, nil if absent
func (s *Store) Post(id uint64) *models.BlogPost {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

func (s *Store) PostCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.posts)
}

func (s *Store) userName(id uint64) string {
	if u, ok := s.users[id]; ok {
		return u.Name
	}
	return ""
}

func (s *Store) categoryTitle(id uint64) string {
	if c, ok := s.categories[id]; ok {
		return c.Title
	}
	return ""
}

// PostRepository implementation
type PostRepository struct {
	store *Store
}

func (m *PostRepository) Create(ctx context.Context, post *models.BlogPost) error {
	s := m.store
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.FailWith != nil {
		return s.FailWith
	}
	post.ID = s.nextPostID
	s.nextPostID++
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	cp := *post
	s.posts[post.ID] = &cp
	return nil
}

func (m *PostRepository) GetByID(ctx context.Context, id uint64) (*models.BlogPost, error) {
	s := m.store
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	post, exists := s.posts[id]
	if !exists {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *post
	return &cp, nil
}

func (m *PostRepository) GetDetail(ctx context.Context, id uint64) (*repository.PostDetailRow, error) {
	s := m.store
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	p, exists := s.posts[id]
	if !exists {
		return nil, gorm.ErrRecordNotFound
	}
	return &repository.PostDetailRow{
		ID:            p.ID,
		Title:         p.Title,
		Slug:          p.Slug,
		ContentRaw:    p.ContentRaw,
		Excerpt:       p.Excerpt,
		IsPublished:   p.IsPublished,
		PublishedAt:   p.PublishedAt,
		CategoryID:    p.CategoryID,
		UserName:      s.userName(p.UserID),
		CategoryTitle: s.categoryTitle(p.CategoryID),
	}, nil
}

func (m *PostRepository) ListSummaries(ctx context.Context, offset, limit int) ([]repository.PostSummaryRow, error) {
	s := m.store
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ids := make([]uint64, 0, len(s.posts))
	for id := range s.posts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	var rows []repository.PostSummaryRow
	for i := offset; i < len(ids) && i < offset+limit; i++ {
		p := s.posts[ids[i]]
		rows = append(rows, repository.PostSummaryRow{
			ID:            p.ID,
			Title:         p.Title,
			Slug:          p.Slug,
			IsPublished:   p.IsPublished,
			PublishedAt:   p.PublishedAt,
			UserName:      s.userName(p.UserID),
			CategoryTitle: s.categoryTitle(p.CategoryID),
		})
	}
	return rows, nil
}

func (m *PostRepository) Count(ctx context.Context) (int64, error) {
	s := m.store
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return int64(len(s.posts)), nil
}

func (m *PostRepository) Update(ctx context.Context, post *models.BlogPost) error {
	s := m.store
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.FailWith != nil {
		return s.FailWith
	}
	if _, exists := s.posts[post.ID]; !exists {
		return gorm.ErrRecordNotFound
	}
	post.UpdatedAt = time.Now()
	cp := *post
	s.posts[post.ID] = &cp
	return nil
}

func (m *PostRepository) Delete(ctx context.Context, id uint64) error {
	s := m.store
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.FailWith != nil {
		return s.FailWith
	}
	if _, exists := s.posts[id]; !exists {
		return gorm.ErrRecordNotFound
	}
	delete(s.posts, id)
	return nil
}

func (m *PostRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	return m.SlugExistsExceptID(ctx, slug, 0)
}

func (m *PostRepository) SlugExistsExceptID(ctx context.Context, slug string, id uint64) (bool, error) {
	s := m.store
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, p := range s.posts {
		if p.Slug == slug && p.ID != id {
			return true, nil
		}
	}
	return false, nil
}

// CategoryRepository implementation
type CategoryRepository struct {
	store *Store
}

func (m *CategoryRepository) GetByID(ctx context.Context, id uint64) (*models.BlogCategory, error) {
	s := m.store
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *CategoryRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	s := m.store
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, ok := s.categories[id]
	return ok, nil
}

// UserRepository implementation
type UserRepository struct {
	store *Store
}

func (m *UserRepository) GetByID(ctx context.Context, id uint64) (*models.User, error) {
	s := m.store
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *UserRepository) GetByAPIKeyHash(ctx context.Context, hash string) (*models.User, error) {
	s := m.store
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, u := range s.users {
		if hash != "" && u.APIKeyHash == hash {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *UserRepository) TouchAPIKeyUsage(ctx context.Context, id uint64, at time.Time) error {
	s := m.store
	s.mutex.Lock()
	defer s.mutex.Unlock()

	u, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.APIKeyLastUsedAt = &at
	return nil
}
