package blog

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PixelBlog/app/models"
	"github.com/ManuelReschke/PixelBlog/app/repository"
	"github.com/ManuelReschke/PixelBlog/app/repository/mock"
)

type recordingNotifier struct {
	mu  sync.Mutex
	ids []uint64
	err error
}

func (n *recordingNotifier) NotifyPostCreated(postID uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, postID)
	return n.err
}

func (n *recordingNotifier) notified() []uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]uint64(nil), n.ids...)
}

var fixedNow = time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *mock.Store, *recordingNotifier) {
	t.Helper()
	store := mock.NewStore()
	store.AddCategory(&models.BlogCategory{ID: 1, Slug: "releases", Title: "Releases"})
	store.AddCategory(&models.BlogCategory{ID: 2, Slug: "guides", Title: "Guides"})
	store.AddUser(&models.User{ID: 7, Name: "Olena Kovalenko", Email: "olena@example.com", Status: models.STATUS_ACTIVE})

	notifier := &recordingNotifier{}
	svc := NewServiceFromRepositories(store.Repositories(), notifier)
	svc.now = func() time.Time { return fixedNow }
	return svc, store, notifier
}

func mustInput(t *testing.T, body string) *PostInput {
	t.Helper()
	in, err := ParsePostInput([]byte(body))
	require.NoError(t, err)
	return in
}

func validationFields(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	return verr.Fields
}

func TestCreate_HelloWorld(t *testing.T) {
	svc, store, notifier := newTestService(t)

	post, err := svc.Create(context.Background(), 7, mustInput(t, `{"title":"Hello World","category_id":1}`))
	require.NoError(t, err)

	assert.NotZero(t, post.ID)
	assert.Equal(t, "hello-world", post.Slug)
	assert.False(t, post.IsPublished)
	assert.Nil(t, post.PublishedAt)
	assert.Equal(t, uint64(7), post.UserID)
	assert.Equal(t, uint64(1), post.CategoryID)

	stored := store.Post(post.ID)
	require.NotNil(t, stored)
	assert.Equal(t, "hello-world", stored.Slug)
	assert.Equal(t, []uint64{post.ID}, notifier.notified())
}

func TestCreate_DerivedSlugMatchesSlugification(t *testing.T) {
	titles := []string{
		"  Go 1.25 Release Notes!  ",
		"Crème brûlée: a recipe",
		"Привіт, світ",
		"Mixing_under_scores & dashes--here",
	}
	svc, store, _ := newTestService(t)

	for _, title := range titles {
		in := &PostInput{Title: &title, CategoryID: ptr(uint64(1)), invalid: map[string]string{}}
		post, err := svc.Create(context.Background(), 7, in)
		require.NoError(t, err, title)

		got := store.Post(post.ID).Slug
		assert.NotEmpty(t, got)
		assert.False(t, strings.HasPrefix(got, "-") || strings.HasSuffix(got, "-"), got)
		assert.Equal(t, strings.ToLower(got), got)
	}
}

func TestCreate_KeepsSuppliedSlugAndPublishedAt(t *testing.T) {
	svc, _, _ := newTestService(t)

	post, err := svc.Create(context.Background(), 7, mustInput(t, `{
		"title": "Launch",
		"slug": "our-launch",
		"category_id": 2,
		"is_published": true,
		"published_at": "2024-01-02 03:04:05",
		"excerpt": "  short  ",
		"content_raw": "Body"
	}`))
	require.NoError(t, err)

	assert.Equal(t, "our-launch", post.Slug)
	assert.True(t, post.IsPublished)
	require.NotNil(t, post.PublishedAt)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), *post.PublishedAt)
	require.NotNil(t, post.Excerpt)
	assert.Equal(t, "short", *post.Excerpt)
	require.NotNil(t, post.ContentRaw)
	assert.Equal(t, "Body", *post.ContentRaw)
}

func TestCreate_EmptySlugIsDerived(t *testing.T) {
	svc, _, _ := newTestService(t)

	post, err := svc.Create(context.Background(), 7, mustInput(t, `{"title":"Hello World","slug":"   ","category_id":1}`))
	require.NoError(t, err)
	assert.Equal(t, "hello-world", post.Slug)
}

func TestCreate_SlugFallbackForPunctuationTitle(t *testing.T) {
	svc, _, _ := newTestService(t)

	post, err := svc.Create(context.Background(), 7, mustInput(t, `{"title":"!!!","category_id":1}`))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(post.Slug, "post-"), post.Slug)
}

func TestCreate_SlugCollisionGetsSuffix(t *testing.T) {
	svc, _, _ := newTestService(t)

	first, err := svc.Create(context.Background(), 7, mustInput(t, `{"title":"Hello World","category_id":1}`))
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), 7, mustInput(t, `{"title":"Hello World","category_id":1}`))
	require.NoError(t, err)

	assert.Equal(t, "hello-world", first.Slug)
	assert.Equal(t, "hello-world-1715938200", second.Slug)
}

func TestCreate_UnknownCategoryPersistsNothing(t *testing.T) {
	svc, store, notifier := newTestService(t)

	_, err := svc.Create(context.Background(), 7, mustInput(t, `{"title":"Hello","category_id":99}`))
	fields := validationFields(t, err)

	assert.Equal(t, []string{"The selected category id is invalid."}, fields["category_id"])
	assert.Equal(t, 0, store.PostCount())
	assert.Empty(t, notifier.notified())
}

func TestCreate_RequiredFields(t *testing.T) {
	svc, store, _ := newTestService(t)

	_, err := svc.Create(context.Background(), 7, mustInput(t, `{}`))
	fields := validationFields(t, err)

	assert.Equal(t, []string{"The title field is required."}, fields["title"])
	assert.Equal(t, []string{"The category id field is required."}, fields["category_id"])
	assert.Equal(t, "The title field is required. (and 1 more error)", err.Error())
	assert.Equal(t, 0, store.PostCount())
}

func TestCreate_TitleTooLong(t *testing.T) {
	svc, _, _ := newTestService(t)

	title := strings.Repeat("a", 256)
	in := &PostInput{Title: &title, CategoryID: ptr(uint64(1)), invalid: map[string]string{}}
	_, err := svc.Create(context.Background(), 7, in)
	fields := validationFields(t, err)
	assert.Equal(t, []string{"The title field must not be greater than 255 characters."}, fields["title"])
}

func TestCreate_WrongTypesAreValidationErrors(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), 7, mustInput(t, `{
		"title": 42,
		"category_id": "abc",
		"is_published": "maybe",
		"published_at": "yesterday"
	}`))
	fields := validationFields(t, err)

	assert.Equal(t, []string{"The title field must be a string."}, fields["title"])
	assert.Equal(t, []string{"The category id field must be an integer."}, fields["category_id"])
	assert.Equal(t, []string{"The is published field must be true or false."}, fields["is_published"])
	assert.Equal(t, []string{"The published at field must be a valid date."}, fields["published_at"])
	assert.Equal(t, "The title field must be a string. (and 3 more errors)", err.Error())
}

func TestCreate_NotifierFailureIsSwallowed(t *testing.T) {
	svc, store, notifier := newTestService(t)
	notifier.err = errors.New("redis down")

	post, err := svc.Create(context.Background(), 7, mustInput(t, `{"title":"Hello","category_id":1}`))
	require.NoError(t, err)
	assert.NotNil(t, store.Post(post.ID))
}

func TestCreate_StoreFailurePropagates(t *testing.T) {
	svc, store, notifier := newTestService(t)
	store.FailWith = errors.New("connection reset")

	_, err := svc.Create(context.Background(), 7, mustInput(t, `{"title":"Hello","category_id":1}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, store.FailWith)
	assert.Empty(t, notifier.notified())
}

func TestCreate_NilNotifier(t *testing.T) {
	store := mock.NewStore()
	store.AddCategory(&models.BlogCategory{ID: 1, Title: "Releases"})
	svc := NewServiceFromRepositories(store.Repositories(), nil)

	_, err := svc.Create(context.Background(), 1, mustInput(t, `{"title":"Hello","category_id":1}`))
	require.NoError(t, err)
}

func TestShow(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.Create(context.Background(), 7, mustInput(t, `{"title":"Hello World","category_id":2,"content_raw":"Body"}`))
	require.NoError(t, err)

	detail, err := svc.Show(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, detail.ID)
	assert.Equal(t, "Hello World", detail.Title)
	assert.Equal(t, "Olena Kovalenko", detail.User.Name)
	assert.Equal(t, CategoryRef{ID: 2, Title: "Guides"}, detail.Category)
	assert.Equal(t, uint64(2), detail.CategoryID)
	require.NotNil(t, detail.ContentRaw)
	assert.Equal(t, "Body", *detail.ContentRaw)
}

func TestShow_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	detail, err := svc.Show(context.Background(), 404)
	assert.Nil(t, detail)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestList_EmptyStore(t *testing.T) {
	svc, _, _ := newTestService(t)

	page, err := svc.List(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
	assert.Equal(t, PageMeta{CurrentPage: 1, LastPage: 1, PerPage: 10, Total: 0}, page.Meta)
}

func TestList_OrderAndMeta(t *testing.T) {
	svc, _, _ := newTestService(t)
	for _, title := range []string{"One", "Two", "Three"} {
		_, err := svc.Create(context.Background(), 7, mustInput(t, `{"title":"`+title+`","category_id":1}`))
		require.NoError(t, err)
	}

	page, err := svc.List(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "Three", page.Data[0].Title)
	assert.Equal(t, "Two", page.Data[1].Title)
	assert.Equal(t, "Olena Kovalenko", page.Data[0].User.Name)
	assert.Equal(t, "Releases", page.Data[0].Category.Title)
	assert.Equal(t, PageMeta{CurrentPage: 1, LastPage: 2, PerPage: 2, Total: 3}, page.Meta)

	page, err = svc.List(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "One", page.Data[0].Title)

	page, err = svc.List(context.Background(), 9, 2)
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Equal(t, 9, page.Meta.CurrentPage)
	assert.Equal(t, int64(3), page.Meta.Total)
}

func TestList_ClampsBounds(t *testing.T) {
	svc, _, _ := newTestService(t)

	page, err := svc.List(context.Background(), -3, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Meta.CurrentPage)
	assert.Equal(t, MaxPerPage, page.Meta.PerPage)

	page, err = svc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultPerPage, page.Meta.PerPage)
}

// offsetRecorder remembers every offset the service asks the store for
type offsetRecorder struct {
	repository.PostRepository
	offsets []int
}

func (r *offsetRecorder) ListSummaries(ctx context.Context, offset, limit int) ([]repository.PostSummaryRow, error) {
	r.offsets = append(r.offsets, offset)
	return r.PostRepository.ListSummaries(ctx, offset, limit)
}

func TestList_HugePageIsEmpty(t *testing.T) {
	_, store, notifier := newTestService(t)
	repos := store.Repositories()
	posts := &offsetRecorder{PostRepository: repos.Post}
	svc := NewService(posts, repos.Category, notifier)
	svc.now = func() time.Time { return fixedNow }

	_, err := svc.Create(context.Background(), 7, mustInput(t, `{"title":"Only","category_id":1}`))
	require.NoError(t, err)

	page, perPage := ParsePagination("9223372036854775807", "10")
	require.Equal(t, math.MaxInt, page)

	result, err := svc.List(context.Background(), page, perPage)
	require.NoError(t, err)
	assert.Empty(t, result.Data)
	assert.Equal(t, math.MaxInt, result.Meta.CurrentPage)
	assert.Equal(t, 1, result.Meta.LastPage)
	assert.EqualValues(t, 1, result.Meta.Total)
	assert.Empty(t, posts.offsets)

	result, err = svc.List(context.Background(), 2, 10)
	require.NoError(t, err)
	assert.Empty(t, result.Data)
	assert.Empty(t, posts.offsets)

	result, err = svc.List(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Len(t, result.Data, 1)
	assert.Equal(t, []int{0}, posts.offsets)
}

func TestUpdate_PublishStampsNow(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, err := svc.Create(context.Background(), 7, mustInput(t, `{"title":"Draft","category_id":1}`))
	require.NoError(t, err)
	require.Nil(t, created.PublishedAt)

	updated, err := svc.Update(context.Background(), created.ID, mustInput(t, `{"title":"Draft","category_id":1,"is_published":true}`))
	require.NoError(t, err)
	assert.True(t, updated.IsPublished)
	require.NotNil(t, updated.PublishedAt)
	assert.Equal(t, fixedNow, *updated.PublishedAt)
}

func TestUpdate_PublishKeepsExistingTimestamp(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, err := svc.Create(context.Background(), 7, mustInput(t, `{"title":"Live","category_id":1,"is_published":true,"published_at":"2023-03-01T10:00:00Z"}`))
	require.NoError(t, err)
	original := *created.PublishedAt

	updated, err := svc.Update(context.Background(), created.ID, mustInput(t, `{"title":"Live again","category_id":1,"is_published":"1","published_at":"2030-01-01"}`))
	require.NoError(t, err)
	require.NotNil(t, updated.PublishedAt)
	assert.True(t, original.Equal(*updated.PublishedAt))
}

func TestUpdate_UnpublishClearsTimestamp(t *testing.T) {
	for name, body := range map[string]string{
		"explicit false": `{"title":"Live","category_id":1,"is_published":false}`,
		"zero":           `{"title":"Live","category_id":1,"is_published":0}`,
		"absent":         `{"title":"Live","category_id":1}`,
	} {
		t.Run(name, func(t *testing.T) {
			svc, store, _ := newTestService(t)
			created, err := svc.Create(context.Background(), 7, mustInput(t, `{"title":"Live","category_id":1,"is_published":true,"published_at":"2023-03-01"}`))
			require.NoError(t, err)

			updated, err := svc.Update(context.Background(), created.ID, mustInput(t, body))
			require.NoError(t, err)
			assert.False(t, updated.IsPublished)
			assert.Nil(t, updated.PublishedAt)
			assert.Nil(t, store.Post(created.ID).PublishedAt)
		})
	}
}

func TestUpdate_FullReplace(t *testing.T) {
	svc, store, _ := newTestService(t)
	created, err := svc.Create(context.Background(), 7, mustInput(t, `{"title":"Hello World","category_id":1,"excerpt":"x","content_raw":"y","slug":"custom"}`))
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, mustInput(t, `{"title":"Brand New Title","category_id":2}`))
	require.NoError(t, err)

	assert.Equal(t, "brand-new-title", updated.Slug)
	assert.Equal(t, uint64(2), updated.CategoryID)
	assert.Nil(t, updated.Excerpt)
	assert.Nil(t, updated.ContentRaw)
	assert.Equal(t, uint64(7), store.Post(created.ID).UserID)
}

func TestUpdate_OwnSlugIsNotACollision(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, err := svc.Create(context.Background(), 7, mustInput(t, `{"title":"Hello World","category_id":1}`))
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, mustInput(t, `{"title":"Hello World","category_id":1}`))
	require.NoError(t, err)
	assert.Equal(t, "hello-world", updated.Slug)
}

func TestUpdate_RequiresTitleAndCategoryAgain(t *testing.T) {
	svc, store, _ := newTestService(t)
	created, err := svc.Create(context.Background(), 7, mustInput(t, `{"title":"Hello","category_id":1}`))
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), created.ID, mustInput(t, `{"is_published":true}`))
	fields := validationFields(t, err)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "category_id")
	assert.Equal(t, "Hello", store.Post(created.ID).Title)
	assert.Nil(t, store.Post(created.ID).PublishedAt)
}

func TestUpdate_NotFoundBeforeValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Update(context.Background(), 404, mustInput(t, `{}`))
	assert.ErrorIs(t, err, ErrPostNotFound)
}

// vanishingPosts deletes the post right after it has been read
type vanishingPosts struct {
	repository.PostRepository
}

func (v *vanishingPosts) GetByID(ctx context.Context, id uint64) (*models.BlogPost, error) {
	post, err := v.PostRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := v.PostRepository.Delete(ctx, id); err != nil {
		return nil, err
	}
	return post, nil
}

func TestUpdate_DeletedMeanwhileIsNotFound(t *testing.T) {
	_, store, notifier := newTestService(t)
	repos := store.Repositories()
	setup := NewService(repos.Post, repos.Category, notifier)
	created, err := setup.Create(context.Background(), 7, mustInput(t, `{"title":"Gone","category_id":1}`))
	require.NoError(t, err)

	svc := NewService(&vanishingPosts{PostRepository: repos.Post}, repos.Category, notifier)
	_, err = svc.Update(context.Background(), created.ID, mustInput(t, `{"title":"Back","category_id":1}`))
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.Nil(t, store.Post(created.ID))
	assert.Zero(t, store.PostCount())
}

func TestDestroy(t *testing.T) {
	svc, store, _ := newTestService(t)
	created, err := svc.Create(context.Background(), 7, mustInput(t, `{"title":"Hello","category_id":1}`))
	require.NoError(t, err)

	require.NoError(t, svc.Destroy(context.Background(), created.ID))
	assert.Nil(t, store.Post(created.ID))

	assert.ErrorIs(t, svc.Destroy(context.Background(), created.ID), ErrPostNotFound)
}

func ptr[T any](v T) *T {
	return &v
}
