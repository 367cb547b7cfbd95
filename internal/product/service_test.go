package product

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-api/internal/category"
)

type memStore struct {
	mu       sync.Mutex
	products map[string]Product
	order    []string
}

func newMemStore() *memStore {
	return &memStore{products: make(map[string]Product)}
}

func (s *memStore) List(_ context.Context, filter ListFilter) ([]Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]Product, 0)
	for i := len(s.order) - 1; i >= 0; i-- {
		p, ok := s.products[s.order[i]]
		if !ok || p.IsActive != filter.IsActive {
			continue
		}
		if filter.CategoryID != "" && p.CategoryID != filter.CategoryID {
			continue
		}
		if filter.MainCategorySlug != "" && p.MainCategorySlug != filter.MainCategorySlug {
			continue
		}
		matched = append(matched, p)
	}

	total := len(matched)
	start := min(filter.Skip, total)
	end := min(start+filter.Limit, total)
	return matched[start:end], total, nil
}

func (s *memStore) GetByID(_ context.Context, id string) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (s *memStore) Create(_ context.Context, p Product) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.NewString()
	s.products[p.ID] = p
	s.order = append(s.order, p.ID)
	return p, nil
}

func (s *memStore) Update(_ context.Context, p Product) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return Product{}, ErrNotFound
	}
	s.products[p.ID] = p
	return p, nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	return nil
}

type categoryMap map[string]category.Category

func (m categoryMap) Get(_ context.Context, id string) (category.Category, error) {
	c, ok := m[id]
	if !ok {
		return category.Category{}, category.ErrNotFound
	}
	return c, nil
}

type fakeUploader struct {
	calls []string
	err   error
}

func (u *fakeUploader) UploadImage(_ context.Context, source string) (string, error) {
	u.calls = append(u.calls, source)
	if u.err != nil {
		return "", u.err
	}
	return "https://res.cloudinary.com/demo/image/upload/p" + string(rune('0'+len(u.calls))) + ".png", nil
}

func strPtr(s string) *string {
	return &s
}

func testCategories() categoryMap {
	mainID := "main-1"
	mainName := "Office"
	mainSlug := "office"
	otherID := "main-2"
	otherName := "Garden"
	otherSlug := "garden"

	return categoryMap{
		"main-1": {ID: mainID, Name: mainName, Type: category.TypeMain, Slug: mainSlug},
		"main-2": {ID: otherID, Name: otherName, Type: category.TypeMain, Slug: otherSlug},
		"sub-1":  {ID: "sub-1", Name: "Chairs", Type: category.TypeSub, MainCategoryID: &mainID, MainCategoryName: &mainName, MainCategorySlug: &mainSlug},
		"sub-2":  {ID: "sub-2", Name: "Planters", Type: category.TypeSub, MainCategoryID: &otherID, MainCategoryName: &otherName, MainCategorySlug: &otherSlug},
		"orphan": {ID: "orphan", Name: "Lost", Type: category.TypeSub},
	}
}

func TestCreateDenormalisesAndDefaultsSEO(t *testing.T) {
	uploader := &fakeUploader{}
	service := NewService(newMemStore(), testCategories(), uploader)

	description := strings.Repeat("d", 200)
	p, err := service.Create(context.Background(), CreateInput{
		Name:           " Ergo Chair ",
		CategoryID:     "sub-1",
		Description:    description,
		Images:         []string{"https://cdn.example.com/a.png", "data:image/png;base64,AAAA", " "},
		Specifications: map[string]any{"color": "<black>"},
		CreatedBy:      "admin-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "Ergo Chair", p.Name)
	assert.Equal(t, "Chairs", p.CategoryName)
	assert.Equal(t, "main-1", p.MainCategoryID)
	assert.Equal(t, "Office", p.MainCategoryName)
	assert.Equal(t, "office", p.MainCategorySlug)
	assert.True(t, p.IsActive)
	assert.Equal(t, "Ergo Chair", p.SEOTitle)
	assert.Len(t, p.SEODescription, 160)
	assert.Equal(t, "Chairs, Office", p.SEOKeywords)
	assert.Equal(t, "ergo-chair", p.SEOSlug)
	assert.Equal(t, "&lt;black&gt;", p.Specifications["color"])
	require.Len(t, p.Images, 2)
	assert.Equal(t, "https://cdn.example.com/a.png", p.Images[0])
	assert.True(t, strings.HasPrefix(p.Images[1], "https://res.cloudinary.com/"))
	assert.Len(t, uploader.calls, 1)
}

func TestCreateValidation(t *testing.T) {
	service := NewService(newMemStore(), testCategories(), nil)

	tests := []struct {
		name  string
		input CreateInput
		msg   string
	}{
		{name: "missing name", input: CreateInput{CategoryID: "sub-1", Description: "x"}, msg: "name is required"},
		{name: "missing category", input: CreateInput{Name: "Chair", Description: "x"}, msg: "category_id is required"},
		{name: "missing description", input: CreateInput{Name: "Chair", CategoryID: "sub-1"}, msg: "description is required"},
		{name: "short name", input: CreateInput{Name: "Ch", CategoryID: "sub-1", Description: "x"}, msg: "Product name must be at least 3 characters long"},
		{name: "main category", input: CreateInput{Name: "Chair", CategoryID: "main-1", Description: "x"}, msg: "Invalid category_id - must be a sub-category"},
		{name: "unknown category", input: CreateInput{Name: "Chair", CategoryID: "nope", Description: "x"}, msg: "Invalid category_id - must be a sub-category"},
		{name: "orphan sub", input: CreateInput{Name: "Chair", CategoryID: "orphan", Description: "x"}, msg: "Invalid main category reference"},
		{name: "bad image scheme", input: CreateInput{Name: "Chair", CategoryID: "sub-1", Description: "x", Images: []string{"ftp://cdn.example.com/a.png"}}, msg: "image url must start with http or https"},
		{name: "image with credentials", input: CreateInput{Name: "Chair", CategoryID: "sub-1", Description: "x", Images: []string{"https://u:p@cdn.example.com/a.png"}}, msg: "image url host is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(context.Background(), tt.input)
			var validation ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, tt.msg, validation.Message)
		})
	}
}

func TestCreateImageUploadErrors(t *testing.T) {
	input := CreateInput{Name: "Chair", CategoryID: "sub-1", Description: "x", Images: []string{"data:image/png;base64,AAAA"}}

	_, err := NewService(newMemStore(), testCategories(), nil).Create(context.Background(), input)
	assert.ErrorIs(t, err, ErrUploaderUnavailable)

	failing := &fakeUploader{err: errors.New("cloudinary down")}
	_, err = NewService(newMemStore(), testCategories(), failing).Create(context.Background(), input)
	assert.ErrorIs(t, err, ErrUploadFailed)
}

func TestUpdate(t *testing.T) {
	service := NewService(newMemStore(), testCategories(), nil)
	ctx := context.Background()

	p, err := service.Create(ctx, CreateInput{Name: "Ergo Chair", CategoryID: "sub-1", Description: "comfy", SEOSlug: "custom-slug"})
	require.NoError(t, err)

	updated, err := service.Update(ctx, p.ID, UpdateInput{
		CategoryID: strPtr("sub-2"),
		IsActive:   boolPtr(false),
		SEOTitle:   strPtr("Planter Chair"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Planters", updated.CategoryName)
	assert.Equal(t, "Garden", updated.MainCategoryName)
	assert.Equal(t, "garden", updated.MainCategorySlug)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "Planter Chair", updated.SEOTitle)
	assert.Equal(t, "custom-slug", updated.SEOSlug)
	assert.Equal(t, "comfy", updated.Description)

	_, err = service.Update(ctx, p.ID, UpdateInput{CategoryID: strPtr("main-1")})
	var validation ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "Invalid category_id", validation.Message)

	_, err = service.Update(ctx, p.ID, UpdateInput{Name: strPtr("ab")})
	require.ErrorAs(t, err, &validation)

	_, err = service.Update(ctx, "missing", UpdateInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFilters(t *testing.T) {
	service := NewService(newMemStore(), testCategories(), nil)
	ctx := context.Background()

	names := []string{"Chair A", "Chair B", "Chair C"}
	for _, name := range names {
		_, err := service.Create(ctx, CreateInput{Name: name, CategoryID: "sub-1", Description: "x"})
		require.NoError(t, err)
	}
	_, err := service.Create(ctx, CreateInput{Name: "Planter", CategoryID: "sub-2", Description: "x"})
	require.NoError(t, err)
	_, err = service.Create(ctx, CreateInput{Name: "Hidden", CategoryID: "sub-1", Description: "x", IsActive: boolPtr(false)})
	require.NoError(t, err)

	products, total, err := service.List(ctx, ListFilter{IsActive: true, MainCategorySlug: "office", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, products, 2)

	got := []string{products[0].Name, products[1].Name}
	sort.Strings(got)
	assert.Equal(t, []string{"Chair B", "Chair C"}, got)

	_, total, err = service.List(ctx, ListFilter{IsActive: false, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	products, _, err = service.List(ctx, ListFilter{IsActive: true, CategoryID: "sub-2", Limit: 50})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Planter", products[0].Name)
}

func boolPtr(b bool) *bool {
	return &b
}
