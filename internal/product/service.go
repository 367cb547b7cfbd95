package product

import (
	"context"
	"errors"
	"strings"

	"storefront-api/internal/category"
	"storefront-api/internal/util"
)

const (
	minNameLength        = 3
	maxNameLength        = 150
	seoDescriptionLength = 160
)

type Store interface {
	List(ctx context.Context, filter ListFilter) ([]Product, int, error)
	GetByID(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, id string) error
}

type CategoryLookup interface {
	Get(ctx context.Context, id string) (category.Category, error)
}

type Service struct {
	store      Store
	categories CategoryLookup
	uploader   ImageUploader
}

func NewService(store Store, categories CategoryLookup, uploader ImageUploader) *Service {
	return &Service{store: store, categories: categories, uploader: uploader}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Product, int, error) {
	return s.store.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, input CreateInput) (Product, error) {
	name := util.SanitizeInput(input.Name)
	categoryID := strings.TrimSpace(input.CategoryID)
	description := util.SanitizeInput(input.Description)

	for _, field := range []struct{ name, value string }{
		{"name", name},
		{"category_id", categoryID},
		{"description", description},
	} {
		if field.value == "" {
			return Product{}, invalid("%s is required", field.name)
		}
	}
	if err := validateName(name); err != nil {
		return Product{}, err
	}

	sub, main, err := s.placement(ctx, categoryID)
	if err != nil {
		return Product{}, err
	}

	images, err := resolveImages(ctx, s.uploader, input.Images)
	if err != nil {
		return Product{}, err
	}

	p := Product{
		Name:           name,
		Description:    description,
		Images:         images,
		Specifications: Specs(util.SanitizeMap(input.Specifications)),
		IsActive:       true,
		SEOTitle:       util.SanitizeInput(input.SEOTitle),
		SEODescription: util.SanitizeInput(input.SEODescription),
		SEOKeywords:    util.SanitizeInput(input.SEOKeywords),
		SEOSlug:        util.SanitizeInput(input.SEOSlug),
		CreatedBy:      input.CreatedBy,
	}
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}
	if p.Specifications == nil {
		p.Specifications = Specs{}
	}
	place(&p, sub, main)
	applySEODefaults(&p)

	return s.store.Create(ctx, p)
}

func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (Product, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}

	if input.Name != nil {
		name := util.SanitizeInput(*input.Name)
		if err := validateName(name); err != nil {
			return Product{}, err
		}
		p.Name = name
	}
	if input.CategoryID != nil {
		sub, main, err := s.placement(ctx, strings.TrimSpace(*input.CategoryID))
		if err != nil {
			var validation ValidationError
			if errors.As(err, &validation) {
				return Product{}, invalid("Invalid category_id")
			}
			return Product{}, err
		}
		place(&p, sub, main)
	}
	if input.Description != nil {
		description := util.SanitizeInput(*input.Description)
		if description == "" {
			return Product{}, invalid("description is required")
		}
		p.Description = description
	}
	if input.Images != nil {
		images, err := resolveImages(ctx, s.uploader, *input.Images)
		if err != nil {
			return Product{}, err
		}
		p.Images = images
	}
	if input.Specifications != nil {
		p.Specifications = Specs(util.SanitizeMap(input.Specifications))
	}
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}
	setIfPresent(&p.SEOTitle, input.SEOTitle)
	setIfPresent(&p.SEODescription, input.SEODescription)
	setIfPresent(&p.SEOKeywords, input.SEOKeywords)
	setIfPresent(&p.SEOSlug, input.SEOSlug)
	applySEODefaults(&p)

	return s.store.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// placement resolves a sub-category and its main category.
func (s *Service) placement(ctx context.Context, categoryID string) (category.Category, category.Category, error) {
	sub, err := s.categories.Get(ctx, categoryID)
	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			return category.Category{}, category.Category{}, invalid("Invalid category_id - must be a sub-category")
		}
		return category.Category{}, category.Category{}, err
	}
	if sub.Type != category.TypeSub {
		return category.Category{}, category.Category{}, invalid("Invalid category_id - must be a sub-category")
	}

	main, err := s.categories.Get(ctx, sub.ParentID())
	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			return category.Category{}, category.Category{}, invalid("Invalid main category reference")
		}
		return category.Category{}, category.Category{}, err
	}
	if !main.IsMain() {
		return category.Category{}, category.Category{}, invalid("Invalid main category reference")
	}

	return sub, main, nil
}

func place(p *Product, sub, main category.Category) {
	p.CategoryID = sub.ID
	p.CategoryName = sub.Name
	p.MainCategoryID = main.ID
	p.MainCategoryName = main.Name
	p.MainCategorySlug = main.Slug
}

func validateName(name string) error {
	length := len([]rune(name))
	if length < minNameLength {
		return invalid("Product name must be at least %d characters long", minNameLength)
	}
	if length > maxNameLength {
		return invalid("Product name must be at most %d characters long", maxNameLength)
	}
	return nil
}

// applySEODefaults fills blank SEO fields from the product's name, description
// and categories.
func applySEODefaults(p *Product) {
	if p.SEOTitle == "" {
		p.SEOTitle = p.Name
	}
	if p.SEODescription == "" {
		p.SEODescription = truncateRunes(p.Description, seoDescriptionLength)
	}
	if p.SEOKeywords == "" {
		p.SEOKeywords = p.CategoryName + ", " + p.MainCategoryName
	}
	if p.SEOSlug == "" {
		p.SEOSlug = strings.ReplaceAll(strings.ToLower(p.Name), " ", "-")
	}
}

func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}

func setIfPresent(dst *string, value *string) {
	if value != nil {
		*dst = util.SanitizeInput(*value)
	}
}
