package category

import (
	"context"
	"errors"
	"strings"

	"storefront-api/internal/util"
)

const minNameLength = 2

type Store interface {
	List(ctx context.Context, typ Type) ([]Category, error)
	ListSubs(ctx context.Context, mainID string) ([]Category, error)
	GetByID(ctx context.Context, id string) (Category, error)
	GetMainBySlug(ctx context.Context, slug string) (Category, error)
	NameTaken(ctx context.Context, name string, typ Type, parentID, excludeID string) (bool, error)
	Create(ctx context.Context, c Category) (Category, error)
	Update(ctx context.Context, id string, input UpdateInput) (Category, error)
	Delete(ctx context.Context, id string) error
	CountSubs(ctx context.Context, mainID string) (int, error)
	CountProducts(ctx context.Context, categoryID string) (int, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.store.List(ctx, "")
}

func (s *Service) ListMain(ctx context.Context) ([]Category, error) {
	return s.store.List(ctx, TypeMain)
}

// ListSubsOf returns the sub-categories of the main category with the given slug.
func (s *Service) ListSubsOf(ctx context.Context, mainSlug string) ([]Category, error) {
	main, err := s.store.GetMainBySlug(ctx, strings.TrimSpace(mainSlug))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrMainNotFound
		}
		return nil, err
	}
	return s.store.ListSubs(ctx, main.ID)
}

func (s *Service) Get(ctx context.Context, id string) (Category, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) GetMainBySlug(ctx context.Context, slug string) (Category, error) {
	main, err := s.store.GetMainBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Category{}, ErrMainNotFound
		}
		return Category{}, err
	}
	return main, nil
}

func (s *Service) AdminTree(ctx context.Context) (Tree, error) {
	mains, err := s.store.List(ctx, TypeMain)
	if err != nil {
		return Tree{}, err
	}

	tree := Tree{Main: mains, SubsByMainID: make(map[string][]Category, len(mains))}
	for _, main := range mains {
		subs, err := s.store.ListSubs(ctx, main.ID)
		if err != nil {
			return Tree{}, err
		}
		tree.SubsByMainID[main.ID] = subs
	}

	return tree, nil
}

func (s *Service) Create(ctx context.Context, input CreateInput) (Category, error) {
	name := util.SanitizeInput(input.Name)
	typ := Type(util.SanitizeInput(input.Type))

	if name == "" || typ == "" {
		return Category{}, invalid("Category name and type are required")
	}
	if !typ.Valid() {
		return Category{}, invalid(`Category type must be either "main" or "sub"`)
	}
	if len([]rune(name)) < minNameLength {
		return Category{}, invalid("Category name must be at least %d characters long", minNameLength)
	}

	c := Category{
		Name:        name,
		Type:        typ,
		Description: util.SanitizeInput(input.Description),
		Slug:        util.SanitizeInput(input.Slug),
		CreatedBy:   input.CreatedBy,
	}
	if c.Slug == "" {
		c.Slug = util.Slugify(name)
	}

	if typ == TypeSub {
		mainID := strings.TrimSpace(input.MainCategoryID)
		if mainID == "" {
			return Category{}, invalid("main_category_id is required for sub-categories")
		}
		main, err := s.store.GetByID(ctx, mainID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return Category{}, invalid("Invalid main_category_id")
			}
			return Category{}, err
		}
		if !main.IsMain() {
			return Category{}, invalid("Invalid main_category_id")
		}
		c.MainCategoryID = &main.ID
		c.MainCategoryName = &main.Name
		c.MainCategorySlug = &main.Slug
	}

	taken, err := s.store.NameTaken(ctx, c.Name, c.Type, c.ParentID(), "")
	if err != nil {
		return Category{}, err
	}
	if taken {
		return Category{}, invalid("Category already exists")
	}

	return s.store.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (Category, error) {
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Category{}, err
	}

	var update UpdateInput
	if input.Name != nil {
		name := util.SanitizeInput(*input.Name)
		if len([]rune(name)) < minNameLength {
			return Category{}, invalid("Category name must be at least %d characters long", minNameLength)
		}
		if name != existing.Name {
			taken, err := s.store.NameTaken(ctx, name, existing.Type, existing.ParentID(), existing.ID)
			if err != nil {
				return Category{}, err
			}
			if taken {
				return Category{}, invalid("Category name already exists")
			}
			update.Name = &name
		}
	}
	if input.Description != nil {
		description := util.SanitizeInput(*input.Description)
		update.Description = &description
	}

	return s.store.Update(ctx, existing.ID, update)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	products, err := s.store.CountProducts(ctx, existing.ID)
	if err != nil {
		return err
	}
	if products > 0 {
		return invalid("Cannot delete category. %d product(s) are using this category.", products)
	}

	if existing.IsMain() {
		subs, err := s.store.CountSubs(ctx, existing.ID)
		if err != nil {
			return err
		}
		if subs > 0 {
			return invalid("Cannot delete category. %d sub-categories belong to it.", subs)
		}
	}

	return s.store.Delete(ctx, existing.ID)
}
