package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const categoryColumns = `id, name, type, description, slug, main_category_id, main_category_name, main_category_slug, created_at, updated_at, created_by`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// List returns categories ordered by name, optionally filtered by type.
func (r *Repository) List(ctx context.Context, typ Type) ([]Category, error) {
	categories := make([]Category, 0)

	var err error
	if typ == "" {
		err = r.db.SelectContext(ctx, &categories, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	} else {
		err = r.db.SelectContext(ctx, &categories, `SELECT `+categoryColumns+` FROM categories WHERE type = $1 ORDER BY name`, typ)
	}
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}

	return categories, nil
}

func (r *Repository) ListSubs(ctx context.Context, mainID string) ([]Category, error) {
	categories := make([]Category, 0)
	err := r.db.SelectContext(ctx, &categories, `
		SELECT `+categoryColumns+` FROM categories
		WHERE type = 'sub' AND main_category_id = $1
		ORDER BY name
	`, mainID)
	if err != nil {
		return nil, fmt.Errorf("query sub categories: %w", err)
	}

	return categories, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (Category, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Category{}, ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
}

func (r *Repository) GetMainBySlug(ctx context.Context, slug string) (Category, error) {
	return r.getOne(ctx, `SELECT `+categoryColumns+` FROM categories WHERE type = 'main' AND slug = $1`, slug)
}

func (r *Repository) getOne(ctx context.Context, query string, args ...any) (Category, error) {
	var c Category
	if err := r.db.GetContext(ctx, &c, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Category{}, ErrNotFound
		}
		return Category{}, fmt.Errorf("query category: %w", err)
	}
	return c, nil
}

// NameTaken reports whether another category with the same name, type and parent
// exists. excludeID is ignored when empty.
func (r *Repository) NameTaken(ctx context.Context, name string, typ Type, parentID, excludeID string) (bool, error) {
	var taken bool
	err := r.db.GetContext(ctx, &taken, `
		SELECT EXISTS(
			SELECT 1 FROM categories
			WHERE name = $1 AND type = $2
			  AND COALESCE(main_category_id::text, '') = $3
			  AND ($4::text = '' OR id::text <> $4::text)
		)
	`, name, typ, parentID, excludeID)
	if err != nil {
		return false, fmt.Errorf("query category name: %w", err)
	}

	return taken, nil
}

func (r *Repository) Create(ctx context.Context, c Category) (Category, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Category{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now().UTC()
	c.ID = id.String()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO categories (`+categoryColumns+`)
		VALUES (:id, :name, :type, :description, :slug, :main_category_id, :main_category_name, :main_category_slug, :created_at, :updated_at, :created_by)
	`, c)
	if err != nil {
		return Category{}, fmt.Errorf("insert category: %w", err)
	}

	return c, nil
}

// Update changes name and description, and rewrites the denormalised names held by
// children and products in the same transaction.
func (r *Repository) Update(ctx context.Context, id string, input UpdateInput) (Category, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Category{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var c Category
	err = tx.GetContext(ctx, &c, `
		UPDATE categories
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    updated_at = $4
		WHERE id = $1
		RETURNING `+categoryColumns, id, input.Name, input.Description, time.Now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Category{}, ErrNotFound
		}
		return Category{}, fmt.Errorf("update category: %w", err)
	}

	if input.Name != nil {
		if c.IsMain() {
			if _, err := tx.ExecContext(ctx, `UPDATE categories SET main_category_name = $2 WHERE main_category_id = $1`, c.ID, c.Name); err != nil {
				return Category{}, fmt.Errorf("update sub category parents: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `UPDATE products SET main_category_name = $2 WHERE main_category_id = $1`, c.ID, c.Name); err != nil {
				return Category{}, fmt.Errorf("update product main categories: %w", err)
			}
		} else {
			if _, err := tx.ExecContext(ctx, `UPDATE products SET category_name = $2 WHERE category_id = $1`, c.ID, c.Name); err != nil {
				return Category{}, fmt.Errorf("update product categories: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Category{}, fmt.Errorf("commit tx: %w", err)
	}

	return c, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repository) CountSubs(ctx context.Context, mainID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM categories WHERE main_category_id = $1`, mainID); err != nil {
		return 0, fmt.Errorf("count sub categories: %w", err)
	}
	return count, nil
}

func (r *Repository) CountProducts(ctx context.Context, categoryID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM products WHERE category_id = $1`, categoryID); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}
