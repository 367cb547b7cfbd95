package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const productColumns = `id, name, category_id, category_name, main_category_id, main_category_name, main_category_slug,
	description, images, specifications, is_active, seo_title, seo_description, seo_keywords, seo_slug,
	created_at, updated_at, created_by`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// List returns one page of products newest first, and the number of products
// matching the filter.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Product, int, error) {
	where := []string{"is_active = $1"}
	args := []any{filter.IsActive}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		where = append(where, fmt.Sprintf("category_id::text = $%d", len(args)))
	}
	if filter.MainCategorySlug != "" {
		args = append(args, filter.MainCategorySlug)
		where = append(where, fmt.Sprintf("main_category_slug = $%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM products WHERE `+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	products := make([]Product, 0)
	pageArgs := append(args, filter.Limit, filter.Skip)
	query := fmt.Sprintf(`SELECT %s FROM products WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		productColumns, clause, len(pageArgs)-1, len(pageArgs))
	if err := r.db.SelectContext(ctx, &products, query, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}

	return products, total, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Product{}, ErrNotFound
	}

	var p Product
	if err := r.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("query product: %w", err)
	}

	return p, nil
}

func (r *Repository) Create(ctx context.Context, p Product) (Product, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Product{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now().UTC()
	p.ID = id.String()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (:id, :name, :category_id, :category_name, :main_category_id, :main_category_name, :main_category_slug,
			:description, :images, :specifications, :is_active, :seo_title, :seo_description, :seo_keywords, :seo_slug,
			:created_at, :updated_at, :created_by)
	`, p)
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}

	return p, nil
}

// Update overwrites every mutable column of p.
func (r *Repository) Update(ctx context.Context, p Product) (Product, error) {
	p.UpdatedAt = time.Now().UTC()

	result, err := r.db.NamedExecContext(ctx, `
		UPDATE products SET
			name = :name,
			category_id = :category_id,
			category_name = :category_name,
			main_category_id = :main_category_id,
			main_category_name = :main_category_name,
			main_category_slug = :main_category_slug,
			description = :description,
			images = :images,
			specifications = :specifications,
			is_active = :is_active,
			seo_title = :seo_title,
			seo_description = :seo_description,
			seo_keywords = :seo_keywords,
			seo_slug = :seo_slug,
			updated_at = :updated_at
		WHERE id = :id
	`, p)
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return Product{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return Product{}, ErrNotFound
	}

	return p, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
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
