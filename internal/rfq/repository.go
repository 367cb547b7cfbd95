package rfq

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const requestColumns = `id, name, email, phone, company, requirements, additional_info, product_category,
	quantity, budget, timeline, status, notes, created_at, updated_at`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, req Request) (Request, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Request{}, fmt.Errorf("generate uuid v7: %w", err)
	}
	req.ID = id.String()
	req.CreatedAt = time.Now().UTC()

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO rfq_requests (`+requestColumns+`)
		VALUES (:id, :name, :email, :phone, :company, :requirements, :additional_info, :product_category,
			:quantity, :budget, :timeline, :status, :notes, :created_at, :updated_at)
	`, req)
	if err != nil {
		return Request{}, fmt.Errorf("insert rfq: %w", err)
	}

	return req, nil
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Request, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, `
		SELECT COUNT(*) FROM rfq_requests WHERE ($1::text = '' OR status = $1::text)
	`, string(filter.Status))
	if err != nil {
		return nil, 0, fmt.Errorf("count rfqs: %w", err)
	}

	requests := make([]Request, 0)
	err = r.db.SelectContext(ctx, &requests, `
		SELECT `+requestColumns+` FROM rfq_requests
		WHERE ($1::text = '' OR status = $1::text)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, string(filter.Status), filter.Limit, filter.Skip)
	if err != nil {
		return nil, 0, fmt.Errorf("query rfqs: %w", err)
	}

	return requests, total, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status, notes string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE rfq_requests SET status = $2, notes = $3, updated_at = $4 WHERE id = $1
	`, id, string(status), notes, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update rfq status: %w", err)
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
