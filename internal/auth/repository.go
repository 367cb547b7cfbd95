package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

const uniqueViolation = "23505"

const accountColumns = `id, username, email, password_hash, role, is_active, created_at, updated_at, last_login`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, account Account) (Account, error) {
	if account.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return Account{}, fmt.Errorf("generate uuid v7: %w", err)
		}
		account.ID = id.String()
	}

	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (`+accountColumns+`)
		VALUES (:id, :username, :email, :password_hash, :role, :is_active, :created_at, :updated_at, :last_login)
	`, account)
	if err != nil {
		if isUniqueViolation(err) {
			return Account{}, ErrDuplicateIdentity
		}
		return Account{}, fmt.Errorf("insert user: %w", err)
	}

	return account, nil
}

func (r *Repository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 OR email = $2)
	`, username, email)
	if err != nil {
		return false, fmt.Errorf("query user existence: %w", err)
	}

	return exists, nil
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (Account, error) {
	var account Account
	err := r.db.GetContext(ctx, &account, `SELECT `+accountColumns+` FROM users WHERE username = $1`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, err
		}
		return Account{}, fmt.Errorf("query user by username: %w", err)
	}

	return account, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Account{}, sql.ErrNoRows
	}

	var account Account
	err := r.db.GetContext(ctx, &account, `SELECT `+accountColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, err
		}
		return Account{}, fmt.Errorf("query user by id: %w", err)
	}

	return account, nil
}

func (r *Repository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET last_login = $2, updated_at = $2 WHERE id = $1
	`, id, at.UTC())
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}

	return nil
}

// UpsertAdmin creates the admin account or resets its password, role and status.
func (r *Repository) UpsertAdmin(ctx context.Context, username, email, passwordHash string) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6)
		ON CONFLICT (username) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role,
			is_active = TRUE,
			updated_at = EXCLUDED.updated_at
	`, id.String(), username, email, passwordHash, RoleAdmin, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("admin email already used by another account: %w", ErrDuplicateIdentity)
		}
		return fmt.Errorf("upsert admin user: %w", err)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
