// Package infrastructure provides the PostgreSQL persistence for user accounts.
package infrastructure

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tax-gov/arrears/internal/accounts/domain"
	"github.com/tax-gov/arrears/internal/shared/errors"
	"github.com/tax-gov/arrears/internal/shared/metrics"
)

// PostgresRepository implements domain.Repository using PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("user_create", time.Since(start)) }()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO tax.users (id, username, password_hash, user_type, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Username, u.PasswordHash, u.UserType, u.IsActive, u.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("username already taken")
		}
		return errors.Storage(err, "failed to save user")
	}
	return nil
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, `WHERE username = $1`, username)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

func (r *PostgresRepository) findOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	u := &domain.User{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, user_type, is_active, created_at
		FROM tax.users `+where, arg,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.UserType, &u.IsActive, &u.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("user", "")
	}
	if err != nil {
		return nil, errors.Storage(err, "failed to find user")
	}
	return u, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]domain.User, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("user_list", time.Since(start)) }()

	rows, err := r.pool.Query(ctx, `
		SELECT id, username, password_hash, user_type, is_active, created_at
		FROM tax.users ORDER BY username`)
	if err != nil {
		return nil, errors.Storage(err, "failed to list users")
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.UserType, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, errors.Storage(err, "failed to scan user")
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage(err, "failed to read users")
	}
	return users, nil
}

func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tax.users SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return errors.Storage(err, "failed to update user")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("user", id)
	}
	return nil
}
