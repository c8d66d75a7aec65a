package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/reviewcore/internal/errs"
	"github.com/example/reviewcore/pkg/models"
	"github.com/jmoiron/sqlx"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new repository instance
func NewUserRepository(s *Store) *UserRepository {
	return &UserRepository{db: s.db}
}

// GetByID returns one user
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, "SELECT * FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("user", id)
	}
	if err != nil {
		return nil, errs.Transient("users.get", err)
	}
	return &u, nil
}

// GetActiveSince returns users whose last activity is at or after the cutoff
func (r *UserRepository) GetActiveSince(ctx context.Context, cutoff time.Time) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users,
		"SELECT * FROM users WHERE last_active_at >= $1 ORDER BY id", cutoff)
	if err != nil {
		return nil, errs.Transient("users.active_since", err)
	}
	return users, nil
}

// TouchActive records user activity
func (r *UserRepository) TouchActive(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET last_active_at = $1, updated_at = $1 WHERE id = $2", at, id)
	if err != nil {
		return errs.Transient("users.touch", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.NotFound("user", id)
	}
	return nil
}
