package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/reviewcore/internal/errs"
	"github.com/example/reviewcore/pkg/models"
	"github.com/jmoiron/sqlx"
)

// ProblemRepository handles database operations for problems
type ProblemRepository struct {
	db *sqlx.DB
}

// NewProblemRepository creates a new repository instance
func NewProblemRepository(s *Store) *ProblemRepository {
	return &ProblemRepository{db: s.db}
}

// GetByID returns one problem
func (r *ProblemRepository) GetByID(ctx context.Context, id int64) (*models.Problem, error) {
	var p models.Problem
	err := r.db.GetContext(ctx, &p, "SELECT * FROM problems WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("problem", id)
	}
	if err != nil {
		return nil, errs.Transient("problems.get", err)
	}
	return &p, nil
}

// Create inserts a new problem
func (r *ProblemRepository) Create(ctx context.Context, p *models.Problem) error {
	if r.db.DriverName() == "sqlite3" {
		res, err := r.db.ExecContext(ctx, `
			INSERT INTO problems (title, subject, difficulty, tags)
			VALUES ($1, $2, $3, $4)`,
			p.Title, p.Subject, p.Difficulty, p.Tags)
		if err != nil {
			return errs.Transient("problems.create", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return errs.Transient("problems.create", err)
		}
		p.ID = id
		return nil
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO problems (title, subject, difficulty, tags)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		p.Title, p.Subject, p.Difficulty, p.Tags).Scan(&p.ID)
	if err != nil {
		return errs.Transient("problems.create", err)
	}
	return nil
}

// FindByTitle returns a problem by exact title, or nil when absent
func (r *ProblemRepository) FindByTitle(ctx context.Context, title string) (*models.Problem, error) {
	var p models.Problem
	err := r.db.GetContext(ctx, &p, "SELECT * FROM problems WHERE title = $1", title)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Transient("problems.find_by_title", err)
	}
	return &p, nil
}

// UpdateDifficulty persists a new stored difficulty for the problem
func (r *ProblemRepository) UpdateDifficulty(ctx context.Context, id int64, difficulty float64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE problems SET difficulty = $1, updated_at = $2 WHERE id = $3",
		difficulty, at, id)
	if err != nil {
		return errs.Transient("problems.update_difficulty", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.NotFound("problem", id)
	}
	return nil
}
