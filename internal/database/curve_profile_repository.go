package database

import (
	"context"
	"database/sql"

	"github.com/example/reviewcore/internal/errs"
	"github.com/example/reviewcore/pkg/models"
	"github.com/jmoiron/sqlx"
)

// CurveProfileRepository handles database operations for forgetting-curve profiles
type CurveProfileRepository struct {
	db *sqlx.DB
}

// NewCurveProfileRepository creates a new repository instance
func NewCurveProfileRepository(s *Store) *CurveProfileRepository {
	return &CurveProfileRepository{db: s.db}
}

// GetOrCreate returns the user's profile, creating it with defaults on first
// use. Lazy initialization lives here so call sites never construct profiles
// themselves.
func (r *CurveProfileRepository) GetOrCreate(ctx context.Context, userID int64) (*models.ForgettingCurveProfile, error) {
	var p models.ForgettingCurveProfile
	err := r.db.GetContext(ctx, &p,
		"SELECT * FROM forgetting_curve_profiles WHERE user_id = $1", userID)
	if err == nil {
		return &p, nil
	}
	if err != sql.ErrNoRows {
		return nil, errs.Transient("curve_profiles.get", err)
	}

	fresh := models.DefaultForgettingCurveProfile(userID)
	if insErr := r.insert(ctx, fresh); insErr != nil {
		// A concurrent first review may have inserted the row; re-read once.
		if reErr := r.db.GetContext(ctx, &p,
			"SELECT * FROM forgetting_curve_profiles WHERE user_id = $1", userID); reErr == nil {
			return &p, nil
		}
		return nil, insErr
	}
	return fresh, nil
}

func (r *CurveProfileRepository) insert(ctx context.Context, p *models.ForgettingCurveProfile) error {
	if r.db.DriverName() == "sqlite3" {
		res, err := r.db.ExecContext(ctx, `
			INSERT INTO forgetting_curve_profiles (
				user_id, memory_retention_factor, difficulty_adjustment,
				success_rate, total_reviews, subject_adjustments
			) VALUES ($1, $2, $3, $4, $5, $6)`,
			p.UserID, p.MemoryRetentionFactor, p.DifficultyAdjustment,
			p.SuccessRate, p.TotalReviews, p.SubjectAdjustments)
		if err != nil {
			return errs.Transient("curve_profiles.create", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return errs.Transient("curve_profiles.create", err)
		}
		p.ID = id
		return nil
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO forgetting_curve_profiles (
			user_id, memory_retention_factor, difficulty_adjustment,
			success_rate, total_reviews, subject_adjustments
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		p.UserID, p.MemoryRetentionFactor, p.DifficultyAdjustment,
		p.SuccessRate, p.TotalReviews, p.SubjectAdjustments).Scan(&p.ID)
	if err != nil {
		return errs.Transient("curve_profiles.create", err)
	}
	return nil
}

// Update persists profile mutations after a completed review
func (r *CurveProfileRepository) Update(ctx context.Context, p *models.ForgettingCurveProfile) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE forgetting_curve_profiles SET
			memory_retention_factor = $1,
			difficulty_adjustment = $2,
			success_rate = $3,
			total_reviews = $4,
			subject_adjustments = $5,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $6`,
		p.MemoryRetentionFactor, p.DifficultyAdjustment, p.SuccessRate,
		p.TotalReviews, p.SubjectAdjustments, p.UserID)
	if err != nil {
		return errs.Transient("curve_profiles.update", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.NotFound("forgetting curve profile", p.UserID)
	}
	return nil
}
