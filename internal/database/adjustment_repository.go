package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/reviewcore/internal/errs"
	"github.com/example/reviewcore/pkg/models"
	"github.com/jmoiron/sqlx"
)

// AdjustmentRepository handles the difficulty adjustment audit log
type AdjustmentRepository struct {
	db *sqlx.DB
}

// NewAdjustmentRepository creates a new repository instance
func NewAdjustmentRepository(s *Store) *AdjustmentRepository {
	return &AdjustmentRepository{db: s.db}
}

// Create appends one immutable adjustment record
func (r *AdjustmentRepository) Create(ctx context.Context, a *models.DynamicDifficultyAdjustment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO difficulty_adjustments (
			id, problem_id, original_difficulty, adjusted_difficulty,
			reason, trigger_user_id, automatic, feedback_summary, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.ProblemID, a.OriginalDifficulty, a.AdjustedDifficulty,
		a.Reason, a.TriggerUserID, a.Automatic, a.FeedbackSummary, a.CreatedAt)
	if err != nil {
		return errs.Transient("adjustments.create", err)
	}
	return nil
}

// LastAutomaticAt returns when the most recent automatic adjustment for the
// problem was applied. ok is false when none exists.
func (r *AdjustmentRepository) LastAutomaticAt(ctx context.Context, problemID int64) (time.Time, bool, error) {
	var at time.Time
	err := r.db.GetContext(ctx, &at, `
		SELECT created_at FROM difficulty_adjustments
		WHERE problem_id = $1 AND automatic = TRUE
		ORDER BY created_at DESC
		LIMIT 1`,
		problemID)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, errs.Transient("adjustments.last_automatic", err)
	}
	return at, true, nil
}

// TrendSince returns the mean signed difficulty delta applied to the problem
// over the window. Zero when no adjustments exist.
func (r *AdjustmentRepository) TrendSince(ctx context.Context, problemID int64, cutoff time.Time) (float64, error) {
	var trend float64
	err := r.db.GetContext(ctx, &trend, `
		SELECT COALESCE(AVG(adjusted_difficulty - original_difficulty), 0)
		FROM difficulty_adjustments
		WHERE problem_id = $1 AND created_at >= $2`,
		problemID, cutoff)
	if err != nil {
		return 0, errs.Transient("adjustments.trend", err)
	}
	return trend, nil
}
