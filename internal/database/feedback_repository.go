package database

import (
	"context"
	"time"

	"github.com/example/reviewcore/internal/errs"
	"github.com/example/reviewcore/pkg/models"
	"github.com/jmoiron/sqlx"
)

// FeedbackRepository handles the append-only problem feedback log
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository creates a new repository instance
func NewFeedbackRepository(s *Store) *FeedbackRepository {
	return &FeedbackRepository{db: s.db}
}

// Create appends one immutable feedback record
func (r *FeedbackRepository) Create(ctx context.Context, f *models.ProblemDifficultyFeedback) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO problem_feedback (
			id, user_id, problem_id, feedback, response_time,
			is_correct, time_of_day, session_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		f.ID, f.UserID, f.ProblemID, f.Feedback, f.ResponseTime,
		f.IsCorrect, f.TimeOfDay, f.SessionID, f.CreatedAt)
	if err != nil {
		return errs.Transient("feedback.create", err)
	}
	return nil
}

// GetByProblemSince returns feedback for one problem newer than the cutoff,
// oldest first
func (r *FeedbackRepository) GetByProblemSince(ctx context.Context, problemID int64, cutoff time.Time) ([]models.ProblemDifficultyFeedback, error) {
	var out []models.ProblemDifficultyFeedback
	err := r.db.SelectContext(ctx, &out, `
		SELECT * FROM problem_feedback
		WHERE problem_id = $1 AND created_at >= $2
		ORDER BY created_at ASC`,
		problemID, cutoff)
	if err != nil {
		return nil, errs.Transient("feedback.by_problem", err)
	}
	return out, nil
}

// GetByUserSince returns one user's feedback newer than the cutoff, oldest first
func (r *FeedbackRepository) GetByUserSince(ctx context.Context, userID int64, cutoff time.Time) ([]models.ProblemDifficultyFeedback, error) {
	var out []models.ProblemDifficultyFeedback
	err := r.db.SelectContext(ctx, &out, `
		SELECT * FROM problem_feedback
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at ASC`,
		userID, cutoff)
	if err != nil {
		return nil, errs.Transient("feedback.by_user", err)
	}
	return out, nil
}

// CountByProblem returns the all-time feedback count for a problem
func (r *FeedbackRepository) CountByProblem(ctx context.Context, problemID int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM problem_feedback WHERE problem_id = $1", problemID)
	if err != nil {
		return 0, errs.Transient("feedback.count", err)
	}
	return n, nil
}

// AverageResponseTime returns the user's mean response time over the window,
// or 0 when no timed feedback exists
func (r *FeedbackRepository) AverageResponseTime(ctx context.Context, userID int64, cutoff time.Time) (float64, error) {
	var avg float64
	err := r.db.GetContext(ctx, &avg, `
		SELECT COALESCE(AVG(response_time), 0) FROM problem_feedback
		WHERE user_id = $1 AND created_at >= $2 AND response_time IS NOT NULL`,
		userID, cutoff)
	if err != nil {
		return 0, errs.Transient("feedback.avg_response_time", err)
	}
	return avg, nil
}
