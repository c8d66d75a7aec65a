package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/reviewcore/internal/errs"
	"github.com/example/reviewcore/pkg/models"
	"github.com/jmoiron/sqlx"
)

// ScheduleRepository handles database operations for review schedule items
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new repository instance
func NewScheduleRepository(s *Store) *ScheduleRepository {
	return &ScheduleRepository{db: s.db}
}

// GetByID returns one schedule item
func (r *ScheduleRepository) GetByID(ctx context.Context, id int64) (*models.ReviewScheduleItem, error) {
	var item models.ReviewScheduleItem
	err := r.db.GetContext(ctx, &item, "SELECT * FROM review_schedules WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("schedule item", id)
	}
	if err != nil {
		return nil, errs.Transient("schedules.get", err)
	}
	return &item, nil
}

// Create inserts a new schedule row
func (r *ScheduleRepository) Create(ctx context.Context, item *models.ReviewScheduleItem) error {
	if r.db.DriverName() == "sqlite3" {
		res, err := r.db.ExecContext(ctx, `
			INSERT INTO review_schedules (
				user_id, problem_id, problem_set_id, current_level, status,
				scheduled_at, next_scheduled_at, retention_rate,
				consecutive_successes, completion_count, difficulty_score, last_reviewed_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			item.UserID, item.ProblemID, item.ProblemSetID, item.CurrentLevel, item.Status,
			item.ScheduledAt, item.NextScheduledAt, item.RetentionRate,
			item.ConsecutiveSuccesses, item.CompletionCount, item.DifficultyScore, item.LastReviewedAt)
		if err != nil {
			return errs.Transient("schedules.create", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return errs.Transient("schedules.create", err)
		}
		item.ID = id
		return nil
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO review_schedules (
			user_id, problem_id, problem_set_id, current_level, status,
			scheduled_at, next_scheduled_at, retention_rate,
			consecutive_successes, completion_count, difficulty_score, last_reviewed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		item.UserID, item.ProblemID, item.ProblemSetID, item.CurrentLevel, item.Status,
		item.ScheduledAt, item.NextScheduledAt, item.RetentionRate,
		item.ConsecutiveSuccesses, item.CompletionCount, item.DifficultyScore, item.LastReviewedAt).Scan(&item.ID)
	if err != nil {
		return errs.Transient("schedules.create", err)
	}
	return nil
}

// Update modifies an existing schedule row
func (r *ScheduleRepository) Update(ctx context.Context, item *models.ReviewScheduleItem) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE review_schedules SET
			current_level = $1,
			status = $2,
			scheduled_at = $3,
			next_scheduled_at = $4,
			retention_rate = $5,
			consecutive_successes = $6,
			completion_count = $7,
			difficulty_score = $8,
			last_reviewed_at = $9,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $10`,
		item.CurrentLevel, item.Status, item.ScheduledAt, item.NextScheduledAt,
		item.RetentionRate, item.ConsecutiveSuccesses, item.CompletionCount,
		item.DifficultyScore, item.LastReviewedAt, item.ID)
	if err != nil {
		return errs.Transient("schedules.update", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.NotFound("schedule item", item.ID)
	}
	return nil
}

// GetDueForUser returns SCHEDULED items for the user due at or before the horizon
func (r *ScheduleRepository) GetDueForUser(ctx context.Context, userID int64, horizon time.Time) ([]models.ReviewScheduleItem, error) {
	var items []models.ReviewScheduleItem
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM review_schedules
		WHERE user_id = $1 AND status = $2 AND next_scheduled_at <= $3
		ORDER BY next_scheduled_at ASC`,
		userID, models.StatusScheduled, horizon)
	if err != nil {
		return nil, errs.Transient("schedules.due_for_user", err)
	}
	return items, nil
}

// GetOverdue returns globally overdue SCHEDULED items, most overdue first,
// bounded by limit
func (r *ScheduleRepository) GetOverdue(ctx context.Context, now time.Time, limit int) ([]models.ReviewScheduleItem, error) {
	var items []models.ReviewScheduleItem
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM review_schedules
		WHERE status = $1 AND next_scheduled_at < $2
		ORDER BY next_scheduled_at ASC
		LIMIT $3`,
		models.StatusScheduled, now, limit)
	if err != nil {
		return nil, errs.Transient("schedules.overdue", err)
	}
	return items, nil
}
