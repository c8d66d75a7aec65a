package models

import (
	"database/sql"
	"time"
)

// ReviewLevel is the spaced-repetition stage of an item, from Level1 (just
// learned, 20 minute interval) up to Level8 (30 day interval).
type ReviewLevel int

const (
	Level1 ReviewLevel = iota + 1
	Level2
	Level3
	Level4
	Level5
	Level6
	Level7
	Level8
)

// Valid reports whether the level is inside the supported ladder.
func (l ReviewLevel) Valid() bool {
	return l >= Level1 && l <= Level8
}

// ReviewStatus is the lifecycle state of a schedule row
type ReviewStatus string

const (
	StatusScheduled  ReviewStatus = "SCHEDULED"
	StatusInProgress ReviewStatus = "IN_PROGRESS"
	StatusCompleted  ReviewStatus = "COMPLETED"
)

// ReviewScheduleItem models one pending or completed repetition of one
// learning item for one user
type ReviewScheduleItem struct {
	ID                   int64         `json:"id" db:"id"`
	UserID               int64         `json:"user_id" db:"user_id"`
	ProblemID            sql.NullInt64 `json:"problem_id" db:"problem_id"`
	ProblemSetID         sql.NullInt64 `json:"problem_set_id" db:"problem_set_id"`
	CurrentLevel         ReviewLevel   `json:"current_level" db:"current_level"`
	Status               ReviewStatus  `json:"status" db:"status"`
	ScheduledAt          time.Time     `json:"scheduled_at" db:"scheduled_at"`
	NextScheduledAt      time.Time     `json:"next_scheduled_at" db:"next_scheduled_at"`
	RetentionRate        float64       `json:"retention_rate" db:"retention_rate"`
	ConsecutiveSuccesses int           `json:"consecutive_successes" db:"consecutive_successes"`
	CompletionCount      int           `json:"completion_count" db:"completion_count"`
	DifficultyScore      float64       `json:"difficulty_score" db:"difficulty_score"`
	LastReviewedAt       sql.NullTime  `json:"last_reviewed_at" db:"last_reviewed_at"`
	CreatedAt            time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at" db:"updated_at"`
}

// ReviewItem is one entry of a generated, time-packed review queue
type ReviewItem struct {
	ScheduleID    int64       `json:"schedule_id"`
	ProblemID     int64       `json:"problem_id"`
	Level         ReviewLevel `json:"level"`
	PriorityScore float64     `json:"priority_score"`
	Difficulty    float64     `json:"difficulty"`
	RetentionRate float64     `json:"retention_rate"`
	ScheduledFor  time.Time   `json:"scheduled_for"`
}
