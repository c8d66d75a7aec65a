package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// FeedbackType is the learner's verdict on a problem's difficulty
type FeedbackType string

const (
	FeedbackRetry     FeedbackType = "RETRY"
	FeedbackTooHard   FeedbackType = "TOO_HARD"
	FeedbackJustRight FeedbackType = "JUST_RIGHT"
	FeedbackTooEasy   FeedbackType = "TOO_EASY"
)

// Valid reports whether the feedback type is one of the recognized values.
func (f FeedbackType) Valid() bool {
	switch f {
	case FeedbackRetry, FeedbackTooHard, FeedbackJustRight, FeedbackTooEasy:
		return true
	}
	return false
}

// Negative reports whether the feedback indicates the problem was too hard.
func (f FeedbackType) Negative() bool {
	return f == FeedbackRetry || f == FeedbackTooHard
}

// Signal maps the feedback to its numeric difficulty signal:
// RETRY -2, TOO_HARD -1, JUST_RIGHT 0, TOO_EASY +1.
func (f FeedbackType) Signal() float64 {
	switch f {
	case FeedbackRetry:
		return -2
	case FeedbackTooHard:
		return -1
	case FeedbackTooEasy:
		return 1
	default:
		return 0
	}
}

// PerformanceRing is a bounded buffer of recent outcome values, newest last.
// Stored as a JSON text column.
type PerformanceRing []float64

// Value implements driver.Valuer
func (p PerformanceRing) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (p *PerformanceRing) Scan(src interface{}) error {
	if src == nil {
		*p = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported type for performance ring: %T", src)
	}
}

// Push appends a value, dropping the oldest once the buffer holds limit entries
func (p PerformanceRing) Push(v float64, limit int) PerformanceRing {
	out := append(p, v)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// PersonalizedDifficultyProfile describes one user's preferred challenge
// level and how quickly their ideal difficulty adapts to feedback.
type PersonalizedDifficultyProfile struct {
	ID                     int64           `json:"id" db:"id"`
	UserID                 int64           `json:"user_id" db:"user_id"`
	IdealDifficulty        float64         `json:"ideal_difficulty" db:"ideal_difficulty"` // clamped [1, 10]
	PreferredMinDifficulty float64         `json:"preferred_min_difficulty" db:"preferred_min_difficulty"`
	PreferredMaxDifficulty float64         `json:"preferred_max_difficulty" db:"preferred_max_difficulty"`
	LearningPace           float64         `json:"learning_pace" db:"learning_pace"`
	ChallengePreference    float64         `json:"challenge_preference" db:"challenge_preference"`
	FrustrationTolerance   float64         `json:"frustration_tolerance" db:"frustration_tolerance"` // clamped [0, 1]
	AdaptationRate         float64         `json:"adaptation_rate" db:"adaptation_rate"`
	StabilityFactor        float64         `json:"stability_factor" db:"stability_factor"`
	RecentPerformance      PerformanceRing `json:"recent_performance" db:"recent_performance"`
	CreatedAt              time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at" db:"updated_at"`
}

// DefaultDifficultyProfile returns the profile used before any feedback exists
func DefaultDifficultyProfile(userID int64) *PersonalizedDifficultyProfile {
	return &PersonalizedDifficultyProfile{
		UserID:                 userID,
		IdealDifficulty:        5.0,
		PreferredMinDifficulty: 3.0,
		PreferredMaxDifficulty: 7.0,
		LearningPace:           1.0,
		ChallengePreference:    0.5,
		FrustrationTolerance:   0.5,
		AdaptationRate:         0.3,
		StabilityFactor:        0.8,
	}
}

// ProblemDifficultyFeedback is an immutable record of one difficulty verdict
type ProblemDifficultyFeedback struct {
	ID           string          `json:"id" db:"id"`
	UserID       int64           `json:"user_id" db:"user_id"`
	ProblemID    int64           `json:"problem_id" db:"problem_id"`
	Feedback     FeedbackType    `json:"feedback" db:"feedback"`
	ResponseTime sql.NullFloat64 `json:"response_time" db:"response_time"` // seconds
	IsCorrect    sql.NullBool    `json:"is_correct" db:"is_correct"`
	TimeOfDay    int             `json:"time_of_day" db:"time_of_day"` // hour 0-23
	SessionID    sql.NullString  `json:"session_id" db:"session_id"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// DynamicDifficultyAdjustment is an immutable audit record of an applied
// change to a problem's stored difficulty
type DynamicDifficultyAdjustment struct {
	ID                 string         `json:"id" db:"id"`
	ProblemID          int64          `json:"problem_id" db:"problem_id"`
	OriginalDifficulty float64        `json:"original_difficulty" db:"original_difficulty"`
	AdjustedDifficulty float64        `json:"adjusted_difficulty" db:"adjusted_difficulty"`
	Reason             string         `json:"reason" db:"reason"`
	TriggerUserID      sql.NullInt64  `json:"trigger_user_id" db:"trigger_user_id"`
	Automatic          bool           `json:"automatic" db:"automatic"`
	FeedbackSummary    sql.NullString `json:"feedback_summary" db:"feedback_summary"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
}
