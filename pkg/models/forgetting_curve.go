package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SubjectAdjustments holds optional per-subject retention multipliers.
// Stored as a JSON text column.
type SubjectAdjustments map[string]float64

// Value implements driver.Valuer
func (s SubjectAdjustments) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (s *SubjectAdjustments) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported type for subject adjustments: %T", src)
	}
}

// ForgettingCurveProfile tracks how quickly one user forgets relative to the
// base Ebbinghaus curve. Created lazily on first review and tuned after every
// completed review.
type ForgettingCurveProfile struct {
	ID                    int64              `json:"id" db:"id"`
	UserID                int64              `json:"user_id" db:"user_id"`
	MemoryRetentionFactor float64            `json:"memory_retention_factor" db:"memory_retention_factor"` // clamped [0.1, 2.0]
	DifficultyAdjustment  float64            `json:"difficulty_adjustment" db:"difficulty_adjustment"`
	SuccessRate           float64            `json:"success_rate" db:"success_rate"` // exponential moving average
	TotalReviews          int                `json:"total_reviews" db:"total_reviews"`
	SubjectAdjustments    SubjectAdjustments `json:"subject_adjustments" db:"subject_adjustments"`
	CreatedAt             time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at" db:"updated_at"`
}

// DefaultForgettingCurveProfile returns the profile used for a user's first review
func DefaultForgettingCurveProfile(userID int64) *ForgettingCurveProfile {
	return &ForgettingCurveProfile{
		UserID:                userID,
		MemoryRetentionFactor: 1.0,
		DifficultyAdjustment:  0,
		SuccessRate:           0.5,
		TotalReviews:          0,
	}
}
