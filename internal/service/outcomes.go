package service

import (
	"context"
	"time"

	"github.com/example/reviewcore/internal/forgetting"
	"github.com/example/reviewcore/pkg/models"
)

// FeedbackLog is the feedback history access the outcome adapter needs
type FeedbackLog interface {
	GetByUserSince(ctx context.Context, userID int64, cutoff time.Time) ([]models.ProblemDifficultyFeedback, error)
}

// OutcomeSource adapts the feedback log into the review outcomes the
// scheduler's profile tuning consumes.
type OutcomeSource struct {
	feedback FeedbackLog
	// Window bounds how far back outcomes are pulled
	Window time.Duration

	now func() time.Time
}

// NewOutcomeSource builds an adapter over the feedback log
func NewOutcomeSource(feedback FeedbackLog) *OutcomeSource {
	return &OutcomeSource{
		feedback: feedback,
		Window:   30 * 24 * time.Hour,
		now:      time.Now,
	}
}

// RecentOutcomes returns the user's newest feedback events, newest last,
// mapped to review outcomes. An explicit correctness flag wins; without one
// a non-negative feedback type counts as success.
func (s *OutcomeSource) RecentOutcomes(ctx context.Context, userID int64, limit int) ([]forgetting.Outcome, error) {
	events, err := s.feedback.GetByUserSince(ctx, userID, s.now().Add(-s.Window))
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}

	out := make([]forgetting.Outcome, 0, len(events))
	for _, e := range events {
		o := forgetting.Outcome{}
		if e.IsCorrect.Valid {
			o.Success = e.IsCorrect.Bool
		} else {
			o.Success = !e.Feedback.Negative()
		}
		if e.ResponseTime.Valid {
			o.ResponseTime = e.ResponseTime.Float64
		}
		out = append(out, o)
	}
	return out, nil
}
