// Package service is the engine's external surface. It composes the
// predictor, the scheduler and the cache behind a flat API so callers never
// touch the individual components.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/example/reviewcore/internal/cache"
	"github.com/example/reviewcore/internal/difficulty"
	"github.com/example/reviewcore/internal/logger"
	"github.com/example/reviewcore/internal/scheduling"
	"github.com/example/reviewcore/pkg/models"
)

// SchedulePlanner generates queues and records completions
type SchedulePlanner interface {
	Generate(ctx context.Context, userID int64, opts scheduling.Options) ([]models.ReviewItem, error)
	CompleteReview(ctx context.Context, scheduleID int64, success bool, responseTime *float64) error
}

// DifficultyAdvisor predicts and adjusts problem difficulty
type DifficultyAdvisor interface {
	Predict(ctx context.Context, userID, problemID int64, currentDifficulty float64, responseTime *float64, isCorrect *bool) (*difficulty.Prediction, error)
	SubmitFeedback(ctx context.Context, userID, problemID int64, feedback models.FeedbackType, responseTime *float64, isCorrect *bool, sessionID string) (string, error)
	AdjustDifficulty(ctx context.Context, problemID int64, delta float64, triggerUserID *int64, reason string) (string, error)
}

// ScheduleReader resolves schedule rows to their owners
type ScheduleReader interface {
	GetByID(ctx context.Context, id int64) (*models.ReviewScheduleItem, error)
}

// UserTracker records user activity timestamps
type UserTracker interface {
	TouchActive(ctx context.Context, id int64, at time.Time) error
}

// ResultCache is the cache surface the service reads and invalidates
type ResultCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
}

// Service is the composed review engine
type Service struct {
	planner   SchedulePlanner
	advisor   DifficultyAdvisor
	schedules ScheduleReader
	users     UserTracker
	cache     ResultCache
	log       *logger.Logger

	// ScheduleTTL is the lifetime of cached queues
	ScheduleTTL time.Duration
	// PredictionTTL is the lifetime of memoized predictions
	PredictionTTL time.Duration

	now func() time.Time
}

// New composes the engine's external surface
func New(planner SchedulePlanner, advisor DifficultyAdvisor, schedules ScheduleReader, users UserTracker, results ResultCache, log *logger.Logger) *Service {
	return &Service{
		planner:       planner,
		advisor:       advisor,
		schedules:     schedules,
		users:         users,
		cache:         results,
		log:           log,
		ScheduleTTL:   6 * time.Hour,
		PredictionTTL: time.Hour,
		now:           time.Now,
	}
}

// GeneratePersonalizedSchedule builds the user's ranked review queue and
// caches it for the orchestrator's freshness checks.
func (s *Service) GeneratePersonalizedSchedule(ctx context.Context, userID int64, opts scheduling.Options) ([]models.ReviewItem, error) {
	items, err := s.planner.Generate(ctx, userID, opts)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, cache.ScheduleKey(userID), items, s.ScheduleTTL); err != nil {
		s.log.Warn("failed to cache schedule", "user_id", userID, "error", err)
	}
	s.touch(ctx, userID)
	return items, nil
}

// CompleteReview records one finished review and invalidates the owner's
// cached queue, which no longer reflects the store.
func (s *Service) CompleteReview(ctx context.Context, scheduleID int64, success bool, responseTime *float64) error {
	item, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return err
	}
	if err := s.planner.CompleteReview(ctx, scheduleID, success, responseTime); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, cache.ScheduleKey(item.UserID)); err != nil {
		s.log.Warn("failed to invalidate cached schedule", "user_id", item.UserID, "error", err)
	}
	s.touch(ctx, item.UserID)
	return nil
}

// PredictDifficulty returns the per-user difficulty prediction for one
// problem. Calls without per-attempt signals are memoized; a response time
// or correctness flag always forces a fresh computation.
func (s *Service) PredictDifficulty(ctx context.Context, userID, problemID int64, currentDifficulty float64, responseTime *float64, isCorrect *bool) (*difficulty.Prediction, error) {
	memoizable := responseTime == nil && isCorrect == nil
	key := cache.PredictionKey(userID, problemID)

	if memoizable {
		var cached difficulty.Prediction
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.log.Warn("prediction cache read failed", "key", key, "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	prediction, err := s.advisor.Predict(ctx, userID, problemID, currentDifficulty, responseTime, isCorrect)
	if err != nil {
		return nil, err
	}
	if memoizable {
		if err := s.cache.SetJSON(ctx, key, prediction, s.PredictionTTL); err != nil {
			s.log.Warn("prediction cache write failed", "key", key, "error", err)
		}
	}
	return prediction, nil
}

// SubmitFeedback records one feedback event and drops the now-stale
// memoized prediction for the pair.
func (s *Service) SubmitFeedback(ctx context.Context, userID, problemID int64, feedback models.FeedbackType, responseTime *float64, isCorrect *bool, sessionID string) (string, error) {
	id, err := s.advisor.SubmitFeedback(ctx, userID, problemID, feedback, responseTime, isCorrect, sessionID)
	if err != nil {
		return "", err
	}
	if err := s.cache.Delete(ctx, cache.PredictionKey(userID, problemID)); err != nil {
		s.log.Warn("failed to invalidate prediction", "user_id", userID, "problem_id", problemID, "error", err)
	}
	s.touch(ctx, userID)
	return id, nil
}

// AdjustDifficulty applies a manual difficulty change and drops every
// user's memoized prediction for the problem.
func (s *Service) AdjustDifficulty(ctx context.Context, problemID int64, delta float64, triggerUserID *int64, reason string) (string, error) {
	id, err := s.advisor.AdjustDifficulty(ctx, problemID, delta, triggerUserID, reason)
	if err != nil {
		return "", err
	}
	pattern := fmt.Sprintf("%spredict:*:%d", cache.Prefix, problemID)
	if _, err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.log.Warn("failed to invalidate predictions", "problem_id", problemID, "error", err)
	}
	return id, nil
}

func (s *Service) touch(ctx context.Context, userID int64) {
	if s.users == nil {
		return
	}
	if err := s.users.TouchActive(ctx, userID, s.now()); err != nil {
		s.log.Warn("failed to record user activity", "user_id", userID, "error", err)
	}
}
