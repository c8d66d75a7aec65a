package scheduling

import (
	"context"
	"database/sql"

	"github.com/example/reviewcore/internal/errs"
	"github.com/example/reviewcore/internal/forgetting"
	"github.com/example/reviewcore/pkg/models"
)

// CompleteReview marks a schedule row COMPLETED, runs the forgetting-curve
// calculator and creates the row for the next repetition. The user's curve
// profile is updated and self-tuned on every completion.
func (s *Scheduler) CompleteReview(ctx context.Context, scheduleID int64, success bool, responseTime *float64) error {
	item, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return err
	}
	if item.Status != models.StatusScheduled && item.Status != models.StatusInProgress {
		return errs.NotFound("pending schedule item", scheduleID)
	}

	profile, err := s.curves.GetOrCreate(ctx, item.UserID)
	if err != nil {
		return err
	}

	now := s.now()
	perf := forgetting.Performance{
		Success:    success,
		Difficulty: item.DifficultyScore,
	}
	if responseTime != nil {
		perf.ResponseTime = *responseTime
	}

	result, err := s.calc.NextReview(item.CurrentLevel, perf, profile, now)
	if err != nil {
		return err
	}

	consecutive := 0
	if success {
		consecutive = item.ConsecutiveSuccesses + 1
	}

	item.Status = models.StatusCompleted
	item.CompletionCount++
	item.ConsecutiveSuccesses = consecutive
	item.LastReviewedAt = sql.NullTime{Time: now, Valid: true}
	if err := s.schedules.Update(ctx, item); err != nil {
		return err
	}

	next := &models.ReviewScheduleItem{
		UserID:               item.UserID,
		ProblemID:            item.ProblemID,
		ProblemSetID:         item.ProblemSetID,
		CurrentLevel:         result.NextLevel,
		Status:               models.StatusScheduled,
		ScheduledAt:          now,
		NextScheduledAt:      result.NextReviewAt,
		RetentionRate:        result.RetentionRate,
		ConsecutiveSuccesses: consecutive,
		CompletionCount:      item.CompletionCount,
		DifficultyScore:      item.DifficultyScore,
		LastReviewedAt:       sql.NullTime{Time: now, Valid: true},
	}
	if err := s.schedules.Create(ctx, next); err != nil {
		return err
	}

	s.calc.RecordOutcome(profile, success)
	if s.outcomes != nil {
		recent, err := s.outcomes.RecentOutcomes(ctx, item.UserID, s.TuneWindow)
		if err != nil {
			// Tuning is an optimization; the review itself is committed.
			s.log.Warn("skipping profile tuning", "user_id", item.UserID, "error", err)
		} else {
			s.calc.TuneProfile(profile, recent)
		}
	}
	if err := s.curves.Update(ctx, profile); err != nil {
		return err
	}

	s.log.Debug("review completed",
		"schedule_id", scheduleID,
		"user_id", item.UserID,
		"success", success,
		"next_level", result.NextLevel,
		"next_review_at", result.NextReviewAt)
	return nil
}
