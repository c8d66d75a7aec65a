package difficulty

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/reviewcore/internal/errs"
	"github.com/example/reviewcore/internal/scoring"
	"github.com/example/reviewcore/pkg/models"
	"github.com/google/uuid"
)

const (
	// autoAdjustMinFeedbacks and autoAdjustNegativeShare gate the automatic
	// difficulty drop: at least this many verdicts in the last 24h, with at
	// least this share of them negative.
	autoAdjustMinFeedbacks   = 5
	autoAdjustNegativeShare  = 0.8
	autoAdjustWindow         = 24 * time.Hour
	autoAdjustStep           = 0.5
	recentPerformanceEntries = 20
)

// idealDelta is the per-feedback-type nudge applied to the user's ideal
// difficulty, before scaling by the profile's adaptation rate
func idealDelta(f models.FeedbackType) float64 {
	switch f {
	case models.FeedbackRetry:
		return -0.3
	case models.FeedbackTooHard:
		return -0.2
	case models.FeedbackTooEasy:
		return 0.25
	default:
		return 0.05
	}
}

// SubmitFeedback appends one immutable feedback record, folds it into the
// user's difficulty profile, and fires the automatic difficulty adjustment
// when the problem's recent feedback is overwhelmingly negative.
func (p *Predictor) SubmitFeedback(ctx context.Context, userID, problemID int64, feedback models.FeedbackType, responseTime *float64, isCorrect *bool, sessionID string) (string, error) {
	if !feedback.Valid() {
		return "", errs.Validation("feedback", fmt.Sprintf("unknown feedback type %q", feedback))
	}

	problem, err := p.problems.GetByID(ctx, problemID)
	if err != nil {
		return "", err
	}

	now := time.Now()
	record := &models.ProblemDifficultyFeedback{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProblemID: problemID,
		Feedback:  feedback,
		TimeOfDay: now.Hour(),
		CreatedAt: now,
	}
	if responseTime != nil {
		record.ResponseTime = sql.NullFloat64{Float64: *responseTime, Valid: true}
	}
	if isCorrect != nil {
		record.IsCorrect = sql.NullBool{Bool: *isCorrect, Valid: true}
	}
	if sessionID != "" {
		record.SessionID = sql.NullString{String: sessionID, Valid: true}
	}
	if err := p.feedback.Create(ctx, record); err != nil {
		return "", err
	}

	if err := p.applyToProfile(ctx, userID, feedback, isCorrect); err != nil {
		return "", err
	}

	if err := p.maybeAutoAdjust(ctx, problem, userID, now); err != nil {
		// The feedback itself is already durable; an adjustment failure must
		// not surface as a feedback failure.
		p.log.Error("automatic difficulty adjustment failed",
			"problem_id", problemID, "error", err)
	}

	return record.ID, nil
}

// applyToProfile folds one verdict into the user's difficulty profile
func (p *Predictor) applyToProfile(ctx context.Context, userID int64, feedback models.FeedbackType, isCorrect *bool) error {
	profile, err := p.profiles.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}

	profile.IdealDifficulty = scoring.Clamp(
		profile.IdealDifficulty+idealDelta(feedback)*profile.AdaptationRate, 1, 10)

	tolerance := profile.FrustrationTolerance
	if feedback.Negative() {
		tolerance -= 0.01
	} else {
		tolerance += 0.01
	}
	profile.FrustrationTolerance = scoring.Clamp(tolerance, 0, 1)

	outcome := 1.0
	if isCorrect != nil {
		if !*isCorrect {
			outcome = 0
		}
	} else if feedback.Negative() {
		outcome = 0
	}
	profile.RecentPerformance = profile.RecentPerformance.Push(outcome, recentPerformanceEntries)

	return p.profiles.Update(ctx, profile)
}

// maybeAutoAdjust lowers the problem's stored difficulty when the last-24h
// verdicts are loaded against it. At most one automatic adjustment fires per
// problem per 24h.
func (p *Predictor) maybeAutoAdjust(ctx context.Context, problem *models.Problem, triggerUserID int64, now time.Time) error {
	window, err := p.feedback.GetByProblemSince(ctx, problem.ID, now.Add(-autoAdjustWindow))
	if err != nil {
		return err
	}
	if len(window) < autoAdjustMinFeedbacks {
		return nil
	}

	negative := 0
	for _, e := range window {
		if e.Feedback.Negative() {
			negative++
		}
	}
	if float64(negative)/float64(len(window)) < autoAdjustNegativeShare {
		return nil
	}

	lastAt, exists, err := p.adjusts.LastAutomaticAt(ctx, problem.ID)
	if err != nil {
		return err
	}
	if exists && now.Sub(lastAt) < autoAdjustWindow {
		return nil
	}

	adjusted := problem.Difficulty - autoAdjustStep
	if adjusted < 1 {
		adjusted = 1
	}

	record := &models.DynamicDifficultyAdjustment{
		ID:                 uuid.NewString(),
		ProblemID:          problem.ID,
		OriginalDifficulty: problem.Difficulty,
		AdjustedDifficulty: adjusted,
		Reason:             "sustained negative feedback",
		TriggerUserID:      sql.NullInt64{Int64: triggerUserID, Valid: true},
		Automatic:          true,
		FeedbackSummary: sql.NullString{
			String: fmt.Sprintf("%d/%d negative in 24h", negative, len(window)),
			Valid:  true,
		},
		CreatedAt: now,
	}
	if err := p.adjusts.Create(ctx, record); err != nil {
		return err
	}
	if err := p.problems.UpdateDifficulty(ctx, problem.ID, adjusted, now); err != nil {
		return err
	}
	problem.Difficulty = adjusted

	p.log.Info("automatic difficulty adjustment applied",
		"problem_id", problem.ID,
		"original", record.OriginalDifficulty,
		"adjusted", adjusted)
	return nil
}

// AdjustDifficulty applies an explicit signed difficulty delta to a problem
// and records the audit trail. Beyond problem existence nothing is validated.
func (p *Predictor) AdjustDifficulty(ctx context.Context, problemID int64, delta float64, triggerUserID *int64, reason string) (string, error) {
	problem, err := p.problems.GetByID(ctx, problemID)
	if err != nil {
		return "", err
	}

	now := time.Now()
	adjusted := scoring.Clamp(problem.Difficulty+delta, 1, 10)

	record := &models.DynamicDifficultyAdjustment{
		ID:                 uuid.NewString(),
		ProblemID:          problemID,
		OriginalDifficulty: problem.Difficulty,
		AdjustedDifficulty: adjusted,
		Reason:             reason,
		Automatic:          false,
		CreatedAt:          now,
	}
	if triggerUserID != nil {
		record.TriggerUserID = sql.NullInt64{Int64: *triggerUserID, Valid: true}
	}
	if err := p.adjusts.Create(ctx, record); err != nil {
		return "", err
	}
	if err := p.problems.UpdateDifficulty(ctx, problemID, adjusted, now); err != nil {
		return "", err
	}
	return record.ID, nil
}
