package difficulty

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/example/reviewcore/internal/errs"
	"github.com/example/reviewcore/internal/logger"
	"github.com/example/reviewcore/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPredictor(store *fakeStore) *Predictor {
	return NewPredictor(store, store, store, fakeAdjusts{store}, logger.NewNop())
}

func seedProblem(store *fakeStore, id int64, difficulty float64) {
	store.problems[id] = &models.Problem{ID: id, Title: "p", Difficulty: difficulty}
}

func TestPredictUnknownProblem(t *testing.T) {
	store := newFakeStore()
	p := newTestPredictor(store)

	_, err := p.Predict(context.Background(), 1, 99, 5, nil, nil)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestPredictNoHistoryFallsBackToDefaults(t *testing.T) {
	store := newFakeStore()
	seedProblem(store, 10, 5)
	p := newTestPredictor(store)

	pred, err := p.Predict(context.Background(), 1, 10, 5, nil, nil)
	require.NoError(t, err)

	// Ideal difficulty defaults to 5, so every factor is zero.
	assert.Equal(t, 5.0, pred.PredictedDifficulty)
	assert.Equal(t, ActionMaintain, pred.RecommendedAction)
	assert.InDelta(t, 0.5, pred.Confidence, 1e-9)
	assert.Zero(t, pred.Factors["feedback"])
	assert.Zero(t, pred.Factors["pattern"])
	assert.Zero(t, pred.Factors["global_trend"])
}

func TestPredictProfilePullsTowardIdeal(t *testing.T) {
	store := newFakeStore()
	seedProblem(store, 10, 8)
	profile := models.DefaultDifficultyProfile(1)
	profile.IdealDifficulty = 4
	store.profiles[1] = profile
	p := newTestPredictor(store)

	pred, err := p.Predict(context.Background(), 1, 10, 8, nil, nil)
	require.NoError(t, err)

	// (4-8) x 0.3 x 0.8 = -0.96 profile factor, weighted 0.4.
	assert.InDelta(t, -0.96, pred.Factors["profile"], 1e-9)
	assert.Less(t, pred.PredictedDifficulty, 8.0)
	assert.Equal(t, ActionPersonalize, pred.RecommendedAction)
}

func TestPredictStaysInRange(t *testing.T) {
	store := newFakeStore()
	seedProblem(store, 10, 1)
	profile := models.DefaultDifficultyProfile(1)
	profile.IdealDifficulty = 1
	profile.AdaptationRate = 1
	profile.StabilityFactor = 1
	store.profiles[1] = profile
	p := newTestPredictor(store)

	now := time.Now()
	for i := 0; i < 10; i++ {
		store.feedback = append(store.feedback, models.ProblemDifficultyFeedback{
			UserID: 1, ProblemID: 10, Feedback: models.FeedbackRetry, CreatedAt: now,
		})
	}

	pred, err := p.Predict(context.Background(), 1, 10, 1, nil, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pred.PredictedDifficulty, 1.0)
	assert.LessOrEqual(t, pred.PredictedDifficulty, 10.0)
}

func TestPredictConfidenceGrowsWithFeedback(t *testing.T) {
	store := newFakeStore()
	seedProblem(store, 10, 5)
	p := newTestPredictor(store)

	now := time.Now()
	for i := 0; i < 4; i++ {
		store.feedback = append(store.feedback, models.ProblemDifficultyFeedback{
			UserID: 2, ProblemID: 10, Feedback: models.FeedbackJustRight, CreatedAt: now,
		})
	}
	pred, err := p.Predict(context.Background(), 1, 10, 5, nil, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, pred.Confidence, 1e-9)

	for i := 0; i < 50; i++ {
		store.feedback = append(store.feedback, models.ProblemDifficultyFeedback{
			UserID: 2, ProblemID: 10, Feedback: models.FeedbackJustRight, CreatedAt: now,
		})
	}
	pred, err = p.Predict(context.Background(), 1, 10, 5, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.95, pred.Confidence, "confidence is capped")
}

func TestFeedbackFactor(t *testing.T) {
	p := newTestPredictor(newFakeStore())

	mk := func(types ...models.FeedbackType) []models.ProblemDifficultyFeedback {
		out := make([]models.ProblemDifficultyFeedback, len(types))
		for i, ft := range types {
			out[i] = models.ProblemDifficultyFeedback{Feedback: ft}
		}
		return out
	}

	assert.Zero(t, p.feedbackFactor(nil))

	// Average of {-1,-1,0,1} is -0.25, scaled by 0.5.
	f := p.feedbackFactor(mk(models.FeedbackTooHard, models.FeedbackTooHard,
		models.FeedbackJustRight, models.FeedbackTooEasy))
	assert.InDelta(t, -0.125, f, 1e-9)

	// Retry-heavy stream adds the retry penalty: avg -2 x 0.5 - 0.5 x 1.0.
	f = p.feedbackFactor(mk(models.FeedbackRetry, models.FeedbackRetry, models.FeedbackRetry))
	assert.InDelta(t, -1.5, f, 1e-9)
}

func TestPatternFactorSlopeAndFrustration(t *testing.T) {
	p := newTestPredictor(newFakeStore())
	now := time.Now()

	mk := func(age time.Duration, ft models.FeedbackType) models.ProblemDifficultyFeedback {
		return models.ProblemDifficultyFeedback{Feedback: ft, CreatedAt: now.Add(-age)}
	}

	// Improving trend: RETRY -> TOO_HARD -> JUST_RIGHT -> TOO_EASY, but the
	// recent window is 50% negative, above the frustration threshold.
	events := []models.ProblemDifficultyFeedback{
		mk(6*24*time.Hour, models.FeedbackRetry),
		mk(4*24*time.Hour, models.FeedbackTooHard),
		mk(2*24*time.Hour, models.FeedbackJustRight),
		mk(1*24*time.Hour, models.FeedbackTooEasy),
	}
	f := p.patternFactor(events, 0, nil, now)
	assert.InDelta(t, slope([]float64{-2, -1, 0, 1})*0.3-0.3, f, 1e-9)

	// Faster than the personal average earns the speed bonus.
	rt := 5.0
	f = p.patternFactor(nil, 10, &rt, now)
	assert.InDelta(t, 0.2, f, 1e-9)

	// Slower earns the penalty.
	rt = 20.0
	f = p.patternFactor(nil, 10, &rt, now)
	assert.InDelta(t, -0.2, f, 1e-9)
}

func TestSlope(t *testing.T) {
	assert.Zero(t, slope(nil))
	assert.Zero(t, slope([]float64{1}))
	assert.InDelta(t, 1.0, slope([]float64{0, 1, 2, 3}), 1e-9)
	assert.InDelta(t, -0.5, slope([]float64{1, 0.5, 0}), 1e-9)
}

func TestRecommendAction(t *testing.T) {
	assert.Equal(t, ActionMaintain, recommendAction(0.05))
	assert.Equal(t, ActionMaintain, recommendAction(-0.05))
	assert.Equal(t, ActionIncrease, recommendAction(1.2))
	assert.Equal(t, ActionDecrease, recommendAction(-1.2))
	assert.Equal(t, ActionPersonalize, recommendAction(0.5))
	assert.Equal(t, ActionPersonalize, recommendAction(-0.5))
}

func TestPredictUsesGlobalTrend(t *testing.T) {
	store := newFakeStore()
	seedProblem(store, 10, 5)
	store.adjusts = append(store.adjusts, models.DynamicDifficultyAdjustment{
		ProblemID:          10,
		OriginalDifficulty: 5,
		AdjustedDifficulty: 4,
		CreatedAt:          time.Now(),
		TriggerUserID:      sql.NullInt64{},
	})
	p := newTestPredictor(store)

	pred, err := p.Predict(context.Background(), 1, 10, 5, nil, nil)
	require.NoError(t, err)
	assert.InDelta(t, -0.1, pred.Factors["global_trend"], 1e-9)
}
