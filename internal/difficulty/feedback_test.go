package difficulty

import (
	"context"
	"testing"

	"github.com/example/reviewcore/internal/errs"
	"github.com/example/reviewcore/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitFeedbackValidation(t *testing.T) {
	store := newFakeStore()
	seedProblem(store, 10, 5)
	p := newTestPredictor(store)

	_, err := p.SubmitFeedback(context.Background(), 1, 10, "SHRUG", nil, nil, "")
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))

	_, err = p.SubmitFeedback(context.Background(), 1, 99, models.FeedbackRetry, nil, nil, "")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestSubmitFeedbackAppendsAndNudgesProfile(t *testing.T) {
	store := newFakeStore()
	seedProblem(store, 10, 5)
	p := newTestPredictor(store)

	rt := 12.5
	correct := true
	id, err := p.SubmitFeedback(context.Background(), 1, 10, models.FeedbackTooEasy, &rt, &correct, "sess-1")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Len(t, store.feedback, 1)
	rec := store.feedback[0]
	assert.Equal(t, models.FeedbackTooEasy, rec.Feedback)
	assert.Equal(t, 12.5, rec.ResponseTime.Float64)
	assert.True(t, rec.IsCorrect.Bool)
	assert.Equal(t, "sess-1", rec.SessionID.String)

	profile := store.profiles[1]
	require.NotNil(t, profile)
	assert.InDelta(t, 5.0+0.25*0.3, profile.IdealDifficulty, 1e-9)
	assert.InDelta(t, 0.51, profile.FrustrationTolerance, 1e-9)
	require.Len(t, profile.RecentPerformance, 1)
	assert.Equal(t, 1.0, profile.RecentPerformance[0])
}

func TestSubmitFeedbackNegativeNudgesDown(t *testing.T) {
	store := newFakeStore()
	seedProblem(store, 10, 5)
	p := newTestPredictor(store)

	_, err := p.SubmitFeedback(context.Background(), 1, 10, models.FeedbackRetry, nil, nil, "")
	require.NoError(t, err)

	profile := store.profiles[1]
	assert.InDelta(t, 5.0-0.3*0.3, profile.IdealDifficulty, 1e-9)
	assert.InDelta(t, 0.49, profile.FrustrationTolerance, 1e-9)
	require.Len(t, profile.RecentPerformance, 1)
	assert.Equal(t, 0.0, profile.RecentPerformance[0])
}

func TestRecentPerformanceBounded(t *testing.T) {
	store := newFakeStore()
	seedProblem(store, 10, 5)
	p := newTestPredictor(store)

	for i := 0; i < 30; i++ {
		_, err := p.SubmitFeedback(context.Background(), 1, 10, models.FeedbackJustRight, nil, nil, "")
		require.NoError(t, err)
	}
	assert.Len(t, store.profiles[1].RecentPerformance, recentPerformanceEntries)
}

func TestAutoAdjustmentFiresOncePer24h(t *testing.T) {
	store := newFakeStore()
	seedProblem(store, 10, 5)
	p := newTestPredictor(store)
	ctx := context.Background()

	// Four negatives are below the minimum window size: nothing fires.
	for i := 0; i < 3; i++ {
		_, err := p.SubmitFeedback(ctx, 1, 10, models.FeedbackTooHard, nil, nil, "")
		require.NoError(t, err)
	}
	_, err := p.SubmitFeedback(ctx, 1, 10, models.FeedbackRetry, nil, nil, "")
	require.NoError(t, err)
	assert.Empty(t, store.adjusts)
	assert.Equal(t, 5.0, store.problems[10].Difficulty)

	// The fifth negative verdict crosses the threshold (5/5 negative).
	_, err = p.SubmitFeedback(ctx, 1, 10, models.FeedbackTooHard, nil, nil, "")
	require.NoError(t, err)
	require.Len(t, store.adjusts, 1)
	adj := store.adjusts[0]
	assert.True(t, adj.Automatic)
	assert.Equal(t, 5.0, adj.OriginalDifficulty)
	assert.Equal(t, 4.5, adj.AdjustedDifficulty)
	assert.Equal(t, 4.5, store.problems[10].Difficulty)

	// A sixth negative inside the same 24h window is gated.
	_, err = p.SubmitFeedback(ctx, 1, 10, models.FeedbackRetry, nil, nil, "")
	require.NoError(t, err)
	assert.Len(t, store.adjusts, 1)
	assert.Equal(t, 4.5, store.problems[10].Difficulty)
}

func TestAutoAdjustmentNeedsNegativeMajority(t *testing.T) {
	store := newFakeStore()
	seedProblem(store, 10, 5)
	p := newTestPredictor(store)
	ctx := context.Background()

	// 3 negative of 5 is only 60%, below the 80% trigger.
	feedbacks := []models.FeedbackType{
		models.FeedbackTooHard, models.FeedbackRetry, models.FeedbackTooHard,
		models.FeedbackJustRight, models.FeedbackTooEasy,
	}
	for _, ft := range feedbacks {
		_, err := p.SubmitFeedback(ctx, 1, 10, ft, nil, nil, "")
		require.NoError(t, err)
	}
	assert.Empty(t, store.adjusts)
}

func TestAutoAdjustmentFloorsAtOne(t *testing.T) {
	store := newFakeStore()
	seedProblem(store, 10, 1.2)
	p := newTestPredictor(store)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := p.SubmitFeedback(ctx, 1, 10, models.FeedbackRetry, nil, nil, "")
		require.NoError(t, err)
	}
	require.Len(t, store.adjusts, 1)
	assert.Equal(t, 1.0, store.adjusts[0].AdjustedDifficulty)
}

func TestAdjustDifficulty(t *testing.T) {
	store := newFakeStore()
	seedProblem(store, 10, 5)
	p := newTestPredictor(store)

	trigger := int64(7)
	id, err := p.AdjustDifficulty(context.Background(), 10, 1.5, &trigger, "curator override")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Len(t, store.adjusts, 1)
	adj := store.adjusts[0]
	assert.False(t, adj.Automatic)
	assert.Equal(t, 5.0, adj.OriginalDifficulty)
	assert.Equal(t, 6.5, adj.AdjustedDifficulty)
	assert.Equal(t, "curator override", adj.Reason)
	assert.Equal(t, int64(7), adj.TriggerUserID.Int64)
	assert.Equal(t, 6.5, store.problems[10].Difficulty)

	_, err = p.AdjustDifficulty(context.Background(), 42, 1, nil, "")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}
