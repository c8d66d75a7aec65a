// Package difficulty predicts per-user problem difficulty by fusing a
// user's difficulty profile, problem feedback history, short-term personal
// pattern and the population-wide adjustment trend, and ingests the feedback
// stream that drives those signals.
package difficulty

import (
	"context"
	"time"

	"github.com/example/reviewcore/internal/logger"
	"github.com/example/reviewcore/internal/scoring"
	"github.com/example/reviewcore/pkg/models"
)

// PredictionAction recommends what to do with the problem's difficulty
type PredictionAction string

const (
	ActionMaintain    PredictionAction = "MAINTAIN"
	ActionIncrease    PredictionAction = "INCREASE"
	ActionDecrease    PredictionAction = "DECREASE"
	ActionPersonalize PredictionAction = "PERSONALIZE"
)

// Prediction is the predictor's output for one (user, problem) pair
type Prediction struct {
	PredictedDifficulty float64            `json:"predicted_difficulty"`
	Confidence          float64            `json:"confidence"`
	RecommendedAction   PredictionAction   `json:"recommended_action"`
	Factors             map[string]float64 `json:"factors"`
}

// ProblemStore is the problem access the predictor needs
type ProblemStore interface {
	GetByID(ctx context.Context, id int64) (*models.Problem, error)
	UpdateDifficulty(ctx context.Context, id int64, difficulty float64, at time.Time) error
}

// ProfileStore is the difficulty-profile access the predictor needs
type ProfileStore interface {
	GetOrCreate(ctx context.Context, userID int64) (*models.PersonalizedDifficultyProfile, error)
	Update(ctx context.Context, p *models.PersonalizedDifficultyProfile) error
}

// FeedbackStore is the feedback-log access the predictor needs
type FeedbackStore interface {
	Create(ctx context.Context, f *models.ProblemDifficultyFeedback) error
	GetByProblemSince(ctx context.Context, problemID int64, cutoff time.Time) ([]models.ProblemDifficultyFeedback, error)
	GetByUserSince(ctx context.Context, userID int64, cutoff time.Time) ([]models.ProblemDifficultyFeedback, error)
	CountByProblem(ctx context.Context, problemID int64) (int, error)
	AverageResponseTime(ctx context.Context, userID int64, cutoff time.Time) (float64, error)
}

// AdjustmentStore is the adjustment-audit access the predictor needs
type AdjustmentStore interface {
	Create(ctx context.Context, a *models.DynamicDifficultyAdjustment) error
	LastAutomaticAt(ctx context.Context, problemID int64) (time.Time, bool, error)
	TrendSince(ctx context.Context, problemID int64, cutoff time.Time) (float64, error)
}

// Predictor fuses the four difficulty signals. All numeric fields are policy
// defaults carried over from the tuned production values, not invariants.
type Predictor struct {
	problems ProblemStore
	profiles ProfileStore
	feedback FeedbackStore
	adjusts  AdjustmentStore
	log      *logger.Logger

	ProfileWeight  float64
	FeedbackWeight float64
	PatternWeight  float64
	GlobalWeight   float64

	// FeedbackWindow bounds the per-problem feedback aggregate
	FeedbackWindow time.Duration
	// PatternWindow bounds the frustration-level lookback
	PatternWindow time.Duration
	// RetryRateThreshold triggers the extra feedback-factor penalty
	RetryRateThreshold float64
	// FrustrationThreshold triggers the pattern-factor penalty
	FrustrationThreshold float64
	// FactorBound clamps each fused factor to [-FactorBound, FactorBound]
	FactorBound float64
}

// NewPredictor builds a predictor with the default fusion policy
func NewPredictor(problems ProblemStore, profiles ProfileStore, feedback FeedbackStore, adjusts AdjustmentStore, log *logger.Logger) *Predictor {
	return &Predictor{
		problems:             problems,
		profiles:             profiles,
		feedback:             feedback,
		adjusts:              adjusts,
		log:                  log,
		ProfileWeight:        0.4,
		FeedbackWeight:       0.3,
		PatternWeight:        0.2,
		GlobalWeight:         0.1,
		FeedbackWindow:       30 * 24 * time.Hour,
		PatternWindow:        7 * 24 * time.Hour,
		RetryRateThreshold:   0.3,
		FrustrationThreshold: 0.4,
		FactorBound:          2.0,
	}
}

// Predict returns the fused difficulty prediction for one user and problem.
// Missing history never fails: absent signals contribute zero.
func (p *Predictor) Predict(ctx context.Context, userID, problemID int64, currentDifficulty float64, responseTime *float64, isCorrect *bool) (*Prediction, error) {
	if _, err := p.problems.GetByID(ctx, problemID); err != nil {
		return nil, err
	}

	profile, err := p.profiles.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	profileFactor := (profile.IdealDifficulty - currentDifficulty) * profile.AdaptationRate * profile.StabilityFactor

	problemFeedback, err := p.feedback.GetByProblemSince(ctx, problemID, now.Add(-p.FeedbackWindow))
	if err != nil {
		return nil, err
	}
	feedbackFactor := p.feedbackFactor(problemFeedback)

	userFeedback, err := p.feedback.GetByUserSince(ctx, userID, now.Add(-p.FeedbackWindow))
	if err != nil {
		return nil, err
	}
	avgResponse, err := p.feedback.AverageResponseTime(ctx, userID, now.Add(-p.FeedbackWindow))
	if err != nil {
		return nil, err
	}
	patternFactor := p.patternFactor(userFeedback, avgResponse, responseTime, now)

	trend, err := p.adjusts.TrendSince(ctx, problemID, now.Add(-p.FeedbackWindow))
	if err != nil {
		return nil, err
	}
	globalFactor := trend * 0.1

	b := p.FactorBound
	factors := []scoring.Factor{
		{Name: "profile", Weight: p.ProfileWeight, Value: scoring.Clamp(profileFactor, -b, b)},
		{Name: "feedback", Weight: p.FeedbackWeight, Value: scoring.Clamp(feedbackFactor, -b, b)},
		{Name: "pattern", Weight: p.PatternWeight, Value: scoring.Clamp(patternFactor, -b, b)},
		{Name: "global_trend", Weight: p.GlobalWeight, Value: scoring.Clamp(globalFactor, -b, b)},
	}

	adjustment := scoring.Combine(factors)
	predicted := scoring.Clamp(currentDifficulty+adjustment, 1, 10)

	total, err := p.feedback.CountByProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}
	confidence := 0.5 + float64(total)*0.05
	if confidence > 0.95 {
		confidence = 0.95
	}

	return &Prediction{
		PredictedDifficulty: predicted,
		Confidence:          confidence,
		RecommendedAction:   recommendAction(adjustment),
		Factors:             scoring.Breakdown(factors),
	}, nil
}

func recommendAction(adjustment float64) PredictionAction {
	abs := adjustment
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs < 0.1:
		return ActionMaintain
	case adjustment > 1:
		return ActionIncrease
	case adjustment < -1:
		return ActionDecrease
	default:
		return ActionPersonalize
	}
}

// feedbackFactor averages the windowed per-problem verdicts and penalizes a
// high retry rate on top
func (p *Predictor) feedbackFactor(events []models.ProblemDifficultyFeedback) float64 {
	if len(events) == 0 {
		return 0
	}

	var sum float64
	retries := 0
	for _, e := range events {
		sum += e.Feedback.Signal()
		if e.Feedback == models.FeedbackRetry {
			retries++
		}
	}

	factor := sum / float64(len(events)) * 0.5

	retryRate := float64(retries) / float64(len(events))
	if retryRate > p.RetryRateThreshold {
		factor -= 0.5 * retryRate
	}
	return factor
}

// patternFactor looks at the user's short-term signal: the trend of the last
// five verdicts, the recent frustration level, and response speed relative
// to the personal average
func (p *Predictor) patternFactor(events []models.ProblemDifficultyFeedback, avgResponse float64, responseTime *float64, now time.Time) float64 {
	var factor float64

	if len(events) >= 2 {
		values := make([]float64, 0, 5)
		start := len(events) - 5
		if start < 0 {
			start = 0
		}
		for _, e := range events[start:] {
			values = append(values, e.Feedback.Signal())
		}
		factor += slope(values) * 0.3
	}

	cutoff := now.Add(-p.PatternWindow)
	recent := 0
	negative := 0
	for _, e := range events {
		if e.CreatedAt.Before(cutoff) {
			continue
		}
		recent++
		if e.Feedback.Negative() {
			negative++
		}
	}
	if recent > 0 {
		frustration := float64(negative) / float64(recent)
		if frustration > p.FrustrationThreshold {
			factor -= 0.3
		}
	}

	if responseTime != nil && avgResponse > 0 {
		switch {
		case *responseTime < avgResponse*0.7:
			factor += 0.2
		case *responseTime > avgResponse*1.3:
			factor -= 0.2
		}
	}

	return factor
}

// slope is the least-squares slope of values against their index
func slope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
