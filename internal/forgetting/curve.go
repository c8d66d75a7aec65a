// Package forgetting implements the Ebbinghaus forgetting-curve state
// machine: given a review outcome it decides the item's next level, next due
// time and retention estimate. Everything here is pure and CPU-only.
package forgetting

import (
	"time"

	"github.com/example/reviewcore/internal/errs"
	"github.com/example/reviewcore/internal/scoring"
	"github.com/example/reviewcore/pkg/models"
)

// Action is the recommendation derived from the level transition
type Action string

const (
	ActionAdvance Action = "ADVANCE"
	ActionRepeat  Action = "REPEAT"
	ActionDemote  Action = "DEMOTE"
)

// Performance describes one completed review
type Performance struct {
	Success      bool
	ResponseTime float64 // seconds, <= 0 when unknown
	Confidence   int     // 1-5 self report, 0 when unknown
	Difficulty   float64 // problem difficulty 1-10, <= 0 when unknown
}

// Result is the calculator's verdict for one review
type Result struct {
	NextLevel     models.ReviewLevel
	Interval      time.Duration
	NextReviewAt  time.Time
	RetentionRate float64
	Action        Action
}

// Outcome is one entry of a recent review window used for profile tuning
type Outcome struct {
	Success      bool
	ResponseTime float64
	Confidence   int
}

// Calculator holds the curve's tunables. The defaults encode the classical
// Ebbinghaus decay ladder; everything on the struct is policy, not invariant.
type Calculator struct {
	// BaseIntervals are the per-level review intervals
	BaseIntervals [8]time.Duration
	// BaseRetentions are the per-level retention estimates at the due time
	BaseRetentions [8]float64

	SuccessMultiplier float64
	FailurePenalty    float64

	// MinIntervalScale and MaxIntervalScale clamp the combined multiplier
	// applied to a level's base interval
	MinIntervalScale float64
	MaxIntervalScale float64

	// RetentionCeiling caps the adjusted retention estimate
	RetentionCeiling float64

	// SuccessRateAlpha is the EMA weight of the newest outcome
	SuccessRateAlpha float64
}

// NewCalculator returns a calculator with the default curve
func NewCalculator() *Calculator {
	return &Calculator{
		BaseIntervals: [8]time.Duration{
			20 * time.Minute,
			time.Hour,
			8 * time.Hour,
			24 * time.Hour,
			3 * 24 * time.Hour,
			7 * 24 * time.Hour,
			14 * 24 * time.Hour,
			30 * 24 * time.Hour,
		},
		BaseRetentions:    [8]float64{0.58, 0.44, 0.36, 0.34, 0.28, 0.25, 0.21, 0.18},
		SuccessMultiplier: 1.2,
		FailurePenalty:    0.5,
		MinIntervalScale:  0.1,
		MaxIntervalScale:  2.0,
		RetentionCeiling:  0.95,
		SuccessRateAlpha:  0.1,
	}
}

// BaseInterval returns the base interval of a level
func (c *Calculator) BaseInterval(level models.ReviewLevel) time.Duration {
	return c.BaseIntervals[level-1]
}

// NextReview computes the next level, due time and retention estimate for an
// item reviewed at lastReviewAt with the given performance.
func (c *Calculator) NextReview(level models.ReviewLevel, perf Performance, profile *models.ForgettingCurveProfile, lastReviewAt time.Time) (Result, error) {
	if !level.Valid() {
		return Result{}, errs.Invariant("review level %d out of range", level)
	}

	nextLevel := c.nextLevel(level, perf)
	action := ActionRepeat
	switch {
	case nextLevel > level:
		action = ActionAdvance
	case nextLevel < level:
		action = ActionDemote
	}

	personal := scoring.Clamp(profile.MemoryRetentionFactor, 0.1, 2.0)
	performance := c.performanceFactor(perf, profile.SuccessRate)

	base := c.BaseIntervals[level-1]
	scale := scoring.Clamp(personal*performance, c.MinIntervalScale, c.MaxIntervalScale)
	interval := time.Duration(float64(base) * scale)
	if interval <= 0 {
		return Result{}, errs.Invariant("non-positive interval %v for level %d", interval, level)
	}

	outcomeScale := 0.8
	if perf.Success {
		outcomeScale = 1.2
	}
	retention := c.BaseRetentions[level-1] * personal * outcomeScale
	if retention > c.RetentionCeiling {
		retention = c.RetentionCeiling
	}

	return Result{
		NextLevel:     nextLevel,
		Interval:      interval,
		NextReviewAt:  lastReviewAt.Add(interval),
		RetentionRate: retention,
		Action:        action,
	}, nil
}

// nextLevel applies the transition rules: success advances (capped at the
// top), failure with low confidence demotes, any other failure repeats.
func (c *Calculator) nextLevel(level models.ReviewLevel, perf Performance) models.ReviewLevel {
	if perf.Success {
		if level < models.Level8 {
			return level + 1
		}
		return level
	}
	if perf.Confidence > 0 && perf.Confidence <= 2 && level > models.Level1 {
		return level - 1
	}
	return level
}

// performanceFactor is a product of independent multipliers; each branch is a
// policy decision
func (c *Calculator) performanceFactor(perf Performance, successRate float64) float64 {
	factor := c.FailurePenalty
	if perf.Success {
		factor = c.SuccessMultiplier
	}

	if perf.ResponseTime > 0 {
		switch {
		case perf.ResponseTime <= 3:
			factor *= 1.3
		case perf.ResponseTime <= 10:
			factor *= 1.1
		case perf.ResponseTime <= 30:
			factor *= 1.0
		case perf.ResponseTime <= 60:
			factor *= 0.9
		default:
			factor *= 0.8
		}
	}

	if perf.Confidence >= 1 && perf.Confidence <= 5 {
		factor *= 0.8 + float64(perf.Confidence-1)*0.1
	}

	if perf.Difficulty > 0 {
		d := scoring.Clamp(perf.Difficulty, 1, 10)
		factor *= 0.7 + (11-d)*0.03
	}

	factor *= 0.8 + scoring.Clamp(successRate, 0, 1)*0.4

	return factor
}

// RecordOutcome folds one review outcome into the profile's moving success
// rate and review counter.
func (c *Calculator) RecordOutcome(profile *models.ForgettingCurveProfile, success bool) {
	x := 0.0
	if success {
		x = 1.0
	}
	if profile.TotalReviews == 0 {
		profile.SuccessRate = x
	} else {
		profile.SuccessRate = profile.SuccessRate*(1-c.SuccessRateAlpha) + x*c.SuccessRateAlpha
	}
	profile.TotalReviews++
}

// TuneProfile nudges the personal retention factor from a recent window of
// outcomes: strong recall stretches intervals, weak recall shrinks them, and
// the response-time/confidence pattern applies a smaller second-order nudge.
func (c *Calculator) TuneProfile(profile *models.ForgettingCurveProfile, recent []Outcome) {
	if len(recent) == 0 {
		return
	}

	successes := 0
	timed := 0
	var totalTime float64
	rated := 0
	var totalConfidence float64
	for _, o := range recent {
		if o.Success {
			successes++
		}
		if o.ResponseTime > 0 {
			timed++
			totalTime += o.ResponseTime
		}
		if o.Confidence > 0 {
			rated++
			totalConfidence += float64(o.Confidence)
		}
	}

	factor := profile.MemoryRetentionFactor
	rate := float64(successes) / float64(len(recent))
	if rate > 0.8 {
		factor *= 1.05
		if factor > 1.5 {
			factor = 1.5
		}
	} else if rate < 0.6 {
		factor *= 0.95
		if factor < 0.5 {
			factor = 0.5
		}
	}

	if timed > 0 && rated > 0 {
		avgTime := totalTime / float64(timed)
		avgConfidence := totalConfidence / float64(rated)
		if avgTime <= 10 && avgConfidence >= 4 {
			factor *= 1.02
		} else if avgTime > 30 && avgConfidence <= 2 {
			factor *= 0.98
		}
	}

	profile.MemoryRetentionFactor = scoring.Clamp(factor, 0.1, 2.0)
}

// ReviewPriority is a monotone urgency score used as a tie-break input by the
// priority scheduler.
func (c *Calculator) ReviewPriority(item *models.ReviewScheduleItem, profile *models.ForgettingCurveProfile, now time.Time) float64 {
	overdueHours := now.Sub(item.NextScheduledAt).Hours()
	if overdueHours < 0 {
		overdueHours = 0
	}

	daysSince := 0.0
	if item.LastReviewedAt.Valid {
		daysSince = now.Sub(item.LastReviewedAt.Time).Hours() / 24
		if daysSince < 0 {
			daysSince = 0
		}
	}

	return overdueHours*10 +
		item.DifficultyScore*5 +
		(1-scoring.Clamp(profile.SuccessRate, 0, 1))*20 +
		daysSince*2
}
