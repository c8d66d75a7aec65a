// Package scheduling ranks a user's due review items by composite priority
// and packs the top of the ranking into discrete slots inside a daily time
// window. Completing a review feeds the forgetting-curve calculator and
// creates the next repetition row, so the two always move together.
package scheduling

import (
	"context"
	"sort"
	"time"

	"github.com/example/reviewcore/internal/forgetting"
	"github.com/example/reviewcore/internal/logger"
	"github.com/example/reviewcore/internal/scoring"
	"github.com/example/reviewcore/pkg/models"
)

// ScheduleStore is the schedule-row access the scheduler needs
type ScheduleStore interface {
	GetByID(ctx context.Context, id int64) (*models.ReviewScheduleItem, error)
	Create(ctx context.Context, item *models.ReviewScheduleItem) error
	Update(ctx context.Context, item *models.ReviewScheduleItem) error
	GetDueForUser(ctx context.Context, userID int64, horizon time.Time) ([]models.ReviewScheduleItem, error)
}

// CurveProfileStore is the forgetting-curve profile access the scheduler needs
type CurveProfileStore interface {
	GetOrCreate(ctx context.Context, userID int64) (*models.ForgettingCurveProfile, error)
	Update(ctx context.Context, p *models.ForgettingCurveProfile) error
}

// OutcomeSource supplies a user's recent review outcomes for profile tuning.
// An empty window is fine; tuning is then skipped.
type OutcomeSource interface {
	RecentOutcomes(ctx context.Context, userID int64, limit int) ([]forgetting.Outcome, error)
}

// Scheduler generates personalized review queues
type Scheduler struct {
	schedules ScheduleStore
	curves    CurveProfileStore
	outcomes  OutcomeSource
	calc      *forgetting.Calculator
	log       *logger.Logger

	DefaultMaxItems int
	DefaultWeights  Weights
	DefaultWindow   TimeWindow

	// Horizon bounds how far ahead due items are pulled
	Horizon time.Duration
	// SlotSpacing is the normal gap between packed items
	SlotSpacing time.Duration
	// CompressedSpacing replaces SlotSpacing after re-anchoring to "now"
	CompressedSpacing time.Duration
	// TuneWindow is how many recent outcomes feed profile self-tuning
	TuneWindow int

	now func() time.Time
}

// NewScheduler builds a scheduler with the default packing policy
func NewScheduler(schedules ScheduleStore, curves CurveProfileStore, outcomes OutcomeSource, calc *forgetting.Calculator, log *logger.Logger, window TimeWindow) *Scheduler {
	return &Scheduler{
		schedules:         schedules,
		curves:            curves,
		outcomes:          outcomes,
		calc:              calc,
		log:               log,
		DefaultMaxItems:   20,
		DefaultWeights:    DefaultWeights(),
		DefaultWindow:     window,
		Horizon:           24 * time.Hour,
		SlotSpacing:       15 * time.Minute,
		CompressedSpacing: 5 * time.Minute,
		TuneWindow:        10,
		now:               time.Now,
	}
}

// Generate builds the ranked, time-packed review queue for one user
func (s *Scheduler) Generate(ctx context.Context, userID int64, opts Options) ([]models.ReviewItem, error) {
	cfg, err := s.resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	now := s.now()

	profile, err := s.curves.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	due, err := s.schedules.GetDueForUser(ctx, userID, now.Add(s.Horizon))
	if err != nil {
		return nil, err
	}

	type scored struct {
		item     models.ReviewScheduleItem
		priority float64
		tieBreak float64
	}
	ranked := make([]scored, 0, len(due))
	for i := range due {
		item := due[i]
		if !item.CurrentLevel.Valid() {
			// A corrupt row must not sink the whole queue.
			s.log.Error("skipping schedule item with invalid level",
				"schedule_id", item.ID, "level", item.CurrentLevel)
			continue
		}
		ranked = append(ranked, scored{
			item:     item,
			priority: s.priorityScore(&item, cfg.weights, now),
			tieBreak: s.calc.ReviewPriority(&item, profile, now),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].priority != ranked[j].priority {
			return ranked[i].priority > ranked[j].priority
		}
		return ranked[i].tieBreak > ranked[j].tieBreak
	})

	if len(ranked) > cfg.maxItems {
		ranked = ranked[:cfg.maxItems]
	}

	out := make([]models.ReviewItem, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, models.ReviewItem{
			ScheduleID:    r.item.ID,
			ProblemID:     r.item.ProblemID.Int64,
			Level:         r.item.CurrentLevel,
			PriorityScore: r.priority,
			Difficulty:    r.item.DifficultyScore,
			RetentionRate: r.item.RetentionRate,
		})
	}
	s.packSlots(out, now, cfg.window)

	return out, nil
}

// priorityScore fuses the five 0-100 sub-scores. Weights are renormalized by
// their sum, so callers only need them to sum to a positive number.
func (s *Scheduler) priorityScore(item *models.ReviewScheduleItem, w Weights, now time.Time) float64 {
	factors := []scoring.Factor{
		{Name: "retention", Weight: w.Retention, Value: (1 - scoring.Clamp(item.RetentionRate, 0, 1)) * 100},
		{Name: "difficulty", Weight: w.Difficulty, Value: scoring.Clamp(item.DifficultyScore, 0, 10) * 10},
		{Name: "overdue", Weight: w.Overdue, Value: overdueScore(item.NextScheduledAt, now)},
		{Name: "frequency", Weight: w.Frequency, Value: (1 - itemSuccessRate(item)) * 100},
		{Name: "recency", Weight: w.Recency, Value: recencyScore(item, now)},
	}
	return scoring.CombineNormalized(factors)
}

// overdueScore ramps from 0 (a day out) up to 10 at the due time, then grows
// 10 points per overdue hour, capped at 100. Continuous at the due boundary,
// so the score never drops as an item ages.
func overdueScore(dueAt, now time.Time) float64 {
	overdueHours := now.Sub(dueAt).Hours()
	if overdueHours >= 0 {
		return scoring.Clamp(10+overdueHours*10, 0, 100)
	}
	untilHours := -overdueHours
	return scoring.Clamp((24-untilHours)/24*10, 0, 10)
}

func itemSuccessRate(item *models.ReviewScheduleItem) float64 {
	if item.CompletionCount == 0 {
		return 0
	}
	return scoring.Clamp(float64(item.ConsecutiveSuccesses)/float64(item.CompletionCount), 0, 1)
}

func recencyScore(item *models.ReviewScheduleItem, now time.Time) float64 {
	since := item.CreatedAt
	if item.LastReviewedAt.Valid {
		since = item.LastReviewedAt.Time
	}
	days := now.Sub(since).Hours() / 24
	if days < 0 {
		days = 0
	}
	return scoring.Clamp(days*10, 0, 100)
}

// packSlots assigns strictly increasing times inside the daily window:
// 15 minutes apart from the window start, rolling to the next day when the
// window ends, and compressing to 5-minute spacing re-anchored at "now"
// when the start of the window is already behind us.
func (s *Scheduler) packSlots(items []models.ReviewItem, now time.Time, window TimeWindow) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), window.StartHour, 0, 0, 0, now.Location())
	dayEnd := time.Date(now.Year(), now.Month(), now.Day(), window.EndHour, 0, 0, 0, now.Location())

	slot := dayStart
	spacing := s.SlotSpacing
	anchored := false

	for i := range items {
		if !anchored && slot.Before(now) {
			if now.Before(dayEnd) {
				// Re-anchor to now and tighten spacing; the queue stays
				// inside today's window for as long as it fits.
				slot = now
				if slot.Before(dayStart) {
					slot = dayStart
				}
				spacing = s.CompressedSpacing
			} else {
				// Today's window is already over.
				dayStart = dayStart.Add(24 * time.Hour)
				dayEnd = dayEnd.Add(24 * time.Hour)
				slot = dayStart
			}
			anchored = true
		}
		if !slot.Before(dayEnd) {
			dayStart = dayStart.Add(24 * time.Hour)
			dayEnd = dayEnd.Add(24 * time.Hour)
			slot = dayStart
			spacing = s.SlotSpacing
		}
		items[i].ScheduledFor = slot
		slot = slot.Add(spacing)
	}
}
