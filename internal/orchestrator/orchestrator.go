// Package orchestrator runs the engine's recurring background jobs: nightly
// schedule regeneration, hourly freshness checks, the overdue scan and the
// self-tuning loop. All state lives on the Orchestrator instance so several
// engines can coexist in one process.
package orchestrator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/reviewcore/internal/cache"
	"github.com/example/reviewcore/internal/logger"
	"github.com/example/reviewcore/internal/scheduling"
	"github.com/example/reviewcore/pkg/models"
)

// UserStore is the user access the orchestrator needs
type UserStore interface {
	GetActiveSince(ctx context.Context, cutoff time.Time) ([]models.User, error)
}

// ScheduleStore is the schedule access the orchestrator needs
type ScheduleStore interface {
	GetOverdue(ctx context.Context, now time.Time, limit int) ([]models.ReviewScheduleItem, error)
}

// ScheduleGenerator produces one user's ranked review queue
type ScheduleGenerator interface {
	Generate(ctx context.Context, userID int64, opts scheduling.Options) ([]models.ReviewItem, error)
}

// ResultCache is the cache surface the orchestrator writes to
type ResultCache interface {
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Age(ctx context.Context, key string, originalTTL time.Duration) (time.Duration, bool, error)
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
	HitRate() float64
}

const (
	minBatchSize  = 10
	maxBatchSize  = 100
	batchSizeStep = 10

	// durationWindow bounds the rolling job-duration sample
	durationWindow = 20
)

// Orchestrator owns the cron loop and the per-job state
type Orchestrator struct {
	cron      *gocron.Scheduler
	users     UserStore
	schedules ScheduleStore
	generator ScheduleGenerator
	cache     ResultCache
	log       *logger.Logger

	// ActiveWindow selects which users the daily regeneration covers
	ActiveWindow time.Duration
	// RefreshWindow selects which users the hourly refresh covers
	RefreshWindow time.Duration
	// StaleAfter is the cache age past which the hourly refresh regenerates
	StaleAfter time.Duration
	// ScheduleTTL is the lifetime of cached queues and summaries
	ScheduleTTL time.Duration
	// BatchPause separates consecutive regeneration batches
	BatchPause time.Duration
	// OverdueLimit caps one overdue scan's working set
	OverdueLimit int
	// SlowJob and FastJob are the self-tuning duration thresholds
	SlowJob time.Duration
	FastJob time.Duration

	mu        sync.Mutex
	inFlight  map[string]bool
	durations []time.Duration
	batchSize int

	now func() time.Time
}

// New builds an orchestrator with the default job policy
func New(users UserStore, schedules ScheduleStore, generator ScheduleGenerator, results ResultCache, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		cron:          gocron.NewScheduler(time.UTC),
		users:         users,
		schedules:     schedules,
		generator:     generator,
		cache:         results,
		log:           log,
		ActiveWindow:  30 * 24 * time.Hour,
		RefreshWindow: time.Hour,
		StaleAfter:    4 * time.Hour,
		ScheduleTTL:   6 * time.Hour,
		BatchPause:    200 * time.Millisecond,
		OverdueLimit:  1000,
		SlowJob:       2 * time.Minute,
		FastJob:       15 * time.Second,
		inFlight:      map[string]bool{},
		batchSize:     50,
		now:           time.Now,
	}
}

// Start registers all jobs and launches the cron loop asynchronously
func (o *Orchestrator) Start() {
	_, _ = o.cron.Every(1).Day().At("03:00").Do(func() {
		o.runJob("daily_regeneration", o.regenerateAll)
	})
	_, _ = o.cron.Every(1).Hour().Do(func() {
		o.runJob("hourly_refresh", o.refreshStale)
	})
	_, _ = o.cron.Every(5).Minutes().Do(func() {
		o.runJob("overdue_scan", o.scanOverdue)
	})
	_, _ = o.cron.Every(10).Minutes().Do(func() {
		o.runJob("self_tuning", o.selfTune)
	})
	_, _ = o.cron.Every(1).Week().Do(func() {
		o.runJob("weekly_cleanup", o.weeklyCleanup)
	})
	o.cron.StartAsync()
	o.log.Info("orchestrator started", "batch_size", o.BatchSize())
}

// Stop halts the cron loop. Jobs already running finish on their own.
func (o *Orchestrator) Stop() {
	o.cron.Stop()
	o.log.Info("orchestrator stopped")
}

// BatchSize returns the current self-tuned batch size
func (o *Orchestrator) BatchSize() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.batchSize
}

// SetBatchSize overrides the batch size, clamped to the tuning bounds
func (o *Orchestrator) SetBatchSize(n int) {
	if n < minBatchSize {
		n = minBatchSize
	}
	if n > maxBatchSize {
		n = maxBatchSize
	}
	o.mu.Lock()
	o.batchSize = n
	o.mu.Unlock()
}

// runJob executes one guarded job tick. A tick that finds its guard still
// held is dropped, never queued; a panic is confined to the tick.
func (o *Orchestrator) runJob(name string, job func(ctx context.Context) error) {
	if !o.acquire(name) {
		o.log.Warn("previous run still in flight, skipping tick", "job", name)
		return
	}
	defer o.release(name)
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("job panicked", "job", name, "panic", r)
		}
	}()

	start := o.now()
	err := job(context.Background())
	elapsed := o.now().Sub(start)
	o.recordDuration(elapsed)

	if err != nil {
		o.log.Error("job failed", "job", name, "duration", elapsed, "error", err)
		return
	}
	o.log.Debug("job finished", "job", name, "duration", elapsed)
}

func (o *Orchestrator) acquire(name string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight[name] {
		return false
	}
	o.inFlight[name] = true
	return true
}

func (o *Orchestrator) release(name string) {
	o.mu.Lock()
	delete(o.inFlight, name)
	o.mu.Unlock()
}

func (o *Orchestrator) recordDuration(d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.durations = append(o.durations, d)
	if len(o.durations) > durationWindow {
		o.durations = o.durations[len(o.durations)-durationWindow:]
	}
}

func (o *Orchestrator) averageDuration() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range o.durations {
		total += d
	}
	return total / time.Duration(len(o.durations))
}

func itemFailureRate(item *models.ReviewScheduleItem) float64 {
	if item.CompletionCount == 0 {
		return 1
	}
	rate := float64(item.ConsecutiveSuccesses) / float64(item.CompletionCount)
	if rate > 1 {
		rate = 1
	}
	return 1 - rate
}

func urgencyFor(overdueHours float64) models.OverdueUrgency {
	switch {
	case overdueHours > 168:
		return models.UrgencyCritical
	case overdueHours > 72:
		return models.UrgencyHigh
	case overdueHours > 24:
		return models.UrgencyMedium
	default:
		return models.UrgencyLow
	}
}

func suggestedAction(u models.OverdueUrgency) string {
	switch u {
	case models.UrgencyCritical:
		return "review immediately, retention is likely lost"
	case models.UrgencyHigh:
		return "review today"
	case models.UrgencyMedium:
		return "review within the next few hours"
	default:
		return "review at the next scheduled session"
	}
}

// scanOverdue groups the globally most overdue items per user and caches a
// summary ranked by impact.
func (o *Orchestrator) scanOverdue(ctx context.Context) error {
	now := o.now()
	items, err := o.schedules.GetOverdue(ctx, now, o.OverdueLimit)
	if err != nil {
		return err
	}

	byUser := map[int64][]models.OverdueItem{}
	for i := range items {
		item := &items[i]
		overdueHours := now.Sub(item.NextScheduledAt).Hours()
		if overdueHours < 0 {
			continue
		}
		impact := 50 + minFloat(50, overdueHours*2) +
			item.DifficultyScore*2 +
			itemFailureRate(item)*20
		urgency := urgencyFor(overdueHours)
		byUser[item.UserID] = append(byUser[item.UserID], models.OverdueItem{
			ScheduleID:      item.ID,
			ProblemID:       item.ProblemID.Int64,
			OverdueHours:    overdueHours,
			Urgency:         urgency,
			SuggestedAction: suggestedAction(urgency),
			ImpactScore:     impact,
		})
	}

	for userID, list := range byUser {
		sort.Slice(list, func(i, j int) bool { return list[i].ImpactScore > list[j].ImpactScore })
		summary := models.OverdueSummary{UserID: userID, Items: list, GeneratedAt: now}
		if err := o.cache.SetJSON(ctx, cache.OverdueKey(userID), summary, o.ScheduleTTL); err != nil {
			o.log.Warn("failed to cache overdue summary", "user_id", userID, "error", err)
		}
	}

	o.log.Info("overdue scan complete", "items", len(items), "users", len(byUser))
	return nil
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
