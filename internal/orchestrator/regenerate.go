package orchestrator

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/example/reviewcore/internal/cache"
	"github.com/example/reviewcore/internal/scheduling"
	"github.com/example/reviewcore/pkg/models"
)

// regenerateAll rebuilds and caches the review queue of every recently
// active user. Users are walked in batches so a large population cannot
// monopolize the store; per-user failures are counted and the run goes on.
func (o *Orchestrator) regenerateAll(ctx context.Context) error {
	now := o.now()
	run := models.BatchRun{
		BatchID:   uuid.NewString(),
		Job:       "daily_regeneration",
		Status:    models.BatchRunning,
		StartedAt: now,
		UpdatedAt: now,
	}
	o.publishProgress(ctx, &run)

	users, err := o.users.GetActiveSince(ctx, now.Add(-o.ActiveWindow))
	if err != nil {
		run.Status = models.BatchFailed
		run.UpdatedAt = o.now()
		o.publishProgress(ctx, &run)
		return err
	}

	run.UsersTotal = len(users)
	run.UpdatedAt = o.now()
	o.publishProgress(ctx, &run)

	size := o.BatchSize()
	for start := 0; start < len(users); start += size {
		end := start + size
		if end > len(users) {
			end = len(users)
		}

		var generated, failed int64
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(size)
		for _, u := range users[start:end] {
			u := u
			g.Go(func() error {
				if err := o.regenerateUser(gctx, u.ID); err != nil {
					atomic.AddInt64(&failed, 1)
					o.log.Warn("schedule regeneration failed", "user_id", u.ID, "error", err)
					return nil
				}
				atomic.AddInt64(&generated, 1)
				return nil
			})
		}
		_ = g.Wait()

		run.UsersProcessed = end
		run.SchedulesGenerated += int(generated)
		run.Errors += int(failed)
		run.UpdatedAt = o.now()
		o.publishProgress(ctx, &run)

		if end < len(users) && o.BatchPause > 0 {
			time.Sleep(o.BatchPause)
		}
	}

	run.Status = models.BatchCompleted
	run.UpdatedAt = o.now()
	o.publishProgress(ctx, &run)

	o.log.Info("daily regeneration complete",
		"users", len(users),
		"generated", run.SchedulesGenerated,
		"errors", run.Errors)
	return nil
}

func (o *Orchestrator) regenerateUser(ctx context.Context, userID int64) error {
	items, err := o.generator.Generate(ctx, userID, scheduling.Options{})
	if err != nil {
		return err
	}
	return o.cache.SetJSON(ctx, cache.ScheduleKey(userID), items, o.ScheduleTTL)
}

func (o *Orchestrator) publishProgress(ctx context.Context, run *models.BatchRun) {
	if err := o.cache.SetJSON(ctx, cache.BatchKey(run.Job), run, o.ScheduleTTL); err != nil {
		o.log.Warn("failed to publish batch progress", "job", run.Job, "error", err)
	}
}

// refreshStale regenerates the cached queue of users active within the last
// hour whose cached copy is missing or older than StaleAfter.
func (o *Orchestrator) refreshStale(ctx context.Context) error {
	now := o.now()
	users, err := o.users.GetActiveSince(ctx, now.Add(-o.RefreshWindow))
	if err != nil {
		return err
	}

	refreshed := 0
	for _, u := range users {
		age, ok, err := o.cache.Age(ctx, cache.ScheduleKey(u.ID), o.ScheduleTTL)
		if err != nil {
			o.log.Warn("cache age probe failed", "user_id", u.ID, "error", err)
			continue
		}
		if ok && age <= o.StaleAfter {
			continue
		}
		if err := o.regenerateUser(ctx, u.ID); err != nil {
			o.log.Warn("stale refresh failed", "user_id", u.ID, "error", err)
			continue
		}
		refreshed++
	}

	o.log.Debug("hourly refresh complete", "active", len(users), "refreshed", refreshed)
	return nil
}

// selfTune adapts the regeneration batch size to the observed job durations
// and reports cache and memory pressure.
func (o *Orchestrator) selfTune(ctx context.Context) error {
	avg := o.averageDuration()
	if avg > 0 {
		current := o.BatchSize()
		switch {
		case avg > o.SlowJob:
			o.SetBatchSize(current - batchSizeStep)
		case avg < o.FastJob:
			o.SetBatchSize(current + batchSizeStep)
		}
		if next := o.BatchSize(); next != current {
			o.log.Info("batch size retuned", "avg_duration", avg, "from", current, "to", next)
		}
	}

	if rate := o.cache.HitRate(); rate > 0 && rate < 0.5 {
		o.log.Warn("cache hit rate is low", "hit_rate", rate)
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.Alloc > 512<<20 {
		o.log.Warn("high heap usage", "alloc_bytes", ms.Alloc)
	}
	return nil
}

// weeklyCleanup sweeps expired engine keys and logs run statistics. It is
// housekeeping only and never touches schedule rows.
func (o *Orchestrator) weeklyCleanup(ctx context.Context) error {
	removedBatches, err := o.cache.DeleteByPattern(ctx, cache.Prefix+"batch:*")
	if err != nil {
		return err
	}
	removedOverdue, err := o.cache.DeleteByPattern(ctx, cache.Prefix+"overdue:*")
	if err != nil {
		return err
	}

	o.log.Info("weekly cleanup complete",
		"batch_entries_removed", removedBatches,
		"overdue_entries_removed", removedOverdue,
		"avg_job_duration", o.averageDuration(),
		"cache_hit_rate", o.cache.HitRate())
	return nil
}
