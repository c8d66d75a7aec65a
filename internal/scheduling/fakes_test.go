package scheduling

import (
	"context"
	"sync"
	"time"

	"github.com/example/reviewcore/internal/errs"
	"github.com/example/reviewcore/internal/forgetting"
	"github.com/example/reviewcore/pkg/models"
)

type fakeScheduleStore struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*models.ReviewScheduleItem
}

func newFakeScheduleStore() *fakeScheduleStore {
	return &fakeScheduleStore{items: map[int64]*models.ReviewScheduleItem{}}
}

func (f *fakeScheduleStore) add(item models.ReviewScheduleItem) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	item.ID = f.nextID
	f.items[item.ID] = &item
	return item.ID
}

func (f *fakeScheduleStore) GetByID(ctx context.Context, id int64) (*models.ReviewScheduleItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, errs.NotFound("review schedule item", id)
	}
	cp := *item
	return &cp, nil
}

func (f *fakeScheduleStore) Create(ctx context.Context, item *models.ReviewScheduleItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	item.ID = f.nextID
	cp := *item
	f.items[cp.ID] = &cp
	return nil
}

func (f *fakeScheduleStore) Update(ctx context.Context, item *models.ReviewScheduleItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[item.ID]; !ok {
		return errs.NotFound("review schedule item", item.ID)
	}
	cp := *item
	f.items[cp.ID] = &cp
	return nil
}

func (f *fakeScheduleStore) GetDueForUser(ctx context.Context, userID int64, horizon time.Time) ([]models.ReviewScheduleItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ReviewScheduleItem
	for _, item := range f.items {
		if item.UserID == userID && item.Status == models.StatusScheduled && !item.NextScheduledAt.After(horizon) {
			out = append(out, *item)
		}
	}
	return out, nil
}

type fakeCurveStore struct {
	mu       sync.Mutex
	profiles map[int64]*models.ForgettingCurveProfile
	updates  int
}

func newFakeCurveStore() *fakeCurveStore {
	return &fakeCurveStore{profiles: map[int64]*models.ForgettingCurveProfile{}}
}

func (f *fakeCurveStore) GetOrCreate(ctx context.Context, userID int64) (*models.ForgettingCurveProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	p := models.DefaultForgettingCurveProfile(userID)
	f.profiles[userID] = p
	cp := *p
	return &cp, nil
}

func (f *fakeCurveStore) Update(ctx context.Context, p *models.ForgettingCurveProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.profiles[cp.UserID] = &cp
	f.updates++
	return nil
}

type fakeOutcomes struct {
	recent []forgetting.Outcome
}

func (f *fakeOutcomes) RecentOutcomes(ctx context.Context, userID int64, limit int) ([]forgetting.Outcome, error) {
	if len(f.recent) > limit {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}
