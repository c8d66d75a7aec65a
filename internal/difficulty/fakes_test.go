package difficulty

import (
	"context"
	"sync"
	"time"

	"github.com/example/reviewcore/internal/errs"
	"github.com/example/reviewcore/pkg/models"
)

// fakeStore is an in-memory stand-in for the four store interfaces
type fakeStore struct {
	mu       sync.Mutex
	problems map[int64]*models.Problem
	profiles map[int64]*models.PersonalizedDifficultyProfile
	feedback []models.ProblemDifficultyFeedback
	adjusts  []models.DynamicDifficultyAdjustment
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		problems: make(map[int64]*models.Problem),
		profiles: make(map[int64]*models.PersonalizedDifficultyProfile),
	}
}

func (s *fakeStore) GetByID(_ context.Context, id int64) (*models.Problem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.problems[id]
	if !ok {
		return nil, errs.NotFound("problem", id)
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) UpdateDifficulty(_ context.Context, id int64, difficulty float64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.problems[id]
	if !ok {
		return errs.NotFound("problem", id)
	}
	p.Difficulty = difficulty
	p.UpdatedAt = at
	return nil
}

func (s *fakeStore) GetOrCreate(_ context.Context, userID int64) (*models.PersonalizedDifficultyProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	p := models.DefaultDifficultyProfile(userID)
	s.profiles[userID] = p
	cp := *p
	return &cp, nil
}

func (s *fakeStore) Update(_ context.Context, p *models.PersonalizedDifficultyProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.profiles[p.UserID] = &cp
	return nil
}

func (s *fakeStore) Create(_ context.Context, f *models.ProblemDifficultyFeedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback = append(s.feedback, *f)
	return nil
}

func (s *fakeStore) GetByProblemSince(_ context.Context, problemID int64, cutoff time.Time) ([]models.ProblemDifficultyFeedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ProblemDifficultyFeedback
	for _, f := range s.feedback {
		if f.ProblemID == problemID && !f.CreatedAt.Before(cutoff) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *fakeStore) GetByUserSince(_ context.Context, userID int64, cutoff time.Time) ([]models.ProblemDifficultyFeedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ProblemDifficultyFeedback
	for _, f := range s.feedback {
		if f.UserID == userID && !f.CreatedAt.Before(cutoff) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *fakeStore) CountByProblem(_ context.Context, problemID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, f := range s.feedback {
		if f.ProblemID == problemID {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) AverageResponseTime(_ context.Context, userID int64, cutoff time.Time) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum float64
	n := 0
	for _, f := range s.feedback {
		if f.UserID == userID && !f.CreatedAt.Before(cutoff) && f.ResponseTime.Valid {
			sum += f.ResponseTime.Float64
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

// fakeAdjusts exposes the adjustment log under the AdjustmentStore method
// set; the feedback log already claims Create on fakeStore itself.
type fakeAdjusts struct{ *fakeStore }

func (s fakeAdjusts) Create(ctx context.Context, a *models.DynamicDifficultyAdjustment) error {
	return s.createAdjustment(ctx, a)
}

func (s *fakeStore) createAdjustment(_ context.Context, a *models.DynamicDifficultyAdjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adjusts = append(s.adjusts, *a)
	return nil
}

func (s *fakeStore) LastAutomaticAt(_ context.Context, problemID int64) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last time.Time
	found := false
	for _, a := range s.adjusts {
		if a.ProblemID == problemID && a.Automatic && a.CreatedAt.After(last) {
			last = a.CreatedAt
			found = true
		}
	}
	return last, found, nil
}

func (s *fakeStore) TrendSince(_ context.Context, problemID int64, cutoff time.Time) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum float64
	n := 0
	for _, a := range s.adjusts {
		if a.ProblemID == problemID && !a.CreatedAt.Before(cutoff) {
			sum += a.AdjustedDifficulty - a.OriginalDifficulty
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}
