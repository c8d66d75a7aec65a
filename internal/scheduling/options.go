package scheduling

import (
	"fmt"

	"github.com/example/reviewcore/internal/errs"
)

// Weights are the five priority sub-score weights. They must each be
// non-negative and sum to a positive number; they are not required to sum
// to 1.
type Weights struct {
	Retention  float64 `json:"retention"`
	Difficulty float64 `json:"difficulty"`
	Overdue    float64 `json:"overdue"`
	Frequency  float64 `json:"frequency"`
	Recency    float64 `json:"recency"`
}

// DefaultWeights returns the tuned production defaults
func DefaultWeights() Weights {
	return Weights{
		Retention:  0.35,
		Difficulty: 0.25,
		Overdue:    0.20,
		Frequency:  0.10,
		Recency:    0.10,
	}
}

func (w Weights) validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"retention", w.Retention},
		{"difficulty", w.Difficulty},
		{"overdue", w.Overdue},
		{"frequency", w.Frequency},
		{"recency", w.Recency},
	} {
		if f.value < 0 {
			return errs.Validation("priorityWeights", fmt.Sprintf("%s weight must be non-negative", f.name))
		}
	}
	if w.Retention+w.Difficulty+w.Overdue+w.Frequency+w.Recency <= 0 {
		return errs.Validation("priorityWeights", "weights must sum to a positive number")
	}
	return nil
}

// TimeWindow is the daily interval reviews are packed into
type TimeWindow struct {
	StartHour int `json:"start_hour"` // 0-23
	EndHour   int `json:"end_hour"`   // 0-23, exclusive upper bound
}

func (t TimeWindow) validate() error {
	if t.StartHour < 0 || t.StartHour > 23 {
		return errs.Validation("timeWindow.startHour", "must be between 0 and 23")
	}
	if t.EndHour < 0 || t.EndHour > 23 {
		return errs.Validation("timeWindow.endHour", "must be between 0 and 23")
	}
	if t.StartHour >= t.EndHour {
		return errs.Validation("timeWindow", "startHour must be before endHour")
	}
	return nil
}

// Options configure one schedule generation call. Zero-valued fields fall
// back to the scheduler's defaults.
type Options struct {
	MaxItems int
	Weights  *Weights
	Window   *TimeWindow
}

// resolved is a fully-defaulted option set
type resolved struct {
	maxItems int
	weights  Weights
	window   TimeWindow
}

func (s *Scheduler) resolveOptions(opts Options) (resolved, error) {
	out := resolved{
		maxItems: s.DefaultMaxItems,
		weights:  s.DefaultWeights,
		window:   s.DefaultWindow,
	}
	if opts.MaxItems < 0 {
		return resolved{}, errs.Validation("maxItems", "must be positive")
	}
	if opts.MaxItems > 0 {
		out.maxItems = opts.MaxItems
	}
	if opts.Weights != nil {
		if err := opts.Weights.validate(); err != nil {
			return resolved{}, err
		}
		out.weights = *opts.Weights
	}
	if opts.Window != nil {
		if err := opts.Window.validate(); err != nil {
			return resolved{}, err
		}
		out.window = *opts.Window
	}
	return out, nil
}
