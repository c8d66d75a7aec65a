package database

import (
	"context"
	"database/sql"

	"github.com/example/reviewcore/internal/errs"
	"github.com/example/reviewcore/pkg/models"
	"github.com/jmoiron/sqlx"
)

// DifficultyProfileRepository handles database operations for personalized
// difficulty profiles
type DifficultyProfileRepository struct {
	db *sqlx.DB
}

// NewDifficultyProfileRepository creates a new repository instance
func NewDifficultyProfileRepository(s *Store) *DifficultyProfileRepository {
	return &DifficultyProfileRepository{db: s.db}
}

// GetOrCreate returns the user's difficulty profile, creating it with
// defaults on first use
func (r *DifficultyProfileRepository) GetOrCreate(ctx context.Context, userID int64) (*models.PersonalizedDifficultyProfile, error) {
	var p models.PersonalizedDifficultyProfile
	err := r.db.GetContext(ctx, &p,
		"SELECT * FROM difficulty_profiles WHERE user_id = $1", userID)
	if err == nil {
		return &p, nil
	}
	if err != sql.ErrNoRows {
		return nil, errs.Transient("difficulty_profiles.get", err)
	}

	fresh := models.DefaultDifficultyProfile(userID)
	if insErr := r.insert(ctx, fresh); insErr != nil {
		if reErr := r.db.GetContext(ctx, &p,
			"SELECT * FROM difficulty_profiles WHERE user_id = $1", userID); reErr == nil {
			return &p, nil
		}
		return nil, insErr
	}
	return fresh, nil
}

func (r *DifficultyProfileRepository) insert(ctx context.Context, p *models.PersonalizedDifficultyProfile) error {
	if r.db.DriverName() == "sqlite3" {
		res, err := r.db.ExecContext(ctx, `
			INSERT INTO difficulty_profiles (
				user_id, ideal_difficulty, preferred_min_difficulty, preferred_max_difficulty,
				learning_pace, challenge_preference, frustration_tolerance,
				adaptation_rate, stability_factor, recent_performance
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			p.UserID, p.IdealDifficulty, p.PreferredMinDifficulty, p.PreferredMaxDifficulty,
			p.LearningPace, p.ChallengePreference, p.FrustrationTolerance,
			p.AdaptationRate, p.StabilityFactor, p.RecentPerformance)
		if err != nil {
			return errs.Transient("difficulty_profiles.create", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return errs.Transient("difficulty_profiles.create", err)
		}
		p.ID = id
		return nil
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO difficulty_profiles (
			user_id, ideal_difficulty, preferred_min_difficulty, preferred_max_difficulty,
			learning_pace, challenge_preference, frustration_tolerance,
			adaptation_rate, stability_factor, recent_performance
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		p.UserID, p.IdealDifficulty, p.PreferredMinDifficulty, p.PreferredMaxDifficulty,
		p.LearningPace, p.ChallengePreference, p.FrustrationTolerance,
		p.AdaptationRate, p.StabilityFactor, p.RecentPerformance).Scan(&p.ID)
	if err != nil {
		return errs.Transient("difficulty_profiles.create", err)
	}
	return nil
}

// Update persists profile mutations after feedback ingestion
func (r *DifficultyProfileRepository) Update(ctx context.Context, p *models.PersonalizedDifficultyProfile) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE difficulty_profiles SET
			ideal_difficulty = $1,
			preferred_min_difficulty = $2,
			preferred_max_difficulty = $3,
			learning_pace = $4,
			challenge_preference = $5,
			frustration_tolerance = $6,
			adaptation_rate = $7,
			stability_factor = $8,
			recent_performance = $9,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $10`,
		p.IdealDifficulty, p.PreferredMinDifficulty, p.PreferredMaxDifficulty,
		p.LearningPace, p.ChallengePreference, p.FrustrationTolerance,
		p.AdaptationRate, p.StabilityFactor, p.RecentPerformance, p.UserID)
	if err != nil {
		return errs.Transient("difficulty_profiles.update", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.NotFound("difficulty profile", p.UserID)
	}
	return nil
}
