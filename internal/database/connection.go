package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Store owns the database handle shared by all repositories
type Store struct {
	db     *sqlx.DB
	driver string
}

// Connect opens the database and initializes the schema. dbType is
// "postgres" or "sqlite"; dsn is the postgres DSN or the sqlite file path.
func Connect(dbType, dsn string) (*Store, error) {
	driver := "postgres"
	if dbType == "sqlite" {
		driver = "sqlite3"
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if driver == "sqlite3" {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, errors.Wrap(err, "failed to enable foreign keys")
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	s := &Store{db: db, driver: driver}
	if err := s.initializeSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the raw handle for repositories constructed outside this package
func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) serialPK() string {
	if s.driver == "sqlite3" {
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return "BIGSERIAL PRIMARY KEY"
}

// initializeSchema creates the tables the engine needs if they don't exist
func (s *Store) initializeSchema() error {
	stmts := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS users (
				id %s,
				username TEXT NOT NULL,
				last_active_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`, s.serialPK()),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS problems (
				id %s,
				title TEXT NOT NULL,
				subject TEXT DEFAULT '',
				difficulty REAL DEFAULT 5,
				tags TEXT DEFAULT '',
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`, s.serialPK()),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS review_schedules (
				id %s,
				user_id BIGINT NOT NULL,
				problem_id BIGINT,
				problem_set_id BIGINT,
				current_level INTEGER DEFAULT 1,
				status TEXT DEFAULT 'SCHEDULED',
				scheduled_at TIMESTAMP NOT NULL,
				next_scheduled_at TIMESTAMP NOT NULL,
				retention_rate REAL DEFAULT 0.58,
				consecutive_successes INTEGER DEFAULT 0,
				completion_count INTEGER DEFAULT 0,
				difficulty_score REAL DEFAULT 5,
				last_reviewed_at TIMESTAMP,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`, s.serialPK()),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS forgetting_curve_profiles (
				id %s,
				user_id BIGINT NOT NULL UNIQUE,
				memory_retention_factor REAL DEFAULT 1.0,
				difficulty_adjustment REAL DEFAULT 0,
				success_rate REAL DEFAULT 0.5,
				total_reviews INTEGER DEFAULT 0,
				subject_adjustments TEXT DEFAULT '{}',
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`, s.serialPK()),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS difficulty_profiles (
				id %s,
				user_id BIGINT NOT NULL UNIQUE,
				ideal_difficulty REAL DEFAULT 5,
				preferred_min_difficulty REAL DEFAULT 3,
				preferred_max_difficulty REAL DEFAULT 7,
				learning_pace REAL DEFAULT 1,
				challenge_preference REAL DEFAULT 0.5,
				frustration_tolerance REAL DEFAULT 0.5,
				adaptation_rate REAL DEFAULT 0.3,
				stability_factor REAL DEFAULT 0.8,
				recent_performance TEXT DEFAULT '[]',
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`, s.serialPK()),
		`
			CREATE TABLE IF NOT EXISTS problem_feedback (
				id TEXT PRIMARY KEY,
				user_id BIGINT NOT NULL,
				problem_id BIGINT NOT NULL,
				feedback TEXT NOT NULL,
				response_time REAL,
				is_correct BOOLEAN,
				time_of_day INTEGER DEFAULT 0,
				session_id TEXT,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`,
		`
			CREATE TABLE IF NOT EXISTS difficulty_adjustments (
				id TEXT PRIMARY KEY,
				problem_id BIGINT NOT NULL,
				original_difficulty REAL NOT NULL,
				adjusted_difficulty REAL NOT NULL,
				reason TEXT DEFAULT '',
				trigger_user_id BIGINT,
				automatic BOOLEAN DEFAULT FALSE,
				feedback_summary TEXT,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`,
		`CREATE INDEX IF NOT EXISTS idx_schedules_user_due ON review_schedules (user_id, status, next_scheduled_at)`,
		`CREATE INDEX IF NOT EXISTS idx_schedules_due ON review_schedules (status, next_scheduled_at)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_problem ON problem_feedback (problem_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_user ON problem_feedback (user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_adjustments_problem ON difficulty_adjustments (problem_id, created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "failed to initialize schema")
		}
	}
	return nil
}
