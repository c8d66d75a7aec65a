package models

import "time"

// Problem represents a learning item whose difficulty the engine may adjust
type Problem struct {
	ID         int64     `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	Subject    string    `json:"subject" db:"subject"`
	Difficulty float64   `json:"difficulty" db:"difficulty"` // 1-10 scale
	Tags       string    `json:"tags" db:"tags"`             // comma-separated
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
