package models

import "time"

// BatchStatus is the lifecycle state of an orchestrator run
type BatchStatus string

const (
	BatchRunning   BatchStatus = "RUNNING"
	BatchCompleted BatchStatus = "COMPLETED"
	BatchFailed    BatchStatus = "FAILED"
)

// BatchRun is the cache-resident progress record of one in-flight
// orchestrator job. It has no long-term persistence: the entry is
// overwritten on every progress report and expires after completion.
type BatchRun struct {
	BatchID            string      `json:"batch_id"`
	Job                string      `json:"job"`
	UsersProcessed     int         `json:"users_processed"`
	UsersTotal         int         `json:"users_total"`
	SchedulesGenerated int         `json:"schedules_generated"`
	Errors             int         `json:"errors"`
	Status             BatchStatus `json:"status"`
	StartedAt          time.Time   `json:"started_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// OverdueUrgency classifies how far past due a scheduled item is
type OverdueUrgency string

const (
	UrgencyCritical OverdueUrgency = "CRITICAL" // > 168h
	UrgencyHigh     OverdueUrgency = "HIGH"     // > 72h
	UrgencyMedium   OverdueUrgency = "MEDIUM"   // > 24h
	UrgencyLow      OverdueUrgency = "LOW"
)

// OverdueItem is one overdue schedule entry as reported by the overdue scan
type OverdueItem struct {
	ScheduleID      int64          `json:"schedule_id"`
	ProblemID       int64          `json:"problem_id"`
	OverdueHours    float64        `json:"overdue_hours"`
	Urgency         OverdueUrgency `json:"urgency"`
	SuggestedAction string         `json:"suggested_action"`
	ImpactScore     float64        `json:"impact_score"`
}

// OverdueSummary is the per-user cache entry written by the overdue scan
type OverdueSummary struct {
	UserID      int64         `json:"user_id"`
	Items       []OverdueItem `json:"items"`
	GeneratedAt time.Time     `json:"generated_at"`
}
