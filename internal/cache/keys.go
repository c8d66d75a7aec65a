package cache

import "fmt"

// Key builders shared by the scheduler, the predictor and the orchestrator.
// All engine entries live under the "review:" prefix so housekeeping can
// sweep them without touching other tenants of the same redis.

const Prefix = "review:"

// ScheduleKey addresses one user's generated review queue
func ScheduleKey(userID int64) string {
	return fmt.Sprintf("%sschedule:user:%d", Prefix, userID)
}

// OverdueKey addresses one user's overdue summary
func OverdueKey(userID int64) string {
	return fmt.Sprintf("%soverdue:user:%d", Prefix, userID)
}

// BatchKey addresses the progress record of one named orchestrator job
func BatchKey(job string) string {
	return fmt.Sprintf("%sbatch:%s", Prefix, job)
}

// PredictionKey addresses a memoized difficulty prediction
func PredictionKey(userID, problemID int64) string {
	return fmt.Sprintf("%spredict:%d:%d", Prefix, userID, problemID)
}
