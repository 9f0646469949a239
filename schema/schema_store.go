package schema

import "time"

// HealthRunRecord represents a row from the groomer_health_runs table.
type HealthRunRecord struct {
	RunID         int64
	RunUUID       string
	Repo          string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalIssues   int32
	ConfigParams  *string
}

// HealthSnapshotRecord represents a row from the groomer_health_snapshots table.
type HealthSnapshotRecord struct {
	RunID           int64     `json:"run_id"`
	Repo            string    `json:"repo"`
	SnapshotTime    time.Time `json:"snapshot_time"`
	Fresh           int32     `json:"fresh"`
	Recent          int32     `json:"recent"`
	Aging           int32     `json:"aging"`
	Stale           int32     `json:"stale"`
	Ancient         int32     `json:"ancient"`
	High            int32     `json:"high"`
	Medium          int32     `json:"medium"`
	Low             int32     `json:"low"`
	Ungroomed       int32     `json:"ungroomed"`
	CreatedInWindow int32     `json:"created_in_window"`
	GroomedInWindow int32     `json:"groomed_in_window"`
	AvgAgeToGroom   float64   `json:"avg_age_to_groom"`
	AgeHealth       int32     `json:"age_health"`
	PriorityHealth  int32     `json:"priority_health"`
	VelocityHealth  int32     `json:"velocity_health"`
	Score           int32     `json:"score"`
	Rating          string    `json:"rating"`
}

// Total returns the issue count captured in the snapshot.
func (s HealthSnapshotRecord) Total() int32 {
	return s.Fresh + s.Recent + s.Aging + s.Stale + s.Ancient
}

// HealthProblemRecord represents a row from the groomer_health_problems table.
type HealthProblemRecord struct {
	RunID        int64
	Position     int32
	ProblemType  string
	Severity     string
	Message      string
	ProblemCount int32
}

// SnapshotFromReport flattens a report into a snapshot row.
func SnapshotFromReport(runID int64, repo string, at time.Time, r MetricsReport) HealthSnapshotRecord {
	return HealthSnapshotRecord{
		RunID:           runID,
		Repo:            repo,
		SnapshotTime:    at,
		Fresh:           int32(r.AgeDistribution.Fresh),
		Recent:          int32(r.AgeDistribution.Recent),
		Aging:           int32(r.AgeDistribution.Aging),
		Stale:           int32(r.AgeDistribution.Stale),
		Ancient:         int32(r.AgeDistribution.Ancient),
		High:            int32(r.PriorityBalance.High),
		Medium:          int32(r.PriorityBalance.Medium),
		Low:             int32(r.PriorityBalance.Low),
		Ungroomed:       int32(r.PriorityBalance.Ungroomed),
		CreatedInWindow: int32(r.Velocity.IssuesCreatedInWindow),
		GroomedInWindow: int32(r.Velocity.IssuesGroomedInWindow),
		AvgAgeToGroom:   r.Velocity.AverageAgeToGroom,
		AgeHealth:       int32(r.HealthScore.Factors.AgeHealth),
		PriorityHealth:  int32(r.HealthScore.Factors.PriorityHealth),
		VelocityHealth:  int32(r.HealthScore.Factors.VelocityHealth),
		Score:           int32(r.HealthScore.Score),
		Rating:          string(r.HealthScore.Rating),
	}
}
