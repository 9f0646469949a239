// Package parquet provides data structures and functions for exporting backlog
// health history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/groomer/schema"
	"github.com/parquet-go/parquet-go"
)

// HealthRun represents a single health run with metadata.
// This struct maps to the groomer_health_runs database table.
type HealthRun struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// RunUUID is the globally unique identifier shared with report output
	RunUUID string `parquet:"run_uuid,snappy"`

	// Repo is the owner/name of the analyzed repository
	Repo string `parquet:"repo,snappy,dict"`

	// StartTime is when the run began
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// TotalIssues is the number of issues analyzed in this run
	TotalIssues int32 `parquet:"total_issues,snappy"`

	// ConfigParams contains the JSON-encoded run parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// HealthSnapshot is one flattened metrics report.
// This struct maps to the groomer_health_snapshots database table.
type HealthSnapshot struct {
	RunID           int64     `parquet:"run_id,snappy"`
	Repo            string    `parquet:"repo,snappy,dict"`
	SnapshotTime    time.Time `parquet:"snapshot_time,snappy"`
	Fresh           int32     `parquet:"fresh,snappy"`
	Recent          int32     `parquet:"recent,snappy"`
	Aging           int32     `parquet:"aging,snappy"`
	Stale           int32     `parquet:"stale,snappy"`
	Ancient         int32     `parquet:"ancient,snappy"`
	High            int32     `parquet:"high,snappy"`
	Medium          int32     `parquet:"medium,snappy"`
	Low             int32     `parquet:"low,snappy"`
	Ungroomed       int32     `parquet:"ungroomed,snappy"`
	CreatedInWindow int32     `parquet:"created_in_window,snappy"`
	GroomedInWindow int32     `parquet:"groomed_in_window,snappy"`
	AvgAgeToGroom   float64   `parquet:"avg_age_to_groom,snappy"`
	AgeHealth       int32     `parquet:"age_health,snappy"`
	PriorityHealth  int32     `parquet:"priority_health,snappy"`
	VelocityHealth  int32     `parquet:"velocity_health,snappy"`
	Score           int32     `parquet:"score,snappy"`
	Rating          string    `parquet:"rating,snappy,dict"`
}

// HealthProblem is a single detected problem of a run.
// This struct maps to the groomer_health_problems database table.
type HealthProblem struct {
	RunID        int64  `parquet:"run_id,snappy"`
	Position     int32  `parquet:"position,snappy"`
	ProblemType  string `parquet:"problem_type,snappy,dict"`
	Severity     string `parquet:"severity,snappy,dict"`
	Message      string `parquet:"message,snappy"`
	ProblemCount int32  `parquet:"problem_count,snappy"`
}

// writeParquet writes rows of T to a new Parquet file at outputPath.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the struct tags of T
	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteHealthRunsParquet writes a slice of HealthRun structs to a Parquet file.
func WriteHealthRunsParquet(data []HealthRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteHealthSnapshotsParquet writes a slice of HealthSnapshot structs to a Parquet file.
func WriteHealthSnapshotsParquet(data []HealthSnapshot, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteHealthProblemsParquet writes a slice of HealthProblem structs to a Parquet file.
func WriteHealthProblemsParquet(data []HealthProblem, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertHealthRunRecords converts schema.HealthRunRecord to HealthRun for Parquet export.
func ConvertHealthRunRecords(records []schema.HealthRunRecord) []HealthRun {
	result := make([]HealthRun, len(records))
	for i, record := range records {
		result[i] = HealthRun{
			RunID:         record.RunID,
			RunUUID:       record.RunUUID,
			Repo:          record.Repo,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			TotalIssues:   record.TotalIssues,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertHealthSnapshotRecords converts schema.HealthSnapshotRecord to HealthSnapshot for Parquet export.
func ConvertHealthSnapshotRecords(records []schema.HealthSnapshotRecord) []HealthSnapshot {
	result := make([]HealthSnapshot, len(records))
	for i, r := range records {
		result[i] = HealthSnapshot{
			RunID:           r.RunID,
			Repo:            r.Repo,
			SnapshotTime:    r.SnapshotTime,
			Fresh:           r.Fresh,
			Recent:          r.Recent,
			Aging:           r.Aging,
			Stale:           r.Stale,
			Ancient:         r.Ancient,
			High:            r.High,
			Medium:          r.Medium,
			Low:             r.Low,
			Ungroomed:       r.Ungroomed,
			CreatedInWindow: r.CreatedInWindow,
			GroomedInWindow: r.GroomedInWindow,
			AvgAgeToGroom:   r.AvgAgeToGroom,
			AgeHealth:       r.AgeHealth,
			PriorityHealth:  r.PriorityHealth,
			VelocityHealth:  r.VelocityHealth,
			Score:           r.Score,
			Rating:          r.Rating,
		}
	}
	return result
}

// ConvertHealthProblemRecords converts schema.HealthProblemRecord to HealthProblem for Parquet export.
func ConvertHealthProblemRecords(records []schema.HealthProblemRecord) []HealthProblem {
	result := make([]HealthProblem, len(records))
	for i, r := range records {
		result[i] = HealthProblem{
			RunID:        r.RunID,
			Position:     r.Position,
			ProblemType:  r.ProblemType,
			Severity:     r.Severity,
			Message:      r.Message,
			ProblemCount: r.ProblemCount,
		}
	}
	return result
}
