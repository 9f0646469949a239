// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/groomer/schema"
)

// IssueSource defines the read operations needed to analyze a backlog.
// This allows the core logic to be tested without talking to GitHub.
type IssueSource interface {
	// SearchIssues returns a single page of matching issues and the total match count.
	SearchIssues(ctx context.Context, owner, repo string, q schema.SearchQuery, perPage int) ([]schema.Issue, int, error)

	// SearchAllIssues pages through every matching issue up to the hard cap.
	SearchAllIssues(ctx context.Context, owner, repo string, q schema.SearchQuery) ([]schema.Issue, error)

	// FetchIssue returns a single issue by number.
	FetchIssue(ctx context.Context, owner, repo string, number int) (schema.Issue, error)
}

// IssueTracker extends IssueSource with the write operations used while triaging.
type IssueTracker interface {
	IssueSource

	// UpdateIssue applies a partial edit and returns the updated issue.
	UpdateIssue(ctx context.Context, owner, repo string, number int, update schema.IssueUpdate) (schema.Issue, error)

	// CloseAsNotPlanned closes the issue with the not_planned state reason.
	CloseAsNotPlanned(ctx context.Context, owner, repo string, number int) (schema.Issue, error)
}

// ThreadReader fetches Slack threads for preview.
type ThreadReader interface {
	ThreadPreview(ctx context.Context, ref schema.ThreadRef) (schema.ThreadPreview, error)
}

// Assistant rewrites issue text and summarizes discussion threads.
type Assistant interface {
	FormatIssue(ctx context.Context, title, body string) (string, error)
	RewriteIssue(ctx context.Context, title, body, instructions string) (string, error)
	SummarizeThread(ctx context.Context, messages []schema.SlackMessage) (string, error)
}

// StoreManager defines the interface for managing the persistent stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetStateStore() StateStore
	GetHistoryStore() HistoryStore
}

// StateStore is a flat key-value blob store.
type StateStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	Delete(key string) error
	GetStatus() (schema.StateStatus, error)
	Close() error
}

// HistoryStore defines the interface for tracking health runs and their snapshots.
type HistoryStore interface {
	// BeginRun creates a new run and returns its ID and UUID
	BeginRun(repo string, startTime time.Time, configParams map[string]any) (int64, string, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totalIssues int) error

	// RecordReport stores the snapshot and problems of a report
	RecordReport(runID int64, repo string, at time.Time, report schema.MetricsReport) error

	// GetRecentSnapshots returns up to limit snapshots for a repo, newest first
	GetRecentSnapshots(repo string, limit int) ([]schema.HealthSnapshotRecord, error)

	// GetAllRuns returns every run, oldest first
	GetAllRuns() ([]schema.HealthRunRecord, error)

	// GetAllSnapshots returns every snapshot, oldest first
	GetAllSnapshots() ([]schema.HealthSnapshotRecord, error)

	// GetAllProblems returns every recorded problem
	GetAllProblems() ([]schema.HealthProblemRecord, error)

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// Close closes the underlying connection
	Close() error
}

// OutputWriter renders results in the configured output format.
type OutputWriter interface {
	WriteReports(reports []schema.RepoReport, cfg *Config, duration time.Duration) error
	WriteIssues(issues []schema.Issue, total int, cfg *Config, now time.Time) error
	WriteHistory(snapshots []schema.HealthSnapshotRecord, cfg *Config) error
	WriteTrend(trend schema.HealthTrend, cfg *Config) error
	WriteCheck(results []schema.CheckResult, cfg *Config) error
}
