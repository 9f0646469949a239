// Package outwriter renders reports, issues and history as text, CSV or JSON.
package outwriter

import (
	"time"

	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/schema"
)

// OutWriter provides a unified interface for all output operations.
type OutWriter struct{}

var _ contract.OutputWriter = &OutWriter{} // Compile-time check

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteReports prints health reports using the configured output format.
func (ow *OutWriter) WriteReports(reports []schema.RepoReport, cfg *contract.Config, duration time.Duration) error {
	return WriteReports(reports, cfg, duration)
}

// WriteIssues prints issues using the configured output format.
func (ow *OutWriter) WriteIssues(issues []schema.Issue, total int, cfg *contract.Config, now time.Time) error {
	return WriteIssues(issues, total, cfg, now)
}

// WriteHistory prints health snapshots using the configured output format.
func (ow *OutWriter) WriteHistory(snapshots []schema.HealthSnapshotRecord, cfg *contract.Config) error {
	return WriteHistory(snapshots, cfg)
}

// WriteTrend prints a health trend using the configured output format.
func (ow *OutWriter) WriteTrend(trend schema.HealthTrend, cfg *contract.Config) error {
	return WriteTrend(trend, cfg)
}

// WriteCheck prints CI gate results using the configured output format.
func (ow *OutWriter) WriteCheck(results []schema.CheckResult, cfg *contract.Config) error {
	return WriteCheck(results, cfg)
}
