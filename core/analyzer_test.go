package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/huangsam/groomer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.November, 3, 10, 0, 0, 0, time.UTC)

// makeIssues returns n issues created daysAgo before fixedNow and last updated updatedDaysAgo before it.
func makeIssues(n, daysAgo, updatedDaysAgo int, labels ...string) []schema.Issue {
	issues := make([]schema.Issue, n)
	for i := range issues {
		issues[i] = schema.Issue{
			Number:    i + 1,
			Title:     fmt.Sprintf("issue %d", i+1),
			State:     "open",
			CreatedAt: fixedNow.Add(-time.Duration(daysAgo) * day),
			UpdatedAt: fixedNow.Add(-time.Duration(updatedDaysAgo) * day),
			Labels:    append([]string(nil), labels...),
		}
	}
	return issues
}

func TestAnalyze_EmptyInput(t *testing.T) {
	report := NewDefaultAnalyzer().Analyze(nil, fixedNow)

	assert.Equal(t, schema.AgeDistribution{}, report.AgeDistribution)
	assert.Equal(t, schema.PriorityBalance{}, report.PriorityBalance)
	assert.Equal(t, 0, report.Velocity.TotalIssues)
	assert.Zero(t, report.Velocity.AverageAgeToGroom)
	assert.Equal(t, schema.HealthFactors{AgeHealth: 100, PriorityHealth: 100, VelocityHealth: 80}, report.HealthScore.Factors)
	assert.Equal(t, 96, report.HealthScore.Score)
	assert.Equal(t, schema.HealthyRating, report.HealthScore.Rating)
	assert.Empty(t, report.Problems)
	assert.NotNil(t, report.Problems, "problems encode as an empty list, not null")
}

func TestAnalyze_TenFreshUnlabeled(t *testing.T) {
	report := NewDefaultAnalyzer().Analyze(makeIssues(10, 0, 0), fixedNow)

	assert.Equal(t, schema.AgeDistribution{Fresh: 10}, report.AgeDistribution)
	assert.Equal(t, schema.PriorityBalance{Ungroomed: 10}, report.PriorityBalance)
	assert.Equal(t, 10, report.Velocity.IssuesCreatedInWindow)
	assert.Equal(t, 0, report.Velocity.IssuesGroomedInWindow)
	assert.Zero(t, report.Velocity.AverageAgeToGroom)
	assert.Equal(t, 90, report.HealthScore.Factors.PriorityHealth)
	assert.Equal(t, 92, report.HealthScore.Score)
	assert.Equal(t, schema.HealthyRating, report.HealthScore.Rating)
	assert.Empty(t, report.Problems)
}

// A prioritized issue last touched on the day it was opened is grooming data
// with an average age of zero, not a missing measurement.
func TestAnalyze_GroomedOnDayZero(t *testing.T) {
	report := NewDefaultAnalyzer().Analyze(makeIssues(1, 0, 0, schema.DefaultLowLabel), fixedNow)

	assert.Equal(t, schema.PriorityBalance{Low: 1}, report.PriorityBalance)
	assert.Equal(t, 1, report.Velocity.IssuesGroomedInWindow)
	assert.Zero(t, report.Velocity.AverageAgeToGroom)
	assert.Equal(t, schema.HealthFactors{AgeHealth: 100, PriorityHealth: 100, VelocityHealth: 100}, report.HealthScore.Factors)
	assert.Equal(t, 100, report.HealthScore.Score)
}

func TestAnalyze_SixtyAncientUnlabeled(t *testing.T) {
	report := NewDefaultAnalyzer().Analyze(makeIssues(60, 200, 200), fixedNow)

	assert.Equal(t, schema.AgeDistribution{Ancient: 60}, report.AgeDistribution)
	assert.Equal(t, schema.PriorityBalance{Ungroomed: 60}, report.PriorityBalance)
	assert.Equal(t, 60, report.HealthScore.Factors.AgeHealth)
	assert.Equal(t, 50, report.HealthScore.Factors.PriorityHealth)
	assert.Equal(t, 80, report.HealthScore.Factors.VelocityHealth)
	assert.Equal(t, 60, report.HealthScore.Score)
	assert.Equal(t, schema.NeedsAttentionRating, report.HealthScore.Rating)

	require.Len(t, report.Problems, 2)
	assert.Equal(t, schema.AncientIssuesProblem, report.Problems[0].Type)
	assert.Equal(t, schema.CriticalSeverity, report.Problems[0].Severity)
	assert.Equal(t, "60 issues are over 6 months old (100% of backlog)", report.Problems[0].Message)
	assert.Equal(t, schema.GroomingBacklogProblem, report.Problems[1].Type)
	assert.Equal(t, schema.WarningSeverity, report.Problems[1].Severity)
	assert.Equal(t, 60, report.Problems[1].Count)
}

func TestAgeBucketBoundaries(t *testing.T) {
	a := NewDefaultAnalyzer()
	tests := []struct {
		days     int
		expected schema.AgeBucket
	}{
		{-3, schema.FreshBucket},
		{0, schema.FreshBucket},
		{7, schema.FreshBucket},
		{8, schema.RecentBucket},
		{28, schema.RecentBucket},
		{29, schema.AgingBucket},
		{90, schema.AgingBucket},
		{91, schema.StaleBucket},
		{180, schema.StaleBucket},
		{181, schema.AncientBucket},
		{2000, schema.AncientBucket},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d days", tt.days), func(t *testing.T) {
			created := fixedNow.Add(-time.Duration(tt.days) * day)
			assert.Equal(t, tt.expected, a.AgeBucketFor(created, fixedNow))
		})
	}

	t.Run("partial days round down", func(t *testing.T) {
		created := fixedNow.Add(-(7*day + 23*time.Hour))
		assert.Equal(t, schema.FreshBucket, a.AgeBucketFor(created, fixedNow))
	})
}

func TestPriorityPrecedence(t *testing.T) {
	a := NewDefaultAnalyzer()
	tests := []struct {
		name     string
		labels   []string
		expected schema.PriorityBucket
	}{
		{"high and low counts as high", []string{"prio-low", "prio-high"}, schema.HighPriority},
		{"medium and low counts as medium", []string{"prio-low", "prio-medium"}, schema.MediumPriority},
		{"low only", []string{"prio-low"}, schema.LowPriority},
		{"unrelated labels", []string{"bug", "enhancement"}, schema.UngroomedBucket},
		{"no labels", nil, schema.UngroomedBucket},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, a.PriorityBucketFor(schema.Issue{Labels: tt.labels}))
		})
	}
}

func TestAnalyze_InjectedLabels(t *testing.T) {
	labels := schema.LabelConfig{High: "P0", Medium: "P1", Low: "P2"}
	a := NewBacklogAnalyzer(labels, schema.DefaultHealthThresholds())

	issues := append(makeIssues(2, 1, 1, "P0"), makeIssues(3, 1, 1, "prio-high")...)
	report := a.Analyze(issues, fixedNow)

	assert.Equal(t, 2, report.PriorityBalance.High)
	assert.Equal(t, 3, report.PriorityBalance.Ungroomed, "default label names mean nothing to a custom config")
}

func TestAnalyze_Velocity(t *testing.T) {
	var issues []schema.Issue
	// Groomed 10 days after creation, touched recently.
	issues = append(issues, makeIssues(2, 20, 10, "prio-medium")...)
	// Groomed 40 days after creation, last touched outside the window.
	issues = append(issues, makeIssues(1, 100, 60, "prio-low")...)
	// Ungroomed and recent.
	issues = append(issues, makeIssues(3, 5, 5)...)

	closedAt := fixedNow.Add(-2 * day)
	closed := makeIssues(1, 50, 2)
	closed[0].State = "closed"
	closed[0].ClosedAt = &closedAt
	issues = append(issues, closed...)

	vel := NewDefaultAnalyzer().Analyze(issues, fixedNow).Velocity

	assert.Equal(t, 7, vel.TotalIssues)
	assert.Equal(t, 5, vel.IssuesCreatedInWindow)
	assert.Equal(t, 2, vel.IssuesGroomedInWindow)
	assert.Equal(t, 1, vel.IssuesClosedInWindow)
	assert.Equal(t, 4, vel.NetGrowthRate)
	assert.InDelta(t, 20.0, vel.AverageAgeToGroom, 1e-9, "(10 + 10 + 40) / 3")
}

func TestAnalyze_WindowEdgeIsInclusive(t *testing.T) {
	issues := makeIssues(1, 30, 30, "prio-low")
	vel := NewDefaultAnalyzer().Analyze(issues, fixedNow).Velocity

	assert.Equal(t, 1, vel.IssuesCreatedInWindow)
	assert.Equal(t, 1, vel.IssuesGroomedInWindow)
}

func TestAnalyze_WindowDaysFollowsThresholds(t *testing.T) {
	issues := makeIssues(1, 10, 10, "prio-low")
	assert.Equal(t, 30, NewDefaultAnalyzer().Analyze(issues, fixedNow).Velocity.WindowDays)

	th := schema.DefaultHealthThresholds()
	th.VelocityWindowDays = 7
	vel := NewBacklogAnalyzer(schema.DefaultLabelConfig(), th).Analyze(issues, fixedNow).Velocity

	assert.Equal(t, 7, vel.WindowDays)
	assert.Equal(t, 0, vel.IssuesCreatedInWindow)
	assert.Equal(t, 0, vel.IssuesGroomedInWindow)
}

func TestAnalyze_BucketsPartitionInput(t *testing.T) {
	a := NewDefaultAnalyzer()
	var issues []schema.Issue
	labelSets := [][]string{nil, {"prio-high"}, {"prio-medium"}, {"prio-low", "prio-high"}, {"bug"}}
	for i := range 250 {
		issues = append(issues, schema.Issue{
			Number:    i,
			CreatedAt: fixedNow.Add(-time.Duration(i*3) * day),
			UpdatedAt: fixedNow.Add(-time.Duration(i) * day),
			Labels:    labelSets[i%len(labelSets)],
		})
	}

	for n := 0; n <= len(issues); n += 25 {
		report := a.Analyze(issues[:n], fixedNow)
		assert.Equal(t, n, report.AgeDistribution.Total())
		assert.Equal(t, n, report.PriorityBalance.Total())
		assert.Equal(t, n, report.Velocity.TotalIssues)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	a := NewDefaultAnalyzer()
	issues := append(makeIssues(40, 200, 10, "prio-high"), makeIssues(70, 3, 3)...)

	first := a.Analyze(issues, fixedNow)
	second := a.Analyze(issues, fixedNow)
	assert.Equal(t, first, second)
}

func BenchmarkAnalyze(b *testing.B) {
	a := NewDefaultAnalyzer()
	issues := append(makeIssues(500, 200, 10, "prio-high"), makeIssues(500, 3, 3)...)
	for b.Loop() {
		_ = a.Analyze(issues, fixedNow)
	}
}
