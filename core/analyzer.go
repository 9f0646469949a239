package core

import (
	"math"
	"time"

	"github.com/huangsam/groomer/schema"
)

const day = 24 * time.Hour

// BacklogAnalyzer computes backlog health from issue snapshots.
// It holds no mutable state, so a single value can be shared across goroutines.
type BacklogAnalyzer struct {
	labels     schema.LabelConfig
	thresholds schema.HealthThresholds
}

// NewBacklogAnalyzer creates an analyzer for the given label mapping and thresholds.
func NewBacklogAnalyzer(labels schema.LabelConfig, thresholds schema.HealthThresholds) *BacklogAnalyzer {
	return &BacklogAnalyzer{labels: labels.Clone(), thresholds: thresholds}
}

// NewDefaultAnalyzer creates an analyzer with default labels and thresholds.
func NewDefaultAnalyzer() *BacklogAnalyzer {
	return NewBacklogAnalyzer(schema.DefaultLabelConfig(), schema.DefaultHealthThresholds())
}

// Analyze builds a fresh report for the issues as of now.
// It never fails: an empty slice yields an empty, healthy report.
func (a *BacklogAnalyzer) Analyze(issues []schema.Issue, now time.Time) schema.MetricsReport {
	ages := a.ageDistribution(issues, now)
	prio := a.priorityBalance(issues)
	vel := a.velocity(issues, now)

	return schema.MetricsReport{
		AgeDistribution: ages,
		PriorityBalance: prio,
		Velocity:        vel,
		HealthScore:     a.healthScore(ages, prio, vel),
		Problems:        a.detectProblems(ages, prio, vel),
	}
}

// AgeBucketFor places an issue created at created into an age bucket.
func (a *BacklogAnalyzer) AgeBucketFor(created, now time.Time) schema.AgeBucket {
	days := daysBetween(created, now)
	t := a.thresholds
	switch {
	case days <= t.FreshMaxDays:
		return schema.FreshBucket
	case days <= t.RecentMaxDays:
		return schema.RecentBucket
	case days <= t.AgingMaxDays:
		return schema.AgingBucket
	case days <= t.StaleMaxDays:
		return schema.StaleBucket
	default:
		return schema.AncientBucket
	}
}

// PriorityBucketFor returns the first priority label found in precedence order.
func (a *BacklogAnalyzer) PriorityBucketFor(issue schema.Issue) schema.PriorityBucket {
	return a.labels.PriorityOf(issue)
}

// IsGroomed reports whether the issue has any priority label.
func (a *BacklogAnalyzer) IsGroomed(issue schema.Issue) bool {
	return issue.HasAnyLabel(a.labels.PriorityLabels()...)
}

func (a *BacklogAnalyzer) ageDistribution(issues []schema.Issue, now time.Time) schema.AgeDistribution {
	var dist schema.AgeDistribution
	for _, issue := range issues {
		switch a.AgeBucketFor(issue.CreatedAt, now) {
		case schema.FreshBucket:
			dist.Fresh++
		case schema.RecentBucket:
			dist.Recent++
		case schema.AgingBucket:
			dist.Aging++
		case schema.StaleBucket:
			dist.Stale++
		default:
			dist.Ancient++
		}
	}
	return dist
}

func (a *BacklogAnalyzer) priorityBalance(issues []schema.Issue) schema.PriorityBalance {
	var bal schema.PriorityBalance
	for _, issue := range issues {
		switch a.PriorityBucketFor(issue) {
		case schema.HighPriority:
			bal.High++
		case schema.MediumPriority:
			bal.Medium++
		case schema.LowPriority:
			bal.Low++
		default:
			bal.Ungroomed++
		}
	}
	return bal
}

func (a *BacklogAnalyzer) velocity(issues []schema.Issue, now time.Time) schema.Velocity {
	windowStart := now.Add(-time.Duration(a.thresholds.VelocityWindowDays) * day)

	vel := schema.Velocity{WindowDays: a.thresholds.VelocityWindowDays, TotalIssues: len(issues)}
	groomed, groomedDays := 0, 0
	for _, issue := range issues {
		if !issue.CreatedAt.Before(windowStart) {
			vel.IssuesCreatedInWindow++
		}
		if issue.ClosedAt != nil && !issue.ClosedAt.Before(windowStart) {
			vel.IssuesClosedInWindow++
		}
		if !a.IsGroomed(issue) {
			continue
		}
		groomed++
		groomedDays += daysBetween(issue.CreatedAt, issue.UpdatedAt)
		if !issue.UpdatedAt.Before(windowStart) {
			vel.IssuesGroomedInWindow++
		}
	}
	if groomed > 0 {
		vel.AverageAgeToGroom = float64(groomedDays) / float64(groomed)
	}
	vel.NetGrowthRate = vel.IssuesCreatedInWindow - vel.IssuesClosedInWindow
	return vel
}

// daysBetween returns whole days elapsed from start to end, rounded down.
func daysBetween(start, end time.Time) int {
	return int(math.Floor(float64(end.Sub(start)) / float64(day)))
}
