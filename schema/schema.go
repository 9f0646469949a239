// Package schema has models and typed constants for all parts of groomer.
package schema

import (
	"slices"
	"time"
)

// Issue is an immutable snapshot of a GitHub issue.
// The analyzer only reads CreatedAt, UpdatedAt and Labels.
type Issue struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Body      string     `json:"body,omitempty"`
	State     string     `json:"state"`
	HTMLURL   string     `json:"html_url,omitempty"`
	Author    string     `json:"author,omitempty"`
	Comments  int        `json:"comments"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	Labels    []string   `json:"labels"`
}

// HasLabel reports whether the issue carries the named label.
func (i Issue) HasLabel(name string) bool {
	return name != "" && slices.Contains(i.Labels, name)
}

// HasAnyLabel reports whether the issue carries at least one of the names.
func (i Issue) HasAnyLabel(names ...string) bool {
	return slices.ContainsFunc(names, i.HasLabel)
}

// IsClosed reports whether the issue is closed.
func (i Issue) IsClosed() bool {
	return i.State == "closed"
}

// SearchQuery describes an issue search and which label groups to exclude.
type SearchQuery struct {
	Text                string `json:"text"`
	ExcludePrioritized  bool   `json:"exclude_prioritized"`
	ExcludeGroomed      bool   `json:"exclude_groomed"`
	ExcludeDependencies bool   `json:"exclude_dependencies"`
}

// IssueUpdate is a partial issue edit. Nil fields are left unchanged.
type IssueUpdate struct {
	Title  *string
	Body   *string
	Labels *[]string
}

// AgeDistribution counts issues per age bucket.
type AgeDistribution struct {
	Fresh   int `json:"fresh"`
	Recent  int `json:"recent"`
	Aging   int `json:"aging"`
	Stale   int `json:"stale"`
	Ancient int `json:"ancient"`
}

// Total returns the sum of all buckets.
func (a AgeDistribution) Total() int {
	return a.Fresh + a.Recent + a.Aging + a.Stale + a.Ancient
}

// Get returns the count for a bucket.
func (a AgeDistribution) Get(b AgeBucket) int {
	switch b {
	case FreshBucket:
		return a.Fresh
	case RecentBucket:
		return a.Recent
	case AgingBucket:
		return a.Aging
	case StaleBucket:
		return a.Stale
	case AncientBucket:
		return a.Ancient
	default:
		return 0
	}
}

// PriorityBalance counts issues per priority bucket.
type PriorityBalance struct {
	High      int `json:"high"`
	Medium    int `json:"medium"`
	Low       int `json:"low"`
	Ungroomed int `json:"ungroomed"`
}

// Total returns the sum of all buckets.
func (p PriorityBalance) Total() int {
	return p.High + p.Medium + p.Low + p.Ungroomed
}

// Prioritized returns the number of issues with any priority label.
func (p PriorityBalance) Prioritized() int {
	return p.High + p.Medium + p.Low
}

// Get returns the count for a bucket.
func (p PriorityBalance) Get(b PriorityBucket) int {
	switch b {
	case HighPriority:
		return p.High
	case MediumPriority:
		return p.Medium
	case LowPriority:
		return p.Low
	case UngroomedBucket:
		return p.Ungroomed
	default:
		return 0
	}
}

// Velocity describes grooming activity over a trailing window.
// AverageAgeToGroom uses UpdatedAt as a stand-in for the grooming time,
// so any edit on a prioritized issue counts as grooming.
// Closed counts only reflect issues in the snapshot that carry ClosedAt.
type Velocity struct {
	WindowDays            int     `json:"window_days"`
	IssuesCreatedInWindow int     `json:"issues_created_in_window"`
	IssuesGroomedInWindow int     `json:"issues_groomed_in_window"`
	IssuesClosedInWindow  int     `json:"issues_closed_in_window"`
	NetGrowthRate         int     `json:"net_growth_rate"`
	AverageAgeToGroom     float64 `json:"average_age_to_groom"`
	TotalIssues           int     `json:"total_issues"`
}

// HealthFactors are the three 0-100 sub-scores of the composite.
type HealthFactors struct {
	AgeHealth      int `json:"age_health"`
	PriorityHealth int `json:"priority_health"`
	VelocityHealth int `json:"velocity_health"`
}

// HealthScore is the composite backlog health.
type HealthScore struct {
	Score   int           `json:"score"`
	Rating  HealthRating  `json:"rating"`
	Factors HealthFactors `json:"factors"`
}

// Problem is a single finding from problem detection.
type Problem struct {
	Type     ProblemType `json:"type"`
	Severity Severity    `json:"severity"`
	Message  string      `json:"message"`
	Count    int         `json:"count,omitempty"`
}

// MetricsReport is the full result of analyzing one issue snapshot.
type MetricsReport struct {
	AgeDistribution AgeDistribution `json:"age_distribution"`
	PriorityBalance PriorityBalance `json:"priority_balance"`
	Velocity        Velocity        `json:"velocity"`
	HealthScore     HealthScore     `json:"health_score"`
	Problems        []Problem       `json:"problems"`
}

// HasCritical reports whether any problem is critical.
func (r MetricsReport) HasCritical() bool {
	return slices.ContainsFunc(r.Problems, func(p Problem) bool {
		return p.Severity == CriticalSeverity
	})
}

// RepoReport pairs a report with the repository it describes.
type RepoReport struct {
	Repo        string        `json:"repo"`
	GeneratedAt time.Time     `json:"generated_at"`
	RunUUID     string        `json:"run_uuid,omitempty"`
	Report      MetricsReport `json:"report"`
}
