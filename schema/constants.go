package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for state and history.
	DatabaseBackend string

	// AgeBucket represents one of the disjoint issue age buckets.
	AgeBucket string

	// PriorityBucket represents one of the disjoint priority buckets.
	PriorityBucket string

	// HealthRating represents the categorical label of a health score.
	HealthRating string

	// Severity represents how urgent a detected problem is.
	Severity string

	// ProblemType identifies the rule that produced a problem.
	ProblemType string

	// TrendDirection summarizes how the score moved between two snapshots.
	TrendDirection string
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Age buckets, youngest first.
const (
	FreshBucket   AgeBucket = "fresh"
	RecentBucket  AgeBucket = "recent"
	AgingBucket   AgeBucket = "aging"
	StaleBucket   AgeBucket = "stale"
	AncientBucket AgeBucket = "ancient"
)

// Priority buckets in precedence order, ungroomed last.
const (
	HighPriority    PriorityBucket = "high"
	MediumPriority  PriorityBucket = "medium"
	LowPriority     PriorityBucket = "low"
	UngroomedBucket PriorityBucket = "ungroomed"
)

// Health ratings.
const (
	HealthyRating        HealthRating = "healthy"
	NeedsAttentionRating HealthRating = "needs-attention"
	CriticalRating       HealthRating = "critical"
)

// Problem severities.
const (
	WarningSeverity  Severity = "warning"
	CriticalSeverity Severity = "critical"
)

// Problem types, in evaluation order.
const (
	AncientIssuesProblem   ProblemType = "ancient-issues"
	PrioritySkewProblem    ProblemType = "priority-skew"
	GroomingBacklogProblem ProblemType = "grooming-backlog"
	CreationRateProblem    ProblemType = "creation-rate"
)

// Trend directions.
const (
	ImprovingTrend TrendDirection = "improving"
	DecliningTrend TrendDirection = "declining"
	StableTrend    TrendDirection = "stable"
	NewTrend       TrendDirection = "new" // fewer than two snapshots
)

// AllAgeBuckets lists age buckets youngest first.
var AllAgeBuckets = []AgeBucket{FreshBucket, RecentBucket, AgingBucket, StaleBucket, AncientBucket}

// AllPriorityBuckets lists priority buckets in precedence order.
var AllPriorityBuckets = []PriorityBucket{HighPriority, MediumPriority, LowPriority, UngroomedBucket}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidPriorityLevels lists the levels a user can assign while triaging.
var ValidPriorityLevels = map[PriorityBucket]struct{}{
	HighPriority:   {},
	MediumPriority: {},
	LowPriority:    {},
}
