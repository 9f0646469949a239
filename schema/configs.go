package schema

import (
	"fmt"
	"slices"
	"strings"
)

// Default label names, matching a common prio-* convention.
const (
	DefaultHighLabel    = "prio-high"
	DefaultMediumLabel  = "prio-medium"
	DefaultLowLabel     = "prio-low"
	DefaultGroomedLabel = "groomed"
	DefaultExcludeLabel = "dependencies"
)

// LabelConfig maps the repository's label names onto grooming concepts.
type LabelConfig struct {
	High    string   `json:"high" yaml:"high"`
	Medium  string   `json:"medium" yaml:"medium"`
	Low     string   `json:"low" yaml:"low"`
	Groomed []string `json:"groomed" yaml:"groomed"`
	Exclude []string `json:"exclude" yaml:"exclude"`
}

// DefaultLabelConfig returns the labels used when nothing is configured.
func DefaultLabelConfig() LabelConfig {
	return LabelConfig{
		High:    DefaultHighLabel,
		Medium:  DefaultMediumLabel,
		Low:     DefaultLowLabel,
		Groomed: []string{DefaultGroomedLabel},
		Exclude: []string{DefaultExcludeLabel},
	}
}

// PriorityLabels returns the priority labels in precedence order.
func (l LabelConfig) PriorityLabels() []string {
	return []string{l.High, l.Medium, l.Low}
}

// LabelFor returns the label name assigned to a priority level.
func (l LabelConfig) LabelFor(level PriorityBucket) (string, error) {
	switch level {
	case HighPriority:
		return l.High, nil
	case MediumPriority:
		return l.Medium, nil
	case LowPriority:
		return l.Low, nil
	default:
		return "", fmt.Errorf("invalid priority level '%s'. must be high, medium, low", level)
	}
}

// PriorityOf returns the first priority label found on the issue in
// precedence order, or UngroomedBucket.
func (l LabelConfig) PriorityOf(issue Issue) PriorityBucket {
	switch {
	case issue.HasLabel(l.High):
		return HighPriority
	case issue.HasLabel(l.Medium):
		return MediumPriority
	case issue.HasLabel(l.Low):
		return LowPriority
	default:
		return UngroomedBucket
	}
}

// Validate checks that all three priority labels are set and distinct.
func (l LabelConfig) Validate() error {
	seen := make(map[string]struct{}, 3)
	for _, name := range l.PriorityLabels() {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("all priority labels (high, medium, low) are required")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("priority label %q is used for more than one level", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Missing returns the configured priority and groomed labels absent from
// existing. GitHub label names compare case-insensitively.
func (l LabelConfig) Missing(existing []string) []string {
	var missing []string
	for _, name := range append(l.PriorityLabels(), l.Groomed...) {
		if name == "" || slices.Contains(missing, name) {
			continue
		}
		if !slices.ContainsFunc(existing, func(e string) bool { return strings.EqualFold(e, name) }) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Clone returns a deep copy.
func (l LabelConfig) Clone() LabelConfig {
	l.Groomed = slices.Clone(l.Groomed)
	l.Exclude = slices.Clone(l.Exclude)
	return l
}

// HealthThresholds holds every tunable constant of the backlog analyzer.
type HealthThresholds struct {
	// Inclusive upper bounds in days for the first four age buckets.
	FreshMaxDays  int `json:"fresh_max_days" yaml:"fresh_max_days"`
	RecentMaxDays int `json:"recent_max_days" yaml:"recent_max_days"`
	AgingMaxDays  int `json:"aging_max_days" yaml:"aging_max_days"`
	StaleMaxDays  int `json:"stale_max_days" yaml:"stale_max_days"`

	VelocityWindowDays int `json:"velocity_window_days" yaml:"velocity_window_days"`

	AncientPenalty float64 `json:"ancient_penalty" yaml:"ancient_penalty"`
	StalePenalty   float64 `json:"stale_penalty" yaml:"stale_penalty"`

	SkewPenalty          float64 `json:"skew_penalty" yaml:"skew_penalty"`
	UngroomedLimit       int     `json:"ungroomed_limit" yaml:"ungroomed_limit"`
	UngroomedPenalty     float64 `json:"ungroomed_penalty" yaml:"ungroomed_penalty"`
	UngroomedCritical    int     `json:"ungroomed_critical" yaml:"ungroomed_critical"`
	VelocityCapDays      float64 `json:"velocity_cap_days" yaml:"velocity_cap_days"`
	VelocityNoDataHealth float64 `json:"velocity_no_data_health" yaml:"velocity_no_data_health"`

	AgeWeight      float64 `json:"age_weight" yaml:"age_weight"`
	PriorityWeight float64 `json:"priority_weight" yaml:"priority_weight"`
	VelocityWeight float64 `json:"velocity_weight" yaml:"velocity_weight"`

	HealthyScore        int `json:"healthy_score" yaml:"healthy_score"`
	NeedsAttentionScore int `json:"needs_attention_score" yaml:"needs_attention_score"`

	AncientRatio    float64 `json:"ancient_ratio" yaml:"ancient_ratio"`
	CreationRateMax int     `json:"creation_rate_max" yaml:"creation_rate_max"`
}

// DefaultHealthThresholds returns the standard analyzer constants.
func DefaultHealthThresholds() HealthThresholds {
	return HealthThresholds{
		FreshMaxDays:         7,
		RecentMaxDays:        28,
		AgingMaxDays:         90,
		StaleMaxDays:         180,
		VelocityWindowDays:   30,
		AncientPenalty:       40,
		StalePenalty:         20,
		SkewPenalty:          30,
		UngroomedLimit:       50,
		UngroomedPenalty:     20,
		UngroomedCritical:    100,
		VelocityCapDays:      30,
		VelocityNoDataHealth: 80,
		AgeWeight:            0.4,
		PriorityWeight:       0.4,
		VelocityWeight:       0.2,
		HealthyScore:         80,
		NeedsAttentionScore:  60,
		AncientRatio:         0.3,
		CreationRateMax:      30,
	}
}

// Validate checks that the age bounds ascend and weights are sane.
func (h HealthThresholds) Validate() error {
	bounds := []int{h.FreshMaxDays, h.RecentMaxDays, h.AgingMaxDays, h.StaleMaxDays}
	for i, b := range bounds {
		if b < 0 || (i > 0 && b <= bounds[i-1]) {
			return fmt.Errorf("age bucket bounds must be non-negative and strictly increasing (received %v)", bounds)
		}
	}
	if h.VelocityWindowDays <= 0 {
		return fmt.Errorf("velocity window must be greater than 0 days (received %d)", h.VelocityWindowDays)
	}
	if h.AgeWeight < 0 || h.PriorityWeight < 0 || h.VelocityWeight < 0 {
		return fmt.Errorf("health weights cannot be negative")
	}
	if h.NeedsAttentionScore > h.HealthyScore {
		return fmt.Errorf("needs-attention score (%d) cannot exceed healthy score (%d)", h.NeedsAttentionScore, h.HealthyScore)
	}
	if h.UngroomedCritical < h.UngroomedLimit {
		return fmt.Errorf("ungroomed critical count (%d) cannot be below the ungroomed limit (%d)", h.UngroomedCritical, h.UngroomedLimit)
	}
	return nil
}
