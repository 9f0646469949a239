package core

import (
	"math"

	"github.com/huangsam/groomer/schema"
)

// healthScore combines the three 0-100 factors into the composite score.
// Factors are rounded for display, but the composite uses the raw values.
func (a *BacklogAnalyzer) healthScore(ages schema.AgeDistribution, prio schema.PriorityBalance, vel schema.Velocity) schema.HealthScore {
	t := a.thresholds

	ageHealth := computeAgeHealth(ages, t)
	priorityHealth := computePriorityHealth(prio, t)
	velocityHealth := computeVelocityHealth(vel, prio.Prioritized() > 0, t)

	score := int(math.Round(ageHealth*t.AgeWeight + priorityHealth*t.PriorityWeight + velocityHealth*t.VelocityWeight))

	return schema.HealthScore{
		Score:  score,
		Rating: a.RatingFor(score),
		Factors: schema.HealthFactors{
			AgeHealth:      int(math.Round(ageHealth)),
			PriorityHealth: int(math.Round(priorityHealth)),
			VelocityHealth: int(math.Round(velocityHealth)),
		},
	}
}

// RatingFor maps a composite score onto its categorical label.
func (a *BacklogAnalyzer) RatingFor(score int) schema.HealthRating {
	switch {
	case score >= a.thresholds.HealthyScore:
		return schema.HealthyRating
	case score >= a.thresholds.NeedsAttentionScore:
		return schema.NeedsAttentionRating
	default:
		return schema.CriticalRating
	}
}

// computeAgeHealth penalizes the share of ancient and stale issues.
func computeAgeHealth(ages schema.AgeDistribution, t schema.HealthThresholds) float64 {
	total := ages.Total()
	if total == 0 {
		return 100
	}
	ancientShare := float64(ages.Ancient) / float64(total)
	staleShare := float64(ages.Stale) / float64(total)
	return clamp100(100 - (ancientShare*t.AncientPenalty + staleShare*t.StalePenalty))
}

// computePriorityHealth rewards a bottom-heavy priority pyramid and a small ungroomed pile.
func computePriorityHealth(prio schema.PriorityBalance, t schema.HealthThresholds) float64 {
	if prio.Prioritized() == 0 {
		return clamp100(100 - float64(min(prio.Ungroomed, t.UngroomedLimit)))
	}
	health := 100.0
	if prio.High > prio.Medium+prio.Low {
		health -= t.SkewPenalty
	}
	if prio.Ungroomed > t.UngroomedLimit {
		health -= t.UngroomedPenalty
	}
	return clamp100(health)
}

// computeVelocityHealth falls back to a neutral value when nothing has been groomed.
// An average of zero days is real data and scores full health.
func computeVelocityHealth(vel schema.Velocity, hasGroomed bool, t schema.HealthThresholds) float64 {
	if !hasGroomed {
		return t.VelocityNoDataHealth
	}
	return clamp100(100 - math.Min(vel.AverageAgeToGroom, t.VelocityCapDays))
}

// clamp100 bounds v to [0, 100].
func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
