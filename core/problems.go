package core

import (
	"fmt"
	"math"

	"github.com/huangsam/groomer/schema"
)

// detectProblems runs each rule in a fixed order so the output is stable.
func (a *BacklogAnalyzer) detectProblems(ages schema.AgeDistribution, prio schema.PriorityBalance, vel schema.Velocity) []schema.Problem {
	t := a.thresholds
	problems := make([]schema.Problem, 0, 4)

	if total := ages.Total(); total > 0 {
		ratio := float64(ages.Ancient) / float64(total)
		if ratio > t.AncientRatio {
			problems = append(problems, schema.Problem{
				Type:     schema.AncientIssuesProblem,
				Severity: schema.CriticalSeverity,
				Message:  fmt.Sprintf("%d issues are over %s old (%d%% of backlog)", ages.Ancient, describeAge(t.StaleMaxDays), int(math.Round(ratio*100))),
				Count:    ages.Ancient,
			})
		}
	}

	if prio.Prioritized() > 0 && prio.High > prio.Medium+prio.Low {
		problems = append(problems, schema.Problem{
			Type:     schema.PrioritySkewProblem,
			Severity: schema.WarningSeverity,
			Message:  fmt.Sprintf("Too many high priority issues (%d) compared to medium + low (%d)", prio.High, prio.Medium+prio.Low),
			Count:    prio.High,
		})
	}

	if prio.Ungroomed > t.UngroomedLimit {
		severity := schema.WarningSeverity
		if prio.Ungroomed > t.UngroomedCritical {
			severity = schema.CriticalSeverity
		}
		problems = append(problems, schema.Problem{
			Type:     schema.GroomingBacklogProblem,
			Severity: severity,
			Message:  fmt.Sprintf("%d issues need grooming", prio.Ungroomed),
			Count:    prio.Ungroomed,
		})
	}

	if vel.IssuesCreatedInWindow > t.CreationRateMax {
		problems = append(problems, schema.Problem{
			Type:     schema.CreationRateProblem,
			Severity: schema.WarningSeverity,
			Message:  fmt.Sprintf("High issue creation rate: %d issues in last %d days", vel.IssuesCreatedInWindow, t.VelocityWindowDays),
			Count:    vel.IssuesCreatedInWindow,
		})
	}

	return problems
}

// describeAge renders an age bound in months when it divides evenly.
func describeAge(days int) string {
	switch {
	case days == 30:
		return "1 month"
	case days > 0 && days%30 == 0:
		return fmt.Sprintf("%d months", days/30)
	}
	return fmt.Sprintf("%d days", days)
}
