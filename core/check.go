package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/schema"
)

// ErrCheckFailed is returned when at least one repository fails the gate.
var ErrCheckFailed = errors.New("backlog health check failed")

// EvaluateCheck gates a report: it passes when the score reaches minScore and
// no critical problem was detected.
func EvaluateCheck(rr schema.RepoReport, minScore int) schema.CheckResult {
	var critical []schema.Problem
	for _, p := range rr.Report.Problems {
		if p.Severity == schema.CriticalSeverity {
			critical = append(critical, p)
		}
	}
	score := rr.Report.HealthScore.Score
	return schema.CheckResult{
		Repo:     rr.Repo,
		Score:    score,
		MinScore: minScore,
		Critical: critical,
		Passed:   score >= minScore && len(critical) == 0,
	}
}

// ExecuteCheck runs the health analysis for CI/CD gating. The results are
// always written; ErrCheckFailed is returned when any repository failed so
// the caller can exit non-zero.
func (e *Executor) ExecuteCheck(ctx context.Context, cfg *contract.Config) ([]schema.CheckResult, error) {
	reports, err := e.CollectReports(ctx, cfg)
	if err != nil {
		return nil, err
	}

	results := make([]schema.CheckResult, 0, len(reports))
	failed := 0
	for _, rr := range reports {
		res := EvaluateCheck(rr, cfg.MinScore)
		if !res.Passed {
			failed++
		}
		results = append(results, res)
	}

	if err := e.Output.WriteCheck(results, cfg); err != nil {
		return results, err
	}
	if failed > 0 {
		return results, fmt.Errorf("%w: %d of %d repositories", ErrCheckFailed, failed, len(results))
	}
	return results, nil
}
