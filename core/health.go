package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/schema"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrNoRepo is returned when no repository was given or configured.
var ErrNoRepo = errors.New("no repository configured. Pass owner/repo or set 'repo' in .groomer.yaml")

// ExecuteHealth analyzes every configured repository and renders the reports.
// It serves as the main entry point for the 'health' command.
func (e *Executor) ExecuteHealth(ctx context.Context, cfg *contract.Config) error {
	start := time.Now()
	reports, err := e.CollectReports(ctx, cfg)
	if err != nil {
		return err
	}
	return e.Output.WriteReports(reports, cfg, time.Since(start))
}

// CollectReports fetches and analyzes each repository in cfg.Repos, running at
// most cfg.Workers repositories at once. Each repository's own requests stay
// sequential. Reports keep the order of cfg.Repos.
func (e *Executor) CollectReports(ctx context.Context, cfg *contract.Config) ([]schema.RepoReport, error) {
	if len(cfg.Repos) == 0 {
		return nil, ErrNoRepo
	}

	analyzer := NewBacklogAnalyzer(cfg.Labels, cfg.Thresholds)
	reports := make([]schema.RepoReport, len(cfg.Repos))

	stop := StartSpinner(e.Progress, fmt.Sprintf(" Fetching issues for %d repositories...", len(cfg.Repos)))
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for i, repo := range cfg.Repos {
		g.Go(func() error {
			rr, err := e.analyzeRepo(gctx, cfg, analyzer, repo)
			if err != nil {
				return fmt.Errorf("%s: %w", repo, err)
			}
			reports[i] = rr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// healthQuery keeps prioritized and groomed issues in the snapshot so the
// priority balance stays meaningful.
func healthQuery(cfg *contract.Config) schema.SearchQuery {
	return schema.SearchQuery{
		Text:                cfg.Query,
		ExcludeDependencies: cfg.ExcludeDependencies,
	}
}

// runParams is stored with each history run.
func runParams(cfg *contract.Config) map[string]any {
	return map[string]any{
		"query":                cfg.Query,
		"exclude_dependencies": cfg.ExcludeDependencies,
		"labels":               cfg.Labels,
		"thresholds":           cfg.Thresholds,
	}
}

func (e *Executor) analyzeRepo(ctx context.Context, cfg *contract.Config, analyzer *BacklogAnalyzer, repo string) (schema.RepoReport, error) {
	owner, name, err := contract.SplitRepo(repo)
	if err != nil {
		return schema.RepoReport{}, err
	}
	repo = owner + "/" + name
	logger := e.log().WithField("repo", repo)

	store := e.history()
	var runID int64
	var runUUID string
	if store != nil {
		runID, runUUID, err = store.BeginRun(repo, e.clock(), runParams(cfg))
		if err != nil {
			logger.WithError(err).Warn("history disabled for this run")
			store = nil
		}
	}

	issues, err := e.Source.SearchAllIssues(ctx, owner, name, healthQuery(cfg))
	if err != nil {
		if store != nil {
			_ = store.EndRun(runID, e.clock(), 0)
		}
		return schema.RepoReport{}, fmt.Errorf("failed to fetch issues: %w", err)
	}

	now := e.clock()
	report := analyzer.Analyze(issues, now)
	logger.WithFields(logrus.Fields{
		"issues": len(issues),
		"score":  report.HealthScore.Score,
		"rating": report.HealthScore.Rating,
	}).Debug("analyzed backlog")

	if store != nil {
		if err := store.RecordReport(runID, repo, now, report); err != nil {
			logger.WithError(err).Warn("failed to record health snapshot")
		}
		if err := store.EndRun(runID, e.clock(), len(issues)); err != nil {
			logger.WithError(err).Warn("failed to finish history run")
		}
	}

	return schema.RepoReport{
		Repo:        repo,
		GeneratedAt: now,
		RunUUID:     runUUID,
		Report:      report,
	}, nil
}
