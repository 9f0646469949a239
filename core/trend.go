package core

import (
	"errors"
	"fmt"

	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/schema"
)

// ErrHistoryDisabled is returned by history operations when no history store is configured.
var ErrHistoryDisabled = errors.New("health history is disabled. Set --history-backend to sqlite, mysql or postgresql")

// BuildTrend compares the two newest snapshots. points must be newest first.
func BuildTrend(repo string, points []schema.HealthSnapshotRecord) schema.HealthTrend {
	trend := schema.HealthTrend{Repo: repo, Points: points, Direction: schema.NewTrend}
	if len(points) < 2 {
		return trend
	}

	latest, previous := points[0], points[1]
	trend.ScoreDelta = latest.Score - previous.Score
	trend.TotalDelta = latest.Total() - previous.Total()
	trend.UngroomedDelta = latest.Ungroomed - previous.Ungroomed
	trend.AncientDelta = latest.Ancient - previous.Ancient

	switch {
	case trend.ScoreDelta > 0:
		trend.Direction = schema.ImprovingTrend
	case trend.ScoreDelta < 0:
		trend.Direction = schema.DecliningTrend
	default:
		trend.Direction = schema.StableTrend
	}
	return trend
}

// RecentSnapshots returns up to limit snapshots of repo, newest first.
func (e *Executor) RecentSnapshots(repo string, limit int) ([]schema.HealthSnapshotRecord, error) {
	store := e.history()
	if store == nil {
		return nil, ErrHistoryDisabled
	}
	snapshots, err := store.GetRecentSnapshots(repo, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load health history for %s: %w", repo, err)
	}
	return snapshots, nil
}

// ExecuteHistory renders the recent snapshots of the default repository.
func (e *Executor) ExecuteHistory(cfg *contract.Config, limit int) error {
	repo, err := defaultRepo(cfg)
	if err != nil {
		return err
	}
	snapshots, err := e.RecentSnapshots(repo, limit)
	if err != nil {
		return err
	}
	return e.Output.WriteHistory(snapshots, cfg)
}

// ExecuteTrend renders the score movement between the two latest runs.
func (e *Executor) ExecuteTrend(cfg *contract.Config, limit int) error {
	repo, err := defaultRepo(cfg)
	if err != nil {
		return err
	}
	snapshots, err := e.RecentSnapshots(repo, max(limit, 2))
	if err != nil {
		return err
	}
	return e.Output.WriteTrend(BuildTrend(repo, snapshots), cfg)
}

func defaultRepo(cfg *contract.Config) (string, error) {
	owner, name, err := cfg.DefaultRepo()
	if err != nil {
		return "", err
	}
	return owner + "/" + name, nil
}
