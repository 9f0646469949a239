package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/schema"
)

const snapshotTimeLayout = "2006-01-02 15:04"

// WriteHistory outputs stored health snapshots, newest first.
func WriteHistory(snapshots []schema.HealthSnapshotRecord, cfg *contract.Config) error {
	if snapshots == nil {
		snapshots = []schema.HealthSnapshotRecord{}
	}
	return dispatch(cfg, "history",
		func(w io.Writer) error { return writeHistoryTable(w, snapshots) },
		func(w io.Writer) error { return writeHistoryCSV(w, snapshots) },
		snapshots,
	)
}

func writeHistoryTable(w io.Writer, snapshots []schema.HealthSnapshotRecord) error {
	if len(snapshots) == 0 {
		_, err := fmt.Fprintln(w, "No health history recorded yet. Run 'groomer health' first.")
		return err
	}

	table := newTable(w, "Run", "Repo", "Time", "Issues", "Ancient", "Ungroomed", "Score", "Rating")
	for _, s := range snapshots {
		row := []string{
			strconv.FormatInt(s.RunID, 10),
			s.Repo,
			s.SnapshotTime.Local().Format(snapshotTimeLayout),
			strconv.Itoa(int(s.Total())),
			strconv.Itoa(int(s.Ancient)),
			strconv.Itoa(int(s.Ungroomed)),
			contract.GetScoreLabel(int(s.Score)),
			contract.GetRatingLabel(schema.HealthRating(s.Rating)),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func writeHistoryCSV(w io.Writer, snapshots []schema.HealthSnapshotRecord) error {
	header := []string{
		"run_id", "repo", "snapshot_time",
		"fresh", "recent", "aging", "stale", "ancient",
		"high", "medium", "low", "ungroomed",
		"created_in_window", "groomed_in_window", "avg_age_to_groom",
		"age_health", "priority_health", "velocity_health", "score", "rating",
	}
	itoa := func(v int32) string { return strconv.Itoa(int(v)) }
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, s := range snapshots {
			row := []string{
				strconv.FormatInt(s.RunID, 10), s.Repo, s.SnapshotTime.Format(contract.DateTimeFormat),
				itoa(s.Fresh), itoa(s.Recent), itoa(s.Aging), itoa(s.Stale), itoa(s.Ancient),
				itoa(s.High), itoa(s.Medium), itoa(s.Low), itoa(s.Ungroomed),
				itoa(s.CreatedInWindow), itoa(s.GroomedInWindow), strconv.FormatFloat(s.AvgAgeToGroom, 'f', 2, 64),
				itoa(s.AgeHealth), itoa(s.PriorityHealth), itoa(s.VelocityHealth), itoa(s.Score), s.Rating,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteTrend outputs the comparison of the two latest snapshots of a repository.
func WriteTrend(trend schema.HealthTrend, cfg *contract.Config) error {
	return dispatch(cfg, "trend",
		func(w io.Writer) error { return writeTrendTable(w, trend) },
		func(w io.Writer) error { return writeTrendCSV(w, trend) },
		trend,
	)
}

// directionLabel colors a trend direction.
func directionLabel(d schema.TrendDirection) string {
	var c *color.Color
	switch d {
	case schema.ImprovingTrend:
		c = contract.HealthyColor
	case schema.DecliningTrend:
		c = contract.CriticalColor
	default:
		c = contract.InfoColor
	}
	return c.Sprint(string(d))
}

// signedDelta formats a delta with an explicit sign.
func signedDelta(v int32) string {
	return fmt.Sprintf("%+d", v)
}

// trendRows pairs each tracked metric with its previous, latest and delta values.
func trendRows(trend schema.HealthTrend) [][]string {
	if len(trend.Points) < 2 {
		return nil
	}
	latest, previous := trend.Points[0], trend.Points[1]
	return [][]string{
		{"score", strconv.Itoa(int(previous.Score)), strconv.Itoa(int(latest.Score)), signedDelta(trend.ScoreDelta)},
		{"total", strconv.Itoa(int(previous.Total())), strconv.Itoa(int(latest.Total())), signedDelta(trend.TotalDelta)},
		{"ungroomed", strconv.Itoa(int(previous.Ungroomed)), strconv.Itoa(int(latest.Ungroomed)), signedDelta(trend.UngroomedDelta)},
		{"ancient", strconv.Itoa(int(previous.Ancient)), strconv.Itoa(int(latest.Ancient)), signedDelta(trend.AncientDelta)},
	}
}

func writeTrendTable(w io.Writer, trend schema.HealthTrend) error {
	if _, err := fmt.Fprintf(w, "Health trend for %s: %s\n", trend.Repo, directionLabel(trend.Direction)); err != nil {
		return err
	}
	rows := trendRows(trend)
	if rows == nil {
		_, err := fmt.Fprintf(w, "Only %d snapshot(s) recorded. Run 'groomer health' again to see a trend.\n", len(trend.Points))
		return err
	}
	latest, previous := trend.Points[0], trend.Points[1]
	if _, err := fmt.Fprintf(w, "Comparing run %d (%s) with run %d (%s)\n\n",
		latest.RunID, latest.SnapshotTime.Local().Format(snapshotTimeLayout),
		previous.RunID, previous.SnapshotTime.Local().Format(snapshotTimeLayout)); err != nil {
		return err
	}
	return renderTable(w, []string{"Metric", "Previous", "Latest", "Delta"}, rows)
}

func writeTrendCSV(w io.Writer, trend schema.HealthTrend) error {
	header := []string{"repo", "metric", "previous", "latest", "delta", "direction"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, row := range trendRows(trend) {
			record := append([]string{trend.Repo}, row...)
			record = append(record, string(trend.Direction))
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}
