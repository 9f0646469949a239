package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteReports outputs health reports, dispatching on the configured format.
// A single report is written as a bare MetricsReport in JSON and as
// section,metric,value rows in CSV. Several reports add the repository.
func WriteReports(reports []schema.RepoReport, cfg *contract.Config, duration time.Duration) error {
	var jsonValue any = reports
	if len(reports) == 1 {
		jsonValue = reports[0].Report
	}
	return dispatch(cfg, "report",
		func(w io.Writer) error { return writeReportTables(w, reports, cfg, duration) },
		func(w io.Writer) error { return writeReportCSV(w, reports) },
		jsonValue,
	)
}

// newTable returns a table with right-aligned rows.
func newTable(w io.Writer, headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	return table
}

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := newTable(w, headers...)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// ageRanges describes the inclusive day range of each bucket.
func ageRanges(t schema.HealthThresholds) map[schema.AgeBucket]string {
	return map[schema.AgeBucket]string{
		schema.FreshBucket:   fmt.Sprintf("0-%d", t.FreshMaxDays),
		schema.RecentBucket:  fmt.Sprintf("%d-%d", t.FreshMaxDays+1, t.RecentMaxDays),
		schema.AgingBucket:   fmt.Sprintf("%d-%d", t.RecentMaxDays+1, t.AgingMaxDays),
		schema.StaleBucket:   fmt.Sprintf("%d-%d", t.AgingMaxDays+1, t.StaleMaxDays),
		schema.AncientBucket: fmt.Sprintf(">%d", t.StaleMaxDays),
	}
}

// writeReportTables renders each report as a set of small tables.
func writeReportTables(w io.Writer, reports []schema.RepoReport, cfg *contract.Config, duration time.Duration) error {
	totalIssues := 0
	for i, rr := range reports {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := writeReportTable(w, rr, cfg); err != nil {
			return err
		}
		totalIssues += rr.Report.AgeDistribution.Total()
	}

	_, err := fmt.Fprintf(w, "Analyzed %d issues across %d repositories in %v. History backend: %s\n",
		totalIssues, len(reports), duration.Round(time.Millisecond), cfg.HistoryBackend)
	return err
}

func writeReportTable(w io.Writer, rr schema.RepoReport, cfg *contract.Config) error {
	r := rr.Report
	hs := r.HealthScore
	if _, err := fmt.Fprintf(w, "Backlog health for %s: %s (%s)\n\n",
		rr.Repo, contract.GetScoreLabel(hs.Score), contract.GetRatingLabel(hs.Rating)); err != nil {
		return err
	}

	total := r.AgeDistribution.Total()
	ranges := ageRanges(cfg.Thresholds)
	var ageRows [][]string
	for _, b := range schema.AllAgeBuckets {
		n := r.AgeDistribution.Get(b)
		ageRows = append(ageRows, []string{string(b), ranges[b], strconv.Itoa(n), percent(n, total)})
	}
	if err := renderTable(w, []string{"Age", "Days", "Issues", "Share"}, ageRows); err != nil {
		return err
	}

	var prioRows [][]string
	for _, b := range schema.AllPriorityBuckets {
		label, _ := cfg.Labels.LabelFor(b)
		if b == schema.UngroomedBucket {
			label = "-"
		}
		n := r.PriorityBalance.Get(b)
		prioRows = append(prioRows, []string{string(b), label, strconv.Itoa(n), percent(n, total)})
	}
	if err := renderTable(w, []string{"Priority", "Label", "Issues", "Share"}, prioRows); err != nil {
		return err
	}

	v := r.Velocity
	window := v.WindowDays
	if window == 0 {
		window = cfg.Thresholds.VelocityWindowDays
	}
	velRows := [][]string{
		{fmt.Sprintf("Created (%dd)", window), strconv.Itoa(v.IssuesCreatedInWindow)},
		{fmt.Sprintf("Groomed (%dd)", window), strconv.Itoa(v.IssuesGroomedInWindow)},
		{fmt.Sprintf("Closed (%dd)", window), strconv.Itoa(v.IssuesClosedInWindow)},
		{"Net growth", fmt.Sprintf("%+d", v.NetGrowthRate)},
		{"Avg days to groom", fmt.Sprintf("%.1f", v.AverageAgeToGroom)},
	}
	if err := renderTable(w, []string{"Velocity", "Value"}, velRows); err != nil {
		return err
	}

	t := cfg.Thresholds
	factorRows := [][]string{
		{"Age", contract.GetScoreLabel(hs.Factors.AgeHealth), fmt.Sprintf("%.0f%%", t.AgeWeight*100)},
		{"Priority", contract.GetScoreLabel(hs.Factors.PriorityHealth), fmt.Sprintf("%.0f%%", t.PriorityWeight*100)},
		{"Velocity", contract.GetScoreLabel(hs.Factors.VelocityHealth), fmt.Sprintf("%.0f%%", t.VelocityWeight*100)},
	}
	if err := renderTable(w, []string{"Factor", "Health", "Weight"}, factorRows); err != nil {
		return err
	}

	if len(r.Problems) == 0 {
		_, err := fmt.Fprintln(w, contract.HealthyColor.Sprint("No problems detected."))
		return err
	}
	var problemRows [][]string
	for _, p := range r.Problems {
		problemRows = append(problemRows, []string{contract.GetSeverityLabel(p.Severity), string(p.Type), strconv.Itoa(p.Count), p.Message})
	}
	return renderTable(w, []string{"Severity", "Problem", "Count", "Message"}, problemRows)
}

// reportRows flattens a report into section,metric,value triples.
func reportRows(r schema.MetricsReport) [][]string {
	var rows [][]string
	for _, b := range schema.AllAgeBuckets {
		rows = append(rows, []string{"age", string(b), strconv.Itoa(r.AgeDistribution.Get(b))})
	}
	for _, b := range schema.AllPriorityBuckets {
		rows = append(rows, []string{"priority", string(b), strconv.Itoa(r.PriorityBalance.Get(b))})
	}
	v := r.Velocity
	rows = append(rows,
		[]string{"velocity", "window_days", strconv.Itoa(v.WindowDays)},
		[]string{"velocity", "issues_created_in_window", strconv.Itoa(v.IssuesCreatedInWindow)},
		[]string{"velocity", "issues_groomed_in_window", strconv.Itoa(v.IssuesGroomedInWindow)},
		[]string{"velocity", "issues_closed_in_window", strconv.Itoa(v.IssuesClosedInWindow)},
		[]string{"velocity", "net_growth_rate", strconv.Itoa(v.NetGrowthRate)},
		[]string{"velocity", "average_age_to_groom", strconv.FormatFloat(v.AverageAgeToGroom, 'f', 2, 64)},
		[]string{"velocity", "total_issues", strconv.Itoa(v.TotalIssues)},
		[]string{"health", "score", strconv.Itoa(r.HealthScore.Score)},
		[]string{"health", "rating", string(r.HealthScore.Rating)},
		[]string{"health", "age_health", strconv.Itoa(r.HealthScore.Factors.AgeHealth)},
		[]string{"health", "priority_health", strconv.Itoa(r.HealthScore.Factors.PriorityHealth)},
		[]string{"health", "velocity_health", strconv.Itoa(r.HealthScore.Factors.VelocityHealth)},
	)
	for _, p := range r.Problems {
		rows = append(rows, []string{"problem", string(p.Type), fmt.Sprintf("%s: %s", p.Severity, p.Message)})
	}
	return rows
}

// writeReportCSV writes the reports as metric rows.
func writeReportCSV(w io.Writer, reports []schema.RepoReport) error {
	header := []string{"section", "metric", "value"}
	multi := len(reports) > 1
	if multi {
		header = append([]string{"repo"}, header...)
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, rr := range reports {
			for _, row := range reportRows(rr.Report) {
				if multi {
					row = append([]string{rr.Repo}, row...)
				}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
