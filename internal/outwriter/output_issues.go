package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/schema"
)

// WriteIssues outputs a page of search results. total is the match count
// reported by the tracker, which may exceed len(issues).
func WriteIssues(issues []schema.Issue, total int, cfg *contract.Config, now time.Time) error {
	if issues == nil {
		issues = []schema.Issue{}
	}
	return dispatch(cfg, "issues",
		func(w io.Writer) error { return writeIssuesTable(w, issues, total, cfg, now) },
		func(w io.Writer) error { return writeIssuesCSV(w, issues, cfg) },
		issues,
	)
}

// daysSince formats the whole days between t and now.
func daysSince(t, now time.Time) string {
	days := int(now.Sub(t).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return fmt.Sprintf("%dd", days)
}

func writeIssuesTable(w io.Writer, issues []schema.Issue, total int, cfg *contract.Config, now time.Time) error {
	if len(issues) == 0 {
		_, err := fmt.Fprintln(w, "No issues found.")
		return err
	}

	titleWidth := GetMaxTableTitleWidth(cfg)
	table := newTable(w, "#", "Title", "Priority", "Age", "Updated", "Labels")
	for _, issue := range issues {
		row := []string{
			strconv.Itoa(issue.Number),
			contract.Truncate(issue.Title, titleWidth),
			string(cfg.Labels.PriorityOf(issue)),
			daysSince(issue.CreatedAt, now),
			daysSince(issue.UpdatedAt, now),
			strings.Join(issue.Labels, ","),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Showing %d of %d issues.\n", len(issues), max(total, len(issues)))
	return err
}

func writeIssuesCSV(w io.Writer, issues []schema.Issue, cfg *contract.Config) error {
	header := []string{"number", "title", "state", "priority", "created_at", "updated_at", "labels", "url"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, issue := range issues {
			row := []string{
				strconv.Itoa(issue.Number),
				issue.Title,
				issue.State,
				string(cfg.Labels.PriorityOf(issue)),
				issue.CreatedAt.Format(contract.DateTimeFormat),
				issue.UpdatedAt.Format(contract.DateTimeFormat),
				strings.Join(issue.Labels, ";"),
				issue.HTMLURL,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
