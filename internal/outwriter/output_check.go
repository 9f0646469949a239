package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/schema"
)

// WriteCheck outputs the CI gate verdict for each repository.
func WriteCheck(results []schema.CheckResult, cfg *contract.Config) error {
	if results == nil {
		results = []schema.CheckResult{}
	}
	return dispatch(cfg, "check results",
		func(w io.Writer) error { return writeCheckText(w, results) },
		func(w io.Writer) error { return writeCheckCSV(w, results) },
		results,
	)
}

// writeCheckText prints a concise verdict suitable for CI logs.
func writeCheckText(w io.Writer, results []schema.CheckResult) error {
	failed := 0
	for _, r := range results {
		mark, cmp := contract.HealthyColor.Sprint("✅"), ">="
		if !r.Passed {
			failed++
			mark = contract.CriticalColor.Sprint("❌")
		}
		if r.Score < r.MinScore {
			cmp = "<"
		}
		if _, err := fmt.Fprintf(w, "%s %s: score %s %s %d\n", mark, r.Repo, contract.GetScoreLabel(r.Score), cmp, r.MinScore); err != nil {
			return err
		}
		for _, p := range r.Critical {
			if _, err := fmt.Fprintf(w, "   %s %s: %s\n", contract.GetSeverityLabel(p.Severity), p.Type, p.Message); err != nil {
				return err
			}
		}
	}

	if failed == 0 {
		_, err := fmt.Fprintf(w, "All %d repositories passed the health check.\n", len(results))
		return err
	}
	_, err := fmt.Fprintf(w, "%d of %d repositories failed the health check.\n", failed, len(results))
	return err
}

func writeCheckCSV(w io.Writer, results []schema.CheckResult) error {
	header := []string{"repo", "score", "min_score", "critical_problems", "passed"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range results {
			row := []string{
				r.Repo,
				strconv.Itoa(r.Score),
				strconv.Itoa(r.MinScore),
				strconv.Itoa(len(r.Critical)),
				strconv.FormatBool(r.Passed),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
