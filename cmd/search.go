package cmd

import (
	"strings"
	"time"

	"github.com/huangsam/groomer/core"
	"github.com/huangsam/groomer/internal/outwriter"
	"github.com/huangsam/groomer/schema"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// searchCmd lists issues matching a GitHub search.
var searchCmd = &cobra.Command{
	Use:   "search [qualifiers...]",
	Short: "Search the issues of the configured repository",
	Long: `Search issues with GitHub search qualifiers, scoped to the configured repository.

Without qualifiers the configured query is used (default "is:open is:issue").
One page of --batch-size issues is fetched unless --all is given, which pages
through every match (GitHub caps search results at 1000).

Examples:
  # Open bugs
  groomer search is:open label:bug

  # Everything that still needs a priority
  groomer search --exclude-prioritized --all`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		client, err := newGitHubClient()
		if err != nil {
			return err
		}
		owner, name, err := cfg.DefaultRepo()
		if err != nil {
			return err
		}
		q := cfg.SearchQuery(strings.Join(args, " "))

		stop := spin(" Searching issues...")
		var issues []schema.Issue
		var total int
		if cfg.FetchAll {
			issues, err = client.SearchAllIssues(rootCtx, owner, name, q)
			total = len(issues)
		} else {
			issues, total, err = client.SearchIssues(rootCtx, owner, name, q, cfg.BatchSize)
		}
		stop()
		if err != nil {
			return err
		}

		logger.WithFields(logrus.Fields{"query": q.Text, "count": len(issues), "total": total}).Debug("search complete")
		return outwriter.NewOutWriter().WriteIssues(issues, total, cfg, time.Now())
	},
}

// spin shows the fetch spinner on stderr when it is a terminal.
func spin(suffix string) func() {
	return core.StartSpinner(progressWriter(), suffix)
}
