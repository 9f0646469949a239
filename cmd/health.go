package cmd

import (
	"github.com/spf13/cobra"
)

// healthCmd focused on backlog health reporting.
var healthCmd = &cobra.Command{
	Use:   "health [owner/repo...]",
	Short: "Score backlog health: issue age, priority balance and grooming velocity",
	Long: `Fetch every open issue of one or more repositories and compute backlog health.

Reports:
- Age distribution (fresh, recent, aging, stale, ancient)
- Priority balance across the configured priority labels
- Grooming velocity over the trailing window
- A composite 0-100 score with rating and detected problems

Each run is recorded in the history store so 'groomer history trend' can show
whether the backlog is improving. Several repositories are analyzed concurrently
(bounded by --workers); requests for a single repository stay sequential.

Examples:
  # Analyze the configured repository
  groomer health

  # Analyze two repositories as JSON
  groomer health acme/api acme/web --output json

  # Only count bugs
  groomer health acme/api --query "is:open is:issue label:bug"`,
	PreRunE: repoSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		executor, err := newExecutor()
		if err != nil {
			return err
		}
		return executor.ExecuteHealth(rootCtx, cfg)
	},
}
