package cmd

import (
	"github.com/spf13/cobra"
)

// checkCmd focused on CI/CD policy enforcement.
var checkCmd = &cobra.Command{
	Use:   "check [owner/repo...]",
	Short: "Enforce a minimum backlog health score (fails build on violations)",
	Long: `Analyze backlog health and fail with a non-zero exit code when a repository
scores below --min-score or has a critical problem.

Designed for scheduled CI jobs that keep a backlog from silently rotting.

Examples:
  # Fail when the score drops below 60 (default)
  groomer check acme/api

  # Stricter gate for several repositories
  groomer check acme/api acme/web --min-score 75`,
	PreRunE: repoSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		executor, err := newExecutor()
		if err != nil {
			return err
		}
		_, err = executor.ExecuteCheck(rootCtx, cfg)
		return err
	},
}
