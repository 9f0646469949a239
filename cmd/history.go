package cmd

import (
	"fmt"

	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/internal/iocache"
	"github.com/huangsam/groomer/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyCmd focused on health history management.
//
// Note: status, clear, export and migrate use minimal initialization instead
// of the full sharedSetup, so they work without a GitHub token.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and manage recorded backlog health runs",
	Long: `Every 'groomer health' and 'groomer check' run records a snapshot of the
backlog in the history store. These commands read and maintain that store.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show run counts and connection info
  show    - List recent snapshots of a repository
  trend   - Compare the two latest snapshots of a repository
  export  - Write runs, snapshots and problems to Parquet
  clear   - Remove all recorded history
  migrate - Run schema migrations

Examples:
  groomer history show acme/api --limit 20
  groomer history trend acme/api
  groomer history export --output-file backlog`,
}

func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup(true)
}

var historyStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display history statistics and connection details",
	PreRunE: historySetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		store := iocache.Manager.GetHistoryStore()
		if store == nil {
			return fmt.Errorf("history store is not initialized")
		}
		status, err := store.GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get history status: %w", err)
		}
		iocache.PrintHistoryStatus(status)
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:     "show [owner/repo]",
	Short:   "List recent health snapshots, newest first",
	Args:    cobra.MaximumNArgs(1),
	PreRunE: repoSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return historyExecutor().ExecuteHistory(cfg, limit)
	},
}

var historyTrendCmd = &cobra.Command{
	Use:     "trend [owner/repo]",
	Short:   "Show how backlog health moved between the two latest runs",
	Args:    cobra.MaximumNArgs(1),
	PreRunE: repoSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return historyExecutor().ExecuteTrend(cfg, limit)
	},
}

// historyExportCmd exports history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export health history to Parquet for BI tools and analytics",
	Long: `Export all recorded health history to Parquet.

Writes three files next to the --output-file prefix:
  <prefix>.groomer_health_runs.parquet
  <prefix>.groomer_health_snapshots.parquet
  <prefix>.groomer_health_problems.parquet

Rows carry the run UUID so exports from several databases can be joined.

Examples:
  groomer history export --output-file backlog
  duckdb -c "SELECT repo, avg(score) FROM read_parquet('backlog.groomer_health_snapshots.parquet') GROUP BY repo"`,
	PreRunE: historySetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := iocache.ExecuteHistoryExport(iocache.Manager.GetHistoryStore(), cfg.OutputFile); err != nil {
			return fmt.Errorf("failed to export health history: %w", err)
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded health history",
	Long: `Delete all recorded health history from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the history tables`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return historySetup(false)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := sqliteFile(cfg.HistoryDBConnect, contract.GetHistoryDBFilePath())
		if err := iocache.ClearHistory(cfg.HistoryBackend, path, cfg.HistoryDBConnect); err != nil {
			return fmt.Errorf("failed to clear health history: %w", err)
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "Health history cleared successfully.")
		return err
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the health history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  groomer history migrate

  # Rollback to initial state
  groomer history migrate --target-version 0`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		// Stores are not opened so migrations can run on a fresh database.
		if err := historySetup(false); err != nil {
			return err
		}
		if cfg.HistoryBackend == schema.SQLiteBackend && cfg.HistoryDBConnect == "" {
			cfg.HistoryDBConnect = contract.GetHistoryDBFilePath()
		}
		return nil
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	},
}
