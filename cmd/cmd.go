// Package cmd defines the command-line interface for groomer.
package cmd

import (
	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(triageCmd)
	rootCmd.AddCommand(slackCmd)
	rootCmd.AddCommand(aiCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the triage subcommands to the parent triage command
	triageCmd.AddCommand(triageLoadCmd)
	triageCmd.AddCommand(triageShowCmd)
	triageCmd.AddCommand(triagePriorityCmd)
	triageCmd.AddCommand(triageEditCmd)
	triageCmd.AddCommand(triageGroomedCmd)
	triageCmd.AddCommand(triageCloseCmd)
	triageCmd.AddCommand(triageRefreshCmd)
	triageCmd.AddCommand(triageClearCmd)

	// Add the slack subcommands to the parent slack command
	slackCmd.AddCommand(slackPreviewCmd)
	slackCmd.AddCommand(slackDesktopCmd)

	// Add the ai subcommands to the parent ai command
	aiCmd.AddCommand(aiFormatCmd)
	aiCmd.AddCommand(aiRewriteCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyTrendCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Add the state subcommands to the parent state command
	stateCmd.AddCommand(stateStatusCmd)
	stateCmd.AddCommand(stateClearCmd)

	// Add the config subcommands to the parent config command
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configExportCmd)
	configCmd.AddCommand(configImportCmd)
	configCmd.AddCommand(configTestCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("repo", "r", "", "Default repository as owner/name")
	rootCmd.PersistentFlags().String("github-api-url", contract.DefaultAPIURL, "GitHub API base URL (for GitHub Enterprise)")
	rootCmd.PersistentFlags().StringP("query", "q", contract.DefaultQuery, "GitHub search qualifiers")
	rootCmd.PersistentFlags().Bool("all", false, "Fetch every page of results instead of one batch")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of repositories analyzed concurrently")
	rootCmd.PersistentFlags().Float64("rate-limit", contract.DefaultRateLimit, "Maximum GitHub requests per second")
	rootCmd.PersistentFlags().String("page-delay", contract.DefaultPageDelay.String(), "Delay between paginated GitHub requests")
	rootCmd.PersistentFlags().String("state-backend", string(schema.SQLiteBackend), "State backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("state-db-connect", "", "Database connection string for the state store")
	rootCmd.PersistentFlags().String("history-backend", string(schema.SQLiteBackend), "History backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for health history (must differ from state-db-connect)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Workflow flags live under the workflow section of the config file
	rootCmd.PersistentFlags().Int("batch-size", contract.DefaultBatchSize, "Issues fetched per page (1-100)")
	rootCmd.PersistentFlags().Bool("exclude-prioritized", false, "Skip issues that already have a priority label")
	rootCmd.PersistentFlags().Bool("exclude-groomed", false, "Skip issues that carry a groomed label")
	rootCmd.PersistentFlags().Bool("exclude-dependencies", false, "Skip issues with the configured exclude labels")
	for _, name := range []string{"batch-size", "exclude-prioritized", "exclude-groomed", "exclude-dependencies"} {
		if err := viper.BindPFlag("workflow."+name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			contract.LogFatal("Error binding workflow flags", err)
		}
	}

	// Bind all flags of checkCmd to Viper
	checkCmd.Flags().Int("min-score", contract.DefaultMinScore, "Minimum health score (0-100) every repository must reach")
	if err := viper.BindPFlags(checkCmd.Flags()); err != nil {
		contract.LogFatal("Error binding check flags", err)
	}

	// History listing flags are read straight from the command
	historyShowCmd.Flags().Int("limit", 10, "Number of snapshots to show")
	historyTrendCmd.Flags().Int("limit", 2, "Number of snapshots to load (at least 2)")

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}

	triageEditCmd.Flags().String("title", "", "New issue title")
	triageEditCmd.Flags().String("body-file", "", "File holding the new issue body (- reads stdin)")

	aiRewriteCmd.Flags().String("instructions", "", "How the body should be rewritten")
	for _, c := range []*cobra.Command{aiFormatCmd, aiRewriteCmd} {
		c.Flags().Bool("apply", false, "Save the new body to GitHub")
	}

	for _, c := range []*cobra.Command{configShowCmd, configExportCmd} {
		c.Flags().Bool("include-secrets", false, "Write tokens in clear text instead of [REDACTED]")
	}
	configImportCmd.Flags().String("target", ".groomer.yaml", "Where to write the imported configuration")
}
