package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/internal/iocache"
	"github.com/huangsam/groomer/schema"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// logger is rebuilt by sharedSetup once --verbose is known.
var logger = contract.NewLogger(false)

// storeManager is the global persistence manager instance.
var storeManager contract.StoreManager

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "groomer",
	Short:              "Groom GitHub issue backlogs and measure their health.",
	Long:               `Groomer searches and triages GitHub issues, previews linked Slack threads, and scores backlog health over time.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// setConfigFile points viper at the explicit or default config file.
func setConfigFile() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".groomer") // Name of config file (without extension)
	viper.SetConfigType("yaml")     // We'll use YAML format
	viper.AddConfigPath(".")        // Look in the current directory
	viper.AddConfigPath("$HOME")    // Look in the home directory
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Tokens usually live in .env next to the config file
	if err := contract.LoadEnvFiles(); err != nil {
		contract.LogWarn("Failed to load .env", err)
	}

	setConfigFile()

	// Set environment variable prefix
	viper.SetEnvPrefix("GROOMER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("github-api-url", contract.DefaultAPIURL)
	viper.SetDefault("openai-model", contract.DefaultModel)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("color", "yes")
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("rate-limit", contract.DefaultRateLimit)
	viper.SetDefault("page-delay", contract.DefaultPageDelay.String())
	viper.SetDefault("min-score", contract.DefaultMinScore)
	viper.SetDefault("query", contract.DefaultQuery)
	viper.SetDefault("state-backend", schema.SQLiteBackend)
	viper.SetDefault("state-db-connect", "")
	viper.SetDefault("history-backend", schema.SQLiteBackend)
	viper.SetDefault("history-db-connect", "")

	labels := schema.DefaultLabelConfig()
	viper.SetDefault("labels.priority.high", labels.High)
	viper.SetDefault("labels.priority.medium", labels.Medium)
	viper.SetDefault("labels.priority.low", labels.Low)
	viper.SetDefault("labels.groomed", labels.Groomed)
	viper.SetDefault("labels.exclude", labels.Exclude)
	viper.SetDefault("workflow.batch-size", contract.DefaultBatchSize)
}

// readConfig reads the config file if present and unmarshals everything into input.
func readConfig() error {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	return nil
}

// sharedSetup unmarshals config, runs validation and opens the stores.
// repoArgs are positional repositories; nil falls back to the configured repo.
func sharedSetup(_ context.Context, repoArgs []string) error {
	if err := readConfig(); err != nil {
		return err
	}
	input.RepoArgs = repoArgs

	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	logger = contract.NewLogger(cfg.Verbose)
	color.NoColor = !cfg.UseColors
	logger.WithFields(logrus.Fields{
		"repos":   cfg.Repos,
		"state":   cfg.StateBackend,
		"history": cfg.HistoryBackend,
	}).Debug("configuration loaded")

	if err := iocache.InitStores(cfg.StateBackend, cfg.StateDBConnect, cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	return nil
}

// sharedSetupWrapper is the PreRunE for commands whose args are not repositories.
func sharedSetupWrapper(_ *cobra.Command, _ []string) error {
	return sharedSetup(rootCtx, nil)
}

// repoSetupWrapper is the PreRunE for commands that take repositories as args.
func repoSetupWrapper(_ *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, args)
}

// loadConfigFile handles config file loading for the store management commands.
func loadConfigFile() error {
	setConfigFile()
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetStoreManager sets the global store manager.
func SetStoreManager(mgr contract.StoreManager) {
	storeManager = mgr
}

// stderrIsTerminal is swapped in tests.
var stderrIsTerminal = func() bool {
	return isTerminal(os.Stderr)
}
