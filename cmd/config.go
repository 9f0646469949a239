package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/huangsam/groomer/internal/ai"
	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/internal/github"
	"github.com/huangsam/groomer/internal/slack"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configCmd groups configuration inspection and transfer.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show, export, import and test the effective configuration",
	Long: `Inspect the configuration after defaults, .groomer.yaml, GROOMER_* variables
and flags have been merged.

Secrets are shown as [REDACTED] unless --include-secrets is given. Importing a
file that holds [REDACTED] keeps the secret that is currently configured.

Examples:
  groomer config show
  groomer config export team.yaml
  groomer config import team.yaml
  groomer config test`,
}

var configShowCmd = &cobra.Command{
	Use:     "show",
	Short:   "Print the effective configuration as YAML",
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		includeSecrets, _ := cmd.Flags().GetBool("include-secrets")
		return printFileConfig(cmd.OutOrStdout(), includeSecrets)
	},
}

var configExportCmd = &cobra.Command{
	Use:     "export [path]",
	Short:   "Write the effective configuration to a YAML file (stdout by default)",
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		includeSecrets, _ := cmd.Flags().GetBool("include-secrets")
		if len(args) == 0 {
			return printFileConfig(cmd.OutOrStdout(), includeSecrets)
		}
		if err := contract.WriteFileConfig(args[0], contract.NewFileConfig(cfg, includeSecrets)); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(os.Stderr, "💾 Exported configuration to %s\n", args[0])
		return nil
	},
}

var configImportCmd = &cobra.Command{
	Use:     "import <path>",
	Short:   "Validate a YAML config file and install it as .groomer.yaml",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read config %s: %w", args[0], err)
		}
		fc, err := contract.ParseFileConfig(data, cfg)
		if err != nil {
			return err
		}
		target, _ := cmd.Flags().GetString("target")
		if err := contract.WriteFileConfig(target, fc); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(os.Stderr, "💾 Imported configuration to %s\n", target)
		return nil
	},
}

var configTestCmd = &cobra.Command{
	Use:     "test",
	Short:   "Check the GitHub, Slack and OpenAI credentials and the stores",
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := cmd.OutOrStdout()
		failed := 0
		report := func(name string, detail string, err error) {
			if err != nil {
				failed++
				_, _ = fmt.Fprintf(w, "❌ %s: %v\n", name, err)
				return
			}
			_, _ = fmt.Fprintf(w, "✅ %s: %s\n", name, detail)
		}

		switch {
		case cfg.GitHubToken == "":
			_, _ = fmt.Fprintln(w, "⏭️  GitHub: no token configured")
		default:
			owner, name, err := cfg.DefaultRepo()
			if err != nil {
				report("GitHub", "", err)
				break
			}
			client := github.NewClientFromConfig(cfg, logger)
			login, err := client.TestConnection(rootCtx, owner, name)
			report("GitHub", fmt.Sprintf("%s/%s reachable as %s", owner, name, login), err)
			if err != nil {
				break
			}
			missing, err := client.MissingLabels(rootCtx, owner, name, cfg.Labels)
			if err == nil {
				err = missingLabelsError(owner+"/"+name, missing)
			}
			report("Labels", "every priority and groomed label exists", err)
		}

		if cfg.SlackToken == "" {
			_, _ = fmt.Fprintln(w, "⏭️  Slack: no token configured")
		} else {
			info, err := slack.NewClient(cfg.SlackToken, slack.WithLogger(logger)).TestConnection(rootCtx)
			report("Slack", fmt.Sprintf("workspace %s as %s", info.Team, info.User), err)
		}

		if cfg.OpenAIAPIKey == "" {
			_, _ = fmt.Fprintln(w, "⏭️  OpenAI: no API key configured")
		} else {
			res, err := ai.NewAssistant(cfg.OpenAIAPIKey, ai.WithModel(cfg.OpenAIModel), ai.WithLogger(logger)).TestConnection(rootCtx)
			report("OpenAI", fmt.Sprintf("model %s (%d tokens)", res.Model, res.TotalTokens), err)
		}

		if storeManager != nil {
			if state := storeManager.GetStateStore(); state != nil {
				status, err := state.GetStatus()
				report("State store", fmt.Sprintf("%s, %d entries", status.Backend, status.TotalEntries), err)
			}
			if history := storeManager.GetHistoryStore(); history != nil {
				status, err := history.GetStatus()
				report("History store", fmt.Sprintf("%s, %d runs", status.Backend, status.TotalRuns), err)
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d connection checks failed", failed)
		}
		return nil
	},
}

// missingLabelsError names the configured labels a repository lacks.
func missingLabelsError(repo string, missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%s has no label %s. Create it or change labels in .groomer.yaml", repo, strings.Join(missing, ", "))
}

func printFileConfig(w io.Writer, includeSecrets bool) error {
	data, err := contract.MarshalFileConfig(contract.NewFileConfig(cfg, includeSecrets))
	if err != nil {
		return err
	}
	if used := viper.ConfigFileUsed(); used != "" {
		if _, err := fmt.Fprintf(w, "# loaded from %s\n", used); err != nil {
			return err
		}
	}
	_, err = w.Write(data)
	return err
}
