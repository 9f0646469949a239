package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var errNoOpenAI = errors.New("an OpenAI API key is required. set GROOMER_OPENAI_API_KEY or 'openai-api-key' in .groomer.yaml")

// aiCmd groups the AI write-up helpers.
var aiCmd = &cobra.Command{
	Use:   "ai",
	Short: "Restructure or rewrite issue bodies with OpenAI",
	Long: `Use OpenAI to turn a rough issue into a groomed one.

Slack threads linked from the body are summarized into the prompt when a Slack
token is configured, and every Slack link survives the rewrite.

The new body is printed. Pass --apply to save it to GitHub.

Examples:
  # Restructure into Background / Reproduce Steps sections
  groomer ai format 42

  # Apply custom instructions and save
  groomer ai rewrite 42 --instructions "add acceptance criteria" --apply`,
}

var aiFormatCmd = &cobra.Command{
	Use:     "format <number>",
	Short:   "Restructure an issue body into the standard template",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRewrite(cmd, args[0], "")
	},
}

var aiRewriteCmd = &cobra.Command{
	Use:     "rewrite <number>",
	Short:   "Rewrite an issue body following custom instructions",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		instructions, _ := cmd.Flags().GetString("instructions")
		if instructions == "" {
			return errors.New("--instructions is required for rewrite")
		}
		return runRewrite(cmd, args[0], instructions)
	},
}

func runRewrite(cmd *cobra.Command, arg, instructions string) error {
	number, err := parseIssueNumber(arg)
	if err != nil {
		return err
	}
	if cfg.OpenAIAPIKey == "" {
		return errNoOpenAI
	}
	repo, err := defaultRepoName()
	if err != nil {
		return err
	}
	assist, err := newAssist(true)
	if err != nil {
		return err
	}
	apply, _ := cmd.Flags().GetBool("apply")

	stop := spin(" Asking OpenAI...")
	issue, body, err := assist.RewriteBody(rootCtx, repo, number, instructions, apply)
	stop()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), body); err != nil {
		return err
	}
	if apply {
		_, _ = fmt.Fprintf(os.Stderr, "✅ Updated %s#%d\n", repo, issue.Number)
	}
	return nil
}
