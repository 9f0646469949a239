package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/huangsam/groomer/internal/outwriter"
	"github.com/huangsam/groomer/schema"
	"github.com/spf13/cobra"
)

// triageCmd groups the triage workflow over a saved queue.
//
// The queue lives in the state store, so every subcommand works on the
// session left by the last 'triage load'.
var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Work through a queue of issues: prioritize, groom or close them",
	Long: `Load a queue of issues and apply grooming decisions one issue at a time.

The queue is saved in the state store (--state-backend), so it survives between
invocations. Decisions are applied to GitHub immediately.

Subcommands:
  load     - Search and save a new queue
  show     - Show the saved queue
  priority - Replace the priority label of an issue
  edit     - Change the title or body of an issue
  groomed  - Add the groomed labels and drop the issue from the queue
  close    - Close an issue as not planned and drop it from the queue
  refresh  - Re-fetch queued issues, dropping the ones closed elsewhere
  clear    - Delete the saved queue

Examples:
  groomer triage load --exclude-prioritized --exclude-groomed
  groomer triage priority 42 high
  groomer triage edit 42 --title "Crash on save" --body-file body.md
  groomer triage groomed 42
  groomer triage close 17`,
}

var triageLoadCmd = &cobra.Command{
	Use:     "load [qualifiers...]",
	Short:   "Search issues and save them as the triage queue",
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		triager, err := newTriager()
		if err != nil {
			return err
		}
		repo, err := defaultRepoName()
		if err != nil {
			return err
		}

		batch := cfg.BatchSize
		if cfg.FetchAll {
			batch = 0
		}
		stop := spin(" Loading triage queue...")
		session, total, err := triager.LoadQueue(rootCtx, repo, cfg.SearchQuery(strings.Join(args, " ")), batch)
		stop()
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteIssues(session.Issues, total, cfg, time.Now())
	},
}

var triageShowCmd = &cobra.Command{
	Use:     "show",
	Short:   "Show the saved triage queue",
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		triager, err := newTriager()
		if err != nil {
			return err
		}
		session, err := triager.Session()
		if err != nil {
			return err
		}
		if cfg.Output == schema.TextOut {
			fmt.Fprintf(cmd.OutOrStdout(), "Triage queue for %s (%s), loaded %s\n", session.Repo, session.Query, session.LoadedAt.Format(time.RFC3339))
			if current, ok := session.Current(); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Current: #%d %s\n\n", current.Number, current.Title)
			}
		}
		return outwriter.NewOutWriter().WriteIssues(session.Issues, len(session.Issues), cfg, time.Now())
	},
}

var triagePriorityCmd = &cobra.Command{
	Use:     "priority <number> <high|medium|low>",
	Short:   "Replace the priority label of an issue",
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := parseIssueNumber(args[0])
		if err != nil {
			return err
		}
		level := schema.PriorityBucket(strings.ToLower(args[1]))
		if _, ok := schema.ValidPriorityLevels[level]; !ok {
			return fmt.Errorf("invalid priority %q. must be high, medium or low", args[1])
		}
		triager, err := newTriager()
		if err != nil {
			return err
		}
		issue, err := triager.SetPriority(rootCtx, number, level)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ #%d is now %s priority (labels: %s)\n", issue.Number, level, strings.Join(issue.Labels, ", "))
		return nil
	},
}

var triageEditCmd = &cobra.Command{
	Use:     "edit <number>",
	Short:   "Change the title or body of an issue",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := parseIssueNumber(args[0])
		if err != nil {
			return err
		}
		update, err := editFromFlags(cmd)
		if err != nil {
			return err
		}
		triager, err := newTriager()
		if err != nil {
			return err
		}
		issue, err := triager.Edit(rootCtx, number, update)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ #%d updated: %s\n", issue.Number, issue.Title)
		return nil
	},
}

// editFromFlags builds an issue edit from --title and --body-file ("-" reads stdin).
func editFromFlags(cmd *cobra.Command) (schema.IssueUpdate, error) {
	var update schema.IssueUpdate
	if cmd.Flags().Changed("title") {
		title, _ := cmd.Flags().GetString("title")
		update.Title = &title
	}
	if path, _ := cmd.Flags().GetString("body-file"); path != "" {
		var data []byte
		var err error
		if path == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(path)
		}
		if err != nil {
			return update, fmt.Errorf("read body %s: %w", path, err)
		}
		body := string(data)
		update.Body = &body
	}
	return update, nil
}

var triageGroomedCmd = &cobra.Command{
	Use:     "groomed <number>",
	Short:   "Mark an issue as groomed and drop it from the queue",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := parseIssueNumber(args[0])
		if err != nil {
			return err
		}
		triager, err := newTriager()
		if err != nil {
			return err
		}
		issue, err := triager.MarkGroomed(rootCtx, number)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ #%d marked as groomed (labels: %s)\n", issue.Number, strings.Join(issue.Labels, ", "))
		return nil
	},
}

var triageCloseCmd = &cobra.Command{
	Use:     "close <number>",
	Short:   "Close an issue as not planned and drop it from the queue",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := parseIssueNumber(args[0])
		if err != nil {
			return err
		}
		triager, err := newTriager()
		if err != nil {
			return err
		}
		issue, err := triager.CloseNotPlanned(rootCtx, number)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ #%d closed as not planned\n", issue.Number)
		return nil
	},
}

var triageRefreshCmd = &cobra.Command{
	Use:     "refresh",
	Short:   "Re-fetch queued issues and drop the ones closed elsewhere",
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		triager, err := newTriager()
		if err != nil {
			return err
		}
		stop := spin(" Refreshing triage queue...")
		result, err := triager.Refresh(rootCtx)
		stop()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Refreshed queue: %d updated, %d removed, %d errors\n", result.Updated, result.Removed, result.Errors)
		return nil
	},
}

var triageClearCmd = &cobra.Command{
	Use:     "clear",
	Short:   "Delete the saved triage queue",
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		triager, err := newTriager()
		if err != nil {
			return err
		}
		if err := triager.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Triage queue cleared.")
		return nil
	},
}
