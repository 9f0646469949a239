package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/huangsam/groomer/internal/slack"
	"github.com/huangsam/groomer/schema"
	"github.com/spf13/cobra"
)

// slackCmd groups the Slack helpers.
var slackCmd = &cobra.Command{
	Use:   "slack",
	Short: "Preview Slack threads linked from issues",
	Long: `Read the Slack discussion behind an issue without leaving the terminal.

Subcommands:
  preview - Print the messages of a thread, with an AI summary when OpenAI is configured
  desktop - Convert a web Slack link into a slack:// link for the desktop app

Examples:
  groomer slack preview https://acme.slack.com/archives/C024BE91L/p1700000000123456
  groomer slack desktop https://app.slack.com/client/T01/C02`,
}

var slackPreviewCmd = &cobra.Command{
	Use:     "preview <thread-url>",
	Short:   "Print a Slack thread and its summary",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		assist, err := newAssist(false)
		if err != nil {
			return err
		}
		stop := spin(" Fetching Slack thread...")
		preview, err := assist.PreviewThread(rootCtx, args[0])
		stop()
		if err != nil {
			return err
		}
		if cfg.Output == schema.JSONOut {
			data, err := json.MarshalIndent(preview, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		}
		return writeThreadPreview(cmd.OutOrStdout(), preview)
	},
}

var slackDesktopCmd = &cobra.Command{
	Use:   "desktop <url>",
	Short: "Convert a Slack web link into a desktop app link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), slack.ToDesktopURL(args[0]))
		return err
	},
}

// writeThreadPreview prints the thread as plain text.
func writeThreadPreview(w io.Writer, p schema.ThreadPreview) error {
	if _, err := fmt.Fprintf(w, "Thread %s/%s: %d messages, %d replies, %d participants\n\n",
		p.Ref.Channel, p.Ref.TS, len(p.Messages), p.ReplyCount, p.ParticipantCount); err != nil {
		return err
	}
	for _, m := range p.Messages {
		if _, err := fmt.Fprintf(w, "%s: %s\n", m.Author(), slack.FormatMessageText(m.Text)); err != nil {
			return err
		}
	}
	if p.Summary != "" {
		if _, err := fmt.Fprintf(w, "\nSummary: %s\n", p.Summary); err != nil {
			return err
		}
	}
	return nil
}
