package core

import (
	"context"
	"fmt"

	"github.com/huangsam/groomer/internal/ai"
	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/internal/slack"
	"github.com/huangsam/groomer/schema"
	"github.com/sirupsen/logrus"
)

// Assist combines the tracker, Slack and the AI assistant for issue write-ups.
// Threads may be nil, in which case Slack context is never gathered.
type Assist struct {
	Tracker   contract.IssueTracker
	Threads   contract.ThreadReader
	Assistant contract.Assistant
	Logger    *logrus.Logger
}

func (a *Assist) log() *logrus.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return contract.NewDiscardLogger()
}

// PreviewThread fetches the Slack thread behind rawURL. When an assistant is
// configured it also summarizes the thread; a failed summary is logged and the
// preview is still returned.
func (a *Assist) PreviewThread(ctx context.Context, rawURL string) (schema.ThreadPreview, error) {
	if a.Threads == nil {
		return schema.ThreadPreview{}, fmt.Errorf("a Slack token is required. set GROOMER_SLACK_TOKEN or 'slack-token' in .groomer.yaml")
	}
	ref, err := slack.ParseThreadURL(rawURL)
	if err != nil {
		return schema.ThreadPreview{}, err
	}
	preview, err := a.Threads.ThreadPreview(ctx, ref)
	if err != nil {
		return schema.ThreadPreview{}, err
	}
	if a.Assistant == nil || len(preview.Messages) == 0 {
		return preview, nil
	}

	summary, err := a.Assistant.SummarizeThread(ctx, preview.Messages)
	if err != nil {
		a.log().WithError(err).WithField("channel", ref.Channel).Warn("failed to summarize thread")
		return preview, nil
	}
	preview.Summary = summary
	return preview, nil
}

// withThreadContext appends a summary of the first linked Slack thread.
func (a *Assist) withThreadContext(ctx context.Context, body string) string {
	if a.Threads == nil {
		return body
	}
	for _, u := range slack.ExtractURLs(body) {
		if _, err := slack.ParseThreadURL(u); err != nil {
			continue
		}
		preview, err := a.PreviewThread(ctx, u)
		if err != nil {
			a.log().WithError(err).WithField("url", u).Warn("skipping Slack context")
			return body
		}
		return ai.AppendThreadSummary(body, preview.Summary)
	}
	return body
}

// RewriteBody produces a new body for issue number of repo. Empty
// instructions restructure the body into the standard template; otherwise
// the instructions are applied. With apply set the body is saved to GitHub.
func (a *Assist) RewriteBody(ctx context.Context, repo string, number int, instructions string, apply bool) (schema.Issue, string, error) {
	owner, name, err := contract.SplitRepo(repo)
	if err != nil {
		return schema.Issue{}, "", err
	}
	issue, err := a.Tracker.FetchIssue(ctx, owner, name, number)
	if err != nil {
		return schema.Issue{}, "", err
	}

	body := a.withThreadContext(ctx, issue.Body)
	var out string
	if instructions == "" {
		out, err = a.Assistant.FormatIssue(ctx, issue.Title, body)
	} else {
		out, err = a.Assistant.RewriteIssue(ctx, issue.Title, body, instructions)
	}
	if err != nil {
		return issue, "", err
	}
	if !apply {
		return issue, out, nil
	}

	updated, err := a.Tracker.UpdateIssue(ctx, owner, name, number, schema.IssueUpdate{Body: &out})
	if err != nil {
		return issue, out, fmt.Errorf("failed to apply new body: %w", err)
	}
	return updated, out, nil
}
