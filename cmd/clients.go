package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/huangsam/groomer/core"
	"github.com/huangsam/groomer/internal/ai"
	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/internal/github"
	"github.com/huangsam/groomer/internal/outwriter"
	"github.com/huangsam/groomer/internal/slack"
	"golang.org/x/term"
)

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// progressWriter returns stderr when a spinner can be drawn on it.
func progressWriter() io.Writer {
	if !stderrIsTerminal() {
		return nil
	}
	return os.Stderr
}

// newGitHubClient builds the issue tracker after checking the token.
func newGitHubClient() (*github.Client, error) {
	if err := cfg.RequireGitHubToken(); err != nil {
		return nil, err
	}
	return github.NewClientFromConfig(cfg, logger), nil
}

// newExecutor wires the GitHub client, stores and writer into core.
func newExecutor() (*core.Executor, error) {
	client, err := newGitHubClient()
	if err != nil {
		return nil, err
	}
	return &core.Executor{
		Source:   client,
		Stores:   storeManager,
		Output:   outwriter.NewOutWriter(),
		Logger:   logger,
		Progress: progressWriter(),
	}, nil
}

// historyExecutor serves the history commands, which never call GitHub.
func historyExecutor() *core.Executor {
	return &core.Executor{
		Stores: storeManager,
		Output: outwriter.NewOutWriter(),
		Logger: logger,
	}
}

// newTriager wires the triage workflow over the state store.
func newTriager() (*core.Triager, error) {
	client, err := newGitHubClient()
	if err != nil {
		return nil, err
	}
	var state contract.StateStore
	if storeManager != nil {
		state = storeManager.GetStateStore()
	}
	return core.NewTriager(client, state, cfg.Labels, cfg.PageDelay, logger), nil
}

// newAssist wires whichever of GitHub, Slack and OpenAI are configured.
func newAssist(needGitHub bool) (*core.Assist, error) {
	a := &core.Assist{Logger: logger}
	if needGitHub {
		client, err := newGitHubClient()
		if err != nil {
			return nil, err
		}
		a.Tracker = client
	}
	if cfg.SlackToken != "" {
		a.Threads = slack.NewClient(cfg.SlackToken, slack.WithLogger(logger))
	}
	if cfg.OpenAIAPIKey != "" {
		a.Assistant = ai.NewAssistant(cfg.OpenAIAPIKey, ai.WithModel(cfg.OpenAIModel), ai.WithLogger(logger))
	}
	return a, nil
}

// defaultRepoName returns the configured owner/name.
func defaultRepoName() (string, error) {
	owner, name, err := cfg.DefaultRepo()
	if err != nil {
		return "", err
	}
	return owner + "/" + name, nil
}

// parseIssueNumber parses a positive issue number argument.
func parseIssueNumber(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid issue number %q", arg)
	}
	return n, nil
}
