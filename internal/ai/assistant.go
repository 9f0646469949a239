// Package ai formats and rewrites issue bodies and summarizes Slack threads with OpenAI.
package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/internal/slack"
	"github.com/huangsam/groomer/schema"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const (
	// SummaryModel is the cheaper model used for thread summaries and connection tests.
	SummaryModel = openai.GPT3Dot5Turbo

	// ThreadContextHeader starts the section holding a Slack thread summary.
	ThreadContextHeader = "## Context from Slack thread"

	// LinksHeader starts the section holding related links.
	LinksHeader = "## Links"

	// zeroTemperature asks for deterministic output; a literal 0 is dropped by omitempty.
	zeroTemperature = math.SmallestNonzeroFloat32
)

// Sentinel errors for the failure modes a user can act on.
var (
	ErrNoAPIKey      = errors.New("OpenAI API key not configured. set openai-api-key or GROOMER_OPENAI_API_KEY")
	ErrInvalidKey    = errors.New("invalid OpenAI API key")
	ErrRateLimited   = errors.New("OpenAI API rate limit exceeded")
	ErrQuotaExceeded = errors.New("OpenAI API quota exceeded. check your billing")
	ErrEmptyResponse = errors.New("OpenAI returned an empty response")
	ErrNoMessages    = errors.New("thread has no messages to summarize")
)

var _ contract.Assistant = &Assistant{}

// Assistant wraps the chat completion API with groomer's prompts.
type Assistant struct {
	client *openai.Client
	config openai.ClientConfig
	model  string
	logger *logrus.Logger
	hasKey bool
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithBaseURL points the assistant at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(a *Assistant) {
		if url != "" {
			a.config.BaseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithModel sets the model used to format and rewrite issues.
func WithModel(model string) Option {
	return func(a *Assistant) {
		if model != "" {
			a.model = model
		}
	}
}

// WithLogger injects the logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(a *Assistant) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAssistant creates an assistant for the given API key.
func NewAssistant(apiKey string, opts ...Option) *Assistant {
	a := &Assistant{
		config: openai.DefaultConfig(apiKey),
		model:  contract.DefaultModel,
		logger: contract.NewDiscardLogger(),
		hasKey: apiKey != "",
	}
	for _, opt := range opts {
		opt(a)
	}
	a.client = openai.NewClientWithConfig(a.config)
	return a
}

func (a *Assistant) complete(ctx context.Context, op string, req openai.ChatCompletionRequest) (string, error) {
	if !a.hasKey {
		return "", ErrNoAPIKey
	}

	log := a.logger.WithFields(logrus.Fields{"op": op, "model": req.Model})
	log.Debug("requesting chat completion")

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapError(err))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyResponse)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyResponse)
	}
	log.WithField("tokens", resp.Usage.TotalTokens).Debug("chat completion finished")
	return content, nil
}

// mapError attaches a sentinel for the HTTP statuses a user can act on.
func mapError(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", ErrInvalidKey, err)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	case http.StatusPaymentRequired:
		return fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
	default:
		return err
	}
}

// FormatIssue restructures an issue body into the standard template,
// using only information present in the original text.
func (a *Assistant) FormatIssue(ctx context.Context, title, body string) (string, error) {
	urls := slack.ExtractURLs(body)
	prompt := formatPrompt(strings.Contains(body, ThreadContextHeader), urls)

	out, err := a.complete(ctx, "format issue", openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: userContent(title, body)},
		},
		MaxTokens:   512,
		Temperature: zeroTemperature,
	})
	if err != nil {
		return "", err
	}
	return EnsureLinks(out, urls), nil
}

// RewriteIssue applies free-form instructions to an issue body while keeping
// the template and any Slack context.
func (a *Assistant) RewriteIssue(ctx context.Context, title, body, instructions string) (string, error) {
	if strings.TrimSpace(instructions) == "" {
		return "", errors.New("rewrite instructions cannot be empty")
	}
	urls := slack.ExtractURLs(body)
	prompt := rewritePrompt(strings.Contains(body, ThreadContextHeader), urls)

	out, err := a.complete(ctx, "rewrite issue", openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Original issue description:\n\n%s\n\nRewrite instructions: %s", userContent(title, body), instructions)},
		},
		MaxTokens:   1024,
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}
	return EnsureLinks(out, urls), nil
}

// SummarizeThread produces a one or two sentence takeaway for a groomer.
func (a *Assistant) SummarizeThread(ctx context.Context, messages []schema.SlackMessage) (string, error) {
	if len(messages) == 0 {
		return "", ErrNoMessages
	}

	var thread strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&thread, "- %s: %s\n", m.Author(), slack.FormatMessageText(m.Text))
	}

	return a.complete(ctx, "summarize thread", openai.ChatCompletionRequest{
		Model: SummaryModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a helpful assistant."},
			{Role: openai.ChatMessageRoleUser, Content: summaryPrompt + "\n\nThread:\n" + thread.String()},
		},
		MaxTokens:   120,
		Temperature: 0.2,
	})
}

// TestResult reports a successful connection test.
type TestResult struct {
	Model       string `json:"model"`
	TotalTokens int    `json:"total_tokens"`
}

// TestConnection sends a tiny completion to validate the key.
func (a *Assistant) TestConnection(ctx context.Context) (TestResult, error) {
	if !a.hasKey {
		return TestResult{}, ErrNoAPIKey
	}
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       SummaryModel,
		Messages:    []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "Hello"}},
		MaxTokens:   5,
		Temperature: zeroTemperature,
	})
	if err != nil {
		return TestResult{}, fmt.Errorf("test connection: %w", mapError(err))
	}
	model := resp.Model
	if model == "" {
		model = SummaryModel
	}
	return TestResult{Model: model, TotalTokens: resp.Usage.TotalTokens}, nil
}

func userContent(title, body string) string {
	if strings.TrimSpace(title) == "" {
		return body
	}
	return fmt.Sprintf("Title: %s\n\n%s", title, body)
}
