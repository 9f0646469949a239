package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/huangsam/groomer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// newTestAssistant serves a fixed completion and records the last request.
func newTestAssistant(t *testing.T, status int, reply string) (*Assistant, *chatRequest) {
	t.Helper()
	var last chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&last)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"` + reply + `","type":"invalid_request_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   last.Model,
			"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": reply}, "finish_reason": "stop"}},
			"usage":   map[string]any{"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5},
		})
	}))
	t.Cleanup(srv.Close)
	return NewAssistant("sk-test", WithBaseURL(srv.URL+"/v1/")), &last
}

func TestFormatIssue(t *testing.T) {
	a, req := newTestAssistant(t, http.StatusOK, "  ## Background\n\nLogin fails.\n\n## Links\n  ")
	body := "Login fails. See https://acme.slack.com/archives/C1/p1740545225289349"

	out, err := a.FormatIssue(context.Background(), "Login broken", body)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4", req.Model)
	assert.Equal(t, 512, req.MaxTokens)
	assert.InDelta(t, 0, req.Temperature, 1e-9)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "## Reproduce Steps / Desired Behaviour")
	assert.NotContains(t, req.Messages[0].Content, ThreadContextHeader)
	assert.Contains(t, req.Messages[0].Content, "MUST be preserved: https://acme.slack.com/archives/C1/p1740545225289349")
	assert.Equal(t, "Title: Login broken\n\n"+body, req.Messages[1].Content)

	assert.Equal(t, "## Background\n\nLogin fails.\n\n## Links\n\n- https://acme.slack.com/archives/C1/p1740545225289349\n", out,
		"dropped Slack links are restored under Links")
}

func TestFormatIssue_KeepsThreadContextSection(t *testing.T) {
	a, req := newTestAssistant(t, http.StatusOK, "ok")
	_, err := a.FormatIssue(context.Background(), "", "body\n\n"+ThreadContextHeader+"\n\nsummary")
	require.NoError(t, err)
	assert.Contains(t, req.Messages[0].Content, ThreadContextHeader)
	assert.Equal(t, "body\n\n"+ThreadContextHeader+"\n\nsummary", req.Messages[1].Content)
}

func TestRewriteIssue(t *testing.T) {
	a, req := newTestAssistant(t, http.StatusOK, "rewritten")
	a.model = "gpt-4o"

	out, err := a.RewriteIssue(context.Background(), "T", "original", "make it shorter")
	require.NoError(t, err)

	assert.Equal(t, "rewritten", out)
	assert.Equal(t, "gpt-4o", req.Model)
	assert.Equal(t, 1024, req.MaxTokens)
	assert.InDelta(t, 0.3, req.Temperature, 1e-6)
	assert.True(t, strings.HasSuffix(req.Messages[1].Content, "Rewrite instructions: make it shorter"))

	_, err = a.RewriteIssue(context.Background(), "T", "original", "  ")
	assert.Error(t, err)
}

func TestSummarizeThread(t *testing.T) {
	a, req := newTestAssistant(t, http.StatusOK, "Still a bug, easy fix.")
	messages := []schema.SlackMessage{
		{User: "U1", Text: "login broken for <@U2>"},
		{Username: "dana", Text: "confirmed"},
	}

	out, err := a.SummarizeThread(context.Background(), messages)
	require.NoError(t, err)

	assert.Equal(t, "Still a bug, easy fix.", out)
	assert.Equal(t, SummaryModel, req.Model)
	assert.Equal(t, 120, req.MaxTokens)
	assert.Contains(t, req.Messages[1].Content, "- U1: login broken for @U2\n- dana: confirmed")

	_, err = a.SummarizeThread(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoMessages)
}

func TestTestConnection(t *testing.T) {
	a, req := newTestAssistant(t, http.StatusOK, "Hi")
	res, err := a.TestConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TestResult{Model: SummaryModel, TotalTokens: 5}, res)
	assert.Equal(t, 5, req.MaxTokens)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		status   int
		sentinel error
	}{
		{http.StatusUnauthorized, ErrInvalidKey},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusPaymentRequired, ErrQuotaExceeded},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			a, _ := newTestAssistant(t, tt.status, "nope")
			_, err := a.FormatIssue(context.Background(), "", "body")
			assert.ErrorIs(t, err, tt.sentinel)

			_, err = a.TestConnection(context.Background())
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestEmptyCompletion(t *testing.T) {
	a, _ := newTestAssistant(t, http.StatusOK, "   ")
	_, err := a.FormatIssue(context.Background(), "", "body")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNoAPIKey(t *testing.T) {
	a := NewAssistant("")
	_, err := a.FormatIssue(context.Background(), "", "body")
	assert.ErrorIs(t, err, ErrNoAPIKey)
	_, err = a.TestConnection(context.Background())
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
