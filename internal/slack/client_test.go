package slack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/huangsam/groomer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handlers map[string]func(r *http.Request) any) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		authorized := r.Header.Get("Authorization") == "Bearer xoxb-test" || r.Form.Get("token") == "xoxb-test"
		assert.True(t, authorized, "request to %s carried no bot token", r.URL.Path)

		handler, ok := handlers[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(handler(r))
	}))
	t.Cleanup(srv.Close)
	return NewClient("xoxb-test", WithBaseURL(srv.URL+"/api"))
}

func TestThreadPreview(t *testing.T) {
	c := newTestServer(t, map[string]func(*http.Request) any{
		"/api/conversations.replies": func(r *http.Request) any {
			assert.Equal(t, "C1", r.Form.Get("channel"))
			assert.Equal(t, "1740545225.289349", r.Form.Get("ts"))
			return map[string]any{
				"ok": true,
				"messages": []map[string]any{
					{"user": "U1", "text": "login is broken", "ts": "1740545225.289349"},
					{"user": "U2", "username": "dana", "text": "repro on staging", "ts": "1740545226.000001"},
					{"user": "U1", "text": "thanks", "ts": "1740545227.000001"},
				},
			}
		},
		"/api/conversations.info": func(*http.Request) any {
			return map[string]any{"ok": true, "channel": map[string]any{"id": "C1", "name": "bugs", "topic": map[string]any{"value": "triage"}}}
		},
	})

	preview, err := c.ThreadPreview(context.Background(), schema.ThreadRef{Channel: "C1", TS: "1740545225.289349"})
	require.NoError(t, err)

	assert.Equal(t, "bugs", preview.ChannelName)
	assert.Len(t, preview.Messages, 3)
	assert.Equal(t, 2, preview.ParticipantCount)
	assert.Equal(t, 2, preview.ReplyCount)
	assert.Equal(t, "dana", preview.Messages[1].Author())
}

func TestThreadPreview_ChannelLookupFailureFallsBack(t *testing.T) {
	c := newTestServer(t, map[string]func(*http.Request) any{
		"/api/conversations.replies": func(*http.Request) any {
			return map[string]any{"ok": true, "messages": []map[string]any{{"user": "U1", "text": "solo", "ts": "1.000001"}}}
		},
		"/api/conversations.info": func(*http.Request) any {
			return map[string]any{"ok": false, "error": "missing_scope"}
		},
	})

	preview, err := c.ThreadPreview(context.Background(), schema.ThreadRef{Channel: "C9", TS: "1.000001"})
	require.NoError(t, err)
	assert.Equal(t, "C9", preview.ChannelName)
	assert.Equal(t, 0, preview.ReplyCount)
	assert.Equal(t, 1, preview.ParticipantCount)
}

func TestThreadPreview_APIError(t *testing.T) {
	c := newTestServer(t, map[string]func(*http.Request) any{
		"/api/conversations.replies": func(*http.Request) any {
			return map[string]any{"ok": false, "error": "channel_not_found"}
		},
	})

	_, err := c.ThreadPreview(context.Background(), schema.ThreadRef{Channel: "C1", TS: "1.2"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "channel_not_found", apiErr.Code)
	assert.Equal(t, "slack conversations.replies: channel_not_found", err.Error())
}

func TestTestConnection(t *testing.T) {
	c := newTestServer(t, map[string]func(*http.Request) any{
		"/api/auth.test": func(*http.Request) any {
			return map[string]any{"ok": true, "team": "Acme", "user": "groomer-bot"}
		},
	})

	info, err := c.TestConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, AuthInfo{Team: "Acme", User: "groomer-bot"}, info)
}

func TestTestConnection_InvalidAuth(t *testing.T) {
	c := newTestServer(t, map[string]func(*http.Request) any{
		"/api/auth.test": func(*http.Request) any {
			return map[string]any{"ok": false, "error": "invalid_auth"}
		},
	})

	_, err := c.TestConnection(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid Slack bot token")
}

func TestCallWithoutToken(t *testing.T) {
	_, err := NewClient("").TestConnection(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestCallUnexpectedStatus(t *testing.T) {
	c := newTestServer(t, map[string]func(*http.Request) any{})
	_, err := c.ChannelInfo(context.Background(), "C1")
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
	assert.Contains(t, err.Error(), "slack conversations.info")
	assert.Contains(t, err.Error(), "404")
}

func TestThreadPreview_FollowsCursor(t *testing.T) {
	calls := 0
	c := newTestServer(t, map[string]func(*http.Request) any{
		"/api/conversations.replies": func(r *http.Request) any {
			calls++
			if r.Form.Get("cursor") == "" {
				return map[string]any{
					"ok":                true,
					"has_more":          true,
					"messages":          []map[string]any{{"user": "U1", "text": "parent", "ts": "1.000001"}},
					"response_metadata": map[string]any{"next_cursor": "page2"},
				}
			}
			assert.Equal(t, "page2", r.Form.Get("cursor"))
			return map[string]any{
				"ok":       true,
				"messages": []map[string]any{{"user": "U2", "text": "reply", "ts": "1.000002"}},
			}
		},
		"/api/conversations.info": func(*http.Request) any {
			return map[string]any{"ok": true, "channel": map[string]any{"id": "C1", "name": "bugs"}}
		},
	})

	preview, err := c.ThreadPreview(context.Background(), schema.ThreadRef{Channel: "C1", TS: "1.000001"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, preview.Messages, 2)
	assert.Equal(t, 1, preview.ReplyCount)
	assert.Equal(t, 2, preview.ParticipantCount)
}
