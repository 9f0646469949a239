package slack

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/schema"
	"github.com/sirupsen/logrus"
	slackapi "github.com/slack-go/slack"
)

// DefaultAPIURL is the Slack Web API root.
const DefaultAPIURL = "https://slack.com/api/"

// ErrNoToken is returned when no bot token is configured.
var ErrNoToken = errors.New("Slack bot token not configured. set slack-token or GROOMER_SLACK_TOKEN")

var _ contract.ThreadReader = &Client{}

// APIError is an ok:false reply from the Web API.
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	if e.Code == "invalid_auth" || e.Code == "not_authed" {
		return fmt.Sprintf("slack %s: invalid Slack bot token (%s)", e.Method, e.Code)
	}
	return fmt.Sprintf("slack %s: %s", e.Method, e.Code)
}

// ChannelInfo is the subset of conversations.info groomer shows.
type ChannelInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Topic string `json:"topic,omitempty"`
}

// AuthInfo identifies the workspace and bot behind a token.
type AuthInfo struct {
	Team string `json:"team"`
	User string `json:"user"`
}

// Client calls the Slack Web API with a bot token.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
	api        *slackapi.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, mainly for tests.
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if raw != "" {
			c.baseURL = strings.TrimSuffix(raw, "/") + "/"
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithLogger injects the logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Slack Web API client.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		baseURL:    DefaultAPIURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     contract.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.api = slackapi.New(token,
		slackapi.OptionAPIURL(c.baseURL),
		slackapi.OptionHTTPClient(c.httpClient),
	)
	return c
}

// sdkError maps an ok:false reply onto APIError and wraps everything else.
func sdkError(method string, err error) error {
	var resp slackapi.SlackErrorResponse
	if errors.As(err, &resp) {
		return &APIError{Method: method, Code: resp.Err}
	}
	return fmt.Errorf("slack %s: %w", method, err)
}

// ThreadPreview fetches the parent message and all replies of a thread.
// The channel name is looked up on a best-effort basis.
func (c *Client) ThreadPreview(ctx context.Context, ref schema.ThreadRef) (schema.ThreadPreview, error) {
	if c.token == "" {
		return schema.ThreadPreview{}, ErrNoToken
	}

	var messages []slackapi.Message
	params := &slackapi.GetConversationRepliesParameters{ChannelID: ref.Channel, Timestamp: ref.TS}
	for {
		page, hasMore, cursor, err := c.api.GetConversationRepliesContext(ctx, params)
		if err != nil {
			return schema.ThreadPreview{}, sdkError("conversations.replies", err)
		}
		messages = append(messages, page...)
		if !hasMore || cursor == "" {
			break
		}
		params.Cursor = cursor
	}
	c.logger.WithFields(logrus.Fields{"channel": ref.Channel, "messages": len(messages)}).Debug("fetched slack thread")

	preview := schema.ThreadPreview{
		Ref:         ref,
		ChannelName: ref.Channel,
		Messages:    make([]schema.SlackMessage, 0, len(messages)),
		ReplyCount:  max(len(messages)-1, 0),
	}
	participants := make(map[string]struct{})
	for _, m := range messages {
		preview.Messages = append(preview.Messages, schema.SlackMessage{
			User:     m.User,
			Username: m.Username,
			Text:     m.Text,
			TS:       m.Timestamp,
		})
		if m.User != "" {
			participants[m.User] = struct{}{}
		}
	}
	preview.ParticipantCount = len(participants)

	if info, err := c.ChannelInfo(ctx, ref.Channel); err == nil && info.Name != "" {
		preview.ChannelName = info.Name
	} else if err != nil {
		c.logger.WithError(err).WithField("channel", ref.Channel).Debug("channel lookup failed")
	}
	return preview, nil
}

// ChannelInfo returns the name and topic of a conversation.
func (c *Client) ChannelInfo(ctx context.Context, channelID string) (ChannelInfo, error) {
	if c.token == "" {
		return ChannelInfo{}, ErrNoToken
	}
	ch, err := c.api.GetConversationInfoContext(ctx, &slackapi.GetConversationInfoInput{ChannelID: channelID})
	if err != nil {
		return ChannelInfo{}, sdkError("conversations.info", err)
	}
	return ChannelInfo{ID: ch.ID, Name: ch.Name, Topic: ch.Topic.Value}, nil
}

// TestConnection validates the token with auth.test.
func (c *Client) TestConnection(ctx context.Context) (AuthInfo, error) {
	if c.token == "" {
		return AuthInfo{}, ErrNoToken
	}
	resp, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return AuthInfo{}, sdkError("auth.test", err)
	}
	return AuthInfo{Team: resp.Team, User: resp.User}, nil
}
