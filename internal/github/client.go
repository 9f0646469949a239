// Package github implements the issue source and tracker over the GitHub REST API.
package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/schema"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// searchPageSize is the largest page the search API serves.
	searchPageSize = 100

	// maxSearchResults is the most results the search API will ever return.
	maxSearchResults = 1000
)

var _ contract.IssueTracker = &Client{}

// Client wraps the GitHub API client with rate limiting and page pacing.
type Client struct {
	client      *github.Client
	rateLimiter *rate.Limiter
	pageDelay   time.Duration
	labels      schema.LabelConfig
	logger      *logrus.Logger
	hasToken    bool
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a GitHub Enterprise or test server.
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if raw == "" {
			return
		}
		u, err := url.Parse(raw)
		if err != nil {
			c.logger.WithError(err).WithField("url", raw).Warn("ignoring invalid GitHub API URL")
			return
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		c.client.BaseURL = u
	}
}

// WithRateLimit caps requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.rateLimiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithPageDelay sets the pause between consecutive search pages.
func WithPageDelay(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.pageDelay = d
		}
	}
}

// WithLabels sets the label names used for search exclusions.
func WithLabels(labels schema.LabelConfig) Option {
	return func(c *Client) { c.labels = labels.Clone() }
}

// WithLogger injects the logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a GitHub client. An empty token makes anonymous calls.
func NewClient(token string, opts ...Option) *Client {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	c := &Client{
		client:      client,
		rateLimiter: rate.NewLimiter(rate.Limit(contract.DefaultRateLimit), 1),
		pageDelay:   contract.DefaultPageDelay,
		labels:      schema.DefaultLabelConfig(),
		logger:      contract.NewDiscardLogger(),
		hasToken:    token != "",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig builds a client from validated configuration.
func NewClientFromConfig(cfg *contract.Config, logger *logrus.Logger) *Client {
	return NewClient(cfg.GitHubToken,
		WithLogger(logger),
		WithBaseURL(cfg.GitHubAPIURL),
		WithRateLimit(cfg.RateLimit),
		WithPageDelay(cfg.PageDelay),
		WithLabels(cfg.Labels),
	)
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// SearchIssues returns a single page of issues matching q, plus the total
// match count reported by GitHub. Pull requests are dropped.
func (c *Client) SearchIssues(ctx context.Context, owner, repo string, q schema.SearchQuery, perPage int) ([]schema.Issue, int, error) {
	perPage = max(1, min(perPage, searchPageSize))
	query := BuildSearchQuery(owner, repo, q, c.labels)

	items, total, err := c.searchPage(ctx, query, 1, perPage)
	if err != nil {
		return nil, 0, err
	}
	return toIssues(items), total, nil
}

// SearchAllIssues pages through every match. Exclusion flags in q still
// apply. An error on the first page is returned; a later failure stops
// paging and returns what was gathered so far.
func (c *Client) SearchAllIssues(ctx context.Context, owner, repo string, q schema.SearchQuery) ([]schema.Issue, error) {
	query := BuildSearchQuery(owner, repo, q, c.labels)
	log := c.logger.WithFields(logrus.Fields{"repo": owner + "/" + repo, "query": query})

	var all []schema.Issue
	seen := 0
	for page := 1; ; page++ {
		items, total, err := c.searchPage(ctx, query, page, searchPageSize)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			log.WithError(err).WithField("page", page).Warn("stopping pagination early")
			break
		}

		seen += len(items)
		all = append(all, toIssues(items)...)
		log.WithFields(logrus.Fields{"page": page, "items": len(items), "total": total}).Debug("fetched search page")

		if len(items) < searchPageSize || seen >= total || seen >= maxSearchResults {
			break
		}
		if err := contract.SleepContext(ctx, c.pageDelay); err != nil {
			return all, err
		}
	}
	return all, nil
}

func (c *Client) searchPage(ctx context.Context, query string, page, perPage int) ([]*github.Issue, int, error) {
	if err := c.wait(ctx); err != nil {
		return nil, 0, err
	}
	opts := &github.SearchOptions{ListOptions: github.ListOptions{Page: page, PerPage: perPage}}
	result, resp, err := c.client.Search.Issues(ctx, query, opts)
	if err != nil {
		return nil, 0, wrapError("search issues", resp, err)
	}
	return result.Issues, result.GetTotal(), nil
}

// FetchIssue returns one issue by number.
func (c *Client) FetchIssue(ctx context.Context, owner, repo string, number int) (schema.Issue, error) {
	if err := c.wait(ctx); err != nil {
		return schema.Issue{}, err
	}
	issue, resp, err := c.client.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		return schema.Issue{}, wrapError(fmt.Sprintf("fetch issue #%d", number), resp, err)
	}
	return toIssue(issue), nil
}

// ListLabels returns every label name defined on the repository.
func (c *Client) ListLabels(ctx context.Context, owner, repo string) ([]string, error) {
	opts := &github.ListOptions{PerPage: 100}
	var names []string
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		labels, resp, err := c.client.Issues.ListLabels(ctx, owner, repo, opts)
		if err != nil {
			return nil, wrapError("list labels", resp, err)
		}
		for _, l := range labels {
			names = append(names, l.GetName())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return names, nil
}

// MissingLabels lists the configured priority and groomed labels that the
// repository does not define.
func (c *Client) MissingLabels(ctx context.Context, owner, repo string, labels schema.LabelConfig) ([]string, error) {
	names, err := c.ListLabels(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	missing := labels.Missing(names)
	c.logger.WithFields(logrus.Fields{"repo": owner + "/" + repo, "labels": len(names), "missing": len(missing)}).Debug("checked configured labels")
	return missing, nil
}

// UpdateIssue patches the title, body or labels of an issue.
func (c *Client) UpdateIssue(ctx context.Context, owner, repo string, number int, update schema.IssueUpdate) (schema.Issue, error) {
	req := &github.IssueRequest{Title: update.Title, Body: update.Body, Labels: update.Labels}
	return c.edit(ctx, fmt.Sprintf("update issue #%d", number), owner, repo, number, req)
}

// CloseAsNotPlanned closes an issue with the not_planned state reason.
func (c *Client) CloseAsNotPlanned(ctx context.Context, owner, repo string, number int) (schema.Issue, error) {
	req := &github.IssueRequest{State: github.String("closed"), StateReason: github.String("not_planned")}
	return c.edit(ctx, fmt.Sprintf("close issue #%d", number), owner, repo, number, req)
}

func (c *Client) edit(ctx context.Context, op, owner, repo string, number int, req *github.IssueRequest) (schema.Issue, error) {
	if !c.hasToken {
		return schema.Issue{}, ErrNoToken
	}
	if err := c.wait(ctx); err != nil {
		return schema.Issue{}, err
	}
	issue, resp, err := c.client.Issues.Edit(ctx, owner, repo, number, req)
	if err != nil {
		return schema.Issue{}, wrapError(op, resp, err)
	}
	c.logger.WithFields(logrus.Fields{"repo": owner + "/" + repo, "number": number}).Debug(op)
	return toIssue(issue), nil
}

// TestConnection checks that the repository is reachable and returns
// the login the token belongs to.
func (c *Client) TestConnection(ctx context.Context, owner, repo string) (string, error) {
	if !c.hasToken {
		return "", ErrNoToken
	}
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	if _, resp, err := c.client.Repositories.Get(ctx, owner, repo); err != nil {
		return "", wrapError("get repository", resp, err)
	}

	user, _, err := c.client.Users.Get(ctx, "")
	if err != nil {
		// The repository answered, so the token works even without user scope.
		return "Unknown user", nil
	}
	return user.GetLogin(), nil
}

func toIssues(items []*github.Issue) []schema.Issue {
	issues := make([]schema.Issue, 0, len(items))
	for _, item := range items {
		if item.IsPullRequest() {
			continue
		}
		issues = append(issues, toIssue(item))
	}
	return issues
}

func toIssue(i *github.Issue) schema.Issue {
	issue := schema.Issue{
		Number:    i.GetNumber(),
		Title:     i.GetTitle(),
		Body:      i.GetBody(),
		State:     i.GetState(),
		HTMLURL:   i.GetHTMLURL(),
		Author:    i.GetUser().GetLogin(),
		Comments:  i.GetComments(),
		CreatedAt: i.GetCreatedAt().Time,
		UpdatedAt: i.GetUpdatedAt().Time,
		Labels:    make([]string, 0, len(i.Labels)),
	}
	if i.ClosedAt != nil {
		closed := i.ClosedAt.Time
		issue.ClosedAt = &closed
	}
	for _, l := range i.Labels {
		issue.Labels = append(issue.Labels, l.GetName())
	}
	return issue
}
