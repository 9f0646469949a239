package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/schema"
)

var errNotFound = errors.New("not found")

// fakeTracker serves issues from memory, keyed by owner/name.
type fakeTracker struct {
	mu        sync.Mutex
	issues    map[string][]schema.Issue
	failRepos map[string]error
	failFetch map[int]error
	updates   []schema.IssueUpdate
	closed    []int
	fetches   []int
}

var _ contract.IssueTracker = &fakeTracker{}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{
		issues:    map[string][]schema.Issue{},
		failRepos: map[string]error{},
		failFetch: map[int]error{},
	}
}

func (f *fakeTracker) SearchIssues(_ context.Context, owner, repo string, _ schema.SearchQuery, perPage int) ([]schema.Issue, int, error) {
	all, err := f.SearchAllIssues(context.Background(), owner, repo, schema.SearchQuery{})
	if err != nil {
		return nil, 0, err
	}
	return all[:min(perPage, len(all))], len(all), nil
}

func (f *fakeTracker) SearchAllIssues(_ context.Context, owner, repo string, _ schema.SearchQuery) ([]schema.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := owner + "/" + repo
	if err := f.failRepos[key]; err != nil {
		return nil, err
	}
	var open []schema.Issue
	for _, i := range f.issues[key] {
		if !i.IsClosed() {
			open = append(open, i)
		}
	}
	return open, nil
}

func (f *fakeTracker) FetchIssue(_ context.Context, owner, repo string, number int) (schema.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, number)
	if err := f.failFetch[number]; err != nil {
		return schema.Issue{}, err
	}
	for _, i := range f.issues[owner+"/"+repo] {
		if i.Number == number {
			return i, nil
		}
	}
	return schema.Issue{}, fmt.Errorf("issue #%d: %w", number, errNotFound)
}

func (f *fakeTracker) UpdateIssue(_ context.Context, owner, repo string, number int, update schema.IssueUpdate) (schema.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, update)
	list := f.issues[owner+"/"+repo]
	for idx, i := range list {
		if i.Number != number {
			continue
		}
		if update.Title != nil {
			i.Title = *update.Title
		}
		if update.Body != nil {
			i.Body = *update.Body
		}
		if update.Labels != nil {
			i.Labels = slices.Clone(*update.Labels)
		}
		i.UpdatedAt = i.UpdatedAt.Add(time.Hour)
		list[idx] = i
		return i, nil
	}
	return schema.Issue{}, fmt.Errorf("issue #%d: %w", number, errNotFound)
}

func (f *fakeTracker) CloseAsNotPlanned(_ context.Context, owner, repo string, number int) (schema.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.issues[owner+"/"+repo]
	for idx, i := range list {
		if i.Number == number {
			i.State = "closed"
			list[idx] = i
			f.closed = append(f.closed, number)
			return i, nil
		}
	}
	return schema.Issue{}, fmt.Errorf("issue #%d: %w", number, errNotFound)
}

// setState changes an issue's state behind the triager's back.
func (f *fakeTracker) setState(repo string, number int, state string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for idx, i := range f.issues[repo] {
		if i.Number == number {
			f.issues[repo][idx].State = state
		}
	}
}

// recordingOutput captures what would have been rendered.
type recordingOutput struct {
	reports   []schema.RepoReport
	issues    []schema.Issue
	snapshots []schema.HealthSnapshotRecord
	trend     *schema.HealthTrend
	checks    []schema.CheckResult
	duration  time.Duration
}

var _ contract.OutputWriter = &recordingOutput{}

func (r *recordingOutput) WriteReports(reports []schema.RepoReport, _ *contract.Config, d time.Duration) error {
	r.reports, r.duration = reports, d
	return nil
}

func (r *recordingOutput) WriteIssues(issues []schema.Issue, _ int, _ *contract.Config, _ time.Time) error {
	r.issues = issues
	return nil
}

func (r *recordingOutput) WriteHistory(snapshots []schema.HealthSnapshotRecord, _ *contract.Config) error {
	r.snapshots = snapshots
	return nil
}

func (r *recordingOutput) WriteTrend(trend schema.HealthTrend, _ *contract.Config) error {
	r.trend = &trend
	return nil
}

func (r *recordingOutput) WriteCheck(results []schema.CheckResult, _ *contract.Config) error {
	r.checks = results
	return nil
}

// fakeThreads serves one canned thread.
type fakeThreads struct {
	preview schema.ThreadPreview
	err     error
	refs    []schema.ThreadRef
}

func (f *fakeThreads) ThreadPreview(_ context.Context, ref schema.ThreadRef) (schema.ThreadPreview, error) {
	f.refs = append(f.refs, ref)
	if f.err != nil {
		return schema.ThreadPreview{}, f.err
	}
	p := f.preview
	p.Ref = ref
	return p, nil
}

// fakeAssistant echoes its inputs so tests can see what was sent.
type fakeAssistant struct {
	summary    string
	summaryErr error
	bodies     []string
}

var _ contract.Assistant = &fakeAssistant{}

func (f *fakeAssistant) FormatIssue(_ context.Context, title, body string) (string, error) {
	f.bodies = append(f.bodies, body)
	return "## Background\n\n" + title, nil
}

func (f *fakeAssistant) RewriteIssue(_ context.Context, _, body, instructions string) (string, error) {
	f.bodies = append(f.bodies, body)
	return body + "\n\n" + instructions, nil
}

func (f *fakeAssistant) SummarizeThread(_ context.Context, messages []schema.SlackMessage) (string, error) {
	if f.summaryErr != nil {
		return "", f.summaryErr
	}
	return fmt.Sprintf("%s (%d messages)", f.summary, len(messages)), nil
}
