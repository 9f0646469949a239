package core

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/schema"
	"github.com/sirupsen/logrus"
)

// sessionKey is the state store key of the triage session.
const sessionKey = "session"

// sessionVersion is bumped when the stored session layout changes.
const sessionVersion = 1

// Triage errors.
var (
	ErrNoSession     = errors.New("no triage session. Run 'groomer triage load' first")
	ErrStateDisabled = errors.New("triage needs a state store. Set --state-backend to sqlite, mysql or postgresql")
	ErrEmptyEdit     = errors.New("nothing to edit. Pass a new title or body")
)

// Triager applies grooming decisions to issues and keeps the queue in the state store.
type Triager struct {
	tracker   contract.IssueTracker
	state     contract.StateStore
	labels    schema.LabelConfig
	pageDelay time.Duration
	logger    *logrus.Logger
	now       func() time.Time
}

// NewTriager creates a triager. pageDelay paces the calls made by Refresh.
func NewTriager(tracker contract.IssueTracker, state contract.StateStore, labels schema.LabelConfig, pageDelay time.Duration, logger *logrus.Logger) *Triager {
	if logger == nil {
		logger = contract.NewDiscardLogger()
	}
	return &Triager{
		tracker:   tracker,
		state:     state,
		labels:    labels.Clone(),
		pageDelay: pageDelay,
		logger:    logger,
		now:       time.Now,
	}
}

// Session loads the saved triage session.
func (t *Triager) Session() (*schema.TriageSession, error) {
	if t.state == nil {
		return nil, ErrStateDisabled
	}
	data, _, _, err := t.state.Get(sessionKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load triage session: %w", err)
	}
	var session schema.TriageSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode triage session: %w", err)
	}
	return &session, nil
}

func (t *Triager) save(session *schema.TriageSession) error {
	if t.state == nil {
		return ErrStateDisabled
	}
	session.UpdatedAt = t.now()
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode triage session: %w", err)
	}
	if err := t.state.Set(sessionKey, data, sessionVersion, session.UpdatedAt.Unix()); err != nil {
		return fmt.Errorf("failed to save triage session: %w", err)
	}
	return nil
}

// LoadQueue searches repo and saves the matches as a fresh session. A
// batchSize of zero or less fetches every page. It returns the session and
// the total match count reported by the search.
func (t *Triager) LoadQueue(ctx context.Context, repo string, q schema.SearchQuery, batchSize int) (*schema.TriageSession, int, error) {
	owner, name, err := contract.SplitRepo(repo)
	if err != nil {
		return nil, 0, err
	}

	var issues []schema.Issue
	var total int
	if batchSize > 0 {
		issues, total, err = t.tracker.SearchIssues(ctx, owner, name, q, batchSize)
	} else {
		issues, err = t.tracker.SearchAllIssues(ctx, owner, name, q)
		total = len(issues)
	}
	if err != nil {
		return nil, 0, err
	}

	now := t.now()
	session := &schema.TriageSession{
		Repo:     owner + "/" + name,
		Query:    q.Text,
		Issues:   issues,
		LoadedAt: now,
	}
	if err := t.save(session); err != nil {
		return nil, 0, err
	}
	t.logger.WithFields(logrus.Fields{"repo": session.Repo, "issues": len(issues), "total": total}).Debug("loaded triage queue")
	return session, total, nil
}

// lookup returns the session and the issue with the given number. Issues
// outside the queue are fetched from the tracker.
func (t *Triager) lookup(ctx context.Context, number int) (*schema.TriageSession, schema.Issue, error) {
	session, err := t.Session()
	if err != nil {
		return nil, schema.Issue{}, err
	}
	if idx := session.Find(number); idx >= 0 {
		return session, session.Issues[idx], nil
	}
	owner, name, err := contract.SplitRepo(session.Repo)
	if err != nil {
		return nil, schema.Issue{}, err
	}
	issue, err := t.tracker.FetchIssue(ctx, owner, name, number)
	if err != nil {
		return nil, schema.Issue{}, err
	}
	return session, issue, nil
}

// replace swaps the queued copy of an issue for a newer one.
func replace(session *schema.TriageSession, issue schema.Issue) {
	if idx := session.Find(issue.Number); idx >= 0 {
		session.Issues[idx] = issue
	}
}

// SetPriority replaces any priority label on the issue with the label of level.
func (t *Triager) SetPriority(ctx context.Context, number int, level schema.PriorityBucket) (schema.Issue, error) {
	target, err := t.labels.LabelFor(level)
	if err != nil {
		return schema.Issue{}, err
	}
	session, issue, err := t.lookup(ctx, number)
	if err != nil {
		return schema.Issue{}, err
	}

	priority := t.labels.PriorityLabels()
	labels := slices.DeleteFunc(slices.Clone(issue.Labels), func(l string) bool {
		return slices.Contains(priority, l)
	})
	labels = append(labels, target)

	owner, name, _ := contract.SplitRepo(session.Repo)
	updated, err := t.tracker.UpdateIssue(ctx, owner, name, number, schema.IssueUpdate{Labels: &labels})
	if err != nil {
		return schema.Issue{}, err
	}
	replace(session, updated)
	return updated, t.save(session)
}

// Edit applies a direct title, body or label edit and refreshes the queued copy.
func (t *Triager) Edit(ctx context.Context, number int, update schema.IssueUpdate) (schema.Issue, error) {
	if update.Title == nil && update.Body == nil && update.Labels == nil {
		return schema.Issue{}, ErrEmptyEdit
	}
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return schema.Issue{}, errors.New("issue title cannot be empty")
	}
	session, err := t.Session()
	if err != nil {
		return schema.Issue{}, err
	}
	owner, name, err := contract.SplitRepo(session.Repo)
	if err != nil {
		return schema.Issue{}, err
	}

	updated, err := t.tracker.UpdateIssue(ctx, owner, name, number, update)
	if err != nil {
		return schema.Issue{}, err
	}
	t.logger.WithFields(logrus.Fields{
		"issue": number,
		"title": update.Title != nil,
		"body":  update.Body != nil,
	}).Debug("edited issue")
	replace(session, updated)
	return updated, t.save(session)
}

// MarkGroomed adds the groomed labels and drops the issue from the queue.
func (t *Triager) MarkGroomed(ctx context.Context, number int) (schema.Issue, error) {
	if len(t.labels.Groomed) == 0 {
		return schema.Issue{}, fmt.Errorf("no groomed label configured. Set labels.groomed in .groomer.yaml")
	}
	session, issue, err := t.lookup(ctx, number)
	if err != nil {
		return schema.Issue{}, err
	}

	labels := slices.Clone(issue.Labels)
	for _, l := range t.labels.Groomed {
		if !slices.Contains(labels, l) {
			labels = append(labels, l)
		}
	}

	owner, name, _ := contract.SplitRepo(session.Repo)
	updated, err := t.tracker.UpdateIssue(ctx, owner, name, number, schema.IssueUpdate{Labels: &labels})
	if err != nil {
		return schema.Issue{}, err
	}
	session.Remove(number)
	return updated, t.save(session)
}

// CloseNotPlanned closes the issue as not planned and drops it from the queue.
func (t *Triager) CloseNotPlanned(ctx context.Context, number int) (schema.Issue, error) {
	session, err := t.Session()
	if err != nil {
		return schema.Issue{}, err
	}
	owner, name, err := contract.SplitRepo(session.Repo)
	if err != nil {
		return schema.Issue{}, err
	}
	closed, err := t.tracker.CloseAsNotPlanned(ctx, owner, name, number)
	if err != nil {
		return schema.Issue{}, err
	}
	session.Remove(number)
	return closed, t.save(session)
}

// Refresh re-fetches every queued issue one at a time. Closed issues are
// dropped, open ones replaced, and failures counted without aborting.
func (t *Triager) Refresh(ctx context.Context) (schema.RefreshResult, error) {
	var result schema.RefreshResult
	session, err := t.Session()
	if err != nil {
		return result, err
	}
	owner, name, err := contract.SplitRepo(session.Repo)
	if err != nil {
		return result, err
	}

	kept := make([]schema.Issue, 0, len(session.Issues))
	for i, queued := range session.Issues {
		if i > 0 {
			if err := contract.SleepContext(ctx, t.pageDelay); err != nil {
				return result, err
			}
		}
		fresh, err := t.tracker.FetchIssue(ctx, owner, name, queued.Number)
		if err != nil {
			t.logger.WithError(err).WithField("issue", queued.Number).Warn("failed to refresh issue")
			result.Errors++
			kept = append(kept, queued)
			continue
		}
		if fresh.IsClosed() {
			result.Removed++
			continue
		}
		result.Updated++
		kept = append(kept, fresh)
	}

	session.Issues = kept
	if session.Cursor >= len(kept) {
		session.Cursor = max(len(kept)-1, 0)
	}
	return result, t.save(session)
}

// Clear deletes the saved session.
func (t *Triager) Clear() error {
	if t.state == nil {
		return ErrStateDisabled
	}
	return t.state.Delete(sessionKey)
}
