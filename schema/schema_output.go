package schema

import "time"

// TriageSession is the persisted triage queue.
type TriageSession struct {
	Repo      string    `json:"repo"`
	Query     string    `json:"query"`
	Issues    []Issue   `json:"issues"`
	Cursor    int       `json:"cursor"`
	LoadedAt  time.Time `json:"loaded_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Current returns the issue under the cursor.
func (s *TriageSession) Current() (Issue, bool) {
	if s == nil || len(s.Issues) == 0 || s.Cursor < 0 || s.Cursor >= len(s.Issues) {
		return Issue{}, false
	}
	return s.Issues[s.Cursor], true
}

// Find returns the index of the issue with the given number, or -1.
func (s *TriageSession) Find(number int) int {
	for i, issue := range s.Issues {
		if issue.Number == number {
			return i
		}
	}
	return -1
}

// Remove drops an issue from the queue and keeps the cursor in range.
func (s *TriageSession) Remove(number int) bool {
	idx := s.Find(number)
	if idx < 0 {
		return false
	}
	s.Issues = append(s.Issues[:idx], s.Issues[idx+1:]...)
	if s.Cursor >= len(s.Issues) {
		s.Cursor = max(len(s.Issues)-1, 0)
	}
	return true
}

// RefreshResult tallies a queue refresh.
type RefreshResult struct {
	Removed int `json:"removed"`
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
}

// HealthTrend compares the two most recent snapshots of a repository.
type HealthTrend struct {
	Repo           string                 `json:"repo"`
	Points         []HealthSnapshotRecord `json:"points"`
	ScoreDelta     int32                  `json:"score_delta"`
	TotalDelta     int32                  `json:"total_delta"`
	UngroomedDelta int32                  `json:"ungroomed_delta"`
	AncientDelta   int32                  `json:"ancient_delta"`
	Direction      TrendDirection         `json:"direction"`
}

// ThreadRef locates a Slack thread.
type ThreadRef struct {
	Channel string `json:"channel"`
	TS      string `json:"ts"`
}

// SlackMessage is one message in a thread.
type SlackMessage struct {
	User     string `json:"user"`
	Username string `json:"username,omitempty"`
	Text     string `json:"text"`
	TS       string `json:"ts"`
}

// Author returns the best display name for the message.
func (m SlackMessage) Author() string {
	switch {
	case m.Username != "":
		return m.Username
	case m.User != "":
		return m.User
	default:
		return "User"
	}
}

// ThreadPreview summarizes a Slack thread.
type ThreadPreview struct {
	Ref              ThreadRef      `json:"ref"`
	ChannelName      string         `json:"channel_name,omitempty"`
	Messages         []SlackMessage `json:"messages"`
	ParticipantCount int            `json:"participant_count"`
	ReplyCount       int            `json:"reply_count"`
	Summary          string         `json:"summary,omitempty"`
}

// CheckResult is the outcome of the CI health gate for one repository.
type CheckResult struct {
	Repo     string    `json:"repo"`
	Score    int       `json:"score"`
	MinScore int       `json:"min_score"`
	Critical []Problem `json:"critical"`
	Passed   bool      `json:"passed"`
}
