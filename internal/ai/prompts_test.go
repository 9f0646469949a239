package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureLinks(t *testing.T) {
	urls := []string{"https://acme.slack.com/archives/C1/p1740545225289349", "https://app.slack.com/client/T1/C2"}

	tests := []struct {
		name, text, expected string
	}{
		{
			name:     "all present",
			text:     "see https://acme.slack.com/archives/C1/p1740545225289349 and https://app.slack.com/client/T1/C2",
			expected: "see https://acme.slack.com/archives/C1/p1740545225289349 and https://app.slack.com/client/T1/C2",
		},
		{
			name:     "links section missing",
			text:     "## Background\n\nx\n",
			expected: "## Background\n\nx\n\n## Links\n\n- https://acme.slack.com/archives/C1/p1740545225289349\n- https://app.slack.com/client/T1/C2\n",
		},
		{
			name:     "one missing under existing section",
			text:     "## Links\n\n- https://app.slack.com/client/T1/C2",
			expected: "## Links\n\n- https://app.slack.com/client/T1/C2\n\n- https://acme.slack.com/archives/C1/p1740545225289349\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EnsureLinks(tt.text, urls))
		})
	}

	assert.Equal(t, "unchanged", EnsureLinks("unchanged", nil))
}

func TestAppendThreadSummary(t *testing.T) {
	body := "## Background\n\nLogin fails.\n"
	once := AppendThreadSummary(body, " Not a bug. ")
	assert.Equal(t, "## Background\n\nLogin fails.\n\n"+ThreadContextHeader+"\n\nNot a bug.\n", once)
	assert.Equal(t, once, AppendThreadSummary(once, "Not a bug."), "appending the same summary twice is a no-op")

	twice := AppendThreadSummary(once, "Actually a bug.")
	assert.Contains(t, twice, "Actually a bug.")

	assert.Equal(t, body, AppendThreadSummary(body, "  "))
	assert.Equal(t, ThreadContextHeader+"\n\nNew.\n", AppendThreadSummary("", "New."))
}

func TestIssueTemplate(t *testing.T) {
	assert.Equal(t, "## Background\n\n## Reproduce Steps / Desired Behaviour\n\n## Links", issueTemplate(false))
	assert.Equal(t, "## Background\n\n## Reproduce Steps / Desired Behaviour\n\n"+ThreadContextHeader+"\n\n## Links", issueTemplate(true))
}
