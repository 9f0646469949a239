package github

import (
	"testing"

	"github.com/huangsam/groomer/schema"
	"github.com/stretchr/testify/assert"
)

func TestBuildSearchQuery(t *testing.T) {
	labels := schema.DefaultLabelConfig()
	labels.Groomed = []string{"groomed", "needs review", "groomed"}

	tests := []struct {
		name     string
		query    schema.SearchQuery
		expected string
	}{
		{
			name:     "repo scope only",
			query:    schema.SearchQuery{},
			expected: "repo:acme/widgets",
		},
		{
			name:     "text is trimmed",
			query:    schema.SearchQuery{Text: "  is:open is:issue "},
			expected: "repo:acme/widgets is:open is:issue",
		},
		{
			name:     "prioritized",
			query:    schema.SearchQuery{Text: "is:open", ExcludePrioritized: true},
			expected: `repo:acme/widgets is:open -label:"prio-high" -label:"prio-medium" -label:"prio-low"`,
		},
		{
			name:     "groomed labels are quoted and deduplicated",
			query:    schema.SearchQuery{ExcludeGroomed: true},
			expected: `repo:acme/widgets -label:"groomed" -label:"needs review"`,
		},
		{
			name:     "all exclusions",
			query:    schema.SearchQuery{Text: "is:open", ExcludePrioritized: true, ExcludeGroomed: true, ExcludeDependencies: true},
			expected: `repo:acme/widgets is:open -label:"prio-high" -label:"prio-medium" -label:"prio-low" -label:"groomed" -label:"needs review" -label:"dependencies"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildSearchQuery("acme", "widgets", tt.query, labels))
		})
	}
}

func BenchmarkBuildSearchQuery(b *testing.B) {
	labels := schema.DefaultLabelConfig()
	q := schema.SearchQuery{Text: "is:open is:issue", ExcludePrioritized: true, ExcludeGroomed: true, ExcludeDependencies: true}
	for b.Loop() {
		BuildSearchQuery("acme", "widgets", q, labels)
	}
}
