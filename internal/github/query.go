package github

import (
	"fmt"
	"strings"

	"github.com/huangsam/groomer/schema"
)

// BuildSearchQuery scopes the query text to one repository and appends
// a -label clause for every label group the query excludes.
func BuildSearchQuery(owner, repo string, q schema.SearchQuery, labels schema.LabelConfig) string {
	parts := []string{fmt.Sprintf("repo:%s/%s", owner, repo)}
	if text := strings.TrimSpace(q.Text); text != "" {
		parts = append(parts, text)
	}

	var excluded []string
	if q.ExcludePrioritized {
		excluded = append(excluded, labels.PriorityLabels()...)
	}
	if q.ExcludeGroomed {
		excluded = append(excluded, labels.Groomed...)
	}
	if q.ExcludeDependencies {
		excluded = append(excluded, labels.Exclude...)
	}

	seen := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		parts = append(parts, fmt.Sprintf(`-label:"%s"`, name))
	}
	return strings.Join(parts, " ")
}
