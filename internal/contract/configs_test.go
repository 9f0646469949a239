package contract

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/groomer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns raw input matching the viper defaults.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		Repo:           "acme/widgets",
		Output:         "text",
		Color:          "yes",
		Workers:        2,
		RateLimit:      DefaultRateLimit,
		MinScore:       DefaultMinScore,
		StateBackend:   "sqlite",
		HistoryBackend: "sqlite",
		Labels: LabelsRawInput{
			Priority: PriorityLabelsRawInput{High: "prio-high", Medium: "prio-medium", Low: "prio-low"},
			Groomed:  []string{"groomed"},
			Exclude:  []string{"dependencies"},
		},
		Workflow: WorkflowRawInput{ExcludePrioritized: true, ExcludeDependencies: true, BatchSize: DefaultBatchSize},
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError string
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{
			name:        "invalid output",
			mutate:      func(in *ConfigRawInput) { in.Output = "xml" },
			expectError: "invalid output format",
		},
		{
			name:        "invalid color",
			mutate:      func(in *ConfigRawInput) { in.Color = "maybe" },
			expectError: "invalid --color value",
		},
		{
			name:        "bad repo",
			mutate:      func(in *ConfigRawInput) { in.Repo = "just-a-name" },
			expectError: "must be owner/name",
		},
		{
			name:        "bad token prefix",
			mutate:      func(in *ConfigRawInput) { in.GitHubToken = "token123" },
			expectError: "invalid format",
		},
		{
			name:   "fine grained token",
			mutate: func(in *ConfigRawInput) { in.GitHubToken = "github_pat_abc" },
		},
		{
			name:        "missing priority label",
			mutate:      func(in *ConfigRawInput) { in.Labels.Priority.Medium = " " },
			expectError: "all priority labels",
		},
		{
			name:        "duplicate priority label",
			mutate:      func(in *ConfigRawInput) { in.Labels.Priority.Low = "prio-high" },
			expectError: "more than one level",
		},
		{
			name:        "batch size too large",
			mutate:      func(in *ConfigRawInput) { in.Workflow.BatchSize = 101 },
			expectError: "batch-size",
		},
		{
			name:        "batch size zero",
			mutate:      func(in *ConfigRawInput) { in.Workflow.BatchSize = 0 },
			expectError: "batch-size",
		},
		{
			name:        "workers zero",
			mutate:      func(in *ConfigRawInput) { in.Workers = 0 },
			expectError: "workers",
		},
		{
			name:        "min score out of range",
			mutate:      func(in *ConfigRawInput) { in.MinScore = 101 },
			expectError: "min-score",
		},
		{
			name:        "bad page delay",
			mutate:      func(in *ConfigRawInput) { in.PageDelay = "soon" },
			expectError: "page-delay",
		},
		{
			name:        "invalid state backend",
			mutate:      func(in *ConfigRawInput) { in.StateBackend = "redis" },
			expectError: "invalid state backend",
		},
		{
			name: "mysql history without tcp",
			mutate: func(in *ConfigRawInput) {
				in.HistoryBackend = "mysql"
				in.HistoryDBConnect = "user:pass@localhost/db"
			},
			expectError: "@tcp(",
		},
		{
			name: "same sqlite file",
			mutate: func(in *ConfigRawInput) {
				in.StateDBConnect = "/tmp/groomer.db"
				in.HistoryDBConnect = "/tmp/groomer.db"
			},
			expectError: "different SQLite database files",
		},
		{
			name: "threshold override breaks ordering",
			mutate: func(in *ConfigRawInput) {
				v := 200
				in.Thresholds.RecentMaxDays = &v
			},
			expectError: "invalid thresholds",
		},
		{
			name:        "non http api url",
			mutate:      func(in *ConfigRawInput) { in.GitHubAPIURL = "ftp://example.com" },
			expectError: "github-api-url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestProcessAndValidate_PopulatesConfig(t *testing.T) {
	input := validInput()
	input.RepoArgs = []string{"acme/api", "https://github.com/acme/web.git", "acme/api"}
	input.PageDelay = "250ms"
	input.Labels.Groomed = []string{" groomed ", "", "triaged"}
	ratio := 0.5
	input.Thresholds.AncientRatio = &ratio

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, []string{"acme/api", "acme/web"}, cfg.Repos, "positional repos win and are deduplicated")
	assert.Equal(t, 250*time.Millisecond, cfg.PageDelay)
	assert.Equal(t, []string{"groomed", "triaged"}, cfg.Labels.Groomed)
	assert.Equal(t, 0.5, cfg.Thresholds.AncientRatio)
	assert.Equal(t, 180, cfg.Thresholds.StaleMaxDays, "unset overrides keep defaults")
	assert.Equal(t, DefaultQuery, cfg.Query)
	assert.Equal(t, DefaultAPIURL, cfg.GitHubAPIURL)
	assert.Equal(t, DefaultModel, cfg.OpenAIModel)
	assert.Equal(t, schema.TextOut, cfg.Output)
	assert.True(t, cfg.UseColors)

	owner, name, err := cfg.DefaultRepo()
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "api", name)
}

func TestConfigSearchQuery(t *testing.T) {
	cfg := &Config{Query: DefaultQuery, ExcludePrioritized: true, ExcludeDependencies: true}

	q := cfg.SearchQuery("")
	assert.Equal(t, DefaultQuery, q.Text)
	assert.True(t, q.ExcludePrioritized)
	assert.False(t, q.ExcludeGroomed)
	assert.True(t, q.ExcludeDependencies)

	assert.Equal(t, "is:open label:bug", cfg.SearchQuery("is:open label:bug").Text)
}

func TestRequireGitHubToken(t *testing.T) {
	assert.Error(t, (&Config{}).RequireGitHubToken())
	assert.Error(t, (&Config{GitHubToken: "abc"}).RequireGitHubToken())
	assert.NoError(t, (&Config{GitHubToken: "ghp_abc"}).RequireGitHubToken())
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{Repos: []string{"a/b"}, Labels: schema.DefaultLabelConfig()}
	clone := cfg.Clone()
	clone.Repos[0] = "c/d"
	clone.Labels.Groomed[0] = "changed"

	assert.Equal(t, "a/b", cfg.Repos[0])
	assert.Equal(t, "groomed", cfg.Labels.Groomed[0])
}

func TestDefaultRepoMissing(t *testing.T) {
	_, _, err := (&Config{}).DefaultRepo()
	assert.Error(t, err)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{schema.SQLiteBackend, "", false},
		{schema.NoneBackend, "", false},
		{schema.MySQLBackend, "", true},
		{schema.MySQLBackend, "root:pw@tcp(localhost:3306)/groomer", false},
		{schema.MySQLBackend, "root:pw@tcp(localhost:3306)", true},
		{schema.PostgreSQLBackend, "host=localhost user=postgres", true},
		{schema.PostgreSQLBackend, "host=localhost dbname=groomer", false},
	}
	for _, tt := range tests {
		err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
		if tt.wantErr {
			assert.Error(t, err, "%s %q", tt.backend, tt.conn)
		} else {
			assert.NoError(t, err, "%s %q", tt.backend, tt.conn)
		}
	}
}

func TestDefaultDBPathsDiffer(t *testing.T) {
	assert.NotEqual(t, GetStateDBFilePath(), GetHistoryDBFilePath())
	assert.Equal(t, ".groomer_state.db", filepath.Base(GetStateDBFilePath()))
}
