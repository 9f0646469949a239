package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/groomer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleConfig() *Config {
	return &Config{
		Repos:              []string{"acme/widgets"},
		GitHubToken:        "ghp_secret",
		GitHubAPIURL:       DefaultAPIURL,
		SlackToken:         "xoxb-secret",
		OpenAIModel:        DefaultModel,
		Labels:             schema.DefaultLabelConfig(),
		Thresholds:         schema.DefaultHealthThresholds(),
		ExcludePrioritized: false,
		BatchSize:          50,
		Output:             schema.JSONOut,
		StateBackend:       schema.SQLiteBackend,
		HistoryBackend:     schema.NoneBackend,
	}
}

func TestMarshalFileConfig_RedactsSecrets(t *testing.T) {
	data, err := MarshalFileConfig(NewFileConfig(sampleConfig(), false))
	require.NoError(t, err)

	out := string(data)
	assert.NotContains(t, out, "ghp_secret")
	assert.NotContains(t, out, "xoxb-secret")
	assert.Contains(t, out, "github-token: '[REDACTED]'")
	assert.NotContains(t, out, "openai-api-key", "empty secrets are omitted, not redacted")
	assert.Contains(t, out, "repo: acme/widgets")
	assert.Contains(t, out, "exclude-prioritized: false")
	assert.Contains(t, out, "batch-size: 50")
	assert.Contains(t, out, "high: prio-high")
	assert.Contains(t, out, "stale-max-days: 180")
}

func TestParseFileConfig_RestoresRedactedSecrets(t *testing.T) {
	current := sampleConfig()
	data, err := MarshalFileConfig(NewFileConfig(current, false))
	require.NoError(t, err)

	fc, err := ParseFileConfig(data, current)
	require.NoError(t, err)

	assert.Equal(t, "ghp_secret", fc.GitHubToken)
	assert.Equal(t, "xoxb-secret", fc.SlackToken)
	assert.Empty(t, fc.OpenAIAPIKey)
	assert.Equal(t, "prio-medium", fc.Labels.Priority.Medium)
	require.NotNil(t, fc.Thresholds.AncientRatio)
	assert.InDelta(t, 0.3, *fc.Thresholds.AncientRatio, 1e-9)
}

func TestParseFileConfig_WithoutCurrentDropsRedacted(t *testing.T) {
	fc, err := ParseFileConfig([]byte("github-token: '[REDACTED]'\nrepo: acme/widgets\n"), nil)
	require.NoError(t, err)
	assert.Empty(t, fc.GitHubToken)
}

func TestParseFileConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"not yaml":        "repo: [unterminated",
		"bad repo":        "repo: nope\n",
		"bad token":       "github-token: abc\n",
		"duplicate label": "labels:\n  priority:\n    high: p\n    medium: p\n    low: q\n",
		"batch too big":   "workflow:\n  batch-size: 500\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFileConfig([]byte(doc), nil)
			assert.Error(t, err)
		})
	}
}

func TestWriteFileConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".groomer.yaml")
	require.NoError(t, WriteFileConfig(path, NewFileConfig(sampleConfig(), true)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ghp_secret")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
