package contract

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/huangsam/groomer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRepo(t *testing.T) {
	tests := []struct {
		input         string
		owner, name   string
		expectedError bool
	}{
		{"acme/widgets", "acme", "widgets", false},
		{" acme/widgets ", "acme", "widgets", false},
		{"acme/widgets.git", "acme", "widgets", false},
		{"https://github.com/acme/my.repo", "acme", "my.repo", false},
		{"acme-corp/x_y-z", "acme-corp", "x_y-z", false},
		{"acme", "", "", true},
		{"acme/", "", "", true},
		{"/widgets", "", "", true},
		{"acme/widgets/extra", "", "", true},
		{"-acme/widgets", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			owner, name, err := SplitRepo(tt.input)
			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		width    int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this title is too long", 10, "this ti..."},
		{"日本語のタイトルです", 6, "日本語..."},
		{"tiny", 3, "tiny"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Truncate(tt.input, tt.width))
	}
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v, s)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v, s)
	}
	_, err := ParseBoolString("perhaps")
	assert.Error(t, err)
}

func TestColorLabels(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	assert.Equal(t, "healthy", GetRatingLabel(schema.HealthyRating))
	assert.Equal(t, "needs-attention", GetRatingLabel(schema.NeedsAttentionRating))
	assert.Equal(t, "critical", GetRatingLabel(schema.CriticalRating))
	assert.Equal(t, "warning", GetSeverityLabel(schema.WarningSeverity))
	assert.Equal(t, "critical", GetSeverityLabel(schema.CriticalSeverity))
	assert.Equal(t, "59", GetScoreLabel(59))
}

func TestSelectOutputFile(t *testing.T) {
	f, err := SelectOutputFile("")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, f)

	path := filepath.Join(t.TempDir(), "out.txt")
	f, err = SelectOutputFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.FileExists(t, path)
}

func TestNewLogger(t *testing.T) {
	assert.Equal(t, "debug", NewLogger(true).GetLevel().String())
	assert.Equal(t, "warning", NewLogger(false).GetLevel().String())
	assert.NotNil(t, NewDiscardLogger())
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("GROOMER_TEST_ENV_VALUE=from-file\n"), 0o600))
	t.Setenv("GROOMER_TEST_ENV_EXISTING", "kept")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.env"), []byte("GROOMER_TEST_ENV_EXISTING=overwritten\n"), 0o600))

	require.NoError(t, LoadEnvFiles(path, filepath.Join(dir, "other.env"), filepath.Join(dir, "missing.env")))
	t.Cleanup(func() { _ = os.Unsetenv("GROOMER_TEST_ENV_VALUE") })

	assert.Equal(t, "from-file", os.Getenv("GROOMER_TEST_ENV_VALUE"))
	assert.Equal(t, "kept", os.Getenv("GROOMER_TEST_ENV_EXISTING"))
}

func TestSleepContext(t *testing.T) {
	t.Run("zero duration returns immediately", func(t *testing.T) {
		assert.NoError(t, SleepContext(context.Background(), 0))
	})

	t.Run("cancelled context wins over zero duration", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, SleepContext(ctx, 0), context.Canceled)
		assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
	})

	t.Run("deadline interrupts a long wait", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		start := time.Now()
		assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Minute)
	})

	t.Run("short wait completes", func(t *testing.T) {
		start := time.Now()
		require.NoError(t, SleepContext(context.Background(), 5*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
	})
}
