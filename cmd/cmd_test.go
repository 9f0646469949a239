package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/groomer/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	want := map[string][]string{
		"triage":  {"load", "show", "priority", "edit", "groomed", "close", "refresh", "clear"},
		"slack":   {"preview", "desktop"},
		"ai":      {"format", "rewrite"},
		"history": {"status", "show", "trend", "export", "clear", "migrate"},
		"state":   {"status", "clear"},
		"config":  {"show", "export", "import", "test"},
	}
	for parent, children := range want {
		for _, child := range children {
			c, _, err := rootCmd.Find([]string{parent, child})
			require.NoError(t, err, "%s %s", parent, child)
			assert.Equal(t, child, c.Name())
		}
	}
	for _, name := range []string{"health", "check", "search", "mcp", "version"} {
		c, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())
	}
}

func TestEditFromFlags(t *testing.T) {
	newEdit := func(t *testing.T, stdin string, args ...string) *cobra.Command {
		t.Helper()
		c := &cobra.Command{Use: "edit"}
		c.Flags().String("title", "", "")
		c.Flags().String("body-file", "", "")
		c.SetIn(strings.NewReader(stdin))
		require.NoError(t, c.Flags().Parse(args))
		return c
	}

	t.Run("title only", func(t *testing.T) {
		update, err := editFromFlags(newEdit(t, "", "--title", "New title"))
		require.NoError(t, err)
		require.NotNil(t, update.Title)
		assert.Equal(t, "New title", *update.Title)
		assert.Nil(t, update.Body)
	})

	t.Run("body from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "body.md")
		require.NoError(t, os.WriteFile(path, []byte("## Steps\n1. save"), 0o600))
		update, err := editFromFlags(newEdit(t, "", "--body-file", path))
		require.NoError(t, err)
		assert.Nil(t, update.Title)
		require.NotNil(t, update.Body)
		assert.Equal(t, "## Steps\n1. save", *update.Body)
	})

	t.Run("body from stdin", func(t *testing.T) {
		update, err := editFromFlags(newEdit(t, "piped body", "--body-file", "-"))
		require.NoError(t, err)
		require.NotNil(t, update.Body)
		assert.Equal(t, "piped body", *update.Body)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := editFromFlags(newEdit(t, "", "--body-file", filepath.Join(t.TempDir(), "nope.md")))
		assert.ErrorContains(t, err, "read body")
	})

	t.Run("no flags", func(t *testing.T) {
		update, err := editFromFlags(newEdit(t, ""))
		require.NoError(t, err)
		assert.Nil(t, update.Title)
		assert.Nil(t, update.Body)
	})
}

func TestMissingLabelsError(t *testing.T) {
	assert.NoError(t, missingLabelsError("acme/api", nil))

	err := missingLabelsError("acme/api", []string{"prio-medium", "groomed"})
	require.Error(t, err)
	assert.Equal(t, "acme/api has no label prio-medium, groomed. Create it or change labels in .groomer.yaml", err.Error())
}

func TestParseIssueNumber(t *testing.T) {
	n, err := parseIssueNumber("42")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	for _, bad := range []string{"", "0", "-3", "#42", "abc"} {
		_, err := parseIssueNumber(bad)
		assert.Error(t, err, bad)
	}
}

func TestBackendFromViper(t *testing.T) {
	defer viper.Reset()

	viper.Set("history-backend", "")
	backend, _, err := backendFromViper("history-backend", "history-db-connect")
	require.NoError(t, err)
	assert.Equal(t, schema.NoneBackend, backend)

	viper.Set("history-backend", "oracle")
	_, _, err = backendFromViper("history-backend", "history-db-connect")
	assert.Error(t, err)

	viper.Set("history-backend", "mysql")
	viper.Set("history-db-connect", "")
	_, _, err = backendFromViper("history-backend", "history-db-connect")
	assert.ErrorContains(t, err, "connection string is required")

	viper.Set("history-db-connect", "user:pass@tcp(localhost:3306)/groomer")
	backend, conn, err := backendFromViper("history-backend", "history-db-connect")
	require.NoError(t, err)
	assert.Equal(t, schema.MySQLBackend, backend)
	assert.Equal(t, "user:pass@tcp(localhost:3306)/groomer", conn)
}

func TestSQLiteFile(t *testing.T) {
	assert.Equal(t, "/tmp/custom.db", sqliteFile("/tmp/custom.db", "/home/x/.groomer_history.db"))
	assert.Equal(t, "/home/x/.groomer_history.db", sqliteFile("", "/home/x/.groomer_history.db"))
}

func TestWriteThreadPreview(t *testing.T) {
	var buf bytes.Buffer
	err := writeThreadPreview(&buf, schema.ThreadPreview{
		Ref: schema.ThreadRef{Channel: "C024BE91L", TS: "1700000000.123456"},
		Messages: []schema.SlackMessage{
			{User: "U1", Username: "dana", Text: "see <https://example.com|the doc>"},
			{User: "U2", Text: "ping <@U1>"},
		},
		ParticipantCount: 2,
		ReplyCount:       1,
		Summary:          "Doc needs review",
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Thread C024BE91L/1700000000.123456: 2 messages, 1 replies, 2 participants")
	assert.Contains(t, out, "the doc (https://example.com)")
	assert.Contains(t, out, "@U1")
	assert.Contains(t, out, "Summary: Doc needs review")
}
