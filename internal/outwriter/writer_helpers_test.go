package outwriter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// testConfig returns a config that writes into a temp file.
func testConfig(t *testing.T, mode schema.OutputMode) *contract.Config {
	t.Helper()
	return &contract.Config{
		Output:         mode,
		OutputFile:     filepath.Join(t.TempDir(), "out"),
		Width:          120,
		Labels:         schema.DefaultLabelConfig(),
		Thresholds:     schema.DefaultHealthThresholds(),
		HistoryBackend: schema.SQLiteBackend,
	}
}

func readOutput(t *testing.T, cfg *contract.Config) string {
	t.Helper()
	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	return string(data)
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name        string
		part, total int
		expected    string
	}{
		{"zero total", 3, 0, "0%"},
		{"half", 5, 10, "50%"},
		{"rounds", 1, 3, "33%"},
		{"all", 7, 7, "100%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, percent(tt.part, tt.total))
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"score": 72}))
	assert.Equal(t, "{\n  \"score\": 72\n}\n", buf.String())

	err := writeJSON(&buf, make(chan int))
	assert.Error(t, err)
}

func TestWriteCSVWithHeader(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, []string{"a", "b"}, func(w *csv.Writer) error {
		return w.Write([]string{"1", "two, three"})
	})
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,\"two, three\"\n", buf.String())

	boom := errors.New("boom")
	err = writeCSVWithHeader(&buf, []string{"a"}, func(*csv.Writer) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestWriteWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	err := writeWithFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello")
		return err
	}, "Wrote greeting")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	boom := errors.New("boom")
	err = writeWithFile(path, func(io.Writer) error { return boom }, "unused")
	assert.ErrorIs(t, err, boom)
}

func TestDispatchWrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	fail := func(io.Writer) error { return boom }

	cfg := testConfig(t, schema.CSVOut)
	err := dispatch(cfg, "thing", fail, fail, nil)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "CSV")

	cfg = testConfig(t, schema.TextOut)
	err = dispatch(cfg, "thing", fail, fail, nil)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "table")
}

func TestGetMaxTableTitleWidth(t *testing.T) {
	tests := []struct {
		width    int
		expected int
	}{
		{width: 60, expected: minTitleWidth},
		{width: 120, expected: 50},
		{width: 400, expected: maxTitleWidth},
	}
	for _, tt := range tests {
		cfg := &contract.Config{Width: tt.width}
		assert.Equal(t, tt.expected, GetMaxTableTitleWidth(cfg), "width %d", tt.width)
	}
}
