package slack

import (
	"testing"

	"github.com/huangsam/groomer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseThreadURL(t *testing.T) {
	tests := []struct {
		input    string
		expected schema.ThreadRef
		wantErr  bool
	}{
		{
			input:    "https://acme.slack.com/archives/C01LH95QAKZ/p1740545225289349",
			expected: schema.ThreadRef{Channel: "C01LH95QAKZ", TS: "1740545225.289349"},
		},
		{
			input:    " https://acme.slack.com/archives/C01LH95QAKZ/p1740545225289349/ ",
			expected: schema.ThreadRef{Channel: "C01LH95QAKZ", TS: "1740545225.289349"},
		},
		{
			input:    "https://acme.slack.com/archives/C1/p1740545300000100?thread_ts=1740545225.289349&cid=C1",
			expected: schema.ThreadRef{Channel: "C1", TS: "1740545225.289349"},
		},
		{input: "https://acme.slack.com/archives/C01LH95QAKZ", wantErr: true},
		{input: "https://acme.slack.com/archives/C01LH95QAKZ/1740545225289349", wantErr: true},
		{input: "https://acme.slack.com/archives/C01LH95QAKZ/p123", wantErr: true},
		{input: "https://acme.slack.com/archives/C01LH95QAKZ/pabcdefghij", wantErr: true},
		{input: "https://example.com/archives/C1/p1740545225289349", wantErr: true},
		{input: "https://notslack.com/archives/C1/p1740545225289349", wantErr: true},
		{input: "https://app.slack.com/client/T1/C1", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ref, err := ParseThreadURL(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotThreadURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ref)
		})
	}
}

func TestToDesktopURL(t *testing.T) {
	tests := []struct {
		input, expected string
	}{
		{"https://app.slack.com/client/T123/C456", "slack://app/T123/C456"},
		{"https://app.slack.com/client/T123/C456/thread/C456-1740545225.289349", "slack://app/T123/C456"},
		{"https://slack.com/app/T123/C456", "slack://app/T123/C456"},
		{"https://acme.slack.com/messages?team=T123&channel=C456", "slack://app/T123/C456"},
		{"https://acme.slack.com/messages?team=T123&id=C789", "slack://app/T123/C789"},
		{"https://acme.slack.com/messages?team=T123", "https://acme.slack.com/messages?team=T123"},
		{"https://app.slack.com/client/T123", "https://app.slack.com/client/T123"},
		{"https://github.com/acme/widgets", "https://github.com/acme/widgets"},
		{"::not a url", "::not a url"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ToDesktopURL(tt.input), tt.input)
	}
}

func TestExtractURLs(t *testing.T) {
	text := `See https://acme.slack.com/archives/C1/p1740545225289349 and
(https://app.slack.com/client/T1/C2) plus https://github.com/acme/widgets.
Again: https://acme.slack.com/archives/C1/p1740545225289349`

	assert.Equal(t, []string{
		"https://acme.slack.com/archives/C1/p1740545225289349",
		"https://app.slack.com/client/T1/C2",
	}, ExtractURLs(text))

	assert.Empty(t, ExtractURLs("no links here"))
	assert.Equal(t, []string{"HTTPS://Acme.Slack.com/archives/C1"}, ExtractURLs("HTTPS://Acme.Slack.com/archives/C1"))
}

func TestFormatMessageText(t *testing.T) {
	tests := []struct {
		input, expected string
	}{
		{"hey <@U123ABC>", "hey @U123ABC"},
		{"in <#C42|general>", "in #general"},
		{"see <https://example.com|the docs>", "see the docs (https://example.com)"},
		{"see <https://example.com/a?b=c>", "see https://example.com/a?b=c"},
		{"plain text", "plain text"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatMessageText(tt.input))
	}
}
