// Package slack reads Slack threads referenced from issues and rewrites Slack links.
package slack

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/huangsam/groomer/schema"
)

// ErrNotThreadURL is returned for links that do not point at a Slack message.
var ErrNotThreadURL = errors.New("not a Slack thread URL")

var (
	slackURLRegex = regexp.MustCompile(`(?i)https?://[^.\s]*\.?slack\.com/[^\s)]+`)
	digitsRegex   = regexp.MustCompile(`^[0-9]+$`)

	userMentionRegex = regexp.MustCompile(`<@([A-Z0-9]+)>`)
	channelRegex     = regexp.MustCompile(`<#([A-Z0-9]+)\|([^>]+)>`)
	labeledLinkRegex = regexp.MustCompile(`<(https?://[^|>]+)\|([^>]+)>`)
	plainLinkRegex   = regexp.MustCompile(`<(https?://[^>]+)>`)
)

func isSlackHost(host string) bool {
	host = strings.ToLower(host)
	return host == "slack.com" || strings.HasSuffix(host, ".slack.com")
}

// ParseThreadURL extracts the channel and message timestamp from an
// archives link such as https://acme.slack.com/archives/C01LH95QAKZ/p1740545225289349.
// When the link targets a reply, the thread_ts query parameter wins.
func ParseThreadURL(raw string) (schema.ThreadRef, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !isSlackHost(u.Hostname()) {
		return schema.ThreadRef{}, ErrNotThreadURL
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 3 || parts[0] != "archives" || parts[1] == "" {
		return schema.ThreadRef{}, ErrNotThreadURL
	}

	digits, ok := strings.CutPrefix(parts[2], "p")
	if !ok || len(digits) <= 6 || !digitsRegex.MatchString(digits) {
		return schema.ThreadRef{}, ErrNotThreadURL
	}

	ref := schema.ThreadRef{Channel: parts[1], TS: digits[:len(digits)-6] + "." + digits[len(digits)-6:]}
	if ts := u.Query().Get("thread_ts"); ts != "" {
		ref.TS = ts
	}
	return ref, nil
}

// ToDesktopURL converts a Slack web link into a slack:// link that opens
// the desktop app. Links it cannot convert are returned unchanged.
func ToDesktopURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	host := strings.ToLower(u.Hostname())
	parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })

	switch {
	case host == "app.slack.com" && len(parts) >= 3 && parts[0] == "client":
		return "slack://app/" + parts[1] + "/" + parts[2]
	case host == "slack.com" && len(parts) >= 3 && parts[0] == "app":
		return "slack://app/" + parts[1] + "/" + parts[2]
	case isSlackHost(host) && u.Query().Has("team"):
		q := u.Query()
		channel := q.Get("channel")
		if channel == "" {
			channel = q.Get("id")
		}
		if team := q.Get("team"); team != "" && channel != "" {
			return "slack://app/" + team + "/" + channel
		}
	}
	return raw
}

// ExtractURLs returns the distinct Slack links in text, in order of appearance.
func ExtractURLs(text string) []string {
	matches := slackURLRegex.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		urls = append(urls, m)
	}
	return urls
}

// FormatMessageText turns Slack mrkdwn escapes into plain text.
func FormatMessageText(text string) string {
	text = userMentionRegex.ReplaceAllString(text, "@$1")
	text = channelRegex.ReplaceAllString(text, "#$2")
	text = labeledLinkRegex.ReplaceAllString(text, "$2 ($1)")
	return plainLinkRegex.ReplaceAllString(text, "$1")
}
