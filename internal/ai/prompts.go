package ai

import (
	"strings"
)

const summaryPrompt = `You are an expert at summarizing Slack bug threads for a backlog groomer. ` +
	`Given the following Slack thread, provide a concise, actionable summary (1-2 sentences) for a groomer. ` +
	`Focus on the main takeaway, whether it is a bug or not, and any clear suggestions (e.g., not a bug, still a bug, hard, easy).`

func issueTemplate(hasThreadContext bool) string {
	sections := []string{"## Background", "## Reproduce Steps / Desired Behaviour"}
	if hasThreadContext {
		sections = append(sections, ThreadContextHeader)
	}
	sections = append(sections, LinksHeader)
	return strings.Join(sections, "\n\n")
}

func slackRequirement(urls []string) string {
	if len(urls) == 0 {
		return ""
	}
	return "\n\nIMPORTANT: The original text contains these Slack URLs that MUST be preserved: " + strings.Join(urls, ", ")
}

func formatPrompt(hasThreadContext bool, urls []string) string {
	return `You are an assistant that reformats GitHub issue descriptions into a standardized template. ` +
		`Only use information present in the original text. If a section is missing, leave it blank. Do not hallucinate or infer.

CRITICAL REQUIREMENTS:
1. If there is a "Context from Slack thread" section in the original text, preserve it EXACTLY and place it in the template
2. ALL Slack URLs must be preserved and included in the output. Do not remove or modify any Slack links
3. Place Slack URLs in the section where they fit best (Background, Reproduce Steps, or Links)

Use this template:

` + issueTemplate(hasThreadContext) + slackRequirement(urls)
}

func rewritePrompt(hasThreadContext bool, urls []string) string {
	return `You are an assistant that rewrites GitHub issue descriptions based on user instructions. ` +
		`Follow the instructions while keeping the structured format below.

CRITICAL REQUIREMENTS:
1. If there is a "Context from Slack thread" section in the original text, preserve it EXACTLY in your rewrite
2. ALL Slack URLs must be preserved and included in the output. Do not remove or modify any Slack links
3. Place content in the appropriate sections of the format

Use this structured format:

` + issueTemplate(hasThreadContext) + slackRequirement(urls)
}

// EnsureLinks appends any of urls missing from text under the Links section,
// creating the section when the model dropped it.
func EnsureLinks(text string, urls []string) string {
	var missing []string
	for _, u := range urls {
		if !strings.Contains(text, u) {
			missing = append(missing, u)
		}
	}
	if len(missing) == 0 {
		return text
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(text, "\n"))
	if !strings.Contains(text, LinksHeader) {
		b.WriteString("\n\n" + LinksHeader)
	}
	b.WriteString("\n")
	for _, u := range missing {
		b.WriteString("\n- " + u)
	}
	b.WriteString("\n")
	return b.String()
}

// AppendThreadSummary adds a Slack context section to body. It is a no-op
// when the body already carries the same summary under that header.
func AppendThreadSummary(body, summary string) string {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return body
	}
	if strings.Contains(body, ThreadContextHeader) && strings.Contains(body, summary) {
		return body
	}

	section := ThreadContextHeader + "\n\n" + summary + "\n"
	trimmed := strings.TrimRight(body, "\n")
	if trimmed == "" {
		return section
	}
	return trimmed + "\n\n" + section
}
