package chat

import (
	"regexp"
	"strings"
)

// One combined pattern keeps the passes from rewriting each other's output:
// a URL consumed by the first alternative can no longer match the percentage
// or date alternatives inside it.
var highlightRe = regexp.MustCompile(
	`https?://[^\s]+` +
		`|(?:중요|주의|필수|핵심|요약|결론)[:\s]` +
		`|\d+\.?\d*\s*%` +
		`|\d{4}-\d{2}-\d{2}`,
)

// Highlight post-processes a model answer for readability: bare URLs become
// markdown links, and keywords, percentages, and ISO dates are bolded.
// Already-wrapped spans are left alone, so the function is idempotent.
func Highlight(text string) string {
	matches := highlightRe.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + 8*len(matches))
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		b.WriteString(text[last:start])
		b.WriteString(wrapToken(text, start, end))
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

func wrapToken(text string, start, end int) string {
	token := text[start:end]

	if strings.HasPrefix(token, "http://") || strings.HasPrefix(token, "https://") {
		// Skip URLs that are already a markdown link target.
		if start >= 2 && text[start-2:start] == "](" {
			return token
		}
		return "[링크](" + token + ")"
	}

	// Skip spans already wrapped in bold markers.
	if start >= 2 && text[start-2:start] == "**" && end+2 <= len(text) && text[end:end+2] == "**" {
		return token
	}
	return "**" + token + "**"
}
