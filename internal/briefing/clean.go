package briefing

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minCommentLen = 6
	maxCommentLen = 300
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// isEmoji reports whether a rune belongs to the emoji and pictograph blocks
// that add nothing to the summarization prompt.
func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r >= 0x2B00 && r <= 0x2BFF:
		return true
	case r == 0xFE0F || r == 0x200D:
		return true
	}
	return false
}

// CleanText strips HTML tags, decodes entities, drops emoji and collapses
// whitespace runs to single spaces.
func CleanText(text string) string {
	text = htmlTagRe.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	text = strings.Map(func(r rune) rune {
		if isEmoji(r) {
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// Usable reports whether a cleaned comment is long enough to carry meaning
// but short enough to not dominate the prompt.
func Usable(cleaned string) bool {
	n := utf8.RuneCountInString(cleaned)
	return n >= minCommentLen && n <= maxCommentLen
}
