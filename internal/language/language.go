// Package language normalizes caption language tags to two-letter ISO-639-1
// codes. Subtitle tracks arrive tagged with full words ("korean"), region
// suffixes ("en-US") or auto-caption markers ("ko-orig"); downstream prompts
// and API responses use only the bare two-letter code.
package language

import "strings"

// DefaultCode is used when a tag cannot be normalized.
const DefaultCode = "ko"

// OrigSuffix marks an auto-generated track in the video's original language.
const OrigSuffix = "-orig"

var wordForms = map[string]string{
	"korean":     "ko",
	"english":    "en",
	"japanese":   "ja",
	"chinese":    "zh",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"swedish":    "sv",
	"norwegian":  "no",
	"danish":     "da",
	"finnish":    "fi",
	"polish":     "pl",
	"turkish":    "tr",
	"thai":       "th",
	"vietnamese": "vi",
	"indonesian": "id",
}

// Normalize maps tag to a two-letter ISO-639-1 code. Region suffixes and the
// "-orig" auto-caption marker are stripped; full language words are mapped
// through a fixed table. Unknown input falls back to DefaultCode.
func Normalize(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	tag = strings.ReplaceAll(tag, "_", "-")
	tag = strings.TrimSuffix(tag, OrigSuffix)

	if code, ok := wordForms[tag]; ok {
		return code
	}
	if code, ok := wordForms[strings.SplitN(tag, "-", 2)[0]]; ok {
		return code
	}

	if isCode(tag) {
		return tag
	}
	if head, _, ok := strings.Cut(tag, "-"); ok && isCode(head) {
		return head
	}
	return DefaultCode
}

func isCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
