package utils

import (
	"regexp"
	"strings"
)

var (
	multiSpace       = regexp.MustCompile(` +`)
	multiNewline     = regexp.MustCompile(`\n{3,}`)
	spaceBeforePunct = regexp.MustCompile(`\s+([.,!?;:])`)
)

// CleanText tidies raw OCR output: line breaks are normalized, runs of
// spaces collapse to one, blank lines are capped at one, and stray spaces
// before punctuation are dropped.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = multiSpace.ReplaceAllString(text, " ")
	text = multiNewline.ReplaceAllString(text, "\n\n")
	text = spaceBeforePunct.ReplaceAllString(text, "$1")

	return strings.TrimSpace(text)
}
