// Package sanitize normalizes extracted article text before classification.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)

	// Characters outside this allow-list carry no signal for the classifier
	// and frequently come from leftover markup entities.
	disallowedChars = regexp.MustCompile(`[^\w\s.,!?;:\-'"()\[\]/]`)

	// Trailing boilerplate fragments common on news pages. Each pattern is
	// anchored to the rest of the string: everything from the first match to
	// the end is dropped.
	boilerplatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Cookie Policy.*$`),
		regexp.MustCompile(`(?i)Privacy Policy.*$`),
		regexp.MustCompile(`(?i)Terms of Service.*$`),
		regexp.MustCompile(`(?i)Subscribe.*?newsletter.*$`),
		regexp.MustCompile(`(?i)Follow us.*$`),
		regexp.MustCompile(`(?i)Share this.*$`),
		regexp.MustCompile(`(?i)Advertisement.*$`),
	}
)

// Clean collapses whitespace, strips disallowed characters and removes
// trailing boilerplate. It is pure and idempotent: Clean(Clean(x)) == Clean(x).
func Clean(text string) string {
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = disallowedChars.ReplaceAllString(text, "")
	for _, pattern := range boilerplatePatterns {
		text = pattern.ReplaceAllString(text, "")
	}
	// Stripping characters can leave adjacent spaces behind; collapse once
	// more so the function stays idempotent.
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// WordCount reports the number of whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
