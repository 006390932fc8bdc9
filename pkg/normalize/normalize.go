// Package normalize splits raw numbered labels into a numeral and clean text.
package normalize

import (
	"regexp"
	"strings"
)

var (
	digitRuns = regexp.MustCompile(`\d+`)
	// a leading "12. " or a trailing/embedded " 12" / " 12."; no-break spaces count as spaces
	numberMarks = regexp.MustCompile(`\d+\.[\s\p{Z}]*|[\s\p{Z}]*\d+\.?`)
)

// SplitAndClean splits a label such as "3. In the beginning..." into its numeral
// ("3") and its text ("In the beginning...").
//
// The numeral is every run of digits in the label concatenated in order, so a label
// that carries a second number ("3. twelve is 12") yields a merged numeral ("312").
// Callers key rows on that value, so the merge is kept as is.
//
// When the label ends in a period that was removed together with a trailing number,
// the period is put back.
func SplitAndClean(raw string) (numeral, text string) {
	numeral = strings.Join(digitRuns.FindAllString(raw, -1), "")

	text = strings.TrimSpace(numberMarks.ReplaceAllString(raw, ""))
	if strings.HasSuffix(raw, ".") && !strings.HasSuffix(text, ".") {
		text += "."
	}
	return numeral, text
}

// CollapseSpaces replaces non-breaking spaces with plain spaces.
func CollapseSpaces(s string) string {
	return strings.ReplaceAll(s, "\u00a0", " ")
}
