package rules

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize prepares an utterance for matching: NFKC composition, Unicode case
// folding and whitespace collapsing. Rule sources receive normalized text.
func Normalize(text string) string {
	t := norm.NFKC.String(text)
	// A Caser is stateful, so one is created per call.
	t = cases.Fold().String(t)
	return strings.Join(strings.Fields(t), " ")
}
