package util

import "strings"

// NormalizeAnswer canonicalizes a submitted option label before comparison:
// surrounding whitespace stripped, upper-cased. Equality afterwards is exact.
func NormalizeAnswer(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
