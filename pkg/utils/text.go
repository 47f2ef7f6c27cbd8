package utils

import "strings"

// CleanText collapses every run of whitespace to a single space and trims both ends,
// so extracted text is stable regardless of how the source markup was formatted.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
