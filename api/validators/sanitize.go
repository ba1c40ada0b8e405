package validators

import (
	"strings"
	"unicode/utf8"
)

// SanitizeString trims input, collapses inner whitespace and caps it at
// maxLen bytes without splitting a multi-byte character. A maxLen of zero
// disables the cap.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Join(strings.Fields(input), " ")
	if maxLen <= 0 || len(cleaned) <= maxLen {
		return cleaned
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(cleaned[cut]) {
		cut--
	}
	return cleaned[:cut]
}
