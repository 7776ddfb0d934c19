package validators

import (
	"strings"
	"unicode"
)

// SanitizeString trims input, drops control characters, and truncates to
// maxLen bytes without splitting a UTF-8 sequence. maxLen <= 0 disables
// truncation.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(input))
	cleaned = strings.TrimSpace(cleaned)
	if maxLen <= 0 || len(cleaned) <= maxLen {
		return cleaned
	}
	cut := 0
	for i := range cleaned {
		if i > maxLen {
			break
		}
		cut = i
	}
	return cleaned[:cut]
}
