package strings

import (
	"strings"
)

// MinTruncateLen is the smallest maxLen Truncate accepts. Smaller values
// are raised to it so at least one rune survives next to the ellipsis.
const MinTruncateLen = 4

// Truncate collapses s onto a single line and cuts it to at most maxLen
// runes, marking a cut with "...". Server error bodies go through it before
// they end up in error messages.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
