package transform

import (
	"strings"
	"unicode"
)

func SmartTruncate(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}

	truncated := text[:maxLen]

	for i := len(truncated) - 1; i >= 0; i-- {
		if unicode.IsSpace(rune(truncated[i])) {
			return truncated[:i]
		}
	}

	return truncated
}

// LimitWords collapses whitespace and clamps the text to at most max words.
func LimitWords(text string, max int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if len(words) > max {
		words = words[:max]
	}
	return strings.Join(words, " ")
}
