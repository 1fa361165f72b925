package artificial

import (
	"encoding/json"
	"errors"
	"strings"

	"coinsage/sources/texting/transform"
)

var ErrParseFailure = errors.New("unable to extract structured output")

const (
	maxSymbolCount  = 10
	maxInsightWords = 40
)

// CleanResponseText strips leading/trailing quote, backtick and whitespace
// noise and collapses internal whitespace runs.
func CleanResponseText(raw string) string {
	cleaned := strings.Trim(raw, "`'\" \t\r\n")
	return strings.Join(strings.Fields(cleaned), " ")
}

// ExtractJSON parses the model reply into out: first a direct parse of the
// cleaned text, then a salvage parse of the first-"{" to last-"}" substring
// for replies wrapped in prose or markdown fences.
func ExtractJSON(raw string, out any) error {
	cleaned := CleanResponseText(raw)
	if cleaned == "" {
		return ErrParseFailure
	}

	if err := json.Unmarshal([]byte(cleaned), out); err == nil {
		return nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), out); err == nil {
			return nil
		}
	}

	return ErrParseFailure
}

// NormalizeSymbolList drops non-string entries, trims and upper-cases the
// rest, removes duplicates, and caps the list at maxSymbolCount.
func NormalizeSymbolList(values []any) []string {
	seen := make(map[string]bool, len(values))
	symbols := make([]string, 0, len(values))

	for _, value := range values {
		symbol, ok := value.(string)
		if !ok {
			continue
		}
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
		if len(symbols) == maxSymbolCount {
			break
		}
	}

	return symbols
}

// NormalizeEnum accepts value only when it appears in allowed (case-insensitive),
// otherwise the prior default is retained.
func NormalizeEnum(value string, allowed []string, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range allowed {
		if value == candidate {
			return candidate
		}
	}
	return fallback
}

// NormalizeInsight whitespace-normalizes free text and clamps it to
// maxInsightWords, never cutting mid-word.
func NormalizeInsight(text string) string {
	return transform.LimitWords(strings.Trim(text, "`'\" \t\r\n"), maxInsightWords)
}
