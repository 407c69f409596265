package direction

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Suffixes that do not distinguish one stop from another.
var nameSuffixes = []string{"버스정류장", "정류장", "정류소"}

// Words that mark a terminal or turnaround station.
var turnaroundKeywords = []string{
	"종점", "회차", "차고지", "공영차고", "터미널",
	"terminal", "turnaround", "depot", "end-point", "endpoint", "garage",
}

// NormalizeName folds a stop name for comparison: NFC, lower case, no
// whitespace, punctuation or symbols, common suffixes removed.
func NormalizeName(name string) string {
	s := strings.ToLower(norm.NFC.String(name))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	for _, suffix := range nameSuffixes {
		if trimmed := strings.TrimSuffix(out, suffix); trimmed != "" {
			out = trimmed
		}
	}
	return out
}

// IsTurnaroundName reports whether a station name carries a terminal keyword
func IsTurnaroundName(name string) bool {
	s := strings.ToLower(norm.NFC.String(name))
	for _, kw := range turnaroundKeywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// terminalName strips terminal words so the name reads as a destination.
func terminalName(name string) string {
	out := strings.TrimSpace(strings.ReplaceAll(name, "종점", ""))
	if out == "" {
		return strings.TrimSpace(name)
	}
	return out
}

// looselyContains is substring containment with a bounded length difference.
func looselyContains(a, b string, maxDiff int) bool {
	if a == "" || b == "" {
		return false
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la < 2 || lb < 2 {
		return false
	}
	diff := la - lb
	if diff < 0 {
		diff = -diff
	}
	if diff > maxDiff {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
