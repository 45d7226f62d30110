package helpers

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

const maxQueryLen = 256

// SanitizeQuery strips everything except letters, digits and spaces from raw
// user input, collapses runs of whitespace and caps the length. The result
// is what every downstream component (and every cache key) sees.
func SanitizeQuery(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	s := strings.Join(strings.Fields(b.String()), " ")
	if runes := []rune(s); len(runes) > maxQueryLen {
		s = strings.TrimSpace(string(runes[:maxQueryLen]))
	}
	return s
}

// NormalizeQuery lower-cases a sanitized query for cache keying.
func NormalizeQuery(q string) string {
	return strings.ToLower(q)
}

// ContentHash hashes title+body; it keys the enrichment cache so identical
// content seen from different providers is enriched once.
func ContentHash(title, body string) string {
	h := sha256.Sum256([]byte(title + "\n" + body))
	return hex.EncodeToString(h[:])
}

// Truncate cuts s to at most n runes, appending an ellipsis when it cut
// anything. Used for the degraded summary path.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n])) + "..."
}
