package helpers

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeQuery(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"electric vehicles", "electric vehicles"},
		{"  what's   trending?!  ", "whats trending"},
		{"<script>alert(1)</script>", "scriptalert1script"},
		{"AI\ttrends\n2026", "AI trends 2026"},
		{"", ""},
	}
	for _, c := range cases {
		if got := SanitizeQuery(c.in); got != c.want {
			t.Fatalf("SanitizeQuery(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSanitizeQueryCapsLength(t *testing.T) {
	long := strings.Repeat("a", 1000)
	if got := SanitizeQuery(long); len(got) > 256 {
		t.Fatalf("expected capped query, got %d chars", len(got))
	}
}

func TestSanitizeQueryCapsByRunes(t *testing.T) {
	long := strings.Repeat("é", 300)
	got := SanitizeQuery(long)
	if !utf8.ValidString(got) {
		t.Fatalf("cap must not cut mid-rune: %q", got)
	}
	if n := utf8.RuneCountInString(got); n > 256 {
		t.Fatalf("expected at most 256 runes, got %d", n)
	}
}

func TestContentHashStable(t *testing.T) {
	a := ContentHash("title", "body")
	b := ContentHash("title", "body")
	if a != b {
		t.Fatalf("hash not stable: %s vs %s", a, b)
	}
	if a == ContentHash("title", "other") {
		t.Fatalf("distinct content must not collide")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 200); got != "short" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	long := strings.Repeat("x", 300)
	got := Truncate(long, 200)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis, got %q", got[len(got)-5:])
	}
	if len(got) > 203 {
		t.Fatalf("truncated string too long: %d", len(got))
	}
}
