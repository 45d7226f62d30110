package compose

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/echukwudebere/kachifo/internal/enrich"
	"github.com/echukwudebere/kachifo/internal/retry"
)

// EmptyOverview is returned when no provider contributed anything.
const EmptyOverview = "No trends found for this query right now. Try rephrasing or check back later."

const maxOverviewSentences = 3

// Composer builds the general summary shown above the ranked results.
// The primary path re-summarizes the per-item summaries through the
// service; when that fails it falls back to picking the most salient
// sentences locally, so the overview is never empty.
type Composer struct {
	svc     enrich.Service
	retrier *retry.Executor
	logger  *log.Logger
}

func New(svc enrich.Service, retrier *retry.Executor, logger *log.Logger) *Composer {
	if logger == nil {
		logger = log.New(log.Writer(), "[COMPOSE] ", log.LstdFlags)
	}
	return &Composer{svc: svc, retrier: retrier, logger: logger}
}

// Overview condenses the item summaries into one paragraph.
func (c *Composer) Overview(ctx context.Context, summaries []string) string {
	var kept []string
	for _, s := range summaries {
		if s = strings.TrimSpace(s); s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return EmptyOverview
	}
	joined := strings.Join(kept, " ")

	if c.svc != nil {
		words := len(strings.Fields(joined))
		maxLen := words
		if maxLen > 256 {
			maxLen = 256
		}
		minLen := maxLen / 4
		if minLen < 1 {
			minLen = 1
		}
		var overview string
		err := c.retrier.Do(ctx, func() error {
			s, serr := c.svc.Summarize(ctx, joined, maxLen, minLen)
			if serr != nil {
				return serr
			}
			overview = s
			return nil
		})
		if err == nil && strings.TrimSpace(overview) != "" {
			return overview
		}
		c.logger.Printf("overview summarization failed, using extractive fallback: %v", err)
	}
	return extractive(joined)
}

// extractive scores sentences by term frequency and keeps the top few in
// their original order.
func extractive(text string) string {
	sentences := splitSentences(text)
	if len(sentences) <= maxOverviewSentences {
		return strings.Join(sentences, " ")
	}

	freq := make(map[string]int)
	for _, s := range sentences {
		for _, w := range tokens(s) {
			freq[w]++
		}
	}

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, 0, len(sentences))
	for i, s := range sentences {
		ws := tokens(s)
		if len(ws) == 0 {
			continue
		}
		total := 0
		for _, w := range ws {
			total += freq[w]
		}
		ranked = append(ranked, scored{index: i, score: float64(total) / float64(len(ws))})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	keep := ranked
	if len(keep) > maxOverviewSentences {
		keep = keep[:maxOverviewSentences]
	}
	sort.Slice(keep, func(i, j int) bool { return keep[i].index < keep[j].index })

	parts := make([]string, 0, len(keep))
	for _, k := range keep {
		parts = append(parts, sentences[k.index])
	}
	return strings.Join(parts, " ")
}

func splitSentences(text string) []string {
	var out []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(b.String()); s != "" {
				out = append(out, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		out = append(out, s)
	}
	return out
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "have": {}, "in": {},
	"is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "that": {},
	"the": {}, "this": {}, "to": {}, "was": {}, "were": {}, "will": {},
	"with": {},
}

func tokens(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	out := fields[:0]
	for _, f := range fields {
		if _, stop := stopwords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}
