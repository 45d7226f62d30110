package enrich

import (
	"context"
	"log"
	"strings"

	"github.com/echukwudebere/kachifo/internal/cache"
	"github.com/echukwudebere/kachifo/internal/helpers"
	"github.com/echukwudebere/kachifo/internal/metrics"
	"github.com/echukwudebere/kachifo/internal/retry"
	"github.com/echukwudebere/kachifo/models"
)

const (
	truncateLen    = 200
	maxSummaryLen  = 1024
	minSummaryLen  = 50
	fallbackFiller = "No summary available"
)

// Enricher turns raw items into enriched items: a generated summary plus
// extracted entities, cached by content hash so the same text seen from
// different providers is processed once. Service failures degrade to a
// truncation of the original text and never fail the batch.
type Enricher struct {
	svc     Service
	cache   *cache.Memory[models.Enrichment]
	retrier *retry.Executor
	logger  *log.Logger
}

func New(svc Service, c *cache.Memory[models.Enrichment], retrier *retry.Executor, logger *log.Logger) *Enricher {
	if logger == nil {
		logger = log.New(log.Writer(), "[ENRICH] ", log.LstdFlags)
	}
	return &Enricher{svc: svc, cache: c, retrier: retrier, logger: logger}
}

// EnrichAll enriches every item in order. Per-item failures fall back to
// truncated source text, so the output always has the same length and
// order as the input.
func (e *Enricher) EnrichAll(ctx context.Context, items []models.RawItem) []models.EnrichedItem {
	out := make([]models.EnrichedItem, 0, len(items))
	for _, item := range items {
		enr := e.enrichOne(ctx, item)
		out = append(out, models.EnrichedItem{
			RawItem:  item,
			Summary:  enr.Summary,
			Entities: enr.Entities,
		})
	}
	return out
}

func (e *Enricher) enrichOne(ctx context.Context, item models.RawItem) models.Enrichment {
	key := helpers.ContentHash(item.Title, item.Body)
	if enr, ok := e.cache.Get(key); ok {
		metrics.EnrichmentCalls.WithLabelValues("cached").Inc()
		return enr
	}

	text := strings.TrimSpace(item.Title + " " + item.Body)
	maxLen, minLen := summaryBounds(text)

	var summary string
	err := e.retrier.Do(ctx, func() error {
		s, serr := e.svc.Summarize(ctx, text, maxLen, minLen)
		if serr != nil {
			return serr
		}
		summary = s
		return nil
	})
	if err != nil {
		e.logger.Printf("summarize failed for %q: %v", item.URL, err)
		metrics.EnrichmentCalls.WithLabelValues("fallback").Inc()
		return fallbackEnrichment(text)
	}

	// Entities are best effort: a NER failure does not downgrade the
	// summary. The entity-less result is served but not cached, so the
	// next sighting retries extraction once the model recovers.
	entities, err := e.svc.ExtractEntities(ctx, text)
	enr := models.Enrichment{Summary: summary, Entities: entities}
	if err != nil {
		e.logger.Printf("entity extraction failed for %q: %v", item.URL, err)
		enr.Entities = nil
	} else {
		e.cache.Set(key, enr)
	}
	metrics.EnrichmentCalls.WithLabelValues("ok").Inc()
	return enr
}

// fallbackEnrichment is the degraded result when the service is down:
// the first 200 characters of the source text. Fallbacks are not cached
// so a recovered service produces a real summary on the next sighting.
func fallbackEnrichment(text string) models.Enrichment {
	summary := helpers.Truncate(text, truncateLen)
	if summary == "" {
		summary = fallbackFiller
	}
	return models.Enrichment{Summary: summary}
}

// summaryBounds sizes the generation window to the input so short texts
// do not get padded summaries longer than themselves.
func summaryBounds(text string) (maxLen, minLen int) {
	words := len(strings.Fields(text))
	maxLen = words
	if maxLen > maxSummaryLen {
		maxLen = maxSummaryLen
	}
	if maxLen < 1 {
		maxLen = 1
	}
	minLen = maxLen / 4
	if minLen > minSummaryLen {
		minLen = minSummaryLen
	}
	if minLen < 1 {
		minLen = 1
	}
	return maxLen, minLen
}
