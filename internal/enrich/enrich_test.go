package enrich

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/echukwudebere/kachifo/internal/cache"
	"github.com/echukwudebere/kachifo/internal/retry"
	"github.com/echukwudebere/kachifo/models"
)

type fakeService struct {
	summarizeCalls int
	summarizeErr   error
	entities       []models.Entity
	entitiesErr    error
}

func (f *fakeService) Summarize(_ context.Context, text string, _, _ int) (string, error) {
	f.summarizeCalls++
	if f.summarizeErr != nil {
		return "", f.summarizeErr
	}
	return "summary of " + text, nil
}

func (f *fakeService) ExtractEntities(context.Context, string) ([]models.Entity, error) {
	if f.entitiesErr != nil {
		return nil, f.entitiesErr
	}
	return f.entities, nil
}

func (f *fakeService) Converse(context.Context, []models.Turn) (string, error) {
	return "", errors.New("not used")
}

func newTestEnricher(svc Service) (*Enricher, *cache.Memory[models.Enrichment]) {
	c := cache.NewMemory[models.Enrichment](time.Hour, 128)
	return New(svc, c, retry.New(0, time.Millisecond), nil), c
}

func TestEnrichAllPreservesOrderAndLength(t *testing.T) {
	svc := &fakeService{entities: []models.Entity{{Text: "OpenAI", Type: "ORG"}}}
	e, _ := newTestEnricher(svc)

	items := []models.RawItem{
		{Source: models.SourceNewsAPI, Title: "first", URL: "https://a"},
		{Source: models.SourceReddit, Title: "second", URL: "https://b"},
	}
	out := e.EnrichAll(context.Background(), items)
	if len(out) != 2 {
		t.Fatalf("expected 2 items, got %d", len(out))
	}
	if out[0].URL != "https://a" || out[1].URL != "https://b" {
		t.Fatalf("order not preserved: %v", out)
	}
	if out[0].Summary == "" || out[0].Entities == nil {
		t.Fatalf("expected summary and entities, got %+v", out[0])
	}
}

func TestEnrichOneCachesByContentHash(t *testing.T) {
	svc := &fakeService{}
	e, _ := newTestEnricher(svc)

	// Same title and body from two providers hash to the same key.
	a := models.RawItem{Source: models.SourceTwitter, Title: "big news", Body: "details", URL: "https://x"}
	b := models.RawItem{Source: models.SourceReddit, Title: "big news", Body: "details", URL: "https://y"}

	e.EnrichAll(context.Background(), []models.RawItem{a, b})
	if svc.summarizeCalls != 1 {
		t.Fatalf("identical content should summarize once, got %d calls", svc.summarizeCalls)
	}
}

func TestEnrichFallsBackToTruncation(t *testing.T) {
	svc := &fakeService{summarizeErr: &models.EnrichmentError{Op: "summarize", Status: 500, Temporary: true, Err: errors.New("down")}}
	e, c := newTestEnricher(svc)

	long := strings.Repeat("word ", 100)
	out := e.EnrichAll(context.Background(), []models.RawItem{{Title: "t", Body: long, URL: "https://z"}})
	if out[0].Summary == "" {
		t.Fatalf("fallback summary must not be empty")
	}
	if got := len([]rune(out[0].Summary)); got > truncateLen+3 {
		t.Fatalf("fallback summary too long: %d runes", got)
	}
	if c.Len() != 0 {
		t.Fatalf("fallback results must not be cached")
	}
}

func TestEnrichFallbackForEmptyText(t *testing.T) {
	svc := &fakeService{summarizeErr: &models.EnrichmentError{Op: "summarize", Err: errors.New("bad request")}}
	e, _ := newTestEnricher(svc)

	out := e.EnrichAll(context.Background(), []models.RawItem{{URL: "https://empty"}})
	if out[0].Summary != fallbackFiller {
		t.Fatalf("expected filler summary, got %q", out[0].Summary)
	}
}

func TestEnrichEntityFailureIsBestEffort(t *testing.T) {
	svc := &fakeService{entitiesErr: &models.EnrichmentError{Op: "extract_entities", Status: 503, Temporary: true, Err: errors.New("down")}}
	e, c := newTestEnricher(svc)

	item := models.RawItem{Title: "t", Body: "b", URL: "https://q"}
	out := e.EnrichAll(context.Background(), []models.RawItem{item})
	if out[0].Summary == "" {
		t.Fatalf("summary should survive entity failure")
	}
	if len(out[0].Entities) != 0 {
		t.Fatalf("expected no entities, got %v", out[0].Entities)
	}
	if c.Len() != 0 {
		t.Fatalf("entity-less result must not be cached")
	}

	// Once extraction recovers the same content gets entities and caches.
	svc.entitiesErr = nil
	svc.entities = []models.Entity{{Text: "Lagos", Type: "LOC"}}
	out = e.EnrichAll(context.Background(), []models.RawItem{item})
	if len(out[0].Entities) != 1 {
		t.Fatalf("recovered extraction should backfill entities, got %v", out[0].Entities)
	}
	if c.Len() != 1 {
		t.Fatalf("full result should now be cached")
	}
}

func TestSummaryBounds(t *testing.T) {
	maxLen, minLen := summaryBounds("one two three four")
	if maxLen != 4 {
		t.Fatalf("maxLen = %d, want 4", maxLen)
	}
	if minLen != 1 {
		t.Fatalf("minLen = %d, want 1", minLen)
	}

	long := strings.Repeat("w ", 5000)
	maxLen, minLen = summaryBounds(long)
	if maxLen != maxSummaryLen {
		t.Fatalf("maxLen = %d, want cap %d", maxLen, maxSummaryLen)
	}
	if minLen != minSummaryLen {
		t.Fatalf("minLen = %d, want cap %d", minLen, minSummaryLen)
	}
}
