package aggregate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/echukwudebere/kachifo/internal/cache"
	"github.com/echukwudebere/kachifo/internal/retry"
	"github.com/echukwudebere/kachifo/models"
	"github.com/echukwudebere/kachifo/provider"
)

type stubAdapter struct {
	source models.Source
	items  []models.RawItem
	err    error
	delay  time.Duration
	calls  atomic.Int64
}

func (s *stubAdapter) Source() models.Source { return s.source }

func (s *stubAdapter) Fetch(ctx context.Context, _ string) ([]models.RawItem, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, &models.ProviderError{Provider: s.source, Kind: models.ProviderErrTimeout, Err: ctx.Err()}
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

func item(source models.Source, url string) models.RawItem {
	return models.RawItem{Source: source, Title: "t " + url, URL: url}
}

func newAggregator(adapters []provider.Adapter, opts Options) *Aggregator {
	if opts.MaxItems == 0 {
		opts.MaxItems = 12
	}
	return New(adapters, opts)
}

func TestFetchMergesInRegistrationOrder(t *testing.T) {
	fast := &stubAdapter{source: models.SourceReddit, items: []models.RawItem{item(models.SourceReddit, "https://r/1")}}
	slow := &stubAdapter{source: models.SourceYouTube, delay: 20 * time.Millisecond, items: []models.RawItem{item(models.SourceYouTube, "https://y/1")}}

	a := newAggregator([]provider.Adapter{slow, fast}, Options{})
	items, failed := a.Fetch(context.Background(), "go conference")
	if failed != 0 {
		t.Fatalf("failed = %d, want 0", failed)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Source != models.SourceYouTube || items[1].Source != models.SourceReddit {
		t.Fatalf("merge order must follow registration, got %v then %v", items[0].Source, items[1].Source)
	}
}

func TestFetchDropsDuplicateURLsFirstWins(t *testing.T) {
	first := &stubAdapter{source: models.SourceNewsAPI, items: []models.RawItem{
		item(models.SourceNewsAPI, "https://shared"),
		item(models.SourceNewsAPI, "https://n/2"),
	}}
	second := &stubAdapter{source: models.SourceGoogle, items: []models.RawItem{
		item(models.SourceGoogle, "https://shared"),
	}}

	a := newAggregator([]provider.Adapter{first, second}, Options{})
	items, _ := a.Fetch(context.Background(), "electric vehicles")
	if len(items) != 2 {
		t.Fatalf("expected duplicate URL dropped, got %d items", len(items))
	}
	if items[0].Source != models.SourceNewsAPI {
		t.Fatalf("first occurrence should win, got %v", items[0].Source)
	}
}

func TestFetchCapsMergedItems(t *testing.T) {
	ad := &stubAdapter{source: models.SourceNewsAPI, items: []models.RawItem{
		item(models.SourceNewsAPI, "https://n/1"),
		item(models.SourceNewsAPI, "https://n/2"),
		item(models.SourceNewsAPI, "https://n/3"),
	}}
	a := newAggregator([]provider.Adapter{ad}, Options{MaxItems: 2})
	items, _ := a.Fetch(context.Background(), "anything")
	if len(items) != 2 {
		t.Fatalf("expected cap at 2, got %d", len(items))
	}
}

func TestFetchToleratesProviderFailure(t *testing.T) {
	ok := &stubAdapter{source: models.SourceReddit, items: []models.RawItem{item(models.SourceReddit, "https://r/1")}}
	broken := &stubAdapter{source: models.SourceTwitter, err: &models.ProviderError{
		Provider: models.SourceTwitter, Kind: models.ProviderErrStatus, Status: 401, Err: errors.New("unauthorized"),
	}}

	a := newAggregator([]provider.Adapter{ok, broken}, Options{})
	items, failed := a.Fetch(context.Background(), "ai chips")
	if failed != 1 {
		t.Fatalf("failed = %d, want 1", failed)
	}
	if len(items) != 1 || items[0].Source != models.SourceReddit {
		t.Fatalf("healthy provider should still contribute: %v", items)
	}
}

func TestFetchUsesCacheOnSecondCall(t *testing.T) {
	ad := &stubAdapter{source: models.SourceGoogle, items: []models.RawItem{item(models.SourceGoogle, "https://g/1")}}
	a := newAggregator([]provider.Adapter{ad}, Options{
		FetchCache: cache.NewMemoryBytes(time.Minute, 64),
		FetchTTL:   time.Minute,
	})

	for i := 0; i < 2; i++ {
		items, failed := a.Fetch(context.Background(), "Quantum Computing")
		if failed != 0 || len(items) != 1 {
			t.Fatalf("call %d: items=%d failed=%d", i, len(items), failed)
		}
	}
	if got := ad.calls.Load(); got != 1 {
		t.Fatalf("second call should hit the cache, adapter called %d times", got)
	}

	// Keying is case-insensitive on the query.
	a.Fetch(context.Background(), "quantum computing")
	if got := ad.calls.Load(); got != 1 {
		t.Fatalf("normalized query should share the cache entry, adapter called %d times", got)
	}
}

func TestFetchBoundsSlowProvider(t *testing.T) {
	slow := &stubAdapter{source: models.SourceYouTube, delay: time.Second, items: []models.RawItem{item(models.SourceYouTube, "https://y/1")}}
	fast := &stubAdapter{source: models.SourceReddit, items: []models.RawItem{item(models.SourceReddit, "https://r/1")}}

	a := newAggregator([]provider.Adapter{slow, fast}, Options{
		FetchTimeout: 30 * time.Millisecond,
		Retrier:      retry.New(0, time.Millisecond),
	})
	start := time.Now()
	items, failed := a.Fetch(context.Background(), "slow upstream")
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("fan-out took %v, should be bounded by the per-provider timeout", elapsed)
	}
	if failed != 1 {
		t.Fatalf("failed = %d, want the slow provider timed out", failed)
	}
	if len(items) != 1 || items[0].Source != models.SourceReddit {
		t.Fatalf("fast provider should contribute: %v", items)
	}
}
