package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/echukwudebere/kachifo/internal/cache"
	"github.com/echukwudebere/kachifo/internal/helpers"
	"github.com/echukwudebere/kachifo/internal/metrics"
	"github.com/echukwudebere/kachifo/internal/ratelimit"
	"github.com/echukwudebere/kachifo/internal/retry"
	"github.com/echukwudebere/kachifo/models"
	"github.com/echukwudebere/kachifo/provider"
)

const defaultFetchTimeout = 10 * time.Second

// Aggregator fans a query out to every registered provider concurrently,
// waits for all of them, and merges the results: flatten in registration
// order, drop exact duplicate URLs keeping the first, cap the total. A
// failed provider contributes nothing and never fails the batch.
type Aggregator struct {
	adapters     []provider.Adapter
	limiter      *ratelimit.Registry
	retrier      *retry.Executor
	fetchCache   cache.Bytes
	fetchTTL     time.Duration
	fetchTimeout time.Duration
	maxItems     int
	logger       *log.Logger
}

type Options struct {
	Limiter      *ratelimit.Registry
	Retrier      *retry.Executor
	FetchCache   cache.Bytes
	FetchTTL     time.Duration
	FetchTimeout time.Duration
	MaxItems     int
	Logger       *log.Logger
}

func New(adapters []provider.Adapter, opts Options) *Aggregator {
	if opts.Logger == nil {
		opts.Logger = log.New(log.Writer(), "[AGGREGATE] ", log.LstdFlags)
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = 12
	}
	return &Aggregator{
		adapters:     adapters,
		limiter:      opts.Limiter,
		retrier:      opts.Retrier,
		fetchCache:   opts.FetchCache,
		fetchTTL:     opts.FetchTTL,
		fetchTimeout: opts.FetchTimeout,
		maxItems:     opts.MaxItems,
		logger:       opts.Logger,
	}
}

// Fetch runs the fan-out for query and returns the merged items plus the
// number of providers that failed. Merge order is adapter registration
// order regardless of which goroutine finished first.
func (a *Aggregator) Fetch(ctx context.Context, query string) ([]models.RawItem, int) {
	perProvider := make([][]models.RawItem, len(a.adapters))
	failed := 0

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i, ad := range a.adapters {
		wg.Add(1)
		go func(i int, ad provider.Adapter) {
			defer wg.Done()
			items, err := a.fetchOne(ctx, ad, query)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				return
			}
			perProvider[i] = items
		}(i, ad)
	}
	wg.Wait()

	return a.merge(perProvider), failed
}

func (a *Aggregator) fetchOne(ctx context.Context, ad provider.Adapter, query string) ([]models.RawItem, error) {
	source := ad.Source()
	start := time.Now()
	defer func() {
		metrics.ProviderFetchSeconds.WithLabelValues(string(source)).Observe(time.Since(start).Seconds())
	}()

	key := "fetch:" + string(source) + ":" + helpers.NormalizeQuery(query)
	if a.fetchCache != nil {
		if raw, ok, err := a.fetchCache.Get(ctx, key); err != nil {
			a.logger.Printf("%s: cache read failed: %v", source, err)
		} else if ok {
			var items []models.RawItem
			if err := json.Unmarshal(raw, &items); err == nil {
				metrics.ProviderFetches.WithLabelValues(string(source), "cached").Inc()
				return items, nil
			}
			a.logger.Printf("%s: dropping undecodable cache entry", source)
		}
	}

	fctx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()

	if a.limiter != nil {
		if err := a.limiter.Wait(fctx, source); err != nil {
			metrics.ProviderFetches.WithLabelValues(string(source), "timeout").Inc()
			a.logger.Printf("%s: rate limit wait: %v", source, err)
			return nil, err
		}
	}

	var items []models.RawItem
	fetch := func() error {
		got, err := ad.Fetch(fctx, query)
		if err != nil {
			return err
		}
		items = got
		return nil
	}
	var err error
	if a.retrier != nil {
		err = a.retrier.Do(fctx, fetch)
	} else {
		err = fetch()
	}
	if err != nil {
		outcome := "error"
		var pe *models.ProviderError
		if errors.As(err, &pe) && pe.Kind == models.ProviderErrTimeout {
			outcome = "timeout"
		}
		metrics.ProviderFetches.WithLabelValues(string(source), outcome).Inc()
		a.logger.Printf("%s: fetch failed: %v", source, err)
		return nil, err
	}

	metrics.ProviderFetches.WithLabelValues(string(source), "ok").Inc()
	if a.fetchCache != nil {
		if raw, merr := json.Marshal(items); merr == nil {
			if serr := a.fetchCache.Set(ctx, key, raw, a.fetchTTL); serr != nil {
				a.logger.Printf("%s: cache write failed: %v", source, serr)
			}
		}
	}
	return items, nil
}

// merge flattens per-provider slices in registration order, keeps the
// first item for each URL, and caps the result.
func (a *Aggregator) merge(perProvider [][]models.RawItem) []models.RawItem {
	seen := make(map[string]struct{})
	var out []models.RawItem
	for _, items := range perProvider {
		for _, item := range items {
			if item.URL != "" {
				if _, dup := seen[item.URL]; dup {
					continue
				}
				seen[item.URL] = struct{}{}
			}
			out = append(out, item)
			if len(out) == a.maxItems {
				return out
			}
		}
	}
	return out
}
