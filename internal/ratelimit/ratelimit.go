package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/echukwudebere/kachifo/models"
)

// Registry holds one smoothing limiter per provider. Calls arriving faster
// than the configured rate are delayed, never rejected: traffic is
// request-triggered and low volume, so smoothing beats dropping. Each
// limiter is owned here and injected into the aggregator, not shared via
// globals.
type Registry struct {
	mu       sync.Mutex
	limiters map[models.Source]*rate.Limiter
}

func NewRegistry() *Registry {
	return &Registry{limiters: make(map[models.Source]*rate.Limiter)}
}

// Configure sets the per-second call rate for a provider. Burst is 1, so
// the limiter reduces to "no two calls closer than 1/perSecond apart".
func (r *Registry) Configure(source models.Source, perSecond float64) {
	if perSecond <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limiters[source] = rate.NewLimiter(rate.Limit(perSecond), 1)
}

// Wait blocks until the provider may be called or ctx is done. Providers
// that were never configured pass through immediately.
func (r *Registry) Wait(ctx context.Context, source models.Source) error {
	r.mu.Lock()
	lim := r.limiters[source]
	r.mu.Unlock()
	if lim == nil {
		return nil
	}
	return lim.Wait(ctx)
}
