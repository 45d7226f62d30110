package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts submitted inputs by routed kind.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kachifo_requests_total",
		Help: "Submitted inputs by routed kind.",
	}, []string{"kind"})

	// ProviderFetches counts fetch attempts per provider by outcome:
	// ok, cached, error, timeout.
	ProviderFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kachifo_provider_fetches_total",
		Help: "Provider fetch attempts by outcome.",
	}, []string{"provider", "outcome"})

	// ProviderFetchSeconds observes per-provider fetch latency, cache
	// hits included.
	ProviderFetchSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kachifo_provider_fetch_seconds",
		Help:    "Provider fetch latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	// EnrichmentCalls counts enrichment service calls by outcome:
	// ok, cached, fallback.
	EnrichmentCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kachifo_enrichment_calls_total",
		Help: "Enrichment service calls by outcome.",
	}, []string{"outcome"})

	// QuotaRejections counts requests refused before any downstream work.
	QuotaRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kachifo_quota_rejections_total",
		Help: "Requests rejected by the quota guard.",
	})
)
