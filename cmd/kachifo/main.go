package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	appconfig "github.com/echukwudebere/kachifo/config"
	"github.com/echukwudebere/kachifo/internal/aggregate"
	"github.com/echukwudebere/kachifo/internal/cache"
	"github.com/echukwudebere/kachifo/internal/compose"
	"github.com/echukwudebere/kachifo/internal/enrich"
	"github.com/echukwudebere/kachifo/internal/pipeline"
	"github.com/echukwudebere/kachifo/internal/quota"
	"github.com/echukwudebere/kachifo/internal/rank"
	"github.com/echukwudebere/kachifo/internal/ratelimit"
	"github.com/echukwudebere/kachifo/internal/retry"
	"github.com/echukwudebere/kachifo/internal/server"
	"github.com/echukwudebere/kachifo/internal/session"
	"github.com/echukwudebere/kachifo/models"
	"github.com/echukwudebere/kachifo/provider"
	"github.com/echukwudebere/kachifo/provider/googlecse"
	"github.com/echukwudebere/kachifo/provider/newsapi"
	"github.com/echukwudebere/kachifo/provider/reddit"
	"github.com/echukwudebere/kachifo/provider/twitter"
	"github.com/echukwudebere/kachifo/provider/youtube"
)

func main() {
	root := &cobra.Command{Use: "kachifo"}

	var cfgPath string
	var listen string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the trend aggregation HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfgPath, listen)
		},
	}
	serve.Flags().StringVar(&cfgPath, "config", "", "path to config file")
	serve.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")

	root.AddCommand(serve)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfgPath, listen string) error {
	logger := log.New(log.Writer(), "[KACHIFO] ", log.LstdFlags)

	cfg, err := appconfig.LoadConfig(cfgPath)
	if err != nil {
		return err
	}
	if listen == "" {
		listen = cfg.General.Listen
	}

	ctx := context.Background()

	var fetchCache cache.Bytes
	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			return err
		}
		defer rc.Close()
		fetchCache = rc
		logger.Printf("fetch cache: redis at %s", cfg.Cache.RedisAddr)
	} else {
		fetchCache = cache.NewMemoryBytes(cfg.Cache.FetchTTL, cfg.Cache.MaxEntries)
		logger.Printf("fetch cache: in-memory")
	}

	limiter := ratelimit.NewRegistry()
	adapters := buildAdapters(cfg.Providers, limiter, logger)
	if len(adapters) == 0 {
		logger.Printf("warning: no providers configured, trend queries will return empty results")
	}

	fetchRetrier := retry.New(cfg.Aggregate.MaxRetries, cfg.Aggregate.Backoff)
	enrichRetrier := retry.New(cfg.Enrichment.MaxRetries, cfg.Enrichment.BackoffBase)

	aggregator := aggregate.New(adapters, aggregate.Options{
		Limiter:    limiter,
		Retrier:    fetchRetrier,
		FetchCache: fetchCache,
		FetchTTL:   cfg.Cache.FetchTTL,
		MaxItems:   cfg.Aggregate.MaxItems,
	})

	svc := enrich.NewClient(cfg.Enrichment)
	enricher := enrich.New(svc, cache.NewMemory[models.Enrichment](cfg.Cache.EnrichmentTTL, cfg.Cache.MaxEntries), enrichRetrier, nil)
	composer := compose.New(svc, enrichRetrier, nil)
	sessions := session.NewManager(cfg.Session.Cap, cfg.Session.IdleTTL)
	guard := quota.New(cfg.Quota.PerClientPerHour, cfg.Quota.GlobalPerDay)

	p := pipeline.New(pipeline.Options{
		Sessions:   sessions,
		Quota:      guard,
		Aggregator: aggregator,
		Enricher:   enricher,
		Ranker:     rank.New(cfg.Ranking),
		Composer:   composer,
		Service:    svc,
		Retrier:    enrichRetrier,
	})

	e := server.New(p)

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", listen)
		errCh <- e.Start(listen)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case sig := <-quit:
		logger.Printf("received %s, shutting down", sig)
		shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutCtx); err != nil {
			return err
		}
	}
	return nil
}

// buildAdapters instantiates every provider whose credentials are present
// and registers its rate limit. Missing credentials disable the provider
// for the process lifetime.
func buildAdapters(cfg appconfig.ProvidersConfig, limiter *ratelimit.Registry, logger *log.Logger) []provider.Adapter {
	var adapters []provider.Adapter
	add := func(source models.Source, pc appconfig.ProviderConfig, build func(appconfig.ProviderConfig) provider.Adapter) {
		if !pc.Enabled() {
			logger.Printf("provider %s disabled: missing credentials", source)
			return
		}
		limiter.Configure(source, pc.RateLimit)
		adapters = append(adapters, build(pc))
	}
	add(models.SourceYouTube, cfg.YouTube, func(pc appconfig.ProviderConfig) provider.Adapter { return youtube.New(pc) })
	add(models.SourceTwitter, cfg.Twitter, func(pc appconfig.ProviderConfig) provider.Adapter { return twitter.New(pc) })
	add(models.SourceGoogle, cfg.Google, func(pc appconfig.ProviderConfig) provider.Adapter { return googlecse.New(pc) })
	add(models.SourceNewsAPI, cfg.NewsAPI, func(pc appconfig.ProviderConfig) provider.Adapter { return newsapi.New(pc) })
	add(models.SourceReddit, cfg.Reddit, func(pc appconfig.ProviderConfig) provider.Adapter { return reddit.New(pc) })
	return adapters
}
