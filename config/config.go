package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the trend service.
type Config struct {
	General    GeneralConfig    `mapstructure:"general"`
	Providers  ProvidersConfig  `mapstructure:"providers"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Session    SessionConfig    `mapstructure:"session"`
	Quota      QuotaConfig      `mapstructure:"quota"`
	Ranking    RankingConfig    `mapstructure:"ranking"`
	Aggregate  AggregateConfig  `mapstructure:"aggregate"`
}

// GeneralConfig contains server-wide settings.
type GeneralConfig struct {
	Listen   string `mapstructure:"listen"`
	LogLevel string `mapstructure:"log_level"`
	Debug    bool   `mapstructure:"debug"`
}

// ProvidersConfig groups the upstream content source settings.
type ProvidersConfig struct {
	YouTube ProviderConfig `mapstructure:"youtube"`
	Twitter ProviderConfig `mapstructure:"twitter"`
	Reddit  ProviderConfig `mapstructure:"reddit"`
	Google  ProviderConfig `mapstructure:"google"`
	NewsAPI ProviderConfig `mapstructure:"newsapi"`
}

// ProviderConfig is one upstream source. A provider whose required
// credentials are missing is disabled for the process lifetime rather than
// retried per request.
type ProviderConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	APISecret  string        `mapstructure:"api_secret"` // bearer/secret where the API wants one
	ExtraID    string        `mapstructure:"extra_id"`   // e.g. Google CSE id, Reddit user agent
	Endpoint   string        `mapstructure:"endpoint"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RateLimit  float64       `mapstructure:"rate_limit"` // max calls per second
	MaxResults int           `mapstructure:"max_results"`
}

// Enabled reports whether the provider has the credentials it needs.
func (p ProviderConfig) Enabled() bool {
	return strings.TrimSpace(p.APIKey) != ""
}

// EnrichmentConfig configures the external enrichment service client.
type EnrichmentConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	Endpoint     string        `mapstructure:"endpoint"`
	SummaryModel string        `mapstructure:"summary_model"`
	NERModel     string        `mapstructure:"ner_model"`
	ChatModel    string        `mapstructure:"chat_model"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	BackoffBase  time.Duration `mapstructure:"backoff_base"`
}

// CacheConfig holds TTLs and bounds for the fetch and enrichment caches.
type CacheConfig struct {
	FetchTTL      time.Duration `mapstructure:"fetch_ttl"`
	EnrichmentTTL time.Duration `mapstructure:"enrichment_ttl"`
	MaxEntries    int           `mapstructure:"max_entries"`
	RedisAddr     string        `mapstructure:"redis_addr"` // optional; empty keeps the fetch cache in memory
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
}

// SessionConfig bounds conversation history.
type SessionConfig struct {
	Cap     int           `mapstructure:"cap"` // non-system turns kept per session
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
}

// QuotaConfig caps pipeline invocations.
type QuotaConfig struct {
	PerClientPerHour int `mapstructure:"per_client_per_hour"`
	GlobalPerDay     int `mapstructure:"global_per_day"`
}

// RankingConfig weights sources and engagement signals.
type RankingConfig struct {
	SourceWeights     map[string]float64 `mapstructure:"source_weights"`
	EngagementWeights EngagementWeights  `mapstructure:"engagement_weights"`
}

// EngagementWeights is the linear combination applied to engagement signals.
type EngagementWeights struct {
	Likes    float64 `mapstructure:"likes"`
	Shares   float64 `mapstructure:"shares"`
	Replies  float64 `mapstructure:"replies"`
	Comments float64 `mapstructure:"comments"`
}

// AggregateConfig bounds the merged result set.
type AggregateConfig struct {
	MaxItems   int           `mapstructure:"max_items"`
	MaxRetries int           `mapstructure:"max_retries"`
	Backoff    time.Duration `mapstructure:"backoff"`
}

func (q QuotaConfig) Validate() error {
	if q.PerClientPerHour <= 0 {
		return fmt.Errorf("quota.per_client_per_hour must be > 0")
	}
	if q.GlobalPerDay <= 0 {
		return fmt.Errorf("quota.global_per_day must be > 0")
	}
	return nil
}

func (s SessionConfig) Validate() error {
	if s.Cap <= 0 {
		return fmt.Errorf("session.cap must be > 0")
	}
	if s.IdleTTL <= 0 {
		return fmt.Errorf("session.idle_ttl must be > 0")
	}
	return nil
}

func (c CacheConfig) Validate() error {
	if c.FetchTTL <= 0 || c.EnrichmentTTL <= 0 {
		return fmt.Errorf("cache.fetch_ttl and cache.enrichment_ttl must be > 0")
	}
	if c.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be > 0")
	}
	return nil
}

// LoadConfig reads the config file (JSON, viper search path) and applies
// KACHIFO_* environment overrides. A missing file is fine: defaults plus
// env cover a full run with every credentialed provider disabled.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")

	setDefaults(v)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("KACHIFO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Quota.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Session.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Cache.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.listen", ":8080")
	v.SetDefault("general.log_level", "info")

	v.SetDefault("providers.youtube.endpoint", "https://www.googleapis.com/youtube/v3/search")
	v.SetDefault("providers.twitter.endpoint", "https://api.twitter.com/2/tweets/search/recent")
	v.SetDefault("providers.reddit.endpoint", "https://www.reddit.com/search.json")
	v.SetDefault("providers.google.endpoint", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("providers.newsapi.endpoint", "https://newsapi.org/v2/everything")
	for _, p := range []string{"youtube", "twitter", "reddit", "google", "newsapi"} {
		v.SetDefault("providers."+p+".timeout", 10*time.Second)
		v.SetDefault("providers."+p+".rate_limit", 2.0)
		v.SetDefault("providers."+p+".max_results", 3)
	}

	v.SetDefault("enrichment.endpoint", "https://api-inference.huggingface.co")
	v.SetDefault("enrichment.summary_model", "facebook/bart-large-cnn")
	v.SetDefault("enrichment.ner_model", "dbmdz/bert-large-cased-finetuned-conll03-english")
	v.SetDefault("enrichment.chat_model", "facebook/blenderbot-400M-distill")
	v.SetDefault("enrichment.timeout", 20*time.Second)
	v.SetDefault("enrichment.max_retries", 3)
	v.SetDefault("enrichment.backoff_base", 2*time.Second)

	v.SetDefault("cache.fetch_ttl", 5*time.Minute)
	v.SetDefault("cache.enrichment_ttl", time.Hour)
	v.SetDefault("cache.max_entries", 2048)

	v.SetDefault("session.cap", 20)
	v.SetDefault("session.idle_ttl", 24*time.Hour)

	v.SetDefault("quota.per_client_per_hour", 60)
	v.SetDefault("quota.global_per_day", 60)

	v.SetDefault("ranking.source_weights", map[string]float64{
		"newsapi": 1.0,
		"google":  0.8,
		"youtube": 0.7,
		"twitter": 0.6,
		"reddit":  0.6,
	})
	v.SetDefault("ranking.engagement_weights.likes", 1.0)
	v.SetDefault("ranking.engagement_weights.shares", 2.0)
	v.SetDefault("ranking.engagement_weights.replies", 1.5)
	v.SetDefault("ranking.engagement_weights.comments", 1.5)

	v.SetDefault("aggregate.max_items", 12)
	v.SetDefault("aggregate.max_retries", 3)
	v.SetDefault("aggregate.backoff", 2*time.Second)
}
