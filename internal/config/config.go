// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	Rate      RateConfig      `mapstructure:"rate"`
	Robots    RobotsConfig    `mapstructure:"robots"`
	Selectors SelectorsConfig `mapstructure:"selectors"`
	Model     ModelConfig     `mapstructure:"model"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Review    ReviewConfig    `mapstructure:"review"`
	Images    ImagesConfig    `mapstructure:"images"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls the ops HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CrawlerConfig governs the crawl session.
type CrawlerConfig struct {
	Queries           []string      `mapstructure:"queries"`
	MaxAdsPerQuery    int           `mapstructure:"max_ads_per_query"`
	BaseURL           string        `mapstructure:"base_url"`
	SearchURLTemplate string        `mapstructure:"search_url_template"`
	UserAgent         string        `mapstructure:"user_agent"`
	PageTimeout       time.Duration `mapstructure:"page_timeout"`
	RecordDelay       time.Duration `mapstructure:"record_delay"`
	ScreenshotDir     string        `mapstructure:"screenshot_dir"`
	FailureDir        string        `mapstructure:"failure_dir"`
	PromotionMinBytes int           `mapstructure:"promotion_min_bytes"`
	DomainQPS         float64       `mapstructure:"domain_qps"`
}

// RateConfig configures the session-global request pacer.
type RateConfig struct {
	CallsPerMinute int           `mapstructure:"calls_per_minute"`
	MinDelay       time.Duration `mapstructure:"min_delay"`
	MaxDelay       time.Duration `mapstructure:"max_delay"`
}

// RobotsConfig controls robots.txt compliance.
type RobotsConfig struct {
	Respect bool   `mapstructure:"respect"`
	URL     string `mapstructure:"url"`
}

// SelectorsConfig holds the CSS selectors used for extraction. Selector
// strings are configuration, not pipeline logic, so markup changes on the
// target site stay out of the code.
type SelectorsConfig struct {
	ListingLinks string `mapstructure:"listing_links"`
	Title        string `mapstructure:"title"`
	Price        string `mapstructure:"price"`
	Description  string `mapstructure:"description"`
	LocationDate string `mapstructure:"location_date"`
	Images       string `mapstructure:"images"`
}

// ModelConfig configures the analysis model channel.
type ModelConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	Name       string        `mapstructure:"name"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// WebhookConfig configures the delivery sink.
type WebhookConfig struct {
	URL         string        `mapstructure:"url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`
}

// ReviewConfig configures the manual review queue file.
type ReviewConfig struct {
	File string `mapstructure:"file"`
}

// ImagesConfig controls optional image downloading.
type ImagesConfig struct {
	Download bool   `mapstructure:"download"`
	Dir      string `mapstructure:"dir"`
	MaxBytes int64  `mapstructure:"max_bytes"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ADSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("crawler.max_ads_per_query", 10)
	v.SetDefault("crawler.base_url", "https://www.olx.pl")
	v.SetDefault("crawler.search_url_template", "https://www.olx.pl/d/oferty/q-%s/")
	v.SetDefault("crawler.user_agent", "adscout-bot/0.1")
	v.SetDefault("crawler.page_timeout", 30*time.Second)
	v.SetDefault("crawler.record_delay", time.Second)
	v.SetDefault("crawler.screenshot_dir", "./data/captcha_screenshots")
	v.SetDefault("crawler.failure_dir", "./data/failed_webhooks")
	v.SetDefault("crawler.promotion_min_bytes", 2048)
	v.SetDefault("crawler.domain_qps", 1.0)
	v.SetDefault("rate.calls_per_minute", 10)
	v.SetDefault("rate.min_delay", 800*time.Millisecond)
	v.SetDefault("rate.max_delay", 2500*time.Millisecond)
	v.SetDefault("robots.respect", true)
	v.SetDefault("robots.url", "https://www.olx.pl/robots.txt")
	v.SetDefault("selectors.listing_links", `[data-cy="l-card"] a[href*="/d/oferty/"]`)
	v.SetDefault("selectors.title", `h1, h4[data-cy="ad_title"]`)
	v.SetDefault("selectors.price", `h3[data-testid="ad-price-container"]`)
	v.SetDefault("selectors.description", `[data-cy="ad_description"]`)
	v.SetDefault("selectors.location_date", `[data-testid="location-date"]`)
	v.SetDefault("selectors.images", `[data-testid="swiper-image-slide"] img, .swiper-slide img`)
	v.SetDefault("model.name", "gemini-1.5-flash")
	v.SetDefault("model.timeout", 60*time.Second)
	v.SetDefault("model.max_retries", 2)
	v.SetDefault("webhook.timeout", 30*time.Second)
	v.SetDefault("webhook.max_retries", 3)
	v.SetDefault("webhook.backoff_base", 2*time.Second)
	v.SetDefault("review.file", "./data/manual_review.json")
	v.SetDefault("images.download", false)
	v.SetDefault("images.dir", "./data/images")
	v.SetDefault("images.max_bytes", 10<<20)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits. Missing sink or
// model credentials are fatal: the pipeline must not start half-wired.
func (c Config) Validate() error {
	if len(c.Crawler.Queries) == 0 {
		return fmt.Errorf("crawler.queries must include at least one search query")
	}
	if c.Crawler.MaxAdsPerQuery <= 0 {
		return fmt.Errorf("crawler.max_ads_per_query must be > 0")
	}
	if c.Crawler.PageTimeout <= 0 {
		return fmt.Errorf("crawler.page_timeout must be > 0")
	}
	if c.Rate.CallsPerMinute <= 0 {
		return fmt.Errorf("rate.calls_per_minute must be > 0")
	}
	if c.Rate.MinDelay < 0 || c.Rate.MaxDelay < c.Rate.MinDelay {
		return fmt.Errorf("rate.min_delay/rate.max_delay must satisfy 0 <= min <= max")
	}
	if c.Webhook.URL == "" {
		return fmt.Errorf("webhook.url must be set")
	}
	if c.Model.APIKey == "" {
		return fmt.Errorf("model.api_key must be set")
	}
	if c.Model.MaxRetries <= 0 {
		return fmt.Errorf("model.max_retries must be > 0")
	}
	if c.Webhook.MaxRetries <= 0 {
		return fmt.Errorf("webhook.max_retries must be > 0")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}
