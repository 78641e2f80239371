// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/JakeFAU/court-ruling-crawler/internal/crawler"
)

// EnvPrefix namespaces environment overrides, e.g. RULINGS_SOURCE_COURT.
const EnvPrefix = "RULINGS"

// Config captures all crawler configuration knobs loaded via Viper.
type Config struct {
	Source  SourceConfig  `mapstructure:"source"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	PDF     PDFConfig     `mapstructure:"pdf"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// SourceConfig selects the directory slice to crawl.
type SourceConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Court     string `mapstructure:"court"`
	Year      string `mapstructure:"year"`
	StartPage int    `mapstructure:"start_page"`
	EndPage   int    `mapstructure:"end_page"`
}

// CrawlerConfig governs dispatcher behavior.
type CrawlerConfig struct {
	Concurrency int    `mapstructure:"concurrency"`
	Timezone    string `mapstructure:"timezone"`
}

// HTTPConfig configures page fetching and the unavailable-status retry loop.
type HTTPConfig struct {
	TimeoutSeconds        int    `mapstructure:"timeout_seconds"`
	UserAgent             string `mapstructure:"user_agent"`
	UnavailableStatus     int    `mapstructure:"unavailable_status"`
	UnavailableMaxRetries int    `mapstructure:"unavailable_max_retries"`
	BackoffInitialMs      int    `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs          int    `mapstructure:"backoff_max_ms"`
}

// PDFConfig controls where and how ruling PDFs are saved.
type PDFConfig struct {
	Dir               string `mapstructure:"dir"`
	MaxRetries        int    `mapstructure:"max_retries"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds"`
	ChunkSize         int    `mapstructure:"chunk_size"`
}

// StoreConfig selects and addresses the record store.
type StoreConfig struct {
	Driver     string `mapstructure:"driver"`
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
	Table      string `mapstructure:"table"`
}

// LoggingConfig toggles zap development features and the log file.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
}

// MetricsConfig enables the ops server when ListenAddr is set.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// FlagKeys maps command-line flag names to config keys.
var FlagKeys = map[string]string{
	"court":        "source.court",
	"year":         "source.year",
	"start-page":   "source.start_page",
	"end-page":     "source.end_page",
	"concurrency":  "crawler.concurrency",
	"pdf-dir":      "pdf.dir",
	"store-driver": "store.driver",
	"store-uri":    "store.uri",
	"database":     "store.database",
	"collection":   "store.collection",
	"metrics-addr": "metrics.listen_addr",
}

// Load builds a Config from defaults, an optional file, the environment and
// any flags in flags that appear in FlagKeys.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = cfg.Source.Court
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.base_url", "https://putusan3.mahkamahagung.go.id")
	v.SetDefault("source.court", "pa-surabaya")
	v.SetDefault("source.year", "2023")
	v.SetDefault("source.start_page", 1)
	v.SetDefault("source.end_page", 9)
	v.SetDefault("crawler.concurrency", 4)
	v.SetDefault("crawler.timezone", "Asia/Jakarta")
	v.SetDefault("http.timeout_seconds", 60)
	v.SetDefault("http.user_agent", "court-ruling-crawler/0.1")
	v.SetDefault("http.unavailable_status", 503)
	v.SetDefault("http.unavailable_max_retries", 0)
	v.SetDefault("http.backoff_initial_ms", 500)
	v.SetDefault("http.backoff_max_ms", 30000)
	v.SetDefault("pdf.dir", "pdf")
	v.SetDefault("pdf.max_retries", 3)
	v.SetDefault("pdf.retry_delay_seconds", 5)
	v.SetDefault("pdf.chunk_size", 1024)
	v.SetDefault("store.driver", "mongo")
	v.SetDefault("store.uri", "mongodb://localhost:27017/")
	v.SetDefault("store.database", "ma_v3")
	v.SetDefault("store.collection", "")
	v.SetDefault("store.table", "rulings")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.file", "app.log")
	v.SetDefault("metrics.listen_addr", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Source.BaseURL) == "" {
		return fmt.Errorf("source.base_url is required")
	}
	if strings.TrimSpace(c.Source.Court) == "" {
		return fmt.Errorf("source.court is required")
	}
	if strings.TrimSpace(c.Source.Year) == "" {
		return fmt.Errorf("source.year is required")
	}
	if c.Source.StartPage < 1 {
		return fmt.Errorf("source.start_page must be >= 1")
	}
	if c.Source.EndPage < c.Source.StartPage {
		return fmt.Errorf("source.end_page must be >= source.start_page")
	}
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.UnavailableMaxRetries < 0 {
		return fmt.Errorf("http.unavailable_max_retries must be >= 0")
	}
	if c.PDF.MaxRetries < 0 {
		return fmt.Errorf("pdf.max_retries must be >= 0")
	}
	if c.PDF.ChunkSize <= 0 {
		return fmt.Errorf("pdf.chunk_size must be > 0")
	}
	switch strings.ToLower(strings.TrimSpace(c.Store.Driver)) {
	case "mongo", "postgres", "memory":
	default:
		return fmt.Errorf("store.driver must be one of mongo, postgres, memory")
	}
	return nil
}

// FetchTimeout converts http.timeout_seconds into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// RetryConfig converts the unavailable-status settings into a fetch policy.
func (c Config) RetryConfig() crawler.RetryConfig {
	return crawler.RetryConfig{
		Status:     c.HTTP.UnavailableStatus,
		MaxRetries: c.HTTP.UnavailableMaxRetries,
		BaseDelay:  time.Duration(c.HTTP.BackoffInitialMs) * time.Millisecond,
		MaxDelay:   time.Duration(c.HTTP.BackoffMaxMs) * time.Millisecond,
	}
}

// PDFRetryDelay converts pdf.retry_delay_seconds into a duration.
func (c Config) PDFRetryDelay() time.Duration {
	return time.Duration(c.PDF.RetryDelaySeconds) * time.Second
}

// PDFRetries returns pdf.max_retries in the downloader's convention, where
// zero selects the default and a negative value disables retries.
func (c Config) PDFRetries() int {
	if c.PDF.MaxRetries == 0 {
		return -1
	}
	return c.PDF.MaxRetries
}
