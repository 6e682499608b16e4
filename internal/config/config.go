// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/minhtran-vn/topcv-crawler/internal/crawler"
)

// DefaultKeywords seeds a run when no keywords are configured. Mirrors the
// IT-jobs queries the datasets are built around.
var DefaultKeywords = []string{
	"Data Analyst",
	"Data Engineer",
	"Data Scientist",
	"Backend Developer",
	"Frontend Developer",
	"DevOps Engineer",
	"QA Engineer",
	"Mobile Developer",
	"Software Engineer",
	"Machine Learning",
	"Python Developer",
	"Java Developer",
}

// Config captures every configuration knob, loaded from file, environment
// (TOPCV_ prefix), and flag bindings.
type Config struct {
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Output   OutputConfig   `mapstructure:"output"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Report   ReportConfig   `mapstructure:"report"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
}

// CrawlerConfig governs the keyword/page loop.
type CrawlerConfig struct {
	Keywords          []string `mapstructure:"keywords"`
	StartPage         int      `mapstructure:"start_page"`
	EndPage           int      `mapstructure:"end_page"`
	BaseURL           string   `mapstructure:"base_url"`
	CrawlDate         string   `mapstructure:"crawl_date"`
	FetchCompanyPages bool     `mapstructure:"fetch_company_pages"`
	DetailWorkers     int      `mapstructure:"detail_workers"`
}

// HTTPConfig governs fetch politeness and resilience.
type HTTPConfig struct {
	MinDelayMs     int      `mapstructure:"min_delay_ms"`
	MaxDelayMs     int      `mapstructure:"max_delay_ms"`
	MaxRetries     int      `mapstructure:"max_retries"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
	UserAgents     []string `mapstructure:"user_agents"`
}

// OutputConfig names the emitted artifacts.
type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Prefix string `mapstructure:"prefix"`
	XLSX   bool   `mapstructure:"xlsx"`
}

// StorageConfig selects the upload collaborator.
type StorageConfig struct {
	// Provider is one of "none", "local", "gcs".
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Folder    string `mapstructure:"folder"`
	LocalDir  string `mapstructure:"local_dir"`
}

// ReportConfig tunes the end-of-run summary.
type ReportConfig struct {
	CountPolicy string `mapstructure:"count_policy"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// ScheduleConfig configures the long-lived scheduled mode.
type ScheduleConfig struct {
	// Spec is a robfig/cron expression, e.g. "0 6 * * *" or "@every 24h".
	Spec        string `mapstructure:"spec"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Load builds a Config from an optional config file plus environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TOPCV")
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
	v.SetDefault("crawler.keywords", DefaultKeywords)
	v.SetDefault("crawler.start_page", 1)
	v.SetDefault("crawler.end_page", 3)
	v.SetDefault("crawler.base_url", "https://www.topcv.vn")
	v.SetDefault("crawler.fetch_company_pages", true)
	v.SetDefault("crawler.detail_workers", 1)
	v.SetDefault("http.min_delay_ms", 2000)
	v.SetDefault("http.max_delay_ms", 5000)
	v.SetDefault("http.max_retries", 4)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("output.dir", "./data")
	v.SetDefault("output.prefix", "topcv_jobs")
	v.SetDefault("output.xlsx", true)
	v.SetDefault("storage.provider", "none")
	v.SetDefault("storage.folder", "topcv")
	v.SetDefault("report.count_policy", string(crawler.CountUnique))
	v.SetDefault("logging.development", true)
	v.SetDefault("schedule.metrics_addr", ":9130")
}

// Validate enforces required values before any crawling starts. Violations
// of the crawl inputs come back as *crawler.ConfigError.
func (c Config) Validate() error {
	if err := c.CrawlerOptions().Validate(); err != nil {
		return err
	}
	if c.HTTP.MinDelayMs <= 0 {
		return &crawler.ConfigError{Field: "http.min_delay_ms", Reason: "must be > 0"}
	}
	if c.HTTP.MaxDelayMs < c.HTTP.MinDelayMs {
		return &crawler.ConfigError{Field: "http.max_delay_ms", Reason: "must be >= http.min_delay_ms"}
	}
	if c.HTTP.MaxRetries < 0 {
		return &crawler.ConfigError{Field: "http.max_retries", Reason: "must be >= 0"}
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return &crawler.ConfigError{Field: "http.timeout_seconds", Reason: "must be > 0"}
	}
	if c.Output.Dir == "" {
		return &crawler.ConfigError{Field: "output.dir", Reason: "must be set"}
	}
	if !crawler.ValidCountPolicy(crawler.CountPolicy(c.Report.CountPolicy)) {
		return &crawler.ConfigError{Field: "report.count_policy", Reason: `must be "unique" or "per_keyword"`}
	}
	switch c.Storage.Provider {
	case "none", "local", "gcs":
	default:
		return &crawler.ConfigError{Field: "storage.provider", Reason: `must be "none", "local", or "gcs"`}
	}
	if c.Storage.Provider == "gcs" && c.Storage.GCSBucket == "" {
		return &crawler.ConfigError{Field: "storage.gcs_bucket", Reason: "must be set for the gcs provider"}
	}
	if c.Storage.Provider == "local" && c.Storage.LocalDir == "" {
		return &crawler.ConfigError{Field: "storage.local_dir", Reason: "must be set for the local provider"}
	}
	return nil
}

// CrawlerOptions maps the config onto the orchestrator's input set.
func (c Config) CrawlerOptions() crawler.Options {
	return crawler.Options{
		Keywords:          c.Crawler.Keywords,
		StartPage:         c.Crawler.StartPage,
		EndPage:           c.Crawler.EndPage,
		CrawlDate:         c.Crawler.CrawlDate,
		FetchCompanyPages: c.Crawler.FetchCompanyPages,
		DetailWorkers:     c.Crawler.DetailWorkers,
	}
}

// MinDelay returns the configured minimum inter-request spacing.
func (c Config) MinDelay() time.Duration {
	return time.Duration(c.HTTP.MinDelayMs) * time.Millisecond
}

// MaxDelay returns the configured maximum inter-request spacing.
func (c Config) MaxDelay() time.Duration {
	return time.Duration(c.HTTP.MaxDelayMs) * time.Millisecond
}

// Timeout returns the per-request timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
