package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"docrender/internal/render"
)

// Config is the service configuration as read from YAML.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Limits      LimitsConfig      `yaml:"limits"`
	Logger      LoggerConfig      `yaml:"logger"`
	Cache       CacheConfig       `yaml:"cache"`
	RateLimiter RateLimiterConfig `yaml:"rate_limiter"`
	Render      RenderConfig      `yaml:"render"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type ServerConfig struct {
	Host    string `yaml:"host"`
	Port    string `yaml:"port"`
	Prefork bool   `yaml:"prefork"`
}

type LimitsConfig struct {
	MaxHTMLBytes int `yaml:"max_html_bytes"`
	MaxPDFBytes  int `yaml:"max_pdf_bytes"`
}

type LoggerConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type CacheConfig struct {
	PDFCacheEnabled bool          `yaml:"pdf_cache_enabled"`
	PDFCacheTTL     time.Duration `yaml:"pdf_cache_ttl"`
	RedisHost       string        `yaml:"redis_host"`
	RateLimitDB     int           `yaml:"redis_rate_db"`
	PDFCacheDB      int           `yaml:"redis_pdf_db"`
}

type RateLimiterConfig struct {
	// UserLimit is the number of requests per Interval per client; 0 disables it.
	UserLimit int           `yaml:"user_limit"`
	Interval  time.Duration `yaml:"interval"`
}

// RenderConfig configures browser launch and the default document layout.
type RenderConfig struct {
	TimeoutMS      int           `yaml:"timeout_ms"`
	LaunchRetries  int           `yaml:"launch_retries"`
	LaunchBackoff  time.Duration `yaml:"launch_backoff"`
	StartTimeout   time.Duration `yaml:"start_timeout"`
	Serverless     bool          `yaml:"serverless"`
	Local          bool          `yaml:"local"`
	BrowserBin     string        `yaml:"browser_bin"`
	DownloadDir    string        `yaml:"download_dir"`
	UserDataDir    string        `yaml:"user_data_dir"`
	ExportAttempts int           `yaml:"export_attempts"`

	Format            string `yaml:"format"`
	Orientation       string `yaml:"orientation"`
	Margin            string `yaml:"margin"`
	PrintBackground   *bool  `yaml:"print_background"`
	PreferCSSPageSize bool   `yaml:"prefer_css_page_size"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// Enabled reports whether a response database is configured.
func (p PostgresConfig) Enabled() bool { return p.Host != "" }

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Timeout returns the content-load timeout.
func (r RenderConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMS) * time.Millisecond
}

// Environment returns the launch environment descriptor.
func (r RenderConfig) Environment() render.Environment {
	return render.Environment{Serverless: r.Serverless, Local: r.Local}
}

// Document returns the default RenderConfig for exported documents.
func (r RenderConfig) Document() render.RenderConfig {
	d := render.DefaultRenderConfig()
	if r.Format != "" {
		d.Format = render.PageFormat(r.Format)
		if f, err := render.ParseFormat(r.Format); err == nil {
			d.Format = f
		}
	}
	if r.Orientation != "" {
		d.Orientation = render.Orientation(strings.ToLower(r.Orientation))
	}
	if r.Margin != "" {
		d.Margins = render.UniformMargins(r.Margin)
	}
	if r.PrintBackground != nil {
		d.PrintBackground = *r.PrintBackground
	}
	d.PreferCSSPageSize = r.PreferCSSPageSize
	return d
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: ":8080"},
		Limits: LimitsConfig{MaxHTMLBytes: 2 << 20, MaxPDFBytes: 20 << 20},
		Logger: LoggerConfig{Level: "info", MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 14},
		Cache: CacheConfig{
			PDFCacheTTL: time.Minute,
			RateLimitDB: 0,
			PDFCacheDB:  1,
		},
		RateLimiter: RateLimiterConfig{Interval: time.Minute},
		Render: RenderConfig{
			TimeoutMS:      int(render.DefaultTimeout / time.Millisecond),
			LaunchRetries:  render.DefaultMaxRetries,
			LaunchBackoff:  render.DefaultBackoff,
			StartTimeout:   20 * time.Second,
			DownloadDir:    "/tmp/docrender-browser",
			ExportAttempts: 1,
			Format:         string(render.FormatA4),
			Orientation:    string(render.Portrait),
			Margin:         render.DefaultMargin,
		},
		Postgres: PostgresConfig{Port: 5432, SSLMode: "disable"},
		Metrics:  MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

// Load reads the file named by CONFIG_PATH (default config.yaml).
func Load() (Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	return LoadFrom(path)
}

// LoadFrom reads path over the defaults, applies environment overrides and
// validates. A missing file yields the defaults.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnv(&cfg, os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup("CHROME_BIN"); ok && v != "" {
		cfg.Render.BrowserBin = v
	}
	if v, ok := lookup("REDIS_HOST"); ok && v != "" {
		cfg.Cache.RedisHost = v
	}
	for _, marker := range []string{"AWS_LAMBDA_FUNCTION_NAME", "VERCEL"} {
		if v, ok := lookup(marker); ok && v != "" {
			cfg.Render.Serverless = true
		}
	}
	if v, ok := lookupBool(lookup, "DOCRENDER_SERVERLESS"); ok {
		cfg.Render.Serverless = v
	}
	if v, ok := lookupBool(lookup, "DOCRENDER_LOCAL"); ok {
		cfg.Render.Local = v
	}
}

func lookupBool(lookup func(string) (string, bool), key string) (bool, bool) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// Validate rejects values the service cannot run with.
func (c Config) Validate() error {
	if c.Render.TimeoutMS <= 0 {
		return errors.New("render.timeout_ms must be positive")
	}
	if c.Render.LaunchRetries < 1 {
		return errors.New("render.launch_retries must be at least 1")
	}
	if c.Render.LaunchBackoff < 0 {
		return errors.New("render.launch_backoff must not be negative")
	}
	if c.Render.ExportAttempts < 1 {
		return errors.New("render.export_attempts must be at least 1")
	}
	if err := c.Render.Document().Validate(); err != nil {
		return fmt.Errorf("render defaults: %w", err)
	}
	if c.Limits.MaxHTMLBytes <= 0 || c.Limits.MaxPDFBytes <= 0 {
		return errors.New("limits must be positive")
	}
	if c.RateLimiter.UserLimit < 0 {
		return errors.New("rate_limiter.user_limit must not be negative")
	}
	if c.RateLimiter.UserLimit > 0 && c.RateLimiter.Interval <= 0 {
		return errors.New("rate_limiter.interval must be positive")
	}
	return nil
}
