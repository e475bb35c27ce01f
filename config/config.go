// Package config provides file-based configuration for the collector and
// extractor pipelines.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrInvalidPageRange       = errors.New("collector.page_range start must be >= 1 and <= end")
	ErrInvalidBatchSize       = errors.New("batch_size must be at least 1")
	ErrInvalidRequestDelay    = errors.New("request_delay_seconds must be non-negative")
	ErrInvalidRestartInterval = errors.New("collector.session_restart_interval must be at least 1")
	ErrInvalidMinLinkText     = errors.New("collector.min_link_text_length must be non-negative")
	ErrInvalidTimeout         = errors.New("timeout_sec must be at least 1")
	ErrInvalidMaxAttempts     = errors.New("extractor.max_attempts must be at least 1")
	ErrMissingURLColumn       = errors.New("extractor.url_column is required")
	ErrMissingOutputDir       = errors.New("output_dir is required")
)

// Config is the complete configuration for both pipelines.
type Config struct {
	Collector CollectorConfig `yaml:"collector"`
	Extractor ExtractorConfig `yaml:"extractor"`
}

// PageRange is an inclusive range of listing page indexes.
type PageRange struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// Pages returns the number of pages in the range.
func (r PageRange) Pages() int {
	return r.End - r.Start + 1
}

// CollectorConfig contains link-collector settings.
type CollectorConfig struct {
	PageRange              PageRange `yaml:"page_range"`
	BatchSize              int       `yaml:"batch_size"`
	RequestDelaySeconds    float64   `yaml:"request_delay_seconds"`
	SessionRestartInterval int       `yaml:"session_restart_interval"`
	MinLinkTextLength      int       `yaml:"min_link_text_length"`
	PageLoadTimeoutSec     int       `yaml:"page_load_timeout_sec"`
	ContainerWaitSec       int       `yaml:"container_wait_sec"`
	Headless               bool      `yaml:"headless"`
	UserAgent              string    `yaml:"user_agent"`
	OutputDir              string    `yaml:"output_dir"`
	OutputPrefix           string    `yaml:"output_prefix"`
	StorePath              string    `yaml:"store_path"`
	FeedURL                string    `yaml:"feed_url"`
}

// ExtractorConfig contains content-extractor settings.
type ExtractorConfig struct {
	URLColumn           string  `yaml:"url_column"`
	BatchSize           int     `yaml:"batch_size"`
	RequestDelaySeconds float64 `yaml:"request_delay_seconds"`
	TimeoutSec          int     `yaml:"timeout_sec"`
	MaxAttempts         int     `yaml:"max_attempts"`
	UserAgent           string  `yaml:"user_agent"`
	OutputDir           string  `yaml:"output_dir"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Default returns the configuration matching the observed EE Times crawl
// parameters.
func Default() *Config {
	return &Config{
		Collector: CollectorConfig{
			PageRange:              PageRange{Start: 1, End: 1824},
			BatchSize:              50,
			RequestDelaySeconds:    1,
			SessionRestartInterval: 50,
			MinLinkTextLength:      10,
			PageLoadTimeoutSec:     30,
			ContainerWaitSec:       15,
			Headless:               true,
			UserAgent:              defaultUserAgent,
			OutputDir:              ".",
			OutputPrefix:           "eetimes_semiconductors",
			StorePath:              "eetcorpus.db",
		},
		Extractor: ExtractorConfig{
			URLColumn:           "url",
			BatchSize:           50,
			RequestDelaySeconds: 1,
			TimeoutSec:          15,
			MaxAttempts:         1,
			UserAgent:           defaultUserAgent,
			OutputDir:           ".",
		},
	}
}

// Load reads configuration from a YAML file, layered over the defaults. A
// missing file is not an error: the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for values the pipelines cannot run
// with.
func (c *Config) Validate() error {
	col := c.Collector
	if col.PageRange.Start < 1 || col.PageRange.Start > col.PageRange.End {
		return ErrInvalidPageRange
	}
	if col.BatchSize < 1 {
		return fmt.Errorf("%w: collector", ErrInvalidBatchSize)
	}
	if col.RequestDelaySeconds < 0 {
		return fmt.Errorf("%w: collector", ErrInvalidRequestDelay)
	}
	if col.SessionRestartInterval < 1 {
		return ErrInvalidRestartInterval
	}
	if col.MinLinkTextLength < 0 {
		return ErrInvalidMinLinkText
	}
	if col.PageLoadTimeoutSec < 1 || col.ContainerWaitSec < 1 {
		return fmt.Errorf("%w: collector", ErrInvalidTimeout)
	}
	if col.OutputDir == "" {
		return fmt.Errorf("%w: collector", ErrMissingOutputDir)
	}

	ext := c.Extractor
	if ext.URLColumn == "" {
		return ErrMissingURLColumn
	}
	if ext.BatchSize < 1 {
		return fmt.Errorf("%w: extractor", ErrInvalidBatchSize)
	}
	if ext.RequestDelaySeconds < 0 {
		return fmt.Errorf("%w: extractor", ErrInvalidRequestDelay)
	}
	if ext.TimeoutSec < 1 {
		return fmt.Errorf("%w: extractor", ErrInvalidTimeout)
	}
	if ext.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}
	if ext.OutputDir == "" {
		return fmt.Errorf("%w: extractor", ErrMissingOutputDir)
	}

	return nil
}

// RequestDelay returns the collector's politeness delay as a duration.
func (c CollectorConfig) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelaySeconds * float64(time.Second))
}

// RequestDelay returns the extractor's politeness delay as a duration.
func (c ExtractorConfig) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelaySeconds * float64(time.Second))
}

// PageLoadTimeout returns the collector's page-load timeout as a duration.
func (c CollectorConfig) PageLoadTimeout() time.Duration {
	return time.Duration(c.PageLoadTimeoutSec) * time.Second
}

// ContainerWait returns the collector's container wait as a duration.
func (c CollectorConfig) ContainerWait() time.Duration {
	return time.Duration(c.ContainerWaitSec) * time.Second
}

// Timeout returns the extractor's per-request timeout as a duration.
func (c ExtractorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}
