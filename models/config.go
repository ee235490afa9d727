// Package models defines data structures for configuration and errors shared by every command.
package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is used for XDG directory paths.
	AppName = "wikicat"

	DefaultSiteRoot      = "https://en.wikipedia.org"
	DefaultStoreFileName = "wikicat.db"
	DefaultUserAgent     = "wikicat/1.0 (+https://github.com/dtnitsch/wikicat)"
	DefaultMaxBodyBytes  = 10 * 1024 * 1024
	DefaultTimeout       = 30 * time.Second
	DefaultCacheTTL      = 24 * time.Hour
	DefaultMinDF         = 10
)

// Config holds runtime configuration. Values come from an optional YAML file and are then
// overridden by CLI flags (which themselves may be bound to WIKICAT_* environment variables).
type Config struct {
	SiteRoot   string           `yaml:"site_root"`
	StorePath  string           `yaml:"store_path"`
	Crawl      CrawlConfig      `yaml:"crawl"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Vectorizer VectorizerConfig `yaml:"vectorizer"`
	Boosting   BoostingConfig   `yaml:"boosting"`
	// Languages are ISO 639-1 codes the language detector chooses between.
	Languages []string `yaml:"languages"`
}

// CrawlConfig controls how category listing pages are walked.
type CrawlConfig struct {
	ListingSelector    string   `yaml:"listing_selector"`
	NextPageText       string   `yaml:"next_page_text"`
	SkipPrefixes       []string `yaml:"skip_prefixes"`
	JoinChar           string   `yaml:"join_char"`
	SkipFailedArticles bool     `yaml:"skip_failed_articles"`
	MaxListingPages    int      `yaml:"max_listing_pages"`
}

// FetchConfig controls the HTTP client and the optional raw page cache.
type FetchConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	CacheDir     string        `yaml:"cache_dir"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
}

type VectorizerConfig struct {
	MinDF int `yaml:"min_df"`
}

type BoostingConfig struct {
	Estimators     int     `yaml:"n_estimators"`
	LearningRate   float64 `yaml:"learning_rate"`
	MaxDepth       int     `yaml:"max_depth"`
	MinSamplesLeaf int     `yaml:"min_samples_leaf"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		SiteRoot: DefaultSiteRoot,
		Crawl: CrawlConfig{
			ListingSelector: "div#mw-pages",
			NextPageText:    "next page",
			SkipPrefixes:    []string{"Wikipedia:", "Category:"},
			JoinChar:        "_",
		},
		Fetch: FetchConfig{
			Timeout:      DefaultTimeout,
			UserAgent:    DefaultUserAgent,
			MaxBodyBytes: DefaultMaxBodyBytes,
			CacheTTL:     DefaultCacheTTL,
		},
		Vectorizer: VectorizerConfig{MinDF: DefaultMinDF},
		Boosting: BoostingConfig{
			Estimators:     100,
			LearningRate:   0.1,
			MaxDepth:       3,
			MinSamplesLeaf: 1,
		},
		Languages: []string{"en", "de", "fr", "es"},
	}
}

// LoadConfig reads a YAML file over the defaults. An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ConfigError{Field: "config", Msg: fmt.Sprintf("file %s not found", path)}
		}
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &ConfigError{Field: "config", Msg: fmt.Sprintf("parse %s: %v", path, err)}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values a crawl or a training run cannot do without.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.SiteRoot, "http://") && !strings.HasPrefix(c.SiteRoot, "https://") {
		return &ConfigError{Field: "site_root", Msg: fmt.Sprintf("must be an http(s) URL, got %q", c.SiteRoot)}
	}
	if c.Crawl.NextPageText == "" {
		return &ConfigError{Field: "crawl.next_page_text", Msg: "must not be empty"}
	}
	if c.Crawl.ListingSelector == "" {
		return &ConfigError{Field: "crawl.listing_selector", Msg: "must not be empty"}
	}
	if c.Vectorizer.MinDF < 1 {
		return &ConfigError{Field: "vectorizer.min_df", Msg: "must be at least 1"}
	}
	if c.Boosting.Estimators < 1 || c.Boosting.MaxDepth < 1 || c.Boosting.LearningRate <= 0 {
		return &ConfigError{Field: "boosting", Msg: "n_estimators, max_depth and learning_rate must be positive"}
	}
	if c.Boosting.MinSamplesLeaf < 1 {
		return &ConfigError{Field: "boosting.min_samples_leaf", Msg: "must be at least 1"}
	}
	return nil
}

// ResolvedStorePath returns StorePath, or the default store under the XDG data directory.
func (c *Config) ResolvedStorePath() string {
	if c.StorePath != "" {
		return c.StorePath
	}
	return DefaultStorePath()
}

// DefaultStorePath returns $XDG_DATA_HOME/wikicat/wikicat.db.
func DefaultStorePath() string {
	return filepath.Join(xdg.DataHome, AppName, DefaultStoreFileName)
}
