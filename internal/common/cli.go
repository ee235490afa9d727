package common

import (
	"errors"
	"log/slog"
	"os"

	"github.com/dtnitsch/wikicat/models"
	"github.com/urfave/cli/v2"
)

const (
	ExitConfig  = 1
	ExitRuntime = 2
)

// NewLogger returns the JSON logger on stderr every command writes to. --quiet wins over --verbose.
func NewLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	switch {
	case c.Bool("quiet"):
		logLevel = slog.LevelError
	case c.Bool("verbose"):
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// LoadConfig reads --config over the defaults and applies the flags that override it.
func LoadConfig(c *cli.Context) (*models.Config, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("store") {
		cfg.StorePath = c.String("store")
	}
	if c.IsSet("site-root") {
		cfg.SiteRoot = c.String("site-root")
	}
	if c.IsSet("cache-dir") {
		cfg.Fetch.CacheDir = c.String("cache-dir")
	}
	if c.IsSet("timeout") {
		cfg.Fetch.Timeout = c.Duration("timeout")
	}
	if c.IsSet("skip-failed-articles") {
		cfg.Crawl.SkipFailedArticles = c.Bool("skip-failed-articles")
	}
	if c.IsSet("min-df") {
		cfg.Vectorizer.MinDF = c.Int("min-df")
	}
	if c.IsSet("estimators") {
		cfg.Boosting.Estimators = c.Int("estimators")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ExitError turns err into a cli exit error: 1 for configuration problems, 2 for everything else.
func ExitError(err error) error {
	if err == nil {
		return nil
	}
	var ce *models.ConfigError
	if errors.As(err, &ce) {
		return cli.Exit(err.Error(), ExitConfig)
	}
	return cli.Exit(err.Error(), ExitRuntime)
}
