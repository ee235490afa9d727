package common

import (
	"errors"
	"flag"
	"fmt"
	"testing"
	"time"

	"github.com/dtnitsch/wikicat/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestExitError(t *testing.T) {
	assert.NoError(t, ExitError(nil))

	tests := []struct {
		err  error
		code int
	}{
		{&models.ConfigError{Field: "url", Msg: "missing"}, ExitConfig},
		{fmt.Errorf("wrapped: %w", &models.ConfigError{Msg: "bad"}), ExitConfig},
		{&models.FetchError{URL: "https://x.test", StatusCode: 500}, ExitRuntime},
		{&models.PersistenceError{Blob: "classifier", Op: "load", Err: models.ErrBlobNotFound}, ExitRuntime},
		{errors.New("boom"), ExitRuntime},
	}
	for _, tt := range tests {
		var coder cli.ExitCoder
		require.True(t, errors.As(ExitError(tt.err), &coder))
		assert.Equal(t, tt.code, coder.ExitCode(), tt.err.Error())
	}
}

func newContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("config", "", "")
	set.String("store", "", "")
	set.Duration("timeout", 0, "")
	set.Bool("skip-failed-articles", false, "")
	set.Int("min-df", 0, "")
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	cfg, err := LoadConfig(newContext(t, "--store", "/tmp/s.db", "--timeout", "3s", "--skip-failed-articles", "--min-df", "2"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/s.db", cfg.StorePath)
	assert.Equal(t, 3*time.Second, cfg.Fetch.Timeout)
	assert.True(t, cfg.Crawl.SkipFailedArticles)
	assert.Equal(t, 2, cfg.Vectorizer.MinDF)

	cfg, err = LoadConfig(newContext(t))
	require.NoError(t, err)
	assert.Equal(t, models.DefaultMinDF, cfg.Vectorizer.MinDF)
	assert.Empty(t, cfg.StorePath)
}

func TestLoadConfigRejectsInvalidOverride(t *testing.T) {
	_, err := LoadConfig(newContext(t, "--min-df", "0"))
	var ce *models.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "vectorizer.min_df", ce.Field)
}
