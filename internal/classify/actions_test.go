package classify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dtnitsch/wikicat/internal/build"
	"github.com/dtnitsch/wikicat/internal/testwiki"
	"github.com/dtnitsch/wikicat/models"
	"github.com/dtnitsch/wikicat/pkg/artifacts"
	"github.com/dtnitsch/wikicat/pkg/db"
	"github.com/dtnitsch/wikicat/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// trained returns the fake wiki and a config whose store holds a classifier built from it.
func trained(t *testing.T) (*testwiki.Server, *models.Config) {
	t.Helper()
	wiki := testwiki.New(t)
	cfg := wiki.Config(t)
	_, err := build.Run(context.Background(), cfg, build.Options{CategoriesFile: testwiki.CategoriesFile(t)}, quietLogger(), io.Discard)
	require.NoError(t, err)
	return wiki, cfg
}

func TestRunClassifiesTrainingArticles(t *testing.T) {
	wiki, cfg := trained(t)

	tests := []struct {
		title string
		want  string
	}{
		{"Tabby", "Cats"},
		{"Beagle", "Dogs"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			var out, errOut bytes.Buffer
			result, err := Run(context.Background(), cfg, Options{URL: wiki.ArticleURL(tt.title)}, quietLogger(), &out, &errOut)
			require.NoError(t, err)

			require.True(t, result.Named)
			require.Len(t, result.Categories, 2)
			assert.Equal(t, tt.want, result.Categories[0].Name)
			assert.InDelta(t, 1.0, result.Categories[0].Probability+result.Categories[1].Probability, 1e-9)

			assert.Equal(t, "Using default classifier\n", errOut.String())
			assert.True(t, strings.HasPrefix(out.String(), "====Probabilities of each category====\n"))
			assert.Contains(t, out.String(), tt.want+" : ")
		})
	}
}

func TestRunExplicitClassifierAndOutputFile(t *testing.T) {
	wiki, cfg := trained(t)
	output := filepath.Join(t.TempDir(), "reports", "tabby.json")

	var out, errOut bytes.Buffer
	_, err := Run(context.Background(), cfg, Options{
		URL:        wiki.ArticleURL("Tabby"),
		Classifier: cfg.StorePath,
		Format:     report.FormatJSON,
		Top:        1,
		Output:     output,
	}, quietLogger(), &out, &errOut)
	require.NoError(t, err)

	assert.Empty(t, errOut.String(), "no default notice when a classifier is given")
	assert.Empty(t, out.String())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "Cats"`)
	assert.NotContains(t, string(data), `"name": "Dogs"`)
}

func TestRunWithoutCodecFallsBackToIndices(t *testing.T) {
	wiki, cfg := trained(t)

	store, err := db.OpenExisting(cfg.StorePath)
	require.NoError(t, err)
	require.NoError(t, store.DeleteBlob(artifacts.IndCatMap))
	require.NoError(t, store.Close())

	var out bytes.Buffer
	result, err := Run(context.Background(), cfg, Options{URL: wiki.ArticleURL("Tabby")}, quietLogger(), &out, io.Discard)
	require.NoError(t, err)
	assert.False(t, result.Named)
	assert.True(t, strings.HasPrefix(out.String(), "Couldn't find index to category map"))
	assert.Contains(t, out.String(), "0 : ")
}

func TestRunErrors(t *testing.T) {
	wiki, cfg := trained(t)

	t.Run("missing url", func(t *testing.T) {
		_, err := Run(context.Background(), cfg, Options{}, quietLogger(), io.Discard, io.Discard)
		var ce *models.ConfigError
		assert.True(t, errors.As(err, &ce))
	})

	t.Run("invalid url", func(t *testing.T) {
		_, err := Run(context.Background(), cfg, Options{URL: "not a url"}, quietLogger(), io.Discard, io.Discard)
		var ce *models.ConfigError
		assert.True(t, errors.As(err, &ce))
	})

	t.Run("missing store", func(t *testing.T) {
		opts := Options{URL: wiki.ArticleURL("Tabby"), Classifier: filepath.Join(t.TempDir(), "absent.db")}
		_, err := Run(context.Background(), cfg, opts, quietLogger(), io.Discard, io.Discard)
		var pe *models.PersistenceError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, artifacts.Classifier, pe.Blob)
		_, statErr := os.Stat(opts.Classifier)
		assert.True(t, os.IsNotExist(statErr), "classify never creates a store")
	})

	t.Run("page not found writes nothing", func(t *testing.T) {
		var out bytes.Buffer
		_, err := Run(context.Background(), cfg, Options{URL: wiki.URL + "/wiki/Nowhere"}, quietLogger(), &out, io.Discard)
		var fe *models.FetchError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, 404, fe.StatusCode)
		assert.Empty(t, out.String())
	})
}

func TestRunAfterFailedRebuildKeepsNames(t *testing.T) {
	wiki, cfg := trained(t)

	reordered := filepath.Join(t.TempDir(), "categories.txt")
	require.NoError(t, os.WriteFile(reordered, []byte("Dogs\nCats\n"), 0644))
	failing := *cfg
	failing.Vectorizer.MinDF = 1000
	_, err := build.Run(context.Background(), &failing, build.Options{CategoriesFile: reordered}, quietLogger(), io.Discard)
	require.Error(t, err)

	result, err := Run(context.Background(), cfg, Options{URL: wiki.ArticleURL("Tabby")}, quietLogger(), io.Discard, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "Cats", result.Categories[0].Name)
}
