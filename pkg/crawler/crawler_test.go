package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/wikicat/models"
	"github.com/dtnitsch/wikicat/pkg/fetcher"
	"github.com/dtnitsch/wikicat/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const siteRoot = "https://wiki.test"

// fakeFetcher serves canned pages and counts requests per URL.
type fakeFetcher struct {
	pages map[string]string
	calls map[string]int
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages, calls: make(map[string]int)}
}

func (f *fakeFetcher) GetHtml(_ context.Context, url string) (*goquery.Document, error) {
	f.calls[url]++
	html, ok := f.pages[url]
	if !ok {
		return nil, &models.FetchError{URL: url, StatusCode: http.StatusNotFound}
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func listing(links ...string) string {
	return `<html><body><div id="mw-pages">` + strings.Join(links, "\n") + `</div></body></html>`
}

func articleLink(title string) string {
	return fmt.Sprintf(`<a href="/wiki/%s" title="%s">%s</a>`, strings.ReplaceAll(title, " ", "_"), title, title)
}

func nextLink(href string) string {
	return fmt.Sprintf(`<a href="%s" title="Category:Cats">next page</a>`, href)
}

func article(text string) string {
	return `<html><body><p>` + text + `</p></body></html>`
}

func testCrawler(f PageFetcher, mutate func(*models.Config)) *Crawler {
	cfg := models.DefaultConfig()
	cfg.SiteRoot = siteRoot
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg, f, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func TestCrawlNewArticles(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		siteRoot + "/wiki/Category:Cats": listing(articleLink("Tabby"), articleLink("Siamese cat")),
		siteRoot + "/wiki/Tabby":         article("Tabby text."),
		siteRoot + "/wiki/Siamese_cat":   article("Siamese text."),
	})
	s := NewSession()
	stats, err := testCrawler(f, nil).Crawl(context.Background(), siteRoot+"/wiki/Category:Cats", 0, s)
	require.NoError(t, err)

	assert.Equal(t, map[string][]int{"Tabby": {0}, "Siamese cat": {0}}, s.Labels)
	assert.Equal(t, "Tabby text.", s.Texts["Tabby"])
	assert.Equal(t, Stats{ListingPages: 1, NewArticles: 2}, stats)
}

func TestCrawlRelabelIsIdempotent(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		siteRoot + "/wiki/Category:Pets": listing(articleLink("Rex")),
		siteRoot + "/wiki/Rex":           article("Rex text."),
	})
	c := testCrawler(f, nil)
	s := NewSession()

	_, err := c.Crawl(context.Background(), siteRoot+"/wiki/Category:Pets", 0, s)
	require.NoError(t, err)
	stats, err := c.Crawl(context.Background(), siteRoot+"/wiki/Category:Pets", 1, s)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Relabeled)

	// Crawling a category a second time must not duplicate its index.
	stats, err = c.Crawl(context.Background(), siteRoot+"/wiki/Category:Pets", 1, s)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Relabeled)

	assert.Equal(t, []int{0, 1}, s.Labels["Rex"])
	assert.Equal(t, 1, f.calls[siteRoot+"/wiki/Rex"], "known articles are not refetched")
}

func TestCrawlFollowsPagination(t *testing.T) {
	page2 := "/w/index.php?title=Category:Cats&pagefrom=M"
	page3 := "/w/index.php?title=Category:Cats&pagefrom=T"
	f := newFakeFetcher(map[string]string{
		siteRoot + "/wiki/Category:Cats": listing(articleLink("Abyssinian"), nextLink(page2)),
		siteRoot + page2:                 listing(articleLink("Manx"), nextLink(page3)),
		siteRoot + page3:                 listing(articleLink("Tabby"), nextLink(page2)),
		siteRoot + "/wiki/Abyssinian":    article("a"),
		siteRoot + "/wiki/Manx":          article("m"),
		siteRoot + "/wiki/Tabby":         article("t"),
	})
	s := NewSession()
	stats, err := testCrawler(f, nil).Crawl(context.Background(), siteRoot+"/wiki/Category:Cats", 3, s)
	require.NoError(t, err)

	assert.Len(t, s.Labels, 3)
	for _, title := range []string{"Abyssinian", "Manx", "Tabby"} {
		assert.Equal(t, []int{3}, s.Labels[title], title)
	}
	assert.Equal(t, 3, stats.ListingPages)
	assert.Equal(t, 1, f.calls[siteRoot+page2], "listing cycle is visited once")
}

func TestCrawlListingPageCap(t *testing.T) {
	page2 := "/w/index.php?title=Category:Cats&pagefrom=M"
	f := newFakeFetcher(map[string]string{
		siteRoot + "/wiki/Category:Cats": listing(articleLink("Abyssinian"), nextLink(page2)),
		siteRoot + page2:                 listing(articleLink("Manx")),
		siteRoot + "/wiki/Abyssinian":    article("a"),
		siteRoot + "/wiki/Manx":          article("m"),
	})
	c := testCrawler(f, func(cfg *models.Config) { cfg.Crawl.MaxListingPages = 1 })
	s := NewSession()
	_, err := c.Crawl(context.Background(), siteRoot+"/wiki/Category:Cats", 0, s)
	require.NoError(t, err)
	assert.Contains(t, s.Labels, "Abyssinian")
	assert.NotContains(t, s.Labels, "Manx")
}

func TestCrawlSkipsReservedNamespaces(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		siteRoot + "/wiki/Category:Cats": listing(
			articleLink("Wikipedia:Cat project"),
			articleLink("Category:Big cats"),
			articleLink("Tabby"),
			`<a href="/wiki/Special:Random">no title attribute</a>`,
		),
		siteRoot + "/wiki/Tabby": article("t"),
	})
	s := NewSession()
	stats, err := testCrawler(f, nil).Crawl(context.Background(), siteRoot+"/wiki/Category:Cats", 0, s)
	require.NoError(t, err)

	assert.Equal(t, map[string][]int{"Tabby": {0}}, s.Labels)
	assert.Equal(t, 2, stats.Skipped)
	assert.Zero(t, f.calls[siteRoot+"/wiki/Wikipedia:Cat_project"])
	assert.Zero(t, f.calls[siteRoot+"/wiki/Category:Big_cats"])
}

func TestCrawlKnownReservedTitleIsRelabeled(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		siteRoot + "/wiki/Category:Dogs": listing(articleLink("Category:Odd")),
	})
	s := NewSession()
	s.Labels["Category:Odd"] = []int{0}
	s.Texts["Category:Odd"] = ""

	_, err := testCrawler(f, nil).Crawl(context.Background(), siteRoot+"/wiki/Category:Dogs", 1, s)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, s.Labels["Category:Odd"])
}

func TestCrawlMissingContainer(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		siteRoot + "/wiki/Category:Empty": `<html><body><p>nothing here</p></body></html>`,
	})
	s := NewSession()
	stats, err := testCrawler(f, nil).Crawl(context.Background(), siteRoot+"/wiki/Category:Empty", 0, s)
	require.NoError(t, err)
	assert.Empty(t, s.Labels)
	assert.Equal(t, 1, stats.ListingPages)
}

func TestCrawlArticleFailurePolicy(t *testing.T) {
	pages := map[string]string{
		siteRoot + "/wiki/Category:Cats": listing(articleLink("Gone"), articleLink("Tabby")),
		siteRoot + "/wiki/Tabby":         article("t"),
	}

	t.Run("abort by default", func(t *testing.T) {
		s := NewSession()
		_, err := testCrawler(newFakeFetcher(pages), nil).Crawl(context.Background(), siteRoot+"/wiki/Category:Cats", 0, s)
		require.Error(t, err)
		var fe *models.FetchError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, siteRoot+"/wiki/Gone", fe.URL)
	})

	t.Run("skip when configured", func(t *testing.T) {
		m := metrics.New()
		cfg := models.DefaultConfig()
		cfg.SiteRoot = siteRoot
		cfg.Crawl.SkipFailedArticles = true
		c := New(cfg, newFakeFetcher(pages), slog.New(slog.NewTextHandler(io.Discard, nil)), m)

		s := NewSession()
		stats, err := c.Crawl(context.Background(), siteRoot+"/wiki/Category:Cats", 0, s)
		require.NoError(t, err)
		assert.Equal(t, map[string][]int{"Tabby": {0}}, s.Labels)
		assert.Equal(t, 1, stats.Failed)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchFailures))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.ArticlesSkipped.WithLabelValues("0", metrics.ReasonFetchFailed)))
	})
}

func TestCrawlListingFailureIsFatal(t *testing.T) {
	s := NewSession()
	_, err := testCrawler(newFakeFetcher(nil), nil).Crawl(context.Background(), siteRoot+"/wiki/Category:Nope", 0, s)
	var fe *models.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
}

func TestCategoryURL(t *testing.T) {
	c := testCrawler(nil, nil)
	assert.Equal(t, siteRoot+"/wiki/Category:Domestic_cats", c.CategoryURL("Domestic cats\n"))
	assert.Equal(t, siteRoot+"/wiki/Category:Dogs", c.CategoryURL("Dogs"))
}

func TestCrawlCategoriesErrors(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		siteRoot + "/wiki/Category:Cats": listing(),
	})
	c := testCrawler(f, nil)

	_, _, err := c.CrawlCategories(context.Background(), []string{"Cats", "Cats"})
	var ce *models.ConfigError
	require.True(t, errors.As(err, &ce), "duplicate category")

	_, _, err = c.CrawlCategories(context.Background(), []string{"", "  "})
	require.True(t, errors.As(err, &ce), "no categories")

	_, _, err = c.CrawlCategories(context.Background(), []string{"Cats", "Missing"})
	var fe *models.FetchError
	require.True(t, errors.As(err, &fe), "root listing failure")
}

// TestCrawlCategoriesEndToEnd runs the crawler against a small fake encyclopedia over HTTP.
func TestCrawlCategoriesEndToEnd(t *testing.T) {
	pages := map[string]string{
		"/wiki/Category:Cats": listing(articleLink("Tabby"), articleLink("Rex"), articleLink("Category:Big cats")),
		"/wiki/Category:Dogs": listing(articleLink("Rex"), nextLink("/w/index.php?title=Category:Dogs&pagefrom=S")),
		"/w/index.php":        listing(articleLink("Spot")),
		"/wiki/Tabby":         `<html><body><div id="toc">Contents</div><p>A striped cat.</p></body></html>`,
		"/wiki/Rex":           article("A dog that lives with cats."),
		"/wiki/Spot":          article("A spotted dog."),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		html, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, html)
	}))
	defer srv.Close()

	cfg := models.DefaultConfig()
	cfg.SiteRoot = srv.URL
	cfg.Fetch.Timeout = 5 * time.Second
	m := metrics.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(cfg, fetcher.NewFetcher(cfg.Fetch, nil, logger), logger, m)

	s, codec, err := c.CrawlCategories(context.Background(), []string{"Cats", "Dogs"})
	require.NoError(t, err)

	assert.Equal(t, []int{0}, s.Labels["Tabby"])
	assert.ElementsMatch(t, []int{0, 1}, s.Labels["Rex"])
	assert.Equal(t, []int{1}, s.Labels["Spot"])
	assert.NotContains(t, s.Labels, "Category:Big cats")
	assert.Equal(t, "ContentsA striped cat.", s.Texts["Tabby"])
	assert.Equal(t, map[int]string{0: "Cats", 1: "Dogs"}, codec.IndexToName())
	assert.Equal(t, map[string]int{"Cats": 0, "Dogs": 1}, codec.NameToIndex())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ArticlesRelabel.WithLabelValues("Dogs")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ListingPages.WithLabelValues("Dogs")))
}

func TestReadCategoryFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.txt")
	require.NoError(t, os.WriteFile(path, []byte("Cats\n\n  Domestic dogs  \r\n"), 0644))

	names, err := ReadCategoryFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cats", "Domestic dogs"}, names)

	_, err = ReadCategoryFile(filepath.Join(dir, "missing.txt"))
	var ce *models.ConfigError
	assert.True(t, errors.As(err, &ce))

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n \n"), 0644))
	_, err = ReadCategoryFile(empty)
	assert.True(t, errors.As(err, &ce))
}

func TestResolveHref(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"/wiki/Tabby", "https://en.wikipedia.org/wiki/Tabby"},
		{"/w/index.php?title=Category:Cats&pagefrom=Z", "https://en.wikipedia.org/w/index.php?title=Category:Cats&pagefrom=Z"},
		{"https://other.example/wiki/X", "https://other.example/wiki/X"},
	}
	for _, tt := range tests {
		got, err := resolveHref("https://en.wikipedia.org", tt.href)
		require.NoError(t, err, tt.href)
		assert.Equal(t, tt.want, got)
	}
}
