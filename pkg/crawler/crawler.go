// Package crawler walks encyclopedia category listings and collects article text and labels.
package crawler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/wikicat/models"
	"github.com/dtnitsch/wikicat/pkg/extractors"
	"github.com/dtnitsch/wikicat/pkg/labels"
	"github.com/dtnitsch/wikicat/pkg/metrics"
)

// PageFetcher fetches and parses one page.
type PageFetcher interface {
	GetHtml(ctx context.Context, url string) (*goquery.Document, error)
}

// Session accumulates the results of every category crawled in one build. Labels and Texts
// always hold the same set of titles.
type Session struct {
	Labels map[string][]int
	Texts  map[string]string
}

func NewSession() *Session {
	return &Session{
		Labels: make(map[string][]int),
		Texts:  make(map[string]string),
	}
}

// Stats counts what one category crawl did.
type Stats struct {
	ListingPages int
	NewArticles  int
	Relabeled    int
	Skipped      int
	Failed       int
}

type Crawler struct {
	siteRoot string
	cfg      models.CrawlConfig
	fetcher  PageFetcher
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// New builds a crawler. m may be nil.
func New(cfg *models.Config, fetcher PageFetcher, logger *slog.Logger, m *metrics.Metrics) *Crawler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{
		siteRoot: strings.TrimRight(cfg.SiteRoot, "/"),
		cfg:      cfg.Crawl,
		fetcher:  fetcher,
		logger:   logger,
		metrics:  m,
	}
}

// CategoryURL returns the root listing URL of a category name.
func (c *Crawler) CategoryURL(name string) string {
	joinChar := c.cfg.JoinChar
	if joinChar == "" {
		joinChar = "_"
	}
	return c.siteRoot + "/wiki/Category:" + strings.ReplaceAll(strings.TrimSpace(name), " ", joinChar)
}

// CrawlCategories crawls every named category in order. Category indices are assigned
// sequentially from 0 in list order and recorded in the returned codec. Blank names are ignored.
func (c *Crawler) CrawlCategories(ctx context.Context, names []string) (*Session, *labels.Codec, error) {
	codec := labels.NewCodec()
	s := NewSession()

	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, dup := codec.Index(name); dup {
			return nil, nil, &models.ConfigError{Field: "categories", Msg: fmt.Sprintf("category %q listed twice", name)}
		}
		idx, err := codec.Add(name)
		if err != nil {
			return nil, nil, err
		}

		c.logger.Info("Parsing category", "category", name, "index", idx)
		stats, err := c.crawl(ctx, c.CategoryURL(name), idx, name, s)
		if err != nil {
			return nil, nil, fmt.Errorf("crawl category %q: %w", name, err)
		}
		c.logger.Info("Parsed category",
			"category", name,
			"listing_pages", stats.ListingPages,
			"new_articles", stats.NewArticles,
			"relabeled", stats.Relabeled,
			"skipped", stats.Skipped,
			"failed", stats.Failed)
	}

	if codec.Len() == 0 {
		return nil, nil, &models.ConfigError{Field: "categories", Msg: "no category names given"}
	}
	return s, codec, nil
}

// Crawl processes one category listing, following "next page" links, and records every
// linked article into s under categoryIndex. Listing fetch failures are always fatal.
func (c *Crawler) Crawl(ctx context.Context, listingURL string, categoryIndex int, s *Session) (Stats, error) {
	return c.crawl(ctx, listingURL, categoryIndex, strconv.Itoa(categoryIndex), s)
}

type listingLink struct {
	href  string
	title string
	text  string
}

func (c *Crawler) crawl(ctx context.Context, listingURL string, idx int, category string, s *Session) (Stats, error) {
	var stats Stats
	visited := make(map[string]bool)
	queue := []string{listingURL}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		pageURL := queue[0]
		queue = queue[1:]
		if visited[pageURL] {
			c.logger.Debug("Listing page already visited", "url", pageURL)
			continue
		}
		visited[pageURL] = true

		if c.cfg.MaxListingPages > 0 && stats.ListingPages >= c.cfg.MaxListingPages {
			c.logger.Warn("Listing page cap reached", "category", category, "max_listing_pages", c.cfg.MaxListingPages)
			break
		}

		doc, err := c.fetcher.GetHtml(ctx, pageURL)
		if err != nil {
			c.metrics.FetchFailed()
			return stats, err
		}
		stats.ListingPages++
		c.metrics.ListingPage(category)

		for _, link := range c.listingLinks(doc, pageURL) {
			if link.text == c.cfg.NextPageText {
				next, err := resolveHref(c.siteRoot, link.href)
				if err != nil {
					c.logger.Warn("Skipping unresolvable next page link", "href", link.href, "error", err)
					continue
				}
				queue = append(queue, next)
				continue
			}
			if link.title == "" {
				continue
			}
			if err := c.visitArticle(ctx, link, idx, category, s, &stats); err != nil {
				return stats, err
			}
		}
	}
	return stats, nil
}

func (c *Crawler) listingLinks(doc *goquery.Document, pageURL string) []listingLink {
	container := doc.Find(c.cfg.ListingSelector).First()
	if container.Length() == 0 {
		c.logger.Warn("Listing container not found", "url", pageURL, "selector", c.cfg.ListingSelector)
		return nil
	}

	var links []listingLink
	container.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		title, _ := a.Attr("title")
		links = append(links, listingLink{href: href, title: title, text: strings.TrimSpace(a.Text())})
	})
	return links
}

func (c *Crawler) visitArticle(ctx context.Context, link listingLink, idx int, category string, s *Session, stats *Stats) error {
	if current, known := s.Labels[link.title]; known {
		if !slices.Contains(current, idx) {
			s.Labels[link.title] = append(current, idx)
			stats.Relabeled++
			c.metrics.ArticleRelabeled(category)
		}
		return nil
	}

	if c.reservedTitle(link.title) {
		stats.Skipped++
		c.metrics.ArticleSkipped(category, metrics.ReasonNamespace)
		return nil
	}

	articleURL, err := resolveHref(c.siteRoot, link.href)
	if err != nil {
		return fmt.Errorf("article %q: %w", link.title, err)
	}
	doc, err := c.fetcher.GetHtml(ctx, articleURL)
	if err != nil {
		c.metrics.FetchFailed()
		if c.cfg.SkipFailedArticles && !errors.Is(err, context.Canceled) {
			c.logger.Warn("Skipping article after fetch failure", "title", link.title, "url", articleURL, "error", err)
			stats.Failed++
			c.metrics.ArticleSkipped(category, metrics.ReasonFetchFailed)
			return nil
		}
		return fmt.Errorf("article %q: %w", link.title, err)
	}

	s.Texts[link.title] = extractors.ExtractText(doc)
	s.Labels[link.title] = []int{idx}
	stats.NewArticles++
	c.metrics.ArticleFetched(category)
	c.logger.Debug("Fetched article", "title", link.title, "category", category)
	return nil
}

func (c *Crawler) reservedTitle(title string) bool {
	for _, prefix := range c.cfg.SkipPrefixes {
		if strings.HasPrefix(title, prefix) {
			return true
		}
	}
	return false
}

// ReadCategoryFile reads one category name per line. Surrounding whitespace is trimmed and
// blank lines are dropped.
func ReadCategoryFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &models.ConfigError{Field: "categories", Msg: fmt.Sprintf("categories file could not be opened: %v", err)}
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			names = append(names, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read categories file %s: %w", path, err)
	}
	if len(names) == 0 {
		return nil, &models.ConfigError{Field: "categories", Msg: fmt.Sprintf("no category names in %s", path)}
	}
	return names, nil
}

// resolveHref resolves a listing href against the site root. Absolute hrefs pass through.
func resolveHref(siteRoot, href string) (string, error) {
	base, err := url.Parse(siteRoot)
	if err != nil {
		return "", fmt.Errorf("parse site root %q: %w", siteRoot, err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}
