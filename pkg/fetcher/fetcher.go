package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/wikicat/models"
	"github.com/dtnitsch/wikicat/pkg/caching"
	"golang.org/x/net/html/charset"
)

// Fetcher downloads pages over HTTP, decodes them to UTF-8 and optionally serves them from a
// file cache. All failures are returned as *models.FetchError.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
	cache        *caching.Cache
	logger       *slog.Logger
}

// NewFetcher builds a fetcher from cfg. cache may be nil.
func NewFetcher(cfg models.FetchConfig, cache *caching.Cache, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client:       &http.Client{Timeout: cfg.Timeout},
		userAgent:    cfg.UserAgent,
		maxBodyBytes: cfg.MaxBodyBytes,
		cache:        cache,
		logger:       logger,
	}
}

// GetHtml fetches url and parses it into a goquery document.
func (f *Fetcher) GetHtml(ctx context.Context, url string) (*goquery.Document, error) {
	bodyBytes, err := f.GetHtmlBytes(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &models.FetchError{URL: url, Err: fmt.Errorf("failed to parse HTML: %w", err)}
	}
	return doc, nil
}

// GetHtmlBytes fetches url and returns its body as UTF-8.
func (f *Fetcher) GetHtmlBytes(ctx context.Context, url string) ([]byte, error) {
	if f.cache != nil {
		if data, ok := f.cache.Get(url); ok {
			f.logger.Debug("Page cache hit", "url", url)
			return data, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &models.FetchError{URL: url, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &models.FetchError{URL: url, Err: fmt.Errorf("failed to make HTTP request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &models.FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	var body io.Reader = resp.Body
	if f.maxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBodyBytes+1)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, &models.FetchError{URL: url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if f.maxBodyBytes > 0 && int64(len(raw)) > f.maxBodyBytes {
		return nil, &models.FetchError{URL: url, Err: fmt.Errorf("response body exceeds %d bytes", f.maxBodyBytes)}
	}

	data, err := toUTF8(raw, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, &models.FetchError{URL: url, Err: err}
	}

	if f.cache != nil {
		if err := f.cache.Set(url, data); err != nil {
			f.logger.Warn("Failed to cache page", "url", url, "error", err)
		}
	}
	return data, nil
}

func toUTF8(data []byte, contentType string) ([]byte, error) {
	enc, name, _ := charset.DetermineEncoding(data, contentType)
	if name == "utf-8" {
		return data, nil
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		if utf8.Valid(data) {
			return data, nil
		}
		return nil, fmt.Errorf("failed to decode %s body: %w", name, err)
	}
	return decoded, nil
}
