package extractors

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// ExtractText returns the training text of an article page: the table of contents (first
// div#toc only) followed by every paragraph in document order. Element texts are concatenated
// as they are; the markup already carries its own whitespace.
func ExtractText(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}

	var sb strings.Builder
	if toc := doc.Find("div#toc").First(); toc.Length() > 0 {
		sb.WriteString(toc.Text())
	}
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		sb.WriteString(s.Text())
	})
	return sb.String()
}

// PageInfo is the descriptive header shown above a classification report.
type PageInfo struct {
	URL      string `yaml:"url" json:"url"`
	Title    string `yaml:"title,omitempty" json:"title,omitempty"`
	SiteName string `yaml:"site_name,omitempty" json:"site_name,omitempty"`
	Byline   string `yaml:"byline,omitempty" json:"byline,omitempty"`
	Excerpt  string `yaml:"excerpt,omitempty" json:"excerpt,omitempty"`
}

// Describe reads page metadata with go-readability. A page readability cannot handle still
// yields a PageInfo carrying only the URL.
func Describe(rawURL string, html []byte) PageInfo {
	info := PageInfo{URL: rawURL}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return info
	}

	parser := readability.NewParser()
	article, err := parser.Parse(bytes.NewReader(html), parsedURL)
	if err != nil {
		return info
	}

	info.Title = normalizeText(article.Title)
	info.SiteName = normalizeText(article.SiteName)
	info.Byline = normalizeText(article.Byline)
	info.Excerpt = normalizeText(article.Excerpt)
	return info
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
