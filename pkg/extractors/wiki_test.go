package extractors

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "paragraphs only",
			html: `<body><p>Cats purr. </p><div>ignored</div><p>They nap.</p></body>`,
			want: "Cats purr. They nap.",
		},
		{
			name: "toc first then paragraphs",
			html: `<body><p>Intro. </p><div id="toc">Contents History </div><p>Body.</p></body>`,
			want: "Contents History Intro. Body.",
		},
		{
			name: "only first toc",
			html: `<body><div id="toc">A</div><div id="toc">B</div></body>`,
			want: "A",
		},
		{
			name: "nothing to extract",
			html: `<body><div>no paragraphs</div></body>`,
			want: "",
		},
		{
			name: "nested markup keeps inner text",
			html: `<body><p>The <b>tabby</b> <a href="/wiki/Cat">cat</a>.</p></body>`,
			want: "The tabby cat.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractText(mustDoc(t, tt.html)); got != tt.want {
				t.Errorf("ExtractText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractTextNilDocument(t *testing.T) {
	if got := ExtractText(nil); got != "" {
		t.Errorf("ExtractText(nil) = %q, want empty", got)
	}
}

func TestDescribe(t *testing.T) {
	html := `<html><head><title>Tabby cat - Wikipedia</title>
<meta property="og:site_name" content="Wikipedia"></head>
<body><article><h1>Tabby cat</h1>
<p>A tabby is any domestic cat with a distinctive coat that features stripes, dots, lines or swirling patterns, usually together with a mark resembling an M on its forehead.</p>
<p>Tabbies are sometimes erroneously assumed to be a cat breed. In fact, the tabby pattern is found in many breeds, as well as among the general mixed-breed population.</p>
</article></body></html>`

	info := Describe("https://en.wikipedia.org/wiki/Tabby_cat", []byte(html))
	if info.URL != "https://en.wikipedia.org/wiki/Tabby_cat" {
		t.Errorf("URL = %q", info.URL)
	}
	if !strings.Contains(info.Title, "Tabby") {
		t.Errorf("Title = %q, want it to mention Tabby", info.Title)
	}
}

func TestDescribeBadURL(t *testing.T) {
	info := Describe("://bad", []byte("<p>x</p>"))
	if info.URL != "://bad" || info.Title != "" {
		t.Errorf("Describe with bad url = %+v", info)
	}
}
