// Package testwiki serves a small two-category encyclopedia over httptest for command tests.
package testwiki

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dtnitsch/wikicat/models"
)

// Articles are the pages behind the Cats and Dogs listings. Rex is in both.
var Articles = map[string]string{
	"Tabby":   "The tabby cat has a striped coat. This cat purrs and chases mice with its whiskers.",
	"Siamese": "The Siamese cat is a slender cat breed with blue eyes. The cat purrs loudly.",
	"Persian": "The Persian cat is a long haired cat breed. A calm cat that purrs and naps.",
	"Rex":     "Rex is a dog who barks at the cat next door. The dog and the cat share a garden.",
	"Spot":    "Spot is a spotted dog. The dog barks and fetches sticks in the park.",
	"Beagle":  "The beagle is a small hound dog breed. This dog barks and follows scents.",
	"Poodle":  "The poodle is a curly dog breed. A clever dog that barks and fetches.",
}

// Server is a fake wiki. Requests counts hits per path.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests map[string]int
}

// New starts the fake wiki and closes it when the test ends. The Dogs listing is split over two
// pages and includes a category link that must be skipped.
func New(t *testing.T) *Server {
	t.Helper()

	pages := map[string]string{
		"/wiki/Category:Cats": listing(link("Tabby"), link("Siamese"), link("Persian"), link("Rex"), link("Category:Big cats")),
		"/wiki/Category:Dogs": listing(link("Rex"), link("Spot"), next("/w/index.php?title=Category:Dogs&pagefrom=B")),
		"/w/index.php":        listing(link("Beagle"), link("Poodle")),
	}
	for title, text := range Articles {
		pages["/wiki/"+title] = fmt.Sprintf(`<html><head><title>%s</title></head><body><h1>%s</h1><p>%s</p></body></html>`, title, title, text)
	}

	s := &Server{requests: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.URL.Path]++
		s.mu.Unlock()

		html, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, html)
	}))
	t.Cleanup(s.Close)
	return s
}

// Requests returns how often path was fetched.
func (s *Server) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// ArticleURL is the page URL of an article title.
func (s *Server) ArticleURL(title string) string {
	return s.URL + "/wiki/" + title
}

// Config points a default config at the fake wiki with a store in a temp dir and a small model.
func (s *Server) Config(t *testing.T) *models.Config {
	t.Helper()
	cfg := models.DefaultConfig()
	cfg.SiteRoot = s.URL
	cfg.StorePath = filepath.Join(t.TempDir(), "wikicat.db")
	cfg.Fetch.Timeout = 5 * time.Second
	cfg.Vectorizer.MinDF = 1
	cfg.Boosting.Estimators = 20
	cfg.Boosting.MaxDepth = 2
	return cfg
}

// CategoriesFile writes the category list the fake wiki knows about.
func CategoriesFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "categories.txt")
	if err := os.WriteFile(path, []byte("Cats\nDogs\n"), 0644); err != nil {
		t.Fatalf("write categories file: %v", err)
	}
	return path
}

func listing(links ...string) string {
	return `<html><body><div id="mw-pages">` + strings.Join(links, "\n") + `</div></body></html>`
}

func link(title string) string {
	return fmt.Sprintf(`<a href="/wiki/%s" title="%s">%s</a>`, strings.ReplaceAll(title, " ", "_"), title, title)
}

func next(href string) string {
	return fmt.Sprintf(`<a href="%s" title="Category:Dogs">next page</a>`, href)
}
