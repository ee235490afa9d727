// Package report renders classification results and store inspections for the terminal or for
// other tools.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/dtnitsch/wikicat/models"
	"github.com/dtnitsch/wikicat/pkg/extractors"
	"github.com/dtnitsch/wikicat/pkg/labels"
	"github.com/dtnitsch/wikicat/pkg/langdetect"
	"github.com/dtnitsch/wikicat/pkg/pipeline"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatText     Format = "text"
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ParseFormat validates s against the formats a command supports.
func ParseFormat(s string, allowed ...Format) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(allowed, f) {
		return f, nil
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return "", &models.ConfigError{Field: "format", Msg: fmt.Sprintf("unsupported format %q (want one of %s)", s, strings.Join(names, ", "))}
}

// CategoryScore is one category's share of the normalized prediction.
type CategoryScore struct {
	Index       int     `json:"index" yaml:"index"`
	Name        string  `json:"name,omitempty" yaml:"name,omitempty"`
	Probability float64 `json:"probability" yaml:"probability"`
	Raw         float64 `json:"raw" yaml:"raw"`
}

// Percent is Probability scaled to 0..100.
func (s CategoryScore) Percent() float64 { return s.Probability * 100 }

// Classification is the result of classifying one page.
type Classification struct {
	Page       extractors.PageInfo `json:"page" yaml:"page"`
	Language   *langdetect.Result  `json:"language,omitempty" yaml:"language,omitempty"`
	Named      bool                `json:"named" yaml:"named"`
	Categories []CategoryScore     `json:"categories" yaml:"categories"`
}

// NewClassification normalizes raw one-vs-rest probabilities, resolves category names through
// codec and ranks the categories by probability. A nil codec leaves the scores index-only.
// top > 0 keeps only the top categories.
func NewClassification(page extractors.PageInfo, raw []float64, codec *labels.Codec, top int) (*Classification, error) {
	normalized := pipeline.Normalize(raw)
	c := &Classification{Page: page, Named: true}

	for i, p := range normalized {
		score := CategoryScore{Index: i, Probability: p, Raw: raw[i]}
		name, err := labels.Lookup(codec, i)
		var missing *models.MissingCodecError
		switch {
		case errors.As(err, &missing):
			c.Named = false
		case err != nil:
			return nil, fmt.Errorf("model predicts category %d the label codec does not know: %w", i, err)
		default:
			score.Name = name
		}
		c.Categories = append(c.Categories, score)
	}

	sort.SliceStable(c.Categories, func(i, j int) bool {
		return c.Categories[i].Probability > c.Categories[j].Probability
	})
	if top > 0 && len(c.Categories) > top {
		c.Categories = c.Categories[:top]
	}
	return c, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
