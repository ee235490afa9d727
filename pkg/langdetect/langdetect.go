// Package langdetect identifies the language of article text. The vectorizer's stop-word list is
// English, so builds and classifications report the language they actually saw.
package langdetect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Result is a detected language.
type Result struct {
	Code       string  `json:"code" yaml:"code"`
	Name       string  `json:"name" yaml:"name"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Detector chooses among a fixed set of languages.
type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a detector over ISO 639-1 codes such as "en". At least two distinct known
// languages are required.
func New(codes []string) (*Detector, error) {
	seen := make(map[lingua.Language]bool)
	var languages []lingua.Language
	for _, code := range codes {
		iso := lingua.GetIsoCode639_1FromValue(strings.ToLower(strings.TrimSpace(code)))
		language := lingua.GetLanguageFromIsoCode639_1(iso)
		if language == lingua.Unknown {
			return nil, fmt.Errorf("unknown language code %q", code)
		}
		if !seen[language] {
			seen[language] = true
			languages = append(languages, language)
		}
	}
	if len(languages) < 2 {
		return nil, fmt.Errorf("language detection needs at least two languages, got %d", len(languages))
	}

	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(languages...).
			Build(),
	}, nil
}

// Detect returns the most likely language of text, or false when the text is too short or
// ambiguous to decide.
func (d *Detector) Detect(text string) (Result, bool) {
	language, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return Result{}, false
	}
	return Result{
		Code:       strings.ToLower(language.IsoCode639_1().String()),
		Name:       language.String(),
		Confidence: d.detector.ComputeLanguageConfidence(text, language),
	}, true
}

// Distribution is the share of documents per language code. Undetected documents count
// under "unknown".
type Distribution map[string]int

// DetectCorpus detects every document and returns the dominant language and the full
// distribution. The dominant result carries the share of documents in that language as its
// confidence. Ties go to the alphabetically first code.
func (d *Detector) DetectCorpus(docs []string) (Result, Distribution) {
	dist := make(Distribution)
	names := make(map[string]string)
	for _, doc := range docs {
		r, ok := d.Detect(doc)
		if !ok {
			dist["unknown"]++
			continue
		}
		dist[r.Code]++
		names[r.Code] = r.Name
	}

	codes := make([]string, 0, len(dist))
	for code := range dist {
		if code != "unknown" {
			codes = append(codes, code)
		}
	}
	if len(codes) == 0 {
		return Result{}, dist
	}
	sort.Slice(codes, func(i, j int) bool {
		if dist[codes[i]] == dist[codes[j]] {
			return codes[i] < codes[j]
		}
		return dist[codes[i]] > dist[codes[j]]
	})

	top := codes[0]
	return Result{
		Code:       top,
		Name:       names[top],
		Confidence: float64(dist[top]) / float64(len(docs)),
	}, dist
}
