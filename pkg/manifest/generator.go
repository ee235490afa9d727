package manifest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dtnitsch/wikicat/pkg/corpus"
	"github.com/dtnitsch/wikicat/pkg/labels"
	"github.com/dtnitsch/wikicat/pkg/langdetect"
	"github.com/dtnitsch/wikicat/pkg/mapreduce"
	"github.com/google/uuid"
)

// DefaultKeywords is how many top keywords are kept per category.
const DefaultKeywords = 10

// Input is everything a build knows when it writes its manifest.
type Input struct {
	RunID          string
	StartedAt      time.Time
	UsedCachedData bool
	SiteRoot       string
	SchemaVersion  int

	Codec  *labels.Codec
	Texts  map[string]string
	Labels map[string][]int

	Vocabulary int
	Training   Training

	Language     *langdetect.Result
	Distribution langdetect.Distribution

	CrawlDuration time.Duration
	TrainDuration time.Duration
	Keywords      int
}

// NewRunID returns a fresh build identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Generate aggregates per-category article counts and keywords into a manifest.
func Generate(in Input) *Build {
	n := 0
	if in.Codec != nil {
		n = in.Codec.Len()
	}
	keywords := in.Keywords
	if keywords == 0 {
		keywords = DefaultKeywords
	}

	b := &Build{
		RunID:              in.RunID,
		GeneratedAt:        time.Now().UTC().Format(time.RFC3339),
		StartedAt:          in.StartedAt.UTC().Format(time.RFC3339),
		UsedCachedData:     in.UsedCachedData,
		SiteRoot:           in.SiteRoot,
		ModelSchemaVersion: in.SchemaVersion,
		Articles:           len(in.Texts),
		Vocabulary:         in.Vocabulary,
		Training:           in.Training,
		CrawlSeconds:       in.CrawlDuration.Seconds(),
		TrainSeconds:       in.TrainDuration.Seconds(),
	}

	for title, cats := range in.Labels {
		if len(labels.SortedSet(cats)) > 1 {
			b.MultiLabelArticles++
		}
		if strings.TrimSpace(in.Texts[title]) == "" {
			b.EmptyArticles++
		}
	}

	if in.Language != nil && in.Language.Code != "" {
		b.Language = &LanguageSummary{Code: in.Language.Code, Name: in.Language.Name, Share: in.Language.Confidence}
	}
	if len(in.Distribution) > 0 {
		b.LanguageDistribution = map[string]int(in.Distribution)
	}

	counts := corpus.LabelCounts(in.Labels, n)
	perCategory := mapreduce.ByCategory(in.Texts, in.Labels, n)
	for i := 0; i < n; i++ {
		name, _ := in.Codec.Name(i)
		b.Categories = append(b.Categories, CategorySummary{
			Index:       i,
			Name:        name,
			Articles:    counts[i],
			TopKeywords: mapreduce.TopKeywords(perCategory[i], keywords),
		})
	}
	return b
}

// Encode serializes the manifest as indented JSON.
func (b *Build) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error marshalling manifest: %w", err)
	}
	return data, nil
}

// Decode parses a manifest produced by Encode.
func Decode(data []byte) (*Build, error) {
	var b Build
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("error unmarshalling manifest: %w", err)
	}
	return &b, nil
}
