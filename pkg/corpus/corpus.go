// Package corpus turns crawled article maps into an ordered training set.
package corpus

import (
	"fmt"
	"sort"

	"github.com/dtnitsch/wikicat/pkg/labels"
)

// Build returns one document and one target row per article, ordered by article title so that
// repeated builds from the same maps are identical regardless of insertion history.
func Build(texts map[string]string, labelMap map[string][]int, numCategories int) ([]string, [][]float64, error) {
	titles := SortedTitles(texts)

	documents := make([]string, 0, len(titles))
	targets := make([][]float64, 0, len(titles))
	for _, title := range titles {
		cats, ok := labelMap[title]
		if !ok || len(cats) == 0 {
			return nil, nil, fmt.Errorf("article %q has text but no category labels", title)
		}
		row, err := labels.ToVector(cats, numCategories)
		if err != nil {
			return nil, nil, fmt.Errorf("article %q: %w", title, err)
		}
		documents = append(documents, texts[title])
		targets = append(targets, row)
	}
	return documents, targets, nil
}

// SortedTitles returns the keys of texts in lexicographic order.
func SortedTitles(texts map[string]string) []string {
	titles := make([]string, 0, len(texts))
	for title := range texts {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// LabelCounts returns how many articles carry each category index.
func LabelCounts(labelMap map[string][]int, numCategories int) []int {
	counts := make([]int, numCategories)
	for _, cats := range labelMap {
		for _, c := range cats {
			if c >= 0 && c < numCategories {
				counts[c]++
			}
		}
	}
	return counts
}
