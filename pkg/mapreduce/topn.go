package mapreduce

import (
	"fmt"
	"sort"
)

// Keyword is a term and its aggregated count.
type Keyword struct {
	Word  string `json:"word" yaml:"word"`
	Count int    `json:"count" yaml:"count"`
}

// Top returns the n most frequent words, highest count first, ties broken alphabetically.
func Top(wordCounts map[string]int, n int) []Keyword {
	ss := make([]Keyword, 0, len(wordCounts))
	for k, v := range wordCounts {
		ss = append(ss, Keyword{k, v})
	}

	sort.Slice(ss, func(i, j int) bool {
		if ss[i].Count == ss[j].Count {
			return ss[i].Word < ss[j].Word
		}
		return ss[i].Count > ss[j].Count
	})

	if n >= 0 && len(ss) > n {
		ss = ss[:n]
	}
	return ss
}

// TopKeywords returns the top N keywords from aggregated word counts as formatted strings.
// Each string is formatted as "word:count" (e.g., "feline:1153").
func TopKeywords(wordCounts map[string]int, n int) []string {
	top := Top(wordCounts, n)
	keywords := make([]string, len(top))
	for i, kw := range top {
		keywords[i] = fmt.Sprintf("%s:%d", kw.Word, kw.Count)
	}
	return keywords
}
