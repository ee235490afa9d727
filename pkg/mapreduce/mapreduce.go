package mapreduce

import "github.com/dtnitsch/wikicat/pkg/analytics"

// Map generates a word frequency map for a single document's content.
func Map(content string) map[string]int {
	return analytics.WordFrequency(content)
}

// Reduce aggregates a slice of word frequency maps into a single map.
func Reduce(intermediate []map[string]int) map[string]int {
	finalResults := make(map[string]int)

	for _, counts := range intermediate {
		for word, count := range counts {
			finalResults[word] += count
		}
	}

	return finalResults
}

// ByCategory maps every article once and reduces its counts into each category it is
// labeled with. The result has one frequency map per category index.
func ByCategory(texts map[string]string, labelMap map[string][]int, numCategories int) []map[string]int {
	perCategory := make([][]map[string]int, numCategories)
	for title, text := range texts {
		counts := Map(text)
		for _, c := range labelMap[title] {
			if c < 0 || c >= numCategories {
				continue
			}
			perCategory[c] = append(perCategory[c], counts)
		}
	}

	out := make([]map[string]int, numCategories)
	for c := range perCategory {
		out[c] = Reduce(perCategory[c])
	}
	return out
}
