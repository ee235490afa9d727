package pipeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/dtnitsch/wikicat/pkg/analytics"
)

// SparseVector holds the non-zero weights of one document. Indices are ascending.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// TfidfVectorizer turns documents into L2-normalized tf-idf vectors over a vocabulary learned at
// fit time. Terms found in fewer than MinDF training documents, and English stop words, are dropped.
type TfidfVectorizer struct {
	MinDF      int
	vocabulary map[string]int
	terms      []string
	idf        []float64
}

func NewTfidfVectorizer(minDF int) *TfidfVectorizer {
	return &TfidfVectorizer{MinDF: minDF}
}

// Fit learns the vocabulary and smooth idf weights: idf = ln((1+n)/(1+df)) + 1.
func (v *TfidfVectorizer) Fit(docs []string) error {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range analytics.Terms(doc) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	terms := make([]string, 0, len(df))
	for term, count := range df {
		if count >= v.MinDF {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return fmt.Errorf("no terms remain after pruning with min_df=%d over %d documents", v.MinDF, len(docs))
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v.terms = terms
	v.vocabulary = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	for i, term := range terms {
		v.vocabulary[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return nil
}

// Transform weights a single document. Terms outside the vocabulary contribute nothing.
func (v *TfidfVectorizer) Transform(doc string) SparseVector {
	counts := make(map[int]float64)
	for _, term := range analytics.Terms(doc) {
		if idx, ok := v.vocabulary[term]; ok {
			counts[idx]++
		}
	}

	vec := SparseVector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		vec.Indices = append(vec.Indices, idx)
	}
	sort.Ints(vec.Indices)

	var norm float64
	for _, idx := range vec.Indices {
		w := counts[idx] * v.idf[idx]
		vec.Values = append(vec.Values, w)
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec.Values {
			vec.Values[i] /= norm
		}
	}
	return vec
}

func (v *TfidfVectorizer) FitTransform(docs []string) ([]SparseVector, error) {
	if err := v.Fit(docs); err != nil {
		return nil, err
	}
	out := make([]SparseVector, len(docs))
	for i, doc := range docs {
		out[i] = v.Transform(doc)
	}
	return out, nil
}

// Features is the vocabulary size, i.e. the width of dense vectors.
func (v *TfidfVectorizer) Features() int { return len(v.terms) }

// Terms returns the vocabulary in index order.
func (v *TfidfVectorizer) Terms() []string { return v.terms }
