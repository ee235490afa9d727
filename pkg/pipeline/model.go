package pipeline

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
)

// SchemaVersion identifies the persisted model layout. Bump it when Model changes shape.
const SchemaVersion = 1

// Model is the portable, serializable form of a fitted Pipeline.
type Model struct {
	SchemaVersion int              `json:"schema_version"`
	Vectorizer    VectorizerModel  `json:"vectorizer"`
	Estimators    []EstimatorModel `json:"estimators"`
}

type VectorizerModel struct {
	MinDF int `json:"min_df"`
	// Terms is the vocabulary in index order; IDF is aligned with it.
	Terms []string  `json:"terms"`
	IDF   []float64 `json:"idf"`
}

type EstimatorModel struct {
	Constant     *float64 `json:"constant,omitempty"`
	Init         float64  `json:"init"`
	LearningRate float64  `json:"learning_rate"`
	Trees        []Tree   `json:"trees,omitempty"`
}

// Model snapshots a fitted pipeline.
func (p *Pipeline) Model() (*Model, error) {
	if p.vectorizer == nil || p.estimator == nil {
		return nil, ErrNotFitted
	}
	m := &Model{
		SchemaVersion: SchemaVersion,
		Vectorizer: VectorizerModel{
			MinDF: p.vectorizer.MinDF,
			Terms: p.vectorizer.terms,
			IDF:   p.vectorizer.idf,
		},
	}
	for _, est := range p.estimator.Estimators {
		m.Estimators = append(m.Estimators, EstimatorModel{
			Constant:     est.Constant,
			Init:         est.Init,
			LearningRate: est.Options.LearningRate,
			Trees:        est.Trees,
		})
	}
	return m, nil
}

// FromModel rebuilds a pipeline able to predict. It rejects unknown schema versions and
// structurally invalid trees.
func FromModel(m *Model, logger *slog.Logger) (*Pipeline, error) {
	if m.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("unsupported model schema version %d (want %d)", m.SchemaVersion, SchemaVersion)
	}
	if len(m.Vectorizer.Terms) != len(m.Vectorizer.IDF) {
		return nil, fmt.Errorf("vectorizer has %d terms but %d idf weights", len(m.Vectorizer.Terms), len(m.Vectorizer.IDF))
	}
	if len(m.Estimators) == 0 {
		return nil, fmt.Errorf("model has no estimators")
	}

	vectorizer := &TfidfVectorizer{
		MinDF:      m.Vectorizer.MinDF,
		terms:      m.Vectorizer.Terms,
		idf:        m.Vectorizer.IDF,
		vocabulary: make(map[string]int, len(m.Vectorizer.Terms)),
	}
	for i, term := range m.Vectorizer.Terms {
		vectorizer.vocabulary[term] = i
	}

	opts := Options{MinDF: m.Vectorizer.MinDF, Boosting: DefaultBoostingOptions()}
	p := New(opts, logger)
	estimator := NewOneVsRest(opts.Boosting, p.logger)
	for c, em := range m.Estimators {
		for t := range em.Trees {
			if err := validateTree(&em.Trees[t]); err != nil {
				return nil, fmt.Errorf("category %d tree %d: %w", c, t, err)
			}
		}
		bo := opts.Boosting
		bo.LearningRate = em.LearningRate
		bo.Estimators = len(em.Trees)
		estimator.Estimators = append(estimator.Estimators, &GradientBoosting{
			Options:  bo,
			Init:     em.Init,
			Trees:    em.Trees,
			Constant: em.Constant,
		})
	}

	p.vectorizer = vectorizer
	p.estimator = estimator
	return p, nil
}

// validateTree checks that every split points forward to an existing node, so Predict terminates.
func validateTree(t *Tree) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, node := range t.Nodes {
		if node.Feature < 0 {
			if math.IsNaN(node.Value) {
				return fmt.Errorf("leaf %d has NaN value", i)
			}
			continue
		}
		if node.Left <= i || node.Right <= i || node.Left >= len(t.Nodes) || node.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has invalid children %d/%d", i, node.Left, node.Right)
		}
	}
	return nil
}

// Encode serializes the model as JSON.
func (m *Model) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeModel parses a model produced by Encode.
func DecodeModel(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &m, nil
}
