// Package pipeline implements the text classifier: a tf-idf vectorizer, a densifying step and a
// one-vs-rest gradient boosting estimator, trained together and persisted as one Model.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrNotFitted is returned when predicting with a pipeline that has not been trained or loaded.
var ErrNotFitted = errors.New("pipeline has not been fitted")

type Options struct {
	MinDF    int
	Boosting BoostingOptions
}

func DefaultOptions() Options {
	return Options{MinDF: 10, Boosting: DefaultBoostingOptions()}
}

type Pipeline struct {
	opts       Options
	vectorizer *TfidfVectorizer
	estimator  *OneVsRest
	logger     *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{opts: opts, logger: logger}
}

// Fit trains the vectorizer and the estimator from scratch. targets has one row per document
// and one column per category.
func (p *Pipeline) Fit(docs []string, targets [][]float64) error {
	if len(docs) == 0 {
		return errors.New("no documents to train on")
	}
	if len(docs) != len(targets) {
		return fmt.Errorf("%d documents but %d target rows", len(docs), len(targets))
	}
	width := len(targets[0])
	if width == 0 {
		return errors.New("target rows have no categories")
	}
	for i, row := range targets {
		if len(row) != width {
			return fmt.Errorf("target row %d has %d columns, want %d", i, len(row), width)
		}
	}

	vectorizer := NewTfidfVectorizer(p.opts.MinDF)
	sparse, err := vectorizer.FitTransform(docs)
	if err != nil {
		return fmt.Errorf("vectorize: %w", err)
	}
	p.logger.Info("Vectorized corpus", "documents", len(docs), "vocabulary", vectorizer.Features(), "min_df", p.opts.MinDF)

	dense := Densify(sparse, vectorizer.Features())

	estimator := NewOneVsRest(p.opts.Boosting, p.logger)
	if err := estimator.Fit(dense, targets); err != nil {
		return fmt.Errorf("train estimator: %w", err)
	}

	p.vectorizer = vectorizer
	p.estimator = estimator
	return nil
}

// PredictProba returns one raw probability per category. Callers present the row through
// Normalize before treating it as a distribution.
func (p *Pipeline) PredictProba(doc string) ([]float64, error) {
	if p.vectorizer == nil || p.estimator == nil {
		return nil, ErrNotFitted
	}
	row := DensifyOne(p.vectorizer.Transform(doc), p.vectorizer.Features())
	return p.estimator.PredictProba(row), nil
}

// Categories is the number of categories the pipeline was trained on.
func (p *Pipeline) Categories() int {
	if p.estimator == nil {
		return 0
	}
	return len(p.estimator.Estimators)
}

// Vocabulary is the number of terms kept by the vectorizer.
func (p *Pipeline) Vocabulary() int {
	if p.vectorizer == nil {
		return 0
	}
	return p.vectorizer.Features()
}

// Normalize divides each probability by the row sum. A row that sums to zero is returned as is.
func Normalize(probs []float64) []float64 {
	var total float64
	for _, v := range probs {
		total += v
	}
	out := make([]float64, len(probs))
	copy(out, probs)
	if total <= 0 {
		return out
	}
	for i := range out {
		out[i] /= total
	}
	return out
}
