package pipeline

import (
	"fmt"
	"log/slog"
	"time"
)

// OneVsRest trains one independent binary classifier per target column. The resulting
// probabilities are not mutually exclusive and do not sum to one.
type OneVsRest struct {
	Options    BoostingOptions
	Estimators []*GradientBoosting
	logger     *slog.Logger
}

func NewOneVsRest(opts BoostingOptions, logger *slog.Logger) *OneVsRest {
	return &OneVsRest{Options: opts, logger: logger}
}

// Fit trains a fresh estimator for each column of Y.
func (o *OneVsRest) Fit(X [][]float64, Y [][]float64) error {
	if len(Y) == 0 {
		return fmt.Errorf("one-vs-rest: no target rows")
	}
	width := len(Y[0])
	o.Estimators = make([]*GradientBoosting, width)

	column := make([]float64, len(Y))
	for c := 0; c < width; c++ {
		start := time.Now()
		for i, row := range Y {
			column[i] = row[c]
		}
		est := NewGradientBoosting(o.Options)
		if err := est.Fit(X, column); err != nil {
			return fmt.Errorf("category %d: %w", c, err)
		}
		o.Estimators[c] = est
		o.logger.Debug("Trained category estimator", "category", c, "trees", len(est.Trees), "constant", est.Constant != nil, "elapsed", time.Since(start))
	}
	return nil
}

// PredictProba returns the positive-class probability of every category for x.
func (o *OneVsRest) PredictProba(x []float64) []float64 {
	out := make([]float64, len(o.Estimators))
	for c, est := range o.Estimators {
		out[c] = est.PredictProba(x)
	}
	return out
}
