// Package metrics holds the Prometheus counters of a build run. Each run owns its own registry,
// which is written out in the node-exporter textfile format when a metrics file is requested.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wikicat"

// Skip reasons used as the "reason" label of ArticlesSkipped.
const (
	ReasonNamespace   = "namespace"
	ReasonFetchFailed = "fetch_failed"
)

// Metrics is safe to use through a nil pointer; every recorder becomes a no-op.
type Metrics struct {
	registry *prometheus.Registry

	ListingPages     *prometheus.CounterVec
	ArticlesFetched  *prometheus.CounterVec
	ArticlesRelabel  *prometheus.CounterVec
	ArticlesSkipped  *prometheus.CounterVec
	FetchFailures    prometheus.Counter
	CorpusDocuments  prometheus.Gauge
	VocabularyTerms  prometheus.Gauge
	TrainingDuration prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ListingPages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_pages_total",
			Help:      "Category listing pages processed",
		}, []string{"category"}),
		ArticlesFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_fetched_total",
			Help:      "Articles fetched for the first time",
		}, []string{"category"}),
		ArticlesRelabel: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_relabeled_total",
			Help:      "Known articles that gained an extra category",
		}, []string{"category"}),
		ArticlesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_skipped_total",
			Help:      "Listing links skipped, by reason",
		}, []string{"category", "reason"}),
		FetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Failed page fetches",
		}),
		CorpusDocuments: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_documents",
			Help:      "Documents in the training corpus",
		}),
		VocabularyTerms: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vocabulary_terms",
			Help:      "Terms kept by the vectorizer",
		}),
		TrainingDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "training_duration_seconds",
			Help:      "Wall time of the last classifier fit",
		}),
	}
}

func (m *Metrics) ListingPage(category string) {
	if m == nil {
		return
	}
	m.ListingPages.WithLabelValues(category).Inc()
}

func (m *Metrics) ArticleFetched(category string) {
	if m == nil {
		return
	}
	m.ArticlesFetched.WithLabelValues(category).Inc()
}

func (m *Metrics) ArticleRelabeled(category string) {
	if m == nil {
		return
	}
	m.ArticlesRelabel.WithLabelValues(category).Inc()
}

func (m *Metrics) ArticleSkipped(category, reason string) {
	if m == nil {
		return
	}
	m.ArticlesSkipped.WithLabelValues(category, reason).Inc()
}

func (m *Metrics) FetchFailed() {
	if m == nil {
		return
	}
	m.FetchFailures.Inc()
}

// Trained records the outcome of a classifier fit.
func (m *Metrics) Trained(documents, vocabulary int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CorpusDocuments.Set(float64(documents))
	m.VocabularyTerms.Set(float64(vocabulary))
	m.TrainingDuration.Set(elapsed.Seconds())
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteFile writes all metrics to path in the Prometheus text format.
func (m *Metrics) WriteFile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
