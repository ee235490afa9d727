package build

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dtnitsch/wikicat/internal/common"
	"github.com/dtnitsch/wikicat/models"
	"github.com/dtnitsch/wikicat/pkg/artifacts"
	"github.com/dtnitsch/wikicat/pkg/caching"
	"github.com/dtnitsch/wikicat/pkg/corpus"
	"github.com/dtnitsch/wikicat/pkg/crawler"
	"github.com/dtnitsch/wikicat/pkg/db"
	"github.com/dtnitsch/wikicat/pkg/fetcher"
	"github.com/dtnitsch/wikicat/pkg/labels"
	"github.com/dtnitsch/wikicat/pkg/langdetect"
	"github.com/dtnitsch/wikicat/pkg/manifest"
	"github.com/dtnitsch/wikicat/pkg/metrics"
	"github.com/dtnitsch/wikicat/pkg/pipeline"
	"github.com/urfave/cli/v2"
)

// Options are the per-run inputs of a build that do not live in the config file.
type Options struct {
	CategoriesFile string
	UseCachedData  bool
	MetricsFile    string
}

func BuildAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		return common.ExitError(err)
	}

	opts := Options{
		CategoriesFile: c.String("categories"),
		UseCachedData:  c.Bool("use-cached-data"),
		MetricsFile:    c.String("metrics-file"),
	}
	if _, err := Run(c.Context, cfg, opts, logger, os.Stdout); err != nil {
		logger.Error("Build failed", "error", err)
		return common.ExitError(err)
	}
	return nil
}

// Run crawls the categories (or reloads the cached crawl), trains the classifier and persists
// every artifact into the store. Each run is recorded in the store's build history.
func Run(ctx context.Context, cfg *models.Config, opts Options, logger *slog.Logger, out io.Writer) (*manifest.Build, error) {
	if !opts.UseCachedData && opts.CategoriesFile == "" {
		return nil, &models.ConfigError{Field: "categories", Msg: "a categories file is required unless --use-cached-data is set"}
	}

	// Reject a bad language list before the store is touched.
	detector, err := langdetect.New(cfg.Languages)
	if err != nil {
		return nil, &models.ConfigError{Field: "languages", Msg: err.Error()}
	}

	store, err := db.Open(cfg.ResolvedStorePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	m := metrics.New()
	b := &builder{
		cfg:      cfg,
		opts:     opts,
		logger:   logger,
		metrics:  m,
		manager:  artifacts.NewManager(store),
		detector: detector,
		runID:    manifest.NewRunID(),
		started:  time.Now(),
	}

	if err := store.StartBuild(b.runID, b.started, opts.UseCachedData); err != nil {
		return nil, err
	}
	logger.Info("Build started", "build_id", b.runID, "store", store.Path(), "used_cached_data", opts.UseCachedData)

	build, err := b.run(ctx)
	if opts.MetricsFile != "" {
		if werr := m.WriteFile(opts.MetricsFile); werr != nil {
			logger.Warn("Failed to write metrics file", "path", opts.MetricsFile, "error", werr)
		}
	}
	if err != nil {
		if ferr := store.FailBuild(b.runID, err); ferr != nil {
			logger.Warn("Failed to record build failure", "build_id", b.runID, "error", ferr)
		}
		return nil, err
	}

	if err := store.FinishBuild(b.runID, len(build.Categories), build.Articles, build.Vocabulary); err != nil {
		logger.Warn("Failed to record build result", "build_id", b.runID, "error", err)
	}

	fmt.Fprintf(out, "Trained %d categories on %d articles (vocabulary %d) in %.1fs\n",
		len(build.Categories), build.Articles, build.Vocabulary, build.TrainSeconds)
	fmt.Fprintf(out, "Classifier saved to %s (build %s)\n", store.Path(), b.runID)
	return build, nil
}

type builder struct {
	cfg      *models.Config
	opts     Options
	logger   *slog.Logger
	metrics  *metrics.Metrics
	manager  *artifacts.Manager
	detector *langdetect.Detector
	runID    string
	started  time.Time
}

func (b *builder) run(ctx context.Context) (*manifest.Build, error) {
	crawlStart := time.Now()
	session, codec, err := b.collect(ctx)
	if err != nil {
		return nil, err
	}
	crawlDuration := time.Since(crawlStart)

	docs, targets, err := corpus.Build(session.Texts, session.Labels, codec.Len())
	if err != nil {
		return nil, fmt.Errorf("failed to build corpus: %w", err)
	}
	b.logger.Info("Corpus built", "articles", len(docs), "categories", codec.Len())

	language, distribution := b.detector.DetectCorpus(docs)
	if language.Code != "en" {
		b.logger.Warn("Corpus is not predominantly English; stop words are English only",
			"language", language.Code, "share", language.Confidence)
	}

	p := pipeline.New(pipeline.Options{
		MinDF: b.cfg.Vectorizer.MinDF,
		Boosting: pipeline.BoostingOptions{
			Estimators:     b.cfg.Boosting.Estimators,
			LearningRate:   b.cfg.Boosting.LearningRate,
			MaxDepth:       b.cfg.Boosting.MaxDepth,
			MinSamplesLeaf: b.cfg.Boosting.MinSamplesLeaf,
		},
	}, b.logger)

	trainStart := time.Now()
	if err := p.Fit(docs, targets); err != nil {
		return nil, fmt.Errorf("failed to train classifier: %w", err)
	}
	trainDuration := time.Since(trainStart)
	b.metrics.Trained(len(docs), p.Vocabulary(), trainDuration)

	model, err := p.Model()
	if err != nil {
		return nil, err
	}

	input := manifest.Input{
		RunID:          b.runID,
		StartedAt:      b.started,
		UsedCachedData: b.opts.UseCachedData,
		SiteRoot:       b.cfg.SiteRoot,
		SchemaVersion:  model.SchemaVersion,
		Codec:          codec,
		Texts:          session.Texts,
		Labels:         session.Labels,
		Vocabulary:     p.Vocabulary(),
		Training: manifest.Training{
			MinDF:          b.cfg.Vectorizer.MinDF,
			Estimators:     b.cfg.Boosting.Estimators,
			LearningRate:   b.cfg.Boosting.LearningRate,
			MaxDepth:       b.cfg.Boosting.MaxDepth,
			MinSamplesLeaf: b.cfg.Boosting.MinSamplesLeaf,
		},
		Distribution:  distribution,
		TrainDuration: trainDuration,
	}
	if language.Code != "" {
		input.Language = &language
	}
	if !b.opts.UseCachedData {
		input.CrawlDuration = crawlDuration
	}
	build := manifest.Generate(input)

	if err := b.manager.SaveBuild(session, codec, model, build); err != nil {
		return nil, err
	}
	b.logger.Info("Saved build artifacts", "articles", len(session.Texts), "categories", codec.Len())
	return build, nil
}

// collect returns the labelled articles, either crawled fresh or loaded from the store.
// Nothing is written until training succeeds.
func (b *builder) collect(ctx context.Context) (*crawler.Session, *labels.Codec, error) {
	if b.opts.UseCachedData {
		session, codec, err := b.manager.LoadCrawl()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load cached crawl data: %w", err)
		}
		b.logger.Info("Loaded cached crawl data", "articles", len(session.Texts), "categories", codec.Len())
		return session, codec, nil
	}

	names, err := crawler.ReadCategoryFile(b.opts.CategoriesFile)
	if err != nil {
		return nil, nil, err
	}

	var cache *caching.Cache
	if b.cfg.Fetch.CacheDir != "" {
		cache, err = caching.NewCache(b.cfg.Fetch.CacheDir, b.cfg.Fetch.CacheTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize page cache: %w", err)
		}
	}

	f := fetcher.NewFetcher(b.cfg.Fetch, cache, b.logger)
	c := crawler.New(b.cfg, f, b.logger, b.metrics)
	session, codec, err := c.CrawlCategories(ctx, names)
	if err != nil {
		return nil, nil, err
	}
	b.logger.Info("Crawl finished", "articles", len(session.Texts), "categories", codec.Len())
	return session, codec, nil
}
