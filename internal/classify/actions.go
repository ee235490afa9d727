package classify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/wikicat/internal/common"
	"github.com/dtnitsch/wikicat/models"
	"github.com/dtnitsch/wikicat/pkg/artifacts"
	"github.com/dtnitsch/wikicat/pkg/db"
	"github.com/dtnitsch/wikicat/pkg/extractors"
	"github.com/dtnitsch/wikicat/pkg/fetcher"
	"github.com/dtnitsch/wikicat/pkg/labels"
	"github.com/dtnitsch/wikicat/pkg/langdetect"
	"github.com/dtnitsch/wikicat/pkg/pipeline"
	"github.com/dtnitsch/wikicat/pkg/report"
	"github.com/dtnitsch/wikicat/pkg/storage"
	"github.com/urfave/cli/v2"
)

type Options struct {
	URL string
	// Classifier is the store holding the trained classifier. Empty means the configured store.
	Classifier string
	Format     report.Format
	Top        int
	// Output, when set, receives the report instead of stdout.
	Output string
}

func ClassifyAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		return common.ExitError(err)
	}

	format, err := report.ParseFormat(c.String("format"), report.ClassificationFormats...)
	if err != nil {
		return common.ExitError(err)
	}

	opts := Options{
		URL:        c.String("url"),
		Classifier: c.String("classifier"),
		Format:     format,
		Top:        c.Int("top"),
		Output:     c.String("output"),
	}
	if _, err := Run(c.Context, cfg, opts, logger, os.Stdout, os.Stderr); err != nil {
		logger.Error("Classification failed", "url", opts.URL, "error", err)
		return common.ExitError(err)
	}
	return nil
}

// Run fetches one page, scores it against every trained category and writes the report.
// Nothing is written unless the whole classification succeeds.
func Run(ctx context.Context, cfg *models.Config, opts Options, logger *slog.Logger, out, errOut io.Writer) (*report.Classification, error) {
	if opts.URL == "" {
		return nil, &models.ConfigError{Field: "url", Msg: "a URL to classify is required"}
	}
	pageURL, err := common.ValidateURL(opts.URL)
	if err != nil {
		return nil, &models.ConfigError{Field: "url", Msg: err.Error()}
	}
	if opts.Format == "" {
		opts.Format = report.FormatText
	}

	storePath := opts.Classifier
	if storePath == "" {
		fmt.Fprintln(errOut, "Using default classifier")
		storePath = cfg.ResolvedStorePath()
	}

	store, err := db.OpenExisting(storePath)
	if err != nil {
		return nil, &models.PersistenceError{Blob: artifacts.Classifier, Op: "load", Err: err}
	}
	defer store.Close()

	manager := artifacts.NewManager(store)
	model, err := manager.LoadModel()
	if err != nil {
		return nil, err
	}
	p, err := pipeline.FromModel(model, logger)
	if err != nil {
		return nil, &models.PersistenceError{Blob: artifacts.Classifier, Op: "load", Err: err}
	}
	if info, err := store.GetBlobInfo(artifacts.Classifier); err == nil {
		logger.Debug("Loaded classifier",
			"store", storePath,
			"categories", p.Categories(),
			"vocabulary", p.Vocabulary(),
			"content_hash", info.ContentHash,
			"updated_at", info.UpdatedAt)
	}

	codec, err := manager.LoadCodec()
	if models.IsNotFound(err) {
		logger.Warn("No label codec in store; reporting category indices", "store", storePath)
		codec = nil
	} else if err != nil {
		return nil, err
	}

	f := fetcher.NewFetcher(cfg.Fetch, nil, logger)
	html, err := f.GetHtmlBytes(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, &models.FetchError{URL: pageURL, Err: fmt.Errorf("failed to parse HTML: %w", err)}
	}
	text := extractors.ExtractText(doc)
	logger.Debug("Extracted page text", "url", pageURL, "chars", len(text))

	probs, err := p.PredictProba(text)
	if err != nil {
		return nil, err
	}

	result, err := newClassification(pageURL, html, text, probs, codec, opts.Top, cfg.Languages, logger)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := report.WriteClassification(&buf, result, opts.Format); err != nil {
		return nil, err
	}
	if opts.Output != "" {
		s := &storage.Storage{}
		if s.HasFile(opts.Output) {
			logger.Warn("Overwriting existing report", "path", opts.Output)
		}
		if err := s.SaveFile(opts.Output, buf.Bytes()); err != nil {
			return nil, err
		}
		if stats, err := s.GetFileStats(opts.Output); err == nil {
			logger.Info("Report written", "path", opts.Output, "bytes", stats.SizeBytes)
		}
		return result, nil
	}
	if _, err := out.Write(buf.Bytes()); err != nil {
		return nil, err
	}
	return result, nil
}

func newClassification(pageURL string, html []byte, text string, probs []float64, codec *labels.Codec, top int, languages []string, logger *slog.Logger) (*report.Classification, error) {
	result, err := report.NewClassification(extractors.Describe(pageURL, html), probs, codec, top)
	if err != nil {
		return nil, err
	}

	detector, err := langdetect.New(languages)
	if err != nil {
		logger.Warn("Language detection disabled", "error", err)
		return result, nil
	}
	if lang, ok := detector.Detect(text); ok {
		result.Language = &lang
		if lang.Code != "en" {
			logger.Warn("Page is not English; the vocabulary was built from English text", "language", lang.Code)
		}
	}
	return result, nil
}
