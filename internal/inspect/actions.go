package inspect

import (
	"bytes"
	"io"
	"log/slog"
	"os"

	"github.com/dtnitsch/wikicat/internal/common"
	"github.com/dtnitsch/wikicat/models"
	"github.com/dtnitsch/wikicat/pkg/artifacts"
	"github.com/dtnitsch/wikicat/pkg/corpus"
	"github.com/dtnitsch/wikicat/pkg/db"
	"github.com/dtnitsch/wikicat/pkg/mapreduce"
	"github.com/dtnitsch/wikicat/pkg/report"
	"github.com/dtnitsch/wikicat/pkg/storage"
	"github.com/urfave/cli/v2"
)

const defaultBuildHistory = 10

type Options struct {
	Format report.Format
	// Top is how many keywords to list per category.
	Top       int
	Builds    int
	ExportDir string
}

func InspectAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		return common.ExitError(err)
	}

	format, err := report.ParseFormat(c.String("format"), report.InspectionFormats...)
	if err != nil {
		return common.ExitError(err)
	}

	opts := Options{
		Format:    format,
		Top:       c.Int("top"),
		Builds:    c.Int("builds"),
		ExportDir: c.String("export"),
	}
	if _, err := Run(cfg, opts, logger, os.Stdout); err != nil {
		logger.Error("Inspect failed", "error", err)
		return common.ExitError(err)
	}
	return nil
}

// Run summarizes the store's artifacts, cached corpus and build history. It never writes to the
// store. Artifacts a store does not have yet are left out of the report.
func Run(cfg *models.Config, opts Options, logger *slog.Logger, out io.Writer) (*report.Inspection, error) {
	if opts.Format == "" {
		opts.Format = report.FormatTable
	}
	if opts.Builds == 0 {
		opts.Builds = defaultBuildHistory
	}

	store, err := db.OpenExisting(cfg.ResolvedStorePath())
	if err != nil {
		return nil, &models.PersistenceError{Blob: artifacts.TextDict, Op: "load", Err: err}
	}
	defer store.Close()

	ins := &report.Inspection{StorePath: store.Path()}

	blobs, err := store.ListBlobs()
	if err != nil {
		return nil, err
	}
	for _, b := range blobs {
		ins.Blobs = append(ins.Blobs, report.BlobSummary{
			Name:      b.Name,
			SizeBytes: b.SizeBytes,
			Hash:      b.ContentHash,
			UpdatedAt: b.UpdatedAt,
		})
	}

	manager := artifacts.NewManager(store)
	session, codec, err := manager.LoadCrawl()
	switch {
	case models.IsNotFound(err):
		logger.Info("No cached crawl data in store", "store", store.Path())
	case err != nil:
		return nil, err
	default:
		n := codec.Len()
		counts := corpus.LabelCounts(session.Labels, n)
		perCategory := mapreduce.ByCategory(session.Texts, session.Labels, n)
		ins.Articles = len(session.Texts)
		for i := 0; i < n; i++ {
			name, _ := codec.Name(i)
			stats := report.CategoryStats{Index: i, Name: name, Articles: counts[i]}
			if opts.Top > 0 {
				stats.Keywords = mapreduce.Top(perCategory[i], opts.Top)
			}
			ins.Categories = append(ins.Categories, stats)
		}
	}

	build, err := manager.LoadManifest()
	switch {
	case models.IsNotFound(err):
	case err != nil:
		return nil, err
	default:
		ins.LastBuild = build
	}

	history, err := store.ListBuilds(opts.Builds)
	if err != nil {
		return nil, err
	}
	for _, b := range history {
		ins.Builds = append(ins.Builds, report.BuildSummary{
			BuildID:    b.BuildID,
			StartedAt:  b.StartedAt,
			Status:     b.Status,
			Cached:     b.UsedCachedData,
			Categories: b.CategoryCount,
			Articles:   b.ArticleCount,
			Vocabulary: b.VocabularySize,
			Error:      b.ErrorMessage.String,
		})
	}

	if opts.ExportDir != "" {
		written, err := manager.Export(opts.ExportDir, &storage.Storage{})
		if err != nil {
			return nil, err
		}
		ins.Exported = written
	}

	var buf bytes.Buffer
	if err := report.WriteInspection(&buf, ins, opts.Format); err != nil {
		return nil, err
	}
	if _, err := out.Write(buf.Bytes()); err != nil {
		return nil, err
	}
	return ins, nil
}
