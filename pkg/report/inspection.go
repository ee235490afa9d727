package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dtnitsch/wikicat/pkg/manifest"
	"github.com/dtnitsch/wikicat/pkg/mapreduce"
	"github.com/jedib0t/go-pretty/v6/table"
)

// InspectionFormats are the formats inspect accepts.
var InspectionFormats = []Format{FormatTable, FormatJSON, FormatYAML}

// Inspection summarizes what a store holds.
type Inspection struct {
	StorePath  string          `json:"store_path" yaml:"store_path"`
	Blobs      []BlobSummary   `json:"blobs" yaml:"blobs"`
	Articles   int             `json:"articles" yaml:"articles"`
	Categories []CategoryStats `json:"categories" yaml:"categories"`
	LastBuild  *manifest.Build `json:"last_build,omitempty" yaml:"last_build,omitempty"`
	Builds     []BuildSummary  `json:"builds,omitempty" yaml:"builds,omitempty"`
	Exported   []string        `json:"exported,omitempty" yaml:"exported,omitempty"`
}

type BlobSummary struct {
	Name      string    `json:"name" yaml:"name"`
	SizeBytes int64     `json:"size_bytes" yaml:"size_bytes"`
	Hash      string    `json:"content_hash" yaml:"content_hash"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

type CategoryStats struct {
	Index    int                 `json:"index" yaml:"index"`
	Name     string              `json:"name" yaml:"name"`
	Articles int                 `json:"articles" yaml:"articles"`
	Keywords []mapreduce.Keyword `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

type BuildSummary struct {
	BuildID    string    `json:"build_id" yaml:"build_id"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	Status     string    `json:"status" yaml:"status"`
	Cached     bool      `json:"used_cached_data" yaml:"used_cached_data"`
	Categories int       `json:"categories" yaml:"categories"`
	Articles   int       `json:"articles" yaml:"articles"`
	Vocabulary int       `json:"vocabulary" yaml:"vocabulary"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// WriteInspection renders ins to w in format f.
func WriteInspection(w io.Writer, ins *Inspection, f Format) error {
	switch f {
	case FormatTable:
		return writeInspectionTables(w, ins)
	case FormatJSON:
		return writeJSON(w, ins)
	case FormatYAML:
		return writeYAML(w, ins)
	default:
		return fmt.Errorf("unsupported format %q", f)
	}
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

func writeInspectionTables(w io.Writer, ins *Inspection) error {
	if _, err := fmt.Fprintf(w, "Store: %s\n", ins.StorePath); err != nil {
		return err
	}

	blobs := newTable(w, "Artifacts")
	blobs.AppendHeader(table.Row{"Name", "Size", "Updated", "Hash"})
	for _, b := range ins.Blobs {
		blobs.AppendRow(table.Row{b.Name, b.SizeBytes, b.UpdatedAt.Format(time.RFC3339), shortHash(b.Hash)})
	}
	blobs.Render()

	cats := newTable(w, "Categories")
	cats.AppendHeader(table.Row{"#", "Category", "Articles", "Top keywords"})
	for _, c := range ins.Categories {
		words := make([]string, len(c.Keywords))
		for i, k := range c.Keywords {
			words[i] = k.Word
		}
		cats.AppendRow(table.Row{c.Index, c.Name, c.Articles, strings.Join(words, ", ")})
	}
	cats.AppendFooter(table.Row{"", "Total articles", ins.Articles, ""})
	cats.Render()

	if b := ins.LastBuild; b != nil {
		last := newTable(w, "Last build")
		last.AppendRows([]table.Row{
			{"Run", b.RunID},
			{"Generated", b.GeneratedAt},
			{"Cached data", b.UsedCachedData},
			{"Articles", b.Articles},
			{"Multi-label articles", b.MultiLabelArticles},
			{"Vocabulary", b.Vocabulary},
			{"Train seconds", fmt.Sprintf("%.1f", b.TrainSeconds)},
		})
		if b.Language != nil {
			last.AppendRow(table.Row{"Language", fmt.Sprintf("%s (%.0f%% of articles)", b.Language.Name, b.Language.Share*100)})
		}
		last.Render()
	}

	if len(ins.Builds) > 0 {
		history := newTable(w, "Build history")
		history.AppendHeader(table.Row{"Build", "Started", "Status", "Cached", "Articles", "Vocabulary"})
		for _, b := range ins.Builds {
			history.AppendRow(table.Row{shortHash(b.BuildID), b.StartedAt.Format(time.RFC3339), b.Status, b.Cached, b.Articles, b.Vocabulary})
		}
		history.Render()
	}

	for _, path := range ins.Exported {
		if _, err := fmt.Fprintf(w, "Exported %s\n", path); err != nil {
			return err
		}
	}
	return nil
}

func shortHash(s string) string {
	if len(s) > 12 {
		return s[:12]
	}
	return s
}
