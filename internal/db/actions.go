package db

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dtnitsch/wikicat/internal/common"
	dbpkg "github.com/dtnitsch/wikicat/pkg/db"
	"github.com/urfave/cli/v2"
)

const timeFormat = "2006-01-02 15:04:05"

// openStore opens the configured store. The db commands never create one.
func openStore(c *cli.Context) (*dbpkg.DB, error) {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return nil, err
	}
	database, err := dbpkg.OpenExisting(cfg.ResolvedStorePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return database, nil
}

func BuildsAction(c *cli.Context) error {
	database, err := openStore(c)
	if err != nil {
		return common.ExitError(err)
	}
	defer database.Close()

	builds, err := database.ListBuilds(c.Int("limit"))
	if err != nil {
		return common.ExitError(fmt.Errorf("failed to list builds: %w", err))
	}
	printBuilds(os.Stdout, builds)
	return nil
}

func printBuilds(w io.Writer, builds []dbpkg.Build) {
	if len(builds) == 0 {
		fmt.Fprintln(w, "No builds found")
		return
	}

	fmt.Fprintf(w, "%-36s %-20s %-10s %-7s %-11s %-9s %-10s\n",
		"Build", "Started", "Status", "Cached", "Categories", "Articles", "Vocabulary")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for _, b := range builds {
		fmt.Fprintf(w, "%-36s %-20s %-10s %-7t %-11d %-9d %-10d\n",
			b.BuildID,
			b.StartedAt.Local().Format(timeFormat),
			b.Status,
			b.UsedCachedData,
			b.CategoryCount,
			b.ArticleCount,
			b.VocabularySize,
		)
	}

	fmt.Fprintf(w, "\nTotal: %d builds\n", len(builds))
	fmt.Fprintf(w, "\nTip: Use 'wikicat db build <id>' to see details\n")
}

// BuildAction shows one build, the latest when no ID is given.
func BuildAction(c *cli.Context) error {
	database, err := openStore(c)
	if err != nil {
		return common.ExitError(err)
	}
	defer database.Close()

	build, err := GetBuildOrLatest(c, database)
	if err != nil {
		return common.ExitError(err)
	}
	printBuild(os.Stdout, build)
	return nil
}

func printBuild(w io.Writer, b *dbpkg.Build) {
	fmt.Fprintf(w, "Build %s\n", b.BuildID)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Started:     %s\n", b.StartedAt.Local().Format(timeFormat))
	if b.FinishedAt.Valid {
		fmt.Fprintf(w, "Finished:    %s (%s)\n", b.FinishedAt.Time.Local().Format(timeFormat),
			b.FinishedAt.Time.Sub(b.StartedAt).Round(time.Millisecond))
	} else {
		fmt.Fprintf(w, "Finished:    (still running or interrupted)\n")
	}
	fmt.Fprintf(w, "Status:      %s\n", b.Status)
	fmt.Fprintf(w, "Cached data: %t\n", b.UsedCachedData)
	fmt.Fprintf(w, "Categories:  %d\n", b.CategoryCount)
	fmt.Fprintf(w, "Articles:    %d\n", b.ArticleCount)
	fmt.Fprintf(w, "Vocabulary:  %d\n", b.VocabularySize)
	if b.ErrorMessage.Valid {
		fmt.Fprintf(w, "Error:       %s\n", b.ErrorMessage.String)
	}
}

// RawAction prints stored blobs as they are, separated when more than one is asked for.
func RawAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("blob name required\nUsage: wikicat db raw <name>[,<name>...]\nExample: wikicat db raw manifest", common.ExitConfig)
	}

	database, err := openStore(c)
	if err != nil {
		return common.ExitError(err)
	}
	defer database.Close()

	if err := writeBlobs(os.Stdout, database, strings.Split(c.Args().First(), ",")); err != nil {
		return common.ExitError(err)
	}
	return nil
}

func writeBlobs(w io.Writer, database *dbpkg.DB, names []string) error {
	for i, name := range names {
		name = strings.TrimSpace(name)
		data, err := database.GetBlob(name)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprint(w, "\n\n")
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	fmt.Fprintln(w)
	return nil
}
