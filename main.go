package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/dtnitsch/wikicat/internal/build"
	"github.com/dtnitsch/wikicat/internal/classify"
	"github.com/dtnitsch/wikicat/internal/db"
	"github.com/dtnitsch/wikicat/internal/inspect"
	"github.com/dtnitsch/wikicat/models"
	"github.com/dtnitsch/wikicat/pkg/help"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	loadEnvFiles()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadEnvFiles loads .env.local then .env. Values already in the environment win.
func loadEnvFiles() {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", name, err)
		}
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  models.AppName,
		Usage: "Train a wiki category classifier and classify pages with it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file read over the defaults",
				EnvVars: []string{"WIKICAT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "store",
				Usage:   "SQLite artifact store (default: $XDG_DATA_HOME/wikicat/wikicat.db)",
				EnvVars: []string{"WIKICAT_STORE"},
			},
			&cli.StringFlag{
				Name:    "site-root",
				Usage:   "Wiki site root used for category and article URLs",
				EnvVars: []string{"WIKICAT_SITE_ROOT"},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "HTTP timeout per request",
				EnvVars: []string{"WIKICAT_TIMEOUT"},
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only log errors",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log debug output",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Crawl the listed categories, train the classifier and save it",
				Action: build.BuildAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "categories",
						Usage:   "File with one category name per line",
						EnvVars: []string{"WIKICAT_CATEGORIES"},
					},
					&cli.BoolFlag{
						Name:  "use-cached-data",
						Usage: "Train on the crawl data already in the store instead of crawling",
					},
					&cli.BoolFlag{
						Name:    "skip-failed-articles",
						Usage:   "Skip articles that fail to download instead of aborting",
						EnvVars: []string{"WIKICAT_SKIP_FAILED_ARTICLES"},
					},
					&cli.StringFlag{
						Name:    "cache-dir",
						Usage:   "Cache fetched pages in this directory",
						EnvVars: []string{"WIKICAT_CACHE_DIR"},
					},
					&cli.IntFlag{
						Name:  "min-df",
						Usage: "Minimum number of articles a term must appear in",
					},
					&cli.IntFlag{
						Name:  "estimators",
						Usage: "Boosting rounds per category",
					},
					&cli.StringFlag{
						Name:    "metrics-file",
						Usage:   "Write crawl and training metrics in Prometheus text format",
						EnvVars: []string{"WIKICAT_METRICS_FILE"},
					},
				},
			},
			{
				Name:   "classify",
				Usage:  "Classify a page with the trained classifier",
				Action: classify.ClassifyAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "url",
						Aliases:  []string{"u"},
						Usage:    "Page to classify",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "classifier",
						Usage: "Store holding the classifier (default: the configured store)",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: text, table, markdown, json or yaml",
					},
					&cli.IntFlag{
						Name:  "top",
						Usage: "Only show the N most likely categories",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the report to a file instead of stdout",
					},
				},
			},
			{
				Name:   "inspect",
				Usage:  "Show what the store holds: artifacts, corpus per category and build history",
				Action: inspect.InspectAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "table",
						Usage:   "Output format: table, json or yaml",
					},
					&cli.IntFlag{
						Name:  "top",
						Value: 10,
						Usage: "Keywords shown per category",
					},
					&cli.IntFlag{
						Name:  "builds",
						Value: 10,
						Usage: "Number of past builds shown",
					},
					&cli.StringFlag{
						Name:  "export",
						Usage: "Also copy every artifact into this directory as JSON",
					},
				},
			},
			{
				Name:  "db",
				Usage: "Query the build history and raw artifacts in the store",
				Subcommands: []*cli.Command{
					{
						Name:   "builds",
						Usage:  "List past builds, newest first",
						Action: db.BuildsAction,
						Flags: []cli.Flag{
							&cli.IntFlag{
								Name:  "limit",
								Value: 20,
								Usage: "Maximum number of builds (0 for all)",
							},
						},
					},
					{
						Name:      "build",
						Usage:     "Show one build (default: the latest)",
						ArgsUsage: "[build-id]",
						Action:    db.BuildAction,
					},
					{
						Name:      "raw",
						Usage:     "Print stored artifacts as they are",
						ArgsUsage: "<name>[,<name>...]",
						Action:    db.RawAction,
					},
				},
			},
			{
				Name:  "quickstart",
				Usage: "Print a quick start guide as YAML",
				Action: func(c *cli.Context) error {
					fmt.Fprint(c.App.Writer, help.ColdstartYAML)
					return nil
				},
			},
		},
	}
}
