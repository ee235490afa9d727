package db

import (
	"fmt"

	dbpkg "github.com/dtnitsch/wikicat/pkg/db"
	"github.com/urfave/cli/v2"
)

// GetBuildOrLatest returns the build named by the first argument, or the latest build if none.
func GetBuildOrLatest(c *cli.Context, database *dbpkg.DB) (*dbpkg.Build, error) {
	if c.NArg() == 0 {
		builds, err := database.ListBuilds(1)
		if err != nil {
			return nil, fmt.Errorf("failed to get latest build: %w", err)
		}
		if len(builds) == 0 {
			return nil, fmt.Errorf("no builds found. Run 'wikicat build --categories FILE' first")
		}
		return &builds[0], nil
	}
	return database.GetBuild(c.Args().First())
}
