package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/rsned/recipe-nesting/internal/crafting/db"
	"github.com/rsned/recipe-nesting/internal/crafting/mcp"
	"github.com/rsned/recipe-nesting/internal/crafting/nesting"
	"github.com/rsned/recipe-nesting/internal/crafting/sync"
	"github.com/rsned/recipe-nesting/pkg/crafting"
)

func (a *app) nestCmd() *cli.Command {
	return &cli.Command{
		Name:  "nest",
		Usage: "Nest a recipe file without touching the database",
		Description: `Read an array of raw recipe records (JSON, or YAML for .yaml/.yml files)
and write one nested recipe tree per output item. Use "-" to read JSON
from stdin.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Recipe records file",
				Required: true,
			},
			outputFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}

			records, err := a.readRecords(cmd.String("input"))
			if err != nil {
				return err
			}

			trees, err := nesting.Nest(records, nesting.WithLogger(a.logger))
			if err != nil {
				return err
			}
			a.logger.Info("nested recipes", "records", len(records), "trees", len(trees))

			return writeOutput(a.stdout, cmd.String("output"), format, trees)
		},
	}
}

func (a *app) readRecords(path string) ([]crafting.RawRecipe, error) {
	if path != "-" {
		return sync.ReadRecipesFile(path)
	}

	data, err := io.ReadAll(a.stdin)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return sync.DecodeRecipes(path, data)
}

func (a *app) importCmd() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Append recipe records to the database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Recipe records file (JSON or YAML)",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "replace",
				Usage: "Remove stored records and trees before importing",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.String("file")
			records, err := a.readRecords(path)
			if err != nil {
				return err
			}
			// Reject bad files before anything is cleared.
			if _, err := nesting.NormalizeAll(records); err != nil {
				return err
			}

			database, err := a.openDB(ctx, cmd)
			if err != nil {
				return err
			}
			defer closeDB(database, a.logger)

			syncer := sync.NewSyncer(database, a.logger)
			if cmd.Bool("replace") {
				if err := syncer.ClearAll(ctx); err != nil {
					return fmt.Errorf("clearing database: %w", err)
				}
			}
			if err := syncer.ImportRecipes(ctx, records); err != nil {
				return err
			}

			total, err := db.NewRecipeStore(database).CountRecipes(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.stdout, "imported %d records from %s (%d stored)\n", len(records), path, total)
			return err
		},
	}
}

func (a *app) buildCmd() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Nest the stored records into stored recipe trees",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			database, err := a.openDB(ctx, cmd)
			if err != nil {
				return err
			}
			defer closeDB(database, a.logger)

			result, err := sync.NewSyncer(database, a.logger).BuildTrees(ctx)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(a.stdout, "build %s: %d records, %d trees in %s\n",
				result.BuildID, result.RecordCount, result.TreeCount, result.Duration)
			return err
		},
	}
}

func (a *app) treeCmd() *cli.Command {
	return &cli.Command{
		Name:  "tree",
		Usage: "Print the stored recipe tree of an output item",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:     "id",
				Usage:    "Output item id",
				Required: true,
			},
			outputFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}

			database, err := a.openDB(ctx, cmd)
			if err != nil {
				return err
			}
			defer closeDB(database, a.logger)

			eng, err := a.newEngine(cmd, database)
			if err != nil {
				return err
			}

			resp, err := eng.RecipeTree(ctx, crafting.RecipeTreeRequest{ID: int(cmd.Int("id"))})
			if err != nil {
				return err
			}

			return writeOutput(a.stdout, cmd.String("output"), format, resp.Recipe)
		},
	}
}

func (a *app) serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve stored recipe trees over MCP on stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			database, err := a.openDB(ctx, cmd)
			if err != nil {
				return err
			}
			defer closeDB(database, a.logger)

			eng, err := a.newEngine(cmd, database)
			if err != nil {
				return err
			}

			server := mcp.NewServer(eng, a.logger, a.version)
			a.logger.Info("starting MCP server", "db", cmd.String("db"))
			if err := server.RunIO(ctx, a.stdin, a.stdout); err != nil && ctx.Err() == nil {
				return fmt.Errorf("server error: %w", err)
			}
			a.logger.Info("server stopped")
			return nil
		},
	}
}

// statusReport summarizes what the database holds.
type statusReport struct {
	DB         string `json:"db" yaml:"db"`
	Recipes    int    `json:"recipes" yaml:"recipes"`
	Trees      int    `json:"trees" yaml:"trees"`
	LastImport string `json:"last_import,omitempty" yaml:"last_import,omitempty"`
	LastBuild  string `json:"last_build,omitempty" yaml:"last_build,omitempty"`
	BuildID    string `json:"build_id,omitempty" yaml:"build_id,omitempty"`
}

func (a *app) statusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show stored record and tree counts and the last build",
		Flags: []cli.Flag{
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}

			database, err := a.openDB(ctx, cmd)
			if err != nil {
				return err
			}
			defer closeDB(database, a.logger)

			report := statusReport{DB: cmd.String("db")}
			if report.Recipes, err = db.NewRecipeStore(database).CountRecipes(ctx); err != nil {
				return err
			}
			if report.Trees, err = db.NewTreeStore(database).CountTrees(ctx); err != nil {
				return err
			}

			meta, err := database.AllSyncMetadata(ctx)
			if err != nil {
				return err
			}
			report.LastImport = meta[sync.KeyRecipesLastSync]
			report.LastBuild = meta[sync.KeyTreesLastBuild]
			report.BuildID = meta[sync.KeyTreesBuildID]

			return encode(a.stdout, format, report)
		},
	}
}
