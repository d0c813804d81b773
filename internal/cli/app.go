// Package cli wires the recipe-nesting commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/rsned/recipe-nesting/internal/crafting/db"
	"github.com/rsned/recipe-nesting/internal/crafting/engine"
	"github.com/rsned/recipe-nesting/internal/logging"
)

const name = "recipe-nesting"

const (
	envDB        = "RECIPE_NESTING_DB"
	envLogLevel  = "RECIPE_NESTING_LOG_LEVEL"
	envLogFormat = "RECIPE_NESTING_LOG_FORMAT"
	envCacheSize = "RECIPE_NESTING_CACHE_SIZE"
)

// app holds the streams and logger shared by every command.
type app struct {
	version string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	logger  *slog.Logger
}

// NewApp builds the root command. Logs go to stderr; command output goes to
// stdout unless a command writes to a file.
func NewApp(version string, stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	a := &app{
		version: version,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		logger:  logging.Discard(),
	}

	return &cli.Command{
		Name:                  name,
		Usage:                 "Nest flat crafting recipes into recipe trees",
		Version:               version,
		EnableShellCompletion: true,
		Writer:                stdout,
		ErrWriter:             stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Usage:   "Path to SQLite database",
				Value:   "data/recipes.db",
				Sources: cli.EnvVars(envDB),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars(envLogLevel),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   logging.FormatText,
				Sources: cli.EnvVars(envLogFormat),
			},
			&cli.IntFlag{
				Name:    "cache-size",
				Usage:   "Number of recipe trees kept in memory",
				Value:   engine.DefaultCacheSize,
				Sources: cli.EnvVars(envCacheSize),
			},
		},
		Before: a.setup,
		Commands: []*cli.Command{
			a.nestCmd(),
			a.importCmd(),
			a.buildCmd(),
			a.treeCmd(),
			a.serveCmd(),
			a.statusCmd(),
		},
	}
}

// setup configures the logger after flags and env sources are parsed.
func (a *app) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	logger, err := logging.New(cmd.String("log-level"), cmd.String("log-format"), a.stderr, name, a.version)
	if err != nil {
		return ctx, err
	}
	a.logger = logger
	a.logger.Debug("starting", "db", cmd.String("db"))
	return ctx, nil
}

// openDB opens the database named by the --db flag.
func (a *app) openDB(ctx context.Context, cmd *cli.Command) (*db.DB, error) {
	path := cmd.String("db")
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	database, err := db.OpenAndInit(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}
	return database, nil
}

// newEngine creates a tree engine over the stored trees.
func (a *app) newEngine(cmd *cli.Command, database *db.DB) (*engine.Engine, error) {
	return engine.New(db.NewTreeStore(database),
		engine.WithCacheSize(int(cmd.Int("cache-size"))),
		engine.WithLogger(a.logger),
	)
}

func closeDB(database *db.DB, logger *slog.Logger) {
	if err := database.Close(); err != nil {
		logger.Warn("failed to close database", "error", err)
	}
}
