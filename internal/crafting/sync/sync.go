// Package sync moves recipe records into the database and turns stored
// records into nested recipe trees.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/rsned/recipe-nesting/internal/crafting/db"
	"github.com/rsned/recipe-nesting/internal/crafting/nesting"
	"github.com/rsned/recipe-nesting/pkg/crafting"
)

// Sync metadata keys.
const (
	KeyRecipesLastSync = "recipes_last_sync"
	KeyRecipesCount    = "recipes_count"
	KeyTreesLastBuild  = "trees_last_build"
	KeyTreesCount      = "trees_count"
	KeyTreesBuildID    = "trees_build_id"
)

// Syncer handles recipe import and tree builds.
type Syncer struct {
	db     *db.DB
	logger *slog.Logger
}

// NewSyncer creates a new Syncer. A nil logger discards output.
func NewSyncer(database *db.DB, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Syncer{db: database, logger: logger}
}

// BuildResult summarizes a tree build.
type BuildResult struct {
	BuildID     string
	RecordCount int
	TreeCount   int
	Duration    time.Duration
}

// DecodeRecipes reads an array of raw recipe records. Files ending in .yaml
// or .yml are read as YAML, anything else as JSON.
func DecodeRecipes(path string, data []byte) ([]crafting.RawRecipe, error) {
	var records []crafting.RawRecipe

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
	}

	return records, nil
}

// ReadRecipesFile reads raw recipe records from a JSON or YAML file.
func ReadRecipesFile(path string) ([]crafting.RawRecipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return DecodeRecipes(path, data)
}

// ImportRecipesFromFile imports raw recipe records from a JSON or YAML file.
func (s *Syncer) ImportRecipesFromFile(ctx context.Context, path string) error {
	records, err := ReadRecipesFile(path)
	if err != nil {
		return err
	}

	s.logger.Debug("decoded recipe file", "file", path, "records", len(records))
	return s.ImportRecipes(ctx, records)
}

// ImportRecipes validates and appends records to the database.
func (s *Syncer) ImportRecipes(ctx context.Context, records []crafting.RawRecipe) error {
	// Reject the batch before touching the database.
	if _, err := nesting.NormalizeAll(records); err != nil {
		return fmt.Errorf("validating recipes: %w", err)
	}

	recipeStore := db.NewRecipeStore(s.db)
	if err := recipeStore.BulkInsertRawRecipes(ctx, records); err != nil {
		return fmt.Errorf("inserting recipes: %w", err)
	}

	total, err := recipeStore.CountRecipes(ctx)
	if err != nil {
		return err
	}

	// Update sync metadata
	if err := s.db.SetSyncMetadata(ctx, KeyRecipesLastSync, time.Now().Format(time.RFC3339)); err != nil {
		return err
	}
	if err := s.db.SetSyncMetadata(ctx, KeyRecipesCount, strconv.Itoa(total)); err != nil {
		return err
	}

	s.logger.Info("imported recipes", "records", len(records), "total", total)
	return nil
}

// BuildTrees nests every stored record and replaces the stored trees.
func (s *Syncer) BuildTrees(ctx context.Context) (*BuildResult, error) {
	start := time.Now()
	buildID := uuid.NewString()
	logger := s.logger.With("build_id", buildID)

	records, err := db.NewRecipeStore(s.db).GetAllRawRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading recipes: %w", err)
	}

	trees, err := nesting.Nest(records, nesting.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("nesting recipes: %w", err)
	}

	if err := db.NewTreeStore(s.db).ReplaceTrees(ctx, trees); err != nil {
		return nil, fmt.Errorf("storing trees: %w", err)
	}

	// Update sync metadata
	if err := s.db.SetSyncMetadata(ctx, KeyTreesLastBuild, time.Now().Format(time.RFC3339)); err != nil {
		return nil, err
	}
	if err := s.db.SetSyncMetadata(ctx, KeyTreesCount, strconv.Itoa(len(trees))); err != nil {
		return nil, err
	}
	if err := s.db.SetSyncMetadata(ctx, KeyTreesBuildID, buildID); err != nil {
		return nil, err
	}

	result := &BuildResult{
		BuildID:     buildID,
		RecordCount: len(records),
		TreeCount:   len(trees),
		Duration:    time.Since(start),
	}
	logger.Info("built recipe trees", "records", result.RecordCount, "trees", result.TreeCount, "duration", result.Duration)

	return result, nil
}

// ClearAll removes all data from the database.
func (s *Syncer) ClearAll(ctx context.Context) error {
	if err := db.NewRecipeStore(s.db).ClearRecipes(ctx); err != nil {
		return err
	}
	if err := db.NewTreeStore(s.db).ReplaceTrees(ctx, nil); err != nil {
		return err
	}
	return nil
}
