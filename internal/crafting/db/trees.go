package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rsned/recipe-nesting/pkg/crafting"
)

// TreeStore handles nested recipe tree access.
type TreeStore struct {
	db *DB
}

// NewTreeStore creates a new TreeStore.
func NewTreeStore(db *DB) *TreeStore {
	return &TreeStore{db: db}
}

// ReplaceTrees replaces every stored tree with the given ones. The slice
// order is kept as the listing order.
func (s *TreeStore) ReplaceTrees(ctx context.Context, trees []*crafting.Recipe) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_trees`); err != nil {
			return fmt.Errorf("clearing trees: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO recipe_trees (id, position, tree_json, updated_at)
			VALUES (?, ?, ?, datetime('now'))
		`)
		if err != nil {
			return fmt.Errorf("preparing tree statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for pos, tree := range trees {
			data, err := json.Marshal(tree)
			if err != nil {
				return fmt.Errorf("encoding tree %d: %w", tree.ID, err)
			}
			if _, err := stmt.ExecContext(ctx, tree.ID, pos, string(data)); err != nil {
				return fmt.Errorf("inserting tree %d: %w", tree.ID, err)
			}
		}

		return nil
	})
}

// GetTree retrieves the tree for an output item id, or nil if none is
// stored.
func (s *TreeStore) GetTree(ctx context.Context, id int) (*crafting.Recipe, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT tree_json FROM recipe_trees WHERE id = ?
	`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying tree: %w", err)
	}

	var tree crafting.Recipe
	if err := json.Unmarshal([]byte(data), &tree); err != nil {
		return nil, fmt.Errorf("decoding tree %d: %w", id, err)
	}

	return &tree, nil
}

// ListTreeIDs returns the ids of all stored trees in listing order.
func (s *TreeStore) ListTreeIDs(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM recipe_trees ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("listing trees: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning tree id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// CountTrees returns the number of stored trees.
func (s *TreeStore) CountTrees(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipe_trees`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting trees: %w", err)
	}
	return count, nil
}
