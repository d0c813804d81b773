package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rsned/recipe-nesting/pkg/crafting"
)

// RecipeStore handles raw recipe record access.
type RecipeStore struct {
	db *DB
}

// NewRecipeStore creates a new RecipeStore.
func NewRecipeStore(db *DB) *RecipeStore {
	return &RecipeStore{db: db}
}

// BulkInsertRawRecipes appends records in a transaction. Records keep their
// order; repeated output ids are stored as separate records.
func (s *RecipeStore) BulkInsertRawRecipes(ctx context.Context, records []crafting.RawRecipe) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		// Prepare statements
		recipeStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO raw_recipes
			(output_item_id, output_item_count, min_rating, disciplines,
			 output_upgrade_id, output_item_count_range, achievement_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing recipe statement: %w", err)
		}
		defer func() { _ = recipeStmt.Close() }()

		ingStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO raw_ingredients (recipe_seq, position, guild, ref_id, count)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing ingredient statement: %w", err)
		}
		defer func() { _ = ingStmt.Close() }()

		for i, r := range records {
			if r.OutputItemID == nil {
				return fmt.Errorf("inserting record %d: missing output_item_id", i)
			}

			disciplines := r.Disciplines
			if disciplines == nil {
				disciplines = []string{}
			}
			disciplinesJSON, err := json.Marshal(disciplines)
			if err != nil {
				return fmt.Errorf("encoding disciplines for %d: %w", *r.OutputItemID, err)
			}

			res, err := recipeStmt.ExecContext(ctx,
				*r.OutputItemID, r.OutputItemCount, nullInt(r.MinRating), string(disciplinesJSON),
				nullInt(r.OutputUpgradeID), nullString(r.OutputItemCountRange), nullInt(r.AchievementID),
			)
			if err != nil {
				return fmt.Errorf("inserting recipe %d: %w", *r.OutputItemID, err)
			}

			seq, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("reading recipe seq for %d: %w", *r.OutputItemID, err)
			}

			for pos, ing := range r.Ingredients {
				if _, err := ingStmt.ExecContext(ctx, seq, pos, 0, ing.ItemID, ing.Count); err != nil {
					return fmt.Errorf("inserting ingredient for %d: %w", *r.OutputItemID, err)
				}
			}
			for pos, ing := range r.GuildIngredients {
				if _, err := ingStmt.ExecContext(ctx, seq, pos, 1, ing.UpgradeID, ing.Count); err != nil {
					return fmt.Errorf("inserting guild ingredient for %d: %w", *r.OutputItemID, err)
				}
			}
		}

		return nil
	})
}

// GetAllRawRecipes retrieves all records in import order.
func (s *RecipeStore) GetAllRawRecipes(ctx context.Context) ([]crafting.RawRecipe, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, output_item_id, output_item_count, min_rating, disciplines,
		       output_upgrade_id, output_item_count_range, achievement_id
		FROM raw_recipes
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("querying raw recipes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		records []crafting.RawRecipe
		seqs    []int64
	)
	for rows.Next() {
		var (
			seq             int64
			outputID        int
			r               crafting.RawRecipe
			minRating       sql.NullInt64
			disciplinesJSON string
			upgradeID       sql.NullInt64
			countRange      sql.NullString
			achievementID   sql.NullInt64
		)
		if err := rows.Scan(
			&seq, &outputID, &r.OutputItemCount, &minRating, &disciplinesJSON,
			&upgradeID, &countRange, &achievementID,
		); err != nil {
			return nil, fmt.Errorf("scanning raw recipe: %w", err)
		}

		r.OutputItemID = &outputID
		r.MinRating = intFromNull(minRating)
		r.OutputUpgradeID = intFromNull(upgradeID)
		r.AchievementID = intFromNull(achievementID)
		if countRange.Valid {
			v := countRange.String
			r.OutputItemCountRange = &v
		}
		if err := json.Unmarshal([]byte(disciplinesJSON), &r.Disciplines); err != nil {
			return nil, fmt.Errorf("decoding disciplines for %d: %w", outputID, err)
		}
		if len(r.Disciplines) == 0 {
			r.Disciplines = nil
		}

		records = append(records, r)
		seqs = append(seqs, seq)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Load ingredients for all records
	for i := range records {
		if err := s.loadIngredients(ctx, seqs[i], &records[i]); err != nil {
			return nil, fmt.Errorf("loading ingredients for %d: %w", *records[i].OutputItemID, err)
		}
	}

	return records, nil
}

// loadIngredients fills both ingredient lists of a record.
func (s *RecipeStore) loadIngredients(ctx context.Context, seq int64, r *crafting.RawRecipe) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT guild, ref_id, count
		FROM raw_ingredients
		WHERE recipe_seq = ?
		ORDER BY guild, position
	`, seq)
	if err != nil {
		return fmt.Errorf("querying raw ingredients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	r.Ingredients = []crafting.RawIngredient{}
	for rows.Next() {
		var guild bool
		var refID, count int
		if err := rows.Scan(&guild, &refID, &count); err != nil {
			return fmt.Errorf("scanning ingredient: %w", err)
		}
		if guild {
			r.GuildIngredients = append(r.GuildIngredients, crafting.RawGuildIngredient{UpgradeID: refID, Count: count})
		} else {
			r.Ingredients = append(r.Ingredients, crafting.RawIngredient{ItemID: refID, Count: count})
		}
	}

	return rows.Err()
}

// CountRecipes returns the total number of stored records.
func (s *RecipeStore) CountRecipes(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM raw_recipes`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting recipes: %w", err)
	}
	return count, nil
}

// ClearRecipes removes all raw recipe data (for re-import).
func (s *RecipeStore) ClearRecipes(ctx context.Context) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM raw_ingredients`); err != nil {
			return fmt.Errorf("clearing ingredients: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM raw_recipes`); err != nil {
			return fmt.Errorf("clearing recipes: %w", err)
		}
		return nil
	})
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func intFromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
