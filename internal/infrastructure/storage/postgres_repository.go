// Package storage persists imported recipes and serves the tag vocabulary
// from Postgres.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"RecipeImporter/internal/domain"
	"RecipeImporter/internal/ports"
)

// PostgresRepository reads the curated tag vocabulary and writes finished
// imports. Tags are externally curated; this layer never creates them.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.TagRepository = (*PostgresRepository)(nil)
var _ ports.RecipeRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// ListTags returns the full tag vocabulary ordered by name.
func (r *PostgresRepository) ListTags(ctx context.Context) ([]domain.Tag, error) {
	if r.db == nil {
		return nil, nil
	}

	rows, err := r.builder.
		Select("id", "name").
		From("tags").
		OrderBy("name").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var tags []domain.Tag
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return tags, nil
}

// SaveImported inserts the recipe and its tag links in one transaction and
// returns the assigned ID.
func (r *PostgresRepository) SaveImported(ctx context.Context, recipe domain.NormalizedRecipe) (int64, error) {
	if r.db == nil {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = r.builder.
		Insert("recipes").
		Columns("title", "description", "ingredients", "instructions",
			"cooking_time_minutes", "servings", "hero_image_url", "full_text").
		Values(recipe.Title, recipe.Description,
			pq.Array(recipe.Ingredients), pq.Array(recipe.Instructions),
			recipe.CookingTimeMinutes, recipe.Servings,
			recipe.HeroImageURL, recipe.FullText).
		Suffix("RETURNING id").
		RunWith(tx).
		QueryRowContext(ctx).
		Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert recipe: %w", err)
	}

	if len(recipe.TagIDs) > 0 {
		insert := r.builder.Insert("recipe_tags").Columns("recipe_id", "tag_id")
		for _, tagID := range recipe.TagIDs {
			insert = insert.Values(id, tagID)
		}
		if _, err := insert.RunWith(tx).ExecContext(ctx); err != nil {
			return 0, fmt.Errorf("insert recipe tags: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	return id, nil
}
