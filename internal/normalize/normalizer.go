// Package normalize coerces a RecipeDraft into the strict NormalizedRecipe
// shape and resolves tag names against the curated vocabulary.
package normalize

import (
	"strings"

	"RecipeImporter/internal/domain"
)

// Normalize validates mandatory fields and maps tags to known IDs.
// Unmatched tag names are dropped; the importer never invents tags.
func Normalize(draft *domain.RecipeDraft, vocabulary []domain.Tag) (*domain.NormalizedRecipe, error) {
	if draft == nil {
		return nil, &domain.ValidationError{Missing: []string{"title", "ingredients", "instructions"}}
	}

	title := strings.TrimSpace(draft.Title)
	ingredients := trimList(draft.Ingredients)
	instructions := trimList(draft.Instructions)

	var missing []string
	if title == "" {
		missing = append(missing, "title")
	}
	if len(ingredients) == 0 {
		missing = append(missing, "ingredients")
	}
	if len(instructions) == 0 {
		missing = append(missing, "instructions")
	}
	if len(missing) > 0 {
		return nil, &domain.ValidationError{Missing: missing}
	}

	hero := strings.TrimSpace(draft.HeroImageURL)
	if hero == "" {
		hero = domain.NoImage
	}

	return &domain.NormalizedRecipe{
		Title:              title,
		Description:        strings.TrimSpace(draft.Description),
		Ingredients:        ingredients,
		Instructions:       instructions,
		CookingTimeMinutes: clampNonNegative(draft.CookingTimeMinutes),
		Servings:           clampNonNegative(draft.Servings),
		HeroImageURL:       hero,
		TagIDs:             resolveTags(draft.Tags, vocabulary),
		FullText:           draft.FullText,
	}, nil
}

// resolveTags matches names case-insensitively and preserves draft order,
// deduplicating repeats.
func resolveTags(names []string, vocabulary []domain.Tag) []int64 {
	if len(names) == 0 || len(vocabulary) == 0 {
		return nil
	}

	byName := make(map[string]int64, len(vocabulary))
	for _, tag := range vocabulary {
		byName[strings.ToLower(strings.TrimSpace(tag.Name))] = tag.ID
	}

	var ids []int64
	seen := map[int64]struct{}{}
	for _, name := range names {
		id, ok := byName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func trimList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func clampNonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
