package ports

import (
	"context"
	"io"

	"RecipeImporter/internal/domain"
)

// PageFetcher retrieves raw markup for a source URL.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*domain.SourceDocument, error)
}

// Completion invokes the external structured-extraction capability in a
// JSON-constrained, low-temperature mode and returns the raw response text.
type Completion interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ObjectStore uploads media bytes into owned storage. The returned URL is
// deterministically derived from the key (public base + key), so callers
// never round-trip to discover it.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Owns(rawURL string) bool
}

// TagRepository exposes the curated tag vocabulary, read-only.
type TagRepository interface {
	ListTags(ctx context.Context) ([]domain.Tag, error)
}

// RecipeRepository persists finished imports and assigns durable IDs.
type RecipeRepository interface {
	SaveImported(ctx context.Context, recipe domain.NormalizedRecipe) (int64, error)
}
