package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"RecipeImporter/internal/domain"
	"RecipeImporter/internal/extract"
	"RecipeImporter/internal/media"
	"RecipeImporter/internal/normalize"
	"RecipeImporter/internal/ports"
	"RecipeImporter/internal/reduce"
)

// ImporterDeps wires all driven adapters into the import pipeline.
type ImporterDeps struct {
	Fetcher        ports.PageFetcher
	Extractor      *extract.Service
	Ingestor       *media.Ingestor
	Tags           ports.TagRepository
	Recipes        ports.RecipeRepository
	Logger         *slog.Logger
	IngestFullText bool
}

// Importer runs retrieve -> reduce -> extract -> normalize -> ingest-media.
// Fetch, extract and normalize failures abort with typed errors; media
// failures always degrade to the original URL instead.
type Importer struct {
	fetcher        ports.PageFetcher
	extractor      *extract.Service
	ingestor       *media.Ingestor
	tags           ports.TagRepository
	recipes        ports.RecipeRepository
	logger         *slog.Logger
	ingestFullText bool
}

// NewImporter constructs the orchestration component.
func NewImporter(deps ImporterDeps) *Importer {
	return &Importer{
		fetcher:        deps.Fetcher,
		extractor:      deps.Extractor,
		ingestor:       deps.Ingestor,
		tags:           deps.Tags,
		recipes:        deps.Recipes,
		logger:         deps.Logger,
		ingestFullText: deps.IngestFullText,
	}
}

// ImportFromURL fetches the page and runs the rest of the pipeline on it.
func (m *Importer) ImportFromURL(ctx context.Context, rawURL string) (*domain.ImportResult, error) {
	if m.fetcher == nil {
		return nil, fmt.Errorf("page fetcher is not configured")
	}

	doc, err := m.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	m.debug("fetched source", "url", rawURL, "bytes", len(doc.RawMarkup))

	return m.importDocument(ctx, doc)
}

// ImportFromText runs the pipeline on pasted HTML or plain text. The
// document has no origin, so relative media references cannot resolve.
func (m *Importer) ImportFromText(ctx context.Context, text string) (*domain.ImportResult, error) {
	doc := &domain.SourceDocument{
		RawMarkup: text,
		FetchedAt: time.Now().UTC(),
	}
	return m.importDocument(ctx, doc)
}

func (m *Importer) importDocument(ctx context.Context, doc *domain.SourceDocument) (*domain.ImportResult, error) {
	reduced := reduce.Reduce(doc.RawMarkup)
	m.debug("reduced source", "chars", len(reduced.Text), "main_region", reduced.MainRegionFound)

	var vocabulary []domain.Tag
	if m.tags != nil {
		var err error
		vocabulary, err = m.tags.ListTags(ctx)
		if err != nil {
			return nil, fmt.Errorf("load tag vocabulary: %w", err)
		}
	}

	if m.extractor == nil {
		return nil, fmt.Errorf("extractor is not configured")
	}
	draft, err := m.extractor.Extract(ctx, reduced, doc.Origin, vocabulary)
	if err != nil {
		return nil, err
	}

	recipe, err := normalize.Normalize(draft, vocabulary)
	if err != nil {
		// A draft without mandatory fields is indistinguishable from the
		// capability reporting no recipe at all.
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			m.debug("draft rejected", "missing", vErr.Missing)
			return nil, domain.ErrNoRecipe
		}
		return nil, err
	}

	assets := m.ingestMedia(ctx, recipe, doc)

	result := &domain.ImportResult{Recipe: *recipe, Media: assets}

	if m.recipes != nil {
		id, err := m.recipes.SaveImported(ctx, result.Recipe)
		if err != nil {
			return nil, fmt.Errorf("persist recipe: %w", err)
		}
		result.RecipeID = id
	}

	return result, nil
}

// ingestMedia re-homes the hero image and, optionally, images embedded in
// the extracted full text. It mutates the recipe's references in place and
// never fails the import.
func (m *Importer) ingestMedia(ctx context.Context, recipe *domain.NormalizedRecipe, doc *domain.SourceDocument) []domain.MediaAsset {
	if m.ingestor == nil {
		return nil
	}

	var assets []domain.MediaAsset

	hero := recipe.HeroImageURL
	if hero != domain.NoImage {
		heroAssets := m.ingestor.Ingest(ctx, []string{hero}, doc.Origin)
		if len(heroAssets) == 1 {
			if replacement := media.Replacement(heroAssets[0]); replacement != "" {
				recipe.HeroImageURL = replacement
			}
			assets = append(assets, heroAssets...)
		}
	}

	if m.ingestFullText && recipe.FullText != "" {
		refs := make([]string, 0)
		for _, ref := range media.DiscoverImageRefs(recipe.FullText) {
			if ref != hero {
				refs = append(refs, ref)
			}
		}
		if len(refs) > 0 {
			embedded := m.ingestor.Ingest(ctx, refs, doc.Origin)
			recipe.FullText = media.RewriteRefs(recipe.FullText, embedded)
			assets = append(assets, embedded...)
		}
	}

	for _, asset := range assets {
		if asset.Status == domain.MediaFailed {
			m.warn("media ingestion degraded", "ref", asset.OriginalURL, "attempts", asset.Attempts)
		}
	}

	return assets
}

func (m *Importer) debug(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}

func (m *Importer) warn(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Warn(msg, args...)
	}
}
