package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"RecipeImporter/internal/config"
	"RecipeImporter/internal/domain"
	"RecipeImporter/internal/extract"
	"RecipeImporter/internal/fetch"
	"RecipeImporter/internal/infrastructure/llm"
	"RecipeImporter/internal/infrastructure/objectstore"
	"RecipeImporter/internal/infrastructure/storage"
	"RecipeImporter/internal/logging"
	"RecipeImporter/internal/media"
	"RecipeImporter/internal/usecase"
)

// Application wires configuration to the import pipeline.
type Application struct {
	cfg      config.Config
	importer *usecase.Importer
	db       *sql.DB
}

// New builds a runnable application instance. The database and object store
// are optional: without them the pipeline still imports, skipping
// persistence and degrading media to original URLs.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	deps := usecase.ImporterDeps{
		Fetcher:        fetch.New(cfg.Fetch),
		Logger:         baseLogger.With("component", "importer"),
		IngestFullText: cfg.Media.IngestFullText,
	}

	if cfg.Extraction.APIKey == "" {
		return nil, fmt.Errorf("extraction API key is not configured")
	}
	completion := llm.NewOpenRouterClient(cfg.Extraction)
	deps.Extractor = extract.New(completion, cfg.Extraction.CharBudget, baseLogger.With("component", "extractor"))

	if cfg.Storage.AccessKeyID != "" && cfg.Storage.SecretAccessKey != "" {
		store, err := objectstore.NewMinioStore(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("object store: %w", err)
		}
		deps.Ingestor = media.New(store, cfg.Media, baseLogger.With("component", "media"))
	} else {
		baseLogger.Warn("object storage not configured, media will keep original URLs")
	}

	var db *sql.DB
	if cfg.Database.DSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		repo := storage.NewPostgresRepository(db)
		deps.Tags = repo
		deps.Recipes = repo
	}

	return &Application{
		cfg:      cfg,
		importer: usecase.NewImporter(deps),
		db:       db,
	}, nil
}

// ImportFromURL runs one URL import through the pipeline.
func (a *Application) ImportFromURL(ctx context.Context, rawURL string) (*domain.ImportResult, error) {
	return a.importer.ImportFromURL(ctx, rawURL)
}

// ImportFromText runs one pasted-text import through the pipeline.
func (a *Application) ImportFromText(ctx context.Context, text string) (*domain.ImportResult, error) {
	return a.importer.ImportFromText(ctx, text)
}

// Close releases held resources.
func (a *Application) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
