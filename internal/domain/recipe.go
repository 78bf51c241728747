package domain

import (
	"net/url"
	"time"
)

// NoImage is the sentinel hero-image value for recipes without one.
// It is passed through unchanged and never ingested.
const NoImage = "default"

// SourceDocument is the raw markup of a single import, either fetched
// from a URL (Origin set) or pasted directly (Origin nil).
type SourceDocument struct {
	Origin    *url.URL
	RawMarkup string
	FetchedAt time.Time
}

// ReducedContent is the content-dense text derived once per SourceDocument.
type ReducedContent struct {
	Text            string
	MainRegionFound bool
}

// RecipeDraft is the loosely-validated output of structured extraction.
// Zero values mean "absent" for the optional numeric fields.
type RecipeDraft struct {
	Title              string
	Description        string
	Ingredients        []string
	Instructions       []string
	CookingTimeMinutes int
	Servings           int
	HeroImageURL       string
	Tags               []string
	FullText           string
}

// Tag is one entry of the externally curated tag vocabulary.
type Tag struct {
	ID   int64
	Name string
}

// NormalizedRecipe is a RecipeDraft coerced into strict field types,
// ready for persistence.
type NormalizedRecipe struct {
	Title              string
	Description        string
	Ingredients        []string
	Instructions       []string
	CookingTimeMinutes int
	Servings           int
	HeroImageURL       string
	TagIDs             []int64
	FullText           string
}

// MediaStatus enumerates the per-asset ingestion lifecycle.
type MediaStatus string

const (
	MediaPending   MediaStatus = "pending"
	MediaSucceeded MediaStatus = "succeeded"
	MediaFailed    MediaStatus = "failed"
)

// MediaAsset tracks one discovered media reference through ingestion.
// Terminal states: Succeeded (OwnedURL set) or Failed (OwnedURL empty,
// ResolvedURL retained as the degraded fallback).
type MediaAsset struct {
	OriginalURL string
	ResolvedURL string
	OwnedURL    string
	Attempts    int
	Status      MediaStatus
}

// ImportResult bundles the finished record with the media outcome of one import.
type ImportResult struct {
	Recipe   NormalizedRecipe
	Media    []MediaAsset
	RecipeID int64
}
