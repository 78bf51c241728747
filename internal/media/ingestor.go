// Package media downloads discovered media references and re-homes them in
// owned storage, with bounded concurrency and a per-asset retry ceiling.
// Media failures never fail an import; callers fall back to the resolved URL.
package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"RecipeImporter/internal/config"
	"RecipeImporter/internal/domain"
	"RecipeImporter/internal/ports"
)

const (
	// batchSize caps concurrent downloads to avoid hammering the source
	// site or the storage backend.
	batchSize = 5

	// maxAttempts is the first try plus two retries.
	maxAttempts = 3
)

// Ingestor moves third-party media into owned storage.
type Ingestor struct {
	store   ports.ObjectStore
	client  *http.Client
	logger  *slog.Logger
	nowFunc func() time.Time
}

// New builds an ingestor from configuration.
func New(store ports.ObjectStore, cfg config.MediaConfig, logger *slog.Logger) *Ingestor {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Ingestor{
		store:   store,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		nowFunc: time.Now,
	}
}

// Ingest processes each distinct reference through the
// Pending -> Succeeded|Failed state machine, in batches of five. One asset's
// failure never aborts its siblings.
func (g *Ingestor) Ingest(ctx context.Context, refs []string, origin *url.URL) []domain.MediaAsset {
	distinct := dedupe(refs)
	assets := make([]domain.MediaAsset, len(distinct))

	for start := 0; start < len(distinct); start += batchSize {
		end := start + batchSize
		if end > len(distinct) {
			end = len(distinct)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assets[i] = g.ingestOne(ctx, distinct[i], origin)
			}(i)
		}
		wg.Wait()
	}

	return assets
}

func (g *Ingestor) ingestOne(ctx context.Context, ref string, origin *url.URL) domain.MediaAsset {
	asset := domain.MediaAsset{OriginalURL: ref, Status: domain.MediaPending}

	// Already-owned, inline and data references are never re-ingested.
	if g.skippable(ref) {
		asset.ResolvedURL = ref
		asset.OwnedURL = ref
		asset.Status = domain.MediaSucceeded
		return asset
	}

	resolved, err := resolveRef(ref, origin)
	if err != nil {
		g.debug("media ref unresolvable", "ref", ref, "error", err)
		asset.ResolvedURL = ref
		asset.Status = domain.MediaFailed
		return asset
	}
	asset.ResolvedURL = resolved.String()

	for asset.Attempts < maxAttempts {
		asset.Attempts++
		ownedURL, err := g.transfer(ctx, resolved)
		if err == nil {
			asset.OwnedURL = ownedURL
			asset.Status = domain.MediaSucceeded
			return asset
		}
		g.debug("media transfer failed", "url", asset.ResolvedURL, "attempt", asset.Attempts, "error", err)
	}

	asset.Status = domain.MediaFailed
	return asset
}

func (g *Ingestor) skippable(ref string) bool {
	trimmed := strings.TrimSpace(ref)
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "blob:") {
		return true
	}
	if strings.HasPrefix(trimmed, "<svg") {
		return true
	}
	return g.store != nil && g.store.Owns(trimmed)
}

// transfer downloads the resource to a temp file and uploads it under a
// fresh time-scoped key. The temp file is removed on success and failure
// alike.
func (g *Ingestor) transfer(ctx context.Context, resolved *url.URL) (string, error) {
	if g.store == nil {
		return "", fmt.Errorf("object store is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("download: unexpected status %s", resp.Status)
	}

	contentType, ext := classify(resp.Header.Get("Content-Type"), resolved.Path)

	tmp, err := os.CreateTemp("", "recipe-media-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, resp.Body)
	if err != nil {
		return "", fmt.Errorf("stream body: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind temp file: %w", err)
	}

	key := fmt.Sprintf("media/%s/%s%s", g.nowFunc().UTC().Format("2006/01/02"), uuid.NewString(), ext)
	ownedURL, err := g.store.Put(ctx, key, contentType, tmp, size)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	return ownedURL, nil
}

// resolveRef joins relative references against the origin: absolute-path refs
// against scheme+host, relative-path refs against the origin's directory.
func resolveRef(ref string, origin *url.URL) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, fmt.Errorf("parse ref: %w", err)
	}

	if !parsed.IsAbs() {
		if origin == nil {
			return nil, fmt.Errorf("relative ref %q without origin", ref)
		}
		parsed = origin.ResolveReference(parsed)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("ref %q resolves without a host", ref)
	}

	return parsed, nil
}

var extByType = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/avif":    ".avif",
	"image/svg+xml": ".svg",
}

var typeByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".avif": "image/avif",
	".svg":  "image/svg+xml",
}

// classify picks a content type from the response header, falling back to
// the URL's file extension and finally to JPEG.
func classify(header, urlPath string) (contentType, ext string) {
	ct := strings.ToLower(strings.TrimSpace(header))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if e, ok := extByType[ct]; ok {
		return ct, e
	}

	if i := strings.LastIndexByte(urlPath, '.'); i >= 0 {
		e := strings.ToLower(urlPath[i:])
		if t, ok := typeByExt[e]; ok {
			return t, e
		}
	}

	return "image/jpeg", ".jpg"
}

func dedupe(refs []string) []string {
	out := make([]string, 0, len(refs))
	seen := map[string]struct{}{}
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out
}

func (g *Ingestor) debug(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}
