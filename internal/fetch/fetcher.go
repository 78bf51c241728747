// Package fetch retrieves raw markup for a source URL with a wall-clock
// timeout, a response-size ceiling, and content-type sanity checks.
package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"RecipeImporter/internal/config"
	"RecipeImporter/internal/domain"
	"RecipeImporter/internal/ports"
)

const acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

// HTTPFetcher fetches source pages via HTTP. No retries at this layer;
// retry policy belongs to the caller.
type HTTPFetcher struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
}

var _ ports.PageFetcher = (*HTTPFetcher)(nil)

// New builds a fetcher from configuration.
func New(cfg config.FetchConfig) *HTTPFetcher {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		maxBytes:  maxBytes,
		userAgent: cfg.UserAgent,
	}
}

// Fetch issues one GET for the URL and returns the raw markup.
// Protocol-less URLs assume https.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*domain.SourceDocument, error) {
	rawURL = normalizeURL(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &domain.FetchError{URL: rawURL, Reason: domain.FetchNetworkError, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := f.client.Do(req)
	if err != nil {
		reason := domain.FetchNetworkError
		if isTimeout(err) {
			reason = domain.FetchTimeout
		}
		return nil, &domain.FetchError{URL: rawURL, Reason: reason, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, &domain.FetchError{URL: rawURL, Reason: domain.FetchBadStatus, StatusCode: resp.StatusCode}
	}

	if ct := resp.Header.Get("Content-Type"); !isTextual(ct) {
		return nil, &domain.FetchError{URL: rawURL, Reason: domain.FetchNotText}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		reason := domain.FetchNetworkError
		if isTimeout(err) {
			reason = domain.FetchTimeout
		}
		return nil, &domain.FetchError{URL: rawURL, Reason: reason, Err: err}
	}
	if int64(len(body)) > f.maxBytes {
		return nil, &domain.FetchError{URL: rawURL, Reason: domain.FetchTooLarge}
	}

	origin := resp.Request.URL
	if origin == nil {
		origin, _ = url.Parse(rawURL)
	}

	return &domain.SourceDocument{
		Origin:    origin,
		RawMarkup: string(body),
		FetchedAt: time.Now().UTC(),
	}, nil
}

func normalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if !strings.Contains(rawURL, "://") {
		return "https://" + rawURL
	}
	return rawURL
}

func isTextual(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") ||
		strings.Contains(ct, "application/xhtml") ||
		strings.Contains(ct, "xml") ||
		strings.Contains(ct, "text/plain")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
