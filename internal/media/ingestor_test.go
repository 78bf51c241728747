package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"RecipeImporter/internal/config"
	"RecipeImporter/internal/domain"
)

type fakeStore struct {
	mu       sync.Mutex
	puts     []putCall
	failPuts int
}

type putCall struct {
	key         string
	contentType string
	size        int64
}

func (f *fakeStore) Put(_ context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPuts > 0 {
		f.failPuts--
		return "", fmt.Errorf("storage unavailable")
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	f.puts = append(f.puts, putCall{key: key, contentType: contentType, size: size})
	return "https://cdn.test/" + key, nil
}

func (f *fakeStore) Owns(rawURL string) bool {
	return strings.HasPrefix(rawURL, "https://cdn.test/")
}

func newTestIngestor(store *fakeStore) *Ingestor {
	return New(store, config.MediaConfig{TimeoutSeconds: 5}, nil)
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/broken") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("not really a png"))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestResolveRef(t *testing.T) {
	t.Parallel()

	origin, err := url.Parse("https://example.com/blog/post-1")
	if err != nil {
		t.Fatalf("parse origin: %v", err)
	}

	cases := []struct {
		ref      string
		expected string
	}{
		{"/img/a.jpg", "https://example.com/img/a.jpg"},
		{"b.jpg", "https://example.com/blog/b.jpg"},
		{"https://other.test/c.jpg", "https://other.test/c.jpg"},
		{"//static.example.com/d.jpg", "https://static.example.com/d.jpg"},
	}
	for _, tc := range cases {
		resolved, err := resolveRef(tc.ref, origin)
		if err != nil {
			t.Fatalf("resolveRef(%q) returned error: %v", tc.ref, err)
		}
		if resolved.String() != tc.expected {
			t.Fatalf("resolveRef(%q) = %s, expected %s", tc.ref, resolved, tc.expected)
		}
	}
}

func TestResolveRefRejectsBadRefs(t *testing.T) {
	t.Parallel()

	origin, _ := url.Parse("https://example.com/blog/post-1")

	if _, err := resolveRef("://missing-scheme", origin); err == nil {
		t.Fatalf("expected error for malformed ref")
	}
	if _, err := resolveRef("relative.jpg", nil); err == nil {
		t.Fatalf("expected error for relative ref without origin")
	}
	if _, err := resolveRef("ftp://example.com/a.jpg", origin); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}

func TestIngestSkipsOwnedAndInlineRefs(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	ingestor := newTestIngestor(store)

	refs := []string{
		"https://cdn.test/media/existing.jpg",
		"data:image/png;base64,AAAA",
		"blob:https://example.com/123",
		"<svg xmlns='http://www.w3.org/2000/svg'></svg>",
	}

	assets := ingestor.Ingest(context.Background(), refs, nil)

	if len(assets) != len(refs) {
		t.Fatalf("expected %d assets, got %d", len(refs), len(assets))
	}
	for _, asset := range assets {
		if asset.Status != domain.MediaSucceeded {
			t.Fatalf("skippable ref %q should succeed, got %s", asset.OriginalURL, asset.Status)
		}
		if asset.OwnedURL != asset.OriginalURL {
			t.Fatalf("skippable ref should keep its URL, got %q", asset.OwnedURL)
		}
		if asset.Attempts != 0 {
			t.Fatalf("skippable ref should make no attempts, got %d", asset.Attempts)
		}
	}
	if len(store.puts) != 0 {
		t.Fatalf("skippable refs must not hit the store")
	}
}

func TestIngestDownloadsAndUploads(t *testing.T) {
	t.Parallel()

	server := imageServer(t)
	store := &fakeStore{}
	ingestor := newTestIngestor(store)

	assets := ingestor.Ingest(context.Background(), []string{server.URL + "/img/pie"}, nil)

	if len(assets) != 1 {
		t.Fatalf("expected one asset, got %d", len(assets))
	}
	asset := assets[0]
	if asset.Status != domain.MediaSucceeded {
		t.Fatalf("expected success, got %s", asset.Status)
	}
	if !strings.HasPrefix(asset.OwnedURL, "https://cdn.test/media/") {
		t.Fatalf("unexpected owned URL: %s", asset.OwnedURL)
	}
	if asset.Attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", asset.Attempts)
	}

	if len(store.puts) != 1 {
		t.Fatalf("expected one upload, got %d", len(store.puts))
	}
	put := store.puts[0]
	if put.contentType != "image/png" || !strings.HasSuffix(put.key, ".png") {
		t.Fatalf("Content-Type header should win classification: %+v", put)
	}
	if put.size != int64(len("not really a png")) {
		t.Fatalf("unexpected upload size: %d", put.size)
	}
}

func TestIngestRetriesThenSettlesFailed(t *testing.T) {
	t.Parallel()

	server := imageServer(t)
	store := &fakeStore{}
	ingestor := newTestIngestor(store)

	assets := ingestor.Ingest(context.Background(), []string{server.URL + "/broken.jpg"}, nil)

	asset := assets[0]
	if asset.Status != domain.MediaFailed {
		t.Fatalf("expected failure, got %s", asset.Status)
	}
	if asset.Attempts != 3 {
		t.Fatalf("expected 3 attempts (1 + 2 retries), got %d", asset.Attempts)
	}
	if asset.OwnedURL != "" {
		t.Fatalf("failed asset must not carry an owned URL")
	}
	if asset.ResolvedURL != server.URL+"/broken.jpg" {
		t.Fatalf("failed asset must preserve the resolved URL, got %q", asset.ResolvedURL)
	}
}

func TestIngestRetriesUploadFailures(t *testing.T) {
	t.Parallel()

	server := imageServer(t)
	store := &fakeStore{failPuts: 2}
	ingestor := newTestIngestor(store)

	assets := ingestor.Ingest(context.Background(), []string{server.URL + "/img/pie"}, nil)

	asset := assets[0]
	if asset.Status != domain.MediaSucceeded {
		t.Fatalf("expected success after retries, got %s", asset.Status)
	}
	if asset.Attempts != 3 {
		t.Fatalf("expected third attempt to succeed, got %d", asset.Attempts)
	}
}

func TestIngestUnresolvableRefFailsWithoutNetwork(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	ingestor := newTestIngestor(store)

	assets := ingestor.Ingest(context.Background(), []string{"relative/pic.jpg"}, nil)

	asset := assets[0]
	if asset.Status != domain.MediaFailed {
		t.Fatalf("expected immediate failure, got %s", asset.Status)
	}
	if asset.Attempts != 0 {
		t.Fatalf("unresolvable ref must make no network attempts, got %d", asset.Attempts)
	}
	if asset.ResolvedURL != "relative/pic.jpg" {
		t.Fatalf("original ref should be preserved as the fallback, got %q", asset.ResolvedURL)
	}
}

func TestIngestBatchIsolationAndDedupe(t *testing.T) {
	t.Parallel()

	server := imageServer(t)
	store := &fakeStore{}
	ingestor := newTestIngestor(store)

	refs := []string{
		server.URL + "/img/1.jpg",
		server.URL + "/broken/2.jpg",
		server.URL + "/img/3.jpg",
		server.URL + "/img/1.jpg", // duplicate
		server.URL + "/broken/5.jpg",
		server.URL + "/img/6.jpg",
		server.URL + "/img/7.jpg",
	}

	assets := ingestor.Ingest(context.Background(), refs, nil)

	if len(assets) != 6 {
		t.Fatalf("expected one asset per distinct ref (6), got %d", len(assets))
	}

	succeeded, failed := 0, 0
	for _, asset := range assets {
		switch asset.Status {
		case domain.MediaSucceeded:
			succeeded++
			if asset.OwnedURL == "" {
				t.Fatalf("succeeded asset without owned URL: %+v", asset)
			}
		case domain.MediaFailed:
			failed++
			if asset.OwnedURL != "" || asset.ResolvedURL == "" {
				t.Fatalf("failed asset must keep resolved URL only: %+v", asset)
			}
		default:
			t.Fatalf("asset left in %s state", asset.Status)
		}
	}
	if succeeded != 4 || failed != 2 {
		t.Fatalf("batch siblings should settle independently: %d succeeded, %d failed", succeeded, failed)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		header       string
		path         string
		expectedType string
		expectedExt  string
	}{
		{"image/png", "/a.jpg", "image/png", ".png"},
		{"image/webp; charset=binary", "/a", "image/webp", ".webp"},
		{"text/html", "/photo.gif", "image/gif", ".gif"},
		{"", "/photo.JPEG", "image/jpeg", ".jpeg"},
		{"", "/no-extension", "image/jpeg", ".jpg"},
	}
	for _, tc := range cases {
		ct, ext := classify(tc.header, tc.path)
		if ct != tc.expectedType || ext != tc.expectedExt {
			t.Fatalf("classify(%q, %q) = (%s, %s), expected (%s, %s)",
				tc.header, tc.path, ct, ext, tc.expectedType, tc.expectedExt)
		}
	}
}
