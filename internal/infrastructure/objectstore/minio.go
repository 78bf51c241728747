// Package objectstore adapts MinIO/S3 to the ObjectStore port.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"RecipeImporter/internal/config"
	"RecipeImporter/internal/ports"
)

// MinioStore uploads media into the owned bucket. Keys are unique per
// upload and never overwritten, so concurrent imports cannot collide.
type MinioStore struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
}

var _ ports.ObjectStore = (*MinioStore)(nil)

// NewMinioStore creates a MinIO/S3 client from config.
func NewMinioStore(cfg config.StorageConfig) (*MinioStore, error) {
	if cfg.EndpointURL == "" {
		return nil, fmt.Errorf("storage endpointUrl is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	u, err := url.Parse(cfg.EndpointURL)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint URL: %w", err)
	}
	endpoint := u.Host
	if endpoint == "" {
		endpoint = cfg.EndpointURL
	}

	useSSL := cfg.UseSSL
	if u.Scheme == "https" {
		useSSL = true
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinioStore{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// Put uploads the object and returns its public URL, derived from the key
// without a round-trip.
func (s *MinioStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.publicBaseURL + "/" + key, nil
}

// Owns reports whether a URL already points into owned storage.
func (s *MinioStore) Owns(rawURL string) bool {
	return s.publicBaseURL != "" && strings.HasPrefix(rawURL, s.publicBaseURL)
}
