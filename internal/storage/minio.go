package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"audiobook-studio/internal/config"
	"audiobook-studio/internal/metrics"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

type MinioStore struct {
	endpoint string
	useSSL   bool
	baseURL  string
	client   *minio.Client

	mu      sync.Mutex
	buckets map[string]bool
}

func NewMinioStore(cfg config.StorageConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("STORAGE_ENDPOINT is not set")
	}
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &MinioStore{
		endpoint: cfg.Endpoint,
		useSSL:   cfg.UseSSL,
		baseURL:  strings.TrimRight(cfg.PublicBaseURL, "/"),
		client:   cli,
		buckets:  map[string]bool{},
	}, nil
}

func (m *MinioStore) ensureBucket(ctx context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buckets[bucket] {
		return nil
	}
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return err
		}
	}
	m.buckets[bucket] = true
	return nil
}

func (m *MinioStore) Upload(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) (string, error) {
	if err := m.ensureBucket(ctx, bucket); err != nil {
		return "", &WriteError{Bucket: bucket, Key: key, Err: err}
	}
	_, err := m.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", &WriteError{Bucket: bucket, Key: key, Err: err}
	}
	return m.PublicURL(bucket, key), nil
}

func (m *MinioStore) DeleteByURL(ctx context.Context, bucket, rawURL string) {
	key, ok := KeyFromURL(m.baseURL, m.endpoint, bucket, rawURL)
	if !ok {
		log.WithField("url", rawURL).Warn("Skipping cleanup: URL does not belong to the store")
		metrics.StorageCleanupFailures.Inc()
		return
	}
	if err := m.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		log.WithFields(log.Fields{"bucket": bucket, "key": key}).Warnf("Failed to delete object: %v", err)
		metrics.StorageCleanupFailures.Inc()
		return
	}
	log.WithFields(log.Fields{"bucket": bucket, "key": key}).Debug("Deleted object")
}

func (m *MinioStore) PublicURL(bucket, key string) string {
	return PublicURL(m.baseURL, m.endpoint, m.useSSL, bucket, key)
}

// PublicURL prefers the configured public base and falls back to
// path-style addressing on the endpoint.
func PublicURL(baseURL, endpoint string, useSSL bool, bucket, key string) string {
	if baseURL != "" {
		return baseURL + "/" + key
	}
	scheme := "http://"
	if useSSL {
		scheme = "https://"
	}
	return scheme + endpoint + "/" + bucket + "/" + key
}

// KeyFromURL inverts PublicURL. It accepts both the public-base form and the
// path-style endpoint form and reports false for foreign URLs.
func KeyFromURL(baseURL, endpoint, bucket, rawURL string) (string, bool) {
	if baseURL != "" && strings.HasPrefix(rawURL, baseURL+"/") {
		key := strings.TrimPrefix(rawURL, baseURL+"/")
		return key, key != ""
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", false
	}
	if endpoint != "" && u.Host != endpoint {
		return "", false
	}
	path := strings.TrimPrefix(u.Path, "/")
	prefix := bucket + "/"
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(path, prefix)
	return key, key != ""
}
