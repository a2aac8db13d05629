// Package storage uploads issue photos to an S3-compatible object store.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/config"
)

// ObjectStore uploads files and returns their public URLs.
type ObjectStore interface {
	UploadFile(ctx context.Context, localPath, contentType string) (string, error)
}

type minioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
	logger  *zap.Logger
}

// NewObjectStore connects to the configured S3-compatible endpoint. Returns
// nil when storage is not configured; callers treat a nil store as
// images-disabled, the same posture the Postgres layer takes for a missing
// DSN.
func NewObjectStore(cfg config.StorageConfig, logger *zap.Logger) (ObjectStore, error) {
	if !cfg.Enabled() {
		logger.Warn("STORAGE_ENDPOINT not provided; image uploads disabled")
		return nil, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object storage: %w", err)
	}

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	logger.Info("connected to object storage", zap.String("bucket", cfg.Bucket))
	return &minioStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}, nil
}

// UploadFile pushes the local file to the bucket under a random key and
// returns its public URL. The local file is the caller's to remove.
func (s *minioStore) UploadFile(ctx context.Context, localPath, contentType string) (string, error) {
	key := fmt.Sprintf("issues/%s%s", uuid.NewString(), filepath.Ext(localPath))

	if _, err := os.Stat(localPath); err != nil {
		return "", fmt.Errorf("stat upload source: %w", err)
	}

	_, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload object: %w", err)
	}

	return s.baseURL + "/" + key, nil
}
