package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"famnet-backend/internal/config"
	"famnet-backend/internal/logger"
)

// Provider stores and removes message media objects.
type Provider interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// NewProvider selects a backend from configuration, falling back to local
// disk when MinIO is misconfigured or unreachable.
func NewProvider(cfg config.StorageConfig) Provider {
	if cfg.Type == "minio" {
		p, err := newMinioProvider(cfg)
		if err == nil {
			return p
		}
		logger.Log.Warn("minio unavailable, falling back to local storage", zap.Error(err))
	}
	return &localProvider{basePath: cfg.LocalPath}
}

type localProvider struct {
	basePath string
}

func (p *localProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	dst := filepath.Join(p.basePath, key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}
	return p.URL(key), nil
}

func (p *localProvider) Delete(ctx context.Context, key string) error {
	return os.Remove(filepath.Join(p.basePath, key))
}

func (p *localProvider) URL(key string) string {
	return "/media/" + key
}

type minioProvider struct {
	client *minio.Client
	bucket string
}

func newMinioProvider(cfg config.StorageConfig) (*minioProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioProvider{client: client, bucket: cfg.MinioBucket}, nil
}

func (p *minioProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.client.PutObject(ctx, p.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.URL(key), nil
}

func (p *minioProvider) Delete(ctx context.Context, key string) error {
	return p.client.RemoveObject(ctx, p.bucket, key, minio.RemoveObjectOptions{})
}

func (p *minioProvider) URL(key string) string {
	return "/" + p.bucket + "/" + key
}
