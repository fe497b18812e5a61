package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	cfg "github.com/voicememo/server/internal/config"
)

// ErrObjectNotFound is returned by Open when no object exists under the key.
var ErrObjectNotFound = errors.New("object not found")

// Storage defines the blob store used for recording audio.
// Save must not return until the object is durable.
type Storage interface {
	// Save stores the content under key
	Save(ctx context.Context, key string, content io.Reader, contentType string) error

	// Open returns a reader for the object; callers close it
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// SignedURL returns a time-limited read URL for the object
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	// Delete removes the object
	Delete(ctx context.Context, key string) error
}

// New creates the blob store selected by STORAGE_DRIVER.
func New(c *cfg.Config) (Storage, error) {
	switch c.StorageDriver {
	case "s3":
		slog.Info("initializing S3 storage",
			"bucket", c.S3Bucket,
			"region", c.S3Region,
			"endpoint", c.S3Endpoint,
		)
		return NewS3Storage(S3Config{
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Endpoint:  c.S3Endpoint,
		})
	case "minio":
		slog.Info("initializing MinIO storage",
			"bucket", c.MinioBucket,
			"endpoint", c.MinioEndpoint,
		)
		return NewMinioStorage(MinioConfig{
			Endpoint:  c.MinioEndpoint,
			AccessKey: c.MinioAccessKey,
			SecretKey: c.MinioSecretKey,
			Bucket:    c.MinioBucket,
			UseSSL:    c.MinioUseSSL,
		})
	case "local":
		slog.Info("initializing local storage", "path", c.LocalStoragePath)
		return NewLocalStorage(c.LocalStoragePath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
}
