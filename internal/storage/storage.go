package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"
	"vidshare/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileStore persists uploaded files and returns the URL clients fetch them from.
type FileStore interface {
	Save(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// New picks the backend named in the configuration.
func New(cfg *config.Config, log *zap.Logger) (FileStore, error) {
	switch cfg.StorageBackend {
	case config.StorageS3:
		return NewS3Store(cfg.AWSRegion, cfg.S3Bucket, log)
	case config.StorageLocal, "":
		return NewLocalStore(cfg.UploadDir, cfg.PublicUploadPath)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}

// ObjectKey builds a unique key under prefix that keeps the upload's
// extension, e.g. "videos/1715000000000-<uuid>.mp4".
func ObjectKey(prefix, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), ext)
	return path.Join(prefix, name)
}

// ContentType guesses a MIME type from the key's extension.
func ContentType(key string) string {
	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
