// Package storage keeps uploaded report files in a blob store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/yukikurage/report-hub-api/internal/config"
)

// ErrBlobNotFound is returned when a key has no stored blob
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore stores report files under opaque keys
type BlobStore interface {
	Put(ctx context.Context, key string, content io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	HealthCheck(ctx context.Context) error
}

// Key builds the storage key of a report file: <org>/<report>_<filename>
func Key(organizationID, reportID, filename string) string {
	return path.Join(organizationID, reportID+"_"+sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return "file"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f:
			return -1
		case r == '/' || r == ':':
			return '_'
		default:
			return r
		}
	}, name)
}

// New creates the blob store selected by cfg.Backend
func New(ctx context.Context, cfg config.StorageConfig) (BlobStore, error) {
	switch cfg.Backend {
	case config.StorageFilesystem:
		return NewFilesystemStore(cfg.UploadDir)
	case config.StorageS3:
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}
