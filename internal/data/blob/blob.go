// Package blob stores the raw bytes of uploaded documents. Document records
// hold only the blob key; the Extraction Gateway pulls bytes from here.
package blob

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/config"
)

type Storage interface {
	Upload(ctx context.Context, key string, data io.Reader) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// NewStorage selects a backend from settings: local disk by default, S3 when
// configured.
func NewStorage(s config.Settings) (Storage, error) {
	switch s.Blob.Backend {
	case "", "local":
		dir := s.Blob.LocalDir
		if dir == "" {
			dir = config.LocalBlobDir
		}
		return NewLocalStorage(dir)
	case "s3":
		return NewS3Storage(s.Blob.S3Bucket, s.Blob.S3Region)
	default:
		return nil, fmt.Errorf("unknown blob backend: %s", s.Blob.Backend)
	}
}

// NewKey builds a collision-free storage key from the document id and the
// uploaded filename.
func NewKey(docId string, filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)
	base = strings.ReplaceAll(base, " ", "_")
	return fmt.Sprintf("%s/%s_%s%s", docId[:2], docId, base, ext)
}
