// Package fsblob is a filesystem-backed blob store for raw message payloads.
// Buckets are subdirectories under a configured root. The upstream ingestion
// stage writes payloads; the pipeline only reads them back by path.
package fsblob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/haulwire/loadscout/internal/interfaces"
)

// Store implements interfaces.BlobStorage on the local filesystem
type Store struct {
	root   string
	logger arbor.ILogger
}

// NewStore creates a blob store rooted at the given directory
func NewStore(root string, logger arbor.ILogger) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("blob root directory is required")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	return &Store{root: root, logger: logger}, nil
}

// resolve maps (bucket, path) onto the filesystem, rejecting traversal
func (s *Store) resolve(bucket, path string) (string, error) {
	if bucket == "" || path == "" {
		return "", fmt.Errorf("bucket and path are required")
	}
	full := filepath.Join(s.root, bucket, filepath.FromSlash(path))
	if !strings.HasPrefix(full, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid blob path %q", path)
	}
	return full, nil
}

// Get retrieves a stored payload
func (s *Store) Get(ctx context.Context, bucket, path string) ([]byte, error) {
	full, err := s.resolve(bucket, path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read blob %s/%s: %w", bucket, path, err)
	}
	return data, nil
}

// Put stores a payload (used by the upstream stage and tests)
func (s *Store) Put(ctx context.Context, bucket, path string, data []byte) error {
	full, err := s.resolve(bucket, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return fmt.Errorf("failed to write blob %s/%s: %w", bucket, path, err)
	}
	return nil
}
