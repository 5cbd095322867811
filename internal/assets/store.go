package assets

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/searchvault/pkg/logger"
)

// Store writes asset bytes into a per-article directory. Paths are
// partitioned by unique identifiers so concurrent runs never collide.
type Store struct {
	baseDir string
	log     *logger.Logger
}

// NewStore creates a local asset store rooted at baseDir
func NewStore(baseDir string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create asset directory: %w", err)
	}
	return &Store{baseDir: baseDir, log: log.WithComponent("asset-store")}, nil
}

// BaseDir returns the store's root directory
func (s *Store) BaseDir() string {
	return s.baseDir
}

// NewPartition returns a fresh unique directory name for one article's assets
func (s *Store) NewPartition() string {
	return uuid.NewString()
}

// Save writes the blob under the partition and returns the stored path.
// The write goes through a temp file and rename so a cancelled download
// never leaves a half-written file at the final path.
func (s *Store) Save(partition string, blob *Blob) (string, error) {
	dir := filepath.Join(s.baseDir, partition)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create partition: %w", err)
	}

	name := uuid.NewString() + extensionFor(blob.ContentType)
	finalPath := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, "dl-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(blob.Data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write asset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close asset: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("finalize asset: %w", err)
	}

	return finalPath, nil
}

// SweepTemp removes leftover temp files older than the cutoff. Crashed or
// cancelled downloads leave them behind; nothing references them.
func (s *Store) SweepTemp(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	removed := 0

	err := filepath.WalkDir(s.baseDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		if !strings.HasSuffix(entry.Name(), ".tmp") {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
		return nil
	})

	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("Swept stale temp files")
	}

	return removed, err
}

// RemovePartition deletes one article's asset directory (cascade delete)
func (s *Store) RemovePartition(partition string) error {
	if partition == "" {
		return nil
	}
	return os.RemoveAll(filepath.Join(s.baseDir, partition))
}

// extensionFor derives a file suffix from the declared content type.
// This determines only the stored name, not decoding correctness.
func extensionFor(contentType string) string {
	mediaType := contentType
	if idx := strings.IndexByte(mediaType, ';'); idx >= 0 {
		mediaType = mediaType[:idx]
	}
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))

	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	}

	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}

	// Generic image default
	return ".jpg"
}
