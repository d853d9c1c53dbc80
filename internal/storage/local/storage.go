package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aliskhannn/media-service/internal/model"
)

// Storage provides a simple file-based blob store.
// It stores objects under a specified base path on the local filesystem,
// one file per key.
type Storage struct {
	basePath string
}

// NewStorage creates a new Storage instance with the given basePath.
// The basePath defines the root directory where files will be stored.
func NewStorage(basePath string) (*Storage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", basePath, err)
	}

	return &Storage{basePath: basePath}, nil
}

// Upload writes body to the file for key, creating parent directories.
func (s *Storage) Upload(_ context.Context, key string, body []byte, _ string) error {
	dst, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	// Each writer gets its own temp file; the rename publishes it atomically.
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}

	if err := writeAndClose(tmp, body); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to save file %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to save file %s: %w", key, err)
	}

	return nil
}

func writeAndClose(f *os.File, body []byte) error {
	if _, err := f.Write(body); err != nil {
		_ = f.Close()
		return err
	}

	if err := f.Chmod(0o644); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// Download reads the file for key.
// It returns model.ErrNotFound when there is none.
func (s *Storage) Download(_ context.Context, key string) ([]byte, error) {
	src, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	body, err := os.ReadFile(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("download %s: %w", key, model.ErrNotFound)
		}

		return nil, fmt.Errorf("failed to read file %s: %w", key, err)
	}

	return body, nil
}

// Delete removes the file for key. Missing files are not an error.
func (s *Storage) Delete(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file %s: %w", key, err)
	}

	return nil
}

// Copy duplicates the file for src to dst.
func (s *Storage) Copy(ctx context.Context, src, dst string) error {
	body, err := s.Download(ctx, src)
	if err != nil {
		return err
	}

	return s.Upload(ctx, dst, body, "")
}

// resolve maps key to a file below the base path.
func (s *Storage) resolve(key string) (string, error) {
	cleaned := filepath.Clean("/" + strings.TrimPrefix(key, "/"))
	if cleaned == "/" {
		return "", fmt.Errorf("empty key %q: %w", key, model.ErrInvalidArgument)
	}

	return filepath.Join(s.basePath, filepath.FromSlash(cleaned)), nil
}
