package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore writes files under a directory served statically at publicPath.
type LocalStore struct {
	root       string
	publicPath string
}

func NewLocalStore(root, publicPath string) (*LocalStore, error) {
	if root == "" {
		return nil, errors.New("upload directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if publicPath == "" {
		publicPath = "/uploads"
	}
	return &LocalStore{
		root:       root,
		publicPath: "/" + strings.Trim(publicPath, "/"),
	}, nil
}

// Root is the directory files are written to.
func (s *LocalStore) Root() string {
	return s.root
}

// PublicPath is the URL prefix the root is served under.
func (s *LocalStore) PublicPath() string {
	return s.publicPath
}

func (s *LocalStore) Save(ctx context.Context, key string, body io.Reader, _ string) (string, error) {
	target, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to a temp file first so a failed copy never leaves a partial upload.
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to store file: %w", err)
	}

	return path.Join(s.publicPath, filepath.ToSlash(key)), nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// resolve maps key to a path inside root, rejecting traversal.
func (s *LocalStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(key))
	if clean == "/" {
		return "", errors.New("empty storage key")
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
