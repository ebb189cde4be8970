// Package local stores finalized briefs in a directory tree on disk.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tropica/briefbuddy/storage"
)

// Store maps folders to directories under Root. Object ids are paths relative to Root.
type Store struct {
	Root string
}

var _ storage.Store = (*Store)(nil)

func New(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", abs, err)
	}
	return &Store{Root: abs}, nil
}

func (s *Store) EnsureFolder(ctx context.Context, name, parentID string) (*storage.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, path, err := s.child(parentID, name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create folder %s: %w", id, err)
	}
	return s.object(id, storage.FolderMimeType), nil
}

func (s *Store) PutFile(ctx context.Context, folderID, name, mimeType string, body io.Reader) (*storage.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := s.resolve(folderID)
	if err != nil {
		return nil, err
	}
	if info, sErr := os.Stat(dir); sErr != nil || !info.IsDir() {
		return nil, fmt.Errorf("folder %s: %w", folderID, storage.ErrNotFound)
	}
	id, path, err := s.child(folderID, name)
	if err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("failed to write %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", id, err)
	}
	return s.object(id, mimeType), nil
}

// ShareByLink only checks the object exists; local files are shared through the file system.
func (s *Store) ShareByLink(ctx context.Context, id string) error {
	path, err := s.resolve(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("share %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) child(parentID, name string) (string, string, error) {
	safe := storage.SanitizeName(name)
	if safe == "" || safe == "." || safe == ".." {
		return "", "", fmt.Errorf("invalid name %q", name)
	}
	id := filepath.ToSlash(filepath.Join(parentID, safe))
	path, err := s.resolve(id)
	return id, path, err
}

func (s *Store) resolve(id string) (string, error) {
	path := filepath.Join(s.Root, filepath.FromSlash(id))
	if path != s.Root && !strings.HasPrefix(path, s.Root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes storage root", id)
	}
	return path, nil
}

func (s *Store) object(id, mimeType string) *storage.Object {
	path, _ := s.resolve(id)
	return &storage.Object{
		ID:       id,
		Name:     filepath.Base(path),
		Link:     "file://" + filepath.ToSlash(path),
		MimeType: mimeType,
	}
}
