// Package file provides a filesystem-backed implementation of the
// persistence store. Each record is one JSON file under the root directory.
package file

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/persistence"
)

// Store implements persistence.Store on top of a directory tree.
type Store struct {
	root string
}

// NewStore creates a file store rooted at the given directory. A leading
// "file://" scheme is stripped so URLs from configuration work unchanged.
func NewStore(root string) *Store {
	return &Store{root: strings.Replace(root, "file://", "", 1)}
}

func (s *Store) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key)+".json")
}

func (s *Store) Put(_ context.Context, key string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return persistence.NewStoreError("put", key, err)
	}

	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return persistence.NewStoreError("put", key, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return persistence.NewStoreError("put", key, err)
	}

	return nil
}

func (s *Store) Get(_ context.Context, key string, out any) error {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.NewStoreError("get", key, persistence.ErrKeyNotFound)
		}

		return persistence.NewStoreError("get", key, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return persistence.NewStoreError("get", key, err)
	}

	return nil
}

func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	dir := filepath.Join(s.root, filepath.FromSlash(prefix))

	keys := make([]string, 0)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}

			return err
		}

		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}

		keys = append(keys, strings.TrimSuffix(filepath.ToSlash(rel), ".json"))

		return nil
	})
	if err != nil {
		return nil, persistence.NewStoreError("list", prefix, err)
	}

	return keys, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return persistence.NewStoreError("delete", key, err)
	}

	return nil
}

func (s *Store) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. For file-based persistence there
// is nothing to clean up.
func (s *Store) Close(_ context.Context) error {
	return nil
}
