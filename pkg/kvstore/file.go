package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists all keys as one JSON document on the local filesystem.
// Every mutation rewrites the document through a temporary file followed by
// a rename, so readers see either the old or the new document, never a mix.
// That makes SetMany and DeleteMany atomic.
type FileStore struct {
	path string

	mu     sync.RWMutex
	values map[string]string
}

// NewFileStore opens or creates the store at path. Parent directories are
// created with owner-only permissions.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o700); err != nil {
		return nil, errors.Join(ErrStoreOperation, err)
	}

	s := &FileStore{path: abs, values: make(map[string]string)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the absolute location of the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	return s.SetMany(ctx, map[string]string{key: value})
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	return s.DeleteMany(ctx, key)
}

func (s *FileStore) SetMany(ctx context.Context, values map[string]string) error {
	for k := range values {
		if k == "" {
			return ErrEmptyKey
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(s.values)
	maps.Copy(next, values)
	return s.commit(next)
}

func (s *FileStore) DeleteMany(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(s.values)
	changed := false
	for _, k := range keys {
		if _, ok := next[k]; ok {
			delete(next, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.commit(next)
}

// load reads the document from disk. A missing file is an empty store.
func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.Join(ErrStoreOperation, err)
	}
	if len(data) == 0 {
		return nil
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return errors.Join(ErrCorruptedFile, err)
	}
	s.values = values
	return nil
}

// commit writes next to disk and swaps it in memory only on success.
// Callers must hold s.mu.
func (s *FileStore) commit(next map[string]string) error {
	data, err := json.Marshal(next)
	if err != nil {
		return errors.Join(ErrStoreOperation, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".kvstore-*")
	if err != nil {
		return errors.Join(ErrStoreOperation, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Join(ErrStoreOperation, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Join(ErrStoreOperation, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Join(ErrStoreOperation, err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return errors.Join(ErrStoreOperation, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Join(ErrStoreOperation, err)
	}

	s.values = next
	return nil
}
