package kvstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

const fileFormatVersion = "1.0"

type fileDocument struct {
	Version string            `json:"version"`
	Strings map[string]string `json:"strings"`
	Blobs   map[string][]byte `json:"blobs"`
}

// FileStore is a Store backed by one JSON file. Every write rewrites the
// whole file through a temporary file and a rename.
type FileStore struct {
	path    string
	mu      sync.RWMutex
	strings map[string]string
	blobs   map[string][]byte
}

// NewFileStore opens the store at path, creating nothing until the first
// write. If path is empty, defaults to ~/.surf/state.json. A file that cannot
// be decoded is treated as empty.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".surf", "state.json")
	}

	store := &FileStore{
		path:    path,
		strings: make(map[string]string),
		blobs:   make(map[string][]byte),
	}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("kvstore: read %s: %w", s.path, err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Debug("kvstore: ignoring undecodable state file", "path", s.path, "err", err)
		return nil
	}
	if doc.Strings != nil {
		s.strings = doc.Strings
	}
	if doc.Blobs != nil {
		s.blobs = doc.Blobs
	}
	return nil
}

func (s *FileStore) GetString(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.strings[key]
	return v, ok
}

func (s *FileStore) SetString(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strings[key] = value
	return s.save()
}

func (s *FileStore) GetBlob(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.blobs[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

func (s *FileStore) SetBlob(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), value...)
	return s.save()
}

// Delete removes key from both namespaces and rewrites the file.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, str := s.strings[key]
	_, blob := s.blobs[key]
	if !str && !blob {
		return ErrNotFound
	}
	delete(s.strings, key)
	delete(s.blobs, key)
	return s.save()
}

// Close is a no-op; every write is already on disk.
func (s *FileStore) Close() error { return nil }

// Path returns the file path of the store.
func (s *FileStore) Path() string { return s.path }

// save must be called with mu held.
func (s *FileStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("kvstore: create directory: %w", err)
	}

	data, err := json.MarshalIndent(fileDocument{
		Version: fileFormatVersion,
		Strings: s.strings,
		Blobs:   s.blobs,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("kvstore: encode: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("kvstore: write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("kvstore: atomic rename %s: %w", s.path, err)
	}
	return nil
}
