package kvstore

import "sync"

// MemoryStore is a Store that keeps values in memory only.
type MemoryStore struct {
	mu      sync.RWMutex
	strings map[string]string
	blobs   map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		strings: make(map[string]string),
		blobs:   make(map[string][]byte),
	}
}

func (m *MemoryStore) GetString(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.strings[key]
	return v, ok
}

func (m *MemoryStore) SetString(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strings[key] = value
	return nil
}

// GetBlob returns a copy of the stored bytes.
func (m *MemoryStore) GetBlob(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.blobs[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

func (m *MemoryStore) SetBlob(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key from both the string and blob namespaces.
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, s := m.strings[key]
	_, b := m.blobs[key]
	if !s && !b {
		return ErrNotFound
	}
	delete(m.strings, key)
	delete(m.blobs, key)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
