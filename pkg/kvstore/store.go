// Package kvstore provides the persistent key-value stores a browsing
// session writes its last visited URL and history into.
//
// Three implementations are available:
//
//   - MemoryStore keeps everything in process memory
//   - FileStore keeps a single JSON document on disk, rewritten atomically
//   - SQLiteStore keeps one row per key in a SQLite database
//
// All of them satisfy browsing.KVStore and are safe for concurrent use.
package kvstore

import (
	"errors"

	"github.com/entrhq/surf/pkg/browsing"
)

// ErrNotFound is returned by Delete when the key does not exist.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is a browsing.KVStore that can also delete keys and release its
// resources.
type Store interface {
	browsing.KVStore
	Delete(key string) error
	Close() error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
