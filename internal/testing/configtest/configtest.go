// Package configtest swaps the global configuration for tests.
package configtest

import (
	"path/filepath"
	"testing"

	"github.com/entrhq/surf/pkg/config"
)

// WithGlobalManager installs a fresh default configuration backed by a file
// in a temporary directory, runs fn, and restores the previous global
// manager afterwards.
func WithGlobalManager(t *testing.T, fn func()) {
	t.Helper()

	manager, err := config.NewDefaultManager(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("configtest: create manager: %v", err)
	}

	previous := config.SetGlobal(manager)
	defer config.SetGlobal(previous)

	fn()
}
