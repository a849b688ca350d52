package config

import (
	"sync"
)

var (
	// globalManager is the singleton configuration manager instance
	globalManager *Manager
	globalMu      sync.Mutex
)

// Initialize creates and initializes the global configuration manager.
// This should be called once at application startup.
func Initialize(configPath string) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	manager, err := NewDefaultManager(configPath)
	if err != nil {
		return err
	}

	globalManager = manager
	return nil
}

// NewDefaultManager creates a file-backed manager with the browsing, engine
// and UI sections registered and loaded.
func NewDefaultManager(configPath string) (*Manager, error) {
	store, err := NewFileStore(configPath)
	if err != nil {
		return nil, err
	}

	manager := NewManager(store)

	if err := manager.RegisterSection(NewBrowsingSection()); err != nil {
		return nil, err
	}

	if err := manager.RegisterSection(NewEngineSection()); err != nil {
		return nil, err
	}

	if err := manager.RegisterSection(NewUISection()); err != nil {
		return nil, err
	}

	if err := manager.LoadAll(); err != nil {
		return nil, err
	}

	return manager, nil
}

// Global returns the global configuration manager.
// Panics if Initialize has not been called.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}

	return globalManager
}

// IsInitialized returns true if the global configuration has been initialized.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalManager != nil
}

// SetGlobal replaces the global manager and returns the previous one.
// Passing nil uninitializes the configuration.
func SetGlobal(m *Manager) *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()
	previous := globalManager
	globalManager = m
	return previous
}

// GetBrowsing returns the browsing section from global config.
// Returns nil if config is not initialized.
func GetBrowsing() *BrowsingSection {
	if !IsInitialized() {
		return nil
	}

	section, ok := Global().GetSection(SectionIDBrowsing)
	if !ok {
		return nil
	}

	browsing, ok := section.(*BrowsingSection)
	if !ok {
		return nil
	}

	return browsing
}

// GetEngine returns the engine section from global config.
// Returns nil if config is not initialized.
func GetEngine() *EngineSection {
	if !IsInitialized() {
		return nil
	}

	section, ok := Global().GetSection(SectionIDEngine)
	if !ok {
		return nil
	}

	engine, ok := section.(*EngineSection)
	if !ok {
		return nil
	}

	return engine
}

// GetUI returns the UI section from global config.
// Returns nil if config is not initialized.
func GetUI() *UISection {
	if !IsInitialized() {
		return nil
	}

	section, ok := Global().GetSection(SectionIDUI)
	if !ok {
		return nil
	}

	ui, ok := section.(*UISection)
	if !ok {
		return nil
	}

	return ui
}
