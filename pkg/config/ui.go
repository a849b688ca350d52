package config

import (
	"fmt"
	"sync"
	"time"
)

const (
	// SectionIDUI is the identifier for the UI settings section
	SectionIDUI = "ui"

	// Default values for UI settings
	defaultToastDuration  = 4 * time.Second
	defaultShowTabNumbers = true
	defaultHistoryLimit   = 200
)

// UISection manages terminal user interface settings.
type UISection struct {
	ToastDuration  time.Duration `json:"toast_duration"`
	ShowTabNumbers bool          `json:"show_tab_numbers"`
	HistoryLimit   int           `json:"history_limit"`
	mu             sync.RWMutex
}

// NewUISection creates a new UI section with default settings.
func NewUISection() *UISection {
	return &UISection{
		ToastDuration:  defaultToastDuration,
		ShowTabNumbers: defaultShowTabNumbers,
		HistoryLimit:   defaultHistoryLimit,
	}
}

// ID returns the section identifier.
func (s *UISection) ID() string {
	return SectionIDUI
}

// Title returns the section title.
func (s *UISection) Title() string {
	return "UI Settings"
}

// Description returns the section description.
func (s *UISection) Description() string {
	return "Configure how long notices stay visible, tab strip numbering and the history overlay size."
}

// Data returns the current configuration data.
func (s *UISection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"toast_duration":   s.ToastDuration.String(),
		"show_tab_numbers": s.ShowTabNumbers,
		"history_limit":    s.HistoryLimit,
	}
}

// SetData updates the configuration from the provided data.
func (s *UISection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var err error
		switch key {
		case "toast_duration":
			s.ToastDuration, err = durationValue(key, value)
		case "show_tab_numbers":
			enabled, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid value type for show_tab_numbers: expected bool, got %T", value)
			}
			s.ShowTabNumbers = enabled
		case "history_limit":
			s.HistoryLimit, err = intValue(key, value)
		default:
			// Ignore unknown keys for forward compatibility
			continue
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// Validate validates the current configuration.
func (s *UISection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ToastDuration < 500*time.Millisecond || s.ToastDuration > time.Minute {
		return fmt.Errorf("toast_duration must be between 500ms and 1m, got %v", s.ToastDuration)
	}
	if s.HistoryLimit < 1 {
		return fmt.Errorf("history_limit must be positive, got %d", s.HistoryLimit)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *UISection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ToastDuration = defaultToastDuration
	s.ShowTabNumbers = defaultShowTabNumbers
	s.HistoryLimit = defaultHistoryLimit
}

// GetToastDuration returns how long notices stay on screen.
func (s *UISection) GetToastDuration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ToastDuration
}

// GetShowTabNumbers reports whether tab strip cells are numbered.
func (s *UISection) GetShowTabNumbers() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ShowTabNumbers
}

// GetHistoryLimit returns the maximum number of entries the history overlay lists.
func (s *UISection) GetHistoryLimit() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.HistoryLimit
}
