package config

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/entrhq/surf/pkg/browsing"
	"github.com/entrhq/surf/pkg/security/hostguard"
)

const (
	// SectionIDBrowsing is the identifier for the browsing settings section
	SectionIDBrowsing = "browsing"

	defaultRestoreLastURL     = false
	defaultDefaultContentMode = "recommended"
)

// defaultHistoryExclude keeps internal pages out of history.
var defaultHistoryExclude = []string{"about:*", "data:*", "chrome:*"}

// BrowsingSection configures session behavior.
type BrowsingSection struct {
	StartPage          string   `json:"start_page"`
	RestoreLastURL     bool     `json:"restore_last_url"`
	HistoryExclude     []string `json:"history_exclude"`
	DefaultContentMode string   `json:"default_content_mode"`
	mu                 sync.RWMutex
}

// NewBrowsingSection creates a browsing section with default settings.
func NewBrowsingSection() *BrowsingSection {
	s := &BrowsingSection{}
	s.Reset()
	return s
}

func (s *BrowsingSection) ID() string { return SectionIDBrowsing }

func (s *BrowsingSection) Title() string { return "Browsing" }

func (s *BrowsingSection) Description() string {
	return "Start page, session restore, history exclusions and the content mode new tabs start in."
}

// Data returns the current configuration data.
func (s *BrowsingSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exclude := make([]interface{}, len(s.HistoryExclude))
	for i, p := range s.HistoryExclude {
		exclude[i] = p
	}
	return map[string]interface{}{
		"start_page":           s.StartPage,
		"restore_last_url":     s.RestoreLastURL,
		"history_exclude":      exclude,
		"default_content_mode": s.DefaultContentMode,
	}
}

// SetData updates the configuration from the provided data.
func (s *BrowsingSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		switch key {
		case "start_page":
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid value type for start_page: expected string, got %T", value)
			}
			s.StartPage = v

		case "restore_last_url":
			v, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid value type for restore_last_url: expected bool, got %T", value)
			}
			s.RestoreLastURL = v

		case "history_exclude":
			patterns, err := stringList(value)
			if err != nil {
				return fmt.Errorf("invalid value for history_exclude: %w", err)
			}
			s.HistoryExclude = patterns

		case "default_content_mode":
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid value type for default_content_mode: expected string, got %T", value)
			}
			s.DefaultContentMode = v

		default:
			// Ignore unknown keys for forward compatibility
			continue
		}
	}
	return nil
}

// Validate validates the current configuration.
func (s *BrowsingSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := browsing.ResolveInput(s.StartPage); err != nil {
		return fmt.Errorf("start_page: %w", err)
	}
	if _, err := browsing.ParseContentMode(s.DefaultContentMode); err != nil {
		return fmt.Errorf("default_content_mode: %w", err)
	}
	if _, err := hostguard.NewMatcher(s.HistoryExclude); err != nil {
		return fmt.Errorf("history_exclude: %w", err)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *BrowsingSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.StartPage = browsing.DefaultStartPage
	s.RestoreLastURL = defaultRestoreLastURL
	s.HistoryExclude = append([]string(nil), defaultHistoryExclude...)
	s.DefaultContentMode = defaultDefaultContentMode
}

// StartPageURL resolves the configured start page.
func (s *BrowsingSection) StartPageURL() (*url.URL, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return browsing.ResolveInput(s.StartPage)
}

// ContentMode returns the parsed default content mode.
func (s *BrowsingSection) ContentMode() (browsing.ContentMode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return browsing.ParseContentMode(s.DefaultContentMode)
}

// HistoryFilter compiles history_exclude into a matcher.
func (s *BrowsingSection) HistoryFilter() (*hostguard.Matcher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return hostguard.NewMatcher(s.HistoryExclude)
}

// ShouldRestoreLastURL reports whether the first tab reopens the last visited URL.
func (s *BrowsingSection) ShouldRestoreLastURL() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.RestoreLastURL
}

// SessionOptions builds the browsing.Session options this section describes.
func (s *BrowsingSection) SessionOptions() ([]browsing.Option, error) {
	start, err := s.StartPageURL()
	if err != nil {
		return nil, fmt.Errorf("start_page: %w", err)
	}
	mode, err := s.ContentMode()
	if err != nil {
		return nil, fmt.Errorf("default_content_mode: %w", err)
	}
	exclude, err := s.HistoryFilter()
	if err != nil {
		return nil, fmt.Errorf("history_exclude: %w", err)
	}
	return []browsing.Option{
		browsing.WithStartPage(start),
		browsing.WithDefaultContentMode(mode),
		browsing.WithHistoryFilter(exclude.Match),
		browsing.WithRestoreLastURL(s.ShouldRestoreLastURL()),
	}, nil
}

// stringList accepts the []interface{} produced by JSON decoding as well as
// a plain []string.
func stringList(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string entries, got %T", item)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", value)
	}
}
