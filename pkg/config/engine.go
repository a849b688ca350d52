package config

import (
	"fmt"
	"sync"
	"time"
)

const (
	// SectionIDEngine is the identifier for the rendering engine section
	SectionIDEngine = "engine"

	defaultHeadless             = true
	defaultViewportWidth        = 1280
	defaultViewportHeight       = 800
	defaultMobileViewportWidth  = 390
	defaultMobileViewportHeight = 844
	defaultNavigationTimeout    = 30 * time.Second
	defaultPolicyDeadline       = 2 * time.Second

	defaultMobileUserAgent  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1"
	defaultDesktopUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15"
)

// EngineSettings is a point-in-time copy of the engine section.
type EngineSettings struct {
	Headless             bool
	ViewportWidth        int
	ViewportHeight       int
	MobileViewportWidth  int
	MobileViewportHeight int
	MobileUserAgent      string
	DesktopUserAgent     string
	NavigationTimeout    time.Duration
	PolicyDeadline       time.Duration
}

// EngineSection configures the Chromium engine behind each tab.
type EngineSection struct {
	settings EngineSettings
	mu       sync.RWMutex
}

// NewEngineSection creates an engine section with default settings.
func NewEngineSection() *EngineSection {
	s := &EngineSection{}
	s.Reset()
	return s
}

func (s *EngineSection) ID() string { return SectionIDEngine }

func (s *EngineSection) Title() string { return "Engine" }

func (s *EngineSection) Description() string {
	return "Browser launch mode, viewport and user agent per content mode, and navigation deadlines."
}

// Data returns the current configuration data.
func (s *EngineSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"headless":               s.settings.Headless,
		"viewport_width":         s.settings.ViewportWidth,
		"viewport_height":        s.settings.ViewportHeight,
		"mobile_viewport_width":  s.settings.MobileViewportWidth,
		"mobile_viewport_height": s.settings.MobileViewportHeight,
		"mobile_user_agent":      s.settings.MobileUserAgent,
		"desktop_user_agent":     s.settings.DesktopUserAgent,
		"navigation_timeout":     s.settings.NavigationTimeout.String(),
		"policy_deadline":        s.settings.PolicyDeadline.String(),
	}
}

// SetData updates the configuration from the provided data.
func (s *EngineSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	for key, value := range data {
		var err error
		switch key {
		case "headless":
			v, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid value type for headless: expected bool, got %T", value)
			}
			next.Headless = v
		case "viewport_width":
			next.ViewportWidth, err = intValue(key, value)
		case "viewport_height":
			next.ViewportHeight, err = intValue(key, value)
		case "mobile_viewport_width":
			next.MobileViewportWidth, err = intValue(key, value)
		case "mobile_viewport_height":
			next.MobileViewportHeight, err = intValue(key, value)
		case "mobile_user_agent":
			next.MobileUserAgent, err = stringValue(key, value)
		case "desktop_user_agent":
			next.DesktopUserAgent, err = stringValue(key, value)
		case "navigation_timeout":
			next.NavigationTimeout, err = durationValue(key, value)
		case "policy_deadline":
			next.PolicyDeadline, err = durationValue(key, value)
		default:
			continue
		}
		if err != nil {
			return err
		}
	}
	s.settings = next
	return nil
}

// Validate validates the current configuration.
func (s *EngineSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.settings
	for name, v := range map[string]int{
		"viewport_width":         st.ViewportWidth,
		"viewport_height":        st.ViewportHeight,
		"mobile_viewport_width":  st.MobileViewportWidth,
		"mobile_viewport_height": st.MobileViewportHeight,
	} {
		if v < 200 || v > 8192 {
			return fmt.Errorf("%s must be between 200 and 8192, got %d", name, v)
		}
	}
	if st.NavigationTimeout < time.Second {
		return fmt.Errorf("navigation_timeout must be at least 1s, got %v", st.NavigationTimeout)
	}
	if st.PolicyDeadline < 50*time.Millisecond || st.PolicyDeadline > 30*time.Second {
		return fmt.Errorf("policy_deadline must be between 50ms and 30s, got %v", st.PolicyDeadline)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *EngineSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = EngineSettings{
		Headless:             defaultHeadless,
		ViewportWidth:        defaultViewportWidth,
		ViewportHeight:       defaultViewportHeight,
		MobileViewportWidth:  defaultMobileViewportWidth,
		MobileViewportHeight: defaultMobileViewportHeight,
		MobileUserAgent:      defaultMobileUserAgent,
		DesktopUserAgent:     defaultDesktopUserAgent,
		NavigationTimeout:    defaultNavigationTimeout,
		PolicyDeadline:       defaultPolicyDeadline,
	}
}

// Settings returns a copy of the current settings.
func (s *EngineSection) Settings() EngineSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetHeadless overrides the launch mode, e.g. from a command-line flag.
func (s *EngineSection) SetHeadless(headless bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Headless = headless
}

func intValue(key string, value interface{}) (int, error) {
	switch v := value.(type) {
	case float64:
		// JSON numbers come as float64
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("invalid value type for %s: expected number, got %T", key, value)
	}
}

func stringValue(key string, value interface{}) (string, error) {
	v, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("invalid value type for %s: expected string, got %T", key, value)
	}
	return v, nil
}

func durationValue(key string, value interface{}) (time.Duration, error) {
	switch v := value.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid duration string for %s: %w", key, err)
		}
		return d, nil
	case float64:
		return time.Duration(v), nil
	case int64:
		return time.Duration(v), nil
	default:
		return 0, fmt.Errorf("invalid value type for %s: expected string or number, got %T", key, value)
	}
}
