package browsing

import (
	"fmt"
	"strings"
)

// ContentMode is the page-rendering preference requested from the engine
// for a navigation.
type ContentMode int

const (
	// ContentModeRecommended lets the engine pick a layout for the device.
	ContentModeRecommended ContentMode = iota
	// ContentModeMobile requests the mobile version of a site.
	ContentModeMobile
	// ContentModeDesktop requests the desktop version of a site.
	ContentModeDesktop
)

var contentModeNames = [...]string{
	ContentModeRecommended: "recommended",
	ContentModeMobile:      "mobile",
	ContentModeDesktop:     "desktop",
}

// String returns the lowercase name of the mode.
func (m ContentMode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("ContentMode(%d)", int(m))
	}
	return contentModeNames[m]
}

// Valid reports whether m is one of the three defined modes.
func (m ContentMode) Valid() bool {
	return m >= ContentModeRecommended && m <= ContentModeDesktop
}

// Next returns the mode after m in the cycle
// Recommended -> Mobile -> Desktop -> Recommended.
// Anything outside the cycle restarts it at Recommended.
func (m ContentMode) Next() ContentMode {
	switch m {
	case ContentModeRecommended:
		return ContentModeMobile
	case ContentModeMobile:
		return ContentModeDesktop
	default:
		return ContentModeRecommended
	}
}

// ParseContentMode parses a mode name as produced by String.
func ParseContentMode(s string) (ContentMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range contentModeNames {
		if n == name {
			return ContentMode(i), nil
		}
	}
	return ContentModeRecommended, fmt.Errorf("unknown content mode %q (must be 'recommended', 'mobile', or 'desktop')", s)
}
