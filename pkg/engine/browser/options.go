package browser

import (
	"time"

	"github.com/entrhq/surf/pkg/browsing"
	"github.com/entrhq/surf/pkg/config"
	"github.com/entrhq/surf/pkg/logging"
)

const (
	DefaultViewportWidth        = 1280
	DefaultViewportHeight       = 800
	DefaultMobileViewportWidth  = 390
	DefaultMobileViewportHeight = 844
	DefaultNavigationTimeout    = 30 * time.Second
	DefaultPolicyDeadline       = 2 * time.Second
)

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// Options configures the Manager and every Engine it creates.
type Options struct {
	Headless          bool
	Viewport          Viewport
	MobileViewport    Viewport
	MobileUserAgent   string
	DesktopUserAgent  string
	NavigationTimeout time.Duration
	PolicyDeadline    time.Duration
	Logger            *logging.Logger
}

// DefaultOptions returns headless Chromium with the default engine settings.
func DefaultOptions() Options {
	return OptionsFromConfig(config.NewEngineSection().Settings())
}

// OptionsFromConfig maps the engine configuration section onto Options.
func OptionsFromConfig(s config.EngineSettings) Options {
	return Options{
		Headless:          s.Headless,
		Viewport:          Viewport{Width: s.ViewportWidth, Height: s.ViewportHeight},
		MobileViewport:    Viewport{Width: s.MobileViewportWidth, Height: s.MobileViewportHeight},
		MobileUserAgent:   s.MobileUserAgent,
		DesktopUserAgent:  s.DesktopUserAgent,
		NavigationTimeout: s.NavigationTimeout,
		PolicyDeadline:    s.PolicyDeadline,
	}
}

func (o Options) withDefaults() Options {
	if o.Viewport.Width <= 0 || o.Viewport.Height <= 0 {
		o.Viewport = Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	if o.MobileViewport.Width <= 0 || o.MobileViewport.Height <= 0 {
		o.MobileViewport = Viewport{Width: DefaultMobileViewportWidth, Height: DefaultMobileViewportHeight}
	}
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = DefaultNavigationTimeout
	}
	if o.PolicyDeadline <= 0 {
		o.PolicyDeadline = DefaultPolicyDeadline
	}
	if o.Logger == nil {
		o.Logger = logging.Discard("engine")
	}
	return o
}

// profile is what a content mode changes about a navigation.
type profile struct {
	viewport  Viewport
	userAgent string // empty keeps Chromium's own
}

func (o Options) profileFor(mode browsing.ContentMode) profile {
	switch mode {
	case browsing.ContentModeMobile:
		return profile{viewport: o.MobileViewport, userAgent: o.MobileUserAgent}
	case browsing.ContentModeDesktop:
		return profile{viewport: o.Viewport, userAgent: o.DesktopUserAgent}
	default:
		return profile{viewport: o.Viewport}
	}
}
