package browser

import (
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/surf/pkg/browsing"
)

// Manager owns the Playwright driver and the single Chromium instance that
// every tab's Engine runs in. Each Engine gets its own browser context so
// cookies and storage stay per tab.
type Manager struct {
	mu          sync.Mutex
	opts        Options
	playwright  *playwright.Playwright
	browser     playwright.Browser
	engines     map[*Engine]struct{}
	initialized bool
}

// NewManager creates a manager. Call Initialize before creating engines.
func NewManager(opts Options) *Manager {
	return &Manager{
		opts:    opts.withDefaults(),
		engines: make(map[*Engine]struct{}),
	}
}

// Initialize installs the driver if needed, starts it and launches Chromium.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	// Driver output would corrupt the TUI.
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if err := playwright.Install(runOpts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(m.opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	m.playwright = pw
	m.browser = browser
	m.initialized = true
	m.opts.Logger.Infof("chromium %s launched (headless=%t)", browser.Version(), m.opts.Headless)
	return nil
}

// NewEngine opens a fresh context and page bound to delegate. Delegate
// callbacks are delivered through dispatcher.
func (m *Manager) NewEngine(delegate browsing.EngineDelegate, dispatcher browsing.Dispatcher) (*Engine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil, ErrNotInitialized
	}
	if delegate == nil {
		return nil, fmt.Errorf("browser: nil delegate")
	}
	if dispatcher == nil {
		dispatcher = browsing.Immediate
	}

	ctx, err := m.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  m.opts.Viewport.Width,
			Height: m.opts.Viewport.Height,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := ctx.NewPage()
	if err != nil {
		_ = ctx.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultNavigationTimeout(float64(m.opts.NavigationTimeout.Milliseconds()))

	e := newEngine(m.opts, ctx, page, delegate, dispatcher)
	e.onDetach = m.forget
	if err := e.attach(); err != nil {
		e.Detach()
		return nil, fmt.Errorf("failed to attach engine: %w", err)
	}

	m.engines[e] = struct{}{}
	return e, nil
}

// Factory adapts the manager to browsing.EngineFactory.
func (m *Manager) Factory(dispatcher browsing.Dispatcher) browsing.EngineFactory {
	return func(delegate browsing.EngineDelegate) (browsing.Engine, error) {
		e, err := m.NewEngine(delegate, dispatcher)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
}

// Len returns the number of live engines.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.engines)
}

func (m *Manager) forget(e *Engine) {
	m.mu.Lock()
	delete(m.engines, e)
	m.mu.Unlock()
}

// Shutdown detaches every engine, closes Chromium and stops the driver.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	engines := make([]*Engine, 0, len(m.engines))
	for e := range m.engines {
		engines = append(engines, e)
	}
	m.mu.Unlock()

	for _, e := range engines {
		e.Detach()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil
	}

	var errs []error
	if err := m.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
	}
	if err := m.playwright.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
	}

	m.browser = nil
	m.playwright = nil
	m.initialized = false

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}
