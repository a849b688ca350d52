package browser

import (
	"context"
	"net/url"
	"sync/atomic"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/surf/pkg/browsing"
	"github.com/entrhq/surf/pkg/logging"
)

// Progress reported at each stage of a document load.
const (
	progressStarted   = 0.1
	progressCommitted = 0.3
	progressParsed    = 0.7
	progressLoaded    = 1.0
)

// Engine drives one Playwright page on behalf of one tab.
//
// Playwright delivers page events on its own dispatch goroutine and will
// deadlock if a handler issues a blocking call. Events are therefore handed
// to a per-engine worker that owns all navigation state, and blocking page
// commands run on their own goroutines. Delegate calls are marshalled
// through the dispatcher.
type Engine struct {
	opts       Options
	context    playwright.BrowserContext
	page       playwright.Page
	delegate   browsing.EngineDelegate
	dispatcher browsing.Dispatcher
	worker     *browsing.Loop
	logger     *logging.Logger
	onDetach   func(*Engine)

	detached    atomic.Bool
	bypassCache atomic.Bool
	done        chan struct{}

	// Owned by worker.
	nav       *navState
	url       string
	title     string
	progress  float64
	loading   bool
	committed bool
}

func newEngine(opts Options, ctx playwright.BrowserContext, page playwright.Page, delegate browsing.EngineDelegate, dispatcher browsing.Dispatcher) *Engine {
	return &Engine{
		opts:       opts,
		context:    ctx,
		page:       page,
		delegate:   delegate,
		dispatcher: dispatcher,
		worker:     browsing.NewLoop(),
		logger:     opts.Logger,
		done:       make(chan struct{}),
		nav:        newNavState(),
	}
}

func (e *Engine) attach() error {
	go func() { _ = e.worker.Run(context.Background()) }()

	if err := e.page.Route("**/*", e.handleRoute); err != nil {
		return err
	}

	e.page.OnFrameNavigated(func(frame playwright.Frame) {
		if frame != e.page.MainFrame() {
			return
		}
		u := frame.URL()
		e.worker.Dispatch(func() { e.frameNavigated(u) })
	})
	e.page.OnDOMContentLoaded(func(playwright.Page) {
		e.worker.Dispatch(func() { e.advance(progressParsed, true) })
	})
	e.page.OnLoad(func(playwright.Page) {
		e.worker.Dispatch(func() { e.advance(progressLoaded, false) })
	})
	e.page.OnCrash(func(playwright.Page) {
		e.worker.Dispatch(func() { e.fail(errPageCrashed) })
	})
	return nil
}

// Load navigates to u.
func (e *Engine) Load(u *url.URL) {
	if u == nil {
		return
	}
	target := u.String()
	e.command(navNew, "load", func() error {
		_, err := e.page.Goto(target, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateCommit,
		})
		return err
	})
}

// GoBack moves one entry back in the page's history.
func (e *Engine) GoBack() {
	e.command(navBack, "back", func() error {
		_, err := e.page.GoBack(playwright.PageGoBackOptions{
			WaitUntil: playwright.WaitUntilStateCommit,
		})
		return err
	})
}

// GoForward moves one entry forward in the page's history.
func (e *Engine) GoForward() {
	e.command(navForward, "forward", func() error {
		_, err := e.page.GoForward(playwright.PageGoForwardOptions{
			WaitUntil: playwright.WaitUntilStateCommit,
		})
		return err
	})
}

// Reload reloads the current document.
func (e *Engine) Reload() {
	e.command(navReload, "reload", e.reload)
}

// ReloadFromOrigin reloads with caching disabled for the document request,
// which also sends it back through the navigation policy.
func (e *Engine) ReloadFromOrigin() {
	if e.detached.Load() {
		return
	}
	e.bypassCache.Store(true)
	e.command(navReload, "reload_from_origin", e.reload)
}

func (e *Engine) reload() error {
	_, err := e.page.Reload(playwright.PageReloadOptions{
		WaitUntil: playwright.WaitUntilStateCommit,
	})
	return err
}

// Stop aborts the load in progress. The interrupted navigation reports a
// cancellation.
func (e *Engine) Stop() {
	if e.detached.Load() {
		return
	}
	go func() {
		if _, err := e.page.Evaluate("() => window.stop()"); err != nil {
			e.logger.Debugf("stop: %v", err)
		}
	}()
}

// Detach releases the page and its context. No delegate callback runs after
// it returns.
func (e *Engine) Detach() {
	if !e.detached.CompareAndSwap(false, true) {
		return
	}
	close(e.done)
	e.worker.Stop()

	go func() {
		_ = e.page.Unroute("**/*")
		_ = e.page.Close()
		_ = e.context.Close()
	}()

	if e.onDetach != nil {
		e.onDetach(e)
	}
}

// command records the pending navigation kind before running fn off the
// caller's goroutine.
func (e *Engine) command(kind navKind, name string, fn func() error) {
	if e.detached.Load() {
		return
	}
	e.worker.Dispatch(func() { e.nav.begin(kind) })

	go func() {
		err := fn()
		if err == nil || e.detached.Load() {
			return
		}
		e.logger.Debugf("%s: %v", name, err)
		e.worker.Dispatch(func() { e.fail(err) })
	}()
}

func (e *Engine) handleRoute(route playwright.Route) {
	// Route handlers run on the Playwright dispatch goroutine.
	go e.routeRequest(route)
}

func (e *Engine) routeRequest(route playwright.Route) {
	req := route.Request()
	if e.detached.Load() || !req.IsNavigationRequest() || req.Frame() != e.page.MainFrame() {
		_ = route.Continue()
		return
	}

	requested, err := url.Parse(req.URL())
	if err != nil {
		_ = route.Continue()
		return
	}

	mode, ok := awaitPolicy(e.dispatcher, func() browsing.ContentMode {
		if e.detached.Load() {
			return browsing.ContentModeRecommended
		}
		return e.delegate.DecidePolicy(requested)
	}, e.opts.PolicyDeadline, e.done)
	if !ok && !e.detached.Load() {
		e.logger.Warnf("policy for %s not decided within %s, using %s", requested, e.opts.PolicyDeadline, mode)
	}

	p := e.opts.profileFor(mode)
	if err := e.page.SetViewportSize(p.viewport.Width, p.viewport.Height); err != nil {
		e.logger.Debugf("viewport: %v", err)
	}

	headers := req.Headers()
	if p.userAgent != "" {
		headers["user-agent"] = p.userAgent
	}
	if e.bypassCache.CompareAndSwap(true, false) {
		headers["cache-control"] = "no-cache"
		headers["pragma"] = "no-cache"
	}

	if err := route.Continue(playwright.RouteContinueOptions{Headers: headers}); err != nil {
		e.logger.Debugf("continue %s: %v", requested, err)
		return
	}
	e.worker.Dispatch(e.started)
}

// started marks a main-frame document request as in flight. The committed
// URL is still the previous one.
func (e *Engine) started() {
	e.loading = true
	e.committed = false
	e.progress = progressStarted
	e.emit()
}

func (e *Engine) frameNavigated(u string) {
	e.nav.committed(u)
	e.url = u
	e.committed = true
	if e.loading && e.progress < progressCommitted {
		e.progress = progressCommitted
	}
	e.emit()
}

func (e *Engine) advance(progress float64, loading bool) {
	if title, err := e.page.Title(); err == nil {
		e.title = title
	}
	e.progress = progress
	e.loading = loading
	e.emit()
}

func (e *Engine) fail(err error) {
	provisional := !e.committed
	if provisional {
		e.nav.abandon()
	}

	classified := classifyNavigationError(err)
	if browsing.ClassifyFailure(classified) == browsing.FailureFailed {
		e.loading = false
	}

	e.dispatcher.Dispatch(func() {
		if e.detached.Load() {
			return
		}
		e.delegate.DidFail(classified, provisional)
	})
}

func (e *Engine) snapshot() browsing.Snapshot {
	s := browsing.Snapshot{
		Title:        e.title,
		CanGoBack:    e.nav.canGoBack(),
		CanGoForward: e.nav.canGoForward(),
		Progress:     e.progress,
		IsLoading:    e.loading,
	}
	if e.url != "" {
		if u, err := url.Parse(e.url); err == nil {
			s.URL = u
		}
	}
	return s
}

func (e *Engine) emit() {
	s := e.snapshot()
	e.dispatcher.Dispatch(func() {
		if e.detached.Load() {
			return
		}
		e.delegate.DidCommit(s)
	})
}
