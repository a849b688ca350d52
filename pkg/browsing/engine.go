package browsing

import "net/url"

// Engine is the contract of the external page renderer owned by a tab.
//
// Commands are fire-and-forget: they return immediately and their outcome
// arrives later through the tab's EngineDelegate.
type Engine interface {
	Load(u *url.URL)
	GoBack()
	GoForward()
	Reload()
	// ReloadFromOrigin reloads bypassing the cache so the next navigation
	// decision is made afresh.
	ReloadFromOrigin()
	Stop()
	// Detach releases the engine. No delegate method may be invoked after
	// Detach returns.
	Detach()
}

// EngineDelegate receives an engine's callbacks. All methods must be invoked
// on the Session's goroutine.
type EngineDelegate interface {
	// DidCommit delivers a fresh navigation snapshot.
	DidCommit(s Snapshot)

	// DecidePolicy is called before a main-frame navigation proceeds and
	// returns the content mode the engine must apply to it.
	DecidePolicy(requested *url.URL) ContentMode

	// DidFail reports a navigation error. Errors wrapping
	// ErrNavigationCancelled are cancellations.
	DidFail(err error, provisional bool)
}

// EngineFactory creates the engine for a new tab, bound to its delegate.
type EngineFactory func(delegate EngineDelegate) (Engine, error)

// Snapshot is the observable navigation state of a tab.
type Snapshot struct {
	URL          *url.URL
	Title        string
	CanGoBack    bool
	CanGoForward bool
	Progress     float64
	IsLoading    bool
}

// URLString returns the snapshot URL or "" when nothing is committed.
func (s Snapshot) URLString() string {
	if s.URL == nil {
		return ""
	}
	return s.URL.String()
}

// normalized clamps progress into [0,1] and copies the URL so the tab never
// shares it with the engine.
func (s Snapshot) normalized() Snapshot {
	switch {
	case s.Progress < 0 || s.Progress != s.Progress:
		s.Progress = 0
	case s.Progress > 1:
		s.Progress = 1
	}
	if s.URL != nil {
		u := *s.URL
		s.URL = &u
	}
	return s
}
