package headless

import (
	"fmt"
	"net/url"

	"github.com/entrhq/surf/pkg/browsing"
)

// scriptedEngine completes navigations on the loop. Hosts "fail.test" fail
// and "hang.test" never finish loading.
type scriptedEngine struct {
	delegate browsing.EngineDelegate
	loop     *browsing.Loop
	entries  []*url.URL
	index    int
	title    string
	detached bool
}

type scriptedFactory struct {
	loop    *browsing.Loop
	engines []*scriptedEngine
}

func (f *scriptedFactory) create(d browsing.EngineDelegate) (browsing.Engine, error) {
	e := &scriptedEngine{delegate: d, loop: f.loop, index: -1}
	f.engines = append(f.engines, e)
	return e, nil
}

func (e *scriptedEngine) current() *url.URL {
	if e.index < 0 {
		return nil
	}
	return e.entries[e.index]
}

func (e *scriptedEngine) snapshot(loading bool) browsing.Snapshot {
	s := browsing.Snapshot{
		URL:          e.current(),
		Title:        e.title,
		CanGoBack:    e.index > 0,
		CanGoForward: e.index >= 0 && e.index < len(e.entries)-1,
		Progress:     1,
		IsLoading:    loading,
	}
	if loading {
		s.Progress = 0.1
	}
	return s
}

// navigate runs a navigation to u; commit moves the history index once the
// target is known to load.
func (e *scriptedEngine) navigate(u *url.URL, commit func()) {
	e.loop.Dispatch(func() {
		if e.detached {
			return
		}
		e.delegate.DecidePolicy(u)
		e.delegate.DidCommit(e.snapshot(true))

		switch u.Hostname() {
		case "fail.test":
			e.delegate.DidFail(fmt.Errorf("%w: net::ERR_NAME_NOT_RESOLVED", browsing.ErrNavigationFailed), true)
			return
		case "hang.test":
			return
		}

		commit()
		e.title = "Title of " + u.Hostname()
		e.delegate.DidCommit(e.snapshot(false))
	})
}

func (e *scriptedEngine) Load(u *url.URL) {
	target := *u
	e.navigate(&target, func() {
		e.entries = append(e.entries[:e.index+1], &target)
		e.index = len(e.entries) - 1
	})
}

func (e *scriptedEngine) GoBack() {
	e.loop.Dispatch(func() {
		if e.index > 0 {
			e.navigate(e.entries[e.index-1], func() { e.index-- })
		}
	})
}

func (e *scriptedEngine) GoForward() {
	e.loop.Dispatch(func() {
		if e.index < len(e.entries)-1 {
			e.navigate(e.entries[e.index+1], func() { e.index++ })
		}
	})
}

func (e *scriptedEngine) Reload() {
	e.loop.Dispatch(func() {
		if u := e.current(); u != nil {
			e.navigate(u, func() {})
		}
	})
}

func (e *scriptedEngine) ReloadFromOrigin() { e.Reload() }
func (e *scriptedEngine) Stop()             {}
func (e *scriptedEngine) Detach()           { e.detached = true }
