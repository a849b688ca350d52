package browsing

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTab(t *testing.T) (*Tab, *fakeEngine) {
	t.Helper()
	engine := &fakeEngine{}
	return newTab(newTabID(), engine, ContentModeRecommended), engine
}

func TestContentModeCycle(t *testing.T) {
	assert.Equal(t, ContentModeMobile, ContentModeRecommended.Next())
	assert.Equal(t, ContentModeDesktop, ContentModeMobile.Next())
	assert.Equal(t, ContentModeRecommended, ContentModeDesktop.Next())
	assert.Equal(t, ContentModeRecommended, ContentMode(42).Next())

	for _, start := range []ContentMode{ContentModeRecommended, ContentModeMobile, ContentModeDesktop} {
		m := start
		for i := 0; i < 3; i++ {
			m = m.Next()
			assert.True(t, m.Valid())
		}
		assert.Equal(t, start, m)
	}
}

func TestParseContentMode(t *testing.T) {
	for _, m := range []ContentMode{ContentModeRecommended, ContentModeMobile, ContentModeDesktop} {
		parsed, err := ParseContentMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}

	parsed, err := ParseContentMode(" Desktop ")
	require.NoError(t, err)
	assert.Equal(t, ContentModeDesktop, parsed)

	_, err = ParseContentMode("tablet")
	assert.Error(t, err)
}

func TestTabLoad(t *testing.T) {
	tab, engine := newTestTab(t)

	u, err := tab.Load("example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", u.String())
	assert.Equal(t, []string{"load"}, engine.calls)

	_, err = tab.Load("")
	assert.ErrorIs(t, err, ErrInvalidURLInput)
	assert.Len(t, engine.calls, 1, "invalid input must not reach the engine")
}

func TestTabBackForwardGating(t *testing.T) {
	tab, engine := newTestTab(t)

	var events []CommandEvent
	tab.OnCommand(func(e CommandEvent) { events = append(events, e) })

	assert.False(t, tab.GoBack())
	assert.False(t, tab.GoForward())
	assert.Empty(t, engine.calls)
	require.Len(t, events, 2, "no-ops are still reported")
	assert.False(t, events[0].Forwarded)
	assert.Equal(t, CommandGoBack, events[0].Kind)

	tab.ApplyEngineCommit(Snapshot{URL: mustURL(t, "https://a.com"), CanGoBack: true, CanGoForward: true})
	assert.True(t, tab.GoBack())
	assert.True(t, tab.GoForward())
	assert.Equal(t, []string{"back", "forward"}, engine.calls)
	assert.True(t, events[3].Forwarded)
}

func TestTabReload(t *testing.T) {
	tab, engine := newTestTab(t)
	tab.Reload()
	tab.ReloadWithFreshContentMode()
	assert.Equal(t, []string{"reload", "reload_from_origin"}, engine.calls)
}

func TestTabToggleContentMode(t *testing.T) {
	t.Run("no committed url", func(t *testing.T) {
		tab, engine := newTestTab(t)
		mode, ok := tab.ToggleContentMode()
		assert.False(t, ok)
		assert.Equal(t, ContentModeRecommended, mode)
		assert.Empty(t, engine.calls)
		assert.Empty(t, tab.Overrides())
	})

	t.Run("cycles and records override", func(t *testing.T) {
		tab, engine := newTestTab(t)
		tab.ApplyEngineCommit(Snapshot{URL: mustURL(t, "https://A.com/page")})

		want := []ContentMode{ContentModeMobile, ContentModeDesktop, ContentModeRecommended}
		for _, w := range want {
			mode, ok := tab.ToggleContentMode()
			require.True(t, ok)
			assert.Equal(t, w, mode)
			assert.Equal(t, w, tab.ContentMode())
			assert.Equal(t, w, tab.Overrides()["a.com"])
		}
		assert.Equal(t, []string{"reload_from_origin", "reload_from_origin", "reload_from_origin"}, engine.calls)
	})
}

func TestTabDecideContentMode(t *testing.T) {
	tab, _ := newTestTab(t)
	tab.ApplyEngineCommit(Snapshot{URL: mustURL(t, "https://a.com")})
	tab.ToggleContentMode()

	assert.Equal(t, ContentModeMobile, tab.DecideContentMode("a.com"))
	assert.Equal(t, ContentModeMobile, tab.DecideContentMode("b.com"), "falls back to current mode")

	tab.ApplyEngineCommit(Snapshot{URL: mustURL(t, "https://b.com")})
	tab.ToggleContentMode()
	assert.Equal(t, ContentModeDesktop, tab.DecideContentMode("b.com"))
	assert.Equal(t, ContentModeMobile, tab.DecideContentMode("a.com"))

	d := Decide(tab, mustURL(t, "https://A.com/other"))
	assert.True(t, d.Allow)
	assert.Equal(t, ContentModeMobile, d.ContentMode)
}

func TestTabApplyEngineCommit(t *testing.T) {
	tab, _ := newTestTab(t)

	var got []Snapshot
	tab.Subscribe(func(s Snapshot) { got = append(got, s) })

	u := mustURL(t, "https://a.com")
	tab.ApplyEngineCommit(Snapshot{URL: u, Title: "A", CanGoBack: true, Progress: 1.7, IsLoading: true})
	tab.ApplyEngineCommit(Snapshot{URL: u, Title: "A", Progress: math.NaN()})

	require.Len(t, got, 2)
	assert.Equal(t, 1.0, got[0].Progress)
	assert.True(t, got[0].CanGoBack)
	assert.Equal(t, 0.0, got[1].Progress)
	assert.False(t, got[1].CanGoBack)

	u.Host = "mutated.com"
	assert.Equal(t, "https://a.com", tab.Snapshot().URLString(), "tab keeps its own copy")
}

func TestTabApplyFailure(t *testing.T) {
	tab, _ := newTestTab(t)
	tab.ApplyEngineCommit(Snapshot{URL: mustURL(t, "https://a.com"), IsLoading: true})

	var published int
	tab.Subscribe(func(Snapshot) { published++ })

	kind := tab.ApplyFailure(fmt.Errorf("superseded: %w", ErrNavigationCancelled))
	assert.Equal(t, FailureCancelled, kind)
	assert.True(t, tab.Snapshot().IsLoading)
	assert.Equal(t, 0, published)

	kind = tab.ApplyFailure(errors.New("net::ERR_NAME_NOT_RESOLVED"))
	assert.Equal(t, FailureFailed, kind)
	assert.False(t, tab.Snapshot().IsLoading)
	assert.Equal(t, 1, published)
}
