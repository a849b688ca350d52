package browsing

import (
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidates(t *testing.T) {
	factory := &fakeFactory{}

	_, err := New(nil, factory.create)
	assert.Error(t, err)

	_, err = New(newMemKV(), nil)
	assert.Error(t, err)

	_, err = New(newMemKV(), factory.create, WithDefaultContentMode(ContentMode(9)))
	assert.Error(t, err)
}

func TestAddTab(t *testing.T) {
	s, factory, _ := newTestSession(t)

	var listChanges []TabListChange
	var activeChanges []ActiveTabChange
	s.OnTabListChanged(func(c TabListChange) { listChanges = append(listChanges, c) })
	s.OnActiveTabChanged(func(c ActiveTabChange) { activeChanges = append(activeChanges, c) })

	first, err := s.AddTab(nil)
	require.NoError(t, err)
	second, err := s.AddTab(mustURL(t, "https://a.com"))
	require.NoError(t, err)

	assert.Equal(t, 2, s.Len())
	idx, ok := s.ActiveIndex()
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, second, s.ActiveTabID())
	assert.Equal(t, []TabID{first, second}, s.TabIDs())

	require.Len(t, factory.engines, 2)
	assert.Equal(t, DefaultStartPage, factory.engines[0].lastLoaded())
	assert.Equal(t, "https://a.com", factory.engines[1].lastLoaded())

	assert.Equal(t, []TabListChange{
		{Kind: TabAdded, Index: 0, TabID: first, Len: 1},
		{Kind: TabAdded, Index: 1, TabID: second, Len: 2},
	}, listChanges)
	assert.Equal(t, []ActiveTabChange{{Index: 0, TabID: first}, {Index: 1, TabID: second}}, activeChanges)
}

func TestAddTabEngineError(t *testing.T) {
	s, factory, _ := newTestSession(t)
	factory.err = errors.New("no browser")

	_, err := s.AddTab(nil)
	assert.Error(t, err)
	assert.Equal(t, 0, s.Len())
	_, ok := s.ActiveIndex()
	assert.False(t, ok)
}

func TestCustomStartPage(t *testing.T) {
	start := mustURL(t, "https://start.example/")
	s, factory, _ := newTestSession(t, WithStartPage(start))

	_, err := s.AddTab(nil)
	require.NoError(t, err)
	assert.Equal(t, "https://start.example/", factory.engines[0].lastLoaded())
	assert.Equal(t, start.String(), s.StartPage().String())
}

func TestOpenInitialTab(t *testing.T) {
	t.Run("restores last visited", func(t *testing.T) {
		kv := newMemKV()
		kv.strings[KeyLastVisitedURL] = "https://last.example/page"
		factory := &fakeFactory{}
		s, err := New(kv, factory.create, WithRestoreLastURL(true))
		require.NoError(t, err)

		_, err = s.OpenInitialTab()
		require.NoError(t, err)
		assert.Equal(t, "https://last.example/page", factory.engines[0].lastLoaded())
	})

	t.Run("start page without restore", func(t *testing.T) {
		kv := newMemKV()
		kv.strings[KeyLastVisitedURL] = "https://last.example/page"
		factory := &fakeFactory{}
		s, err := New(kv, factory.create)
		require.NoError(t, err)

		_, err = s.OpenInitialTab()
		require.NoError(t, err)
		assert.Equal(t, DefaultStartPage, factory.engines[0].lastLoaded())
	})

	t.Run("start page when nothing persisted", func(t *testing.T) {
		s, factory, _ := newTestSession(t, WithRestoreLastURL(true))
		_, err := s.OpenInitialTab()
		require.NoError(t, err)
		assert.Equal(t, DefaultStartPage, factory.engines[0].lastLoaded())
	})
}

func TestCloseTabActiveIndex(t *testing.T) {
	tests := []struct {
		name       string
		tabs       int
		active     int
		close      int
		wantActive int
	}{
		{"close last active", 3, 2, 2, 1},
		{"close first active", 3, 0, 0, 0},
		{"close before active", 3, 2, 0, 1},
		{"close after active", 3, 0, 2, 0},
		{"close middle active", 3, 1, 1, 0},
		{"close only", 1, 0, 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newTestSession(t)
			for i := 0; i < tt.tabs; i++ {
				_, err := s.AddTab(nil)
				require.NoError(t, err)
			}
			require.NoError(t, s.SwitchTab(tt.active))

			require.NoError(t, s.CloseTab(tt.close))
			idx, ok := s.ActiveIndex()
			assert.Equal(t, tt.wantActive, idx)
			assert.Equal(t, tt.wantActive >= 0, ok)
			assert.Equal(t, tt.tabs-1, s.Len())
		})
	}
}

func TestCloseTabOutOfRange(t *testing.T) {
	s, _, _ := newTestSession(t)
	assert.ErrorIs(t, s.CloseTab(0), ErrIndexOutOfRange)

	_, err := s.AddTab(nil)
	require.NoError(t, err)
	assert.ErrorIs(t, s.CloseTab(1), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.CloseTab(-1), ErrIndexOutOfRange)

	var idxErr *IndexError
	require.True(t, errors.As(s.CloseTab(3), &idxErr))
	assert.Equal(t, 3, idxErr.Index)
	assert.Equal(t, 1, idxErr.Len)
}

func TestCloseTabDetachesBeforeRemoval(t *testing.T) {
	s, factory, kv := newTestSession(t)
	id, err := s.AddTab(mustURL(t, "https://a.com"))
	require.NoError(t, err)
	engine := factory.engines[0]

	var observed []string
	s.OnTabListChanged(func(c TabListChange) {
		observed = append(observed, fmt.Sprintf("%s detached=%t", c.Kind, engine.detached))
	})

	require.NoError(t, s.CloseTab(0))
	assert.Equal(t, []string{"load", "stop", "detach"}, engine.calls)
	assert.Equal(t, []string{"closed detached=true"}, observed)

	engine.commit(t, "https://late.com", "Late", false)
	engine.delegate.DidFail(errors.New("late failure"), false)
	assert.Equal(t, ContentModeRecommended, engine.delegate.DecidePolicy(mustURL(t, "https://late.com")))

	assert.Equal(t, 0, s.History().Len())
	_, persisted := kv.GetString(KeyLastVisitedURL)
	assert.False(t, persisted)
	_, err = s.Snapshot(id)
	assert.ErrorIs(t, err, ErrTabNotFound)
}

func TestCloseTabNotifications(t *testing.T) {
	s, _, _ := newTestSession(t)
	a, _ := s.AddTab(nil)
	b, _ := s.AddTab(nil)
	c, _ := s.AddTab(nil)

	var active []ActiveTabChange
	var list []TabListChange
	s.OnActiveTabChanged(func(ch ActiveTabChange) { active = append(active, ch) })
	s.OnTabListChanged(func(ch TabListChange) { list = append(list, ch) })

	// active is c at 2; closing a keeps c active but moves it to index 1
	require.NoError(t, s.CloseTab(0))
	assert.Empty(t, active)
	assert.Equal(t, c, s.ActiveTabID())

	require.NoError(t, s.CloseTab(1))
	assert.Equal(t, []ActiveTabChange{{Index: 0, TabID: b}}, active)

	require.NoError(t, s.CloseTab(0))
	assert.Equal(t, ActiveTabChange{Index: -1, TabID: ""}, active[len(active)-1])

	assert.Equal(t, []TabListChange{
		{Kind: TabClosed, Index: 0, TabID: a, Len: 2},
		{Kind: TabClosed, Index: 1, TabID: c, Len: 1},
		{Kind: TabClosed, Index: 0, TabID: b, Len: 0},
	}, list)
}

func TestActiveIndexInvariantRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s, _, _ := newTestSession(t)

	for step := 0; step < 500; step++ {
		switch op := rng.Intn(3); {
		case op == 0 || s.Len() == 0:
			_, err := s.AddTab(nil)
			require.NoError(t, err)
		case op == 1:
			require.NoError(t, s.CloseTab(rng.Intn(s.Len())))
		default:
			require.NoError(t, s.SwitchTab(rng.Intn(s.Len())))
		}

		idx, ok := s.ActiveIndex()
		if s.Len() == 0 {
			assert.False(t, ok)
			continue
		}
		require.True(t, ok)
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, s.Len())
	}
}

func TestSwitchTab(t *testing.T) {
	s, _, _ := newTestSession(t)
	a, _ := s.AddTab(nil)
	_, _ = s.AddTab(nil)

	var active []ActiveTabChange
	s.OnActiveTabChanged(func(c ActiveTabChange) { active = append(active, c) })

	require.NoError(t, s.SwitchTab(0))
	assert.Equal(t, a, s.ActiveTabID())
	assert.Equal(t, []ActiveTabChange{{Index: 0, TabID: a}}, active)

	assert.ErrorIs(t, s.SwitchTab(2), ErrIndexOutOfRange)
	assert.Len(t, active, 1)
}

func TestRoute(t *testing.T) {
	s, factory, _ := newTestSession(t)
	id, _ := s.AddTab(nil)
	engine := factory.engines[0]

	var commands []CommandEvent
	s.OnCommand(func(e CommandEvent) { commands = append(commands, e) })

	require.NoError(t, s.Route(id, LoadCommand("example.com")))
	assert.Equal(t, "https://example.com", engine.lastLoaded())

	require.NoError(t, s.RouteActive(LoadCommand("localhost:8080")))
	assert.Equal(t, "http://localhost:8080", engine.lastLoaded())

	require.NoError(t, s.Route(id, GoBackCommand))
	require.NoError(t, s.Route(id, GoForwardCommand))
	require.NoError(t, s.Route(id, ReloadCommand))
	assert.Equal(t, []string{"load", "load", "load", "reload"}, engine.calls)

	require.Len(t, commands, 5)
	assert.False(t, commands[2].Forwarded)
	assert.Equal(t, CommandGoBack, commands[2].Kind)
	assert.True(t, commands[4].Forwarded)

	err := s.Route("missing", ReloadCommand)
	assert.ErrorIs(t, err, ErrTabNotFound)

	assert.Error(t, s.Route(id, Command{Kind: CommandKind(99)}))
}

func TestRouteInvalidInput(t *testing.T) {
	s, factory, _ := newTestSession(t)
	id, _ := s.AddTab(nil)

	var invalid []InvalidInput
	s.OnInvalidInput(func(i InvalidInput) { invalid = append(invalid, i) })

	err := s.Route(id, LoadCommand("not a url with spaces and no dots"))
	assert.ErrorIs(t, err, ErrInvalidURLInput)
	require.Len(t, invalid, 1)
	assert.Equal(t, "not a url with spaces and no dots", invalid[0].Input)
	assert.Equal(t, id, invalid[0].TabID)
	assert.Len(t, factory.engines[0].loaded, 1, "only the start page was loaded")
}

func TestRouteActiveWithoutTabs(t *testing.T) {
	s, _, _ := newTestSession(t)
	assert.ErrorIs(t, s.RouteActive(ReloadCommand), ErrTabNotFound)
}

func TestOnEngineCommit(t *testing.T) {
	s, factory, kv := newTestSession(t)
	id, _ := s.AddTab(nil)
	engine := factory.engines[0]

	var snaps []Snapshot
	sub, err := s.SubscribeSnapshot(id, func(snap Snapshot) { snaps = append(snaps, snap) })
	require.NoError(t, err)
	require.Len(t, snaps, 1, "current snapshot is replayed")
	assert.Nil(t, snaps[0].URL)

	var titles []TitleChange
	s.OnTitles(func(c TitleChange) { titles = append(titles, c) })

	engine.commit(t, "https://a.com/", "A", true)
	engine.commit(t, "https://a.com/", "A", false)

	require.Len(t, snaps, 3)
	assert.True(t, snaps[1].IsLoading)
	assert.False(t, snaps[2].IsLoading)
	assert.Equal(t, []TitleChange{{TabID: id, Index: 0, Title: "A"}}, titles)

	last, ok := kv.GetString(KeyLastVisitedURL)
	assert.True(t, ok)
	assert.Equal(t, "https://a.com/", last)
	assert.Equal(t, "https://a.com/", s.LastVisitedURL().String())

	require.Equal(t, 1, s.History().Len())
	assert.Equal(t, "A", s.History().Items()[0].Title)

	sub.Unsubscribe()
	engine.commit(t, "https://b.com/", "B", false)
	assert.Len(t, snaps, 3)
	assert.Equal(t, 2, s.History().Len())
}

func TestOnEngineCommitInOrder(t *testing.T) {
	s, factory, _ := newTestSession(t)
	id, _ := s.AddTab(nil)
	engine := factory.engines[0]

	var seen []string
	_, err := s.SubscribeSnapshot(id, func(snap Snapshot) { seen = append(seen, snap.URLString()) })
	require.NoError(t, err)

	for _, raw := range []string{"https://1.com", "https://2.com", "https://3.com"} {
		engine.commit(t, raw, "", true)
	}
	assert.Equal(t, []string{"", "https://1.com", "https://2.com", "https://3.com"}, seen)
}

func TestHistoryFilter(t *testing.T) {
	exclude := func(u *url.URL) bool { return strings.HasSuffix(u.Hostname(), "private.test") }
	s, factory, _ := newTestSession(t, WithHistoryFilter(exclude))
	_, _ = s.AddTab(nil)

	factory.engines[0].commit(t, "https://secret.private.test/", "Secret", false)
	factory.engines[0].commit(t, "https://public.test/", "Public", false)

	items := s.History().Items()
	require.Len(t, items, 1)
	assert.Equal(t, "https://public.test/", items[0].URL)
}

func TestSessionLoadsPersistedHistory(t *testing.T) {
	kv := newMemKV()
	factory := &fakeFactory{}
	s, err := New(kv, factory.create)
	require.NoError(t, err)
	_, _ = s.AddTab(nil)
	factory.engines[0].commit(t, "https://a.com/", "A", false)

	restored, err := New(kv, factory.create)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.History().Len())
	assert.Equal(t, "https://a.com/", restored.LastVisitedURL().String())
}

func TestOnEngineFailure(t *testing.T) {
	s, factory, _ := newTestSession(t)
	id, _ := s.AddTab(nil)
	engine := factory.engines[0]
	engine.commit(t, "https://a.com/", "A", true)

	var failures []NavigationFailure
	s.OnNavigationFailed(func(f NavigationFailure) { failures = append(failures, f) })

	engine.delegate.DidFail(fmt.Errorf("goto: %w", ErrNavigationCancelled), true)
	assert.Empty(t, failures, "cancellations are silent")
	snap, err := s.Snapshot(id)
	require.NoError(t, err)
	assert.True(t, snap.IsLoading)

	engine.delegate.DidFail(errors.New("net::ERR_CONNECTION_REFUSED"), true)
	require.Len(t, failures, 1)
	assert.Equal(t, id, failures[0].TabID)
	assert.True(t, failures[0].Provisional)
	assert.Contains(t, failures[0].Message(), "ERR_CONNECTION_REFUSED")

	snap, err = s.Snapshot(id)
	require.NoError(t, err)
	assert.False(t, snap.IsLoading)
}

func TestContentModePerTabIsolation(t *testing.T) {
	s, factory, _ := newTestSession(t)
	tab1, _ := s.AddTab(mustURL(t, "https://a.com"))
	factory.engines[0].commit(t, "https://a.com/", "A", false)

	require.NoError(t, s.Route(tab1, ToggleContentModeCommand))
	assert.Equal(t, ContentModeMobile, factory.engines[0].delegate.DecidePolicy(mustURL(t, "https://a.com/next")))
	assert.Contains(t, factory.engines[0].calls, "reload_from_origin")

	tab2, _ := s.AddTab(mustURL(t, "https://a.com"))
	assert.Equal(t, ContentModeRecommended, factory.engines[1].delegate.DecidePolicy(mustURL(t, "https://a.com/")))

	mode, err := s.ContentMode(tab2)
	require.NoError(t, err)
	assert.Equal(t, ContentModeRecommended, mode)
	mode, err = s.ContentMode(tab1)
	require.NoError(t, err)
	assert.Equal(t, ContentModeMobile, mode)
}

func TestDefaultContentMode(t *testing.T) {
	s, factory, _ := newTestSession(t, WithDefaultContentMode(ContentModeDesktop))
	_, _ = s.AddTab(nil)
	assert.Equal(t, ContentModeDesktop, factory.engines[0].delegate.DecidePolicy(mustURL(t, "https://a.com")))
}

func TestSessionClose(t *testing.T) {
	s, factory, _ := newTestSession(t)
	_, _ = s.AddTab(nil)
	_, _ = s.AddTab(nil)

	calls := 0
	s.OnTabListChanged(func(TabListChange) { calls++ })

	s.Close()
	s.Close()
	assert.Equal(t, 0, s.Len())
	for _, e := range factory.engines {
		assert.True(t, e.detached)
	}
	_, err := s.AddTab(nil)
	assert.Error(t, err)
	assert.Equal(t, 0, calls)
}

// Zero tabs, a start-page tab, a second tab, then closing it: the closed
// tab's engine must not be able to commit into the session.
func TestEndToEndScenario(t *testing.T) {
	s, factory, _ := newTestSession(t)
	assert.Equal(t, 0, s.Len())

	first, err := s.AddTab(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
	idx, _ := s.ActiveIndex()
	assert.Equal(t, 0, idx)
	assert.Equal(t, DefaultStartPage, factory.engines[0].lastLoaded())

	u, err := ResolveInput("https://a.com")
	require.NoError(t, err)
	second, err := s.AddTab(u)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	idx, _ = s.ActiveIndex()
	assert.Equal(t, 1, idx)

	closedEngine := factory.engines[1]
	closedEngine.commit(t, "https://a.com/", "A", true)
	historyBefore := s.History().Len()

	require.NoError(t, s.CloseTab(1))
	assert.Equal(t, 1, s.Len())
	idx, _ = s.ActiveIndex()
	assert.Equal(t, 0, idx)
	assert.Equal(t, first, s.ActiveTabID())

	var snaps int
	_, err = s.SubscribeSnapshot(first, func(Snapshot) { snaps++ })
	require.NoError(t, err)
	snaps = 0

	closedEngine.commit(t, "https://a.com/done", "Done", false)
	assert.Equal(t, 0, snaps)
	assert.Equal(t, historyBefore, s.History().Len())
	_, ok := s.Index(second)
	assert.False(t, ok)
}
