package browsing

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/entrhq/surf/pkg/logging"
)

// DefaultStartPage is loaded by tabs opened without a URL.
const DefaultStartPage = "https://duckduckgo.com/"

// TabListChangeKind tells whether a tab was added or closed.
type TabListChangeKind int

const (
	TabAdded TabListChangeKind = iota
	TabClosed
)

func (k TabListChangeKind) String() string {
	if k == TabAdded {
		return "added"
	}
	return "closed"
}

// TabListChange is published after a tab is added or closed. Index is the
// position the tab had in the strip; Len is the tab count afterwards.
type TabListChange struct {
	Kind  TabListChangeKind
	Index int
	TabID TabID
	Len   int
}

// ActiveTabChange is published when the active tab changes. Index is -1 and
// TabID is empty once the last tab is closed.
type ActiveTabChange struct {
	Index int
	TabID TabID
}

// TitleChange feeds the tab strip. It is published for every tab.
type TitleChange struct {
	TabID TabID
	Index int
	Title string
}

// InvalidInput is published when address-bar input cannot be resolved.
type InvalidInput struct {
	TabID TabID
	Input string
	Err   error
}

// Option configures a Session.
type Option func(*Session)

// WithStartPage sets the page loaded by tabs opened without a URL.
func WithStartPage(u *url.URL) Option {
	return func(s *Session) {
		if u != nil {
			s.startPage = u
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithDefaultContentMode sets the mode new tabs start in.
func WithDefaultContentMode(mode ContentMode) Option {
	return func(s *Session) { s.defaultMode = mode }
}

// WithHistoryFilter excludes URLs for which exclude returns true from history.
func WithHistoryFilter(exclude func(*url.URL) bool) Option {
	return func(s *Session) { s.excludeFromHistory = exclude }
}

// WithRestoreLastURL makes OpenInitialTab load the last visited URL instead
// of the start page.
func WithRestoreLastURL(restore bool) Option {
	return func(s *Session) { s.restoreLast = restore }
}

// WithClock sets the clock used for history visit dates.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session owns the tabs of one browser window.
//
// A Session is not safe for concurrent use. Every method, and every engine
// callback, must run on the goroutine that drives it.
type Session struct {
	kv                 KVStore
	factory            EngineFactory
	history            *HistoryStore
	logger             *logging.Logger
	now                func() time.Time
	startPage          *url.URL
	defaultMode        ContentMode
	restoreLast        bool
	excludeFromHistory func(*url.URL) bool

	tabs        []*Tab
	bindings    map[TabID]*tabBinding
	tabSubs     map[TabID]*Subscription
	active      int
	lastVisited string
	closed      bool

	activeChanged Registry[ActiveTabChange]
	tabList       Registry[TabListChange]
	failures      Registry[NavigationFailure]
	invalidInputs Registry[InvalidInput]
	titles        Registry[TitleChange]
	commands      Registry[CommandEvent]
}

// New creates an empty session and loads the persisted history from kv.
func New(kv KVStore, factory EngineFactory, opts ...Option) (*Session, error) {
	if kv == nil {
		return nil, errors.New("browsing: nil KV store")
	}
	if factory == nil {
		return nil, errors.New("browsing: nil engine factory")
	}

	start, err := url.Parse(DefaultStartPage)
	if err != nil {
		return nil, fmt.Errorf("parse default start page: %w", err)
	}

	s := &Session{
		kv:        kv,
		factory:   factory,
		now:       time.Now,
		startPage: start,
		bindings:  make(map[TabID]*tabBinding),
		tabSubs:   make(map[TabID]*Subscription),
		active:    -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Discard("session")
	}
	if !s.defaultMode.Valid() {
		return nil, fmt.Errorf("browsing: invalid default content mode %d", int(s.defaultMode))
	}

	s.history = NewHistoryStore(kv, WithHistoryClock(s.now), WithHistoryLogger(s.logger.With("history")))
	s.history.LoadFromStore()

	if last, ok := kv.GetString(KeyLastVisitedURL); ok {
		s.lastVisited = last
	}

	s.logger.Infof("session created: start page %s, %d history items", s.startPage, s.history.Len())
	return s, nil
}

// AddTab opens a tab, makes it active and loads u, or the start page when u
// is nil.
func (s *Session) AddTab(u *url.URL) (TabID, error) {
	if s.closed {
		return "", errors.New("browsing: session closed")
	}

	id := newTabID()
	binding := &tabBinding{session: s, id: id}
	engine, err := s.factory(binding)
	if err != nil {
		return "", fmt.Errorf("create engine for tab %s: %w", id, err)
	}

	tab := newTab(id, engine, s.defaultMode)
	s.bindings[id] = binding
	s.tabSubs[id] = tab.OnCommand(s.commands.Publish)
	s.tabs = append(s.tabs, tab)
	s.active = len(s.tabs) - 1

	s.logger.Debugf("tab %s added at %d", id, s.active)
	s.tabList.Publish(TabListChange{Kind: TabAdded, Index: s.active, TabID: id, Len: len(s.tabs)})
	s.publishActive()

	target := u
	if target == nil {
		target = s.startPage
	}
	tab.LoadURL(target)
	return id, nil
}

// OpenInitialTab opens the first tab of a session. With WithRestoreLastURL
// it loads the persisted last visited URL when there is one.
func (s *Session) OpenInitialTab() (TabID, error) {
	if s.restoreLast {
		if u := s.LastVisitedURL(); u != nil {
			return s.AddTab(u)
		}
	}
	return s.AddTab(nil)
}

// CloseTab stops and detaches the tab at index, then removes it.
func (s *Session) CloseTab(index int) error {
	if index < 0 || index >= len(s.tabs) {
		return &IndexError{Index: index, Len: len(s.tabs)}
	}

	tab := s.tabs[index]
	previous := s.ActiveTabID()
	s.detach(tab)

	s.tabs = append(s.tabs[:index], s.tabs[index+1:]...)
	switch {
	case len(s.tabs) == 0:
		s.active = -1
	case index <= s.active:
		s.active = max(0, min(s.active-1, len(s.tabs)-1))
	}

	s.logger.Debugf("tab %s closed at %d, %d left", tab.id, index, len(s.tabs))
	s.tabList.Publish(TabListChange{Kind: TabClosed, Index: index, TabID: tab.id, Len: len(s.tabs)})
	if s.ActiveTabID() != previous {
		s.publishActive()
	}
	return nil
}

// SwitchTab makes the tab at index active.
func (s *Session) SwitchTab(index int) error {
	if index < 0 || index >= len(s.tabs) {
		return &IndexError{Index: index, Len: len(s.tabs)}
	}
	s.active = index
	s.publishActive()
	return nil
}

// Route runs cmd on the tab with the given id.
func (s *Session) Route(id TabID, cmd Command) error {
	tab, _ := s.lookup(id)
	if tab == nil {
		return fmt.Errorf("route %s to %s: %w", cmd.Kind, id, ErrTabNotFound)
	}

	switch cmd.Kind {
	case CommandLoad:
		if _, err := tab.Load(cmd.Input); err != nil {
			s.logger.Debugf("tab %s: %v", id, err)
			s.invalidInputs.Publish(InvalidInput{TabID: id, Input: cmd.Input, Err: err})
			return err
		}
	case CommandGoBack:
		tab.GoBack()
	case CommandGoForward:
		tab.GoForward()
	case CommandReload:
		tab.Reload()
	case CommandToggleContentMode:
		if mode, ok := tab.ToggleContentMode(); ok {
			s.logger.Debugf("tab %s: content mode %s for %s", id, mode, HostKey(tab.snapshot.URL))
		}
	default:
		return fmt.Errorf("browsing: unknown command kind %d", int(cmd.Kind))
	}
	return nil
}

// RouteActive runs cmd on the active tab.
func (s *Session) RouteActive(cmd Command) error {
	id := s.ActiveTabID()
	if id == "" {
		return fmt.Errorf("route %s: no active tab: %w", cmd.Kind, ErrTabNotFound)
	}
	return s.Route(id, cmd)
}

// OnEngineCommit applies a snapshot to the tab, persists the last visited
// URL and records the visit.
func (s *Session) OnEngineCommit(id TabID, snap Snapshot) {
	tab, index := s.lookup(id)
	if tab == nil {
		s.logger.Debugf("dropping commit for unknown tab %s", id)
		return
	}

	previousTitle := tab.snapshot.Title
	tab.ApplyEngineCommit(snap)
	current := tab.snapshot

	if current.URL != nil {
		visited := current.URL.String()
		if visited != s.lastVisited {
			s.lastVisited = visited
			if err := s.kv.SetString(KeyLastVisitedURL, visited); err != nil {
				s.logger.Warnf("failed to persist last visited URL: %v", err)
			}
		}
		if s.excludeFromHistory == nil || !s.excludeFromHistory(current.URL) {
			s.history.RecordVisit(current.URL, current.Title)
		}
	}

	if current.Title != previousTitle {
		s.titles.Publish(TitleChange{TabID: id, Index: index, Title: current.Title})
	}
}

// OnEngineDecidePolicy returns the content mode for a navigation of the
// tab. Unknown tabs get Recommended.
func (s *Session) OnEngineDecidePolicy(id TabID, requested *url.URL) ContentMode {
	tab, _ := s.lookup(id)
	if tab == nil {
		return ContentModeRecommended
	}
	return Decide(tab, requested).ContentMode
}

// OnEngineFailure classifies err. Only failures that are not cancellations
// are published.
func (s *Session) OnEngineFailure(id TabID, err error, provisional bool) {
	tab, index := s.lookup(id)
	if tab == nil {
		return
	}

	if tab.ApplyFailure(err) == FailureCancelled {
		s.logger.Debugf("tab %s: navigation cancelled: %v", id, err)
		return
	}
	s.logger.Warnf("tab %s: navigation failed (provisional=%t): %v", id, provisional, err)
	s.failures.Publish(NavigationFailure{TabID: id, Index: index, Err: err, Provisional: provisional})
}

// Len returns the number of open tabs.
func (s *Session) Len() int { return len(s.tabs) }

// ActiveIndex returns the active index; ok is false when no tab is open.
func (s *Session) ActiveIndex() (int, bool) {
	if len(s.tabs) == 0 {
		return -1, false
	}
	return s.active, true
}

// ActiveTabID returns the active tab's id or "" when no tab is open.
func (s *Session) ActiveTabID() TabID {
	if s.active < 0 || s.active >= len(s.tabs) {
		return ""
	}
	return s.tabs[s.active].id
}

// TabIDs returns tab ids in strip order.
func (s *Session) TabIDs() []TabID {
	ids := make([]TabID, len(s.tabs))
	for i, tab := range s.tabs {
		ids[i] = tab.id
	}
	return ids
}

// Index returns the strip position of the tab.
func (s *Session) Index(id TabID) (int, bool) {
	_, index := s.lookup(id)
	return index, index >= 0
}

// Snapshot returns the tab's current navigation state.
func (s *Session) Snapshot(id TabID) (Snapshot, error) {
	tab, _ := s.lookup(id)
	if tab == nil {
		return Snapshot{}, fmt.Errorf("snapshot of %s: %w", id, ErrTabNotFound)
	}
	return tab.Snapshot(), nil
}

// ContentMode returns the tab's current content mode.
func (s *Session) ContentMode(id TabID) (ContentMode, error) {
	tab, _ := s.lookup(id)
	if tab == nil {
		return ContentModeRecommended, fmt.Errorf("content mode of %s: %w", id, ErrTabNotFound)
	}
	return tab.ContentMode(), nil
}

// History returns the session's history store.
func (s *Session) History() *HistoryStore { return s.history }

// LastVisitedURL returns the persisted last visited URL, or nil.
func (s *Session) LastVisitedURL() *url.URL {
	if s.lastVisited == "" {
		return nil
	}
	u, err := url.Parse(s.lastVisited)
	if err != nil {
		return nil
	}
	return u
}

// StartPage returns the page loaded by tabs opened without a URL.
func (s *Session) StartPage() *url.URL {
	u := *s.startPage
	return &u
}

// Close detaches every tab and drops every observer. The session cannot be
// used afterwards.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for _, tab := range s.tabs {
		s.detach(tab)
	}
	s.logger.Infof("session closed with %d tabs", len(s.tabs))
	s.tabs = nil
	s.active = -1

	s.activeChanged.Clear()
	s.tabList.Clear()
	s.failures.Clear()
	s.invalidInputs.Clear()
	s.titles.Clear()
	s.commands.Clear()
}

// OnActiveTabChanged subscribes to active tab changes.
func (s *Session) OnActiveTabChanged(fn func(ActiveTabChange)) *Subscription {
	return s.activeChanged.Subscribe(fn)
}

// OnTabListChanged subscribes to tabs being added and closed.
func (s *Session) OnTabListChanged(fn func(TabListChange)) *Subscription {
	return s.tabList.Subscribe(fn)
}

// OnNavigationFailed subscribes to navigation failures of every tab.
func (s *Session) OnNavigationFailed(fn func(NavigationFailure)) *Subscription {
	return s.failures.Subscribe(fn)
}

// OnInvalidInput subscribes to address-bar input that did not resolve.
func (s *Session) OnInvalidInput(fn func(InvalidInput)) *Subscription {
	return s.invalidInputs.Subscribe(fn)
}

// OnTitles subscribes to title changes of every tab.
func (s *Session) OnTitles(fn func(TitleChange)) *Subscription {
	return s.titles.Subscribe(fn)
}

// OnCommand subscribes to commands handled by every tab.
func (s *Session) OnCommand(fn func(CommandEvent)) *Subscription {
	return s.commands.Subscribe(fn)
}

// SubscribeSnapshot delivers the tab's current snapshot immediately and then
// every new one until unsubscribed or the tab closes.
func (s *Session) SubscribeSnapshot(id TabID, fn func(Snapshot)) (*Subscription, error) {
	tab, _ := s.lookup(id)
	if tab == nil {
		return nil, fmt.Errorf("subscribe to %s: %w", id, ErrTabNotFound)
	}
	sub := tab.Subscribe(fn)
	fn(tab.Snapshot())
	return sub, nil
}

func (s *Session) lookup(id TabID) (*Tab, int) {
	for i, tab := range s.tabs {
		if tab.id == id {
			return tab, i
		}
	}
	return nil, -1
}

func (s *Session) publishActive() {
	s.activeChanged.Publish(ActiveTabChange{Index: s.active, TabID: s.ActiveTabID()})
}

// detach stops the engine and cuts its delegate off before the engine is
// released, so nothing it reports afterwards reaches the session.
func (s *Session) detach(tab *Tab) {
	tab.engine.Stop()
	if binding, ok := s.bindings[tab.id]; ok {
		binding.detached = true
		delete(s.bindings, tab.id)
	}
	if sub, ok := s.tabSubs[tab.id]; ok {
		sub.Unsubscribe()
		delete(s.tabSubs, tab.id)
	}
	tab.close()
	tab.engine.Detach()
}

// tabBinding is the EngineDelegate handed to a tab's engine.
type tabBinding struct {
	session  *Session
	id       TabID
	detached bool
}

func (b *tabBinding) DidCommit(s Snapshot) {
	if b.detached {
		return
	}
	b.session.OnEngineCommit(b.id, s)
}

func (b *tabBinding) DecidePolicy(requested *url.URL) ContentMode {
	if b.detached {
		return ContentModeRecommended
	}
	return b.session.OnEngineDecidePolicy(b.id, requested)
}

func (b *tabBinding) DidFail(err error, provisional bool) {
	if b.detached {
		return
	}
	b.session.OnEngineFailure(b.id, err, provisional)
}
