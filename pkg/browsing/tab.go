package browsing

import (
	"net/url"

	"github.com/google/uuid"
)

// TabID identifies a tab for its whole lifetime.
type TabID string

func newTabID() TabID {
	return TabID(uuid.NewString())
}

// CommandKind names a user command routed to a tab.
type CommandKind int

const (
	CommandLoad CommandKind = iota
	CommandGoBack
	CommandGoForward
	CommandReload
	CommandToggleContentMode
)

func (k CommandKind) String() string {
	switch k {
	case CommandLoad:
		return "load"
	case CommandGoBack:
		return "back"
	case CommandGoForward:
		return "forward"
	case CommandReload:
		return "reload"
	case CommandToggleContentMode:
		return "toggle_mode"
	default:
		return "unknown"
	}
}

// Command is a user command for one tab. Input is only used by CommandLoad.
type Command struct {
	Kind  CommandKind
	Input string
}

// LoadCommand returns a command that loads address-bar input.
func LoadCommand(input string) Command {
	return Command{Kind: CommandLoad, Input: input}
}

// Commands without arguments.
var (
	GoBackCommand            = Command{Kind: CommandGoBack}
	GoForwardCommand         = Command{Kind: CommandGoForward}
	ReloadCommand            = Command{Kind: CommandReload}
	ToggleContentModeCommand = Command{Kind: CommandToggleContentMode}
)

// CommandEvent reports a command handled by a tab. Forwarded is false when
// the command was a no-op, e.g. going back with no back history or toggling
// the content mode before anything committed.
type CommandEvent struct {
	TabID     TabID
	Kind      CommandKind
	URL       *url.URL
	Forwarded bool
}

// Tab is one browsing context: an engine plus the navigation state last
// reported by it and the tab's private content mode overrides.
type Tab struct {
	id        TabID
	engine    Engine
	snapshot  Snapshot
	overrides map[string]ContentMode
	mode      ContentMode

	snapshots Registry[Snapshot]
	commands  Registry[CommandEvent]
}

func newTab(id TabID, engine Engine, mode ContentMode) *Tab {
	if !mode.Valid() {
		mode = ContentModeRecommended
	}
	return &Tab{
		id:        id,
		engine:    engine,
		overrides: make(map[string]ContentMode),
		mode:      mode,
	}
}

// ID returns the tab's identifier.
func (t *Tab) ID() TabID { return t.id }

// Snapshot returns the last committed navigation state.
func (t *Tab) Snapshot() Snapshot {
	s := t.snapshot
	if s.URL != nil {
		u := *s.URL
		s.URL = &u
	}
	return s
}

// ContentMode returns the mode most recently chosen for the tab.
func (t *Tab) ContentMode() ContentMode { return t.mode }

// Overrides returns a copy of the per-host content mode table.
func (t *Tab) Overrides() map[string]ContentMode {
	out := make(map[string]ContentMode, len(t.overrides))
	for host, mode := range t.overrides {
		out[host] = mode
	}
	return out
}

// Load resolves input and asks the engine to load it.
func (t *Tab) Load(input string) (*url.URL, error) {
	u, err := ResolveInput(input)
	if err != nil {
		return nil, err
	}
	t.LoadURL(u)
	return u, nil
}

// LoadURL asks the engine to load u.
func (t *Tab) LoadURL(u *url.URL) {
	t.engine.Load(u)
	t.commands.Publish(CommandEvent{TabID: t.id, Kind: CommandLoad, URL: u, Forwarded: true})
}

// GoBack forwards to the engine only when the last commit allowed it.
func (t *Tab) GoBack() bool {
	ok := t.snapshot.CanGoBack
	if ok {
		t.engine.GoBack()
	}
	t.commands.Publish(CommandEvent{TabID: t.id, Kind: CommandGoBack, URL: t.snapshot.URL, Forwarded: ok})
	return ok
}

// GoForward forwards to the engine only when the last commit allowed it.
func (t *Tab) GoForward() bool {
	ok := t.snapshot.CanGoForward
	if ok {
		t.engine.GoForward()
	}
	t.commands.Publish(CommandEvent{TabID: t.id, Kind: CommandGoForward, URL: t.snapshot.URL, Forwarded: ok})
	return ok
}

// Reload is always forwarded.
func (t *Tab) Reload() {
	t.engine.Reload()
	t.commands.Publish(CommandEvent{TabID: t.id, Kind: CommandReload, URL: t.snapshot.URL, Forwarded: true})
}

// ReloadWithFreshContentMode reloads bypassing the cache. Content mode is
// only negotiated when a navigation is decided, so a plain reload would
// keep the old one.
func (t *Tab) ReloadWithFreshContentMode() {
	t.engine.ReloadFromOrigin()
}

// ToggleContentMode advances the tab's mode one step in the cycle, records
// it as the override for the current host and reloads. It does nothing and
// returns false while no URL with a host is committed.
func (t *Tab) ToggleContentMode() (ContentMode, bool) {
	host := HostKey(t.snapshot.URL)
	if host == "" {
		t.commands.Publish(CommandEvent{TabID: t.id, Kind: CommandToggleContentMode, Forwarded: false})
		return t.mode, false
	}

	next := t.mode.Next()
	t.overrides[host] = next
	t.mode = next
	t.ReloadWithFreshContentMode()
	t.commands.Publish(CommandEvent{TabID: t.id, Kind: CommandToggleContentMode, URL: t.snapshot.URL, Forwarded: true})
	return next, true
}

// DecideContentMode returns the override for host, or the tab's current mode.
func (t *Tab) DecideContentMode(host string) ContentMode {
	if mode, ok := t.overrides[host]; ok {
		return mode
	}
	return t.mode
}

// ApplyEngineCommit replaces the snapshot in one step and publishes it.
func (t *Tab) ApplyEngineCommit(s Snapshot) {
	t.snapshot = s.normalized()
	t.snapshots.Publish(t.Snapshot())
}

// ApplyFailure classifies err. A failure clears the loading flag; a
// cancellation leaves the state untouched.
func (t *Tab) ApplyFailure(err error) FailureKind {
	kind := ClassifyFailure(err)
	if kind == FailureFailed && t.snapshot.IsLoading {
		t.snapshot.IsLoading = false
		t.snapshots.Publish(t.Snapshot())
	}
	return kind
}

// Subscribe delivers every new snapshot of the tab.
func (t *Tab) Subscribe(fn func(Snapshot)) *Subscription {
	return t.snapshots.Subscribe(fn)
}

// OnCommand delivers every command handled by the tab, including no-ops.
func (t *Tab) OnCommand(fn func(CommandEvent)) *Subscription {
	return t.commands.Subscribe(fn)
}

// close drops every observer. The engine is released by the Session.
func (t *Tab) close() {
	t.snapshots.Clear()
	t.commands.Clear()
}
