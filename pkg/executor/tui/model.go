package tui

import (
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/entrhq/surf/pkg/browsing"
	"github.com/entrhq/surf/pkg/logging"
)

// toastNotification represents a temporary notification message
type toastNotification struct {
	active    bool
	message   string
	details   string
	icon      string
	isError   bool
	showUntil time.Time
}

// model represents the state of the TUI application. Every field is owned
// by the Bubble Tea update goroutine, and so is the session.
type model struct {
	// Bubble Tea components
	address  textinput.Model
	progress progress.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap

	// Session integration
	session   *browsing.Session
	subs      []*browsing.Subscription
	activeSub *browsing.Subscription
	activeID  browsing.TabID
	snapshot  browsing.Snapshot
	mode      browsing.ContentMode
	titles    map[browsing.TabID]string

	// UI state
	overlay      *overlayState
	history      *historyOverlay
	toast        *toastNotification
	toastPending bool
	editing      bool
	quitting     bool

	settings Settings
	logger   *logging.Logger
	copy     func(string) error
	now      func() time.Time

	// Window dimensions
	width  int
	height int
}

func newModel(session *browsing.Session, settings Settings, logger *logging.Logger) *model {
	if logger == nil {
		logger = logging.Discard("tui")
	}

	address := textinput.New()
	address.Prompt = ""
	address.Placeholder = "Search or enter address"
	address.CharLimit = 2048

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = navEnabledStyle

	m := &model{
		address: address,
		progress: progress.New(
			progress.WithGradient(string(salmonPink), string(mintGreen)),
			progress.WithoutPercentage(),
		),
		spinner:  s,
		help:     help.New(),
		keys:     defaultKeyMap(),
		session:  session,
		titles:   make(map[browsing.TabID]string),
		overlay:  newOverlayState(),
		toast:    &toastNotification{},
		settings: settings,
		logger:   logger,
		copy:     clipboard.WriteAll,
		now:      time.Now,
		width:    80,
		height:   24,
	}
	m.history = newHistoryOverlay(session.History(), settings.HistoryLimit)
	m.subscribe()
	if id := session.ActiveTabID(); id != "" {
		m.watch(id)
	}
	return m
}

// subscribe wires session events into the model. Callbacks run wherever the
// session publishes, which is always the update goroutine.
func (m *model) subscribe() {
	m.subs = append(m.subs,
		m.session.OnActiveTabChanged(func(c browsing.ActiveTabChange) {
			m.watch(c.TabID)
		}),
		m.session.OnTabListChanged(func(c browsing.TabListChange) {
			if c.Kind == browsing.TabClosed {
				delete(m.titles, c.TabID)
			}
			if c.Len == 0 {
				m.quitting = true
			}
		}),
		m.session.OnTitles(func(c browsing.TitleChange) {
			m.titles[c.TabID] = c.Title
		}),
		m.session.OnNavigationFailed(func(f browsing.NavigationFailure) {
			message := "Navigation failed"
			if f.TabID != m.activeID {
				message = "Navigation failed in another tab"
			}
			m.showToast(message, f.Message(), "✗", true)
		}),
		m.session.OnInvalidInput(func(in browsing.InvalidInput) {
			m.showToast("Invalid address", in.Err.Error(), "✗", true)
		}),
		m.session.OnCommand(func(e browsing.CommandEvent) {
			if e.TabID != m.activeID || e.Kind != browsing.CommandToggleContentMode {
				return
			}
			if !e.Forwarded {
				m.showToast("Nothing to switch", "Load a page before changing its content mode.", "ℹ", false)
				return
			}
			m.refreshMode()
			m.showToast("Content mode: "+m.mode.String(), "", "✓", false)
		}),
		m.session.History().OnChange(func(browsing.HistoryChange) {
			m.history.refresh()
		}),
	)
}

// watch points the toolbar at the tab with the given id.
func (m *model) watch(id browsing.TabID) {
	m.activeSub.Unsubscribe()
	m.activeSub = nil
	m.activeID = id
	m.snapshot = browsing.Snapshot{}
	m.mode = browsing.ContentModeRecommended
	m.stopEditing()

	if id == "" {
		return
	}
	sub, err := m.session.SubscribeSnapshot(id, func(s browsing.Snapshot) {
		m.snapshot = s
		m.refreshMode()
	})
	if err != nil {
		m.logger.Warnf("subscribe to tab %s: %v", id, err)
		return
	}
	m.activeSub = sub
	if snap, err := m.session.Snapshot(id); err == nil {
		m.snapshot = snap
	}
	m.refreshMode()
}

func (m *model) refreshMode() {
	if mode, err := m.session.ContentMode(m.activeID); err == nil {
		m.mode = mode
	}
}

// release drops every session subscription held by the model.
func (m *model) release() {
	m.activeSub.Unsubscribe()
	m.activeSub = nil
	for _, sub := range m.subs {
		sub.Unsubscribe()
	}
	m.subs = nil
}

func (m *model) startEditing() tea.Cmd {
	m.editing = true
	m.address.SetValue(m.snapshot.URLString())
	m.address.CursorEnd()
	return m.address.Focus()
}

func (m *model) stopEditing() {
	m.editing = false
	m.address.Blur()
	m.address.SetValue("")
}
