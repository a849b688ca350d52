package tui

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/entrhq/surf/pkg/browsing"
)

// openInitialTabMsg asks the model to open the first tab.
type openInitialTabMsg struct{}

// toastExpiredMsg triggers a redraw once a toast times out.
type toastExpiredMsg struct{}

// Init opens the first tab and starts the spinner.
func (m *model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return openInitialTabMsg{} },
		m.spinner.Tick,
	)
}

// Update handles incoming messages and updates the model state
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case dispatchMsg:
		msg.fn()
	case openInitialTabMsg:
		if m.session.Len() == 0 {
			if _, err := m.session.OpenInitialTab(); err != nil {
				m.logger.Errorf("open initial tab: %v", err)
				m.showToast("Could not open a tab", err.Error(), "✗", true)
			}
		}
	case tea.WindowSizeMsg:
		m.handleWindowResize(msg)
	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
	case toastExpiredMsg:
		if m.toast.active && !m.now().Before(m.toast.showUntil) {
			m.toast.active = false
		}
	case tea.KeyMsg:
		cmd = m.handleKey(msg)
	default:
		if m.editing {
			m.address, cmd = m.address.Update(msg)
		}
	}

	if m.quitting {
		return m, tea.Quit
	}
	return m, tea.Batch(cmd, m.takeToastTimer())
}

func (m *model) handleWindowResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.progress.Width = max(10, msg.Width-2)
	m.address.Width = max(10, msg.Width-24)
	m.help.Width = msg.Width
	m.history.setSize(msg.Width, msg.Height)
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return nil
	}

	if m.overlay.isActive() {
		result, cmd := m.history.update(msg)
		if result.close {
			m.overlay.deactivate()
		}
		if result.open != "" {
			m.route(browsing.LoadCommand(result.open))
		}
		return cmd
	}

	if m.editing {
		return m.handleAddressKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.NewTab):
		if _, err := m.session.AddTab(nil); err != nil {
			m.showToast("Could not open a tab", err.Error(), "✗", true)
		}
	case key.Matches(msg, m.keys.CloseTab):
		if index, ok := m.session.ActiveIndex(); ok {
			if err := m.session.CloseTab(index); err != nil {
				m.logger.Warnf("close tab %d: %v", index, err)
			}
		}
	case key.Matches(msg, m.keys.NextTab):
		m.cycleTab(1)
	case key.Matches(msg, m.keys.PrevTab):
		m.cycleTab(-1)
	case key.Matches(msg, m.keys.FocusAddress):
		return m.startEditing()
	case key.Matches(msg, m.keys.Back):
		m.route(browsing.GoBackCommand)
	case key.Matches(msg, m.keys.Forward):
		m.route(browsing.GoForwardCommand)
	case key.Matches(msg, m.keys.Reload):
		m.route(browsing.ReloadCommand)
	case key.Matches(msg, m.keys.ToggleMode):
		m.route(browsing.ToggleContentModeCommand)
	case key.Matches(msg, m.keys.CopyURL):
		m.copyURL()
	case key.Matches(msg, m.keys.History):
		m.history.refresh()
		m.history.setSize(m.width, m.height)
		m.overlay.activate(overlayHistory)
	}
	return nil
}

func (m *model) handleAddressKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.stopEditing()
		return nil
	case tea.KeyEnter:
		input := m.address.Value()
		m.stopEditing()
		m.route(browsing.LoadCommand(input))
		return nil
	}

	var cmd tea.Cmd
	m.address, cmd = m.address.Update(msg)
	return cmd
}

// route sends cmd to the active tab. Invalid input is reported through the
// session's invalid input event.
func (m *model) route(cmd browsing.Command) {
	err := m.session.RouteActive(cmd)
	if err == nil || errors.Is(err, browsing.ErrInvalidURLInput) {
		return
	}
	m.logger.Warnf("route %s: %v", cmd.Kind, err)
	m.showToast("Command failed", err.Error(), "✗", true)
}

func (m *model) cycleTab(step int) {
	n := m.session.Len()
	index, ok := m.session.ActiveIndex()
	if !ok || n < 2 {
		return
	}
	next := (index + step + n) % n
	if err := m.session.SwitchTab(next); err != nil {
		m.logger.Warnf("switch to tab %d: %v", next, err)
	}
}

func (m *model) copyURL() {
	u := m.snapshot.URLString()
	if u == "" {
		m.showToast("Nothing to copy", "This tab has no page yet.", "ℹ", false)
		return
	}
	if err := m.copy(u); err != nil {
		m.showToast("Copy failed", err.Error(), "✗", true)
		return
	}
	m.showToast("Copied URL", u, "✓", false)
}

// takeToastTimer returns the expiry timer of a toast shown since the last
// update, if any.
func (m *model) takeToastTimer() tea.Cmd {
	if !m.toastPending {
		return nil
	}
	m.toastPending = false
	return tea.Tick(m.settings.ToastDuration, func(time.Time) tea.Msg { return toastExpiredMsg{} })
}
