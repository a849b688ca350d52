package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const maxTabTitle = 24

// View renders the current state of the TUI
func (m *model) View() string {
	if m.quitting {
		return ""
	}

	baseView := lipgloss.JoinVertical(
		lipgloss.Left,
		m.buildTabStrip(),
		m.buildToolbar(),
		m.buildProgress(),
		m.buildPage(),
		m.buildStatusBar(),
	)
	return m.applyOverlays(baseView)
}

// buildTabStrip renders one label per tab with the active one highlighted.
func (m *model) buildTabStrip() string {
	ids := m.session.TabIDs()
	labels := make([]string, 0, len(ids))
	for i, id := range ids {
		label := tabLabel(m.titles[id])
		if m.settings.ShowTabNumbers {
			label = fmt.Sprintf("%d %s", i+1, label)
		}
		if id == m.activeID {
			labels = append(labels, activeTabStyle.Render(label))
		} else {
			labels = append(labels, inactiveTabStyle.Render(label))
		}
	}
	strip := lipgloss.JoinHorizontal(lipgloss.Top, labels...)
	return tabStripStyle.Width(max(0, m.width-2)).Render(strip)
}

func tabLabel(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "New Tab"
	}
	runes := []rune(title)
	if len(runes) > maxTabTitle {
		return string(runes[:maxTabTitle-1]) + "…"
	}
	return title
}

// buildToolbar renders back/forward, the address bar and the content mode.
func (m *model) buildToolbar() string {
	back := navDisabledStyle.Render("←")
	if m.snapshot.CanGoBack {
		back = navEnabledStyle.Render("←")
	}
	forward := navDisabledStyle.Render("→")
	if m.snapshot.CanGoForward {
		forward = navEnabledStyle.Render("→")
	}

	var address string
	style := addressBoxStyle
	switch {
	case m.editing:
		address = m.address.View()
		style = addressFocusedStyle
	case m.snapshot.URL != nil:
		address = m.snapshot.URLString()
	default:
		address = tipsStyle.Render(m.address.Placeholder)
	}
	box := style.Width(max(20, m.width-22)).Render(address)

	mode := modeStyle.Render("[" + m.mode.String() + "]")
	controls := lipgloss.JoinHorizontal(lipgloss.Center, " ", back, " ", forward, " ")
	return lipgloss.JoinHorizontal(lipgloss.Center, controls, box, " ", mode)
}

func (m *model) buildProgress() string {
	if !m.snapshot.IsLoading {
		return ""
	}
	return " " + m.progress.ViewAs(m.snapshot.Progress)
}

// buildPage renders what is known about the active page.
func (m *model) buildPage() string {
	var b strings.Builder
	b.WriteString("\n")
	if m.activeID == "" {
		b.WriteString(tipsStyle.Render("  No open tabs."))
		return b.String()
	}

	title := m.snapshot.Title
	if strings.TrimSpace(title) == "" {
		title = "Untitled"
	}
	b.WriteString("  " + pageTitleStyle.Render(title) + "\n")
	if u := m.snapshot.URLString(); u != "" {
		b.WriteString("  " + pageURLStyle.Render(u) + "\n")
	}

	lines := strings.Count(b.String(), "\n")
	// Tab strip, toolbar, progress and status bar take roughly eight lines.
	for i := lines; i < m.height-8; i++ {
		b.WriteString("\n")
	}
	return b.String()
}

func (m *model) buildStatusBar() string {
	var state string
	switch {
	case m.snapshot.IsLoading:
		state = fmt.Sprintf("%s Loading %d%%", m.spinner.View(), int(m.snapshot.Progress*100))
	case m.activeID != "":
		state = "Ready"
	}
	if index, ok := m.session.ActiveIndex(); ok {
		state = fmt.Sprintf("Tab %d/%d · %s", index+1, m.session.Len(), state)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		statusBarStyle.Render(state),
		statusBarStyle.Render(m.help.View(m.keys)),
	)
}

// applyOverlays applies overlays and toasts to the base view
func (m *model) applyOverlays(baseView string) string {
	if m.overlay.isActive() && m.overlay.mode == overlayHistory {
		baseView = renderOverlay(baseView, m.history.View(), m.width, m.height)
	}

	// Add toast notification as overlay if active and not expired
	if m.toast.active && m.now().Before(m.toast.showUntil) {
		baseView = renderToastOverlay(baseView, m.renderToast())
	}
	return baseView
}

// renderToast renders a toast notification
func (m *model) renderToast() string {
	if !m.toast.active || m.now().After(m.toast.showUntil) {
		return ""
	}

	boxWidth := m.width - 4
	if boxWidth < 40 {
		boxWidth = 40
	}

	var content strings.Builder
	content.WriteString(fmt.Sprintf("%s %s", m.toast.icon, m.toast.message))
	if m.toast.details != "" {
		content.WriteString("\n")
		content.WriteString(m.toast.details)
	}

	borderColor := salmonPink
	if m.toast.isError {
		borderColor = errorRed
	}

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(boxWidth)

	return "\n" + boxStyle.Render(content.String()) + "\n"
}

// showToast displays a toast notification to the user
func (m *model) showToast(message, details, icon string, isError bool) {
	m.toast.active = true
	m.toast.message = message
	m.toast.details = details
	m.toast.icon = icon
	m.toast.isError = isError
	m.toast.showUntil = m.now().Add(m.settings.ToastDuration)
	m.toastPending = true
}
