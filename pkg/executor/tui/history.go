package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/entrhq/surf/pkg/browsing"
)

// historyListItem adapts a history entry to list.Item.
type historyListItem struct {
	entry browsing.HistoryItem
}

func (i historyListItem) Title() string {
	if strings.TrimSpace(i.entry.Title) == "" {
		return i.entry.URL
	}
	return i.entry.Title
}

func (i historyListItem) Description() string {
	return fmt.Sprintf("%s · %s", i.entry.URL, i.entry.VisitDate.Local().Format("Jan 2 15:04"))
}

func (i historyListItem) FilterValue() string { return i.entry.Title + " " + i.entry.URL }

// historyResult tells the model what the overlay decided.
type historyResult struct {
	open  string
	close bool
}

type historyKeyMap struct {
	Open     key.Binding
	Delete   key.Binding
	ClearAll key.Binding
	Close    key.Binding
}

// historyOverlay lists visited pages newest first.
type historyOverlay struct {
	list  list.Model
	store *browsing.HistoryStore
	limit int
	keys  historyKeyMap
}

func newHistoryOverlay(store *browsing.HistoryStore, limit int) *historyOverlay {
	keys := historyKeyMap{
		Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		ClearAll: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "clear all")),
		Close:    key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("esc", "close")),
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(salmonPink).
		BorderForeground(salmonPink)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(coralPink).
		BorderForeground(salmonPink)

	l := list.New(nil, delegate, 60, 20)
	l.Title = "History"
	l.Styles.Title = OverlayTitleStyle
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("page", "pages")
	l.DisableQuitKeybindings()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Open, keys.Delete, keys.ClearAll, keys.Close}
	}

	h := &historyOverlay{list: l, store: store, limit: limit, keys: keys}
	h.refresh()
	return h
}

// refresh reloads the list from the store.
func (h *historyOverlay) refresh() {
	entries := h.store.Items()
	if h.limit > 0 && len(entries) > h.limit {
		entries = entries[:h.limit]
	}
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = historyListItem{entry: e}
	}
	h.list.SetItems(items)
}

func (h *historyOverlay) setSize(width, height int) {
	h.list.SetSize(max(40, width-8), max(8, height-6))
}

// update handles a message while the overlay is open.
func (h *historyOverlay) update(msg tea.Msg) (historyResult, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, h.keys.Close):
			return historyResult{close: true}, nil
		case key.Matches(keyMsg, h.keys.Open):
			if item, ok := h.list.SelectedItem().(historyListItem); ok {
				return historyResult{open: item.entry.URL, close: true}, nil
			}
			return historyResult{}, nil
		case key.Matches(keyMsg, h.keys.Delete):
			if len(h.list.Items()) > 0 {
				// Entries are shown in store order, so the list index is the
				// store index.
				_ = h.store.RemoveAt(h.list.Index())
			}
			return historyResult{}, nil
		case key.Matches(keyMsg, h.keys.ClearAll):
			h.store.ClearAll()
			return historyResult{}, nil
		}
	}

	var cmd tea.Cmd
	h.list, cmd = h.list.Update(msg)
	return historyResult{}, cmd
}

func (h *historyOverlay) View() string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(salmonPink).
		Padding(0, 1)
	if len(h.list.Items()) == 0 {
		return box.Render(OverlayTitleStyle.Render("History") + "\n\n" +
			OverlayHelpStyle.Render("No pages visited yet. Press esc to close."))
	}
	return box.Render(h.list.View())
}
