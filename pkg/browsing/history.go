package browsing

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/entrhq/surf/pkg/logging"
	"github.com/google/uuid"
)

const historyFormatVersion = 1

// HistoryItem is one recorded visit. Items are never mutated after creation.
type HistoryItem struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	VisitDate time.Time `json:"visit_date"`
}

type persistedHistory struct {
	Version int           `json:"version"`
	Items   []HistoryItem `json:"items"`
}

// HistoryChange is published after every successful mutation of the list.
type HistoryChange struct {
	Len int
}

// HistoryStore keeps the newest-first, URL-deduplicated visit list and
// writes it to a KVStore after every insert or removal.
//
// A repeat visit to a recorded URL is a no-op: the existing entry keeps its
// position and visit date.
type HistoryStore struct {
	kv      KVStore
	items   []HistoryItem
	keys    map[string]struct{}
	now     func() time.Time
	logger  *logging.Logger
	changes Registry[HistoryChange]
}

// HistoryOption configures a HistoryStore.
type HistoryOption func(*HistoryStore)

// WithHistoryClock overrides the clock used for visit dates.
func WithHistoryClock(now func() time.Time) HistoryOption {
	return func(h *HistoryStore) { h.now = now }
}

// WithHistoryLogger sets the logger for persistence problems.
func WithHistoryLogger(logger *logging.Logger) HistoryOption {
	return func(h *HistoryStore) { h.logger = logger }
}

// NewHistoryStore creates an empty store backed by kv. Call LoadFromStore to
// read persisted items.
func NewHistoryStore(kv KVStore, opts ...HistoryOption) *HistoryStore {
	h := &HistoryStore{
		kv:   kv,
		keys: make(map[string]struct{}),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logging.Discard("history")
	}
	return h
}

// LoadFromStore replaces the in-memory list with the persisted one.
// Missing or undecodable data yields an empty history.
func (h *HistoryStore) LoadFromStore() {
	h.items = nil
	h.keys = make(map[string]struct{})

	data, ok := h.kv.GetBlob(KeyHistory)
	if !ok || len(data) == 0 {
		return
	}

	var stored persistedHistory
	if err := json.Unmarshal(data, &stored); err != nil {
		h.logger.Warnf("discarding undecodable history (%d bytes): %v", len(data), err)
		return
	}

	for _, item := range stored.Items {
		key := NormalizeURLString(item.URL)
		if item.URL == "" {
			continue
		}
		if _, dup := h.keys[key]; dup {
			continue
		}
		h.keys[key] = struct{}{}
		h.items = append(h.items, item)
	}
	h.logger.Debugf("loaded %d history items", len(h.items))
}

// RecordVisit inserts a new item at the front unless an item with the same
// normalized URL already exists. It reports whether an item was inserted.
func (h *HistoryStore) RecordVisit(u *url.URL, title string) bool {
	if u == nil {
		return false
	}
	key := NormalizeURL(u)
	if _, exists := h.keys[key]; exists {
		return false
	}

	item := HistoryItem{
		ID:        uuid.NewString(),
		URL:       u.String(),
		Title:     title,
		VisitDate: h.now(),
	}
	h.items = append([]HistoryItem{item}, h.items...)
	h.keys[key] = struct{}{}
	h.persist()
	return true
}

// ClearAll empties the list.
func (h *HistoryStore) ClearAll() {
	h.items = nil
	h.keys = make(map[string]struct{})
	h.persist()
}

// RemoveAt removes the item at index.
func (h *HistoryStore) RemoveAt(index int) error {
	if index < 0 || index >= len(h.items) {
		return &IndexError{Index: index, Len: len(h.items)}
	}
	delete(h.keys, NormalizeURLString(h.items[index].URL))
	h.items = append(h.items[:index], h.items[index+1:]...)
	h.persist()
	return nil
}

// RemoveMatching removes the item recorded for u and reports whether one existed.
func (h *HistoryStore) RemoveMatching(u *url.URL) bool {
	key := NormalizeURL(u)
	if _, exists := h.keys[key]; !exists {
		return false
	}
	for i, item := range h.items {
		if NormalizeURLString(item.URL) == key {
			delete(h.keys, key)
			h.items = append(h.items[:i], h.items[i+1:]...)
			h.persist()
			return true
		}
	}
	return false
}

// Contains reports whether u has been recorded.
func (h *HistoryStore) Contains(u *url.URL) bool {
	_, ok := h.keys[NormalizeURL(u)]
	return ok
}

// Items returns a copy of the list, newest first.
func (h *HistoryStore) Items() []HistoryItem {
	out := make([]HistoryItem, len(h.items))
	copy(out, h.items)
	return out
}

// Len returns the number of items.
func (h *HistoryStore) Len() int {
	return len(h.items)
}

// Search returns items whose title or URL contains query, case-insensitively,
// newest first.
func (h *HistoryStore) Search(query string) []HistoryItem {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return h.Items()
	}
	var out []HistoryItem
	for _, item := range h.items {
		if strings.Contains(strings.ToLower(item.Title), q) || strings.Contains(strings.ToLower(item.URL), q) {
			out = append(out, item)
		}
	}
	return out
}

// OnChange subscribes to list mutations.
func (h *HistoryStore) OnChange(fn func(HistoryChange)) *Subscription {
	return h.changes.Subscribe(fn)
}

// persist writes the whole list. Failures are logged and swallowed so that
// losing history never blocks browsing.
func (h *HistoryStore) persist() {
	defer h.changes.Publish(HistoryChange{Len: len(h.items)})

	items := h.items
	if items == nil {
		items = []HistoryItem{}
	}
	data, err := json.Marshal(persistedHistory{Version: historyFormatVersion, Items: items})
	if err != nil {
		h.logger.Errorf("failed to encode history: %v", err)
		return
	}
	if err := h.kv.SetBlob(KeyHistory, data); err != nil {
		h.logger.Errorf("failed to persist history: %v", err)
	}
}
