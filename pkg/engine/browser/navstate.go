package browser

// navKind is the command that started the navigation being committed.
type navKind int

const (
	navNew navKind = iota
	navBack
	navForward
	navReload
)

// navState mirrors the page's session history so back/forward availability
// can be reported with every snapshot. Chromium does not expose it directly.
type navState struct {
	entries []string
	index   int
	pending navKind
}

func newNavState() *navState {
	return &navState{index: -1}
}

// begin records the command that will produce the next main-frame commit.
func (n *navState) begin(kind navKind) {
	n.pending = kind
}

// committed applies a main-frame commit to url.
func (n *navState) committed(url string) {
	kind := n.pending
	n.pending = navNew

	switch kind {
	case navBack:
		if n.index > 0 {
			n.index--
			n.entries[n.index] = url
			return
		}
	case navForward:
		if n.index < len(n.entries)-1 {
			n.index++
			n.entries[n.index] = url
			return
		}
	case navReload:
		if n.index >= 0 {
			n.entries[n.index] = url
			return
		}
	}

	if n.index >= 0 && n.entries[n.index] == url {
		return
	}
	n.entries = append(n.entries[:n.index+1], url)
	n.index = len(n.entries) - 1
}

// abandon drops a pending command whose navigation never committed.
func (n *navState) abandon() {
	n.pending = navNew
}

func (n *navState) canGoBack() bool {
	return n.index > 0
}

func (n *navState) canGoForward() bool {
	return n.index >= 0 && n.index < len(n.entries)-1
}

func (n *navState) empty() bool {
	return n.index < 0
}
