package browsing

import "net/url"

// Decision is the navigation policy outcome for one request.
type Decision struct {
	Allow       bool
	ContentMode ContentMode
}

// Decide is the navigation policy. Every request is allowed; the only
// choice is which content mode the engine applies before it commits.
func Decide(t *Tab, requested *url.URL) Decision {
	return Decision{
		Allow:       true,
		ContentMode: t.DecideContentMode(HostKey(requested)),
	}
}
