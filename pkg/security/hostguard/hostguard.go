// Package hostguard matches URLs against glob patterns.
//
// A pattern that contains a scheme separator (":") is matched against the
// whole normalized URL, e.g. "about:*" or "https://*.example.com/admin/*".
// Any other pattern is matched against the lowercase ASCII hostname, e.g.
// "example.com" or "*.example.com". "*" matches any run of characters,
// including dots and slashes.
package hostguard

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/entrhq/surf/pkg/browsing"
	"github.com/gobwas/glob"
)

// ErrDenied is matched by every *Violation.
var ErrDenied = errors.New("hostguard: URL not allowed")

type rule struct {
	pattern  string
	g        glob.Glob
	matchURL bool
}

// Matcher is a compiled list of patterns.
type Matcher struct {
	rules []rule
}

// NewMatcher compiles patterns. Empty patterns are skipped.
func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		matchURL := strings.Contains(p, ":")
		compiled := p
		if !matchURL {
			compiled = strings.ToLower(p)
		}
		g, err := glob.Compile(compiled)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern '%s': %w", p, err)
		}
		m.rules = append(m.rules, rule{pattern: p, g: g, matchURL: matchURL})
	}
	return m, nil
}

// Len returns the number of compiled patterns.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}

// Match reports whether u matches any pattern.
func (m *Matcher) Match(u *url.URL) bool {
	_, ok := m.find(u)
	return ok
}

func (m *Matcher) find(u *url.URL) (string, bool) {
	if m == nil || u == nil {
		return "", false
	}
	host := browsing.HostKey(u)
	full := browsing.NormalizeURL(u)
	for _, r := range m.rules {
		subject := host
		if r.matchURL {
			subject = full
		}
		if subject != "" && r.g.Match(subject) {
			return r.pattern, true
		}
	}
	return "", false
}

// Violation describes why a URL was rejected.
type Violation struct {
	URL     string
	Pattern string
	Reason  string
}

func (v *Violation) Error() string {
	if v.Pattern != "" {
		return fmt.Sprintf("hostguard: %s: %s (pattern '%s')", v.URL, v.Reason, v.Pattern)
	}
	return fmt.Sprintf("hostguard: %s: %s", v.URL, v.Reason)
}

// Is matches ErrDenied.
func (v *Violation) Is(target error) bool { return target == ErrDenied }

// Guard combines allowed and denied patterns. Denied patterns take
// precedence; with no allowed patterns everything not denied is allowed.
type Guard struct {
	allowed *Matcher
	denied  *Matcher
}

// New compiles a guard.
func New(allowed, denied []string) (*Guard, error) {
	a, err := NewMatcher(allowed)
	if err != nil {
		return nil, fmt.Errorf("allowed hosts: %w", err)
	}
	d, err := NewMatcher(denied)
	if err != nil {
		return nil, fmt.Errorf("denied hosts: %w", err)
	}
	return &Guard{allowed: a, denied: d}, nil
}

// Check returns a *Violation when u is not allowed.
func (g *Guard) Check(u *url.URL) error {
	if u == nil {
		return &Violation{Reason: "no URL"}
	}
	if pattern, ok := g.denied.find(u); ok {
		return &Violation{URL: u.String(), Pattern: pattern, Reason: "matches denied pattern"}
	}
	if g.allowed.Len() == 0 {
		return nil
	}
	if _, ok := g.allowed.find(u); ok {
		return nil
	}
	return &Violation{URL: u.String(), Reason: "does not match allowed patterns"}
}

// IsAllowed reports whether Check passes.
func (g *Guard) IsAllowed(u *url.URL) bool {
	return g.Check(u) == nil
}
