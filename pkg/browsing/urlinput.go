package browsing

import (
	"errors"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// hostProfile maps hosts to their lowercase ASCII form. STD3 rules are off
// because real hosts use underscores.
var hostProfile = idna.New(idna.MapForLookup(), idna.StrictDomainName(false))

// Schemes that never carry an authority but are still explicit URLs.
var opaqueSchemes = map[string]bool{
	"about":       true,
	"blob":        true,
	"data":        true,
	"file":        true,
	"javascript":  true,
	"mailto":      true,
	"tel":         true,
	"view-source": true,
}

// ResolveInput turns address-bar input into a URL.
//
// Input that already names a scheme is used verbatim. Anything else gets
// https:// prepended, or http:// when it addresses localhost or a loopback
// IP. If the result still does not parse into a URL with a valid host the
// returned error is an *InvalidURLInputError carrying the original input.
func ResolveInput(input string) (*url.URL, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, &InvalidURLInputError{Input: input, Err: errors.New("empty input")}
	}

	if u, err := url.Parse(trimmed); err == nil && hasExplicitScheme(u, trimmed) {
		return u, nil
	}

	u, err := url.Parse(defaultScheme(trimmed) + "://" + trimmed)
	if err != nil {
		return nil, &InvalidURLInputError{Input: input, Err: err}
	}
	if u.Hostname() == "" {
		return nil, &InvalidURLInputError{Input: input, Err: errors.New("missing host")}
	}

	host, err := asciiHost(u.Hostname())
	if err != nil {
		return nil, &InvalidURLInputError{Input: input, Err: err}
	}
	u.Host = joinHost(host, u.Port())
	return u, nil
}

// hasExplicitScheme rejects url.Parse's reading of "host:port" as
// scheme:opaque. A scheme only counts when followed by "://" or when it is
// one of the opaque schemes.
func hasExplicitScheme(u *url.URL, raw string) bool {
	if u.Scheme == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if strings.HasPrefix(strings.ToLower(raw), scheme+"://") {
		return true
	}
	return opaqueSchemes[scheme]
}

func defaultScheme(raw string) string {
	if isLoopbackHost(hostPart(raw)) {
		return "http"
	}
	return "https"
}

// hostPart extracts the host from scheme-less input such as
// "user@localhost:8080/path".
func hostPart(raw string) string {
	authority := raw
	if i := strings.IndexAny(authority, "/?#"); i >= 0 {
		authority = authority[:i]
	}
	if i := strings.LastIndex(authority, "@"); i >= 0 {
		authority = authority[i+1:]
	}
	if strings.HasPrefix(authority, "[") {
		if end := strings.Index(authority, "]"); end > 0 {
			return authority[1:end]
		}
		return authority
	}
	if i := strings.LastIndex(authority, ":"); i >= 0 && isDigits(authority[i+1:]) {
		return authority[:i]
	}
	return authority
}

func isLoopbackHost(host string) bool {
	host = strings.ToLower(host)
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func asciiHost(host string) (string, error) {
	if net.ParseIP(host) != nil {
		return strings.ToLower(host), nil
	}
	ascii, err := hostProfile.ToASCII(host)
	if err != nil {
		return "", err
	}
	return strings.ToLower(ascii), nil
}

func joinHost(host, port string) string {
	if port != "" {
		return net.JoinHostPort(host, port)
	}
	if strings.Contains(host, ":") {
		return "[" + host + "]"
	}
	return host
}

// HostKey returns the lowercase ASCII hostname of u without its port, or ""
// when u has no host. Content mode overrides are keyed by it.
func HostKey(u *url.URL) string {
	if u == nil {
		return ""
	}
	host := u.Hostname()
	if host == "" {
		return ""
	}
	ascii, err := asciiHost(host)
	if err != nil {
		return strings.ToLower(host)
	}
	return ascii
}

// NormalizeURL returns the comparison key used for history deduplication:
// lowercase scheme and host, default ports dropped, an empty path written
// as "/", and the fragment removed.
func NormalizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	c := *u
	c.Scheme = strings.ToLower(c.Scheme)
	c.Fragment = ""
	c.RawFragment = ""

	if c.Host != "" {
		port := c.Port()
		if (c.Scheme == "http" && port == "80") || (c.Scheme == "https" && port == "443") {
			port = ""
		}
		c.Host = joinHost(HostKey(u), port)
		if c.Path == "" && c.RawPath == "" {
			c.Path = "/"
		}
	}
	return c.String()
}

// NormalizeURLString parses raw and normalizes it; unparseable input is
// returned unchanged.
func NormalizeURLString(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return NormalizeURL(u)
}
