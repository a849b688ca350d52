package browsing

// KVStore is the external persistent key-value store the session writes
// the last visited URL and the history list into.
type KVStore interface {
	GetString(key string) (string, bool)
	SetString(key, value string) error
	GetBlob(key string) ([]byte, bool)
	SetBlob(key string, value []byte) error
}

// Keys written by this package.
const (
	KeyLastVisitedURL = "session.last_visited_url"
	KeyHistory        = "history.items"
)
