package browsing

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	delegate EngineDelegate
	calls    []string
	loaded   []*url.URL
	detached bool
}

func (e *fakeEngine) Load(u *url.URL) {
	e.calls = append(e.calls, "load")
	e.loaded = append(e.loaded, u)
}
func (e *fakeEngine) GoBack()           { e.calls = append(e.calls, "back") }
func (e *fakeEngine) GoForward()        { e.calls = append(e.calls, "forward") }
func (e *fakeEngine) Reload()           { e.calls = append(e.calls, "reload") }
func (e *fakeEngine) ReloadFromOrigin() { e.calls = append(e.calls, "reload_from_origin") }
func (e *fakeEngine) Stop()             { e.calls = append(e.calls, "stop") }
func (e *fakeEngine) Detach() {
	e.calls = append(e.calls, "detach")
	e.detached = true
}

// commit simulates the engine reporting a committed navigation.
func (e *fakeEngine) commit(t *testing.T, raw, title string, loading bool) {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	progress := 1.0
	if loading {
		progress = 0.5
	}
	e.delegate.DidCommit(Snapshot{URL: u, Title: title, Progress: progress, IsLoading: loading})
}

func (e *fakeEngine) lastLoaded() string {
	if len(e.loaded) == 0 {
		return ""
	}
	return e.loaded[len(e.loaded)-1].String()
}

type fakeFactory struct {
	engines []*fakeEngine
	err     error
}

func (f *fakeFactory) create(d EngineDelegate) (Engine, error) {
	if f.err != nil {
		return nil, f.err
	}
	e := &fakeEngine{delegate: d}
	f.engines = append(f.engines, e)
	return e, nil
}

type memKV struct {
	strings map[string]string
	blobs   map[string][]byte
	failSet bool
}

func newMemKV() *memKV {
	return &memKV{strings: map[string]string{}, blobs: map[string][]byte{}}
}

func (m *memKV) GetString(key string) (string, bool) {
	v, ok := m.strings[key]
	return v, ok
}

func (m *memKV) SetString(key, value string) error {
	if m.failSet {
		return errors.New("disk full")
	}
	m.strings[key] = value
	return nil
}

func (m *memKV) GetBlob(key string) ([]byte, bool) {
	v, ok := m.blobs[key]
	return v, ok
}

func (m *memKV) SetBlob(key string, value []byte) error {
	if m.failSet {
		return errors.New("disk full")
	}
	m.blobs[key] = append([]byte(nil), value...)
	return nil
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func newTestSession(t *testing.T, opts ...Option) (*Session, *fakeFactory, *memKV) {
	t.Helper()
	kv := newMemKV()
	factory := &fakeFactory{}
	s, err := New(kv, factory.create, opts...)
	require.NoError(t, err)
	return s, factory, kv
}
