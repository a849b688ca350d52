package browser

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/surf/pkg/browsing"
)

type recordingDelegate struct {
	commits  []browsing.Snapshot
	failures []error
	prov     []bool
}

func (d *recordingDelegate) DidCommit(s browsing.Snapshot) { d.commits = append(d.commits, s) }

func (d *recordingDelegate) DecidePolicy(*url.URL) browsing.ContentMode {
	return browsing.ContentModeRecommended
}

func (d *recordingDelegate) DidFail(err error, provisional bool) {
	d.failures = append(d.failures, err)
	d.prov = append(d.prov, provisional)
}

// newDetachedPageEngine builds an engine without a page; only worker-side
// state transitions that never touch the page are safe to call.
func newDetachedPageEngine(d browsing.EngineDelegate) *Engine {
	return newEngine(Options{}.withDefaults(), nil, nil, d, browsing.Immediate)
}

func TestEngineStateTransitions(t *testing.T) {
	d := &recordingDelegate{}
	e := newDetachedPageEngine(d)

	e.started()
	e.frameNavigated("https://a.com/")
	e.started()
	e.frameNavigated("https://b.com/")

	require.Len(t, d.commits, 4)
	assert.Nil(t, d.commits[0].URL, "nothing committed yet")
	assert.True(t, d.commits[0].IsLoading)
	assert.Equal(t, progressStarted, d.commits[0].Progress)

	assert.Equal(t, "https://a.com/", d.commits[1].URLString())
	assert.Equal(t, progressCommitted, d.commits[1].Progress)

	assert.Equal(t, "https://a.com/", d.commits[2].URLString(), "start keeps the previous url")
	last := d.commits[3]
	assert.Equal(t, "https://b.com/", last.URLString())
	assert.True(t, last.CanGoBack)
	assert.False(t, last.CanGoForward)
}

func TestEngineFailureProvisional(t *testing.T) {
	d := &recordingDelegate{}
	e := newDetachedPageEngine(d)

	e.started()
	e.fail(errors.New("net::ERR_NAME_NOT_RESOLVED"))
	require.Len(t, d.failures, 1)
	assert.ErrorIs(t, d.failures[0], browsing.ErrNavigationFailed)
	assert.True(t, d.prov[0])
	assert.False(t, e.loading)

	e.started()
	e.frameNavigated("https://a.com/")
	e.fail(errors.New("net::ERR_ABORTED"))
	require.Len(t, d.failures, 2)
	assert.ErrorIs(t, d.failures[1], browsing.ErrNavigationCancelled)
	assert.False(t, d.prov[1])
	assert.True(t, e.loading, "cancellation leaves loading alone")
}

func TestEngineDropsCallbacksAfterDetach(t *testing.T) {
	d := &recordingDelegate{}
	e := newDetachedPageEngine(d)
	e.detached.Store(true)

	e.frameNavigated("https://a.com/")
	e.fail(errors.New("boom"))
	assert.Empty(t, d.commits)
	assert.Empty(t, d.failures)

	e.Load(&url.URL{Scheme: "https", Host: "a.com"})
	e.GoBack()
	e.Stop()
	assert.Empty(t, d.commits)
}

func TestManagerRequiresInitialize(t *testing.T) {
	m := NewManager(Options{})
	_, err := m.NewEngine(&recordingDelegate{}, nil)
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = m.Factory(browsing.Immediate)(&recordingDelegate{})
	assert.ErrorIs(t, err, ErrNotInitialized)

	assert.Equal(t, 0, m.Len())
	assert.NoError(t, m.Shutdown())
}
