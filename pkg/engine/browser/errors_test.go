package browser

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/entrhq/surf/pkg/browsing"
)

func TestClassifyNavigationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"aborted", errors.New("page.goto: net::ERR_ABORTED at https://a.com/"), browsing.ErrNavigationCancelled},
		{"interrupted", errors.New(`Navigation to "https://b.com/" is interrupted by another navigation to "https://c.com/"`), browsing.ErrNavigationCancelled},
		{"detached", errors.New("frame was detached"), browsing.ErrNavigationCancelled},
		{"closed", errors.New("Target page, context or browser has been closed"), browsing.ErrNavigationCancelled},
		{"dns", errors.New("net::ERR_NAME_NOT_RESOLVED"), browsing.ErrNavigationFailed},
		{"timeout", errors.New("Timeout 30000ms exceeded."), browsing.ErrNavigationFailed},
		{"crash", errPageCrashed, browsing.ErrNavigationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyNavigationError(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.Contains(t, got.Error(), tt.err.Error())
		})
	}

	assert.NoError(t, classifyNavigationError(nil))

	already := fmt.Errorf("wrapped: %w", browsing.ErrNavigationCancelled)
	assert.Same(t, already, classifyNavigationError(already))
}

func TestAwaitPolicy(t *testing.T) {
	t.Run("answered", func(t *testing.T) {
		mode, ok := awaitPolicy(browsing.Immediate, func() browsing.ContentMode {
			return browsing.ContentModeMobile
		}, time.Second, nil)
		assert.True(t, ok)
		assert.Equal(t, browsing.ContentModeMobile, mode)
	})

	t.Run("deadline", func(t *testing.T) {
		stalled := browsing.NewLoop() // never run
		mode, ok := awaitPolicy(stalled, func() browsing.ContentMode {
			return browsing.ContentModeDesktop
		}, 20*time.Millisecond, nil)
		assert.False(t, ok)
		assert.Equal(t, browsing.ContentModeRecommended, mode)
	})

	t.Run("done", func(t *testing.T) {
		done := make(chan struct{})
		close(done)
		mode, ok := awaitPolicy(browsing.NewLoop(), func() browsing.ContentMode {
			return browsing.ContentModeDesktop
		}, time.Minute, done)
		assert.False(t, ok)
		assert.Equal(t, browsing.ContentModeRecommended, mode)
	})
}
