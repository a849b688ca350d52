package browser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/surf/pkg/browsing"
)

// ErrNotInitialized is returned when engines are requested before Initialize.
var ErrNotInitialized = errors.New("browser: manager not initialized")

var errPageCrashed = errors.New("page crashed")

// Substrings Chromium and Playwright use when a navigation was replaced by
// a newer one or its page went away.
var cancellationMarkers = []string{
	"net::ERR_ABORTED",
	"is interrupted by another navigation",
	"frame was detached",
	"Target page, context or browser has been closed",
	"Navigation cancelled",
}

// classifyNavigationError wraps err with the browsing sentinel that matches it.
func classifyNavigationError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, browsing.ErrNavigationCancelled) || errors.Is(err, browsing.ErrNavigationFailed) {
		return err
	}
	msg := err.Error()
	for _, marker := range cancellationMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", browsing.ErrNavigationCancelled, err)
		}
	}
	return fmt.Errorf("%w: %v", browsing.ErrNavigationFailed, err)
}

// awaitPolicy runs decide on the dispatcher's goroutine and waits for its
// answer. It falls back to Recommended when the deadline passes or done
// closes first; ok is false in that case.
func awaitPolicy(d browsing.Dispatcher, decide func() browsing.ContentMode, deadline time.Duration, done <-chan struct{}) (browsing.ContentMode, bool) {
	result := make(chan browsing.ContentMode, 1)
	d.Dispatch(func() { result <- decide() })

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case mode := <-result:
		return mode, true
	case <-timer.C:
		return browsing.ContentModeRecommended, false
	case <-done:
		return browsing.ContentModeRecommended, false
	}
}
