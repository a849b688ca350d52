package browsing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURLInput is returned when user input cannot be resolved to a URL.
	ErrInvalidURLInput = errors.New("browsing: invalid URL input")

	// ErrIndexOutOfRange is returned when a tab index does not address an open tab.
	ErrIndexOutOfRange = errors.New("browsing: tab index out of range")

	// ErrTabNotFound is returned when a tab ID does not address an open tab.
	ErrTabNotFound = errors.New("browsing: tab not found")

	// ErrNavigationCancelled marks a navigation superseded by a newer one.
	// Engines wrap it to signal cancellation.
	ErrNavigationCancelled = errors.New("browsing: navigation cancelled")

	// ErrNavigationFailed marks a navigation that did not complete.
	ErrNavigationFailed = errors.New("browsing: navigation failed")
)

// InvalidURLInputError carries the input string that failed to resolve so the
// caller can show it back to the user.
type InvalidURLInputError struct {
	Input string
	Err   error
}

func (e *InvalidURLInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("browsing: invalid URL input %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("browsing: invalid URL input %q", e.Input)
}

func (e *InvalidURLInputError) Unwrap() error { return e.Err }

// Is matches ErrInvalidURLInput.
func (e *InvalidURLInputError) Is(target error) bool { return target == ErrInvalidURLInput }

// IndexError reports an out-of-range tab index together with the tab count
// at the time of the call.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("browsing: tab index %d out of range [0,%d)", e.Index, e.Len)
}

// Is matches ErrIndexOutOfRange.
func (e *IndexError) Is(target error) bool { return target == ErrIndexOutOfRange }

// FailureKind classifies an engine-reported navigation error.
type FailureKind int

const (
	// FailureCancelled is informational and never shown to the user.
	FailureCancelled FailureKind = iota
	// FailureFailed clears the loading flag and is reported upward.
	FailureFailed
)

func (k FailureKind) String() string {
	if k == FailureCancelled {
		return "cancelled"
	}
	return "failed"
}

// ClassifyFailure treats errors wrapping ErrNavigationCancelled as
// cancellations and everything else as failures.
func ClassifyFailure(err error) FailureKind {
	if errors.Is(err, ErrNavigationCancelled) {
		return FailureCancelled
	}
	return FailureFailed
}

// NavigationFailure is published when a tab's navigation fails.
type NavigationFailure struct {
	TabID       TabID
	Index       int
	Err         error
	Provisional bool
}

// Message returns the text shown in a dismissible notice.
func (f NavigationFailure) Message() string {
	if f.Err == nil {
		return "The page could not be loaded."
	}
	return fmt.Sprintf("The page could not be loaded: %v", f.Err)
}
