package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// overlayMode identifies the overlay currently shown.
type overlayMode int

const (
	overlayNone overlayMode = iota
	overlayHistory
)

// overlayState tracks the active overlay
type overlayState struct {
	mode overlayMode
}

// newOverlayState creates a new overlay state
func newOverlayState() *overlayState {
	return &overlayState{mode: overlayNone}
}

// activate shows the given overlay
func (o *overlayState) activate(mode overlayMode) {
	o.mode = mode
}

// deactivate closes the current overlay
func (o *overlayState) deactivate() {
	o.mode = overlayNone
}

// isActive returns whether any overlay is currently active
func (o *overlayState) isActive() bool {
	return o.mode != overlayNone
}

// renderOverlay renders an overlay centered on a clean background
// This creates a modal appearance by not showing the base view underneath
func renderOverlay(baseView, overlayView string, width, height int) string {
	if overlayView == "" {
		return baseView
	}

	// Position the overlay centered on a clean background
	// The lipgloss.Place function will fill the remaining space with whitespace
	// creating a clean modal appearance
	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlayView,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("0")),
	)
}

// renderToastOverlay renders a toast-style overlay at the bottom of the screen
// without affecting the base view's layout
func renderToastOverlay(baseView string, toastContent string) string {
	if toastContent == "" {
		return baseView
	}

	// Split base view into lines
	baseLines := strings.Split(baseView, "\n")

	// Calculate where to position the toast (bottom of screen, above the status bar)
	// We want to overlay it on top of the existing content
	toastLines := strings.Split(strings.TrimRight(toastContent, "\n"), "\n")
	toastHeight := len(toastLines)

	// Position toast starting from a few lines above the bottom
	// This puts it just above the status bar
	startLine := len(baseLines) - 5 - toastHeight
	if startLine < 0 {
		startLine = 0
	}

	// Build result with toast overlaid
	var result strings.Builder
	for i, line := range baseLines {
		toastLineIdx := i - startLine
		if toastLineIdx >= 0 && toastLineIdx < len(toastLines) {
			// Overlay the toast line, left-aligned with small padding
			toastLine := toastLines[toastLineIdx]
			padding := 2 // Left padding for spacing from edge
			// Write toast with left padding
			result.WriteString(strings.Repeat(" ", padding))
			result.WriteString(toastLine)
		} else {
			result.WriteString(line)
		}
		if i < len(baseLines)-1 {
			result.WriteString("\n")
		}
	}

	return result.String()
}
