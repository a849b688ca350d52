package tui

import "github.com/charmbracelet/lipgloss"

// Color Palette
// This is the single source of truth for all TUI colors.
var (
	salmonPink  = lipgloss.Color("#FFB3BA") // Soft pastel salmon pink - primary accent
	coralPink   = lipgloss.Color("#FFCCCB") // Lighter coral accent - secondary
	mintGreen   = lipgloss.Color("#A8E6CF") // Soft mint green - success/secure states
	mutedGray   = lipgloss.Color("#6B7280") // Muted gray - secondary text
	brightWhite = lipgloss.Color("#F9FAFB") // Bright white - primary text
	errorRed    = lipgloss.Color("203")
)

// Common Styles
var (
	// Tab strip
	activeTabStyle = lipgloss.NewStyle().
			Foreground(brightWhite).
			Background(lipgloss.Color("#3F3F46")).
			Bold(true).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(mutedGray).
				Padding(0, 1)

	tabStripStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(mutedGray)

	// Toolbar
	navEnabledStyle = lipgloss.NewStyle().
			Foreground(coralPink).
			Bold(true)

	navDisabledStyle = lipgloss.NewStyle().
				Foreground(mutedGray)

	modeStyle = lipgloss.NewStyle().
			Foreground(mintGreen)

	addressBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedGray).
			Padding(0, 1)

	addressFocusedStyle = addressBoxStyle.
				BorderForeground(salmonPink)

	// Page area
	pageTitleStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	pageURLStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	tipsStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Padding(0, 1)

	// OverlayTitleStyle is used for main overlay titles
	OverlayTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(salmonPink)

	// OverlayHelpStyle is used for help text and hints
	OverlayHelpStyle = lipgloss.NewStyle().
				Foreground(mutedGray).
				Italic(true)
)
