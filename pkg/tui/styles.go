// Package tui implements a terminal user interface for browsing test
// scripts. It renders the step list, resolved pool actions and validation
// findings as an interactive Bubble Tea app in the terminal.
package tui

import "github.com/charmbracelet/lipgloss"

// Step status glyphs convey meaning without relying on color alone.
const (
	GlyphClean    = "✓"
	GlyphWarning  = "⚠"
	GlyphError    = "✗"
	GlyphCursor   = "▸"
	GlyphOrphan   = "◦"
	GlyphContinue = "⟳"
)

// Palette adapts to terminal capabilities via lipgloss.
var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorBlue   = lipgloss.Color("39")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")
	colorWhite  = lipgloss.Color("255")
)

// --- Header styles ---

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorCyan).
	Padding(0, 1)

var formatBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("0")).
	Background(colorYellow).
	Padding(0, 1)

// --- Step list styles ---

var (
	stepClean = lipgloss.NewStyle().
			Foreground(colorWhite)

	stepWarning = lipgloss.NewStyle().
			Foreground(colorYellow)

	stepError = lipgloss.NewStyle().
			Foreground(colorRed)
)

// --- Panel styles ---

var (
	panelBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim)

	panelTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan).
			Padding(0, 1)
)

// --- Detail bar styles ---

var (
	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorBlue)

	detailValueStyle = lipgloss.NewStyle().
				Foreground(colorWhite)

	validBadgeStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	invalidBadgeStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Bold(true)

	warnBadgeStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)
)

// --- Key bar styles ---

var (
	keyStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true)

	keyDescStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

// --- Overlay and error styles ---

var overlayBorder = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(colorCyan).
	Padding(1, 2)

var errorStyle = lipgloss.NewStyle().
	Foreground(colorRed).
	Bold(true)
