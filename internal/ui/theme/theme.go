// Package theme holds the colors and styles shared by every screen.
package theme

import (
	"charm.land/lipgloss/v2"
)

// Palette: warm and calm, readable on dark terminals during a therapy
// session.
var (
	Primary      = lipgloss.Color("#7C3AED") // Violet
	Secondary    = lipgloss.Color("#0EA5E9") // Sky
	Accent       = lipgloss.Color("#F59E0B") // Amber
	Success      = lipgloss.Color("#22C55E") // Green
	Error        = lipgloss.Color("#EF4444") // Red
	Warning      = lipgloss.Color("#EAB308") // Yellow
	Text         = lipgloss.Color("#F8FAFC") // White
	TextDim      = lipgloss.Color("#94A3B8") // Slate
	BgDark       = lipgloss.Color("#0F172A") // Deep Navy
	BgCard       = lipgloss.Color("#1E293B") // Dark Slate
	Border       = lipgloss.Color("#334155") // Slate
	ArcadeYellow = lipgloss.Color("#FACC15")
	ArcadeCyan   = lipgloss.Color("#22D3EE")
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Align(lipgloss.Center)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim).
			Align(lipgloss.Center)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)
)

// States
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Checked = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Failed = lipgloss.NewStyle().
		Foreground(Warning).
		Bold(true)
)
