package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/habla/internal/progression"
	"github.com/abhisek/habla/internal/ui/theme"
)

// ContentWidth returns the inner width shared by every section inside a
// CabinetFrame.
func ContentWidth(frameWidth int) int {
	// border (2) + padding (4)
	return min(max(frameWidth-6, 24), 64)
}

// CabinetFrame centers content inside a double border filling width x height.
func CabinetFrame(content string, width, height int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Primary).
		Width(width - 2).
		Height(height - 2).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

// LevelBadge is the short level tag shown next to a patient's name.
func LevelBadge(lvl progression.Level) string {
	if !lvl.Ranked {
		return "Nv -"
	}
	return fmt.Sprintf("Nv %d", lvl.Number)
}

// PatientCard summarizes the highlighted patient on the home screen.
type PatientCard struct {
	Name       string
	Area       string
	Experience int
	Level      progression.Level
}

// View renders the card at content width cw.
func (c PatientCard) View(cw int) string {
	name := lipgloss.NewStyle().Foreground(theme.ArcadeYellow).Bold(true).Render(c.Name)
	area := lipgloss.NewStyle().Foreground(theme.ArcadeCyan).Render(c.Area)
	xp := lipgloss.NewStyle().Foreground(theme.Accent).Render(fmt.Sprintf("★ %d", c.Experience))
	bar := NewLevelBar(c.Level, max(cw-16, 10)).View()

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.ArcadeCyan).
		Width(cw - 2).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(fmt.Sprintf("%s  %s  %s\n%s", name, area, xp, bar))
}

// PatientButton renders one menu entry. A non-empty badge is pushed to the
// right edge; entries without one are centered.
func PatientButton(label, badge string, selected bool, width int) string {
	if selected {
		label = "▸ " + label
	}
	text := label
	if badge != "" {
		// border (2) + padding (2)
		gap := width - 4 - lipgloss.Width(label) - lipgloss.Width(badge)
		text = label + strings.Repeat(" ", max(gap, 1)) + badge
	}

	style := lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	if selected {
		return style.
			Bold(true).
			Foreground(theme.BgDark).
			Background(theme.ArcadeYellow).
			BorderForeground(theme.ArcadeYellow).
			Render(text)
	}
	return style.
		Foreground(theme.Text).
		BorderForeground(theme.Border).
		Render(text)
}

// NoticeCard renders dimmed guidance text, such as an empty patient list.
func NoticeCard(text string, cw int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Foreground(theme.TextDim).
		Width(cw - 2).
		Align(lipgloss.Center).
		Padding(1, 2).
		Render(text)
}
