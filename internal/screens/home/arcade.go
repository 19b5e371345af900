package home

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/habla/internal/ui/components"
	"github.com/abhisek/habla/internal/ui/theme"
)

const arcadeTitleFull = ` ██╗  ██╗ █████╗ ██████╗ ██╗      █████╗
 ██║  ██║██╔══██╗██╔══██╗██║     ██╔══██╗
 ███████║███████║██████╔╝██║     ███████║
 ██╔══██║██╔══██║██╔══██╗██║     ██╔══██║
 ██║  ██║██║  ██║██████╔╝███████╗██║  ██║
 ╚═╝  ╚═╝╚═╝  ╚═╝╚═════╝ ╚══════╝╚═╝  ╚═╝`

const arcadeTitleCompact = "H · A · B · L · A"

// buttonWidth is the fixed width for menu buttons.
const buttonWidth = 28

func renderTitle(cw int, compact bool) string {
	style := lipgloss.NewStyle().
		Foreground(theme.ArcadeYellow).
		Bold(true)

	title := arcadeTitleFull
	if compact {
		title = arcadeTitleCompact
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(style.Render(title))
}

// renderArcadeMenu renders each menu item as a button, falling back to
// plain lines when the terminal is too short for bordered buttons.
func renderArcadeMenu(items []components.MenuItem, selected int, cw int, compact bool) string {
	var lines []string
	for i, item := range items {
		switch {
		case !compact:
			lines = append(lines, components.PatientButton(item.Label, item.Badge, i == selected, buttonWidth))
		case i == selected:
			lines = append(lines, lipgloss.NewStyle().
				Foreground(theme.BgDark).
				Background(theme.ArcadeYellow).
				Bold(true).
				Render(" ▸ "+compactLabel(item)+" "))
		default:
			lines = append(lines, lipgloss.NewStyle().
				Foreground(theme.Text).
				Render("   "+compactLabel(item)))
		}
	}

	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(strings.Join(lines, "\n"))
}

func compactLabel(item components.MenuItem) string {
	if item.Badge == "" {
		return item.Label
	}
	return item.Label + " · " + item.Badge
}

func renderEmptyCard(cw int) string {
	return components.NoticeCard("No hay pacientes.\nCrea uno con: habla patient add <nombre>", cw)
}
