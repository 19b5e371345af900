// Package summary shows the results of a finished or aborted session.
package summary

import (
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/habla/internal/exercise"
	"github.com/abhisek/habla/internal/router"
	"github.com/abhisek/habla/internal/screen"
	"github.com/abhisek/habla/internal/session"
	"github.com/abhisek/habla/internal/ui/layout"
	"github.com/abhisek/habla/internal/ui/theme"
)

// SummaryScreen displays the session summary.
type SummaryScreen struct {
	summary session.Summary
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen.
func New(summary session.Summary) *SummaryScreen {
	return &SummaryScreen{summary: summary}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Resumen"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Continuar"},
		{Key: "Esc", Description: "Inicio"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "enter", "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	var b strings.Builder

	heading := "¡Sesión terminada!"
	if sum.Aborted {
		heading = "Sesión interrumpida"
	}
	b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true), heading, width))
	b.WriteString("\n")
	if sum.PatientName != "" {
		b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Text), sum.PatientName, width))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	mins := int(sum.Duration.Minutes())
	secs := int(sum.Duration.Seconds()) % 60
	b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.TextDim),
		fmt.Sprintf("Duración: %d:%02d", mins, secs), width))
	b.WriteString("\n\n")

	statsLine := fmt.Sprintf("Ejercicios: %d     Ganados: %d     Perdidos: %d     Precisión: %.0f%%",
		sum.Attempts, sum.Won, sum.Lost, sum.Accuracy*100)
	b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Text), statsLine, width))
	b.WriteString("\n")
	if sum.Errors > 0 || sum.Skipped > 0 {
		b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Warning),
			fmt.Sprintf("Con error: %d     Sin jugar: %d", sum.Errors, sum.Skipped), width))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	xpLine := fmt.Sprintf("+%d puntos de experiencia", sum.Experience)
	levelLine := sum.LevelAfter.Label()
	levelStyle := lipgloss.NewStyle().Foreground(theme.TextDim)
	if sum.LevelAfter.Number != sum.LevelBefore.Number && sum.LevelAfter.Ranked {
		levelLine = fmt.Sprintf("%s > %s", sum.LevelBefore.Label(), sum.LevelAfter.Label())
		levelStyle = lipgloss.NewStyle().Foreground(theme.Success).Bold(true)
	}
	b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Accent), xpLine, width))
	b.WriteString("\n")
	b.WriteString(layout.Centered(levelStyle, levelLine, width))
	b.WriteString("\n\n")

	if len(sum.Results) == 0 {
		return b.String()
	}

	b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.TextDim), "Ejercicios", width))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, layout.Divider(width, 60)))
	b.WriteString("\n\n")

	for _, r := range sum.Results {
		line := fmt.Sprintf("  %-10s %-32s %s", r.Variant.DisplayName(), truncate(r.Title, 32), outcomeLabel(r.Outcome))
		if r.Outcome == exercise.OutcomeWon {
			line += fmt.Sprintf("  +%d", r.Awarded)
		}
		style := lipgloss.NewStyle().Foreground(outcomeColor(r.Outcome))
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")
	}

	return b.String()
}

func outcomeLabel(o exercise.Outcome) string {
	switch o {
	case exercise.OutcomeWon:
		return "ganado"
	case exercise.OutcomeLost:
		return "perdido"
	case exercise.OutcomeError:
		return "error"
	default:
		return string(o)
	}
}

func outcomeColor(o exercise.Outcome) color.Color {
	switch o {
	case exercise.OutcomeWon:
		return theme.Success
	case exercise.OutcomeLost:
		return theme.Error
	default:
		return theme.Warning
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
