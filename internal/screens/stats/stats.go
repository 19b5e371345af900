// Package stats shows a patient's play statistics.
package stats

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/habla/internal/exercise"
	"github.com/abhisek/habla/internal/router"
	"github.com/abhisek/habla/internal/screen"
	"github.com/abhisek/habla/internal/stats"
	"github.com/abhisek/habla/internal/ui/layout"
	"github.com/abhisek/habla/internal/ui/theme"
)

type statsLoadedMsg struct {
	Summary *stats.Summary
	Err     error
}

// Summarizer computes a patient's statistics.
type Summarizer interface {
	Summarize(ctx context.Context, patientID string) (*stats.Summary, error)
}

// StatsScreen displays won/lost tallies per variant and area plus the most
// recent plays.
type StatsScreen struct {
	source    Summarizer
	patientID string
	name      string
	summary   *stats.Summary
	byArea    bool
	loaded    bool
	errMsg    string
}

var _ screen.Screen = (*StatsScreen)(nil)
var _ screen.KeyHintProvider = (*StatsScreen)(nil)

// New creates a StatsScreen for one patient.
func New(source Summarizer, patientID, name string) *StatsScreen {
	return &StatsScreen{source: source, patientID: patientID, name: name}
}

func (s *StatsScreen) Init() tea.Cmd {
	source, id := s.source, s.patientID
	return func() tea.Msg {
		sum, err := source.Summarize(context.Background(), id)
		return statsLoadedMsg{Summary: sum, Err: err}
	}
}

func (s *StatsScreen) Title() string {
	return "Estadísticas"
}

func (s *StatsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Tipo / Área"},
		{Key: "Esc", Description: "Volver"},
	}
}

func (s *StatsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.summary = msg.Summary
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "tab", "a":
			s.byArea = !s.byArea
		}
	}
	return s, nil
}

func (s *StatsScreen) View(width, height int) string {
	if s.errMsg != "" {
		return "\n\n" + layout.Centered(lipgloss.NewStyle().Foreground(theme.Error), "Error: "+s.errMsg, width)
	}
	if !s.loaded {
		return "\n\n" + layout.Centered(lipgloss.NewStyle().Foreground(theme.TextDim), "Cargando estadísticas...", width)
	}
	sum := s.summary
	if sum == nil || sum.Totals.Played == 0 {
		return "\n\n" + layout.Centered(lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true),
			"Todavía no hay ejercicios jugados.", width)
	}

	var b strings.Builder
	b.WriteString("\n")
	if s.name != "" {
		b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true), s.name, width))
		b.WriteString("\n")
	}

	t := sum.Totals
	b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Text),
		fmt.Sprintf("Jugados: %d     Ganados: %d     Perdidos: %d     Con error: %d     Acierto: %d%%",
			t.Played, t.Won, t.Lost, t.Errors, t.Rate), width))
	b.WriteString("\n")
	b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Accent),
		fmt.Sprintf("Experiencia ganada: %d", t.Experience), width))
	b.WriteString("\n\n")

	heading, groups := "Por tipo de ejercicio", sum.ByVariant
	if s.byArea {
		heading, groups = "Por área", sum.ByArea
	}
	b.WriteString(s.renderGroups(heading, groups, width))
	b.WriteString("\n")
	b.WriteString(s.renderRecent(sum.Recent, width))
	return b.String()
}

func (s *StatsScreen) renderGroups(heading string, groups []stats.Group, width int) string {
	var b strings.Builder
	b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.TextDim), heading, width))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, layout.Divider(width, 60)))
	b.WriteString("\n")

	if len(groups) == 0 {
		b.WriteString(layout.Centered(theme.Hint, "Sin datos", width))
		b.WriteString("\n")
		return b.String()
	}

	for _, g := range groups {
		line := fmt.Sprintf("%-22s %3d ganados  %3d perdidos  %s %3d%%",
			g.Label, g.Won, g.Lost, rateBar(g.Rate, 10), g.Rate)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			lipgloss.NewStyle().Foreground(theme.Text).Render(line)))
		b.WriteString("\n")
	}
	return b.String()
}

func (s *StatsScreen) renderRecent(recent []stats.RecentPlay, width int) string {
	var b strings.Builder
	b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.TextDim), "Últimos ejercicios", width))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, layout.Divider(width, 60)))
	b.WriteString("\n")

	for _, r := range recent {
		inst := r.Instance
		color := theme.Warning
		switch inst.Outcome {
		case exercise.OutcomeWon:
			color = theme.Success
		case exercise.OutcomeLost:
			color = theme.Error
		}
		line := fmt.Sprintf("%s  %-10s %-28s %s",
			inst.CreatedAt.Local().Format("02/01 15:04"), r.Variant.DisplayName(), r.Title, inst.Outcome)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			lipgloss.NewStyle().Foreground(color).Render(line)))
		b.WriteString("\n")
	}
	return b.String()
}

// rateBar renders a percentage as a bar of cells.
func rateBar(rate, cells int) string {
	filled := rate * cells / 100
	if filled > cells {
		filled = cells
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", cells-filled)
}
