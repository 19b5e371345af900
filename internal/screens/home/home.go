// Package home is the patient picker shown when the app starts.
package home

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/habla/internal/exercise"
	"github.com/abhisek/habla/internal/progression"
	"github.com/abhisek/habla/internal/router"
	"github.com/abhisek/habla/internal/screen"
	"github.com/abhisek/habla/internal/screens/play"
	statsscreen "github.com/abhisek/habla/internal/screens/stats"
	"github.com/abhisek/habla/internal/ui/components"
	"github.com/abhisek/habla/internal/ui/layout"
	"github.com/abhisek/habla/internal/ui/theme"
)

const exitKey = "exit"

// PatientLister lists every patient.
type PatientLister interface {
	ListPatients(ctx context.Context) ([]exercise.Patient, error)
}

// Deps wires the home screen to the rest of the app.
type Deps struct {
	Patients  PatientLister
	Stats     statsscreen.Summarizer
	Levels    progression.Table
	NewRunner func(patientID string) play.Runner
}

type patientsLoadedMsg struct {
	Patients []exercise.Patient
	Err      error
}

// HomeScreen lists patients; Enter starts a session for the highlighted one.
type HomeScreen struct {
	deps     Deps
	patients []exercise.Patient
	menu     components.Menu
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(deps Deps) *HomeScreen {
	h := &HomeScreen{deps: deps}
	h.menu = components.NewMenu(h.items())
	return h
}

// Init loads patients. They are loaded again whenever the screen resumes,
// so levels reflect the session that just ended.
func (h *HomeScreen) Init() tea.Cmd {
	return h.reload()
}

func (h *HomeScreen) reload() tea.Cmd {
	lister := h.deps.Patients
	return func() tea.Msg {
		if lister == nil {
			return patientsLoadedMsg{}
		}
		patients, err := lister.ListPatients(context.Background())
		return patientsLoadedMsg{Patients: patients, Err: err}
	}
}

func (h *HomeScreen) Title() string {
	return "Inicio"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Elegir"},
		{Key: "Enter", Description: "Jugar"},
	}
	if len(h.patients) > 0 {
		hints = append(hints,
			layout.KeyHint{Key: "E", Description: "Estadísticas"},
			layout.KeyHint{Key: "R", Description: "Recargar"},
		)
	}
	return hints
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case patientsLoadedMsg:
		h.loaded = true
		h.errMsg = ""
		if msg.Err != nil {
			h.errMsg = msg.Err.Error()
			return h, nil
		}
		h.patients = msg.Patients
		selected := h.menu.Selected
		h.menu = components.NewMenu(h.items())
		if selected < len(h.menu.Items) {
			h.menu.Selected = selected
		}
		return h, nil

	case router.ResumedMsg:
		return h, h.reload()

	case tea.KeyMsg:
		switch msg.String() {
		case "e", "s":
			return h, h.openStats()
		case "r":
			return h, h.reload()
		}
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) items() []components.MenuItem {
	items := make([]components.MenuItem, 0, len(h.patients)+1)
	for _, p := range h.patients {
		id := p.ID
		items = append(items, components.MenuItem{
			Key:   id,
			Label: p.Name,
			Badge: components.LevelBadge(h.deps.Levels.LevelFor(p.Experience)),
			Action: func() tea.Cmd {
				if h.deps.NewRunner == nil {
					return nil
				}
				runner := h.deps.NewRunner(id)
				return func() tea.Msg {
					return router.PushScreenMsg{Screen: play.New(runner)}
				}
			},
		})
	}
	items = append(items, components.MenuItem{
		Key:    exitKey,
		Label:  "SALIR",
		Action: func() tea.Cmd { return tea.Quit },
	})
	return items
}

func (h *HomeScreen) openStats() tea.Cmd {
	p, ok := h.selectedPatient()
	if !ok || h.deps.Stats == nil {
		return nil
	}
	scr := statsscreen.New(h.deps.Stats, p.ID, p.Name)
	return func() tea.Msg {
		return router.PushScreenMsg{Screen: scr}
	}
}

func (h *HomeScreen) selectedPatient() (exercise.Patient, bool) {
	item, ok := h.menu.Current()
	if !ok || item.Key == exitKey {
		return exercise.Patient{}, false
	}
	for _, p := range h.patients {
		if p.ID == item.Key {
			return p, true
		}
	}
	return exercise.Patient{}, false
}

func (h *HomeScreen) View(width, height int) string {
	// height is the content area; add back header and footer
	termHeight := height + 8
	compact := termHeight < 30 || width < 100
	cw := components.ContentWidth(width)

	var sections []string
	sections = append(sections, renderTitle(cw, compact))

	switch {
	case h.errMsg != "":
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.Error).Width(cw).Align(lipgloss.Center).
			Render("Error: "+h.errMsg))
	case !h.loaded:
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.TextDim).Width(cw).Align(lipgloss.Center).
			Render("Cargando pacientes..."))
	case len(h.patients) == 0:
		sections = append(sections, renderEmptyCard(cw))
	default:
		if p, ok := h.selectedPatient(); ok {
			card := components.PatientCard{
				Name:       p.Name,
				Area:       p.DiagnosisArea.DisplayName(),
				Experience: p.Experience,
				Level:      h.deps.Levels.LevelFor(p.Experience),
			}
			sections = append(sections, card.View(cw))
		}
	}

	sections = append(sections, renderArcadeMenu(h.menu.Items, h.menu.Selected, cw, compact))

	return components.CabinetFrame(strings.Join(sections, "\n\n"), width, height)
}
