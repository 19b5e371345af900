// Package app hosts the root Bubble Tea model.
package app

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/habla/internal/router"
	"github.com/abhisek/habla/internal/screen"
	"github.com/abhisek/habla/internal/screens/home"
	"github.com/abhisek/habla/internal/screens/play"
	"github.com/abhisek/habla/internal/ui/layout"
)

// Options configures the terminal UI.
type Options struct {
	Home home.Deps

	// Status is shown on the right side of the header, e.g. the speech
	// provider in use.
	Status string

	// PatientID, when set, starts a session for that patient right away.
	PatientID string

	Logger *zap.Logger
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router    *router.Router
	status    string
	autoStart tea.Cmd
	logger *zap.Logger
	width  int
	height int
}

func newAppModel(opts Options) AppModel {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := AppModel{
		router: router.New(home.New(opts.Home)),
		status: opts.Status,
		logger: logger,
	}
	if opts.PatientID != "" && opts.Home.NewRunner != nil {
		scr := play.New(opts.Home.NewRunner(opts.PatientID))
		m.autoStart = func() tea.Msg { return router.PushScreenMsg{Screen: scr} }
	}
	return m
}

func (m AppModel) Init() tea.Cmd {
	var cmds []tea.Cmd
	if active := m.router.Active(); active != nil {
		cmds = append(cmds, active.Init())
	}
	return tea.Batch(append(cmds, m.autoStart)...)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if h, ok := m.router.Active().(screen.EscapeHandler); ok && h.HandlesEscape() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}

	case router.PushScreenMsg:
		m.logger.Debug("push screen", zap.String("screen", msg.Screen.Title()))
	case router.ReplaceScreenMsg:
		m.logger.Debug("replace screen", zap.String("screen", msg.Screen.Title()))
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

// render draws the header, the active screen and the footer.
func (m AppModel) render() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.status, m.width)
	footer := layout.RenderFooter(m.footerHints(active), m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

func (m AppModel) footerHints(active screen.Screen) []layout.KeyHint {
	if p, ok := active.(screen.KeyHintProvider); ok {
		if hints := p.KeyHints(); len(hints) > 0 {
			return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Salir"})
		}
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Volver"},
			{Key: "Ctrl+C", Description: "Salir"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navegar"},
		{Key: "Enter", Description: "Elegir"},
		{Key: "Ctrl+C", Description: "Salir"},
	}
}

// Run starts the Bubble Tea program and blocks until it exits or ctx is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(newAppModel(opts), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}
