// Package play is the screen that runs a therapy session: one exercise at
// a time, answered with the keyboard, with feedback after every attempt.
package play

import (
	"context"
	"errors"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/habla/internal/answer"
	"github.com/abhisek/habla/internal/exercise"
	"github.com/abhisek/habla/internal/router"
	"github.com/abhisek/habla/internal/screen"
	"github.com/abhisek/habla/internal/screens/summary"
	sess "github.com/abhisek/habla/internal/session"
	"github.com/abhisek/habla/internal/ui/components"
	"github.com/abhisek/habla/internal/ui/layout"
)

type phase int

const (
	phaseLoading phase = iota
	phaseAnswering
	phaseSubmitting
	phaseFeedback
	phaseQuitConfirm
	phaseDone
)

// Runner is the part of session.Runner the screen drives.
type Runner interface {
	Start(ctx context.Context) error
	SubmitAnswer(ctx context.Context, sub sess.Submission) (sess.Result, error)
	Abort() error
	PromptAudio(ctx context.Context) ([]byte, error)
	State() sess.State
	Current() (exercise.Exercise, bool)
	Position() (int, int)
	Summary() sess.Summary
}

// PlayScreen implements screen.Screen for an active session.
type PlayScreen struct {
	runner Runner
	phase  phase

	current    exercise.Exercise
	pos, total int
	choice  components.Choice
	order   *answer.OrderBuilder
	input   components.TextInput

	last     *sess.Result
	notice   string
	errMsg   string
	fatalErr bool
}

var _ screen.Screen = (*PlayScreen)(nil)
var _ screen.KeyHintProvider = (*PlayScreen)(nil)
var _ screen.EscapeHandler = (*PlayScreen)(nil)

// New creates a PlayScreen for a runner that has not been started.
func New(runner Runner) *PlayScreen {
	return &PlayScreen{runner: runner}
}

func (s *PlayScreen) Init() tea.Cmd {
	runner := s.runner
	return func() tea.Msg {
		return startedMsg{Err: runner.Start(context.Background())}
	}
}

func (s *PlayScreen) Title() string {
	return "Sesión"
}

func (s *PlayScreen) KeyHints() []layout.KeyHint {
	switch s.phase {
	case phaseQuitConfirm:
		return []layout.KeyHint{
			{Key: "S", Description: "Terminar"},
			{Key: "N", Description: "Seguir"},
		}
	case phaseFeedback:
		return []layout.KeyHint{{Key: "cualquier tecla", Description: "Continuar"}}
	case phaseAnswering:
	default:
		return nil
	}

	hints := []layout.KeyHint{{Key: "Enter", Description: "Responder"}}
	switch s.current.Variant {
	case exercise.VariantRoles, exercise.VariantEmociones:
		hints = append(hints, layout.KeyHint{Key: "Espacio", Description: "Marcar"})
	case exercise.VariantOrden:
		hints = append(hints,
			layout.KeyHint{Key: "1-9", Description: "Elegir"},
			layout.KeyHint{Key: "Retroceso", Description: "Deshacer"},
		)
	case exercise.VariantRepetir, exercise.VariantHablar:
		hints = append(hints, layout.KeyHint{Key: "Ctrl+P", Description: "Escuchar"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Salir"})
}

func (s *PlayScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		return s.handleStarted(msg)
	case answeredMsg:
		return s.handleAnswered(msg)
	case promptAudioMsg:
		return s.handlePromptAudio(msg)
	case finishMsg:
		return s.handleFinish()
	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.phase == phaseAnswering && s.current.Variant.Speech() {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *PlayScreen) handleStarted(msg startedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		s.fatalErr = true
		return s, nil
	}
	return s, s.nextExercise()
}

// nextExercise prepares the input for the runner's current exercise, or
// finishes when the queue is exhausted.
func (s *PlayScreen) nextExercise() tea.Cmd {
	ex, ok := s.runner.Current()
	if !ok {
		return func() tea.Msg { return finishMsg{} }
	}

	s.current = ex
	s.pos, s.total = s.runner.Position()
	s.phase = phaseAnswering
	s.notice = ""
	s.errMsg = ""
	s.order = nil

	switch p := ex.Payload.(type) {
	case exercise.RolesPayload:
		s.choice = components.NewChoice(optionTexts(p.Options), true)
	case exercise.EmocionesPayload:
		s.choice = components.NewChoice(optionTexts(p.Options), true)
	case exercise.CompletarPayload:
		s.choice = components.NewChoice(p.Options, false)
	case exercise.OrdenPayload:
		s.order = answer.NewOrderBuilder(len(p.Tokens))
	case exercise.RepetirPayload, exercise.HablarPayload:
		s.input = components.NewTextInput("Escribe lo que dijo el paciente...", 120)
	}
	return nil
}

func (s *PlayScreen) handleAnswered(msg answeredMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		// Nothing was recorded; let the therapist retry the same exercise.
		s.phase = phaseAnswering
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	res := msg.Result
	s.last = &res
	s.phase = phaseFeedback
	return s, nil
}

func (s *PlayScreen) handlePromptAudio(msg promptAudioMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.notice = "Audio no disponible: " + msg.Err.Error()
		return s, nil
	}
	s.notice = "Audio listo"
	return s, nil
}

func (s *PlayScreen) handleFinish() (screen.Screen, tea.Cmd) {
	s.phase = phaseDone
	sum := s.runner.Summary()
	return s, func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: summary.New(sum)}
	}
}

func (s *PlayScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.fatalErr {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}

	switch s.phase {
	case phaseQuitConfirm:
		switch key {
		case "s", "S", "y", "Y":
			_ = s.runner.Abort()
			return s, func() tea.Msg { return finishMsg{} }
		case "n", "N", "esc":
			s.phase = phaseAnswering
		}
		return s, nil

	case phaseFeedback:
		s.last = nil
		return s, s.nextExercise()

	case phaseAnswering:
		switch key {
		case "esc":
			s.phase = phaseQuitConfirm
			return s, nil
		case "enter":
			return s.submit()
		case "ctrl+p":
			return s, s.promptAudio()
		}
		return s.handleAnswerKey(msg)
	}
	return s, nil
}

// handleAnswerKey routes keys to the input widget of the current variant.
func (s *PlayScreen) handleAnswerKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	switch s.current.Variant {
	case exercise.VariantRoles, exercise.VariantEmociones, exercise.VariantCompletar:
		s.choice, cmd = s.choice.Update(msg)
	case exercise.VariantOrden:
		s.handleOrderKey(msg.String())
	case exercise.VariantRepetir, exercise.VariantHablar:
		s.input, cmd = s.input.Update(msg)
	}
	return s, cmd
}

func (s *PlayScreen) handleOrderKey(key string) {
	if s.order == nil {
		return
	}
	switch key {
	case "backspace":
		s.order.Undo()
		s.errMsg = ""
		return
	case "ctrl+r":
		s.order.Reset()
		s.errMsg = ""
		return
	}
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return
	}
	if err := s.order.Pick(int(key[0] - '1')); err != nil {
		s.errMsg = err.Error()
		return
	}
	s.errMsg = ""
}

// submit builds the candidate for the current variant and records it in
// the background.
func (s *PlayScreen) submit() (screen.Screen, tea.Cmd) {
	var candidate answer.Candidate
	switch s.current.Variant {
	case exercise.VariantRoles, exercise.VariantEmociones:
		candidate = answer.Selection{Indices: s.choice.Checked()}
	case exercise.VariantCompletar:
		if len(s.choice.Options) == 0 {
			candidate = answer.Completion{}
		} else {
			candidate = answer.Completion{Choice: s.choice.Options[s.choice.Cursor]}
		}
	case exercise.VariantOrden:
		if s.order == nil {
			candidate = answer.Order{}
		} else {
			candidate = s.order.Candidate()
		}
	case exercise.VariantRepetir, exercise.VariantHablar:
		text := s.input.Value()
		if text == "" {
			return s, nil
		}
		candidate = answer.Speech{Transcript: text}
	default:
		// Unknown variant: the runner records the exercise as malformed.
		candidate = answer.Selection{}
	}

	s.phase = phaseSubmitting
	runner := s.runner
	return s, func() tea.Msg {
		res, err := runner.SubmitAnswer(context.Background(), sess.Submission{Candidate: candidate})
		if errors.Is(err, answer.ErrCandidateMismatch) {
			err = errors.New("la respuesta no corresponde a este ejercicio")
		}
		return answeredMsg{Result: res, Err: err}
	}
}

func (s *PlayScreen) promptAudio() tea.Cmd {
	runner := s.runner
	s.notice = "Generando audio..."
	return func() tea.Msg {
		data, err := runner.PromptAudio(context.Background())
		return promptAudioMsg{Bytes: len(data), Err: err}
	}
}

func optionTexts(options []exercise.Option) []string {
	out := make([]string, len(options))
	for i, o := range options {
		out[i] = o.Text
	}
	return out
}

// HandlesEscape keeps Esc for the quit confirmation.
func (s *PlayScreen) HandlesEscape() bool {
	return !s.fatalErr
}
