package play

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/habla/internal/exercise"
	"github.com/abhisek/habla/internal/ui/layout"
	"github.com/abhisek/habla/internal/ui/theme"
)

func (s *PlayScreen) View(width, height int) string {
	if s.fatalErr {
		return "\n\n" + layout.Centered(lipgloss.NewStyle().Foreground(theme.Error),
			"No se pudo iniciar la sesión: "+s.errMsg, width) +
			"\n\n" + layout.Centered(theme.Hint, "Pulsa cualquier tecla para volver", width)
	}

	switch s.phase {
	case phaseLoading:
		return "\n\n" + layout.Centered(lipgloss.NewStyle().Foreground(theme.TextDim), "Preparando ejercicios...", width)
	case phaseQuitConfirm:
		return s.renderQuitConfirm(width)
	case phaseFeedback:
		return s.renderFeedback(width)
	case phaseDone:
		return ""
	}
	return s.renderExercise(width)
}

func (s *PlayScreen) renderExercise(width int) string {
	ex := s.current
	var b strings.Builder

	infoLeft := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render("  " + ex.Variant.DisplayName())
	infoRight := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("Ejercicio %d/%d  %s +%d", s.pos, s.total,
			lipgloss.NewStyle().Foreground(theme.Accent).Render("*"), ex.Reward))

	infoLine := infoLeft
	if pad := width - lipgloss.Width(infoLeft) - lipgloss.Width(infoRight) - 4; pad > 0 {
		infoLine += strings.Repeat(" ", pad) + infoRight
	}
	b.WriteString(infoLine)
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Text).Bold(true), ex.Title, width))
	b.WriteString("\n")
	if ex.Prompt != "" {
		b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Text), ex.Prompt, width))
		b.WriteString("\n")
	}
	if ex.PromptImage != "" {
		b.WriteString(layout.Centered(theme.Hint, "[imagen: "+ex.PromptImage+"]", width))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(s.renderInput(width))

	if s.phase == phaseSubmitting {
		b.WriteString("\n")
		b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.TextDim), "Comprobando...", width))
	}
	if s.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Error), s.errMsg, width))
	}
	if s.notice != "" {
		b.WriteString("\n")
		b.WriteString(layout.Centered(theme.Hint, s.notice, width))
	}
	return b.String()
}

// renderInput renders the answer widget for the current variant.
func (s *PlayScreen) renderInput(width int) string {
	switch p := s.current.Payload.(type) {
	case exercise.RolesPayload, exercise.EmocionesPayload:
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, s.choice.View()) + "\n" +
			layout.Centered(theme.Hint, "Marca todas las respuestas correctas", width)
	case exercise.CompletarPayload:
		return layout.Centered(lipgloss.NewStyle().Foreground(theme.Accent), p.Sentence, width) + "\n\n" +
			lipgloss.PlaceHorizontal(width, lipgloss.Center, s.choice.View())
	case exercise.OrdenPayload:
		return s.renderOrder(p, width)
	case exercise.RepetirPayload:
		return layout.Centered(lipgloss.NewStyle().Foreground(theme.Accent).Bold(true), "«"+p.TargetPhrase+"»", width) + "\n\n" +
			layout.Centered(lipgloss.NewStyle(), "Transcripción: "+s.input.View(), width)
	case exercise.HablarPayload:
		return layout.Centered(lipgloss.NewStyle().Foreground(theme.Accent).Bold(true), p.IncompleteText, width) + "\n\n" +
			layout.Centered(lipgloss.NewStyle(), "Transcripción: "+s.input.View(), width)
	}
	return ""
}

func (s *PlayScreen) renderOrder(p exercise.OrdenPayload, width int) string {
	var built []string
	if s.order != nil {
		for _, i := range s.order.Candidate().Picks {
			built = append(built, p.Tokens[i].Text)
		}
	}
	answerLine := strings.Join(built, " ")
	if answerLine == "" {
		answerLine = "…"
	}

	var tokens []string
	for i, tok := range p.Tokens {
		style := theme.Unselected
		if s.order != nil && s.order.Picked(i) {
			style = lipgloss.NewStyle().Foreground(theme.TextDim).Strikethrough(true)
		}
		tokens = append(tokens, style.Render(fmt.Sprintf("%d) %s", i+1, tok.Text)))
	}

	return layout.Centered(lipgloss.NewStyle().Foreground(theme.Accent).Bold(true), answerLine, width) + "\n\n" +
		layout.Centered(lipgloss.NewStyle(), strings.Join(tokens, "   "), width)
}

func (s *PlayScreen) renderFeedback(width int) string {
	res := s.last
	if res == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\n")

	switch res.Outcome {
	case exercise.OutcomeWon:
		b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Success).Bold(true), "¡Muy bien!", width))
		b.WriteString("\n")
		b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Accent),
			fmt.Sprintf("+%d puntos", res.Awarded), width))
	case exercise.OutcomeLost:
		b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Error).Bold(true), "Casi", width))
		if hint := expected(res.Exercise); hint != "" {
			b.WriteString("\n")
			b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.TextDim),
				"Respuesta esperada: "+hint, width))
		}
	default:
		b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Warning).Bold(true),
			"No se pudo evaluar este ejercicio", width))
		if res.Cause != nil {
			b.WriteString("\n")
			b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.TextDim), res.Cause.Error(), width))
		}
	}
	b.WriteString("\n")

	if res.Transcript != "" {
		b.WriteString("\n")
		b.WriteString(layout.Centered(theme.Hint, "Escuchado: "+res.Transcript, width))
		b.WriteString("\n")
	}

	if res.LevelUp {
		b.WriteString("\n")
		b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Accent).Bold(true),
			fmt.Sprintf("¡Subiste al nivel %d!", res.Level.Number), width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(layout.Centered(theme.Hint, "Pulsa cualquier tecla para continuar", width))
	return b.String()
}

func (s *PlayScreen) renderQuitConfirm(width int) string {
	return "\n\n" +
		layout.Centered(lipgloss.NewStyle().Foreground(theme.Warning).Bold(true), "¿Terminar la sesión?", width) + "\n\n" +
		layout.Centered(lipgloss.NewStyle().Foreground(theme.TextDim),
			fmt.Sprintf("Quedan %d ejercicios sin jugar.", s.total-s.pos+1), width) + "\n\n" +
		layout.Centered(lipgloss.NewStyle().Foreground(theme.Text), "[S] Sí   [N] No", width)
}

// expected returns the answer shown after a lost attempt.
func expected(ex exercise.Exercise) string {
	switch p := ex.Payload.(type) {
	case exercise.RolesPayload:
		return correctOptions(p.Options)
	case exercise.EmocionesPayload:
		return correctOptions(p.Options)
	case exercise.RepetirPayload:
		return p.TargetPhrase
	case exercise.HablarPayload:
		return p.WordToComplete
	case exercise.CompletarPayload:
		return p.CorrectOption
	case exercise.OrdenPayload:
		texts := make([]string, len(p.Tokens))
		for _, t := range p.Tokens {
			if t.Rank >= 1 && t.Rank <= len(texts) {
				texts[t.Rank-1] = t.Text
			}
		}
		return strings.Join(texts, " ")
	}
	return ""
}

func correctOptions(options []exercise.Option) string {
	var out []string
	for _, o := range options {
		if o.Correct {
			out = append(out, o.Text)
		}
	}
	return strings.Join(out, ", ")
}
