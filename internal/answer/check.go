package answer

import (
	"fmt"

	"github.com/abhisek/habla/internal/exercise"
	"github.com/abhisek/habla/internal/textnorm"
)

// Check reports whether c is a correct answer to ex.
//
// Rules per variant:
//   - ROLES, EMOCIONES: the selected index set equals the set of correct options
//   - REPETIR: normalized transcript equals the normalized target phrase
//   - HABLAR: normalized transcript equals the normalized missing word
//   - ORDEN: every token picked once, in rank order
//   - COMPLETAR: the choice is byte-identical to the correct option
//
// A payload that fails validation yields a *exercise.MalformedExerciseError.
// A candidate of the wrong kind yields ErrCandidateMismatch.
func Check(ex exercise.Exercise, c Candidate) (bool, error) {
	if err := ex.Validate(); err != nil {
		return false, err
	}

	switch p := ex.Payload.(type) {
	case exercise.RolesPayload:
		sel, ok := c.(Selection)
		if !ok {
			return false, mismatch(ex, c)
		}
		return sameSet(sel.Indices, exercise.CorrectSet(p.Options)), nil

	case exercise.EmocionesPayload:
		sel, ok := c.(Selection)
		if !ok {
			return false, mismatch(ex, c)
		}
		return sameSet(sel.Indices, exercise.CorrectSet(p.Options)), nil

	case exercise.RepetirPayload:
		sp, ok := c.(Speech)
		if !ok {
			return false, mismatch(ex, c)
		}
		return textnorm.Equal(sp.Transcript, p.TargetPhrase), nil

	case exercise.HablarPayload:
		sp, ok := c.(Speech)
		if !ok {
			return false, mismatch(ex, c)
		}
		return textnorm.Equal(sp.Transcript, p.WordToComplete), nil

	case exercise.OrdenPayload:
		ord, ok := c.(Order)
		if !ok {
			return false, mismatch(ex, c)
		}
		return inRankOrder(ord.Picks, p.Tokens), nil

	case exercise.CompletarPayload:
		comp, ok := c.(Completion)
		if !ok {
			return false, mismatch(ex, c)
		}
		// Exact comparison: case and accents matter here, unlike the
		// speech variants.
		return comp.Choice == p.CorrectOption, nil
	}

	return false, &exercise.MalformedExerciseError{
		ExerciseID: ex.ID,
		Variant:    ex.Variant,
		Reason:     fmt.Sprintf("unsupported payload %T", ex.Payload),
	}
}

// Accepts reports whether c is the candidate kind the variant expects.
func Accepts(v exercise.Variant, c Candidate) bool {
	switch c.(type) {
	case Selection:
		return v == exercise.VariantRoles || v == exercise.VariantEmociones
	case Speech:
		return v == exercise.VariantRepetir || v == exercise.VariantHablar
	case Order:
		return v == exercise.VariantOrden
	case Completion:
		return v == exercise.VariantCompletar
	}
	return false
}

func mismatch(ex exercise.Exercise, c Candidate) error {
	return fmt.Errorf("%w: %T for %s exercise %q", ErrCandidateMismatch, c, ex.Variant, ex.ID)
}

// sameSet compares a selection, with duplicates collapsed, to the correct set.
func sameSet(selected []int, correct map[int]bool) bool {
	seen := make(map[int]bool, len(selected))
	for _, i := range selected {
		if !correct[i] {
			return false
		}
		seen[i] = true
	}
	return len(seen) == len(correct)
}

// inRankOrder reports whether picks names every token exactly once with
// tokens[picks[i]].Rank == i+1.
func inRankOrder(picks []int, tokens []exercise.OrderToken) bool {
	if len(picks) != len(tokens) {
		return false
	}
	used := make([]bool, len(tokens))
	for i, idx := range picks {
		if idx < 0 || idx >= len(tokens) || used[idx] {
			return false
		}
		used[idx] = true
		if tokens[idx].Rank != i+1 {
			return false
		}
	}
	return true
}
