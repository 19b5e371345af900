// Package exercise holds the therapy-game domain model: exercises and their
// variant payloads, patients, and the play instances recorded per attempt.
package exercise

import (
	"fmt"
	"time"
)

// Variant identifies the interaction pattern of an exercise.
type Variant string

const (
	VariantRoles     Variant = "ROLES"
	VariantRepetir   Variant = "REPETIR"
	VariantHablar    Variant = "HABLAR"
	VariantOrden     Variant = "ORDEN"
	VariantCompletar Variant = "COMPLETAR"
	VariantEmociones Variant = "EMOCIONES"
)

// AllVariants returns every variant in display order.
func AllVariants() []Variant {
	return []Variant{VariantRoles, VariantRepetir, VariantHablar, VariantOrden, VariantCompletar, VariantEmociones}
}

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	for _, known := range AllVariants() {
		if v == known {
			return true
		}
	}
	return false
}

// DisplayName returns a human-readable label for the variant.
func (v Variant) DisplayName() string {
	switch v {
	case VariantRoles:
		return "Roles"
	case VariantRepetir:
		return "Repetir"
	case VariantHablar:
		return "Hablar"
	case VariantOrden:
		return "Ordenar"
	case VariantCompletar:
		return "Completar"
	case VariantEmociones:
		return "Emociones"
	default:
		return string(v)
	}
}

// Speech reports whether the variant is answered by voice.
func (v Variant) Speech() bool {
	return v == VariantRepetir || v == VariantHablar
}

// Area is the speech/language skill axis an exercise trains. The zero value
// means the exercise is not tied to any area.
type Area string

const (
	AreaNone         Area = ""
	AreaPragmatics   Area = "pragmatics"
	AreaSemantics    Area = "semantics"
	AreaPhonology    Area = "phonology"
	AreaMorphosyntax Area = "morphosyntax"
)

// AllAreas returns every concrete area in display order.
func AllAreas() []Area {
	return []Area{AreaPragmatics, AreaSemantics, AreaPhonology, AreaMorphosyntax}
}

// Valid reports whether a is a known area or unset.
func (a Area) Valid() bool {
	if a == AreaNone {
		return true
	}
	for _, known := range AllAreas() {
		if a == known {
			return true
		}
	}
	return false
}

// DisplayName returns a human-readable label for the area.
func (a Area) DisplayName() string {
	switch a {
	case AreaNone:
		return "General"
	case AreaPragmatics:
		return "Pragmática"
	case AreaSemantics:
		return "Semántica"
	case AreaPhonology:
		return "Fonología"
	case AreaMorphosyntax:
		return "Morfosintaxis"
	default:
		return string(a)
	}
}

// AgeBand is the coarse age bracket an exercise targets.
type AgeBand string

const (
	AgeBandA   AgeBand = "4-6"
	AgeBandB   AgeBand = "7-10"
	AgeBandAll AgeBand = "all"
)

// Valid reports whether b is a known age band.
func (b AgeBand) Valid() bool {
	return b == AgeBandA || b == AgeBandB || b == AgeBandAll
}

// Exercise is one playable therapy activity. Variant and Payload form a tagged
// union: the payload's concrete type must match the variant tag.
type Exercise struct {
	ID          string
	Title       string
	Area        Area
	AgeBand     AgeBand
	Difficulty  int
	Reward      int
	Active      bool
	Variant     Variant
	Prompt      string
	PromptImage string
	Payload     Payload
	CreatedAt   time.Time
}

func (e Exercise) String() string {
	return fmt.Sprintf("%s[%s %s]", e.ID, e.Variant, e.Title)
}

// SpokenPrompt returns the text read aloud to the patient for this exercise.
func (e Exercise) SpokenPrompt() string {
	if p, ok := e.Payload.(RepetirPayload); ok && p.TargetPhrase != "" {
		return p.TargetPhrase
	}
	return e.Prompt
}

// Patient is the read-only view of a patient the engine needs.
type Patient struct {
	ID         string
	Name       string
	BirthDate  time.Time
	Experience int

	// DiagnosisArea comes from the patient's most recent active clinical
	// record. Empty when the patient has no active diagnosis.
	DiagnosisArea Area
}

// AgeAt returns the patient's age in whole years at now.
func (p Patient) AgeAt(now time.Time) int {
	if p.BirthDate.IsZero() || now.Before(p.BirthDate) {
		return 0
	}
	years := now.Year() - p.BirthDate.Year()
	if now.Month() < p.BirthDate.Month() ||
		(now.Month() == p.BirthDate.Month() && now.Day() < p.BirthDate.Day()) {
		years--
	}
	return years
}

// Outcome is the terminal result of one attempt.
type Outcome string

const (
	OutcomeWon   Outcome = "WON"
	OutcomeLost  Outcome = "LOST"
	OutcomeError Outcome = "ERROR"
)

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	return o == OutcomeWon || o == OutcomeLost || o == OutcomeError
}

// PlayInstance is the immutable record of one completed attempt.
type PlayInstance struct {
	ID         string
	PatientID  string
	ExerciseID string
	Outcome    Outcome

	// ExperienceAwarded is set only when Outcome is OutcomeWon.
	ExperienceAwarded *int

	// Sequence is the store's global ordering number; it breaks ties between
	// instances created within the same clock tick.
	Sequence  int64
	CreatedAt time.Time
}

// Awarded returns the experience awarded, or 0 when none was.
func (pi PlayInstance) Awarded() int {
	if pi.ExperienceAwarded == nil {
		return 0
	}
	return *pi.ExperienceAwarded
}

// Attempt is the outcome of one attempt before it is persisted. Awarded is
// ignored unless Outcome is OutcomeWon.
type Attempt struct {
	PatientID  string
	ExerciseID string
	SessionID  string
	Outcome    Outcome
	Awarded    int
}
