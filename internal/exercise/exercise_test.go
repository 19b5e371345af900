package exercise

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func validExercises() []Exercise {
	return []Exercise{
		{ID: "roles", Variant: VariantRoles, Payload: RolesPayload{Options: []Option{{Text: "Saludar", Correct: true}, {Text: "Gritar"}}}},
		{ID: "emo", Variant: VariantEmociones, Payload: EmocionesPayload{Options: []Option{{Text: "Feliz", Correct: true}}}},
		{ID: "rep", Variant: VariantRepetir, Payload: RepetirPayload{TargetPhrase: "El perro corre"}},
		{ID: "hab", Variant: VariantHablar, Payload: HablarPayload{FullText: "La casa es roja", IncompleteText: "La casa es ___", WordToComplete: "roja"}},
		{ID: "ord", Variant: VariantOrden, Payload: OrdenPayload{Tokens: []OrderToken{{Text: "perro", Rank: 2}, {Text: "El", Rank: 1}, {Text: "corre", Rank: 3}}}},
		{ID: "comp", Variant: VariantCompletar, Payload: CompletarPayload{Sentence: "El sol es ___", Options: []string{"amarillo", "azul"}, CorrectOption: "amarillo"}},
	}
}

func TestValidate_Valid(t *testing.T) {
	for _, ex := range validExercises() {
		if err := ex.Validate(); err != nil {
			t.Errorf("Validate(%s) = %v, want nil", ex.ID, err)
		}
	}
}

func TestValidate_Malformed(t *testing.T) {
	tests := []struct {
		name string
		ex   Exercise
		want string
	}{
		{"nil payload", Exercise{ID: "a", Variant: VariantRepetir}, "missing payload"},
		{"variant mismatch", Exercise{ID: "b", Variant: VariantHablar, Payload: RepetirPayload{TargetPhrase: "hola"}}, "payload is for REPETIR"},
		{"unknown variant", Exercise{ID: "c", Variant: "BAILAR", Payload: RepetirPayload{TargetPhrase: "hola"}}, "unknown variant"},
		{"empty target phrase", Exercise{ID: "d", Variant: VariantRepetir, Payload: RepetirPayload{}}, "target_phrase"},
		{"empty word to complete", Exercise{ID: "e", Variant: VariantHablar, Payload: HablarPayload{FullText: "x"}}, "word_to_complete"},
		{"no options", Exercise{ID: "f", Variant: VariantRoles, Payload: RolesPayload{}}, "options"},
		{"no correct option", Exercise{ID: "g", Variant: VariantEmociones, Payload: EmocionesPayload{Options: []Option{{Text: "Triste"}}}}, "no option is flagged correct"},
		{"option without text", Exercise{ID: "h", Variant: VariantRoles, Payload: RolesPayload{Options: []Option{{Correct: true}}}}, "text"},
		{"rank gap", Exercise{ID: "i", Variant: VariantOrden, Payload: OrdenPayload{Tokens: []OrderToken{{Text: "a", Rank: 1}, {Text: "b", Rank: 3}}}}, "token ranks"},
		{"duplicate rank", Exercise{ID: "j", Variant: VariantOrden, Payload: OrdenPayload{Tokens: []OrderToken{{Text: "a", Rank: 1}, {Text: "b", Rank: 1}}}}, "token ranks"},
		{"missing correct completion", Exercise{ID: "k", Variant: VariantCompletar, Payload: CompletarPayload{Sentence: "s", Options: []string{"x"}}}, "correct_option"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.ex.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			var m *MalformedExerciseError
			if !errors.As(err, &m) {
				t.Fatalf("error type = %T, want *MalformedExerciseError", err)
			}
			if m.ExerciseID != tc.ex.ID {
				t.Errorf("ExerciseID = %q, want %q", m.ExerciseID, tc.ex.ID)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tc.want)
			}
			if !IsMalformed(err) {
				t.Error("IsMalformed = false")
			}
		})
	}
}

func TestDecodePayload(t *testing.T) {
	raw := json.RawMessage(`{"tokens":[{"text":"El","rank":1},{"text":"gato","rank":2}]}`)
	p, err := DecodePayload(VariantOrden, raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	op, ok := p.(OrdenPayload)
	if !ok {
		t.Fatalf("payload type = %T, want OrdenPayload", p)
	}
	if len(op.Tokens) != 2 || op.Tokens[1].Text != "gato" {
		t.Errorf("tokens = %+v", op.Tokens)
	}

	if _, err := DecodePayload("BAILAR", raw); !errors.Is(err, ErrUnknownVariant) {
		t.Errorf("unknown variant error = %v, want ErrUnknownVariant", err)
	}
	if _, err := DecodePayload(VariantRepetir, json.RawMessage(`{`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestEncodePayload_Decodes(t *testing.T) {
	for _, ex := range validExercises() {
		raw, err := EncodePayload(ex.Payload)
		if err != nil {
			t.Fatalf("encode %s: %v", ex.ID, err)
		}
		p, err := DecodePayload(ex.Variant, raw)
		if err != nil {
			t.Fatalf("decode %s: %v", ex.ID, err)
		}
		if p.Variant() != ex.Variant {
			t.Errorf("%s: decoded variant %s", ex.ID, p.Variant())
		}
	}
}

func TestPatientAgeAt(t *testing.T) {
	birth := time.Date(2020, time.June, 15, 0, 0, 0, 0, time.UTC)
	p := Patient{BirthDate: birth}

	tests := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC), 4},
		{time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC), 5},
		{time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), 5},
		{time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC), 0},
	}
	for _, tc := range tests {
		if got := p.AgeAt(tc.now); got != tc.want {
			t.Errorf("AgeAt(%s) = %d, want %d", tc.now.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestSpokenPrompt(t *testing.T) {
	rep := Exercise{Prompt: "Repite la frase", Payload: RepetirPayload{TargetPhrase: "Hola amigo"}}
	if got := rep.SpokenPrompt(); got != "Hola amigo" {
		t.Errorf("SpokenPrompt = %q, want target phrase", got)
	}
	roles := Exercise{Prompt: "¿Qué dices al llegar?", Payload: RolesPayload{}}
	if got := roles.SpokenPrompt(); got != "¿Qué dices al llegar?" {
		t.Errorf("SpokenPrompt = %q, want prompt", got)
	}
}
