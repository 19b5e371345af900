package exercise

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Payload is the variant-specific part of an exercise. The set of
// implementations is closed: one payload type per Variant.
type Payload interface {
	// Variant returns the tag this payload belongs to.
	Variant() Variant

	isPayload()
}

// Option is one selectable choice in a ROLES or EMOCIONES exercise.
type Option struct {
	Text    string `json:"text" validate:"required"`
	Image   string `json:"image,omitempty"`
	Correct bool   `json:"correct"`
}

// RolesPayload asks the patient to pick every option that fits a social
// situation.
type RolesPayload struct {
	Options []Option `json:"options" validate:"required,min=1,dive"`
}

// EmocionesPayload asks the patient to pick the emotions shown in a prompt.
type EmocionesPayload struct {
	Options []Option `json:"options" validate:"required,min=1,dive"`
}

// RepetirPayload asks the patient to say a target phrase out loud.
type RepetirPayload struct {
	TargetPhrase string `json:"target_phrase" validate:"required"`
}

// HablarPayload shows an incomplete sentence; the patient says the missing
// word. Only WordToComplete is compared against the transcript.
type HablarPayload struct {
	FullText       string `json:"full_text"`
	IncompleteText string `json:"incomplete_text"`
	WordToComplete string `json:"word_to_complete" validate:"required"`
}

// OrderToken is one piece of an ORDEN exercise. Rank is the 1-based position
// the token must occupy in the answer.
type OrderToken struct {
	Text string `json:"text" validate:"required"`
	Rank int    `json:"rank" validate:"min=1"`
}

// OrdenPayload asks the patient to arrange tokens in rank order.
type OrdenPayload struct {
	Tokens []OrderToken `json:"tokens" validate:"required,min=1,dive"`
}

// CompletarPayload asks the patient to pick the option that completes a
// sentence.
type CompletarPayload struct {
	Sentence      string   `json:"sentence" validate:"required"`
	Options       []string `json:"options" validate:"required,min=1,dive,required"`
	CorrectOption string   `json:"correct_option" validate:"required"`
}

func (RolesPayload) Variant() Variant     { return VariantRoles }
func (EmocionesPayload) Variant() Variant { return VariantEmociones }
func (RepetirPayload) Variant() Variant   { return VariantRepetir }
func (HablarPayload) Variant() Variant    { return VariantHablar }
func (OrdenPayload) Variant() Variant     { return VariantOrden }
func (CompletarPayload) Variant() Variant { return VariantCompletar }

func (RolesPayload) isPayload()     {}
func (EmocionesPayload) isPayload() {}
func (RepetirPayload) isPayload()   {}
func (HablarPayload) isPayload()    {}
func (OrdenPayload) isPayload()     {}
func (CompletarPayload) isPayload() {}

// CorrectSet returns the indices of options flagged correct.
func CorrectSet(options []Option) map[int]bool {
	set := make(map[int]bool)
	for i, o := range options {
		if o.Correct {
			set[i] = true
		}
	}
	return set
}

var payloadValidator = newPayloadValidator()

func newPayloadValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks that the payload matches the declared variant and carries
// every field the variant needs. It returns a *MalformedExerciseError on
// failure.
func (e Exercise) Validate() error {
	malformed := func(reason string, err error) error {
		return &MalformedExerciseError{ExerciseID: e.ID, Variant: e.Variant, Reason: reason, Err: err}
	}

	if !e.Variant.Valid() {
		return malformed("unknown variant", ErrUnknownVariant)
	}
	if e.Payload == nil {
		return malformed("missing payload", nil)
	}
	if e.Payload.Variant() != e.Variant {
		return malformed(fmt.Sprintf("payload is for %s", e.Payload.Variant()), nil)
	}

	if err := payloadValidator.Struct(e.Payload); err != nil {
		return malformed(describeValidation(err), err)
	}

	switch p := e.Payload.(type) {
	case RolesPayload:
		if len(CorrectSet(p.Options)) == 0 {
			return malformed("no option is flagged correct", nil)
		}
	case EmocionesPayload:
		if len(CorrectSet(p.Options)) == 0 {
			return malformed("no option is flagged correct", nil)
		}
	case OrdenPayload:
		if err := checkRanks(p.Tokens); err != nil {
			return malformed(err.Error(), nil)
		}
	}
	return nil
}

// checkRanks verifies that token ranks are exactly 1..N.
func checkRanks(tokens []OrderToken) error {
	ranks := make([]int, len(tokens))
	for i, t := range tokens {
		ranks[i] = t.Rank
	}
	sort.Ints(ranks)
	for i, r := range ranks {
		if r != i+1 {
			return fmt.Errorf("token ranks must be 1..%d, got %v", len(tokens), ranks)
		}
	}
	return nil
}

// describeValidation turns validator errors into a short field list.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid payload"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return "invalid fields: " + strings.Join(fields, ", ")
}

// DecodePayload decodes a JSON payload for the given variant.
func DecodePayload(v Variant, raw json.RawMessage) (Payload, error) {
	var (
		p   Payload
		err error
	)
	switch v {
	case VariantRoles:
		var rp RolesPayload
		err = json.Unmarshal(raw, &rp)
		p = rp
	case VariantEmociones:
		var ep EmocionesPayload
		err = json.Unmarshal(raw, &ep)
		p = ep
	case VariantRepetir:
		var rp RepetirPayload
		err = json.Unmarshal(raw, &rp)
		p = rp
	case VariantHablar:
		var hp HablarPayload
		err = json.Unmarshal(raw, &hp)
		p = hp
	case VariantOrden:
		var op OrdenPayload
		err = json.Unmarshal(raw, &op)
		p = op
	case VariantCompletar:
		var cp CompletarPayload
		err = json.Unmarshal(raw, &cp)
		p = cp
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", v, err)
	}
	return p, nil
}

// EncodePayload encodes a payload as JSON.
func EncodePayload(p Payload) (json.RawMessage, error) {
	if p == nil {
		return json.RawMessage("null"), nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", p.Variant(), err)
	}
	return b, nil
}
