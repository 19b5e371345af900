package answer

import "errors"

// ErrCandidateMismatch is returned when a candidate's kind does not fit the
// exercise variant, e.g. a Speech candidate for an ORDEN exercise.
var ErrCandidateMismatch = errors.New("candidate does not match exercise variant")

// Candidate is a patient's answer to one exercise. The set of implementations
// is closed.
type Candidate interface {
	isCandidate()
}

// Selection holds the option indices chosen in a ROLES or EMOCIONES exercise.
type Selection struct {
	Indices []int
}

// Speech holds a speech-to-text transcript for REPETIR or HABLAR.
type Speech struct {
	Transcript string
}

// Order holds token indices in the order the patient picked them.
type Order struct {
	Picks []int
}

// Completion holds the option text picked in a COMPLETAR exercise.
type Completion struct {
	Choice string
}

func (Selection) isCandidate()  {}
func (Speech) isCandidate()     {}
func (Order) isCandidate()      {}
func (Completion) isCandidate() {}
