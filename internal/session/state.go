package session

import (
	"context"
	"time"

	"github.com/abhisek/habla/internal/answer"
	"github.com/abhisek/habla/internal/exercise"
	"github.com/abhisek/habla/internal/progression"
	"github.com/abhisek/habla/internal/speech"
)

// State is the lifecycle phase of a Runner.
type State int

const (
	StateNotStarted State = iota // Created, Start not yet called
	StateInProgress              // Serving exercises from the queue
	StateCompleted               // Queue exhausted or aborted
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateInProgress:
		return "in-progress"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Selector produces the exercises a patient may play.
type Selector interface {
	SelectEligible(ctx context.Context, patient exercise.Patient) ([]exercise.Exercise, error)
}

// Recorder persists one attempt. On a WON outcome it must add the awarded
// experience to the patient in the same transaction as the instance.
type Recorder interface {
	RecordAttempt(ctx context.Context, a exercise.Attempt) (exercise.PlayInstance, error)
}

// Patients loads patients.
type Patients interface {
	GetPatient(ctx context.Context, id string) (exercise.Patient, error)
}

// Submission is one answer to the current exercise. Exactly one of
// Candidate and Audio is set; Audio is only accepted for speech variants and
// is transcribed before checking.
type Submission struct {
	Candidate answer.Candidate
	Audio     *speech.Audio
}

// Result describes how a submission was scored and recorded.
type Result struct {
	Exercise exercise.Exercise
	Outcome  exercise.Outcome
	Correct  bool
	Awarded  int

	// Transcript is the recognized text when the submission carried audio.
	Transcript string

	// Cause explains an ERROR outcome: a *exercise.MalformedExerciseError
	// or a *speech.ServiceError.
	Cause error

	Instance exercise.PlayInstance

	// Level is the patient's level after this attempt. LevelUp is set when
	// the attempt moved the patient into a higher level.
	Level   progression.Level
	LevelUp bool
}

// Attempt is one recorded result kept for the session summary.
type Attempt struct {
	ExerciseID string
	Title      string
	Variant    exercise.Variant
	Outcome    exercise.Outcome
	Awarded    int
	At         time.Time
}
