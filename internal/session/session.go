// Package session drives a patient through one play session: a queue of
// eligible exercises served in order, each answer checked, scored and
// recorded before the cursor moves on.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/habla/internal/answer"
	"github.com/abhisek/habla/internal/exercise"
	"github.com/abhisek/habla/internal/progression"
	"github.com/abhisek/habla/internal/speech"
)

var (
	// ErrNotStarted is returned when an operation needs a running session.
	ErrNotStarted = errors.New("session is not in progress")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("session already started")

	// ErrEmptySubmission is returned when a submission has neither a
	// candidate nor audio.
	ErrEmptySubmission = errors.New("submission has no answer")
)

// Deps are the collaborators a Runner needs.
type Deps struct {
	Patients Patients
	Selector Selector
	Recorder Recorder
	Levels   progression.Table

	// Transcriber and Synthesizer may be nil when speech is unavailable.
	Transcriber speech.Transcriber
	Synthesizer speech.Synthesizer
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock overrides the time source used for attempt timestamps and
// session duration.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// Runner runs one session for one patient. It is not safe for concurrent
// use, except for PromptAudio.
type Runner struct {
	patientID string
	deps      Deps
	logger    *zap.Logger
	now       func() time.Time
	prompts   *speech.Cache

	id          string
	state       State
	aborted     bool
	patient     exercise.Patient
	levelBefore progression.Level
	queue       []exercise.Exercise
	cursor      int
	attempts    []Attempt
	startedAt   time.Time
	endedAt     time.Time
}

// New creates a Runner for patientID. Nothing is loaded until Start.
func New(patientID string, deps Deps, opts ...Option) *Runner {
	r := &Runner{
		patientID: patientID,
		deps:      deps,
		logger:    zap.NewNop(),
		now:       time.Now,
		id:        uuid.NewString(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if deps.Synthesizer != nil {
		r.prompts = speech.NewCache(deps.Synthesizer)
	}
	r.logger = r.logger.With(zap.String("session", r.id), zap.String("patient", patientID))
	return r
}

// Start loads the patient and builds the exercise queue. An empty queue
// completes the session immediately; that is not an error.
func (r *Runner) Start(ctx context.Context) error {
	if r.state != StateNotStarted {
		return ErrAlreadyStarted
	}

	patient, err := r.deps.Patients.GetPatient(ctx, r.patientID)
	if err != nil {
		return fmt.Errorf("load patient: %w", err)
	}
	queue, err := r.deps.Selector.SelectEligible(ctx, patient)
	if err != nil {
		return fmt.Errorf("select exercises: %w", err)
	}

	r.patient = patient
	r.levelBefore = r.deps.Levels.LevelFor(patient.Experience)
	r.queue = queue
	r.cursor = 0
	r.startedAt = r.now()

	if len(queue) == 0 {
		r.complete()
		r.logger.Info("session has nothing to play")
		return nil
	}

	r.state = StateInProgress
	r.logger.Info("session started",
		zap.Int("exercises", len(queue)),
		zap.Int("experience", patient.Experience),
	)
	return nil
}

// SubmitAnswer scores sub against the current exercise, records the
// attempt and advances the cursor.
//
// A malformed exercise or a failed transcription is recorded as an ERROR
// outcome with the reason in Result.Cause. A candidate of the wrong kind
// returns answer.ErrCandidateMismatch. If recording fails the error is
// returned and the cursor does not move.
func (r *Runner) SubmitAnswer(ctx context.Context, sub Submission) (Result, error) {
	if r.state != StateInProgress {
		return Result{}, ErrNotStarted
	}
	ex := r.queue[r.cursor]
	res := Result{Exercise: ex}

	if err := ex.Validate(); err != nil {
		res.Outcome = exercise.OutcomeError
		res.Cause = err
		return r.record(ctx, res)
	}

	candidate, err := r.candidate(ctx, ex, sub, &res)
	if err != nil {
		return Result{}, err
	}
	if res.Cause != nil {
		res.Outcome = exercise.OutcomeError
		return r.record(ctx, res)
	}

	correct, err := answer.Check(ex, candidate)
	switch {
	case errors.Is(err, answer.ErrCandidateMismatch):
		return Result{}, err
	case err != nil:
		res.Outcome = exercise.OutcomeError
		res.Cause = err
	case correct:
		res.Outcome = exercise.OutcomeWon
		res.Correct = true
		res.Awarded = ex.Reward
	default:
		res.Outcome = exercise.OutcomeLost
	}
	return r.record(ctx, res)
}

// candidate resolves the submission into a candidate, transcribing audio
// when needed. A transcription failure is reported through res.Cause.
func (r *Runner) candidate(ctx context.Context, ex exercise.Exercise, sub Submission, res *Result) (answer.Candidate, error) {
	switch {
	case sub.Candidate != nil:
		return sub.Candidate, nil
	case sub.Audio == nil:
		return nil, ErrEmptySubmission
	case !ex.Variant.Speech():
		return nil, fmt.Errorf("audio for %s exercise: %w", ex.Variant, answer.ErrCandidateMismatch)
	}

	if r.deps.Transcriber == nil {
		res.Cause = &speech.ServiceError{Provider: "none", Op: speech.OpTranscribe, Err: speech.ErrDisabled}
		return nil, nil
	}
	transcript, err := r.deps.Transcriber.Transcribe(ctx, *sub.Audio)
	if err != nil {
		var se *speech.ServiceError
		if !errors.As(err, &se) {
			err = &speech.ServiceError{Provider: "unknown", Op: speech.OpTranscribe, Err: err}
		}
		res.Cause = err
		return nil, nil
	}
	res.Transcript = transcript
	return answer.Speech{Transcript: transcript}, nil
}

// record persists res and advances the session. Nothing changes in memory
// when the write fails.
func (r *Runner) record(ctx context.Context, res Result) (Result, error) {
	ex := res.Exercise
	pi, err := r.deps.Recorder.RecordAttempt(ctx, exercise.Attempt{
		PatientID:  r.patient.ID,
		ExerciseID: ex.ID,
		SessionID:  r.id,
		Outcome:    res.Outcome,
		Awarded:    res.Awarded,
	})
	if err != nil {
		r.logger.Error("failed to record attempt", zap.String("exercise", ex.ID), zap.Error(err))
		return Result{}, fmt.Errorf("record attempt: %w", err)
	}
	res.Instance = pi

	before := r.deps.Levels.LevelFor(r.patient.Experience)
	if res.Outcome == exercise.OutcomeWon {
		r.patient.Experience = progression.ApplyReward(r.patient.Experience, ex)
	}
	res.Level = r.deps.Levels.LevelFor(r.patient.Experience)
	res.LevelUp = res.Level.Ranked && res.Level.Number > before.Number

	r.attempts = append(r.attempts, Attempt{
		ExerciseID: ex.ID,
		Title:      ex.Title,
		Variant:    ex.Variant,
		Outcome:    res.Outcome,
		Awarded:    res.Awarded,
		At:         r.now(),
	})

	fields := []zap.Field{
		zap.String("exercise", ex.ID),
		zap.String("variant", string(ex.Variant)),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("awarded", res.Awarded),
	}
	if res.Cause != nil {
		fields = append(fields, zap.NamedError("cause", res.Cause))
	}
	r.logger.Info("attempt recorded", fields...)

	r.cursor++
	if r.cursor >= len(r.queue) {
		r.complete()
		r.logger.Info("session completed",
			zap.Int("attempts", len(r.attempts)),
			zap.Int("experience", r.patient.Experience),
		)
	}
	return res, nil
}

// Abort ends an in-progress session without recording anything for the
// remaining exercises.
func (r *Runner) Abort() error {
	if r.state != StateInProgress {
		return ErrNotStarted
	}
	r.aborted = true
	r.complete()
	r.logger.Info("session aborted", zap.Int("remaining", len(r.queue)-r.cursor))
	return nil
}

// PromptAudio synthesizes the spoken prompt of the current exercise.
// Phrases are cached for the lifetime of the session.
func (r *Runner) PromptAudio(ctx context.Context) ([]byte, error) {
	ex, ok := r.Current()
	if !ok {
		return nil, ErrNotStarted
	}
	if r.prompts == nil {
		return nil, &speech.ServiceError{Provider: "none", Op: speech.OpSynthesize, Err: speech.ErrDisabled}
	}
	return r.prompts.Synthesize(ctx, ex.SpokenPrompt())
}

func (r *Runner) complete() {
	r.state = StateCompleted
	r.endedAt = r.now()
}

// ID returns the session identifier stamped on every recorded instance.
func (r *Runner) ID() string { return r.id }

// State returns the lifecycle phase.
func (r *Runner) State() State { return r.state }

// Current returns the exercise awaiting an answer.
func (r *Runner) Current() (exercise.Exercise, bool) {
	if r.state != StateInProgress {
		return exercise.Exercise{}, false
	}
	return r.queue[r.cursor], true
}

// Position returns the 1-based index of the current exercise and the queue
// length. The index is 0 when no exercise is awaiting an answer.
func (r *Runner) Position() (int, int) {
	if r.state != StateInProgress {
		return 0, len(r.queue)
	}
	return r.cursor + 1, len(r.queue)
}

// Remaining returns how many exercises are left, including the current one.
func (r *Runner) Remaining() int {
	if r.state != StateInProgress {
		return 0
	}
	return len(r.queue) - r.cursor
}

// Attempts returns the attempts recorded so far.
func (r *Runner) Attempts() []Attempt {
	return append([]Attempt(nil), r.attempts...)
}

// Patient returns the patient as of the last recorded attempt.
func (r *Runner) Patient() exercise.Patient { return r.patient }

// Level returns the patient's current level.
func (r *Runner) Level() progression.Level {
	return r.deps.Levels.LevelFor(r.patient.Experience)
}

// Summary tallies the session so far.
func (r *Runner) Summary() Summary {
	skipped := 0
	if r.aborted {
		skipped = len(r.queue) - r.cursor
	}
	s := BuildSummary(r.attempts, skipped)
	s.SessionID = r.id
	s.PatientID = r.patient.ID
	s.PatientName = r.patient.Name
	s.Aborted = r.aborted
	s.LevelBefore = r.levelBefore
	s.LevelAfter = r.Level()

	end := r.endedAt
	if r.state != StateCompleted {
		end = r.now()
	}
	if !r.startedAt.IsZero() {
		s.Duration = end.Sub(r.startedAt)
	}
	return s
}
