package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/habla/internal/answer"
	"github.com/abhisek/habla/internal/exercise"
	"github.com/abhisek/habla/internal/progression"
	"github.com/abhisek/habla/internal/speech"
)

// MockRecorder is a mock implementation of Recorder
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordAttempt(ctx context.Context, a exercise.Attempt) (exercise.PlayInstance, error) {
	args := m.Called(ctx, a)
	return args.Get(0).(exercise.PlayInstance), args.Error(1)
}

// MockPatients is a mock implementation of Patients
type MockPatients struct {
	mock.Mock
}

func (m *MockPatients) GetPatient(ctx context.Context, id string) (exercise.Patient, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(exercise.Patient), args.Error(1)
}

type fixedSelector struct {
	exercises []exercise.Exercise
	err       error
}

func (f fixedSelector) SelectEligible(context.Context, exercise.Patient) ([]exercise.Exercise, error) {
	return f.exercises, f.err
}

var testLevels = progression.NewTable([]progression.Threshold{
	{Level: 1, Min: 0, Max: 99},
	{Level: 2, Min: 100, Max: 249},
})

var testPatient = exercise.Patient{ID: "p1", Name: "Lucía", Experience: 90}

func rolesExercise(id string) exercise.Exercise {
	return exercise.Exercise{
		ID: id, Title: "Saludar", Variant: exercise.VariantRoles, Reward: 15, Active: true,
		Payload: exercise.RolesPayload{Options: []exercise.Option{
			{Text: "Hola", Correct: true},
			{Text: "Adiós"},
		}},
	}
}

func repetirExercise(id, phrase string) exercise.Exercise {
	return exercise.Exercise{
		ID: id, Title: "Repite", Variant: exercise.VariantRepetir, Reward: 20, Active: true,
		Prompt:  "Di la frase",
		Payload: exercise.RepetirPayload{TargetPhrase: phrase},
	}
}

type fixture struct {
	recorder *MockRecorder
	patients *MockPatients
	speech   *speech.MockProvider
	logs     *observer.ObservedLogs
}

func newRunner(t *testing.T, exercises []exercise.Exercise) (*Runner, *fixture) {
	t.Helper()
	f := &fixture{
		recorder: &MockRecorder{},
		patients: &MockPatients{},
		speech:   speech.NewMockProvider(),
	}
	f.patients.On("GetPatient", mock.Anything, testPatient.ID).Return(testPatient, nil)

	core, logs := observer.New(zapcore.DebugLevel)
	f.logs = logs

	r := New(testPatient.ID, Deps{
		Patients:    f.patients,
		Selector:    fixedSelector{exercises: exercises},
		Recorder:    f.recorder,
		Levels:      testLevels,
		Transcriber: f.speech,
		Synthesizer: f.speech,
	}, WithLogger(zap.New(core)))
	return r, f
}

func isOutcome(o exercise.Outcome) any {
	return mock.MatchedBy(func(a exercise.Attempt) bool { return a.Outcome == o })
}

func TestStart_EmptySelectionCompletes(t *testing.T) {
	r, f := newRunner(t, nil)

	require.NoError(t, r.Start(context.Background()))
	assert.Equal(t, StateCompleted, r.State())
	assert.Empty(t, r.Attempts())
	assert.Zero(t, r.Remaining())

	_, ok := r.Current()
	assert.False(t, ok)
	f.recorder.AssertNotCalled(t, "RecordAttempt", mock.Anything, mock.Anything)
}

func TestStart_Errors(t *testing.T) {
	r, _ := newRunner(t, []exercise.Exercise{rolesExercise("a")})
	ctx := context.Background()

	_, err := r.SubmitAnswer(ctx, Submission{Candidate: answer.Selection{Indices: []int{0}}})
	assert.ErrorIs(t, err, ErrNotStarted)

	require.NoError(t, r.Start(ctx))
	assert.ErrorIs(t, r.Start(ctx), ErrAlreadyStarted)

	failing := New("p1", Deps{
		Patients: &MockPatients{},
		Selector: fixedSelector{err: errors.New("boom")},
		Levels:   testLevels,
	})
	failing.deps.Patients.(*MockPatients).On("GetPatient", mock.Anything, "p1").Return(testPatient, nil)
	assert.ErrorContains(t, failing.Start(ctx), "select exercises")
	assert.Equal(t, StateNotStarted, failing.State())
}

func TestSubmitAnswer_FullSession(t *testing.T) {
	r, f := newRunner(t, []exercise.Exercise{
		rolesExercise("roles"),
		repetirExercise("rep", "El perro come"),
		rolesExercise("roles-2"),
	})
	f.recorder.On("RecordAttempt", mock.Anything, mock.Anything).Return(exercise.PlayInstance{ID: "i"}, nil)
	f.speech.AddTranscript(speech.MockResponse{Transcript: "el perro, come!"})
	ctx := context.Background()

	require.NoError(t, r.Start(ctx))
	assert.Equal(t, StateInProgress, r.State())
	assert.Equal(t, 3, r.Remaining())
	pos, total := r.Position()
	assert.Equal(t, 1, pos)
	assert.Equal(t, 3, total)

	res, err := r.SubmitAnswer(ctx, Submission{Candidate: answer.Selection{Indices: []int{0}}})
	require.NoError(t, err)
	assert.Equal(t, exercise.OutcomeWon, res.Outcome)
	assert.Equal(t, 15, res.Awarded)
	assert.True(t, res.LevelUp)
	assert.Equal(t, 2, res.Level.Number)
	assert.Equal(t, 105, r.Patient().Experience)

	res, err = r.SubmitAnswer(ctx, Submission{Audio: &speech.Audio{Data: []byte{1, 2}, MIMEType: "audio/wav"}})
	require.NoError(t, err)
	assert.Equal(t, exercise.OutcomeWon, res.Outcome)
	assert.Equal(t, "el perro, come!", res.Transcript)
	assert.False(t, res.LevelUp)

	res, err = r.SubmitAnswer(ctx, Submission{Candidate: answer.Selection{Indices: []int{0, 1}}})
	require.NoError(t, err)
	assert.Equal(t, exercise.OutcomeLost, res.Outcome)
	assert.Zero(t, res.Awarded)

	assert.Equal(t, StateCompleted, r.State())
	assert.Equal(t, 125, r.Patient().Experience)
	pos, total = r.Position()
	assert.Equal(t, 0, pos)
	assert.Equal(t, 3, total)

	sum := r.Summary()
	assert.Equal(t, 3, sum.Attempts)
	assert.Equal(t, 2, sum.Won)
	assert.Equal(t, 1, sum.Lost)
	assert.Equal(t, 35, sum.Experience)
	assert.Equal(t, 1, sum.LevelBefore.Number)
	assert.Equal(t, 2, sum.LevelAfter.Number)
	assert.False(t, sum.Aborted)

	f.recorder.AssertNumberOfCalls(t, "RecordAttempt", 3)
	f.recorder.AssertCalled(t, "RecordAttempt", mock.Anything, exercise.Attempt{
		PatientID: "p1", ExerciseID: "roles", SessionID: r.ID(), Outcome: exercise.OutcomeWon, Awarded: 15,
	})
	assert.Equal(t, 3, f.logs.FilterMessage("attempt recorded").Len())
	assert.Equal(t, 1, f.logs.FilterMessage("session completed").Len())
}

func TestSubmitAnswer_MalformedExerciseRecordsError(t *testing.T) {
	broken := rolesExercise("broken")
	broken.Payload = exercise.RolesPayload{Options: []exercise.Option{{Text: "Hola"}}}

	r, f := newRunner(t, []exercise.Exercise{broken})
	f.recorder.On("RecordAttempt", mock.Anything, isOutcome(exercise.OutcomeError)).Return(exercise.PlayInstance{}, nil)
	ctx := context.Background()
	require.NoError(t, r.Start(ctx))

	res, err := r.SubmitAnswer(ctx, Submission{Candidate: answer.Selection{Indices: []int{0}}})
	require.NoError(t, err)
	assert.Equal(t, exercise.OutcomeError, res.Outcome)
	assert.True(t, exercise.IsMalformed(res.Cause))
	assert.Equal(t, 90, r.Patient().Experience)
	assert.Equal(t, StateCompleted, r.State())
	f.recorder.AssertExpectations(t)
}

func TestSubmitAnswer_TranscriptionFailureRecordsError(t *testing.T) {
	r, f := newRunner(t, []exercise.Exercise{repetirExercise("rep", "hola")})
	f.recorder.On("RecordAttempt", mock.Anything, isOutcome(exercise.OutcomeError)).Return(exercise.PlayInstance{}, nil)
	f.speech.AddTranscript(speech.MockResponse{Err: errors.New("quota exceeded")})
	ctx := context.Background()
	require.NoError(t, r.Start(ctx))

	res, err := r.SubmitAnswer(ctx, Submission{Audio: &speech.Audio{Data: []byte("x"), MIMEType: "audio/wav"}})
	require.NoError(t, err)
	assert.Equal(t, exercise.OutcomeError, res.Outcome)

	var se *speech.ServiceError
	require.ErrorAs(t, res.Cause, &se)
	assert.Equal(t, speech.OpTranscribe, se.Op)
	assert.Equal(t, 1, f.logs.FilterField(zap.String("outcome", "ERROR")).Len())
}

func TestSubmitAnswer_NoTranscriberRecordsError(t *testing.T) {
	r, f := newRunner(t, []exercise.Exercise{repetirExercise("rep", "hola")})
	r.deps.Transcriber = nil
	f.recorder.On("RecordAttempt", mock.Anything, isOutcome(exercise.OutcomeError)).Return(exercise.PlayInstance{}, nil)
	ctx := context.Background()
	require.NoError(t, r.Start(ctx))

	res, err := r.SubmitAnswer(ctx, Submission{Audio: &speech.Audio{Data: []byte("hola"), MIMEType: "text/plain"}})
	require.NoError(t, err)
	assert.ErrorIs(t, res.Cause, speech.ErrDisabled)
}

func TestSubmitAnswer_PersistenceFailureKeepsCursor(t *testing.T) {
	r, f := newRunner(t, []exercise.Exercise{rolesExercise("a"), rolesExercise("b")})
	f.recorder.On("RecordAttempt", mock.Anything, mock.Anything).Return(exercise.PlayInstance{}, errors.New("disk full")).Once()
	f.recorder.On("RecordAttempt", mock.Anything, mock.Anything).Return(exercise.PlayInstance{}, nil)
	ctx := context.Background()
	require.NoError(t, r.Start(ctx))

	_, err := r.SubmitAnswer(ctx, Submission{Candidate: answer.Selection{Indices: []int{0}}})
	require.ErrorContains(t, err, "disk full")

	cur, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, "a", cur.ID)
	assert.Equal(t, 90, r.Patient().Experience)
	assert.Empty(t, r.Attempts())

	res, err := r.SubmitAnswer(ctx, Submission{Candidate: answer.Selection{Indices: []int{0}}})
	require.NoError(t, err)
	assert.Equal(t, "a", res.Exercise.ID)
	assert.Equal(t, 1, r.Remaining())
}

func TestSubmitAnswer_CandidateMismatch(t *testing.T) {
	r, f := newRunner(t, []exercise.Exercise{rolesExercise("a")})
	ctx := context.Background()
	require.NoError(t, r.Start(ctx))

	_, err := r.SubmitAnswer(ctx, Submission{Candidate: answer.Speech{Transcript: "hola"}})
	assert.ErrorIs(t, err, answer.ErrCandidateMismatch)

	_, err = r.SubmitAnswer(ctx, Submission{Audio: &speech.Audio{Data: []byte("hola"), MIMEType: "text/plain"}})
	assert.ErrorIs(t, err, answer.ErrCandidateMismatch)

	_, err = r.SubmitAnswer(ctx, Submission{})
	assert.ErrorIs(t, err, ErrEmptySubmission)

	assert.Equal(t, 1, r.Remaining())
	f.recorder.AssertNotCalled(t, "RecordAttempt", mock.Anything, mock.Anything)
}

func TestAbort(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	r, f := newRunner(t, []exercise.Exercise{rolesExercise("a"), rolesExercise("b"), rolesExercise("c")})
	WithClock(func() time.Time { return now })(r)
	f.recorder.On("RecordAttempt", mock.Anything, mock.Anything).Return(exercise.PlayInstance{}, nil)
	ctx := context.Background()

	assert.ErrorIs(t, r.Abort(), ErrNotStarted)
	require.NoError(t, r.Start(ctx))
	_, err := r.SubmitAnswer(ctx, Submission{Candidate: answer.Selection{Indices: []int{1}}})
	require.NoError(t, err)

	now = now.Add(90 * time.Second)
	require.NoError(t, r.Abort())
	assert.Equal(t, StateCompleted, r.State())
	pos, total := r.Position()
	assert.Equal(t, 0, pos)
	assert.Equal(t, 3, total)

	sum := r.Summary()
	assert.True(t, sum.Aborted)
	assert.Equal(t, 2, sum.Skipped)
	assert.Equal(t, 1, sum.Lost)
	assert.Equal(t, 90*time.Second, sum.Duration)
	f.recorder.AssertNumberOfCalls(t, "RecordAttempt", 1)

	_, err = r.SubmitAnswer(ctx, Submission{Candidate: answer.Selection{Indices: []int{0}}})
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestPromptAudio_CachedPerPhrase(t *testing.T) {
	r, f := newRunner(t, []exercise.Exercise{repetirExercise("rep", "Buenos días")})
	ctx := context.Background()

	_, err := r.PromptAudio(ctx)
	assert.ErrorIs(t, err, ErrNotStarted)

	require.NoError(t, r.Start(ctx))
	for i := 0; i < 3; i++ {
		audio, err := r.PromptAudio(ctx)
		require.NoError(t, err)
		assert.Equal(t, "mock-audio:Buenos días", string(audio))
	}
	assert.Equal(t, 1, f.speech.SynthesizeCount())
}

func TestPromptAudio_Disabled(t *testing.T) {
	r := New(testPatient.ID, Deps{
		Patients: &MockPatients{},
		Selector: fixedSelector{exercises: []exercise.Exercise{rolesExercise("a")}},
		Levels:   testLevels,
	})
	r.deps.Patients.(*MockPatients).On("GetPatient", mock.Anything, testPatient.ID).Return(testPatient, nil)
	require.NoError(t, r.Start(context.Background()))

	_, err := r.PromptAudio(context.Background())
	assert.ErrorIs(t, err, speech.ErrDisabled)
}

func TestBuildSummary(t *testing.T) {
	tests := []struct {
		name     string
		attempts []Attempt
		won      int
		errs     int
		accuracy float64
	}{
		{"empty", nil, 0, 0, 0},
		{"errors excluded from accuracy", []Attempt{
			{Outcome: exercise.OutcomeWon, Awarded: 10},
			{Outcome: exercise.OutcomeError},
			{Outcome: exercise.OutcomeLost},
		}, 1, 1, 0.5},
		{"all won", []Attempt{
			{Outcome: exercise.OutcomeWon, Awarded: 5},
			{Outcome: exercise.OutcomeWon, Awarded: 5},
		}, 2, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := BuildSummary(tt.attempts, 0)
			assert.Equal(t, tt.won, s.Won)
			assert.Equal(t, tt.errs, s.Errors)
			assert.InDelta(t, tt.accuracy, s.Accuracy, 1e-9)
			assert.Equal(t, len(tt.attempts), s.Attempts)
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "not-started", StateNotStarted.String())
	assert.Equal(t, "in-progress", StateInProgress.String())
	assert.Equal(t, "completed", StateCompleted.String())
}
