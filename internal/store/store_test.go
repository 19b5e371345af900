package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/habla/internal/exercise"
	"github.com/abhisek/habla/internal/progression"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustPatient(t *testing.T, s *Store, area exercise.Area) exercise.Patient {
	t.Helper()
	p, err := s.CreatePatient(context.Background(), NewPatient{
		Name:          "Lucía",
		BirthDate:     time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC),
		DiagnosisArea: area,
	})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return p
}

func repetir(id string, band exercise.AgeBand, area exercise.Area, created time.Time) exercise.Exercise {
	return exercise.Exercise{
		ID:        id,
		Title:     "Repite " + id,
		Area:      area,
		AgeBand:   band,
		Reward:    10,
		Active:    true,
		Variant:   exercise.VariantRepetir,
		Payload:   exercise.RepetirPayload{TargetPhrase: "hola"},
		CreatedAt: created,
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		if err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, name := range []string{"patients", "clinical_records", "exercises", "play_instances", "level_thresholds", "global_sequence"} {
		var got string
		err := s.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&got)
		if err != nil {
			t.Errorf("table %s: %v", name, err)
		}
	}
}

func TestOpenFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "habla.db")
	if err := EnsureDir(path); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	p := mustPatient(t, s, exercise.AreaNone)
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.GetPatient(context.Background(), p.ID); err != nil {
		t.Fatalf("patient lost after reopen: %v", err)
	}
}

func TestDefaultThresholdsSeeded(t *testing.T) {
	s := openTestStore(t)
	table, err := s.LevelThresholds(context.Background())
	if err != nil {
		t.Fatalf("thresholds: %v", err)
	}
	if len(table) != len(progression.DefaultThresholds()) {
		t.Fatalf("got %d thresholds, want %d", len(table), len(progression.DefaultThresholds()))
	}
	if table[0].Level != 1 || table[0].Min != 0 {
		t.Errorf("first threshold = %+v", table[0])
	}
}

func TestReplaceThresholds(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	custom := []progression.Threshold{{Level: 2, Min: 100, Max: 199}, {Level: 1, Min: 0, Max: 99}}
	if err := s.ReplaceThresholds(ctx, custom); err != nil {
		t.Fatalf("replace: %v", err)
	}
	table, err := s.LevelThresholds(ctx)
	if err != nil {
		t.Fatalf("thresholds: %v", err)
	}
	if len(table) != 2 || table[0].Level != 1 || table[1].Max != 199 {
		t.Errorf("table = %+v", table)
	}

	gap := []progression.Threshold{{Level: 1, Min: 0, Max: 99}, {Level: 2, Min: 150, Max: 199}}
	if err := s.ReplaceThresholds(ctx, gap); err == nil {
		t.Fatal("expected error for gapped table")
	}
	table, _ = s.LevelThresholds(ctx)
	if len(table) != 2 || table[1].Min != 100 {
		t.Errorf("rejected table was written: %+v", table)
	}
}

func TestPatientDiagnosis(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := mustPatient(t, s, exercise.AreaPhonology)

	got, err := s.GetPatient(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DiagnosisArea != exercise.AreaPhonology || got.Experience != 0 {
		t.Errorf("patient = %+v", got)
	}

	if err := s.SetDiagnosis(ctx, p.ID, exercise.AreaSemantics); err != nil {
		t.Fatalf("set diagnosis: %v", err)
	}
	got, _ = s.GetPatient(ctx, p.ID)
	if got.DiagnosisArea != exercise.AreaSemantics {
		t.Errorf("area = %q, want semantics", got.DiagnosisArea)
	}

	var active int
	s.DB().QueryRow("SELECT COUNT(*) FROM clinical_records WHERE patient_id = ? AND active", p.ID).Scan(&active)
	if active != 1 {
		t.Errorf("active records = %d, want 1", active)
	}

	if err := s.SetDiagnosis(ctx, p.ID, exercise.AreaNone); err != nil {
		t.Fatalf("clear diagnosis: %v", err)
	}
	got, _ = s.GetPatient(ctx, p.ID)
	if got.DiagnosisArea != exercise.AreaNone {
		t.Errorf("area = %q, want none", got.DiagnosisArea)
	}
}

func TestGetPatientNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetPatient(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := s.SetDiagnosis(context.Background(), "missing", exercise.AreaSemantics); !errors.Is(err, ErrNotFound) {
		t.Fatalf("set diagnosis err = %v, want ErrNotFound", err)
	}
}

func TestCreatePatientRejectsBadInput(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.CreatePatient(ctx, NewPatient{Name: "  "}); err == nil {
		t.Error("expected error for blank name")
	}
	if _, err := s.CreatePatient(ctx, NewPatient{Name: "Ana", DiagnosisArea: "dance"}); err == nil {
		t.Error("expected error for unknown area")
	}
}

func TestListPatients(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for _, name := range []string{"Mateo", "Ana"} {
		if _, err := s.CreatePatient(ctx, NewPatient{Name: name, DiagnosisArea: exercise.AreaPragmatics}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	list, err := s.ListPatients(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Ana" || list[1].Name != "Mateo" {
		t.Fatalf("list = %+v", list)
	}
	if list[0].DiagnosisArea != exercise.AreaPragmatics {
		t.Errorf("area = %q", list[0].DiagnosisArea)
	}
}

func TestUpsertAndListActiveExercises(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	err := s.UpsertExercises(ctx, []exercise.Exercise{
		repetir("a", exercise.AgeBandA, exercise.AreaPhonology, base),
		repetir("b", exercise.AgeBandAll, exercise.AreaNone, base.Add(time.Hour)),
		repetir("c", exercise.AgeBandB, exercise.AreaPhonology, base),
		repetir("d", exercise.AgeBandA, exercise.AreaSemantics, base),
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	list, err := s.ListActiveExercises(ctx, exercise.AgeBandA, exercise.AreaPhonology)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	var ids []string
	for _, ex := range list {
		ids = append(ids, ex.ID)
	}
	if len(ids) != 2 || ids[0] != "b" || ids[1] != "a" {
		t.Errorf("ids = %v, want [b a]", ids)
	}

	if err := s.SetExerciseActive(ctx, "b", false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	list, _ = s.ListActiveExercises(ctx, exercise.AgeBandA, exercise.AreaPhonology)
	if len(list) != 1 || list[0].ID != "a" {
		t.Errorf("after deactivate = %v", list)
	}
	if err := s.SetExerciseActive(ctx, "zzz", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("deactivate unknown err = %v", err)
	}

	all, err := s.ListExercises(ctx)
	if err != nil || len(all) != 4 {
		t.Fatalf("list all = %d, %v", len(all), err)
	}
}

func TestUpsertReplacesExisting(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ex := repetir("a", exercise.AgeBandAll, exercise.AreaNone, time.Time{})
	if err := s.UpsertExercises(ctx, []exercise.Exercise{ex}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	ex.Title = "Nuevo"
	ex.Payload = exercise.RepetirPayload{TargetPhrase: "buenos días"}
	if err := s.UpsertExercises(ctx, []exercise.Exercise{ex}); err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	got, err := s.GetExercise(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Nuevo" {
		t.Errorf("title = %q", got.Title)
	}
	p, ok := got.Payload.(exercise.RepetirPayload)
	if !ok || p.TargetPhrase != "buenos días" {
		t.Errorf("payload = %#v", got.Payload)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("round-tripped exercise invalid: %v", err)
	}
}

func TestUndecodablePayloadLoadsAsMalformed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.UpsertExercises(ctx, []exercise.Exercise{repetir("a", exercise.AgeBandAll, exercise.AreaNone, time.Time{})}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := s.DB().Exec(`UPDATE exercises SET payload = '{"target_phrase": 7}' WHERE id = 'a'`); err != nil {
		t.Fatalf("corrupt payload: %v", err)
	}

	got, err := s.GetExercise(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Payload != nil {
		t.Fatalf("payload = %#v, want nil", got.Payload)
	}
	if !exercise.IsMalformed(got.Validate()) {
		t.Error("expected malformed exercise")
	}
}

func TestRecordAttempt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := mustPatient(t, s, exercise.AreaNone)
	if err := s.UpsertExercises(ctx, []exercise.Exercise{
		repetir("a", exercise.AgeBandAll, exercise.AreaNone, time.Time{}),
		repetir("b", exercise.AgeBandAll, exercise.AreaNone, time.Time{}),
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	attempts := []exercise.Attempt{
		{PatientID: p.ID, ExerciseID: "a", SessionID: "s1", Outcome: exercise.OutcomeLost, Awarded: 10},
		{PatientID: p.ID, ExerciseID: "a", SessionID: "s1", Outcome: exercise.OutcomeWon, Awarded: 10},
		{PatientID: p.ID, ExerciseID: "b", SessionID: "s1", Outcome: exercise.OutcomeError},
	}
	var last int64
	for i, a := range attempts {
		pi, err := s.RecordAttempt(ctx, a)
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if pi.Sequence <= last {
			t.Errorf("sequence %d not after %d", pi.Sequence, last)
		}
		last = pi.Sequence
		if (a.Outcome == exercise.OutcomeWon) != (pi.ExperienceAwarded != nil) {
			t.Errorf("attempt %d: awarded = %v for %s", i, pi.ExperienceAwarded, a.Outcome)
		}
	}

	got, _ := s.GetPatient(ctx, p.ID)
	if got.Experience != 10 {
		t.Errorf("experience = %d, want 10", got.Experience)
	}

	won, err := s.ListWonExerciseIDs(ctx, p.ID)
	if err != nil {
		t.Fatalf("won: %v", err)
	}
	if len(won) != 1 || !won["a"] {
		t.Errorf("won = %v", won)
	}

	list, err := s.ListInstances(ctx, p.ID)
	if err != nil {
		t.Fatalf("instances: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("instances = %d, want 3", len(list))
	}
	if list[0].Outcome != exercise.OutcomeError || list[2].Outcome != exercise.OutcomeLost {
		t.Errorf("order = %s, %s, %s", list[0].Outcome, list[1].Outcome, list[2].Outcome)
	}
	if list[1].Awarded() != 10 || list[2].Awarded() != 0 {
		t.Errorf("awarded = %d, %d", list[1].Awarded(), list[2].Awarded())
	}
}

func TestRecordAttemptRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := mustPatient(t, s, exercise.AreaNone)

	_, err := s.RecordAttempt(ctx, exercise.Attempt{
		PatientID: p.ID, ExerciseID: "missing", Outcome: exercise.OutcomeWon, Awarded: 10,
	})
	if err == nil {
		t.Fatal("expected foreign key error")
	}

	got, _ := s.GetPatient(ctx, p.ID)
	if got.Experience != 0 {
		t.Errorf("experience = %d after failed attempt", got.Experience)
	}
	var next int64
	s.DB().QueryRow("SELECT next_val FROM global_sequence WHERE id = 1").Scan(&next)
	if next != 1 {
		t.Errorf("sequence advanced to %d by rolled-back attempt", next)
	}

	if _, err := s.RecordAttempt(ctx, exercise.Attempt{PatientID: p.ID, ExerciseID: "x", Outcome: "DRAW"}); err == nil {
		t.Error("expected error for unknown outcome")
	}
}
