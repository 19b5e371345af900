package selector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/habla/internal/exercise"
)

var now = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func patientAged(years int, area exercise.Area) exercise.Patient {
	return exercise.Patient{
		ID:            "p1",
		Name:          "Lucía",
		BirthDate:     now.AddDate(-years, 0, -1),
		DiagnosisArea: area,
	}
}

func ex(id string, band exercise.AgeBand, area exercise.Area, created time.Time) exercise.Exercise {
	return exercise.Exercise{
		ID:        id,
		AgeBand:   band,
		Area:      area,
		Active:    true,
		Variant:   exercise.VariantRepetir,
		Payload:   exercise.RepetirPayload{TargetPhrase: "hola"},
		CreatedAt: created,
	}
}

type fakeCatalog struct {
	exercises []exercise.Exercise
	err       error
}

func (f *fakeCatalog) ListActiveExercises(context.Context, exercise.AgeBand, exercise.Area) ([]exercise.Exercise, error) {
	return f.exercises, f.err
}

type fakeHistory map[string]map[string]bool

func (f fakeHistory) ListWonExerciseIDs(_ context.Context, patientID string) (map[string]bool, error) {
	return f[patientID], nil
}

func TestBandForAge(t *testing.T) {
	tests := []struct {
		age  int
		want exercise.AgeBand
	}{
		{3, exercise.AgeBandAll},
		{4, exercise.AgeBandA},
		{6, exercise.AgeBandA},
		{7, exercise.AgeBandB},
		{10, exercise.AgeBandB},
		{11, exercise.AgeBandAll},
	}
	for _, tc := range tests {
		if got := BandForAge(tc.age); got != tc.want {
			t.Errorf("BandForAge(%d) = %q, want %q", tc.age, got, tc.want)
		}
	}
}

func TestSelectEligible_BandAndArea(t *testing.T) {
	catalog := &fakeCatalog{exercises: []exercise.Exercise{
		ex("phon-a", exercise.AgeBandA, exercise.AreaPhonology, now.Add(-time.Hour)),
		ex("phon-b", exercise.AgeBandB, exercise.AreaPhonology, now.Add(-2*time.Hour)),
		ex("all-none", exercise.AgeBandAll, exercise.AreaNone, now.Add(-3*time.Hour)),
	}}

	s := New(catalog, fakeHistory{}, WithClock(func() time.Time { return now }))
	got, err := s.SelectEligible(context.Background(), patientAged(5, exercise.AreaPhonology))
	require.NoError(t, err)

	ids := idsOf(got)
	assert.Equal(t, []string{"phon-a", "all-none"}, ids)
}

func TestFilter_NoDiagnosisOnlyArealess(t *testing.T) {
	catalog := []exercise.Exercise{
		ex("sem", exercise.AgeBandA, exercise.AreaSemantics, now),
		ex("free", exercise.AgeBandA, exercise.AreaNone, now),
	}
	got := Filter(patientAged(5, exercise.AreaNone), now, catalog, nil)
	assert.Equal(t, []string{"free"}, idsOf(got))
}

func TestFilter_OutsideBandsOnlyAllAges(t *testing.T) {
	catalog := []exercise.Exercise{
		ex("a", exercise.AgeBandA, exercise.AreaNone, now),
		ex("b", exercise.AgeBandB, exercise.AreaNone, now),
		ex("all", exercise.AgeBandAll, exercise.AreaNone, now),
	}
	got := Filter(patientAged(12, exercise.AreaNone), now, catalog, nil)
	assert.Equal(t, []string{"all"}, idsOf(got))
}

func TestFilter_SkipsInactive(t *testing.T) {
	inactive := ex("off", exercise.AgeBandAll, exercise.AreaNone, now)
	inactive.Active = false
	got := Filter(patientAged(5, exercise.AreaNone), now, []exercise.Exercise{inactive}, nil)
	assert.Empty(t, got)
}

func TestSelectEligible_ExcludesWonForThisPatientOnly(t *testing.T) {
	catalog := &fakeCatalog{exercises: []exercise.Exercise{
		ex("e1", exercise.AgeBandAll, exercise.AreaNone, now),
		ex("e2", exercise.AgeBandAll, exercise.AreaNone, now),
	}}
	history := fakeHistory{
		"p1": {"e1": true},
		"p2": {"e2": true},
	}

	s := New(catalog, history, WithClock(func() time.Time { return now }))
	got, err := s.SelectEligible(context.Background(), patientAged(8, exercise.AreaNone))
	require.NoError(t, err)
	assert.Equal(t, []string{"e2"}, idsOf(got))
}

func TestFilter_OrderNewestFirstThenID(t *testing.T) {
	catalog := []exercise.Exercise{
		ex("old", exercise.AgeBandAll, exercise.AreaNone, now.Add(-time.Hour)),
		ex("b-new", exercise.AgeBandAll, exercise.AreaNone, now),
		ex("a-new", exercise.AgeBandAll, exercise.AreaNone, now),
	}
	got := Filter(patientAged(5, exercise.AreaNone), now, catalog, nil)
	assert.Equal(t, []string{"a-new", "b-new", "old"}, idsOf(got))
}

func TestSelectEligible_EmptyIsNotError(t *testing.T) {
	s := New(&fakeCatalog{}, fakeHistory{})
	got, err := s.SelectEligible(context.Background(), patientAged(5, exercise.AreaNone))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSelectEligible_CatalogError(t *testing.T) {
	boom := errors.New("boom")
	s := New(&fakeCatalog{err: boom}, fakeHistory{})
	_, err := s.SelectEligible(context.Background(), patientAged(5, exercise.AreaNone))
	assert.ErrorIs(t, err, boom)
}

func idsOf(exs []exercise.Exercise) []string {
	ids := make([]string, len(exs))
	for i, e := range exs {
		ids[i] = e.ID
	}
	return ids
}
