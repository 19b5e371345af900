// Package selector decides which exercises a patient may play.
package selector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/habla/internal/exercise"
)

// Catalog lists active exercises for an age band and area. Implementations
// may return a superset; Filter applies the full rule set.
type Catalog interface {
	ListActiveExercises(ctx context.Context, band exercise.AgeBand, area exercise.Area) ([]exercise.Exercise, error)
}

// History reports which exercises a patient has already won.
type History interface {
	ListWonExerciseIDs(ctx context.Context, patientID string) (map[string]bool, error)
}

// BandForAge maps an age in whole years to its band. Ages outside both
// bands map to AgeBandAll, which only matches exercises for all ages.
func BandForAge(age int) exercise.AgeBand {
	switch {
	case age >= 4 && age <= 6:
		return exercise.AgeBandA
	case age >= 7 && age <= 10:
		return exercise.AgeBandB
	default:
		return exercise.AgeBandAll
	}
}

// Filter returns the exercises in catalog the patient may play at now,
// newest first. won holds IDs of exercises the patient has already won.
func Filter(patient exercise.Patient, now time.Time, catalog []exercise.Exercise, won map[string]bool) []exercise.Exercise {
	band := BandForAge(patient.AgeAt(now))
	area := patient.DiagnosisArea

	out := make([]exercise.Exercise, 0, len(catalog))
	for _, ex := range catalog {
		if !ex.Active {
			continue
		}
		if ex.AgeBand != exercise.AgeBandAll && ex.AgeBand != band {
			continue
		}
		if ex.Area != exercise.AreaNone && ex.Area != area {
			continue
		}
		if won[ex.ID] {
			continue
		}
		out = append(out, ex)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Option configures a Selector.
type Option func(*Selector)

// WithClock overrides the time source used to compute the patient's age.
func WithClock(now func() time.Time) Option {
	return func(s *Selector) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Selector) {
		if l != nil {
			s.logger = l
		}
	}
}

// Selector loads candidates and history and applies Filter.
type Selector struct {
	catalog Catalog
	history History
	now     func() time.Time
	logger  *zap.Logger
}

// New creates a Selector.
func New(catalog Catalog, history History, opts ...Option) *Selector {
	s := &Selector{
		catalog: catalog,
		history: history,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelectEligible returns the exercises patient may play now. An empty slice
// means there is nothing left to play and is not an error.
func (s *Selector) SelectEligible(ctx context.Context, patient exercise.Patient) ([]exercise.Exercise, error) {
	now := s.now()
	band := BandForAge(patient.AgeAt(now))

	candidates, err := s.catalog.ListActiveExercises(ctx, band, patient.DiagnosisArea)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	won, err := s.history.ListWonExerciseIDs(ctx, patient.ID)
	if err != nil {
		return nil, fmt.Errorf("list won exercises: %w", err)
	}

	eligible := Filter(patient, now, candidates, won)
	s.logger.Debug("selected exercises",
		zap.String("patient_id", patient.ID),
		zap.String("band", string(band)),
		zap.String("area", string(patient.DiagnosisArea)),
		zap.Int("candidates", len(candidates)),
		zap.Int("won", len(won)),
		zap.Int("eligible", len(eligible)))
	return eligible, nil
}
