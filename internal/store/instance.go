package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/habla/internal/exercise"
)

var instanceColumns = []string{
	"id", "sequence", "session_id", "outcome", "experience_awarded",
	"created_at", "patient_id", "exercise_id",
}

// RecordAttempt appends a play instance and, for a won attempt, adds the
// awarded experience to the patient. Both writes commit together or not at
// all.
func (s *Store) RecordAttempt(ctx context.Context, a exercise.Attempt) (exercise.PlayInstance, error) {
	if !a.Outcome.Valid() {
		return exercise.PlayInstance{}, fmt.Errorf("unknown outcome %q", a.Outcome)
	}

	pi := exercise.PlayInstance{
		ID:         uuid.NewString(),
		PatientID:  a.PatientID,
		ExerciseID: a.ExerciseID,
		Outcome:    a.Outcome,
		CreatedAt:  time.Now().UTC(),
	}
	var awarded any
	if a.Outcome == exercise.OutcomeWon {
		n := a.Awarded
		pi.ExperienceAwarded = &n
		awarded = n
	}

	err := s.withTx(ctx, func(tx dialect.Tx) error {
		seq, err := nextSequence(ctx, tx)
		if err != nil {
			return err
		}
		pi.Sequence = seq

		_, err = exec(ctx, tx, sqlite.Insert(PlayInstancesTable.Name).
			Columns(instanceColumns...).
			Values(pi.ID, pi.Sequence, a.SessionID, string(pi.Outcome), awarded,
				pi.CreatedAt, pi.PatientID, pi.ExerciseID))
		if err != nil {
			return fmt.Errorf("insert play instance: %w", err)
		}

		if pi.ExperienceAwarded == nil {
			return nil
		}
		n, err := exec(ctx, tx, sqlite.Update(PatientsTable.Name).
			Add("experience", *pi.ExperienceAwarded).
			Where(entsql.EQ("id", pi.PatientID)))
		if err != nil {
			return fmt.Errorf("award experience: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("patient %s: %w", pi.PatientID, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return exercise.PlayInstance{}, err
	}
	return pi, nil
}

// ListInstances returns a patient's play instances, newest first.
func (s *Store) ListInstances(ctx context.Context, patientID string) ([]exercise.PlayInstance, error) {
	var out []exercise.PlayInstance
	err := query(ctx, s.drv, sqlite.Select(instanceColumns...).
		From(entsql.Table(PlayInstancesTable.Name)).
		Where(entsql.EQ("patient_id", patientID)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("sequence")),
		func(rows *entsql.Rows) error {
			var (
				pi        exercise.PlayInstance
				sessionID string
				outcome   string
				awarded   sql.NullInt64
			)
			err := rows.Scan(&pi.ID, &pi.Sequence, &sessionID, &outcome, &awarded,
				&pi.CreatedAt, &pi.PatientID, &pi.ExerciseID)
			if err != nil {
				return err
			}
			pi.Outcome = exercise.Outcome(outcome)
			if awarded.Valid {
				n := int(awarded.Int64)
				pi.ExperienceAwarded = &n
			}
			out = append(out, pi)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("query play instances: %w", err)
	}
	return out, nil
}

// ListWonExerciseIDs returns the set of exercises the patient has won at
// least once.
func (s *Store) ListWonExerciseIDs(ctx context.Context, patientID string) (map[string]bool, error) {
	won := make(map[string]bool)
	err := query(ctx, s.drv, sqlite.Select("exercise_id").
		From(entsql.Table(PlayInstancesTable.Name)).
		Where(entsql.And(
			entsql.EQ("patient_id", patientID),
			entsql.EQ("outcome", string(exercise.OutcomeWon)),
		)),
		func(rows *entsql.Rows) error {
			var id string
			if err := rows.Scan(&id); err != nil {
				return err
			}
			won[id] = true
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("query won exercises: %w", err)
	}
	return won, nil
}
