package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/habla/internal/exercise"
)

// NewPatient holds the fields needed to register a patient.
type NewPatient struct {
	Name          string
	BirthDate     time.Time
	DiagnosisArea exercise.Area
}

var patientColumns = []string{"id", "name", "birth_date", "experience"}

// CreatePatient registers a patient with zero experience. A non-empty
// DiagnosisArea also opens an active clinical record.
func (s *Store) CreatePatient(ctx context.Context, np NewPatient) (exercise.Patient, error) {
	name := strings.TrimSpace(np.Name)
	if name == "" {
		return exercise.Patient{}, fmt.Errorf("patient name is required")
	}
	if !np.DiagnosisArea.Valid() {
		return exercise.Patient{}, fmt.Errorf("unknown area %q", np.DiagnosisArea)
	}

	p := exercise.Patient{
		ID:            uuid.NewString(),
		Name:          name,
		BirthDate:     np.BirthDate.UTC(),
		DiagnosisArea: np.DiagnosisArea,
	}
	now := time.Now().UTC()

	err := s.withTx(ctx, func(tx dialect.Tx) error {
		_, err := exec(ctx, tx, sqlite.Insert(PatientsTable.Name).
			Columns("id", "name", "birth_date", "experience", "created_at").
			Values(p.ID, p.Name, p.BirthDate, 0, now))
		if err != nil {
			return fmt.Errorf("insert patient: %w", err)
		}
		if p.DiagnosisArea == exercise.AreaNone {
			return nil
		}
		return insertRecord(ctx, tx, p.ID, p.DiagnosisArea, now)
	})
	if err != nil {
		return exercise.Patient{}, err
	}
	return p, nil
}

// GetPatient returns the patient with the area of their most recent active
// clinical record.
func (s *Store) GetPatient(ctx context.Context, id string) (exercise.Patient, error) {
	var (
		p     exercise.Patient
		found bool
	)
	err := query(ctx, s.drv, sqlite.Select(patientColumns...).
		From(entsql.Table(PatientsTable.Name)).
		Where(entsql.EQ("id", id)),
		func(rows *entsql.Rows) error {
			found = true
			return rows.Scan(&p.ID, &p.Name, &p.BirthDate, &p.Experience)
		})
	if err != nil {
		return exercise.Patient{}, fmt.Errorf("query patient: %w", err)
	}
	if !found {
		return exercise.Patient{}, fmt.Errorf("patient %s: %w", id, ErrNotFound)
	}

	areas, err := s.activeAreas(ctx, []string{id})
	if err != nil {
		return exercise.Patient{}, err
	}
	p.DiagnosisArea = areas[id]
	return p, nil
}

// ListPatients returns every patient ordered by name.
func (s *Store) ListPatients(ctx context.Context) ([]exercise.Patient, error) {
	var out []exercise.Patient
	err := query(ctx, s.drv, sqlite.Select(patientColumns...).
		From(entsql.Table(PatientsTable.Name)).
		OrderBy("name", "id"),
		func(rows *entsql.Rows) error {
			var p exercise.Patient
			if err := rows.Scan(&p.ID, &p.Name, &p.BirthDate, &p.Experience); err != nil {
				return err
			}
			out = append(out, p)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}

	ids := make([]string, len(out))
	for i, p := range out {
		ids[i] = p.ID
	}
	areas, err := s.activeAreas(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].DiagnosisArea = areas[out[i].ID]
	}
	return out, nil
}

// SetDiagnosis closes the patient's active clinical records and opens a new
// one for area. AreaNone only closes the existing records.
func (s *Store) SetDiagnosis(ctx context.Context, patientID string, area exercise.Area) error {
	if !area.Valid() {
		return fmt.Errorf("unknown area %q", area)
	}
	if _, err := s.GetPatient(ctx, patientID); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx dialect.Tx) error {
		_, err := exec(ctx, tx, sqlite.Update(ClinicalRecordsTable.Name).
			Set("active", false).
			Where(entsql.And(entsql.EQ("patient_id", patientID), entsql.EQ("active", true))))
		if err != nil {
			return fmt.Errorf("close clinical records: %w", err)
		}
		if area == exercise.AreaNone {
			return nil
		}
		return insertRecord(ctx, tx, patientID, area, time.Now().UTC())
	})
}

func insertRecord(ctx context.Context, tx dialect.Tx, patientID string, area exercise.Area, at time.Time) error {
	_, err := exec(ctx, tx, sqlite.Insert(ClinicalRecordsTable.Name).
		Columns("id", "patient_id", "area", "active", "created_at").
		Values(uuid.NewString(), patientID, string(area), true, at))
	if err != nil {
		return fmt.Errorf("insert clinical record: %w", err)
	}
	return nil
}

// activeAreas maps patient IDs to the area of their newest active record.
func (s *Store) activeAreas(ctx context.Context, patientIDs []string) (map[string]exercise.Area, error) {
	areas := make(map[string]exercise.Area, len(patientIDs))
	if len(patientIDs) == 0 {
		return areas, nil
	}

	err := query(ctx, s.drv, sqlite.Select("patient_id", "area").
		From(entsql.Table(ClinicalRecordsTable.Name)).
		Where(entsql.And(entsql.In("patient_id", toAny(patientIDs)...), entsql.EQ("active", true))).
		OrderBy(entsql.Desc("created_at")),
		func(rows *entsql.Rows) error {
			var id, area string
			if err := rows.Scan(&id, &area); err != nil {
				return err
			}
			if _, seen := areas[id]; !seen {
				areas[id] = exercise.Area(area)
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("query clinical records: %w", err)
	}
	return areas, nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
