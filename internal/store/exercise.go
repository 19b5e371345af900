package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"go.uber.org/zap"

	"github.com/abhisek/habla/internal/exercise"
)

var exerciseColumns = []string{
	"id", "title", "area", "age_band", "difficulty", "reward", "active",
	"variant", "prompt", "prompt_image", "payload", "created_at",
}

// UpsertExercises inserts exercises, replacing any existing row with the
// same ID. The whole batch is written in one transaction.
func (s *Store) UpsertExercises(ctx context.Context, exercises []exercise.Exercise) error {
	if len(exercises) == 0 {
		return nil
	}
	now := time.Now().UTC()

	return s.withTx(ctx, func(tx dialect.Tx) error {
		for _, ex := range exercises {
			if ex.ID == "" {
				return fmt.Errorf("exercise %q has no id", ex.Title)
			}
			raw, err := exercise.EncodePayload(ex.Payload)
			if err != nil {
				return err
			}
			created := ex.CreatedAt.UTC()
			if ex.CreatedAt.IsZero() {
				created = now
			}
			_, err = exec(ctx, tx, sqlite.Insert(ExercisesTable.Name).
				Columns(exerciseColumns...).
				Values(ex.ID, ex.Title, string(ex.Area), string(ex.AgeBand), ex.Difficulty,
					ex.Reward, ex.Active, string(ex.Variant), ex.Prompt, ex.PromptImage,
					[]byte(raw), created).
				OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()))
			if err != nil {
				return fmt.Errorf("upsert exercise %s: %w", ex.ID, err)
			}
		}
		return nil
	})
}

// ListActiveExercises returns active exercises that can match a patient in
// band with a diagnosis in area: exercises for the band or for all ages, and
// for the area or for no area.
func (s *Store) ListActiveExercises(ctx context.Context, band exercise.AgeBand, area exercise.Area) ([]exercise.Exercise, error) {
	bands := []any{string(exercise.AgeBandAll)}
	if band != exercise.AgeBandAll {
		bands = append(bands, string(band))
	}
	areas := []any{string(exercise.AreaNone)}
	if area != exercise.AreaNone {
		areas = append(areas, string(area))
	}

	return s.selectExercises(ctx, entsql.And(
		entsql.EQ("active", true),
		entsql.In("age_band", bands...),
		entsql.In("area", areas...),
	))
}

// ListExercises returns the whole catalog, active or not.
func (s *Store) ListExercises(ctx context.Context) ([]exercise.Exercise, error) {
	return s.selectExercises(ctx, nil)
}

// ExercisesByID loads the exercises with the given IDs. Unknown IDs are
// absent from the result.
func (s *Store) ExercisesByID(ctx context.Context, ids []string) (map[string]exercise.Exercise, error) {
	out := make(map[string]exercise.Exercise, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	list, err := s.selectExercises(ctx, entsql.In("id", toAny(ids)...))
	if err != nil {
		return nil, err
	}
	for _, ex := range list {
		out[ex.ID] = ex
	}
	return out, nil
}

// GetExercise returns one exercise by ID.
func (s *Store) GetExercise(ctx context.Context, id string) (exercise.Exercise, error) {
	list, err := s.selectExercises(ctx, entsql.EQ("id", id))
	if err != nil {
		return exercise.Exercise{}, err
	}
	if len(list) == 0 {
		return exercise.Exercise{}, fmt.Errorf("exercise %s: %w", id, ErrNotFound)
	}
	return list[0], nil
}

// SetExerciseActive toggles whether an exercise can be selected.
func (s *Store) SetExerciseActive(ctx context.Context, id string, active bool) error {
	n, err := exec(ctx, s.drv, sqlite.Update(ExercisesTable.Name).
		Set("active", active).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return fmt.Errorf("update exercise %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("exercise %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) selectExercises(ctx context.Context, where *entsql.Predicate) ([]exercise.Exercise, error) {
	sel := sqlite.Select(exerciseColumns...).
		From(entsql.Table(ExercisesTable.Name)).
		OrderBy(entsql.Desc("created_at"), "id")
	if where != nil {
		sel = sel.Where(where)
	}

	var out []exercise.Exercise
	err := query(ctx, s.drv, sel, func(rows *entsql.Rows) error {
		ex, err := s.scanExercise(rows)
		if err != nil {
			return err
		}
		out = append(out, ex)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query exercises: %w", err)
	}
	return out, nil
}

// scanExercise reads one row. A payload that does not decode is left nil so
// the exercise still loads and is reported as malformed when validated.
func (s *Store) scanExercise(rows *entsql.Rows) (exercise.Exercise, error) {
	var (
		ex                  exercise.Exercise
		area, band, variant string
		raw                 []byte
	)
	err := rows.Scan(&ex.ID, &ex.Title, &area, &band, &ex.Difficulty, &ex.Reward, &ex.Active,
		&variant, &ex.Prompt, &ex.PromptImage, &raw, &ex.CreatedAt)
	if err != nil {
		return exercise.Exercise{}, err
	}
	ex.Area = exercise.Area(area)
	ex.AgeBand = exercise.AgeBand(band)
	ex.Variant = exercise.Variant(variant)

	p, err := exercise.DecodePayload(ex.Variant, raw)
	if err != nil {
		s.logger.Warn("undecodable exercise payload",
			zap.String("exercise", ex.ID),
			zap.String("variant", variant),
			zap.Error(err),
		)
		return ex, nil
	}
	ex.Payload = p
	return ex, nil
}
