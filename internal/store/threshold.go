package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/habla/internal/progression"
)

// LevelThresholds returns the stored level table ordered by level.
func (s *Store) LevelThresholds(ctx context.Context) (progression.Table, error) {
	var out []progression.Threshold
	err := query(ctx, s.drv, sqlite.Select("level", "min_experience", "max_experience").
		From(entsql.Table(LevelThresholdsTable.Name)).
		OrderBy("level"),
		func(rows *entsql.Rows) error {
			var t progression.Threshold
			if err := rows.Scan(&t.Level, &t.Min, &t.Max); err != nil {
				return err
			}
			out = append(out, t)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("query level thresholds: %w", err)
	}
	return progression.NewTable(out), nil
}

// ReplaceThresholds swaps the stored level table for thresholds. The table
// must pass progression validation; nothing is written otherwise.
func (s *Store) ReplaceThresholds(ctx context.Context, thresholds []progression.Threshold) error {
	table := progression.NewTable(thresholds)
	if err := table.Validate(); err != nil {
		return fmt.Errorf("invalid level thresholds: %w", err)
	}

	return s.withTx(ctx, func(tx dialect.Tx) error {
		if _, err := exec(ctx, tx, sqlite.Delete(LevelThresholdsTable.Name)); err != nil {
			return fmt.Errorf("clear level thresholds: %w", err)
		}
		ins := sqlite.Insert(LevelThresholdsTable.Name).
			Columns("level", "min_experience", "max_experience")
		for _, t := range table {
			ins = ins.Values(t.Level, t.Min, t.Max)
		}
		if _, err := exec(ctx, tx, ins); err != nil {
			return fmt.Errorf("insert level thresholds: %w", err)
		}
		return nil
	})
}
