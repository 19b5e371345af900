package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// The global sequence orders play instances across sessions and patients.
// Timestamps alone cannot: two attempts may land in the same clock tick.
// The counter lives in its own single-row table, created with raw SQL since
// it is not part of the migrated schema, and is always advanced inside the
// transaction that writes the instance so a rolled-back attempt does not
// consume a number.

const createSequenceTable = `CREATE TABLE IF NOT EXISTS global_sequence (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	next_val INTEGER NOT NULL DEFAULT 1
)`

// ensureSequence creates and seeds the counter table.
func ensureSequence(ctx context.Context, ex dialect.ExecQuerier) error {
	if err := ex.Exec(ctx, createSequenceTable, []any{}, nil); err != nil {
		return fmt.Errorf("create sequence table: %w", err)
	}
	if err := ex.Exec(ctx, `INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`, []any{}, nil); err != nil {
		return fmt.Errorf("seed sequence: %w", err)
	}
	return nil
}

// nextSequence atomically returns the next sequence number and increments
// the counter. ex is normally the attempt's transaction.
func nextSequence(ctx context.Context, ex dialect.ExecQuerier) (int64, error) {
	var rows entsql.Rows
	err := ex.Query(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
		[]any{}, &rows)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("next sequence: %w", err)
		}
		return 0, fmt.Errorf("next sequence: counter row missing")
	}
	var seq int64
	if err := rows.Scan(&seq); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}
