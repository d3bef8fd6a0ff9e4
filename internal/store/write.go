package store

import (
	"context"
	"fmt"

	"github.com/roach88/slidevalve/internal/sweep"
)

// WriteRun inserts a run and its samples in a single transaction.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: writing a run whose ID
// already exists leaves the stored run untouched and returns nil.
func (s *Store) WriteRun(ctx context.Context, run *sweep.Run) error {
	paramsJSON, err := marshalParameters(run.Parameters)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	pointsJSON, err := marshalPoints(run.Points)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, parameters_id, parameters, points, sweep_from, sweep_to, sweep_step, created_at, sample_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.ParametersID,
		paramsJSON,
		pointsJSON,
		run.From,
		run.To,
		run.Step,
		formatTime(run.CreatedAt),
		len(run.Samples),
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Already stored.
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO samples
		(run_id, idx, angle, displacement, fraction, valve_offset, forward_phase, return_phase)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write run: prepare samples: %w", err)
	}
	defer stmt.Close()

	for i, smp := range run.Samples {
		if _, err := stmt.ExecContext(ctx,
			run.ID,
			i,
			smp.Angle,
			smp.Displacement,
			smp.Fraction,
			smp.ValveOffset,
			smp.Forward.String(),
			smp.Return.String(),
		); err != nil {
			return fmt.Errorf("write run: sample %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}

// DeleteRun removes a run and, through the foreign key, its samples.
// Deleting a missing run returns ErrRunNotFound.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete run %q: %w", id, ErrRunNotFound)
	}
	return nil
}
