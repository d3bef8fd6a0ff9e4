package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/slidevalve/internal/engine"
	"github.com/roach88/slidevalve/internal/sweep"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// RunSummary describes a stored run without its samples.
type RunSummary struct {
	ID           string    `json:"id"`
	ParametersID string    `json:"parameters_id"`
	From         float64   `json:"from"`
	To           float64   `json:"to"`
	Step         float64   `json:"step"`
	CreatedAt    time.Time `json:"created_at"`
	SampleCount  int       `json:"sample_count"`
}

// ReadRun returns a run with all of its samples in index order.
func (s *Store) ReadRun(ctx context.Context, id string) (*sweep.Run, error) {
	var (
		run        sweep.Run
		paramsJSON string
		pointsJSON string
		createdAt  string
		count      int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, parameters_id, parameters, points, sweep_from, sweep_to, sweep_step, created_at, sample_count
		FROM runs
		WHERE id = ?
	`, id).Scan(
		&run.ID,
		&run.ParametersID,
		&paramsJSON,
		&pointsJSON,
		&run.From,
		&run.To,
		&run.Step,
		&createdAt,
		&count,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read run %q: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}

	if run.Parameters, err = unmarshalParameters(paramsJSON); err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}
	if run.Points, err = unmarshalPoints(pointsJSON); err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}
	if run.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}

	run.Samples, err = s.readSamples(ctx, id, count)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// readSamples returns the samples of a run ordered by index.
func (s *Store) readSamples(ctx context.Context, runID string, sizeHint int) ([]sweep.Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT angle, displacement, fraction, valve_offset, forward_phase, return_phase
		FROM samples
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	samples := make([]sweep.Sample, 0, sizeHint)
	for rows.Next() {
		smp, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return samples, nil
}

func scanSample(rows *sql.Rows) (sweep.Sample, error) {
	var (
		smp          sweep.Sample
		fwd, ret     string
		fwdErr, rErr error
	)
	if err := rows.Scan(&smp.Angle, &smp.Displacement, &smp.Fraction, &smp.ValveOffset, &fwd, &ret); err != nil {
		return sweep.Sample{}, fmt.Errorf("scan sample: %w", err)
	}
	smp.Forward, fwdErr = engine.ParsePhase(fwd)
	smp.Return, rErr = engine.ParsePhase(ret)
	if err := errors.Join(fwdErr, rErr); err != nil {
		return sweep.Sample{}, fmt.Errorf("scan sample: %w", err)
	}
	return smp, nil
}

// ListRuns returns stored runs without samples, oldest first. A non-empty
// parametersID restricts the list to runs of that parameter set.
func (s *Store) ListRuns(ctx context.Context, parametersID string) ([]RunSummary, error) {
	query := `
		SELECT id, parameters_id, sweep_from, sweep_to, sweep_step, created_at, sample_count
		FROM runs
	`
	var args []any
	if parametersID != "" {
		query += ` WHERE parameters_id = ?`
		args = append(args, parametersID)
	}
	query += ` ORDER BY created_at ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var (
			rs        RunSummary
			createdAt string
		)
		if err := rows.Scan(&rs.ID, &rs.ParametersID, &rs.From, &rs.To, &rs.Step, &createdAt, &rs.SampleCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if rs.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		runs = append(runs, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
