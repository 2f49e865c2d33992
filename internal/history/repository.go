// Package history provides access to the runs and run_dispatches
// tables, the persistent record of every execution.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ecliptic-labs/eclipseq/internal/sequencer"
)

// ErrRunNotFound is returned when no run matches the requested ID.
var ErrRunNotFound = errors.New("history: run not found")

// defaultListLimit bounds List when no limit is given; maxListLimit is
// the hard ceiling.
const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Repository reads and writes run records in SQLite. It satisfies
// sequencer.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a run history repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateRun inserts the initial record for a starting run.
func (r *Repository) CreateRun(ctx context.Context, run *sequencer.Run) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO runs (id, script, clock_mode, status, started_at, total)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, nullableString(run.Script), run.ClockMode, run.Status,
		run.StartedAt.Format(time.RFC3339Nano), run.Total,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// UpdateRun writes the final counters and status for a finished run.
func (r *Repository) UpdateRun(ctx context.Context, run *sequencer.Run) error {
	var completedAt any
	if run.CompletedAt != nil {
		completedAt = run.CompletedAt.Format(time.RFC3339Nano)
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE runs
		 SET status = ?, completed_at = ?, done = ?, failed = ?, late = ?, skipped = ?
		 WHERE id = ?`,
		run.Status, completedAt, run.Done, run.Failed, run.Late, run.Skipped, run.ID,
	)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	return nil
}

// CreateDispatch records one dispatched command.
func (r *Repository) CreateDispatch(ctx context.Context, d *sequencer.Dispatch) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO run_dispatches
		   (id, run_id, idx, kind, detail, scheduled, dispatched, latency_ms, status, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.RunID, d.Index, d.Kind, d.Detail,
		d.Scheduled.Format(time.RFC3339Nano), d.Dispatched.Format(time.RFC3339Nano),
		d.LatencyMS, d.Status, nullableString(d.Error),
	)
	if err != nil {
		return fmt.Errorf("inserting dispatch: %w", err)
	}
	return nil
}

// List returns runs ordered newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]sequencer.Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, script, clock_mode, status, started_at, completed_at,
		        total, done, failed, late, skipped
		 FROM runs ORDER BY started_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []sequencer.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// Get returns one run by ID.
func (r *Repository) Get(ctx context.Context, id string) (*sequencer.Run, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, script, clock_mode, status, started_at, completed_at,
		        total, done, failed, late, skipped
		 FROM runs WHERE id = ?`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying run: %w", err)
		}
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return scanRun(rows)
}

// Dispatches returns the dispatch records for a run, in list order.
func (r *Repository) Dispatches(ctx context.Context, runID string) ([]sequencer.Dispatch, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, run_id, idx, kind, detail, scheduled, dispatched, latency_ms, status, error
		 FROM run_dispatches WHERE run_id = ? ORDER BY idx`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying dispatches: %w", err)
	}
	defer rows.Close()

	var dispatches []sequencer.Dispatch
	for rows.Next() {
		var d sequencer.Dispatch
		var scheduled, dispatched string
		var errText sql.NullString
		if err := rows.Scan(&d.ID, &d.RunID, &d.Index, &d.Kind, &d.Detail,
			&scheduled, &dispatched, &d.LatencyMS, &d.Status, &errText); err != nil {
			return nil, fmt.Errorf("scanning dispatch: %w", err)
		}
		if d.Scheduled, err = time.Parse(time.RFC3339Nano, scheduled); err != nil {
			return nil, fmt.Errorf("parsing dispatch time: %w", err)
		}
		if d.Dispatched, err = time.Parse(time.RFC3339Nano, dispatched); err != nil {
			return nil, fmt.Errorf("parsing dispatch time: %w", err)
		}
		d.Error = errText.String
		dispatches = append(dispatches, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dispatches: %w", err)
	}
	return dispatches, nil
}

func scanRun(rows *sql.Rows) (*sequencer.Run, error) {
	var run sequencer.Run
	var script, completedAt sql.NullString
	var startedAt string
	if err := rows.Scan(&run.ID, &script, &run.ClockMode, &run.Status,
		&startedAt, &completedAt,
		&run.Total, &run.Done, &run.Failed, &run.Late, &run.Skipped); err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	run.Script = script.String

	started, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing run start time: %w", err)
	}
	run.StartedAt = started

	if completedAt.Valid {
		completed, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing run completion time: %w", err)
		}
		run.CompletedAt = &completed
	}
	return &run, nil
}

// nullableString returns nil for empty strings, for nullable TEXT columns.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
