package history

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ecliptic-labs/eclipseq/internal/sequencer"
)

// setupTestDB creates an in-memory SQLite database with the runs schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Matches the migration schema.
	schema := `
		CREATE TABLE runs (
			id TEXT PRIMARY KEY,
			script TEXT,
			clock_mode TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at TEXT NOT NULL,
			completed_at TEXT,
			total INTEGER NOT NULL DEFAULT 0,
			done INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			late INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0
		) STRICT;

		CREATE TABLE run_dispatches (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			idx INTEGER NOT NULL,
			kind TEXT NOT NULL,
			detail TEXT NOT NULL,
			scheduled TEXT NOT NULL,
			dispatched TEXT NOT NULL,
			latency_ms INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error TEXT,
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		) STRICT;`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	return db
}

func sampleRun(id string, started time.Time) *sequencer.Run {
	return &sequencer.Run{
		ID:        id,
		Script:    "totality.sem",
		ClockMode: "real",
		Status:    sequencer.StatusRunning,
		StartedAt: started,
		Total:     4,
	}
}

func TestCreateAndGetRun(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	started := time.Date(2026, 8, 12, 17, 0, 0, 0, time.UTC)
	run := sampleRun("run-11112222", started)
	if err := repo.CreateRun(ctx, run); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Script != "totality.sem" || got.Total != 4 || !got.StartedAt.Equal(started) {
		t.Errorf("got %+v, want script/total/start preserved", got)
	}
	if got.CompletedAt != nil {
		t.Error("CompletedAt set on a running run")
	}
}

func TestUpdateRunFinalisesCounters(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	run := sampleRun("run-33334444", time.Now().UTC())
	if err := repo.CreateRun(ctx, run); err != nil {
		t.Fatalf("create: %v", err)
	}

	completed := run.StartedAt.Add(90 * time.Minute)
	run.Status = sequencer.StatusPartial
	run.CompletedAt = &completed
	run.Done, run.Failed, run.Late = 3, 1, 2
	if err := repo.UpdateRun(ctx, run); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != sequencer.StatusPartial || got.Done != 3 || got.Failed != 1 || got.Late != 2 {
		t.Errorf("got %+v, want partial 3/1/2", got)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(completed) {
		t.Errorf("CompletedAt = %v, want %v", got.CompletedAt, completed)
	}
}

func TestGetMissingRun(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	if _, err := repo.Get(context.Background(), "run-missing1"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("err = %v, want ErrRunNotFound", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 8, 12, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-aaaa0001", "run-aaaa0002", "run-aaaa0003"} {
		if err := repo.CreateRun(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	runs, err := repo.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != "run-aaaa0003" || runs[1].ID != "run-aaaa0002" {
		t.Errorf("order = %s, %s; want newest first", runs[0].ID, runs[1].ID)
	}
}

func TestDispatchesInListOrder(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	run := sampleRun("run-55556666", time.Now().UTC())
	if err := repo.CreateRun(ctx, run); err != nil {
		t.Fatalf("create run: %v", err)
	}

	due := time.Date(2026, 8, 12, 18, 30, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		d := &sequencer.Dispatch{
			ID:         "dsp-0000000" + string(rune('1'+i)),
			RunID:      run.ID,
			Index:      i,
			Kind:       "PICT",
			Detail:     "18:30:00.0 PICT f/8 1/250s iso100",
			Scheduled:  due.Add(time.Duration(i) * time.Second),
			Dispatched: due.Add(time.Duration(i)*time.Second + 40*time.Millisecond),
			LatencyMS:  40,
			Status:     sequencer.DispatchOK,
		}
		if i == 1 {
			d.Status = sequencer.DispatchFailed
			d.Error = "camera: capture failed"
		}
		if err := repo.CreateDispatch(ctx, d); err != nil {
			t.Fatalf("create dispatch %d: %v", i, err)
		}
	}

	got, err := repo.Dispatches(ctx, run.ID)
	if err != nil {
		t.Fatalf("dispatches: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d dispatches, want 3", len(got))
	}
	for i, d := range got {
		if d.Index != i {
			t.Errorf("dispatch %d has index %d, want list order", i, d.Index)
		}
	}
	if got[1].Status != sequencer.DispatchFailed || got[1].Error == "" {
		t.Errorf("dispatch 1 = %+v, want failed with error text", got[1])
	}
}
