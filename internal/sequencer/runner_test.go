package sequencer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ecliptic-labs/eclipseq/internal/camera"
	"github.com/ecliptic-labs/eclipseq/internal/sequence"
)

// ─── Fakes ─────────────────────────────────────────────────────────────────

type fakeCamera struct {
	clock    Clock
	captures []camera.Exposure
	at       []time.Time
	failAt   map[int]error
}

func (f *fakeCamera) Capture(_ context.Context, exp camera.Exposure) error {
	i := len(f.captures)
	f.captures = append(f.captures, exp)
	f.at = append(f.at, f.clock.Now())
	if err, ok := f.failAt[i]; ok {
		return err
	}
	return nil
}

func (f *fakeCamera) Close() error { return nil }

// blockingCamera holds each exposure open for a fixed duration and
// honours context cancellation the way the gphoto2 driver does.
type blockingCamera struct {
	hold     time.Duration
	finished int
	aborted  int
}

func (b *blockingCamera) Capture(ctx context.Context, _ camera.Exposure) error {
	select {
	case <-time.After(b.hold):
		b.finished++
		return nil
	case <-ctx.Done():
		b.aborted++
		return ctx.Err()
	}
}

func (b *blockingCamera) Close() error { return nil }

type fakePlayer struct {
	files []string
}

func (f *fakePlayer) Play(_ context.Context, file string) error {
	f.files = append(f.files, file)
	return nil
}

type fakeRepo struct {
	created    []*Run
	updated    []*Run
	dispatches []*Dispatch
}

func (f *fakeRepo) CreateRun(_ context.Context, run *Run) error {
	f.created = append(f.created, run)
	return nil
}

func (f *fakeRepo) UpdateRun(_ context.Context, run *Run) error {
	f.updated = append(f.updated, run)
	return nil
}

func (f *fakeRepo) CreateDispatch(_ context.Context, d *Dispatch) error {
	f.dispatches = append(f.dispatches, d)
	return nil
}

type fakeHub struct {
	events []any
}

func (f *fakeHub) Broadcast(_ string, payload any) {
	f.events = append(f.events, payload)
}

type fakeMQTT struct {
	topics []string
}

func (f *fakeMQTT) Publish(topic string, _ []byte, _ byte, _ bool) error {
	f.topics = append(f.topics, topic)
	return nil
}

type testLogger struct{ t *testing.T }

func (l testLogger) Debug(msg string, args ...any) { l.t.Logf("DEBUG %s %v", msg, args) }
func (l testLogger) Info(msg string, args ...any)  { l.t.Logf("INFO  %s %v", msg, args) }
func (l testLogger) Warn(msg string, args ...any)  { l.t.Logf("WARN  %s %v", msg, args) }
func (l testLogger) Error(msg string, args ...any) { l.t.Logf("ERROR %s %v", msg, args) }

// picts builds capture commands due at the given offsets from base.
func picts(base time.Time, offsets ...time.Duration) sequence.Commands {
	var cmds sequence.Commands
	for _, off := range offsets {
		cmds = append(cmds, sequence.Command{
			Time:     base.Add(off),
			Kind:     sequence.KindCapture,
			Shutter:  sequence.ShutterSpeed{Text: "1/250", Seconds: 1.0 / 250},
			Aperture: 8,
			ISO:      100,
		})
	}
	return cmds
}

// ─── Ordered execution ─────────────────────────────────────────────────────

func TestRunDispatchesInOrder(t *testing.T) {
	base := time.Date(2026, 8, 12, 18, 0, 0, 0, time.UTC)
	clock := NewSimulatedClock(base)
	cam := &fakeCamera{clock: clock}
	runner := NewRunner(clock, cam, testLogger{t}, Options{})

	cmds := picts(base, 30*time.Millisecond, 60*time.Millisecond, 90*time.Millisecond)
	run, err := runner.Run(context.Background(), cmds)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if run.Status != StatusCompleted || run.Done != 3 || run.Failed != 0 {
		t.Fatalf("run = %s done=%d failed=%d, want completed 3/0", run.Status, run.Done, run.Failed)
	}
	for i, at := range cam.at {
		due := cmds[i].Time
		if at.Before(due) {
			t.Errorf("capture %d dispatched at %v, before due time %v", i, at, due)
		}
		if at.Sub(due) > 100*time.Millisecond {
			t.Errorf("capture %d dispatched %v behind schedule", i, at.Sub(due))
		}
	}
}

func TestOverdueCommandsBurstImmediately(t *testing.T) {
	// Reference the clock after every due time: the whole list is
	// overdue from the start and must fire in order with no waits.
	base := time.Date(2026, 8, 12, 18, 0, 0, 0, time.UTC)
	clock := NewSimulatedClock(base.Add(time.Hour))
	cam := &fakeCamera{clock: clock}
	runner := NewRunner(clock, cam, testLogger{t}, Options{})

	start := time.Now()
	run, err := runner.Run(context.Background(), picts(base, 0, time.Minute, 2*time.Minute))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("overdue burst took %v, want immediate dispatch", elapsed)
	}
	if run.Done != 3 || run.Skipped != 0 {
		t.Fatalf("done=%d skipped=%d, want 3/0", run.Done, run.Skipped)
	}
	if run.Late != 3 {
		t.Fatalf("late=%d, want all 3 counted late", run.Late)
	}
}

func TestBurstStopsAtFirstFutureCommand(t *testing.T) {
	// Anchor the clock between the overdue prefix and the last command:
	// the prefix bursts immediately, the suffix still waits its turn.
	base := time.Date(2026, 8, 12, 18, 0, 0, 0, time.UTC)
	clock := NewSimulatedClock(base.Add(50 * time.Millisecond))
	cam := &fakeCamera{clock: clock}
	runner := NewRunner(clock, cam, testLogger{t}, Options{
		LateTolerance: 20 * time.Millisecond,
	})

	cmds := picts(base, 0, 10*time.Millisecond, 300*time.Millisecond)
	start := time.Now()
	run, err := runner.Run(context.Background(), cmds)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if run.Done != 3 || run.Skipped != 0 {
		t.Fatalf("done=%d skipped=%d, want 3/0", run.Done, run.Skipped)
	}
	if run.Late != 2 {
		t.Fatalf("late=%d, want only the overdue prefix counted late", run.Late)
	}
	for i := 0; i < 2; i++ {
		if cam.at[i].Sub(cmds[i].Time) > 200*time.Millisecond {
			t.Errorf("overdue capture %d dispatched %v behind, want immediate burst", i, cam.at[i].Sub(cmds[i].Time))
		}
	}
	if cam.at[2].Before(cmds[2].Time) {
		t.Errorf("future capture dispatched at %v, before due time %v", cam.at[2], cmds[2].Time)
	}
	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Errorf("run finished in %v, the last command should have waited ~250ms", elapsed)
	}
}

// ─── Failure isolation ─────────────────────────────────────────────────────

func TestCameraErrorDoesNotStopRun(t *testing.T) {
	base := time.Date(2026, 8, 12, 18, 0, 0, 0, time.UTC)
	clock := NewSimulatedClock(base)
	cam := &fakeCamera{
		clock:  clock,
		failAt: map[int]error{1: camera.ErrCaptureFailed},
	}
	runner := NewRunner(clock, cam, testLogger{t}, Options{})

	run, err := runner.Run(context.Background(),
		picts(base, 10*time.Millisecond, 20*time.Millisecond, 30*time.Millisecond))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(cam.captures) != 3 {
		t.Fatalf("captured %d frames, want all 3 attempted", len(cam.captures))
	}
	if run.Status != StatusPartial || run.Done != 2 || run.Failed != 1 {
		t.Fatalf("run = %s done=%d failed=%d, want partial 2/1", run.Status, run.Done, run.Failed)
	}
}

// ─── Cancellation ──────────────────────────────────────────────────────────

func TestCancellationSkipsRemainder(t *testing.T) {
	base := time.Date(2026, 8, 12, 18, 0, 0, 0, time.UTC)
	clock := NewSimulatedClock(base)
	cam := &fakeCamera{clock: clock}
	runner := NewRunner(clock, cam, testLogger{t}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	run, err := runner.Run(ctx, picts(base, 10*time.Millisecond, time.Hour))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if run.Status != StatusCancelled {
		t.Fatalf("status = %s, want cancelled", run.Status)
	}
	if run.Done != 1 || run.Skipped != 1 {
		t.Fatalf("done=%d skipped=%d, want 1/1", run.Done, run.Skipped)
	}
}

func TestCancellationNeverAbortsInFlightCapture(t *testing.T) {
	base := time.Date(2026, 8, 12, 18, 0, 0, 0, time.UTC)
	clock := NewSimulatedClock(base)
	cam := &blockingCamera{hold: 400 * time.Millisecond}
	repo := &fakeRepo{}
	runner := NewRunner(clock, cam, testLogger{t}, Options{Repo: repo})

	// Cancel 100ms into the first exposure: the capture must run to
	// completion, and only the second command is skipped.
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	run, err := runner.Run(ctx, picts(base, 10*time.Millisecond, time.Hour))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if cam.aborted != 0 || cam.finished != 1 {
		t.Fatalf("aborted=%d finished=%d, the in-flight capture must complete", cam.aborted, cam.finished)
	}
	if run.Status != StatusCancelled || run.Done != 1 || run.Failed != 0 || run.Skipped != 1 {
		t.Fatalf("run = %s done=%d failed=%d skipped=%d, want cancelled 1/0/1",
			run.Status, run.Done, run.Failed, run.Skipped)
	}

	// The summary still lands in the repository after cancellation.
	if len(repo.updated) != 1 || repo.updated[0].Status != StatusCancelled {
		t.Fatalf("updated records = %+v, want one cancelled summary", repo.updated)
	}
}

// ─── Playback ──────────────────────────────────────────────────────────────

func TestPlayCommandsGoToPlayer(t *testing.T) {
	base := time.Date(2026, 8, 12, 18, 0, 0, 0, time.UTC)
	clock := NewSimulatedClock(base)
	cam := &fakeCamera{clock: clock}
	player := &fakePlayer{}
	runner := NewRunner(clock, cam, testLogger{t}, Options{Player: player})

	cmds := sequence.Commands{{
		Time: base.Add(10 * time.Millisecond),
		Kind: sequence.KindPlay,
		File: "c2_warning.wav",
	}}
	run, err := runner.Run(context.Background(), cmds)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(cam.captures) != 0 {
		t.Error("play command reached the camera")
	}
	if len(player.files) != 1 || player.files[0] != "c2_warning.wav" {
		t.Fatalf("player got %v, want [c2_warning.wav]", player.files)
	}
	if run.Done != 1 {
		t.Fatalf("done = %d, want 1", run.Done)
	}
}

func TestPlayWithoutPlayerIsSkipped(t *testing.T) {
	base := time.Date(2026, 8, 12, 18, 0, 0, 0, time.UTC)
	clock := NewSimulatedClock(base)
	runner := NewRunner(clock, &fakeCamera{clock: clock}, testLogger{t}, Options{})

	run, err := runner.Run(context.Background(), sequence.Commands{{
		Time: base, Kind: sequence.KindPlay, File: "x.wav",
	}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if run.Failed != 0 {
		t.Fatalf("failed = %d, missing player must not fail the run", run.Failed)
	}
}

// ─── Records and progress ──────────────────────────────────────────────────

func TestRunRecordsPersisted(t *testing.T) {
	base := time.Date(2026, 8, 12, 18, 0, 0, 0, time.UTC)
	clock := NewSimulatedClock(base)
	repo := &fakeRepo{}
	hub := &fakeHub{}
	mqtt := &fakeMQTT{}
	runner := NewRunner(clock, &fakeCamera{clock: clock}, testLogger{t}, Options{
		Repo: repo, Hub: hub, MQTT: mqtt, Script: "totality.sem",
	})

	run, err := runner.Run(context.Background(), picts(base, 10*time.Millisecond, 20*time.Millisecond))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(repo.created) != 1 || len(repo.updated) != 1 {
		t.Fatalf("repo calls: %d created, %d updated, want 1/1", len(repo.created), len(repo.updated))
	}
	if len(repo.dispatches) != 2 {
		t.Fatalf("recorded %d dispatches, want 2", len(repo.dispatches))
	}
	if repo.dispatches[0].RunID != run.ID || repo.dispatches[0].Index != 0 {
		t.Errorf("dispatch record = %+v, want run %s index 0", repo.dispatches[0], run.ID)
	}
	if run.Script != "totality.sem" {
		t.Errorf("script = %q, want totality.sem", run.Script)
	}

	if len(hub.events) != 2 {
		t.Errorf("hub got %d events, want 2", len(hub.events))
	}
	if len(mqtt.topics) != 2 || !strings.HasPrefix(mqtt.topics[0], "eclipseq/run/"+run.ID) {
		t.Errorf("mqtt topics = %v, want eclipseq/run/%s/...", mqtt.topics, run.ID)
	}
}

func TestEmptyCommandList(t *testing.T) {
	clock := NewSimulatedClock(time.Now())
	runner := NewRunner(clock, &fakeCamera{clock: clock}, testLogger{t}, Options{})
	if _, err := runner.Run(context.Background(), nil); !errors.Is(err, ErrNoCommands) {
		t.Fatalf("err = %v, want ErrNoCommands", err)
	}
}
