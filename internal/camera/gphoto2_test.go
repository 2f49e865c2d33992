package camera

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// ─── Fakes ─────────────────────────────────────────────────────────────────

// fakeRunner serves canned gphoto2 output keyed by the first
// interesting argument, recording every invocation.
type fakeRunner struct {
	configs map[string]string // key → get-config output
	calls   [][]string
	failAll bool
}

func (f *fakeRunner) run(_ context.Context, args ...string) (string, error) {
	f.calls = append(f.calls, args)
	if f.failAll {
		return "", errors.New("gphoto2: no camera found")
	}
	for i, a := range args {
		if a == "--get-config" && i+1 < len(args) {
			out, ok := f.configs[args[i+1]]
			if !ok {
				return "", errors.New("gphoto2: bad config key")
			}
			return out, nil
		}
	}
	return "", nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}

func choiceList(values ...string) string {
	var b strings.Builder
	b.WriteString("Label: Setting\nType: RADIO\n")
	for i, v := range values {
		b.WriteString("Choice: ")
		b.WriteString(strings.TrimSpace(strings.Join([]string{string(rune('0' + i)), v}, " ")))
		b.WriteString("\n")
	}
	return b.String()
}

func newFake() *fakeRunner {
	return &fakeRunner{configs: map[string]string{
		"iso":          choiceList("100", "200", "400", "800"),
		"aperture":     choiceList("4", "5.6", "8", "11"),
		"shutterspeed": choiceList("Bulb", "1/500", "1/250", "1/125", "2"),
	}}
}

// ─── Session setup ─────────────────────────────────────────────────────────

func TestOpenLoadsChoices(t *testing.T) {
	fake := newFake()
	cam, err := openGPhoto2(context.Background(), fake, GPhoto2Config{}, nopLogger{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer cam.Close()

	if len(cam.iso.choices) != 4 || len(cam.aperture.choices) != 4 || len(cam.shutter.choices) != 5 {
		t.Errorf("choice counts = %d/%d/%d, want 4/4/5",
			len(cam.iso.choices), len(cam.aperture.choices), len(cam.shutter.choices))
	}
}

func TestOpenFallsBackToAlternateKey(t *testing.T) {
	fake := newFake()
	fake.configs["f-number"] = fake.configs["aperture"]
	delete(fake.configs, "aperture")

	cam, err := openGPhoto2(context.Background(), fake, GPhoto2Config{}, nopLogger{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if cam.apertureKey != "f-number" {
		t.Errorf("apertureKey = %q, want f-number", cam.apertureKey)
	}
}

func TestOpenNoCamera(t *testing.T) {
	fake := &fakeRunner{failAll: true}
	_, err := openGPhoto2(context.Background(), fake, GPhoto2Config{}, nopLogger{})
	if !errors.Is(err, ErrInitFailed) {
		t.Fatalf("err = %v, want ErrInitFailed", err)
	}
}

// ─── Capture ───────────────────────────────────────────────────────────────

func TestCaptureSetsNearestChoices(t *testing.T) {
	fake := newFake()
	cam, err := openGPhoto2(context.Background(), fake, GPhoto2Config{}, nopLogger{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	err = cam.Capture(context.Background(), Exposure{
		Aperture: 8, Shutter: "1/200", ShutterSeconds: 1.0 / 200, ISO: 400,
	})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	last := fake.calls[len(fake.calls)-1]
	joined := strings.Join(last, " ")
	for _, want := range []string{"iso=400", "aperture=8", "shutterspeed=1/250", "--trigger-capture"} {
		if !strings.Contains(joined, want) {
			t.Errorf("capture args missing %q: %v", want, last)
		}
	}
}

func TestCaptureSkipsUnchangedSettings(t *testing.T) {
	fake := newFake()
	cam, err := openGPhoto2(context.Background(), fake, GPhoto2Config{}, nopLogger{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	exp := Exposure{Aperture: 8, Shutter: "1/250", ShutterSeconds: 1.0 / 250, ISO: 400}
	if err := cam.Capture(context.Background(), exp); err != nil {
		t.Fatalf("first capture: %v", err)
	}
	if err := cam.Capture(context.Background(), exp); err != nil {
		t.Fatalf("second capture: %v", err)
	}

	last := fake.calls[len(fake.calls)-1]
	for _, a := range last {
		if a == "--set-config-value" {
			t.Fatalf("second identical capture re-applied settings: %v", last)
		}
	}
}

func TestCaptureFailure(t *testing.T) {
	fake := newFake()
	cam, err := openGPhoto2(context.Background(), fake, GPhoto2Config{}, nopLogger{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	fake.failAll = true
	err = cam.Capture(context.Background(), Exposure{
		Aperture: 8, Shutter: "1/250", ShutterSeconds: 1.0 / 250, ISO: 400,
	})
	if !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("err = %v, want ErrCaptureFailed", err)
	}
}

// ─── Auto-detect parsing ───────────────────────────────────────────────────

func TestParseAutoDetect(t *testing.T) {
	out := `Model                          Port
----------------------------------------------------------
Nikon Z 6                      usb:001,004
Canon EOS R5                   usb:001,007
`
	got := parseAutoDetect(out)
	want := []string{"Nikon Z 6 (usb:001,004)", "Canon EOS R5 (usb:001,007)"}
	if len(got) != len(want) {
		t.Fatalf("got %d cameras, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("camera %d = %q, want %q", i, got[i], want[i])
		}
	}
}
