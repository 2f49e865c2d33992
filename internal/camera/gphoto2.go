package camera

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Config keys gphoto2 exposes for exposure settings. Some makes use
// alternative names; each candidate is probed in order at open time.
var (
	isoKeys      = []string{"iso"}
	apertureKeys = []string{"aperture", "f-number"}
	shutterKeys  = []string{"shutterspeed"}
)

// runner executes the gphoto2 binary. Split out so driver behaviour is
// testable without hardware.
type runner interface {
	run(ctx context.Context, args ...string) (string, error)
}

type execRunner struct {
	binary string
}

func (r execRunner) run(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, r.binary, args...).CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("%s %s: %w: %s", r.binary, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// GPhoto2Config configures the gphoto2 driver.
type GPhoto2Config struct {
	// Binary is the path to the gphoto2 executable. Default "gphoto2".
	Binary string

	// Model and Port narrow camera selection when more than one body is
	// attached ("--camera", "--port"). Both optional.
	Model string
	Port  string
}

// GPhoto2 drives a tethered camera through the gphoto2 CLI.
type GPhoto2 struct {
	run        runner
	selectArgs []string
	logger     Logger

	isoKey, apertureKey, shutterKey string
	iso, aperture, shutter          settingMatcher

	// last applied choice per setting, to skip redundant set-config
	// round-trips between captures.
	lastISO, lastAperture, lastShutter string
}

// OpenGPhoto2 opens a camera session and reads its setting choices.
//
// Fails with ErrInitFailed when no camera answers or a required
// exposure setting cannot be found under any known config key.
func OpenGPhoto2(ctx context.Context, cfg GPhoto2Config, logger Logger) (*GPhoto2, error) {
	binary := cfg.Binary
	if binary == "" {
		binary = "gphoto2"
	}
	return openGPhoto2(ctx, execRunner{binary: binary}, cfg, logger)
}

func openGPhoto2(ctx context.Context, run runner, cfg GPhoto2Config, logger Logger) (*GPhoto2, error) {
	c := &GPhoto2{run: run, logger: logger}
	if cfg.Model != "" {
		c.selectArgs = append(c.selectArgs, "--camera", cfg.Model)
	}
	if cfg.Port != "" {
		c.selectArgs = append(c.selectArgs, "--port", cfg.Port)
	}

	var err error
	if c.isoKey, c.iso, err = c.findSetting(ctx, isoKeys, isoChoiceStops); err != nil {
		return nil, err
	}
	if c.apertureKey, c.aperture, err = c.findSetting(ctx, apertureKeys, apertureChoiceStops); err != nil {
		return nil, err
	}
	if c.shutterKey, c.shutter, err = c.findSetting(ctx, shutterKeys, shutterChoiceStops); err != nil {
		return nil, err
	}

	logger.Info("camera session opened",
		"iso_choices", len(c.iso.choices),
		"aperture_choices", len(c.aperture.choices),
		"shutter_choices", len(c.shutter.choices),
	)
	return c, nil
}

// findSetting probes config keys until one yields a choice list.
func (c *GPhoto2) findSetting(ctx context.Context, keys []string, normalize func(string) (float64, bool)) (string, settingMatcher, error) {
	for _, key := range keys {
		out, err := c.run.run(ctx, append(c.selectArgs, "--get-config", key)...)
		if err != nil {
			continue
		}
		choices := parseChoices(out)
		if len(choices) > 0 {
			c.logger.Debug("camera setting found", "key", key, "choices", len(choices))
			return key, newMatcher(choices, normalize), nil
		}
	}
	return "", settingMatcher{}, fmt.Errorf("%w: no config key among %v", ErrInitFailed, keys)
}

// parseChoices extracts "Choice: N value" lines from get-config output.
func parseChoices(out string) []string {
	var choices []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		rest, found := strings.CutPrefix(line, "Choice: ")
		if !found {
			continue
		}
		// "Choice: 12 1/250" — drop the index.
		if _, value, ok := strings.Cut(rest, " "); ok {
			choices = append(choices, value)
		}
	}
	return choices
}

// Capture applies the exposure and takes one frame, blocking until the
// camera reports the capture complete.
func (c *GPhoto2) Capture(ctx context.Context, exp Exposure) error {
	args := append([]string(nil), c.selectArgs...)

	isoChoice, ok := c.iso.match(isoStops(float64(exp.ISO)))
	if !ok {
		return fmt.Errorf("%w: iso %d", ErrNoMatch, exp.ISO)
	}
	apertureChoice, ok := c.aperture.match(apertureStops(exp.Aperture))
	if !ok {
		return fmt.Errorf("%w: aperture %v", ErrNoMatch, exp.Aperture)
	}
	shutterChoice, ok := c.shutter.match(shutterStops(exp.ShutterSeconds))
	if !ok {
		return fmt.Errorf("%w: shutter %s", ErrNoMatch, exp.Shutter)
	}

	// Only push settings that changed since the previous capture: each
	// set-config is a USB round-trip the schedule cannot spare.
	if isoChoice != c.lastISO {
		args = append(args, "--set-config-value", c.isoKey+"="+isoChoice)
	}
	if apertureChoice != c.lastAperture {
		args = append(args, "--set-config-value", c.apertureKey+"="+apertureChoice)
	}
	if shutterChoice != c.lastShutter {
		args = append(args, "--set-config-value", c.shutterKey+"="+shutterChoice)
	}
	args = append(args, "--trigger-capture", "--wait-event=CAPTURECOMPLETE")

	c.logger.Debug("capturing",
		"iso", isoChoice, "aperture", apertureChoice, "shutter", shutterChoice)

	if _, err := c.run.run(ctx, args...); err != nil {
		return fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}
	c.lastISO, c.lastAperture, c.lastShutter = isoChoice, apertureChoice, shutterChoice
	return nil
}

// Close ends the session. The gphoto2 CLI holds no persistent handle
// between invocations, so there is nothing to release, but callers
// treat the session as a scoped resource regardless.
func (c *GPhoto2) Close() error {
	c.logger.Info("camera session closed")
	return nil
}

// List returns the identifiers of attached cameras, one "model (port)"
// string per body, via gphoto2 --auto-detect.
func List(ctx context.Context, binary string) ([]string, error) {
	if binary == "" {
		binary = "gphoto2"
	}
	out, err := execRunner{binary: binary}.run(ctx, "--auto-detect")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitFailed, err)
	}
	return parseAutoDetect(out), nil
}

// parseAutoDetect extracts camera lines from --auto-detect output,
// skipping the two-line header.
func parseAutoDetect(out string) []string {
	var cameras []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Model") || strings.HasPrefix(line, "----") {
			continue
		}
		// "Nikon Z 6                      usb:001,004"
		if i := strings.LastIndex(line, " "); i > 0 {
			model := strings.TrimSpace(line[:i])
			port := line[i+1:]
			cameras = append(cameras, model+" ("+port+")")
		}
	}
	return cameras
}

var _ Camera = (*GPhoto2)(nil)
