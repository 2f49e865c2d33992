package camera

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ExecPlayer plays sound cues by invoking an external player binary
// (aplay, afplay, mpg123) with the file as its single argument.
type ExecPlayer struct {
	binary string
	logger Logger
}

// NewExecPlayer returns a player invoking the given binary. Default
// "aplay".
func NewExecPlayer(binary string, logger Logger) *ExecPlayer {
	if binary == "" {
		binary = "aplay"
	}
	return &ExecPlayer{binary: binary, logger: logger}
}

// Play blocks until the player process exits. A missing file or broken
// audio device must not take the capture schedule down with it, so
// failures come back as ErrPlayFailed for the caller to count and
// carry on.
func (p *ExecPlayer) Play(ctx context.Context, file string) error {
	p.logger.Debug("playing sound", "file", file, "player", p.binary)
	out, err := exec.CommandContext(ctx, p.binary, file).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w: %s",
			ErrPlayFailed, p.binary, file, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// NullPlayer logs sound cues instead of playing them.
type NullPlayer struct {
	logger Logger
}

func NewNullPlayer(logger Logger) *NullPlayer {
	return &NullPlayer{logger: logger}
}

func (p *NullPlayer) Play(ctx context.Context, file string) error {
	p.logger.Info("sound cue (dry run)", "file", file)
	return nil
}

var (
	_ Player = (*ExecPlayer)(nil)
	_ Player = (*NullPlayer)(nil)
)
