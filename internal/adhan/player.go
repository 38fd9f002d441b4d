package adhan

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/rs/zerolog"
)

// NopPlayer plays nothing.
type NopPlayer struct{}

// Play implements Player.
func (NopPlayer) Play(context.Context, string, string) error { return nil }

// ExecPlayer spawns an external audio command with the source appended to
// Args, e.g. "mpv --no-video adhan.mp3". Play returns once the process has
// started; it is reaped in the background.
type ExecPlayer struct {
	Command string
	Args    []string

	log zerolog.Logger
}

// NewExecPlayer returns an ExecPlayer for command.
func NewExecPlayer(command string, args []string, logger zerolog.Logger) *ExecPlayer {
	return &ExecPlayer{
		Command: command,
		Args:    args,
		log:     logger.With().Str("component", "player").Logger(),
	}
}

// Play implements Player.
func (p *ExecPlayer) Play(_ context.Context, prayer, source string) error {
	if p.Command == "" {
		return fmt.Errorf("no adhan command configured")
	}
	args := append(append([]string(nil), p.Args...), source)
	cmd := exec.Command(p.Command, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.Command, err)
	}
	p.log.Info().Str("prayer", prayer).Str("source", source).Int("pid", cmd.Process.Pid).Msg("adhan started playing")

	go func() {
		if err := cmd.Wait(); err != nil {
			p.log.Warn().Err(err).Str("prayer", prayer).Msg("adhan player exited with error")
		}
	}()
	return nil
}
