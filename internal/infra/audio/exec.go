package audio

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/hiitbox/internal/app/cue"
)

// ExecSettings configures ExecPlayer.
type ExecSettings struct {
	Command       string   `mapstructure:"command" validate:"required"`
	Args          []string `mapstructure:"args"`
	SoundsDir     string   `mapstructure:"sounds_dir" default:"sounds"`
	Extension     string   `mapstructure:"extension" default:"mp3"`
	MaxConcurrent int      `mapstructure:"max_concurrent" default:"4" validate:"gte=1,lte=16"`
}

// ExecPlayer plays a cue by running a command with the cue's sound file
// as its last argument. Stop kills the process.
type ExecPlayer struct {
	mu       sync.Mutex
	settings ExecSettings
	procs    map[cue.Handle]*exec.Cmd
}

// NewExecPlayer creates a new exec player.
func NewExecPlayer(settings ExecSettings) *ExecPlayer {
	return &ExecPlayer{
		settings: settings,
		procs:    make(map[cue.Handle]*exec.Cmd),
	}
}

// SoundPath returns the file played for the named cue.
func (p *ExecPlayer) SoundPath(name string) string {
	return filepath.Join(p.settings.SoundsDir, name+"."+p.settings.Extension)
}

// Play starts the command for the named cue.
func (p *ExecPlayer) Play(ctx context.Context, name string) (cue.Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.procs) >= p.settings.MaxConcurrent {
		return "", errors.Wrapf(cue.ErrDeviceBusy, "%d cues playing", len(p.procs))
	}

	args := append(append([]string{}, p.settings.Args...), p.SoundPath(name))
	// Not CommandContext: the process outlives the start timeout.
	cmd := exec.Command(p.settings.Command, args...)
	if err := cmd.Start(); err != nil {
		return "", errors.Wrapf(err, "failed to start audio command for %s", name)
	}

	h := cue.Handle(uuid.New().String())
	p.procs[h] = cmd
	zlog.Debug().Msgf("audio: exec: started: name=%s handle=%s pid=%d", name, h, cmd.Process.Pid)

	go p.wait(h, cmd)
	return h, nil
}

func (p *ExecPlayer) wait(h cue.Handle, cmd *exec.Cmd) {
	if err := cmd.Wait(); err != nil {
		zlog.Debug().Msgf("audio: exec: exited: handle=%s err=%v", h, err)
	}
	p.mu.Lock()
	delete(p.procs, h)
	p.mu.Unlock()
}

// Stop kills the process behind h. Unknown handles are ignored.
func (p *ExecPlayer) Stop(h cue.Handle) error {
	p.mu.Lock()
	cmd, ok := p.procs[h]
	p.mu.Unlock()
	if !ok {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return errors.Wrapf(err, "failed to stop cue %s", h)
	}
	return nil
}

// Playing returns the number of running cue processes.
func (p *ExecPlayer) Playing() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.procs)
}
