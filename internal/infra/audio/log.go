package audio

import (
	"context"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/hiitbox/internal/app/cue"
)

// LogPlayer only logs cues. It is used when no audio device is available.
type LogPlayer struct{}

// NewLogPlayer creates a new log player.
func NewLogPlayer() *LogPlayer {
	return &LogPlayer{}
}

func (p *LogPlayer) Play(ctx context.Context, name string) (cue.Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h := cue.Handle(uuid.New().String())
	zlog.Info().Msgf("audio: play: name=%s handle=%s", name, h)
	return h, nil
}

func (p *LogPlayer) Stop(h cue.Handle) error {
	zlog.Debug().Msgf("audio: stop: handle=%s", h)
	return nil
}
