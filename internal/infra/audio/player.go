// Package audio provides cue players backed by external commands or the log.
package audio

import (
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/hiitbox/internal/app/cue"
	"github.com/osa030/hiitbox/internal/infra/config"
)

// Player types
const (
	TypeLog  = "log"
	TypeExec = "exec"
)

// NewPlayerFromConfig creates the cue player selected by the audio configuration.
func NewPlayerFromConfig(cfg config.AudioConfig) (cue.Player, error) {
	zlog.Debug().Msgf("creating audio player: type=%s settings=%+v", cfg.Player, cfg.Settings)

	switch cfg.Player {
	case TypeLog, "":
		return NewLogPlayer(), nil
	case TypeExec:
		var settings ExecSettings
		if err := decodeSettings(cfg.Settings, &settings); err != nil {
			return nil, errors.Wrap(err, "invalid exec player settings")
		}
		p := NewExecPlayer(settings)
		zlog.Info().Msgf("audio: exec player: command=%s sounds_dir=%s max_concurrent=%d",
			settings.Command, settings.SoundsDir, settings.MaxConcurrent)
		return p, nil
	default:
		return nil, errors.Newf("unsupported audio player type: %s", cfg.Player)
	}
}

func decodeSettings(settings map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
