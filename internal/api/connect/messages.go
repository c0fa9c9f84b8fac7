package connect

import (
	"math"
	"reflect"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/hiitbox/internal/app/notification"
	"github.com/osa030/hiitbox/internal/app/session"
	"github.com/osa030/hiitbox/internal/domain/workout"
)

// StatusToStruct converts a session status to its wire form.
func StatusToStruct(st session.Status) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"session_id":        st.SessionID,
		"state":             st.State.String(),
		"phase":             st.Interval.Phase.String(),
		"phase_label":       st.PhaseLabel,
		"countdown_label":   st.CountdownLabel,
		"elapsed_in_phase":  st.Interval.ElapsedInPhase,
		"cycle_index":       st.Interval.CycleIndex,
		"remaining_seconds": st.Countdown.RemainingSeconds,
		"configuration":     configurationMap(st.Configuration),
	})
}

// NotificationToStruct converts a notification to its wire form.
func NotificationToStruct(n *notification.Notification) (*structpb.Struct, error) {
	m := map[string]any{
		"sequence_no":       n.SequenceNo,
		"type":              n.Type.String(),
		"session_id":        n.SessionID,
		"state":             n.State,
		"phase":             n.Phase,
		"phase_label":       n.PhaseLabel,
		"countdown_label":   n.CountdownLabel,
		"elapsed_in_phase":  n.ElapsedInPhase,
		"cycle_index":       n.CycleIndex,
		"cycle_count":       n.CycleCount,
		"remaining_seconds": n.RemainingSeconds,
	}
	if n.Event != "" {
		m["event"] = n.Event
	}
	if !n.At.IsZero() {
		m["at"] = n.At.Format(time.RFC3339Nano)
	}
	return structpb.NewStruct(m)
}

// ConfigurationToStruct converts a workout configuration to its wire form.
func ConfigurationToStruct(cfg workout.Configuration) (*structpb.Struct, error) {
	return structpb.NewStruct(configurationMap(cfg))
}

func configurationMap(cfg workout.Configuration) map[string]any {
	return map[string]any{
		"high_intensity_seconds": cfg.HighIntensitySeconds,
		"low_intensity_seconds":  cfg.LowIntensitySeconds,
		"cycles":                 cfg.CycleCount,
	}
}

// wholeNumberHook rejects fractional numbers decoded into integer fields.
// structpb carries every number as float64.
func wholeNumberHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.Float64 || to.Kind() != reflect.Int {
		return data, nil
	}
	f := reflect.ValueOf(data).Float()
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil, errors.Newf("%v is not a whole number", f)
	}
	return data, nil
}

// ApplyConfiguration decodes the fields present in s over base.
// Unknown fields are rejected. The result is not validated.
func ApplyConfiguration(base workout.Configuration, s *structpb.Struct) (workout.Configuration, error) {
	cfg := base
	if s == nil {
		return cfg, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &cfg,
		TagName:     "mapstructure",
		ErrorUnused: true,
		DecodeHook:  mapstructure.DecodeHookFuncType(wholeNumberHook),
	})
	if err != nil {
		return base, errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(s.AsMap()); err != nil {
		return base, errors.Wrap(err, "failed to decode configuration")
	}
	return cfg, nil
}
