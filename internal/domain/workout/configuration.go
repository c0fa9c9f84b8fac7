package workout

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// Selectable ranges for each configuration value.
const (
	MinDurationSeconds = 1
	MaxDurationSeconds = 100
	MinCycleCount      = 1
	MaxCycleCount      = 50
)

// Configuration holds the durations and cycle count of a session.
type Configuration struct {
	HighIntensitySeconds int `mapstructure:"high_intensity_seconds"`
	LowIntensitySeconds  int `mapstructure:"low_intensity_seconds"`
	CycleCount           int `mapstructure:"cycles"`
}

// ConfigurationError reports a configuration value outside its selectable range.
type ConfigurationError struct {
	Field string
	Value int
	Min   int
	Max   int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s must be between %d and %d (got %d)", e.Field, e.Min, e.Max, e.Value)
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

var validate = validator.New()

// Validate checks every field against its range.
// The first violation is returned as a *ConfigurationError.
func (c Configuration) Validate() error {
	if err := ValidateHighIntensitySeconds(c.HighIntensitySeconds); err != nil {
		return err
	}
	if err := ValidateLowIntensitySeconds(c.LowIntensitySeconds); err != nil {
		return err
	}
	return ValidateCycleCount(c.CycleCount)
}

// ValidateHighIntensitySeconds checks a high intensity duration.
func ValidateHighIntensitySeconds(v int) error {
	return checkRange("high_intensity_seconds", v, MinDurationSeconds, MaxDurationSeconds)
}

// ValidateLowIntensitySeconds checks a low intensity duration.
func ValidateLowIntensitySeconds(v int) error {
	return checkRange("low_intensity_seconds", v, MinDurationSeconds, MaxDurationSeconds)
}

// ValidateCycleCount checks a cycle count.
func ValidateCycleCount(v int) error {
	return checkRange("cycles", v, MinCycleCount, MaxCycleCount)
}

func checkRange(field string, v, lo, hi int) error {
	err := validate.Var(v, fmt.Sprintf("gte=%d,lte=%d", lo, hi))
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrapf(err, "failed to validate %s", field)
	}
	return &ConfigurationError{Field: field, Value: v, Min: lo, Max: hi}
}

// DurationOf returns the configured length of the given phase in seconds.
func (c Configuration) DurationOf(p Phase) int {
	if p == PhaseLowIntensity {
		return c.LowIntensitySeconds
	}
	return c.HighIntensitySeconds
}

// TotalSeconds returns the length of the whole session.
func (c Configuration) TotalSeconds() int {
	return (c.HighIntensitySeconds + c.LowIntensitySeconds) * c.CycleCount
}
