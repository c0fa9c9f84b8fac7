// Package workout provides the HIIT workout domain types.
package workout

// Phase represents one of the two alternating workout segments.
type Phase int

const (
	PhaseHighIntensity Phase = iota // High intensity segment
	PhaseLowIntensity               // Low intensity (recovery) segment
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseHighIntensity:
		return "high_intensity"
	case PhaseLowIntensity:
		return "low_intensity"
	default:
		return "unknown"
	}
}
