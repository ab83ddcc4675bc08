// Package confidence maps observation counts to the confidence scale shown
// next to personalized estimates.
package confidence

// Labels on the confidence scale.
const (
	Low    = "Bajo"
	Medium = "Medio"
	High   = "Alto"
)

// Default thresholds.
const (
	DefaultMediumAt = 5
	DefaultHighAt   = 15
)

// Thresholds are the observation counts at which the label steps up.
type Thresholds struct {
	MediumAt uint32
	HighAt   uint32
}

// Defaults returns <5 Bajo, 5-14 Medio, >=15 Alto.
func Defaults() Thresholds {
	return Thresholds{MediumAt: DefaultMediumAt, HighAt: DefaultHighAt}
}

// Label returns the label for totalObservations.
func (t Thresholds) Label(totalObservations uint32) string {
	switch {
	case totalObservations >= t.HighAt:
		return High
	case totalObservations >= t.MediumAt:
		return Medium
	default:
		return Low
	}
}

// Label uses the default thresholds.
func Label(totalObservations uint32) string {
	return Defaults().Label(totalObservations)
}
