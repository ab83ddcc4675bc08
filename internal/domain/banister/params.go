// Package banister implements the two-component fitness/fatigue
// impulse-response model for the CNS, muscular and spinal systems.
package banister

import "github.com/okian/auge/internal/domain/model"

const (
	day = 24.0

	// DefaultMinImpulses is the cold-start threshold.
	DefaultMinImpulses = 3

	cnsFallback    = 0.8
	spinalFallback = 0.6

	lookbackHours = 21 * day
	forecastHours = 168.0
	stepHours     = 6.0
	trendHours    = 42.0
)

// combinedWeights weight each system in the combined performance curve.
var combinedWeights = map[model.SystemTag]float64{ //nolint:gochecknoglobals // read-only table
	model.SystemMuscular: 0.40,
	model.SystemCNS:      0.35,
	model.SystemSpinal:   0.25,
}

// DefaultParams returns the per-system constants. Fatigue clears fastest in
// the CNS and slowest in the spine.
func DefaultParams() map[model.SystemTag]model.BanisterParams {
	return map[model.SystemTag]model.BanisterParams{
		model.SystemMuscular: {P0: 100, K1: 0.8, K2: 1.5, Tau1: 42 * day, Tau2: 12 * day},
		model.SystemCNS:      {P0: 100, K1: 1.0, K2: 2.0, Tau1: 35 * day, Tau2: 8 * day},
		model.SystemSpinal:   {P0: 100, K1: 0.5, K2: 1.2, Tau1: 60 * day, Tau2: 20 * day},
	}
}

// magnitude picks the load of imp seen by a system.
func magnitude(sys model.SystemTag, imp model.TrainingImpulse) float64 {
	switch sys {
	case model.SystemCNS:
		if imp.CNSImpulse > 0 {
			return imp.CNSImpulse
		}
		return imp.Impulse * cnsFallback
	case model.SystemSpinal:
		if imp.SpinalImpulse > 0 {
			return imp.SpinalImpulse
		}
		return imp.Impulse * spinalFallback
	}
	return imp.Impulse
}
