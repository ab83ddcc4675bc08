// Package calibration derives and applies the per-user additive battery
// corrections.
package calibration

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/okian/auge/internal/domain/model"
	"github.com/okian/auge/internal/domain/stress"
)

const (
	maxExercises = 3
	minDelta     = -60.0
	maxDelta     = 0.0
)

// Intensity is the subjective effort of a known heavy exercise.
type Intensity string

// Intensities, lightest first.
const (
	Light    Intensity = "LIGERO"
	Medium   Intensity = "MEDIO"
	High     Intensity = "ALTO"
	VeryHigh Intensity = "MUY_ALTO"
	Extreme  Intensity = "EXTREMO"
)

var intensityRPE = map[Intensity]float64{ //nolint:gochecknoglobals // read-only table
	Light:    5,
	Medium:   6.5,
	High:     8,
	VeryHigh: 9,
	Extreme:  10,
}

// RPE returns the effort the intensity stands for.
func (i Intensity) RPE() (float64, error) {
	rpe, ok := intensityRPE[Intensity(strings.ToUpper(strings.TrimSpace(string(i))))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIntensity, i)
	}
	return rpe, nil
}

// Readiness are the cold-start questionnaire answers, each 1-5. A higher
// StressLevel means more stress; higher values of the rest are better.
type Readiness struct {
	SleepQuality int `json:"sleep_quality"`
	StressLevel  int `json:"stress_level"`
	Doms         int `json:"doms"`
	Motivation   int `json:"motivation"`
}

// Validate checks every answer is on the 1-5 scale.
func (r Readiness) Validate() error {
	answers := []struct {
		name string
		v    int
	}{
		{"sleep_quality", r.SleepQuality},
		{"stress_level", r.StressLevel},
		{"doms", r.Doms},
		{"motivation", r.Motivation},
	}
	for _, a := range answers {
		if a.v < 1 || a.v > 5 {
			return fmt.Errorf("%w: %s=%d", ErrInvalidReadiness, a.name, a.v)
		}
	}
	return nil
}

// HeavyExercise is one of the athlete's heaviest known lifts.
type HeavyExercise struct {
	Exercise  string    `json:"exercise"`
	Intensity Intensity `json:"intensity"`
}

// Apply adds the system's delta to a computed battery and clamps the result.
func Apply(value float64, sys model.SystemTag, c model.CalibrationDelta) float64 {
	return model.ClampBattery(model.ClampBattery(value) + c.Delta(sys))
}

// FromSlider turns a slider correction into a new delta for sys. displayed
// is the value the athlete saw, already including the current delta, and
// slider is what they set it to. Other systems keep their delta.
func FromSlider(current model.CalibrationDelta, sys model.SystemTag, displayed, slider float64, at time.Time) (model.CalibrationDelta, error) {
	if !sys.HasBattery() {
		return current, fmt.Errorf("%w: %w: %q", ErrInvalidSlider, model.ErrInvalidSystem, sys)
	}
	if math.IsNaN(slider) || slider < 0 || slider > 100 || math.IsNaN(displayed) {
		return current, fmt.Errorf("%w: slider must be within [0,100]", ErrInvalidSlider)
	}
	raw := displayed - current.Delta(sys)
	delta := math.Max(-100, math.Min(100, slider-raw))
	next := current.WithDelta(sys, delta)
	next.LastCalibrated = at
	return next, nil
}

// readinessDeltas applies the fixed questionnaire weights.
func readinessDeltas(r Readiness) (cns, muscular, spinal float64) {
	sleep := float64(5 - r.SleepQuality)
	cns = -6*sleep - 5*float64(r.StressLevel-1) - 4*float64(5-r.Motivation)
	muscular = -10*float64(r.Doms-1) - 3*sleep
	spinal = -5*float64(r.Doms-1) - 2*sleep
	return cns, muscular, spinal
}

// PrecalibrateReadiness seeds a delta from the questionnaire alone.
func PrecalibrateReadiness(r Readiness, at time.Time) (model.CalibrationDelta, error) {
	if err := r.Validate(); err != nil {
		return model.CalibrationDelta{}, err
	}
	cns, musc, spinal := readinessDeltas(r)
	return finish(cns, musc, spinal, nil, at), nil
}

// Precalibrate seeds a delta from the questionnaire plus up to three heavy
// exercises, scaled by the athlete's background. Exercises missing from db
// fall back to their name pattern or the accessory defaults.
func Precalibrate(exercises []HeavyExercise, r Readiness, db *stress.ExerciseDB, bg *model.PrecalibrationContext, at time.Time) (model.CalibrationDelta, error) {
	if len(exercises) > maxExercises {
		return model.CalibrationDelta{}, fmt.Errorf("%w: got %d", ErrTooManyExercises, len(exercises))
	}
	if err := r.Validate(); err != nil {
		return model.CalibrationDelta{}, err
	}
	cns, musc, spinal := readinessDeltas(r)
	for _, he := range exercises {
		rpe, err := he.Intensity.RPE()
		if err != nil {
			return model.CalibrationDelta{}, err
		}
		ex, ok := db.Lookup(he.Exercise)
		if !ok {
			ex = stress.Exercise{Name: he.Exercise}
		}
		c := ex.Resolved()
		w := (rpe - 4) / 6
		cns -= 2 * c.CNC * w
		musc -= 2 * c.EFC * w
		spinal -= 4 * c.SSC * w
	}
	if bg != nil {
		scale := 1.0
		if bg.YearsExperience >= 3 {
			scale *= 0.85
		}
		if bg.TrainingDaysPerWeek >= 5 {
			scale *= 1.1
		}
		cns *= scale
		musc *= scale
		spinal *= scale
		if bg.InjuryHistory {
			spinal *= 1.2
		}
	}
	return finish(cns, musc, spinal, bg, at), nil
}

func finish(cns, musc, spinal float64, bg *model.PrecalibrationContext, at time.Time) model.CalibrationDelta {
	return model.CalibrationDelta{
		CNSDelta:              clampDelta(cns),
		MuscularDelta:         clampDelta(musc),
		SpinalDelta:           clampDelta(spinal),
		LastCalibrated:        at,
		PrecalibrationContext: bg,
	}
}

func clampDelta(v float64) float64 {
	// +0 rather than -0 for a perfect questionnaire.
	return math.Max(minDelta, math.Min(maxDelta, v)) + 0
}
