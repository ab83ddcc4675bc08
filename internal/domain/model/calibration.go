package model

import (
	"math"
	"time"
)

// CalibrationDelta is the single per-user additive correction on top of
// computed batteries. It is replaced wholesale on every write.
type CalibrationDelta struct {
	CNSDelta              float64                `json:"cnsDelta"`
	MuscularDelta         float64                `json:"muscularDelta"`
	SpinalDelta           float64                `json:"spinalDelta"`
	LastCalibrated        time.Time              `json:"lastCalibrated"`
	PrecalibrationContext *PrecalibrationContext `json:"precalibrationContext,omitempty"`
}

// PrecalibrationContext captures the cold-start questionnaire background.
type PrecalibrationContext struct {
	YearsExperience     float64 `json:"yearsExperience"`
	InjuryHistory       bool    `json:"injuryHistory"`
	TrainingDaysPerWeek int     `json:"trainingDaysPerWeek"`
}

// Delta returns the correction for a battery system.
func (c CalibrationDelta) Delta(s SystemTag) float64 {
	switch s {
	case SystemCNS:
		return c.CNSDelta
	case SystemMuscular:
		return c.MuscularDelta
	case SystemSpinal:
		return c.SpinalDelta
	}
	return 0
}

// WithDelta returns a copy with the delta for s replaced.
func (c CalibrationDelta) WithDelta(s SystemTag, v float64) CalibrationDelta {
	switch s {
	case SystemCNS:
		c.CNSDelta = v
	case SystemMuscular:
		c.MuscularDelta = v
	case SystemSpinal:
		c.SpinalDelta = v
	}
	return c
}

// Validate rejects non-finite or out of range deltas.
func (c CalibrationDelta) Validate() error {
	for _, s := range BatterySystems {
		d := c.Delta(s)
		if !finite(d) || math.Abs(d) > 100 {
			return invalid("%s delta must be within [-100,100]", s)
		}
	}
	return nil
}

// ClampBattery clamps a battery-like value to [0,100]; NaN maps to 100.
func ClampBattery(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 100
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
