// Package model contains the records that flow into the observation store
// and the derived snapshot read back by callers.
package model

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MuscleID identifies a muscle group after normalization.
type MuscleID string

// Kind names a record kind stored in the observation log.
type Kind string

// Record kinds.
const (
	KindImpulse    Kind = "impulse"
	KindFatigue    Kind = "fatigue"
	KindRecovery   Kind = "recovery"
	KindPrediction Kind = "prediction"
	KindOutcome    Kind = "outcome"
)

// Kinds lists every record kind in storage order.
var Kinds = []Kind{KindImpulse, KindFatigue, KindRecovery, KindPrediction, KindOutcome} //nolint:gochecknoglobals // fixed ordering

// Meta is stamped by the store on append. ID may be supplied by the caller
// to make the record mergeable across devices; an empty ID is generated.
type Meta struct {
	ID         string    `json:"id,omitempty"`
	Seq        uint64    `json:"seq,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Header returns the store metadata. It is promoted to every record kind.
func (m Meta) Header() Meta { return m }

// TrainingImpulse is the load of one session. TimestampHours counts hours
// since the Unix epoch.
type TrainingImpulse struct {
	Meta
	TimestampHours float64 `json:"timestamp_hours"`
	Impulse        float64 `json:"impulse"`
	CNSImpulse     float64 `json:"cns_impulse"`
	SpinalImpulse  float64 `json:"spinal_impulse"`
}

// FatigueDataPoint is one observation of residual fatigue after a session.
type FatigueDataPoint struct {
	Meta
	HoursSinceSession       float64 `json:"hours_since_session"`
	SessionStress           float64 `json:"session_stress"`
	SleepHours              float64 `json:"sleep_hours"`
	NutritionStatus         int     `json:"nutrition_status"`
	StressLevel             float64 `json:"stress_level"`
	Age                     float64 `json:"age"`
	IsCompoundDominant      bool    `json:"is_compound_dominant"`
	ObservedFatigueFraction float64 `json:"observed_fatigue_fraction"`
}

// RecoveryObservation compares predicted and self-reported recovery of one muscle.
type RecoveryObservation struct {
	Meta
	Muscle            MuscleID  `json:"muscle"`
	SessionStress     float64   `json:"session_stress"`
	HoursSinceSession float64   `json:"hours_since_session"`
	PredictedBattery  float64   `json:"predicted_battery"`
	ActualBattery     float64   `json:"actual_battery"`
	Timestamp         time.Time `json:"timestamp"`
}

// PredictionRecord is a value the engine showed to the athlete. It is write-once.
type PredictionRecord struct {
	Meta
	PredictionID   string            `json:"prediction_id"`
	Timestamp      time.Time         `json:"timestamp"`
	System         SystemTag         `json:"system"`
	Muscle         MuscleID          `json:"muscle,omitempty"`
	PredictedValue float64           `json:"predicted_value"`
	Context        PredictionContext `json:"context"`
}

// OutcomeRecord is the self-reported value for an earlier prediction.
type OutcomeRecord struct {
	Meta
	PredictionID   string    `json:"prediction_id"`
	ActualValue    float64   `json:"actual_value"`
	FeedbackSource string    `json:"feedback_source"`
	Timestamp      time.Time `json:"timestamp"`
}

// OutcomeStatus reports how an appended outcome resolved.
type OutcomeStatus struct {
	Matched   bool `json:"matched"`
	Duplicate bool `json:"duplicate"`
}

// PredictionContext carries the inputs behind a prediction. Exactly one
// payload, the one named by System, may be set.
type PredictionContext struct {
	System    SystemTag         `json:"system,omitempty"`
	CNS       *CNSContext       `json:"cns,omitempty"`
	Muscular  *MuscularContext  `json:"muscular,omitempty"`
	Spinal    *SpinalContext    `json:"spinal,omitempty"`
	Readiness *ReadinessContext `json:"readiness,omitempty"`
}

// CNSContext describes a central-nervous-system prediction.
type CNSContext struct {
	SleepHours    float64 `json:"sleep_hours"`
	StressLevel   float64 `json:"stress_level"`
	SessionStress float64 `json:"session_stress"`
}

// MuscularContext describes a muscular prediction.
type MuscularContext struct {
	Muscle            MuscleID `json:"muscle,omitempty"`
	SessionStress     float64  `json:"session_stress"`
	HoursSinceSession float64  `json:"hours_since_session"`
}

// SpinalContext describes a spinal prediction.
type SpinalContext struct {
	SpinalLoad        float64 `json:"spinal_load"`
	HoursSinceSession float64 `json:"hours_since_session"`
}

// ReadinessContext describes a readiness prediction.
type ReadinessContext struct {
	SleepQuality int `json:"sleep_quality"`
	Doms         int `json:"doms"`
	Motivation   int `json:"motivation"`
}

// Empty reports whether no payload is set.
func (c PredictionContext) Empty() bool {
	return c.CNS == nil && c.Muscular == nil && c.Spinal == nil && c.Readiness == nil
}

func (c PredictionContext) payloads() int {
	n := 0
	if c.CNS != nil {
		n++
	}
	if c.Muscular != nil {
		n++
	}
	if c.Spinal != nil {
		n++
	}
	if c.Readiness != nil {
		n++
	}
	return n
}

// Validate checks the context against the owning record's system.
func (c PredictionContext) Validate(system SystemTag) error {
	if c.System != "" && c.System != system {
		return fmt.Errorf("%w: tagged %q on a %q prediction", ErrInvalidContext, c.System, system)
	}
	if c.payloads() > 1 {
		return fmt.Errorf("%w: more than one payload", ErrInvalidContext)
	}
	var ok bool
	switch system {
	case SystemCNS:
		ok = c.Empty() || c.CNS != nil
	case SystemMuscular:
		ok = c.Empty() || c.Muscular != nil
	case SystemSpinal:
		ok = c.Empty() || c.Spinal != nil
	case SystemReadiness:
		ok = c.Empty() || c.Readiness != nil
	}
	if !ok {
		return fmt.Errorf("%w: payload does not match system %q", ErrInvalidContext, system)
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRecord, fmt.Sprintf(format, args...))
}

// Validate rejects malformed impulses.
func (r TrainingImpulse) Validate() error {
	switch {
	case !finite(r.TimestampHours) || r.TimestampHours < 0:
		return invalid("timestamp_hours must be a non-negative number")
	case !finite(r.Impulse) || r.Impulse < 0:
		return invalid("impulse must be a non-negative number")
	case !finite(r.CNSImpulse) || r.CNSImpulse < 0:
		return invalid("cns_impulse must be a non-negative number")
	case !finite(r.SpinalImpulse) || r.SpinalImpulse < 0:
		return invalid("spinal_impulse must be a non-negative number")
	}
	return nil
}

// Validate rejects malformed fatigue points.
func (r FatigueDataPoint) Validate() error {
	switch {
	case !finite(r.HoursSinceSession) || r.HoursSinceSession < 0:
		return invalid("hours_since_session must be a non-negative number")
	case !finite(r.SessionStress) || r.SessionStress < 0:
		return invalid("session_stress must be a non-negative number")
	case !finite(r.SleepHours) || r.SleepHours < 0 || r.SleepHours > 24:
		return invalid("sleep_hours must be within [0,24]")
	case r.NutritionStatus < -1 || r.NutritionStatus > 1:
		return invalid("nutrition_status must be -1, 0 or 1")
	case !finite(r.StressLevel) || r.StressLevel < 0 || r.StressLevel > 5:
		return invalid("stress_level must be within [0,5]")
	case !finite(r.Age) || r.Age < 0 || r.Age > 120:
		return invalid("age must be within [0,120]")
	case !finite(r.ObservedFatigueFraction) || r.ObservedFatigueFraction < 0 || r.ObservedFatigueFraction > 1:
		return invalid("observed_fatigue_fraction must be within [0,1]")
	}
	return nil
}

// Validate rejects malformed recovery observations.
func (r RecoveryObservation) Validate() error {
	switch {
	case strings.TrimSpace(string(r.Muscle)) == "":
		return invalid("missing muscle")
	case !finite(r.SessionStress) || r.SessionStress < 0:
		return invalid("session_stress must be a non-negative number")
	case !finite(r.HoursSinceSession) || r.HoursSinceSession < 0:
		return invalid("hours_since_session must be a non-negative number")
	case !finite(r.PredictedBattery) || r.PredictedBattery < 0 || r.PredictedBattery > 100:
		return invalid("predicted_battery must be within [0,100]")
	case !finite(r.ActualBattery) || r.ActualBattery < 0 || r.ActualBattery > 100:
		return invalid("actual_battery must be within [0,100]")
	}
	return nil
}

// Validate rejects malformed predictions.
func (r PredictionRecord) Validate() error {
	if _, err := uuid.Parse(r.PredictionID); err != nil {
		return invalid("prediction_id must be a UUID")
	}
	if r.Timestamp.IsZero() {
		return invalid("missing timestamp")
	}
	if !r.System.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidRecord, ErrInvalidSystem, r.System)
	}
	if !finite(r.PredictedValue) {
		return invalid("predicted_value must be a number")
	}
	if err := r.Context.Validate(r.System); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return nil
}

// Validate rejects malformed outcomes.
func (r OutcomeRecord) Validate() error {
	if _, err := uuid.Parse(r.PredictionID); err != nil {
		return invalid("prediction_id must be a UUID")
	}
	if r.Timestamp.IsZero() {
		return invalid("missing timestamp")
	}
	if !finite(r.ActualValue) {
		return invalid("actual_value must be a number")
	}
	return nil
}

// HoursSinceEpoch converts t to the TimestampHours scale used by impulses.
func HoursSinceEpoch(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Hour)
}

// TimeFromHours is the inverse of HoursSinceEpoch.
func TimeFromHours(h float64) time.Time {
	return time.Unix(0, int64(h*float64(time.Hour))).UTC()
}
