package battery

import (
	"github.com/okian/auge/internal/domain/model"
	"github.com/okian/auge/internal/domain/stress"
)

// Workout is a completed session in the battery history.
type Workout struct {
	Name           string       `json:"name"`
	TimestampHours float64      `json:"timestamp_hours"`
	Sets           []stress.Set `json:"sets"`
}

// SleepLog is one night of sleep.
type SleepLog struct {
	TimestampHours float64 `json:"timestamp_hours"`
	Hours          float64 `json:"hours"`
}

// Work load levels of a wellbeing log.
const (
	WorkLoadLow      = "low"
	WorkLoadModerate = "moderate"
	WorkLoadHigh     = "high"
)

// WellbeingLog is a daily check-in. StressLevel, Mood and Doms are 1-5;
// zero means not answered.
type WellbeingLog struct {
	TimestampHours float64 `json:"timestamp_hours"`
	StressLevel    int     `json:"stress_level"`
	WorkLoad       string  `json:"work_load"`
	Mood           int     `json:"mood"`
	Doms           int     `json:"doms"`
}

// NutritionLog records intake adequacy: -1 deficit, 0 maintenance, 1 surplus.
type NutritionLog struct {
	TimestampHours float64 `json:"timestamp_hours"`
	Status         int     `json:"status"`
}

// Settings are athlete preferences that affect the batteries.
type Settings struct {
	SleepTargetHours float64 `json:"sleep_target_hours"`
}

// Input is everything one global battery computation reads. Impulses are
// already-scored sessions and are used alongside Workouts.
type Input struct {
	NowHours    float64
	Workouts    []Workout
	Impulses    []model.TrainingImpulse
	Sleep       []SleepLog
	Wellbeing   []WellbeingLog
	Nutrition   []NutritionLog
	Settings    Settings
	ExerciseDB  *stress.ExerciseDB
	Calibration model.CalibrationDelta
}

// MuscleInput is everything a per-muscle computation reads.
type MuscleInput struct {
	NowHours      float64
	Workouts      []Workout
	ExerciseDB    *stress.ExerciseDB
	RecoveryHours map[model.MuscleID]float64
}

// Audit entry types.
const (
	TypeWorkout     = "workout"
	TypePenalty     = "penalty"
	TypeBonus       = "bonus"
	TypeSleep       = "sleep"
	TypeCalibration = "calibration"
	TypeFault       = "fault"
)

// AuditEntry explains one contribution to a battery.
type AuditEntry struct {
	Icon  string  `json:"icon"`
	Label string  `json:"label"`
	Val   float64 `json:"val"`
	Type  string  `json:"type"`
}

// Readiness traffic lights.
const (
	Green  = "green"
	Yellow = "yellow"
	Red    = "red"
)

// Result is the outcome of a global battery computation.
type Result struct {
	CNS       float64                          `json:"cns"`
	Muscular  float64                          `json:"muscular"`
	Spinal    float64                          `json:"spinal"`
	Readiness string                           `json:"readiness"`
	Verdict   string                           `json:"verdict"`
	AuditLogs map[model.SystemTag][]AuditEntry `json:"auditLogs"`
	Faults    []string                         `json:"faults,omitempty"`
}

// Value returns the battery of sys.
func (r Result) Value(sys model.SystemTag) float64 {
	switch sys {
	case model.SystemCNS:
		return r.CNS
	case model.SystemMuscular:
		return r.Muscular
	case model.SystemSpinal:
		return r.Spinal
	}
	return 100
}

func (r *Result) set(sys model.SystemTag, v float64) {
	switch sys {
	case model.SystemCNS:
		r.CNS = v
	case model.SystemMuscular:
		r.Muscular = v
	case model.SystemSpinal:
		r.Spinal = v
	}
}
