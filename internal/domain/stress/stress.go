// Package stress turns completed sets into a session stress score and the
// per-system drain breakdown used by the battery and impulse models.
package stress

import (
	"fmt"
	"math"

	"github.com/okian/auge/internal/domain/model"
)

// Stress level labels.
const (
	LevelLow       = "Bajo"
	LevelOptimal   = "Óptimo"
	LevelHigh      = "Alto"
	LevelExcessive = "Excesivo"
)

const (
	defaultRPE   = 7.0
	failureRPE   = 11.0
	dropSetBonus = 1.5
	minRPE       = 1.0
	maxRPE       = 15.0
	repsExponent = 0.65
	maxCNSFactor = 1.6
	maxCNC       = 5.0
	axialSSC     = 2.0
)

// Set is one completed set.
type Set struct {
	Exercise string   `json:"exercise"`
	Load     float64  `json:"load"`
	Reps     int      `json:"reps"`
	RPE      float64  `json:"rpe,omitempty"`
	RIR      *float64 `json:"rir,omitempty"`
	Failure  bool     `json:"failure,omitempty"`
	DropSets int      `json:"drop_sets,omitempty"`
}

// Valid reports whether the set counts toward stress.
func (s Set) Valid() bool {
	return s.Load > 0 && s.Reps > 0 && !math.IsNaN(s.Load) && !math.IsInf(s.Load, 0)
}

// EffectiveRPE resolves the effort of a set: explicit RPE, else 10-RIR,
// else 7. Failure lifts it to at least 11, and each drop set adds 1.5.
func EffectiveRPE(s Set) float64 {
	rpe := defaultRPE
	switch {
	case s.RPE > 0:
		rpe = s.RPE
	case s.RIR != nil:
		rpe = 10 - *s.RIR
	}
	if s.Failure {
		rpe = math.Max(rpe, failureRPE)
	}
	rpe += float64(s.DropSets) * dropSetBonus
	return math.Min(maxRPE, math.Max(minRPE, rpe))
}

func intensity(rpe float64) float64 {
	if rpe <= 10 {
		return rpe / 10
	}
	return math.Pow(rpe/10, 1.5)
}

// SetStress is the stress of one valid set on an exercise with the given
// muscular coefficient. It grows with load, reps and effort.
func SetStress(s Set, efc float64) float64 {
	if !s.Valid() {
		return 0
	}
	return math.Pow(float64(s.Reps), repsExponent) *
		intensity(EffectiveRPE(s)) *
		efc *
		(1 + math.Log1p(s.Load/100))
}

// cnsFactor is the larger of the effort factor and the %1RM factor.
func cnsFactor(s Set, e Exercise) float64 {
	f := 1.0
	if EffectiveRPE(s) >= 9 {
		f = 1.4
	}
	if e.OneRepMax > 0 {
		switch pct := s.Load / e.OneRepMax; {
		case pct > 0.85:
			f = math.Max(f, 1.6)
		case pct > 0.70:
			f = math.Max(f, 1.2)
		}
	}
	return f
}

// Result is the scored session.
type Result struct {
	TotalStress  float64                    `json:"total_stress"`
	CNSDrain     float64                    `json:"cns_drain"`
	SpinalDrain  float64                    `json:"spinal_drain"`
	MuscleStress map[model.MuscleID]float64 `json:"muscle_stress"`
	ByExercise   map[string]float64         `json:"by_exercise"`
	Level        string                     `json:"level"`
	ValidSets    int                        `json:"valid_sets"`
	Faults       []string                   `json:"faults,omitempty"`
}

// Score scores sets against db. Invalid sets are ignored and missing
// exercises are skipped and listed in Faults; neither is an error.
func Score(sets []Set, db *ExerciseDB) Result {
	res := Result{
		MuscleStress: make(map[model.MuscleID]float64),
		ByExercise:   make(map[string]float64),
	}
	var cns, spinal float64
	for _, s := range sets {
		if !s.Valid() {
			continue
		}
		e, ok := db.Lookup(s.Exercise)
		if !ok {
			res.Faults = append(res.Faults, fmt.Sprintf("unknown exercise %q", s.Exercise))
			continue
		}
		c := e.Resolved()
		st := SetStress(s, c.EFC)
		res.ValidSets++
		res.TotalStress += st
		name := e.Name
		if name == "" {
			name = e.ID
		}
		res.ByExercise[name] += st
		for m, w := range e.muscleWeights() {
			res.MuscleStress[m] += st * w
		}
		if e.IsCompound() {
			cns += st * cnsFactor(s, e) / maxCNSFactor * math.Min(1, c.CNC/maxCNC)
		}
		if e.IsAxial() {
			spinal += st * math.Min(1, c.SSC/axialSSC)
		}
	}
	if res.TotalStress > 0 {
		res.CNSDrain = clamp01(cns / res.TotalStress)
		res.SpinalDrain = clamp01(spinal / res.TotalStress)
	}
	res.Level = ClassifyStressLevel(res.TotalStress)
	return res
}

// ToImpulse converts the result into a training impulse at ts.
func (r Result) ToImpulse(timestampHours float64) model.TrainingImpulse {
	return model.TrainingImpulse{
		TimestampHours: timestampHours,
		Impulse:        r.TotalStress,
		CNSImpulse:     r.TotalStress * r.CNSDrain,
		SpinalImpulse:  r.TotalStress * r.SpinalDrain,
	}
}

// ClassifyStressLevel buckets a session stress score.
func ClassifyStressLevel(total float64) string {
	switch {
	case total < 40:
		return LevelLow
	case total < 80:
		return LevelOptimal
	case total < 120:
		return LevelHigh
	default:
		return LevelExcessive
	}
}

// EstimateOneRepMax estimates a 1RM with Brzycki up to 10 reps and Epley above.
func EstimateOneRepMax(load float64, reps int) float64 {
	switch {
	case reps <= 0 || load <= 0:
		return 0
	case reps == 1:
		return load
	case reps <= 10:
		return load * 36.0 / float64(37-reps)
	default:
		return load * (1 + 0.0333*float64(reps))
	}
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
