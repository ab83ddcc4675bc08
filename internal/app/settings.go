package app

import (
	"github.com/okian/auge/internal/domain/accuracy"
	"github.com/okian/auge/internal/domain/banister"
	"github.com/okian/auge/internal/domain/battery"
	"github.com/okian/auge/internal/domain/confidence"
	"github.com/okian/auge/internal/domain/model"
	"github.com/okian/auge/internal/domain/recovery"
)

// Settings gathers every tunable threshold of the engine.
type Settings struct {
	HistoryWindowDays     int
	RetentionDays         int
	Confidence            confidence.Thresholds
	MinMuscleObservations int
	MaxRecoveryStepHours  float64
	MinAccuracyPairs      int
	MinBanisterImpulses   int
	HalfLives             map[model.SystemTag]float64
	Capacities            map[model.SystemTag]float64
	MuscleCapacity        float64

	ComputeWorkers   int
	ComputeQueueSize int
	DedupeSize       int
}

// DefaultSettings returns the built-in thresholds.
func DefaultSettings() Settings {
	return Settings{
		HistoryWindowDays:     battery.DefaultWindowDays,
		RetentionDays:         int(accuracy.DefaultRetention.Hours() / 24),
		Confidence:            confidence.Defaults(),
		MinMuscleObservations: recovery.DefaultMinObservations,
		MaxRecoveryStepHours:  recovery.DefaultMaxStepHours,
		MinAccuracyPairs:      accuracy.DefaultMinPairs,
		MinBanisterImpulses:   banister.DefaultMinImpulses,
		HalfLives: map[model.SystemTag]float64{
			model.SystemCNS:      battery.DefaultCNSHalfLife,
			model.SystemMuscular: battery.DefaultMuscularHalfLife,
			model.SystemSpinal:   battery.DefaultSpinalHalfLife,
		},
		Capacities: map[model.SystemTag]float64{
			model.SystemCNS:      battery.DefaultCNSCapacity,
			model.SystemMuscular: battery.DefaultMuscularCapacity,
			model.SystemSpinal:   battery.DefaultSpinalCapacity,
		},
		MuscleCapacity:   battery.DefaultMuscleCapacity,
		ComputeWorkers:   2,
		ComputeQueueSize: 64,
		DedupeSize:       50000,
	}
}

func (s Settings) batteryOptions() []battery.Option {
	opts := []battery.Option{
		battery.WithWindowDays(s.HistoryWindowDays),
		battery.WithMuscleCapacity(s.MuscleCapacity),
	}
	for _, sys := range model.BatterySystems {
		opts = append(opts,
			battery.WithHalfLife(sys, s.HalfLives[sys]),
			battery.WithCapacity(sys, s.Capacities[sys]),
		)
	}
	return opts
}
