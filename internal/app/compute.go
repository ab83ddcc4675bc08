package app

import (
	"context"
	"fmt"

	"github.com/okian/auge/internal/adapters/mq/worker"
	"github.com/okian/auge/internal/adapters/repository"
	"github.com/okian/auge/internal/domain/battery"
	"github.com/okian/auge/internal/domain/model"
)

// BatteryRequest carries the caller-side history of one global battery
// computation. NowHours defaults to the engine clock. With
// IncludeStoredImpulses the impulses in the observation store are added to
// Workouts, except those stored at the timestamp of a supplied workout: a
// session sent through QueueWorkout and passed again here counts once.
type BatteryRequest struct {
	NowHours              float64                `json:"now_hours"`
	Workouts              []battery.Workout      `json:"workouts"`
	Sleep                 []battery.SleepLog     `json:"sleep"`
	Wellbeing             []battery.WellbeingLog `json:"wellbeing"`
	Nutrition             []battery.NutritionLog `json:"nutrition"`
	Settings              battery.Settings       `json:"settings"`
	IncludeStoredImpulses bool                   `json:"include_stored_impulses"`
}

// MuscleRequest carries the history of a per-muscle computation.
type MuscleRequest struct {
	NowHours float64           `json:"now_hours"`
	Workouts []battery.Workout `json:"workouts"`
}

func (e *Engine) nowHours(h float64) float64 {
	if h > 0 {
		return h
	}
	return model.HoursSinceEpoch(e.now())
}

// CalculateGlobalBatteriesAsync computes the CNS, muscular and spinal
// batteries on the compute pool. The stored calibration is applied. When
// the pool cannot take the job it runs on the calling goroutine.
func (e *Engine) CalculateGlobalBatteriesAsync(ctx context.Context, req BatteryRequest) *worker.Future[battery.Result] {
	if err := e.ready(); err != nil {
		return worker.Resolved(battery.Result{}, err)
	}
	return worker.Go(ctx, e.pool, "global-batteries", func(ctx context.Context) (battery.Result, error) {
		return e.calculate(ctx, req)
	})
}

func (e *Engine) calculate(ctx context.Context, req BatteryRequest) (battery.Result, error) {
	cal, err := e.store.Calibration(ctx)
	if err != nil {
		return battery.Result{}, fmt.Errorf("load calibration: %w", err)
	}
	in := battery.Input{
		NowHours:    e.nowHours(req.NowHours),
		Workouts:    req.Workouts,
		Sleep:       req.Sleep,
		Wellbeing:   req.Wellbeing,
		Nutrition:   req.Nutrition,
		Settings:    req.Settings,
		ExerciseDB:  e.exercises,
		Calibration: cal,
	}
	if req.IncludeStoredImpulses {
		imps, err := e.store.Impulses(ctx, repository.Filter{})
		if err != nil {
			return battery.Result{}, fmt.Errorf("load impulses: %w", err)
		}
		in.Impulses = withoutWorkouts(imps, req.Workouts)
	}
	return e.batteries.Calculate(ctx, in), nil
}

// withoutWorkouts drops the impulses stored at the timestamp of one of ws.
func withoutWorkouts(imps []model.TrainingImpulse, ws []battery.Workout) []model.TrainingImpulse {
	if len(ws) == 0 {
		return imps
	}
	sessions := make(map[float64]struct{}, len(ws))
	for _, w := range ws {
		sessions[w.TimestampHours] = struct{}{}
	}
	out := imps[:0:0]
	for _, imp := range imps {
		if _, ok := sessions[imp.TimestampHours]; !ok {
			out = append(out, imp)
		}
	}
	return out
}

// GetPerMuscleBatteries computes a battery per muscle with the personalized
// recovery hours of the current snapshot. It does no store access.
func (e *Engine) GetPerMuscleBatteries(ctx context.Context, req MuscleRequest) (map[model.MuscleID]float64, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	snap := e.snapshot.Load()
	return e.batteries.PerMuscle(ctx, battery.MuscleInput{
		NowHours:      e.nowHours(req.NowHours),
		Workouts:      req.Workouts,
		ExerciseDB:    e.exercises,
		RecoveryHours: snap.PersonalizedRecoveryHours,
	}), nil
}
