package battery_test

import (
	"context"
	"math"
	"testing"

	"github.com/okian/auge/internal/domain/battery"
	"github.com/okian/auge/internal/domain/model"
	"github.com/okian/auge/internal/domain/muscle"
	"github.com/okian/auge/internal/domain/stress"
	. "github.com/smartystreets/goconvey/convey"
)

const now = 500000.0

func db() *stress.ExerciseDB {
	return stress.NewExerciseDB(stress.Exercise{
		ID:   "squat",
		Name: "Back squat",
		Tier: stress.TierBasic,
		Muscles: []stress.Involvement{
			{Muscle: "quadriceps", Role: stress.RolePrimary},
			{Muscle: "glutes", Role: stress.RoleSecondary},
		},
	})
}

func squatDay(at float64) battery.Workout {
	set := stress.Set{Exercise: "squat", Load: 100, Reps: 5, RPE: 9}
	return battery.Workout{Name: "Pierna", TimestampHours: at, Sets: []stress.Set{set, set, set}}
}

func TestCalculate(t *testing.T) {
	ctx := context.Background()
	calc := battery.New()

	Convey("Given no history at all", t, func() {
		res := calc.Calculate(ctx, battery.Input{NowHours: now})

		Convey("Then every battery is full and readiness is green", func() {
			So(res.CNS, ShouldEqual, 100)
			So(res.Muscular, ShouldEqual, 100)
			So(res.Spinal, ShouldEqual, 100)
			So(res.Readiness, ShouldEqual, battery.Green)
			So(res.Verdict, ShouldNotBeEmpty)
		})
	})

	Convey("Given a heavy squat session two hours ago", t, func() {
		before := calc.Calculate(ctx, battery.Input{NowHours: now, ExerciseDB: db()})
		after := calc.Calculate(ctx, battery.Input{NowHours: now, ExerciseDB: db(), Workouts: []battery.Workout{squatDay(now - 2)}})

		Convey("Then every system drops and stays in range", func() {
			So(after.Muscular, ShouldBeLessThan, before.Muscular)
			So(after.CNS, ShouldBeLessThan, before.CNS)
			So(after.Spinal, ShouldBeLessThan, before.Spinal)
			for _, sys := range model.BatterySystems {
				So(after.Value(sys), ShouldBeBetweenOrEqual, 0, 100)
			}
		})

		Convey("Then the audit names the exercise", func() {
			entries := after.AuditLogs[model.SystemMuscular]
			So(len(entries), ShouldBeGreaterThan, 0)
			So(entries[0].Label, ShouldEqual, "Back squat")
			So(entries[0].Type, ShouldEqual, battery.TypeWorkout)
			So(entries[0].Val, ShouldBeLessThan, 0)
		})

		Convey("Then CNS recovers faster than the spine", func() {
			later := calc.Calculate(ctx, battery.Input{NowHours: now + 46, ExerciseDB: db(), Workouts: []battery.Workout{squatDay(now - 2)}})
			cnsRecovered := later.CNS - after.CNS
			spinalRecovered := later.Spinal - after.Spinal
			So(cnsRecovered/(100-after.CNS), ShouldBeGreaterThan, spinalRecovered/(100-after.Spinal))
		})
	})

	Convey("Given a session outside the window", t, func() {
		res := calc.Calculate(ctx, battery.Input{NowHours: now, ExerciseDB: db(), Workouts: []battery.Workout{squatDay(now - 15*24)}})

		Convey("Then it is ignored apart from the rest bonus", func() {
			So(res.CNS, ShouldEqual, 100)
			So(res.Muscular, ShouldEqual, 100)
		})
	})

	Convey("Given poor sleep, high stress and a deficit", t, func() {
		res := calc.Calculate(ctx, battery.Input{
			NowHours:  now,
			Sleep:     []battery.SleepLog{{TimestampHours: now - 8, Hours: 4}, {TimestampHours: now - 32, Hours: 4}},
			Wellbeing: []battery.WellbeingLog{{TimestampHours: now - 2, StressLevel: 5, WorkLoad: battery.WorkLoadHigh, Mood: 2, Doms: 5}},
			Nutrition: []battery.NutritionLog{{TimestampHours: now - 3, Status: -1}},
		})

		Convey("Then penalties add up per system", func() {
			So(res.CNS, ShouldEqual, 100-40-15-10-5)
			So(res.Muscular, ShouldEqual, 80)
			So(res.Spinal, ShouldEqual, 100)
			So(res.Readiness, ShouldEqual, battery.Red)
			So(res.Verdict, ShouldContainSubstring, "SNC")
		})
	})

	Convey("Given a calibration delta", t, func() {
		base := battery.Input{NowHours: now, ExerciseDB: db(), Workouts: []battery.Workout{squatDay(now - 20)}}
		plain := calc.Calculate(ctx, base)
		base.Calibration = model.CalibrationDelta{SpinalDelta: -7}
		shifted := calc.Calculate(ctx, base)

		Convey("Then only that system moves, by exactly the delta", func() {
			So(shifted.Spinal, ShouldAlmostEqual, plain.Spinal-7, 1e-9)
			So(shifted.CNS, ShouldEqual, plain.CNS)
			So(shifted.Muscular, ShouldEqual, plain.Muscular)
			last := shifted.AuditLogs[model.SystemSpinal]
			So(last[len(last)-1].Type, ShouldEqual, battery.TypeCalibration)
		})
	})

	Convey("Given an impulse that produces a non-finite load", t, func() {
		res := calc.Calculate(ctx, battery.Input{
			NowHours: now,
			Impulses: []model.TrainingImpulse{{TimestampHours: now - 1, Impulse: math.Inf(1), CNSImpulse: 10}},
		})

		Convey("Then the affected system falls back to 100 and the fault is reported", func() {
			So(res.Muscular, ShouldEqual, 100)
			So(res.AuditLogs[model.SystemMuscular][0].Type, ShouldEqual, battery.TypeFault)
			So(len(res.Faults), ShouldEqual, 1)
			So(res.CNS, ShouldBeLessThan, 100)
		})
	})

	Convey("Given an unknown exercise", t, func() {
		w := battery.Workout{TimestampHours: now - 1, Sets: []stress.Set{{Exercise: "ghost", Load: 50, Reps: 5}}}
		res := calc.Calculate(ctx, battery.Input{NowHours: now, ExerciseDB: db(), Workouts: []battery.Workout{w}})

		Convey("Then the set is skipped and the fault is reported", func() {
			So(res.Muscular, ShouldEqual, 100)
			So(len(res.Faults), ShouldEqual, 1)
		})
	})
}

func TestReadiness(t *testing.T) {
	Convey("Given battery minimums", t, func() {
		So(battery.Readiness(70), ShouldEqual, battery.Green)
		So(battery.Readiness(69.9), ShouldEqual, battery.Yellow)
		So(battery.Readiness(45), ShouldEqual, battery.Yellow)
		So(battery.Readiness(10), ShouldEqual, battery.Red)
	})
}

func TestPerMuscle(t *testing.T) {
	ctx := context.Background()
	calc := battery.New()

	Convey("Given a squat session", t, func() {
		in := battery.MuscleInput{NowHours: now, ExerciseDB: db(), Workouts: []battery.Workout{squatDay(now - 12)}}
		res := calc.PerMuscle(ctx, in)

		Convey("Then trained muscles drop and the rest stay full", func() {
			So(res[muscle.Quadriceps], ShouldBeLessThan, 100)
			So(res[muscle.Glutes], ShouldBeGreaterThan, res[muscle.Quadriceps])
			So(res[muscle.Biceps], ShouldEqual, 100)
		})

		Convey("Then a slower personalized recovery means a lower battery", func() {
			in.RecoveryHours = map[model.MuscleID]float64{muscle.Quadriceps: 140}
			slow := calc.PerMuscle(ctx, in)
			So(slow[muscle.Quadriceps], ShouldBeLessThan, res[muscle.Quadriceps])
		})
	})
}
