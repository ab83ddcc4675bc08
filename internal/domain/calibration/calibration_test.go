package calibration_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/auge/internal/domain/calibration"
	"github.com/okian/auge/internal/domain/model"
	"github.com/okian/auge/internal/domain/stress"
	. "github.com/smartystreets/goconvey/convey"
)

var at = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

func TestFromSlider(t *testing.T) {
	Convey("Given a displayed CNS battery of 80 with a -10 delta", t, func() {
		current := model.CalibrationDelta{CNSDelta: -10, SpinalDelta: -4}

		Convey("When the athlete drags it to 60", func() {
			next, err := calibration.FromSlider(current, model.SystemCNS, 80, 60, at)

			Convey("Then the stored difference reproduces the slider on the raw value", func() {
				So(err, ShouldBeNil)
				So(next.CNSDelta, ShouldEqual, -30)
				So(calibration.Apply(90, model.SystemCNS, next), ShouldEqual, 60)
				So(next.SpinalDelta, ShouldEqual, -4)
				So(next.MuscularDelta, ShouldEqual, 0)
				So(next.LastCalibrated, ShouldEqual, at)
			})
		})

		Convey("When the system has no battery", func() {
			_, err := calibration.FromSlider(current, model.SystemReadiness, 80, 60, at)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, calibration.ErrInvalidSlider), ShouldBeTrue)
				So(errors.Is(err, model.ErrInvalidSystem), ShouldBeTrue)
			})
		})

		Convey("When the slider is out of range", func() {
			_, err := calibration.FromSlider(current, model.SystemCNS, 80, 140, at)
			So(errors.Is(err, calibration.ErrInvalidSlider), ShouldBeTrue)
		})
	})
}

func TestApply(t *testing.T) {
	Convey("Given deltas that would leave the range", t, func() {
		c := model.CalibrationDelta{CNSDelta: -50, MuscularDelta: 30}
		So(calibration.Apply(30, model.SystemCNS, c), ShouldEqual, 0)
		So(calibration.Apply(90, model.SystemMuscular, c), ShouldEqual, 100)
		So(calibration.Apply(90, model.SystemSpinal, c), ShouldEqual, 90)
	})
}

func TestPrecalibrateReadiness(t *testing.T) {
	Convey("Given a perfect questionnaire", t, func() {
		d, err := calibration.PrecalibrateReadiness(calibration.Readiness{SleepQuality: 5, StressLevel: 1, Doms: 1, Motivation: 5}, at)

		Convey("Then no correction is seeded", func() {
			So(err, ShouldBeNil)
			So(d.CNSDelta, ShouldEqual, 0)
			So(d.MuscularDelta, ShouldEqual, 0)
			So(d.SpinalDelta, ShouldEqual, 0)
		})
	})

	Convey("Given a tired athlete", t, func() {
		d, err := calibration.PrecalibrateReadiness(calibration.Readiness{SleepQuality: 2, StressLevel: 4, Doms: 4, Motivation: 3}, at)

		Convey("Then the fixed weights apply", func() {
			So(err, ShouldBeNil)
			So(d.CNSDelta, ShouldEqual, -41)
			So(d.MuscularDelta, ShouldEqual, -39)
			So(d.SpinalDelta, ShouldEqual, -21)
		})
	})

	Convey("Given the worst possible answers", t, func() {
		d, _ := calibration.PrecalibrateReadiness(calibration.Readiness{SleepQuality: 1, StressLevel: 5, Doms: 5, Motivation: 1}, at)

		Convey("Then deltas are capped at -60", func() {
			So(d.CNSDelta, ShouldEqual, -60)
			So(d.MuscularDelta, ShouldEqual, -52)
		})
	})

	Convey("Given an answer off the scale", t, func() {
		_, err := calibration.PrecalibrateReadiness(calibration.Readiness{SleepQuality: 0, StressLevel: 1, Doms: 1, Motivation: 1}, at)
		So(errors.Is(err, calibration.ErrInvalidReadiness), ShouldBeTrue)
	})
}

func TestPrecalibrate(t *testing.T) {
	db := stress.NewExerciseDB(stress.Exercise{ID: "dl", Name: "Peso muerto", Tier: stress.TierBasic})
	fresh := calibration.Readiness{SleepQuality: 5, StressLevel: 1, Doms: 1, Motivation: 5}

	Convey("Given one extreme deadlift", t, func() {
		d, err := calibration.Precalibrate([]calibration.HeavyExercise{{Exercise: "dl", Intensity: calibration.Extreme}}, fresh, db, nil, at)

		Convey("Then every system is seeded from the exercise costs", func() {
			So(err, ShouldBeNil)
			So(d.CNSDelta, ShouldEqual, -10)
			So(d.MuscularDelta, ShouldEqual, -10)
			So(d.SpinalDelta, ShouldEqual, -8)
		})

		Convey("And an injury history amplifies only the spinal delta", func() {
			bg := &model.PrecalibrationContext{InjuryHistory: true}
			d2, err := calibration.Precalibrate([]calibration.HeavyExercise{{Exercise: "dl", Intensity: "extremo"}}, fresh, db, bg, at)
			So(err, ShouldBeNil)
			So(d2.CNSDelta, ShouldEqual, -10)
			So(d2.SpinalDelta, ShouldAlmostEqual, -9.6, 1e-9)
			So(d2.PrecalibrationContext, ShouldEqual, bg)
		})
	})

	Convey("Given four exercises", t, func() {
		ex := calibration.HeavyExercise{Exercise: "dl", Intensity: calibration.High}
		_, err := calibration.Precalibrate([]calibration.HeavyExercise{ex, ex, ex, ex}, fresh, db, nil, at)
		So(errors.Is(err, calibration.ErrTooManyExercises), ShouldBeTrue)
	})

	Convey("Given an unknown intensity", t, func() {
		_, err := calibration.Precalibrate([]calibration.HeavyExercise{{Exercise: "dl", Intensity: "BRUTAL"}}, fresh, db, nil, at)
		So(errors.Is(err, calibration.ErrInvalidIntensity), ShouldBeTrue)
	})
}
