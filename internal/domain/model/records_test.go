package model_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okian/auge/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRecordValidation(t *testing.T) {
	Convey("Given training impulses", t, func() {
		Convey("When all loads are non-negative", func() {
			err := model.TrainingImpulse{TimestampHours: 10, Impulse: 50, CNSImpulse: 20}.Validate()
			Convey("Then it is accepted", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When the impulse is NaN or negative", func() {
			nan := model.TrainingImpulse{TimestampHours: 10, Impulse: math.NaN()}.Validate()
			neg := model.TrainingImpulse{TimestampHours: 10, Impulse: -1}.Validate()
			Convey("Then it is rejected as malformed", func() {
				So(errors.Is(nan, model.ErrInvalidRecord), ShouldBeTrue)
				So(errors.Is(neg, model.ErrInvalidRecord), ShouldBeTrue)
			})
		})
	})

	Convey("Given fatigue data points", t, func() {
		base := model.FatigueDataPoint{HoursSinceSession: 24, SessionStress: 60, SleepHours: 7, Age: 30, ObservedFatigueFraction: 0.4}

		Convey("Then a valid point passes", func() {
			So(base.Validate(), ShouldBeNil)
		})

		Convey("Then an out of range fraction fails", func() {
			p := base
			p.ObservedFatigueFraction = 1.5
			So(errors.Is(p.Validate(), model.ErrInvalidRecord), ShouldBeTrue)
		})

		Convey("Then an unknown nutrition status fails", func() {
			p := base
			p.NutritionStatus = 2
			So(errors.Is(p.Validate(), model.ErrInvalidRecord), ShouldBeTrue)
		})
	})

	Convey("Given recovery observations", t, func() {
		Convey("When the muscle is missing", func() {
			err := model.RecoveryObservation{PredictedBattery: 50, ActualBattery: 50}.Validate()
			Convey("Then it is rejected", func() {
				So(errors.Is(err, model.ErrInvalidRecord), ShouldBeTrue)
			})
		})

		Convey("When a battery is above 100", func() {
			err := model.RecoveryObservation{Muscle: "quadriceps", PredictedBattery: 120, ActualBattery: 50}.Validate()
			Convey("Then it is rejected", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given prediction records", t, func() {
		p := model.PredictionRecord{
			PredictionID:   uuid.NewString(),
			Timestamp:      time.Unix(1_700_000_000, 0),
			System:         model.SystemCNS,
			PredictedValue: 72,
			Context:        model.PredictionContext{System: model.SystemCNS, CNS: &model.CNSContext{SleepHours: 7}},
		}

		Convey("Then a well-formed record passes", func() {
			So(p.Validate(), ShouldBeNil)
		})

		Convey("Then a non-UUID id fails", func() {
			bad := p
			bad.PredictionID = "abc"
			So(errors.Is(bad.Validate(), model.ErrInvalidRecord), ShouldBeTrue)
		})

		Convey("Then an unknown system fails", func() {
			bad := p
			bad.System = "liver"
			bad.Context = model.PredictionContext{}
			err := bad.Validate()
			So(errors.Is(err, model.ErrInvalidRecord), ShouldBeTrue)
			So(errors.Is(err, model.ErrInvalidSystem), ShouldBeTrue)
		})

		Convey("Then a payload for another system fails", func() {
			bad := p
			bad.Context = model.PredictionContext{Spinal: &model.SpinalContext{SpinalLoad: 10}}
			So(errors.Is(bad.Validate(), model.ErrInvalidContext), ShouldBeTrue)
		})

		Convey("Then an empty context passes", func() {
			ok := p
			ok.Context = model.PredictionContext{}
			So(ok.Validate(), ShouldBeNil)
		})
	})

	Convey("Given outcome records", t, func() {
		Convey("When the timestamp is missing", func() {
			err := model.OutcomeRecord{PredictionID: uuid.NewString(), ActualValue: 7}.Validate()
			Convey("Then it is rejected", func() {
				So(errors.Is(err, model.ErrInvalidRecord), ShouldBeTrue)
			})
		})
	})
}

func TestSystemsAndCalibration(t *testing.T) {
	Convey("Given system tags", t, func() {
		s, err := model.ParseSystem(" CNS ")
		So(err, ShouldBeNil)
		So(s, ShouldEqual, model.SystemCNS)
		_, err = model.ParseSystem("heart")
		So(errors.Is(err, model.ErrInvalidSystem), ShouldBeTrue)
		So(model.SystemReadiness.HasBattery(), ShouldBeFalse)
	})

	Convey("Given a calibration delta", t, func() {
		d := model.CalibrationDelta{CNSDelta: -10}
		updated := d.WithDelta(model.SystemSpinal, 5)

		Convey("Then only the targeted system changes", func() {
			So(updated.Delta(model.SystemCNS), ShouldEqual, -10)
			So(updated.Delta(model.SystemSpinal), ShouldEqual, 5)
			So(updated.Delta(model.SystemMuscular), ShouldEqual, 0)
			So(d.SpinalDelta, ShouldEqual, 0)
		})

		Convey("Then out of range deltas are rejected", func() {
			So(model.CalibrationDelta{MuscularDelta: 150}.Validate(), ShouldNotBeNil)
		})
	})

	Convey("Given battery clamping", t, func() {
		So(model.ClampBattery(-3), ShouldEqual, 0)
		So(model.ClampBattery(140), ShouldEqual, 100)
		So(model.ClampBattery(math.NaN()), ShouldEqual, 100)
		So(model.ClampBattery(42), ShouldEqual, 42)
	})

	Convey("Given the hours scale", t, func() {
		ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		back := model.TimeFromHours(model.HoursSinceEpoch(ts))
		So(math.Abs(back.Sub(ts).Seconds()), ShouldBeLessThan, 1e-3)
	})
}
