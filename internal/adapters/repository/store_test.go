package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okian/auge/internal/adapters/repository"
	"github.com/okian/auge/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var epoch = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

// stepClock returns a clock that advances one minute per call.
func stepClock() func() time.Time {
	t := epoch
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

type factory func(t *testing.T) repository.Store

func stores() map[string]factory {
	return map[string]factory{
		"memory": func(t *testing.T) repository.Store {
			return repository.NewMemoryStore(repository.WithClock(stepClock()))
		},
		"sqlite": func(t *testing.T) repository.Store {
			s, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "auge.db"), repository.WithClock(stepClock()))
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func prediction(sys model.SystemTag, v float64) model.PredictionRecord {
	return model.PredictionRecord{
		PredictionID:   uuid.NewString(),
		Timestamp:      epoch,
		System:         sys,
		PredictedValue: v,
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, open := range stores() {
		Convey("Given a "+name+" store", t, func() {
			s := open(t)

			Convey("When the same impulse is appended twice", func() {
				imp := model.TrainingImpulse{TimestampHours: 100, Impulse: 50, CNSImpulse: 20}
				a, err := s.AppendImpulse(ctx, imp)
				So(err, ShouldBeNil)
				b, err := s.AppendImpulse(ctx, imp)
				So(err, ShouldBeNil)

				Convey("Then both are stored with distinct ids and rising seqs", func() {
					So(a.ID, ShouldNotEqual, b.ID)
					So(b.Seq, ShouldBeGreaterThan, a.Seq)
					counts, err := s.Count(ctx)
					So(err, ShouldBeNil)
					So(counts[model.KindImpulse], ShouldEqual, 2)
					So(counts.Total(), ShouldEqual, 2)
				})

				Convey("Then queries return them in insertion order", func() {
					got, err := s.Impulses(ctx, repository.Filter{})
					So(err, ShouldBeNil)
					So(len(got), ShouldEqual, 2)
					So(got[0].ID, ShouldEqual, a.ID)
					So(got[1].ID, ShouldEqual, b.ID)
					So(got[0].RecordedAt.Equal(a.RecordedAt), ShouldBeTrue)
					So(got[1].Impulse, ShouldEqual, 50)
				})

				Convey("Then filters narrow the result", func() {
					after, err := s.Impulses(ctx, repository.Filter{AfterSeq: a.Seq})
					So(err, ShouldBeNil)
					So(len(after), ShouldEqual, 1)
					So(after[0].ID, ShouldEqual, b.ID)

					last, err := s.Impulses(ctx, repository.Filter{Limit: 1})
					So(err, ShouldBeNil)
					So(len(last), ShouldEqual, 1)
					So(last[0].ID, ShouldEqual, b.ID)

					since, err := s.Impulses(ctx, repository.Filter{Since: b.RecordedAt})
					So(err, ShouldBeNil)
					So(len(since), ShouldEqual, 1)
				})
			})

			Convey("When a record reuses an explicit id", func() {
				imp := model.TrainingImpulse{Meta: model.Meta{ID: "session-1"}, TimestampHours: 1, Impulse: 10}
				_, err := s.AppendImpulse(ctx, imp)
				So(err, ShouldBeNil)
				_, err = s.AppendImpulse(ctx, imp)

				Convey("Then it is rejected and nothing is written", func() {
					So(errors.Is(err, repository.ErrDuplicateRecord), ShouldBeTrue)
					counts, _ := s.Count(ctx)
					So(counts.Total(), ShouldEqual, 1)
				})
			})

			Convey("When a record is malformed", func() {
				_, err := s.AppendFatigue(ctx, model.FatigueDataPoint{ObservedFatigueFraction: 2})

				Convey("Then it is rejected and nothing is written", func() {
					So(errors.Is(err, model.ErrInvalidRecord), ShouldBeTrue)
					counts, _ := s.Count(ctx)
					So(counts.Total(), ShouldEqual, 0)
				})
			})

			Convey("When a prediction id is reused", func() {
				p := prediction(model.SystemCNS, 70)
				stored, err := s.AppendPrediction(ctx, p)
				So(err, ShouldBeNil)
				_, err = s.AppendPrediction(ctx, p)

				Convey("Then the second write fails", func() {
					So(stored.ID, ShouldEqual, p.PredictionID)
					So(errors.Is(err, repository.ErrDuplicatePrediction), ShouldBeTrue)
				})
			})

			Convey("When outcomes arrive", func() {
				p := prediction(model.SystemMuscular, 7)
				_, err := s.AppendPrediction(ctx, p)
				So(err, ShouldBeNil)

				out := model.OutcomeRecord{PredictionID: p.PredictionID, ActualValue: 7, FeedbackSource: "survey", Timestamp: epoch.Add(time.Hour)}
				_, first, err := s.AppendOutcome(ctx, out)
				So(err, ShouldBeNil)
				_, second, err := s.AppendOutcome(ctx, out)
				So(err, ShouldBeNil)
				orphan := model.OutcomeRecord{PredictionID: uuid.NewString(), ActualValue: 3, Timestamp: epoch}
				_, third, err := s.AppendOutcome(ctx, orphan)
				So(err, ShouldBeNil)

				Convey("Then the status reports match and duplication", func() {
					So(first, ShouldResemble, model.OutcomeStatus{Matched: true})
					So(second, ShouldResemble, model.OutcomeStatus{Matched: true, Duplicate: true})
					So(third, ShouldResemble, model.OutcomeStatus{})
				})

				Convey("Then every outcome is kept", func() {
					got, err := s.Outcomes(ctx, repository.Filter{})
					So(err, ShouldBeNil)
					So(len(got), ShouldEqual, 3)
					So(got[0].FeedbackSource, ShouldEqual, "survey")
				})
			})

			Convey("When the calibration is saved twice", func() {
				empty, err := s.Calibration(ctx)
				So(err, ShouldBeNil)
				So(empty, ShouldResemble, model.CalibrationDelta{})

				So(s.SaveCalibration(ctx, model.CalibrationDelta{CNSDelta: -5, LastCalibrated: epoch}), ShouldBeNil)
				last := model.CalibrationDelta{
					SpinalDelta:           -12,
					LastCalibrated:        epoch.Add(time.Hour),
					PrecalibrationContext: &model.PrecalibrationContext{YearsExperience: 4, TrainingDaysPerWeek: 5},
				}
				So(s.SaveCalibration(ctx, last), ShouldBeNil)

				Convey("Then the last write wins", func() {
					got, err := s.Calibration(ctx)
					So(err, ShouldBeNil)
					So(got.CNSDelta, ShouldEqual, 0)
					So(got.SpinalDelta, ShouldEqual, -12)
					So(got.LastCalibrated.Equal(last.LastCalibrated), ShouldBeTrue)
					So(got.PrecalibrationContext, ShouldResemble, last.PrecalibrationContext)
				})

				Convey("Then an out of range delta is refused", func() {
					So(s.SaveCalibration(ctx, model.CalibrationDelta{CNSDelta: -500}), ShouldNotBeNil)
				})
			})

			Convey("When the store is maintained and closed", func() {
				So(s.Maintain(ctx), ShouldBeNil)
				So(s.Close(), ShouldBeNil)

				Convey("Then further use fails with ErrClosed", func() {
					_, err := s.AppendImpulse(ctx, model.TrainingImpulse{Impulse: 1})
					So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
					_, err = s.Count(ctx)
					So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
				})
			})
		})
	}
}

func TestSQLiteReopen(t *testing.T) {
	ctx := context.Background()

	Convey("Given a sqlite store that is closed and reopened", t, func() {
		path := filepath.Join(t.TempDir(), "auge.db")
		s, err := repository.OpenSQLite(path)
		So(err, ShouldBeNil)
		rec, err := s.AppendRecovery(ctx, model.RecoveryObservation{Muscle: "quadriceps", SessionStress: 40, HoursSinceSession: 24, PredictedBattery: 60, ActualBattery: 55})
		So(err, ShouldBeNil)
		So(s.SaveCalibration(ctx, model.CalibrationDelta{MuscularDelta: -8}), ShouldBeNil)
		So(s.Close(), ShouldBeNil)

		again, err := repository.OpenSQLite(path)
		So(err, ShouldBeNil)
		defer again.Close()

		Convey("Then records and calibration survive", func() {
			got, err := again.RecoveryObservations(ctx, repository.Filter{})
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 1)
			So(got[0].ID, ShouldEqual, rec.ID)
			So(got[0].Muscle, ShouldEqual, model.MuscleID("quadriceps"))
			c, err := again.Calibration(ctx)
			So(err, ShouldBeNil)
			So(c.MuscularDelta, ShouldEqual, -8)
		})

		Convey("Then the schema version is current", func() {
			v, err := again.Version(ctx)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 1)
		})
	})
}
