package repository_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/okian/auge/internal/adapters/repository"
	"github.com/okian/auge/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMerge(t *testing.T) {
	ctx := context.Background()

	Convey("Given two stores that share part of their history", t, func() {
		dst := repository.NewMemoryStore()
		src, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "device.db"))
		So(err, ShouldBeNil)
		defer src.Close()

		shared := model.TrainingImpulse{Meta: model.Meta{ID: "shared"}, TimestampHours: 10, Impulse: 40}
		_, err = dst.AppendImpulse(ctx, shared)
		So(err, ShouldBeNil)
		_, err = src.AppendImpulse(ctx, shared)
		So(err, ShouldBeNil)
		_, err = src.AppendImpulse(ctx, model.TrainingImpulse{TimestampHours: 30, Impulse: 60})
		So(err, ShouldBeNil)

		p := prediction(model.SystemSpinal, 65)
		_, err = dst.AppendPrediction(ctx, p)
		So(err, ShouldBeNil)
		_, err = src.AppendPrediction(ctx, p)
		So(err, ShouldBeNil)
		_, _, err = src.AppendOutcome(ctx, model.OutcomeRecord{PredictionID: p.PredictionID, ActualValue: 60, Timestamp: epoch})
		So(err, ShouldBeNil)

		Convey("When src is merged into dst", func() {
			rep, err := repository.Merge(ctx, dst, src)
			So(err, ShouldBeNil)

			Convey("Then only unseen records are copied", func() {
				So(rep.Merged[model.KindImpulse], ShouldEqual, 1)
				So(rep.Skipped[model.KindImpulse], ShouldEqual, 1)
				So(rep.Skipped[model.KindPrediction], ShouldEqual, 1)
				So(rep.Merged[model.KindOutcome], ShouldEqual, 1)

				counts, err := dst.Count(ctx)
				So(err, ShouldBeNil)
				So(counts[model.KindImpulse], ShouldEqual, 2)
				So(counts[model.KindPrediction], ShouldEqual, 1)
				So(counts[model.KindOutcome], ShouldEqual, 1)
			})

			Convey("Then merging again changes nothing", func() {
				again, err := repository.Merge(ctx, dst, src)
				So(err, ShouldBeNil)
				So(again.Merged.Total(), ShouldEqual, 0)
				So(again.Skipped.Total(), ShouldEqual, 4)
			})

			Convey("Then the merged impulse keeps its identity", func() {
				srcImps, _ := src.Impulses(ctx, repository.Filter{})
				dstImps, _ := dst.Impulses(ctx, repository.Filter{})
				So(dstImps[1].ID, ShouldEqual, srcImps[1].ID)
				So(dstImps[1].Seq, ShouldBeGreaterThan, dstImps[0].Seq)
			})
		})
	})
}
