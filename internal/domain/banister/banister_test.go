package banister_test

import (
	"testing"

	"github.com/okian/auge/internal/domain/banister"
	"github.com/okian/auge/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func impulses() []model.TrainingImpulse {
	out := make([]model.TrainingImpulse, 0, 12)
	for i := 0; i < 12; i++ {
		out = append(out, model.TrainingImpulse{
			TimestampHours: 480000 + float64(i)*48,
			Impulse:        60,
			CNSImpulse:     float64(i % 2 * 40),
		})
	}
	return out
}

func TestColdStart(t *testing.T) {
	Convey("Given fewer impulses than the threshold", t, func() {
		m := banister.NewModel()
		for _, imp := range impulses()[:2] {
			m.Add(imp)
		}

		Convey("Then there is no result", func() {
			So(m.Len(), ShouldEqual, 2)
			So(m.Result(nil), ShouldBeNil)
		})
	})
}

func TestResult(t *testing.T) {
	Convey("Given a training history", t, func() {
		m := banister.NewModel()
		for _, imp := range impulses() {
			m.Add(imp)
		}
		res := m.Result(nil)

		Convey("Then every battery system has a series on the shared timeline", func() {
			So(res, ShouldNotBeNil)
			So(len(res.Systems), ShouldEqual, 3)
			So(res.TimelineHours[0], ShouldEqual, -504)
			So(res.TimelineHours[len(res.TimelineHours)-1], ShouldEqual, 168)
			for _, sys := range model.BatterySystems {
				s := res.Systems[sys]
				So(len(s.Performance), ShouldEqual, len(res.TimelineHours))
				So(s.Impulses, ShouldEqual, 12)
			}
			So(len(res.CombinedPerformance), ShouldEqual, len(res.TimelineHours))
			So(res.Verdict, ShouldNotBeEmpty)
		})

		Convey("Then fatigue decays faster than fitness after the last session", func() {
			s := res.Systems[model.SystemMuscular]
			last := len(s.Fitness) - 1
			zero := 0
			for i, h := range res.TimelineHours {
				if h == 0 {
					zero = i
				}
			}
			So(s.Fatigue[last]/s.Fatigue[zero], ShouldBeLessThan, s.Fitness[last]/s.Fitness[zero])
		})

		Convey("Then the combined curve is the weighted mean of the systems", func() {
			i := len(res.TimelineHours) / 2
			want := 0.40*res.Systems[model.SystemMuscular].Performance[i] +
				0.35*res.Systems[model.SystemCNS].Performance[i] +
				0.25*res.Systems[model.SystemSpinal].Performance[i]
			So(res.CombinedPerformance[i], ShouldAlmostEqual, want, 1e-9)
		})
	})
}

func TestIncrementalFold(t *testing.T) {
	Convey("Given the same impulses added in different orders", t, func() {
		ordered := banister.NewModel()
		for _, imp := range impulses() {
			ordered.Add(imp)
		}

		shuffled := banister.NewModel()
		imps := impulses()
		for _, i := range []int{5, 0, 11, 3, 8, 1, 10, 2, 7, 4, 9, 6} {
			shuffled.Add(imps[i])
		}

		Convey("Then both folds produce identical results", func() {
			So(shuffled.Result(nil), ShouldResemble, ordered.Result(nil))
		})
	})
}

func TestFit(t *testing.T) {
	Convey("Given performance observations", t, func() {
		m := banister.NewModel()
		for _, imp := range impulses() {
			m.Add(imp)
		}
		obs := map[model.SystemTag][]banister.Observation{
			model.SystemMuscular: {
				{Hours: 480100, Performance: 95},
				{Hours: 480200, Performance: 97},
				{Hours: 480300, Performance: 99},
				{Hours: 480400, Performance: 100},
			},
			model.SystemCNS: {{Hours: 480100, Performance: 90}},
		}
		fitted := m.Fit(obs)

		Convey("Then fitted gains stay inside their bounds", func() {
			p := fitted[model.SystemMuscular]
			So(p.K1, ShouldBeBetweenOrEqual, 0.1, 3)
			So(p.K2, ShouldBeBetweenOrEqual, 0.1, 5)
		})

		Convey("Then systems without enough observations keep their defaults", func() {
			So(fitted[model.SystemCNS], ShouldResemble, banister.DefaultParams()[model.SystemCNS])
			So(fitted[model.SystemSpinal], ShouldResemble, banister.DefaultParams()[model.SystemSpinal])
		})

		Convey("Then fitting is deterministic", func() {
			So(m.Fit(obs), ShouldResemble, fitted)
		})
	})
}

func TestVerdict(t *testing.T) {
	Convey("Given combined performance states", t, func() {
		So(banister.Verdict(110, 3), ShouldContainSubstring, "supercompensación")
		So(banister.Verdict(80, 3), ShouldContainSubstring, "deload")
		So(banister.Verdict(95, -10), ShouldContainSubstring, "30%")
		So(banister.Verdict(100, 0), ShouldContainSubstring, "estable")
	})
}
