package muscle_test

import (
	"testing"

	"github.com/okian/auge/internal/domain/muscle"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalize(t *testing.T) {
	Convey("Given muscle names in several spellings", t, func() {
		Convey("Then accents, case and language fold to one id", func() {
			So(muscle.Normalize("Cuádriceps"), ShouldEqual, muscle.Quadriceps)
			So(muscle.Normalize("cuadriceps"), ShouldEqual, muscle.Quadriceps)
			So(muscle.Normalize("Quadriceps"), ShouldEqual, muscle.Quadriceps)
			So(muscle.Normalize("  Espalda baja "), ShouldEqual, muscle.LowerBack)
			So(muscle.Normalize("Glúteos"), ShouldEqual, muscle.Glutes)
			So(muscle.Normalize("Erectores espinales"), ShouldEqual, muscle.Erectors)
		})

		Convey("Then unknown names keep their folded form", func() {
			So(string(muscle.Normalize("Serrato Anterior")), ShouldEqual, "serrato_anterior")
		})
	})
}

func TestPopulationHours(t *testing.T) {
	Convey("Given the population table", t, func() {
		So(muscle.PopulationHours(muscle.Biceps), ShouldEqual, 24)
		So(muscle.PopulationHours(muscle.Chest), ShouldEqual, 48)
		So(muscle.PopulationHours(muscle.Quadriceps), ShouldEqual, 72)
		So(muscle.PopulationHours(muscle.Hamstrings), ShouldEqual, 96)
		So(muscle.PopulationHours("serrato_anterior"), ShouldEqual, muscle.DefaultRecoveryHours)
		So(muscle.Known("serrato_anterior"), ShouldBeFalse)

		all := muscle.All()
		So(len(all), ShouldEqual, 17)
		for i := 1; i < len(all); i++ {
			So(all[i-1] < all[i], ShouldBeTrue)
		}
	})
}
