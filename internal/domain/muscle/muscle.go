// Package muscle normalizes free-form muscle names and holds the population
// recovery table the per-muscle model starts from.
package muscle

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/okian/auge/internal/domain/model"
)

// DefaultRecoveryHours is used for muscles missing from the population table.
const DefaultRecoveryHours = 48.0

// Canonical muscle ids.
const (
	Biceps     model.MuscleID = "biceps"
	Triceps    model.MuscleID = "triceps"
	Deltoids   model.MuscleID = "deltoids"
	Calves     model.MuscleID = "calves"
	Abs        model.MuscleID = "abs"
	Forearms   model.MuscleID = "forearms"
	Chest      model.MuscleID = "chest"
	Lats       model.MuscleID = "lats"
	Shoulders  model.MuscleID = "shoulders"
	Traps      model.MuscleID = "traps"
	Adductors  model.MuscleID = "adductors"
	Core       model.MuscleID = "core"
	Quadriceps model.MuscleID = "quadriceps"
	Glutes     model.MuscleID = "glutes"
	Hamstrings model.MuscleID = "hamstrings"
	LowerBack  model.MuscleID = "lower_back"
	Erectors   model.MuscleID = "erectors"
)

var populationHours = map[model.MuscleID]float64{ //nolint:gochecknoglobals // read-only table
	Biceps: 24, Triceps: 24, Deltoids: 24, Calves: 24, Abs: 24, Forearms: 24,
	Chest: 48, Lats: 48, Shoulders: 48, Traps: 48, Adductors: 48, Core: 48,
	Quadriceps: 72, Glutes: 72,
	Hamstrings: 96, LowerBack: 96, Erectors: 96,
}

// aliases maps folded names (lowercase, no accents, underscores) to ids.
var aliases = map[string]model.MuscleID{ //nolint:gochecknoglobals // read-only table
	"bicep": Biceps, "biceps": Biceps,
	"tricep": Triceps, "triceps": Triceps,
	"deltoides": Deltoids, "deltoid": Deltoids, "deltoids": Deltoids, "delts": Deltoids,
	"pantorrillas": Calves, "gemelos": Calves, "calf": Calves, "calves": Calves,
	"abdomen": Abs, "abdominales": Abs, "abs": Abs,
	"antebrazo": Forearms, "antebrazos": Forearms, "forearm": Forearms, "forearms": Forearms,
	"pectorales": Chest, "pectoral": Chest, "pecho": Chest, "chest": Chest, "pecs": Chest,
	"dorsales": Lats, "dorsal": Lats, "lats": Lats, "latissimus": Lats,
	"hombros": Shoulders, "hombro": Shoulders, "shoulders": Shoulders, "shoulder": Shoulders,
	"trapecio": Traps, "trapecios": Traps, "traps": Traps, "trapezius": Traps,
	"aductores": Adductors, "aductor": Adductors, "adductors": Adductors,
	"core": Core,
	"cuadriceps": Quadriceps, "quadriceps": Quadriceps, "quads": Quadriceps, "quad": Quadriceps,
	"gluteos": Glutes, "gluteo": Glutes, "glutes": Glutes, "glute": Glutes,
	"isquiosurales": Hamstrings, "isquiotibiales": Hamstrings, "femorales": Hamstrings, "hamstrings": Hamstrings, "hamstring": Hamstrings,
	"espalda_baja": LowerBack, "lumbares": LowerBack, "lower_back": LowerBack, "low_back": LowerBack,
	"erectores_espinales": Erectors, "erectores": Erectors, "erectors": Erectors, "spinal_erectors": Erectors,
}

// Fold lowercases name, strips diacritics and joins words with underscores.
func Fold(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(strings.TrimSpace(folded))
	return strings.Join(strings.FieldsFunc(folded, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_' || r == '.'
	}), "_")
}

// Normalize maps a free-form name ("Cuádriceps", "quads") to its id.
// Unknown names keep their folded form.
func Normalize(name string) model.MuscleID {
	folded := Fold(name)
	if id, ok := aliases[folded]; ok {
		return id
	}
	return model.MuscleID(folded)
}

// PopulationHours returns the population recovery time for a muscle.
func PopulationHours(id model.MuscleID) float64 {
	if h, ok := populationHours[id]; ok {
		return h
	}
	return DefaultRecoveryHours
}

// Known reports whether id is in the population table.
func Known(id model.MuscleID) bool {
	_, ok := populationHours[id]
	return ok
}

// All returns every muscle in the population table, sorted.
func All() []model.MuscleID {
	out := make([]model.MuscleID, 0, len(populationHours))
	for id := range populationHours {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
