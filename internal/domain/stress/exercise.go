package stress

import (
	"strings"

	"github.com/okian/auge/internal/domain/model"
	"github.com/okian/auge/internal/domain/muscle"
)

// Role is how an exercise involves a muscle.
type Role string

// Muscle roles.
const (
	RolePrimary    Role = "primary"
	RoleSecondary  Role = "secondary"
	RoleStabilizer Role = "stabilizer"
)

// Weight returns the share of set stress a muscle with this role receives.
func (r Role) Weight() float64 {
	switch r {
	case RolePrimary:
		return 1.0
	case RoleSecondary:
		return 0.5
	case RoleStabilizer:
		return 0.25
	}
	return 0
}

// Tier is the exercise class used for coefficient defaults.
type Tier string

// Exercise tiers.
const (
	TierBasic     Tier = "basic"
	TierAccessory Tier = "accessory"
	TierIsolation Tier = "isolation"
)

// Involvement links an exercise to one muscle.
type Involvement struct {
	Muscle string `json:"muscle"`
	Role   Role   `json:"role"`
}

// Coefficients are the per-exercise cost factors: EFC local muscular
// fatigue, SSC spinal loading, CNC central nervous load.
type Coefficients struct {
	EFC float64 `json:"efc"`
	SSC float64 `json:"ssc"`
	CNC float64 `json:"cnc"`
}

// Exercise is one entry of the exercise database. Zero coefficients are
// filled from name patterns or tier defaults.
type Exercise struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Tier      Tier          `json:"tier"`
	Muscles   []Involvement `json:"muscles"`
	Compound  bool          `json:"compound"`
	Axial     bool          `json:"axial"`
	OneRepMax float64       `json:"one_rep_max,omitempty"`
	Coefficients
}

var tierDefaults = map[Tier]Coefficients{ //nolint:gochecknoglobals // read-only table
	TierBasic:     {EFC: 4.0, SSC: 1.0, CNC: 4.0},
	TierAccessory: {EFC: 2.5, SSC: 0.5, CNC: 2.5},
	TierIsolation: {EFC: 1.5, SSC: 0.1, CNC: 1.5},
}

type namePattern struct {
	needles []string
	coeff   Coefficients
}

// Checked in order; the first match wins.
var namePatterns = []namePattern{ //nolint:gochecknoglobals // read-only table
	{[]string{"peso_muerto", "deadlift"}, Coefficients{EFC: 5.0, SSC: 2.0, CNC: 5.0}},
	{[]string{"sentadilla", "squat"}, Coefficients{EFC: 4.5, SSC: 1.5, CNC: 4.5}},
	{[]string{"press_banca", "bench"}, Coefficients{EFC: 3.8, SSC: 0.3, CNC: 3.8}},
	{[]string{"press_militar", "overhead_press", "ohp"}, Coefficients{EFC: 3.5, SSC: 1.0, CNC: 3.5}},
}

// Resolved returns the coefficients with every zero field filled in.
func (e Exercise) Resolved() Coefficients {
	c := e.Coefficients
	if c.EFC > 0 && c.SSC > 0 && c.CNC > 0 {
		return c
	}
	base, ok := tierDefaults[e.Tier]
	if !ok {
		base = tierDefaults[TierAccessory]
	}
	folded := muscle.Fold(e.Name)
	for _, p := range namePatterns {
		if containsAny(folded, p.needles) {
			base = p.coeff
			break
		}
	}
	if c.EFC <= 0 {
		c.EFC = base.EFC
	}
	if c.SSC <= 0 {
		c.SSC = base.SSC
	}
	if c.CNC <= 0 {
		c.CNC = base.CNC
	}
	return c
}

// IsCompound reports whether the exercise drains the CNS.
func (e Exercise) IsCompound() bool {
	return e.Compound || e.Tier == TierBasic
}

// IsAxial reports whether the exercise loads the spine.
func (e Exercise) IsAxial() bool {
	return e.Axial || e.Resolved().SSC >= 1.0
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// ExerciseDB indexes exercises by id and by folded name.
type ExerciseDB struct {
	byID   map[string]Exercise
	byName map[string]Exercise
}

// NewExerciseDB builds a database. Later duplicates replace earlier ones.
func NewExerciseDB(exercises ...Exercise) *ExerciseDB {
	db := &ExerciseDB{
		byID:   make(map[string]Exercise, len(exercises)),
		byName: make(map[string]Exercise, len(exercises)),
	}
	for _, e := range exercises {
		if e.ID != "" {
			db.byID[e.ID] = e
		}
		if e.Name != "" {
			db.byName[muscle.Fold(e.Name)] = e
		}
	}
	return db
}

// Lookup finds an exercise by id, falling back to its name.
func (db *ExerciseDB) Lookup(key string) (Exercise, bool) {
	if db == nil {
		return Exercise{}, false
	}
	if e, ok := db.byID[key]; ok {
		return e, true
	}
	e, ok := db.byName[muscle.Fold(key)]
	return e, ok
}

// Len returns the number of distinct ids and names.
func (db *ExerciseDB) Len() int {
	if db == nil {
		return 0
	}
	return len(db.byID)
}

// muscleWeights returns the normalized muscles of e with their role weights.
func (e Exercise) muscleWeights() map[model.MuscleID]float64 {
	out := make(map[model.MuscleID]float64, len(e.Muscles))
	for _, inv := range e.Muscles {
		id := muscle.Normalize(inv.Muscle)
		if id == "" {
			continue
		}
		if w := inv.Role.Weight(); w > out[id] {
			out[id] = w
		}
	}
	return out
}
