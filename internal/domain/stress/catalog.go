package stress

// DefaultCatalog returns the built-in exercise database used when the
// caller does not provide one.
func DefaultCatalog() *ExerciseDB {
	return NewExerciseDB(
		Exercise{ID: "back_squat", Name: "Sentadilla", Tier: TierBasic, Compound: true, Axial: true, Muscles: []Involvement{
			{Muscle: "quadriceps", Role: RolePrimary},
			{Muscle: "glutes", Role: RoleSecondary},
			{Muscle: "adductors", Role: RoleSecondary},
			{Muscle: "lower_back", Role: RoleStabilizer},
			{Muscle: "core", Role: RoleStabilizer},
		}},
		Exercise{ID: "deadlift", Name: "Peso muerto", Tier: TierBasic, Compound: true, Axial: true, Muscles: []Involvement{
			{Muscle: "hamstrings", Role: RolePrimary},
			{Muscle: "glutes", Role: RolePrimary},
			{Muscle: "lower_back", Role: RolePrimary},
			{Muscle: "traps", Role: RoleSecondary},
			{Muscle: "forearms", Role: RoleStabilizer},
		}},
		Exercise{ID: "bench_press", Name: "Press banca", Tier: TierBasic, Compound: true, Muscles: []Involvement{
			{Muscle: "chest", Role: RolePrimary},
			{Muscle: "triceps", Role: RoleSecondary},
			{Muscle: "deltoids", Role: RoleSecondary},
		}},
		Exercise{ID: "overhead_press", Name: "Press militar", Tier: TierBasic, Compound: true, Axial: true, Muscles: []Involvement{
			{Muscle: "shoulders", Role: RolePrimary},
			{Muscle: "triceps", Role: RoleSecondary},
			{Muscle: "core", Role: RoleStabilizer},
		}},
		Exercise{ID: "barbell_row", Name: "Remo con barra", Tier: TierBasic, Compound: true, Axial: true, Muscles: []Involvement{
			{Muscle: "lats", Role: RolePrimary},
			{Muscle: "traps", Role: RoleSecondary},
			{Muscle: "biceps", Role: RoleSecondary},
			{Muscle: "lower_back", Role: RoleStabilizer},
		}},
		Exercise{ID: "pull_up", Name: "Dominadas", Tier: TierAccessory, Compound: true, Muscles: []Involvement{
			{Muscle: "lats", Role: RolePrimary},
			{Muscle: "biceps", Role: RoleSecondary},
			{Muscle: "forearms", Role: RoleStabilizer},
		}},
		Exercise{ID: "romanian_deadlift", Name: "Peso muerto rumano", Tier: TierAccessory, Compound: true, Axial: true, Muscles: []Involvement{
			{Muscle: "hamstrings", Role: RolePrimary},
			{Muscle: "glutes", Role: RoleSecondary},
			{Muscle: "lower_back", Role: RoleStabilizer},
		}},
		Exercise{ID: "leg_press", Name: "Prensa", Tier: TierAccessory, Compound: true, Muscles: []Involvement{
			{Muscle: "quadriceps", Role: RolePrimary},
			{Muscle: "glutes", Role: RoleSecondary},
		}},
		Exercise{ID: "hip_thrust", Name: "Hip thrust", Tier: TierAccessory, Compound: true, Muscles: []Involvement{
			{Muscle: "glutes", Role: RolePrimary},
			{Muscle: "hamstrings", Role: RoleSecondary},
		}},
		Exercise{ID: "biceps_curl", Name: "Curl de bíceps", Tier: TierIsolation, Muscles: []Involvement{
			{Muscle: "biceps", Role: RolePrimary},
			{Muscle: "forearms", Role: RoleSecondary},
		}},
		Exercise{ID: "triceps_extension", Name: "Extensión de tríceps", Tier: TierIsolation, Muscles: []Involvement{
			{Muscle: "triceps", Role: RolePrimary},
		}},
		Exercise{ID: "leg_extension", Name: "Extensión de cuádriceps", Tier: TierIsolation, Muscles: []Involvement{
			{Muscle: "quadriceps", Role: RolePrimary},
		}},
		Exercise{ID: "leg_curl", Name: "Curl femoral", Tier: TierIsolation, Muscles: []Involvement{
			{Muscle: "hamstrings", Role: RolePrimary},
		}},
		Exercise{ID: "lateral_raise", Name: "Elevaciones laterales", Tier: TierIsolation, Muscles: []Involvement{
			{Muscle: "deltoids", Role: RolePrimary},
		}},
		Exercise{ID: "calf_raise", Name: "Elevación de talones", Tier: TierIsolation, Muscles: []Involvement{
			{Muscle: "calves", Role: RolePrimary},
		}},
		Exercise{ID: "plank", Name: "Plancha", Tier: TierIsolation, Muscles: []Involvement{
			{Muscle: "abs", Role: RolePrimary},
			{Muscle: "core", Role: RoleSecondary},
		}},
	)
}
