package recovery

import "math"

// Context is the recovery environment around a session.
type Context struct {
	SleepHours      float64 `json:"sleep_hours"`
	NutritionStatus int     `json:"nutrition_status"`
	StressLevel     float64 `json:"stress_level"`
	Age             float64 `json:"age"`
}

// Multiplier scales recovery time for the context. 1 is the reference
// athlete; values are floored at 0.5.
func Multiplier(c Context) float64 {
	m := 1.0
	switch {
	case c.NutritionStatus < 0:
		m *= 1.35
	case c.NutritionStatus > 0:
		m *= 0.85
	}
	if c.StressLevel >= 4 {
		m *= 1.4
	}
	if c.SleepHours > 0 {
		switch {
		case c.SleepHours < 6:
			m *= 1.5
		case c.SleepHours < 7:
			m *= 1.2
		case c.SleepHours >= 8.5:
			m *= 0.8
		case c.SleepHours >= 7.5:
			m *= 0.9
		}
	}
	if c.Age > 35 {
		m *= 1 + 0.01*(c.Age-35)
	}
	return math.Max(0.5, m)
}

// AdjustedRecoveryHours scales base hours by the context multiplier.
func AdjustedRecoveryHours(base float64, c Context) float64 {
	return base * Multiplier(c)
}
