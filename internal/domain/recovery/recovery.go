// Package recovery personalizes per-muscle recovery hours from feedback and
// builds the expected post-session fatigue curve.
package recovery

import (
	"math"
	"sort"

	"github.com/okian/auge/internal/domain/model"
	"github.com/okian/auge/internal/domain/muscle"
)

// Defaults for the shrinkage estimator.
const (
	DefaultMinObservations = 3
	DefaultMaxStepHours    = 12.0

	priorAlpha = 2.0
	recoveryLn = 2.9957 // ln(20): time to 95 % recovery is ln(20)/k
	minTau     = 6.0
	maxTau     = 200.0
)

// Option configures a Model.
type Option func(*Model)

// WithMinObservations sets how many observations a muscle needs before its
// personalized estimate is reported.
func WithMinObservations(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.minObservations = n
		}
	}
}

// WithMaxStepHours caps how far one observation may move an estimate.
func WithMaxStepHours(h float64) Option {
	return func(m *Model) {
		if h > 0 {
			m.maxStep = h
		}
	}
}

// WithPopulation overrides the population table lookup.
func WithPopulation(fn func(model.MuscleID) float64) Option {
	return func(m *Model) {
		if fn != nil {
			m.population = fn
		}
	}
}

// Model is a Gamma-conjugate shrinkage estimator over recovery time. Each
// muscle starts at its population prior and moves toward the recovery time
// implied by feedback with a step of 1/alpha, capped at maxStep.
type Model struct {
	minObservations int
	maxStep         float64
	population      func(model.MuscleID) float64
}

// NewModel creates a model with the default thresholds.
func NewModel(opts ...Option) *Model {
	m := &Model{
		minObservations: DefaultMinObservations,
		maxStep:         DefaultMaxStepHours,
		population:      muscle.PopulationHours,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Estimate is the state of one muscle.
type Estimate struct {
	Muscle       model.MuscleID
	PriorHours   float64
	Hours        float64
	Alpha        float64
	Beta         float64
	Observations int
	// History holds the reported hours after each observation.
	History []float64
}

// Result is the output of Fit.
type Result struct {
	Hours        map[model.MuscleID]float64
	Observations map[model.MuscleID]int
	Estimates    map[model.MuscleID]*Estimate
	Faults       int
}

// ImpliedRecoveryHours converts one observation into the time to 95 %
// recovery it implies. ok is false for observations that carry no signal.
func ImpliedRecoveryHours(o model.RecoveryObservation) (float64, bool) {
	if !(o.HoursSinceSession > 0) || !(o.SessionStress > 0) || math.IsNaN(o.ActualBattery) {
		return 0, false
	}
	depletion := math.Max(1, 100-o.ActualBattery)
	initial := math.Max(depletion, o.SessionStress)
	rf := math.Min(0.99, math.Max(0.01, depletion/initial))
	k := -math.Log(rf) / o.HoursSinceSession
	tau := recoveryLn / k
	return math.Min(maxTau, math.Max(minTau, tau)), true
}

// Fit folds observations, in order, into per-muscle estimates. Every muscle
// of the population table is reported; muscles under the observation
// threshold report their prior unchanged.
func (m *Model) Fit(observations []model.RecoveryObservation) Result {
	res := Result{
		Hours:        make(map[model.MuscleID]float64),
		Observations: make(map[model.MuscleID]int),
		Estimates:    make(map[model.MuscleID]*Estimate),
	}
	pending := make(map[model.MuscleID][]float64)

	for _, o := range observations {
		id := muscle.Normalize(string(o.Muscle))
		tau, ok := ImpliedRecoveryHours(o)
		if id == "" || !ok {
			res.Faults++
			continue
		}
		est := res.Estimates[id]
		if est == nil {
			prior := m.population(id)
			est = &Estimate{Muscle: id, PriorHours: prior, Hours: prior, Alpha: priorAlpha, Beta: priorAlpha * prior}
			res.Estimates[id] = est
		}
		est.Observations++
		if est.Observations < m.minObservations {
			pending[id] = append(pending[id], tau)
			est.History = append(est.History, est.Hours)
			continue
		}
		taus := append(pending[id], tau)
		delete(pending, id)
		m.update(est, taus)
		est.History = append(est.History, est.Hours)
	}

	for _, id := range muscle.All() {
		res.Hours[id] = m.population(id)
	}
	for id, est := range res.Estimates {
		res.Observations[id] = est.Observations
		res.Hours[id] = est.Hours
	}
	return res
}

// update applies the batched Gamma posterior mean as a single capped step.
func (m *Model) update(est *Estimate, taus []float64) {
	sum := 0.0
	for _, t := range taus {
		sum += t
	}
	alpha := est.Alpha + float64(len(taus))
	candidate := (est.Beta + sum) / alpha
	step := math.Max(-m.maxStep, math.Min(m.maxStep, candidate-est.Hours))
	est.Hours += step
	est.Alpha = alpha
	est.Beta = est.Hours * alpha
}

// Muscles returns the ids in r sorted.
func (r Result) Muscles() []model.MuscleID {
	out := make([]model.MuscleID, 0, len(r.Hours))
	for id := range r.Hours {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
