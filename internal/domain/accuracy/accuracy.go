// Package accuracy scores the engine's predictions against reported
// outcomes and turns the scores into recommendations.
package accuracy

import (
	"fmt"
	"math"
	"time"

	"github.com/sajari/regression"

	"github.com/okian/auge/internal/domain/model"
)

// Defaults.
const (
	DefaultMinPairs  = 5
	DefaultRetention = 90 * 24 * time.Hour

	minAdjustPairs   = 3
	scoreErrorScale  = 20.0
	biasThreshold    = 5.0
	maeThreshold     = 15.0
	biasCorrection   = 0.3
	adjustBiasWeight = 0.25
	adjustKeepWeight = 0.7
	improvingRatio   = 0.9
	decliningRatio   = 1.1
)

// Option configures a Tracker.
type Option func(*Tracker)

// WithMinPairs sets how many pairs a system needs to be reported.
func WithMinPairs(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.minPairs = n
		}
	}
}

// WithRetention sets how far back from the newest pair scoring looks.
func WithRetention(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.retention = d
		}
	}
}

// Tracker computes self-improvement summaries.
type Tracker struct {
	minPairs  int
	retention time.Duration
}

// NewTracker creates a tracker with default thresholds.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{minPairs: DefaultMinPairs, retention: DefaultRetention}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Compute scores matched pairs. The current calibration feeds the
// suggested adjustments.
func (t *Tracker) Compute(m Matching, calibration model.CalibrationDelta) model.SelfImprovement {
	pairs := Within(m.Pairs, t.retention)
	out := model.SelfImprovement{
		ImprovementTrend:   model.TrendStable,
		AccuracyBySystem:   []model.SystemAccuracy{},
		MatchedPairs:       len(pairs),
		PendingPredictions: m.Pending,
		UnmatchedOutcomes:  m.Unmatched,
	}

	bySystem := make(map[model.SystemTag][]Pair)
	for _, p := range pairs {
		bySystem[p.System] = append(bySystem[p.System], p)
	}

	var weighted, weights float64
	for _, sys := range model.AllSystems {
		ps := bySystem[sys]
		if sys.HasBattery() && len(ps) >= minAdjustPairs {
			if out.SuggestedAdjustments == nil {
				out.SuggestedAdjustments = make(map[model.SystemTag]float64)
			}
			out.SuggestedAdjustments[sys] = -adjustBiasWeight*bias(ps) + adjustKeepWeight*calibration.Delta(sys)
		}
		if len(ps) < t.minPairs {
			continue
		}
		acc := Score(sys, ps)
		out.AccuracyBySystem = append(out.AccuracyBySystem, acc)
		n := float64(acc.SampleSize)
		weighted += n * clamp((1-acc.MAE/scoreErrorScale)*100, 0, 100)
		weights += n
	}
	if weights > 0 {
		out.OverallPredictionScore = weighted / weights
	}
	if len(pairs) >= t.minPairs {
		out.ImprovementTrend = Trend(pairs)
	}
	out.Recommendations = recommendations(out.AccuracyBySystem)
	return out
}

// Score computes the accuracy statistics of one system.
func Score(sys model.SystemTag, pairs []Pair) model.SystemAccuracy {
	n := float64(len(pairs))
	var sumAbs, sumSq, sumErr, meanActual float64
	for _, p := range pairs {
		e := p.Error()
		sumAbs += math.Abs(e)
		sumSq += e * e
		sumErr += e
		meanActual += p.Actual
	}
	meanActual /= n
	var ssTot float64
	for _, p := range pairs {
		d := p.Actual - meanActual
		ssTot += d * d
	}
	acc := model.SystemAccuracy{
		System:     sys,
		RSquared:   rSquared(sumSq, ssTot),
		MAE:        sumAbs / n,
		RMSE:       math.Sqrt(sumSq / n),
		Bias:       sumErr / n,
		SampleSize: len(pairs),
	}
	if slope, intercept, ok := calibrationLine(pairs); ok {
		acc.Slope = &slope
		acc.Intercept = &intercept
	}
	return acc
}

func rSquared(ssRes, ssTot float64) float64 {
	switch {
	case ssRes == 0:
		return 1
	case ssTot == 0:
		return 0
	}
	return clamp(1-ssRes/ssTot, 0, 1)
}

// calibrationLine regresses actual on predicted values.
func calibrationLine(pairs []Pair) (slope, intercept float64, ok bool) {
	first := pairs[0].Predicted
	varied := false
	for _, p := range pairs[1:] {
		if p.Predicted != first {
			varied = true
			break
		}
	}
	if !varied {
		return 0, 0, false
	}
	r := new(regression.Regression)
	r.SetObserved("actual")
	r.SetVar(0, "predicted")
	for _, p := range pairs {
		r.Train(regression.DataPoint(p.Actual, []float64{p.Predicted}))
	}
	if err := r.Run(); err != nil {
		return 0, 0, false
	}
	intercept, slope = r.Coeff(0), r.Coeff(1)
	if math.IsNaN(slope) || math.IsInf(slope, 0) || math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return 0, 0, false
	}
	return slope, intercept, true
}

// Trend compares the mean absolute error of the older and newer halves.
func Trend(pairs []Pair) string {
	half := len(pairs) / 2
	if half == 0 {
		return model.TrendStable
	}
	first, second := mae(pairs[:half]), mae(pairs[half:])
	switch {
	case second < improvingRatio*first:
		return model.TrendImproving
	case second > decliningRatio*first:
		return model.TrendDeclining
	}
	return model.TrendStable
}

func recommendations(accs []model.SystemAccuracy) []string {
	if len(accs) == 0 {
		return []string{"Registra más feedback tras tus sesiones para evaluar la precisión del modelo."}
	}
	var recs []string
	biased, worst := accs[0], accs[0]
	for _, a := range accs[1:] {
		if math.Abs(a.Bias) > math.Abs(biased.Bias) {
			biased = a
		}
		if a.MAE > worst.MAE {
			worst = a
		}
	}
	if math.Abs(biased.Bias) > biasThreshold {
		verb := "sobreestima"
		if biased.Bias < 0 {
			verb = "subestima"
		}
		recs = append(recs, fmt.Sprintf(
			"El modelo %s tu batería %s en %.0f puntos. Ajuste sugerido: %+.0f.",
			verb, biased.System.Label(), math.Abs(biased.Bias), -biasCorrection*biased.Bias))
	}
	if worst.MAE > maeThreshold {
		recs = append(recs, fmt.Sprintf(
			"Las predicciones de %s tienen un error medio de %.0f puntos. Registra más feedback para afinarlas.",
			worst.System.Label(), worst.MAE))
	}
	if len(recs) == 0 {
		recs = append(recs, "La precisión del modelo es aceptable. Sigue registrando feedback para mantenerla.")
	}
	return recs
}

func bias(pairs []Pair) float64 {
	s := 0.0
	for _, p := range pairs {
		s += p.Error()
	}
	return s / float64(len(pairs))
}

func mae(pairs []Pair) float64 {
	s := 0.0
	for _, p := range pairs {
		s += math.Abs(p.Error())
	}
	return s / float64(len(pairs))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
