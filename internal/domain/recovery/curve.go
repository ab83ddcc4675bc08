package recovery

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/okian/auge/internal/domain/model"
)

const (
	peakHour       = 6.0
	peakFatigue    = 0.8
	referenceHours = 48.0
	kernelLength   = 12.0
	noiseVariance  = 1.0
	fullRecoveryAt = 0.10
	supercompAt    = 0.05
	bandZ          = 1.96
	maxCurvePoints = 200
)

// CurveHours are the hours the fatigue curve is evaluated at.
var CurveHours = []float64{0, 6, 12, 18, 24, 36, 48, 60, 72, 96, 120} //nolint:gochecknoglobals // fixed grid

// PriorFatigue is the population fatigue fraction h hours after a session.
func PriorFatigue(h float64) float64 {
	if h < peakHour {
		return peakFatigue * math.Max(0, h) / peakHour
	}
	return peakFatigue * math.Exp(-recoveryLn/referenceHours*(h-peakHour))
}

func rbf(a, b float64) float64 {
	d := a - b
	return math.Exp(-d * d / (2 * kernelLength * kernelLength))
}

// Curve fits a Gaussian process over the prior using the most recent data
// points. Point hours are rescaled by their context so every point speaks
// for the reference athlete.
func Curve(points []model.FatigueDataPoint) model.GPCurve {
	if len(points) > maxCurvePoints {
		points = points[len(points)-maxCurvePoints:]
	}
	xs := make([]float64, 0, len(points))
	ys := make([]float64, 0, len(points))
	for _, p := range points {
		mult := Multiplier(Context{
			SleepHours:      p.SleepHours,
			NutritionStatus: p.NutritionStatus,
			StressLevel:     p.StressLevel,
			Age:             p.Age,
		})
		h := p.HoursSinceSession / mult
		if math.IsNaN(h) || math.IsInf(h, 0) || math.IsNaN(p.ObservedFatigueFraction) {
			continue
		}
		xs = append(xs, h)
		ys = append(ys, p.ObservedFatigueFraction-PriorFatigue(h))
	}

	curve := model.GPCurve{
		Hours:       append([]float64(nil), CurveHours...),
		MeanFatigue: make([]float64, len(CurveHours)),
		UpperBound:  make([]float64, len(CurveHours)),
		LowerBound:  make([]float64, len(CurveHours)),
		DataPoints:  len(xs),
	}

	var chol *mat.Cholesky
	var weights *mat.VecDense
	if n := len(xs); n > 0 {
		k := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				v := rbf(xs[i], xs[j])
				if i == j {
					v += noiseVariance
				}
				k.SetSym(i, j, v)
			}
		}
		var c mat.Cholesky
		if c.Factorize(k) {
			weights = mat.NewVecDense(n, nil)
			if err := c.SolveVecTo(weights, mat.NewVecDense(n, ys)); err == nil {
				chol = &c
			}
		}
	}

	for i, h := range CurveHours {
		mean := PriorFatigue(h)
		variance := 1.0
		if chol != nil {
			ks := mat.NewVecDense(len(xs), nil)
			for j, x := range xs {
				ks.SetVec(j, rbf(h, x))
			}
			mean += mat.Dot(ks, weights)
			var v mat.VecDense
			if err := chol.SolveVecTo(&v, ks); err == nil {
				variance = math.Max(0, 1-mat.Dot(ks, &v))
			}
		}
		sd := math.Sqrt(variance)
		curve.MeanFatigue[i] = clamp01(mean)
		curve.UpperBound[i] = clamp01(mean + bandZ*sd)
		curve.LowerBound[i] = clamp01(mean - bandZ*sd)
	}

	peak := 0
	for i, v := range curve.MeanFatigue {
		if v > curve.MeanFatigue[peak] {
			peak = i
		}
	}
	curve.PeakFatigueHour = CurveHours[peak]
	for i := peak + 1; i < len(CurveHours); i++ {
		if curve.FullRecoveryHour == nil && curve.MeanFatigue[i] <= fullRecoveryAt {
			h := CurveHours[i]
			curve.FullRecoveryHour = &h
		}
		if curve.SupercompensationHour == nil && curve.MeanFatigue[i] <= supercompAt {
			h := CurveHours[i]
			curve.SupercompensationHour = &h
		}
	}
	return curve
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}
