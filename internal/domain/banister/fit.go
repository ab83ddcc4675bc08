package banister

import (
	"math"

	"github.com/okian/auge/internal/domain/model"
)

const (
	fitSteps    = 200
	fitRate     = 0.05
	minFitObs   = 3
	minK1       = 0.1
	maxK1       = 3.0
	minK2       = 0.1
	maxK2       = 5.0
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
)

// Observation is a measured performance at an absolute time in hours.
type Observation struct {
	Hours       float64
	Performance float64
}

// adam is a two-parameter Adam optimizer with bias correction.
type adam struct {
	lr   float64
	m, v [2]float64
	step int
}

func (a *adam) update(params, grads [2]float64) [2]float64 {
	a.step++
	for i := range params {
		g := grads[i]
		if g == 0 {
			continue
		}
		a.m[i] = adamBeta1*a.m[i] + (1-adamBeta1)*g
		a.v[i] = adamBeta2*a.v[i] + (1-adamBeta2)*g*g
		mHat := a.m[i] / (1 - math.Pow(adamBeta1, float64(a.step)))
		vHat := a.v[i] / (1 - math.Pow(adamBeta2, float64(a.step)))
		params[i] -= a.lr * mHat / (math.Sqrt(vHat) + adamEpsilon)
	}
	return params
}

// Fit tunes k1 and k2 of each system against its observations, starting
// from the base parameters every time. Systems with fewer than three
// observations keep their base parameters.
func (m *Model) Fit(obs map[model.SystemTag][]Observation) map[model.SystemTag]model.BanisterParams {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[model.SystemTag]model.BanisterParams, len(model.BatterySystems))
	for _, sys := range model.BatterySystems {
		p := m.params[sys]
		points := obs[sys]
		if len(points) < minFitObs || m.folds[sys].len() == 0 {
			out[sys] = p
			continue
		}
		fits := make([]float64, len(points))
		fats := make([]float64, len(points))
		for i, o := range points {
			fits[i], fats[i] = m.folds[sys].at(o.Hours)
		}
		opt := &adam{lr: fitRate}
		k := [2]float64{p.K1, p.K2}
		for step := 0; step < fitSteps; step++ {
			var g [2]float64
			for i, o := range points {
				e := p.P0 + k[0]*fits[i] - k[1]*fats[i] - o.Performance
				g[0] += 2 * e * fits[i]
				g[1] -= 2 * e * fats[i]
			}
			n := float64(len(points))
			g[0] /= n
			g[1] /= n
			if math.IsNaN(g[0]) || math.IsNaN(g[1]) {
				break
			}
			k = opt.update(k, g)
			k[0] = math.Min(maxK1, math.Max(minK1, k[0]))
			k[1] = math.Min(maxK2, math.Max(minK2, k[1]))
		}
		p.K1, p.K2 = k[0], k[1]
		out[sys] = p
	}
	return out
}
