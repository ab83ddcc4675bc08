package banister

import (
	"sync"

	"github.com/okian/auge/internal/domain/model"
)

// Option configures a Model.
type Option func(*Model)

// WithMinImpulses sets the cold-start threshold.
func WithMinImpulses(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.minImpulses = n
		}
	}
}

// WithParams overrides the default parameters of one system.
func WithParams(sys model.SystemTag, p model.BanisterParams) Option {
	return func(m *Model) {
		if sys.HasBattery() && p.Tau1 > 0 && p.Tau2 > 0 {
			m.params[sys] = p
		}
	}
}

// Model folds impulses incrementally. It is safe for concurrent use.
type Model struct {
	mu          sync.Mutex
	params      map[model.SystemTag]model.BanisterParams
	folds       map[model.SystemTag]*fold
	minImpulses int
}

// NewModel creates an empty model.
func NewModel(opts ...Option) *Model {
	m := &Model{
		params:      DefaultParams(),
		folds:       make(map[model.SystemTag]*fold, len(model.BatterySystems)),
		minImpulses: DefaultMinImpulses,
	}
	for _, opt := range opts {
		opt(m)
	}
	for _, sys := range model.BatterySystems {
		p := m.params[sys]
		m.folds[sys] = newFold(p.Tau1, p.Tau2)
	}
	return m
}

// Add absorbs one impulse into every system.
func (m *Model) Add(imp model.TrainingImpulse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sys := range model.BatterySystems {
		m.folds[sys].add(imp.TimestampHours, magnitude(sys, imp))
	}
}

// Len returns the number of absorbed impulses.
func (m *Model) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.folds[model.SystemMuscular].len()
}

// Params returns a copy of the base parameters.
func (m *Model) Params() map[model.SystemTag]model.BanisterParams {
	out := make(map[model.SystemTag]model.BanisterParams, len(m.params))
	for k, v := range m.params {
		out[k] = v
	}
	return out
}

// Result evaluates the series with the given parameters, falling back to the
// base parameters for systems missing from fitted. It returns nil below the
// cold-start threshold.
func (m *Model) Result(fitted map[model.SystemTag]model.BanisterParams) *model.BanisterResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.folds[model.SystemMuscular].len() < m.minImpulses {
		return nil
	}
	last := m.folds[model.SystemMuscular].last()
	timeline := make([]float64, 0, int((lookbackHours+forecastHours)/stepHours)+1)
	for h := -lookbackHours; h <= forecastHours; h += stepHours {
		timeline = append(timeline, h)
	}

	res := &model.BanisterResult{
		Systems:             make(map[model.SystemTag]model.BanisterSeries, len(model.BatterySystems)),
		TimelineHours:       timeline,
		CombinedPerformance: make([]float64, len(timeline)),
	}
	totalWeight := 0.0
	for _, sys := range model.BatterySystems {
		p, ok := fitted[sys]
		if !ok {
			p = m.params[sys]
		}
		f := m.folds[sys]
		series := model.BanisterSeries{
			Params:        p,
			Impulses:      f.len(),
			TimelineHours: timeline,
			Fitness:       make([]float64, len(timeline)),
			Fatigue:       make([]float64, len(timeline)),
			Performance:   make([]float64, len(timeline)),
		}
		peak := -1
		for i, h := range timeline {
			fit, fat := f.at(last + h)
			perf := p.P0 + p.K1*fit - p.K2*fat
			series.Fitness[i] = fit
			series.Fatigue[i] = fat
			series.Performance[i] = perf
			if h <= 0 {
				continue
			}
			if series.NextOptimalSessionHour == nil && perf >= p.P0 {
				hh := h
				series.NextOptimalSessionHour = &hh
			}
			if peak < 0 || perf > series.Performance[peak] {
				peak = i
			}
		}
		if peak >= 0 {
			hh := timeline[peak]
			series.PredictedPeakPerformanceHour = &hh
		}
		res.Systems[sys] = series
		w := combinedWeights[sys]
		totalWeight += w
		for i, v := range series.Performance {
			res.CombinedPerformance[i] += w * v
		}
	}
	if totalWeight > 0 {
		for i := range res.CombinedPerformance {
			res.CombinedPerformance[i] /= totalWeight
		}
	}

	now := indexOf(timeline, 0)
	before := indexOf(timeline, -trendHours)
	current := res.CombinedPerformance[now]
	res.Verdict = Verdict(current, current-res.CombinedPerformance[before])
	res.OptimalNextSessionHour = optimalWindow(timeline, res.CombinedPerformance)
	return res
}

// optimalWindow is the first forecast point where combined performance stops rising.
func optimalWindow(timeline, combined []float64) *float64 {
	for i := 1; i < len(timeline); i++ {
		if timeline[i] <= 0 || combined[i] < combined[i-1] {
			continue
		}
		if i+1 >= len(combined) || combined[i] >= combined[i+1] {
			h := timeline[i]
			return &h
		}
	}
	return nil
}

func indexOf(timeline []float64, h float64) int {
	for i, v := range timeline {
		if v >= h {
			return i
		}
	}
	return len(timeline) - 1
}

// Verdict turns the current combined performance and its recent trend into
// advice.
func Verdict(current, trend float64) string {
	switch {
	case current > 105 && trend > 0:
		return "Tu fitness acumulada supera tu fatiga residual. Estás en fase de supercompensación, momento ideal para PRs."
	case current < 90:
		return "Tu fatiga acumulada domina sobre tu fitness. Necesitas un deload o reducir frecuencia para absorber las adaptaciones."
	case trend < -5:
		return "Tu rendimiento está en tendencia descendente. Acumulas más fatiga de la que puedes procesar, considera reducir volumen un 30%."
	default:
		return "Tu balance fitness-fatiga es estable. Sigue con tu plan actual y ajusta según el semáforo diario."
	}
}
