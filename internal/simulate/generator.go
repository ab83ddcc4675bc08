package simulate

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/okian/auge/internal/domain/battery"
	"github.com/okian/auge/internal/domain/model"
	"github.com/okian/auge/internal/domain/stress"
)

// API paths the generator targets.
const (
	PathWorkouts    = "/v1/workouts"
	PathFatigue     = "/v1/fatigue"
	PathRecovery    = "/v1/recovery"
	PathPredictions = "/v1/predictions"
	PathOutcomes    = "/v1/outcomes"
)

const (
	restProbability   = 0.25
	setsPerExercise   = 3
	replayEvery       = 10
	athleteAge        = 32
	outcomeDelayHours = 2
	fatigueTauHours   = 36.0
	fatigueStressNorm = 150.0
)

type lift struct {
	exercise string
	baseLoad float64
}

type plan struct {
	name    string
	primary model.MuscleID
	lifts   []lift
}

// Rotation of a three-day split.
var plans = []plan{ //nolint:gochecknoglobals // fixed rotation
	{name: "Pierna", primary: "quadriceps", lifts: []lift{
		{"back_squat", 100}, {"romanian_deadlift", 80}, {"leg_press", 160},
	}},
	{name: "Empuje", primary: "chest", lifts: []lift{
		{"bench_press", 80}, {"overhead_press", 50}, {"triceps_extension", 25},
	}},
	{name: "Tirón", primary: "hamstrings", lifts: []lift{
		{"deadlift", 140}, {"barbell_row", 70}, {"biceps_curl", 15},
	}},
}

// Generate builds a deterministic history of cfg.Days days. Equal seeds and
// start times give equal histories.
func Generate(cfg Config) (History, error) {
	if cfg.Days <= 0 {
		return History{}, fmt.Errorf("%w: days must be positive", ErrInvalidConfig)
	}
	start := cfg.Start
	if start.IsZero() {
		start = time.Now().UTC().Truncate(time.Hour).AddDate(0, 0, -cfg.Days)
	}

	g := &generator{
		rng:     rand.New(rand.NewSource(cfg.Seed)), //nolint:gosec // reproducible synthetic data
		catalog: stress.DefaultCatalog(),
	}
	var h History
	for d := 0; d < cfg.Days; d++ {
		if err := g.day(&h, start.Add(time.Duration(d)*24*time.Hour), plans[d%len(plans)]); err != nil {
			return History{}, err
		}
	}
	return h, nil
}

type generator struct {
	rng         *rand.Rand
	catalog     *stress.ExerciseDB
	predictions int
}

func (g *generator) between(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func (g *generator) add(h *History, kind model.Kind, path string, body any) {
	h.Requests = append(h.Requests, Request{Kind: kind, Path: path, Body: body})
	h.Records++
}

func (g *generator) day(h *History, at time.Time, p plan) error {
	var sessionStress float64
	if g.rng.Float64() >= restProbability {
		w := g.workout(at, p)
		sessionStress = stress.Score(w.Sets, g.catalog).TotalStress
		g.add(h, model.KindImpulse, PathWorkouts, w)
	}

	hours := g.between(2, 48)
	g.add(h, model.KindFatigue, PathFatigue, g.fatigue(hours, sessionStress))

	predicted := g.between(55, 90)
	actual := clamp(predicted+g.rng.NormFloat64()*8, 0, 100)
	g.add(h, model.KindRecovery, PathRecovery, model.RecoveryObservation{
		Muscle:            p.primary,
		SessionStress:     sessionStress,
		HoursSinceSession: hours,
		PredictedBattery:  predicted,
		ActualBattery:     actual,
		Timestamp:         at.Add(time.Duration(hours * float64(time.Hour))),
	})

	return g.prediction(h, at)
}

func (g *generator) workout(at time.Time, p plan) battery.Workout {
	w := battery.Workout{Name: p.name, TimestampHours: model.HoursSinceEpoch(at)}
	for _, l := range p.lifts {
		for i := 0; i < setsPerExercise; i++ {
			w.Sets = append(w.Sets, stress.Set{
				Exercise: l.exercise,
				Load:     math.Round(l.baseLoad*g.between(0.9, 1.05)*2) / 2,
				Reps:     5 + g.rng.Intn(6),
				RPE:      7 + 0.5*float64(g.rng.Intn(6)),
			})
		}
	}
	return w
}

func (g *generator) fatigue(hours, sessionStress float64) model.FatigueDataPoint {
	fraction := sessionStress / fatigueStressNorm * math.Exp(-hours/fatigueTauHours)
	return model.FatigueDataPoint{
		HoursSinceSession:       hours,
		SessionStress:           sessionStress,
		SleepHours:              math.Round(g.between(5, 9)*10) / 10,
		NutritionStatus:         g.rng.Intn(3) - 1,
		StressLevel:             float64(g.rng.Intn(6)),
		Age:                     athleteAge,
		IsCompoundDominant:      true,
		ObservedFatigueFraction: clamp(fraction+g.rng.NormFloat64()*0.05, 0, 1),
	}
}

func (g *generator) prediction(h *History, at time.Time) error {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		return fmt.Errorf("prediction id: %w", err)
	}
	system := model.AllSystems[g.predictions%len(model.AllSystems)]
	g.predictions++

	pred := model.PredictionRecord{
		PredictionID:   id.String(),
		Timestamp:      at,
		System:         system,
		PredictedValue: math.Round(g.between(40, 95)),
	}
	g.add(h, model.KindPrediction, PathPredictions, pred)
	if g.predictions%replayEvery == 0 {
		h.Requests = append(h.Requests, Request{Kind: model.KindPrediction, Path: PathPredictions, Body: pred, Replay: true})
		h.Replays++
	}

	g.add(h, model.KindOutcome, PathOutcomes, model.OutcomeRecord{
		PredictionID:   pred.PredictionID,
		ActualValue:    clamp(math.Round(pred.PredictedValue+g.rng.NormFloat64()*6), 0, 100),
		FeedbackSource: "simulate",
		Timestamp:      at.Add(outcomeDelayHours * time.Hour),
	})
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
