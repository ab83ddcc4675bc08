// Package battery computes the CNS, muscular and spinal batteries and the
// per-muscle batteries, each with an audit trail explaining the number.
package battery

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/okian/auge/internal/domain/calibration"
	"github.com/okian/auge/internal/domain/model"
	"github.com/okian/auge/internal/domain/muscle"
	"github.com/okian/auge/internal/domain/stress"
	"github.com/okian/auge/pkg/logger"
	"github.com/okian/auge/pkg/metrics"
)

// Defaults.
const (
	DefaultCNSHalfLife      = 24.0
	DefaultMuscularHalfLife = 48.0
	DefaultSpinalHalfLife   = 72.0
	DefaultCNSCapacity      = 120.0
	DefaultMuscularCapacity = 250.0
	DefaultSpinalCapacity   = 100.0
	DefaultMuscleCapacity   = 100.0
	DefaultWindowDays       = 14
	DefaultSleepTarget      = 8.0

	recentHours    = 48.0
	restHours      = 48.0
	recoveryLn     = 2.9957
	greenAt        = 70.0
	yellowAt       = 45.0
	surplusPenalty = 30.0
)

var sleepWeights = []float64{0.5, 0.3, 0.2} //nolint:gochecknoglobals // newest first

// Option configures a Calculator.
type Option func(*Calculator)

// WithHalfLife sets the decay half-life in hours of a system.
func WithHalfLife(sys model.SystemTag, hours float64) Option {
	return func(c *Calculator) {
		if sys.HasBattery() && hours > 0 {
			c.halfLives[sys] = hours
		}
	}
}

// WithCapacity sets the load that fully drains a system.
func WithCapacity(sys model.SystemTag, capacity float64) Option {
	return func(c *Calculator) {
		if sys.HasBattery() && capacity > 0 {
			c.capacities[sys] = capacity
		}
	}
}

// WithMuscleCapacity sets the load that fully drains one muscle.
func WithMuscleCapacity(capacity float64) Option {
	return func(c *Calculator) {
		if capacity > 0 {
			c.muscleCapacity = capacity
		}
	}
}

// WithWindowDays limits the history to the trailing window.
func WithWindowDays(days int) Option {
	return func(c *Calculator) {
		if days > 0 {
			c.windowHours = float64(days) * 24
		}
	}
}

// WithLogger sets the logger used for computation faults.
func WithLogger(l logger.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.log = l
		}
	}
}

// Calculator computes batteries. It never returns an error: a system whose
// computation faults reports 100 and the fault is logged.
type Calculator struct {
	halfLives      map[model.SystemTag]float64
	capacities     map[model.SystemTag]float64
	muscleCapacity float64
	windowHours    float64
	log            logger.Logger
}

// New creates a calculator with default constants.
func New(opts ...Option) *Calculator {
	c := &Calculator{
		halfLives: map[model.SystemTag]float64{
			model.SystemCNS:      DefaultCNSHalfLife,
			model.SystemMuscular: DefaultMuscularHalfLife,
			model.SystemSpinal:   DefaultSpinalHalfLife,
		},
		capacities: map[model.SystemTag]float64{
			model.SystemCNS:      DefaultCNSCapacity,
			model.SystemMuscular: DefaultMuscularCapacity,
			model.SystemSpinal:   DefaultSpinalCapacity,
		},
		muscleCapacity: DefaultMuscleCapacity,
		windowHours:    DefaultWindowDays * 24,
		log:            logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// session is one scored load in the window.
type session struct {
	label    string
	hoursAgo float64
	loads    map[model.SystemTag]float64
}

func (c *Calculator) inWindow(now, t float64) (float64, bool) {
	ago := now - t
	return ago, ago >= 0 && ago <= c.windowHours
}

// sessions scores the workouts and impulses inside the window. Workout
// loads are split per exercise so the audit can name them.
func (c *Calculator) sessions(in Input) ([]session, []string) {
	var out []session
	var faults []string
	for _, w := range in.Workouts {
		ago, ok := c.inWindow(in.NowHours, w.TimestampHours)
		if !ok {
			continue
		}
		res := stress.Score(w.Sets, in.ExerciseDB)
		faults = append(faults, res.Faults...)
		if res.TotalStress <= 0 {
			continue
		}
		names := make([]string, 0, len(res.ByExercise))
		for name := range res.ByExercise {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			share := res.ByExercise[name]
			out = append(out, session{
				label:    name,
				hoursAgo: ago,
				loads: map[model.SystemTag]float64{
					model.SystemMuscular: share,
					model.SystemCNS:      share * res.CNSDrain,
					model.SystemSpinal:   share * res.SpinalDrain,
				},
			})
		}
	}
	for _, imp := range in.Impulses {
		ago, ok := c.inWindow(in.NowHours, imp.TimestampHours)
		if !ok {
			continue
		}
		out = append(out, session{
			label:    "Sesión registrada",
			hoursAgo: ago,
			loads: map[model.SystemTag]float64{
				model.SystemMuscular: imp.Impulse,
				model.SystemCNS:      imp.CNSImpulse,
				model.SystemSpinal:   imp.SpinalImpulse,
			},
		})
	}
	return out, faults
}

// Calculate computes the three global batteries.
func (c *Calculator) Calculate(ctx context.Context, in Input) Result {
	res := Result{AuditLogs: make(map[model.SystemTag][]AuditEntry, len(model.BatterySystems))}
	sessions, faults := c.sessions(in)
	for _, f := range faults {
		c.fault(ctx, &res, "", f)
	}

	for _, sys := range model.BatterySystems {
		entries, err := c.system(sys, in, sessions)
		if err != nil {
			c.fault(ctx, &res, sys, err.Error())
			res.set(sys, 100)
			res.AuditLogs[sys] = []AuditEntry{{Icon: "⚠️", Label: "Cálculo no disponible", Val: 0, Type: TypeFault}}
			continue
		}
		value := 100.0
		for _, e := range entries {
			value += e.Val
		}
		if d := in.Calibration.Delta(sys); d != 0 {
			entries = append(entries, AuditEntry{Icon: "🎚️", Label: "Calibración personal", Val: d, Type: TypeCalibration})
		}
		res.set(sys, calibration.Apply(value, sys, in.Calibration))
		res.AuditLogs[sys] = entries
	}

	res.Readiness = Readiness(math.Min(res.CNS, math.Min(res.Muscular, res.Spinal)))
	res.Verdict = verdict(res)
	return res
}

// system returns the audit entries of one battery. A panic or a non-finite
// entry is turned into an error.
func (c *Calculator) system(sys model.SystemTag, in Input, sessions []session) (entries []AuditEntry, err error) {
	defer func() {
		if r := recover(); r != nil {
			entries, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	halfLife, capacity := c.halfLives[sys], c.capacities[sys]
	workoutPenalty := 0.0
	for _, s := range sessions {
		load := s.loads[sys]
		if load <= 0 {
			continue
		}
		p := load * math.Exp2(-s.hoursAgo/halfLife) / capacity * 100
		workoutPenalty += p
		entries = append(entries, AuditEntry{Icon: "🏋️", Label: s.label, Val: -p, Type: TypeWorkout})
	}
	entries = append(entries, c.sleep(sys, in)...)
	entries = append(entries, c.wellbeing(sys, in)...)
	entries = append(entries, c.nutrition(sys, in, workoutPenalty)...)
	entries = append(entries, c.rest(sys, in)...)

	for _, e := range entries {
		if math.IsNaN(e.Val) || math.IsInf(e.Val, 0) {
			return nil, fmt.Errorf("non-finite contribution %q", e.Label)
		}
	}
	return entries, nil
}

func (c *Calculator) sleep(sys model.SystemTag, in Input) []AuditEntry {
	logs := make([]SleepLog, 0, len(in.Sleep))
	for _, l := range in.Sleep {
		if l.TimestampHours <= in.NowHours {
			logs = append(logs, l)
		}
	}
	if len(logs) == 0 {
		return nil
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].TimestampHours > logs[j].TimestampHours })
	var avg, wsum float64
	for i := 0; i < len(logs) && i < len(sleepWeights); i++ {
		avg += logs[i].Hours * sleepWeights[i]
		wsum += sleepWeights[i]
	}
	avg /= wsum

	switch sys {
	case model.SystemCNS:
		var v float64
		switch {
		case avg < 4.5:
			v = -40
		case avg < 5.5:
			v = -25
		case avg < 6.5:
			v = -15
		case avg >= 8.5:
			v = 15
		case avg > 7.5:
			v = 5
		}
		if v != 0 {
			return []AuditEntry{{Icon: "😴", Label: fmt.Sprintf("Sueño %.1f h", avg), Val: v, Type: TypeSleep}}
		}
	case model.SystemMuscular:
		target := in.Settings.SleepTargetHours
		if target <= 0 {
			target = DefaultSleepTarget
		}
		if avg >= target {
			return []AuditEntry{{Icon: "😴", Label: "Sueño suficiente", Val: 5, Type: TypeSleep}}
		}
	}
	return nil
}

func latestWithin[T any](logs []T, now float64, at func(T) float64) (T, bool) {
	var best T
	found := false
	for _, l := range logs {
		t := at(l)
		if t > now || now-t > recentHours {
			continue
		}
		if !found || t >= at(best) {
			best, found = l, true
		}
	}
	return best, found
}

func (c *Calculator) wellbeing(sys model.SystemTag, in Input) []AuditEntry {
	w, ok := latestWithin(in.Wellbeing, in.NowHours, func(l WellbeingLog) float64 { return l.TimestampHours })
	if !ok {
		return nil
	}
	var out []AuditEntry
	add := func(label string, v float64) {
		out = append(out, AuditEntry{Icon: "🧠", Label: label, Val: v, Type: TypePenalty})
	}
	switch sys {
	case model.SystemCNS:
		switch {
		case w.StressLevel >= 4:
			add("Estrés alto", -15)
		case w.StressLevel == 3:
			add("Estrés moderado", -5)
		}
		switch w.WorkLoad {
		case WorkLoadHigh:
			add("Carga laboral alta", -10)
		case WorkLoadModerate:
			add("Carga laboral moderada", -5)
		}
		if w.Mood >= 1 && w.Mood <= 2 {
			add("Ánimo bajo", -5)
		}
	case model.SystemMuscular:
		if w.Doms >= 4 {
			add("Agujetas intensas", -10)
		}
	}
	return out
}

func (c *Calculator) nutrition(sys model.SystemTag, in Input, workoutPenalty float64) []AuditEntry {
	if sys != model.SystemMuscular {
		return nil
	}
	n, ok := latestWithin(in.Nutrition, in.NowHours, func(l NutritionLog) float64 { return l.TimestampHours })
	if !ok {
		return nil
	}
	switch {
	case n.Status < 0:
		return []AuditEntry{{Icon: "🍽️", Label: "Déficit calórico", Val: -10, Type: TypePenalty}}
	case n.Status > 0 && workoutPenalty > surplusPenalty:
		return []AuditEntry{{Icon: "🍽️", Label: "Superávit en bloque exigente", Val: 8, Type: TypeBonus}}
	}
	return nil
}

func (c *Calculator) rest(sys model.SystemTag, in Input) []AuditEntry {
	if sys == model.SystemCNS {
		return nil
	}
	last, found := math.Inf(-1), false
	for _, w := range in.Workouts {
		if w.TimestampHours <= in.NowHours && w.TimestampHours > last {
			last, found = w.TimestampHours, true
		}
	}
	for _, imp := range in.Impulses {
		if imp.TimestampHours <= in.NowHours && imp.TimestampHours > last {
			last, found = imp.TimestampHours, true
		}
	}
	if !found || in.NowHours-last < restHours {
		return nil
	}
	return []AuditEntry{{Icon: "🛌", Label: "Descanso de 48 h", Val: 5, Type: TypeBonus}}
}

func (c *Calculator) fault(ctx context.Context, res *Result, sys model.SystemTag, msg string) {
	res.Faults = append(res.Faults, msg)
	metrics.RecordComputeFault("battery")
	c.log.Warn(ctx, "battery computation fault",
		logger.String("component", "battery"),
		logger.String("system", string(sys)),
		logger.String("error", msg))
}

// Readiness maps the lowest battery to a traffic light.
func Readiness(lowest float64) string {
	switch {
	case lowest >= greenAt:
		return Green
	case lowest >= yellowAt:
		return Yellow
	default:
		return Red
	}
}

// verdict names the weakest system and its largest single penalty.
func verdict(r Result) string {
	weakest := model.SystemCNS
	for _, sys := range model.BatterySystems {
		if r.Value(sys) < r.Value(weakest) {
			weakest = sys
		}
	}
	var driver *AuditEntry
	for i, e := range r.AuditLogs[weakest] {
		if e.Val < 0 && (driver == nil || e.Val < driver.Val) {
			driver = &r.AuditLogs[weakest][i]
		}
	}
	value := r.Value(weakest)
	switch r.Readiness {
	case Green:
		return "Sistemas recuperados. Listo para entrenar con intensidad."
	case Yellow:
		if driver != nil {
			return fmt.Sprintf("%s al %.0f%%. Entrena con moderación; mayor impacto: %s.", weakest.Label(), value, driver.Label)
		}
		return fmt.Sprintf("%s al %.0f%%. Entrena con moderación.", weakest.Label(), value)
	default:
		if driver != nil {
			return fmt.Sprintf("%s al %.0f%%. Prioriza el descanso; mayor impacto: %s.", weakest.Label(), value, driver.Label)
		}
		return fmt.Sprintf("%s al %.0f%%. Prioriza el descanso.", weakest.Label(), value)
	}
}

// PerMuscle computes a battery for every muscle. Muscles without recent
// stress report 100.
func (c *Calculator) PerMuscle(ctx context.Context, in MuscleInput) map[model.MuscleID]float64 {
	out := make(map[model.MuscleID]float64)
	for _, id := range muscle.All() {
		out[id] = 100
	}
	drain := make(map[model.MuscleID]float64)
	for _, w := range in.Workouts {
		ago, ok := c.inWindow(in.NowHours, w.TimestampHours)
		if !ok {
			continue
		}
		res := stress.Score(w.Sets, in.ExerciseDB)
		for m, s := range res.MuscleStress {
			hours, ok := in.RecoveryHours[m]
			if !ok || hours <= 0 {
				hours = muscle.PopulationHours(m)
			}
			drain[m] += s * math.Exp(-recoveryLn*ago/hours) / c.muscleCapacity * 100
		}
	}
	for m, d := range drain {
		v := 100 - d
		if math.IsNaN(v) || math.IsInf(v, 0) {
			metrics.RecordComputeFault("muscle_battery")
			c.log.Warn(ctx, "muscle battery fault",
				logger.String("component", "muscle_battery"),
				logger.String("muscle", string(m)))
			v = 100
		}
		out[m] = model.ClampBattery(v)
	}
	return out
}
