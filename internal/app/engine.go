// Package app wires the observation store, the models and the compute pool
// into the Engine consumed by the HTTP API and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/auge/internal/adapters/mq/queue"
	"github.com/okian/auge/internal/adapters/mq/worker"
	"github.com/okian/auge/internal/adapters/repository"
	"github.com/okian/auge/internal/domain/accuracy"
	"github.com/okian/auge/internal/domain/banister"
	"github.com/okian/auge/internal/domain/battery"
	"github.com/okian/auge/internal/domain/dedupe"
	"github.com/okian/auge/internal/domain/model"
	"github.com/okian/auge/internal/domain/recovery"
	"github.com/okian/auge/internal/domain/stress"
	"github.com/okian/auge/pkg/logger"
	"github.com/okian/auge/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

const (
	stateNew int32 = iota
	stateRunning
	stateStopped
)

// Engine owns the observation store and the calibration overlay and serves
// the memoized adaptive snapshot. Create it once per athlete with New, then
// Start it.
type Engine struct {
	mu sync.Mutex

	// Configuration
	settings  Settings
	dbPath    string
	exercises *stress.ExerciseDB

	// Storage
	store     repository.Store
	ownsStore bool
	deduper   dedupe.Deduper

	// Models
	batteries *battery.Calculator
	recovery  *recovery.Model
	tracker   *accuracy.Tracker

	foldMu      sync.Mutex
	banister    *banister.Model
	banisterSeq uint64

	// Compute offload
	queue  *queue.InMemoryQueue
	pool   *worker.Pool
	cancel context.CancelFunc

	// Snapshot
	group      singleflight.Group
	snapshot   atomic.Pointer[model.AdaptiveCache]
	version    atomic.Uint64
	rebuilding atomic.Bool

	calMu sync.Mutex
	state atomic.Int32

	logger logger.Logger
	now    func() time.Time
}

// New constructs an engine with default settings and the built-in
// exercise catalog.
func New(opts ...Option) *Engine {
	e := &Engine{
		settings:  DefaultSettings(),
		exercises: stress.DefaultCatalog(),
		ownsStore: true,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.GetOrNop().Named("engine")
	}

	s := e.settings
	e.batteries = battery.New(append(s.batteryOptions(), battery.WithLogger(e.logger))...)
	e.recovery = recovery.NewModel(
		recovery.WithMinObservations(s.MinMuscleObservations),
		recovery.WithMaxStepHours(s.MaxRecoveryStepHours),
	)
	e.tracker = accuracy.NewTracker(
		accuracy.WithMinPairs(s.MinAccuracyPairs),
		accuracy.WithRetention(time.Duration(s.RetentionDays)*24*time.Hour),
	)
	e.banister = banister.NewModel(banister.WithMinImpulses(s.MinBanisterImpulses))
	return e
}

// Start opens the store, seeds the duplicate filter, starts the compute
// pool and builds the first snapshot.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state.Load() {
	case stateRunning:
		return nil
	case stateStopped:
		return ErrStopped
	}

	e.logger.Info(ctx, "starting engine...")

	if e.store == nil {
		if e.dbPath != "" {
			s, err := repository.OpenSQLite(e.dbPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			e.store = s
			e.logger.Info(ctx, "using sqlite store", logger.String("path", e.dbPath))
		} else {
			e.store = repository.NewMemoryStore()
			e.logger.Info(ctx, "using memory store")
		}
	}

	ids, err := e.store.IDs(ctx, model.KindPrediction)
	if err != nil {
		e.releaseStore(ctx)
		return fmt.Errorf("load prediction ids: %w", err)
	}
	e.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(e.settings.DedupeSize))
	e.deduper.Seed(ctx, ids...)

	e.queue = queue.NewInMemoryQueue(queue.WithCapacity(e.settings.ComputeQueueSize))
	e.pool = worker.NewPool(e.settings.ComputeWorkers, e.queue, worker.WithLogger(e.logger.Named("worker")))
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.cancel = cancel
	e.pool.Start(runCtx)
	e.state.Store(stateRunning)

	if _, err := e.Refresh(ctx); err != nil {
		e.state.Store(stateNew)
		_ = e.pool.Shutdown(ctx)
		cancel()
		e.releaseStore(ctx)
		return fmt.Errorf("initial rebuild: %w", err)
	}

	e.logger.Info(ctx, "engine started",
		logger.Int("workers", e.pool.Size()),
		logger.Int("queueSize", e.settings.ComputeQueueSize),
		logger.Int("dedupeSize", e.settings.DedupeSize),
		logger.Int("predictions", len(ids)),
	)
	return nil
}

// Stop drains the compute pool and closes the store if the engine opened it.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.CompareAndSwap(stateRunning, stateStopped) {
		return
	}
	ctx := context.Background()
	e.logger.Info(ctx, "stopping engine...")

	if err := e.pool.Shutdown(ctx); err != nil {
		e.logger.Error(ctx, "worker pool shutdown failed", logger.Error(err))
	}
	e.cancel()
	e.closeStore(ctx)

	e.logger.Info(ctx, "engine stopped")
}

// closeStore closes an owned store. The field keeps pointing at it: callers
// that passed ready() before Stop get ErrClosed from the store.
func (e *Engine) closeStore(ctx context.Context) {
	if !e.ownsStore || e.store == nil {
		return
	}
	if err := e.store.Close(); err != nil {
		e.logger.Error(ctx, "closing store failed", logger.Error(err))
	}
}

// releaseStore undoes the store setup of a failed Start so a later Start
// opens it again. No caller can reach the store while the engine is new.
func (e *Engine) releaseStore(ctx context.Context) {
	e.closeStore(ctx)
	if e.ownsStore {
		e.store = nil
	}
}

func (e *Engine) ready() error {
	switch e.state.Load() {
	case stateRunning:
		return nil
	case stateStopped:
		return ErrStopped
	}
	return ErrNotStarted
}

// invalidate marks the snapshot stale.
func (e *Engine) invalidate() {
	e.version.Add(1)
	metrics.UpdateCacheStale(true)
}

// appended records the result of a store write.
func (e *Engine) appended(ctx context.Context, kind model.Kind, err error) error {
	if err != nil {
		metrics.RecordObservationRejected(string(kind))
		e.logger.Debug(ctx, "record rejected",
			logger.String("kind", string(kind)),
			logger.Error(err),
		)
		return err
	}
	metrics.RecordObservationAppended(string(kind))
	e.invalidate()
	return nil
}

// QueueTrainingImpulse appends a training impulse.
func (e *Engine) QueueTrainingImpulse(ctx context.Context, r model.TrainingImpulse) (model.TrainingImpulse, error) {
	if err := e.ready(); err != nil {
		return r, err
	}
	stored, err := e.store.AppendImpulse(ctx, r)
	return stored, e.appended(ctx, model.KindImpulse, err)
}

// QueueWorkout scores a completed session and appends its impulse. A
// session without valid sets scores zero and appends nothing.
func (e *Engine) QueueWorkout(ctx context.Context, w battery.Workout) (stress.Result, model.TrainingImpulse, error) {
	if err := e.ready(); err != nil {
		return stress.Result{}, model.TrainingImpulse{}, err
	}
	res := stress.Score(w.Sets, e.exercises)
	for _, f := range res.Faults {
		e.fault(ctx, "stress", f)
	}
	if res.TotalStress <= 0 {
		return res, model.TrainingImpulse{}, nil
	}
	imp, err := e.QueueTrainingImpulse(ctx, res.ToImpulse(w.TimestampHours))
	return res, imp, err
}

// QueueFatigueDataPoint appends a fatigue data point.
func (e *Engine) QueueFatigueDataPoint(ctx context.Context, r model.FatigueDataPoint) (model.FatigueDataPoint, error) {
	if err := e.ready(); err != nil {
		return r, err
	}
	stored, err := e.store.AppendFatigue(ctx, r)
	return stored, e.appended(ctx, model.KindFatigue, err)
}

// QueueRecoveryObservation appends a per-muscle recovery observation.
func (e *Engine) QueueRecoveryObservation(ctx context.Context, r model.RecoveryObservation) (model.RecoveryObservation, error) {
	if err := e.ready(); err != nil {
		return r, err
	}
	stored, err := e.store.AppendRecovery(ctx, r)
	return stored, e.appended(ctx, model.KindRecovery, err)
}

// QueuePrediction appends a prediction. A reused prediction id fails with
// repository.ErrDuplicatePrediction.
func (e *Engine) QueuePrediction(ctx context.Context, r model.PredictionRecord) (model.PredictionRecord, error) {
	if err := e.ready(); err != nil {
		return r, err
	}
	if err := r.Validate(); err != nil {
		return r, e.appended(ctx, model.KindPrediction, err)
	}
	if e.deduper.SeenAndRecord(ctx, r.PredictionID) {
		err := fmt.Errorf("%w: %s", repository.ErrDuplicatePrediction, r.PredictionID)
		return r, e.appended(ctx, model.KindPrediction, err)
	}
	stored, err := e.store.AppendPrediction(ctx, r)
	if err != nil && !errors.Is(err, repository.ErrDuplicatePrediction) {
		e.deduper.Unrecord(ctx, r.PredictionID)
	}
	return stored, e.appended(ctx, model.KindPrediction, err)
}

// QueueOutcome appends an outcome. Outcomes for unknown predictions are kept
// and reported unmatched; a second outcome for the same prediction replaces
// the first and is logged.
func (e *Engine) QueueOutcome(ctx context.Context, r model.OutcomeRecord) (model.OutcomeRecord, model.OutcomeStatus, error) {
	if err := e.ready(); err != nil {
		return r, model.OutcomeStatus{}, err
	}
	stored, status, err := e.store.AppendOutcome(ctx, r)
	if err := e.appended(ctx, model.KindOutcome, err); err != nil {
		return stored, status, err
	}
	if !status.Matched {
		metrics.RecordOutcomeUnmatched()
		e.logger.Info(ctx, "outcome has no prediction yet",
			logger.String("prediction_id", r.PredictionID),
		)
	}
	if status.Duplicate {
		metrics.RecordOutcomeDuplicate()
		e.logger.Warn(ctx, "duplicate outcome, last write wins",
			logger.String("prediction_id", r.PredictionID),
			logger.String("outcome_id", stored.ID),
		)
	}
	return stored, status, nil
}

// GetConfidenceLabel maps an observation count to Bajo, Medio or Alto.
func (e *Engine) GetConfidenceLabel(totalObservations uint32) string {
	return e.settings.Confidence.Label(totalObservations)
}

// Merge unions src into the engine store.
func (e *Engine) Merge(ctx context.Context, src repository.Store) (repository.MergeReport, error) {
	if err := e.ready(); err != nil {
		return repository.MergeReport{}, err
	}
	rep, err := repository.Merge(ctx, e.store, src)
	if rep.Merged.Total() > 0 {
		if ids, idErr := e.store.IDs(ctx, model.KindPrediction); idErr == nil {
			e.deduper.Seed(ctx, ids...)
		}
		for kind, n := range rep.Merged {
			for i := 0; i < n; i++ {
				metrics.RecordObservationAppended(string(kind))
			}
		}
		e.invalidate()
	}
	e.logger.Info(ctx, "merge finished",
		logger.Int("merged", rep.Merged.Total()),
		logger.Int("skipped", rep.Skipped.Total()),
	)
	return rep, err
}

// Store returns the engine store. It is nil unless the engine is running.
func (e *Engine) Store() repository.Store {
	if e.ready() != nil {
		return nil
	}
	return e.store
}

// Settings returns the active thresholds.
func (e *Engine) Settings() Settings {
	return e.settings
}

// GetStats returns engine statistics for monitoring.
func (e *Engine) GetStats(ctx context.Context) map[string]interface{} {
	stats := map[string]interface{}{
		"started":          e.state.Load() == stateRunning,
		"workerCount":      e.settings.ComputeWorkers,
		"computeQueueSize": e.settings.ComputeQueueSize,
		"dedupeSize":       e.settings.DedupeSize,
		"version":          e.version.Load(),
	}
	if e.ready() != nil {
		return stats
	}

	queueLen := e.queue.Len(ctx)
	stats["queueLength"] = queueLen
	stats["knownPredictions"] = e.deduper.Size()
	metrics.UpdateQueueSize(queueLen)

	if snap := e.snapshot.Load(); snap != nil {
		stats["snapshotVersion"] = snap.Version
		stats["stale"] = snap.Version != e.version.Load()
		stats["confidence"] = snap.ConfidenceLabel
	}
	if counts, err := e.store.Count(ctx); err == nil {
		stats["totalObservations"] = counts.Total()
		stats["observations"] = counts
		metrics.UpdateTotalObservations(counts.Total())
	}
	return stats
}

// fault logs a computation fault that was degraded to a safe default.
func (e *Engine) fault(ctx context.Context, component, msg string) {
	metrics.RecordComputeFault(component)
	e.logger.Warn(ctx, "computation fault",
		logger.String("component", component),
		logger.String("error", msg),
	)
}
