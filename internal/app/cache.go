package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/auge/internal/adapters/mq/queue"
	"github.com/okian/auge/internal/adapters/repository"
	"github.com/okian/auge/internal/domain/accuracy"
	"github.com/okian/auge/internal/domain/banister"
	"github.com/okian/auge/internal/domain/model"
	"github.com/okian/auge/internal/domain/muscle"
	"github.com/okian/auge/internal/domain/recovery"
	"github.com/okian/auge/pkg/logger"
	"github.com/okian/auge/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

const rebuildKey = "adaptive-cache"

// GetCachedAdaptiveData returns the last built snapshot without blocking.
// When the store changed since, a rebuild is scheduled on the compute pool
// and the next read sees its result. The returned maps are shared and must
// not be modified.
func (e *Engine) GetCachedAdaptiveData(ctx context.Context) (model.AdaptiveCache, error) {
	if err := e.ready(); err != nil {
		return model.AdaptiveCache{}, err
	}
	snap := e.snapshot.Load()
	if snap.Version != e.version.Load() {
		e.scheduleRebuild(ctx)
	}
	return *snap, nil
}

// Refresh rebuilds the snapshot and waits for it. Concurrent callers share
// one rebuild.
func (e *Engine) Refresh(ctx context.Context) (model.AdaptiveCache, error) {
	if err := e.ready(); err != nil {
		return model.AdaptiveCache{}, err
	}
	ch := e.group.DoChan(rebuildKey, func() (interface{}, error) {
		return e.rebuild(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Shared {
			metrics.RecordCacheRebuildShared()
		}
		if res.Err != nil {
			return model.AdaptiveCache{}, res.Err
		}
		return res.Val.(model.AdaptiveCache), nil
	case <-ctx.Done():
		return model.AdaptiveCache{}, ctx.Err()
	}
}

// scheduleRebuild queues at most one background rebuild.
func (e *Engine) scheduleRebuild(ctx context.Context) {
	if !e.rebuilding.CompareAndSwap(false, true) {
		return
	}
	j := queue.Job{
		Name: "cache-rebuild",
		Run: func(ctx context.Context) {
			defer e.rebuilding.Store(false)
			if _, err := e.Refresh(ctx); err != nil && !errors.Is(err, ErrStopped) {
				e.logger.Error(ctx, "background rebuild failed", logger.Error(err))
			}
		},
		Cancel: func(error) { e.rebuilding.Store(false) },
	}
	if err := e.pool.Submit(ctx, j); err != nil {
		e.logger.Debug(ctx, "rebuild not queued, running detached", logger.Error(err))
		go j.Run(context.WithoutCancel(ctx))
	}
}

func (e *Engine) rebuild(ctx context.Context) (model.AdaptiveCache, error) {
	start := time.Now()
	version := e.version.Load()
	cache, err := e.build(ctx, version)
	if err != nil {
		return model.AdaptiveCache{}, err
	}
	if cur := e.snapshot.Load(); cur == nil || cur.Version <= version {
		e.snapshot.Store(&cache)
	}
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	metrics.RecordCacheRebuild(elapsed)
	metrics.UpdateCacheStale(e.version.Load() != version)
	metrics.UpdateTotalObservations(int(cache.TotalObservations))
	e.logger.Debug(ctx, "adaptive cache rebuilt",
		logger.Int("version", int(version)),
		logger.Float64("duration_ms", elapsed),
	)
	return cache, nil
}

// records is everything one build reads from the store.
type records struct {
	counts      repository.Counts
	fatigue     []model.FatigueDataPoint
	recovery    []model.RecoveryObservation
	predictions []model.PredictionRecord
	outcomes    []model.OutcomeRecord
	calibration model.CalibrationDelta
}

func (e *Engine) load(ctx context.Context) (records, error) {
	var r records
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		r.counts, err = e.store.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		r.fatigue, err = e.store.FatiguePoints(gctx, repository.Filter{})
		return err
	})
	g.Go(func() (err error) {
		r.recovery, err = e.store.RecoveryObservations(gctx, repository.Filter{})
		return err
	})
	g.Go(func() (err error) {
		r.predictions, err = e.store.Predictions(gctx, repository.Filter{})
		return err
	})
	g.Go(func() (err error) {
		r.outcomes, err = e.store.Outcomes(gctx, repository.Filter{})
		return err
	})
	g.Go(func() (err error) {
		r.calibration, err = e.store.Calibration(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return records{}, fmt.Errorf("load records: %w", err)
	}
	return r, nil
}

// build computes the snapshot from the stored records and the calibration.
// The sub-models run concurrently; a sub-model that faults degrades to its
// default and the rest of the snapshot is still served.
func (e *Engine) build(ctx context.Context, version uint64) (model.AdaptiveCache, error) {
	r, err := e.load(ctx)
	if err != nil {
		return model.AdaptiveCache{}, err
	}

	total := uint32(r.counts.Total())
	cache := model.AdaptiveCache{
		Version:           version,
		TotalObservations: total,
		ConfidenceLabel:   e.settings.Confidence.Label(total),
		Calibration:       r.calibration,
	}

	var g errgroup.Group
	g.Go(func() error {
		cache.PersonalizedRecoveryHours, cache.MuscleObservations = e.personalize(ctx, r.recovery)
		return nil
	})
	g.Go(func() error {
		cache.GPCurve = e.curve(ctx, r.fatigue)
		return nil
	})
	g.Go(func() error {
		res, err := e.fold(ctx, r)
		cache.Banister = res
		return err
	})
	g.Go(func() error {
		cache.SelfImprovement = e.selfImprovement(ctx, r)
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.AdaptiveCache{}, err
	}
	return cache, nil
}

// guard runs fn and turns a panic into a logged fault. It reports whether
// fn completed.
func (e *Engine) guard(ctx context.Context, component string, fn func()) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			e.fault(ctx, component, fmt.Sprint(rec))
			ok = false
		}
	}()
	fn()
	return true
}

func (e *Engine) personalize(ctx context.Context, obs []model.RecoveryObservation) (map[model.MuscleID]float64, map[model.MuscleID]int) {
	var res recovery.Result
	if e.guard(ctx, "recovery", func() { res = e.recovery.Fit(obs) }) {
		if res.Faults > 0 {
			e.fault(ctx, "recovery", fmt.Sprintf("%d observations carried no signal", res.Faults))
		}
		return res.Hours, res.Observations
	}
	hours := make(map[model.MuscleID]float64)
	for _, id := range muscle.All() {
		hours[id] = muscle.PopulationHours(id)
	}
	return hours, map[model.MuscleID]int{}
}

func (e *Engine) curve(ctx context.Context, points []model.FatigueDataPoint) model.GPCurve {
	var c model.GPCurve
	if e.guard(ctx, "fatigue_curve", func() { c = recovery.Curve(points) }) {
		return c
	}
	return recovery.Curve(nil)
}

// fold extends the Banister model with impulses appended since the last
// build, then fits it against battery outcomes.
func (e *Engine) fold(ctx context.Context, r records) (*model.BanisterResult, error) {
	e.foldMu.Lock()
	defer e.foldMu.Unlock()

	imps, err := e.store.Impulses(ctx, repository.Filter{AfterSeq: e.banisterSeq})
	if err != nil {
		return nil, fmt.Errorf("load impulses: %w", err)
	}
	var res *model.BanisterResult
	ok := e.guard(ctx, "banister", func() {
		for _, imp := range imps {
			e.banister.Add(imp)
			e.banisterSeq = imp.Seq
		}
		res = e.banister.Result(e.banister.Fit(performance(r.predictions, r.outcomes)))
	})
	if !ok {
		// Refold from scratch on the next build.
		e.banister = banister.NewModel(banister.WithMinImpulses(e.settings.MinBanisterImpulses))
		e.banisterSeq = 0
		return nil, nil
	}
	return res, nil
}

// performance turns the latest outcome of every battery prediction into a
// Banister observation.
func performance(predictions []model.PredictionRecord, outcomes []model.OutcomeRecord) map[model.SystemTag][]banister.Observation {
	systems := make(map[string]model.SystemTag, len(predictions))
	for _, p := range predictions {
		if p.System.HasBattery() {
			systems[p.PredictionID] = p.System
		}
	}
	last := make(map[string]int, len(outcomes))
	for i, o := range outcomes {
		last[o.PredictionID] = i
	}
	out := make(map[model.SystemTag][]banister.Observation)
	for i, o := range outcomes {
		sys, ok := systems[o.PredictionID]
		if !ok || last[o.PredictionID] != i {
			continue
		}
		out[sys] = append(out[sys], banister.Observation{
			Hours:       model.HoursSinceEpoch(o.Timestamp),
			Performance: o.ActualValue,
		})
	}
	return out
}

func (e *Engine) selfImprovement(ctx context.Context, r records) model.SelfImprovement {
	var si model.SelfImprovement
	if e.guard(ctx, "accuracy", func() {
		si = e.tracker.Compute(accuracy.Match(r.predictions, r.outcomes, r.recovery), r.calibration)
	}) {
		return si
	}
	return model.SelfImprovement{
		ImprovementTrend: model.TrendStable,
		AccuracyBySystem: []model.SystemAccuracy{},
	}
}
