// Package scheduler runs the periodic housekeeping jobs of a serving engine
// on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/auge/internal/adapters/repository"
	"github.com/okian/auge/internal/domain/model"
	"github.com/okian/auge/pkg/logger"
	"github.com/okian/auge/pkg/metrics"
	"github.com/robfig/cron"
)

// Job names used in logs and metrics.
const (
	JobMaintenance = "maintenance"
	JobSnapshotLog = "snapshot_log"
)

const (
	defaultMaintenanceSchedule = "@daily"
	defaultSnapshotLogSchedule = "@every 1h"
	jobTimeout                 = time.Minute
)

// Dependencies is the slice of the engine the jobs need.
type Dependencies interface {
	Store() repository.Store
	GetCachedAdaptiveData(ctx context.Context) (model.AdaptiveCache, error)
}

// Scheduler owns a cron runner and the jobs registered on it.
type Scheduler struct {
	mu      sync.Mutex
	deps    Dependencies
	cron    *cron.Cron
	cancel  context.CancelFunc
	started bool

	maintenance string
	snapshotLog string

	logger logger.Logger
}

// New creates a scheduler over deps with the default schedules.
func New(deps Dependencies, opts ...Option) *Scheduler {
	s := &Scheduler{
		deps:        deps,
		maintenance: defaultMaintenanceSchedule,
		snapshotLog: defaultSnapshotLogSchedule,
		logger:      logger.GetOrNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the enabled jobs and starts the cron runner. Jobs run
// with a context derived from ctx and stop being scheduled once ctx is done
// or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}

	c := cron.New()
	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{JobMaintenance, s.maintenance, s.RunMaintenance},
		{JobSnapshotLog, s.snapshotLog, s.RunSnapshotLog},
	}

	jobCtx, cancel := context.WithCancel(ctx)
	for _, j := range jobs {
		if j.spec == "" {
			s.logger.Info(ctx, "scheduled job disabled", logger.String("job", j.name))
			continue
		}
		name, run := j.name, j.run
		if err := c.AddFunc(j.spec, func() { s.execute(jobCtx, name, run) }); err != nil {
			cancel()
			return fmt.Errorf("%w: %s %q: %w", ErrInvalidSchedule, name, j.spec, err)
		}
		s.logger.Info(ctx, "scheduled job registered",
			logger.String("job", name),
			logger.String("schedule", j.spec),
		)
	}

	c.Start()
	s.cron = c
	s.cancel = cancel
	s.started = true

	go func() {
		<-jobCtx.Done()
		c.Stop()
	}()
	return nil
}

// Stop halts the cron runner. Jobs already running finish on their own.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.cancel()
	s.started = false
}

func (s *Scheduler) execute(ctx context.Context, name string, run func(context.Context) error) {
	if ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	err := run(ctx)
	metrics.RecordScheduledRun(name, err == nil)
	if err != nil {
		s.logger.Error(ctx, "scheduled job failed",
			logger.String("job", name),
			logger.Duration("took", time.Since(start)),
			logger.Error(err),
		)
		return
	}
	s.logger.Debug(ctx, "scheduled job finished",
		logger.String("job", name),
		logger.Duration("took", time.Since(start)),
	)
}

// RunMaintenance runs store housekeeping once.
func (s *Scheduler) RunMaintenance(ctx context.Context) error {
	st := s.deps.Store()
	if st == nil {
		return ErrNoStore
	}
	if err := st.Maintain(ctx); err != nil {
		return fmt.Errorf("maintain store: %w", err)
	}
	return nil
}

// RunSnapshotLog logs a summary of the cached snapshot and refreshes the
// process gauges.
func (s *Scheduler) RunSnapshotLog(ctx context.Context) error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	snap, err := s.deps.GetCachedAdaptiveData(ctx)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	s.logger.Info(ctx, "adaptive snapshot",
		logger.Any("version", snap.Version),
		logger.Int("totalObservations", int(snap.TotalObservations)),
		logger.String("confidence", snap.ConfidenceLabel),
		logger.Int("personalizedMuscles", len(snap.PersonalizedRecoveryHours)),
		logger.Int("fatiguePoints", snap.GPCurve.DataPoints),
		logger.Bool("banister", snap.Banister != nil),
		logger.Float64("cnsDelta", snap.Calibration.CNSDelta),
		logger.Float64("muscularDelta", snap.Calibration.MuscularDelta),
		logger.Float64("spinalDelta", snap.Calibration.SpinalDelta),
	)
	return nil
}
