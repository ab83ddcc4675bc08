package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/auge/internal/adapters/repository"
	"github.com/okian/auge/internal/adapters/scheduler"
	"github.com/okian/auge/internal/app"
	"github.com/okian/auge/internal/domain/model"
	"github.com/okian/auge/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type countingStore struct {
	repository.Store
	calls atomic.Int32
	err   error
}

func (s *countingStore) Maintain(ctx context.Context) error {
	s.calls.Add(1)
	return s.err
}

type fakeDeps struct {
	store repository.Store
	snap  model.AdaptiveCache
	err   error
}

func (f *fakeDeps) Store() repository.Store { return f.store }

func (f *fakeDeps) GetCachedAdaptiveData(context.Context) (model.AdaptiveCache, error) {
	return f.snap, f.err
}

func TestScheduler_Jobs(t *testing.T) {
	convey.Convey("Given a scheduler over a running engine", t, func() {
		ctx := context.Background()
		e := app.New(app.WithLogger(logger.Nop()))
		convey.So(e.Start(ctx), convey.ShouldBeNil)
		defer e.Stop()
		s := scheduler.New(e, scheduler.WithLogger(logger.Nop()))

		convey.Convey("Then maintenance succeeds on the memory store", func() {
			convey.So(s.RunMaintenance(ctx), convey.ShouldBeNil)
		})

		convey.Convey("Then the snapshot summary is logged", func() {
			convey.So(s.RunSnapshotLog(ctx), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a scheduler over a stopped engine", t, func() {
		ctx := context.Background()
		e := app.New(app.WithLogger(logger.Nop()))
		convey.So(e.Start(ctx), convey.ShouldBeNil)
		e.Stop()
		s := scheduler.New(e, scheduler.WithLogger(logger.Nop()))

		convey.Convey("Then both jobs fail", func() {
			convey.So(errors.Is(s.RunMaintenance(ctx), scheduler.ErrNoStore), convey.ShouldBeTrue)
			convey.So(errors.Is(s.RunSnapshotLog(ctx), app.ErrStopped), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a store whose housekeeping fails", t, func() {
		boom := errors.New("disk full")
		store := &countingStore{Store: repository.NewMemoryStore(), err: boom}
		s := scheduler.New(&fakeDeps{store: store}, scheduler.WithLogger(logger.Nop()))

		convey.Convey("Then the cause is wrapped", func() {
			err := s.RunMaintenance(context.Background())
			convey.So(errors.Is(err, boom), convey.ShouldBeTrue)
			convey.So(store.calls.Load(), convey.ShouldEqual, 1)
		})
	})
}

func TestScheduler_Lifecycle(t *testing.T) {
	convey.Convey("Given a scheduler with a malformed schedule", t, func() {
		s := scheduler.New(&fakeDeps{}, scheduler.WithLogger(logger.Nop()),
			scheduler.WithMaintenanceSchedule("every tuesday"))

		convey.Convey("Then Start rejects it", func() {
			err := s.Start(context.Background())
			convey.So(errors.Is(err, scheduler.ErrInvalidSchedule), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a scheduler with both jobs disabled", t, func() {
		s := scheduler.New(&fakeDeps{}, scheduler.WithLogger(logger.Nop()),
			scheduler.WithMaintenanceSchedule(""),
			scheduler.WithSnapshotLogSchedule(""))

		convey.Convey("Then it starts once and stops cleanly", func() {
			convey.So(s.Start(context.Background()), convey.ShouldBeNil)
			convey.So(errors.Is(s.Start(context.Background()), scheduler.ErrAlreadyStarted), convey.ShouldBeTrue)
			s.Stop()
			s.Stop()
		})
	})

	convey.Convey("Given maintenance scheduled every second", t, func() {
		store := &countingStore{Store: repository.NewMemoryStore()}
		s := scheduler.New(&fakeDeps{store: store}, scheduler.WithLogger(logger.Nop()),
			scheduler.WithMaintenanceSchedule("@every 1s"),
			scheduler.WithSnapshotLogSchedule(""))
		convey.So(s.Start(context.Background()), convey.ShouldBeNil)
		defer s.Stop()

		convey.Convey("Then the job fires", func() {
			deadline := time.Now().Add(3 * time.Second)
			for store.calls.Load() == 0 && time.Now().Before(deadline) {
				time.Sleep(50 * time.Millisecond)
			}
			convey.So(store.calls.Load(), convey.ShouldBeGreaterThan, 0)
		})
	})
}
