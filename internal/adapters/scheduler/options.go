package scheduler

import "github.com/okian/auge/pkg/logger"

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithMaintenanceSchedule sets the cron spec of the store housekeeping job.
// An empty spec disables the job.
func WithMaintenanceSchedule(spec string) Option {
	return func(s *Scheduler) {
		s.maintenance = spec
	}
}

// WithSnapshotLogSchedule sets the cron spec of the snapshot summary job.
// An empty spec disables the job.
func WithSnapshotLogSchedule(spec string) Option {
	return func(s *Scheduler) {
		s.snapshotLog = spec
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}
