package app

import (
	"time"

	"github.com/okian/auge/internal/adapters/repository"
	"github.com/okian/auge/internal/domain/stress"
	"github.com/okian/auge/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithStore uses an already opened store. The caller keeps ownership and
// must close it after Stop.
func WithStore(s repository.Store) Option {
	return func(e *Engine) {
		if s != nil {
			e.store = s
			e.ownsStore = false
		}
	}
}

// WithSQLitePath persists the observation log at path. An empty path keeps
// the in-memory store.
func WithSQLitePath(path string) Option {
	return func(e *Engine) {
		e.dbPath = path
	}
}

// WithSettings replaces the engine thresholds.
func WithSettings(s Settings) Option {
	return func(e *Engine) {
		e.settings = s
	}
}

// WithExerciseDB sets the exercise database used to score workouts.
func WithExerciseDB(db *stress.ExerciseDB) Option {
	return func(e *Engine) {
		if db != nil {
			e.exercises = db
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides the wall clock used for calibration timestamps and
// the default battery time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
