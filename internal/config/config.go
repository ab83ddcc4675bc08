// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Every engine threshold has exactly one key here; Engine() hands them to
//   the engine so no other package carries its own copy.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"fmt"

	"github.com/okian/auge/internal/app"
	"github.com/okian/auge/internal/domain/confidence"
	"github.com/okian/auge/internal/domain/model"
	"github.com/okian/auge/pkg/metrics"
	"github.com/robfig/cron"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: json or console.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite file of the observation store. Empty keeps the
	// store in memory.
	DBPath string `koanf:"db_path"`

	// ComputeWorkers sets the number of battery compute workers.
	ComputeWorkers int `koanf:"compute_workers"`

	// ComputeQueueSize bounds the compute job queue.
	ComputeQueueSize int `koanf:"compute_queue_size"`

	// DedupeSize sets the size of the prediction id filter.
	DedupeSize int `koanf:"dedupe_size"`

	// MaintenanceSchedule and SnapshotLogSchedule are cron specs. Empty
	// disables the job.
	MaintenanceSchedule string `koanf:"maintenance_schedule"`
	SnapshotLogSchedule string `koanf:"snapshot_log_schedule"`

	// MetricsNamespace prefixes every exported metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`

	// MetricsAthlete, when set, is added as the athlete label of every
	// metric so several engines can share one Prometheus.
	MetricsAthlete string `koanf:"metrics_athlete"`

	// MetricsBucketsMs overrides the latency histogram buckets.
	MetricsBucketsMs []float64 `koanf:"metrics_buckets_ms"`

	RetentionDays         int     `koanf:"retention_days"`
	HistoryWindowDays     int     `koanf:"history_window_days"`
	ConfidenceMediumAt    uint32  `koanf:"confidence_medium_at"`
	ConfidenceHighAt      uint32  `koanf:"confidence_high_at"`
	MinMuscleObservations int     `koanf:"min_muscle_observations"`
	MaxRecoveryStepHours  float64 `koanf:"max_recovery_step_hours"`
	MinAccuracyPairs      int     `koanf:"min_accuracy_pairs"`
	MinBanisterImpulses   int     `koanf:"min_banister_impulses"`

	// Half-lives are in hours.
	CNSHalfLifeHours      float64 `koanf:"cns_half_life_hours"`
	MuscularHalfLifeHours float64 `koanf:"muscular_half_life_hours"`
	SpinalHalfLifeHours   float64 `koanf:"spinal_half_life_hours"`

	CNSCapacity      float64 `koanf:"cns_capacity"`
	MuscularCapacity float64 `koanf:"muscular_capacity"`
	SpinalCapacity   float64 `koanf:"spinal_capacity"`
	MuscleCapacity   float64 `koanf:"muscle_capacity"`
}

// New creates a Config with defaults matching the engine's built-in
// thresholds.
func New() *Config {
	s := app.DefaultSettings()
	return &Config{
		LogLevel:              "info",
		LogFormat:             "json",
		Addr:                  ":9080",
		ComputeWorkers:        s.ComputeWorkers,
		ComputeQueueSize:      s.ComputeQueueSize,
		DedupeSize:            s.DedupeSize,
		MaintenanceSchedule:   "@daily",
		SnapshotLogSchedule:   "@every 1h",
		MetricsNamespace:      "auge",
		RetentionDays:         s.RetentionDays,
		HistoryWindowDays:     s.HistoryWindowDays,
		ConfidenceMediumAt:    s.Confidence.MediumAt,
		ConfidenceHighAt:      s.Confidence.HighAt,
		MinMuscleObservations: s.MinMuscleObservations,
		MaxRecoveryStepHours:  s.MaxRecoveryStepHours,
		MinAccuracyPairs:      s.MinAccuracyPairs,
		MinBanisterImpulses:   s.MinBanisterImpulses,
		CNSHalfLifeHours:      s.HalfLives[model.SystemCNS],
		MuscularHalfLifeHours: s.HalfLives[model.SystemMuscular],
		SpinalHalfLifeHours:   s.HalfLives[model.SystemSpinal],
		CNSCapacity:           s.Capacities[model.SystemCNS],
		MuscularCapacity:      s.Capacities[model.SystemMuscular],
		SpinalCapacity:        s.Capacities[model.SystemSpinal],
		MuscleCapacity:        s.MuscleCapacity,
	}
}

func invalid(key, format string, args ...any) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidConfig, key, fmt.Sprintf(format, args...))
}

// Validate checks the values the engine cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr", "must not be empty")
	case c.RetentionDays < 90:
		return invalid("retention_days", "must be at least 90, got %d", c.RetentionDays)
	case c.HistoryWindowDays <= 0:
		return invalid("history_window_days", "must be positive, got %d", c.HistoryWindowDays)
	case c.ConfidenceMediumAt >= c.ConfidenceHighAt:
		return invalid("confidence_medium_at", "must be below confidence_high_at (%d >= %d)", c.ConfidenceMediumAt, c.ConfidenceHighAt)
	case c.ComputeWorkers <= 0:
		return invalid("compute_workers", "must be positive, got %d", c.ComputeWorkers)
	case c.ComputeQueueSize <= 0:
		return invalid("compute_queue_size", "must be positive, got %d", c.ComputeQueueSize)
	case c.MetricsNamespace == "":
		return invalid("metrics_namespace", "must not be empty")
	}

	for i, b := range c.MetricsBucketsMs {
		if b <= 0 || (i > 0 && b <= c.MetricsBucketsMs[i-1]) {
			return invalid("metrics_buckets_ms", "must be positive and increasing, got %v", c.MetricsBucketsMs)
		}
	}

	positive := []struct {
		key string
		v   float64
	}{
		{"cns_half_life_hours", c.CNSHalfLifeHours},
		{"muscular_half_life_hours", c.MuscularHalfLifeHours},
		{"spinal_half_life_hours", c.SpinalHalfLifeHours},
		{"cns_capacity", c.CNSCapacity},
		{"muscular_capacity", c.MuscularCapacity},
		{"spinal_capacity", c.SpinalCapacity},
		{"muscle_capacity", c.MuscleCapacity},
		{"max_recovery_step_hours", c.MaxRecoveryStepHours},
	}
	for _, h := range positive {
		if h.v <= 0 {
			return invalid(h.key, "must be positive, got %g", h.v)
		}
	}
	if c.CNSHalfLifeHours > c.MuscularHalfLifeHours {
		return invalid("cns_half_life_hours", "must not exceed muscular_half_life_hours (%g > %g)", c.CNSHalfLifeHours, c.MuscularHalfLifeHours)
	}

	schedules := []struct {
		key  string
		spec string
	}{
		{"maintenance_schedule", c.MaintenanceSchedule},
		{"snapshot_log_schedule", c.SnapshotLogSchedule},
	}
	for _, sc := range schedules {
		if sc.spec == "" {
			continue
		}
		if _, err := cron.Parse(sc.spec); err != nil {
			return invalid(sc.key, "%q: %v", sc.spec, err)
		}
	}
	return nil
}

// Engine converts the config into engine settings.
func (c *Config) Engine() app.Settings {
	s := app.DefaultSettings()
	s.HistoryWindowDays = c.HistoryWindowDays
	s.RetentionDays = c.RetentionDays
	s.Confidence = confidence.Thresholds{MediumAt: c.ConfidenceMediumAt, HighAt: c.ConfidenceHighAt}
	s.MinMuscleObservations = c.MinMuscleObservations
	s.MaxRecoveryStepHours = c.MaxRecoveryStepHours
	s.MinAccuracyPairs = c.MinAccuracyPairs
	s.MinBanisterImpulses = c.MinBanisterImpulses
	s.HalfLives = map[model.SystemTag]float64{
		model.SystemCNS:      c.CNSHalfLifeHours,
		model.SystemMuscular: c.MuscularHalfLifeHours,
		model.SystemSpinal:   c.SpinalHalfLifeHours,
	}
	s.Capacities = map[model.SystemTag]float64{
		model.SystemCNS:      c.CNSCapacity,
		model.SystemMuscular: c.MuscularCapacity,
		model.SystemSpinal:   c.SpinalCapacity,
	}
	s.MuscleCapacity = c.MuscleCapacity
	s.ComputeWorkers = c.ComputeWorkers
	s.ComputeQueueSize = c.ComputeQueueSize
	s.DedupeSize = c.DedupeSize
	return s
}

// Metrics returns the options of the process metrics manager.
func (c *Config) Metrics() []metrics.Option {
	return []metrics.Option{
		metrics.WithNamespace(c.MetricsNamespace),
		metrics.WithHistogramBuckets(c.MetricsBucketsMs),
		metrics.WithCustomLabels(map[string]string{"athlete": c.MetricsAthlete}),
	}
}
