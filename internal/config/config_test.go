package config_test

import (
	"errors"
	"testing"

	"github.com/okian/auge/internal/config"
	"github.com/okian/auge/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			convey.So(cfg.RetentionDays, convey.ShouldEqual, 90)
			convey.So(cfg.ConfidenceMediumAt, convey.ShouldEqual, 5)
			convey.So(cfg.ConfidenceHighAt, convey.ShouldEqual, 15)
			convey.So(cfg.MuscularHalfLifeHours, convey.ShouldEqual, 48)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		cases := []struct {
			name   string
			key    string
			mutate func(*config.Config)
		}{
			{"confidence thresholds out of order", "confidence_medium_at", func(c *config.Config) { c.ConfidenceMediumAt = 20 }},
			{"CNS slower than muscular", "cns_half_life_hours", func(c *config.Config) { c.CNSHalfLifeHours = 60 }},
			{"zero capacity", "spinal_capacity", func(c *config.Config) { c.SpinalCapacity = 0 }},
			{"negative half-life", "muscular_half_life_hours", func(c *config.Config) { c.MuscularHalfLifeHours = -1 }},
			{"malformed schedule", "maintenance_schedule", func(c *config.Config) { c.MaintenanceSchedule = "every night" }},
			{"empty metrics namespace", "metrics_namespace", func(c *config.Config) { c.MetricsNamespace = "" }},
			{"unsorted buckets", "metrics_buckets_ms", func(c *config.Config) { c.MetricsBucketsMs = []float64{10, 1} }},
		}
		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				tc.mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then "+tc.key+" is reported", func() {
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(err.Error(), convey.ShouldContainSubstring, tc.key)
				})
			})
		}

		convey.Convey("When a schedule is empty", func() {
			cfg.SnapshotLogSchedule = ""

			convey.Convey("Then the job is simply disabled", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})
	})
}

func TestConfig_Engine(t *testing.T) {
	convey.Convey("Given a config with custom thresholds", t, func() {
		cfg := config.New()
		cfg.SpinalHalfLifeHours = 96
		cfg.ConfidenceHighAt = 30
		cfg.ComputeWorkers = 6
		cfg.MinAccuracyPairs = 8

		s := cfg.Engine()

		convey.Convey("Then the engine settings carry them", func() {
			convey.So(s.HalfLives[model.SystemSpinal], convey.ShouldEqual, 96)
			convey.So(s.HalfLives[model.SystemCNS], convey.ShouldEqual, 24)
			convey.So(s.Confidence.Label(29), convey.ShouldEqual, "Medio")
			convey.So(s.Confidence.Label(30), convey.ShouldEqual, "Alto")
			convey.So(s.ComputeWorkers, convey.ShouldEqual, 6)
			convey.So(s.MinAccuracyPairs, convey.ShouldEqual, 8)
			convey.So(s.RetentionDays, convey.ShouldEqual, 90)
		})
	})
}

func TestConfig_Metrics(t *testing.T) {
	convey.Convey("Given a config naming the athlete", t, func() {
		cfg := config.New()
		cfg.MetricsAthlete = "a1"
		cfg.MetricsBucketsMs = []float64{1, 10, 100}

		convey.Convey("Then it yields one option per metrics key", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
			convey.So(cfg.Metrics(), convey.ShouldHaveLength, 3)
		})
	})
}
