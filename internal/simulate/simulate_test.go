package simulate_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/auge/internal/adapters/http/api"
	"github.com/okian/auge/internal/app"
	"github.com/okian/auge/internal/simulate"
	"github.com/okian/auge/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

var start = time.Date(2026, 2, 1, 7, 0, 0, 0, time.UTC)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	e := app.New(app.WithLogger(logger.Nop()))
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("start engine: %v", err)
	}
	mux := http.NewServeMux()
	api.NewServer(e).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		e.Stop()
	})
	return srv
}

func TestGenerate(t *testing.T) {
	convey.Convey("Given three weeks of history", t, func() {
		cfg := simulate.Config{Days: 21, Seed: 7, Start: start}

		convey.Convey("Then equal seeds give equal histories", func() {
			a, err := simulate.Generate(cfg)
			convey.So(err, convey.ShouldBeNil)
			b, err := simulate.Generate(cfg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(a, convey.ShouldResemble, b)
		})

		convey.Convey("Then another seed gives another history", func() {
			a, _ := simulate.Generate(cfg)
			cfg.Seed = 8
			b, _ := simulate.Generate(cfg)
			convey.So(a, convey.ShouldNotResemble, b)
		})

		convey.Convey("Then every tenth prediction is replayed", func() {
			h, err := simulate.Generate(cfg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(h.Replays, convey.ShouldEqual, 2)
			convey.So(h.Records, convey.ShouldEqual, len(h.Requests)-h.Replays)
		})
	})

	convey.Convey("Given no days", t, func() {
		_, err := simulate.Generate(simulate.Config{Seed: 1})

		convey.Convey("Then the config is rejected", func() {
			convey.So(errors.Is(err, simulate.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a fresh engine behind the HTTP API", t, func() {
		srv := newServer(t)
		cfg := simulate.Config{BaseURL: srv.URL, Days: 21, Seed: 42, Workers: 4, Start: start}
		opts := []simulate.Option{simulate.WithLogger(logger.Nop()), simulate.WithHTTPClient(srv.Client())}

		convey.Convey("When a history is simulated", func() {
			stats, err := simulate.Run(context.Background(), cfg, opts...)

			convey.Convey("Then every record is stored and replays are rejected", func() {
				convey.So(err, convey.ShouldBeNil)
				h, _ := simulate.Generate(cfg)
				convey.So(stats.Accepted, convey.ShouldEqual, h.Records)
				convey.So(stats.Conflicts, convey.ShouldEqual, 2)
				convey.So(stats.Failed, convey.ShouldEqual, 0)
				convey.So(stats.BaselineRecords, convey.ShouldEqual, uint32(0))
				convey.So(stats.FinalRecords, convey.ShouldEqual, uint32(h.Records))
				convey.So(stats.ConfidenceLabel, convey.ShouldNotBeEmpty)
			})

			convey.Convey("Then replaying the same seed fails verification", func() {
				_, err := simulate.Run(context.Background(), cfg, opts...)
				convey.So(errors.Is(err, simulate.ErrVerification), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a service that is down", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		convey.Convey("Then the run stops at the health check", func() {
			_, err := simulate.Run(context.Background(),
				simulate.Config{BaseURL: srv.URL, Days: 3, Seed: 1},
				simulate.WithLogger(logger.Nop()))
			convey.So(errors.Is(err, simulate.ErrUnhealthy), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given no base url", t, func() {
		_, err := simulate.NewRunner(simulate.Config{Days: 3})

		convey.Convey("Then the config is rejected", func() {
			convey.So(errors.Is(err, simulate.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
