package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/auge/internal/app"
	"github.com/okian/auge/internal/cli"
	"github.com/okian/auge/internal/domain/model"
	"github.com/okian/auge/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func run(args ...string) (string, error) {
	cmd := cli.NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// seed writes n impulses into a new SQLite store at path.
func seed(t *testing.T, path string, n int) {
	t.Helper()
	ctx := context.Background()
	e := app.New(app.WithLogger(logger.Nop()), app.WithSQLitePath(path))
	if err := e.Start(ctx); err != nil {
		t.Fatalf("start engine: %v", err)
	}
	defer e.Stop()
	for i := 0; i < n; i++ {
		if _, err := e.QueueTrainingImpulse(ctx, model.TrainingImpulse{TimestampHours: float64(10 + i), Impulse: 50}); err != nil {
			t.Fatalf("append impulse: %v", err)
		}
	}
}

func TestRootCommand(t *testing.T) {
	convey.Convey("Given the root command", t, func() {
		cmd := cli.NewRootCommand()

		convey.Convey("Then every subcommand is registered", func() {
			for _, name := range []string{"serve", "snapshot", "merge", "confidence", "simulate"} {
				sub, _, err := cmd.Find([]string{name})
				convey.So(err, convey.ShouldBeNil)
				convey.So(sub.Name(), convey.ShouldEqual, name)
			}
		})

		convey.Convey("Then simulate carries its defaults", func() {
			sub, _, _ := cmd.Find([]string{"simulate"})
			convey.So(sub.Flags().Lookup("url").DefValue, convey.ShouldEqual, "http://localhost:9080")
			convey.So(sub.Flags().Lookup("days").DefValue, convey.ShouldEqual, "28")
			convey.So(sub.Flags().Lookup("seed").DefValue, convey.ShouldEqual, "1")
		})

		convey.Convey("Then an unknown format is a command error", func() {
			_, err := run("confidence", "3", "--format", "xml")
			convey.So(cli.GetExitCode(err), convey.ShouldEqual, cli.ExitCommandError)
		})
	})
}

func TestConfidenceCommand(t *testing.T) {
	convey.Convey("Given observation counts", t, func() {
		convey.Convey("Then the default thresholds apply", func() {
			out, err := run("confidence", "0")
			convey.So(err, convey.ShouldBeNil)
			convey.So(strings.TrimSpace(out), convey.ShouldEqual, "Bajo")

			out, err = run("confidence", "7")
			convey.So(err, convey.ShouldBeNil)
			convey.So(strings.TrimSpace(out), convey.ShouldEqual, "Medio")

			out, err = run("confidence", "15", "--format", "json")
			convey.So(err, convey.ShouldBeNil)
			var res map[string]any
			convey.So(json.Unmarshal([]byte(out), &res), convey.ShouldBeNil)
			convey.So(res["label"], convey.ShouldEqual, "Alto")
			convey.So(res["observations"], convey.ShouldEqual, 15.0)
		})

		convey.Convey("Then a negative count is rejected", func() {
			_, err := run("confidence", "-1")
			convey.So(cli.GetExitCode(err), convey.ShouldEqual, cli.ExitCommandError)
		})

		convey.Convey("Then a missing count is rejected", func() {
			_, err := run("confidence")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestSnapshotCommand(t *testing.T) {
	convey.Convey("Given a store with three impulses", t, func() {
		path := filepath.Join(t.TempDir(), "auge.db")
		seed(t, path, 3)

		convey.Convey("Then the snapshot counts them", func() {
			out, err := run("snapshot", "--db", path)
			convey.So(err, convey.ShouldBeNil)
			var snap map[string]any
			convey.So(json.Unmarshal([]byte(out), &snap), convey.ShouldBeNil)
			convey.So(snap["totalObservations"], convey.ShouldEqual, 3.0)
			convey.So(snap["confidenceLabel"], convey.ShouldEqual, "Bajo")
		})
	})

	convey.Convey("Given a database that does not exist", t, func() {
		_, err := run("snapshot", "--db", filepath.Join(t.TempDir(), "missing.db"))

		convey.Convey("Then it is a command error", func() {
			convey.So(cli.GetExitCode(err), convey.ShouldEqual, cli.ExitCommandError)
		})
	})
}

func TestMergeCommand(t *testing.T) {
	convey.Convey("Given two stores", t, func() {
		dir := t.TempDir()
		into := filepath.Join(dir, "phone.db")
		from := filepath.Join(dir, "watch.db")
		seed(t, into, 1)
		seed(t, from, 2)

		convey.Convey("When the second is merged into the first", func() {
			out, err := run("merge", "--into", into, "--from", from)

			convey.Convey("Then its records are copied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(strings.TrimSpace(out), convey.ShouldEqual, "merged 2 records, skipped 0")

				snap, err := run("snapshot", "--db", into)
				convey.So(err, convey.ShouldBeNil)
				convey.So(snap, convey.ShouldContainSubstring, `"totalObservations": 3`)
			})

			convey.Convey("Then merging again changes nothing", func() {
				out, err := run("merge", "--into", into, "--from", from)
				convey.So(err, convey.ShouldBeNil)
				convey.So(strings.TrimSpace(out), convey.ShouldEqual, "merged 0 records, skipped 2")
			})
		})

		convey.Convey("Then a store cannot be merged into itself", func() {
			_, err := run("merge", "--into", into, "--from", into)
			convey.So(cli.GetExitCode(err), convey.ShouldEqual, cli.ExitCommandError)
		})
	})
}

func TestExitCodes(t *testing.T) {
	convey.Convey("Given command errors", t, func() {
		convey.Convey("Then codes are carried through wrapping", func() {
			convey.So(cli.GetExitCode(nil), convey.ShouldEqual, cli.ExitSuccess)
			convey.So(cli.GetExitCode(cli.NewExitError(cli.ExitCommandError, "bad")), convey.ShouldEqual, cli.ExitCommandError)
			convey.So(cli.GetExitCode(context.Canceled), convey.ShouldEqual, cli.ExitFailure)
		})
	})
}
