package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/auge/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When an identity is recorded twice", func() {
			first := d.SeenAndRecord(ctx, "rec-1")
			second := d.SeenAndRecord(ctx, "rec-1")

			Convey("Then only the second call reports it as seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When identities are seeded", func() {
			d.Seed(ctx, "a", "b", "a")

			Convey("Then they count as seen", func() {
				So(d.Size(), ShouldEqual, 2)
				So(d.SeenAndRecord(ctx, "a"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "c"), ShouldBeFalse)
			})
		})

		Convey("When an identity is unrecorded", func() {
			d.SeenAndRecord(ctx, "rec-1")
			d.Unrecord(ctx, "rec-1")
			d.Unrecord(ctx, "missing")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "rec-1"), ShouldBeFalse)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for i := 0; i < 4; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("rec-%d", i))
		}

		Convey("Then the oldest identity was evicted", func() {
			So(d.Size(), ShouldEqual, 3)
			So(d.SeenAndRecord(ctx, "rec-3"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "rec-0"), ShouldBeFalse)
		})

		Convey("Then unrecording from the middle keeps the list consistent", func() {
			d.Unrecord(ctx, "rec-2")
			So(d.Size(), ShouldEqual, 2)
			d.SeenAndRecord(ctx, "rec-9")
			d.SeenAndRecord(ctx, "rec-10")
			So(d.Size(), ShouldEqual, 3)
			So(d.SeenAndRecord(ctx, "rec-10"), ShouldBeTrue)
		})
	})

	Convey("Given concurrent callers", t, func() {
		d := dedupe.NewInMemoryDeduper()
		var wg sync.WaitGroup
		var mu sync.Mutex
		fresh := 0
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !d.SeenAndRecord(ctx, "same") {
					mu.Lock()
					fresh++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one caller records the identity", func() {
			So(fresh, ShouldEqual, 1)
			So(d.Size(), ShouldEqual, 1)
		})
	})
}
