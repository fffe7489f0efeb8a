package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/okian/golfr/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryTracker(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new tracker", t, func() {
		d := dedupe.NewInMemoryTracker()

		Convey("Then it starts empty", func() {
			So(d.Size(), ShouldEqual, 0)
		})

		Convey("When a key is claimed for the first time", func() {
			result, claimed := d.Claim(ctx, "key-1")

			Convey("Then the caller owns it", func() {
				So(claimed, ShouldBeTrue)
				So(result, ShouldBeEmpty)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a key is claimed twice before completing", func() {
			d.Claim(ctx, "key-1")
			result, claimed := d.Claim(ctx, "key-1")

			Convey("Then the second caller sees an in-flight key", func() {
				So(claimed, ShouldBeFalse)
				So(result, ShouldBeEmpty)
			})
		})

		Convey("When a completed key is claimed again", func() {
			d.Claim(ctx, "key-1")
			d.Complete(ctx, "key-1", "round-9")
			result, claimed := d.Claim(ctx, "key-1")

			Convey("Then the first result is returned", func() {
				So(claimed, ShouldBeFalse)
				So(result, ShouldEqual, "round-9")
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a claimed key is released", func() {
			d.Claim(ctx, "key-1")
			d.Release(ctx, "key-1")

			Convey("Then it can be claimed again", func() {
				So(d.Size(), ShouldEqual, 0)
				_, claimed := d.Claim(ctx, "key-1")
				So(claimed, ShouldBeTrue)
			})
		})

		Convey("When unknown keys are completed or released", func() {
			d.Complete(ctx, "missing", "round-1")
			d.Release(ctx, "missing")

			Convey("Then nothing changes", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a bounded tracker at capacity", t, func() {
		d := dedupe.NewInMemoryTracker(dedupe.WithMaxSize(3))
		for _, k := range []string{"k1", "k2", "k3"} {
			d.Claim(ctx, k)
		}

		Convey("When another key is claimed", func() {
			_, claimed := d.Claim(ctx, "k4")

			Convey("Then the oldest key is evicted", func() {
				So(claimed, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 3)

				_, again := d.Claim(ctx, "k3")
				So(again, ShouldBeFalse)
				_, evicted := d.Claim(ctx, "k1")
				So(evicted, ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded tracker", t, func() {
		d := dedupe.NewInMemoryTracker(dedupe.WithMaxSize(0))
		const n = 1000
		for i := 0; i < n; i++ {
			d.Claim(ctx, fmt.Sprintf("key-%d", i))
		}

		Convey("Then nothing is evicted", func() {
			So(d.Size(), ShouldEqual, int64(n))
			_, claimed := d.Claim(ctx, "key-0")
			So(claimed, ShouldBeFalse)
		})
	})
}

func TestTrackerConcurrency(t *testing.T) {
	Convey("Given many goroutines claiming the same key", t, func() {
		d := dedupe.NewInMemoryTracker(dedupe.WithMaxSize(100))
		var winners atomic.Int32
		var wg sync.WaitGroup

		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, claimed := d.Claim(context.Background(), "double-tap"); claimed {
					winners.Add(1)
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one wins", func() {
			So(winners.Load(), ShouldEqual, 1)
			So(d.Size(), ShouldEqual, 1)
		})
	})
}
