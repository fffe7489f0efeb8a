package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/golfr/internal/adapters/backend"
	"github.com/okian/golfr/internal/adapters/repository"
	service "github.com/okian/golfr/internal/app"
	"github.com/okian/golfr/internal/domain/catalog"
	"github.com/okian/golfr/internal/domain/entry"
	"github.com/okian/golfr/internal/domain/model"
	"github.com/okian/golfr/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// ticking returns a clock that advances one minute per call.
func ticking() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 11, 17, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Minute)
		return t
	}
}

// newIdle returns a service that is not started, so events apply inline.
func newIdle(opts ...service.Option) *service.Service {
	svc := service.New(append([]service.Option{service.WithClock(ticking())}, opts...)...)
	if _, err := svc.Store().SeedCourses(context.Background(), catalog.Default()); err != nil {
		panic(err)
	}
	return svc
}

func played(s string) time.Time {
	t, _ := time.Parse(model.DateLayout, s)
	return t
}

func submit(svc *service.Service, user, course string, score int, day string) model.Round {
	r, _, err := svc.SubmitRound(context.Background(), "", model.Round{UserID: user, CourseID: course, Score: score, PlayedOn: played(day)})
	So(err, ShouldBeNil)
	return r
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(64),
			service.WithDedupeSize(100),
		)
		defer svc.Stop()

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["workerCount"], ShouldEqual, 2)
		})

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then it is running with the catalog seeded", func() {
				So(svc.GetStats()["started"], ShouldEqual, true)
				courses, err := svc.SearchCourses(ctx, catalog.Query{})
				So(err, ShouldBeNil)
				So(len(courses), ShouldEqual, len(catalog.Default()))
			})

			Convey("Then stopping marks it stopped", func() {
				svc.Stop()
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
			})

			Convey("Then the start-up context may end without stopping workers", func() {
				cancel()
				r := submit(svc, "maya", "pebble-beach", 88, "2025-11-01")
				So(eventually(func() bool {
					e, err := svc.Rank(context.Background(), "maya")
					return err == nil && e.RoundID == r.ID
				}), ShouldBeTrue)
			})
		})
	})
}

func TestService_Profile(t *testing.T) {
	Convey("Given a user with three rounds at Pebble Beach", t, func() {
		ctx := context.Background()
		svc := newIdle()
		So(svc.UpdateProfile(ctx, model.UserProfile{ID: "maya", Username: "maya_golf", DisplayName: "Maya", Handicap: 12.4}), ShouldBeNil)
		for i, score := range []int{103, 87, 92} {
			submit(svc, "maya", "pebble-beach", score, fmt.Sprintf("2025-10-0%d", i+1))
		}

		Convey("When the profile is loaded", func() {
			p, err := svc.Profile(ctx, "maya")

			Convey("Then the stats are recomputed from the rounds", func() {
				So(err, ShouldBeNil)
				So(p.Stats.RoundsPlayed, ShouldEqual, 3)
				So(p.Stats.BestScore, ShouldEqual, 87)
				So(p.DisplayAverage, ShouldEqual, 94)
				So(p.HandicapDisplay, ShouldEqual, "12.4")
			})

			Convey("Then a handicap index is derived next to the stored handicap", func() {
				So(p.HandicapIndex, ShouldNotBeNil)
				So(*p.HandicapIndex, ShouldEqual, 7.0)
				So(p.Handicap, ShouldEqual, 12.4)
			})
		})

		Convey("When analytics are filtered by course", func() {
			submit(svc, "maya", "riviera-country-club", 98, "2025-10-05")
			all, err := svc.Analytics(ctx, "maya", "")
			So(err, ShouldBeNil)
			one, err := svc.Analytics(ctx, "maya", "Riviera Country Club")
			So(err, ShouldBeNil)

			Convey("Then the summary follows the selection", func() {
				So(all.Course, ShouldEqual, "All Courses")
				So(all.Stats.RoundsPlayed, ShouldEqual, 4)
				So(all.Courses, ShouldContain, "Riviera Country Club")
				So(all.Trend[0].Date, ShouldEqual, "2025-10-01")
				So(one.Stats.RoundsPlayed, ShouldEqual, 1)
				So(one.Stats.BestScore, ShouldEqual, 98)
			})
		})

		Convey("When an unknown profile is requested", func() {
			_, err := svc.Profile(ctx, "ghost")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_SubmitRound(t *testing.T) {
	Convey("Given an idle service", t, func() {
		ctx := context.Background()
		svc := newIdle()
		r := model.Round{UserID: "leo", CourseID: "Sandpiper Golf Club", Score: 85, PlayedOn: played("2025-11-02")}

		Convey("When the same idempotency key is submitted twice", func() {
			first, dup1, err1 := svc.SubmitRound(ctx, "key-1", r)
			second, dup2, err2 := svc.SubmitRound(ctx, "key-1", r)

			Convey("Then the round is stored once", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(dup1, ShouldBeFalse)
				So(dup2, ShouldBeTrue)
				So(second.ID, ShouldEqual, first.ID)
				So(first.CourseID, ShouldEqual, "sandpiper-golf-club")
				rounds, err := svc.Rounds(ctx, "leo")
				So(err, ShouldBeNil)
				So(len(rounds), ShouldEqual, 1)
				So(rounds[0].CourseName, ShouldEqual, "Sandpiper Golf Club")
			})
		})

		Convey("When a keyed submission is invalid", func() {
			bad := r
			bad.Score = 0
			_, _, err := svc.SubmitRound(ctx, "key-2", bad)
			So(errors.Is(err, model.ErrInvalidRound), ShouldBeTrue)

			Convey("Then the key may be retried", func() {
				_, dup, err := svc.SubmitRound(ctx, "key-2", r)
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
			})
		})

		Convey("When no date is given", func() {
			noDate := r
			noDate.PlayedOn = time.Time{}
			stored, _, err := svc.SubmitRound(ctx, "", noDate)
			So(err, ShouldBeNil)
			So(stored.PlayedOn.Format(model.DateLayout), ShouldEqual, "2025-11-17")
		})
	})
}

func TestService_Entry(t *testing.T) {
	Convey("Given an entry session", t, func() {
		ctx := context.Background()
		svc := newIdle()
		id, view, err := svc.StartEntry(ctx, "zoe")
		So(err, ShouldBeNil)
		So(view.State, ShouldEqual, "select_course")

		apply := func(cmd service.EntryCommand) service.EntryResult {
			res, err := svc.ApplyEntryAction(ctx, id, cmd)
			So(err, ShouldBeNil)
			return res
		}

		Convey("When a nine-hole round is walked through to submission", func() {
			apply(service.EntryCommand{Kind: entry.ActionSelectCourse, Course: "olivas-links"})
			apply(service.EntryCommand{Kind: entry.ActionNext})
			apply(service.EntryCommand{Kind: entry.ActionSetHoles, Holes: 9})
			apply(service.EntryCommand{Kind: entry.ActionSetDate, PlayedOn: "2025-11-09"})
			res := apply(service.EntryCommand{Kind: entry.ActionNext})
			So(len(res.View.Holes), ShouldEqual, 9)
			apply(service.EntryCommand{Kind: entry.ActionIncrement, Hole: 1})
			apply(service.EntryCommand{Kind: entry.ActionNext})
			res = apply(service.EntryCommand{Kind: entry.ActionSubmit})

			Convey("Then the round is stored and the session is closed", func() {
				So(res.View.State, ShouldEqual, "submitted")
				So(res.Round, ShouldNotBeNil)
				So(res.Round.Score, ShouldEqual, 37)
				rounds, err := svc.Rounds(ctx, "zoe")
				So(err, ShouldBeNil)
				So(len(rounds), ShouldEqual, 1)
				So(rounds[0].PlayedOn, ShouldEqual, played("2025-11-09"))
				_, err = svc.Entry(ctx, id)
				So(errors.Is(err, entry.ErrSessionNotFound), ShouldBeTrue)
			})

			Convey("Then nine-hole rounds stay off the leaderboard", func() {
				_, err := svc.Rank(ctx, "zoe")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When an unknown course is selected", func() {
			_, err := svc.ApplyEntryAction(ctx, id, service.EntryCommand{Kind: entry.ActionSelectCourse, Course: "augusta"})
			So(errors.Is(err, service.ErrUnknownCourse), ShouldBeTrue)
		})

		Convey("When advancing without a course", func() {
			res, err := svc.ApplyEntryAction(ctx, id, service.EntryCommand{Kind: entry.ActionNext})
			So(errors.Is(err, entry.ErrNoCourse), ShouldBeTrue)
			So(res.View.State, ShouldEqual, "select_course")
		})

		Convey("When a date cannot be parsed", func() {
			_, err := svc.ApplyEntryAction(ctx, id, service.EntryCommand{Kind: entry.ActionSetDate, PlayedOn: "yesterday"})
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When the session does not exist", func() {
			_, err := svc.ApplyEntryAction(ctx, "nope", service.EntryCommand{Kind: entry.ActionNext})
			So(errors.Is(err, entry.ErrSessionNotFound), ShouldBeTrue)
		})
	})
}

func TestService_Leaderboard(t *testing.T) {
	Convey("Given rounds from several players", t, func() {
		ctx := context.Background()
		svc := newIdle()
		submit(svc, "maya", "pebble-beach", 92, "2025-10-01")
		submit(svc, "maya", "pebble-beach", 88, "2025-10-02")
		submit(svc, "leo", "rustic-canyon-golf-course", 78, "2025-10-03")
		submit(svc, "zoe", "riviera-country-club", 88, "2025-10-04")

		Convey("When the leaderboard is read", func() {
			top, err := svc.Leaderboard(ctx, 10)

			Convey("Then the lowest best score leads and ties share a rank", func() {
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 3)
				So(top[0].UserID, ShouldEqual, "leo")
				So(top[1].Rank, ShouldEqual, 2)
				So(top[2].Rank, ShouldEqual, 2)
				e, err := svc.Rank(ctx, "maya")
				So(err, ShouldBeNil)
				So(e.BestScore, ShouldEqual, 88)
			})
		})

		Convey("When it is rebuilt from storage", func() {
			n, err := svc.RebuildLeaderboard(ctx)

			Convey("Then the same standings come back", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 3)
				e, err := svc.Rank(ctx, "zoe")
				So(err, ShouldBeNil)
				So(e.Rank, ShouldEqual, 2)
			})
		})
	})
}

// failingLikes rejects every write to the likes table.
type failingLikes struct {
	backend.Backend
}

func (f failingLikes) Insert(ctx context.Context, writes ...backend.Write) error {
	for _, w := range writes {
		if w.Table == backend.Likes {
			return errors.New("likes unavailable")
		}
	}
	return f.Backend.Insert(ctx, writes...)
}

// slowLikes holds each like insert until an unlike has been written, or
// until a short wait runs out.
type slowLikes struct {
	backend.Backend
	once    sync.Once
	deleted chan struct{}
}

func newSlowLikes() *slowLikes {
	return &slowLikes{Backend: backend.NewMemory(), deleted: make(chan struct{})}
}

func (b *slowLikes) Insert(ctx context.Context, writes ...backend.Write) error {
	for _, w := range writes {
		if w.Table == backend.Likes {
			select {
			case <-b.deleted:
			case <-time.After(100 * time.Millisecond):
			}
		}
	}
	return b.Backend.Insert(ctx, writes...)
}

func (b *slowLikes) Delete(ctx context.Context, table string, q backend.Query) (int, error) {
	n, err := b.Backend.Delete(ctx, table, q)
	if table == backend.Likes {
		b.once.Do(func() { close(b.deleted) })
	}
	return n, err
}

func TestService_LikeOrdering(t *testing.T) {
	Convey("Given a running service with two workers and slow like writes", t, func() {
		ctx := context.Background()
		svc := newIdle(service.WithBackend(newSlowLikes()), service.WithWorkerCount(2))
		r := submit(svc, "leo", "pebble-beach", 90, "2025-10-01")
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When maya likes and unlikes the round", func() {
			_, err := svc.ToggleLike(ctx, "maya", r.ID)
			So(err, ShouldBeNil)
			off, err := svc.ToggleLike(ctx, "maya", r.ID)
			So(err, ShouldBeNil)
			svc.Stop()

			Convey("Then the stored like follows the last toggle", func() {
				So(off.Liked, ShouldBeFalse)
				counts, liked, err := svc.Store().LikeCounts(ctx, []string{r.ID}, "maya")
				So(err, ShouldBeNil)
				So(counts[r.ID], ShouldEqual, 0)
				So(liked[r.ID], ShouldBeFalse)
				So(svc.GetStats()["pendingLikes"], ShouldEqual, 0)
			})
		})

		Convey("When maya toggles the like three times", func() {
			for i := 0; i < 3; i++ {
				_, err := svc.ToggleLike(ctx, "maya", r.ID)
				So(err, ShouldBeNil)
			}
			svc.Stop()

			Convey("Then the round stays liked", func() {
				counts, liked, err := svc.Store().LikeCounts(ctx, []string{r.ID}, "maya")
				So(err, ShouldBeNil)
				So(counts[r.ID], ShouldEqual, 1)
				So(liked[r.ID], ShouldBeTrue)
			})
		})

		Reset(svc.Stop)
	})
}

func TestService_Social(t *testing.T) {
	Convey("Given rounds by people maya follows", t, func() {
		ctx := context.Background()
		svc := newIdle()
		So(svc.UpdateProfile(ctx, model.UserProfile{ID: "leo", Username: "leo", DisplayName: "Leo P"}), ShouldBeNil)
		leoRound := submit(svc, "leo", "pebble-beach", 90, "2025-10-01")
		submit(svc, "zoe", "pebble-beach", 95, "2025-10-02")
		mine := submit(svc, "maya", "pebble-beach", 85, "2025-10-03")
		_, err := svc.Follow(ctx, "maya", "leo")
		So(err, ShouldBeNil)

		Convey("When maya reads her feed", func() {
			posts, err := svc.Feed(ctx, "maya", 0)

			Convey("Then it holds followed and own rounds, newest first", func() {
				So(err, ShouldBeNil)
				So(len(posts), ShouldEqual, 2)
				So(posts[0].Round.ID, ShouldEqual, mine.ID)
				So(posts[1].Author, ShouldEqual, "Leo P")
				So(posts[1].Caption, ShouldEqual, "Shot 90 at Pebble Beach")
				So(posts[1].Age, ShouldEndWith, "ago")
			})
		})

		Convey("When an anonymous viewer reads the feed", func() {
			posts, err := svc.Feed(ctx, "", 2)
			So(err, ShouldBeNil)
			So(len(posts), ShouldEqual, 2)
		})

		Convey("When maya likes and unlikes leo's round", func() {
			on, err := svc.ToggleLike(ctx, "maya", leoRound.ID)
			So(err, ShouldBeNil)
			posts, _ := svc.Feed(ctx, "maya", 0)
			off, err := svc.ToggleLike(ctx, "maya", leoRound.ID)
			So(err, ShouldBeNil)

			Convey("Then each toggle reports the new state", func() {
				So(on.Liked, ShouldBeTrue)
				So(on.Likes, ShouldEqual, 1)
				So(posts[1].IsLiked, ShouldBeTrue)
				So(posts[1].Likes, ShouldEqual, 1)
				So(off.Liked, ShouldBeFalse)
				So(off.Likes, ShouldEqual, 0)
				So(svc.GetStats()["pendingLikes"], ShouldEqual, 0)
			})
		})

		Convey("When a comment is left", func() {
			c, err := svc.Comment(ctx, "maya", leoRound.ID, " great par save on 7 ")
			So(err, ShouldBeNil)

			Convey("Then it is counted in the feed", func() {
				So(c.Content, ShouldEqual, "great par save on 7")
				posts, err := svc.Feed(ctx, "maya", 0)
				So(err, ShouldBeNil)
				So(posts[1].Comments, ShouldEqual, 1)
				list, err := svc.Comments(ctx, leoRound.ID)
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 1)
			})
		})

		Convey("When the round does not exist", func() {
			_, err := svc.ToggleLike(ctx, "maya", "missing")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			_, err = svc.Comment(ctx, "maya", "missing", "hi")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a backend that rejects like writes", t, func() {
		ctx := context.Background()
		svc := newIdle(service.WithBackend(failingLikes{backend.NewMemory()}))
		r := submit(svc, "leo", "pebble-beach", 90, "2025-10-01")

		Convey("When maya likes a round", func() {
			state, err := svc.ToggleLike(ctx, "maya", r.ID)

			Convey("Then the local state is kept", func() {
				So(err, ShouldBeNil)
				So(state.Liked, ShouldBeTrue)
				posts, err := svc.Feed(ctx, "maya", 0)
				So(err, ShouldBeNil)
				So(posts[0].IsLiked, ShouldBeTrue)
				So(posts[0].Likes, ShouldEqual, 1)
				So(svc.GetStats()["pendingLikes"], ShouldEqual, 1)
			})
		})
	})
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
