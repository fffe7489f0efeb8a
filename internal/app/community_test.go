package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/golfr/internal/adapters/backend"
	"github.com/okian/golfr/internal/adapters/repository"
	service "github.com/okian/golfr/internal/app"
	"github.com/okian/golfr/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func profiles(svc *service.Service, ps ...model.UserProfile) {
	for _, p := range ps {
		So(svc.UpdateProfile(context.Background(), p), ShouldBeNil)
	}
}

func TestService_SearchUsers(t *testing.T) {
	Convey("Given four golfers", t, func() {
		ctx := context.Background()
		svc := newIdle()
		profiles(svc,
			model.UserProfile{ID: "jake", Username: "jake", DisplayName: "Jake Shockley"},
			model.UserProfile{ID: "jack", Username: "jack", DisplayName: "Jack Burke"},
			model.UserProfile{ID: "jaxonsmith", Username: "jaxonsmith", DisplayName: "Jaxon Smith"},
			model.UserProfile{ID: "janedoe", Username: "janedoe", DisplayName: "Jane Doe"},
		)

		Convey("When searching by part of a name in any case", func() {
			found, err := svc.SearchUsers(ctx, "jake", "SMITH", 0)

			Convey("Then name and username both match", func() {
				So(err, ShouldBeNil)
				So(len(found), ShouldEqual, 1)
				So(found[0].ID, ShouldEqual, "jaxonsmith")
			})
		})

		Convey("When a term matches several golfers", func() {
			found, err := svc.SearchUsers(ctx, "", "ja", 2)
			So(err, ShouldBeNil)
			So(len(found), ShouldEqual, 2)
			So(found[0].ID, ShouldEqual, "jake")
		})

		Convey("When the term is blank", func() {
			_, err := svc.Follow(ctx, "jake", "jack")
			So(err, ShouldBeNil)
			found, err := svc.SearchUsers(ctx, "jake", "  ", 0)

			Convey("Then golfers jake does not follow are suggested", func() {
				So(err, ShouldBeNil)
				So(len(found), ShouldEqual, 2)
				So(found[0].ID, ShouldEqual, "jaxonsmith")
				So(found[1].ID, ShouldEqual, "janedoe")
			})
		})

		Convey("When nobody matches", func() {
			found, err := svc.SearchUsers(ctx, "", "tiger", 0)
			So(err, ShouldBeNil)
			So(found, ShouldBeEmpty)
		})
	})
}

func TestService_Posts(t *testing.T) {
	Convey("Given jake follows jack", t, func() {
		ctx := context.Background()
		svc := newIdle()
		profiles(svc,
			model.UserProfile{ID: "jake", Username: "jake", DisplayName: "Jake Shockley"},
			model.UserProfile{ID: "jack", Username: "jack", DisplayName: "Jack Burke"},
		)
		_, err := svc.Follow(ctx, "jake", "jack")
		So(err, ShouldBeNil)
		round := submit(svc, "jack", "rustic-canyon-golf-course", 78, "2025-11-01")

		Convey("When jake posts with tags", func() {
			p, err := svc.AddPost(ctx, "jake", "Great day at #RivieraCountryClub with @jack and @jack again")
			So(err, ShouldBeNil)

			Convey("Then tags are extracted once each", func() {
				So(p.TaggedUsers, ShouldResemble, []string{"jack"})
				So(p.TaggedCourses, ShouldResemble, []string{"RivieraCountryClub"})
			})

			Convey("Then the post leads jake's feed ahead of the older round", func() {
				posts, err := svc.Feed(ctx, "jake", 0)
				So(err, ShouldBeNil)
				So(len(posts), ShouldEqual, 2)
				So(posts[0].Kind, ShouldEqual, model.PostText)
				So(posts[0].ID, ShouldEqual, p.ID)
				So(posts[0].Author, ShouldEqual, "Jake Shockley")
				So(posts[0].Round, ShouldBeNil)
				So(posts[0].TaggedUsers, ShouldResemble, []string{"jack"})
				So(posts[1].Kind, ShouldEqual, model.PostRound)
				So(posts[1].Round.ID, ShouldEqual, round.ID)
			})

			Convey("Then the post can be liked and commented on", func() {
				state, err := svc.ToggleLike(ctx, "jack", p.ID)
				So(err, ShouldBeNil)
				So(state.Liked, ShouldBeTrue)
				_, err = svc.Comment(ctx, "jack", p.ID, "see you there")
				So(err, ShouldBeNil)

				posts, err := svc.Feed(ctx, "jack", 0)
				So(err, ShouldBeNil)
				So(posts[0].ID, ShouldEqual, p.ID)
				So(posts[0].Likes, ShouldEqual, 1)
				So(posts[0].IsLiked, ShouldBeTrue)
				So(posts[0].Comments, ShouldEqual, 1)
			})

			Convey("Then the feed limit applies to the merged list", func() {
				posts, err := svc.Feed(ctx, "jake", 1)
				So(err, ShouldBeNil)
				So(len(posts), ShouldEqual, 1)
				So(posts[0].ID, ShouldEqual, p.ID)
			})
		})

		Convey("When the post is blank", func() {
			_, err := svc.AddPost(ctx, "jake", "   ")
			So(errors.Is(err, repository.ErrInvalidPost), ShouldBeTrue)
		})
	})
}

func TestService_CourseRankings(t *testing.T) {
	Convey("Given jake's rounds at three courses", t, func() {
		ctx := context.Background()
		svc := newIdle()
		profiles(svc, model.UserProfile{ID: "jake", Username: "jake"})
		submit(svc, "jake", "pebble-beach", 92, "2025-10-15")
		submit(svc, "jake", "pebble-beach", 88, "2025-06-25")
		submit(svc, "jake", "sandpiper-golf-club", 85, "2025-11-02")
		submit(svc, "jake", "rustic-canyon-golf-course", 78, "2025-05-30")
		_, _, err := svc.SubmitRound(ctx, "", model.Round{
			UserID: "jake", CourseID: "olivas-links", PlayedOn: played("2025-04-01"), Score: 12,
			Holes: []model.HoleEntry{{Number: 1, Par: 4, Strokes: 4}, {Number: 2, Par: 4, Strokes: 4}, {Number: 3, Par: 4, Strokes: 4}},
		})
		So(err, ShouldBeNil)

		Convey("When nothing is stored", func() {
			list, err := svc.CourseRankings(ctx, "jake")

			Convey("Then courses are ranked by average 18-hole score", func() {
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 3)
				So(list[0].CourseID, ShouldEqual, "rustic-canyon-golf-course")
				So(list[0].Location, ShouldEqual, "Moorpark, CA")
				So(list[1].CourseID, ShouldEqual, "sandpiper-golf-club")
				So(list[2].Name, ShouldEqual, "Pebble Beach")
				So(list[2].Rank, ShouldEqual, 3)
				So(list[2].Rounds, ShouldEqual, 2)
				So(list[2].Average, ShouldEqual, 90.0)
			})
		})

		Convey("When jake stores a ranking by id and name", func() {
			list, err := svc.SetCourseRankings(ctx, "jake", []string{"sandpiper-golf-club", "Riviera Country Club", "alisal-river-course"})

			Convey("Then the stored order wins", func() {
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 3)
				So(list[0].Name, ShouldEqual, "Sandpiper Golf Club")
				So(list[1].CourseID, ShouldEqual, "riviera-country-club")
				So(list[2].Rank, ShouldEqual, 3)
				So(list[2].Location, ShouldEqual, "Solvang, CA")
				So(list[2].Rounds, ShouldEqual, 0)
			})

			Convey("Then storing an empty list falls back to rounds", func() {
				list, err := svc.SetCourseRankings(ctx, "jake", nil)
				So(err, ShouldBeNil)
				So(list[0].CourseID, ShouldEqual, "rustic-canyon-golf-course")
			})
		})

		Convey("When a ranking names an unknown or repeated course", func() {
			_, err := svc.SetCourseRankings(ctx, "jake", []string{"augusta"})
			So(errors.Is(err, service.ErrUnknownCourse), ShouldBeTrue)
			_, err = svc.SetCourseRankings(ctx, "jake", []string{"pebble-beach", "Pebble Beach"})
			So(errors.Is(err, repository.ErrInvalidRanking), ShouldBeTrue)
		})
	})
}

func TestService_SetHandicap(t *testing.T) {
	Convey("Given a profile", t, func() {
		ctx := context.Background()
		svc := newIdle()
		profiles(svc, model.UserProfile{ID: "jake", Username: "jake", Handicap: 12})

		Convey("When the handicap is changed", func() {
			So(svc.SetHandicap(ctx, "jake", 10.2), ShouldBeNil)
			p, err := svc.Profile(ctx, "jake")
			So(err, ShouldBeNil)
			So(p.Handicap, ShouldEqual, 10.2)
			So(p.Username, ShouldEqual, "jake")
		})

		Convey("When the handicap is out of range or the profile is unknown", func() {
			So(errors.Is(svc.SetHandicap(ctx, "jake", 60), service.ErrInvalidInput), ShouldBeTrue)
			So(errors.Is(svc.SetHandicap(ctx, "ghost", 5), repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

// midRebuild runs fn once, while the next full scan of rounds is read.
type midRebuild struct {
	backend.Backend
	fn func()
}

func (b *midRebuild) Select(ctx context.Context, table string, q backend.Query) ([]backend.Row, error) {
	rows, err := b.Backend.Select(ctx, table, q)
	if table == backend.Rounds && q.Limit == 0 && len(q.Where) == 0 && len(q.In) == 0 && b.fn != nil {
		fn := b.fn
		b.fn = nil
		fn()
	}
	return rows, err
}

func TestService_RebuildKeepsConcurrentUpdates(t *testing.T) {
	Convey("Given a rebuild that reads storage while a round is ranked", t, func() {
		ctx := context.Background()
		b := &midRebuild{Backend: backend.NewMemory()}
		svc := newIdle(service.WithBackend(b))
		submit(svc, "maya", "pebble-beach", 88, "2025-10-01")

		b.fn = func() {
			err := svc.HandleEvent(ctx, model.Event{
				Kind: model.EventRoundSubmitted, UserID: "leo", RoundID: "late", Score: 79, Holes: 18,
			})
			So(err, ShouldBeNil)
		}
		n, err := svc.RebuildLeaderboard(ctx)

		Convey("Then the update made during the build survives the swap", func() {
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)
			e, err := svc.Rank(ctx, "leo")
			So(err, ShouldBeNil)
			So(e.Rank, ShouldEqual, 1)
			So(e.RoundID, ShouldEqual, "late")
		})
	})
}
