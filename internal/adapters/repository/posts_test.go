package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/golfr/internal/adapters/repository"
	"github.com/okian/golfr/internal/domain/catalog"
	"github.com/okian/golfr/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStorePosts(t *testing.T) {
	ctx := context.Background()

	Convey("Given posts by two users", t, func() {
		s, _ := newStore()
		first, err := s.AddPost(ctx, "jake", "  Who's up for #RusticCanyon? @jaxonsmith @jack  ")
		So(err, ShouldBeNil)
		_, err = s.AddPost(ctx, "jack", "Working on my swing at the range.")
		So(err, ShouldBeNil)

		Convey("When a post is read back", func() {
			p, err := s.Post(ctx, first.ID)

			Convey("Then content is trimmed and tags survive storage", func() {
				So(err, ShouldBeNil)
				So(p.Content, ShouldEqual, "Who's up for #RusticCanyon? @jaxonsmith @jack")
				So(p.TaggedUsers, ShouldResemble, []string{"jaxonsmith", "jack"})
				So(p.TaggedCourses, ShouldResemble, []string{"RusticCanyon"})
				So(p.CreatedAt.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When posts are listed", func() {
			all, err := s.Posts(ctx, nil, 0)
			So(err, ShouldBeNil)
			mine, err := s.Posts(ctx, []string{"jake"}, 0)
			So(err, ShouldBeNil)

			Convey("Then they come newest first and filter by author", func() {
				So(len(all), ShouldEqual, 2)
				So(all[0].UserID, ShouldEqual, "jack")
				So(all[0].TaggedUsers, ShouldBeNil)
				So(len(mine), ShouldEqual, 1)
				So(mine[0].ID, ShouldEqual, first.ID)
			})
		})

		Convey("When a post is missing or blank", func() {
			_, err := s.Post(ctx, "nope")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			_, err = s.AddPost(ctx, "jake", " ")
			So(errors.Is(err, repository.ErrInvalidPost), ShouldBeTrue)
			_, err = s.AddPost(ctx, "", "hi")
			So(errors.Is(err, repository.ErrInvalidPost), ShouldBeTrue)
		})
	})
}

func TestStoreSearchProfiles(t *testing.T) {
	ctx := context.Background()

	Convey("Given three profiles", t, func() {
		s, _ := newStore()
		for _, p := range []model.UserProfile{
			{ID: "jake", Username: "jake", DisplayName: "Jake Shockley"},
			{ID: "jack", Username: "jack", DisplayName: "Jack Burke"},
			{ID: "maya", Username: "maya_golf"},
		} {
			So(s.UpsertProfile(ctx, p), ShouldBeNil)
		}

		Convey("Then the term matches name or username ignoring case", func() {
			found, err := s.SearchProfiles(ctx, "BURKE", 0)
			So(err, ShouldBeNil)
			So(len(found), ShouldEqual, 1)
			So(found[0].ID, ShouldEqual, "jack")

			found, err = s.SearchProfiles(ctx, "golf", 0)
			So(err, ShouldBeNil)
			So(len(found), ShouldEqual, 1)
			So(found[0].DisplayName, ShouldEqual, "maya_golf")
		})

		Convey("Then an empty term lists everyone oldest first up to the limit", func() {
			found, err := s.SearchProfiles(ctx, "", 2)
			So(err, ShouldBeNil)
			So(len(found), ShouldEqual, 2)
			So(found[0].ID, ShouldEqual, "jake")
			So(found[1].ID, ShouldEqual, "jack")
		})
	})
}

func TestStoreCourseRankings(t *testing.T) {
	ctx := context.Background()

	Convey("Given the seeded catalog", t, func() {
		s, _ := newStore()
		_, err := s.SeedCourses(ctx, catalog.Default())
		So(err, ShouldBeNil)

		Convey("When a ranking is stored and replaced", func() {
			So(s.SetCourseRankings(ctx, "jake", []string{"pebble-beach", "sandpiper-golf-club"}), ShouldBeNil)
			So(s.SetCourseRankings(ctx, "jake", []string{"sandpiper-golf-club", "riviera-country-club", "retired-course"}), ShouldBeNil)
			list, err := s.CourseRankings(ctx, "jake")

			Convey("Then only the latest order is kept", func() {
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 3)
				So(list[0].Rank, ShouldEqual, 1)
				So(list[0].Name, ShouldEqual, "Sandpiper Golf Club")
				So(list[0].Location, ShouldEqual, "Goleta, CA")
				So(list[1].CourseID, ShouldEqual, "riviera-country-club")
				So(list[2].Name, ShouldEqual, repository.UnknownCourse)
			})

			Convey("Then other users are unaffected", func() {
				list, err := s.CourseRankings(ctx, "jack")
				So(err, ShouldBeNil)
				So(list, ShouldBeEmpty)
			})
		})

		Convey("When a ranking repeats a course", func() {
			err := s.SetCourseRankings(ctx, "jake", []string{"pebble-beach", "pebble-beach"})
			So(errors.Is(err, repository.ErrInvalidRanking), ShouldBeTrue)
		})
	})
}
