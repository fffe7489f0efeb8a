package model_test

import (
	"errors"
	"testing"

	"github.com/okian/golfr/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func holes(strokes ...int) []model.HoleEntry {
	out := make([]model.HoleEntry, len(strokes))
	for i, s := range strokes {
		out[i] = model.HoleEntry{Number: i + 1, Par: 4, Strokes: s}
	}
	return out
}

func TestHoleEntryLabel(t *testing.T) {
	Convey("Given hole results relative to par 4", t, func() {
		cases := []struct {
			strokes int
			label   string
		}{
			{1, "Eagle"},
			{2, "Eagle"},
			{3, "Birdie"},
			{4, "Par"},
			{5, "Bogey"},
			{6, "Double Bogey"},
			{7, "+3"},
			{10, "+6"},
		}

		for _, c := range cases {
			h := model.HoleEntry{Number: 1, Par: 4, Strokes: c.strokes}
			So(h.Label(), ShouldEqual, c.label)
			So(h.ToPar(), ShouldEqual, c.strokes-4)
		}
	})
}

func TestRoundValidate(t *testing.T) {
	Convey("Given a round", t, func() {
		r := model.Round{UserID: "u1", Score: 13, Holes: holes(4, 5, 4)}

		Convey("When the breakdown matches the score", func() {
			Convey("Then it is valid", func() {
				So(r.Validate(), ShouldBeNil)
				So(r.Par(), ShouldEqual, 12)
				So(r.HoleCount(), ShouldEqual, 3)
			})
		})

		Convey("When the strokes do not add up", func() {
			r.Score = 14

			Convey("Then it is rejected", func() {
				err := r.Validate()
				So(errors.Is(err, model.ErrInvalidRound), ShouldBeTrue)
			})
		})

		Convey("When hole numbers skip", func() {
			r.Holes[2].Number = 4

			Convey("Then it is rejected as an invalid hole", func() {
				So(errors.Is(r.Validate(), model.ErrInvalidHole), ShouldBeTrue)
			})
		})

		Convey("When hole numbers repeat", func() {
			r.Holes[1].Number = 1

			Convey("Then it is rejected", func() {
				So(errors.Is(r.Validate(), model.ErrInvalidHole), ShouldBeTrue)
			})
		})

		Convey("When a hole has zero strokes", func() {
			r.Holes = holes(4, 0, 4)
			r.Score = 8

			Convey("Then it is rejected", func() {
				So(errors.Is(r.Validate(), model.ErrInvalidHole), ShouldBeTrue)
			})
		})

		Convey("When there is no breakdown", func() {
			r.Holes = nil
			r.Score = 87

			Convey("Then only the score is checked", func() {
				So(r.Validate(), ShouldBeNil)
				So(r.HoleCount(), ShouldEqual, 18)
				So(r.Par(), ShouldEqual, 0)
			})
		})

		Convey("When the score is zero or the user is missing", func() {
			So(errors.Is(model.Round{UserID: "u1"}.Validate(), model.ErrInvalidRound), ShouldBeTrue)
			So(errors.Is(model.Round{Score: 80}.Validate(), model.ErrInvalidRound), ShouldBeTrue)
		})
	})
}

func TestCourseFacilities(t *testing.T) {
	Convey("Given courses with different facilities", t, func() {
		So(model.Course{HasDrivingRange: true}.HasPracticeFacility(), ShouldBeTrue)
		So(model.Course{HasPuttingGreen: true}.HasPracticeFacility(), ShouldBeTrue)
		So(model.Course{}.HasPracticeFacility(), ShouldBeFalse)
		So(model.Course{Rating: 72.1, Slope: 131}.Rated(), ShouldBeTrue)
		So(model.Course{Rating: 72.1}.Rated(), ShouldBeFalse)
	})
}
