package model_test

import (
	"context"
	"testing"

	model "github.com/okian/brandboard/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestUserIDs(t *testing.T) {
	convey.Convey("Given engagement events with repeated users", t, func() {
		events := []model.Engagement{{UserID: "u2"}, {UserID: "u1"}, {UserID: "u2"}, {UserID: "u3"}}

		convey.Convey("Then UserIDs keeps first-seen order without duplicates", func() {
			convey.So(model.UserIDs(events), convey.ShouldResemble, []string{"u2", "u1", "u3"})
		})

		convey.Convey("Then no events yields an empty, non-nil slice", func() {
			ids := model.UserIDs(nil)
			convey.So(ids, convey.ShouldNotBeNil)
			convey.So(len(ids), convey.ShouldEqual, 0)
		})
	})
}

func TestUserAttributesFlag(t *testing.T) {
	convey.Convey("Given a user with some flags", t, func() {
		u := model.UserAttributes{ID: "u1", Flags: map[string]int{"1": 1, "2": 0}}

		v, ok := u.Flag("1")
		convey.So(v, convey.ShouldEqual, 1)
		convey.So(ok, convey.ShouldBeTrue)
		_, ok = u.Flag("9")
		convey.So(ok, convey.ShouldBeFalse)

		convey.Convey("Then a profile without onboarding carries no flags", func() {
			_, ok := model.UserAttributes{ID: "u2"}.Flag("1")
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}

func TestLoadJobContext(t *testing.T) {
	convey.Convey("Given load jobs", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		job := model.NewLoadJob(ctx, "viewer", "p1", 3)

		convey.So(job.Generation, convey.ShouldEqual, 3)
		convey.So(job.Context().Err(), convey.ShouldBeNil)
		cancel()
		convey.So(job.Context().Err(), convey.ShouldNotBeNil)

		convey.Convey("Then a zero job still has a context", func() {
			convey.So(model.LoadJob{}.Context(), convey.ShouldNotBeNil)
		})
	})
}
