package repository

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCheckIdent(t *testing.T) {
	Convey("Given table and column names", t, func() {
		So(CheckIdent("likes", "place_id"), ShouldBeNil)
		So(errors.Is(CheckIdent("likes", "place_id = 1 or 1"), ErrInvalidIdentifier), ShouldBeTrue)
		So(errors.Is(CheckIdent(""), ErrInvalidIdentifier), ShouldBeTrue)
	})
}

func TestOne(t *testing.T) {
	Convey("Given result sets of different sizes", t, func() {
		_, err := One(nil)
		So(errors.Is(err, ErrNotFound), ShouldBeTrue)

		row, err := One([]Row{{"id": "u1"}})
		So(err, ShouldBeNil)
		So(row["id"], ShouldEqual, "u1")

		_, err = One([]Row{{"id": "u1"}, {"id": "u1"}})
		So(errors.Is(err, ErrMultipleRows), ShouldBeTrue)
	})
}
