package mongostore

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFilters(t *testing.T) {
	Convey("Given text values for lookups", t, func() {
		Convey("When filtering on id", func() {
			f := EqFilter("id", "42")

			Convey("Then _id is matched as string and integers", func() {
				So(f, ShouldResemble, bson.M{"_id": bson.M{"$in": bson.A{"42", int64(42), int32(42)}}})
			})
		})

		Convey("When the id does not fit in 32 bits", func() {
			f := EqFilter("place_id", "4294967297")
			neg := EqFilter("place_id", "-2147483649")

			Convey("Then no truncated int32 form is matched", func() {
				So(f, ShouldResemble, bson.M{"place_id": bson.M{"$in": bson.A{"4294967297", int64(4294967297)}}})
				So(neg, ShouldResemble, bson.M{"place_id": bson.M{"$in": bson.A{"-2147483649", int64(-2147483649)}}})
			})
		})

		Convey("When the id sits on the int32 boundary", func() {
			f := EqFilter("place_id", "2147483647")

			Convey("Then the int32 form is still matched", func() {
				So(f, ShouldResemble, bson.M{"place_id": bson.M{"$in": bson.A{"2147483647", int64(2147483647), int32(2147483647)}}})
			})
		})

		Convey("When the value is an object id", func() {
			hex := "65a1b2c3d4e5f60718293a4b"
			oid, _ := primitive.ObjectIDFromHex(hex)
			f := EqFilter("user_id", hex)

			Convey("Then the object id form is included", func() {
				So(f, ShouldResemble, bson.M{"user_id": bson.M{"$in": bson.A{hex, oid}}})
			})
		})

		Convey("When filtering on a set", func() {
			f := InFilter("place_id", []string{"a", "7"})

			Convey("Then every form of every value is listed", func() {
				So(f, ShouldResemble, bson.M{"place_id": bson.M{"$in": bson.A{"a", "7", int64(7), int32(7)}}})
			})
		})
	})
}

func TestFromDocument(t *testing.T) {
	Convey("Given a mongo document", t, func() {
		oid := primitive.NewObjectID()
		ts := time.Date(2024, time.January, 2, 10, 0, 0, 0, time.UTC)
		row := FromDocument(bson.M{
			"_id":        oid,
			"created_at": primitive.NewDateTimeFromTime(ts),
			"tags":       primitive.A{"bar", "music"},
			"name":       "Blue Bar",
		})

		Convey("Then it reads like a relational row", func() {
			So(row["id"], ShouldEqual, oid.Hex())
			So(row["created_at"], ShouldEqual, ts)
			So(row["tags"], ShouldResemble, []any{"bar", "music"})
			So(row["name"], ShouldEqual, "Blue Bar")
			_, hasRawID := row["_id"]
			So(hasRawID, ShouldBeFalse)
		})
	})
}
