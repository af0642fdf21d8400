package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/okian/brandboard/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

func openSQLite(ctx context.Context) *Store {
	s, err := Open(ctx, "sqlite", ":memory:",
		WithSchema(`CREATE TABLE places (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`),
		WithSchema(`CREATE TABLE likes (created_at TEXT, user_id TEXT, place_id INTEGER)`),
		WithSchema(`CREATE TABLE profiles (id TEXT PRIMARY KEY, username TEXT, is_onboarded INTEGER)`),
		WithSchema(`INSERT INTO places (id, name) VALUES (1, 'Blue Bar'), (2, 'Green Room')`),
		WithSchema(`INSERT INTO likes VALUES ('2024-01-02T10:00:00Z', 'u1', 1), ('2024-01-10T10:00:00Z', 'u2', 1), ('2024-01-11T10:00:00Z', 'u1', 2)`),
		WithSchema(`INSERT INTO profiles VALUES ('u1', 'ann', 1), ('u2', 'bob', 0)`),
	)
	So(err, ShouldBeNil)
	return s
}

func TestSQLiteStore(t *testing.T) {
	Convey("Given an in-memory SQLite store", t, func() {
		ctx := context.Background()
		s := openSQLite(ctx)
		defer func() { _ = s.Close() }()

		Convey("When reading all places", func() {
			rows, err := s.All(ctx, "places")

			Convey("Then both rows come back with native types", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 2)
				So(rows[0]["name"], ShouldEqual, "Blue Bar")
			})
		})

		Convey("When filtering an integer column by a string id", func() {
			rows, err := s.WhereEq(ctx, "likes", "place_id", "1")

			Convey("Then the text comparison matches", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 2)
			})
		})

		Convey("When filtering with a set", func() {
			rows, err := s.WhereIn(ctx, "profiles", "id", []string{"u1", "u2", "u3"})

			Convey("Then only existing members match", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 2)
			})
		})

		Convey("When reading single rows", func() {
			row, err := s.Single(ctx, "profiles", "id", "u2")
			_, missing := s.Single(ctx, "profiles", "id", "nobody")
			_, many := s.Single(ctx, "likes", "user_id", "u1")

			Convey("Then exactly-one semantics hold", func() {
				So(err, ShouldBeNil)
				So(row["username"], ShouldEqual, "bob")
				So(errors.Is(missing, repository.ErrNotFound), ShouldBeTrue)
				So(errors.Is(many, repository.ErrMultipleRows), ShouldBeTrue)
			})
		})

		Convey("When the table does not exist", func() {
			_, err := s.All(ctx, "dislikes")

			Convey("Then the driver error surfaces", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "sqlstore.All")
			})
		})

		Convey("When an identifier is unsafe", func() {
			_, err := s.WhereEq(ctx, "likes", `place_id" OR 1=1 --`, "1")

			Convey("Then it is rejected before reaching the database", func() {
				So(errors.Is(err, repository.ErrInvalidIdentifier), ShouldBeTrue)
			})
		})
	})
}

func TestSQLMockStore(t *testing.T) {
	Convey("Given a store over a mocked database", t, func() {
		ctx := context.Background()
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		So(err, ShouldBeNil)
		defer func() { _ = db.Close() }()

		Convey("When the query fails", func() {
			mock.ExpectQuery(`SELECT * FROM "likes" WHERE CAST("place_id" AS TEXT) = ?`).
				WithArgs("7").
				WillReturnError(errors.New("connection reset"))

			_, err := New(db, SQLite).WhereEq(ctx, "likes", "place_id", "7")

			Convey("Then the error is wrapped with the operation", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldEqual, "sqlstore.WhereEq: connection reset")
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})

		Convey("When a row fails mid-iteration", func() {
			rows := sqlmock.NewRows([]string{"id"}).AddRow("u1").AddRow("u2").RowError(1, errors.New("bad row"))
			mock.ExpectQuery(`SELECT * FROM "profiles"`).WillReturnRows(rows)

			_, err := New(db, SQLite).All(ctx, "profiles")

			Convey("Then the partial read is discarded", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "bad row")
			})
		})

		Convey("When the MySQL dialect reads a set", func() {
			mock.ExpectQuery("SELECT * FROM `profiles` WHERE CAST(`id` AS CHAR) IN (?, ?)").
				WithArgs("u1", "u2").
				WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow([]byte("u1"), []byte("ann")))

			rows, err := New(db, MySQL).WhereIn(ctx, "profiles", "id", []string{"u1", "u2"})

			Convey("Then identifiers use backticks and bytes become strings", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 1)
				So(rows[0]["username"], ShouldEqual, "ann")
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})

		Convey("When reading a set with no values", func() {
			rows, err := New(db, SQLite).WhereIn(ctx, "profiles", "id", nil)

			Convey("Then no query is issued", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldBeEmpty)
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})

		Convey("When reading a single row", func() {
			mock.ExpectQuery(`SELECT * FROM "profiles" WHERE CAST("id" AS TEXT) = ? LIMIT 2`).
				WithArgs("u1").
				WillReturnRows(sqlmock.NewRows([]string{"id", "is_onboarded"}).AddRow("u1", int64(1)))

			row, err := New(db, SQLite).Single(ctx, "profiles", "id", "u1")

			Convey("Then the query is capped at two rows", func() {
				So(err, ShouldBeNil)
				So(row["is_onboarded"], ShouldEqual, int64(1))
			})
		})
	})
}

func TestDialectFor(t *testing.T) {
	Convey("Given driver names", t, func() {
		d, err := DialectFor("mysql")
		So(err, ShouldBeNil)
		So(d.Driver, ShouldEqual, "mysql")

		_, err = DialectFor("oracle")
		So(errors.Is(err, ErrUnsupportedDriver), ShouldBeTrue)
	})
}
