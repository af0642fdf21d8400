package query

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/brandboard/internal/adapters/repository"
	"github.com/okian/brandboard/internal/adapters/repository/memory"
	"github.com/okian/brandboard/internal/domain/model"
	"github.com/okian/brandboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const fixtures = `
places:
  - {id: 1, name: Blue Bar, city_name: Lisbon, tags: "bar, music", rating: 4.5}
  - {id: 2, name: Green Garden, tags: '["park"]'}
likes:
  - {user_id: u1, place_id: 1, created_at: "2024-01-02T10:00:00Z"}
  - {user_id: u2, place_id: 1, created_at: "2024-01-10 09:30:00+00"}
  - {user_id: u1, place_id: 2, created_at: "2024-02-01 08:00:00"}
dislikes:
  - {user_id: u3, place_id: 1, created_at: "2024-01-03T12:00:00.123+02:00"}
profiles:
  - {id: u1, username: ana, first_name: Ana, is_onboarded: true}
  - {id: u2, username: bo, is_onboarded: false}
  - {id: u3, username: cy}
onboarding:
  - {id: u1, "1": 1, "2": 1, "4": 0}
  - {id: u2, "1": 1, "2": "1", "9": true}
  - {id: u9, "1": 1}
`

// counting records WhereIn calls and can be told to fail one table.
type counting struct {
	repository.Store
	whereIn  atomic.Int32
	failOn   string
	failWith error
}

func (c *counting) WhereEq(ctx context.Context, table, column, value string) ([]repository.Row, error) {
	if table == c.failOn {
		return nil, c.failWith
	}
	return c.Store.WhereEq(ctx, table, column, value)
}

func (c *counting) WhereIn(ctx context.Context, table, column string, values []string) ([]repository.Row, error) {
	c.whereIn.Add(1)
	if table == c.failOn {
		return nil, c.failWith
	}
	return c.Store.WhereIn(ctx, table, column, values)
}

func newQuerier(failOn string) (*Querier, *counting) {
	mem, err := memory.ParseFixtures([]byte(fixtures))
	if err != nil {
		panic(err)
	}
	store := &counting{Store: mem, failOn: failOn, failWith: errors.New("connection reset")}
	return New(store, WithLogger(logger.New(io.Discard))), store
}

func TestEngagementLookups(t *testing.T) {
	Convey("Given a seeded store", t, func() {
		ctx := context.Background()
		q, _ := newQuerier("")

		Convey("When fetching likes of a place", func() {
			likes, err := q.Likes(ctx, "1")

			Convey("Then both events are decoded with their timestamps", func() {
				So(err, ShouldBeNil)
				So(likes, ShouldHaveLength, 2)
				So(likes[0].UserID, ShouldEqual, "u1")
				So(likes[0].PlaceID, ShouldEqual, "1")
				So(likes[0].CreatedAt.Equal(time.Date(2024, time.January, 2, 10, 0, 0, 0, time.UTC)), ShouldBeTrue)
				So(likes[1].CreatedAt.Equal(time.Date(2024, time.January, 10, 9, 30, 0, 0, time.UTC)), ShouldBeTrue)
			})
		})

		Convey("When fetching dislikes with an offset timestamp", func() {
			dislikes, err := q.Dislikes(ctx, "1")

			Convey("Then the instant is preserved", func() {
				So(err, ShouldBeNil)
				So(dislikes, ShouldHaveLength, 1)
				So(dislikes[0].CreatedAt.Equal(time.Date(2024, time.January, 3, 10, 0, 0, 123000000, time.UTC)), ShouldBeTrue)
			})
		})

		Convey("When the place has no events", func() {
			likes, err := q.Likes(ctx, "404")

			Convey("Then an empty, non-nil slice is returned", func() {
				So(err, ShouldBeNil)
				So(likes, ShouldNotBeNil)
				So(likes, ShouldBeEmpty)
			})
		})
	})
}

func TestUserAttributes(t *testing.T) {
	Convey("Given a seeded store", t, func() {
		ctx := context.Background()
		q, store := newQuerier("")

		Convey("When merging profiles of likers", func() {
			users, err := q.LikingUserAttributes(ctx, "1")

			Convey("Then integral onboarding values become flags", func() {
				So(err, ShouldBeNil)
				So(users, ShouldHaveLength, 2)
				So(users[0].ID, ShouldEqual, "u1")
				So(users[0].Username, ShouldEqual, "ana")
				So(users[0].Flags, ShouldResemble, map[string]int{"1": 1, "2": 1, "4": 0})
				So(users[1].Flags, ShouldResemble, map[string]int{"1": 1})
			})
		})

		Convey("When a profile has no onboarding row", func() {
			users, err := q.DislikingUserAttributes(ctx, "1")

			Convey("Then it carries no flags", func() {
				So(err, ShouldBeNil)
				So(users, ShouldHaveLength, 1)
				So(users[0].ID, ShouldEqual, "u3")
				So(users[0].Flags, ShouldBeNil)
			})
		})

		Convey("When there are no events", func() {
			users, err := q.EngagedUserAttributes(ctx, nil)

			Convey("Then no set lookup is issued", func() {
				So(err, ShouldBeNil)
				So(users, ShouldNotBeNil)
				So(users, ShouldBeEmpty)
				So(store.whereIn.Load(), ShouldEqual, 0)
			})
		})

		Convey("When users repeat across events", func() {
			events := []model.Engagement{{UserID: "u1"}, {UserID: "u1"}, {UserID: "u9"}}
			users, err := q.EngagedUserAttributes(ctx, events)

			Convey("Then onboarding rows without a profile are dropped", func() {
				So(err, ShouldBeNil)
				So(users, ShouldHaveLength, 1)
				So(users[0].ID, ShouldEqual, "u1")
			})
		})
	})
}

func TestStoreFailures(t *testing.T) {
	Convey("Given a store whose dislikes table fails", t, func() {
		ctx := context.Background()
		q, _ := newQuerier("dislikes")

		_, err := q.Dislikes(ctx, "1")

		Convey("Then a StoreError wrapping the cause is returned", func() {
			var se *StoreError
			So(errors.As(err, &se), ShouldBeTrue)
			So(se.Op, ShouldEqual, "query.Dislikes")
			So(se.Table, ShouldEqual, "dislikes")
			So(errors.Is(err, ErrStore), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "connection reset")
		})

		Convey("Then likes are unaffected", func() {
			likes, err := q.Likes(ctx, "1")
			So(err, ShouldBeNil)
			So(likes, ShouldHaveLength, 2)
		})
	})

	Convey("Given a store whose onboarding table fails", t, func() {
		q, _ := newQuerier("onboarding")

		_, err := q.LikingUserAttributes(context.Background(), "1")

		Convey("Then the attribute lookup fails as a whole", func() {
			var se *StoreError
			So(errors.As(err, &se), ShouldBeTrue)
			So(se.Table, ShouldEqual, "onboarding")
		})
	})

	Convey("Given an event with an unreadable timestamp", t, func() {
		mem := memory.New()
		mem.Insert("likes", repository.Row{"user_id": "u1", "place_id": "1", "created_at": "yesterday"})
		q := New(mem, WithLogger(logger.New(io.Discard)))

		_, err := q.Likes(context.Background(), "1")

		Convey("Then the whole fetch fails", func() {
			So(errors.Is(err, ErrStore), ShouldBeTrue)
			So(errors.Is(err, ErrDecode), ShouldBeTrue)
		})
	})
}

func TestPlaces(t *testing.T) {
	Convey("Given a seeded store", t, func() {
		ctx := context.Background()
		q, _ := newQuerier("")

		Convey("When searching with mixed case", func() {
			places, err := q.SearchPlaces(ctx, "  bLuE ")

			Convey("Then names match case-insensitively", func() {
				So(err, ShouldBeNil)
				So(places, ShouldHaveLength, 1)
				So(places[0].Name, ShouldEqual, "Blue Bar")
				So(places[0].Tags, ShouldResemble, []string{"bar", "music"})
				So(places[0].Rating, ShouldEqual, 4.5)
			})
		})

		Convey("When the search term is empty", func() {
			places, err := q.SearchPlaces(ctx, "")

			Convey("Then every place is returned", func() {
				So(err, ShouldBeNil)
				So(places, ShouldHaveLength, 2)
				So(places[1].Tags, ShouldResemble, []string{"park"})
			})
		})

		Convey("When looking up a place by id", func() {
			p, err := q.Place(ctx, "2")
			So(err, ShouldBeNil)
			So(p.Name, ShouldEqual, "Green Garden")

			_, err = q.Place(ctx, "404")
			So(errors.Is(err, ErrUnknownPlace), ShouldBeTrue)
			So(errors.Is(err, ErrStore), ShouldBeFalse)
		})
	})
}

func TestIsOnboarded(t *testing.T) {
	Convey("Given profiles with and without the onboarding flag", t, func() {
		ctx := context.Background()
		q, _ := newQuerier("")

		ok, err := q.IsOnboarded(ctx, "u1")
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)

		ok, err = q.IsOnboarded(ctx, "u2")
		So(err, ShouldBeNil)
		So(ok, ShouldBeFalse)

		ok, err = q.IsOnboarded(ctx, "u3")
		So(err, ShouldBeNil)
		So(ok, ShouldBeFalse)

		Convey("Then a missing profile is a store error", func() {
			_, err := q.IsOnboarded(ctx, "ghost")
			So(errors.Is(err, ErrStore), ShouldBeTrue)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestDecoders(t *testing.T) {
	Convey("Given raw column values", t, func() {
		Convey("Then timestamps parse in every accepted form", func() {
			want := time.Date(2024, time.March, 5, 6, 7, 8, 0, time.UTC)
			for _, s := range []string{
				"2024-03-05T06:07:08Z",
				"2024-03-05 06:07:08",
				"2024-03-05 06:07:08+00",
				"2024-03-05 06:07:08+00:00",
				"2024-03-05T06:07:08",
			} {
				got, err := parseTime(s)
				So(err, ShouldBeNil)
				So(got.Equal(want), ShouldBeTrue)
			}
			_, err := parseTime(nil)
			So(errors.Is(err, ErrDecode), ShouldBeTrue)
			_, err = parseTime(42)
			So(errors.Is(err, ErrDecode), ShouldBeTrue)
		})

		Convey("Then only integral numbers are flags", func() {
			for _, v := range []any{1, int64(1), int32(1), uint8(1), 1.0, float32(1)} {
				n, ok := flag(v)
				So(ok, ShouldBeTrue)
				So(n, ShouldEqual, 1)
			}
			for _, v := range []any{true, "1", 1.5, nil, []byte("1")} {
				_, ok := flag(v)
				So(ok, ShouldBeFalse)
			}
		})

		Convey("Then ids render as text", func() {
			So(text(12), ShouldEqual, "12")
			So(text(12.0), ShouldEqual, "12")
			So(text([]byte("ab")), ShouldEqual, "ab")
			So(text(nil), ShouldEqual, "")
		})

		Convey("Then onboarding truthiness accepts common encodings", func() {
			So(truthy(true), ShouldBeTrue)
			So(truthy(int64(1)), ShouldBeTrue)
			So(truthy("t"), ShouldBeTrue)
			So(truthy("false"), ShouldBeFalse)
			So(truthy(nil), ShouldBeFalse)
		})
	})
}
