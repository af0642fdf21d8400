package breaker

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/okian/brandboard/internal/adapters/repository"
	"github.com/okian/brandboard/internal/adapters/repository/memory"
	"github.com/okian/brandboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var errDown = errors.New("connection refused")

// flaky fails every call until healed.
type flaky struct {
	repository.Store
	calls  atomic.Int32
	broken atomic.Bool
}

func (f *flaky) WhereEq(ctx context.Context, table, column, value string) ([]repository.Row, error) {
	f.calls.Add(1)
	if f.broken.Load() {
		return nil, errDown
	}
	return f.Store.WhereEq(ctx, table, column, value)
}

func (f *flaky) Single(ctx context.Context, table, column, value string) (repository.Row, error) {
	f.calls.Add(1)
	if f.broken.Load() {
		return nil, errDown
	}
	return f.Store.Single(ctx, table, column, value)
}

func newFlaky() *flaky {
	mem := memory.New()
	mem.Insert("likes", repository.Row{"user_id": "u1", "place_id": "p1"})
	mem.Insert("profiles", repository.Row{"id": "u1"})
	return &flaky{Store: mem}
}

func TestBreaker(t *testing.T) {
	_ = logger.Init()

	Convey("Given a breaker over a backend", t, func() {
		ctx := context.Background()
		backend := newFlaky()
		s := New("test-store", backend,
			WithTripThreshold(2, 0.5),
			WithTimeout(50*time.Millisecond),
			WithLogger(logger.New(io.Discard)))

		Convey("When the backend is healthy", func() {
			rows, err := s.WhereEq(ctx, "likes", "place_id", "p1")

			Convey("Then calls pass through", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 1)
				So(s.State(), ShouldEqual, gobreaker.StateClosed.String())
			})
		})

		Convey("When the backend keeps failing", func() {
			backend.broken.Store(true)
			_, err1 := s.WhereEq(ctx, "likes", "place_id", "p1")
			_, err2 := s.WhereEq(ctx, "likes", "place_id", "p1")
			_, err3 := s.WhereEq(ctx, "likes", "place_id", "p1")

			Convey("Then the breaker opens and sheds calls", func() {
				So(errors.Is(err1, errDown), ShouldBeTrue)
				So(errors.Is(err2, errDown), ShouldBeTrue)
				So(errors.Is(err3, ErrUnavailable), ShouldBeTrue)
				So(backend.calls.Load(), ShouldEqual, 2)
				So(s.State(), ShouldEqual, gobreaker.StateOpen.String())
			})

			Convey("Then it recovers once the backend heals", func() {
				backend.broken.Store(false)
				time.Sleep(80 * time.Millisecond)
				rows, err := s.WhereEq(ctx, "likes", "place_id", "p1")
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 1)
				So(s.State(), ShouldEqual, gobreaker.StateClosed.String())
			})
		})

		Convey("When lookups find nothing", func() {
			for i := 0; i < 5; i++ {
				_, err := s.Single(ctx, "profiles", "id", "nobody")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			}

			Convey("Then the breaker stays closed", func() {
				So(s.State(), ShouldEqual, gobreaker.StateClosed.String())
			})
		})

		Convey("When a set lookup is empty", func() {
			rows, err := s.WhereIn(ctx, "profiles", "id", nil)

			Convey("Then nothing is queried", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldBeEmpty)
			})
		})
	})
}
