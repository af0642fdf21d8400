package timeline

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/okian/brandboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func at(y int, m time.Month, d int) model.Engagement {
	return model.Engagement{CreatedAt: time.Date(y, m, d, 12, 0, 0, 0, time.UTC), UserID: "u", PlaceID: "p"}
}

func labels(buckets []Bucket) []string {
	out := make([]string, len(buckets))
	for i, b := range buckets {
		out[i] = b.Label
	}
	return out
}

func TestBuildExamples(t *testing.T) {
	Convey("Given two January likes in different weeks and one dislike", t, func() {
		likes := []model.Engagement{at(2024, time.January, 2), at(2024, time.January, 10)}
		dislikes := []model.Engagement{at(2024, time.January, 3)}

		Convey("When building weekly buckets", func() {
			got := Build(likes, dislikes, Weekly, time.UTC)

			Convey("Then weeks 1 and 2 carry running totals", func() {
				So(got, ShouldHaveLength, 2)
				So(got[0].Label, ShouldEqual, "Week 1 Jan")
				So(got[0].DateRange, ShouldEqual, "1 - 7")
				So([]int{got[0].Likes, got[0].Dislikes, got[0].CumulativeLikes, got[0].CumulativeDislikes}, ShouldResemble, []int{1, 1, 1, 1})
				So(got[1].Label, ShouldEqual, "Week 2 Jan")
				So(got[1].DateRange, ShouldEqual, "8 - 14")
				So([]int{got[1].Likes, got[1].Dislikes, got[1].CumulativeLikes, got[1].CumulativeDislikes}, ShouldResemble, []int{1, 0, 2, 1})
			})
		})

		Convey("When building monthly buckets", func() {
			got := Build(likes, dislikes, Monthly, time.UTC)

			Convey("Then everything collapses into Jan", func() {
				So(got, ShouldHaveLength, 1)
				So(got[0].Label, ShouldEqual, "Jan")
				So(got[0].DateRange, ShouldEqual, "Jan")
				So([]int{got[0].Likes, got[0].Dislikes, got[0].CumulativeLikes, got[0].CumulativeDislikes}, ShouldResemble, []int{2, 1, 2, 1})
			})
		})

		Convey("When switching granularity back and forth", func() {
			Build(likes, dislikes, Monthly, time.UTC)
			again := Build(likes, dislikes, Weekly, time.UTC)

			Convey("Then the weekly view is recomputed from the events", func() {
				So(labels(again), ShouldResemble, []string{"Week 1 Jan", "Week 2 Jan"})
			})
		})
	})
}

func TestWeeklyRules(t *testing.T) {
	Convey("Given events near month boundaries in 2024", t, func() {
		Convey("When a day falls in a fifth week", func() {
			got := Build([]model.Engagement{at(2024, time.January, 29)}, nil, Weekly, time.UTC)

			Convey("Then it rolls over to week 1 of the window's end month", func() {
				So(got[0].Label, ShouldEqual, "Week 1 Feb")
				So(got[0].DateRange, ShouldEqual, "29 - 4")
			})
		})

		Convey("When a window spans two months early in the month", func() {
			got := Build([]model.Engagement{at(2024, time.February, 1)}, nil, Weekly, time.UTC)

			Convey("Then it is labelled week 1 of the end month", func() {
				So(got[0].Label, ShouldEqual, "Week 1 Feb")
			})
		})

		Convey("When the same label is reached from different windows", func() {
			likes := []model.Engagement{at(2024, time.March, 25)}
			dislikes := []model.Engagement{at(2024, time.March, 1)}
			got := Build(likes, dislikes, Weekly, time.UTC)

			Convey("Then the window of the first like is kept", func() {
				So(got, ShouldHaveLength, 1)
				So(got[0].Label, ShouldEqual, "Week 1 Mar")
				So(got[0].DateRange, ShouldEqual, "25 - 31")
				So(got[0].Likes, ShouldEqual, 1)
				So(got[0].Dislikes, ShouldEqual, 1)
			})
		})

		Convey("When labels would sort differently as strings", func() {
			likes := []model.Engagement{at(2024, time.April, 3), at(2024, time.February, 8), at(2024, time.January, 29), at(2024, time.January, 10)}
			got := Build(likes, nil, Weekly, time.UTC)

			Convey("Then buckets follow calendar month then week order", func() {
				So(labels(got), ShouldResemble, []string{"Week 2 Jan", "Week 1 Feb", "Week 2 Feb", "Week 1 Apr"})
				So(got[3].CumulativeLikes, ShouldEqual, 4)
			})
		})
	})
}

func TestMonthlyRules(t *testing.T) {
	Convey("Given events across years", t, func() {
		likes := []model.Engagement{at(2023, time.January, 5), at(2024, time.March, 1), at(2024, time.January, 20)}
		got := Build(likes, nil, Monthly, time.UTC)

		Convey("Then the same month of different years shares one bucket", func() {
			So(labels(got), ShouldResemble, []string{"Jan", "Mar"})
			So(got[0].Likes, ShouldEqual, 2)
		})
	})

	Convey("Given an event just before midnight UTC", t, func() {
		ev := model.Engagement{CreatedAt: time.Date(2024, time.January, 31, 23, 30, 0, 0, time.UTC)}

		Convey("Then the configured zone decides its month", func() {
			So(Build([]model.Engagement{ev}, nil, Monthly, time.UTC)[0].Label, ShouldEqual, "Jan")
			So(Build([]model.Engagement{ev}, nil, Monthly, time.FixedZone("UTC+2", 2*3600))[0].Label, ShouldEqual, "Feb")
			So(Build([]model.Engagement{ev}, nil, Monthly, nil)[0].Label, ShouldEqual, "Jan")
		})
	})
}

func TestBuildEmptyStreams(t *testing.T) {
	Convey("Given empty streams", t, func() {
		Convey("Then no buckets are produced", func() {
			So(Build(nil, nil, Weekly, time.UTC), ShouldBeEmpty)
			So(Build(nil, nil, Monthly, time.UTC), ShouldBeEmpty)
		})

		Convey("Then dislikes alone yield zero likes", func() {
			got := Build(nil, []model.Engagement{at(2024, time.May, 6)}, Weekly, time.UTC)
			So(got, ShouldHaveLength, 1)
			So(got[0].Likes, ShouldEqual, 0)
			So(got[0].CumulativeLikes, ShouldEqual, 0)
			So(got[0].CumulativeDislikes, ShouldEqual, 1)
		})
	})
}

func TestCumulativeProperties(t *testing.T) {
	Convey("Given random event streams", t, func() {
		rng := rand.New(rand.NewSource(42))
		base := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
		random := func(n int) []model.Engagement {
			out := make([]model.Engagement, n)
			for i := range out {
				out[i] = model.Engagement{CreatedAt: base.Add(time.Duration(rng.Int63n(int64(730 * 24 * time.Hour))))}
			}
			return out
		}

		for round := 0; round < 50; round++ {
			likes, dislikes := random(rng.Intn(60)), random(rng.Intn(60))
			for _, g := range []Granularity{Weekly, Monthly} {
				got := Build(likes, dislikes, g, time.UTC)
				if len(likes)+len(dislikes) == 0 {
					So(got, ShouldBeEmpty)
					continue
				}

				last := got[len(got)-1]
				So(last.CumulativeLikes, ShouldEqual, len(likes))
				So(last.CumulativeDislikes, ShouldEqual, len(dislikes))
				for i := 1; i < len(got); i++ {
					So(got[i].CumulativeLikes, ShouldBeGreaterThanOrEqualTo, got[i-1].CumulativeLikes)
					So(got[i].CumulativeDislikes, ShouldBeGreaterThanOrEqualTo, got[i-1].CumulativeDislikes)
					So(got[i].month*100+time.Month(got[i].week), ShouldBeGreaterThan, got[i-1].month*100+time.Month(got[i-1].week))
				}
			}
		}
	})
}

func TestParseGranularity(t *testing.T) {
	Convey("Given granularity strings", t, func() {
		g, err := ParseGranularity(" Monthly ")
		So(err, ShouldBeNil)
		So(g, ShouldEqual, Monthly)

		_, err = ParseGranularity("daily")
		So(errors.Is(err, ErrUnknownGranularity), ShouldBeTrue)
	})
}
