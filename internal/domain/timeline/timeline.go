// Package timeline groups like and dislike events into weekly or monthly
// buckets and computes cumulative totals over them.
package timeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/brandboard/internal/domain/model"
)

// Granularity selects the bucket size.
type Granularity string

const (
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// ParseGranularity accepts weekly or monthly, case-insensitively.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case Weekly, Monthly:
		return g, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
	}
}

// weeksPerMonth is the highest ordinal a week keeps before rolling over.
const weeksPerMonth = 4

// Bucket is one point of the engagement timeline.
type Bucket struct {
	Label              string `json:"bucket"`
	DateRange          string `json:"date_range"`
	Likes              int    `json:"likes"`
	Dislikes           int    `json:"dislikes"`
	CumulativeLikes    int    `json:"cumulative_likes"`
	CumulativeDislikes int    `json:"cumulative_dislikes"`

	month time.Month
	week  int
}

// key identifies a bucket and carries what sorting needs.
type key struct {
	label     string
	dateRange string
	month     time.Month
	week      int
}

// Build buckets likes and dislikes at granularity g and returns them in
// calendar order with running totals. Timestamps are converted to loc first;
// a nil loc means UTC.
func Build(likes, dislikes []model.Engagement, g Granularity, loc *time.Location) []Bucket {
	if loc == nil {
		loc = time.UTC
	}
	keyOf := weekKey
	if g == Monthly {
		keyOf = monthKey
	}

	index := make(map[string]int)
	buckets := make([]Bucket, 0)
	add := func(ts time.Time, like bool) {
		k := keyOf(ts.In(loc))
		i, ok := index[k.label]
		if !ok {
			i = len(buckets)
			index[k.label] = i
			buckets = append(buckets, Bucket{Label: k.label, DateRange: k.dateRange, month: k.month, week: k.week})
		}
		if like {
			buckets[i].Likes++
		} else {
			buckets[i].Dislikes++
		}
	}

	// Likes first: a bucket keeps the window of the event that created it.
	for _, e := range likes {
		add(e.CreatedAt, true)
	}
	for _, e := range dislikes {
		add(e.CreatedAt, false)
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		if buckets[i].month != buckets[j].month {
			return buckets[i].month < buckets[j].month
		}
		return buckets[i].week < buckets[j].week
	})

	accumulate(buckets)
	return buckets
}

func accumulate(buckets []Bucket) {
	var likes, dislikes int
	for i := range buckets {
		likes += buckets[i].Likes
		dislikes += buckets[i].Dislikes
		buckets[i].CumulativeLikes = likes
		buckets[i].CumulativeDislikes = dislikes
	}
}

func monthKey(t time.Time) key {
	label := shortMonth(t.Month())
	return key{label: label, dateRange: label, month: t.Month()}
}

// weekKey labels t with a Monday-anchored week ordinal within its month.
// Ordinals above four roll over to week one of the window's end month, and a
// window spanning two months goes to the end month unless t is past the 15th.
func weekKey(t time.Time) key {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())

	start := day.AddDate(0, 0, -mondayOffset(day.Weekday()))
	end := start.AddDate(0, 0, 6)
	dateRange := fmt.Sprintf("%d - %d", start.Day(), end.Day())

	first := mondayOffset(time.Date(y, m, 1, 0, 0, 0, 0, t.Location()).Weekday())
	week := (d + first + 6) / 7

	month := m
	switch {
	case week > weeksPerMonth:
		week, month = 1, end.Month()
	case start.Month() != end.Month() && d <= 15:
		week, month = 1, end.Month()
	}

	return key{
		label:     fmt.Sprintf("Week %d %s", week, shortMonth(month)),
		dateRange: dateRange,
		month:     month,
		week:      week,
	}
}

// mondayOffset maps Monday to 0 and Sunday to 6.
func mondayOffset(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

func shortMonth(m time.Month) string {
	return m.String()[:3]
}
