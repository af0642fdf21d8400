package probe

import "fmt"

// Verify checks the aggregation invariants a rendered view must satisfy and
// returns one error per violation.
func Verify(v View) []error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("place %s (%s): "+format, append([]any{v.PlaceID, v.Granularity}, args...)...))
	}

	buckets := v.Timeline.Buckets
	seen := make(map[string]bool, len(buckets))
	var likes, dislikes int
	for i, b := range buckets {
		if seen[b.Label] {
			fail("duplicate bucket %q", b.Label)
		}
		seen[b.Label] = true

		likes += b.Likes
		dislikes += b.Dislikes
		if b.CumulativeLikes != likes || b.CumulativeDislikes != dislikes {
			fail("bucket %q cumulative %d/%d, want %d/%d", b.Label, b.CumulativeLikes, b.CumulativeDislikes, likes, dislikes)
		}
		if i > 0 && (b.CumulativeLikes < buckets[i-1].CumulativeLikes || b.CumulativeDislikes < buckets[i-1].CumulativeDislikes) {
			fail("bucket %q decreases", b.Label)
		}
	}

	if v.Impressions.Error == "" && v.Timeline.Error == "" {
		if len(buckets) == 0 && v.Impressions.Likes+v.Impressions.Dislikes > 0 {
			fail("no buckets for %d events", v.Impressions.Likes+v.Impressions.Dislikes)
		}
		if len(buckets) > 0 {
			last := buckets[len(buckets)-1]
			if last.CumulativeLikes != v.Impressions.Likes || last.CumulativeDislikes != v.Impressions.Dislikes {
				fail("final totals %d/%d, impressions %d/%d",
					last.CumulativeLikes, last.CumulativeDislikes, v.Impressions.Likes, v.Impressions.Dislikes)
			}
		}
	}

	if v.Attributes.Error == "" && v.Impressions.Error == "" {
		for _, row := range v.Attributes.Rows {
			if row.Likes > v.Impressions.Likes || row.Dislikes > v.Impressions.Dislikes {
				fail("attribute %q counts %d/%d exceed impressions", row.Attribute, row.Likes, row.Dislikes)
			}
		}
	}
	return errs
}
