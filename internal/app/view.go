package service

import (
	"errors"
	"time"

	"github.com/okian/brandboard/internal/domain/attributes"
	"github.com/okian/brandboard/internal/domain/model"
	"github.com/okian/brandboard/internal/domain/selection"
	"github.com/okian/brandboard/internal/domain/timeline"
	"github.com/okian/brandboard/pkg/metrics"
)

// View is a rendered dashboard. Sections whose lookups failed are empty and
// carry the failure text.
type View struct {
	PlaceID     string               `json:"place_id,omitempty"`
	Place       *model.Place         `json:"place,omitempty"`
	State       selection.State      `json:"state"`
	Generation  uint64               `json:"generation,omitempty"`
	Granularity timeline.Granularity `json:"granularity"`
	Impressions Impressions          `json:"impressions"`
	Timeline    TimelineSection      `json:"timeline"`
	Attributes  AttributesSection    `json:"attributes"`
	UpdatedAt   *time.Time           `json:"updated_at,omitempty"`
}

// Impressions is the like/dislike split.
type Impressions struct {
	Likes    int    `json:"likes"`
	Dislikes int    `json:"dislikes"`
	Error    string `json:"error,omitempty"`
}

// TimelineSection holds the cumulative series.
type TimelineSection struct {
	Buckets []timeline.Bucket `json:"buckets"`
	Error   string            `json:"error,omitempty"`
}

// AttributesSection holds one tally row per taxonomy entry.
type AttributesSection struct {
	Rows  []attributes.Tally `json:"rows"`
	Error string             `json:"error,omitempty"`
}

// Render turns a load result into a view at granularity g.
func (s *Service) Render(r selection.Result, g timeline.Granularity) View {
	if g == "" {
		g = s.granularity
	}

	likes, likesErr := r.Likes.Get()
	dislikes, dislikesErr := r.Dislikes.Get()
	likers, likersErr := r.Likers.Get()
	dislikers, dislikersErr := r.Dislikers.Get()

	v := View{
		State:       r.State(),
		Granularity: g,
		Impressions: Impressions{
			Likes:    len(likes),
			Dislikes: len(dislikes),
			Error:    errText(likesErr, dislikesErr),
		},
		Timeline: TimelineSection{
			Buckets: timeline.Build(likes, dislikes, g, s.location),
			Error:   errText(likesErr, dislikesErr),
		},
		Attributes: AttributesSection{
			Rows:  s.taxonomy.Tally(likers, dislikers),
			Error: errText(likersErr, dislikersErr),
		},
	}

	metrics.RecordDashboardRendered(string(g))
	metrics.RecordAttributeUsers("likers", len(likers))
	metrics.RecordAttributeUsers("dislikers", len(dislikers))
	return v
}

func errText(errs ...error) string {
	if err := errors.Join(errs...); err != nil {
		return err.Error()
	}
	return ""
}
