// Package attributes tallies how many liking and disliking users carry each
// trait of a configured taxonomy.
package attributes

import (
	"fmt"

	"github.com/okian/brandboard/internal/domain/model"
)

// Entry maps one onboarding flag key to its display label.
type Entry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Taxonomy is the ordered list of traits to tally.
type Taxonomy []Entry

// DefaultTaxonomy is the onboarding trait set used when none is configured.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		{Key: "1", Label: "Nightlife Enthusiast"},
		{Key: "2", Label: "Luxury-Seeking"},
		{Key: "4", Label: "Solitary"},
		{Key: "9", Label: "Adventurous"},
		{Key: "10", Label: "Social"},
	}
}

// Validate rejects empty keys, empty labels and duplicate keys.
func (t Taxonomy) Validate() error {
	if len(t) == 0 {
		return ErrEmptyTaxonomy
	}
	seen := make(map[string]struct{}, len(t))
	for i, e := range t {
		if e.Key == "" || e.Label == "" {
			return fmt.Errorf("%w: entry %d needs key and label", ErrInvalidTaxonomy, i)
		}
		if _, dup := seen[e.Key]; dup {
			return fmt.Errorf("%w: duplicate key %q", ErrInvalidTaxonomy, e.Key)
		}
		seen[e.Key] = struct{}{}
	}
	return nil
}

// Tally is one row of the attribute breakdown.
type Tally struct {
	Attribute string `json:"attribute"`
	Likes     int    `json:"likesData"`
	Dislikes  int    `json:"dislikesData"`
}

// Tally counts, for each taxonomy entry in order, the users whose flag equals 1.
func (t Taxonomy) Tally(likers, dislikers []model.UserAttributes) []Tally {
	out := make([]Tally, len(t))
	for i, e := range t {
		out[i] = Tally{
			Attribute: e.Label,
			Likes:     countFlagged(likers, e.Key),
			Dislikes:  countFlagged(dislikers, e.Key),
		}
	}
	return out
}

func countFlagged(users []model.UserAttributes, key string) int {
	n := 0
	for _, u := range users {
		if v, ok := u.Flag(key); ok && v == 1 {
			n++
		}
	}
	return n
}
