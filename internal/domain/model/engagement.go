package model

import "time"

// Engagement is one like or dislike row. Immutable once fetched.
type Engagement struct {
	CreatedAt time.Time `json:"created_at"`
	UserID    string    `json:"user_id"`
	PlaceID   string    `json:"place_id"`
}

// UserIDs returns the distinct user ids of events in first-seen order.
func UserIDs(events []Engagement) []string {
	seen := make(map[string]struct{}, len(events))
	ids := make([]string, 0, len(events))
	for _, e := range events {
		if _, ok := seen[e.UserID]; ok {
			continue
		}
		seen[e.UserID] = struct{}{}
		ids = append(ids, e.UserID)
	}
	return ids
}

// UserAttributes is a profile merged with its onboarding flags.
// Flags is nil when the profile had no onboarding row.
type UserAttributes struct {
	ID        string         `json:"id"`
	Username  string         `json:"username,omitempty"`
	FirstName string         `json:"first_name,omitempty"`
	LastName  string         `json:"last_name,omitempty"`
	Flags     map[string]int `json:"flags,omitempty"`
}

// Flag returns the value for key and whether the user carries it at all.
func (u UserAttributes) Flag(key string) (int, bool) {
	v, ok := u.Flags[key]
	return v, ok
}
