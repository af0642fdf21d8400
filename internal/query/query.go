// Package query reads places, engagement events and user attributes from the
// row store. Every failure is logged and surfaced as a *StoreError.
package query

import (
	"context"
	"errors"
	"strings"

	"github.com/okian/brandboard/internal/adapters/repository"
	"github.com/okian/brandboard/internal/domain/model"
	"github.com/okian/brandboard/pkg/logger"
)

// Tables names the tables the querier reads.
type Tables struct {
	Places     string
	Likes      string
	Dislikes   string
	Profiles   string
	Onboarding string
}

// DefaultTables returns the conventional table names.
func DefaultTables() Tables {
	return Tables{
		Places:     "places",
		Likes:      "likes",
		Dislikes:   "dislikes",
		Profiles:   "profiles",
		Onboarding: "onboarding",
	}
}

// Querier runs the dashboard's lookups against a Store.
type Querier struct {
	store  repository.Store
	tables Tables
	logger logger.Logger
}

// New returns a Querier over store.
func New(store repository.Store, opts ...Option) *Querier {
	q := &Querier{store: store, tables: DefaultTables()}
	for _, opt := range opts {
		opt(q)
	}
	if q.logger == nil {
		q.logger = logger.Get().Named("query")
	}
	return q
}

// Places returns every place.
func (q *Querier) Places(ctx context.Context) ([]model.Place, error) {
	const op = "query.Places"

	rows, err := q.store.All(ctx, q.tables.Places)
	if err != nil {
		return nil, q.fail(ctx, op, q.tables.Places, err)
	}
	out := make([]model.Place, 0, len(rows))
	for _, r := range rows {
		p, err := decodePlace(r)
		if err != nil {
			return nil, q.fail(ctx, op, q.tables.Places, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// SearchPlaces returns places whose name contains term, ignoring case.
// An empty term matches every place.
func (q *Querier) SearchPlaces(ctx context.Context, term string) ([]model.Place, error) {
	places, err := q.Places(ctx)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return places, nil
	}
	out := make([]model.Place, 0, len(places))
	for _, p := range places {
		if strings.Contains(strings.ToLower(p.Name), term) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Place returns the place with placeID, or ErrUnknownPlace.
func (q *Querier) Place(ctx context.Context, placeID string) (model.Place, error) {
	const op = "query.Place"

	row, err := q.store.Single(ctx, q.tables.Places, "id", placeID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Place{}, ErrUnknownPlace
	}
	if err != nil {
		return model.Place{}, q.fail(ctx, op, q.tables.Places, err)
	}
	p, err := decodePlace(row)
	if err != nil {
		return model.Place{}, q.fail(ctx, op, q.tables.Places, err)
	}
	return p, nil
}

// Likes returns the like events of placeID.
func (q *Querier) Likes(ctx context.Context, placeID string) ([]model.Engagement, error) {
	return q.events(ctx, "query.Likes", q.tables.Likes, placeID)
}

// Dislikes returns the dislike events of placeID.
func (q *Querier) Dislikes(ctx context.Context, placeID string) ([]model.Engagement, error) {
	return q.events(ctx, "query.Dislikes", q.tables.Dislikes, placeID)
}

func (q *Querier) events(ctx context.Context, op, table, placeID string) ([]model.Engagement, error) {
	rows, err := q.store.WhereEq(ctx, table, "place_id", placeID)
	if err != nil {
		return nil, q.fail(ctx, op, table, err)
	}
	events, err := decodeEngagements(rows)
	if err != nil {
		return nil, q.fail(ctx, op, table, err)
	}
	return events, nil
}

// EngagedUserAttributes returns the profiles of the users behind events, each
// merged with its onboarding flags. Profiles without an onboarding row carry
// no flags and onboarding rows without a profile are dropped.
func (q *Querier) EngagedUserAttributes(ctx context.Context, events []model.Engagement) ([]model.UserAttributes, error) {
	const op = "query.EngagedUserAttributes"

	ids := model.UserIDs(events)
	if len(ids) == 0 {
		return []model.UserAttributes{}, nil
	}

	profiles, err := q.store.WhereIn(ctx, q.tables.Profiles, "id", ids)
	if err != nil {
		return nil, q.fail(ctx, op, q.tables.Profiles, err)
	}
	onboarding, err := q.store.WhereIn(ctx, q.tables.Onboarding, "id", ids)
	if err != nil {
		return nil, q.fail(ctx, op, q.tables.Onboarding, err)
	}

	flags := make(map[string]map[string]int, len(onboarding))
	for _, r := range onboarding {
		id := text(r["id"])
		if _, dup := flags[id]; dup {
			continue
		}
		flags[id] = decodeFlags(r)
	}

	out := make([]model.UserAttributes, 0, len(profiles))
	for _, r := range profiles {
		u := decodeProfile(r)
		u.Flags = flags[u.ID]
		out = append(out, u)
	}
	return out, nil
}

// LikingUserAttributes fetches the likes of placeID and then their users.
func (q *Querier) LikingUserAttributes(ctx context.Context, placeID string) ([]model.UserAttributes, error) {
	likes, err := q.Likes(ctx, placeID)
	if err != nil {
		return nil, err
	}
	return q.EngagedUserAttributes(ctx, likes)
}

// DislikingUserAttributes fetches the dislikes of placeID and then their users.
func (q *Querier) DislikingUserAttributes(ctx context.Context, placeID string) ([]model.UserAttributes, error) {
	dislikes, err := q.Dislikes(ctx, placeID)
	if err != nil {
		return nil, err
	}
	return q.EngagedUserAttributes(ctx, dislikes)
}

// IsOnboarded reads the is_onboarded flag of the user's profile. A missing
// profile is an error, as is more than one.
func (q *Querier) IsOnboarded(ctx context.Context, userID string) (bool, error) {
	const op = "query.IsOnboarded"

	row, err := q.store.Single(ctx, q.tables.Profiles, "id", userID)
	if err != nil {
		return false, q.fail(ctx, op, q.tables.Profiles, err)
	}
	return truthy(row["is_onboarded"]), nil
}

func (q *Querier) fail(ctx context.Context, op, table string, err error) error {
	q.logger.Error(ctx, "row store lookup failed",
		logger.String("op", op),
		logger.String("table", table),
		logger.Error(err))
	return &StoreError{Op: op, Table: table, Err: err}
}
