package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/okian/brandboard/internal/adapters/repository"
	"github.com/okian/brandboard/internal/domain/model"
)

// timestampLayouts are tried in order. Fractional seconds are accepted by
// every layout when parsing.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z07",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrDecode, x)
	case nil:
		return time.Time{}, fmt.Errorf("%w: missing timestamp", ErrDecode)
	default:
		return time.Time{}, fmt.Errorf("%w: timestamp of type %T", ErrDecode, v)
	}
}

// text renders an id or label the way every backend compares values.
func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// flag returns v as an integer when it is an integral number. Booleans and
// strings are never flags.
func flag(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int8:
		return int(x), true
	case int16:
		return int(x), true
	case int32:
		return int(x), true
	case int64:
		return int(x), true
	case uint:
		return int(x), true
	case uint8:
		return int(x), true
	case uint16:
		return int(x), true
	case uint32:
		return int(x), true
	case uint64:
		return int(x), true
	case float32:
		return integral(float64(x))
	case float64:
		return integral(x)
	default:
		return 0, false
	}
}

func integral(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func decodeEngagement(r repository.Row) (model.Engagement, error) {
	ts, err := parseTime(r["created_at"])
	if err != nil {
		return model.Engagement{}, err
	}
	return model.Engagement{
		CreatedAt: ts,
		UserID:    text(r["user_id"]),
		PlaceID:   text(r["place_id"]),
	}, nil
}

func decodeEngagements(rows []repository.Row) ([]model.Engagement, error) {
	out := make([]model.Engagement, 0, len(rows))
	for _, r := range rows {
		e, err := decodeEngagement(r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func decodeProfile(r repository.Row) model.UserAttributes {
	return model.UserAttributes{
		ID:        text(r["id"]),
		Username:  text(r["username"]),
		FirstName: text(r["first_name"]),
		LastName:  text(r["last_name"]),
	}
}

// decodeFlags keeps the integral columns of an onboarding row.
func decodeFlags(r repository.Row) map[string]int {
	flags := make(map[string]int, len(r))
	for k, v := range r {
		if k == "id" {
			continue
		}
		if n, ok := flag(v); ok {
			flags[k] = n
		}
	}
	return flags
}

func decodePlace(r repository.Row) (model.Place, error) {
	id, name := text(r["id"]), text(r["name"])
	if id == "" || name == "" {
		return model.Place{}, fmt.Errorf("%w: place needs id and name", ErrDecode)
	}
	return model.Place{
		ID:          id,
		Name:        name,
		Locality:    text(r["locality"]),
		CityName:    text(r["city_name"]),
		Address:     text(r["address"]),
		Description: text(r["description"]),
		Image:       text(r["image"]),
		Tags:        tags(r["tags"]),
		Rating:      rating(r["rating"]),
	}, nil
}

// tags accepts native lists, JSON array text, or comma separated text.
func tags(v any) []string {
	switch x := v.(type) {
	case []string:
		return x
	case []any:
		out := make([]string, 0, len(x))
		for _, t := range x {
			out = append(out, text(t))
		}
		return out
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		if strings.HasPrefix(s, "[") {
			var out []string
			if err := json.Unmarshal([]byte(s), &out); err == nil {
				return out
			}
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return nil
	}
}

func rating(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f
	default:
		if n, ok := flag(v); ok {
			return float64(n)
		}
		return 0
	}
}

// truthy reads a boolean-ish column.
func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return err == nil && b
	default:
		n, ok := flag(v)
		return ok && n != 0
	}
}
