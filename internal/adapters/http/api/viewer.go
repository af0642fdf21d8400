package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/okian/brandboard/internal/adapters/http/session"
)

const viewerCookieMaxAge = 365 * 24 * 60 * 60

var errMissingPlace = errors.New("missing place id")

// viewer identifies who owns a selection: the signed-in user when there is
// one, otherwise an anonymous id kept in a cookie and issued on first use.
func (s *Server) viewer(w http.ResponseWriter, r *http.Request) string {
	if id, ok := session.UserID(r.Context()); ok {
		return id
	}
	if c, err := r.Cookie(s.viewerCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     s.viewerCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   viewerCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
