// Package session resolves the signed-in user from the auth provider's token
// and redirects requests for gated pages.
package session

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/brandboard/pkg/logger"
	"github.com/okian/brandboard/pkg/metrics"
)

// Config lists the gated path prefixes and redirect targets.
type Config struct {
	CookieName      string
	Secret          string
	ProtectedPaths  []string
	OnboardingPaths []string
	LoginPath       string
	OnboardingPath  string
	ErrorPath       string
}

// OnboardingChecker reports whether a user finished onboarding.
type OnboardingChecker interface {
	IsOnboarded(ctx context.Context, userID string) (bool, error)
}

type ctxKey struct{}

// UserID returns the signed-in user stored by the middleware.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// WithUserID stores userID in ctx the way the middleware does.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// Middleware gates requests on the session token.
type Middleware struct {
	cfg      Config
	verifier *Verifier
	checker  OnboardingChecker
	logger   logger.Logger
}

// New returns a Middleware. checker is consulted for onboarding-gated paths.
func New(cfg Config, checker OnboardingChecker, opts ...Option) *Middleware {
	m := &Middleware{
		cfg:      cfg,
		verifier: NewVerifier(cfg.Secret),
		checker:  checker,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logger.Get().Named("session")
	}
	return m
}

// Handler wraps next.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		path := r.URL.Path

		userID, err := m.verifier.Verify(tokenFrom(r, m.cfg.CookieName))
		if err != nil {
			userID = ""
		}

		if userID == "" && hasPrefix(path, m.cfg.ProtectedPaths) {
			m.redirect(w, r, m.cfg.LoginPath, "unauthenticated")
			return
		}

		if userID != "" && hasPrefix(path, m.cfg.OnboardingPaths) {
			onboarded, err := m.checker.IsOnboarded(ctx, userID)
			if err != nil {
				m.logger.Error(ctx, "onboarding lookup failed", logger.String("path", path), logger.Error(err))
				m.redirect(w, r, m.cfg.ErrorPath, "lookup_failed")
				return
			}
			if !onboarded {
				m.redirect(w, r, m.cfg.OnboardingPath, "not_onboarded")
				return
			}
		}

		if userID != "" {
			r = r.WithContext(WithUserID(ctx, userID))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) redirect(w http.ResponseWriter, r *http.Request, to, reason string) {
	metrics.RecordSessionRedirect(reason)
	http.Redirect(w, r, to, http.StatusTemporaryRedirect)
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
