package gate

import (
	"context"
	"net/http"
	"strings"

	"FinDash/internal/domain/models"
	"FinDash/internal/domain/repository"
	applogger "FinDash/pkg/logger"

	"github.com/labstack/echo/v4"
)

// UserKey is the echo.Context key holding the authenticated *models.User.
const UserKey = "user"

// Refresher validates and renews the session carried by request cookies.
type Refresher interface {
	Refresh(ctx context.Context, cookies []*http.Cookie) (models.Session, error)
}

// Gate enforces the auth redirect policy on every non-asset request.
type Gate struct {
	sessions Refresher
	logger   *applogger.Logger
	metrics  repository.Metrics
	skip     []string
}

// Option configures Gate.
type Option func(*Gate)

// WithSkipPrefixes bypasses the gate for paths under prefixes, in addition to
// the static asset exclusions. Empty prefixes are ignored.
func WithSkipPrefixes(prefixes ...string) Option {
	return func(g *Gate) {
		for _, p := range prefixes {
			if p != "" {
				g.skip = append(g.skip, p)
			}
		}
	}
}

func New(sessions Refresher, l *applogger.Logger, m repository.Metrics, opts ...Option) *Gate {
	g := &Gate{sessions: sessions, logger: l, metrics: m}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gate) skipped(path string) bool {
	return Excluded(path) || hasAnyPrefix(path, g.skip)
}

// Middleware returns the echo middleware. Refreshed session cookies are
// written to the response before the decision is taken, so redirects carry
// them too, and are mirrored onto the request for downstream handlers.
func (g *Gate) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			if g.skipped(path) {
				return next(c)
			}

			sess, err := g.sessions.Refresh(req.Context(), req.Cookies())
			if err != nil {
				g.logger.Warn("session refresh failed, treating request as anonymous",
					applogger.String("pathname", path),
					applogger.Error(err),
				)
				g.metrics.RecordRefreshError()
				sess = models.Session{}
			}

			for _, ck := range sess.Mutations {
				c.SetCookie(ck)
			}
			mirrorCookies(req, sess.Mutations)

			route := Classify(path)
			decision := Decide(sess.Authenticated, route, req.URL, req.Host)

			g.logger.Debug("gate",
				applogger.String("pathname", path),
				applogger.String("user", userID(sess.User)),
				applogger.Bool("protected", route.Protected),
				applogger.Bool("auth", route.Auth),
				applogger.String("action", decision.Action.String()),
			)
			g.metrics.RecordGateDecision(route.Label(), decision.Action.String())

			if decision.Action == Redirect {
				return c.Redirect(http.StatusTemporaryRedirect, decision.Target)
			}
			if sess.Authenticated && sess.User != nil {
				c.Set(UserKey, sess.User)
			}
			return next(c)
		}
	}
}

// UserFrom returns the user stored by the gate, or nil for anonymous requests.
func UserFrom(c echo.Context) *models.User {
	u, _ := c.Get(UserKey).(*models.User)
	return u
}

// mirrorCookies rewrites the request Cookie header with mutations applied.
func mirrorCookies(req *http.Request, mutations []*http.Cookie) {
	if len(mutations) == 0 {
		return
	}

	changed := make(map[string]*http.Cookie, len(mutations))
	for _, m := range mutations {
		changed[m.Name] = m
	}

	var parts []string
	for _, ck := range req.Cookies() {
		if _, ok := changed[ck.Name]; ok {
			continue
		}
		parts = append(parts, (&http.Cookie{Name: ck.Name, Value: ck.Value}).String())
	}
	for _, m := range mutations {
		if m.MaxAge < 0 {
			continue
		}
		parts = append(parts, (&http.Cookie{Name: m.Name, Value: m.Value}).String())
	}

	if len(parts) == 0 {
		req.Header.Del("Cookie")
		return
	}
	req.Header.Set("Cookie", strings.Join(parts, "; "))
}

func userID(u *models.User) string {
	if u == nil {
		return "none"
	}
	return u.ID
}
