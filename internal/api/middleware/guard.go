package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/jurifinder/legal-vault/internal/api/metrics"
	"github.com/jurifinder/legal-vault/internal/core/domain"
	"github.com/jurifinder/legal-vault/internal/core/service"
	"github.com/jurifinder/legal-vault/pkg/logger"
)

const defaultResolveTimeout = 5 * time.Second

// GuardConfig configures Guard.
type GuardConfig struct {
	Resolvers      *service.ResolverFactory
	ResolveTimeout time.Duration
	SecureCookies  bool
	Log            zerolog.Logger
}

// Guard resolves the caller's session once per request and enforces the
// access level of the route.
type Guard struct {
	resolvers *service.ResolverFactory
	routes    *service.RouteGuard
	timeout   time.Duration
	secure    bool
	log       zerolog.Logger
}

func NewGuard(cfg GuardConfig) *Guard {
	timeout := cfg.ResolveTimeout
	if timeout <= 0 {
		timeout = defaultResolveTimeout
	}
	return &Guard{
		resolvers: cfg.Resolvers,
		routes:    service.NewRouteGuard(),
		timeout:   timeout,
		secure:    cfg.SecureCookies,
		log:       logger.Component(cfg.Log, "route_guard"),
	}
}

// Require returns middleware that lets the request through only when the
// resolved view grants access. Otherwise browsers get 303 See Other to the
// guard's target and API clients get 401 or 403.
//
// Requires Session to run first.
func (g *Guard) Require(access domain.Access) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			sid := SessionID(c)

			r := g.resolvers.New()
			defer r.Close()
			r.Start(ctx, sid)

			waitCtx, cancel := context.WithTimeout(ctx, g.timeout)
			view, err := r.Wait(waitCtx)
			cancel()

			var outcome service.GuardOutcome
			if err != nil {
				g.log.Warn().Err(err).Str("path", c.Path()).Msg("session unresolved, treating as signed out")
				view = domain.SessionView{}
				if access == domain.AccessPublic {
					outcome = g.routes.Evaluate(view, access)
				} else {
					outcome = g.routes.Unresolved()
				}
			} else {
				outcome = g.routes.Evaluate(view, access)
				SetHint(c, view, g.secure)
			}
			metrics.GuardDecisionsTotal.WithLabelValues(string(access), string(outcome.State)).Inc()

			if view.Notice != nil {
				SetNotice(c, *view.Notice, g.secure)
			}
			if sid != "" && !view.SignedIn() {
				ClearSessionCookie(c, g.secure)
			}

			c.Set(ViewKey, view)
			c.Set(ResolverKey, r)

			if !outcome.Allowed() {
				if wantsJSON(c) {
					if outcome.RedirectTo == service.DashboardPath {
						return domain.ErrForbidden
					}
					return domain.ErrNotAuthenticated
				}
				return c.Redirect(http.StatusSeeOther, outcome.RedirectTo)
			}
			return next(c)
		}
	}
}

// wantsJSON reports whether the caller is an API client rather than a browser.
func wantsJSON(c echo.Context) bool {
	req := c.Request()
	if req.Header.Get(echo.HeaderAuthorization) != "" {
		return true
	}
	accept := req.Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMEApplicationJSON) && !strings.Contains(accept, echo.MIMETextHTML)
}

// View returns the view resolved by Guard for this request.
func View(c echo.Context) domain.SessionView {
	v, _ := c.Get(ViewKey).(domain.SessionView)
	return v
}

// Resolver returns the resolver Guard created for this request, or nil.
func Resolver(c echo.Context) *service.SessionResolver {
	r, _ := c.Get(ResolverKey).(*service.SessionResolver)
	return r
}
