package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Context keys set by this package.
const (
	SessionIDKey = "session_id"
	ViewKey      = "session_view"
	ResolverKey  = "session_resolver"
)

// TokenParser maps a bearer access token to its session ID.
type TokenParser interface {
	SessionFromAccessToken(raw string) (string, error)
}

// Session extracts the caller's session ID from a bearer token or, failing
// that, the session cookie. A request without either continues anonymously;
// a malformed or invalid bearer token is rejected.
func Session(tokens TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
				}
				sid, err := tokens.SessionFromAccessToken(parts[1])
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				c.Set(SessionIDKey, sid)
				return next(c)
			}

			if ck, err := c.Cookie(SessionCookie); err == nil && ck.Value != "" {
				c.Set(SessionIDKey, ck.Value)
			}
			return next(c)
		}
	}
}

// SessionID returns the ID extracted by Session, or "".
func SessionID(c echo.Context) string {
	sid, _ := c.Get(SessionIDKey).(string)
	return sid
}
