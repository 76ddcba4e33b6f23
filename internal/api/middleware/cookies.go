package middleware

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jurifinder/legal-vault/internal/core/domain"
)

// Cookie names.
const (
	SessionCookie = "vault_session"
	HintCookie    = "vault_hint"
	NoticeCookie  = "vault_notice"
)

const noticeMaxAge = 60

// SetSessionCookie stores the session ID until the session expires.
func SetSessionCookie(c echo.Context, sess *domain.Session, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(c echo.Context, secure bool) {
	expire(c, SessionCookie, true, secure)
}

// SetHint writes the UI hint for the given view. The hint is readable by
// scripts and is never trusted for authorization.
func SetHint(c echo.Context, view domain.SessionView, secure bool) {
	if !view.SignedIn() {
		expire(c, HintCookie, false, secure)
		return
	}
	v := url.Values{}
	v.Set("auth", "1")
	v.Set("admin", "0")
	if view.IsAdmin {
		v.Set("admin", "1")
	}
	v.Set("email", view.Identity.Email)
	c.SetCookie(&http.Cookie{
		Name:     HintCookie,
		Value:    v.Encode(),
		Path:     "/",
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetNotice stores a notice to be shown once on the next page.
func SetNotice(c echo.Context, n domain.Notice, secure bool) {
	b, err := json.Marshal(n)
	if err != nil {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     NoticeCookie,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		MaxAge:   noticeMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TakeNotice returns and clears a pending notice.
func TakeNotice(c echo.Context, secure bool) *domain.Notice {
	ck, err := c.Cookie(NoticeCookie)
	if err != nil || ck.Value == "" {
		return nil
	}
	expire(c, NoticeCookie, true, secure)

	b, err := base64.RawURLEncoding.DecodeString(ck.Value)
	if err != nil {
		return nil
	}
	var n domain.Notice
	if err := json.Unmarshal(b, &n); err != nil {
		return nil
	}
	return &n
}

func expire(c echo.Context, name string, httpOnly, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: httpOnly,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
