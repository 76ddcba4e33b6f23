package service

import (
	"github.com/jurifinder/legal-vault/internal/core/domain"
)

// Redirect targets used by the guard.
const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

// GuardOutcome is the terminal state of one page's guard run.
type GuardOutcome struct {
	State      domain.GuardState
	RedirectTo string
}

// Allowed reports whether the page may render.
func (o GuardOutcome) Allowed() bool {
	return o.State == domain.GuardAuthorized
}

// RouteGuard decides render vs redirect from a resolved session view. The view
// is the only input: no client-supplied flag can grant access.
type RouteGuard struct{}

// NewRouteGuard returns a RouteGuard.
func NewRouteGuard() *RouteGuard {
	return &RouteGuard{}
}

// Evaluate moves a page from Unresolved to Authorized or Unauthorized.
//
//	public                      -> authorized
//	no session                  -> unauthorized, /login
//	admin page, not admin       -> unauthorized, /dashboard
//	otherwise                   -> authorized
func (g *RouteGuard) Evaluate(view domain.SessionView, access domain.Access) GuardOutcome {
	if access == domain.AccessPublic {
		return GuardOutcome{State: domain.GuardAuthorized}
	}
	if !view.SignedIn() || !view.IsActive {
		return GuardOutcome{State: domain.GuardUnauthorized, RedirectTo: LoginPath}
	}
	if access == domain.AccessAdmin && !view.IsAdmin {
		return GuardOutcome{State: domain.GuardUnauthorized, RedirectTo: DashboardPath}
	}
	return GuardOutcome{State: domain.GuardAuthorized}
}

// Unresolved is the outcome of a page whose view never resolved.
func (g *RouteGuard) Unresolved() GuardOutcome {
	return GuardOutcome{State: domain.GuardUnresolved, RedirectTo: LoginPath}
}
