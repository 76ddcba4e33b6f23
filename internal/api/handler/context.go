package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/jurifinder/legal-vault/internal/api/middleware"
	"github.com/jurifinder/legal-vault/internal/core/domain"
)

// signedIn returns the guard's view and fails fast when it carries no usable
// session. The guard already redirects such requests; this protects handlers
// mounted without it.
func signedIn(c echo.Context) (domain.SessionView, error) {
	view := middleware.View(c)
	if !view.SignedIn() || !view.IsActive {
		return domain.SessionView{}, domain.ErrNotAuthenticated
	}
	return view, nil
}
