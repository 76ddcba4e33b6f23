package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jurifinder/legal-vault/internal/api/middleware"
	"github.com/jurifinder/legal-vault/internal/core/domain"
	"github.com/jurifinder/legal-vault/internal/core/service"
)

// PageHandler serves the routes that only reflect the resolved session.
type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// Index handles GET /: signed-in visitors go to the dashboard, others to login.
func (h *PageHandler) Index(c echo.Context) error {
	if middleware.View(c).SignedIn() {
		return c.Redirect(http.StatusSeeOther, service.DashboardPath)
	}
	return c.Redirect(http.StatusSeeOther, service.LoginPath)
}

// Session handles GET /session and returns the resolved view.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  sessionResponse
// @Router       /session [get]
func (h *PageHandler) Session(c echo.Context) error {
	view := middleware.View(c)
	resp := sessionResponse{SessionView: view}
	if view.SignedIn() && c.Request().Header.Get(echo.HeaderAuthorization) != "" {
		expires := view.Session.AccessExpiresAt
		resp.AccessToken = view.Session.AccessToken
		resp.ExpiresAt = &expires
	}
	return c.JSON(http.StatusOK, resp)
}

// NotFound answers every unknown route.
func (h *PageHandler) NotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, map[string]string{
		"error": "page not found",
		"path":  c.Request().URL.Path,
	})
}

// SignupPage handles GET /signup.
//
// @Summary      Signup page state
// @Tags         auth
// @Produce      json
// @Success      200  {object}  formPageResponse
// @Success      303
// @Router       /signup [get]
func (h *PageHandler) SignupPage(c echo.Context) error {
	if middleware.View(c).SignedIn() {
		return c.Redirect(http.StatusSeeOther, service.DashboardPath)
	}
	return c.JSON(http.StatusOK, formPageResponse{Form: "signup"})
}

// ResetPasswordPage handles GET /reset-password.
func (h *PageHandler) ResetPasswordPage(c echo.Context) error {
	return c.JSON(http.StatusOK, formPageResponse{Form: "reset-password"})
}

// UpdatePasswordPage handles GET /update-password. Recovery links arrive
// here with a token; signed-in users change their password without one.
func (h *PageHandler) UpdatePasswordPage(c echo.Context) error {
	resp := formPageResponse{
		Form:     "update-password",
		Recovery: c.QueryParam("token") != "",
	}
	if view := middleware.View(c); view.SignedIn() {
		resp.Email = view.Identity.Email
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateEmailPage handles GET /update-email.
func (h *PageHandler) UpdateEmailPage(c echo.Context) error {
	view := middleware.View(c)
	if !view.SignedIn() {
		return c.Redirect(http.StatusSeeOther, service.LoginPath)
	}
	return c.JSON(http.StatusOK, formPageResponse{Form: "update-email", Email: view.Identity.Email})
}

// UploadPage handles GET /upload and describes what the uploader accepts.
//
// @Summary      Upload page state
// @Tags         documents
// @Produce      json
// @Success      200  {object}  uploadPageResponse
// @Router       /upload [get]
func (h *PageHandler) UploadPage(c echo.Context) error {
	return c.JSON(http.StatusOK, uploadPageResponse{
		DocumentTypes: domain.DocumentTypes,
		AcceptedTypes: domain.AcceptedMIMETypes,
		MaxSize:       domain.MaxDocumentSize,
	})
}
