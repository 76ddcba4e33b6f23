package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jurifinder/legal-vault/internal/api/middleware"
	"github.com/jurifinder/legal-vault/internal/core/domain"
	"github.com/jurifinder/legal-vault/internal/core/ports"
	"github.com/jurifinder/legal-vault/internal/core/service"
)

// AuthHandler serves the account pages: login, signup, logout, email
// verification and credential updates.
type AuthHandler struct {
	accounts      ports.AccountService
	secureCookies bool
}

func NewAuthHandler(accounts ports.AccountService, secureCookies bool) *AuthHandler {
	return &AuthHandler{accounts: accounts, secureCookies: secureCookies}
}

// LoginPage handles GET /login. A signed-in visitor is sent to the dashboard;
// otherwise any pending notice is returned once.
//
// @Summary      Login page state
// @Tags         auth
// @Produce      json
// @Success      200  {object}  loginPageResponse
// @Success      303
// @Router       /login [get]
func (h *AuthHandler) LoginPage(c echo.Context) error {
	view := middleware.View(c)
	if view.SignedIn() {
		return c.Redirect(http.StatusSeeOther, service.DashboardPath)
	}
	pending := middleware.TakeNotice(c, h.secureCookies)
	notice := view.Notice
	if notice == nil {
		notice = pending
	}
	return c.JSON(http.StatusOK, loginPageResponse{Notice: notice})
}

// Login handles POST /login.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  inactiveResponse
// @Failure      429   {object}  errorResponse
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sess, view, err := h.accounts.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrAccountInactive) {
			middleware.ClearSessionCookie(c, h.secureCookies)
			return c.JSON(http.StatusForbidden, inactiveResponse{Error: err.Error(), Notice: view.Notice})
		}
		return err
	}

	middleware.SetSessionCookie(c, sess, h.secureCookies)
	middleware.SetHint(c, view, h.secureCookies)
	return c.JSON(http.StatusOK, loginResponse{
		AccessToken: sess.AccessToken,
		ExpiresAt:   sess.AccessExpiresAt,
		IsAdmin:     view.IsAdmin,
		Redirect:    service.DashboardPath,
	})
}

// Signup handles POST /signup.
//
// @Summary      Create an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  signupResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	identity, err := h.accounts.SignUp(c.Request().Context(), req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, signupResponse{
		Message: "Um link de confirmação foi enviado para seu email.",
		User:    identity,
	})
}

// Logout handles GET and POST /logout. It always ends signed out on /login.
//
// @Summary      Sign out
// @Tags         auth
// @Success      303
// @Router       /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	if r := middleware.Resolver(c); r != nil {
		r.SignOut(ctx)
	} else {
		// the cookie is cleared below whatever the provider answers
		_ = h.accounts.SignOut(ctx, middleware.SessionID(c))
	}
	middleware.ClearSessionCookie(c, h.secureCookies)
	middleware.SetHint(c, domain.SessionView{}, h.secureCookies)
	return c.Redirect(http.StatusSeeOther, service.LoginPath)
}

// VerifyEmail handles GET /email-verification?token=&type=.
//
// @Summary      Confirm an email address
// @Tags         auth
// @Produce      json
// @Param        token  query     string  true  "Verification token"
// @Param        type   query     string  true  "signup or email_change"
// @Success      200    {object}  messageResponse
// @Failure      400    {object}  errorResponse
// @Router       /email-verification [get]
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	if err := h.accounts.VerifyEmail(c.Request().Context(), c.QueryParam("token"), c.QueryParam("type")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{
		Message:  "Email verificado com sucesso.",
		Redirect: service.LoginPath,
	})
}

// ResetPassword handles POST /reset-password. The response is the same
// whether or not the address belongs to an account.
//
// @Summary      Request a password reset link
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Router       /reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.accounts.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{
		Message: "Se o email estiver cadastrado, você receberá um link para redefinir sua senha.",
	})
}

// UpdatePassword handles POST /update-password, either for the signed-in
// user or with a recovery token.
//
// @Summary      Set a new password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token  query     string                 false  "Recovery token"
// @Param        body   body      updatePasswordRequest  true   "New password"
// @Success      200    {object}  messageResponse
// @Failure      400    {object}  errorResponse
// @Router       /update-password [post]
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	var req updatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Token == "" {
		req.Token = c.QueryParam("token")
	}

	in := ports.UpdatePasswordInput{
		RecoveryToken: req.Token,
		Password:      req.Password,
		Confirm:       req.ConfirmPassword,
	}
	if view := middleware.View(c); view.SignedIn() {
		in.SessionID = view.Session.ID
	}
	if err := h.accounts.UpdatePassword(c.Request().Context(), in); err != nil {
		return err
	}

	redirect := service.DashboardPath
	if in.SessionID == "" {
		redirect = service.LoginPath
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Sua senha foi atualizada com sucesso.", Redirect: redirect})
}

// UpdateEmail handles POST /update-email.
//
// @Summary      Request an email change
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateEmailRequest  true  "New address and current password"
// @Success      202   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /update-email [post]
func (h *AuthHandler) UpdateEmail(c echo.Context) error {
	view, err := signedIn(c)
	if err != nil {
		return err
	}
	var req updateEmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.accounts.UpdateEmail(c.Request().Context(), view, req.Email, req.CurrentPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, messageResponse{
		Message: "Enviamos um link de confirmação para o novo endereço.",
	})
}
