package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jurifinder/legal-vault/internal/core/ports"
)

// AdminHandler serves the user management screens. Routes are mounted behind
// the admin guard.
type AdminHandler struct {
	admin ports.AdminService
}

func NewAdminHandler(admin ports.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// Overview handles GET /admin.
//
// @Summary      Admin overview
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Email substring"
// @Success      200     {object}  ports.AdminOverview
// @Failure      403     {object}  errorResponse
// @Router       /admin [get]
func (h *AdminHandler) Overview(c echo.Context) error {
	out, err := h.admin.Overview(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// ListUsers handles GET /admin/users.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  usersResponse
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.admin.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usersResponse{Users: users})
}

// GetUser handles GET /admin/users/:userId.
//
// @Summary      User details
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true  "User ID"
// @Success      200     {object}  domain.ManagedUser
// @Failure      404     {object}  errorResponse
// @Router       /admin/users/{userId} [get]
func (h *AdminHandler) GetUser(c echo.Context) error {
	user, err := h.admin.GetUser(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateStatus handles PUT /admin/users/:userId/status.
//
// @Summary      Change a user's status
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string               true  "User ID"
// @Param        body    body      updateStatusRequest  true  "pendente, ativo or bloqueado"
// @Success      200     {object}  domain.ManagedUser
// @Failure      400     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Failure      422     {object}  errorResponse
// @Router       /admin/users/{userId}/status [put]
func (h *AdminHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	user, err := h.admin.UpdateStatus(c.Request().Context(), c.Param("userId"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
