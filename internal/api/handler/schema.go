package handler

import (
	"time"

	"github.com/jurifinder/legal-vault/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Account ---

type loginRequest struct {
	Email    string `json:"email"    form:"email"    validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	IsAdmin     bool      `json:"is_admin"`
	Redirect    string    `json:"redirect"`
}

type inactiveResponse struct {
	Error  string         `json:"error"`
	Notice *domain.Notice `json:"notice,omitempty"`
}

type loginPageResponse struct {
	Notice *domain.Notice `json:"notice,omitempty"`
}

// sessionResponse is the resolved view. Bearer callers also receive the
// session's current access token, which rotates before it expires.
type sessionResponse struct {
	domain.SessionView
	AccessToken string     `json:"access_token,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// formPageResponse is the state of a page that only renders a form.
type formPageResponse struct {
	Form     string `json:"form"`
	Email    string `json:"email,omitempty"`
	Recovery bool   `json:"recovery,omitempty"`
}

// ConfirmPassword is compared in the service so a mismatch reports the
// domain error rather than a field error.
type signupRequest struct {
	Email           string `json:"email"            form:"email"            validate:"required,email"`
	Password        string `json:"password"         form:"password"         validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required"`
}

type signupResponse struct {
	Message string           `json:"message"`
	User    *domain.Identity `json:"user"`
}

type resetPasswordRequest struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

type updatePasswordRequest struct {
	Token           string `json:"token"            form:"token"            query:"token"`
	Password        string `json:"password"         form:"password"         validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required"`
}

type updateEmailRequest struct {
	Email           string `json:"email"            form:"email"            validate:"required,email"`
	CurrentPassword string `json:"current_password" form:"current_password" validate:"required"`
}

type messageResponse struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

// --- Documents ---

type dashboardResponse struct {
	User           *domain.Identity     `json:"user"`
	IsAdmin        bool                 `json:"is_admin"`
	Documents      []domain.Document    `json:"documents"`
	Stats          domain.DocumentStats `json:"stats"`
	RecentSearches []string             `json:"recent_searches"`
}

type uploadPageResponse struct {
	DocumentTypes []string `json:"document_types"`
	AcceptedTypes []string `json:"accepted_types"`
	MaxSize       int64    `json:"max_size"`
}

type searchRequest struct {
	Term string `json:"term" form:"term" validate:"required"`
}

type searchesResponse struct {
	RecentSearches []string `json:"recent_searches"`
}

// --- Admin ---

type updateStatusRequest struct {
	Status string `json:"status" form:"status" validate:"required"`
}

type usersResponse struct {
	Users []domain.ManagedUser `json:"users"`
}
