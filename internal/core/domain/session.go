package domain

import "time"

// Session is an identity provider session. ID is stable for the session's
// lifetime; AccessToken is rotated on refresh.
type Session struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Email           string    `json:"email"`
	AccessToken     string    `json:"access_token"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
	ExpiresAt       time.Time `json:"expires_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || !now.Before(s.ExpiresAt)
}

// SessionEventType names a session change notification.
type SessionEventType string

const (
	EventSignedIn       SessionEventType = "SIGNED_IN"
	EventSignedOut      SessionEventType = "SIGNED_OUT"
	EventTokenRefreshed SessionEventType = "TOKEN_REFRESHED"
	EventUserUpdated    SessionEventType = "USER_UPDATED"
)

// SessionEvent is published by the identity provider whenever a session
// changes. Session is nil for EventSignedOut.
type SessionEvent struct {
	Type      SessionEventType `json:"type"`
	SessionID string           `json:"session_id"`
	Session   *Session         `json:"session,omitempty"`
}

// OTPType selects what a one-time code proves.
type OTPType string

const (
	OTPSignup      OTPType = "signup"
	OTPRecovery    OTPType = "recovery"
	OTPEmailChange OTPType = "email_change"
)

// Notice is a blocking, user-visible message attached to a resolved view.
type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NoticeAccountInactive is shown when a signed-in identity's profile is not active.
var NoticeAccountInactive = Notice{
	Title:       "Acesso Negado",
	Description: "Sua conta não está ativa. Entre em contato com o administrador.",
}

// SessionView is the resolved, per-request picture of who the visitor is.
type SessionView struct {
	Session  *Session      `json:"-"`
	Identity *Identity     `json:"identity,omitempty"`
	Status   ProfileStatus `json:"status,omitempty"`
	IsActive bool          `json:"is_active"`
	IsAdmin  bool          `json:"is_admin"`
	Notice   *Notice       `json:"notice,omitempty"`
}

// SignedIn reports whether the view carries a usable session.
func (v SessionView) SignedIn() bool {
	return v.Session != nil && v.Identity != nil
}

// Access is the privilege a route requires.
type Access string

const (
	AccessPublic        Access = "public"
	AccessAuthenticated Access = "authenticated"
	AccessAdmin         Access = "admin"
)

// GuardState is the per-request route guard state.
type GuardState string

const (
	GuardUnresolved   GuardState = "unresolved"
	GuardAuthorized   GuardState = "authorized"
	GuardUnauthorized GuardState = "unauthorized"
)

// OneTimeToken is what an emailed verification or recovery link proves.
type OneTimeToken struct {
	Type   OTPType `json:"type"`
	UserID string  `json:"user_id"`
	Email  string  `json:"email"`
}
