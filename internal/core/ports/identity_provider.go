package ports

import (
	"context"

	"github.com/jurifinder/legal-vault/internal/core/domain"
)

// IdentityProvider issues and validates sessions and owns user credentials.
type IdentityProvider interface {
	// SignUp creates an unconfirmed identity and sends a verification email
	// pointing at redirectURL.
	SignUp(ctx context.Context, email, password, redirectURL string) (*domain.Identity, error)
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignOut(ctx context.Context, sessionID string) error
	// GetSession returns the current session for sessionID, or nil when there is none.
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	// Subscribe registers fn for changes to sessionID. The returned function
	// unsubscribes; fn is never invoked after it returns.
	Subscribe(sessionID string, fn func(domain.SessionEvent)) (unsubscribe func())
	SendPasswordReset(ctx context.Context, email, redirectURL string) error
	VerifyOTP(ctx context.Context, token string, typ domain.OTPType) (*domain.Session, error)
	UpdateUser(ctx context.Context, sessionID string, update domain.UserUpdate) (*domain.Identity, error)
	GetUserByID(ctx context.Context, id string) (*domain.Identity, error)
	ListUsers(ctx context.Context) ([]domain.Identity, error)
}
