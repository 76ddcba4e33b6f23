package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/jurifinder/legal-vault/internal/core/domain"
	"github.com/jurifinder/legal-vault/internal/core/ports"
	"github.com/jurifinder/legal-vault/pkg/logger"
)

// MinPasswordLength is the shortest password the provider accepts.
const MinPasswordLength = 6

// UserStore persists credentials.
type UserStore interface {
	Create(ctx context.Context, user *domain.Credentials) (*domain.Credentials, error)
	FindByEmail(ctx context.Context, email string) (*domain.Credentials, error)
	FindByID(ctx context.Context, id string) (*domain.Credentials, error)
	List(ctx context.Context) ([]domain.Identity, error)
	ConfirmEmail(ctx context.Context, id string, at time.Time) error
	SetPassword(ctx context.Context, id, hash string) error
	SetPendingEmail(ctx context.Context, id, email string) error
	ApplyEmailChange(ctx context.Context, id string) (*domain.Credentials, error)
}

// SessionStore persists sessions. Get returns nil for a missing session.
type SessionStore interface {
	Save(ctx context.Context, sess *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// TokenStore issues and redeems single-use tokens.
type TokenStore interface {
	Issue(ctx context.Context, t domain.OneTimeToken, ttl time.Duration) (string, error)
	Consume(ctx context.Context, raw string) (*domain.OneTimeToken, error)
}

// Throttle limits how often an action may run for one subject.
type Throttle interface {
	Acquire(ctx context.Context, action, subject string) (bool, error)
}

// Publisher distributes session events.
type Publisher interface {
	Publish(ctx context.Context, ev domain.SessionEvent) error
}

// Options tunes the provider.
type Options struct {
	JWTSecret      string
	SessionTTL     time.Duration
	AccessTokenTTL time.Duration
	OTPTTL         time.Duration
	// EmailChangeURL is the page email change confirmations link to.
	EmailChangeURL string
}

// Provider is the identity provider: it owns credentials, sessions and
// one-time tokens, and announces session changes.
type Provider struct {
	users     UserStore
	sessions  SessionStore
	tokens    TokenStore
	throttle  Throttle
	mail      ports.MailQueue
	publisher Publisher
	hub       *Hub
	validate  *validator.Validate
	secret    []byte
	opts      Options
	log       zerolog.Logger
	now       func() time.Time
}

var _ ports.IdentityProvider = (*Provider)(nil)

// NewProvider wires a Provider. Events published through publisher must reach
// hub for Subscribe to observe them; pass the hub itself for a single instance.
func NewProvider(
	users UserStore,
	sessions SessionStore,
	tokens TokenStore,
	throttle Throttle,
	mail ports.MailQueue,
	publisher Publisher,
	hub *Hub,
	opts Options,
	log zerolog.Logger,
) *Provider {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 7 * 24 * time.Hour
	}
	if opts.AccessTokenTTL <= 0 {
		opts.AccessTokenTTL = time.Hour
	}
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = 24 * time.Hour
	}
	return &Provider{
		users:     users,
		sessions:  sessions,
		tokens:    tokens,
		throttle:  throttle,
		mail:      mail,
		publisher: publisher,
		hub:       hub,
		validate:  validator.New(),
		secret:    []byte(opts.JWTSecret),
		opts:      opts,
		log:       logger.Component(log, "identity_provider"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (p *Provider) SignUp(ctx context.Context, email, password, redirectURL string) (*domain.Identity, error) {
	email = normalizeEmail(email)
	if err := p.validate.Var(email, "required,email"); err != nil {
		return nil, domain.ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := p.users.Create(ctx, &domain.Credentials{
		Identity:     domain.Identity{Email: email, CreatedAt: p.now()},
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, err
	}

	if err := p.sendLink(ctx, domain.OneTimeToken{Type: domain.OTPSignup, UserID: created.ID, Email: email},
		domain.MailConfirmSignup, redirectURL); err != nil {
		return nil, err
	}

	identity := created.Identity
	return &identity, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	user, err := p.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if user.EmailConfirmedAt == nil {
		return nil, domain.ErrEmailNotConfirmed
	}
	return p.createSession(ctx, &user.Identity)
}

func (p *Provider) createSession(ctx context.Context, identity *domain.Identity) (*domain.Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}
	now := p.now()
	sess := &domain.Session{
		ID:        id,
		UserID:    identity.ID,
		Email:     identity.Email,
		ExpiresAt: now.Add(p.opts.SessionTTL),
		CreatedAt: now,
	}
	if err := p.issueAccessToken(sess, now); err != nil {
		return nil, err
	}
	if err := p.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	p.publish(ctx, domain.SessionEvent{Type: domain.EventSignedIn, SessionID: sess.ID, Session: sess})
	return sess, nil
}

func (p *Provider) issueAccessToken(sess *domain.Session, now time.Time) error {
	sess.AccessExpiresAt = now.Add(p.opts.AccessTokenTTL)
	if sess.AccessExpiresAt.After(sess.ExpiresAt) {
		sess.AccessExpiresAt = sess.ExpiresAt
	}
	token, err := signAccessToken(p.secret, sess)
	if err != nil {
		return err
	}
	sess.AccessToken = token
	return nil
}

func (p *Provider) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := p.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	p.publish(ctx, domain.SessionEvent{Type: domain.EventSignedOut, SessionID: sessionID})
	return nil
}

// GetSession returns the live session. Its access token is rotated once it
// enters the last quarter of its lifetime, so a bearer client that reads
// /session before expiry always holds a valid token.
func (p *Provider) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	sess, err := p.sessions.Get(ctx, sessionID)
	if err != nil || sess == nil {
		return nil, err
	}

	now := p.now()
	if now.Before(sess.AccessExpiresAt.Add(-p.opts.AccessTokenTTL / 4)) {
		return sess, nil
	}
	// capped at the session expiry: nothing left to extend
	if !sess.AccessExpiresAt.Before(sess.ExpiresAt) {
		return sess, nil
	}
	if err := p.issueAccessToken(sess, now); err != nil {
		return nil, err
	}
	if err := p.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	p.publish(ctx, domain.SessionEvent{Type: domain.EventTokenRefreshed, SessionID: sess.ID, Session: sess})
	return sess, nil
}

func (p *Provider) Subscribe(sessionID string, fn func(domain.SessionEvent)) func() {
	return p.hub.Subscribe(sessionID, fn)
}

// SendPasswordReset mails a recovery link. Repeated requests for one address
// inside the throttle window are dropped silently.
func (p *Provider) SendPasswordReset(ctx context.Context, email, redirectURL string) error {
	email = normalizeEmail(email)
	user, err := p.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	if p.throttle != nil {
		ok, err := p.throttle.Acquire(ctx, "recover", email)
		if err != nil {
			p.log.Warn().Err(err).Msg("reset throttle unavailable")
		} else if !ok {
			p.log.Info().Str("user_id", user.ID).Msg("password reset throttled")
			return nil
		}
	}

	return p.sendLink(ctx, domain.OneTimeToken{Type: domain.OTPRecovery, UserID: user.ID, Email: email},
		domain.MailResetPassword, redirectURL)
}

// VerifyOTP redeems a token of the given type. signup and recovery tokens sign
// the user in and return the new session; email_change tokens apply the
// pending address and return nil.
func (p *Provider) VerifyOTP(ctx context.Context, token string, typ domain.OTPType) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrInvalidOTP
	}
	t, err := p.tokens.Consume(ctx, token)
	if err != nil {
		return nil, err
	}
	if t.Type != typ {
		return nil, domain.ErrInvalidOTP
	}

	switch t.Type {
	case domain.OTPSignup:
		if err := p.users.ConfirmEmail(ctx, t.UserID, p.now()); err != nil {
			return nil, err
		}
	case domain.OTPEmailChange:
		if _, err := p.users.ApplyEmailChange(ctx, t.UserID); err != nil {
			return nil, err
		}
		p.log.Info().Str("user_id", t.UserID).Msg("email change applied")
		return nil, nil
	}

	user, err := p.users.FindByID(ctx, t.UserID)
	if err != nil {
		return nil, err
	}
	return p.createSession(ctx, &user.Identity)
}

// UpdateUser changes the password immediately. An email change is only
// recorded as pending and confirmed through a link sent to the new address.
func (p *Provider) UpdateUser(ctx context.Context, sessionID string, update domain.UserUpdate) (*domain.Identity, error) {
	sess, err := p.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, domain.ErrSessionNotFound
	}

	if update.Password != nil {
		if len(*update.Password) < MinPasswordLength {
			return nil, domain.ErrWeakPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*update.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		if err := p.users.SetPassword(ctx, sess.UserID, string(hash)); err != nil {
			return nil, err
		}
	}

	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		if err := p.validate.Var(email, "required,email"); err != nil {
			return nil, domain.ErrInvalidEmail
		}
		existing, err := p.users.FindByEmail(ctx, email)
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
		case err != nil:
			return nil, fmt.Errorf("look up email: %w", err)
		case existing.ID != sess.UserID:
			return nil, domain.ErrUserExists
		}
		if err := p.users.SetPendingEmail(ctx, sess.UserID, email); err != nil {
			return nil, err
		}
		if err := p.sendLink(ctx, domain.OneTimeToken{Type: domain.OTPEmailChange, UserID: sess.UserID, Email: email},
			domain.MailChangeEmail, p.opts.EmailChangeURL); err != nil {
			return nil, err
		}
	}

	user, err := p.users.FindByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	p.publish(ctx, domain.SessionEvent{Type: domain.EventUserUpdated, SessionID: sess.ID, Session: sess})
	identity := user.Identity
	return &identity, nil
}

func (p *Provider) GetUserByID(ctx context.Context, id string) (*domain.Identity, error) {
	user, err := p.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	identity := user.Identity
	return &identity, nil
}

func (p *Provider) ListUsers(ctx context.Context) ([]domain.Identity, error) {
	return p.users.List(ctx)
}

// SessionFromAccessToken validates a bearer token and returns its session ID.
func (p *Provider) SessionFromAccessToken(raw string) (string, error) {
	claims, err := ParseAccessToken(p.secret, raw)
	if err != nil {
		return "", err
	}
	return claims.SessionID, nil
}

func (p *Provider) sendLink(ctx context.Context, t domain.OneTimeToken, kind domain.MailKind, redirectURL string) error {
	raw, err := p.tokens.Issue(ctx, t, p.opts.OTPTTL)
	if err != nil {
		return err
	}
	link, err := buildLink(redirectURL, raw, t.Type)
	if err != nil {
		return err
	}
	p.mail.Enqueue(domain.OutboundMail{Kind: kind, To: t.Email, Link: link})
	return nil
}

func (p *Provider) publish(ctx context.Context, ev domain.SessionEvent) {
	if err := p.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		p.log.Warn().Err(err).Str("event", string(ev.Type)).Str("session_id", ev.SessionID).Msg("session event not published")
	}
}

// buildLink appends token and type to redirectURL.
func buildLink(redirectURL, token string, typ domain.OTPType) (string, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return "", fmt.Errorf("parse redirect url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	q.Set("type", string(typ))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
