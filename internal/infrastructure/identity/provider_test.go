package identity

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jurifinder/legal-vault/internal/core/domain"
	redisstore "github.com/jurifinder/legal-vault/internal/infrastructure/db/redis"
)

type memUsers struct {
	mu      sync.Mutex
	next    int
	users   map[string]*domain.Credentials
	findErr error
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]*domain.Credentials)}
}

func clone(c *domain.Credentials) *domain.Credentials {
	cp := *c
	return &cp
}

func (m *memUsers) Create(_ context.Context, user *domain.Credentials) (*domain.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	m.next++
	c := clone(user)
	c.ID = "user-" + strconv.Itoa(m.next)
	m.users[c.ID] = c
	return clone(c), nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*domain.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUsers) FindByID(_ context.Context, id string) (*domain.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(u), nil
}

func (m *memUsers) List(_ context.Context) ([]domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Identity, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u.Identity)
	}
	return out, nil
}

func (m *memUsers) with(id string, fn func(*domain.Credentials)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	fn(u)
	return nil
}

func (m *memUsers) ConfirmEmail(_ context.Context, id string, at time.Time) error {
	return m.with(id, func(u *domain.Credentials) { u.EmailConfirmedAt = &at })
}

func (m *memUsers) SetPassword(_ context.Context, id, hash string) error {
	return m.with(id, func(u *domain.Credentials) { u.PasswordHash = hash })
}

func (m *memUsers) SetPendingEmail(_ context.Context, id, email string) error {
	return m.with(id, func(u *domain.Credentials) { u.PendingEmail = email })
}

func (m *memUsers) ApplyEmailChange(_ context.Context, id string) (*domain.Credentials, error) {
	var out *domain.Credentials
	err := m.with(id, func(u *domain.Credentials) {
		if u.PendingEmail != "" {
			u.Email, u.PendingEmail = u.PendingEmail, ""
		}
		out = clone(u)
	})
	return out, err
}

type capturedMail struct {
	mu   sync.Mutex
	sent []domain.OutboundMail
}

func (c *capturedMail) Enqueue(m domain.OutboundMail) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, m)
}

func (c *capturedMail) last(t *testing.T) domain.OutboundMail {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.sent, "expected a mail to be queued")
	return c.sent[len(c.sent)-1]
}

func (c *capturedMail) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

type fixture struct {
	provider *Provider
	users    *memUsers
	mail     *capturedMail
	hub      *Hub
	mr       *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{users: newMemUsers(), mail: &capturedMail{}, hub: NewHub(), mr: mr}
	f.provider = NewProvider(
		f.users,
		redisstore.NewSessionStore(client),
		redisstore.NewTokenStore(client),
		redisstore.NewThrottle(client, time.Minute),
		f.mail,
		f.hub,
		f.hub,
		Options{
			JWTSecret:      "test-secret",
			SessionTTL:     time.Hour,
			AccessTokenTTL: time.Minute,
			OTPTTL:         time.Hour,
			EmailChangeURL: "http://vault.test/email-verification",
		},
		zerolog.Nop(),
	)
	return f
}

func tokenFromLink(t *testing.T, link string) (string, string) {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token"), u.Query().Get("type")
}

// signUpConfirmed registers and confirms an account, returning its ID.
func (f *fixture) signUpConfirmed(t *testing.T, email, password string) string {
	t.Helper()
	ctx := context.Background()
	id, err := f.provider.SignUp(ctx, email, password, "http://vault.test/email-verification")
	require.NoError(t, err)
	token, _ := tokenFromLink(t, f.mail.last(t).Link)
	sess, err := f.provider.VerifyOTP(ctx, token, domain.OTPSignup)
	require.NoError(t, err)
	require.NoError(t, f.provider.SignOut(ctx, sess.ID))
	return id.ID
}

func TestProvider_SignUp_SendsConfirmation(t *testing.T) {
	f := newFixture(t)

	id, err := f.provider.SignUp(context.Background(), "  Ana@Example.com ", "secret1", "http://vault.test/email-verification")
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", id.Email)
	require.Nil(t, id.EmailConfirmedAt)

	mail := f.mail.last(t)
	require.Equal(t, domain.MailConfirmSignup, mail.Kind)
	require.Equal(t, "ana@example.com", mail.To)
	token, typ := tokenFromLink(t, mail.Link)
	require.NotEmpty(t, token)
	require.Equal(t, "signup", typ)

	stored, err := f.users.FindByID(context.Background(), id.ID)
	require.NoError(t, err)
	require.NotEqual(t, "secret1", stored.PasswordHash)
}

func TestProvider_SignUp_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.provider.SignUp(ctx, "not-an-email", "secret1", "")
	require.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = f.provider.SignUp(ctx, "ana@example.com", "123", "")
	require.ErrorIs(t, err, domain.ErrWeakPassword)

	_, err = f.provider.SignUp(ctx, "ana@example.com", "secret1", "")
	require.NoError(t, err)
	_, err = f.provider.SignUp(ctx, "ana@example.com", "secret1", "")
	require.ErrorIs(t, err, domain.ErrUserExists)
}

func TestProvider_SignIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.provider.SignUp(ctx, "ana@example.com", "secret1", "")
	require.NoError(t, err)

	_, err = f.provider.SignIn(ctx, "ana@example.com", "secret1")
	require.ErrorIs(t, err, domain.ErrEmailNotConfirmed)

	token, _ := tokenFromLink(t, f.mail.last(t).Link)
	_, err = f.provider.VerifyOTP(ctx, token, domain.OTPSignup)
	require.NoError(t, err)

	_, err = f.provider.SignIn(ctx, "ana@example.com", "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.provider.SignIn(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	sess, err := f.provider.SignIn(ctx, "ANA@example.com", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)
	require.NotEmpty(t, sess.AccessToken)

	sid, err := f.provider.SessionFromAccessToken(sess.AccessToken)
	require.NoError(t, err)
	require.Equal(t, sess.ID, sid)

	got, err := f.provider.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, sess.UserID, got.UserID)
}

func TestProvider_VerifyOTP_SingleUseAndTyped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.provider.SignUp(ctx, "ana@example.com", "secret1", "")
	require.NoError(t, err)
	token, _ := tokenFromLink(t, f.mail.last(t).Link)

	_, err = f.provider.VerifyOTP(ctx, token, domain.OTPRecovery)
	require.ErrorIs(t, err, domain.ErrInvalidOTP, "wrong type")

	// the mismatched attempt consumed the token
	_, err = f.provider.VerifyOTP(ctx, token, domain.OTPSignup)
	require.ErrorIs(t, err, domain.ErrInvalidOTP)

	_, err = f.provider.VerifyOTP(ctx, "", domain.OTPSignup)
	require.ErrorIs(t, err, domain.ErrInvalidOTP)
}

func TestProvider_SignOut_PublishesAndClears(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signUpConfirmed(t, "ana@example.com", "secret1")

	sess, err := f.provider.SignIn(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	var got []domain.SessionEvent
	unsubscribe := f.provider.Subscribe(sess.ID, func(ev domain.SessionEvent) { got = append(got, ev) })
	defer unsubscribe()

	require.NoError(t, f.provider.SignOut(ctx, sess.ID))
	require.Len(t, got, 1)
	require.Equal(t, domain.EventSignedOut, got[0].Type)
	require.Nil(t, got[0].Session)

	after, err := f.provider.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Nil(t, after)
}

func TestProvider_GetSession_RefreshesExpiredAccessToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signUpConfirmed(t, "ana@example.com", "secret1")

	sess, err := f.provider.SignIn(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	var events []domain.SessionEventType
	unsubscribe := f.provider.Subscribe(sess.ID, func(ev domain.SessionEvent) { events = append(events, ev.Type) })
	defer unsubscribe()

	f.provider.now = func() time.Time { return time.Now().UTC().Add(2 * time.Minute) }
	got, err := f.provider.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, sess.ID, got.ID, "session ID is stable across refresh")
	require.NotEqual(t, sess.AccessToken, got.AccessToken)
	require.Equal(t, []domain.SessionEventType{domain.EventTokenRefreshed}, events)
}

func TestProvider_GetSession_RefreshesBeforeExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signUpConfirmed(t, "ana@example.com", "secret1")

	sess, err := f.provider.SignIn(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	start := time.Now().UTC()

	f.provider.now = func() time.Time { return start.Add(10 * time.Second) }
	got, err := f.provider.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, sess.AccessToken, got.AccessToken, "fresh token is kept")

	f.provider.now = func() time.Time { return start.Add(50 * time.Second) }
	got, err = f.provider.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.NotEqual(t, sess.AccessToken, got.AccessToken)
	require.True(t, got.AccessExpiresAt.After(sess.AccessExpiresAt))

	// the rotated token maps to the same session
	sid, err := f.provider.SessionFromAccessToken(got.AccessToken)
	require.NoError(t, err)
	require.Equal(t, sess.ID, sid)
}

func TestProvider_PasswordRecovery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signUpConfirmed(t, "ana@example.com", "secret1")

	err := f.provider.SendPasswordReset(ctx, "nobody@example.com", "http://vault.test/update-password")
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	require.NoError(t, f.provider.SendPasswordReset(ctx, "ana@example.com", "http://vault.test/update-password"))
	mail := f.mail.last(t)
	require.Equal(t, domain.MailResetPassword, mail.Kind)
	token, typ := tokenFromLink(t, mail.Link)
	require.Equal(t, "recovery", typ)

	sent := f.mail.count()
	require.NoError(t, f.provider.SendPasswordReset(ctx, "ana@example.com", "http://vault.test/update-password"))
	require.Equal(t, sent, f.mail.count(), "second request inside the window is throttled")

	sess, err := f.provider.VerifyOTP(ctx, token, domain.OTPRecovery)
	require.NoError(t, err)
	require.NotNil(t, sess)

	pw := "new-secret"
	_, err = f.provider.UpdateUser(ctx, sess.ID, domain.UserUpdate{Password: &pw})
	require.NoError(t, err)

	_, err = f.provider.SignIn(ctx, "ana@example.com", "secret1")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.provider.SignIn(ctx, "ana@example.com", "new-secret")
	require.NoError(t, err)
}

func TestProvider_EmailChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.signUpConfirmed(t, "ana@example.com", "secret1")
	f.signUpConfirmed(t, "taken@example.com", "secret1")

	sess, err := f.provider.SignIn(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	taken := "taken@example.com"
	_, err = f.provider.UpdateUser(ctx, sess.ID, domain.UserUpdate{Email: &taken})
	require.ErrorIs(t, err, domain.ErrUserExists)

	next := "ana.new@example.com"
	identity, err := f.provider.UpdateUser(ctx, sess.ID, domain.UserUpdate{Email: &next})
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", identity.Email, "address changes only after confirmation")

	mail := f.mail.last(t)
	require.Equal(t, domain.MailChangeEmail, mail.Kind)
	require.Equal(t, next, mail.To)
	token, typ := tokenFromLink(t, mail.Link)
	require.Equal(t, "email_change", typ)

	got, err := f.provider.VerifyOTP(ctx, token, domain.OTPEmailChange)
	require.NoError(t, err)
	require.Nil(t, got)

	changed, err := f.provider.GetUserByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, next, changed.Email)
}

func TestProvider_EmailChange_LookupFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signUpConfirmed(t, "ana@example.com", "secret1")

	sess, err := f.provider.SignIn(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	sent := f.mail.count()

	lookupErr := errors.New("mongo: connection reset")
	f.users.mu.Lock()
	f.users.findErr = lookupErr
	f.users.mu.Unlock()

	next := "ana.new@example.com"
	_, err = f.provider.UpdateUser(ctx, sess.ID, domain.UserUpdate{Email: &next})
	require.ErrorIs(t, err, lookupErr)
	require.Equal(t, sent, f.mail.count(), "no confirmation is sent when the lookup fails")
}

func TestProvider_UpdateUser_NoSession(t *testing.T) {
	f := newFixture(t)
	pw := "whatever"
	_, err := f.provider.UpdateUser(context.Background(), "missing", domain.UserUpdate{Password: &pw})
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestParseAccessToken_Rejects(t *testing.T) {
	sess := &domain.Session{ID: "s1", UserID: "u1", AccessExpiresAt: time.Now().Add(time.Minute)}
	token, err := signAccessToken([]byte("one"), sess)
	require.NoError(t, err)

	_, err = ParseAccessToken([]byte("two"), token)
	require.ErrorIs(t, err, ErrInvalidToken)

	sess.AccessExpiresAt = time.Now().Add(-time.Minute)
	expired, err := signAccessToken([]byte("one"), sess)
	require.NoError(t, err)
	_, err = ParseAccessToken([]byte("one"), expired)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseAccessToken([]byte("one"), "garbage")
	require.ErrorIs(t, err, ErrInvalidToken)
}
