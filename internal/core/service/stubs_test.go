package service

import (
	"context"
	"sync"
	"time"

	"github.com/jurifinder/legal-vault/internal/core/domain"
)

// fakeIDP is an in-memory identity provider. GetSession can be gated to
// control completion order, and SignOut emits SIGNED_OUT like the real one.
type fakeIDP struct {
	mu        sync.Mutex
	sessions  map[string]*domain.Session
	identity  map[string]domain.Identity
	subs      map[int]fakeSub
	next      int
	signedOut []string

	getGate chan struct{}
	getErr  error

	signInFn   func(email, password string) (*domain.Session, error)
	signUpFn   func(email, password, redirect string) (*domain.Identity, error)
	resetFn    func(email, redirect string) error
	verifyFn   func(token string, typ domain.OTPType) (*domain.Session, error)
	updateFn   func(sessionID string, u domain.UserUpdate) (*domain.Identity, error)
	updateSeen []domain.UserUpdate
}

type fakeSub struct {
	sessionID string
	fn        func(domain.SessionEvent)
}

func newFakeIDP() *fakeIDP {
	return &fakeIDP{
		sessions: map[string]*domain.Session{},
		identity: map[string]domain.Identity{},
		subs:     map[int]fakeSub{},
	}
}

func (f *fakeIDP) addSession(id, userID, email string) *domain.Session {
	s := &domain.Session{
		ID:        id,
		UserID:    userID,
		Email:     email,
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	f.mu.Lock()
	f.sessions[id] = s
	f.identity[userID] = domain.Identity{ID: userID, Email: email}
	f.mu.Unlock()
	return s
}

func (f *fakeIDP) SignUp(_ context.Context, email, password, redirectURL string) (*domain.Identity, error) {
	if f.signUpFn != nil {
		return f.signUpFn(email, password, redirectURL)
	}
	return &domain.Identity{ID: "new-user", Email: email}, nil
}

func (f *fakeIDP) SignIn(_ context.Context, email, password string) (*domain.Session, error) {
	if f.signInFn != nil {
		s, err := f.signInFn(email, password)
		if s != nil {
			f.mu.Lock()
			f.sessions[s.ID] = s
			f.mu.Unlock()
		}
		return s, err
	}
	return nil, domain.ErrInvalidCredentials
}

func (f *fakeIDP) SignOut(_ context.Context, sessionID string) error {
	f.mu.Lock()
	delete(f.sessions, sessionID)
	f.signedOut = append(f.signedOut, sessionID)
	f.mu.Unlock()
	f.emit(domain.SessionEvent{Type: domain.EventSignedOut, SessionID: sessionID})
	return nil
}

func (f *fakeIDP) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	if f.getGate != nil {
		select {
		case <-f.getGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeIDP) Subscribe(sessionID string, fn func(domain.SessionEvent)) func() {
	f.mu.Lock()
	f.next++
	id := f.next
	f.subs[id] = fakeSub{sessionID: sessionID, fn: fn}
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

// emit delivers ev synchronously to current subscribers of its session.
func (f *fakeIDP) emit(ev domain.SessionEvent) {
	f.mu.Lock()
	var targets []func(domain.SessionEvent)
	for _, s := range f.subs {
		if s.sessionID == ev.SessionID {
			targets = append(targets, s.fn)
		}
	}
	f.mu.Unlock()
	for _, fn := range targets {
		fn(ev)
	}
}

func (f *fakeIDP) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fakeIDP) signOuts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.signedOut...)
}

func (f *fakeIDP) hasSession(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.sessions[id]
	return ok
}

func (f *fakeIDP) SendPasswordReset(_ context.Context, email, redirectURL string) error {
	if f.resetFn != nil {
		return f.resetFn(email, redirectURL)
	}
	return nil
}

func (f *fakeIDP) VerifyOTP(_ context.Context, token string, typ domain.OTPType) (*domain.Session, error) {
	if f.verifyFn != nil {
		s, err := f.verifyFn(token, typ)
		if s != nil {
			f.mu.Lock()
			f.sessions[s.ID] = s
			f.mu.Unlock()
		}
		return s, err
	}
	return nil, domain.ErrInvalidOTP
}

func (f *fakeIDP) UpdateUser(_ context.Context, sessionID string, u domain.UserUpdate) (*domain.Identity, error) {
	f.mu.Lock()
	f.updateSeen = append(f.updateSeen, u)
	f.mu.Unlock()
	if f.updateFn != nil {
		return f.updateFn(sessionID, u)
	}
	return &domain.Identity{}, nil
}

func (f *fakeIDP) GetUserByID(_ context.Context, id string) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.identity[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &i, nil
}

func (f *fakeIDP) ListUsers(context.Context) ([]domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Identity, 0, len(f.identity))
	for _, i := range f.identity {
		out = append(out, i)
	}
	return out, nil
}

type stubProfiles struct {
	mu       sync.Mutex
	profiles map[string]domain.Profile
	err      error
	reads    int
}

func newStubProfiles() *stubProfiles {
	return &stubProfiles{profiles: map[string]domain.Profile{}}
}

func (s *stubProfiles) set(id string, st domain.ProfileStatus) {
	s.mu.Lock()
	s.profiles[id] = domain.Profile{ID: id, Status: st, CreatedAt: time.Now()}
	s.mu.Unlock()
}

func (s *stubProfiles) FindByID(_ context.Context, id string) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return &p, nil
}

func (s *stubProfiles) Create(_ context.Context, p *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.ID]; ok {
		return domain.ErrProfileExists
	}
	s.profiles[p.ID] = *p
	return nil
}

func (s *stubProfiles) UpdateStatus(_ context.Context, id string, st domain.ProfileStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return domain.ErrProfileNotFound
	}
	p.Status = st
	s.profiles[id] = p
	return nil
}

func (s *stubProfiles) List(context.Context) ([]domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	return out, nil
}

type stubRoles struct {
	mu    sync.Mutex
	roles map[string]string
	err   error
	reads int
}

func newStubRoles() *stubRoles {
	return &stubRoles{roles: map[string]string{}}
}

func (s *stubRoles) FindByUserID(_ context.Context, id string) (*domain.RoleAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.err != nil {
		return nil, s.err
	}
	r, ok := s.roles[id]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	return &domain.RoleAssignment{UserID: id, Role: r}, nil
}
