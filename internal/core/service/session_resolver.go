package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/jurifinder/legal-vault/internal/api/metrics"
	"github.com/jurifinder/legal-vault/internal/core/domain"
	"github.com/jurifinder/legal-vault/internal/core/ports"
	"github.com/jurifinder/legal-vault/pkg/logger"
)

// ErrResolverClosed is returned by Wait when the resolver was torn down before
// any view was resolved.
var ErrResolverClosed = errors.New("session resolver closed")

// SessionResolver turns a session ID into a SessionView. It reads one snapshot
// from the identity provider and follows the provider's change notifications
// for the same session until Close is called.
//
// Every update is stamped when it is issued: the snapshot when its request is
// sent, a notification when it arrives, a sign-out when the provider has
// acknowledged it. An update is applied only if its stamp is newer than the
// one already applied, so the view converges on the most recently issued
// update no matter which lookup finishes first.
type SessionResolver struct {
	idp      ports.IdentityProvider
	profiles ports.ProfileRepository
	roles    ports.RoleRepository
	log      zerolog.Logger

	seq atomic.Uint64

	mu          sync.Mutex
	sessionID   string
	view        domain.SessionView
	notice      *domain.Notice
	applied     uint64
	started     bool
	closed      bool
	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	wg          sync.WaitGroup

	resolved    chan struct{}
	resolveOnce sync.Once
	done        chan struct{}
}

// NewSessionResolver returns an unstarted resolver.
func NewSessionResolver(
	idp ports.IdentityProvider,
	profiles ports.ProfileRepository,
	roles ports.RoleRepository,
	log zerolog.Logger,
) *SessionResolver {
	return &SessionResolver{
		idp:      idp,
		profiles: profiles,
		roles:    roles,
		log:      logger.Component(log, "session_resolver"),
		resolved: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start subscribes to changes of sessionID and issues the snapshot read.
// An empty sessionID resolves immediately to a signed-out view. Calling Start
// more than once, or after Close, has no effect.
func (r *SessionResolver) Start(ctx context.Context, sessionID string) {
	r.mu.Lock()
	if r.started || r.closed {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.sessionID = sessionID
	r.ctx, r.cancel = context.WithCancel(ctx)

	if sessionID == "" {
		r.mu.Unlock()
		r.apply(r.seq.Add(1), domain.SessionView{})
		return
	}
	r.mu.Unlock()

	unsubscribe := r.idp.Subscribe(sessionID, r.onEvent)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		unsubscribe()
		return
	}
	r.unsubscribe = unsubscribe
	stamp := r.seq.Add(1)
	runCtx := r.ctx
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		sess, err := r.idp.GetSession(runCtx, sessionID)
		if err != nil {
			r.log.Warn().Err(err).Str("session_id", sessionID).Msg("session snapshot failed")
			sess = nil
		}
		r.resolveAndApply(runCtx, stamp, sess)
	}()
}

func (r *SessionResolver) onEvent(ev domain.SessionEvent) {
	stamp := r.seq.Add(1)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	runCtx := r.ctx
	r.wg.Add(1)
	r.mu.Unlock()

	r.log.Debug().Str("event", string(ev.Type)).Str("session_id", ev.SessionID).Uint64("stamp", stamp).Msg("session event")

	go func() {
		defer r.wg.Done()
		var sess *domain.Session
		if ev.Type != domain.EventSignedOut {
			sess = ev.Session
		}
		r.resolveAndApply(runCtx, stamp, sess)
	}()
}

// resolveAndApply performs the profile and role lookups for sess and applies
// the result under stamp.
func (r *SessionResolver) resolveAndApply(ctx context.Context, stamp uint64, sess *domain.Session) {
	if r.stale(stamp) {
		metrics.StaleUpdatesTotal.Inc()
		return
	}
	if sess == nil {
		r.apply(stamp, domain.SessionView{})
		metrics.SessionResolutionsTotal.WithLabelValues("signed_out").Inc()
		return
	}

	identity := &domain.Identity{ID: sess.UserID, Email: sess.Email}

	profile, err := r.profiles.FindByID(ctx, sess.UserID)
	observed := err == nil && profile != nil
	if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
		r.log.Warn().Err(err).Str("user_id", sess.UserID).Msg("profile lookup failed")
	}

	if !observed || profile.Status != domain.StatusActive {
		view := domain.SessionView{}
		outcome := "profile_unavailable"
		if observed {
			notice := domain.NoticeAccountInactive
			view.Notice = &notice
			outcome = "inactive"
			r.log.Info().Str("user_id", sess.UserID).Str("status", string(profile.Status)).Msg("inactive account signed out")
		}
		r.apply(stamp, view)
		metrics.SessionResolutionsTotal.WithLabelValues(outcome).Inc()
		r.forceSignOut(ctx, sess.ID)
		return
	}

	isAdmin := false
	role, err := r.roles.FindByUserID(ctx, sess.UserID)
	switch {
	case err == nil && role != nil:
		isAdmin = role.Role == domain.RoleAdmin
	case err != nil && !errors.Is(err, domain.ErrRoleNotFound):
		r.log.Warn().Err(err).Str("user_id", sess.UserID).Msg("role lookup failed")
	}

	r.apply(stamp, domain.SessionView{
		Session:  sess,
		Identity: identity,
		Status:   profile.Status,
		IsActive: true,
		IsAdmin:  isAdmin,
	})
	if isAdmin {
		metrics.SessionResolutionsTotal.WithLabelValues("admin").Inc()
	} else {
		metrics.SessionResolutionsTotal.WithLabelValues("active").Inc()
	}
}

func (r *SessionResolver) forceSignOut(ctx context.Context, sessionID string) {
	metrics.ForcedSignOutsTotal.Inc()
	// Teardown must not abort an invalidation already decided on.
	if err := r.idp.SignOut(context.WithoutCancel(ctx), sessionID); err != nil {
		r.log.Warn().Err(err).Str("session_id", sessionID).Msg("forced sign-out failed")
	}
}

func (r *SessionResolver) stale(stamp uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed || stamp <= r.applied
}

// apply installs view if stamp is newer than the applied one. A notice, once
// raised, survives later signed-out views until a signed-in view replaces it.
func (r *SessionResolver) apply(stamp uint64, view domain.SessionView) bool {
	r.mu.Lock()
	if r.closed || stamp <= r.applied {
		r.mu.Unlock()
		metrics.StaleUpdatesTotal.Inc()
		return false
	}
	r.applied = stamp
	r.view = view
	if view.Notice != nil {
		r.notice = view.Notice
	}
	if view.SignedIn() {
		r.notice = nil
	}
	r.mu.Unlock()

	r.resolveOnce.Do(func() { close(r.resolved) })
	return true
}

// View returns the most recently applied view.
func (r *SessionResolver) View() domain.SessionView {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.view
	if !v.SignedIn() && r.notice != nil {
		n := *r.notice
		v.Notice = &n
	}
	return v
}

// Resolved reports whether any view has been applied yet.
func (r *SessionResolver) Resolved() bool {
	select {
	case <-r.resolved:
		return true
	default:
		return false
	}
}

// Wait blocks until the first view is applied, ctx is done or the resolver
// is closed.
func (r *SessionResolver) Wait(ctx context.Context) (domain.SessionView, error) {
	select {
	case <-r.resolved:
		return r.View(), nil
	case <-r.done:
		return domain.SessionView{}, ErrResolverClosed
	case <-ctx.Done():
		return domain.SessionView{}, ctx.Err()
	}
}

// SignOut signs the session out with the identity provider and clears the
// view whatever its previous state. Provider errors are logged, not returned.
func (r *SessionResolver) SignOut(ctx context.Context) {
	r.mu.Lock()
	sessionID := r.sessionID
	r.mu.Unlock()

	if sessionID != "" {
		if err := r.idp.SignOut(ctx, sessionID); err != nil {
			r.log.Warn().Err(err).Str("session_id", sessionID).Msg("sign-out failed")
		}
	}

	stamp := r.seq.Add(1)
	r.mu.Lock()
	r.notice = nil
	r.mu.Unlock()
	r.apply(stamp, domain.SessionView{})
}

// Close unsubscribes from change notifications, cancels in-flight lookups and
// waits for them to return. No update is applied after Close returns.
func (r *SessionResolver) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	unsubscribe := r.unsubscribe
	cancel := r.cancel
	r.unsubscribe = nil
	r.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
	close(r.done)
}

// ResolverFactory builds a fresh resolver per page load.
type ResolverFactory struct {
	idp      ports.IdentityProvider
	profiles ports.ProfileRepository
	roles    ports.RoleRepository
	log      zerolog.Logger
}

// NewResolverFactory captures the collaborators shared by all resolvers.
func NewResolverFactory(
	idp ports.IdentityProvider,
	profiles ports.ProfileRepository,
	roles ports.RoleRepository,
	log zerolog.Logger,
) *ResolverFactory {
	return &ResolverFactory{idp: idp, profiles: profiles, roles: roles, log: log}
}

// New returns an unstarted resolver.
func (f *ResolverFactory) New() *SessionResolver {
	return NewSessionResolver(f.idp, f.profiles, f.roles, f.log)
}

// Resolve starts a resolver for sessionID, waits for its first view and tears
// it down. Used by flows that need a one-shot answer, such as sign-in.
func (f *ResolverFactory) Resolve(ctx context.Context, sessionID string) (domain.SessionView, error) {
	r := f.New()
	defer r.Close()
	r.Start(ctx, sessionID)
	return r.Wait(ctx)
}
