package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jurifinder/legal-vault/internal/api/metrics"
	"github.com/jurifinder/legal-vault/internal/core/domain"
	"github.com/jurifinder/legal-vault/internal/core/ports"
	"github.com/jurifinder/legal-vault/pkg/logger"
)

// Pages the identity provider links back to from its emails.
const (
	EmailVerificationPath = "/email-verification"
	UpdatePasswordPath    = "/update-password"
)

type accountService struct {
	idp       ports.IdentityProvider
	profiles  ports.ProfileRepository
	resolvers *ResolverFactory
	publicURL string
	log       zerolog.Logger
}

// NewAccountService returns an AccountService. publicURL is the externally
// visible base URL used to build email links.
func NewAccountService(
	idp ports.IdentityProvider,
	profiles ports.ProfileRepository,
	resolvers *ResolverFactory,
	publicURL string,
	log zerolog.Logger,
) ports.AccountService {
	return &accountService{
		idp:       idp,
		profiles:  profiles,
		resolvers: resolvers,
		publicURL: strings.TrimRight(publicURL, "/"),
		log:       logger.Component(log, "account_service"),
	}
}

func (s *accountService) SignUp(ctx context.Context, email, password, confirm string) (*domain.Identity, error) {
	if password != confirm {
		return nil, domain.ErrPasswordMismatch
	}
	email = strings.TrimSpace(email)

	identity, err := s.idp.SignUp(ctx, email, password, s.publicURL+EmailVerificationPath)
	if err != nil {
		return nil, err
	}

	// A missing profile is created again on first sign-in.
	if err := s.ensureProfile(ctx, identity.ID); err != nil {
		s.log.Error().Err(err).Str("user_id", identity.ID).Msg("failed to create profile at signup")
	}

	s.log.Info().Str("user_id", identity.ID).Msg("account created")
	return identity, nil
}

func (s *accountService) SignIn(ctx context.Context, email, password string) (*domain.Session, domain.SessionView, error) {
	sess, err := s.idp.SignIn(ctx, strings.TrimSpace(email), password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failed").Inc()
		return nil, domain.SessionView{}, err
	}

	if err := s.ensureProfile(ctx, sess.UserID); err != nil {
		s.log.Warn().Err(err).Str("user_id", sess.UserID).Msg("lazy profile creation failed")
	}

	view, err := s.resolvers.Resolve(ctx, sess.ID)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("unresolved").Inc()
		if signOutErr := s.idp.SignOut(context.WithoutCancel(ctx), sess.ID); signOutErr != nil {
			s.log.Warn().Err(signOutErr).Str("session_id", sess.ID).Msg("sign-out after failed resolution")
		}
		return nil, domain.SessionView{}, fmt.Errorf("resolve session: %w", err)
	}
	if !view.SignedIn() {
		metrics.LoginsTotal.WithLabelValues("inactive").Inc()
		return nil, view, domain.ErrAccountInactive
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return sess, view, nil
}

func (s *accountService) ensureProfile(ctx context.Context, userID string) error {
	_, err := s.profiles.FindByID(ctx, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return err
	}
	err = s.profiles.Create(ctx, &domain.Profile{
		ID:        userID,
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	})
	if errors.Is(err, domain.ErrProfileExists) {
		return nil
	}
	return err
}

func (s *accountService) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.idp.SignOut(ctx, sessionID)
}

func (s *accountService) VerifyEmail(ctx context.Context, token, typ string) error {
	otp := domain.OTPType(typ)
	if token == "" || (otp != domain.OTPSignup && otp != domain.OTPEmailChange) {
		return domain.ErrInvalidVerificationLink
	}
	sess, err := s.idp.VerifyOTP(ctx, token, otp)
	if err != nil {
		return err
	}
	// Verification does not sign the visitor in: the profile still needs an
	// administrator's approval, so the next step is the login page.
	if sess != nil {
		if err := s.idp.SignOut(ctx, sess.ID); err != nil {
			s.log.Warn().Err(err).Msg("sign-out after email verification failed")
		}
	}
	return nil
}

func (s *accountService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.ErrInvalidEmail
	}
	err := s.idp.SendPasswordReset(ctx, email, s.publicURL+UpdatePasswordPath)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil
	}
	return err
}

func (s *accountService) UpdatePassword(ctx context.Context, in ports.UpdatePasswordInput) error {
	if in.Password != in.Confirm {
		return domain.ErrPasswordMismatch
	}
	pw := in.Password

	if in.SessionID != "" {
		sess, err := s.idp.GetSession(ctx, in.SessionID)
		if err != nil {
			s.log.Warn().Err(err).Msg("session lookup for password update failed")
		}
		if sess != nil {
			_, err := s.idp.UpdateUser(ctx, sess.ID, domain.UserUpdate{Password: &pw})
			return err
		}
	}

	if in.RecoveryToken == "" {
		return domain.ErrMissingResetToken
	}
	sess, err := s.idp.VerifyOTP(ctx, in.RecoveryToken, domain.OTPRecovery)
	if err != nil {
		return err
	}
	if sess == nil {
		return domain.ErrInvalidOTP
	}
	defer func() {
		if err := s.idp.SignOut(context.WithoutCancel(ctx), sess.ID); err != nil {
			s.log.Warn().Err(err).Msg("sign-out after password recovery failed")
		}
	}()
	if _, err := s.idp.UpdateUser(ctx, sess.ID, domain.UserUpdate{Password: &pw}); err != nil {
		return err
	}
	s.log.Info().Str("user_id", sess.UserID).Msg("password reset completed")
	return nil
}

func (s *accountService) UpdateEmail(ctx context.Context, view domain.SessionView, newEmail, currentPassword string) error {
	if !view.SignedIn() {
		return domain.ErrNotAuthenticated
	}

	check, err := s.idp.SignIn(ctx, view.Identity.Email, currentPassword)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) || errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidCredentials
		}
		return err
	}
	if err := s.idp.SignOut(ctx, check.ID); err != nil {
		s.log.Warn().Err(err).Msg("failed to discard password check session")
	}

	email := strings.TrimSpace(newEmail)
	if _, err := s.idp.UpdateUser(ctx, view.Session.ID, domain.UserUpdate{Email: &email}); err != nil {
		return err
	}
	s.log.Info().Str("user_id", view.Identity.ID).Msg("email change requested")
	return nil
}
