package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jurifinder/legal-vault/internal/core/domain"
	"github.com/jurifinder/legal-vault/internal/core/ports"
	"github.com/jurifinder/legal-vault/pkg/logger"
)

// MissingEmail is shown for profiles whose identity could not be found.
const MissingEmail = "email not found"

type adminService struct {
	idp      ports.IdentityProvider
	profiles ports.ProfileRepository
	log      zerolog.Logger
}

// NewAdminService returns an AdminService.
func NewAdminService(idp ports.IdentityProvider, profiles ports.ProfileRepository, log zerolog.Logger) ports.AdminService {
	return &adminService{
		idp:      idp,
		profiles: profiles,
		log:      logger.Component(log, "admin_service"),
	}
}

func (s *adminService) Overview(ctx context.Context, search string) (*ports.AdminOverview, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	out := &ports.AdminOverview{
		TotalUsers: len(users),
		ByStatus: map[domain.ProfileStatus]int{
			domain.StatusPending: 0,
			domain.StatusActive:  0,
			domain.StatusBlocked: 0,
		},
		Users: make([]domain.ManagedUser, 0, len(users)),
	}

	term := strings.ToLower(strings.TrimSpace(search))
	for _, u := range users {
		out.ByStatus[u.Status]++
		if term == "" || strings.Contains(strings.ToLower(u.Email), term) {
			out.Users = append(out.Users, u)
		}
	}
	return out, nil
}

func (s *adminService) ListUsers(ctx context.Context) ([]domain.ManagedUser, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	identities, err := s.idp.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}

	byID := make(map[string]domain.Identity, len(identities))
	for _, id := range identities {
		byID[id.ID] = id
	}

	users := make([]domain.ManagedUser, 0, len(profiles))
	for _, p := range profiles {
		users = append(users, join(p, byID[p.ID]))
	}
	return users, nil
}

func join(p domain.Profile, id domain.Identity) domain.ManagedUser {
	u := domain.ManagedUser{ID: p.ID, Email: id.Email, Status: p.Status, CreatedAt: id.CreatedAt}
	if u.Email == "" {
		u.Email = MissingEmail
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = p.CreatedAt
	}
	return u
}

func (s *adminService) GetUser(ctx context.Context, id string) (*domain.ManagedUser, error) {
	profile, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	var identity domain.Identity
	found, err := s.idp.GetUserByID(ctx, id)
	switch {
	case err == nil:
		identity = *found
	case errors.Is(err, domain.ErrUserNotFound):
	default:
		return nil, err
	}

	u := join(*profile, identity)
	return &u, nil
}

func (s *adminService) UpdateStatus(ctx context.Context, id, status string) (*domain.ManagedUser, error) {
	st, err := domain.ParseProfileStatus(status)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.UpdateStatus(ctx, id, st); err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	s.log.Info().Str("user_id", id).Str("status", string(st)).Msg("profile status updated")
	return s.GetUser(ctx, id)
}
