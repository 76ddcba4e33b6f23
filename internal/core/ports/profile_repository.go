package ports

import (
	"context"

	"github.com/jurifinder/legal-vault/internal/core/domain"
)

// ProfileRepository persists account status per identity.
type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Profile, error)
	Create(ctx context.Context, profile *domain.Profile) error
	UpdateStatus(ctx context.Context, id string, status domain.ProfileStatus) error
	List(ctx context.Context) ([]domain.Profile, error)
}
