package ports

import (
	"context"

	"github.com/jurifinder/legal-vault/internal/core/domain"
)

// RoleRepository reads role assignments. The application never writes roles.
type RoleRepository interface {
	FindByUserID(ctx context.Context, userID string) (*domain.RoleAssignment, error)
}

// RoleProvisioner is the out-of-band write path used by the admin CLI.
type RoleProvisioner interface {
	RoleRepository
	Grant(ctx context.Context, userID, role string) error
	Revoke(ctx context.Context, userID string) error
}
