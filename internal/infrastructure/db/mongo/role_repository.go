package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jurifinder/legal-vault/internal/core/domain"
)

const rolesCollection = "user_roles"

// RoleRepository reads role assignments. Grant and Revoke exist for the
// provisioning CLI only; no HTTP route reaches them.
type RoleRepository struct {
	coll *mongo.Collection
}

func NewRoleRepository(db *mongo.Database) *RoleRepository {
	return &RoleRepository{coll: db.Collection(rolesCollection)}
}

type mongoRole struct {
	UserID    string `bson:"user_id"`
	Role      string `bson:"role"`
	CreatedAt int64  `bson:"created_at"`
}

func (r *RoleRepository) FindByUserID(ctx context.Context, userID string) (*domain.RoleAssignment, error) {
	var mr mongoRole
	if err := r.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&mr); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return &domain.RoleAssignment{
		UserID:    mr.UserID,
		Role:      mr.Role,
		CreatedAt: unixToTime(mr.CreatedAt),
	}, nil
}

func (r *RoleRepository) Grant(ctx context.Context, userID, role string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$set":         bson.M{"role": role},
			"$setOnInsert": bson.M{"created_at": time.Now().UTC().Unix()},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	return nil
}

func (r *RoleRepository) Revoke(ctx context.Context, userID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}
