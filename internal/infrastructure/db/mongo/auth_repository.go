package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jurifinder/legal-vault/internal/core/domain"
)

const usersCollection = "auth_users"

// UserRepository stores the identity provider's credentials.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

type mongoUser struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Email            string             `bson:"email"`
	PasswordHash     string             `bson:"password_hash"`
	PendingEmail     string             `bson:"pending_email,omitempty"`
	EmailConfirmedAt int64              `bson:"email_confirmed_at,omitempty"`
	CreatedAt        int64              `bson:"created_at"`
	UpdatedAt        int64              `bson:"updated_at"`
}

func (u mongoUser) toDomain() *domain.Credentials {
	c := &domain.Credentials{
		Identity: domain.Identity{
			ID:        u.ID.Hex(),
			Email:     u.Email,
			CreatedAt: unixToTime(u.CreatedAt),
		},
		PasswordHash: u.PasswordHash,
		PendingEmail: u.PendingEmail,
	}
	if u.EmailConfirmedAt != 0 {
		at := unixToTime(u.EmailConfirmedAt)
		c.EmailConfirmedAt = &at
	}
	return c
}

func (r *UserRepository) Create(ctx context.Context, user *domain.Credentials) (*domain.Credentials, error) {
	now := time.Now().UTC()
	if !user.CreatedAt.IsZero() {
		now = user.CreatedAt
	}
	doc := mongoUser{
		Email:        normalizeEmail(user.Email),
		PasswordHash: user.PasswordHash,
		CreatedAt:    now.Unix(),
		UpdatedAt:    now.Unix(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
		return doc.toDomain(), nil
	}
	return r.FindByEmail(ctx, doc.Email)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.Credentials, error) {
	return r.findOne(ctx, bson.M{"email": normalizeEmail(email)})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.Credentials, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.Credentials, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.Identity, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]domain.Identity, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain().Identity)
	}
	return out, nil
}

func (r *UserRepository) ConfirmEmail(ctx context.Context, id string, at time.Time) error {
	return r.update(ctx, id, bson.M{"$set": bson.M{"email_confirmed_at": at.Unix()}})
}

func (r *UserRepository) SetPassword(ctx context.Context, id, hash string) error {
	return r.update(ctx, id, bson.M{"$set": bson.M{"password_hash": hash}})
}

func (r *UserRepository) SetPendingEmail(ctx context.Context, id, email string) error {
	return r.update(ctx, id, bson.M{"$set": bson.M{"pending_email": normalizeEmail(email)}})
}

// ApplyEmailChange promotes pending_email to email. It fails with
// ErrUserExists if another account took the address in the meantime.
func (r *UserRepository) ApplyEmailChange(ctx context.Context, id string) (*domain.Credentials, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.PendingEmail == "" {
		return user, nil
	}
	err = r.update(ctx, id, bson.M{
		"$set":   bson.M{"email": user.PendingEmail},
		"$unset": bson.M{"pending_email": ""},
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *UserRepository) update(ctx context.Context, id string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}
	if set, ok := update["$set"].(bson.M); ok {
		set["updated_at"] = time.Now().UTC().Unix()
	}
	res, err := r.coll.UpdateByID(ctx, oid, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return err
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
