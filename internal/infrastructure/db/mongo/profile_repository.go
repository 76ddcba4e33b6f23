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

const profilesCollection = "profiles"

// ProfileRepository keeps one profile document per identity, keyed by the
// identity ID.
type ProfileRepository struct {
	coll *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{coll: db.Collection(profilesCollection)}
}

type mongoProfile struct {
	ID        string `bson:"_id"`
	Status    string `bson:"status"`
	CreatedAt int64  `bson:"created_at"`
	UpdatedAt int64  `bson:"updated_at"`
}

func (p mongoProfile) toDomain() domain.Profile {
	return domain.Profile{
		ID:        p.ID,
		Status:    domain.ProfileStatus(p.Status),
		CreatedAt: unixToTime(p.CreatedAt),
	}
}

func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*domain.Profile, error) {
	var mp mongoProfile
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&mp); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	p := mp.toDomain()
	return &p, nil
}

func (r *ProfileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	created := profile.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	status := profile.Status
	if status == "" {
		status = domain.StatusPending
	}
	_, err := r.coll.InsertOne(ctx, mongoProfile{
		ID:        profile.ID,
		Status:    string(status),
		CreatedAt: created.Unix(),
		UpdatedAt: created.Unix(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrProfileExists
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) UpdateStatus(ctx context.Context, id string, status domain.ProfileStatus) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     string(status),
		"updated_at": time.Now().UTC().Unix(),
	}})
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepository) List(ctx context.Context) ([]domain.Profile, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoProfile
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	out := make([]domain.Profile, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
