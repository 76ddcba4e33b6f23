package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jurifinder/legal-vault/internal/core/domain"
)

// TokenStore issues single-use tokens. Only a SHA-256 of the token is stored.
type TokenStore struct {
	client *redis.Client
}

func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

// Issue stores t for ttl and returns the raw token to embed in a link.
func (s *TokenStore) Issue(ctx context.Context, t domain.OneTimeToken, ttl time.Duration) (string, error) {
	raw := uuid.NewString()
	b, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}
	if err := s.client.Set(ctx, s.key(raw), b, ttl).Err(); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return raw, nil
}

// Consume returns and deletes the token. A missing or expired token yields
// domain.ErrInvalidOTP.
func (s *TokenStore) Consume(ctx context.Context, raw string) (*domain.OneTimeToken, error) {
	b, err := s.client.GetDel(ctx, s.key(raw)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrInvalidOTP
		}
		return nil, fmt.Errorf("consume token: %w", err)
	}
	var t domain.OneTimeToken
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &t, nil
}

func (s *TokenStore) key(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return otpPrefix + hex.EncodeToString(sum[:])
}
