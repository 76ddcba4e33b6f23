package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jurifinder/legal-vault/internal/core/domain"
)

// DocumentCache mirrors an identity's document list as one JSON array.
// Writes are last-writer-wins; concurrent writers are not coordinated.
type DocumentCache struct {
	client *redis.Client
}

func NewDocumentCache(client *redis.Client) *DocumentCache {
	return &DocumentCache{client: client}
}

func (c *DocumentCache) Load(ctx context.Context, userID string) ([]domain.Document, error) {
	b, err := c.client.Get(ctx, documentsPrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []domain.Document{}, nil
		}
		return nil, fmt.Errorf("load documents: %w", err)
	}
	var docs []domain.Document
	if err := json.Unmarshal(b, &docs); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	return docs, nil
}

func (c *DocumentCache) Save(ctx context.Context, userID string, docs []domain.Document) error {
	if docs == nil {
		docs = []domain.Document{}
	}
	b, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}
	if err := c.client.Set(ctx, documentsPrefix+userID, b, 0).Err(); err != nil {
		return fmt.Errorf("save documents: %w", err)
	}
	return nil
}
