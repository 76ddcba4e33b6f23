package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// SearchHistory keeps recent search terms in a Redis list, newest first.
type SearchHistory struct {
	client *redis.Client
}

func NewSearchHistory(client *redis.Client) *SearchHistory {
	return &SearchHistory{client: client}
}

func (h *SearchHistory) Recent(ctx context.Context, userID string) ([]string, error) {
	terms, err := h.client.LRange(ctx, searchesPrefix+userID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("recent searches: %w", err)
	}
	return terms, nil
}

// Push moves term to the front, dropping an older copy and anything beyond keep.
func (h *SearchHistory) Push(ctx context.Context, userID, term string, keep int) ([]string, error) {
	key := searchesPrefix + userID
	var lrange *redis.StringSliceCmd
	_, err := h.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LRem(ctx, key, 0, term)
		p.LPush(ctx, key, term)
		p.LTrim(ctx, key, 0, int64(keep-1))
		lrange = p.LRange(ctx, key, 0, -1)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("push search: %w", err)
	}
	return lrange.Val(), nil
}
