package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Throttle suppresses repeats of the same action within a window.
// Key format: vault:throttle:<action>:<subject>
type Throttle struct {
	client *redis.Client
	window time.Duration
}

// NewThrottle creates a Throttle wrapping the given Redis client.
func NewThrottle(client *redis.Client, window time.Duration) *Throttle {
	return &Throttle{client: client, window: window}
}

// Acquire reports whether action may run for subject now. The first caller in
// a window wins; later callers get false until the window expires.
func (t *Throttle) Acquire(ctx context.Context, action, subject string) (bool, error) {
	if t.window <= 0 {
		return true, nil
	}
	ok, err := t.client.SetNX(ctx, t.key(action, subject), "1", t.window).Result()
	if err != nil {
		return false, fmt.Errorf("throttle acquire: %w", err)
	}
	return ok, nil
}

func (t *Throttle) key(action, subject string) string {
	return fmt.Sprintf("%s%s:%s", throttlePrefix, action, subject)
}
