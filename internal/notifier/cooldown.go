package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cooldown rate-limits alert emails per user with a Redis key that expires
// after the cooldown period.
type Cooldown struct {
	client *redis.Client
	period time.Duration
}

// NewCooldown returns a cooldown, or nil when no Redis client is configured
// or the period is zero (rate limiting disabled).
func NewCooldown(client *redis.Client, period time.Duration) *Cooldown {
	if client == nil || period <= 0 {
		return nil
	}
	return &Cooldown{client: client, period: period}
}

// Allow reports whether the user may be emailed now, and starts the cooldown
// window when they may. SetNX makes the check-and-set atomic.
func (c *Cooldown) Allow(ctx context.Context, userEmail string) (bool, error) {
	key := fmt.Sprintf("teewatch:cooldown:%s", userEmail)
	ok, err := c.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), c.period).Result()
	if err != nil {
		return false, fmt.Errorf("checking cooldown for %s: %w", userEmail, err)
	}
	return ok, nil
}
