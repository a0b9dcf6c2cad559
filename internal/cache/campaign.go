// Package cache holds the Redis-backed read caches. Every cache here is
// fail-open: a cache error is logged and treated as a miss, never
// surfaced to the caller.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/domain"
)

const liveCampaignsKey = "campaigns:live"

// CampaignCache caches the live-campaign snapshot the matcher and price
// calculator read on every request.
type CampaignCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCampaignCache creates a campaign cache with the given entry TTL.
func NewCampaignCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *CampaignCache {
	return &CampaignCache{client: client, ttl: ttl, logger: logger}
}

// GetLive returns the cached live-campaign list, or (nil, false) on a
// miss or any cache error.
func (c *CampaignCache) GetLive(ctx context.Context) ([]*domain.Campaign, bool) {
	data, err := c.client.Get(ctx, liveCampaignsKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "campaign cache read failed", slog.String("error", err.Error()))
		}
		return nil, false
	}

	var campaigns []*domain.Campaign
	if err := json.Unmarshal(data, &campaigns); err != nil {
		c.logger.WarnContext(ctx, "campaign cache entry corrupt", slog.String("error", err.Error()))
		return nil, false
	}

	return campaigns, true
}

// SetLive stores the live-campaign list. Errors are logged, not returned.
func (c *CampaignCache) SetLive(ctx context.Context, campaigns []*domain.Campaign) {
	data, err := json.Marshal(campaigns)
	if err != nil {
		c.logger.WarnContext(ctx, "campaign cache marshal failed", slog.String("error", err.Error()))
		return
	}

	if err := c.client.Set(ctx, liveCampaignsKey, data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "campaign cache write failed", slog.String("error", err.Error()))
	}
}

// Invalidate drops the cached snapshot. Called after any campaign write
// so admin changes show up before the TTL expires.
func (c *CampaignCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, liveCampaignsKey).Err(); err != nil {
		return fmt.Errorf("invalidate campaign cache: %w", err)
	}
	return nil
}
