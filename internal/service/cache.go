package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/clipstream/clipstream/internal/dto"
	"github.com/clipstream/clipstream/pkg/logger"
	"github.com/clipstream/clipstream/pkg/redis"
	"go.uber.org/zap"
)

const channelProfileTTL = 5 * time.Minute

// ChannelCache keeps aggregated channel profiles in redis. Entries are keyed
// per viewer because isSubscribed depends on who is asking. Cache failures
// are logged and treated as misses; the database stays authoritative.
type ChannelCache struct {
	client *redis.Client
}

func NewChannelCache(client *redis.Client) *ChannelCache {
	return &ChannelCache{client: client}
}

func channelProfileKey(username, viewerID string) string {
	return fmt.Sprintf("channel:profile:%s:%s", username, viewerID)
}

// Get returns the cached profile, or (nil, false) on a miss
func (c *ChannelCache) Get(ctx context.Context, username, viewerID string) (*dto.ChannelProfileResponse, bool) {
	raw, err := c.client.Get(ctx, channelProfileKey(username, viewerID))
	if err != nil {
		if !errors.Is(err, redis.ErrDisabled) {
			logger.GetLogger().Warn("Channel cache read failed",
				zap.String("username", username),
				zap.Error(err),
			)
		}
		return nil, false
	}
	if raw == "" {
		return nil, false
	}

	var profile dto.ChannelProfileResponse
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		logger.GetLogger().Warn("Channel cache entry corrupt, dropping",
			zap.String("username", username),
			zap.Error(err),
		)
		_ = c.client.Delete(ctx, channelProfileKey(username, viewerID))
		return nil, false
	}

	return &profile, true
}

func (c *ChannelCache) Set(ctx context.Context, username, viewerID string, profile *dto.ChannelProfileResponse) {
	raw, err := json.Marshal(profile)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, channelProfileKey(username, viewerID), string(raw), channelProfileTTL); err != nil {
		if !errors.Is(err, redis.ErrDisabled) {
			logger.GetLogger().Warn("Channel cache write failed",
				zap.String("username", username),
				zap.Error(err),
			)
		}
	}
}

// Invalidate drops every viewer's cached copy of a channel's profile; called
// after any mutation that changes what the profile shows.
func (c *ChannelCache) Invalidate(ctx context.Context, username string) {
	pattern := fmt.Sprintf("channel:profile:%s:*", username)
	if err := c.client.DeleteByPattern(ctx, pattern); err != nil {
		logger.GetLogger().Warn("Channel cache invalidation failed",
			zap.String("username", username),
			zap.Error(err),
		)
	}
}
