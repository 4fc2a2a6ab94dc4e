package services

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tandem-server/models"
)

const memberCacheTTL = 24 * time.Hour

// MemberCache is a read-through cache for single Member lookups.
type MemberCache interface {
	Get(ctx context.Context, id string) (*models.Member, bool)
	Set(ctx context.Context, member *models.Member)
	// Fill stores member only when no entry exists, so a read that raced a
	// newer Set cannot overwrite it.
	Fill(ctx context.Context, member *models.Member)
	InvalidateAll(ctx context.Context)
}

// RedisMemberCache stores members as JSON under member:<id>. Cache failures
// are logged and treated as misses.
type RedisMemberCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisMemberCache(client *redis.Client, logger *zap.Logger) *RedisMemberCache {
	return &RedisMemberCache{client: client, ttl: memberCacheTTL, logger: logger}
}

func memberKey(id string) string {
	return "member:" + id
}

func (c *RedisMemberCache) Get(ctx context.Context, id string) (*models.Member, bool) {
	raw, err := c.client.Get(ctx, memberKey(id)).Bytes()
	if err != nil {
		if !stderrors.Is(err, redis.Nil) {
			c.logger.Warn("Member cache read failed", zap.String("member_id", id), zap.Error(err))
		}
		return nil, false
	}
	var member models.Member
	if err := json.Unmarshal(raw, &member); err != nil {
		c.logger.Warn("Failed to unmarshal cached member", zap.String("member_id", id), zap.Error(err))
		return nil, false
	}
	return &member, true
}

func (c *RedisMemberCache) Set(ctx context.Context, member *models.Member) {
	raw, err := json.Marshal(member)
	if err != nil {
		c.logger.Warn("Failed to marshal member", zap.String("member_id", member.ID), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, memberKey(member.ID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("Member cache write failed", zap.String("member_id", member.ID), zap.Error(err))
	}
}

func (c *RedisMemberCache) Fill(ctx context.Context, member *models.Member) {
	raw, err := json.Marshal(member)
	if err != nil {
		c.logger.Warn("Failed to marshal member", zap.String("member_id", member.ID), zap.Error(err))
		return
	}
	if err := c.client.SetNX(ctx, memberKey(member.ID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("Member cache fill failed", zap.String("member_id", member.ID), zap.Error(err))
	}
}

func (c *RedisMemberCache) InvalidateAll(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, memberKey("*"), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("Member cache scan failed", zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("Member cache flush failed", zap.Error(err))
	}
}

// NopMemberCache disables caching.
type NopMemberCache struct{}

func (NopMemberCache) Get(context.Context, string) (*models.Member, bool) { return nil, false }
func (NopMemberCache) Set(context.Context, *models.Member)                {}
func (NopMemberCache) Fill(context.Context, *models.Member)               {}
func (NopMemberCache) InvalidateAll(context.Context)                      {}
