package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const redisKeyPrefix = "pajak:account:"

// RedisAccountCache shares resolved accounts between the web and worker
// processes. Redis failures are logged and treated as cache misses.
type RedisAccountCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewRedisAccountCache(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *RedisAccountCache {
	return &RedisAccountCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *RedisAccountCache) Get(ctx context.Context, company, kind string) (string, bool) {
	account, err := c.client.Get(ctx, redisKeyPrefix+cacheKey(company, kind)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("company", company).Warn("account cache read failed")
		}
		return "", false
	}
	return account, true
}

func (c *RedisAccountCache) Set(ctx context.Context, company, kind, account string) {
	if err := c.client.Set(ctx, redisKeyPrefix+cacheKey(company, kind), account, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("company", company).Warn("account cache write failed")
	}
}

func (c *RedisAccountCache) Invalidate(ctx context.Context, company, kind string) {
	if err := c.client.Del(ctx, redisKeyPrefix+cacheKey(company, kind)).Err(); err != nil {
		c.logger.WithError(err).WithField("company", company).Warn("account cache invalidation failed")
	}
}

func (c *RedisAccountCache) InvalidateCompany(ctx context.Context, company string) {
	pattern := redisKeyPrefix + cacheKey(company) + "|*"
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.WithError(err).WithField("company", company).Warn("account cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WithError(err).WithField("company", company).Warn("account cache invalidation failed")
	}
}
