// Package cache holds the short-lived Redis caches in front of hot badge
// queries.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// UnreadCache caches a user's total unread badge count. The TTL is short;
// writes that change the count invalidate the key so the badge catches up
// immediately on the next poll.
type UnreadCache struct {
	client *redis.Client
	logger ectologger.Logger
	ttl    time.Duration
}

// NewUnreadCache creates a new unread badge cache
func NewUnreadCache(client *redis.Client, ttl time.Duration, logger ectologger.Logger) *UnreadCache {
	return &UnreadCache{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

func unreadKey(userID string) string {
	return fmt.Sprintf("clover:unread:%s", userID)
}

// Get returns the cached badge count, or found=false on a miss. Redis
// errors are treated as misses so the store stays the source of truth.
func (c *UnreadCache) Get(ctx context.Context, userID string) (count int, found bool) {
	ctx, span := tracing.StartSpan(ctx, "cache.UnreadCache.Get")
	defer span.End()

	value, err := c.client.Get(ctx, unreadKey(userID))
	if err != nil {
		if !redis.IsNil(err) {
			c.logger.WithContext(ctx).WithError(err).Warn("Unread cache read failed")
		}
		metrics.UnreadCacheLookups.WithLabelValues("miss").Inc()
		return 0, false
	}

	count, err = strconv.Atoi(value)
	if err != nil {
		metrics.UnreadCacheLookups.WithLabelValues("miss").Inc()
		return 0, false
	}

	metrics.UnreadCacheLookups.WithLabelValues("hit").Inc()
	return count, true
}

// Set stores the badge count with the configured TTL.
func (c *UnreadCache) Set(ctx context.Context, userID string, count int) {
	ctx, span := tracing.StartSpan(ctx, "cache.UnreadCache.Set")
	defer span.End()

	if err := c.client.Set(ctx, unreadKey(userID), count, c.ttl); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Unread cache write failed")
	}
}

// Invalidate drops the cached count for the given users.
func (c *UnreadCache) Invalidate(ctx context.Context, userIDs ...string) {
	ctx, span := tracing.StartSpan(ctx, "cache.UnreadCache.Invalidate")
	defer span.End()

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = unreadKey(id)
	}

	if err := c.client.Del(ctx, keys...); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Unread cache invalidation failed")
	}
}
