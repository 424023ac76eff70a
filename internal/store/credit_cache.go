package store

import (
	"context"
	"errors"
	"time"

	"solar-loan-workers/internal/common/database"
	"solar-loan-workers/internal/common/logger"
	"solar-loan-workers/internal/common/metrics"
	"solar-loan-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

// CreditCheckFinder looks up a reusable credit check.
type CreditCheckFinder interface {
	FindValid(ctx context.Context, userID string, now time.Time) (*models.CreditCheck, error)
}

// CachedCreditChecks fronts a CreditCheckFinder with Redis. Only hits are cached, and an
// entry never outlives the check's expires_at.
type CachedCreditChecks struct {
	next   CreditCheckFinder
	rdb    redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedCreditChecks(next CreditCheckFinder, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedCreditChecks {
	return &CachedCreditChecks{next: next, rdb: rdb, ttl: ttl, logger: log}
}

func creditCacheKey(userID string) string {
	return "credit:valid:" + userID
}

func (c *CachedCreditChecks) FindValid(ctx context.Context, userID string, now time.Time) (*models.CreditCheck, error) {
	key := creditCacheKey(userID)

	var cached models.CreditCheck
	err := database.GetJSON(ctx, c.rdb, key, &cached)
	switch {
	case err == nil && cached.ReusableAt(now):
		metrics.CreditCheckLookups.WithLabelValues("cache").Inc()
		return &cached, nil
	case err != nil && !errors.Is(err, database.ErrCacheMiss):
		c.logger.Warn("credit cache read failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
	}

	check, err := c.next.FindValid(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if check == nil {
		return nil, nil
	}
	metrics.CreditCheckLookups.WithLabelValues("store").Inc()

	ttl := c.ttl
	if check.ExpiresAt != nil {
		if remaining := check.ExpiresAt.Sub(now); remaining < ttl {
			ttl = remaining
		}
	}
	if err := database.SetJSON(ctx, c.rdb, key, check, ttl); err != nil {
		c.logger.Warn("credit cache write failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
	}
	return check, nil
}

// Invalidate drops the cached entry for a user.
func (c *CachedCreditChecks) Invalidate(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, creditCacheKey(userID)).Err()
}
