package ratelimit

import (
	"context"
	"fmt"
	"strings"

	"github.com/fintro/receivables/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const keyOrgQuery = "receivables:query:org:%s:%s"

// QueryLimiter throttles the org-level aggregation endpoints. When no redis
// address is configured the limiter is disabled and every request passes.
type QueryLimiter struct {
	enabled bool

	bucket *TokenBucket

	rate  float64
	burst int
}

func NewQueryLimiter(cfg config.Config) *QueryLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
	})

	return &QueryLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    10,
		burst:   30,
	}
}

func (l *QueryLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// Allow checks the per-org bucket for the given endpoint.
func (l *QueryLimiter) Allow(ctx context.Context, orgID, endpoint string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyOrgQuery, strings.TrimSpace(orgID), strings.TrimSpace(endpoint))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}
