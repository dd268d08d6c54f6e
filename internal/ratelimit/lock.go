package ratelimit

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"github.com/fintro/receivables/internal/config"
)

const (
	bootstrapLockKey = "receivables:bootstrap:ledger"
	bootstrapLockTTL = 2 * time.Minute
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// BootstrapLock serializes schema migration and demo seeding when several
// replicas start against the same database. Without redis the lock is
// disabled and Acquire grants passage, which is the single-instance
// development path.
type BootstrapLock struct {
	client *redis.Client
	script *redis.Script
}

func NewBootstrapLock(cfg config.Config) *BootstrapLock {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
	})
	return &BootstrapLock{
		client: client,
		script: redis.NewScript(lockReleaseScript),
	}
}

// Acquire attempts to take the bootstrap lock. The returned token must be
// passed back to Release; compare-and-delete keeps a replica whose lock
// expired from releasing a lock now held by someone else.
func (l *BootstrapLock) Acquire(ctx context.Context) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", true, nil
	}
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, bootstrapLockKey, token, bootstrapLockTTL).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *BootstrapLock) Release(ctx context.Context, token string) error {
	if l == nil || l.client == nil || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{bootstrapLockKey}, token).Err()
}
