package ratelimit

import (
	"context"
	"testing"

	"github.com/fintro/receivables/internal/config"
)

func TestBootstrapLockDisabledWithoutRedis(t *testing.T) {
	lock := NewBootstrapLock(config.Config{})
	if lock != nil {
		t.Fatalf("lock = %v, want nil without a redis address", lock)
	}

	// A disabled lock must still let bootstrap proceed: single-instance
	// deployments have nothing to coordinate with.
	token, acquired, err := lock.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire on disabled lock: %v", err)
	}
	if !acquired {
		t.Fatal("disabled lock must grant passage")
	}
	if token != "" {
		t.Fatalf("token = %q, want empty for disabled lock", token)
	}

	if err := lock.Release(context.Background(), token); err != nil {
		t.Fatalf("release on disabled lock: %v", err)
	}
}

func TestBootstrapLockConstructedWithRedisAddr(t *testing.T) {
	lock := NewBootstrapLock(config.Config{RedisAddr: "localhost:6379"})
	if lock == nil {
		t.Fatal("lock = nil, want a configured lock when redis is set")
	}
	if lock.client == nil || lock.script == nil {
		t.Fatal("configured lock must carry a client and release script")
	}
}
