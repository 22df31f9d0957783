package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuttle-hub/pairing-hub/internal/domain/pairing"
	"github.com/shuttle-hub/pairing-hub/pkg/circuitbreaker"
)

// unreachableCache builds a Cache whose client points at a closed port, so
// every round trip fails fast with a connection error.
func unreachableCache() *Cache {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 1
	// The breaker cooldown derives from DialTimeout; keep it long enough
	// that the open-circuit assertions below run inside the window.
	cfg.DialTimeout = 500 * time.Millisecond
	cfg.ReadTimeout = 100 * time.Millisecond
	cfg.WriteTimeout = 100 * time.Millisecond
	cfg.MaxRetries = -1

	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr(),
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		MaxRetries:   cfg.MaxRetries,
	})

	return &Cache{client: client, config: cfg}
}

func TestSuggestionCacheDegradesWhenRedisUnreachable(t *testing.T) {
	sc := NewSuggestionCache(unreachableCache(), nil)
	ctx := context.Background()

	// Until the breaker trips, connection errors surface to the caller
	// (who treats them as misses).
	for i := 0; i < 5; i++ {
		params, err := sc.GetModelParameters(ctx, "session-1")
		assert.Nil(t, params)
		require.Error(t, err)
	}

	require.Equal(t, circuitbreaker.StateOpen, sc.BreakerState())

	// Open circuit: reads report a clean miss, writes are swallowed.
	params, err := sc.GetModelParameters(ctx, "session-1")
	assert.Nil(t, params)
	assert.NoError(t, err)

	set, err := sc.GetSuggestionSet(ctx, "key-1")
	assert.Nil(t, set)
	assert.NoError(t, err)

	err = sc.SetModelParameters(ctx, "session-1", pairing.DefaultModelParameters())
	assert.NoError(t, err)
}

func TestSuggestionCacheBreakerStateChangeCallback(t *testing.T) {
	var opened bool
	sc := NewSuggestionCache(unreachableCache(), func(name string, _, to circuitbreaker.State) {
		if to == circuitbreaker.StateOpen {
			opened = true
		}
		assert.Equal(t, "redis-result-cache", name)
	})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = sc.GetExplanation(ctx, "candidate-1")
	}

	assert.True(t, opened, "breaker should report opening after repeated failures")
}
