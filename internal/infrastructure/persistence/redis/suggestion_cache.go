package redis

import (
	"context"
	"errors"
	"time"

	"github.com/shuttle-hub/pairing-hub/internal/domain/pairing"
	"github.com/shuttle-hub/pairing-hub/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUGGESTION CACHE
// Implements pairing.ResultCache on top of the base Cache. A circuit breaker
// guards every Redis round trip so a dead cache degrades requests instead of
// adding a connection timeout to each one. Misses and open-circuit rejections
// both surface as (nil, nil).
// ══════════════════════════════════════════════════════════════════════════════

// SuggestionCache is the Redis-backed pairing.ResultCache implementation.
type SuggestionCache struct {
	cache   *Cache
	breaker *circuitbreaker.CircuitBreaker
}

// NewSuggestionCache wraps the given Cache in a circuit breaker.
// onStateChange may be nil.
func NewSuggestionCache(cache *Cache, onStateChange func(name string, from, to circuitbreaker.State)) *SuggestionCache {
	breaker := circuitbreaker.New("redis-result-cache",
		circuitbreaker.WithFailureThreshold(5),
		// One healthy round trip is enough evidence for a cache; a
		// failure right after reopens the circuit anyway.
		circuitbreaker.WithSuccessThreshold(1),
		circuitbreaker.WithTimeout(cache.config.DialTimeout*6),
		circuitbreaker.WithOnStateChange(onStateChange),
		// A miss is a normal outcome, not a Redis failure.
		circuitbreaker.WithIsFailure(func(err error) bool {
			return !errors.Is(err, ErrCacheMiss)
		}),
	)
	return &SuggestionCache{cache: cache, breaker: breaker}
}

// GetModelParameters returns the cached model parameters for a session.
func (s *SuggestionCache) GetModelParameters(ctx context.Context, sessionID string) (*pairing.ModelParameters, error) {
	var params pairing.ModelParameters
	found, err := s.get(ctx, PrefixModelParams+sessionID, &params)
	if err != nil || !found {
		return nil, err
	}
	return &params, nil
}

// SetModelParameters caches model parameters for a session.
func (s *SuggestionCache) SetModelParameters(ctx context.Context, sessionID string, params pairing.ModelParameters) error {
	return s.set(ctx, PrefixModelParams+sessionID, params, TTLModelParams)
}

// GetSuggestionSet returns a memoized suggestion set by its request key.
func (s *SuggestionCache) GetSuggestionSet(ctx context.Context, key string) (*pairing.SuggestionSet, error) {
	var set pairing.SuggestionSet
	found, err := s.get(ctx, PrefixSuggestions+key, &set)
	if err != nil || !found {
		return nil, err
	}
	return &set, nil
}

// SetSuggestionSet memoizes a freshly generated suggestion set.
func (s *SuggestionCache) SetSuggestionSet(ctx context.Context, key string, set pairing.SuggestionSet) error {
	return s.set(ctx, PrefixSuggestions+key, set, TTLSuggestionSet)
}

// GetExplanation returns the cached explanation for a selected candidate.
func (s *SuggestionCache) GetExplanation(ctx context.Context, candidateID string) (*pairing.Explanation, error) {
	var exp pairing.Explanation
	found, err := s.get(ctx, PrefixExplanation+candidateID, &exp)
	if err != nil || !found {
		return nil, err
	}
	return &exp, nil
}

// SetExplanation caches the explanation backing one selected candidate.
func (s *SuggestionCache) SetExplanation(ctx context.Context, candidateID string, exp pairing.Explanation) error {
	return s.set(ctx, PrefixExplanation+candidateID, exp, TTLExplanation)
}

// BreakerState exposes the breaker state for health reporting.
func (s *SuggestionCache) BreakerState() circuitbreaker.State {
	return s.breaker.State()
}

// get reads a key through the breaker. The boolean reports whether the
// key was present; a rejected call (open circuit) reports a miss.
func (s *SuggestionCache) get(ctx context.Context, key string, dest interface{}) (bool, error) {
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.cache.Get(ctx, key, dest)
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrCacheMiss):
		return false, nil
	case errors.Is(err, circuitbreaker.ErrCircuitOpen),
		errors.Is(err, circuitbreaker.ErrTooManyRequests):
		return false, nil
	default:
		return false, err
	}
}

// set writes a key through the breaker. Open-circuit rejections are
// swallowed; the write was an optimization either way.
func (s *SuggestionCache) set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.cache.Set(ctx, key, value, ttl)
	})
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		return nil
	}
	return err
}
