package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackendDown = errors.New("backend down")

// fail runs n failing calls through the breaker.
func fail(cb *CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		_ = cb.Execute(context.Background(), func(context.Context) error {
			return errBackendDown
		})
	}
}

func succeed(cb *CircuitBreaker) error {
	return cb.Execute(context.Background(), func(context.Context) error {
		return nil
	})
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))

	fail(cb, 2)
	assert.Equal(t, StateClosed, cb.State())

	fail(cb, 1)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called, "open circuit must not run the call")
}

func TestCircuitBreakerSuccessResetsFailureStreak(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))

	fail(cb, 2)
	require.NoError(t, succeed(cb))
	fail(cb, 2)

	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerExpectedErrorsNeverTrip(t *testing.T) {
	errMiss := errors.New("not found")
	cb := New("test",
		WithFailureThreshold(2),
		WithIsFailure(func(err error) bool { return !errors.Is(err, errMiss) }),
	)

	for i := 0; i < 10; i++ {
		err := cb.Execute(context.Background(), func(context.Context) error {
			return errMiss
		})
		assert.ErrorIs(t, err, errMiss)
	}

	assert.Equal(t, StateClosed, cb.State())
	assert.Zero(t, cb.Counts().ConsecutiveFailures)
}

func TestCircuitBreakerRecoversThroughHalfOpen(t *testing.T) {
	var transitions []State
	cb := New("test",
		WithFailureThreshold(2),
		WithTimeout(20*time.Millisecond),
		WithOnStateChange(func(_ string, _, to State) {
			transitions = append(transitions, to)
		}),
	)

	fail(cb, 2)
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(30 * time.Millisecond)

	// Default SuccessThreshold is 2 with one half-open slot. The slot
	// must be released after each trial call so the next one is admitted
	// and the breaker can actually close.
	require.NoError(t, succeed(cb))
	assert.Equal(t, StateHalfOpen, cb.State())

	err := succeed(cb)
	require.NoError(t, err, "second half-open call must be admitted")
	assert.Equal(t, StateClosed, cb.State())

	assert.Equal(t, []State{StateOpen, StateHalfOpen, StateClosed}, transitions)
}

func TestCircuitBreakerReopensOnHalfOpenFailure(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(1),
		WithTimeout(20*time.Millisecond),
	)

	fail(cb, 1)
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(30 * time.Millisecond)

	fail(cb, 1)
	assert.Equal(t, StateOpen, cb.State())

	err := succeed(cb)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreakerSingleSuccessThresholdClosesImmediately(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(1),
		WithSuccessThreshold(1),
		WithTimeout(20*time.Millisecond),
	)

	fail(cb, 1)
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(30 * time.Millisecond)

	require.NoError(t, succeed(cb))
	assert.Equal(t, StateClosed, cb.State())
}
