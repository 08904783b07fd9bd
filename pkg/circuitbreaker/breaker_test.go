package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker(timeout time.Duration) *CircuitBreaker {
	return NewCircuitBreaker("test", Config{
		MaxRequests:      1,
		Timeout:          timeout,
		FailureThreshold: 2,
		SuccessThreshold: 1,
	})
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	cb := newTestBreaker(time.Minute)
	failure := errors.New("backend down")

	for i := 0; i < 2; i++ {
		err := cb.Execute(context.Background(), func() error { return failure })
		require.ErrorIs(t, err, failure)
	}

	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(context.Background(), func() error { return nil })
	require.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreaker_RecoversThroughHalfOpen(t *testing.T) {
	cb := newTestBreaker(10 * time.Millisecond)
	failure := errors.New("backend down")

	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func() error { return failure })
	}
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())

	err := cb.Execute(context.Background(), func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	cb := newTestBreaker(10 * time.Millisecond)
	failure := errors.New("backend down")

	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func() error { return failure })
	}

	time.Sleep(15 * time.Millisecond)

	err := cb.Execute(context.Background(), func() error { return failure })
	require.ErrorIs(t, err, failure)
	assert.Equal(t, StateOpen, cb.State())
}

func TestBreaker_SuccessResetsFailureStreak(t *testing.T) {
	cb := newTestBreaker(time.Minute)
	failure := errors.New("backend down")

	_ = cb.Execute(context.Background(), func() error { return failure })
	require.NoError(t, cb.Execute(context.Background(), func() error { return nil }))
	_ = cb.Execute(context.Background(), func() error { return failure })

	assert.Equal(t, StateClosed, cb.State())
}
