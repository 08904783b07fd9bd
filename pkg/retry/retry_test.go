package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	failure := errors.New("persistent")

	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return failure
	})

	require.ErrorIs(t, err, failure)
	assert.Equal(t, 3, calls)
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	retryableErr := errors.New("retryable")
	otherErr := errors.New("fatal")

	cfg := fastConfig()
	cfg.RetryableErrors = []error{retryableErr}

	calls := 0
	err := Do(context.Background(), cfg, func() error {
		calls++
		return otherErr
	})

	require.ErrorIs(t, err, otherErr)
	assert.Equal(t, 1, calls)
}

func TestDo_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, fastConfig(), func() error {
		t.Fatal("operation should not run")
		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
}
