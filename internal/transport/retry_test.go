package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoRetriesUntilSuccess(t *testing.T) {
	attempts := 0
	cfg := Config{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Factor: 2}

	result := Do(context.Background(), cfg, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, result.Err)
	assert.Equal(t, 3, result.Attempts)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	attempts := 0
	cfg := Config{MaxAttempts: 5, InitialDelay: time.Millisecond}

	result := Do(context.Background(), cfg, func() error {
		attempts++
		return Permanent(errors.New("fatal"))
	})

	require.Error(t, result.Err)
	assert.Equal(t, 1, attempts)
	assert.True(t, IsPermanent(result.Err))
}

func TestDoStopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Do(ctx, DefaultConfig(), func() error {
		t.Fatal("op should not run after cancellation")
		return nil
	})

	assert.ErrorIs(t, result.Err, context.Canceled)
}

func TestDoWithValuePropagatesValue(t *testing.T) {
	value, result := DoWithValue(context.Background(), DefaultConfig(), func() (int, error) {
		return 42, nil
	})
	require.NoError(t, result.Err)
	assert.Equal(t, 42, value)
}

func TestBackoffWithJitterWithinBounds(t *testing.T) {
	for attempt := 1; attempt <= 5; attempt++ {
		d := BackoffWithJitter(attempt, 10*time.Millisecond, time.Second, 2.0)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 2*time.Second)
	}
}
