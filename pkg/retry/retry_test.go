package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func fast(opts ...Option) *Retrier {
	base := []Option{WithInitialDelay(time.Millisecond), WithMaxDelay(time.Millisecond), WithJitter(0)}
	return New(append(base, opts...)...)
}

func TestRetrier_Do(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after retryable failures", func(t *testing.T) {
		calls := 0
		err := fast(WithMaxAttempts(3)).Do(ctx, func(context.Context) error {
			calls++
			if calls < 3 {
				return Retryable(errBoom)
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up and unwraps", func(t *testing.T) {
		calls := 0
		err := fast(WithMaxAttempts(2)).Do(ctx, func(context.Context) error {
			calls++
			return Retryable(errBoom)
		})
		assert.Same(t, errBoom, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("permanent stops immediately", func(t *testing.T) {
		calls := 0
		err := fast(WithMaxAttempts(5)).Do(ctx, func(context.Context) error {
			calls++
			return Permanent(errBoom)
		})
		assert.Same(t, errBoom, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("unmarked errors are not retried by default", func(t *testing.T) {
		calls := 0
		err := fast(WithMaxAttempts(5)).Do(ctx, func(context.Context) error {
			calls++
			return errBoom
		})
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, 1, calls)
	})

	t.Run("retry predicate", func(t *testing.T) {
		calls := 0
		var retried []int
		err := fast(
			WithMaxAttempts(3),
			WithRetryIf(func(err error) bool { return errors.Is(err, errBoom) }),
			WithOnRetry(func(attempt int, _ error, _ time.Duration) { retried = append(retried, attempt) }),
		).Do(ctx, func(context.Context) error {
			calls++
			return errBoom
		})
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []int{1, 2}, retried)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := fast().Do(cctx, func(context.Context) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRetrier_Delay(t *testing.T) {
	r := New(WithInitialDelay(time.Second), WithMaxDelay(5*time.Second), WithJitter(0))

	assert.Equal(t, time.Second, r.Delay(1))
	assert.Equal(t, 2*time.Second, r.Delay(2))
	assert.Equal(t, 4*time.Second, r.Delay(3))
	assert.Equal(t, 5*time.Second, r.Delay(4))
}

func TestMailRetrier(t *testing.T) {
	calls := 0
	r := MailRetrier(2, time.Millisecond, WithJitter(0), WithMaxDelay(time.Millisecond))
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return Retryable(errBoom)
	})
	assert.Same(t, errBoom, err)
	assert.Equal(t, 3, calls)
}
