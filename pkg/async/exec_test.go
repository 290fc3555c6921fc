package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnamyud/bookingclient/pkg/async"
)

func TestExec(t *testing.T) {
	t.Parallel()

	t.Run("await returns the function error", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("boom")
		future := async.Exec(context.Background(), func(context.Context) error {
			return wantErr
		})
		assert.ErrorIs(t, future.Await(), wantErr)
		assert.True(t, future.IsComplete())
	})

	t.Run("nil error on success", func(t *testing.T) {
		t.Parallel()

		future := async.Exec(context.Background(), func(context.Context) error {
			return nil
		})
		require.NoError(t, future.Await())
	})

	t.Run("pre-cancelled context short-circuits", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		ran := false
		future := async.Exec(ctx, func(context.Context) error {
			ran = true
			return nil
		})
		assert.ErrorIs(t, future.Await(), context.Canceled)
		assert.False(t, ran)
	})

	t.Run("await with timeout", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		future := async.Exec(context.Background(), func(context.Context) error {
			<-release
			return nil
		})

		assert.ErrorIs(t, future.AwaitWithTimeout(10*time.Millisecond), async.ErrTimeout)
		assert.False(t, future.IsComplete())

		close(release)
		require.NoError(t, future.Await())
		require.NoError(t, future.AwaitWithTimeout(time.Second))
	})
}
