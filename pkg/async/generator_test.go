package async

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestGenerator(t *testing.T) {
	t.Parallel()

	t.Run("yields values then the error", func(t *testing.T) {
		t.Parallel()

		ch := Generator(context.Background(), func(_ context.Context, yield Yielder[int]) error {
			for i := range 3 {
				if err := yield(i); err != nil {
					return err
				}
			}
			return errBoom
		})

		var values []int
		var lastErr error
		for r := range ch {
			if r.Err != nil {
				lastErr = r.Err
				continue
			}
			values = append(values, r.Value)
		}

		require.Equal(t, []int{0, 1, 2}, values)
		require.ErrorIs(t, lastErr, errBoom)
	})

	t.Run("stops when the consumer is gone", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		stopped := make(chan error, 1)

		ch := Generator(ctx, func(_ context.Context, yield Yielder[int]) error {
			for i := 0; ; i++ {
				if err := yield(i); err != nil {
					stopped <- err
					return err
				}
			}
		})

		r := <-ch
		require.NoError(t, r.Err)
		cancel()

		require.ErrorIs(t, <-stopped, context.Canceled)
	})
}
