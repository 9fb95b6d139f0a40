package async

import "context"

// Yielder hands a value to the consumer. It returns ctx.Err() once the consumer has gone away,
// and the generator is expected to stop.
type Yielder[T any] func(T) error

// Generator runs gen in its own goroutine and streams what it yields. A non-nil error returned by
// gen is delivered as the last result, unless ctx is done by then. The channel is closed when gen
// returns.
func Generator[T any](ctx context.Context, gen func(context.Context, Yielder[T]) error) <-chan Result[T] {
	ch := make(chan Result[T], 1)

	send := func(r Result[T]) error {
		select {
		case ch <- r:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	go func() {
		defer close(ch)

		err := gen(ctx, func(t T) error {
			return send(NewResult(t))
		})
		if err != nil && ctx.Err() == nil {
			_ = send(NewResult(*new(T), err))
		}
	}()

	return ch
}
