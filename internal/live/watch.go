package live

import "context"

// Fetcher loads the current full result of a query.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Snapshot is one delivery of a live query. Err is set when the re-read
// failed; the watch keeps running and retries on the next change.
type Snapshot[T any] struct {
	Value T
	Err   error
}

// Watch runs fetch once immediately and again after every change to one of
// tables, sending each result on the returned channel. The channel is closed
// when ctx ends or the broker shuts down.
func Watch[T any](ctx context.Context, b *Broker, fetch Fetcher[T], tables ...string) <-chan Snapshot[T] {
	out := make(chan Snapshot[T])
	// Subscribe before the first read so no change between the read and the
	// subscription is lost.
	sub := b.Subscribe(tables...)

	go func() {
		defer close(out)
		defer sub.Close()

		for {
			value, err := fetch(ctx)
			if ctx.Err() != nil {
				return
			}
			select {
			case out <- Snapshot[T]{Value: value, Err: err}:
			case <-ctx.Done():
				return
			}

			select {
			case _, ok := <-sub.C:
				if !ok {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
