package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/copycraft-api/internal/schema"
	"golang.org/x/sync/semaphore"
)

// WithTimeout bounds every call made through inv. An expired deadline is
// reported as ErrTransientFailure. A non-positive d returns inv unchanged.
func WithTimeout(inv Invoker, d time.Duration) Invoker {
	if d <= 0 {
		return inv
	}
	return InvokerFunc(func(ctx context.Context, prompt string, output *schema.Descriptor) (any, error) {
		callCtx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		reply, err := inv.Invoke(callCtx, prompt, output)
		if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: model call exceeded %s: %w", ErrTransientFailure, d, err)
		}
		return reply, err
	})
}

// WithConcurrencyLimit allows at most n calls through inv at a time. Callers
// over the limit wait for a slot or for their context to end. A non-positive
// n returns inv unchanged.
func WithConcurrencyLimit(inv Invoker, n int) Invoker {
	if n <= 0 {
		return inv
	}
	sem := semaphore.NewWeighted(int64(n))
	return InvokerFunc(func(ctx context.Context, prompt string, output *schema.Descriptor) (any, error) {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("waiting for invocation slot: %w", err)
		}
		defer sem.Release(1)
		return inv.Invoke(ctx, prompt, output)
	})
}
