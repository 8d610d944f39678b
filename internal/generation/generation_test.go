package generation_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/copycraft-api/internal/generation"
	"github.com/phrazzld/copycraft-api/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeReply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		expected  any
		expectErr bool
	}{
		{
			name:     "plain_object",
			text:     `{"content":"Hi","hashtags":["#a"]}`,
			expected: map[string]any{"content": "Hi", "hashtags": []any{"#a"}},
		},
		{
			name:     "numbers_stay_json_numbers",
			text:     `{"n": 3}`,
			expected: map[string]any{"n": json.Number("3")},
		},
		{
			name:     "fenced_json",
			text:     "```json\n{\"ok\": true}\n```",
			expected: map[string]any{"ok": true},
		},
		{
			name:     "empty_object",
			text:     "{}",
			expected: map[string]any{},
		},
		{name: "empty_text", text: "   ", expectErr: true},
		{name: "prose", text: "Sure! Here you go.", expectErr: true},
		{name: "trailing_data", text: `{"a":1} {"b":2}`, expectErr: true},
		{name: "unterminated_fence", text: "```", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := generation.DecodeReply(tt.text)
			if tt.expectErr {
				assert.ErrorIs(t, err, generation.ErrInvalidResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestWithTimeout(t *testing.T) {
	t.Parallel()

	blocking := generation.InvokerFunc(func(ctx context.Context, _ string, _ *schema.Descriptor) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	t.Run("deadline_is_reported_as_transient", func(t *testing.T) {
		t.Parallel()
		inv := generation.WithTimeout(blocking, 10*time.Millisecond)
		_, err := inv.Invoke(context.Background(), "p", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, generation.ErrTransientFailure)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("caller_cancellation_is_passed_through", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		inv := generation.WithTimeout(blocking, time.Minute)
		_, err := inv.Invoke(ctx, "p", nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, errors.Is(err, generation.ErrTransientFailure))
	})

	t.Run("non_positive_duration_is_a_no_op", func(t *testing.T) {
		t.Parallel()
		inner := generation.InvokerFunc(func(ctx context.Context, _ string, _ *schema.Descriptor) (any, error) {
			_, hasDeadline := ctx.Deadline()
			return hasDeadline, nil
		})
		got, err := generation.WithTimeout(inner, 0).Invoke(context.Background(), "p", nil)
		require.NoError(t, err)
		assert.Equal(t, false, got)
	})
}

func TestWithConcurrencyLimit(t *testing.T) {
	t.Parallel()

	const limit = 2
	var active, peak int32
	release := make(chan struct{})

	inner := generation.InvokerFunc(func(ctx context.Context, prompt string, _ *schema.Descriptor) (any, error) {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		<-release
		atomic.AddInt32(&active, -1)
		return prompt, nil
	})
	inv := generation.WithConcurrencyLimit(inner, limit)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := inv.Invoke(context.Background(), "p", nil)
			assert.NoError(t, err)
		}()
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&active) == limit }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(limit))
}

func TestWithConcurrencyLimit_ContextEndsWhileWaiting(t *testing.T) {
	t.Parallel()

	hold := make(chan struct{})
	entered := make(chan struct{})
	inner := generation.InvokerFunc(func(ctx context.Context, _ string, _ *schema.Descriptor) (any, error) {
		close(entered)
		<-hold
		return nil, nil
	})
	inv := generation.WithConcurrencyLimit(inner, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = inv.Invoke(context.Background(), "first", nil)
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := inv.Invoke(ctx, "second", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(hold)
	<-done
}
