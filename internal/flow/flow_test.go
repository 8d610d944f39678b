package flow_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/phrazzld/copycraft-api/internal/flow"
	"github.com/phrazzld/copycraft-api/internal/generation"
	"github.com/phrazzld/copycraft-api/internal/mocks"
	"github.com/phrazzld/copycraft-api/internal/prompt"
	"github.com/phrazzld/copycraft-api/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type echoInput struct {
	Text string `json:"text"`
}

type echoOutput struct {
	Reply string   `json:"reply"`
	Tags  []string `json:"tags"`
}

func newEchoDefinition() flow.Definition[echoInput, echoOutput] {
	in := schema.MustNew[echoInput]("EchoInput")
	return flow.Definition[echoInput, echoOutput]{
		Name:   "echo",
		Input:  in,
		Output: schema.MustNew[echoOutput]("EchoOutput"),
		Prompt: prompt.Must(prompt.New("echo", "Echo: {{.text}}", in.Descriptor())),
	}
}

func newEchoFlow(t *testing.T, inv generation.Invoker) *flow.Flow[echoInput, echoOutput] {
	t.Helper()
	f, err := flow.New(newEchoDefinition(), inv)
	require.NoError(t, err)
	return f
}

func TestNew_RequiresAllParts(t *testing.T) {
	t.Parallel()

	inv := &mocks.MockInvoker{}
	tests := []struct {
		name   string
		mutate func(*flow.Definition[echoInput, echoOutput])
		inv    generation.Invoker
	}{
		{name: "empty_name", mutate: func(d *flow.Definition[echoInput, echoOutput]) { d.Name = "" }, inv: inv},
		{name: "missing_input", mutate: func(d *flow.Definition[echoInput, echoOutput]) { d.Input = nil }, inv: inv},
		{name: "missing_output", mutate: func(d *flow.Definition[echoInput, echoOutput]) { d.Output = nil }, inv: inv},
		{name: "missing_prompt", mutate: func(d *flow.Definition[echoInput, echoOutput]) { d.Prompt = nil }, inv: inv},
		{name: "nil_invoker", mutate: func(*flow.Definition[echoInput, echoOutput]) {}, inv: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			def := newEchoDefinition()
			tt.mutate(&def)
			f, err := flow.New(def, tt.inv)
			assert.Error(t, err)
			assert.Nil(t, f)
		})
	}
}

func TestRun_Success(t *testing.T) {
	t.Parallel()

	inv := mocks.NewMockInvokerWithReply(map[string]any{
		"reply": "hello",
		"tags":  []any{"#b", "#a"},
	})
	f := newEchoFlow(t, inv)

	out, err := f.Run(context.Background(), map[string]any{"text": "hi there"})
	require.NoError(t, err)
	assert.Equal(t, echoOutput{Reply: "hello", Tags: []string{"#b", "#a"}}, out, "tag order is preserved")

	require.Equal(t, 1, inv.Calls())
	assert.Equal(t, "Echo: hi there", inv.LastPrompt())
	assert.Same(t, f.OutputSchema().Descriptor(), inv.Descriptors()[0], "the output descriptor is passed to the invoker")
}

func TestRun_InvalidInputNeverInvokesModel(t *testing.T) {
	t.Parallel()

	payloads := map[string]any{
		"missing_field": map[string]any{},
		"wrong_type":    map[string]any{"text": 42},
		"null_field":    map[string]any{"text": nil},
		"not_an_object": []any{"text"},
	}

	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			inv := &mocks.MockInvoker{}
			f := newEchoFlow(t, inv)

			out, err := f.Run(context.Background(), payload)
			require.Error(t, err)
			assert.ErrorIs(t, err, flow.ErrInvalidInput)
			assert.ErrorIs(t, err, schema.ErrValidation)
			assert.False(t, errors.Is(err, flow.ErrInvocation))
			assert.False(t, errors.Is(err, flow.ErrInvalidModelOutput))
			assert.Equal(t, echoOutput{}, out)
			assert.Zero(t, inv.Calls(), "the model must not be called for invalid input")

			var ferr *flow.Error
			require.True(t, errors.As(err, &ferr))
			assert.Equal(t, "echo", ferr.Flow)
			assert.NotEmpty(t, ferr.Fields())
			assert.Equal(t, "invalid_input", flow.KindName(err))
			assert.False(t, flow.Retryable(err))
		})
	}
}

func TestRun_InvocationError(t *testing.T) {
	t.Parallel()

	inv := mocks.NewMockInvokerWithError(errors.New("connection reset"))
	f := newEchoFlow(t, inv)

	_, err := f.Run(context.Background(), map[string]any{"text": "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, flow.ErrInvocation)
	assert.False(t, errors.Is(err, flow.ErrInvalidModelOutput))
	assert.Contains(t, err.Error(), "connection reset")
	assert.True(t, flow.Retryable(err))
	assert.Equal(t, "invocation_error", flow.KindName(err))

	var ferr *flow.Error
	require.True(t, errors.As(err, &ferr))
	assert.Nil(t, ferr.Fields())
}

func TestRun_InvokerSentinelsRemainVisible(t *testing.T) {
	t.Parallel()

	f := newEchoFlow(t, mocks.MockInvokerWithContentBlocked())

	_, err := f.Run(context.Background(), map[string]any{"text": "x"})
	assert.ErrorIs(t, err, flow.ErrInvocation)
	assert.ErrorIs(t, err, generation.ErrContentBlocked)
}

func TestRun_InvalidModelOutput(t *testing.T) {
	t.Parallel()

	replies := map[string]any{
		"empty_object":       map[string]any{},
		"missing_tags":       map[string]any{"reply": "hello"},
		"non_string_tag":     map[string]any{"reply": "hello", "tags": []any{"#ok", 3}},
		"reply_is_a_string":  "hello",
		"reply_is_nil":       nil,
		"reply_wrong_typing": map[string]any{"reply": []any{"hello"}, "tags": []any{}},
	}

	for name, reply := range replies {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			f := newEchoFlow(t, mocks.NewMockInvokerWithReply(reply))

			out, err := f.Run(context.Background(), map[string]any{"text": "x"})
			require.Error(t, err)
			assert.ErrorIs(t, err, flow.ErrInvalidModelOutput)
			assert.False(t, errors.Is(err, flow.ErrInvocation))
			assert.False(t, errors.Is(err, flow.ErrInvalidInput))
			assert.Equal(t, echoOutput{}, out, "no partially typed result")
			assert.Equal(t, "invalid_model_output", flow.KindName(err))
		})
	}
}

func TestRun_CancelledContextIsInvocationError(t *testing.T) {
	t.Parallel()

	inv := &mocks.MockInvoker{
		InvokeFn: func(ctx context.Context, _ string, _ *schema.Descriptor) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	f := newEchoFlow(t, inv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Run(ctx, map[string]any{"text": "x"})
	assert.ErrorIs(t, err, flow.ErrInvocation)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_ReplyAfterCancellationIsDiscarded(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	inv := &mocks.MockInvoker{
		InvokeFn: func(context.Context, string, *schema.Descriptor) (any, error) {
			cancel()
			return map[string]any{"reply": "late", "tags": []any{}}, nil
		},
	}
	f := newEchoFlow(t, inv)

	_, err := f.Run(ctx, map[string]any{"text": "x"})
	assert.ErrorIs(t, err, flow.ErrInvocation)
}

func TestRun_ConcurrentRunsAreIndependent(t *testing.T) {
	t.Parallel()

	inv := &mocks.MockInvoker{
		InvokeFn: func(_ context.Context, prompt string, _ *schema.Descriptor) (any, error) {
			return map[string]any{"reply": prompt, "tags": []any{}}, nil
		},
	}
	f := newEchoFlow(t, inv)

	inputs := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	results := make([]string, len(inputs))
	var wg sync.WaitGroup
	for i, text := range inputs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := f.Run(context.Background(), map[string]any{"text": text})
			assert.NoError(t, err)
			results[i] = out.Reply
		}()
	}
	wg.Wait()

	for i, text := range inputs {
		assert.Equal(t, "Echo: "+text, results[i])
	}
	assert.Equal(t, len(inputs), inv.Calls())
}

func TestRunTypedAndPrompt(t *testing.T) {
	t.Parallel()

	inv := mocks.NewMockInvokerWithReply(map[string]any{"reply": "r", "tags": []any{"#t"}})
	f := newEchoFlow(t, inv)

	out, err := f.RunTyped(context.Background(), echoInput{Text: "typed"})
	require.NoError(t, err)
	assert.Equal(t, "r", out.Reply)
	assert.Equal(t, "echo", f.Name())
	assert.Equal(t, "EchoInput", f.InputSchema().Name())

	text, err := f.Prompt(map[string]any{"text": "preview"})
	require.NoError(t, err)
	assert.Equal(t, "Echo: preview", text)

	_, err = f.Prompt(map[string]any{})
	assert.ErrorIs(t, err, flow.ErrInvalidInput)
}
