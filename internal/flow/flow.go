// Package flow implements the generic generation flow: validate input,
// render the prompt, invoke the model, validate the reply.
//
// A Flow holds no mutable state. Runs are independent and may execute
// concurrently; the only blocking step is the model invocation.
package flow

import (
	"context"
	"fmt"

	"github.com/phrazzld/copycraft-api/internal/generation"
	"github.com/phrazzld/copycraft-api/internal/prompt"
	"github.com/phrazzld/copycraft-api/internal/schema"
)

// Flow turns an input record of type In into an output record of type Out
// through a language model.
type Flow[In, Out any] struct {
	name    string
	input   *schema.Schema[In]
	output  *schema.Schema[Out]
	prompt  *prompt.Template
	invoker generation.Invoker
}

// Definition declares the static parts of a flow.
type Definition[In, Out any] struct {
	Name   string
	Input  *schema.Schema[In]
	Output *schema.Schema[Out]
	Prompt *prompt.Template
}

// New binds a flow definition to an invoker.
func New[In, Out any](def Definition[In, Out], invoker generation.Invoker) (*Flow[In, Out], error) {
	switch {
	case def.Name == "":
		return nil, fmt.Errorf("flow name cannot be empty")
	case def.Input == nil || def.Output == nil:
		return nil, fmt.Errorf("flow %s: input and output schemas are required", def.Name)
	case def.Prompt == nil:
		return nil, fmt.Errorf("flow %s: prompt template is required", def.Name)
	case invoker == nil:
		return nil, fmt.Errorf("flow %s: invoker cannot be nil", def.Name)
	}
	return &Flow[In, Out]{
		name:    def.Name,
		input:   def.Input,
		output:  def.Output,
		prompt:  def.Prompt,
		invoker: invoker,
	}, nil
}

// Name returns the flow name.
func (f *Flow[In, Out]) Name() string {
	return f.name
}

// InputSchema returns the input record schema.
func (f *Flow[In, Out]) InputSchema() *schema.Schema[In] {
	return f.input
}

// OutputSchema returns the output record schema.
func (f *Flow[In, Out]) OutputSchema() *schema.Schema[Out] {
	return f.output
}

// Run executes the flow on an untyped payload.
//
// Returns the validated output record, or an *Error whose Kind is
// ErrInvalidInput, ErrInvocation or ErrInvalidModelOutput.
func (f *Flow[In, Out]) Run(ctx context.Context, payload any) (Out, error) {
	var zero Out

	in, err := f.input.Validate(payload)
	if err != nil {
		return zero, f.fail(ErrInvalidInput, err)
	}

	text, err := f.prompt.Render(in)
	if err != nil {
		// A validated record that cannot be rendered is a broken template,
		// not a caller or model fault.
		return zero, fmt.Errorf("flow %s: rendering prompt: %w", f.name, err)
	}

	raw, err := f.invoker.Invoke(ctx, text, f.output.Descriptor())
	if err != nil {
		return zero, f.fail(ErrInvocation, err)
	}
	if ctx.Err() != nil {
		return zero, f.fail(ErrInvocation, ctx.Err())
	}

	out, err := f.output.Validate(raw)
	if err != nil {
		return zero, f.fail(ErrInvalidModelOutput, err)
	}
	return out, nil
}

// RunTyped executes the flow on a typed input record. The record is still
// validated, since Go zero values may violate the schema.
func (f *Flow[In, Out]) RunTyped(ctx context.Context, in In) (Out, error) {
	return f.Run(ctx, in)
}

// Prompt renders the prompt a payload would produce, without invoking the
// model.
func (f *Flow[In, Out]) Prompt(payload any) (string, error) {
	in, err := f.input.Validate(payload)
	if err != nil {
		return "", f.fail(ErrInvalidInput, err)
	}
	return f.prompt.Render(in)
}

func (f *Flow[In, Out]) fail(kind, err error) error {
	return &Error{Flow: f.name, Kind: kind, Err: err}
}
