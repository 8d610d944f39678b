package generation

import (
	"context"

	"github.com/phrazzld/copycraft-api/internal/schema"
)

// Invoker sends a rendered prompt to a language model and returns its reply.
// This interface serves as a boundary between the application core and
// external AI/LLM services, following the hexagonal architecture pattern.
type Invoker interface {
	// Invoke asks the model for a reply shaped like output.
	//
	// Parameters:
	//   - ctx: Context for the operation, which can be used for cancellation
	//   - prompt: The fully rendered prompt text
	//   - output: The shape the reply must have; back-ends use it to constrain generation
	//
	// Returns:
	//   - The reply decoded into generic JSON values (map[string]any, []any,
	//     string, bool, json.Number, nil). Callers must validate it.
	//   - An error if the service failed, timed out or replied with something
	//     that is not JSON (see errors.go)
	Invoke(ctx context.Context, prompt string, output *schema.Descriptor) (any, error)
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, prompt string, output *schema.Descriptor) (any, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, prompt string, output *schema.Descriptor) (any, error) {
	return f(ctx, prompt, output)
}
