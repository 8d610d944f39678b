package flow

import (
	"errors"
	"fmt"

	"github.com/phrazzld/copycraft-api/internal/schema"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrInvalidInput means the caller's payload failed the input schema.
	// The model was not called.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvocation means the model service failed, timed out, was cancelled
	// or returned an unparseable reply. Retrying may help.
	ErrInvocation = errors.New("model invocation error")

	// ErrInvalidModelOutput means the model replied, but the reply does not
	// match the output schema.
	ErrInvalidModelOutput = errors.New("invalid model output")
)

// Error is returned by every failed flow run.
type Error struct {
	// Flow is the name of the flow that failed.
	Flow string

	// Kind is one of ErrInvalidInput, ErrInvocation or ErrInvalidModelOutput.
	Kind error

	// Err is the underlying cause: a *schema.ValidationError for the two
	// validation kinds, the invoker's error for ErrInvocation.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Flow, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Fields returns the per-field validation detail, if any.
func (e *Error) Fields() []schema.FieldError {
	var verr *schema.ValidationError
	if errors.As(e.Err, &verr) {
		return verr.Fields
	}
	return nil
}

// Retryable reports whether re-running the flow with the same input could
// succeed. Only invocation failures qualify; a caller may also choose to
// retry ErrInvalidModelOutput since model output is non-deterministic.
func Retryable(err error) bool {
	return errors.Is(err, ErrInvocation)
}

// KindName returns a stable identifier for the error kind of err, suitable
// for API responses and CLI output.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrInvocation):
		return "invocation_error"
	case errors.Is(err, ErrInvalidModelOutput):
		return "invalid_model_output"
	default:
		return "unknown"
	}
}
