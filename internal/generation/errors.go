package generation

import "errors"

// Common errors returned by Invoker implementations
var (
	// ErrInvocationFailed is returned when the model service fails for any general reason
	ErrInvocationFailed = errors.New("model invocation failed")

	// ErrInvalidResponse is returned when the model reply cannot be parsed at the transport level
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the model blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during model invocation")

	// ErrInvalidConfig is returned when the invoker configuration is invalid
	ErrInvalidConfig = errors.New("invalid invoker configuration")
)
