package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrEmptyPrompt is returned when Invoke is called without prompt text.
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
)
