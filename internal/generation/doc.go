// Package generation defines the boundary between the application core and
// external AI/LLM services. The Invoker interface is the single port through
// which a rendered prompt and the expected output shape reach a language
// model (Gemini, OpenAI) and a raw reply comes back.
//
// Retry, timeout, concurrency limits and caching are collaborator concerns.
// They are provided here and in the platform packages as Invoker decorators
// so the flows themselves stay free of them.
package generation
