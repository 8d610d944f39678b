// Package gemini provides an implementation of the generation.Invoker interface
// that uses Google's Gemini API.
//
// This package is an infrastructure adapter in the hexagonal architecture,
// connecting the marketing flows to Google's external Gemini AI service
// without exposing the details of the external service to the core application.
//
// Key components:
//
// 1. Invoker:
//   - Implements the generation.Invoker interface
//   - Requests JSON output constrained by a response schema derived from the
//     flow's output descriptor
//
// 2. Error Handling:
//   - Retries transient errors (rate limits, server errors) with exponential
//     backoff and jitter
//   - Translates API failures and safety blocks to generation errors
//
// The package depends on the google.golang.org/genai client library.
package gemini
