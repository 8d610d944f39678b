// Package openai provides a generation.Invoker backed by the OpenAI chat
// completions API, or any server that speaks the same protocol when a base
// URL is configured. Replies are requested in JSON-schema response format
// built from the flow's output descriptor.
package openai
