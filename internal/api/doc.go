// Package api exposes the marketing flows over HTTP. It decodes JSON
// payloads, runs the requested flow and maps the flow error taxonomy to
// HTTP status codes and safe error bodies.
package api
