package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/phrazzld/copycraft-api/internal/api/shared"
	"github.com/phrazzld/copycraft-api/internal/flow"
	"github.com/phrazzld/copycraft-api/internal/generation"
	"github.com/phrazzld/copycraft-api/internal/marketing"
)

// Error kinds reported for failures that happen before a flow runs.
const (
	KindInvalidRequest = "invalid_request"
	KindUnknownFlow    = "unknown_flow"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Request decoding errors
	case errors.Is(err, shared.ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, shared.ErrEmptyBody),
		errors.Is(err, shared.ErrMalformedJSON):
		return http.StatusBadRequest

	// Not found errors
	case errors.Is(err, marketing.ErrUnknownFlow):
		return http.StatusNotFound

	// Flow errors
	case errors.Is(err, flow.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, flow.ErrInvalidModelOutput):
		return http.StatusBadGateway
	case errors.Is(err, generation.ErrContentBlocked):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, flow.ErrInvocation):
		return http.StatusBadGateway

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, shared.ErrBodyTooLarge):
		return "Request body too large"
	case errors.Is(err, shared.ErrEmptyBody),
		errors.Is(err, shared.ErrMalformedJSON):
		return "Invalid request format"

	case errors.Is(err, marketing.ErrUnknownFlow):
		return "Flow not found"

	case errors.Is(err, flow.ErrInvalidInput):
		return "Invalid input"
	case errors.Is(err, flow.ErrInvalidModelOutput):
		return "The model returned a reply in an unexpected format"
	case errors.Is(err, generation.ErrContentBlocked):
		return "The request was blocked by the model's safety filters"
	case errors.Is(err, context.DeadlineExceeded):
		return "The model did not respond in time"
	case errors.Is(err, flow.ErrInvocation):
		return "The model service is unavailable"

	default:
		return "An unexpected error occurred"
	}
}

// ErrorKind returns the machine-readable kind reported with err.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, shared.ErrBodyTooLarge),
		errors.Is(err, shared.ErrEmptyBody),
		errors.Is(err, shared.ErrMalformedJSON):
		return KindInvalidRequest
	case errors.Is(err, marketing.ErrUnknownFlow):
		return KindUnknownFlow
	default:
		return flow.KindName(err)
	}
}

// HandleAPIError writes the error response for err. Input validation
// failures carry their per-field details; model-output details stay in the
// logs.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	opts := []shared.ResponseOption{shared.WithKind(ErrorKind(err))}

	var flowErr *flow.Error
	if errors.As(err, &flowErr) && errors.Is(err, flow.ErrInvalidInput) {
		opts = append(opts, shared.WithFields(flowErr.Fields()))
	}
	if status == http.StatusUnprocessableEntity {
		opts = append(opts, shared.WithElevatedLogLevel())
	}

	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err, opts...)
}
