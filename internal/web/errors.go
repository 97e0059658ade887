package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. statusFor picks the HTTP status from the error kind
//  4. core.MapError supplies the user message and code
//  5. Technical error + request ID is logged; the client gets JSON only
//
// Internal errors never expose their cause: MapError returns the generic
// ERR000 message for them and the cause only reaches the log.

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/gamebook/internal/core"
	"github.com/JonMunkholm/gamebook/internal/logging"
	"github.com/go-chi/render"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`

	status int
}

// Render implements render.Renderer.
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.status)
	return nil
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	var (
		badReq    *core.BadRequestError
		notFound  *core.NotFoundError
		malformed *core.MalformedDocumentError
		invalid   *core.ValidationError
	)
	switch {
	case errors.As(err, &badReq):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &malformed), errors.As(err, &invalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrTooManyExports):
		return http.StatusServiceUnavailable
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes its JSON error response.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	detail := err.Error()
	var internal *core.InternalError
	if errors.As(err, &internal) {
		detail = internal.Detail()
	}

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", detail,
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Info("request rejected", attrs...)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}

	render.Render(w, r, &ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		status:  status,
	})
}
