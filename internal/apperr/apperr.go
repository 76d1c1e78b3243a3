/*
Package apperr defines the error type that crosses from the directory
client, the settings store, and the mail relay to the HTTP layer.

An *Error carries the response status, a client-safe message, an optional
length-capped detail, and, for validation failures, the set of accepted
values.  Lower layers build one; handlers pass it through to respond.Error
unchanged.  Anything that is not an *Error is treated as internal and
rendered as a 500 with a truncated message.
*/
package apperr

import (
	"net/http"
	"unicode/utf8"
)

// Detail caps.  Upstream bodies are cut at 200 characters and internal
// error messages at 220, matching what the site has always returned.
const (
	MaxUpstreamDetail = 200
	MaxInternalDetail = 220
)

// Error is the canonical error type for API responses.
type Error struct {
	// Status is the HTTP response status code.
	Status int
	// Message is rendered as the `error` field.
	Message string
	// Detail is rendered as the `detail` field when non-empty.
	Detail string
	// Allowed is rendered as the `allowed` field when non-nil.
	Allowed []string
	// Cause is for server-side logging only.
	Cause error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an *Error with no detail.
func New(status int, msg string) *Error {
	return &Error{Status: status, Message: msg}
}

// Upstream wraps a non-2xx answer from a remote service.  The status is
// passed through and the body becomes a capped detail.
func Upstream(status int, msg, body string) *Error {
	if status < 400 {
		status = http.StatusBadGateway
	}
	return &Error{Status: status, Message: msg, Detail: Truncate(body, MaxUpstreamDetail)}
}

// Internal wraps an unexpected failure as a 500.
func Internal(msg string, cause error) *Error {
	e := &Error{Status: http.StatusInternalServerError, Message: msg, Cause: cause}
	if cause != nil {
		e.Detail = Truncate(cause.Error(), MaxInternalDetail)
	}
	return e
}

// Validation returns a 400 that lists the accepted values.
func Validation(msg string, allowed []string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg, Allowed: allowed}
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
