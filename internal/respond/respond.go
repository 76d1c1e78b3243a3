// Package respond provides the JSON response helpers shared by every API
// handler.  All errors leave the process through Error so the envelope is
// always `{"error": …, "detail": …, "allowed": […]}` with the optional
// fields omitted when empty.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sydneysamil/samil-web/internal/apperr"
	"github.com/sydneysamil/samil-web/internal/logger"
)

// ErrorEnvelope is the JSON body of every error response.
type ErrorEnvelope struct {
	Error   string   `json:"error"`
	Detail  string   `json:"detail,omitempty"`
	Allowed []string `json:"allowed,omitempty"`
}

// JSON writes payload with the given status code.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// NoContent writes a bare 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// MethodNotAllowed is the shared 405 body.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusMethodNotAllowed, ErrorEnvelope{Error: "Method not allowed."})
}

// Error renders err.  Errors that are not *apperr.Error become a 500 whose
// detail is the truncated message, never a stack.  Every 5xx is logged.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Internal("Internal server error.", err)
	}

	if ae.Status >= 500 {
		logger.FromContext(r.Context()).Errorw("request failed",
			"status", ae.Status,
			"error", ae.Message,
			"detail", ae.Detail,
			"cause", ae.Cause,
			"path", r.URL.Path,
		)
	}

	JSON(w, ae.Status, ErrorEnvelope{
		Error:   ae.Message,
		Detail:  ae.Detail,
		Allowed: ae.Allowed,
	})
}
