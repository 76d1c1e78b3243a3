package auth

import (
	"net/http"

	"github.com/sydneysamil/samil-web/internal/apperr"
	"github.com/sydneysamil/samil-web/internal/respond"
)

// Client-facing messages.
const (
	MsgNoPrincipal = "Missing authenticated user context."
	MsgNoToken     = "Missing access token. Configure Entra ID + Graph permissions."
)

// ErrNoPrincipal and ErrNoToken are the 401s handlers return.
var (
	ErrNoPrincipal = apperr.New(http.StatusUnauthorized, MsgNoPrincipal)
	ErrNoToken     = apperr.New(http.StatusUnauthorized, MsgNoToken)
)

// Principal decodes the client-principal header, when present, into the
// request context.  It never rejects; see RequirePrincipal.
func Principal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := ParsePrincipal(r.Header.Get(PrincipalHeader)); ok {
			r = r.WithContext(WithPrincipal(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePrincipal answers 401 before next runs when the caller is
// anonymous.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFrom(r.Context()); !ok {
			respond.Error(w, r, ErrNoPrincipal)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireBearer answers 401 before next runs when no access token was
// forwarded.
func RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if BearerToken(r) == "" {
			respond.Error(w, r, ErrNoToken)
			return
		}
		next.ServeHTTP(w, r)
	})
}
