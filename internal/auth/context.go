// internal/auth/context.go
//
// Request-scoped caller identity.
//
// Authentication itself happens upstream: the hosting platform's identity
// gateway signs the user in and forwards who they are in the
// X-MS-CLIENT-PRINCIPAL header.  The Principal middleware decodes that
// header once and stores the result here so handlers never re-parse it.
//
// Usage
// -----
//
//	p, ok := auth.PrincipalFrom(r.Context())
//	if !ok { … 401 … }
//	key := p.Key()   // userDetails, falling back to userId
package auth

import "context"

type principalKey struct{}

// WithPrincipal returns a new context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller stored by the middleware.  ok is false
// when the request carried no usable identity.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok || !p.Valid() {
		return Principal{}, false
	}
	return p, true
}
