package auth

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
)

// Header names set by the platform identity gateway.
const (
	PrincipalHeader   = "X-MS-CLIENT-PRINCIPAL"
	AccessTokenHeader = "X-MS-TOKEN-AAD-ACCESS-TOKEN"
)

// Principal is the decoded client-principal header.
type Principal struct {
	IdentityProvider string   `json:"identityProvider"`
	UserID           string   `json:"userId"`
	UserDetails      string   `json:"userDetails"`
	UserRoles        []string `json:"userRoles"`
}

// Valid reports whether the principal names a user at all.
func (p Principal) Valid() bool {
	return p.UserDetails != "" || p.UserID != ""
}

// Key is the identifier used for directory lookups: the user principal
// name when present, otherwise the object id.
func (p Principal) Key() string {
	if p.UserDetails != "" {
		return p.UserDetails
	}
	return p.UserID
}

// Actor is the value recorded as a setting's updatedBy.
func (p Principal) Actor() string {
	if k := p.Key(); k != "" {
		return k
	}
	return "unknown"
}

// ParsePrincipal decodes the base64 JSON header value.  Malformed or empty
// values yield ok == false rather than an error; the caller is simply
// anonymous.
func ParsePrincipal(header string) (Principal, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Principal{}, false
	}
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(header)
		if err != nil {
			return Principal{}, false
		}
	}
	var p Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return Principal{}, false
	}
	return p, p.Valid()
}

// BearerToken returns the caller's access token from the gateway header or
// the Authorization header, without the "Bearer " prefix.
func BearerToken(r *http.Request) string {
	tok := r.Header.Get(AccessTokenHeader)
	if tok == "" {
		tok = r.Header.Get("Authorization")
	}
	return strings.TrimSpace(strings.TrimPrefix(tok, "Bearer "))
}
