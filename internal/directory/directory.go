// internal/directory/directory.go
//
// Typed client for the directory service (Microsoft Graph).
//
// Context
// -------
// Every handler that needs directory data goes through one *Client:
//
//   - AppToken / OnBehalfOf  – OAuth2 token exchanges (token.go).
//   - Me / User / MemberOf / AppRoleAssignments – JSON reads (graph.go).
//   - MyPhoto / UserPhoto / PutUserPhoto – binary photo calls (photo.go).
//   - IsGlobalAdmin / Groups / DirectoryRoles – membership filters (roles.go).
//
// Nothing is cached.  Each call is one round trip (plus paging for
// collections) and any failure is returned immediately, never retried.
//
// Errors
// ------
// A non-2xx answer is an *UpstreamError carrying the status and the first
// 200 characters of the body.  A transport failure wraps ErrUnreachable.
// Problem turns either into the *apperr.Error a handler should render.
package directory

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sydneysamil/samil-web/internal/apperr"
	"github.com/sydneysamil/samil-web/internal/config"
	"github.com/sydneysamil/samil-web/internal/metrics"
)

// Public endpoints.
const (
	DefaultAuthorityURL = "https://login.microsoftonline.com"
	DefaultGraphURL     = "https://graph.microsoft.com/v1.0"
	GraphScope          = "https://graph.microsoft.com/.default"
)

// Client-facing messages.
const (
	MsgTokenFailed       = "Graph token exchange failed."
	MsgRequestFailed     = "Graph request failed."
	MsgPhotoFailed       = "Graph photo request failed."
	MsgPhotoUpdateFailed = "Graph photo update failed."
	MsgUnreachable       = "Unable to reach Microsoft Graph."
)

var (
	// ErrNotConfigured is returned when any service credential is empty.
	ErrNotConfigured = apperr.New(http.StatusInternalServerError,
		"Missing AZURE_TENANT_ID / AZURE_CLIENT_ID / AZURE_CLIENT_SECRET in app settings.")

	// ErrNoAppToken is returned when the token endpoint answers 2xx without
	// an access token.
	ErrNoAppToken = apperr.New(http.StatusInternalServerError,
		"Missing access token from client credentials.")

	// ErrNoDelegatedToken is the on-behalf-of counterpart of ErrNoAppToken.
	ErrNoDelegatedToken = apperr.New(http.StatusInternalServerError,
		"Missing access token from OBO exchange.")

	// ErrUnreachable marks transport-level failures.
	ErrUnreachable = errors.New("directory service unreachable")

	// ErrNoPhoto is returned by the photo getters when none is set.
	ErrNoPhoto = errors.New("no photo")
)

/*──────────────────────────── credentials ──────────────────────────────────*/

// Credentials identify this service to the identity provider.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// CredentialsFrom copies the directory section of cfg.
func CredentialsFrom(cfg *config.Config) Credentials {
	if cfg == nil {
		return Credentials{}
	}
	return Credentials{
		TenantID:     cfg.Directory.TenantID,
		ClientID:     cfg.Directory.ClientID,
		ClientSecret: cfg.Directory.ClientSecret,
	}
}

// Validate returns ErrNotConfigured when any field is empty.
func (c Credentials) Validate() error {
	if c.TenantID == "" || c.ClientID == "" || c.ClientSecret == "" {
		return ErrNotConfigured
	}
	return nil
}

/*──────────────────────────── errors ───────────────────────────────────────*/

// UpstreamError is a non-2xx answer from the token endpoint or Graph.
type UpstreamError struct {
	Op     string
	Status int
	Detail string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("directory %s: status %d: %s", e.Op, e.Status, e.Detail)
}

func upstream(op string, status int, body string) *UpstreamError {
	return &UpstreamError{Op: op, Status: status, Detail: apperr.Truncate(body, apperr.MaxUpstreamDetail)}
}

func unreachable(op string, err error) error {
	return fmt.Errorf("directory %s: %w: %w", op, ErrUnreachable, err)
}

// Problem maps a directory error onto the response a handler should send.
// msg labels upstream rejections, e.g. MsgTokenFailed.
func Problem(err error, msg string) error {
	var ue *UpstreamError
	var ae *apperr.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ue):
		return apperr.Upstream(ue.Status, msg, ue.Detail)
	case errors.Is(err, ErrUnreachable):
		return &apperr.Error{Status: http.StatusInternalServerError, Message: MsgUnreachable, Cause: err}
	case errors.As(err, &ae):
		return ae
	default:
		return apperr.Internal(MsgUnreachable, err)
	}
}

/*──────────────────────────── client ───────────────────────────────────────*/

// Client talks to the identity provider and Graph.  Safe for concurrent
// use; create once at startup.
type Client struct {
	authority string
	graph     string
	http      *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithAuthorityURL overrides the token host (sovereign clouds, tests).
func WithAuthorityURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.authority = strings.TrimRight(u, "/")
		}
	}
}

// WithGraphURL overrides the Graph base including the version segment.
func WithGraphURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.graph = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the default 20-second-timeout client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// New returns a Client for the public cloud unless overridden.
func New(opts ...Option) *Client {
	c := &Client{
		authority: DefaultAuthorityURL,
		graph:     DefaultGraphURL,
		http:      &http.Client{Timeout: 20 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func observe(op string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrUnreachable):
		outcome = "unreachable"
	case errors.Is(err, ErrNoPhoto):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	metrics.DirectoryRequestsTotal.WithLabelValues(op, outcome).Inc()
}
