// components/profile/profile.go
//
// Profile component – the signed-in member's directory data.
//
// Context
// -------
// Two families of endpoints share this component:
//
//   - Delegated (`/api/profile`, `/api/profile/photo`) act with the access
//     token the hosting gateway forwards for the caller.
//   - App-only (`/api/profile-summary`, `/api/profile-groups`,
//     `/api/profile-photo`) identify the caller from the client-principal
//     header and query the directory with a client-credentials token.
//
// Every endpoint re-reads service credentials from config per request, so a
// reload takes effect immediately.  Upstream rejections keep their status
// and a capped body; transport failures are 500s.
//
//------------------------------------------------------------------------------

package profile

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sydneysamil/samil-web/internal/auth"
	"github.com/sydneysamil/samil-web/internal/component"
	"github.com/sydneysamil/samil-web/internal/directory"
	"github.com/sydneysamil/samil-web/internal/logger"
	"github.com/sydneysamil/samil-web/internal/respond"
)

// Directory is the part of *directory.Client the handlers use.
type Directory interface {
	AppToken(ctx context.Context, creds directory.Credentials) (string, error)
	OnBehalfOf(ctx context.Context, creds directory.Credentials, assertion string) (string, error)
	Me(ctx context.Context, token string) (directory.Profile, error)
	User(ctx context.Context, token, key string) (directory.Profile, error)
	MemberOf(ctx context.Context, token, key string) ([]directory.DirectoryObject, error)
	AppRoleAssignments(ctx context.Context, token, key string) ([]directory.AppRoleAssignment, error)
	MyPhoto(ctx context.Context, token string) (*directory.Photo, error)
	UserPhoto(ctx context.Context, token, key string) (*directory.Photo, error)
	PutUserPhoto(ctx context.Context, token, key, contentType string, data []byte) error
}

// Compile-time assertions.
var (
	_ component.Component = (*Component)(nil)
	_ Directory           = (*directory.Client)(nil)
)

// Component serves the profile endpoints.
type Component struct {
	dir   Directory
	creds func() directory.Credentials
}

// New returns a Component.  creds is called on every request.
func New(dir Directory, creds func() directory.Credentials) *Component {
	return &Component{dir: dir, creds: creds}
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "profile" }

// Init wires the shared directory client and config getter.
func (c *Component) Init(deps component.Deps) error {
	if deps.Directory == nil || deps.Config == nil {
		return errors.New("directory client and config are required")
	}
	c.dir = deps.Directory
	c.creds = func() directory.Credentials { return directory.CredentialsFrom(deps.Config()) }
	return nil
}

// Routes registers the delegated and app-only endpoints.
func (c *Component) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireBearer)
		r.Get("/api/profile", c.handleProfile)
		r.Get("/api/profile/photo", c.handleMyPhoto)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequirePrincipal)
		r.Get("/api/profile-summary", c.handleSummary)
		r.Get("/api/profile-groups", c.handleGroups)
		r.Get("/api/profile-photo", c.handleUserPhoto)
		r.Put("/api/profile-photo", c.handlePutPhoto)
	})
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── delegated ───────────────────────────────────*/

// handleProfile exchanges the caller's token on-behalf-of and returns /me.
func (c *Component) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	creds := c.creds()
	if err := creds.Validate(); err != nil {
		respond.Error(w, r, err)
		return
	}

	token, err := c.dir.OnBehalfOf(ctx, creds, auth.BearerToken(r))
	if err != nil {
		respond.Error(w, r, directory.Problem(err, directory.MsgTokenFailed))
		return
	}

	p, err := c.dir.Me(ctx, token)
	if err != nil {
		respond.Error(w, r, directory.Problem(err, directory.MsgRequestFailed))
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

// handleMyPhoto streams the caller's photo using their own token.
func (c *Component) handleMyPhoto(w http.ResponseWriter, r *http.Request) {
	photo, err := c.dir.MyPhoto(r.Context(), auth.BearerToken(r))
	c.writePhoto(w, r, photo, err)
}

/*──────────────────────────── app-only ────────────────────────────────────*/

// appToken validates credentials and runs the client-credentials exchange.
// On failure the response has been written and ok is false.
func (c *Component) appToken(w http.ResponseWriter, r *http.Request) (auth.Principal, string, bool) {
	p, _ := auth.PrincipalFrom(r.Context())

	creds := c.creds()
	if err := creds.Validate(); err != nil {
		respond.Error(w, r, err)
		return p, "", false
	}
	token, err := c.dir.AppToken(r.Context(), creds)
	if err != nil {
		respond.Error(w, r, directory.Problem(err, directory.MsgTokenFailed))
		return p, "", false
	}
	return p, token, true
}

func (c *Component) handleUserPhoto(w http.ResponseWriter, r *http.Request) {
	p, token, ok := c.appToken(w, r)
	if !ok {
		return
	}
	photo, err := c.dir.UserPhoto(r.Context(), token, p.Key())
	c.writePhoto(w, r, photo, err)
}

func (c *Component) writePhoto(w http.ResponseWriter, r *http.Request, photo *directory.Photo, err error) {
	switch {
	case errors.Is(err, directory.ErrNoPhoto):
		respond.NoContent(w)
	case err != nil:
		logger.FromContext(r.Context()).Warnw("photo fetch failed", "err", err)
		respond.Error(w, r, directory.Problem(err, directory.MsgPhotoFailed))
	default:
		w.Header().Set("Content-Type", photo.ContentType)
		w.Header().Set("Cache-Control", "private, no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(photo.Data)
	}
}
