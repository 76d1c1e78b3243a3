// components/settings/settings.go
//
// Site settings component – the site-wide theme.
//
// Context
// -------
// GET is public and returns the stored row (provisioning the default on a
// fresh database).  PUT changes the theme and is gated on the directory's
// Global Administrator role:
//
//  1. caller principal              (absent   → 401, nothing else runs)
//  2. themeId in the catalog        (invalid  → 400 with `allowed`)
//  3. role gate                     (creds → token → memberOf → 403)
//  4. store upsert                  (→ 200 with the new row)
//
// Any other method answers 405.  Errors from the gate are passed through
// unchanged; everything else becomes a 500 with a truncated detail.
//
// Notes
// -----
// • Both /api/site-settings and the short /settings alias are served.
// • The handler holds no state between requests.  Concurrent PUTs race at
//   the database and the later commit wins.
//
//------------------------------------------------------------------------------

package settings

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sydneysamil/samil-web/internal/apperr"
	"github.com/sydneysamil/samil-web/internal/auth"
	"github.com/sydneysamil/samil-web/internal/component"
	"github.com/sydneysamil/samil-web/internal/logger"
	"github.com/sydneysamil/samil-web/internal/metrics"
	"github.com/sydneysamil/samil-web/internal/respond"
	"github.com/sydneysamil/samil-web/internal/site"
	"github.com/sydneysamil/samil-web/internal/theme"
)

// Client-facing messages.
const (
	MsgStoreFailed  = "Unable to process site settings."
	MsgInvalidTheme = "Invalid themeId."
	maxRequestBytes = 16 << 10
)

// Store is the part of *site.Store the handlers use.
type Store interface {
	Read(ctx context.Context) (site.Setting, error)
	Write(ctx context.Context, themeID, updatedBy string) (site.Setting, error)
}

// Gate is the part of *acl.Gate the handlers use.
type Gate interface {
	Authorize(ctx context.Context, p auth.Principal) error
}

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component serves the site settings endpoints.
type Component struct {
	store Store
	gate  Gate
}

// New returns a Component wired to store and gate.  Used directly by tests;
// the registered instance is wired through Init.
func New(store Store, gate Gate) *Component {
	return &Component{store: store, gate: gate}
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "settings" }

// Init picks the store and gate out of deps.
func (c *Component) Init(deps component.Deps) error {
	if deps.Settings == nil || deps.Gate == nil {
		return errors.New("settings store and role gate are required")
	}
	c.store, c.gate = deps.Settings, deps.Gate
	return nil
}

// Routes registers the dispatcher on both paths.
func (c *Component) Routes(r chi.Router) {
	r.HandleFunc("/api/site-settings", c.dispatch)
	r.HandleFunc("/settings", c.dispatch)
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

type putRequest struct {
	ThemeID string `json:"themeId"`
}

func (c *Component) dispatch(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		c.handleGet(w, r)
	case http.MethodPut:
		c.handlePut(w, r)
	default:
		respond.MethodNotAllowed(w, r)
	}
}

func (c *Component) handleGet(w http.ResponseWriter, r *http.Request) {
	row, err := c.store.Read(r.Context())
	if err != nil {
		respond.Error(w, r, apperr.Internal(MsgStoreFailed, err))
		return
	}
	respond.JSON(w, http.StatusOK, row)
}

func (c *Component) handlePut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	p, ok := auth.PrincipalFrom(ctx)
	if !ok {
		metrics.SettingsDeniedTotal.WithLabelValues("no_principal").Inc()
		respond.Error(w, r, auth.ErrNoPrincipal)
		return
	}

	// A body that is not JSON is treated like an empty themeId.
	var req putRequest
	_ = json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(&req)
	if !theme.Valid(req.ThemeID) {
		metrics.SettingsDeniedTotal.WithLabelValues("invalid_theme").Inc()
		respond.Error(w, r, apperr.Validation(MsgInvalidTheme, theme.IDs()))
		return
	}

	if err := c.gate.Authorize(ctx, p); err != nil {
		if !isAppErr(err) {
			err = apperr.Internal(MsgStoreFailed, err)
		}
		respond.Error(w, r, err)
		return
	}

	row, err := c.store.Write(ctx, req.ThemeID, p.Actor())
	if err != nil {
		respond.Error(w, r, apperr.Internal(MsgStoreFailed, err))
		return
	}
	log.Infow("site theme updated", "theme", row.ThemeID, "by", p.Actor())
	respond.JSON(w, http.StatusOK, row)
}

func isAppErr(err error) bool {
	var ae *apperr.Error
	return errors.As(err, &ae)
}
