// components/themes/themes.go
//
// Themes component – the read-only theme catalog.
//
// GET /api/themes lists every theme id with its labels so the front end
// can render the picker without hard-coding the set.  The catalog is
// static; no database or directory access.

package themes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sydneysamil/samil-web/internal/component"
	"github.com/sydneysamil/samil-web/internal/respond"
	"github.com/sydneysamil/samil-web/internal/theme"
)

// Catalog is the body of GET /api/themes.
type Catalog struct {
	Default string         `json:"default"`
	Themes  []theme.Option `json:"themes"`
}

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component serves the catalog.
type Component struct{}

// Name returns the canonical component key.
func (c *Component) Name() string { return "themes" }

// Init satisfies component.Component; nothing to wire.
func (c *Component) Init(component.Deps) error { return nil }

// Routes registers GET /api/themes.
func (c *Component) Routes(r chi.Router) {
	r.Get("/api/themes", c.handleList)
}

// Register component at program start.
func init() { component.Register(&Component{}) }

func (c *Component) handleList(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=300")
	respond.JSON(w, http.StatusOK, Catalog{Default: theme.Default, Themes: theme.Options()})
}
