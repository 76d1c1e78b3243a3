// internal/component/deps.go
package component

import (
	"github.com/sydneysamil/samil-web/internal/acl"
	"github.com/sydneysamil/samil-web/internal/config"
	"github.com/sydneysamil/samil-web/internal/directory"
	"github.com/sydneysamil/samil-web/internal/mail"
	"github.com/sydneysamil/samil-web/internal/site"
)

// Deps exposes the shared process resources to components during Init.
// Config is a getter so a SIGHUP reload is visible without re-mounting.
type Deps struct {
	Config    func() *config.Config
	Settings  *site.Store
	Directory *directory.Client
	Gate      *acl.Gate
	Mail      *mail.Relay
}
