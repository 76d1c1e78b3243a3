// internal/acl/gate.go
//
// Role gate for site-wide writes.
//
// Context
// -------
// Only holders of the directory's Global Administrator role may change
// site settings.  Authorize answers that question for one caller:
//
//  1. read service credentials from config     (missing → 500)
//  2. client-credentials token exchange        (rejected → upstream status)
//  3. memberOf lookup for the caller           (rejected → upstream status)
//  4. directory-role match on the display name (no match → 403)
//
// The steps run strictly in order.  Neither the token nor the role answer
// is cached; each call re-queries the directory.
package acl

import (
	"context"
	"net/http"

	"github.com/sydneysamil/samil-web/internal/apperr"
	"github.com/sydneysamil/samil-web/internal/auth"
	"github.com/sydneysamil/samil-web/internal/directory"
	"github.com/sydneysamil/samil-web/internal/logger"
	"github.com/sydneysamil/samil-web/internal/metrics"
)

// MsgRoleLookupFailed labels a rejected memberOf query.
const MsgRoleLookupFailed = "Directory role lookup failed."

// ErrNotGlobalAdmin is returned when the caller lacks the role.
var ErrNotGlobalAdmin = apperr.New(http.StatusForbidden,
	"Only Global Administrator can update site settings.")

// Directory is the slice of *directory.Client the gate needs.
type Directory interface {
	AppToken(ctx context.Context, creds directory.Credentials) (string, error)
	MemberOf(ctx context.Context, token, key string) ([]directory.DirectoryObject, error)
}

// Gate checks the Global Administrator role.  Safe for concurrent use.
type Gate struct {
	dir   Directory
	creds func() directory.Credentials
}

// NewGate returns a Gate.  creds is called on every Authorize so a
// reloaded config takes effect immediately.
func NewGate(dir Directory, creds func() directory.Credentials) *Gate {
	return &Gate{dir: dir, creds: creds}
}

// Authorize returns nil when p holds the Global Administrator role.
// Failures are *apperr.Error values ready for respond.Error.
func (g *Gate) Authorize(ctx context.Context, p auth.Principal) error {
	log := logger.FromContext(ctx)

	creds := g.creds()
	if err := creds.Validate(); err != nil {
		return err
	}

	token, err := g.dir.AppToken(ctx, creds)
	if err != nil {
		log.Warnw("directory token exchange failed", "err", err)
		return directory.Problem(err, directory.MsgTokenFailed)
	}

	entries, err := g.dir.MemberOf(ctx, token, p.Key())
	if err != nil {
		log.Warnw("directory role lookup failed", "user", p.Key(), "err", err)
		return directory.Problem(err, MsgRoleLookupFailed)
	}

	if !directory.IsGlobalAdmin(entries) {
		metrics.SettingsDeniedTotal.WithLabelValues("not_admin").Inc()
		log.Infow("settings write denied", "user", p.Key())
		return ErrNotGlobalAdmin
	}
	return nil
}
