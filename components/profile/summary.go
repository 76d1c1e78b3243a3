package profile

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/sydneysamil/samil-web/internal/directory"
	"github.com/sydneysamil/samil-web/internal/logger"
	"github.com/sydneysamil/samil-web/internal/respond"
)

// Fallback labels for entries the directory returns without a name.
const (
	unnamedGroup = "Unnamed group"
	unnamedRole  = "Unnamed role"
	unknownApp   = "Unknown app"
)

// Entry is a group or directory role as the summary renders it.
type Entry struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

// AppRole is an application role assignment as the summary renders it.
type AppRole struct {
	ID                  string `json:"id"`
	AppRoleID           string `json:"appRoleId"`
	ResourceDisplayName string `json:"resourceDisplayName"`
}

// Summary is the body of GET /api/profile-summary.
type Summary struct {
	Profile        directory.Profile `json:"profile"`
	Groups         []Entry           `json:"groups"`
	AppRoles       []AppRole         `json:"appRoles"`
	DirectoryRoles []Entry           `json:"directoryRoles"`
}

// GroupList is the body of GET /api/profile-groups.
type GroupList struct {
	Count  int     `json:"count"`
	Groups []Entry `json:"groups"`
}

// handleSummary fetches profile, memberships, and app roles in parallel.
// Only the profile is required; the other two degrade to empty lists.
func (c *Component) handleSummary(w http.ResponseWriter, r *http.Request) {
	p, token, ok := c.appToken(w, r)
	if !ok {
		return
	}
	log := logger.FromContext(r.Context())
	key := p.Key()

	var (
		prof     directory.Profile
		members  []directory.DirectoryObject
		appRoles []directory.AppRoleAssignment
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		prof, err = c.dir.User(ctx, token, key)
		return err
	})
	g.Go(func() error {
		var err error
		if members, err = c.dir.MemberOf(ctx, token, key); err != nil {
			log.Warnw("memberOf lookup failed", "user", key, "err", err)
			members = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if appRoles, err = c.dir.AppRoleAssignments(ctx, token, key); err != nil {
			log.Warnw("app role lookup failed", "user", key, "err", err)
			appRoles = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		respond.Error(w, r, directory.Problem(err, directory.MsgRequestFailed))
		return
	}

	respond.JSON(w, http.StatusOK, Summary{
		Profile:        prof,
		Groups:         entries(directory.Groups(members), unnamedGroup),
		AppRoles:       roles(appRoles),
		DirectoryRoles: entries(directory.DirectoryRoles(members), unnamedRole),
	})
}

// handleGroups lists the caller's group memberships.
func (c *Component) handleGroups(w http.ResponseWriter, r *http.Request) {
	p, token, ok := c.appToken(w, r)
	if !ok {
		return
	}
	members, err := c.dir.MemberOf(r.Context(), token, p.Key())
	if err != nil {
		respond.Error(w, r, directory.Problem(err, directory.MsgRequestFailed))
		return
	}
	groups := entries(directory.Groups(members), unnamedGroup)
	respond.JSON(w, http.StatusOK, GroupList{Count: len(groups), Groups: groups})
}

func entries(in []directory.DirectoryObject, fallback string) []Entry {
	out := make([]Entry, 0, len(in))
	for _, e := range in {
		name := e.DisplayName
		if name == "" {
			name = fallback
		}
		out = append(out, Entry{ID: e.ID, DisplayName: name, Description: e.Description})
	}
	return out
}

func roles(in []directory.AppRoleAssignment) []AppRole {
	out := make([]AppRole, 0, len(in))
	for _, a := range in {
		name := a.ResourceDisplayName
		if name == "" {
			name = unknownApp
		}
		out = append(out, AppRole{ID: a.ID, AppRoleID: a.AppRoleID, ResourceDisplayName: name})
	}
	return out
}
