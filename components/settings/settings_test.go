package settings

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydneysamil/samil-web/internal/acl"
	"github.com/sydneysamil/samil-web/internal/apperr"
	"github.com/sydneysamil/samil-web/internal/auth"
	"github.com/sydneysamil/samil-web/internal/directory"
	"github.com/sydneysamil/samil-web/internal/site"
	"github.com/sydneysamil/samil-web/internal/theme"
)

/*──────────────────────────── fakes ───────────────────────────────────────*/

type memStore struct {
	row     site.Setting
	writes  int
	readErr error
}

func (m *memStore) Read(context.Context) (site.Setting, error) {
	if m.readErr != nil {
		return site.Setting{}, m.readErr
	}
	if m.row.ThemeID == "" {
		m.row = site.Setting{Key: site.ThemeKey, ThemeID: theme.Default}
	}
	return m.row, nil
}

func (m *memStore) Write(_ context.Context, themeID, by string) (site.Setting, error) {
	m.writes++
	at := time.Date(2026, 5, 1, 10, 0, m.writes, 0, time.UTC)
	m.row = site.Setting{Key: site.ThemeKey, ThemeID: themeID, UpdatedBy: &by, UpdatedAt: &at}
	return m.row, nil
}

type gateFunc func(context.Context, auth.Principal) error

func (f gateFunc) Authorize(ctx context.Context, p auth.Principal) error { return f(ctx, p) }

var allow = gateFunc(func(context.Context, auth.Principal) error { return nil })

// fakeDirectory answers the gate's two calls from canned data.
type fakeDirectory struct {
	calls   int
	entries []directory.DirectoryObject
	err     error
}

func (d *fakeDirectory) AppToken(context.Context, directory.Credentials) (string, error) {
	d.calls++
	return "app-token", d.err
}

func (d *fakeDirectory) MemberOf(context.Context, string, string) ([]directory.DirectoryObject, error) {
	d.calls++
	return d.entries, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

const adminPrincipal = `{"identityProvider":"aad","userId":"u-1","userDetails":"admin@example.org","userRoles":["authenticated"]}`

func router(c *Component) http.Handler {
	r := chi.NewRouter()
	r.Use(auth.Principal)
	c.Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string, principal bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if principal {
		req.Header.Set(auth.PrincipalHeader, base64.StdEncoding.EncodeToString([]byte(adminPrincipal)))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

/*──────────────────────────── tests ───────────────────────────────────────*/

func TestGetFreshStoreReturnsDefault(t *testing.T) {
	h := router(New(&memStore{}, allow))
	w := do(t, h, http.MethodGet, "/settings", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"themeId":"church","updatedAt":null,"updatedBy":null}`, w.Body.String())
}

func TestPutThenGetReflectsTheme(t *testing.T) {
	store := &memStore{}
	h := router(New(store, allow))

	w := do(t, h, http.MethodPut, "/api/site-settings", `{"themeId":"dark"}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"themeId":"dark"`)
	assert.Contains(t, w.Body.String(), `"updatedBy":"admin@example.org"`)

	w = do(t, h, http.MethodGet, "/api/site-settings", "", false)
	assert.Contains(t, w.Body.String(), `"themeId":"dark"`)
}

func TestPutInvalidThemeListsAllowed(t *testing.T) {
	store := &memStore{}
	h := router(New(store, allow))

	for _, body := range []string{`{"themeId":"neon"}`, `{}`, `not json`} {
		w := do(t, h, http.MethodPut, "/settings", body, true)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.JSONEq(t,
			`{"error":"Invalid themeId.","allowed":["dark","light","church","modern-sky","modern-sand"]}`,
			w.Body.String())
	}
	assert.Zero(t, store.writes)
}

func TestPutWithoutPrincipalTouchesNothing(t *testing.T) {
	store := &memStore{}
	dir := &fakeDirectory{}
	gate := acl.NewGate(dir, func() directory.Credentials {
		return directory.Credentials{TenantID: "t", ClientID: "c", ClientSecret: "s"}
	})
	h := router(New(store, gate))

	w := do(t, h, http.MethodPut, "/settings", `{"themeId":"dark"}`, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, dir.calls)
	assert.Zero(t, store.writes)
}

func TestPutNonAdminIsForbidden(t *testing.T) {
	store := &memStore{}
	dir := &fakeDirectory{entries: []directory.DirectoryObject{
		{ODataType: directory.TypeDirectoryRole, DisplayName: "User Administrator"},
		{ODataType: directory.TypeGroup, DisplayName: "Global Administrator"},
	}}
	gate := acl.NewGate(dir, func() directory.Credentials {
		return directory.Credentials{TenantID: "t", ClientID: "c", ClientSecret: "s"}
	})
	h := router(New(store, gate))

	w := do(t, h, http.MethodPut, "/settings", `{"themeId":"dark"}`, true)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Only Global Administrator can update site settings."}`, w.Body.String())
	assert.Zero(t, store.writes)
}

func TestPutAdminThroughRealGate(t *testing.T) {
	store := &memStore{}
	dir := &fakeDirectory{entries: []directory.DirectoryObject{
		{ODataType: directory.TypeDirectoryRole, DisplayName: "Global Administrator"},
	}}
	gate := acl.NewGate(dir, func() directory.Credentials {
		return directory.Credentials{TenantID: "t", ClientID: "c", ClientSecret: "s"}
	})
	h := router(New(store, gate))

	w := do(t, h, http.MethodPut, "/settings", `{"themeId":"modern-sky"}`, true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, store.writes)
	assert.Equal(t, 2, dir.calls)
}

func TestPutMissingCredentialsIs500(t *testing.T) {
	store := &memStore{}
	dir := &fakeDirectory{}
	gate := acl.NewGate(dir, func() directory.Credentials { return directory.Credentials{} })
	h := router(New(store, gate))

	w := do(t, h, http.MethodPut, "/settings", `{"themeId":"dark"}`, true)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Zero(t, dir.calls)
	assert.Zero(t, store.writes)
}

func TestPutPropagatesUpstreamStatus(t *testing.T) {
	store := &memStore{}
	gate := gateFunc(func(context.Context, auth.Principal) error {
		return apperr.Upstream(http.StatusUnauthorized, directory.MsgTokenFailed, `{"error":"invalid_client"}`)
	})
	h := router(New(store, gate))

	w := do(t, h, http.MethodPut, "/settings", `{"themeId":"dark"}`, true)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_client")
	assert.Zero(t, store.writes)
}

func TestStoreFailureIsTruncated500(t *testing.T) {
	long := strings.Repeat("x", 500)
	h := router(New(&memStore{readErr: errors.New(long)}, allow))

	w := do(t, h, http.MethodGet, "/settings", "", false)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"Unable to process site settings."`)
	assert.NotContains(t, w.Body.String(), strings.Repeat("x", apperr.MaxInternalDetail+1))
}

func TestOtherMethodsAre405(t *testing.T) {
	h := router(New(&memStore{}, allow))
	for _, m := range []string{http.MethodPost, http.MethodDelete, http.MethodPatch} {
		w := do(t, h, m, "/settings", "", true)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, m)
		assert.JSONEq(t, `{"error":"Method not allowed."}`, w.Body.String())
	}
}
