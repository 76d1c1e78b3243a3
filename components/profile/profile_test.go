package profile

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydneysamil/samil-web/internal/apperr"
	"github.com/sydneysamil/samil-web/internal/auth"
	"github.com/sydneysamil/samil-web/internal/directory"
	"github.com/sydneysamil/samil-web/internal/respond"
)

/*──────────────────────────── fake directory ───────────────────────────────*/

type fakeDir struct {
	mu sync.Mutex

	tokenErr   error
	profileErr error
	memberErr  error
	rolesErr   error
	photo      *directory.Photo
	photoErr   error

	members []directory.DirectoryObject
	roles   []directory.AppRoleAssignment

	gotAssertion string
	gotKey       string
	put          []byte
	putType      string
}

func (f *fakeDir) AppToken(context.Context, directory.Credentials) (string, error) {
	return "app-token", f.tokenErr
}

func (f *fakeDir) OnBehalfOf(_ context.Context, _ directory.Credentials, assertion string) (string, error) {
	f.gotAssertion = assertion
	return "obo-token", f.tokenErr
}

func (f *fakeDir) Me(_ context.Context, token string) (directory.Profile, error) {
	if token != "obo-token" {
		return directory.Profile{}, errors.New("wrong token")
	}
	return directory.Profile{DisplayName: "Kim Min-jun", Mail: "minjun@example.org"}, f.profileErr
}

func (f *fakeDir) User(_ context.Context, _, key string) (directory.Profile, error) {
	f.mu.Lock()
	f.gotKey = key
	f.mu.Unlock()
	return directory.Profile{DisplayName: "Kim Min-jun", UserPrincipalName: key}, f.profileErr
}

func (f *fakeDir) MemberOf(context.Context, string, string) ([]directory.DirectoryObject, error) {
	return f.members, f.memberErr
}

func (f *fakeDir) AppRoleAssignments(context.Context, string, string) ([]directory.AppRoleAssignment, error) {
	return f.roles, f.rolesErr
}

func (f *fakeDir) MyPhoto(context.Context, string) (*directory.Photo, error) {
	return f.photo, f.photoErr
}

func (f *fakeDir) UserPhoto(context.Context, string, string) (*directory.Photo, error) {
	return f.photo, f.photoErr
}

func (f *fakeDir) PutUserPhoto(_ context.Context, _, _, contentType string, data []byte) error {
	f.put, f.putType = data, contentType
	return nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

var okCreds = func() directory.Credentials {
	return directory.Credentials{TenantID: "t", ClientID: "c", ClientSecret: "s"}
}

const principalJSON = `{"identityProvider":"aad","userId":"u-1","userDetails":"minjun@example.org"}`

func router(c *Component) http.Handler {
	r := chi.NewRouter()
	r.MethodNotAllowed(respond.MethodNotAllowed)
	r.Use(auth.Principal)
	c.Routes(r)
	return r
}

type reqOpt func(*http.Request)

func withPrincipal(r *http.Request) {
	r.Header.Set(auth.PrincipalHeader, base64.StdEncoding.EncodeToString([]byte(principalJSON)))
}

func withToken(r *http.Request) { r.Header.Set(auth.AccessTokenHeader, "caller-token") }

func serve(h http.Handler, method, path string, body string, opts ...reqOpt) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for _, o := range opts {
		o(req)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

/*──────────────────────────── delegated ───────────────────────────────────*/

func TestProfileRequiresToken(t *testing.T) {
	h := router(New(&fakeDir{}, okCreds))
	w := serve(h, http.MethodGet, "/api/profile", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Missing access token. Configure Entra ID + Graph permissions."}`, w.Body.String())
}

func TestProfileUsesOnBehalfOf(t *testing.T) {
	dir := &fakeDir{}
	h := router(New(dir, okCreds))
	w := serve(h, http.MethodGet, "/api/profile", "", withToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "caller-token", dir.gotAssertion)

	var p directory.Profile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "Kim Min-jun", p.DisplayName)
	assert.Empty(t, p.JobTitle)
}

func TestProfileMissingCredentials(t *testing.T) {
	h := router(New(&fakeDir{}, func() directory.Credentials { return directory.Credentials{} }))
	w := serve(h, http.MethodGet, "/api/profile", "", withToken)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMyPhotoNoneIs204(t *testing.T) {
	h := router(New(&fakeDir{photoErr: directory.ErrNoPhoto}, okCreds))
	w := serve(h, http.MethodGet, "/api/profile/photo", "", withToken)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMyPhotoPassesBytes(t *testing.T) {
	h := router(New(&fakeDir{photo: &directory.Photo{ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}}, okCreds))
	w := serve(h, http.MethodGet, "/api/profile/photo", "", withToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, w.Body.Bytes())
}

/*──────────────────────────── app-only ────────────────────────────────────*/

func TestSummaryRequiresPrincipal(t *testing.T) {
	h := router(New(&fakeDir{}, okCreds))
	w := serve(h, http.MethodGet, "/api/profile-summary", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSummaryShapesEntries(t *testing.T) {
	dir := &fakeDir{
		members: []directory.DirectoryObject{
			{ODataType: directory.TypeGroup, ID: "g1", DisplayName: "Choir"},
			{ODataType: directory.TypeGroup, ID: "g2"},
			{ODataType: directory.TypeDirectoryRole, ID: "r1"},
		},
		roles: []directory.AppRoleAssignment{{ID: "a1", AppRoleID: "ar1"}},
	}
	h := router(New(dir, okCreds))
	w := serve(h, http.MethodGet, "/api/profile-summary", "", withPrincipal)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var s Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Equal(t, "minjun@example.org", dir.gotKey)
	assert.Equal(t, []Entry{{ID: "g1", DisplayName: "Choir"}, {ID: "g2", DisplayName: "Unnamed group"}}, s.Groups)
	assert.Equal(t, []Entry{{ID: "r1", DisplayName: "Unnamed role"}}, s.DirectoryRoles)
	assert.Equal(t, []AppRole{{ID: "a1", AppRoleID: "ar1", ResourceDisplayName: "Unknown app"}}, s.AppRoles)
}

func TestSummaryDegradesOptionalLookups(t *testing.T) {
	dir := &fakeDir{memberErr: errors.New("boom"), rolesErr: errors.New("boom")}
	h := router(New(dir, okCreds))
	w := serve(h, http.MethodGet, "/api/profile-summary", "", withPrincipal)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"groups":[]`)
	assert.Contains(t, w.Body.String(), `"appRoles":[]`)
}

func TestSummaryProfileFailureIsFatal(t *testing.T) {
	dir := &fakeDir{profileErr: apperr.Upstream(http.StatusNotFound, directory.MsgRequestFailed, "not found")}
	h := router(New(dir, okCreds))
	w := serve(h, http.MethodGet, "/api/profile-summary", "", withPrincipal)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSummaryTokenFailurePropagates(t *testing.T) {
	dir := &fakeDir{tokenErr: apperr.Upstream(http.StatusUnauthorized, directory.MsgTokenFailed, "invalid_client")}
	h := router(New(dir, okCreds))
	w := serve(h, http.MethodGet, "/api/profile-summary", "", withPrincipal)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_client")
}

func TestGroupsCount(t *testing.T) {
	dir := &fakeDir{members: []directory.DirectoryObject{
		{ODataType: directory.TypeGroup, ID: "g1", DisplayName: "Choir", Description: "Sunday choir"},
		{ODataType: directory.TypeDirectoryRole, ID: "r1", DisplayName: "Global Administrator"},
	}}
	h := router(New(dir, okCreds))
	w := serve(h, http.MethodGet, "/api/profile-groups", "", withPrincipal)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":1,"groups":[{"id":"g1","displayName":"Choir","description":"Sunday choir"}]}`, w.Body.String())
}

/*──────────────────────────── photo upload ────────────────────────────────*/

func TestPutPhotoValidation(t *testing.T) {
	h := router(New(&fakeDir{}, okCreds))

	w := serve(h, http.MethodPut, "/api/profile-photo", "abc", withPrincipal,
		func(r *http.Request) { r.Header.Set("Content-Type", "text/plain") })
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid content type")

	w = serve(h, http.MethodPut, "/api/profile-photo", "  ", withPrincipal,
		func(r *http.Request) { r.Header.Set("Content-Type", "image/png") })
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Missing photo bytes")
}

func TestPutPhotoAcceptsDataURL(t *testing.T) {
	dir := &fakeDir{}
	h := router(New(dir, okCreds))
	body := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF})

	w := serve(h, http.MethodPut, "/api/profile-photo", body, withPrincipal,
		func(r *http.Request) { r.Header.Set("Content-Type", "image/jpeg") })
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, dir.put)
	assert.Equal(t, "image/jpeg", dir.putType)
}

func TestDecodePhoto(t *testing.T) {
	raw := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	assert.Equal(t, raw, DecodePhoto(raw))
	assert.Equal(t, raw, DecodePhoto([]byte(base64.StdEncoding.EncodeToString(raw))))
	assert.Nil(t, DecodePhoto([]byte("data:image/png;base64")))
	assert.Nil(t, DecodePhoto(nil))
}

func TestUnknownMethodIs405(t *testing.T) {
	h := router(New(&fakeDir{}, okCreds))
	w := serve(h, http.MethodDelete, "/api/profile-photo", "", withPrincipal)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
