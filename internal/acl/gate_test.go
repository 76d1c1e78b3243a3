package acl

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydneysamil/samil-web/internal/apperr"
	"github.com/sydneysamil/samil-web/internal/auth"
	"github.com/sydneysamil/samil-web/internal/directory"
)

type stubDirectory struct {
	calls    []string
	tokenErr error
	roleErr  error
	entries  []directory.DirectoryObject
	lastKey  string
}

func (s *stubDirectory) AppToken(context.Context, directory.Credentials) (string, error) {
	s.calls = append(s.calls, "token")
	if s.tokenErr != nil {
		return "", s.tokenErr
	}
	return "tok", nil
}

func (s *stubDirectory) MemberOf(_ context.Context, token, key string) ([]directory.DirectoryObject, error) {
	s.calls = append(s.calls, "memberOf:"+token)
	s.lastKey = key
	return s.entries, s.roleErr
}

var (
	goodCreds = func() directory.Credentials {
		return directory.Credentials{TenantID: "t", ClientID: "c", ClientSecret: "s"}
	}
	admin = auth.Principal{UserDetails: "admin@example.org", UserID: "u-1"}
)

func TestAuthorizeGlobalAdmin(t *testing.T) {
	dir := &stubDirectory{entries: []directory.DirectoryObject{
		{ODataType: directory.TypeGroup, DisplayName: "Choir"},
		{ODataType: directory.TypeDirectoryRole, DisplayName: "Global Administrator"},
	}}
	g := NewGate(dir, goodCreds)

	require.NoError(t, g.Authorize(context.Background(), admin))
	assert.Equal(t, []string{"token", "memberOf:tok"}, dir.calls)
	assert.Equal(t, "admin@example.org", dir.lastKey)
}

func TestAuthorizeDeniesOtherRoles(t *testing.T) {
	dir := &stubDirectory{entries: []directory.DirectoryObject{
		{ODataType: directory.TypeDirectoryRole, DisplayName: "User Administrator"},
		{ODataType: directory.TypeGroup, DisplayName: "Global Administrator"},
	}}
	err := NewGate(dir, goodCreds).Authorize(context.Background(), admin)
	assert.ErrorIs(t, err, ErrNotGlobalAdmin)
}

func TestAuthorizeMissingCredentials(t *testing.T) {
	dir := &stubDirectory{}
	g := NewGate(dir, func() directory.Credentials { return directory.Credentials{TenantID: "t"} })

	err := g.Authorize(context.Background(), admin)
	assert.ErrorIs(t, err, directory.ErrNotConfigured)
	assert.Empty(t, dir.calls)
}

func TestAuthorizePropagatesTokenFailure(t *testing.T) {
	dir := &stubDirectory{tokenErr: &directory.UpstreamError{Op: "app_token", Status: http.StatusBadRequest, Detail: "AADSTS7000215"}}

	err := NewGate(dir, goodCreds).Authorize(context.Background(), admin)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusBadRequest, ae.Status)
	assert.Equal(t, directory.MsgTokenFailed, ae.Message)
	assert.Equal(t, "AADSTS7000215", ae.Detail)
	assert.Equal(t, []string{"token"}, dir.calls)
}

func TestAuthorizePropagatesRoleLookupFailure(t *testing.T) {
	dir := &stubDirectory{roleErr: &directory.UpstreamError{Op: "member_of", Status: http.StatusForbidden, Detail: "denied"}}

	err := NewGate(dir, goodCreds).Authorize(context.Background(), admin)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusForbidden, ae.Status)
	assert.Equal(t, MsgRoleLookupFailed, ae.Message)
}
