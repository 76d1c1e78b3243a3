package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	profileSelect = "displayName,jobTitle,department,officeLocation,mobilePhone,mail,userPrincipalName"
	memberSelect  = "id,displayName,description"
	appRoleSelect = "id,appRoleId,resourceDisplayName"

	// maxPages bounds @odata.nextLink following for one collection.
	maxPages = 10
)

// Profile is the subset of a Graph user the site displays.  Missing
// attributes decode as "".
type Profile struct {
	DisplayName       string `json:"displayName"`
	JobTitle          string `json:"jobTitle"`
	Department        string `json:"department"`
	OfficeLocation    string `json:"officeLocation"`
	MobilePhone       string `json:"mobilePhone"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// DirectoryObject is one memberOf entry: a group or a directory role.
type DirectoryObject struct {
	ODataType   string `json:"@odata.type"`
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

// AppRoleAssignment is one application role granted to a user.
type AppRoleAssignment struct {
	ID                  string `json:"id"`
	AppRoleID           string `json:"appRoleId"`
	ResourceDisplayName string `json:"resourceDisplayName"`
}

// EscapeKey encodes a user principal name or object id for a path segment
// the way browsers' encodeURIComponent does.
func EscapeKey(key string) string {
	return strings.ReplaceAll(url.QueryEscape(key), "+", "%20")
}

/*──────────────────────────── reads ────────────────────────────────────────*/

// Me returns the signed-in user's profile.  token must be delegated.
func (c *Client) Me(ctx context.Context, token string) (Profile, error) {
	var p Profile
	err := c.getJSON(ctx, "me", token, c.graph+"/me?$select="+profileSelect, &p)
	return p, err
}

// User returns the profile of the user identified by key.
func (c *Client) User(ctx context.Context, token, key string) (Profile, error) {
	var p Profile
	err := c.getJSON(ctx, "user", token, c.graph+"/users/"+EscapeKey(key)+"?$select="+profileSelect, &p)
	return p, err
}

// MemberOf returns every group and directory role the user belongs to.
func (c *Client) MemberOf(ctx context.Context, token, key string) ([]DirectoryObject, error) {
	return collect[DirectoryObject](ctx, c, "member_of", token,
		c.graph+"/users/"+EscapeKey(key)+"/memberOf?$select="+memberSelect)
}

// AppRoleAssignments returns the application roles granted to the user.
func (c *Client) AppRoleAssignments(ctx context.Context, token, key string) ([]AppRoleAssignment, error) {
	return collect[AppRoleAssignment](ctx, c, "app_roles", token,
		c.graph+"/users/"+EscapeKey(key)+"/appRoleAssignments?$select="+appRoleSelect)
}

/*──────────────────────────── plumbing ─────────────────────────────────────*/

type page[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

// collect follows @odata.nextLink until the collection is exhausted or
// maxPages is reached.
func collect[T any](ctx context.Context, c *Client, op, token, first string) ([]T, error) {
	var out []T
	next := first
	for i := 0; next != "" && i < maxPages; i++ {
		var p page[T]
		if err := c.getJSON(ctx, op, token, next, &p); err != nil {
			return nil, err
		}
		out = append(out, p.Value...)
		next = p.NextLink
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, op, token, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	err = c.do(op, req, func(res *http.Response) error {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("directory %s: decode: %w", op, err)
		}
		return nil
	})
	observe(op, err)
	return err
}

// do sends req and hands 2xx responses to onOK.  Non-2xx bodies become
// *UpstreamError, transport failures wrap ErrUnreachable.
func (c *Client) do(op string, req *http.Request, onOK func(*http.Response) error) error {
	res, err := c.http.Do(req)
	if err != nil {
		return unreachable(op, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return upstream(op, res.StatusCode, string(body))
	}
	if onOK == nil {
		return nil
	}
	return onOK(res)
}
