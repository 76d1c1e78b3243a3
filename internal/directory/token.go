package directory

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	grantJWTBearer = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	useOnBehalfOf  = "on_behalf_of"
)

// AppToken performs a client-credentials exchange and returns a bearer
// token for Graph scoped to the service identity.  One token request per
// call; nothing is cached.
func (c *Client) AppToken(ctx context.Context, creds Credentials) (string, error) {
	if err := creds.Validate(); err != nil {
		return "", err
	}
	tok, err := c.exchange(ctx, "app_token", creds, nil)
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", ErrNoAppToken
	}
	return tok, nil
}

// OnBehalfOf trades the caller's access token for a Graph token that acts
// as that user (jwt-bearer grant with requested_token_use=on_behalf_of).
func (c *Client) OnBehalfOf(ctx context.Context, creds Credentials, assertion string) (string, error) {
	if err := creds.Validate(); err != nil {
		return "", err
	}
	tok, err := c.exchange(ctx, "obo_token", creds, url.Values{
		"grant_type":          {grantJWTBearer},
		"requested_token_use": {useOnBehalfOf},
		"assertion":           {assertion},
	})
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", ErrNoDelegatedToken
	}
	return tok, nil
}

func (c *Client) tokenURL(tenant string) string {
	return c.authority + "/" + url.PathEscape(tenant) + "/oauth2/v2.0/token"
}

// exchange runs one token request.  An empty token with a nil error means
// the endpoint answered 2xx without access_token.
func (c *Client) exchange(ctx context.Context, op string, creds Credentials, extra url.Values) (string, error) {
	cc := clientcredentials.Config{
		ClientID:       creds.ClientID,
		ClientSecret:   creds.ClientSecret,
		TokenURL:       c.tokenURL(creds.TenantID),
		Scopes:         []string{GraphScope},
		EndpointParams: extra,
		AuthStyle:      oauth2.AuthStyleInParams,
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	tok, err := cc.Token(ctx)
	err = classifyTokenError(op, err)
	observe(op, err)
	if err != nil {
		if errors.Is(err, errMissingAccessToken) {
			return "", nil
		}
		return "", err
	}
	return tok.AccessToken, nil
}

var errMissingAccessToken = errors.New("missing access_token")

func classifyTokenError(op string, err error) error {
	if err == nil {
		return nil
	}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return upstream(op, status, string(re.Body))
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return unreachable(op, err)
	}
	if strings.Contains(err.Error(), "missing access_token") {
		return errMissingAccessToken
	}
	return upstream(op, http.StatusBadGateway, err.Error())
}
