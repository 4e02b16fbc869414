// Package google configures the standard OAuth2 adapter for Google, reading
// the owner from the OpenID Connect userinfo endpoint.
package google

import (
	"context"
	"net/http"

	"github.com/dropDatabas3/authbridge/internal/oauth"
	"github.com/dropDatabas3/authbridge/internal/oauth/standard"
)

const (
	authEndpoint     = "https://accounts.google.com/o/oauth2/v2/auth"
	tokenEndpoint    = "https://oauth2.googleapis.com/token"
	userInfoEndpoint = "https://openidconnect.googleapis.com/v1/userinfo"
)

// Fields locate the normalized owner fields in the userinfo payload.
var Fields = standard.OwnerFields{ID: "sub", Name: "name", ScreenName: "given_name", Email: "email"}

// Client adds Google's authorization parameters to a standard client.
type Client struct {
	*standard.OAuth2Client
	defaults map[string]string
}

// New builds a Google client. Empty endpoints default to Google's; cfg.Extra
// entries (access_type, prompt, hd, ...) are added to every authorization URL.
func New(cfg oauth.ProviderConfig, httpClient *http.Client, gen oauth.StateGenerator) (*Client, error) {
	sc := standard.ConfigFrom(cfg)
	sc.Fields = Fields
	if sc.AuthURL == "" {
		sc.AuthURL = authEndpoint
	}
	if sc.TokenURL == "" {
		sc.TokenURL = tokenEndpoint
	}
	if sc.UserInfoURL == "" {
		sc.UserInfoURL = userInfoEndpoint
	}
	if len(sc.Scopes) == 0 {
		sc.Scopes = []string{"openid", "email", "profile"}
	}
	base, err := standard.NewOAuth2Client(sc, httpClient, gen)
	if err != nil {
		return nil, err
	}

	defaults := map[string]string{
		"access_type":            "offline",
		"include_granted_scopes": "true",
	}
	for k, v := range cfg.Extra {
		defaults[k] = v
	}
	return &Client{OAuth2Client: base, defaults: defaults}, nil
}

// AuthCodeURL merges the configured defaults under the per-call extras.
func (c *Client) AuthCodeURL(ctx context.Context, opts oauth.AuthorizationOptions) (string, error) {
	extra := make(map[string]string, len(c.defaults)+len(opts.Extra))
	for k, v := range c.defaults {
		extra[k] = v
	}
	for k, v := range opts.Extra {
		extra[k] = v
	}
	opts.Extra = extra
	return c.OAuth2Client.AuthCodeURL(ctx, opts)
}

// ResourceOwner fetches userinfo. An email Google reports as unverified is
// treated as absent.
func (c *Client) ResourceOwner(ctx context.Context, token *oauth.AccessToken) (oauth.ResourceOwner, error) {
	owner, err := c.FetchOwner(ctx, token)
	if err != nil {
		return nil, err
	}
	if v, ok := owner.ToMap()["email_verified"].(bool); ok && !v {
		return owner.WithEmail(""), nil
	}
	return owner, nil
}

// Hosted returns the Workspace domain ("hd" claim) of owner, if any.
func Hosted(owner oauth.ResourceOwner) string {
	hd, _ := owner.ToMap()["hd"].(string)
	return hd
}

// Factory registers Google in an oauth.Registry.
func Factory(cfg oauth.ProviderConfig, deps oauth.Deps) (oauth.Provider, error) {
	c, err := New(cfg, deps.HTTPClient, deps.State)
	if err != nil {
		return nil, err
	}
	return standard.New(cfg.Name, c, standard.AdapterOptions(deps)...), nil
}
