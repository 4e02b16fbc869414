// Package github configures the standard OAuth2 adapter for GitHub.
// GitHub issues no ID token, and the /user profile omits private emails, so
// the owner's email may need a second call to /user/emails.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/dropDatabas3/authbridge/internal/oauth"
	"github.com/dropDatabas3/authbridge/internal/oauth/standard"
)

const (
	authEndpoint  = "https://github.com/login/oauth/authorize"
	tokenEndpoint = "https://github.com/login/oauth/access_token"
	userEndpoint  = "https://api.github.com/user"
	emailEndpoint = "https://api.github.com/user/emails"
)

// Fields locate the normalized owner fields in a GitHub /user payload.
var Fields = standard.OwnerFields{ID: "id", Name: "name", ScreenName: "login", Email: "email"}

// ErrNoEmail is returned by PrimaryEmail when the account lists no verified email.
var ErrNoEmail = errors.New("github: no verified email found")

// EmailInfo is an entry of GitHub's /user/emails response.
type EmailInfo struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// Client is a standard.OAuth2Client with GitHub's email lookup.
type Client struct {
	*standard.OAuth2Client
	emailsURL string
}

// New builds a GitHub client. Empty endpoints in cfg default to github.com.
// cfg.Extra["emails_url"] overrides the /user/emails endpoint.
func New(cfg oauth.ProviderConfig, httpClient *http.Client, gen oauth.StateGenerator) (*Client, error) {
	sc := standard.ConfigFrom(cfg)
	sc.AuthStyle = oauth2.AuthStyleInParams
	sc.Fields = Fields
	if sc.AuthURL == "" {
		sc.AuthURL = authEndpoint
	}
	if sc.TokenURL == "" {
		sc.TokenURL = tokenEndpoint
	}
	if sc.UserInfoURL == "" {
		sc.UserInfoURL = userEndpoint
	}
	if len(sc.Scopes) == 0 {
		sc.Scopes = []string{"user:email", "read:user"}
	}
	base, err := standard.NewOAuth2Client(sc, httpClient, gen)
	if err != nil {
		return nil, err
	}
	emails := cfg.Extra["emails_url"]
	if emails == "" {
		emails = emailEndpoint
	}
	return &Client{OAuth2Client: base, emailsURL: emails}, nil
}

// ResourceOwner fetches /user and, when it carries no email, the primary
// email from /user/emails. A rejected email lookup (missing scope) leaves the
// email absent.
func (c *Client) ResourceOwner(ctx context.Context, token *oauth.AccessToken) (oauth.ResourceOwner, error) {
	owner, err := c.FetchOwner(ctx, token)
	if err != nil {
		return nil, err
	}
	if _, ok := owner.Email(); ok {
		return owner, nil
	}

	info, err := c.PrimaryEmail(ctx, token)
	var pe *oauth.ProviderCommunicationError
	switch {
	case err == nil:
		return owner.WithEmail(info.Email), nil
	case errors.Is(err, ErrNoEmail), errors.As(err, &pe) && pe.Status != 0:
		return owner, nil
	default:
		return nil, err
	}
}

// PrimaryEmail returns the primary verified email, else any verified one.
// Unverified addresses are never returned.
func (c *Client) PrimaryEmail(ctx context.Context, token *oauth.AccessToken) (*EmailInfo, error) {
	body, err := c.Get(ctx, token, c.emailsURL)
	if err != nil {
		return nil, err
	}
	var emails []EmailInfo
	if err := json.Unmarshal(body, &emails); err != nil {
		return nil, oauth.NewProviderError("invalid emails response", http.StatusOK, string(body), fmt.Errorf("decode emails: %w", err))
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return &e, nil
		}
	}
	for _, e := range emails {
		if e.Verified {
			return &e, nil
		}
	}
	return nil, ErrNoEmail
}

// Factory registers GitHub in an oauth.Registry.
func Factory(cfg oauth.ProviderConfig, deps oauth.Deps) (oauth.Provider, error) {
	c, err := New(cfg, deps.HTTPClient, deps.State)
	if err != nil {
		return nil, err
	}
	return standard.New(cfg.Name, c, standard.AdapterOptions(deps)...), nil
}
