// Package twitter adapts Twitter's OAuth 1.0a three-legged flow to the
// oauth.Provider contract.
//
// The temporary credentials obtained while building the authorization URL are
// kept in an oauth.TokenStore until the callback. The verifier plays the role
// of the authorization code and State is always empty: the temporary token
// secret never reaches the browser.
package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	oauth1 "github.com/garyburd/go-oauth/oauth"

	"github.com/dropDatabas3/authbridge/internal/oauth"
	"github.com/dropDatabas3/authbridge/internal/observability/logger"
)

// Endpoints are the Twitter URLs used by the adapter.
type Endpoints struct {
	RequestToken      string
	Authorize         string
	AccessToken       string
	VerifyCredentials string
}

// DefaultEndpoints are Twitter's production endpoints.
var DefaultEndpoints = Endpoints{
	RequestToken:      "https://api.twitter.com/oauth/request_token",
	Authorize:         "https://api.twitter.com/oauth/authorize",
	AccessToken:       "https://api.twitter.com/oauth/access_token",
	VerifyCredentials: "https://api.twitter.com/1.1/account/verify_credentials.json",
}

// Config is the consumer configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Endpoints    Endpoints
}

// Adapter implements oauth.Provider for Twitter.
type Adapter struct {
	name   string
	cfg    Config
	client oauth1.Client
	http   *http.Client
	store  oauth.TokenStore
}

// New builds an adapter bound to one attempt's token store. Empty endpoints
// default to DefaultEndpoints.
func New(name string, cfg Config, store oauth.TokenStore, httpClient *http.Client) (*Adapter, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("twitter: client id and secret are required")
	}
	if store == nil {
		return nil, errors.New("twitter: token store is required")
	}
	ep := cfg.Endpoints
	if ep.RequestToken == "" {
		ep.RequestToken = DefaultEndpoints.RequestToken
	}
	if ep.Authorize == "" {
		ep.Authorize = DefaultEndpoints.Authorize
	}
	if ep.AccessToken == "" {
		ep.AccessToken = DefaultEndpoints.AccessToken
	}
	if ep.VerifyCredentials == "" {
		ep.VerifyCredentials = DefaultEndpoints.VerifyCredentials
	}
	cfg.Endpoints = ep
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Adapter{
		name: name,
		cfg:  cfg,
		client: oauth1.Client{
			Credentials:                   oauth1.Credentials{Token: cfg.ClientID, Secret: cfg.ClientSecret},
			TemporaryCredentialRequestURI: ep.RequestToken,
			ResourceOwnerAuthorizationURI: ep.Authorize,
			TokenRequestURI:               ep.AccessToken,
		},
		http:  httpClient,
		store: store,
	}, nil
}

func (a *Adapter) Name() string     { return a.name }
func (a *Adapter) Kind() oauth.Kind { return oauth.KindOAuth1 }

// State is always empty for OAuth1.
func (a *Adapter) State() string { return "" }

// AuthorizationURL obtains temporary credentials, saves them and returns the
// authorize URL carrying the temporary token. opts is ignored.
func (a *Adapter) AuthorizationURL(ctx context.Context, _ oauth.AuthorizationOptions) (string, error) {
	hc, rec := a.call(ctx)
	temp, err := a.client.RequestTemporaryCredentials(hc, a.cfg.RedirectURI, nil)
	if err != nil {
		return "", oauth.NewProviderError("Unable to retrieve Twitter request_token", rec.status, rec.body, err)
	}
	tok, err := oauth.NewTemporaryToken(temp.Token, temp.Secret)
	if err != nil {
		return "", oauth.NewProviderError("Unable to retrieve Twitter request_token", rec.status, rec.body, err)
	}
	if err := a.store.Save(ctx, tok); err != nil {
		return "", fmt.Errorf("twitter: save temporary token: %w", err)
	}

	logger.From(ctx).Debug("twitter temporary token issued",
		logger.Provider(a.name),
		logger.Component("oauth.twitter"),
	)
	return a.client.AuthorizationURL(temp, nil), nil
}

// CheckCallback rejects, in order: a denial, any other provider error, an
// attempt with no stored temporary token, a missing or foreign oauth_token
// and a missing verifier. expectedState is unused.
func (a *Adapter) CheckCallback(ctx context.Context, params url.Values, _ string) error {
	if err := oauth.CheckProviderError(params); err != nil {
		return err
	}

	stored, err := a.loadStored(ctx, params)
	if err != nil {
		return err
	}

	got := params.Get(oauth.ParamOAuthToken)
	if got == "" {
		return oauth.NewCallbackError("missing oauth_token parameter", params)
	}
	if got != stored.Value() {
		return oauth.NewCallbackError(
			fmt.Sprintf("oauth_token %q does not match the temporary token %q", got, stored.Value()), params)
	}
	if params.Get(oauth.ParamOAuthVerifier) == "" {
		return oauth.NewCallbackError("missing oauth_verifier parameter", params)
	}
	return nil
}

// AuthCodeFromCallback returns the oauth_verifier.
func (a *Adapter) AuthCodeFromCallback(params url.Values) string {
	return params.Get(oauth.ParamOAuthVerifier)
}

// AccessTokenFromAuthCode exchanges the verifier for token credentials. The
// stored temporary token is cleared only when the exchange succeeds.
func (a *Adapter) AccessTokenFromAuthCode(ctx context.Context, verifier string) (*oauth.AccessToken, error) {
	stored, err := a.loadStored(ctx, nil)
	if err != nil {
		return nil, err
	}

	hc, rec := a.call(ctx)
	creds, vals, err := a.client.RequestToken(hc, &oauth1.Credentials{Token: stored.Value(), Secret: stored.Secret()}, verifier)
	if err != nil {
		return nil, oauth.NewProviderError("Unable to retrieve Twitter access_token", rec.status, rec.body, err)
	}

	if err := a.store.Clear(ctx); err != nil {
		logger.From(ctx).Debug("twitter temporary token not cleared",
			logger.Provider(a.name),
			logger.Err(err),
		)
	}

	values := make(map[string]any, len(vals)+2)
	for k := range vals {
		values[k] = vals.Get(k)
	}
	if _, ok := values["oauth_token"]; !ok && creds != nil {
		values["oauth_token"] = creds.Token
		values["oauth_token_secret"] = creds.Secret
	}

	tok, err := oauth.NewAccessToken(oauth.OAuth1TokenMapping.Remap(values), time.Now())
	if err != nil {
		return nil, oauth.NewProviderError("invalid Twitter access_token response", rec.status, "", err)
	}
	return tok, nil
}

// ResourceOwner fetches verify_credentials signed with the token credentials.
func (a *Adapter) ResourceOwner(ctx context.Context, token *oauth.AccessToken) (oauth.ResourceOwner, error) {
	creds := &oauth1.Credentials{Token: token.Token(), Secret: token.Value("oauth_token_secret")}
	form := url.Values{
		"include_entities": {"false"},
		"skip_status":      {"true"},
		"include_email":    {"true"},
	}

	hc, _ := a.call(ctx)
	resp, err := a.client.Get(hc, creds, a.cfg.Endpoints.VerifyCredentials, form)
	if err != nil {
		return nil, oauth.NewProviderError("Unable to retrieve Twitter user", 0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, oauth.NewProviderError("Unable to read Twitter user", resp.StatusCode, "", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, oauth.NewProviderError("Unable to retrieve Twitter user", resp.StatusCode, string(body), nil)
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, oauth.NewProviderError("invalid Twitter user response", resp.StatusCode, string(body), err)
	}
	return NewOwner(token.ResourceOwnerID(), raw), nil
}

func (a *Adapter) loadStored(ctx context.Context, params url.Values) (oauth.TemporaryToken, error) {
	stored, err := a.store.Load(ctx)
	switch {
	case err == nil:
		return stored, nil
	case errors.Is(err, oauth.ErrNotFound):
		cerr := oauth.NewCallbackError("no temporary token stored for this attempt", params)
		cerr.Err = err
		return oauth.TemporaryToken{}, cerr
	case errors.Is(err, oauth.ErrCallbackValidation):
		return oauth.TemporaryToken{}, err
	default:
		logger.From(ctx).Debug("twitter temporary token load failed", logger.Provider(a.name), logger.Err(err))
		return oauth.TemporaryToken{}, fmt.Errorf("twitter: load temporary token: %w", err)
	}
}

// Factory builds a Twitter adapter from a registry entry. AuthURL, TokenURL
// and UserInfoURL override the authorize, access_token and
// verify_credentials endpoints; Extra["request_token_url"] the request token
// endpoint.
func Factory(cfg oauth.ProviderConfig, deps oauth.Deps) (oauth.Provider, error) {
	a, err := New(cfg.Name, Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		Endpoints: Endpoints{
			RequestToken:      cfg.Extra["request_token_url"],
			Authorize:         cfg.AuthURL,
			AccessToken:       cfg.TokenURL,
			VerifyCredentials: cfg.UserInfoURL,
		},
	}, deps.TokenStore, deps.HTTPClient)
	if err != nil {
		return nil, err
	}
	return a, nil
}

var _ oauth.Provider = (*Adapter)(nil)
