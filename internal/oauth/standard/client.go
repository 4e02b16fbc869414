package standard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/dropDatabas3/authbridge/internal/oauth"
	"github.com/dropDatabas3/authbridge/internal/oauth/state"
)

// Client is the standards-compliant OAuth2 client the Adapter delegates to.
type Client interface {
	// State returns the state embedded by the last AuthCodeURL call.
	State() string
	// AuthCodeURL generates the state on first use and builds the
	// authorization URL around it.
	AuthCodeURL(ctx context.Context, opts oauth.AuthorizationOptions) (string, error)
	Exchange(ctx context.Context, code string) (*oauth.AccessToken, error)
	ResourceOwner(ctx context.Context, token *oauth.AccessToken) (oauth.ResourceOwner, error)
}

// Config configures an OAuth2Client.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string

	AuthURL     string
	TokenURL    string
	UserInfoURL string
	AuthStyle   oauth2.AuthStyle

	Fields OwnerFields
}

// OAuth2Client implements Client on golang.org/x/oauth2. The state is
// generated lazily and then stays stable for the instance.
type OAuth2Client struct {
	cfg   Config
	oc    *oauth2.Config
	http  *http.Client
	gen   oauth.StateGenerator
	state string
}

// NewOAuth2Client builds a client. httpClient nil means a client with a 10s
// timeout; gen nil means state.Random.
func NewOAuth2Client(cfg Config, httpClient *http.Client, gen oauth.StateGenerator) (*OAuth2Client, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("standard: client_id is required")
	}
	if cfg.AuthURL == "" || cfg.TokenURL == "" {
		return nil, errors.New("standard: auth_url and token_url are required")
	}
	if cfg.Fields == (OwnerFields{}) {
		cfg.Fields = DefaultOwnerFields
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if gen == nil {
		gen = state.Random{}
	}
	return &OAuth2Client{
		cfg: cfg,
		oc: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: cfg.AuthStyle,
			},
		},
		http: httpClient,
		gen:  gen,
	}, nil
}

// Config returns the underlying x/oauth2 configuration.
func (c *OAuth2Client) Config() *oauth2.Config { return c.oc }

// HTTPClient returns the client used for server-to-server calls.
func (c *OAuth2Client) HTTPClient() *http.Client { return c.http }

func (c *OAuth2Client) State() string { return c.state }

func (c *OAuth2Client) AuthCodeURL(_ context.Context, opts oauth.AuthorizationOptions) (string, error) {
	if c.state == "" {
		st, err := c.gen.Generate()
		if err != nil {
			return "", fmt.Errorf("standard: generate state: %w", err)
		}
		c.state = st
	}

	var extra []oauth2.AuthCodeOption
	if len(opts.Scopes) > 0 {
		extra = append(extra, oauth2.SetAuthURLParam("scope", strings.Join(opts.Scopes, " ")))
	}
	for k, v := range opts.Extra {
		extra = append(extra, oauth2.SetAuthURLParam(k, v))
	}
	return c.oc.AuthCodeURL(c.state, extra...), nil
}

func (c *OAuth2Client) Exchange(ctx context.Context, code string) (*oauth.AccessToken, error) {
	hc, rec := c.recordingClient()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)
	t, err := c.oc.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			status := 0
			if re.Response != nil {
				status = re.Response.StatusCode
			}
			msg := "unable to exchange authorization code"
			if re.ErrorCode != "" {
				msg += ": " + re.ErrorCode
			}
			return nil, oauth.NewProviderError(msg, status, string(re.Body), err)
		}
		return nil, oauth.NewProviderError("unable to exchange authorization code", 0, "", err)
	}

	// Every provider value is kept; the fields x/oauth2 already parsed win.
	values := tokenValues(rec.body, rec.contentType)
	values[oauth.KeyAccessToken] = t.AccessToken
	if t.TokenType != "" {
		values["token_type"] = t.TokenType
	}
	if t.RefreshToken != "" {
		values[oauth.KeyRefreshToken] = t.RefreshToken
	}
	if !t.Expiry.IsZero() {
		values[oauth.KeyExpires] = t.Expiry.Unix()
	}
	at, err := oauth.NewAccessToken(values, time.Now())
	if err != nil {
		return nil, oauth.NewProviderError("invalid token response", 0, "", err)
	}
	return at, nil
}

func (c *OAuth2Client) ResourceOwner(ctx context.Context, token *oauth.AccessToken) (oauth.ResourceOwner, error) {
	return c.FetchOwner(ctx, token)
}

// FetchOwner fetches and decodes the userinfo document.
func (c *OAuth2Client) FetchOwner(ctx context.Context, token *oauth.AccessToken) (*GenericOwner, error) {
	if c.cfg.UserInfoURL == "" {
		return nil, errors.New("standard: userinfo_url is not configured")
	}
	body, err := c.Get(ctx, token, c.cfg.UserInfoURL)
	if err != nil {
		return nil, err
	}
	owner, err := NewGenericOwner(body, c.cfg.Fields)
	if err != nil {
		return nil, oauth.NewProviderError("invalid profile response", http.StatusOK, string(body), err)
	}
	return owner, nil
}

// Get performs an authenticated GET and returns the body of a 2xx response.
// Any other outcome is a ProviderCommunicationError.
func (c *OAuth2Client) Get(ctx context.Context, token *oauth.AccessToken, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("standard: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.Token())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, oauth.NewProviderError("unable to fetch resource owner", 0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, oauth.NewProviderError("unable to read resource owner", resp.StatusCode, "", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, oauth.NewProviderError("unable to fetch resource owner", resp.StatusCode, string(body), nil)
	}
	return body, nil
}
